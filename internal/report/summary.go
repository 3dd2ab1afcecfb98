// Package report joins campaign contacts with their progress to build the
// full summary export and per-campaign insights, and dispatches every export
// kind by name.
package report

import (
	"strings"

	"github.com/ignite/reachpoint/internal/domain"
	"github.com/ignite/reachpoint/internal/segmentation"
	"github.com/ignite/reachpoint/internal/service/progress"
)

// SummaryHeaders are the columns of the full summary export.
var SummaryHeaders = []string{
	"Full Name",
	"Outcome",
	"Response",
	"Notes",
	"Timestamp",
	"Student ID",
	"Campaign ID",
	"Campaign Name",
}

// SummaryRow is one contact of the full summary.
type SummaryRow struct {
	FullName     string `json:"fullName"`
	Outcome      string `json:"outcome"`
	Response     string `json:"response"`
	Notes        string `json:"notes"`
	Timestamp    string `json:"timestamp"`
	StudentID    string `json:"studentId"`
	CampaignID   string `json:"campaignId"`
	CampaignName string `json:"campaignName"`
}

func (r SummaryRow) fields() []string {
	return []string{r.FullName, r.Outcome, r.Response, r.Notes, r.Timestamp, r.StudentID, r.CampaignID, r.CampaignName}
}

// Summary returns one row per contact the campaign's filters select from
// rows, touched or not, in filter order.
func Summary(c domain.Campaign, rows []domain.Record, p *domain.Progress) []SummaryRow {
	matched, ids := segmentation.Queue(rows, c.Filters)
	out := make([]SummaryRow, len(matched))
	for i, row := range matched {
		id := ids[i]
		st := p.Contact(id)
		if st == nil {
			st = domain.NewContactState()
		}
		out[i] = SummaryRow{
			FullName:     progress.FullName(row),
			Outcome:      string(st.Outcome),
			Response:     st.Answer(),
			Notes:        st.Notes,
			Timestamp:    displayTime(st),
			StudentID:    id,
			CampaignID:   c.ID,
			CampaignName: c.Name,
		}
	}
	return out
}

// displayTime is the later of the last call and the newest survey log entry
// matching the current answer, or "" when neither exists.
func displayTime(st *domain.ContactState) string {
	tCall := st.LastCalledAt
	var tResp int64
	answer := st.Answer()
	for i := len(st.SurveyLogs) - 1; i >= 0; i-- {
		if st.SurveyLogs[i].Answer == answer {
			tResp = st.SurveyLogs[i].At
			break
		}
	}
	if tCall == 0 && tResp == 0 {
		return ""
	}
	return progress.ISOTime(max(tCall, tResp))
}

// SummaryCSV renders rows under SummaryHeaders. The header is always
// followed by a newline, even with no rows.
func SummaryCSV(rows []SummaryRow) string {
	body := make([][]string, len(rows))
	for i, r := range rows {
		body[i] = r.fields()
	}
	var b strings.Builder
	b.WriteString(progress.JoinCSV([][]string{SummaryHeaders}))
	b.WriteByte('\n')
	b.WriteString(progress.JoinCSV(body))
	return b.String()
}
