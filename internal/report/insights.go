package report

import (
	"strings"
	"time"

	"github.com/ignite/reachpoint/internal/domain"
	"github.com/ignite/reachpoint/internal/segmentation"
)

// UnknownGradYear labels contacts with no graduation year.
const UnknownGradYear = "Unknown"

var gradYearKeys = []string{
	"High School Graduation Year*",
	"High School Graduation Year",
	"Graduation Year",
	"HS Grad Year",
	"Grad Year",
}

// GradYear returns the first non-blank graduation year field of a record.
func GradYear(r domain.Record) string {
	for _, k := range gradYearKeys {
		v, ok := r[k]
		if !ok || v == nil {
			continue
		}
		if s := strings.TrimSpace(segmentation.ToString(v)); s != "" {
			return s
		}
	}
	return UnknownGradYear
}

// Insights are the aggregate numbers behind the campaign charts.
type Insights struct {
	CampaignID string `json:"campaignId"`
	Queue      int    `json:"queue"`
	Answered   int    `json:"answered"`
	NoAnswer   int    `json:"noAnswer"`
	NotCalled  int    `json:"notCalled"`
	// AnsweredByGradYear counts answered contacts per graduation year.
	AnsweredByGradYear map[string]int `json:"answeredByGradYear"`
	// AnsweredByHour and AnsweredByWeekday bucket the last call of each
	// answered contact; weekdays start on Sunday.
	AnsweredByHour    [24]int `json:"answeredByHour"`
	AnsweredByWeekday [7]int  `json:"answeredByWeekday"`
}

// BuildInsights aggregates progress over the campaign's current queue. Call
// times are bucketed in loc.
func BuildInsights(c domain.Campaign, rows []domain.Record, p *domain.Progress, loc *time.Location) Insights {
	if loc == nil {
		loc = time.UTC
	}
	matched, ids := segmentation.Queue(rows, c.Filters)
	in := Insights{
		CampaignID:         c.ID,
		Queue:              len(ids),
		AnsweredByGradYear: make(map[string]int),
	}
	for i, id := range ids {
		st := p.Contact(id)
		if !st.Called() {
			in.NotCalled++
			continue
		}
		switch st.Outcome {
		case domain.OutcomeAnswered:
			in.Answered++
		case domain.OutcomeNoAnswer:
			in.NoAnswer++
			continue
		default:
			continue
		}
		in.AnsweredByGradYear[GradYear(matched[i])]++
		if st.LastCalledAt > 0 {
			t := time.UnixMilli(st.LastCalledAt).In(loc)
			in.AnsweredByHour[t.Hour()]++
			in.AnsweredByWeekday[int(t.Weekday())]++
		}
	}
	return in
}
