package progress

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ignite/reachpoint/internal/domain"
)

// ISOLayout is the timestamp format of every export.
const ISOLayout = "2006-01-02T15:04:05.000Z"

// ISOTime formats epoch milliseconds as a UTC ISO-8601 timestamp.
func ISOTime(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(ISOLayout)
}

// EscapeCSV quotes a field containing a comma, quote or newline and doubles
// its quotes. Other fields are emitted as is.
func EscapeCSV(s string) string {
	if !strings.ContainsAny(s, "\",\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// JoinCSV renders rows as CSV text joined by "\n", without a trailing newline.
func JoinCSV(rows [][]string) string {
	var b strings.Builder
	for i, row := range rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		for j, f := range row {
			if j > 0 {
				b.WriteByte(',')
			}
			b.WriteString(EscapeCSV(f))
		}
	}
	return b.String()
}

// ContactIDs returns the ids of p's contacts in a stable order: ids that are
// canonical non-negative integers first, numerically, then the rest in byte
// order.
func ContactIDs(p *domain.Progress) []string {
	ids := make([]string, 0, len(p.Contacts))
	for id, c := range p.Contacts {
		if c != nil {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		a, aok := indexKey(ids[i])
		b, bok := indexKey(ids[j])
		switch {
		case aok && bok:
			return a < b
		case aok != bok:
			return aok
		default:
			return ids[i] < ids[j]
		}
	})
	return ids
}

func indexKey(s string) (uint64, bool) {
	if s == "" || (len(s) > 1 && s[0] == '0') {
		return 0, false
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil || n == 1<<32-1 {
		return 0, false
	}
	return n, true
}

// ExportSurveyCSV lists every recorded survey answer, one row per log entry.
// Records written before survey logs existed fall back to the current answer
// stamped with the last call time.
func (s *Store) ExportSurveyCSV(ctx context.Context, campaignID string) (string, error) {
	p, err := s.LoadOrInit(ctx, campaignID, nil)
	if err != nil {
		return "", err
	}
	rows := [][]string{{"contactId", "answer", "timestamp"}}
	for _, id := range ContactIDs(p) {
		c := p.Contacts[id]
		switch {
		case c.SurveyLogs != nil:
			for _, l := range c.SurveyLogs {
				rows = append(rows, []string{id, l.Answer, ISOTime(l.At)})
			}
		case c.Answer() != "":
			rows = append(rows, []string{id, c.Answer(), ISOTime(c.LastCalledAt)})
		}
	}
	return JoinCSV(rows), nil
}

// ExportCallOutcomesCSV lists the latest outcome of every touched contact.
func (s *Store) ExportCallOutcomesCSV(ctx context.Context, campaignID string) (string, error) {
	p, err := s.LoadOrInit(ctx, campaignID, nil)
	if err != nil {
		return "", err
	}
	rows := [][]string{{"contactId", "outcome", "timestamp"}}
	for _, id := range ContactIDs(p) {
		c := p.Contacts[id]
		rows = append(rows, []string{id, string(c.Outcome), ISOTime(c.LastCalledAt)})
	}
	return JoinCSV(rows), nil
}

// ExportNotesCSV lists the current note of every touched contact with the
// time of its latest revision.
func (s *Store) ExportNotesCSV(ctx context.Context, campaignID string) (string, error) {
	p, err := s.LoadOrInit(ctx, campaignID, nil)
	if err != nil {
		return "", err
	}
	rows := [][]string{{"contactId", "notes", "lastUpdated"}}
	for _, id := range ContactIDs(p) {
		c := p.Contacts[id]
		var at int64
		if n := len(c.NotesLogs); n > 0 {
			at = c.NotesLogs[n-1].At
		}
		rows = append(rows, []string{id, c.Notes, ISOTime(at)})
	}
	return JoinCSV(rows), nil
}

// ExportNotCalledCSV renders GetNotCalled.
func (s *Store) ExportNotCalledCSV(ctx context.Context, campaignID string, queueIDs []string, r Resolver) (string, error) {
	entries, err := s.GetNotCalled(ctx, campaignID, queueIDs, r)
	if err != nil {
		return "", err
	}
	rows := make([][]string, 0, len(entries)+1)
	rows = append(rows, []string{"contactId", "full_name"})
	for _, e := range entries {
		rows = append(rows, []string{e.ContactID, e.FullName})
	}
	return JoinCSV(rows), nil
}
