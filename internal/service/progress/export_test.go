package progress_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/reachpoint/internal/domain"
	"github.com/ignite/reachpoint/internal/service/progress"
)

func TestEscapeCSV(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"", ""},
		{"a,b", `"a,b"`},
		{`say "hi"`, `"say ""hi"""`},
		{"line1\nline2", "\"line1\nline2\""},
		{" padded ", " padded "},
		{"tab\there", "tab\there"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, progress.EscapeCSV(tt.in), "input %q", tt.in)
	}
}

func TestJoinCSV(t *testing.T) {
	got := progress.JoinCSV([][]string{{"a", "b"}, {"1", "x,y"}})
	assert.Equal(t, "a,b\n1,\"x,y\"", got)
	assert.Equal(t, "", progress.JoinCSV(nil))
}

func TestISOTime(t *testing.T) {
	assert.Equal(t, "1970-01-01T00:00:00.000Z", progress.ISOTime(0))
	assert.Equal(t, "2025-03-01T15:00:00.250Z", progress.ISOTime(epoch.UnixMilli()+250))
}

func TestContactIDsOrder(t *testing.T) {
	p := &domain.Progress{Contacts: map[string]*domain.ContactState{
		"b": {}, "10": {}, "a": {}, "2": {}, "007": {}, "skip": nil,
	}}
	assert.Equal(t, []string{"2", "10", "007", "a", "b"}, progress.ContactIDs(p))
}

// seedScenario records A as answered with a survey answer and a note, and
// leaves B untouched.
func seedScenario(t *testing.T) *progress.Store {
	t.Helper()
	ctx := context.Background()
	s, _ := newTestStore(t)

	_, err := s.LoadOrInit(ctx, "c1", []string{"A", "B"})
	require.NoError(t, err)
	_, err = s.RecordOutcome(ctx, "c1", "A", "answered") // epoch+0
	require.NoError(t, err)
	_, err = s.RecordSurveyResponse(ctx, "c1", "A", "Yes") // epoch+1
	require.NoError(t, err)
	_, err = s.RecordNote(ctx, "c1", "A", "called back") // epoch+2
	require.NoError(t, err)
	return s
}

func TestExportCallOutcomesCSV(t *testing.T) {
	s := seedScenario(t)

	csv, err := s.ExportCallOutcomesCSV(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "contactId,outcome,timestamp\nA,answered,2025-03-01T15:00:00.000Z", csv)
}

func TestExportNotCalledCSV(t *testing.T) {
	s := seedScenario(t)

	csv, err := s.ExportNotCalledCSV(context.Background(), "c1", []string{"A", "B"},
		progress.NameResolver{"A": "Ann", "B": "Smith, Bo"})
	require.NoError(t, err)
	assert.Equal(t, "contactId,full_name\nB,\"Smith, Bo\"", csv)
}

func TestExportSurveyCSV(t *testing.T) {
	ctx := context.Background()
	s := seedScenario(t)
	_, err := s.RecordSurveyResponse(ctx, "c1", "A", `Maybe, "later"`) // epoch+3
	require.NoError(t, err)

	csv, err := s.ExportSurveyCSV(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t,
		"contactId,answer,timestamp\n"+
			"A,Yes,2025-03-01T15:00:01.000Z\n"+
			"A,\"Maybe, \"\"later\"\"\",2025-03-01T15:00:03.000Z",
		csv)
}

func TestExportSurveyCSVLegacyRecord(t *testing.T) {
	ctx := context.Background()
	s, kv := newTestStore(t)
	legacy := `{"campaignId":"old","totals":{"total":2,"made":1,"answered":1,"missed":0},` +
		`"contacts":{"x":{"attempts":1,"outcome":"answered","lastCalledAt":1000,"surveyAnswer":"Yes"},` +
		`"y":{"attempts":1,"outcome":"no_answer","lastCalledAt":2000}}}`
	require.NoError(t, kv.Set(ctx, progress.Key("old"), legacy))

	csv, err := s.ExportSurveyCSV(ctx, "old")
	require.NoError(t, err)
	assert.Equal(t, "contactId,answer,timestamp\nx,Yes,1970-01-01T00:00:01.000Z", csv)
}

func TestExportNotesCSV(t *testing.T) {
	ctx := context.Background()
	s := seedScenario(t)
	_, err := s.RecordOutcome(ctx, "c1", "C", "no_answer") // epoch+3, no notes
	require.NoError(t, err)

	csv, err := s.ExportNotesCSV(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t,
		"contactId,notes,lastUpdated\n"+
			"A,called back,2025-03-01T15:00:02.000Z\n"+
			"C,,1970-01-01T00:00:00.000Z",
		csv)
}

func TestExportsOfEmptyCampaign(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	csv, err := s.ExportCallOutcomesCSV(ctx, "none")
	require.NoError(t, err)
	assert.Equal(t, "contactId,outcome,timestamp", csv)

	csv, err = s.ExportNotCalledCSV(ctx, "none", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "contactId,full_name", csv)
}
