package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeOutcome(t *testing.T) {
	tests := []struct {
		in   string
		want Outcome
	}{
		{"answered", OutcomeAnswered},
		{"no_answer", OutcomeNoAnswer},
		{"Answered", OutcomeNoAnswer},
		{"voicemail", OutcomeNoAnswer},
		{"", OutcomeNoAnswer},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeOutcome(tt.in))
		})
	}
}

func TestRecountIgnoresTotal(t *testing.T) {
	p := &Progress{
		Totals: Totals{Total: 7, Made: 99, Answered: 99, Missed: 99},
		Contacts: map[string]*ContactState{
			"a": {Attempts: 2, Outcome: OutcomeAnswered},
			"b": {Attempts: 1, Outcome: OutcomeNoAnswer},
			"c": {Attempts: 0},
			"d": nil,
		},
	}
	p.Recount()
	assert.Equal(t, Totals{Total: 7, Made: 2, Answered: 1, Missed: 1}, p.Totals)
}

func TestContactStateHelpers(t *testing.T) {
	var missing *ContactState
	assert.False(t, missing.Called())
	assert.Equal(t, "", missing.Answer())

	yes := "Yes"
	c := &ContactState{Attempts: 1, SurveyAnswer: &yes}
	assert.True(t, c.Called())
	assert.Equal(t, "Yes", c.Answer())

	p := &Progress{}
	assert.Nil(t, p.Contact("x"))
}
