package domain

// Outcome is the latest call result for a contact. The zero value means the
// contact was never called.
type Outcome string

const (
	OutcomeAnswered Outcome = "answered"
	OutcomeNoAnswer Outcome = "no_answer"
)

// NormalizeOutcome maps any input to one of the two recorded outcomes.
// Only the literal "answered" counts as answered.
func NormalizeOutcome(s string) Outcome {
	if s == string(OutcomeAnswered) {
		return OutcomeAnswered
	}
	return OutcomeNoAnswer
}

// MaxNotesLogs bounds ContactState.NotesLogs.
const MaxNotesLogs = 10

// Totals are the aggregate counters of a Progress record. Made, Answered and
// Missed are always recomputed from Contacts; Total is fixed at creation.
type Totals struct {
	Total    int `json:"total"`
	Made     int `json:"made"`
	Answered int `json:"answered"`
	Missed   int `json:"missed"`
}

// SurveyLog is one recorded survey answer.
type SurveyLog struct {
	Answer string `json:"answer"`
	At     int64  `json:"at"`
}

// NoteLog is one recorded note revision.
type NoteLog struct {
	Text string `json:"text"`
	At   int64  `json:"at"`
}

// ContactState is the calling state of one contact within a campaign.
// A contact missing from Progress.Contacts is equivalent to NewContactState().
type ContactState struct {
	Attempts     int         `json:"attempts"`
	Outcome      Outcome     `json:"outcome,omitempty"`
	LastCalledAt int64       `json:"lastCalledAt"`
	SurveyAnswer *string     `json:"surveyAnswer,omitempty"`
	SurveyLogs   []SurveyLog `json:"surveyLogs"`
	Notes        string      `json:"notes"`
	NotesLogs    []NoteLog   `json:"notesLogs"`
}

// NewContactState returns the default state of an untouched contact.
func NewContactState() *ContactState {
	return &ContactState{
		SurveyLogs: []SurveyLog{},
		NotesLogs:  []NoteLog{},
	}
}

// Called reports whether at least one attempt was recorded.
func (c *ContactState) Called() bool {
	return c != nil && c.Attempts > 0
}

// Answer returns the current survey answer, or "" when none was recorded.
func (c *ContactState) Answer() string {
	if c == nil || c.SurveyAnswer == nil {
		return ""
	}
	return *c.SurveyAnswer
}

// Progress is the persisted per-campaign calling record.
type Progress struct {
	CampaignID string                   `json:"campaignId"`
	Version    int64                    `json:"version,omitempty"`
	Totals     Totals                   `json:"totals"`
	Contacts   map[string]*ContactState `json:"contacts"`
}

// Contact returns the state for id, or nil when the contact is untouched.
func (p *Progress) Contact(id string) *ContactState {
	if p == nil || p.Contacts == nil {
		return nil
	}
	return p.Contacts[id]
}

// Recount recomputes Made, Answered and Missed from Contacts.
func (p *Progress) Recount() {
	var made, answered, missed int
	for _, c := range p.Contacts {
		if c == nil {
			continue
		}
		if c.Attempts > 0 {
			made++
		}
		switch c.Outcome {
		case OutcomeAnswered:
			answered++
		case OutcomeNoAnswer:
			missed++
		}
	}
	p.Totals.Made = made
	p.Totals.Answered = answered
	p.Totals.Missed = missed
}
