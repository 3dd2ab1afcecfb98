package domain

// FilterOp enumerates the comparison operators a FilterRule may use.
type FilterOp string

const (
	OpEquals   FilterOp = "="
	OpContains FilterOp = "~"
	OpGt       FilterOp = ">"
	OpGte      FilterOp = ">="
	OpLt       FilterOp = "<"
	OpLte      FilterOp = "<="
)

// FilterRule selects dataset rows by comparing one field against a value.
type FilterRule struct {
	Field string   `json:"field"`
	Op    FilterOp `json:"op"`
	Value string   `json:"value"`
}

// Reminder lists the ISO dates (YYYY-MM-DD) a contact should be called on.
type Reminder struct {
	ContactID string   `json:"contactId"`
	Dates     []string `json:"dates"`
}

// Survey is the optional single question asked during a call.
type Survey struct {
	Question  string   `json:"question"`
	Options   []string `json:"options"`
	CreatedAt int64    `json:"createdAt"`
	UpdatedAt int64    `json:"updatedAt"`
	Active    bool     `json:"active"`
}

// Campaign is a named outreach effort over a filtered slice of the dataset.
// ID is the stringified creation epoch-ms.
type Campaign struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	CreatedAt  int64        `json:"createdAt"`
	Filters    []FilterRule `json:"filters"`
	StudentIDs []string     `json:"studentIds"`
	Reminders  []Reminder   `json:"reminders"`
	Survey     *Survey      `json:"survey,omitempty"`
}

// Record is one row of the contact dataset. Keys vary between datasets.
type Record map[string]any
