package domain

// SingleCall is one entry of the ad-hoc call log, kept outside any campaign.
type SingleCall struct {
	ID        string `json:"id"`
	StudentID string `json:"studentId"`
	FullName  string `json:"full_name"`
	Caller    string `json:"caller"`
	Notes     string `json:"notes"`
	At        int64  `json:"at"`
}
