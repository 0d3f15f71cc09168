package domain

import (
	"fmt"
	"time"
)

// Role classifies who a quote is attributed to.
type Role string

const (
	RoleTeacher Role = "Teacher"
	RoleStudent Role = "Student"
	RoleNone    Role = "None"
)

// Valid reports whether r is one of the enumerated roles.
func (r Role) Valid() bool {
	switch r {
	case RoleTeacher, RoleStudent, RoleNone:
		return true
	}

	return false
}

// ParseRole converts s to a Role, rejecting anything outside the closed set.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}

	return r, nil
}

// Quote is a short attributed utterance. Timestamp is milliseconds since
// the Unix epoch and is the only ordering key.
type Quote struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Text      string `json:"text"`
	Type      Role   `json:"type"`
	Timestamp int64  `json:"timestamp"`
}

// Time returns the quote timestamp as a time.Time in UTC.
func (q Quote) Time() time.Time {
	return time.UnixMilli(q.Timestamp).UTC()
}

// QuoteDraft is a validated insert payload. The store assigns the ID.
type QuoteDraft struct {
	Name      string
	Text      string
	Type      Role
	Timestamp int64
}

// WithID materializes the draft as a Quote.
func (d QuoteDraft) WithID(id string) Quote {
	return Quote{
		ID:        id,
		Name:      d.Name,
		Text:      d.Text,
		Type:      d.Type,
		Timestamp: d.Timestamp,
	}
}

// QuotePatch is a validated partial update. Nil fields are left untouched.
type QuotePatch struct {
	Name      *string
	Text      *string
	Type      *Role
	Timestamp *int64
}

// Empty reports whether the patch changes nothing.
func (p QuotePatch) Empty() bool {
	return p.Name == nil && p.Text == nil && p.Type == nil && p.Timestamp == nil
}

// Apply returns q with the supplied fields replaced.
func (p QuotePatch) Apply(q Quote) Quote {
	if p.Name != nil {
		q.Name = *p.Name
	}
	if p.Text != nil {
		q.Text = *p.Text
	}
	if p.Type != nil {
		q.Type = *p.Type
	}
	if p.Timestamp != nil {
		q.Timestamp = *p.Timestamp
	}

	return q
}
