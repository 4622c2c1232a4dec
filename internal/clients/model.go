package clients

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the CRM funnel stage of a client.
type Status string

const (
	StatusLead         Status = "lead"
	StatusContacted    Status = "contacted"
	StatusInterested   Status = "interested"
	StatusProposalSent Status = "proposal-sent"
	StatusClient       Status = "client"
	StatusInactive     Status = "inactive"
)

// Client is a CRM record, typically materialized from a chatbot conversation.
type Client struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Status    Status    `json:"status"`
	Source    string    `json:"source"`
	EventType string    `json:"event_type,omitempty"`
	EventDate string    `json:"event_date,omitempty"`
	Budget    string    `json:"budget,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the minimum fields required to persist a client.
func (c *Client) Validate() error {
	if strings.TrimSpace(c.FirstName) == "" {
		return ErrMissingName
	}
	if c.Email == "" && c.Phone == "" {
		return ErrMissingContact
	}
	return nil
}

// SplitName splits a free-text name on the first space: the first token is
// the first name, the remainder (possibly empty) is the last name.
func SplitName(full string) (first, last string) {
	full = strings.TrimSpace(full)
	if full == "" {
		return "", ""
	}
	if idx := strings.IndexByte(full, ' '); idx >= 0 {
		return full[:idx], strings.TrimSpace(full[idx+1:])
	}
	return full, ""
}
