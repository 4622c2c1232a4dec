package clients

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/andeslabs/eventos-platform/internal/conversation"
)

// Overrides are operator-supplied fields applied on top of captured data
// when converting a conversation.
type Overrides struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// Converter materializes a conversation into a CRM client. Client creation
// and conversation close must be all-or-nothing: on failure the conversation
// is left untouched.
type Converter interface {
	Convert(ctx context.Context, conversationID uuid.UUID, o Overrides) (*Client, error)
}

// BuildFromConversation maps a conversation's captured data to a new client
// record. The lead's free-text name is split on the first space unless the
// operator supplied an explicit first/last name. New clients enter the
// funnel at "interested": the operator advances the stage manually, and
// "client" is reserved for a signed contract.
func BuildFromConversation(conv *conversation.Conversation, o Overrides) (*Client, error) {
	first, last := SplitName(conv.LeadData.Name)
	if o.FirstName != "" {
		first = strings.TrimSpace(o.FirstName)
		last = strings.TrimSpace(o.LastName)
	}

	email := conv.LeadData.Email
	if o.Email != "" {
		email = strings.TrimSpace(o.Email)
	}

	client := &Client{
		ID:        uuid.New(),
		FirstName: first,
		LastName:  last,
		Email:     email,
		Phone:     conv.ContactPhone,
		Status:    StatusInterested,
		Source:    string(conv.Platform),
		EventType: conv.LeadData.EventType,
		EventDate: conv.LeadData.EventDate,
		Budget:    conv.LeadData.Budget,
		Notes:     o.Notes,
	}
	if err := client.Validate(); err != nil {
		return nil, err
	}
	return client, nil
}
