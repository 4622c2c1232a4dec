package conversation

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ListFilter narrows conversation listings for the operator API.
type ListFilter struct {
	Status   Status
	Quality  LeadQuality
	Assigned string
	Limit    int
	Offset   int
}

// Store persists conversations: an append-only message log plus mutable
// conversation-level state (status, slots, quality, assignment).
type Store interface {
	// FindOrCreate returns the active conversation for (platform, user) or
	// creates one. There is never more than one active conversation per
	// address; concurrent calls for the same address resolve to the same
	// conversation.
	FindOrCreate(ctx context.Context, platform Platform, platformUserID string) (*Conversation, error)

	Get(ctx context.Context, id uuid.UUID) (*Conversation, error)
	List(ctx context.Context, filter ListFilter) ([]*Conversation, error)

	// AppendMessage pushes msg onto the log and recomputes lastMessageAt as
	// the appended message's timestamp. Never reorders, never deduplicates.
	AppendMessage(ctx context.Context, id uuid.UUID, msg Message) error
	Messages(ctx context.Context, id uuid.UUID, limit int) ([]Message, error)

	// MergeSlots fills only slots that are currently unset (write-once) and
	// returns the resulting captured data.
	MergeSlots(ctx context.Context, id uuid.UUID, updates LeadData) (LeadData, error)

	// SetStatus transitions status. Valid transitions: active→closed,
	// active→archived, closed→archived. Closing does not clear the
	// follow-up flag.
	SetStatus(ctx context.Context, id uuid.UUID, status Status) error

	// SetLeadQuality tags the lead. A hot conversation is never downgraded;
	// attempts to move away from hot are ignored.
	SetLeadQuality(ctx context.Context, id uuid.UUID, quality LeadQuality) error

	SetFollowUp(ctx context.Context, id uuid.UUID, at time.Time) error
	SetIntent(ctx context.Context, id uuid.UUID, intent string) error
	Assign(ctx context.Context, id uuid.UUID, operator string) error
	LinkClient(ctx context.Context, id uuid.UUID, clientID uuid.UUID) error
}
