package clients

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/andeslabs/eventos-platform/internal/conversation"
)

// InMemoryRepository stores clients in memory. Used in tests and local
// development.
type InMemoryRepository struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]*Client
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{clients: make(map[uuid.UUID]*Client)}
}

// Create stores a new client.
func (r *InMemoryRepository) Create(ctx context.Context, client *Client) (*Client, error) {
	if err := client.Validate(); err != nil {
		return nil, err
	}
	out := *client
	if out.ID == uuid.Nil {
		out.ID = uuid.New()
	}
	now := time.Now().UTC()
	out.CreatedAt = now
	out.UpdatedAt = now

	r.mu.Lock()
	r.clients[out.ID] = &out
	r.mu.Unlock()

	result := out
	return &result, nil
}

// GetByID retrieves a client by ID.
func (r *InMemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	client, ok := r.clients[id]
	if !ok {
		return nil, ErrClientNotFound
	}
	out := *client
	return &out, nil
}

// ListByStatus returns clients in the given funnel stage, newest first.
// An empty status matches everything.
func (r *InMemoryRepository) ListByStatus(ctx context.Context, status Status, limit int) ([]*Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Client, 0, len(r.clients))
	for _, client := range r.clients {
		if status != "" && client.Status != status {
			continue
		}
		copied := *client
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MemoryConverter bridges a conversation MemoryStore and an in-memory client
// repository with the same all-or-nothing contract as the Postgres
// converter: the conversation is only closed and linked after the client was
// created successfully.
type MemoryConverter struct {
	conversations conversation.Store
	repo          *InMemoryRepository
}

// NewMemoryConverter builds an in-memory converter.
func NewMemoryConverter(store conversation.Store, repo *InMemoryRepository) *MemoryConverter {
	return &MemoryConverter{conversations: store, repo: repo}
}

var _ Converter = (*MemoryConverter)(nil)

// Convert materializes the conversation into a client and closes it.
func (c *MemoryConverter) Convert(ctx context.Context, conversationID uuid.UUID, o Overrides) (*Client, error) {
	conv, err := c.conversations.Get(ctx, conversationID)
	if err != nil {
		if err == conversation.ErrNotFound {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	if conv.Status != conversation.StatusActive {
		return nil, ErrConversationNotActive
	}

	client, err := BuildFromConversation(conv, o)
	if err != nil {
		return nil, err
	}
	created, err := c.repo.Create(ctx, client)
	if err != nil {
		return nil, err
	}

	if err := c.conversations.LinkClient(ctx, conversationID, created.ID); err != nil {
		return nil, err
	}
	if err := c.conversations.SetStatus(ctx, conversationID, conversation.StatusClosed); err != nil {
		return nil, err
	}
	return created, nil
}
