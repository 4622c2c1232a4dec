package conversation

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store used in tests and local development.
type MemoryStore struct {
	mu            sync.Mutex
	conversations map[uuid.UUID]*Conversation
	messages      map[uuid.UUID][]Message
	now           func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		conversations: make(map[uuid.UUID]*Conversation),
		messages:      make(map[uuid.UUID][]Message),
		now:           time.Now,
	}
}

var _ Store = (*MemoryStore)(nil)

// FindOrCreate returns the open conversation for the address or creates one.
func (s *MemoryStore) FindOrCreate(ctx context.Context, platform Platform, platformUserID string) (*Conversation, error) {
	if !platform.Valid() {
		return nil, ErrInvalidPlatform
	}
	if platformUserID == "" {
		return nil, ErrMissingPlatformUser
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, conv := range s.conversations {
		if conv.Platform == platform && conv.PlatformUserID == platformUserID && conv.Status == StatusActive {
			return cloneConversation(conv), nil
		}
	}

	now := s.now()
	conv := &Conversation{
		ID:             uuid.New(),
		Platform:       platform,
		PlatformUserID: platformUserID,
		ContactPhone:   platformUserID,
		Status:         StatusActive,
		LeadQuality:    QualityWarm,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.conversations[conv.ID] = conv
	return cloneConversation(conv), nil
}

// Get retrieves a conversation by id.
func (s *MemoryStore) Get(ctx context.Context, id uuid.UUID) (*Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneConversation(conv), nil
}

// List returns conversations matching the filter, most recently updated first.
func (s *MemoryStore) List(ctx context.Context, filter ListFilter) ([]*Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*Conversation
	for _, conv := range s.conversations {
		if filter.Status != "" && conv.Status != filter.Status {
			continue
		}
		if filter.Quality != "" && conv.LeadQuality != filter.Quality {
			continue
		}
		if filter.Assigned != "" && conv.AssignedTo != filter.Assigned {
			continue
		}
		out = append(out, cloneConversation(conv))
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].UpdatedAt.After(out[i].UpdatedAt) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []*Conversation{}, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	if out == nil {
		out = []*Conversation{}
	}
	return out, nil
}

// AppendMessage pushes to the log and updates lastMessageAt.
func (s *MemoryStore) AppendMessage(ctx context.Context, id uuid.UUID, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok {
		return ErrNotFound
	}
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = s.now()
	}
	s.messages[id] = append(s.messages[id], msg)
	conv.MessageCount++
	ts := msg.CreatedAt
	conv.LastMessageAt = &ts
	conv.UpdatedAt = s.now()
	return nil
}

// Messages returns the ordered log, oldest first.
func (s *MemoryStore) Messages(ctx context.Context, id uuid.UUID, limit int) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[id]; !ok {
		return nil, ErrNotFound
	}
	msgs := s.messages[id]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[:limit]
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

// MergeSlots applies write-once slot updates.
func (s *MemoryStore) MergeSlots(ctx context.Context, id uuid.UUID, updates LeadData) (LeadData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok {
		return LeadData{}, ErrNotFound
	}
	conv.LeadData = conv.LeadData.Merge(updates)
	conv.UpdatedAt = s.now()
	return conv.LeadData, nil
}

// SetStatus validates and applies a lifecycle transition.
func (s *MemoryStore) SetStatus(ctx context.Context, id uuid.UUID, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok {
		return ErrNotFound
	}
	if !ValidTransition(conv.Status, status) {
		return ErrInvalidTransition
	}
	conv.Status = status
	conv.UpdatedAt = s.now()
	return nil
}

// SetLeadQuality tags the lead; hot is sticky.
func (s *MemoryStore) SetLeadQuality(ctx context.Context, id uuid.UUID, quality LeadQuality) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok {
		return ErrNotFound
	}
	if conv.LeadQuality == QualityHot && quality != QualityHot {
		return nil
	}
	conv.LeadQuality = quality
	conv.UpdatedAt = s.now()
	return nil
}

// SetFollowUp flags the conversation for human follow-up.
func (s *MemoryStore) SetFollowUp(ctx context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok {
		return ErrNotFound
	}
	conv.FollowUpRequired = true
	conv.FollowUpAt = &at
	conv.UpdatedAt = s.now()
	return nil
}

// SetIntent records the intent classification.
func (s *MemoryStore) SetIntent(ctx context.Context, id uuid.UUID, intent string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok {
		return ErrNotFound
	}
	conv.Intent = intent
	conv.UpdatedAt = s.now()
	return nil
}

// Assign sets the operator responsible for the conversation.
func (s *MemoryStore) Assign(ctx context.Context, id uuid.UUID, operator string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok {
		return ErrNotFound
	}
	conv.AssignedTo = operator
	conv.UpdatedAt = s.now()
	return nil
}

// LinkClient associates a converted CRM client with the conversation.
func (s *MemoryStore) LinkClient(ctx context.Context, id uuid.UUID, clientID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok {
		return ErrNotFound
	}
	cid := clientID
	conv.ClientID = &cid
	conv.UpdatedAt = s.now()
	return nil
}

func cloneConversation(c *Conversation) *Conversation {
	out := *c
	if c.FollowUpAt != nil {
		t := *c.FollowUpAt
		out.FollowUpAt = &t
	}
	if c.LastMessageAt != nil {
		t := *c.LastMessageAt
		out.LastMessageAt = &t
	}
	if c.ClientID != nil {
		id := *c.ClientID
		out.ClientID = &id
	}
	if len(c.LeadData.Interests) > 0 {
		out.LeadData.Interests = append([]string(nil), c.LeadData.Interests...)
	}
	return &out
}
