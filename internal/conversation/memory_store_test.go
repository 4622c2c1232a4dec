package conversation

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreFindOrCreate(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	conv, err := store.FindOrCreate(ctx, PlatformWhatsApp, "51987654321")
	require.NoError(t, err)
	assert.Equal(t, StatusActive, conv.Status)
	assert.Equal(t, QualityWarm, conv.LeadQuality)
	assert.Equal(t, "51987654321", conv.ContactPhone)

	// Same address returns the same conversation.
	again, err := store.FindOrCreate(ctx, PlatformWhatsApp, "51987654321")
	require.NoError(t, err)
	assert.Equal(t, conv.ID, again.ID)

	// The same user on another platform is a separate conversation.
	other, err := store.FindOrCreate(ctx, PlatformInstagram, "51987654321")
	require.NoError(t, err)
	assert.NotEqual(t, conv.ID, other.ID)
}

func TestMemoryStoreFindOrCreateValidation(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.FindOrCreate(ctx, Platform("telegram"), "u1")
	assert.ErrorIs(t, err, ErrInvalidPlatform)

	_, err = store.FindOrCreate(ctx, PlatformWhatsApp, "")
	assert.ErrorIs(t, err, ErrMissingPlatformUser)
}

func TestMemoryStoreFindOrCreateConcurrent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	ids := make([]uuid.UUID, 20)
	var wg sync.WaitGroup
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conv, err := store.FindOrCreate(ctx, PlatformWhatsApp, "51911111111")
			assert.NoError(t, err)
			ids[i] = conv.ID
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id, "all callers must land on one conversation")
	}
}

func TestMemoryStoreClosedConversationIsNotReused(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	conv, err := store.FindOrCreate(ctx, PlatformWhatsApp, "51987654321")
	require.NoError(t, err)
	require.NoError(t, store.SetStatus(ctx, conv.ID, StatusClosed))

	next, err := store.FindOrCreate(ctx, PlatformWhatsApp, "51987654321")
	require.NoError(t, err)
	assert.NotEqual(t, conv.ID, next.ID, "a new inbound message opens a fresh conversation")
}

func TestMemoryStoreAppendMessage(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	conv, err := store.FindOrCreate(ctx, PlatformWhatsApp, "u1")
	require.NoError(t, err)

	require.NoError(t, store.AppendMessage(ctx, conv.ID, Message{Sender: SenderClient, Content: "Hola"}))
	require.NoError(t, store.AppendMessage(ctx, conv.ID, Message{Sender: SenderBot, Content: "Bienvenido"}))

	msgs, err := store.Messages(ctx, conv.ID, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "Hola", msgs[0].Content)
	assert.Equal(t, "Bienvenido", msgs[1].Content)

	got, err := store.Get(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.MessageCount)
	require.NotNil(t, got.LastMessageAt)
	assert.Equal(t, msgs[1].CreatedAt, *got.LastMessageAt)
}

func TestMemoryStoreAppendMessageUnknownConversation(t *testing.T) {
	store := NewMemoryStore()

	err := store.AppendMessage(context.Background(), uuid.New(), Message{Content: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreMergeSlots(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	conv, err := store.FindOrCreate(ctx, PlatformWhatsApp, "u1")
	require.NoError(t, err)

	data, err := store.MergeSlots(ctx, conv.ID, LeadData{EventType: "Boda"})
	require.NoError(t, err)
	assert.Equal(t, "Boda", data.EventType)

	// Second merge cannot overwrite, only fill.
	data, err = store.MergeSlots(ctx, conv.ID, LeadData{EventType: "Cumpleaños", Budget: "s/ 20000"})
	require.NoError(t, err)
	assert.Equal(t, "Boda", data.EventType)
	assert.Equal(t, "s/ 20000", data.Budget)
}

func TestMemoryStoreSetStatusTransitions(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	conv, err := store.FindOrCreate(ctx, PlatformWhatsApp, "u1")
	require.NoError(t, err)

	require.NoError(t, store.SetStatus(ctx, conv.ID, StatusClosed))
	assert.ErrorIs(t, store.SetStatus(ctx, conv.ID, StatusActive), ErrInvalidTransition)
	require.NoError(t, store.SetStatus(ctx, conv.ID, StatusArchived))
	assert.ErrorIs(t, store.SetStatus(ctx, conv.ID, StatusClosed), ErrInvalidTransition)
}

func TestMemoryStoreHotLeadIsSticky(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	conv, err := store.FindOrCreate(ctx, PlatformWhatsApp, "u1")
	require.NoError(t, err)

	require.NoError(t, store.SetLeadQuality(ctx, conv.ID, QualityHot))
	require.NoError(t, store.SetLeadQuality(ctx, conv.ID, QualityCold))

	got, err := store.Get(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, QualityHot, got.LeadQuality, "hot is never downgraded")
}

func TestMemoryStoreListFilters(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	a, _ := store.FindOrCreate(ctx, PlatformWhatsApp, "u1")
	b, _ := store.FindOrCreate(ctx, PlatformWhatsApp, "u2")
	_, _ = store.FindOrCreate(ctx, PlatformFacebook, "u3")

	require.NoError(t, store.SetLeadQuality(ctx, a.ID, QualityHot))
	require.NoError(t, store.SetStatus(ctx, b.ID, StatusClosed))
	require.NoError(t, store.Assign(ctx, a.ID, "carla"))

	hot, err := store.List(ctx, ListFilter{Quality: QualityHot})
	require.NoError(t, err)
	require.Len(t, hot, 1)
	assert.Equal(t, a.ID, hot[0].ID)

	active, err := store.List(ctx, ListFilter{Status: StatusActive})
	require.NoError(t, err)
	assert.Len(t, active, 2)

	assigned, err := store.List(ctx, ListFilter{Assigned: "carla"})
	require.NoError(t, err)
	require.Len(t, assigned, 1)
	assert.Equal(t, a.ID, assigned[0].ID)

	limited, err := store.List(ctx, ListFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	conv, err := store.FindOrCreate(ctx, PlatformWhatsApp, "u1")
	require.NoError(t, err)

	conv.LeadData.Budget = "mutated"
	conv.Status = StatusClosed

	got, err := store.Get(ctx, conv.ID)
	require.NoError(t, err)
	assert.Empty(t, got.LeadData.Budget)
	assert.Equal(t, StatusActive, got.Status)
}
