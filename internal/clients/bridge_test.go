package clients

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andeslabs/eventos-platform/internal/conversation"
)

func capturedConversation() *conversation.Conversation {
	return &conversation.Conversation{
		ID:             uuid.New(),
		Platform:       conversation.PlatformWhatsApp,
		PlatformUserID: "51987654321",
		ContactPhone:   "51987654321",
		Status:         conversation.StatusActive,
		LeadData: conversation.LeadData{
			Name:      "Ana López",
			Email:     "ana@example.pe",
			EventType: "Boda",
			EventDate: "15 de junio",
			Budget:    "s/ 20000",
		},
	}
}

func TestSplitName(t *testing.T) {
	cases := []struct {
		full, first, last string
	}{
		{"Ana López", "Ana", "López"},
		{"Ana", "Ana", ""},
		{"Ana María López Torres", "Ana", "María López Torres"},
		{"  Ana  ", "Ana", ""},
		{"", "", ""},
	}
	for _, tc := range cases {
		first, last := SplitName(tc.full)
		assert.Equal(t, tc.first, first, "full=%q", tc.full)
		assert.Equal(t, tc.last, last, "full=%q", tc.full)
	}
}

func TestBuildFromConversation(t *testing.T) {
	conv := capturedConversation()

	client, err := BuildFromConversation(conv, Overrides{})
	require.NoError(t, err)

	assert.Equal(t, "Ana", client.FirstName)
	assert.Equal(t, "López", client.LastName)
	assert.Equal(t, "ana@example.pe", client.Email)
	assert.Equal(t, "51987654321", client.Phone)
	assert.Equal(t, StatusInterested, client.Status)
	assert.Equal(t, "whatsapp", client.Source)
	assert.Equal(t, "Boda", client.EventType)
	assert.Equal(t, "15 de junio", client.EventDate)
	assert.Equal(t, "s/ 20000", client.Budget)
}

func TestBuildFromConversationOverrides(t *testing.T) {
	conv := capturedConversation()

	client, err := BuildFromConversation(conv, Overrides{
		FirstName: "María",
		LastName:  "Quispe",
		Email:     "maria@example.pe",
		Notes:     "prefiere llamadas por la tarde",
	})
	require.NoError(t, err)

	assert.Equal(t, "María", client.FirstName)
	assert.Equal(t, "Quispe", client.LastName)
	assert.Equal(t, "maria@example.pe", client.Email)
	assert.Equal(t, "prefiere llamadas por la tarde", client.Notes)
}

func TestBuildFromConversationRequiresName(t *testing.T) {
	conv := capturedConversation()
	conv.LeadData.Name = ""

	_, err := BuildFromConversation(conv, Overrides{})
	assert.ErrorIs(t, err, ErrMissingName)

	// An operator-supplied name fixes it.
	client, err := BuildFromConversation(conv, Overrides{FirstName: "Ana"})
	require.NoError(t, err)
	assert.Equal(t, "Ana", client.FirstName)
}

func TestBuildFromConversationRequiresContact(t *testing.T) {
	conv := capturedConversation()
	conv.LeadData.Email = ""
	conv.ContactPhone = ""

	_, err := BuildFromConversation(conv, Overrides{})
	assert.ErrorIs(t, err, ErrMissingContact)
}

func TestClientValidate(t *testing.T) {
	valid := Client{FirstName: "Ana", Email: "ana@example.pe"}
	assert.NoError(t, valid.Validate())

	phoneOnly := Client{FirstName: "Ana", Phone: "51987654321"}
	assert.NoError(t, phoneOnly.Validate())

	noName := Client{Email: "ana@example.pe"}
	assert.ErrorIs(t, noName.Validate(), ErrMissingName)

	noContact := Client{FirstName: "Ana"}
	assert.ErrorIs(t, noContact.Validate(), ErrMissingContact)
}
