package messaging

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andeslabs/eventos-platform/internal/conversation"
)

func testReply() conversation.OutboundReply {
	return conversation.OutboundReply{
		ConversationID: "conv-1",
		Platform:       conversation.PlatformWhatsApp,
		To:             "51987654321",
		Body:           "¡Hola! Gracias por escribirnos.",
	}
}

func TestWhatsAppSenderSendsTextPayload(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewWhatsAppSender("token-abc", "phone-123", srv.URL, nil)
	err := s.SendReply(context.Background(), testReply())
	require.NoError(t, err)

	assert.Equal(t, "/phone-123/messages", gotPath)
	assert.Equal(t, "Bearer token-abc", gotAuth)
	assert.Equal(t, "whatsapp", gotBody["messaging_product"])
	assert.Equal(t, "51987654321", gotBody["to"])
	assert.Equal(t, "text", gotBody["type"])
	text, ok := gotBody["text"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "¡Hola! Gracias por escribirnos.", text["body"])
}

func TestWhatsAppSenderRetriesServerErrors(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewWhatsAppSender("token", "phone", srv.URL, nil)
	err := s.SendReply(context.Background(), testReply())
	require.NoError(t, err)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestWhatsAppSenderDoesNotRetryClientErrors(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	s := NewWhatsAppSender("token", "phone", srv.URL, nil)
	err := s.SendReply(context.Background(), testReply())
	require.Error(t, err)
	assert.Equal(t, int32(1), attempts.Load())
}

func TestWhatsAppSenderValidation(t *testing.T) {
	s := NewWhatsAppSender("token", "phone", "http://unused.invalid", nil)

	msg := testReply()
	msg.To = ""
	assert.Error(t, s.SendReply(context.Background(), msg))

	msg = testReply()
	msg.Body = "   "
	assert.Error(t, s.SendReply(context.Background(), msg))

	missingToken := NewWhatsAppSender("", "phone", "http://unused.invalid", nil)
	assert.Error(t, missingToken.SendReply(context.Background(), testReply()))
}
