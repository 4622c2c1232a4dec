package clients

import "errors"

var (
	// ErrMissingName is returned when the client has no first name
	ErrMissingName = errors.New("first name is required")

	// ErrMissingContact is returned when both email and phone are missing
	ErrMissingContact = errors.New("either email or phone is required")

	// ErrClientNotFound is returned when a client is not found
	ErrClientNotFound = errors.New("client not found")

	// ErrConversationNotFound is returned when converting an unknown conversation
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrConversationNotActive is returned when converting a closed or archived conversation
	ErrConversationNotActive = errors.New("conversation is not active")
)
