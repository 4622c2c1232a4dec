package conversation

import "errors"

var (
	// ErrNotFound is returned when a conversation does not exist
	ErrNotFound = errors.New("conversation not found")

	// ErrInvalidPlatform is returned for an unknown messaging platform
	ErrInvalidPlatform = errors.New("invalid platform")

	// ErrMissingPlatformUser is returned when the external contact address is empty
	ErrMissingPlatformUser = errors.New("platform user id is required")

	// ErrInvalidTransition is returned for a disallowed status change
	ErrInvalidTransition = errors.New("invalid status transition")
)
