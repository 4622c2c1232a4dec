package conversation

import "context"

// ReplyMessenger delivers bot and agent replies back to the end user
// (e.g. via the WhatsApp Cloud API).
type ReplyMessenger interface {
	SendReply(ctx context.Context, reply OutboundReply) error
}

// OutboundReply carries the data required to push a message to the user.
type OutboundReply struct {
	ConversationID string
	Platform       Platform
	To             string
	Body           string
	Metadata       map[string]string
}
