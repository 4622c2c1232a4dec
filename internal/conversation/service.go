package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/andeslabs/eventos-platform/internal/observability/metrics"
	"github.com/andeslabs/eventos-platform/pkg/logging"
)

// OperatorNotifier alerts the human team about conversations that need
// attention. Implementations must be safe to skip (nil notifier is allowed).
type OperatorNotifier interface {
	NotifyHandoff(ctx context.Context, conv *Conversation) error
	NotifyHotLead(ctx context.Context, conv *Conversation) error
}

// InboundMessage is one message pushed by the messaging transport.
type InboundMessage struct {
	Platform      Platform
	From          string
	Text          string
	Type          string
	MediaURL      string
	ProviderMsgID string
}

// Service is the reply dispatcher: it runs each inbound message through the
// rule engine, persists both sides of the exchange, and pushes the reply
// back over the transport.
type Service struct {
	store     Store
	engine    *Engine
	messenger ReplyMessenger
	notifier  OperatorNotifier
	metrics   *metrics.CaptureMetrics
	logger    *logging.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// ServiceOption customizes the dispatcher.
type ServiceOption func(*Service)

// WithNotifier wires operator notifications for handoffs and hot leads.
func WithNotifier(n OperatorNotifier) ServiceOption {
	return func(s *Service) { s.notifier = n }
}

// WithMetrics wires prometheus counters.
func WithMetrics(m *metrics.CaptureMetrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService creates the dispatcher.
func NewService(store Store, messenger ReplyMessenger, logger *logging.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{
		store:     store,
		engine:    NewEngine(),
		messenger: messenger,
		logger:    logger,
		tracer:    otel.Tracer("eventos.internal.conversation"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HandleInbound processes one inbound message end to end and returns the
// reply that was sent.
//
// Ordering is deliberate: the inbound message is appended to the log BEFORE
// the reply send is attempted, and the outbound message is appended only
// AFTER a successful send. A transport failure never loses what the user
// wrote.
func (s *Service) HandleInbound(ctx context.Context, in InboundMessage) (string, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.handle_inbound")
	defer span.End()
	span.SetAttributes(
		attribute.String("eventos.platform", string(in.Platform)),
		attribute.String("eventos.from", in.From),
	)

	conv, err := s.store.FindOrCreate(ctx, in.Platform, in.From)
	if err != nil {
		s.metrics.ObserveInbound(string(in.Platform), "error")
		return "", fmt.Errorf("conversation: find or create: %w", err)
	}
	firstMessage := conv.MessageCount == 0

	msgType := in.Type
	if msgType == "" {
		msgType = "text"
	}
	inboundMsg := Message{
		Sender:    SenderClient,
		Content:   in.Text,
		Type:      msgType,
		MediaURL:  in.MediaURL,
		Delivered: true,
		CreatedAt: s.now(),
	}
	if err := s.store.AppendMessage(ctx, conv.ID, inboundMsg); err != nil {
		s.metrics.ObserveInbound(string(in.Platform), "error")
		return "", fmt.Errorf("conversation: append inbound: %w", err)
	}

	action := s.engine.Evaluate(in.Text, conv.LeadData, firstMessage)
	span.SetAttributes(attribute.String("eventos.rule", action.Rule))

	if err := s.applySideEffects(ctx, conv, action); err != nil {
		s.metrics.ObserveInbound(string(in.Platform), "error")
		return "", err
	}

	reply := OutboundReply{
		ConversationID: conv.ID.String(),
		Platform:       conv.Platform,
		To:             conv.PlatformUserID,
		Body:           action.Reply,
		Metadata:       map[string]string{"rule": action.Rule},
	}
	if err := s.messenger.SendReply(ctx, reply); err != nil {
		s.metrics.ObserveSendFailure()
		s.metrics.ObserveInbound(string(in.Platform), "send_failed")
		return "", fmt.Errorf("conversation: send reply: %w", err)
	}

	outboundMsg := Message{
		Sender:    SenderBot,
		Content:   action.Reply,
		Type:      "text",
		Delivered: true,
		CreatedAt: s.now(),
	}
	if err := s.store.AppendMessage(ctx, conv.ID, outboundMsg); err != nil {
		// The reply reached the user; log loudly but don't fail the webhook.
		s.logger.Error("failed to append outbound message",
			"error", err, "conversation_id", conv.ID)
	}

	s.metrics.ObserveInbound(string(in.Platform), "ok")
	s.metrics.ObserveReply(action.Rule)
	return action.Reply, nil
}

// applySideEffects merges extracted slots and updates quality, intent and
// follow-up state on the conversation record.
func (s *Service) applySideEffects(ctx context.Context, conv *Conversation, action Action) error {
	if !action.Slots.Empty() {
		merged, err := s.store.MergeSlots(ctx, conv.ID, action.Slots)
		if err != nil {
			return fmt.Errorf("conversation: merge slots: %w", err)
		}
		conv.LeadData = merged
	}

	if action.Intent != "" && conv.Intent == "" {
		if err := s.store.SetIntent(ctx, conv.ID, action.Intent); err != nil {
			return fmt.Errorf("conversation: set intent: %w", err)
		}
		conv.Intent = action.Intent
	}

	if action.Handoff {
		if err := s.store.SetFollowUp(ctx, conv.ID, s.now()); err != nil {
			return fmt.Errorf("conversation: set follow-up: %w", err)
		}
		conv.FollowUpRequired = true
		if s.notifier != nil {
			if err := s.notifier.NotifyHandoff(ctx, conv); err != nil {
				s.logger.Error("handoff notification failed", "error", err, "conversation_id", conv.ID)
			}
		}
	}

	// Budget capture is the sole hot trigger; once hot, never downgraded.
	if conv.LeadData.Budget != "" && conv.LeadQuality != QualityHot {
		if err := s.store.SetLeadQuality(ctx, conv.ID, QualityHot); err != nil {
			return fmt.Errorf("conversation: set lead quality: %w", err)
		}
		conv.LeadQuality = QualityHot
		if s.notifier != nil {
			if err := s.notifier.NotifyHotLead(ctx, conv); err != nil {
				s.logger.Error("hot lead notification failed", "error", err, "conversation_id", conv.ID)
			}
		}
	}
	return nil
}

// SendAgentMessage delivers an operator-authored message to the contact and
// appends it to the log. Like bot replies, the message is logged only after
// a successful send.
func (s *Service) SendAgentMessage(ctx context.Context, conv *Conversation, text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("conversation: empty agent message")
	}

	reply := OutboundReply{
		ConversationID: conv.ID.String(),
		Platform:       conv.Platform,
		To:             conv.PlatformUserID,
		Body:           text,
		Metadata:       map[string]string{"sender": string(SenderAgent)},
	}
	if err := s.messenger.SendReply(ctx, reply); err != nil {
		s.metrics.ObserveSendFailure()
		return fmt.Errorf("conversation: send agent message: %w", err)
	}

	msg := Message{
		Sender:    SenderAgent,
		Content:   text,
		Type:      "text",
		Delivered: true,
		CreatedAt: s.now(),
	}
	if err := s.store.AppendMessage(ctx, conv.ID, msg); err != nil {
		return fmt.Errorf("conversation: append agent message: %w", err)
	}
	return nil
}

// Store exposes the underlying store to the HTTP handler.
func (s *Service) Store() Store {
	return s.store
}
