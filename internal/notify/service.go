package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/andeslabs/eventos-platform/internal/conversation"
	"github.com/andeslabs/eventos-platform/pkg/logging"
)

// Service emails the operator team when a conversation needs a human.
// It implements conversation.OperatorNotifier.
type Service struct {
	email        EmailSender
	recipient    string
	businessName string
	logger       *logging.Logger
}

// NewService creates an operator notification service. A nil email sender or
// empty recipient disables delivery without failing the capture flow.
func NewService(email EmailSender, recipient, businessName string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if businessName == "" {
		businessName = "Eventos Andes"
	}
	return &Service{
		email:        email,
		recipient:    recipient,
		businessName: businessName,
		logger:       logger,
	}
}

var _ conversation.OperatorNotifier = (*Service)(nil)

// NotifyHandoff alerts the team that a contact asked for a human.
func (s *Service) NotifyHandoff(ctx context.Context, conv *conversation.Conversation) error {
	if s.email == nil || s.recipient == "" {
		s.logger.Debug("notify: email not configured, skipping handoff alert")
		return nil
	}

	name := conv.LeadData.Name
	if name == "" {
		name = "Un contacto"
	}

	subject := fmt.Sprintf("🙋 Atención requerida - %s", contactLabel(conv))
	body := fmt.Sprintf(`%s pidió hablar con una persona del equipo.

Canal: %s
Contacto: %s
%s
Responde la conversación cuanto antes.

— %s`, name, conv.Platform, contactLabel(conv), leadSummary(conv), s.businessName)

	msg := EmailMessage{
		To:      s.recipient,
		Subject: subject,
		Body:    body,
	}
	if err := s.email.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: handoff alert: %w", err)
	}
	s.logger.Info("notify: handoff alert sent", "to", s.recipient, "conversation_id", conv.ID)
	return nil
}

// NotifyHotLead alerts the team that a contact shared a budget and is ready
// for a commercial follow-up.
func (s *Service) NotifyHotLead(ctx context.Context, conv *conversation.Conversation) error {
	if s.email == nil || s.recipient == "" {
		s.logger.Debug("notify: email not configured, skipping hot lead alert")
		return nil
	}

	subject := fmt.Sprintf("🔥 Lead caliente - %s", contactLabel(conv))
	body := fmt.Sprintf(`Un contacto compartió su presupuesto y está listo para una propuesta.

Canal: %s
Contacto: %s
%s
Prepara la cotización y contáctalo hoy mismo.

— %s`, conv.Platform, contactLabel(conv), leadSummary(conv), s.businessName)

	msg := EmailMessage{
		To:      s.recipient,
		Subject: subject,
		Body:    body,
	}
	if err := s.email.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: hot lead alert: %w", err)
	}
	s.logger.Info("notify: hot lead alert sent", "to", s.recipient, "conversation_id", conv.ID)
	return nil
}

func contactLabel(conv *conversation.Conversation) string {
	if conv.LeadData.Name != "" {
		return conv.LeadData.Name
	}
	if conv.ContactPhone != "" {
		return conv.ContactPhone
	}
	return conv.PlatformUserID
}

// leadSummary renders the captured slots as labelled lines, skipping empties.
func leadSummary(conv *conversation.Conversation) string {
	var b strings.Builder
	d := conv.LeadData
	if d.EventType != "" {
		fmt.Fprintf(&b, "Tipo de evento: %s\n", d.EventType)
	}
	if d.EventDate != "" {
		fmt.Fprintf(&b, "Fecha: %s\n", d.EventDate)
	}
	if d.GuestCount > 0 {
		fmt.Fprintf(&b, "Invitados: %d\n", d.GuestCount)
	}
	if d.Budget != "" {
		fmt.Fprintf(&b, "Presupuesto: %s\n", d.Budget)
	}
	if d.Email != "" {
		fmt.Fprintf(&b, "Email: %s\n", d.Email)
	}
	if len(d.Interests) > 0 {
		fmt.Fprintf(&b, "Intereses: %s\n", strings.Join(d.Interests, ", "))
	}
	return b.String()
}
