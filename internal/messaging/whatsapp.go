package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/andeslabs/eventos-platform/internal/conversation"
	"github.com/andeslabs/eventos-platform/pkg/logging"
)

var whatsappSendTracer = otel.Tracer("eventos.internal.messaging.whatsapp_send")

// WhatsAppSender posts text messages using the WhatsApp Cloud API.
type WhatsAppSender struct {
	accessToken   string
	phoneNumberID string
	baseURL       string
	httpClient    *http.Client
	logger        *logging.Logger
}

// NewWhatsAppSender builds a sender for the WhatsApp Cloud API.
func NewWhatsAppSender(accessToken, phoneNumberID, baseURL string, logger *logging.Logger) *WhatsAppSender {
	if logger == nil {
		logger = logging.Default()
	}
	if baseURL == "" {
		baseURL = "https://graph.facebook.com/v19.0"
	}
	return &WhatsAppSender{
		accessToken:   accessToken,
		phoneNumberID: phoneNumberID,
		baseURL:       strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

var _ conversation.ReplyMessenger = (*WhatsAppSender)(nil)

// CheckCredentials verifies the access token against the phone number
// endpoint. Used when bringing the channel session up.
func (s *WhatsAppSender) CheckCredentials(ctx context.Context) error {
	if s.accessToken == "" {
		return errors.New("messaging: whatsapp access token missing")
	}
	url := fmt.Sprintf("%s/%s", s.baseURL, s.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("messaging: failed to build credential check request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.accessToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("messaging: credential check failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("messaging: credential check returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// SendReply dispatches a single text message, retrying transient failures.
func (s *WhatsAppSender) SendReply(ctx context.Context, msg conversation.OutboundReply) error {
	if s.accessToken == "" {
		return errors.New("messaging: whatsapp access token missing")
	}
	if msg.To == "" {
		return errors.New("messaging: to required")
	}
	if strings.TrimSpace(msg.Body) == "" {
		return errors.New("messaging: body required")
	}

	ctx, span := whatsappSendTracer.Start(ctx, "messaging.whatsapp.send")
	defer span.End()
	span.SetAttributes(
		attribute.String("eventos.conversation_id", msg.ConversationID),
		attribute.String("eventos.to", msg.To),
	)

	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"to":                msg.To,
		"type":              "text",
		"text":              map[string]string{"body": msg.Body},
	}
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("messaging: failed to marshal whatsapp payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", s.baseURL, s.phoneNumberID)

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
		if err != nil {
			return fmt.Errorf("messaging: failed to build whatsapp request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+s.accessToken)
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			lastErr = err
		} else {
			respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			if resp.StatusCode < 300 {
				s.logger.Info("whatsapp message sent",
					"to", msg.To, "conversation_id", msg.ConversationID)
				return nil
			}
			lastErr = fmt.Errorf("messaging: whatsapp returned status %d: %s", resp.StatusCode, string(respBody))
			// Client errors won't improve on retry.
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return lastErr
			}
		}

		if attempt < 3 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
		}
	}
	return fmt.Errorf("messaging: whatsapp send failed after retries: %w", lastErr)
}
