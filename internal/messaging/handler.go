package messaging

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/andeslabs/eventos-platform/internal/conversation"
	"github.com/andeslabs/eventos-platform/internal/observability/metrics"
	"github.com/andeslabs/eventos-platform/pkg/logging"
)

// InboundProcessor consumes one inbound message. Implemented by the
// conversation dispatcher.
type InboundProcessor interface {
	HandleInbound(ctx context.Context, in conversation.InboundMessage) (string, error)
}

// Handler receives WhatsApp Cloud API webhooks.
type Handler struct {
	verifyToken string
	processor   InboundProcessor
	deduper     *InboundDeduper
	metrics     *metrics.CaptureMetrics
	logger      *logging.Logger
}

// NewHandler creates a webhook handler.
func NewHandler(verifyToken string, processor InboundProcessor, deduper *InboundDeduper, m *metrics.CaptureMetrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		verifyToken: verifyToken,
		processor:   processor,
		deduper:     deduper,
		metrics:     m,
		logger:      logger,
	}
}

// HealthCheck responds 200 for load balancer probes.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// Verify answers the Cloud API subscription handshake (GET with hub.* params).
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("hub.mode")
	token := r.URL.Query().Get("hub.verify_token")
	challenge := r.URL.Query().Get("hub.challenge")

	if mode != "subscribe" || token != h.verifyToken {
		http.Error(w, "verification failed", http.StatusForbidden)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(challenge))
}

// webhookPayload mirrors the subset of the Cloud API envelope we consume.
type webhookPayload struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Messages []struct {
					ID        string `json:"id"`
					From      string `json:"from"`
					Type      string `json:"type"`
					Timestamp string `json:"timestamp"`
					Text      struct {
						Body string `json:"body"`
					} `json:"text"`
					Image struct {
						ID      string `json:"id"`
						Caption string `json:"caption"`
					} `json:"image"`
				} `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// Receive handles inbound message webhooks. The provider retries on
// non-2xx, so processing errors are logged and acknowledged anyway; the
// dedupe store keeps reprocessing harmless.
func (h *Handler) Receive(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		h.metrics.ObserveWebhookLatency(string(conversation.PlatformWhatsApp), time.Since(start).Seconds())
	}()

	var payload webhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.logger.Error("failed to decode webhook payload", "error", err)
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				h.processMessage(r, msg.ID, msg.From, msg.Type, msg.Text.Body, msg.Image.Caption)
			}
		}
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) processMessage(r *http.Request, id, from, msgType, text, caption string) {
	ctx := r.Context()

	if h.deduper != nil {
		seen, err := h.deduper.Seen(ctx, id)
		if err != nil {
			h.logger.Error("dedupe check failed, processing anyway", "error", err, "message_id", id)
		} else if seen {
			h.logger.Info("skipping duplicate inbound message", "message_id", id)
			return
		}
	}

	body := text
	if body == "" {
		body = caption
	}

	in := conversation.InboundMessage{
		Platform:      conversation.PlatformWhatsApp,
		From:          from,
		Text:          body,
		Type:          msgType,
		ProviderMsgID: id,
	}
	if _, err := h.processor.HandleInbound(ctx, in); err != nil {
		h.logger.Error("inbound message processing failed",
			"error", err, "message_id", id, "from", from)
		// Release the claim so the provider's retry is not swallowed
		// as a duplicate.
		if h.deduper != nil {
			if err := h.deduper.Forget(ctx, id); err != nil {
				h.logger.Error("failed to release dedupe claim",
					"error", err, "message_id", id)
			}
		}
	}
}
