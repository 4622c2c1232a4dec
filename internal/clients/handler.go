package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/andeslabs/eventos-platform/internal/calendar"
	"github.com/andeslabs/eventos-platform/internal/conversation"
	"github.com/andeslabs/eventos-platform/internal/observability/metrics"
	"github.com/andeslabs/eventos-platform/pkg/logging"
)

// Repository persists clients.
type Repository interface {
	Create(ctx context.Context, client *Client) (*Client, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Client, error)
	ListByStatus(ctx context.Context, status Status, limit int) ([]*Client, error)
}

// Handler exposes the client records and the conversation-to-client
// conversion endpoint.
type Handler struct {
	converter     Converter
	repo          Repository
	conversations conversation.Store
	scheduler     calendar.Scheduler
	followUpIn    time.Duration
	metrics       *metrics.CaptureMetrics
	logger        *logging.Logger
}

// NewHandler creates the clients handler. scheduler may be nil when
// follow-up scheduling is disabled.
func NewHandler(converter Converter, repo Repository, conversations conversation.Store, scheduler calendar.Scheduler, followUpIn time.Duration, m *metrics.CaptureMetrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if followUpIn <= 0 {
		followUpIn = 45 * time.Minute
	}
	return &Handler{
		converter:     converter,
		repo:          repo,
		conversations: conversations,
		scheduler:     scheduler,
		followUpIn:    followUpIn,
		metrics:       m,
		logger:        logger,
	}
}

// POST /api/conversations/{id}/convert
func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid conversation id", 400)
		return
	}

	var overrides Overrides
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&overrides); err != nil {
			http.Error(w, "invalid json: "+err.Error(), 400)
			return
		}
	}

	client, err := h.converter.Convert(r.Context(), id, overrides)
	switch {
	case errors.Is(err, ErrConversationNotFound):
		http.Error(w, "conversation not found", 404)
		return
	case errors.Is(err, ErrConversationNotActive):
		http.Error(w, "conversation is not active", 409)
		return
	case errors.Is(err, ErrMissingName), errors.Is(err, ErrMissingContact):
		http.Error(w, err.Error(), 422)
		return
	case err != nil:
		h.logger.Error("conversion failed", "error", err, "conversation_id", id)
		http.Error(w, "conversion failed", 500)
		return
	}

	h.metrics.ObserveConversion()
	h.logger.Info("conversation converted to client",
		"conversation_id", id, "client_id", client.ID)

	h.scheduleFollowUp(r, id, client)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(client)
}

// scheduleFollowUp books a sales reminder for hot leads. Failures are logged
// only; the conversion already committed.
func (h *Handler) scheduleFollowUp(r *http.Request, conversationID uuid.UUID, client *Client) {
	if h.scheduler == nil || h.conversations == nil {
		return
	}

	conv, err := h.conversations.Get(r.Context(), conversationID)
	if err != nil {
		h.logger.Error("failed to reload conversation for follow-up", "error", err, "conversation_id", conversationID)
		return
	}
	if conv.LeadQuality != conversation.QualityHot {
		return
	}

	name := client.FirstName
	if client.LastName != "" {
		name += " " + client.LastName
	}
	followUp := calendar.FollowUp{
		Title:       fmt.Sprintf("Llamar a %s (%s)", name, conv.LeadData.EventType),
		Description: fmt.Sprintf("Presupuesto: %s\nFecha del evento: %s\nTeléfono: %s", conv.LeadData.Budget, conv.LeadData.EventDate, client.Phone),
		StartsAt:    time.Now().Add(h.followUpIn),
		Duration:    30 * time.Minute,
	}
	eventID, err := h.scheduler.ScheduleFollowUp(r.Context(), followUp)
	if err != nil {
		h.logger.Error("failed to schedule follow-up", "error", err, "conversation_id", conversationID)
		return
	}
	if eventID != "" {
		h.logger.Info("follow-up scheduled for hot lead",
			"event_id", eventID, "client_id", client.ID)
	}
}

// GET /api/clients/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid client id", 400)
		return
	}

	client, err := h.repo.GetByID(r.Context(), id)
	if errors.Is(err, ErrClientNotFound) {
		http.Error(w, "client not found", 404)
		return
	}
	if err != nil {
		h.logger.Error("failed to load client", "error", err, "client_id", id)
		http.Error(w, "failed to load client", 500)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(client)
}

// GET /api/clients
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	status := Status(r.URL.Query().Get("status"))
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "invalid limit", 400)
			return
		}
		limit = n
	}

	list, err := h.repo.ListByStatus(r.Context(), status, limit)
	if err != nil {
		h.logger.Error("failed to list clients", "error", err)
		http.Error(w, "failed to list clients", 500)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"clients": list,
		"count":   len(list),
	})
}
