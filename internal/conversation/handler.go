package conversation

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/andeslabs/eventos-platform/internal/leads"
	"github.com/andeslabs/eventos-platform/pkg/logging"
)

// Handler exposes the operator API for conversations.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates the operator-facing conversation handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// conversationView decorates a conversation with the display completeness
// score derived from its captured slots.
type conversationView struct {
	*Conversation
	Score int        `json:"score"`
	Tier  leads.Tier `json:"tier"`
}

func newConversationView(c *Conversation) conversationView {
	score := leads.Score(leads.Slots{
		Name:      c.LeadData.Name,
		Email:     c.LeadData.Email,
		EventType: c.LeadData.EventType,
		EventDate: c.LeadData.EventDate,
		Budget:    c.LeadData.Budget,
	})
	return conversationView{
		Conversation: c,
		Score:        score,
		Tier:         leads.TierFor(score),
	}
}

// GET /api/conversations
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		Status:   Status(r.URL.Query().Get("status")),
		Quality:  LeadQuality(r.URL.Query().Get("quality")),
		Assigned: r.URL.Query().Get("assigned"),
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "invalid limit", 400)
			return
		}
		filter.Limit = n
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "invalid offset", 400)
			return
		}
		filter.Offset = n
	}

	convs, err := h.service.Store().List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list conversations", "error", err)
		http.Error(w, "failed to list conversations", 500)
		return
	}

	views := make([]conversationView, 0, len(convs))
	for _, c := range convs {
		views = append(views, newConversationView(c))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"conversations": views,
		"count":         len(views),
	})
}

// GET /api/conversations/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	conv, ok := h.loadConversation(w, r)
	if !ok {
		return
	}

	msgs, err := h.service.Store().Messages(r.Context(), conv.ID, 0)
	if err != nil {
		h.logger.Error("failed to load messages", "error", err, "conversation_id", conv.ID)
		http.Error(w, "failed to load messages", 500)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"conversation": newConversationView(conv),
		"messages":     msgs,
	})
}

// POST /api/conversations/{id}/messages
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	conv, ok := h.loadConversation(w, r)
	if !ok {
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), 400)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		http.Error(w, "text is required", 400)
		return
	}
	if conv.Status != StatusActive {
		http.Error(w, "conversation is not active", 409)
		return
	}

	if err := h.service.SendAgentMessage(r.Context(), conv, req.Text); err != nil {
		h.logger.Error("failed to send agent message", "error", err, "conversation_id", conv.ID)
		http.Error(w, "failed to send message", 502)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "sent"})
}

// POST /api/conversations/{id}/assign
func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	conv, ok := h.loadConversation(w, r)
	if !ok {
		return
	}

	var req struct {
		Operator string `json:"operator"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), 400)
		return
	}
	if strings.TrimSpace(req.Operator) == "" {
		http.Error(w, "operator is required", 400)
		return
	}

	if err := h.service.Store().Assign(r.Context(), conv.ID, req.Operator); err != nil {
		h.logger.Error("failed to assign conversation", "error", err, "conversation_id", conv.ID)
		http.Error(w, "failed to assign conversation", 500)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "assigned"})
}

// POST /api/conversations/{id}/status
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	conv, ok := h.loadConversation(w, r)
	if !ok {
		return
	}

	var req struct {
		Status Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), 400)
		return
	}

	err := h.service.Store().SetStatus(r.Context(), conv.ID, req.Status)
	switch {
	case errors.Is(err, ErrInvalidTransition):
		http.Error(w, err.Error(), 409)
		return
	case err != nil:
		h.logger.Error("failed to update status", "error", err, "conversation_id", conv.ID)
		http.Error(w, "failed to update status", 500)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": string(req.Status)})
}

func (h *Handler) loadConversation(w http.ResponseWriter, r *http.Request) (*Conversation, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid conversation id", 400)
		return nil, false
	}

	conv, err := h.service.Store().Get(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		http.Error(w, "conversation not found", 404)
		return nil, false
	}
	if err != nil {
		h.logger.Error("failed to load conversation", "error", err, "conversation_id", id)
		http.Error(w, "failed to load conversation", 500)
		return nil, false
	}
	return conv, true
}
