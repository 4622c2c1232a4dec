package messaging

import (
	"encoding/json"
	"net/http"
)

// ChannelHandler exposes the messaging session lifecycle to operators:
// check the channel state, start a connection, tear it down.
type ChannelHandler struct {
	session *Session
}

// NewChannelHandler creates a handler over the process session.
func NewChannelHandler(session *Session) *ChannelHandler {
	return &ChannelHandler{session: session}
}

type channelStatusResponse struct {
	State SessionState `json:"state"`
	QR    string       `json:"qr,omitempty"`
}

// Status reports the current session state and pending pairing code.
func (h *ChannelHandler) Status(w http.ResponseWriter, r *http.Request) {
	h.writeStatus(w)
}

// Connect starts session initialization. Calling it again while a connect
// is in flight just reports the current state.
func (h *ChannelHandler) Connect(w http.ResponseWriter, r *http.Request) {
	if _, err := h.session.Connect(r.Context()); err != nil {
		http.Error(w, "failed to start connection", 500)
		return
	}
	h.writeStatus(w)
}

// Disconnect tears the session down.
func (h *ChannelHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	h.session.Disconnect()
	h.writeStatus(w)
}

func (h *ChannelHandler) writeStatus(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(channelStatusResponse{
		State: h.session.State(),
		QR:    h.session.QR(),
	})
}
