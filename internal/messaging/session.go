package messaging

import (
	"context"
	"errors"
	"sync"

	"github.com/andeslabs/eventos-platform/pkg/logging"
)

// SessionState is the lifecycle state of the process-wide messaging session.
type SessionState string

const (
	StateDisconnected SessionState = "disconnected"
	StateInitializing SessionState = "initializing"
	StateConnected    SessionState = "connected"
)

// ErrNotConnected is returned when the session is asked to act before
// initialization completed.
var ErrNotConnected = errors.New("messaging: session not connected")

// ConnectFunc establishes the underlying platform session. It may report a
// pairing QR code through the callback before returning.
type ConnectFunc func(ctx context.Context, onQR func(qr string)) error

// Session owns the single live messaging connection for the process.
// Connect is idempotent: a call while initialization is already in flight is
// not an error, it simply reports the current state. Teardown happens only
// on explicit Disconnect.
type Session struct {
	mu        sync.Mutex
	state     SessionState
	pendingQR string
	connect   ConnectFunc
	logger    *logging.Logger
}

// NewSession creates a disconnected session.
func NewSession(connect ConnectFunc, logger *logging.Logger) *Session {
	if logger == nil {
		logger = logging.Default()
	}
	return &Session{
		state:   StateDisconnected,
		connect: connect,
		logger:  logger,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// QR returns the pending pairing code, if any.
func (s *Session) QR() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingQR
}

// Connect starts initialization on first use. Repeated calls while a
// connection attempt is in flight (or already established) return the
// current state without error.
func (s *Session) Connect(ctx context.Context) (SessionState, error) {
	s.mu.Lock()
	switch s.state {
	case StateConnected, StateInitializing:
		state := s.state
		s.mu.Unlock()
		return state, nil
	}
	s.state = StateInitializing
	s.pendingQR = ""
	s.mu.Unlock()

	// Initialization outlives the caller: HTTP request contexts are
	// cancelled as soon as the handler returns, which would abort the
	// connect before it completes.
	go s.runConnect(context.WithoutCancel(ctx))
	return StateInitializing, nil
}

func (s *Session) runConnect(ctx context.Context) {
	err := s.connect(ctx, func(qr string) {
		s.mu.Lock()
		s.pendingQR = qr
		s.mu.Unlock()
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInitializing {
		// Disconnected while connecting; leave the explicit state alone.
		return
	}
	if err != nil {
		s.state = StateDisconnected
		s.logger.Error("messaging session init failed", "error", err)
		return
	}
	s.state = StateConnected
	s.pendingQR = ""
	s.logger.Info("messaging session connected")
}

// Disconnect tears the session down.
func (s *Session) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateDisconnected
	s.pendingQR = ""
}
