package messaging

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionConnectSuccess(t *testing.T) {
	release := make(chan struct{})
	connect := func(ctx context.Context, onQR func(string)) error {
		onQR("qr-code-123")
		<-release
		return nil
	}

	s := NewSession(connect, nil)
	require.Equal(t, StateDisconnected, s.State())

	state, err := s.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateInitializing, state)

	require.Eventually(t, func() bool { return s.QR() == "qr-code-123" },
		time.Second, 5*time.Millisecond)

	close(release)
	require.Eventually(t, func() bool { return s.State() == StateConnected },
		time.Second, 5*time.Millisecond)
	assert.Empty(t, s.QR(), "pairing code cleared once connected")
}

func TestSessionConnectIsIdempotent(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	connect := func(ctx context.Context, onQR func(string)) error {
		calls.Add(1)
		<-release
		return nil
	}

	s := NewSession(connect, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			state, err := s.Connect(context.Background())
			assert.NoError(t, err)
			assert.Contains(t, []SessionState{StateInitializing, StateConnected}, state)
		}()
	}
	wg.Wait()
	close(release)

	require.Eventually(t, func() bool { return s.State() == StateConnected },
		time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), calls.Load(), "only one init may run")

	// Connecting again once established is a no-op too.
	state, err := s.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateConnected, state)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSessionConnectFailureReturnsToDisconnected(t *testing.T) {
	connect := func(ctx context.Context, onQR func(string)) error {
		return errors.New("pairing timed out")
	}

	s := NewSession(connect, nil)
	_, err := s.Connect(context.Background())
	require.NoError(t, err)

	require.Eventually(t, func() bool { return s.State() == StateDisconnected },
		time.Second, 5*time.Millisecond)
}

func TestSessionDisconnectDuringInit(t *testing.T) {
	release := make(chan struct{})
	connect := func(ctx context.Context, onQR func(string)) error {
		<-release
		return nil
	}

	s := NewSession(connect, nil)
	_, err := s.Connect(context.Background())
	require.NoError(t, err)

	s.Disconnect()
	close(release)

	// The late success must not override the explicit disconnect.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, StateDisconnected, s.State())
}
