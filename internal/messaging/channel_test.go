package messaging

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelHandlerLifecycle(t *testing.T) {
	connected := make(chan struct{})
	session := NewSession(func(ctx context.Context, onQR func(string)) error {
		defer close(connected)
		return nil
	}, nil)
	h := NewChannelHandler(session)

	rec := httptest.NewRecorder()
	h.Status(rec, httptest.NewRequest(http.MethodGet, "/api/channel/status", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var status channelStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, StateDisconnected, status.State)

	rec = httptest.NewRecorder()
	h.Connect(rec, httptest.NewRequest(http.MethodPost, "/api/channel/connect", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	<-connected

	rec = httptest.NewRecorder()
	h.Disconnect(rec, httptest.NewRequest(http.MethodPost, "/api/channel/disconnect", nil))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, StateDisconnected, status.State)
	assert.Empty(t, status.QR)
}

// The server cancels a request's context the moment the handler returns;
// a connect started over HTTP must still be able to finish.
func TestChannelHandlerConnectOutlivesRequest(t *testing.T) {
	done := make(chan error, 1)
	session := NewSession(func(ctx context.Context, _ func(string)) error {
		var err error
		select {
		case <-ctx.Done():
			err = ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
		done <- err
		return err
	}, nil)
	h := NewChannelHandler(session)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodPost, "/api/channel/connect", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	h.Connect(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	cancel()

	require.NoError(t, <-done)
	assert.Eventually(t, func() bool {
		return session.State() == StateConnected
	}, time.Second, 10*time.Millisecond)
}

func TestChannelHandlerReportsPendingQR(t *testing.T) {
	qrDelivered := make(chan struct{})
	block := make(chan struct{})
	session := NewSession(func(ctx context.Context, onQR func(string)) error {
		onQR("pairing-code")
		close(qrDelivered)
		<-block
		return nil
	}, nil)
	defer close(block)
	h := NewChannelHandler(session)

	rec := httptest.NewRecorder()
	h.Connect(rec, httptest.NewRequest(http.MethodPost, "/api/channel/connect", nil))
	<-qrDelivered

	rec = httptest.NewRecorder()
	h.Status(rec, httptest.NewRequest(http.MethodGet, "/api/channel/status", nil))

	var status channelStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, StateInitializing, status.State)
	assert.Equal(t, "pairing-code", status.QR)
}
