package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/blinkcheck/internal/audit"
)

func testNotifier(t *testing.T, url string) *Notifier {
	t.Helper()

	config := DefaultConfig()
	config.URL = url
	config.Secret = "s3cret"
	config.BaseBackoff = time.Millisecond
	config.MaxAttempts = 3

	n := NewNotifier(config, nil)
	t.Cleanup(n.Stop)
	return n
}

func TestNotifier_DeliversSignedEvent(t *testing.T) {
	received := make(chan *http.Request, 1)
	bodies := make(chan []byte, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		received <- r
		bodies <- body
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	n := testNotifier(t, server.URL)
	go n.Run(context.Background())

	require.NoError(t, n.Log(context.Background(), audit.Event{
		EventType:     audit.EventVerified,
		BlinkCount:    3,
		LivenessScore: 30,
	}))

	select {
	case r := <-received:
		body := <-bodies
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "LIVENESS_VERIFIED", r.Header.Get(HeaderEvent))
		assert.NotEmpty(t, r.Header.Get(HeaderDelivery))

		ts, err := strconv.ParseInt(r.Header.Get(HeaderTimestamp), 10, 64)
		require.NoError(t, err)
		assert.True(t, Verify("s3cret", ts, body, r.Header.Get(HeaderSignature)))

		var payload EventPayload
		require.NoError(t, json.Unmarshal(body, &payload))
		assert.Equal(t, "LIVENESS_VERIFIED", payload.Type)
		assert.Equal(t, 30, payload.Data.LivenessScore)
	case <-time.After(2 * time.Second):
		t.Fatal("webhook not delivered")
	}
}

func TestNotifier_IgnoresUnselectedEvents(t *testing.T) {
	n := testNotifier(t, "http://127.0.0.1:1")

	require.NoError(t, n.Log(context.Background(), audit.Event{EventType: audit.EventBlinkConfirmed}))
	assert.Len(t, n.queue, 0)
}

func TestNotifier_RetriesServerErrors(t *testing.T) {
	var attempts int32
	done := make(chan struct{})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
		close(done)
	}))
	defer server.Close()

	n := testNotifier(t, server.URL)
	go n.Run(context.Background())

	require.NoError(t, n.Log(context.Background(), audit.Event{EventType: audit.EventVerified}))

	select {
	case <-done:
		assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
	case <-time.After(2 * time.Second):
		t.Fatal("webhook not delivered after retries")
	}
}

func TestNotifier_NoRetryOnClientError(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	n := testNotifier(t, server.URL)
	n.deliver(context.Background(), delivery{EventType: "LIVENESS_VERIFIED", Payload: []byte(`{}`)})

	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

func TestNotifier_GivesUpAfterMaxAttempts(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	n := testNotifier(t, server.URL)
	n.deliver(context.Background(), delivery{EventType: "LIVENESS_VERIFIED", Payload: []byte(`{}`)})

	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestNotifier_QueueFull(t *testing.T) {
	config := DefaultConfig()
	config.URL = "http://127.0.0.1:1"
	config.QueueSize = 1
	n := NewNotifier(config, nil)

	require.NoError(t, n.Log(context.Background(), audit.Event{EventType: audit.EventVerified}))
	err := n.Log(context.Background(), audit.Event{EventType: audit.EventVerified})
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestNotifier_Stopped(t *testing.T) {
	n := testNotifier(t, "http://127.0.0.1:1")
	n.Stop()
	n.Stop()

	err := n.Log(context.Background(), audit.Event{EventType: audit.EventVerified})
	assert.ErrorIs(t, err, ErrStopped)
}

func TestRetryable(t *testing.T) {
	assert.True(t, retryable(&StatusError{StatusCode: 500}))
	assert.True(t, retryable(&StatusError{StatusCode: 429}))
	assert.False(t, retryable(&StatusError{StatusCode: 404}))
	assert.True(t, retryable(io.ErrUnexpectedEOF))
}
