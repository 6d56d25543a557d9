package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

func TestSlogLogger_Log(t *testing.T) {
	tests := []struct {
		name          string
		event         Event
		wantEventType string
		wantProvider  string
		wantCount     float64
	}{
		{
			name: "blink confirmed event",
			event: Event{
				EventType:     EventBlinkConfirmed,
				Provider:      "facemesh",
				BlinkCount:    2,
				LivenessScore: 20,
				EAR:           0.33,
			},
			wantEventType: string(EventBlinkConfirmed),
			wantProvider:  "facemesh",
			wantCount:     2,
		},
		{
			name: "tracker reset event",
			event: Event{
				EventType: EventTrackerReset,
				Provider:  "mock",
				IPAddress: "10.0.0.1",
			},
			wantEventType: string(EventTrackerReset),
			wantProvider:  "mock",
			wantCount:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewSlogLogger(newBufferLogger(&buf))

			require.NoError(t, logger.Log(context.Background(), tt.event))

			var record map[string]interface{}
			require.NoError(t, json.Unmarshal(buf.Bytes(), &record))

			assert.Equal(t, "audit_event", record["msg"])
			assert.Equal(t, "audit", record["component"])
			assert.Equal(t, tt.wantEventType, record["event_type"])
			assert.Equal(t, tt.wantProvider, record["provider"])
			assert.Equal(t, tt.wantCount, record["blink_count"])
			assert.NotEmpty(t, record["event_id"])

			var data Event
			require.NoError(t, json.Unmarshal([]byte(record["event_data"].(string)), &data))
			assert.NotEqual(t, uuid.Nil, data.ID)
			assert.False(t, data.Timestamp.IsZero())
		})
	}
}

func TestSlogLogger_KeepsProvidedIdentity(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(newBufferLogger(&buf))

	id := uuid.New()
	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, logger.Log(context.Background(), Event{ID: id, Timestamp: ts, EventType: EventVerified}))

	assert.True(t, strings.Contains(buf.String(), id.String()))
	assert.True(t, strings.Contains(buf.String(), "2025-01-02T03:04:05Z"))
}

type recordingStore struct {
	events []Event
	err    error
}

func (s *recordingStore) Insert(_ context.Context, event *Event) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, *event)
	return nil
}

func TestStoreLogger_Log(t *testing.T) {
	store := &recordingStore{}
	logger := NewStoreLogger(store)

	require.NoError(t, logger.Log(context.Background(), Event{EventType: EventBlinkConfirmed, BlinkCount: 1}))

	require.Len(t, store.events, 1)
	assert.NotEqual(t, uuid.Nil, store.events[0].ID)
	assert.Equal(t, 1, store.events[0].BlinkCount)
}

func TestMultiLogger_Log(t *testing.T) {
	ok := &recordingStore{}
	failing := &recordingStore{err: errors.New("db down")}
	last := &recordingStore{}

	logger := NewMultiLogger(NewStoreLogger(ok), NewStoreLogger(failing), NewStoreLogger(last), &NoOpLogger{})

	err := logger.Log(context.Background(), Event{EventType: EventTrackerReset})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
	require.Len(t, ok.events, 1)
	require.Len(t, last.events, 1)
	assert.Equal(t, ok.events[0].ID, last.events[0].ID, "all sinks receive the same event")
}

func TestNoOpLogger_Log(t *testing.T) {
	assert.NoError(t, (&NoOpLogger{}).Log(context.Background(), Event{EventType: EventBlinkConfirmed}))
}
