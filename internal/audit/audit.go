package audit

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// EventType defines the type of auditable event
type EventType string

const (
	EventBlinkConfirmed EventType = "BLINK_CONFIRMED"
	EventTrackerReset   EventType = "TRACKER_RESET"
	EventVerified       EventType = "LIVENESS_VERIFIED"
)

// Event represents a liveness event worth keeping after the request ends
type Event struct {
	ID            uuid.UUID         `json:"id"`
	Timestamp     time.Time         `json:"timestamp"`
	EventType     EventType         `json:"event_type"`
	Provider      string            `json:"provider"`
	BlinkCount    int               `json:"blink_count"`
	LivenessScore int               `json:"liveness_score"`
	EAR           float64           `json:"ear"`
	RequestID     string            `json:"request_id,omitempty"`
	IPAddress     string            `json:"ip_address,omitempty"`
	UserAgent     string            `json:"user_agent,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// Logger defines the interface for audit logging
type Logger interface {
	Log(ctx context.Context, event Event) error
}

// stamp fills the ID and timestamp when the caller left them empty
func stamp(event Event) Event {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	return event
}

// SlogLogger implements Logger using slog
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger creates a new audit logger using slog
func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	return &SlogLogger{
		logger: logger.With("component", "audit"),
	}
}

// Log records an audit event
func (l *SlogLogger) Log(ctx context.Context, event Event) error {
	event = stamp(event)

	eventJSON, err := codec.Marshal(event)
	if err != nil {
		l.logger.ErrorContext(ctx, "failed to marshal audit event",
			slog.String("error", err.Error()),
			slog.String("event_type", string(event.EventType)),
		)
		return err
	}

	l.logger.InfoContext(ctx, "audit_event",
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", string(event.EventType)),
		slog.String("provider", event.Provider),
		slog.Int("blink_count", event.BlinkCount),
		slog.Int("liveness_score", event.LivenessScore),
		slog.String("event_data", string(eventJSON)),
	)

	return nil
}

// Store persists audit events
type Store interface {
	Insert(ctx context.Context, event *Event) error
}

// StoreLogger writes every event to a Store
type StoreLogger struct {
	store Store
}

func NewStoreLogger(store Store) *StoreLogger {
	return &StoreLogger{store: store}
}

func (l *StoreLogger) Log(ctx context.Context, event Event) error {
	event = stamp(event)
	return l.store.Insert(ctx, &event)
}

// MultiLogger fans an event out to several loggers. Every logger sees the
// event even when an earlier one fails; the errors are joined.
type MultiLogger struct {
	loggers []Logger
}

func NewMultiLogger(loggers ...Logger) *MultiLogger {
	return &MultiLogger{loggers: loggers}
}

func (m *MultiLogger) Log(ctx context.Context, event Event) error {
	event = stamp(event)

	var errs []error
	for _, l := range m.loggers {
		if err := l.Log(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NoOpLogger is a logger that does nothing (for testing or when audit is disabled)
type NoOpLogger struct{}

// Log does nothing and returns nil
func (l *NoOpLogger) Log(_ context.Context, _ Event) error {
	return nil
}
