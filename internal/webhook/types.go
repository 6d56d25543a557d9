package webhook

import (
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/blinkcheck/internal/audit"
)

const (
	HeaderSignature = "X-Blinkcheck-Signature"
	HeaderTimestamp = "X-Blinkcheck-Timestamp"
	HeaderEvent     = "X-Blinkcheck-Event"
	HeaderDelivery  = "X-Blinkcheck-Delivery"
)

// Config describes the single endpoint liveness events are delivered to
type Config struct {
	URL         string
	Secret      string
	Events      []audit.EventType
	MaxAttempts int
	Timeout     time.Duration
	BaseBackoff time.Duration
	QueueSize   int
}

func DefaultConfig() Config {
	return Config{
		Events:      []audit.EventType{audit.EventVerified},
		MaxAttempts: 5,
		Timeout:     10 * time.Second,
		BaseBackoff: time.Second,
		QueueSize:   64,
	}
}

// EventPayload is the JSON body posted to the endpoint
type EventPayload struct {
	Type      string      `json:"type"`
	Data      audit.Event `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

type delivery struct {
	ID        uuid.UUID
	EventType string
	Payload   []byte
	Attempts  int
}
