package ws

import (
	"time"
)

type EventType string

const (
	EventStatusUpdated  EventType = "status.updated"
	EventBlinkConfirmed EventType = "blink.confirmed"
	EventTrackerReset   EventType = "tracker.reset"
	EventVerified       EventType = "liveness.verified"
)

type Event struct {
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}
