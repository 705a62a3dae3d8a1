// Package mqtt publishes indicator activity and daemon lifecycle events,
// with abstraction for testing. Publishing is best-effort: the indicator
// keeps working with the broker down, and failures never crash the core.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/diskled/internal/logic"
)

// TopicActivity carries indicator on/off transitions.
const TopicActivity = "disk/led/activity"

// TopicSystem carries daemon lifecycle events.
const TopicSystem = "disk/led/system"

// EventType classifies an indicator transition.
type EventType string

const (
	EventOn  EventType = "ACTIVITY_ON"
	EventOff EventType = "ACTIVITY_OFF"
)

// Event is an indicator transition to be published.
type Event struct {
	Timestamp time.Time
	Type      EventType
	// Direction is set for ACTIVITY_ON events only.
	Direction logic.Direction
	Device    string
}

// SystemEvent is a daemon lifecycle event (startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g. "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g. "SIGTERM" (shutdown only)
	RawPayload []byte // pre-formatted payload; used for status snapshots
	Retained   bool
}

// Publisher publishes events to a broker.
type Publisher interface {
	// PublishActivity sends an indicator transition. Failures are
	// returned but must not crash the process.
	PublishActivity(event Event) error

	// PublishSystem sends a daemon lifecycle event.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the broker connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// Payload is the activity message structure.
type Payload struct {
	LED LEDPayload `json:"led"`
}

// LEDPayload contains the transition details.
type LEDPayload struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Direction string `json:"direction,omitempty"`
	Device    string `json:"device"`
}

// FormatActivityPayload creates the JSON payload for a transition.
func FormatActivityPayload(event Event) ([]byte, error) {
	payload := Payload{
		LED: LEDPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     string(event.Type),
			Direction: string(event.Direction),
			Device:    event.Device,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload is the lifecycle message structure for simple events that
// do not carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the lifecycle event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a lifecycle event. If
// event.RawPayload is set, it is returned directly.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
