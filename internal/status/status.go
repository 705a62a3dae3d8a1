// Package status provides a thread-safe status tracker for the diskled
// daemon. The event loop writes it on transitions and heartbeats; HTTP
// handlers and MQTT snapshots read it.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/diskled/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	Device      string
	LED         string
	PollMs      int64
	HoldMs      int64
	ReadHoldMs  int64
	WriteHoldMs int64
	HeartbeatMs int64
	ActiveHigh  bool
	Filter      string
	Mode        string
	Broker      string
	HTTPAddr    string
}

// Snapshot is a point-in-time view of daemon state. It is a value type,
// safe to use after the lock is released.
type Snapshot struct {
	LED           logic.State
	Counts        logic.EventCounts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config. The
// LED state starts Off, matching the forced off-write at startup.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			LED:       logic.StateOff,
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update sets the indicator state and event counts.
func (t *Tracker) Update(led logic.State, counts logic.EventCounts) {
	t.mu.Lock()
	t.snap.LED = led
	t.snap.Counts = counts
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
