package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string     `json:"event,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	LED           string     `json:"led"`
	UptimeSeconds int64      `json:"uptime_seconds"`
	StartTime     string     `json:"start_time"`
	Timestamp     string     `json:"timestamp"`
	MQTT          MQTTStatus `json:"mqtt"`
	Counts        CountsJSON `json:"event_counts"`
	Config        ConfigJSON `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	Reads  int `json:"reads"`
	Writes int `json:"writes"`
	Blinks int `json:"blinks"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Device      string `json:"device"`
	LED         string `json:"led"`
	PollMs      int64  `json:"poll_ms"`
	HoldMs      int64  `json:"hold_ms"`
	ReadHoldMs  int64  `json:"read_hold_ms,omitempty"`
	WriteHoldMs int64  `json:"write_hold_ms,omitempty"`
	HeartbeatMs int64  `json:"heartbeat_ms,omitempty"`
	ActiveHigh  bool   `json:"active_high"`
	Filter      string `json:"filter"`
	Mode        string `json:"mode"`
	Broker      string `json:"broker,omitempty"`
	HTTPAddr    string `json:"http_addr,omitempty"`
}

func buildInner(snap Snapshot) StatusInner {
	led := string(snap.LED)
	if led == "" {
		led = "UNKNOWN"
	}

	return StatusInner{
		LED:           led,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Reads:  snap.Counts.Reads,
			Writes: snap.Counts.Writes,
			Blinks: snap.Counts.Blinks,
		},
		Config: ConfigJSON{
			Device:      snap.Config.Device,
			LED:         snap.Config.LED,
			PollMs:      snap.Config.PollMs,
			HoldMs:      snap.Config.HoldMs,
			ReadHoldMs:  snap.Config.ReadHoldMs,
			WriteHoldMs: snap.Config.WriteHoldMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			ActiveHigh:  snap.Config.ActiveHigh,
			Filter:      snap.Config.Filter,
			Mode:        snap.Config.Mode,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
