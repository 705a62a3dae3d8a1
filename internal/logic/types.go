// Package logic contains pure decision logic for the activity indicator.
// This package has NO external dependencies (no sysfs, epoll, MQTT, or
// time.Sleep). It decides what the indicator should do; the event loop in
// cmd/diskled maps decisions onto the actuator and the decay clock.
package logic

import "time"

// State represents the logical state of the indicator.
type State string

const (
	StateOn  State = "ON"
	StateOff State = "OFF"
)

// StateOf converts a boolean indicator state to a State.
func StateOf(on bool) State {
	if on {
		return StateOn
	}
	return StateOff
}

// Direction classifies one sampling tick's activity.
type Direction string

const (
	DirectionRead  Direction = "READ"
	DirectionWrite Direction = "WRITE"
)

// Filter selects which activity directions light the indicator.
type Filter string

const (
	FilterReads  Filter = "reads"
	FilterWrites Filter = "writes"
	FilterBoth   Filter = "both"
)

// Accepts reports whether activity in the given direction passes the filter.
func (f Filter) Accepts(dir Direction) bool {
	switch f {
	case FilterReads:
		return dir == DirectionRead
	case FilterWrites:
		return dir == DirectionWrite
	default:
		return true
	}
}

// Policy is the immutable part of the engine's configuration.
type Policy struct {
	Filter Filter
	// Hold is how long the indicator stays lit after a qualifying
	// activity event.
	Hold time.Duration
	// ReadHold and WriteHold override Hold per direction when > 0.
	ReadHold  time.Duration
	WriteHold time.Duration
}

// Decision is what the event loop should do after one activity sample.
type Decision struct {
	// Accepted is false when the filter rejected the sample; nothing
	// else in the decision is meaningful then.
	Accepted bool
	// TurnOn is true when the indicator was off and must be driven on.
	TurnOn bool
	// Hold is the duration to (re)arm the decay clock for.
	Hold time.Duration
}

// EventCounts tracks activity since startup, for status reporting.
type EventCounts struct {
	// Reads and Writes count accepted activity samples per direction.
	Reads  int
	Writes int
	// Blinks counts off-to-on transitions.
	Blinks int
}
