package logic

import "time"

// Engine is the two-state indicator state machine. A qualifying activity
// sample turns the indicator on and schedules a decay; further activity
// before the decay fires pushes the off-transition into the future.
type Engine struct {
	policy Policy
	lit    bool
	counts EventCounts
}

// NewEngine creates an engine with the indicator logically off.
func NewEngine(policy Policy) *Engine {
	return &Engine{policy: policy}
}

// OnActivity processes one sampled activity direction and returns the
// decision for the event loop. The decay clock must be re-armed on every
// accepted sample, even when the indicator is already lit; that re-arm is
// what keeps continuous activity from ever turning the indicator off.
func (e *Engine) OnActivity(dir Direction) Decision {
	if !e.policy.Filter.Accepts(dir) {
		return Decision{}
	}

	switch dir {
	case DirectionRead:
		e.counts.Reads++
	case DirectionWrite:
		e.counts.Writes++
	}

	d := Decision{
		Accepted: true,
		Hold:     e.holdFor(dir),
	}
	if !e.lit {
		d.TurnOn = true
		e.lit = true
		e.counts.Blinks++
	}
	return d
}

// OnDecay processes a decay-clock expiry. It returns whether the indicator
// was lit; the caller drives the actuator off unconditionally either way
// and the actuator's idempotence absorbs the redundant case.
func (e *Engine) OnDecay() bool {
	wasLit := e.lit
	e.lit = false
	return wasLit
}

// holdFor selects the hold duration for a direction, preferring the
// per-direction override when configured.
func (e *Engine) holdFor(dir Direction) time.Duration {
	switch dir {
	case DirectionRead:
		if e.policy.ReadHold > 0 {
			return e.policy.ReadHold
		}
	case DirectionWrite:
		if e.policy.WriteHold > 0 {
			return e.policy.WriteHold
		}
	}
	return e.policy.Hold
}

// Lit reports whether the engine currently considers the indicator on.
func (e *Engine) Lit() bool {
	return e.lit
}

// CountsSnapshot returns a copy of the event counts.
func (e *Engine) CountsSnapshot() EventCounts {
	return e.counts
}
