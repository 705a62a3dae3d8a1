package led

// Fake is a test double that records physical writes. It applies the same
// idempotence rule as the real actuators so tests can count writes.
type Fake struct {
	// Writes contains the logical states in the order they were
	// physically applied.
	Writes []bool

	// SetError, if set, will be returned by Set.
	SetError error

	// Closed tracks if Close was called.
	Closed bool

	current int8
}

// NewFake creates a Fake with the logical state unknown.
func NewFake() *Fake {
	return &Fake{current: stateUnknown}
}

// Set records the write unless it is redundant.
func (f *Fake) Set(on bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	want := logicalState(on)
	if f.current == want {
		return nil
	}
	f.Writes = append(f.Writes, on)
	f.current = want
	return nil
}

// Close marks the actuator as closed.
func (f *Fake) Close() error {
	f.Closed = true
	return nil
}

// Reset clears recorded writes and returns the state to unknown.
func (f *Fake) Reset() {
	f.Writes = nil
	f.Closed = false
	f.SetError = nil
	f.current = stateUnknown
}
