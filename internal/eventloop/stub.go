//go:build !linux

package eventloop

import (
	"errors"
	"time"
)

var errUnsupported = errors.New("eventloop: not supported on this platform (requires Linux)")

// Timer is not available on non-Linux platforms.
type Timer struct{}

// NewPeriodic returns an error on non-Linux platforms.
func NewPeriodic(interval time.Duration) (*Timer, error) {
	return nil, errUnsupported
}

// NewOneshot returns an error on non-Linux platforms.
func NewOneshot() (*Timer, error) {
	return nil, errUnsupported
}

// ArmOnce is not implemented on non-Linux platforms.
func (t *Timer) ArmOnce(delay time.Duration) error {
	return errUnsupported
}

// Acknowledge is not implemented on non-Linux platforms.
func (t *Timer) Acknowledge() {}

// Fd is not implemented on non-Linux platforms.
func (t *Timer) Fd() int {
	return -1
}

// Close is not implemented on non-Linux platforms.
func (t *Timer) Close() error {
	return nil
}

// Mux is not available on non-Linux platforms.
type Mux struct{}

// NewMux returns an error on non-Linux platforms.
func NewMux() (*Mux, error) {
	return nil, errUnsupported
}

// Register is not implemented on non-Linux platforms.
func (m *Mux) Register(fd int, tag uint64) error {
	return errUnsupported
}

// Wait is not implemented on non-Linux platforms.
func (m *Mux) Wait(ready []uint64) (int, error) {
	return 0, errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (m *Mux) Close() error {
	return nil
}
