//go:build !linux

package led

import "errors"

// GPIO is not available on non-Linux platforms.
type GPIO struct{}

// NewGPIO returns an error on non-Linux platforms.
func NewGPIO(chipName string, offset int, activeHigh bool) (*GPIO, error) {
	return nil, errors.New("led: gpio not supported on this platform (requires Linux)")
}

// Set is not implemented on non-Linux platforms.
func (l *GPIO) Set(on bool) error {
	return errors.New("led: gpio not supported")
}

// Close is not implemented on non-Linux platforms.
func (l *GPIO) Close() error {
	return nil
}
