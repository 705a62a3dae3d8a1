//go:build linux

package led

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// GPIO drives an indicator wired to a GPIO line via the Linux GPIO
// character device.
type GPIO struct {
	chip       *gpiocdev.Chip
	line       *gpiocdev.Line
	current    int8
	activeHigh bool
}

// NewGPIO requests the line as an output. The initial physical level is
// the polarity-corrected "off" so the indicator starts dark even before
// the first Set.
func NewGPIO(chipName string, offset int, activeHigh bool) (*GPIO, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}

	line, err := chip.RequestLine(offset, gpiocdev.AsOutput(physicalValue(false, activeHigh)))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request gpio line %d: %w", offset, err)
	}

	return &GPIO{
		chip:       chip,
		line:       line,
		current:    stateUnknown,
		activeHigh: activeHigh,
	}, nil
}

// Set drives the line. Redundant requests perform no I/O.
func (l *GPIO) Set(on bool) error {
	want := logicalState(on)
	if l.current == want {
		return nil
	}
	if err := l.line.SetValue(physicalValue(on, l.activeHigh)); err != nil {
		return fmt.Errorf("set gpio line: %w", err)
	}
	l.current = want
	return nil
}

// Close releases the line and chip.
func (l *GPIO) Close() error {
	var errs []error
	if l.line != nil {
		if err := l.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close line: %w", err))
		}
	}
	if l.chip != nil {
		if err := l.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
