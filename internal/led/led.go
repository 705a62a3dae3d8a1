// Package led drives a binary indicator through a simple on/off interface,
// with hardware abstraction for testing. The real implementations are a
// sysfs brightness file and a Linux GPIO line; the fake records writes.
package led

import (
	"fmt"
	"strconv"
	"strings"
)

// Logical state cache values. Unknown forces the first physical write.
const (
	stateUnknown int8 = -1
	stateOff     int8 = 0
	stateOn      int8 = 1
)

// Actuator sets the indicator's logical state.
type Actuator interface {
	// Set drives the indicator to the requested logical state. A request
	// equal to the last applied state performs no I/O. A write failure
	// is returned and is fatal by policy; it is never retried.
	Set(on bool) error

	// Close releases the underlying handle.
	Close() error
}

// gpioPrefix marks an actuator target that names a GPIO line instead of a
// sysfs file, as "gpio:<chip>:<offset>" or "gpio:<offset>".
const gpioPrefix = "gpio:"

// DefaultGPIOChip is used when a gpio target omits the chip name.
const DefaultGPIOChip = "gpiochip0"

// Open creates the actuator for a target string. Targets starting with
// "gpio:" select a GPIO line; anything else is a writable sysfs-style file
// such as /sys/class/leds/.../brightness.
func Open(target string, activeHigh bool) (Actuator, error) {
	if !strings.HasPrefix(target, gpioPrefix) {
		return NewSysfs(target, activeHigh)
	}
	chip, offset, err := parseGPIOTarget(target)
	if err != nil {
		return nil, err
	}
	return NewGPIO(chip, offset, activeHigh)
}

func parseGPIOTarget(target string) (string, int, error) {
	spec := strings.TrimPrefix(target, gpioPrefix)
	chip := DefaultGPIOChip
	if i := strings.IndexByte(spec, ':'); i >= 0 {
		chip = spec[:i]
		spec = spec[i+1:]
	}
	offset, err := strconv.Atoi(spec)
	if err != nil || offset < 0 || chip == "" {
		return "", 0, fmt.Errorf("invalid gpio target %q (want gpio:<chip>:<offset>)", target)
	}
	return chip, offset, nil
}

// physicalDigit maps a logical state through the polarity to the character
// written to a sysfs file.
func physicalDigit(on, activeHigh bool) byte {
	if on == activeHigh {
		return '1'
	}
	return '0'
}

// physicalValue maps a logical state through the polarity to a GPIO level.
func physicalValue(on, activeHigh bool) int {
	if on == activeHigh {
		return 1
	}
	return 0
}

func logicalState(on bool) int8 {
	if on {
		return stateOn
	}
	return stateOff
}
