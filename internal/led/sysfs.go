package led

import (
	"fmt"
	"os"
)

// Sysfs drives an indicator through a writable file such as a sysfs LED
// brightness attribute. The payload is a single digit plus a newline.
type Sysfs struct {
	f          *os.File
	current    int8
	activeHigh bool
}

// NewSysfs opens the target file for writing. The logical state starts
// unknown so the first Set always performs a physical write.
func NewSysfs(path string, activeHigh bool) (*Sysfs, error) {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("open led file: %w", err)
	}
	return &Sysfs{f: f, current: stateUnknown, activeHigh: activeHigh}, nil
}

// Set drives the indicator. The cached state is updated only after a
// successful write.
func (l *Sysfs) Set(on bool) error {
	want := logicalState(on)
	if l.current == want {
		return nil
	}
	buf := [2]byte{physicalDigit(on, l.activeHigh), '\n'}
	if _, err := l.f.Write(buf[:]); err != nil {
		return fmt.Errorf("write led file: %w", err)
	}
	l.current = want
	return nil
}

// Close releases the file handle.
func (l *Sysfs) Close() error {
	return l.f.Close()
}
