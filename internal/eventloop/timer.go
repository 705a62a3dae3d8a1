//go:build linux

package eventloop

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// Timer wraps a non-blocking CLOCK_MONOTONIC timerfd.
type Timer struct {
	fd int
}

func newTimerfd() (int, error) {
	fd, err := unix.TimerfdCreate(unix.CLOCK_MONOTONIC, unix.TFD_NONBLOCK|unix.TFD_CLOEXEC)
	if err != nil {
		return -1, fmt.Errorf("create timerfd: %w", err)
	}
	return fd, nil
}

// NewPeriodic creates a timer that fires almost immediately and thereafter
// every interval. The initial expiry is 1ns rather than zero: a zero
// it_value would disarm the timer entirely.
func NewPeriodic(interval time.Duration) (*Timer, error) {
	fd, err := newTimerfd()
	if err != nil {
		return nil, err
	}
	spec := unix.ItimerSpec{
		Interval: unix.NsecToTimespec(interval.Nanoseconds()),
		Value:    unix.Timespec{Nsec: 1},
	}
	if err := unix.TimerfdSettime(fd, 0, &spec, nil); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("arm periodic timerfd: %w", err)
	}
	return &Timer{fd: fd}, nil
}

// NewOneshot creates a disarmed timer. It never fires until ArmOnce is
// called.
func NewOneshot() (*Timer, error) {
	fd, err := newTimerfd()
	if err != nil {
		return nil, err
	}
	return &Timer{fd: fd}, nil
}

// ArmOnce programs the timer to fire exactly once after delay. Any pending
// expiry is discarded by the kernel's replace semantics, so a re-arm can
// never race an old expiry for the same timer.
func (t *Timer) ArmOnce(delay time.Duration) error {
	if delay <= 0 {
		// Zero would disarm instead of firing immediately.
		delay = time.Nanosecond
	}
	spec := unix.ItimerSpec{
		Value: unix.NsecToTimespec(delay.Nanoseconds()),
	}
	if err := unix.TimerfdSettime(t.fd, 0, &spec, nil); err != nil {
		return fmt.Errorf("arm timerfd: %w", err)
	}
	return nil
}

// Acknowledge drains the expiry counter so the timer stops reporting ready.
// The fd is non-blocking; a read with nothing pending returns EAGAIN, which
// is fine. The drained count is not used.
func (t *Timer) Acknowledge() {
	var buf [8]byte
	unix.Read(t.fd, buf[:])
}

// Fd returns the underlying file descriptor for multiplexer registration.
func (t *Timer) Fd() int {
	return t.fd
}

// Close releases the timer fd.
func (t *Timer) Close() error {
	return unix.Close(t.fd)
}
