//go:build linux

package eventloop

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Mux blocks on a set of registered file descriptors via epoll. It is the
// daemon's only blocking point.
type Mux struct {
	epfd   int
	events []unix.EpollEvent
}

// NewMux creates an empty multiplexer.
func NewMux() (*Mux, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("create epoll: %w", err)
	}
	return &Mux{epfd: epfd}, nil
}

// Register adds a readable fd with an identifying tag. Tags must be unique
// within the mux; they come back from Wait to name the ready source.
func (m *Mux) Register(fd int, tag uint64) error {
	ev := unix.EpollEvent{
		Events: unix.EPOLLIN,
		Fd:     int32(tag),
	}
	if err := unix.EpollCtl(m.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return fmt.Errorf("register fd %d: %w", fd, err)
	}
	m.events = append(m.events, unix.EpollEvent{})
	return nil
}

// Wait blocks until at least one registered source is ready and fills
// ready with their tags, returning how many fired. A benign EINTR is
// retried; any other failure is surfaced and fatal by policy.
func (m *Mux) Wait(ready []uint64) (int, error) {
	for {
		n, err := unix.EpollWait(m.epfd, m.events, -1)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("epoll wait: %w", err)
		}
		if n > len(ready) {
			n = len(ready)
		}
		for i := 0; i < n; i++ {
			ready[i] = uint64(m.events[i].Fd)
		}
		return n, nil
	}
}

// Close releases the epoll fd.
func (m *Mux) Close() error {
	return unix.Close(m.epfd)
}
