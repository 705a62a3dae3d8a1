// Package blockstat reads cumulative I/O counters from a block device's
// stat file and turns monotonically increasing counters into discrete
// activity events.
package blockstat

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sweeney/diskled/internal/logic"
)

// Mode selects which counter fields are sampled.
type Mode string

const (
	// ModeIO samples completed read/write operation counts.
	ModeIO Mode = "io"
	// ModeSectors samples sectors read/written.
	ModeSectors Mode = "sectors"
)

// Field positions in the kernel's /sys/block/<dev>/stat layout. The layout
// is fixed ABI; it is never auto-detected.
const (
	fieldReadIOs      = 0
	fieldReadSectors  = 2
	fieldWriteIOs     = 4
	fieldWriteSectors = 6
)

// fields returns the (reads, writes) field positions for the mode.
func (m Mode) fields() (int, int) {
	if m == ModeIO {
		return fieldReadIOs, fieldWriteIOs
	}
	return fieldReadSectors, fieldWriteSectors
}

// Snapshot is the pair of cumulative counters read at one sampling instant.
type Snapshot struct {
	Reads  uint64
	Writes uint64
}

// Sampler reads a stat file and classifies counter deltas between
// consecutive samples. Not safe for concurrent use; the event loop is the
// only caller.
type Sampler struct {
	path    string
	mode    Mode
	prev    Snapshot
	scratch [256]byte
}

// NewSampler creates a sampler for the given stat file. The first sample
// diffs against a zero snapshot, which on a device with any I/O history
// reports activity once; the hold logic absorbs that as a startup blink.
func NewSampler(path string, mode Mode) *Sampler {
	return &Sampler{path: path, mode: mode}
}

// Sample reads the counters once and classifies the delta against the
// previous sample. A stat line with fewer fields than the mode requires is
// tolerated as "no activity"; the previous snapshot is then left untouched
// so no counter observation is ever fabricated. A hard open/read failure
// is returned to the caller and is fatal by policy.
//
// When only reads changed the direction is READ; when writes changed, with
// or without a read change, the direction is WRITE. The write-wins
// tie-break is a fixed policy, preserved for compatibility.
func (s *Sampler) Sample() (logic.Direction, bool, error) {
	snap, ok, err := s.ReadCounters()
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, nil
	}

	readChanged := snap.Reads != s.prev.Reads
	writeChanged := snap.Writes != s.prev.Writes
	s.prev = snap

	switch {
	case writeChanged:
		return logic.DirectionWrite, true, nil
	case readChanged:
		return logic.DirectionRead, true, nil
	default:
		return "", false, nil
	}
}

// ReadCounters performs one bounded read of the stat file and extracts the
// mode's counter pair. It returns ok=false without error when the expected
// fields are absent. It does not touch the sampler's previous snapshot.
func (s *Sampler) ReadCounters() (Snapshot, bool, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("open stat file: %w", err)
	}
	defer f.Close()

	// An EOF on an empty file counts as a truncated read, handled below
	// by the missing-field path.
	n, err := f.Read(s.scratch[:])
	if err != nil && err != io.EOF {
		return Snapshot{}, false, fmt.Errorf("read stat file: %w", err)
	}

	readField, writeField := s.mode.fields()
	var snap Snapshot
	var haveReads, haveWrites bool

	for i, token := range strings.Fields(string(s.scratch[:n])) {
		if i != readField && i != writeField {
			continue
		}
		v, err := strconv.ParseUint(token, 10, 64)
		if err != nil {
			continue
		}
		if i == readField {
			snap.Reads = v
			haveReads = true
		} else {
			snap.Writes = v
			haveWrites = true
		}
		if haveReads && haveWrites {
			break
		}
	}

	if !haveReads || !haveWrites {
		return Snapshot{}, false, nil
	}
	return snap, true, nil
}

// Path returns the stat file path the sampler reads.
func (s *Sampler) Path() string {
	return s.path
}
