package led

import (
	"os"
	"path/filepath"
	"testing"
)

// newTestSysfs creates a Sysfs actuator backed by a regular file. Writes
// accumulate in the file, so the full content is the write sequence.
func newTestSysfs(t *testing.T, activeHigh bool) (*Sysfs, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "brightness")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatalf("create led file: %v", err)
	}
	l, err := NewSysfs(path, activeHigh)
	if err != nil {
		t.Fatalf("NewSysfs: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l, path
}

func readWrites(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read led file: %v", err)
	}
	return string(data)
}

func TestSysfsIdempotentSet(t *testing.T) {
	l, path := newTestSysfs(t, true)

	if err := l.Set(true); err != nil {
		t.Fatalf("Set(true): %v", err)
	}
	if err := l.Set(true); err != nil {
		t.Fatalf("second Set(true): %v", err)
	}

	if got := readWrites(t, path); got != "1\n" {
		t.Errorf("expected exactly one physical write %q, got %q", "1\n", got)
	}
}

func TestSysfsActiveHighSequence(t *testing.T) {
	l, path := newTestSysfs(t, true)

	if err := l.Set(true); err != nil {
		t.Fatalf("Set(true): %v", err)
	}
	if err := l.Set(false); err != nil {
		t.Fatalf("Set(false): %v", err)
	}

	if got := readWrites(t, path); got != "1\n0\n" {
		t.Errorf("active-high on,off: got %q, want %q", got, "1\n0\n")
	}
}

func TestSysfsActiveLowSequence(t *testing.T) {
	l, path := newTestSysfs(t, false)

	if err := l.Set(true); err != nil {
		t.Fatalf("Set(true): %v", err)
	}
	if err := l.Set(false); err != nil {
		t.Fatalf("Set(false): %v", err)
	}

	if got := readWrites(t, path); got != "0\n1\n" {
		t.Errorf("active-low on,off: got %q, want %q", got, "0\n1\n")
	}
}

func TestSysfsUnknownStateForcesFirstWrite(t *testing.T) {
	l, path := newTestSysfs(t, true)

	// The state cache starts unknown, so even an "off" request must be
	// written through (the device may be in any state at startup).
	if err := l.Set(false); err != nil {
		t.Fatalf("Set(false): %v", err)
	}
	if got := readWrites(t, path); got != "0\n" {
		t.Errorf("expected forced first write %q, got %q", "0\n", got)
	}
}

func TestSysfsMissingFile(t *testing.T) {
	_, err := NewSysfs(filepath.Join(t.TempDir(), "gone"), true)
	if err == nil {
		t.Fatal("expected error for missing led file")
	}
}
