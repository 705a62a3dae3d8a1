package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sweeney/diskled/internal/blockstat"
	"github.com/sweeney/diskled/internal/led"
	"github.com/sweeney/diskled/internal/logic"
	"github.com/sweeney/diskled/internal/mqtt"
)

// simulation drives the sampler/engine/actuator chain the way the event
// loop does, with a virtual clock standing in for the two timerfds: the
// poll tick advances time by one interval and the decay deadline fires
// whenever it falls due before the next tick.
type simulation struct {
	t         *testing.T
	statPath  string
	sampler   *blockstat.Sampler
	engine    *logic.Engine
	actuator  *led.Fake
	publisher *mqtt.FakePublisher

	poll    time.Duration
	now     time.Duration
	decayAt time.Duration // 0 = disarmed
}

func newSimulation(t *testing.T, policy logic.Policy, poll time.Duration, mode blockstat.Mode) *simulation {
	t.Helper()
	statPath := filepath.Join(t.TempDir(), "stat")

	s := &simulation{
		t:         t,
		statPath:  statPath,
		sampler:   blockstat.NewSampler(statPath, mode),
		engine:    logic.NewEngine(policy),
		actuator:  led.NewFake(),
		publisher: mqtt.NewFakePublisher(),
		poll:      poll,
	}

	// Startup: force a known dark state, ignoring the error like the
	// daemon does.
	_ = s.actuator.Set(false)
	return s
}

func (s *simulation) setCounters(reads, writes uint64) {
	s.t.Helper()
	line := fmt.Sprintf("%d 0 %d 0 %d 0 %d 0 0 0 0\n", reads, reads*8, writes, writes*8)
	if err := os.WriteFile(s.statPath, []byte(line), 0644); err != nil {
		s.t.Fatalf("write stat: %v", err)
	}
}

func (s *simulation) fireDecay() {
	s.decayAt = 0
	wasLit := s.engine.OnDecay()
	if err := s.actuator.Set(false); err != nil {
		s.t.Fatalf("actuator off: %v", err)
	}
	if wasLit {
		s.publisher.PublishActivity(mqtt.Event{Type: mqtt.EventOff})
	}
}

// tick advances one poll interval, firing the decay deadline first if it
// falls due, then processes one sample.
func (s *simulation) tick() {
	s.t.Helper()
	s.now += s.poll
	if s.decayAt > 0 && s.decayAt <= s.now {
		s.fireDecay()
	}

	dir, active, err := s.sampler.Sample()
	if err != nil {
		s.t.Fatalf("sample: %v", err)
	}
	if !active {
		return
	}
	d := s.engine.OnActivity(dir)
	if !d.Accepted {
		return
	}
	if d.TurnOn {
		if err := s.actuator.Set(true); err != nil {
			s.t.Fatalf("actuator on: %v", err)
		}
		s.publisher.PublishActivity(mqtt.Event{Type: mqtt.EventOn, Direction: dir})
	}
	s.decayAt = s.now + d.Hold
}

// settle runs idle ticks until any armed decay has fired.
func (s *simulation) settle() {
	for s.decayAt > 0 {
		s.tick()
	}
}

func wantWrites(t *testing.T, got []bool, want ...bool) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("physical writes: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("physical writes: got %v, want %v", got, want)
		}
	}
}

// TestSingleBurstBlinks covers the 8ms interval / 12ms hold scenario: one
// read delta lights the indicator within a sampling interval and the decay
// turns it off roughly one hold later, not before.
func TestSingleBurstBlinks(t *testing.T) {
	policy := logic.Policy{Filter: logic.FilterBoth, Hold: 12 * time.Millisecond}
	s := newSimulation(t, policy, 8*time.Millisecond, blockstat.ModeIO)

	s.setCounters(100, 50)
	s.tick() // baseline sample: counters jump from the zero snapshot
	s.settle()
	s.actuator.Reset()
	s.publisher.Reset()
	_ = s.actuator.Set(false)
	s.actuator.Writes = nil // drop the re-force; state is now known off

	// No activity for a few ticks.
	s.tick()
	s.tick()
	if s.engine.Lit() {
		t.Fatal("indicator lit without activity")
	}

	// One read burst.
	s.setCounters(101, 50)
	litAt := s.now + s.poll
	s.tick()
	if !s.engine.Lit() {
		t.Fatal("indicator should light within one sampling interval")
	}
	wantOff := litAt + 12*time.Millisecond

	// Idle until decay fires.
	for s.decayAt > 0 {
		beforeOff := s.now+s.poll < wantOff
		s.tick()
		if beforeOff && !s.engine.Lit() {
			t.Fatalf("indicator went dark at %v, before hold elapsed at %v", s.now, wantOff)
		}
	}
	if s.engine.Lit() {
		t.Fatal("indicator should be dark after decay")
	}

	wantWrites(t, s.actuator.Writes, true, false)

	if len(s.publisher.Events) != 2 {
		t.Fatalf("expected 2 published events, got %d", len(s.publisher.Events))
	}
	if s.publisher.Events[0].Type != mqtt.EventOn || s.publisher.Events[0].Direction != logic.DirectionRead {
		t.Errorf("first event: got %+v", s.publisher.Events[0])
	}
	if s.publisher.Events[1].Type != mqtt.EventOff {
		t.Errorf("second event: got %+v", s.publisher.Events[1])
	}
}

// TestContinuousActivityStaysOn covers the sustained-writes scenario:
// activity on every tick keeps the indicator on with zero intermediate off
// writes, then a single off write one hold after the activity stops.
func TestContinuousActivityStaysOn(t *testing.T) {
	policy := logic.Policy{Filter: logic.FilterBoth, Hold: 12 * time.Millisecond}
	s := newSimulation(t, policy, 8*time.Millisecond, blockstat.ModeIO)

	s.setCounters(100, 50)
	s.tick()
	s.settle()
	s.actuator.Reset()
	_ = s.actuator.Set(false)
	s.actuator.Writes = nil

	// Writes on every tick for ~100ms.
	writes := uint64(50)
	start := s.now
	for s.now < start+100*time.Millisecond {
		writes++
		s.setCounters(100, writes)
		s.tick()
		if !s.engine.Lit() {
			t.Fatalf("indicator dark at %v during continuous activity", s.now)
		}
	}

	offAt := s.decayAt
	s.settle()
	if s.engine.Lit() {
		t.Fatal("indicator should be dark after the tail hold")
	}
	if tail := offAt - (start + 100*time.Millisecond); tail > 12*time.Millisecond+8*time.Millisecond {
		t.Errorf("off transition too late: tail %v", tail)
	}

	// Exactly one on write and one off write for the whole run.
	wantWrites(t, s.actuator.Writes, true, false)
}

// TestFilterSuppressesTransitions: with a reads-only filter, write deltas
// cause no transition and never arm the decay clock.
func TestFilterSuppressesTransitions(t *testing.T) {
	policy := logic.Policy{Filter: logic.FilterReads, Hold: 12 * time.Millisecond}
	s := newSimulation(t, policy, 8*time.Millisecond, blockstat.ModeIO)

	s.setCounters(100, 50)
	s.tick()
	s.settle()

	baselineWrites := len(s.actuator.Writes)

	for i := 0; i < 5; i++ {
		s.setCounters(100, 51+uint64(i))
		s.tick()
	}

	if s.engine.Lit() {
		t.Error("write-only activity should not light a reads-only indicator")
	}
	if s.decayAt != 0 {
		t.Error("rejected activity must not arm the decay clock")
	}
	if len(s.actuator.Writes) != baselineWrites {
		t.Errorf("unexpected physical writes: %v", s.actuator.Writes)
	}
}

// TestPerDirectionHold: read and write overrides pick different decay
// deadlines.
func TestPerDirectionHold(t *testing.T) {
	policy := logic.Policy{
		Filter:    logic.FilterBoth,
		Hold:      12 * time.Millisecond,
		ReadHold:  40 * time.Millisecond,
		WriteHold: 16 * time.Millisecond,
	}
	s := newSimulation(t, policy, 8*time.Millisecond, blockstat.ModeIO)

	s.setCounters(100, 50)
	s.tick()
	s.settle()

	s.setCounters(101, 50)
	s.tick()
	if got := s.decayAt - s.now; got != 40*time.Millisecond {
		t.Errorf("read hold: got %v, want 40ms", got)
	}

	s.setCounters(101, 51)
	s.tick()
	if got := s.decayAt - s.now; got != 16*time.Millisecond {
		t.Errorf("write hold: got %v, want 16ms", got)
	}
}

// TestMalformedStatKeepsRunning: a truncated stat line is tolerated tick
// to tick while the indicator machinery keeps working.
func TestMalformedStatKeepsRunning(t *testing.T) {
	policy := logic.Policy{Filter: logic.FilterBoth, Hold: 12 * time.Millisecond}
	s := newSimulation(t, policy, 8*time.Millisecond, blockstat.ModeSectors)

	s.setCounters(100, 50)
	s.tick()
	s.settle()

	if err := os.WriteFile(s.statPath, []byte("100 0\n"), 0644); err != nil {
		t.Fatalf("write stat: %v", err)
	}
	s.tick()
	if s.engine.Lit() {
		t.Error("truncated stat line should not light the indicator")
	}

	s.setCounters(100, 51)
	s.tick()
	if !s.engine.Lit() {
		t.Error("indicator should light once the stat line recovers")
	}
}
