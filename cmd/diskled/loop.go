package main

import (
	"fmt"
	"log"
	"time"

	"github.com/sweeney/diskled/internal/blockstat"
	"github.com/sweeney/diskled/internal/config"
	"github.com/sweeney/diskled/internal/eventloop"
	"github.com/sweeney/diskled/internal/led"
	"github.com/sweeney/diskled/internal/logic"
	"github.com/sweeney/diskled/internal/mqtt"
	"github.com/sweeney/diskled/internal/status"
)

// loop owns the event sources and maps engine decisions onto the actuator,
// the decay clock and the collaborators. It runs on a single goroutine;
// the multiplexer wait is its only blocking point.
type loop struct {
	cfg       config.Config
	mux       *eventloop.Mux
	poll      *eventloop.Timer
	decay     *eventloop.Timer
	heartbeat *eventloop.Timer
	sampler   *blockstat.Sampler
	actuator  led.Actuator
	engine    *logic.Engine
	publisher mqtt.Publisher
	mqttState mqtt.ConnectionStatus
	tracker   *status.Tracker
}

func (l *loop) run() error {
	ready := make([]uint64, 3)
	for {
		n, err := l.mux.Wait(ready)
		if err != nil {
			return err
		}
		// Events are handled in report order; when both clocks land in
		// one batch, either order is correct because each clock keeps
		// its own kernel-tracked expiry.
		for i := 0; i < n; i++ {
			var err error
			switch ready[i] {
			case tagPoll:
				err = l.onPollTick()
			case tagDecay:
				err = l.onDecayTick()
			case tagHeartbeat:
				l.onHeartbeat()
			}
			if err != nil {
				return err
			}
		}
	}
}

func (l *loop) onPollTick() error {
	l.poll.Acknowledge()

	dir, active, err := l.sampler.Sample()
	if err != nil {
		return fmt.Errorf("sample %s: %w", l.cfg.Device, err)
	}
	if !active {
		return nil
	}

	d := l.engine.OnActivity(dir)
	if !d.Accepted {
		return nil
	}

	if d.TurnOn {
		if err := l.actuator.Set(true); err != nil {
			return err
		}
		l.tracker.Update(logic.StateOn, l.engine.CountsSnapshot())
		l.publishTransition(mqtt.EventOn, dir)
	}
	return l.decay.ArmOnce(d.Hold)
}

func (l *loop) onDecayTick() error {
	l.decay.Acknowledge()

	wasLit := l.engine.OnDecay()
	if err := l.actuator.Set(false); err != nil {
		return err
	}
	if wasLit {
		l.tracker.Update(logic.StateOff, l.engine.CountsSnapshot())
		l.publishTransition(mqtt.EventOff, "")
	}
	return nil
}

func (l *loop) onHeartbeat() {
	l.heartbeat.Acknowledge()

	l.tracker.Update(logic.StateOf(l.engine.Lit()), l.engine.CountsSnapshot())
	if l.publisher == nil {
		return
	}
	if l.mqttState != nil {
		l.tracker.SetMQTTConnected(l.mqttState.IsConnected())
	}

	snap := l.tracker.Snapshot()
	event := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "HEARTBEAT",
		RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
	}
	if err := l.publisher.PublishSystem(event); err != nil {
		log.Printf("heartbeat publish error: %v", err)
	}
}

func (l *loop) publishTransition(t mqtt.EventType, dir logic.Direction) {
	if l.publisher == nil {
		return
	}
	event := mqtt.Event{
		Timestamp: time.Now(),
		Type:      t,
		Direction: dir,
		Device:    l.cfg.Device,
	}
	if err := l.publisher.PublishActivity(event); err != nil {
		log.Printf("publish error: %v", err)
	}
}
