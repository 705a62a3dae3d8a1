// Package config holds the daemon's resolved configuration: defaults,
// overlaid by an optional YAML config file, overlaid by command-line flags
// (applied by the caller). The result is immutable for the process
// lifetime once the event loop starts.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/diskled/internal/blockstat"
	"github.com/sweeney/diskled/internal/logic"
)

// Defaults mirror a ThinkPad with a single NVMe drive, the hardware this
// daemon grew up on. The power LED there is active-low.
const (
	DefaultPath      = "/etc/diskled.yaml"
	DefaultDevice    = "/sys/block/nvme0n1/stat"
	DefaultLEDTarget = "/sys/class/leds/tpacpi::power/brightness"
	DefaultPoll      = 8 * time.Millisecond
	DefaultHold      = 12 * time.Millisecond
	DefaultHeartbeat = time.Minute
)

// MinDuration is the smallest poll or hold the daemon accepts; zero or
// negative values are normalized up to it rather than rejected.
const MinDuration = time.Millisecond

// Config is the fully-resolved daemon configuration.
type Config struct {
	// Device is the block device stat file to sample.
	Device string
	// LED is the actuator target: a writable file path or "gpio:..."
	LED string

	Poll time.Duration
	Hold time.Duration
	// ReadHold and WriteHold override Hold per direction when > 0.
	ReadHold  time.Duration
	WriteHold time.Duration

	ActiveHigh bool
	Filter     logic.Filter
	Mode       blockstat.Mode
	Quiet      bool

	// Broker is the MQTT broker address; empty disables publishing.
	Broker string
	// HTTPAddr is the status page listen address; empty disables it.
	HTTPAddr string
	// Heartbeat is the status heartbeat interval; 0 disables it.
	Heartbeat time.Duration
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Device:    DefaultDevice,
		LED:       DefaultLEDTarget,
		Poll:      DefaultPoll,
		Hold:      DefaultHold,
		Filter:    logic.FilterBoth,
		Mode:      blockstat.ModeSectors,
		Heartbeat: DefaultHeartbeat,
	}
}

// Policy extracts the decision engine's configuration.
func (c Config) Policy() logic.Policy {
	return logic.Policy{
		Filter:    c.Filter,
		Hold:      c.Hold,
		ReadHold:  c.ReadHold,
		WriteHold: c.WriteHold,
	}
}

// Normalize clamps durations to representable values. Poll and Hold are
// raised to MinDuration; per-direction overrides stay unset when not
// positive; a negative heartbeat means disabled.
func (c *Config) Normalize() {
	if c.Poll < MinDuration {
		c.Poll = MinDuration
	}
	if c.Hold < MinDuration {
		c.Hold = MinDuration
	}
	if c.ReadHold <= 0 {
		c.ReadHold = 0
	} else if c.ReadHold < MinDuration {
		c.ReadHold = MinDuration
	}
	if c.WriteHold <= 0 {
		c.WriteHold = 0
	} else if c.WriteHold < MinDuration {
		c.WriteHold = MinDuration
	}
	if c.Heartbeat < 0 {
		c.Heartbeat = 0
	}
}

// ParseFilter validates an activity filter name.
func ParseFilter(s string) (logic.Filter, error) {
	switch logic.Filter(s) {
	case logic.FilterReads, logic.FilterWrites, logic.FilterBoth:
		return logic.Filter(s), nil
	}
	return "", fmt.Errorf("invalid filter %q (want reads, writes or both)", s)
}

// ParseMode validates a counter-source mode name.
func ParseMode(s string) (blockstat.Mode, error) {
	switch blockstat.Mode(s) {
	case blockstat.ModeIO, blockstat.ModeSectors:
		return blockstat.Mode(s), nil
	}
	return "", fmt.Errorf("invalid mode %q (want io or sectors)", s)
}

// Duration is a time.Duration that unmarshals from YAML either as a
// time.ParseDuration string ("8ms") or as a bare number of milliseconds,
// matching the daemon's original millisecond-based config files.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var n int64
	if err := value.Decode(&n); err == nil {
		*d = Duration(time.Duration(n) * time.Millisecond)
		return nil
	}
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("invalid duration value")
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// fileConfig is the YAML shape. Pointer fields distinguish "absent" from
// "zero" so a config file only overrides the keys it sets.
type fileConfig struct {
	Device     *string   `yaml:"device"`
	LED        *string   `yaml:"led"`
	Poll       *Duration `yaml:"poll"`
	Hold       *Duration `yaml:"hold"`
	ReadHold   *Duration `yaml:"read_hold"`
	WriteHold  *Duration `yaml:"write_hold"`
	ActiveHigh *bool     `yaml:"active_high"`
	Filter     *string   `yaml:"filter"`
	Mode       *string   `yaml:"mode"`
	Quiet      *bool     `yaml:"quiet"`
	Broker     *string   `yaml:"broker"`
	HTTPAddr   *string   `yaml:"http"`
	Heartbeat  *Duration `yaml:"heartbeat"`
}

// Load overlays the YAML file at path onto cfg. Keys absent from the file
// leave the existing values untouched.
func Load(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if fc.Device != nil {
		cfg.Device = *fc.Device
	}
	if fc.LED != nil {
		cfg.LED = *fc.LED
	}
	if fc.Poll != nil {
		cfg.Poll = time.Duration(*fc.Poll)
	}
	if fc.Hold != nil {
		cfg.Hold = time.Duration(*fc.Hold)
	}
	if fc.ReadHold != nil {
		cfg.ReadHold = time.Duration(*fc.ReadHold)
	}
	if fc.WriteHold != nil {
		cfg.WriteHold = time.Duration(*fc.WriteHold)
	}
	if fc.ActiveHigh != nil {
		cfg.ActiveHigh = *fc.ActiveHigh
	}
	if fc.Filter != nil {
		f, err := ParseFilter(*fc.Filter)
		if err != nil {
			return fmt.Errorf("config %s: %w", path, err)
		}
		cfg.Filter = f
	}
	if fc.Mode != nil {
		m, err := ParseMode(*fc.Mode)
		if err != nil {
			return fmt.Errorf("config %s: %w", path, err)
		}
		cfg.Mode = m
	}
	if fc.Quiet != nil {
		cfg.Quiet = *fc.Quiet
	}
	if fc.Broker != nil {
		cfg.Broker = *fc.Broker
	}
	if fc.HTTPAddr != nil {
		cfg.HTTPAddr = *fc.HTTPAddr
	}
	if fc.Heartbeat != nil {
		cfg.Heartbeat = time.Duration(*fc.Heartbeat)
	}
	return nil
}
