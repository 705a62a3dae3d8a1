package main

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sweeney/diskled/internal/blockstat"
	"github.com/sweeney/diskled/internal/config"
	"github.com/sweeney/diskled/internal/logic"
)

func parseArgs(t *testing.T, args ...string) (*flag.FlagSet, *options) {
	t.Helper()
	fs := flag.NewFlagSet("diskled", flag.ContinueOnError)
	opts := registerFlags(fs, config.Default())
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse args: %v", err)
	}
	return fs, opts
}

func missingPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "absent.yaml")
}

func TestResolveConfigDefaults(t *testing.T) {
	fs, opts := parseArgs(t)

	cfg, err := resolveConfig(fs, opts, missingPath(t))
	if err != nil {
		t.Fatalf("resolveConfig: %v", err)
	}
	if cfg.Device != config.DefaultDevice {
		t.Errorf("Device: got %q", cfg.Device)
	}
	if cfg.Poll != config.DefaultPoll || cfg.Hold != config.DefaultHold {
		t.Errorf("timings: got poll=%v hold=%v", cfg.Poll, cfg.Hold)
	}
}

func TestResolveConfigFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diskled.yaml")
	contents := "device: /sys/block/sdb/stat\npoll: 50ms\nfilter: reads\n"
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	fs, opts := parseArgs(t, "-config", path, "-poll", "20ms", "-mode", "io")

	cfg, err := resolveConfig(fs, opts, missingPath(t))
	if err != nil {
		t.Fatalf("resolveConfig: %v", err)
	}

	// From the file.
	if cfg.Device != "/sys/block/sdb/stat" {
		t.Errorf("Device: got %q", cfg.Device)
	}
	if cfg.Filter != logic.FilterReads {
		t.Errorf("Filter: got %q", cfg.Filter)
	}
	// Flag wins over file.
	if cfg.Poll != 20*time.Millisecond {
		t.Errorf("Poll: got %v, want flag value 20ms", cfg.Poll)
	}
	// Flag with no file counterpart.
	if cfg.Mode != blockstat.ModeIO {
		t.Errorf("Mode: got %q", cfg.Mode)
	}
}

func TestResolveConfigMissingExplicitFileFatal(t *testing.T) {
	fs, opts := parseArgs(t, "-config", missingPath(t))
	if _, err := resolveConfig(fs, opts, missingPath(t)); err == nil {
		t.Error("expected error for missing -config file")
	}
}

func TestResolveConfigBadEnums(t *testing.T) {
	tests := [][]string{
		{"-filter", "neither"},
		{"-mode", "blocks"},
	}
	for _, args := range tests {
		fs, opts := parseArgs(t, args...)
		if _, err := resolveConfig(fs, opts, missingPath(t)); err == nil {
			t.Errorf("args %v: expected error", args)
		}
	}
}

func TestResolveConfigNormalizes(t *testing.T) {
	fs, opts := parseArgs(t, "-poll", "0s", "-hold", "0s")

	cfg, err := resolveConfig(fs, opts, missingPath(t))
	if err != nil {
		t.Fatalf("resolveConfig: %v", err)
	}
	if cfg.Poll != config.MinDuration || cfg.Hold != config.MinDuration {
		t.Errorf("zero durations should clamp to %v, got poll=%v hold=%v",
			config.MinDuration, cfg.Poll, cfg.Hold)
	}
}

func TestStatusConfig(t *testing.T) {
	cfg := config.Default()
	cfg.ReadHold = 30 * time.Millisecond
	cfg.Broker = "tcp://broker:1883"

	sc := statusConfig(cfg)
	if sc.PollMs != 8 || sc.HoldMs != 12 || sc.ReadHoldMs != 30 {
		t.Errorf("durations: got %+v", sc)
	}
	if sc.Filter != "both" || sc.Mode != "sectors" {
		t.Errorf("enums: got filter=%q mode=%q", sc.Filter, sc.Mode)
	}
	if sc.Broker != "tcp://broker:1883" {
		t.Errorf("broker: got %q", sc.Broker)
	}
}
