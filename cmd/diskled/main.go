// Command diskled mirrors block-device I/O activity onto an LED, holding
// the LED lit for a minimum perceptible duration so even instantaneous
// bursts produce a visible blink.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"github.com/sweeney/diskled/internal/blockstat"
	"github.com/sweeney/diskled/internal/config"
	"github.com/sweeney/diskled/internal/eventloop"
	"github.com/sweeney/diskled/internal/led"
	"github.com/sweeney/diskled/internal/logic"
	"github.com/sweeney/diskled/internal/mqtt"
	"github.com/sweeney/diskled/internal/status"
	"github.com/sweeney/diskled/internal/web"
)

// Multiplexer tags for the clock sources.
const (
	tagPoll uint64 = iota + 1
	tagDecay
	tagHeartbeat
)

func main() {
	opts := registerFlags(flag.CommandLine, config.Default())
	flag.Parse()

	cfg, err := resolveConfig(flag.CommandLine, opts, config.DefaultPath)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}

	if *opts.printStat {
		if err := printStat(cfg); err != nil {
			log.Fatalf("fatal: %v", err)
		}
		return
	}

	if err := run(cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// options holds the flag targets so resolveConfig can tell which flags
// were actually set on the command line.
type options struct {
	configPath *string
	device     *string
	ledTarget  *string
	poll       *time.Duration
	hold       *time.Duration
	readHold   *time.Duration
	writeHold  *time.Duration
	activeHigh *bool
	filterName *string
	modeName   *string
	quiet      *bool
	broker     *string
	httpAddr   *string
	heartbeat  *time.Duration
	printStat  *bool
}

func registerFlags(fs *flag.FlagSet, def config.Config) *options {
	return &options{
		configPath: fs.String("config", "", "Config file path (default "+config.DefaultPath+" if present)"),
		device:     fs.String("device", def.Device, "Block device stat file"),
		ledTarget:  fs.String("led", def.LED, "LED target: writable file path or gpio:<chip>:<offset>"),
		poll:       fs.Duration("poll", def.Poll, "Sampling interval"),
		hold:       fs.Duration("hold", def.Hold, "Minimum time the LED stays lit after activity"),
		readHold:   fs.Duration("read-hold", 0, "Hold override for read activity (0 to use -hold)"),
		writeHold:  fs.Duration("write-hold", 0, "Hold override for write activity (0 to use -hold)"),
		activeHigh: fs.Bool("active-high", def.ActiveHigh, "LED polarity: logical on writes 1"),
		filterName: fs.String("filter", string(def.Filter), "Activity filter: reads, writes or both"),
		modeName:   fs.String("mode", string(def.Mode), "Counter source: io or sectors"),
		quiet:      fs.Bool("quiet", def.Quiet, "Suppress the startup banner"),
		broker:     fs.String("broker", def.Broker, "MQTT broker address (empty to disable)"),
		httpAddr:   fs.String("http", def.HTTPAddr, "HTTP status address (empty to disable)"),
		heartbeat:  fs.Duration("heartbeat", def.Heartbeat, "Status heartbeat interval (0 to disable)"),
		printStat:  fs.Bool("print-stat", false, "Read the counters once, print them and exit"),
	}
}

// resolveConfig layers the built-in defaults, then the config file, then
// any flags explicitly set on the command line.
func resolveConfig(fs *flag.FlagSet, opts *options, defaultPath string) (config.Config, error) {
	cfg := config.Default()

	if *opts.configPath != "" {
		if err := config.Load(*opts.configPath, &cfg); err != nil {
			return cfg, err
		}
	} else if err := config.Load(defaultPath, &cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, err
	}

	var flagErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "device":
			cfg.Device = *opts.device
		case "led":
			cfg.LED = *opts.ledTarget
		case "poll":
			cfg.Poll = *opts.poll
		case "hold":
			cfg.Hold = *opts.hold
		case "read-hold":
			cfg.ReadHold = *opts.readHold
		case "write-hold":
			cfg.WriteHold = *opts.writeHold
		case "active-high":
			cfg.ActiveHigh = *opts.activeHigh
		case "quiet":
			cfg.Quiet = *opts.quiet
		case "broker":
			cfg.Broker = *opts.broker
		case "http":
			cfg.HTTPAddr = *opts.httpAddr
		case "heartbeat":
			cfg.Heartbeat = *opts.heartbeat
		case "filter":
			v, err := config.ParseFilter(*opts.filterName)
			if err != nil {
				flagErr = err
				return
			}
			cfg.Filter = v
		case "mode":
			v, err := config.ParseMode(*opts.modeName)
			if err != nil {
				flagErr = err
				return
			}
			cfg.Mode = v
		}
	})
	if flagErr != nil {
		return cfg, flagErr
	}

	cfg.Normalize()
	return cfg, nil
}

// printStat reads the counters once and prints them, for checking that a
// device path and mode line up before daemonizing.
func printStat(cfg config.Config) error {
	sampler := blockstat.NewSampler(cfg.Device, cfg.Mode)
	snap, ok, err := sampler.ReadCounters()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("stat file %s has too few fields for mode %s", cfg.Device, cfg.Mode)
	}
	fmt.Printf("reads=%d writes=%d (mode=%s)\n", snap.Reads, snap.Writes, cfg.Mode)
	return nil
}

func run(cfg config.Config) error {
	actuator, err := led.Open(cfg.LED, cfg.ActiveHigh)
	if err != nil {
		return fmt.Errorf("init led: %w", err)
	}
	defer actuator.Close()

	mux, err := eventloop.NewMux()
	if err != nil {
		return err
	}
	defer mux.Close()

	pollClock, err := eventloop.NewPeriodic(cfg.Poll)
	if err != nil {
		return fmt.Errorf("init poll clock: %w", err)
	}
	defer pollClock.Close()

	decayClock, err := eventloop.NewOneshot()
	if err != nil {
		return fmt.Errorf("init decay clock: %w", err)
	}
	defer decayClock.Close()

	if err := mux.Register(pollClock.Fd(), tagPoll); err != nil {
		return err
	}
	if err := mux.Register(decayClock.Fd(), tagDecay); err != nil {
		return err
	}

	var heartbeatClock *eventloop.Timer
	if cfg.Heartbeat > 0 {
		heartbeatClock, err = eventloop.NewPeriodic(cfg.Heartbeat)
		if err != nil {
			return fmt.Errorf("init heartbeat clock: %w", err)
		}
		defer heartbeatClock.Close()
		if err := mux.Register(heartbeatClock.Fd(), tagHeartbeat); err != nil {
			return err
		}
	}

	tracker := status.NewTracker(time.Now(), statusConfig(cfg))

	var publisher mqtt.Publisher
	var mqttState mqtt.ConnectionStatus
	if cfg.Broker != "" {
		real := mqtt.NewRealPublisher(cfg.Broker)
		publisher = real
		mqttState = real
		defer real.Close()

		snap := tracker.Snapshot()
		startup := mqtt.SystemEvent{
			Timestamp:  snap.Now,
			Event:      "STARTUP",
			Retained:   true,
			RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
		}
		if err := publisher.PublishSystem(startup); err != nil {
			log.Printf("failed to publish startup event: %v", err)
		}
	}

	if cfg.HTTPAddr != "" {
		srv := web.New(cfg.HTTPAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTPAddr)
	}

	if !cfg.Quiet {
		log.Printf("diskled: device=%s led=%s poll=%v hold=%v read_hold=%v write_hold=%v active_high=%v mode=%s filter=%s (pid=%d)",
			cfg.Device, cfg.LED, cfg.Poll, cfg.Hold, cfg.ReadHold, cfg.WriteHold,
			cfg.ActiveHigh, cfg.Mode, cfg.Filter, os.Getpid())
	}

	// Force a known dark state. The device may already be off, so the
	// error from this one write is ignored.
	_ = actuator.Set(false)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		shutdown(<-sigCh, publisher, mqttState, tracker)
	}()

	daemon.SdNotify(false, daemon.SdNotifyReady)

	l := &loop{
		cfg:       cfg,
		mux:       mux,
		poll:      pollClock,
		decay:     decayClock,
		heartbeat: heartbeatClock,
		sampler:   blockstat.NewSampler(cfg.Device, cfg.Mode),
		actuator:  actuator,
		engine:    logic.NewEngine(cfg.Policy()),
		publisher: publisher,
		mqttState: mqttState,
		tracker:   tracker,
	}
	return l.run()
}

// shutdown publishes a retained SHUTDOWN event and exits. The event loop
// itself has no shutdown path; termination is always by signal, and the
// kernel releases fds and clocks on exit.
func shutdown(sig os.Signal, publisher mqtt.Publisher, mqttState mqtt.ConnectionStatus, tracker *status.Tracker) {
	log.Printf("received %v, shutting down", sig)
	daemon.SdNotify(false, daemon.SdNotifyStopping)

	name := "UNKNOWN"
	if sig == syscall.SIGINT {
		name = "SIGINT"
	} else if sig == syscall.SIGTERM {
		name = "SIGTERM"
	}

	if publisher != nil {
		if mqttState != nil {
			tracker.SetMQTTConnected(mqttState.IsConnected())
		}
		snap := tracker.Snapshot()
		event := mqtt.SystemEvent{
			Timestamp:  snap.Now,
			Event:      "SHUTDOWN",
			Reason:     name,
			Retained:   true,
			RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", name),
		}
		if err := publisher.PublishSystem(event); err != nil {
			log.Printf("failed to publish shutdown event: %v", err)
		}
		publisher.Close()
	}
	os.Exit(0)
}

func statusConfig(cfg config.Config) status.Config {
	return status.Config{
		Device:      cfg.Device,
		LED:         cfg.LED,
		PollMs:      cfg.Poll.Milliseconds(),
		HoldMs:      cfg.Hold.Milliseconds(),
		ReadHoldMs:  cfg.ReadHold.Milliseconds(),
		WriteHoldMs: cfg.WriteHold.Milliseconds(),
		HeartbeatMs: cfg.Heartbeat.Milliseconds(),
		ActiveHigh:  cfg.ActiveHigh,
		Filter:      string(cfg.Filter),
		Mode:        string(cfg.Mode),
		Broker:      cfg.Broker,
		HTTPAddr:    cfg.HTTPAddr,
	}
}
