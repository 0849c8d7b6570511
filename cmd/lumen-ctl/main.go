// Command lumen-ctl is an interactive console around the brightness
// engine, the stand-in for the surrounding application. It wires the
// service façade to real hardware (or to simulated hardware with
// -simulate), listens for display hotplug and wake events, and exposes
// the engine operations as console commands.
//
// Usage:
//
//	lumen-ctl [flags]
//
// Flags:
//
//	-config <file>  YAML configuration (default ~/.config/lumen/lumen.yaml)
//	-simulate       drive simulated hardware instead of real buses
//	-trace <file>   write a CBOR event trace
//	-verbose        mirror engine events to stderr
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gioui.org/app"

	"github.com/lumen-hal/lumen-go/internal/testharness/fake"
	"github.com/lumen-hal/lumen-go/pkg/backlight"
	"github.com/lumen-hal/lumen-go/pkg/compat"
	"github.com/lumen-hal/lumen-go/pkg/config"
	"github.com/lumen-hal/lumen-go/pkg/display"
	"github.com/lumen-hal/lumen-go/pkg/log"
	"github.com/lumen-hal/lumen-go/pkg/overlay"
	"github.com/lumen-hal/lumen-go/pkg/registry"
	"github.com/lumen-hal/lumen-go/pkg/service"
	"github.com/lumen-hal/lumen-go/pkg/transport"
)

func main() {
	configPath := flag.String("config", defaultConfigPath(), "configuration file")
	simulate := flag.Bool("simulate", false, "drive simulated hardware")
	traceFile := flag.String("trace", "", "write CBOR event trace to file")
	verbose := flag.Bool("verbose", false, "mirror engine events to stderr")
	flag.Parse()

	// Gio owns the main thread for the overlay windows; the console runs
	// beside it and ends the process when it is done.
	go func() {
		if err := run(*configPath, *simulate, *traceFile, *verbose); err != nil {
			fmt.Fprintf(os.Stderr, "lumen-ctl: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}()
	app.Main()
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "lumen.yaml"
	}
	return filepath.Join(home, ".config", "lumen", "lumen.yaml")
}

func run(configPath string, simulate bool, traceFile string, verbose bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, cleanup, err := buildLogger(cfg, traceFile, verbose)
	if err != nil {
		return err
	}
	defer cleanup()

	svc, resolver, teardown, err := buildService(cfg, simulate, logger)
	if err != nil {
		return err
	}
	defer teardown()

	svc.Start()
	defer svc.Close()

	// Config edits apply without restart.
	watcher, err := config.Watch(configPath, func(updated config.Config) {
		applyMode(resolver, updated.Mode)
	}, nil)
	if err == nil {
		defer watcher.Close()
	}

	return console(svc, resolver, simulate)
}

func buildLogger(cfg config.Config, traceFile string, verbose bool) (log.Logger, func(), error) {
	var loggers []log.Logger
	var closers []func()

	if traceFile == "" {
		traceFile = cfg.TraceFile
	}
	if traceFile != "" {
		fl, err := log.NewFileLogger(traceFile)
		if err != nil {
			return nil, nil, err
		}
		loggers = append(loggers, fl)
		closers = append(closers, func() { fl.Close() })
	}
	if verbose {
		loggers = append(loggers, log.NewSlogAdapter(slog.New(slog.NewTextHandler(os.Stderr, nil))))
	}

	cleanup := func() {
		for _, fn := range closers {
			fn()
		}
	}
	switch len(loggers) {
	case 0:
		return log.NoopLogger{}, cleanup, nil
	case 1:
		return loggers[0], cleanup, nil
	default:
		return log.NewMultiLogger(loggers...), cleanup, nil
	}
}

// buildService assembles the engine against real or simulated hardware.
func buildService(cfg config.Config, simulate bool, logger log.Logger) (*service.BrightnessService, *display.Resolver, func(), error) {
	svcCfg := service.Config{
		PollInterval:     cfg.PollInterval,
		CompatEnabled:    cfg.CompatEnabled,
		MinDimBrightness: cfg.MinDimBrightness,
	}

	var mode display.Mode
	if cfg.Mode == config.ModeActive {
		mode = display.ModeActive
	}

	if simulate {
		svc, resolver := buildSimulated(svcCfg, mode, logger)
		return svc, resolver, func() {}, nil
	}

	enum := display.NewSysfsEnumerator()
	resolver := display.NewResolver(enum, display.ResolverConfig{Mode: mode})

	var builtin service.BuiltinPanel
	if dev, err := backlight.Discover(); err == nil {
		builtin = dev
	}

	var apps []string
	if len(cfg.CompatApps) > 0 {
		apps = cfg.CompatApps
	}

	svc := service.New(svcCfg, service.Deps{
		Resolver: resolver,
		Registry: registry.NewRegistry(registry.DefaultFactories(logger), logger),
		Overlay:  overlay.NewManager(overlay.NewGioCompositor(), logger),
		Builtin:  builtin,
		Displays: enum,
		Detector: compat.NewDetector(apps, cfg.CompatCacheTTL),
		Logger:   logger,
	})

	var teardowns []func()
	if notifier, err := display.NewNotifier(); err == nil {
		notifier.OnChange(svc.HandleDisplaysChanged)
		teardowns = append(teardowns, func() { notifier.Close() })
	}
	if wake, err := display.NewWakeMonitor(); err == nil {
		wake.OnWake(svc.HandleWake)
		teardowns = append(teardowns, func() { wake.Close() })
	}

	teardown := func() {
		for _, fn := range teardowns {
			fn()
		}
	}
	return svc, resolver, teardown, nil
}

// buildSimulated wires the engine to fake hardware: a built-in panel at
// 50% and one external display behind a scripted DDC bus.
func buildSimulated(svcCfg service.Config, mode display.Mode, logger log.Logger) (*service.BrightnessService, *display.Resolver) {
	builtin := display.Info{
		ID:        display.MakeID("card0-eDP-1"),
		Connector: "card0-eDP-1",
		IsBuiltIn: true,
		Frame:     display.Rect{W: 1920, H: 1080},
	}
	external := display.Info{
		ID:        display.MakeID("card0-DP-1"),
		Connector: "card0-DP-1",
		Frame:     display.Rect{W: 2560, H: 1440},
	}

	enum := fake.NewEnumerator(builtin, external)
	resolver := display.NewResolver(enum, display.ResolverConfig{Mode: mode})

	bus := fake.NewBus(100, 40)
	factories := []registry.Factory{
		func(info display.Info) transport.Transport {
			return transport.NewI2CTransport(info, simOpener{bus}, logger)
		},
	}

	svc := service.New(svcCfg, service.Deps{
		Resolver: resolver,
		Registry: registry.NewRegistry(factories, logger),
		Overlay:  overlay.NewManager(fake.NewCompositor(), logger),
		Builtin:  fake.NewBuiltin(0.5),
		Displays: enum,
		Logger:   logger,
	})
	return svc, resolver
}

// simOpener hands every connector the same fake bus.
type simOpener struct{ bus transport.Bus }

func (o simOpener) OpenBus(string) (transport.Bus, error) { return o.bus, nil }

func applyMode(resolver *display.Resolver, mode string) {
	if mode == config.ModeActive {
		resolver.SetMode(display.ModeActive)
	} else {
		resolver.SetMode(display.ModeBuiltin)
	}
}
