package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"
)

const version = "0.4.0"

func printVersion() {
	fmt.Printf("scrollnavd v%s\n", version)
	fmt.Println("Scroll-driven view navigation daemon for the portfolio page")
}

func printUsage() {
	printVersion()
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  scrollnavd [OPTIONS]")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  Owns the page's view state machine. The page streams wheel, touch, scroll")
	fmt.Println("  and layout reports over a WebSocket; the daemon decides when to move between")
	fmt.Println("  Intro, Main, About, Reality and Testament and sends back the choreography")
	fmt.Println("  (scroll targets, class toggles, effect start/stop) with its timing.")
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -config string")
	fmt.Println("        YAML config file (optional; defaults are used when omitted)")
	fmt.Println()
	fmt.Println("  -http-listen string")
	fmt.Println("        HTTP listen address for /nav, /healthz and /state (default \"127.0.0.1:8787\")")
	fmt.Println()
	fmt.Println("  -nav-path string")
	fmt.Println("        WebSocket path the page connects to (default \"/nav\")")
	fmt.Println()
	fmt.Println("  -ipc-socket string")
	fmt.Println("        Unix domain socket path for IPC; empty disables it (default \"/tmp/scrollnavd.sock\")")
	fmt.Println()
	fmt.Println("  -input-devices string")
	fmt.Println("        Comma-separated evdev devices for kiosk wheel/keyboard input (default none)")
	fmt.Println()
	fmt.Println("  -settings-file string")
	fmt.Println("        YAML file persisting prevent_intro_return (default \"~/.config/scrollnavd/settings.yaml\")")
	fmt.Println()
	fmt.Println("  -settings-watch")
	fmt.Println("        Reload the settings file when it changes on disk (default true)")
	fmt.Println()
	fmt.Println("  -wheel-threshold float")
	fmt.Printf("        Accumulated wheel deltaY (px) that triggers a transition (default %.0f)\n", defaultWheelThreshold)
	fmt.Println()
	fmt.Println("  -touch-threshold float")
	fmt.Printf("        Accumulated touch travel (px) that triggers a transition (default %.0f)\n", defaultTouchThreshold)
	fmt.Println()
	fmt.Println("  -cooldown-ms int")
	fmt.Printf("        Content lock cooldown in ms (default %d)\n", defaultCooldown.Milliseconds())
	fmt.Println()
	fmt.Println("  -update-hz int")
	fmt.Printf("        Daemon tick frequency driving debounced scroll sync (default %d)\n", defaultUpdateHz)
	fmt.Println()
	fmt.Println("  -log-level string")
	fmt.Println("        Log level: error, warn, info, debug (default \"info\")")
	fmt.Println()
	fmt.Println("  -log-format string")
	fmt.Println("        Log format: text, json (default \"text\")")
	fmt.Println()
	fmt.Println("  -version")
	fmt.Println("        Print version and exit")
	fmt.Println()
	fmt.Println("  -help")
	fmt.Println("        Print this help message")
	fmt.Println()
	fmt.Println("ENVIRONMENT:")
	fmt.Println("  SCROLLNAVD_HTTP_LISTEN, SCROLLNAVD_HTTP_NAV_PATH, SCROLLNAVD_IPC_SOCKET,")
	fmt.Println("  SCROLLNAVD_INPUT_DEVICES, SCROLLNAVD_WHEEL_PX_PER_DETENT, SCROLLNAVD_SETTINGS_PATH,")
	fmt.Println("  SCROLLNAVD_SETTINGS_WATCH, SCROLLNAVD_WHEEL_THRESHOLD, SCROLLNAVD_TOUCH_THRESHOLD,")
	fmt.Println("  SCROLLNAVD_COOLDOWN_MS, SCROLLNAVD_UPDATE_HZ, SCROLLNAVD_LOG_LEVEL, SCROLLNAVD_LOG_FORMAT")
	fmt.Println("        Override the config file; flags override the environment.")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  # Start with defaults")
	fmt.Println("  scrollnavd")
	fmt.Println()
	fmt.Println("  # Kiosk mode with a USB mouse and keyboard")
	fmt.Println("  scrollnavd -input-devices /dev/input/event3,/dev/input/event4")
	fmt.Println()
	fmt.Println("  # Serve on all interfaces with a config file")
	fmt.Println("  scrollnavd -config /etc/scrollnavd.yaml -http-listen :8787")
	fmt.Println()
	fmt.Println("NOTES:")
	fmt.Println("  - evdev input requires read access to the devices (root or the 'input' group)")
	fmt.Println("  - navctl talks to the IPC socket; navwatch prints the /nav stream")
	fmt.Println()
}

func main() {
	// Check for version/help flags early
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" {
			printVersion()
			return
		}
		if arg == "-help" || arg == "--help" || arg == "-h" {
			printUsage()
			return
		}
	}

	var (
		configPath     = flag.String("config", "", "YAML config file")
		httpListen     = flag.String("http-listen", "", "HTTP listen address")
		navPath        = flag.String("nav-path", "", "WebSocket path")
		ipcSocket      = flag.String("ipc-socket", "", "Unix domain socket path for IPC (empty disables)")
		inputDevices   = flag.String("input-devices", "", "Comma-separated evdev devices")
		settingsFile   = flag.String("settings-file", "", "Settings YAML file")
		settingsWatch  = flag.Bool("settings-watch", true, "Reload settings file on change")
		wheelThreshold = flag.Float64("wheel-threshold", defaultWheelThreshold, "Wheel threshold (px)")
		touchThreshold = flag.Float64("touch-threshold", defaultTouchThreshold, "Touch threshold (px)")
		cooldownMS     = flag.Int("cooldown-ms", int(defaultCooldown.Milliseconds()), "Content lock cooldown (ms)")
		updateHz       = flag.Int("update-hz", defaultUpdateHz, "Daemon tick frequency (Hz)")
		logLevelStr    = flag.String("log-level", "info", "Log level: error, warn, info, debug")
		logFormatStr   = flag.String("log-format", "text", "Log format: text, json")
	)

	flag.Usage = printUsage
	flag.Parse()

	// Only flags the user actually passed override the file and environment.
	var flagOv Overrides
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "http-listen":
			flagOv.HTTPListen = httpListen
		case "nav-path":
			flagOv.HTTPNavPath = navPath
		case "ipc-socket":
			flagOv.IPCSocketPath = ipcSocket
		case "input-devices":
			flagOv.InputDevices = splitList(*inputDevices)
		case "settings-file":
			flagOv.SettingsPath = settingsFile
		case "settings-watch":
			flagOv.SettingsWatch = settingsWatch
		case "wheel-threshold":
			flagOv.WheelThreshold = wheelThreshold
		case "touch-threshold":
			flagOv.TouchThreshold = touchThreshold
		case "cooldown-ms":
			flagOv.CooldownMS = cooldownMS
		case "update-hz":
			flagOv.UpdateHz = updateHz
		case "log-level":
			flagOv.LogLevel = logLevelStr
		case "log-format":
			flagOv.LogFormat = logFormatStr
		}
	})

	cfg, err := loadConfig(*configPath, flagOv)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig layers defaults, the optional file, the environment and flags.
func loadConfig(path string, flagOv Overrides) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = LoadConfigFile(path); err != nil {
			return Config{}, err
		}
	}

	envOv, err := ParseEnvOverrides()
	if err != nil {
		return Config{}, err
	}
	envOv.Apply(&cfg)
	flagOv.Apply(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func run(cfg Config) error {
	level, _ := parseLogLevel(cfg.Logging.Level)
	format, _ := parseLogFormat(cfg.Logging.Format)
	logger := setupLogger(level, format, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	navCfg := cfg.ToNavConfig()
	state := NewNavState(navCfg)

	var settings *SettingsStore
	if cfg.Settings.Path != "" {
		settings = NewSettingsStore(cfg.Settings.Path)
		st, err := settings.Load()
		if err != nil {
			return err
		}
		state.Settings = st
	}

	// state belongs to the daemon goroutine once it starts; log from this copy.
	initial := state.Snapshot()

	// Central event bus: page input, IPC, kiosk input, sequencer completions.
	events := make(chan Event, 256)
	broadcasts := make(chan Broadcast, 512)

	g, gctx := errgroup.WithContext(ctx)

	seq := NewSequencer(realClock{},
		func(b Broadcast) { publishBroadcast(broadcasts, b, logger) },
		func(sc SequenceCompleted) {
			// Completions must not be dropped: they release the transition mutex.
			select {
			case events <- sc:
			case <-gctx.Done():
			}
		},
		logger)

	nav := NewServer(logger, events, ServerConfig{AllowedOrigins: cfg.HTTP.AllowedOrigins})
	mux := newHTTPMux(nav, cfg.HTTP.NavPath, events, logger)

	g.Go(func() error {
		runDaemon(gctx, events, state, navCfg, effectDeps{sequencer: seq, settings: settings}, broadcasts, cfg.Navigation.UpdateHz, logger)
		return nil
	})
	g.Go(func() error {
		nav.Hub().Run(gctx)
		return nil
	})
	g.Go(func() error {
		RunBroadcaster(gctx, nav.Hub(), broadcasts, logger)
		return nil
	})
	g.Go(func() error {
		return runHTTPServer(gctx, cfg.HTTP.Listen, mux, logger)
	})
	if cfg.IPC.SocketPath != "" {
		g.Go(func() error {
			return runIPCServer(gctx, cfg.IPC.SocketPath, events, logger)
		})
	}
	if len(cfg.Input.Devices) > 0 {
		g.Go(func() error {
			return runInputReader(gctx, cfg.Input.Devices, cfg.Input.WheelPxPerDetent, events, logger)
		})
	}
	if settings != nil && cfg.Settings.Watch {
		g.Go(func() error {
			return settings.Watch(gctx, events, logger)
		})
	}

	logger.Info("listening",
		"http", cfg.HTTP.Listen,
		"nav_path", cfg.HTTP.NavPath,
		"ipc", cfg.IPC.SocketPath,
		"input_devices", cfg.Input.Devices,
		"settings", cfg.Settings.Path,
		"prevent_intro_return", initial.PreventIntroReturn,
		"update_hz", cfg.Navigation.UpdateHz)
	logger.Debug("navigation tuning",
		"wheel_threshold", navCfg.WheelThreshold,
		"touch_threshold", navCfg.TouchThreshold,
		"sync_debounce", navCfg.SyncDebounce,
		"cooldown", navCfg.ContentGate.Cooldown,
		"scroll_duration", navCfg.Choreography.ScrollDuration)

	err := g.Wait()
	seq.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("shutting down after error", "error", err)
		return err
	}
	logger.Info("shut down")
	return nil
}

func splitList(s string) []string {
	out := []string{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
