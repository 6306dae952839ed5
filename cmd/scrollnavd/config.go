package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config is the top-level YAML configuration for the scrollnavd daemon.
//
// Sources are layered: DefaultConfig, then the config file, then SCROLLNAVD_*
// environment variables, then flags. Validate runs once on the result.
type Config struct {
	HTTP         HTTPConfig             `yaml:"http"`
	IPC          IPCConfig              `yaml:"ipc"`
	Input        InputConfig            `yaml:"input"`
	Settings     SettingsFileConfig     `yaml:"settings"`
	Navigation   NavigationFileConfig   `yaml:"navigation"`
	Choreography ChoreographyFileConfig `yaml:"choreography"`
	Logging      LoggingConfig          `yaml:"logging"`
}

type HTTPConfig struct {
	Listen         string   `yaml:"listen"`
	NavPath        string   `yaml:"nav_path"`
	AllowedOrigins []string `yaml:"allowed_origins,omitempty"`
}

type IPCConfig struct {
	SocketPath string `yaml:"socket_path"` // empty disables IPC
}

// InputConfig lists kiosk evdev devices. No devices means page input only.
type InputConfig struct {
	Devices          []string `yaml:"devices,omitempty"`
	WheelPxPerDetent float64  `yaml:"wheel_px_per_detent"`
}

type SettingsFileConfig struct {
	Path  string `yaml:"path"` // empty keeps settings in memory only
	Watch bool   `yaml:"watch"`
}

// NavigationFileConfig is the reducer tuning as represented in YAML.
type NavigationFileConfig struct {
	WheelThreshold     float64 `yaml:"wheel_threshold"`
	TouchThreshold     float64 `yaml:"touch_threshold"`
	SyncDebounceMS     int     `yaml:"sync_debounce_ms"`
	CooldownMS         int     `yaml:"cooldown_ms"`
	ViewportMargin     float64 `yaml:"viewport_margin"`
	RealScrollMinDelta float64 `yaml:"real_scroll_min_delta"`
	UpdateHz           int     `yaml:"update_hz"`
}

// ChoreographyFileConfig mirrors the page's CSS timing variables, in ms.
type ChoreographyFileConfig struct {
	ScrollMS           int `yaml:"scroll_ms"`
	TransitionBaseMS   int `yaml:"transition_base_ms"`
	PageIntroMS        int `yaml:"page_intro_ms"`
	SplitFadeoutMS     int `yaml:"split_fadeout_ms"`
	SplitParticleMS    int `yaml:"split_particle_ms"`
	SplitDividerMS     int `yaml:"split_divider_ms"`
	SplitSidebarMS     int `yaml:"split_sidebar_ms"`
	SplitTotalMS       int `yaml:"split_total_ms"`
	SplitCollapseMS    int `yaml:"split_collapse_ms"`
	IntroRevealDelayMS int `yaml:"intro_reveal_delay_ms"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns a fully-populated Config with defaults.
// Keep this aligned with constants.go.
func DefaultConfig() Config {
	return Config{
		HTTP: HTTPConfig{
			Listen:  "127.0.0.1:8787",
			NavPath: "/nav",
		},
		IPC: IPCConfig{
			SocketPath: "/tmp/scrollnavd.sock",
		},
		Input: InputConfig{
			WheelPxPerDetent: defaultWheelPxPerDetent,
		},
		Settings: SettingsFileConfig{
			Path:  "~/.config/scrollnavd/settings.yaml",
			Watch: true,
		},
		Navigation: NavigationFileConfig{
			WheelThreshold:     defaultWheelThreshold,
			TouchThreshold:     defaultTouchThreshold,
			SyncDebounceMS:     int(defaultSyncDebounce / time.Millisecond),
			CooldownMS:         int(defaultCooldown / time.Millisecond),
			ViewportMargin:     defaultViewportMargin,
			RealScrollMinDelta: defaultRealScrollMinDelta,
			UpdateHz:           defaultUpdateHz,
		},
		Choreography: ChoreographyFileConfig{
			ScrollMS:           defaultScrollDurationMS,
			TransitionBaseMS:   defaultTransitionBaseMS,
			PageIntroMS:        defaultPageIntroMS,
			SplitFadeoutMS:     defaultSplitFadeoutMS,
			SplitParticleMS:    defaultSplitParticleMS,
			SplitDividerMS:     defaultSplitDividerMS,
			SplitSidebarMS:     defaultSplitSidebarMS,
			SplitTotalMS:       defaultSplitTotalMS,
			SplitCollapseMS:    defaultSplitCollapseMS,
			IntroRevealDelayMS: defaultIntroRevealDelayMS,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfigFile reads and parses a YAML config file on top of DefaultConfig.
//
// Unknown fields are rejected (helps catch typos) via KnownFields(true).
func LoadConfigFile(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path is empty")
	}
	b, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	return parseConfig(b)
}

func parseConfig(b []byte) (Config, error) {
	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config yaml: %w", err)
	}

	// Ensure there's no trailing garbage (only whitespace/comments are allowed after the document).
	if err := dec.Decode(&struct{}{}); err == nil {
		return Config{}, fmt.Errorf("decode config yaml: unexpected trailing document")
	}

	return cfg, nil
}

// Overrides are ad-hoc values layered over the config file. A nil field is
// ignored; a non-nil field is applied even if it holds the zero value.
//
// The same struct is filled from SCROLLNAVD_* environment variables
// (ParseEnvOverrides) and from command-line flags (main.go).
type Overrides struct {
	HTTPListen  *string `env:"SCROLLNAVD_HTTP_LISTEN"`
	HTTPNavPath *string `env:"SCROLLNAVD_HTTP_NAV_PATH"`

	IPCSocketPath *string `env:"SCROLLNAVD_IPC_SOCKET"`

	InputDevices     []string `env:"SCROLLNAVD_INPUT_DEVICES" envSeparator:","`
	WheelPxPerDetent *float64 `env:"SCROLLNAVD_WHEEL_PX_PER_DETENT"`

	SettingsPath  *string `env:"SCROLLNAVD_SETTINGS_PATH"`
	SettingsWatch *bool   `env:"SCROLLNAVD_SETTINGS_WATCH"`

	WheelThreshold *float64 `env:"SCROLLNAVD_WHEEL_THRESHOLD"`
	TouchThreshold *float64 `env:"SCROLLNAVD_TOUCH_THRESHOLD"`
	CooldownMS     *int     `env:"SCROLLNAVD_COOLDOWN_MS"`
	UpdateHz       *int     `env:"SCROLLNAVD_UPDATE_HZ"`

	LogLevel  *string `env:"SCROLLNAVD_LOG_LEVEL"`
	LogFormat *string `env:"SCROLLNAVD_LOG_FORMAT"`
}

// ParseEnvOverrides reads SCROLLNAVD_* variables from the process environment.
func ParseEnvOverrides() (Overrides, error) {
	return parseEnvOverrides(env.Options{})
}

func parseEnvOverrides(opts env.Options) (Overrides, error) {
	var o Overrides
	if err := env.ParseWithOptions(&o, opts); err != nil {
		return Overrides{}, fmt.Errorf("parse env: %w", err)
	}
	return o, nil
}

// Apply merges the overrides into cfg.
func (o Overrides) Apply(cfg *Config) {
	if cfg == nil {
		return
	}

	if o.HTTPListen != nil {
		cfg.HTTP.Listen = *o.HTTPListen
	}
	if o.HTTPNavPath != nil {
		cfg.HTTP.NavPath = *o.HTTPNavPath
	}

	if o.IPCSocketPath != nil {
		cfg.IPC.SocketPath = *o.IPCSocketPath
	}

	if o.InputDevices != nil {
		cfg.Input.Devices = append([]string(nil), o.InputDevices...)
	}
	if o.WheelPxPerDetent != nil {
		cfg.Input.WheelPxPerDetent = *o.WheelPxPerDetent
	}

	if o.SettingsPath != nil {
		cfg.Settings.Path = *o.SettingsPath
	}
	if o.SettingsWatch != nil {
		cfg.Settings.Watch = *o.SettingsWatch
	}

	if o.WheelThreshold != nil {
		cfg.Navigation.WheelThreshold = *o.WheelThreshold
	}
	if o.TouchThreshold != nil {
		cfg.Navigation.TouchThreshold = *o.TouchThreshold
	}
	if o.CooldownMS != nil {
		cfg.Navigation.CooldownMS = *o.CooldownMS
	}
	if o.UpdateHz != nil {
		cfg.Navigation.UpdateHz = *o.UpdateHz
	}

	if o.LogLevel != nil {
		cfg.Logging.Level = *o.LogLevel
	}
	if o.LogFormat != nil {
		cfg.Logging.Format = *o.LogFormat
	}
}

// Validate checks config invariants and returns a user-friendly error.
// This is intended to be called after defaults + file + overrides are applied.
func (c *Config) Validate() error {
	// HTTP
	if c.HTTP.Listen == "" {
		return errors.New("http.listen must not be empty")
	}
	if !strings.HasPrefix(c.HTTP.NavPath, "/") {
		return fmt.Errorf("http.nav_path must start with '/', got %q", c.HTTP.NavPath)
	}

	// Input
	for i, dev := range c.Input.Devices {
		if dev == "" {
			return fmt.Errorf("input.devices[%d] is empty", i)
		}
	}
	if c.Input.WheelPxPerDetent <= 0 {
		return errors.New("input.wheel_px_per_detent must be > 0")
	}

	// Settings
	if c.Settings.Watch && c.Settings.Path == "" {
		return errors.New("settings.watch is true but settings.path is empty")
	}

	// Navigation
	n := c.Navigation
	if n.WheelThreshold <= 0 {
		return errors.New("navigation.wheel_threshold must be > 0")
	}
	if n.TouchThreshold <= 0 {
		return errors.New("navigation.touch_threshold must be > 0")
	}
	if n.SyncDebounceMS < 0 {
		return errors.New("navigation.sync_debounce_ms must be >= 0")
	}
	if n.CooldownMS <= 0 {
		return errors.New("navigation.cooldown_ms must be > 0")
	}
	if n.ViewportMargin < 0 {
		return errors.New("navigation.viewport_margin must be >= 0")
	}
	if n.RealScrollMinDelta < 0 {
		return errors.New("navigation.real_scroll_min_delta must be >= 0")
	}
	if n.UpdateHz <= 0 || n.UpdateHz > 1000 {
		return errors.New("navigation.update_hz must be between 1 and 1000")
	}

	// Choreography
	ch := c.Choreography
	for _, f := range []struct {
		name string
		v    int
	}{
		{"scroll_ms", ch.ScrollMS},
		{"transition_base_ms", ch.TransitionBaseMS},
		{"page_intro_ms", ch.PageIntroMS},
		{"split_fadeout_ms", ch.SplitFadeoutMS},
		{"split_particle_ms", ch.SplitParticleMS},
		{"split_divider_ms", ch.SplitDividerMS},
		{"split_sidebar_ms", ch.SplitSidebarMS},
		{"split_total_ms", ch.SplitTotalMS},
		{"split_collapse_ms", ch.SplitCollapseMS},
		{"intro_reveal_delay_ms", ch.IntroRevealDelayMS},
	} {
		if f.v < 0 {
			return fmt.Errorf("choreography.%s must be >= 0", f.name)
		}
	}
	if ch.SplitParticleMS > ch.SplitTotalMS || ch.SplitDividerMS > ch.SplitTotalMS || ch.SplitSidebarMS > ch.SplitTotalMS {
		return errors.New("choreography: split particle/divider/sidebar offsets must not exceed split_total_ms")
	}

	// Logging
	if _, err := parseLogLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	if _, err := parseLogFormat(c.Logging.Format); err != nil {
		return fmt.Errorf("logging.format: %w", err)
	}

	return nil
}

// ToNavConfig converts file config into the reducer's tuning.
func (c *Config) ToNavConfig() NavConfig {
	ms := func(n int) time.Duration { return time.Duration(n) * time.Millisecond }
	n := c.Navigation
	ch := c.Choreography

	return NavConfig{
		WheelThreshold: n.WheelThreshold,
		TouchThreshold: n.TouchThreshold,
		SyncDebounce:   ms(n.SyncDebounceMS),
		ContentGate: ContentGateConfig{
			Cooldown:           ms(n.CooldownMS),
			ViewportMargin:     n.ViewportMargin,
			RealScrollMinDelta: n.RealScrollMinDelta,
		},
		Choreography: ChoreographyConfig{
			ScrollDuration:   ms(ch.ScrollMS),
			TransitionBase:   ms(ch.TransitionBaseMS),
			PageIntro:        ms(ch.PageIntroMS),
			SplitFadeout:     ms(ch.SplitFadeoutMS),
			SplitParticle:    ms(ch.SplitParticleMS),
			SplitDivider:     ms(ch.SplitDividerMS),
			SplitSidebar:     ms(ch.SplitSidebarMS),
			SplitTotal:       ms(ch.SplitTotalMS),
			SplitCollapse:    ms(ch.SplitCollapseMS),
			IntroRevealDelay: ms(ch.IntroRevealDelayMS),
		},
	}
}

// ExpandPath expands a leading "~" in a path using $HOME.
func ExpandPath(p string) string {
	if p == "" || p[0] != '~' {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	if p == "~" {
		return home
	}
	if len(p) >= 2 && (p[1] == '/' || p[1] == '\\') {
		return filepath.Join(home, p[2:])
	}
	return p
}
