// Package config loads and watches the engine configuration.
//
// Configuration is YAML, reloadable at runtime: a file watcher invokes
// a callback with the re-parsed config whenever the file changes.
// Everything has a sensible default; a missing file is not an error.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Configuration errors.
var (
	ErrInvalidMode         = errors.New("invalid target mode")
	ErrInvalidPollInterval = errors.New("invalid poll interval")
	ErrInvalidDimFloor     = errors.New("invalid minimum dim brightness")
)

// Target modes.
const (
	ModeBuiltin = "builtin"
	ModeActive  = "active"
)

// Config is the engine configuration.
type Config struct {
	// Mode selects the display a brightness command targets:
	// "builtin" or "active".
	Mode string `yaml:"mode"`

	// PollInterval is the reconciliation loop cadence.
	PollInterval time.Duration `yaml:"poll_interval"`

	// CompatEnabled turns on bridging of third-party brightness apps.
	CompatEnabled bool `yaml:"compat_enabled"`

	// CompatApps overrides the recognized third-party application set.
	// Empty keeps the built-in list.
	CompatApps []string `yaml:"compat_apps"`

	// CompatCacheTTL bounds process-list scan frequency.
	CompatCacheTTL time.Duration `yaml:"compat_cache_ttl"`

	// MinDimBrightness floors overlay dimming so a display can never be
	// dimmed fully black. Normalized [0, 1).
	MinDimBrightness float64 `yaml:"min_dim_brightness"`

	// TraceFile enables CBOR event tracing to the given path.
	TraceFile string `yaml:"trace_file"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		Mode:             ModeBuiltin,
		PollInterval:     500 * time.Millisecond,
		CompatCacheTTL:   10 * time.Second,
		MinDimBrightness: 0,
	}
}

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	if c.Mode != ModeBuiltin && c.Mode != ModeActive {
		return fmt.Errorf("%w: %q", ErrInvalidMode, c.Mode)
	}
	if c.PollInterval < 100*time.Millisecond {
		return fmt.Errorf("%w: %v below 100ms", ErrInvalidPollInterval, c.PollInterval)
	}
	if c.MinDimBrightness < 0 || c.MinDimBrightness >= 1 {
		return fmt.Errorf("%w: %v outside [0, 1)", ErrInvalidDimFloor, c.MinDimBrightness)
	}
	return nil
}

// Load reads a config file, filling unset fields with defaults. A
// missing file returns the defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeBuiltin
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = DefaultConfig().PollInterval
	}
	if cfg.CompatCacheTTL == 0 {
		cfg.CompatCacheTTL = DefaultConfig().CompatCacheTTL
	}

	if err := cfg.Validate(); err != nil {
		return DefaultConfig(), err
	}
	return cfg, nil
}
