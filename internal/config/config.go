// Package config loads mnemo's TOML configuration.
//
// Precedence, lowest first: built-in defaults, the config file, MNEMO_*
// environment variables, then command-line flags (applied by the CLI).
// A missing config file is not an error.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-multierror"

	"github.com/roach88/mnemo/internal/logging"
)

// Environment variables that override file settings.
const (
	EnvDictionary = "MNEMO_DICTIONARY"
	EnvActivator  = "MNEMO_ACTIVATOR"
	EnvStore      = "MNEMO_STORE"
	EnvLogLevel   = "MNEMO_LOG_LEVEL"
	EnvLogFormat  = "MNEMO_LOG_FORMAT"
)

// Config is the full mnemo configuration.
type Config struct {
	Engine     EngineConfig     `toml:"engine"`
	Dictionary DictionaryConfig `toml:"dictionary"`
	Store      StoreConfig      `toml:"store"`
	Logging    LoggingConfig    `toml:"logging"`
}

// EngineConfig configures composition sessions.
type EngineConfig struct {
	// Activator is the single character that starts a composition.
	Activator string `toml:"activator"`
}

// DictionaryConfig locates the dictionary and controls hot reload.
type DictionaryConfig struct {
	Path       string `toml:"path"`
	Watch      bool   `toml:"watch"`
	DebounceMs int    `toml:"debounce_ms"`
}

// StoreConfig configures the trace store. An empty path disables recording.
type StoreConfig struct {
	Path string `toml:"path"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Engine:     EngineConfig{Activator: `\`},
		Dictionary: DictionaryConfig{DebounceMs: 100},
		Logging:    LoggingConfig{Level: "info", Format: "text"},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/mnemo/config.toml, or the platform
// equivalent.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "mnemo.toml"
	}
	return filepath.Join(dir, "mnemo", "config.toml")
}

// Load reads the config file at path over the defaults and applies the
// environment. An empty path means DefaultPath. A missing file yields the
// defaults. Unknown keys are an error, so typos do not go unnoticed.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	switch {
	case errors.Is(err, os.ErrNotExist):
		cfg = Default()
	case err != nil:
		return nil, fmt.Errorf("decode %s: %w", path, err)
	default:
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return nil, fmt.Errorf("decode %s: unknown keys: %s", path, strings.Join(keys, ", "))
		}
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return cfg, nil
}

// ApplyEnvOverrides overwrites settings from MNEMO_* variables that are set
// and non-empty.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv(EnvDictionary); v != "" {
		c.Dictionary.Path = v
	}
	if v := os.Getenv(EnvActivator); v != "" {
		c.Engine.Activator = v
	}
	if v := os.Getenv(EnvStore); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Logging.Format = v
	}
}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	var result *multierror.Error

	if n := utf8.RuneCountInString(c.Engine.Activator); n != 1 {
		result = multierror.Append(result,
			fmt.Errorf("engine.activator must be exactly one character, got %q", c.Engine.Activator))
	}
	if c.Dictionary.DebounceMs < 0 {
		result = multierror.Append(result,
			fmt.Errorf("dictionary.debounce_ms must be non-negative, got %d", c.Dictionary.DebounceMs))
	}
	if c.Dictionary.Watch && c.Dictionary.Path == "" {
		result = multierror.Append(result, errors.New("dictionary.watch requires dictionary.path"))
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		result = multierror.Append(result, fmt.Errorf("logging.level: %w", err))
	}
	if _, err := logging.ParseFormat(c.Logging.Format); err != nil {
		result = multierror.Append(result, fmt.Errorf("logging.format: %w", err))
	}

	return result.ErrorOrNil()
}

// ActivatorRune returns the activator character. Call after Validate.
func (c *Config) ActivatorRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Engine.Activator)
	return r
}

// Debounce returns the dictionary reload debounce interval.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Dictionary.DebounceMs) * time.Millisecond
}

// LoggerConfig returns the logger settings. Call after Validate.
func (c *Config) LoggerConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level, _ = logging.ParseLevel(c.Logging.Level)
	cfg.Format, _ = logging.ParseFormat(c.Logging.Format)
	return cfg
}
