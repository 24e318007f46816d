// Package config loads tool configuration from a TOML file, with
// sensible defaults when no file exists.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/h-mayorquin/nwb-lens/pkg/errors"
)

// appName namespaces config and cache directories.
const appName = "nwb-lens"

// Config holds all tool settings.
type Config struct {
	Inspector InspectorConfig `toml:"inspector"`
	Cache     CacheConfig     `toml:"cache"`
	UI        UIConfig        `toml:"ui"`
}

// InspectorConfig configures the external validator.
type InspectorConfig struct {
	// Command is the validator argv prefix. Defaults to ["nwbinspector"].
	Command []string `toml:"command"`

	// TimeoutSeconds bounds one validator run.
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// Timeout returns the configured timeout as a duration.
func (c InspectorConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	// Backend is one of "file", "redis", or "none".
	Backend string `toml:"backend"`

	// Dir overrides the file backend's directory. Empty uses the
	// XDG cache location.
	Dir string `toml:"dir"`

	Redis RedisConfig `toml:"redis"`
}

// RedisConfig configures the redis cache backend.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// UIConfig configures interactive display.
type UIConfig struct {
	// MaxStringLen truncates long scalar strings in the detail panel
	// and in exports. Zero uses the extraction default.
	MaxStringLen int `toml:"max_string_len"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Inspector: InspectorConfig{
			Command:        []string{"nwbinspector"},
			TimeoutSeconds: 300,
		},
		Cache: CacheConfig{
			Backend: "file",
			Redis:   RedisConfig{Addr: "localhost:6379"},
		},
	}
}

// Load reads configuration from path. An empty path looks for the
// default location; a missing file at the default location is not an
// error and yields defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
		if path == "" {
			return cfg, nil
		}
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return cfg, errors.Wrap(errors.ErrCodeInvalidInput, err, "load config %s", path)
	}
	if len(cfg.Inspector.Command) == 0 {
		cfg.Inspector.Command = []string{"nwbinspector"}
	}
	return cfg, nil
}

// DefaultPath returns the default config file location, or "" when no
// config directory can be determined.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, appName, "config.toml")
}

// CacheDir returns the cache directory, honoring XDG_CACHE_HOME.
func CacheDir() (string, error) {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName), nil
}
