// Package config loads the tool configuration from the user's XDG config
// directory. Every field has a working default, so a missing file is normal
// and not an error.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// AppName names the per-application subdirectory under the XDG base
// directories.
const AppName = "pip-ext"

// ConfigFile is the configuration file name inside the app config directory.
const ConfigFile = "config.yml"

// Config holds the user-tunable settings.
type Config struct {
	// TimeoutSeconds bounds each page fetch.
	TimeoutSeconds int `yaml:"timeout_seconds"`
	// CacheTTLHours is how long fetched pages stay fresh in the cache.
	CacheTTLHours int `yaml:"cache_ttl_hours"`
	// PythonVersion is the version used when evaluating environment
	// markers, as "major.minor".
	PythonVersion string `yaml:"python_version"`
	// Python is the interpreter whose environment freeze commands inspect.
	Python string `yaml:"python"`
}

// Default returns the configuration used when no file overrides it.
func Default() *Config {
	return &Config{
		TimeoutSeconds: 30,
		CacheTTLHours:  24,
		PythonVersion:  "3.12",
		Python:         "python3",
	}
}

// Timeout returns the fetch timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// CacheTTL returns the cache freshness window as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLHours) * time.Hour
}

// Path returns the configuration file location, whether or not it exists.
func Path() string {
	return filepath.Join(xdg.ConfigHome, AppName, ConfigFile)
}

// CacheDir returns the directory page caches live in.
func CacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Load reads the configuration file and overlays it on the defaults.
// A missing file yields the defaults; a present but unreadable or malformed
// file is an error, since silently ignoring it would mask a typo the user
// made on purpose.
func Load() (*Config, error) {
	return load(Path())
}

func load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	// Zero or negative values from the file fall back rather than disabling
	// the mechanism.
	def := Default()
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = def.TimeoutSeconds
	}
	if cfg.CacheTTLHours <= 0 {
		cfg.CacheTTLHours = def.CacheTTLHours
	}
	if cfg.PythonVersion == "" {
		cfg.PythonVersion = def.PythonVersion
	}
	if cfg.Python == "" {
		cfg.Python = def.Python
	}
	return cfg, nil
}
