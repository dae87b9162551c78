// Package config loads tabctl configuration from an optional YAML file
// with environment overrides. Every field has a working default so the
// tool runs with no config at all.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultBrowsers is the fixed candidate label set probed by endpoint
// discovery. Order is the display order in CLI output.
var DefaultBrowsers = []string{"chrome", "chromium", "brave", "edge", "firefox"}

// DefaultRequestTimeout bounds both hops: client to bridge and bridge
// to browser.
const DefaultRequestTimeout = 10 * time.Second

// Config holds the settings shared by the CLI and the bridge.
type Config struct {
	// SocketDir is the directory holding bridge sockets. Empty means
	// the platform runtime dir ($XDG_RUNTIME_DIR, else /tmp).
	SocketDir string `yaml:"socket_dir"`

	// RequestTimeout bounds a single request on either hop.
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// Browsers is the candidate label set for discovery.
	Browsers []string `yaml:"browsers"`

	// LogLevel is the zerolog level name for the bridge.
	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		RequestTimeout: DefaultRequestTimeout,
		Browsers:       append([]string(nil), DefaultBrowsers...),
		LogLevel:       "info",
	}
}

// Path returns the config file location: $TABCTL_CONFIG if set, else
// ~/.config/tabctl/config.yaml.
func Path() string {
	if p := os.Getenv("TABCTL_CONFIG"); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "tabctl", "config.yaml")
}

// Load reads the config file at path, applying defaults for anything
// unset. A missing file is not an error. Environment variables
// TABCTL_SOCKET_DIR and TABCTL_LOG override the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = Path()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// No file, defaults apply.
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if dir := os.Getenv("TABCTL_SOCKET_DIR"); dir != "" {
		cfg.SocketDir = dir
	}
	if lvl := os.Getenv("TABCTL_LOG"); lvl != "" {
		cfg.LogLevel = lvl
	}

	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if len(cfg.Browsers) == 0 {
		cfg.Browsers = append([]string(nil), DefaultBrowsers...)
	}
	return cfg, nil
}
