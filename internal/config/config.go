// Package config provides configuration types and defaults for githydra.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config holds all configuration options for githydra.
type Config struct {
	RepoPath            string        `mapstructure:"repo_path"`
	AutoRefresh         bool          `mapstructure:"auto_refresh"`
	RefreshDebounce     time.Duration `mapstructure:"refresh_debounce"`
	IdleRefreshInterval time.Duration `mapstructure:"idle_refresh_interval"`
	NetworkTimeout      time.Duration `mapstructure:"network_timeout"`
	LogLimit            int           `mapstructure:"log_limit"`
	DiffCacheSize       int           `mapstructure:"diff_cache_size"`
	UI                  UIConfig      `mapstructure:"ui"`
	Theme               ThemeConfig   `mapstructure:"theme"`
}

// UIConfig holds user interface configuration options.
type UIConfig struct {
	ShowStatusBar bool `mapstructure:"show_status_bar"`
	ShowSpinner   bool `mapstructure:"show_spinner"`
}

// ThemeConfig holds theme customization options.
type ThemeConfig struct {
	// Mode forces light or dark mode. If empty, uses terminal detection.
	// Valid values: "light", "dark", ""
	Mode string `mapstructure:"mode"`
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		AutoRefresh:         true,
		RefreshDebounce:     250 * time.Millisecond,
		IdleRefreshInterval: 10 * time.Second,
		NetworkTimeout:      60 * time.Second,
		LogLimit:            200,
		DiffCacheSize:       128,
		UI: UIConfig{
			ShowStatusBar: true,
			ShowSpinner:   true,
		},
		Theme: ThemeConfig{
			Mode: "",
		},
	}
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	if c.RefreshDebounce < 0 {
		return fmt.Errorf("refresh_debounce must not be negative, got %s", c.RefreshDebounce)
	}
	if c.IdleRefreshInterval < 0 {
		return fmt.Errorf("idle_refresh_interval must not be negative, got %s", c.IdleRefreshInterval)
	}
	if c.NetworkTimeout <= 0 {
		return fmt.Errorf("network_timeout must be positive, got %s", c.NetworkTimeout)
	}
	if c.LogLimit <= 0 {
		return fmt.Errorf("log_limit must be positive, got %d", c.LogLimit)
	}
	if c.DiffCacheSize <= 0 {
		return fmt.Errorf("diff_cache_size must be positive, got %d", c.DiffCacheSize)
	}
	switch c.Theme.Mode {
	case "", "light", "dark":
	default:
		return fmt.Errorf("theme.mode must be \"light\", \"dark\" or empty, got %q", c.Theme.Mode)
	}
	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# githydra configuration

# Repository to open (default: current directory)
# repo_path: /path/to/repo

# Refresh behavior
auto_refresh: true          # Watch .git and refresh when it changes
refresh_debounce: 250ms     # Coalesce refresh bursts into one backend call
idle_refresh_interval: 10s  # Periodic refresh to catch external changes

# Network operations (push/pull) fail with a timeout error after this long
network_timeout: 60s

# Number of commits loaded into the log view
log_limit: 200

# Maximum number of rendered diffs kept in memory
diff_cache_size: 128

# UI settings
ui:
  show_status_bar: true  # Show branch / ahead-behind bar at the top
  show_spinner: true     # Show a spinner while an operation is running

# Theme configuration
theme:
  # Force light or dark colors; leave empty for terminal detection.
  # mode: dark
`
}

// WriteDefaultConfig creates a config file at the given path with default
// settings and comments. Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// DefaultConfigPath returns the standard location of the config file,
// honoring XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "githydra", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "githydra", "config.yaml")
}

// DefaultLogPath returns the standard location of the log file, honoring
// XDG_STATE_HOME.
func DefaultLogPath() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "githydra", "githydra.log")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "githydra.log")
	}
	return filepath.Join(home, ".local", "state", "githydra", "githydra.log")
}
