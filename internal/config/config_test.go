package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	assert.True(t, cfg.AutoRefresh)
	assert.Equal(t, 250*time.Millisecond, cfg.RefreshDebounce)
	assert.Equal(t, 10*time.Second, cfg.IdleRefreshInterval)
	assert.Equal(t, 60*time.Second, cfg.NetworkTimeout)
	assert.Equal(t, 200, cfg.LogLimit)
	assert.Equal(t, 128, cfg.DiffCacheSize)
	assert.True(t, cfg.UI.ShowStatusBar)
	assert.True(t, cfg.UI.ShowSpinner)
	assert.Empty(t, cfg.Theme.Mode)

	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "negative debounce",
			mutate:  func(c *Config) { c.RefreshDebounce = -time.Second },
			wantErr: "refresh_debounce",
		},
		{
			name:    "negative idle interval",
			mutate:  func(c *Config) { c.IdleRefreshInterval = -time.Second },
			wantErr: "idle_refresh_interval",
		},
		{
			name:    "zero network timeout",
			mutate:  func(c *Config) { c.NetworkTimeout = 0 },
			wantErr: "network_timeout",
		},
		{
			name:    "zero log limit",
			mutate:  func(c *Config) { c.LogLimit = 0 },
			wantErr: "log_limit",
		},
		{
			name:    "zero cache size",
			mutate:  func(c *Config) { c.DiffCacheSize = 0 },
			wantErr: "diff_cache_size",
		},
		{
			name:    "bad theme mode",
			mutate:  func(c *Config) { c.Theme.Mode = "solarized" },
			wantErr: "theme.mode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

// TestDefaultConfigTemplate_MatchesDefaults parses the commented template
// with yaml and verifies the uncommented values round-trip to Defaults().
func TestDefaultConfigTemplate_MatchesDefaults(t *testing.T) {
	var raw struct {
		AutoRefresh         bool   `yaml:"auto_refresh"`
		RefreshDebounce     string `yaml:"refresh_debounce"`
		IdleRefreshInterval string `yaml:"idle_refresh_interval"`
		NetworkTimeout      string `yaml:"network_timeout"`
		LogLimit            int    `yaml:"log_limit"`
		DiffCacheSize       int    `yaml:"diff_cache_size"`
		UI                  struct {
			ShowStatusBar bool `yaml:"show_status_bar"`
			ShowSpinner   bool `yaml:"show_spinner"`
		} `yaml:"ui"`
	}

	require.NoError(t, yaml.Unmarshal([]byte(DefaultConfigTemplate()), &raw))

	defaults := Defaults()
	assert.Equal(t, defaults.AutoRefresh, raw.AutoRefresh)
	assert.Equal(t, defaults.RefreshDebounce.String(), raw.RefreshDebounce)
	assert.Equal(t, defaults.IdleRefreshInterval.String(), raw.IdleRefreshInterval)
	assert.Equal(t, "1m0s", defaults.NetworkTimeout.String())
	assert.Equal(t, "60s", raw.NetworkTimeout)
	assert.Equal(t, defaults.LogLimit, raw.LogLimit)
	assert.Equal(t, defaults.DiffCacheSize, raw.DiffCacheSize)
	assert.Equal(t, defaults.UI.ShowStatusBar, raw.UI.ShowStatusBar)
	assert.Equal(t, defaults.UI.ShowSpinner, raw.UI.ShowSpinner)
}

func TestWriteDefaultConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	require.NoError(t, WriteDefaultConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfigTemplate(), string(data))
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
repo_path: /tmp/somewhere
auto_refresh: false
refresh_debounce: 500ms
idle_refresh_interval: 30s
log_limit: 50
theme:
  mode: dark
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/somewhere", cfg.RepoPath)
	assert.False(t, cfg.AutoRefresh)
	assert.Equal(t, 500*time.Millisecond, cfg.RefreshDebounce)
	assert.Equal(t, 30*time.Second, cfg.IdleRefreshInterval)
	assert.Equal(t, 50, cfg.LogLimit)
	assert.Equal(t, "dark", cfg.Theme.Mode)

	// Unset fields keep their defaults.
	assert.Equal(t, 60*time.Second, cfg.NetworkTimeout)
	assert.Equal(t, 128, cfg.DiffCacheSize)
}

func TestLoad_InvalidValuesRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_limit: -1\n"), 0600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log_limit")
}

func TestLoad_MissingExplicitFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
