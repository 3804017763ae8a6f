package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// Load reads configuration using viper with the precedence
// explicit file > default file locations > defaults. A missing config file
// is not an error; the defaults are returned.
func Load(configFile string) (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	defaults := Defaults()
	v.SetDefault("repo_path", defaults.RepoPath)
	v.SetDefault("auto_refresh", defaults.AutoRefresh)
	v.SetDefault("refresh_debounce", defaults.RefreshDebounce)
	v.SetDefault("idle_refresh_interval", defaults.IdleRefreshInterval)
	v.SetDefault("network_timeout", defaults.NetworkTimeout)
	v.SetDefault("log_limit", defaults.LogLimit)
	v.SetDefault("diff_cache_size", defaults.DiffCacheSize)
	v.SetDefault("ui.show_status_bar", defaults.UI.ShowStatusBar)
	v.SetDefault("ui.show_spinner", defaults.UI.ShowSpinner)
	v.SetDefault("theme.mode", defaults.Theme.Mode)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("$XDG_CONFIG_HOME/githydra")
		v.AddConfigPath("$HOME/.config/githydra")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}
