package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Defaults applied when neither file nor env provides a value.
const (
	DefaultBaseURL   = "http://localhost:5000/api/v1"
	DefaultCachePath = "./.confmatch-cache"
)

// Load reads the YAML config at path (a missing file is not an error) and
// applies environment overrides on top. Precedence: env > file > defaults.
// Command-line flags are applied by the caller and win over everything.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("CONFMATCH_API_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("CONFMATCH_SOCKET_URL"); v != "" {
		cfg.Socket.URL = v
	}
	if v := os.Getenv("CONFMATCH_CACHE_PATH"); v != "" {
		cfg.Cache.Path = v
	}
	if v := os.Getenv("CONFMATCH_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CONFMATCH_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
		cfg.Metrics.Enabled = true
	}
}

func applyDefaults(cfg *Config) {
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = DefaultBaseURL
	}
	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")
	if cfg.Cache.Path == "" {
		cfg.Cache.Path = DefaultCachePath
	}
	if cfg.Socket.URL == "" {
		cfg.Socket.URL = SocketURLFromAPI(cfg.API.BaseURL)
	}
	if cfg.Cache.Retention.Cron == "" {
		cfg.Cache.Retention.Cron = "0 3 * * *"
	}
	if cfg.Cache.Retention.Period == "" {
		cfg.Cache.Retention.Period = "720h"
	}
}

// SocketURLFromAPI derives the live-channel URL from the REST base URL by
// stripping the versioned API path and switching to the ws scheme.
func SocketURLFromAPI(base string) string {
	u := base
	if i := strings.Index(u, "/api/"); i >= 0 {
		u = u[:i]
	}
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + "/ws"
}
