package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
)

// Config holds worker configuration merged from an optional .env file, an
// optional hubsync.yaml, and HUBSYNC_-prefixed environment variables
// (highest precedence, with __ mapping to a dot).
type Config struct {
	HubSpot  HubSpot  `koanf:"hubspot"`
	Sink     Sink     `koanf:"sink"`
	Database Database `koanf:"database"`
	Sync     Sync     `koanf:"sync"`
	Metrics  Metrics  `koanf:"metrics"`
	Logs     Logs     `koanf:"logs"`
}

// HubSpot holds the API endpoint and the OAuth app credentials used for
// refresh-token exchanges.
type HubSpot struct {
	BaseURL      string `koanf:"base_url" validate:"required,url"`
	ClientID     string `koanf:"client_id" validate:"required"`
	ClientSecret string `koanf:"client_secret" validate:"required"`
}

// Sink holds the downstream analytics endpoint.
type Sink struct {
	URL string `koanf:"url" validate:"required,url"`
}

// Database holds the path of the SQLite sync-state database.
type Database struct {
	Path string `koanf:"path" validate:"required"`
}

// Sync holds tunables for the pull loop and the action queue.
type Sync struct {
	PageSize       int `koanf:"page_size" validate:"min=1,max=200"`
	FlushThreshold int `koanf:"flush_threshold" validate:"min=1"`
}

// Metrics holds the Prometheus listen address. Empty disables the endpoint.
type Metrics struct {
	Addr string `koanf:"addr"`
}

// Logs holds the directory for rotated log files.
type Logs struct {
	Dir string `koanf:"dir"`
}

const (
	envPrefix = "HUBSYNC_"
	yamlPath  = "hubsync.yaml"
)

var validate = validator.New()

// Load merges configuration layers, applies defaults, and validates the
// result. A missing .env or yaml file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")

	if _, err := os.Stat(yamlPath); err == nil {
		if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load %s: %w", yamlPath, err)
		}
	}

	// Env overrides: HUBSYNC_HUBSPOT__CLIENT_ID -> hubspot.client_id
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(s, envPrefix), "__", "."))
	}), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.HubSpot.BaseURL == "" {
		cfg.HubSpot.BaseURL = "https://api.hubapi.com"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "hubsync.db"
	}
	if cfg.Sync.PageSize == 0 {
		cfg.Sync.PageSize = 100
	}
	if cfg.Sync.FlushThreshold == 0 {
		cfg.Sync.FlushThreshold = 2000
	}
	if cfg.Logs.Dir == "" {
		cfg.Logs.Dir = "logs"
	}
}
