// Package config resolves roster settings from defaults, an optional YAML
// file, a .env file and the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/N3moAhead/roster/internal/api"
)

type Config struct {
	// Client settings
	CollectionURL string `yaml:"collection_url"`
	Timeout       string `yaml:"timeout"`

	// Logging
	LogFile  string `yaml:"log_file"`
	LogLevel string `yaml:"log_level"`

	// Development backend
	Serve ServeConfig `yaml:"serve"`
}

type ServeConfig struct {
	Addr     string `yaml:"addr"`
	DataFile string `yaml:"data_file"`
}

const (
	DefaultCollectionURL = api.DefaultCollectionURL
	DefaultTimeout       = "15s"
	DefaultLogFile       = "roster.log"
	DefaultLogLevel      = "info"
	DefaultAddr          = ":8080"
	DefaultDataFile      = "data.json"
)

func Default() Config {
	return Config{
		CollectionURL: DefaultCollectionURL,
		Timeout:       DefaultTimeout,
		LogFile:       DefaultLogFile,
		LogLevel:      DefaultLogLevel,
		Serve: ServeConfig{
			Addr:     DefaultAddr,
			DataFile: DefaultDataFile,
		},
	}
}

// Load builds the configuration. path may be empty; a missing .env is fine.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}
	cfg.applyEnv()

	return cfg, nil
}

func (c *Config) applyEnv() {
	overrides := []struct {
		key string
		dst *string
	}{
		{"ROSTER_COLLECTION_URL", &c.CollectionURL},
		{"ROSTER_TIMEOUT", &c.Timeout},
		{"ROSTER_LOG_FILE", &c.LogFile},
		{"ROSTER_LOG_LEVEL", &c.LogLevel},
		{"ROSTER_ADDR", &c.Serve.Addr},
		{"ROSTER_DATA_FILE", &c.Serve.DataFile},
	}
	for _, o := range overrides {
		if v, ok := os.LookupEnv(o.key); ok {
			*o.dst = v
		}
	}
}

// TimeoutDuration parses Timeout. Validate guarantees it succeeds.
func (c Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

func (c Config) Validate() error {
	u, err := url.Parse(c.CollectionURL)
	if err != nil {
		return fmt.Errorf("collection_url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("collection_url: %q is not an http(s) URL", c.CollectionURL)
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return fmt.Errorf("timeout: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("timeout: must be positive, got %s", d)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level: unknown level %q", c.LogLevel)
	}
	return nil
}
