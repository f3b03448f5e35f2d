// Package config loads and validates engine and harness configuration from
// YAML, with environment variable overrides for deployment settings.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/leaselens/leaselens/internal/domain/classify"
	"github.com/leaselens/leaselens/internal/domain/concession"
	"github.com/leaselens/leaselens/internal/domain/opportunity"
)

// Config is the full application configuration.
type Config struct {
	Engine  EngineConfig  `yaml:"engine"`
	HTTP    HTTPConfig    `yaml:"http"`
	Cache   CacheConfig   `yaml:"cache"`
	Storage StorageConfig `yaml:"storage"`
}

// EngineConfig holds the calibrated scoring tables.
type EngineConfig struct {
	Weights     opportunity.FactorWeights `yaml:"weights"`
	Concessions concession.Table          `yaml:"concessions"`
	Thresholds  classify.Thresholds       `yaml:"thresholds"`
	Concurrency int                       `yaml:"concurrency"` // batch worker pool size
}

// HTTPConfig holds API server settings.
type HTTPConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
	RatePerSec   float64       `yaml:"rate_per_sec"`
	RateBurst    int           `yaml:"rate_burst"`
}

// CacheConfig holds Redis result-cache settings.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Addr    string        `yaml:"addr"`
	DB      int           `yaml:"db"`
	TTL     time.Duration `yaml:"ttl"`
}

// StorageConfig holds Postgres result-store settings.
type StorageConfig struct {
	Enabled bool   `yaml:"enabled"`
	DSN     string `yaml:"dsn"`
}

// Default returns the production configuration baked into the binary.
func Default() Config {
	return Config{
		Engine: EngineConfig{
			Weights:     opportunity.DefaultWeights(),
			Concessions: concession.DefaultTable(),
			Thresholds:  classify.DefaultThresholds(),
			Concurrency: 8,
		},
		HTTP: HTTPConfig{
			Host:         "127.0.0.1",
			Port:         8080,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
			RatePerSec:   20,
			RateBurst:    40,
		},
		Cache: CacheConfig{
			Addr: "localhost:6379",
			TTL:  6 * time.Hour,
		},
		Storage: StorageConfig{},
	}
}

// Load reads YAML from path layered over Default(), applies environment
// overrides, then validates. An empty path returns the defaults with
// overrides applied.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks the scoring tables and harness settings.
func (c Config) Validate() error {
	if err := c.Engine.Weights.Validate(); err != nil {
		return err
	}
	if err := c.Engine.Thresholds.Validate(); err != nil {
		return err
	}
	for kind, profile := range c.Engine.Concessions {
		if !kind.Valid() {
			return fmt.Errorf("unknown concession kind in config: %q", kind)
		}
		if profile.BaseProbability < 0 || profile.BaseProbability > 1 {
			return fmt.Errorf("concession %s base probability outside [0,1]: %.3f", kind, profile.BaseProbability)
		}
		if profile.RentFraction < 0 || profile.FlatAmount < 0 {
			return fmt.Errorf("concession %s has a negative value rule", kind)
		}
	}
	if c.Engine.Concurrency < 1 {
		return fmt.Errorf("engine concurrency must be at least 1, got %d", c.Engine.Concurrency)
	}
	if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http port outside valid range: %d", c.HTTP.Port)
	}
	if c.Storage.Enabled && c.Storage.DSN == "" {
		return fmt.Errorf("storage enabled but no DSN configured")
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if port := os.Getenv("HTTP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.HTTP.Port = p
		}
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Cache.Addr = addr
		cfg.Cache.Enabled = true
	}
	if dsn := os.Getenv("PG_DSN"); dsn != "" {
		cfg.Storage.DSN = dsn
		cfg.Storage.Enabled = true
	}
	if enabled := os.Getenv("PG_ENABLED"); enabled != "" {
		if v, err := strconv.ParseBool(enabled); err == nil {
			cfg.Storage.Enabled = v
		}
	}
}
