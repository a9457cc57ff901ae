// Package config provides typed configuration for the resource engine,
// grounded on the teacher's internal/config: a single validated struct
// loaded from YAML with environment-variable overrides, sized to what this
// engine actually needs (backend selection, circuit-breaker tuning,
// logging/metrics/tracing toggles) rather than the teacher's full
// application surface (HTTP server, domain thresholds, rate limiting).
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Environment is the deployment environment, gating behavior like hot
// reload (development only, per Watcher).
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// Config is the complete, validated configuration for a running engine
// instance.
type Config struct {
	Environment    Environment    `yaml:"environment" validate:"required,oneof=development staging production"`
	Backend        Backend        `yaml:"backend" validate:"required,dive"`
	BinaryContent  BinaryContent  `yaml:"binary_content" validate:"dive"`
	CircuitBreaker CircuitBreaker `yaml:"circuit_breaker" validate:"dive"`
	Cache          Cache          `yaml:"cache" validate:"dive"`
	Logging        Logging        `yaml:"logging" validate:"dive"`
	Metrics        Metrics        `yaml:"metrics" validate:"dive"`
	Tracing        Tracing        `yaml:"tracing" validate:"dive"`
}

// Backend selects and configures the store.QuadStore implementation.
type Backend struct {
	// Kind is "memory" or "external". "external" wires store/external; any
	// other value is rejected by Validate.
	Kind string `yaml:"kind" validate:"required,oneof=memory external"`

	Table     string `yaml:"table" validate:"required_if=Kind external"`
	IndexName string `yaml:"index_name" validate:"required_if=Kind external"`
	Region    string `yaml:"region" validate:"required_if=Kind external"`
	Endpoint  string `yaml:"endpoint"` // LocalStack/dev override; empty uses the default AWS resolver
}

// BinaryContent selects and configures the store/binary.Content
// implementation that holds NonRDFSource byte content, kept independent of
// Backend since the quad metadata and the bytes never share a backend.
type BinaryContent struct {
	// Kind is "memory" or "s3". "memory" (the default) needs no further
	// fields; "s3" requires Bucket and Region.
	Kind           string `yaml:"kind" validate:"omitempty,oneof=memory s3"`
	Bucket         string `yaml:"bucket" validate:"required_if=Kind s3"`
	Region         string `yaml:"region" validate:"required_if=Kind s3"`
	Endpoint       string `yaml:"endpoint"` // LocalStack/dev override
	LocationPrefix string `yaml:"location_prefix"`
}

// CircuitBreaker tunes the store/resilience decorator wrapping the backend.
type CircuitBreaker struct {
	Enabled          bool          `yaml:"enabled"`
	FailureThreshold float64       `yaml:"failure_threshold" validate:"min=0,max=1"`
	MinimumRequests  int           `yaml:"minimum_requests" validate:"min=1,max=10000"`
	OpenDuration     time.Duration `yaml:"open_duration" validate:"min=1s,max=10m"`
}

// Cache tunes the store/cached decorator. A zero TTL disables caching.
type Cache struct {
	Enabled bool          `yaml:"enabled"`
	Addr    string        `yaml:"addr" validate:"required_if=Enabled true"`
	TTL     time.Duration `yaml:"ttl" validate:"min=0,max=1h"`
}

// Logging tunes the process-wide zap.Logger.
type Logging struct {
	Level string `yaml:"level" validate:"required,oneof=debug info warn error"`
	JSON  bool   `yaml:"json"`
}

// Metrics tunes the Prometheus metrics exporter.
type Metrics struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr" validate:"required_if=Enabled true"`
}

// Tracing tunes the OpenTelemetry OTLP exporter.
type Tracing struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint" validate:"required_if=Enabled true"`
	ServiceName string  `yaml:"service_name"`
	SampleRatio float64 `yaml:"sample_ratio" validate:"min=0,max=1"`
}

// Default returns a configuration usable out of the box for local
// development: in-memory backend, no cache, no tracing, info logging.
func Default() Config {
	return Config{
		Environment:   Development,
		Backend:       Backend{Kind: "memory"},
		BinaryContent: BinaryContent{Kind: "memory"},
		CircuitBreaker: CircuitBreaker{
			Enabled:          false,
			FailureThreshold: 0.5,
			MinimumRequests:  10,
			OpenDuration:     30 * time.Second,
		},
		Cache:   Cache{Enabled: false, TTL: 0},
		Logging: Logging{Level: "info", JSON: false},
		Metrics: Metrics{Enabled: false},
		Tracing: Tracing{Enabled: false, SampleRatio: 0},
	}
}

var validate = validator.New()

// Validate enforces the struct tags above; it applies no rules beyond
// those tags.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Load reads path as YAML into Default(), applies environment-variable
// overrides, and validates the result. A missing path is not an error —
// Default()'s values stand, overridable by environment alone.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("config: read %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnvOverrides layers TRELLIS_*-prefixed environment variables over
// whatever Load already assembled from defaults and YAML, the same
// highest-priority-wins layering the teacher's Loader.Load documents.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TRELLIS_ENVIRONMENT"); v != "" {
		cfg.Environment = Environment(v)
	}
	if v := os.Getenv("TRELLIS_BACKEND_KIND"); v != "" {
		cfg.Backend.Kind = v
	}
	if v := os.Getenv("TRELLIS_BACKEND_TABLE"); v != "" {
		cfg.Backend.Table = v
	}
	if v := os.Getenv("TRELLIS_BACKEND_INDEX_NAME"); v != "" {
		cfg.Backend.IndexName = v
	}
	if v := os.Getenv("TRELLIS_BACKEND_REGION"); v != "" {
		cfg.Backend.Region = v
	}
	if v := os.Getenv("TRELLIS_BACKEND_ENDPOINT"); v != "" {
		cfg.Backend.Endpoint = v
	}
	if v := os.Getenv("TRELLIS_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("TRELLIS_CIRCUIT_BREAKER_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.CircuitBreaker.Enabled = b
		}
	}
	if v := os.Getenv("TRELLIS_CACHE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Cache.Enabled = b
		}
	}
	if v := os.Getenv("TRELLIS_BINARY_CONTENT_KIND"); v != "" {
		cfg.BinaryContent.Kind = v
	}
	if v := os.Getenv("TRELLIS_BINARY_CONTENT_BUCKET"); v != "" {
		cfg.BinaryContent.Bucket = v
	}
	if v := os.Getenv("TRELLIS_BINARY_CONTENT_REGION"); v != "" {
		cfg.BinaryContent.Region = v
	}
}
