// Package config centralises runtime configuration helpers for trolley services.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment identifies the runtime environment where trolley operates.
type Environment string

const (
	// EnvDev marks the development environment.
	EnvDev Environment = "dev"
	// EnvStaging marks the staging environment.
	EnvStaging Environment = "staging"
	// EnvProd marks the production environment.
	EnvProd Environment = "prod"
)

// FetchSettings governs the HTTP price-fetch client shared by all stores.
type FetchSettings struct {
	Timeout        time.Duration `yaml:"timeout"`
	RequestsPerSec float64       `yaml:"requestsPerSec"`
	MaxRetries     int           `yaml:"maxRetries"`
}

// CacheSettings controls quote cache behaviour.
type CacheSettings struct {
	TTL           time.Duration `yaml:"ttl"`
	SweepInterval time.Duration `yaml:"sweepInterval"`
	PostgresDSN   string        `yaml:"postgresDsn"`
}

// TelemetrySettings configures OTLP metric export.
type TelemetrySettings struct {
	OTLPEndpoint string `yaml:"otlpEndpoint"`
	ServiceName  string `yaml:"serviceName"`
}

// OptimizerSettings tunes the optimization pipeline.
type OptimizerSettings struct {
	MaxFetchWorkers int    `yaml:"maxFetchWorkers"`
	ScriptDir       string `yaml:"scriptDir"`
}

// Settings contains the trolley configuration tree loaded from defaults and overrides.
type Settings struct {
	Environment Environment       `yaml:"environment"`
	CatalogPath string            `yaml:"catalogPath"`
	Fetch       FetchSettings     `yaml:"fetch"`
	Cache       CacheSettings     `yaml:"cache"`
	Telemetry   TelemetrySettings `yaml:"telemetry"`
	Optimizer   OptimizerSettings `yaml:"optimizer"`
}

// Default returns the default trolley configuration.
func Default() Settings {
	return Settings{
		Environment: EnvProd,
		CatalogPath: "config/stores.yaml",
		Fetch: FetchSettings{
			Timeout:        10 * time.Second,
			RequestsPerSec: 8,
			MaxRetries:     2,
		},
		Cache: CacheSettings{
			TTL:           time.Hour,
			SweepInterval: 5 * time.Minute,
			PostgresDSN:   "",
		},
		Telemetry: TelemetrySettings{
			OTLPEndpoint: "",
			ServiceName:  "trolley-optimizer",
		},
		Optimizer: OptimizerSettings{
			MaxFetchWorkers: 8,
			ScriptDir:       "",
		},
	}
}

// FromEnv loads configuration values from environment variables, overriding defaults.
func FromEnv() Settings {
	cfg := Default()
	if env := strings.TrimSpace(os.Getenv("TROLLEY_ENV")); env != "" {
		cfg.Environment = Environment(strings.ToLower(env))
	}
	if v := strings.TrimSpace(os.Getenv("TROLLEY_CATALOG")); v != "" {
		cfg.CatalogPath = v
	}
	if v := strings.TrimSpace(os.Getenv("TROLLEY_FETCH_TIMEOUT")); v != "" {
		if dur, err := time.ParseDuration(v); err == nil {
			cfg.Fetch.Timeout = dur
		}
	}
	if v := strings.TrimSpace(os.Getenv("TROLLEY_FETCH_RPS")); v != "" {
		if rps, err := strconv.ParseFloat(v, 64); err == nil && rps > 0 {
			cfg.Fetch.RequestsPerSec = rps
		}
	}
	if v := strings.TrimSpace(os.Getenv("TROLLEY_CACHE_TTL")); v != "" {
		if dur, err := time.ParseDuration(v); err == nil {
			cfg.Cache.TTL = dur
		}
	}
	if v := strings.TrimSpace(os.Getenv("TROLLEY_CACHE_DSN")); v != "" {
		cfg.Cache.PostgresDSN = v
	}
	if v := strings.TrimSpace(os.Getenv("TROLLEY_OTLP_ENDPOINT")); v != "" {
		cfg.Telemetry.OTLPEndpoint = v
	}
	if v := strings.TrimSpace(os.Getenv("TROLLEY_SCRIPT_DIR")); v != "" {
		cfg.Optimizer.ScriptDir = v
	}
	return cfg
}

// Load reads a YAML settings file layered over FromEnv defaults. The second
// return value reports whether the file existed.
func Load(path string) (Settings, bool, error) {
	cfg := FromEnv()
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, false, nil
		}
		return cfg, false, fmt.Errorf("read settings %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, true, fmt.Errorf("parse settings %s: %w", path, err)
	}
	return normalize(cfg), true, nil
}

// Option mutates Settings when applied via Apply.
type Option func(*Settings)

// Apply applies the provided Option set to a copy of the base Settings.
func Apply(base Settings, opts ...Option) Settings {
	cfg := base
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return normalize(cfg)
}

// WithEnvironment configures the top-level environment.
func WithEnvironment(env Environment) Option {
	return func(s *Settings) {
		if env != "" {
			s.Environment = env
		}
	}
}

// WithCacheTTL overrides the quote cache time-to-live.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Settings) {
		if ttl > 0 {
			s.Cache.TTL = ttl
		}
	}
}

// WithFetchTimeout overrides the price-fetch HTTP timeout.
func WithFetchTimeout(timeout time.Duration) Option {
	return func(s *Settings) {
		if timeout > 0 {
			s.Fetch.Timeout = timeout
		}
	}
}

// WithPostgresDSN points the quote cache at a Postgres backend.
func WithPostgresDSN(dsn string) Option {
	trimmed := strings.TrimSpace(dsn)
	return func(s *Settings) {
		s.Cache.PostgresDSN = trimmed
	}
}

func normalize(cfg Settings) Settings {
	def := Default()
	if cfg.Fetch.Timeout <= 0 {
		cfg.Fetch.Timeout = def.Fetch.Timeout
	}
	if cfg.Fetch.RequestsPerSec <= 0 {
		cfg.Fetch.RequestsPerSec = def.Fetch.RequestsPerSec
	}
	if cfg.Fetch.MaxRetries < 0 {
		cfg.Fetch.MaxRetries = def.Fetch.MaxRetries
	}
	if cfg.Cache.TTL <= 0 {
		cfg.Cache.TTL = def.Cache.TTL
	}
	if cfg.Cache.SweepInterval <= 0 {
		cfg.Cache.SweepInterval = def.Cache.SweepInterval
	}
	if cfg.Optimizer.MaxFetchWorkers <= 0 {
		cfg.Optimizer.MaxFetchWorkers = def.Optimizer.MaxFetchWorkers
	}
	if strings.TrimSpace(cfg.Telemetry.ServiceName) == "" {
		cfg.Telemetry.ServiceName = def.Telemetry.ServiceName
	}
	return cfg
}
