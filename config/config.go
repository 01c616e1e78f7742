package config

import (
	stderrors "errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/c360/streambuf/errors"
	"github.com/c360/streambuf/health"
)

// Store kinds
const (
	StoreRing        = "ring"
	StoreBounded     = "bounded"
	StoreOverwriting = "overwriting"
	StoreHeap        = "heap"
)

// Decorator kinds
const (
	DecoratorNone     = "none"
	DecoratorBlocking = "blocking"
	DecoratorBounded  = "bounded"
	DecoratorTimeout  = "timeout"
)

// Config represents the complete application configuration
type Config struct {
	Version  string            `yaml:"version" json:"version"`
	Log      LogConfig         `yaml:"log" json:"log"`
	Metrics  MetricsConfig     `yaml:"metrics" json:"metrics"`
	Pipeline PipelineConfig    `yaml:"pipeline" json:"pipeline"`
	Load     LoadConfig        `yaml:"load" json:"load"`
	Health   health.Thresholds `yaml:"health" json:"health"`
}

// LogConfig selects the slog handler
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`   // debug, info, warn, error
	Format string `yaml:"format" json:"format"` // text, json
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Port    int    `yaml:"port" json:"port"`
	Path    string `yaml:"path" json:"path"`
}

// PipelineConfig describes the buffer under test: a store, optionally
// wrapped in one decorator.
type PipelineConfig struct {
	Name      string        `yaml:"name" json:"name"`
	Store     string        `yaml:"store" json:"store"`
	Capacity  int           `yaml:"capacity" json:"capacity"` // initial capacity (ring) or bound (bounded, overwriting)
	Ascending bool          `yaml:"ascending" json:"ascending"`
	Decorator string        `yaml:"decorator" json:"decorator"`
	MaxSize   int           `yaml:"max_size" json:"max_size"` // bounded decorator limit, optional timeout bound
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
}

// LoadConfig drives the bench producers and consumers
type LoadConfig struct {
	Producers int           `yaml:"producers" json:"producers"`
	Consumers int           `yaml:"consumers" json:"consumers"`
	Items     int           `yaml:"items" json:"items"`       // per producer
	Rate      float64       `yaml:"rate" json:"rate"`         // items/second per producer, 0 = unlimited
	Burst     int           `yaml:"burst" json:"burst"`
	Duration  time.Duration `yaml:"duration" json:"duration"` // hard stop, 0 = until items are done
	Retry     RetryConfig   `yaml:"retry" json:"retry"`
}

// RetryConfig is the caller-side retry policy for rejected adds
type RetryConfig struct {
	MaxRetries    int           `yaml:"max_retries" json:"max_retries"`
	InitialDelay  time.Duration `yaml:"initial_delay" json:"initial_delay"`
	MaxDelay      time.Duration `yaml:"max_delay" json:"max_delay"`
	BackoffFactor float64       `yaml:"backoff_factor" json:"backoff_factor"`
}

// Policy converts to the errors package retry policy
func (r RetryConfig) Policy() errors.RetryConfig {
	return errors.RetryConfig{
		MaxRetries:    r.MaxRetries,
		InitialDelay:  r.InitialDelay,
		MaxDelay:      r.MaxDelay,
		BackoffFactor: r.BackoffFactor,
	}
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Version: "1.0.0",
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
		Pipeline: PipelineConfig{
			Name:      "bench",
			Store:     StoreBounded,
			Capacity:  1024,
			Ascending: true,
			Decorator: DecoratorTimeout,
			Timeout:   100 * time.Millisecond,
		},
		Load: LoadConfig{
			Producers: 4,
			Consumers: 4,
			Items:     10000,
			Burst:     1,
			Retry: RetryConfig{
				MaxRetries:    5,
				InitialDelay:  time.Millisecond,
				MaxDelay:      50 * time.Millisecond,
				BackoffFactor: 2.0,
			},
		},
		Health: health.DefaultThresholds(),
	}
}

// Loader handles configuration loading with layers and overrides
type Loader struct {
	layers     []string
	validation bool
	envPrefix  string
	lookupEnv  func(string) (string, bool)
}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	return &Loader{
		layers:     []string{},
		validation: true,
		envPrefix:  "STREAMBUF",
		lookupEnv:  os.LookupEnv,
	}
}

// AddLayer adds a configuration file layer. Later layers override earlier ones.
func (l *Loader) AddLayer(path string) {
	l.layers = append(l.layers, path)
}

// EnableValidation enables or disables configuration validation
func (l *Loader) EnableValidation(enable bool) {
	l.validation = enable
}

// LoadFile loads configuration from a single file
func (l *Loader) LoadFile(path string) (*Config, error) {
	l.layers = []string{path}
	return l.Load()
}

// Load decodes every layer onto the defaults, applies environment
// overrides and validates. Each layer only overrides the keys it sets.
func (l *Loader) Load() (*Config, error) {
	cfg := Default()

	for _, path := range l.layers {
		data, err := safeReadFile(path)
		if err != nil {
			return nil, errors.WrapInvalid(err, "Loader", "Load", fmt.Sprintf("read layer %s", path))
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.WrapInvalid(err, "Loader", "Load", fmt.Sprintf("decode layer %s", path))
		}
	}

	if err := l.applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if l.validation {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// applyEnvOverrides applies <prefix>_* environment variables
func (l *Loader) applyEnvOverrides(cfg *Config) error {
	var errs []error

	str := func(name string, dst *string) {
		if val, ok := l.env(name, &errs); ok {
			*dst = val
		}
	}
	num := func(name string, dst *int) {
		if val, ok := l.env(name, &errs); ok {
			n, err := strconv.Atoi(val)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s_%s: %w", l.envPrefix, name, err))
				return
			}
			*dst = n
		}
	}
	float := func(name string, dst *float64) {
		if val, ok := l.env(name, &errs); ok {
			f, err := strconv.ParseFloat(val, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s_%s: %w", l.envPrefix, name, err))
				return
			}
			*dst = f
		}
	}
	boolean := func(name string, dst *bool) {
		if val, ok := l.env(name, &errs); ok {
			b, err := strconv.ParseBool(val)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s_%s: %w", l.envPrefix, name, err))
				return
			}
			*dst = b
		}
	}
	duration := func(name string, dst *time.Duration) {
		if val, ok := l.env(name, &errs); ok {
			d, err := time.ParseDuration(val)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s_%s: %w", l.envPrefix, name, err))
				return
			}
			*dst = d
		}
	}

	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)

	boolean("METRICS_ENABLED", &cfg.Metrics.Enabled)
	num("METRICS_PORT", &cfg.Metrics.Port)
	str("METRICS_PATH", &cfg.Metrics.Path)

	str("PIPELINE_NAME", &cfg.Pipeline.Name)
	str("PIPELINE_STORE", &cfg.Pipeline.Store)
	num("PIPELINE_CAPACITY", &cfg.Pipeline.Capacity)
	boolean("PIPELINE_ASCENDING", &cfg.Pipeline.Ascending)
	str("PIPELINE_DECORATOR", &cfg.Pipeline.Decorator)
	num("PIPELINE_MAX_SIZE", &cfg.Pipeline.MaxSize)
	duration("PIPELINE_TIMEOUT", &cfg.Pipeline.Timeout)

	num("LOAD_PRODUCERS", &cfg.Load.Producers)
	num("LOAD_CONSUMERS", &cfg.Load.Consumers)
	num("LOAD_ITEMS", &cfg.Load.Items)
	float("LOAD_RATE", &cfg.Load.Rate)
	duration("LOAD_DURATION", &cfg.Load.Duration)

	if len(errs) > 0 {
		return errors.WrapInvalid(stderrors.Join(errs...), "Loader", "Load", "apply environment overrides")
	}
	return nil
}

func (l *Loader) env(name string, errs *[]error) (string, bool) {
	key := l.envPrefix + "_" + name
	val, ok := l.lookupEnv(key)
	if !ok || val == "" {
		return "", false
	}
	if err := validateEnvVar(key, val); err != nil {
		*errs = append(*errs, err)
		return "", false
	}
	return val, true
}

// Validate checks every section and reports all problems at once
func (c *Config) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		fail("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		fail("log.format %q is not one of text, json", c.Log.Format)
	}

	if c.Metrics.Enabled {
		if c.Metrics.Port <= 0 || c.Metrics.Port > 65535 {
			fail("metrics.port %d out of range", c.Metrics.Port)
		}
		if !strings.HasPrefix(c.Metrics.Path, "/") {
			fail("metrics.path %q must start with /", c.Metrics.Path)
		}
	}

	p := c.Pipeline
	if p.Name == "" {
		fail("pipeline.name is required")
	}
	switch p.Store {
	case StoreRing, StoreBounded, StoreOverwriting:
		if p.Capacity <= 0 {
			fail("pipeline.capacity must be positive for %s store, got %d", p.Store, p.Capacity)
		}
	case StoreHeap:
	default:
		fail("pipeline.store %q is not one of ring, bounded, overwriting, heap", p.Store)
	}
	switch p.Decorator {
	case "", DecoratorNone:
	case DecoratorBlocking:
		if p.Timeout < 0 {
			fail("pipeline.timeout cannot be negative")
		}
	case DecoratorBounded:
		if p.MaxSize <= 0 {
			fail("pipeline.max_size must be positive for bounded decorator, got %d", p.MaxSize)
		}
		if p.Timeout < 0 {
			fail("pipeline.timeout cannot be negative")
		}
	case DecoratorTimeout:
		if p.Timeout <= 0 {
			fail("pipeline.timeout must be positive for timeout decorator, got %s", p.Timeout)
		}
		if p.MaxSize < 0 {
			fail("pipeline.max_size cannot be negative")
		}
	default:
		fail("pipeline.decorator %q is not one of none, blocking, bounded, timeout", p.Decorator)
	}

	l := c.Load
	if l.Producers <= 0 {
		fail("load.producers must be positive, got %d", l.Producers)
	}
	if l.Consumers <= 0 {
		fail("load.consumers must be positive, got %d", l.Consumers)
	}
	if l.Items <= 0 {
		fail("load.items must be positive, got %d", l.Items)
	}
	if l.Rate < 0 {
		fail("load.rate cannot be negative")
	}
	if l.Rate > 0 && l.Burst <= 0 {
		fail("load.burst must be positive when load.rate is set")
	}
	if l.Duration < 0 {
		fail("load.duration cannot be negative")
	}
	if l.Retry.MaxRetries < 0 {
		fail("load.retry.max_retries cannot be negative")
	}
	if l.Retry.MaxRetries > 0 && l.Retry.MaxDelay < l.Retry.InitialDelay {
		fail("load.retry.max_delay must be >= initial_delay")
	}

	th := c.Health
	for name, v := range map[string]float64{
		"degraded_utilization":  th.DegradedUtilization,
		"unhealthy_utilization": th.UnhealthyUtilization,
		"degraded_overflow":     th.DegradedOverflow,
		"unhealthy_overflow":    th.UnhealthyOverflow,
		"degraded_underflow":    th.DegradedUnderflow,
	} {
		if v < 0 || v > 1 {
			fail("health.%s %.2f must be within [0, 1]", name, v)
		}
	}

	if len(errs) > 0 {
		return errors.WrapInvalid(
			fmt.Errorf("%w: %w", errors.ErrInvalidConfig, stderrors.Join(errs...)),
			"Config", "Validate", "validate configuration")
	}
	return nil
}

// SaveToFile writes the configuration as YAML
func (c *Config) SaveToFile(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.WrapInvalid(err, "Config", "SaveToFile", "encode configuration")
	}
	return safeWriteFile(path, data)
}

// String returns a YAML representation of the config
func (c *Config) String() string {
	data, _ := yaml.Marshal(c)
	return string(data)
}
