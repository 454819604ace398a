// Package config loads the toolkit configuration from defaults, an optional
// YAML file, and environment variable overrides, in that order.
package config

import (
	"time"

	"github.com/Gzeu/salahor/types"
)

// Config is the full toolkit configuration.
type Config struct {
	// Queue holds backpressure queue defaults.
	Queue QueueConfig `yaml:"queue" env:"QUEUE"`

	// Pool holds worker pool defaults.
	Pool PoolConfig `yaml:"pool" env:"POOL"`

	// RateLimit holds rate limiter defaults.
	RateLimit RateLimitConfig `yaml:"rate_limit" env:"RATE_LIMIT"`

	// Redis configures the shared sliding-window store.
	Redis RedisConfig `yaml:"redis" env:"REDIS"`

	// Log configures zap.
	Log LogConfig `yaml:"log" env:"LOG"`

	// Metrics configures the Prometheus collector.
	Metrics MetricsConfig `yaml:"metrics" env:"METRICS"`
}

// QueueConfig is the backpressure queue section.
type QueueConfig struct {
	// Limit is the buffer capacity; 0 means unbounded.
	Limit int `yaml:"limit" env:"LIMIT"`
	// Policy is the overflow policy: throw, drop_old, drop_new.
	Policy string `yaml:"policy" env:"POLICY"`
}

// PoolConfig is the worker pool section.
type PoolConfig struct {
	MinWorkers   int           `yaml:"min_workers" env:"MIN_WORKERS"`
	MaxWorkers   int           `yaml:"max_workers" env:"MAX_WORKERS"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"IDLE_TIMEOUT"`
	MaxQueueSize int           `yaml:"max_queue_size" env:"MAX_QUEUE_SIZE"`
	ReapInterval time.Duration `yaml:"reap_interval" env:"REAP_INTERVAL"`
}

// RateLimitConfig is the rate limiter section.
type RateLimitConfig struct {
	Capacity int `yaml:"capacity" env:"CAPACITY"`
	// RefillRate is tokens per second.
	RefillRate float64 `yaml:"refill_rate" env:"REFILL_RATE"`
	// SlidingWindow switches to the trailing-window mode.
	SlidingWindow bool          `yaml:"sliding_window" env:"SLIDING_WINDOW"`
	WindowSize    time.Duration `yaml:"window_size" env:"WINDOW_SIZE"`
}

// RedisConfig is the Redis connection section.
type RedisConfig struct {
	Addr         string `yaml:"addr" env:"ADDR"`
	Password     string `yaml:"password" env:"PASSWORD"`
	DB           int    `yaml:"db" env:"DB"`
	PoolSize     int    `yaml:"pool_size" env:"POOL_SIZE"`
	MinIdleConns int    `yaml:"min_idle_conns" env:"MIN_IDLE_CONNS"`
}

// LogConfig is the logging section.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" env:"LEVEL"`
	// Format is json or console.
	Format string `yaml:"format" env:"FORMAT"`
	// OutputPaths lists zap sinks.
	OutputPaths  []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	EnableCaller bool     `yaml:"enable_caller" env:"ENABLE_CALLER"`
}

// MetricsConfig is the metrics section.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" env:"ENABLED"`
	Namespace string `yaml:"namespace" env:"NAMESPACE"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Queue: QueueConfig{
			Limit:  0,
			Policy: "throw",
		},
		Pool: PoolConfig{
			MinWorkers:   1,
			MaxWorkers:   4,
			IdleTimeout:  60 * time.Second,
			MaxQueueSize: 64,
			ReapInterval: 30 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Capacity:   100,
			RefillRate: 100,
			WindowSize: time.Minute,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			DB:       0,
			PoolSize: 10,
		},
		Log: LogConfig{
			Level:       "info",
			Format:      "json",
			OutputPaths: []string{"stderr"},
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "salahor",
		},
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Pool.MinWorkers > c.Pool.MaxWorkers {
		return types.NewError(types.ErrValidation, "pool: min_workers exceeds max_workers")
	}
	if c.Queue.Limit < 0 {
		return types.NewError(types.ErrValidation, "queue: limit must not be negative")
	}
	switch c.Queue.Policy {
	case "", "throw", "drop_old", "drop_new":
	default:
		return types.NewError(types.ErrValidation, "queue: unknown overflow policy "+c.Queue.Policy)
	}
	if c.RateLimit.Capacity <= 0 {
		return types.NewError(types.ErrValidation, "rate_limit: capacity must be positive")
	}
	return nil
}
