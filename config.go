package kit

import (
	"context"
	"errors"
	"fmt"

	"github.com/synthonyx/kit/dispatch"
	"github.com/synthonyx/kit/get"
	"github.com/synthonyx/kit/password"
)

// Config holds every tunable of a [Kit].
//
// Config instances are intended to be configured during initialization and then treated as immutable.
type Config struct {
	Password PasswordConfig
	Dispatch DispatchConfig
	Metrics  MetricsConfig
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds Argon2id cost parameters and hashing policy.
type PasswordConfig struct {
	Memory           uint32 // in KiB
	Time             uint32
	Parallelism      uint8
	SaltLength       uint32
	KeyLength        uint32
	MinPasswordBytes int // 0 disables the length policy
	MaxConcurrent    int // 0 leaves hashing unbounded
}

func (c PasswordConfig) argon2() password.Config {
	return password.Config{
		Memory:           c.Memory,
		Time:             c.Time,
		Parallelism:      c.Parallelism,
		SaltLength:       c.SaltLength,
		KeyLength:        c.KeyLength,
		MinPasswordBytes: c.MinPasswordBytes,
		MaxConcurrent:    c.MaxConcurrent,
	}
}

/*
====================================
DISPATCH CONFIG
====================================
*/

// DispatchConfig sizes the asynchronous worker pool.
type DispatchConfig struct {
	Workers    int
	BufferSize int
	DropIfFull bool
}

func (c DispatchConfig) pool() dispatch.Config {
	return dispatch.Config{
		Workers:    c.Workers,
		BufferSize: c.BufferSize,
		DropIfFull: c.DropIfFull,
	}
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig toggles in-process counters and latency histograms.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULTS
====================================
*/

// DefaultConfig returns the recommended configuration.
func DefaultConfig() Config {
	return Config{
		Password: PasswordConfig{
			Memory:      password.DefaultMemory,
			Time:        password.DefaultTime,
			Parallelism: password.DefaultParallelism,
			SaltLength:  password.DefaultSaltLength,
			KeyLength:   password.DefaultKeyLength,
		},
		Dispatch: DispatchConfig{
			Workers:    4,
			BufferSize: 64,
			DropIfFull: false,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
	}
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first unusable setting in c.
func (c *Config) Validate() error {
	// Password
	if _, err := password.NewArgon2(c.Password.argon2()); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	// Dispatch
	if c.Dispatch.Workers < 1 {
		return fmt.Errorf("%w: Dispatch Workers must be >= 1", ErrInvalidConfig)
	}
	if c.Dispatch.BufferSize < 1 {
		return fmt.Errorf("%w: Dispatch BufferSize must be >= 1", ErrInvalidConfig)
	}

	// Metrics
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return fmt.Errorf("%w: Metrics EnableLatencyHistograms requires Metrics Enabled", ErrInvalidConfig)
	}

	return nil
}

/*
====================================
LOADING
====================================
*/

// LoadConfig overlays base with the values present in src.
//
// Keys are resolved through src, so with an "KIT" prefix the memory cost is
// read from KIT_PASSWORD_MEMORY. Unset keys keep their base value; malformed
// values are reported. The result is not validated.
func LoadConfig(ctx context.Context, src *get.EnvSource, base Config) (Config, error) {
	if src == nil {
		return base, errors.New("kit: nil env source")
	}

	cfg := base
	var err error

	overlay(ctx, src, "password_memory", &cfg.Password.Memory, &err)
	overlay(ctx, src, "password_time", &cfg.Password.Time, &err)
	overlay(ctx, src, "password_parallelism", &cfg.Password.Parallelism, &err)
	overlay(ctx, src, "password_salt_length", &cfg.Password.SaltLength, &err)
	overlay(ctx, src, "password_key_length", &cfg.Password.KeyLength, &err)
	overlay(ctx, src, "password_min_bytes", &cfg.Password.MinPasswordBytes, &err)
	overlay(ctx, src, "password_max_concurrent", &cfg.Password.MaxConcurrent, &err)
	overlay(ctx, src, "dispatch_workers", &cfg.Dispatch.Workers, &err)
	overlay(ctx, src, "dispatch_buffer_size", &cfg.Dispatch.BufferSize, &err)
	overlay(ctx, src, "dispatch_drop_if_full", &cfg.Dispatch.DropIfFull, &err)
	overlay(ctx, src, "metrics_enabled", &cfg.Metrics.Enabled, &err)
	overlay(ctx, src, "metrics_latency", &cfg.Metrics.EnableLatencyHistograms, &err)

	if err != nil {
		return base, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return cfg, nil
}

// overlay replaces *dst with the value of key when it is set. It is a no-op once *errp is set.
func overlay[T any](ctx context.Context, src *get.EnvSource, key string, dst *T, errp *error) {
	if *errp != nil {
		return
	}
	v, err := get.Or[T](get.Env[T](src, key), *dst).Load(ctx)
	if err != nil {
		*errp = err
		return
	}
	*dst = v
}
