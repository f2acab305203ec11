package kit

import (
	"io"
	"log/slog"

	"github.com/synthonyx/kit/dispatch"
	"github.com/synthonyx/kit/password"
)

// Builder assembles a [Kit]. A Builder can build exactly once.
type Builder struct {
	config Config
	logger *slog.Logger
	random io.Reader

	built bool
}

// New describes the new operation and its observable behavior.
//
// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig replaces the whole configuration; it is validated by Build.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithLogger describes the withlogger operation and its observable behavior.
//
// WithLogger sets the logger shared by the kit and its dispatch pool. The default is [slog.Default].
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

// WithRandom describes the withrandom operation and its observable behavior.
//
// WithRandom replaces the salt source. It exists for tests and for platforms
// with a dedicated entropy device; the reader must be cryptographically secure.
func (b *Builder) WithRandom(r io.Reader) *Builder {
	b.random = r
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms describes the withlatencyhistograms operation and its observable behavior.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build validates the configuration, constructs the shared hasher, starts the
// dispatch pool and returns the ready Kit.
func (b *Builder) Build() (*Kit, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	metrics := NewMetrics(cfg.Metrics)

	opts := []password.Option{password.WithRecorder(metrics)}
	if b.random != nil {
		opts = append(opts, password.WithRandom(b.random))
	}
	hasher, err := password.NewArgon2(cfg.Password.argon2(), opts...)
	if err != nil {
		return nil, err
	}

	pool := dispatch.NewPool(cfg.Dispatch.pool(),
		dispatch.WithLogger(logger),
		dispatch.WithRecorder(metrics),
	)

	b.built = true

	logger.Debug("kit: built",
		"dispatch_workers", cfg.Dispatch.Workers,
		"metrics", cfg.Metrics.Enabled,
	)

	return &Kit{
		config:  cfg,
		hasher:  hasher,
		pool:    pool,
		metrics: metrics,
		logger:  logger,
	}, nil
}
