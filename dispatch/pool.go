package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Config controls pool size and buffering behavior.
type Config struct {
	Workers    int
	BufferSize int
	DropIfFull bool
}

// Recorder receives per-call outcomes. Implementations must be safe for concurrent use.
type Recorder interface {
	RecordDispatch(d time.Duration, err error)
	RecordDispatchDropped()
}

// Option customizes a [Pool].
type Option func(*Pool)

// WithLogger sets the pool logger. The default is [slog.Default].
func WithLogger(l *slog.Logger) Option {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(p *Pool) {
		p.recorder = r
	}
}

type job struct {
	id     uuid.UUID
	module string
	ctx    context.Context
	run    func(ctx context.Context) error
	abort  func(err error)
}

// Pool runs submitted calls on a fixed set of workers.
type Pool struct {
	cfg      Config
	ch       chan job
	done     chan struct{}
	wg       sync.WaitGroup
	mu       sync.RWMutex
	closed   bool
	dropped  atomic.Uint64
	once     sync.Once
	logger   *slog.Logger
	recorder Recorder
}

// NewPool starts cfg.Workers workers (at least one) over a queue of cfg.BufferSize (at least one).
func NewPool(cfg Config, opts ...Option) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}

	p := &Pool{
		cfg:    cfg,
		ch:     make(chan job, cfg.BufferSize),
		done:   make(chan struct{}),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go p.run()
	}

	return p
}

func (p *Pool) run() {
	defer p.wg.Done()

	for {
		select {
		case j := <-p.ch:
			p.execute(j)
		case <-p.done:
			for {
				select {
				case j := <-p.ch:
					p.execute(j)
				default:
					return
				}
			}
		}
	}
}

func (p *Pool) execute(j job) {
	start := time.Now()
	var err error

	defer func() {
		if r := recover(); r != nil {
			err = wrap(j.module, fmt.Errorf("%w: %v", ErrPanic, r))
			j.abort(err)
			p.logger.Error("dispatch: call panicked",
				"module", j.module,
				"id", j.id.String(),
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
		}
		if p.recorder != nil {
			p.recorder.RecordDispatch(time.Since(start), err)
		}
	}()

	if cerr := j.ctx.Err(); cerr != nil {
		err = wrap(j.module, cerr)
		j.abort(err)
		return
	}

	err = j.run(j.ctx)
}

func (p *Pool) submit(ctx context.Context, j job) error {
	if p == nil {
		return ErrClosed
	}

	// Holding the read lock across the send guarantees every accepted job is
	// queued before Close signals the workers to drain.
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrClosed
	}

	if p.cfg.DropIfFull {
		select {
		case p.ch <- j:
			return nil
		default:
			p.dropped.Add(1)
			if p.recorder != nil {
				p.recorder.RecordDispatchDropped()
			}
			p.logger.Debug("dispatch: queue full, call dropped", "module", j.module)
			return ErrQueueFull
		}
	}

	select {
	case p.ch <- j:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Submit queues d on p and returns its Future.
//
// ctx bounds both the wait for queue space and the call itself. A non-nil
// error means the call was never queued.
func Submit[T any](ctx context.Context, p *Pool, module string, d Dispatcher[T]) (*Future[T], error) {
	if ctx == nil {
		ctx = context.Background()
	}

	f := newFuture[T]()
	j := job{
		id:     f.id,
		module: module,
		ctx:    ctx,
		run: func(ctx context.Context) error {
			v, err := d.Call(ctx)
			err = wrap(module, err)
			f.resolve(v, err)
			return err
		},
		abort: func(err error) {
			var zero T
			f.resolve(zero, err)
		},
	}

	if err := p.submit(ctx, j); err != nil {
		return nil, wrap(module, err)
	}
	return f, nil
}

// Close stops intake, runs every queued call and waits for the workers. It is safe to call more than once.
func (p *Pool) Close() {
	if p == nil {
		return
	}
	p.once.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.done)
		p.mu.Unlock()
		p.wg.Wait()
	})
}

// Dropped returns the number of calls rejected with [ErrQueueFull].
func (p *Pool) Dropped() uint64 {
	if p == nil {
		return 0
	}
	return p.dropped.Load()
}

// Pending returns the number of queued calls not yet picked up by a worker.
func (p *Pool) Pending() int {
	if p == nil {
		return 0
	}
	return len(p.ch)
}
