package dispatch

import (
	"context"
	"errors"
)

var (
	// ErrQueueFull reports a submission rejected because the pool buffer is full.
	ErrQueueFull = errors.New("dispatch queue full")
	// ErrClosed reports a submission to a closed or nil pool.
	ErrClosed = errors.New("dispatch pool closed")
	// ErrPanic reports a call that panicked on a worker.
	ErrPanic = errors.New("dispatch call panicked")
)

// Error carries the module that issued a failed call.
type Error struct {
	Module string
	Err    error
}

func (e *Error) Error() string {
	if e.Module == "" {
		return "dispatch: " + e.Err.Error()
	}
	return "dispatch " + e.Module + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrap(module string, err error) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) && de.Module == module {
		return err
	}
	return &Error{Module: module, Err: err}
}

// Dispatcher performs one call synchronously.
type Dispatcher[T any] interface {
	Call(ctx context.Context) (T, error)
}

// AsyncDispatcher starts one call and returns a handle to its result.
type AsyncDispatcher[T any] interface {
	CallAsync(ctx context.Context) (*Future[T], error)
}

// Func adapts a function to [Dispatcher].
type Func[T any] func(ctx context.Context) (T, error)

// Call invokes f.
func (f Func[T]) Call(ctx context.Context) (T, error) {
	return f(ctx)
}

type named[T any] struct {
	module string
	d      Dispatcher[T]
}

func (n named[T]) Call(ctx context.Context) (T, error) {
	v, err := n.d.Call(ctx)
	return v, wrap(n.module, err)
}

// Named returns a Dispatcher whose failures are reported as [*Error] for module.
func Named[T any](module string, d Dispatcher[T]) Dispatcher[T] {
	return named[T]{module: module, d: d}
}

type async[T any] struct {
	pool   *Pool
	module string
	d      Dispatcher[T]
}

func (a async[T]) CallAsync(ctx context.Context) (*Future[T], error) {
	return Submit(ctx, a.pool, a.module, a.d)
}

// Async returns an AsyncDispatcher running d on p.
func Async[T any](p *Pool, module string, d Dispatcher[T]) AsyncDispatcher[T] {
	return async[T]{pool: p, module: module, d: d}
}
