package dispatch

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Future is the pending result of an asynchronous call.
type Future[T any] struct {
	id   uuid.UUID
	once sync.Once
	done chan struct{}
	val  T
	err  error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{
		id:   uuid.New(),
		done: make(chan struct{}),
	}
}

// ID identifies the call in logs.
func (f *Future[T]) ID() uuid.UUID {
	return f.id
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the call finishes or ctx ends. Abandoning a Future does not cancel its call.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// resolve publishes the first result it is given; later calls are ignored.
func (f *Future[T]) resolve(v T, err error) {
	f.once.Do(func() {
		f.val, f.err = v, err
		close(f.done)
	})
}
