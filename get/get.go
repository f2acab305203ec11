package get

import (
	"context"
	"errors"
)

var (
	// ErrNotSet reports a missing key in a source.
	ErrNotSet = errors.New("value not set")
	// ErrConvert reports a raw value that cannot be converted to the requested type.
	ErrConvert = errors.New("value conversion failed")
	// ErrUnsupportedType reports a target type no converter exists for.
	ErrUnsupportedType = errors.New("unsupported value type")
)

// Getter yields a single value.
type Getter[T any] interface {
	Get() T
}

// Loader yields a single value from a source that may fail.
type Loader[T any] interface {
	Load(ctx context.Context) (T, error)
}

// Func adapts a plain function to [Getter].
type Func[T any] func() T

// Get calls f.
func (f Func[T]) Get() T {
	return f()
}

// LoaderFunc adapts a plain function to [Loader].
type LoaderFunc[T any] func(ctx context.Context) (T, error)

// Load calls f.
func (f LoaderFunc[T]) Load(ctx context.Context) (T, error) {
	return f(ctx)
}

type constant[T any] struct {
	v T
}

func (c constant[T]) Get() T {
	return c.v
}

// Value returns a Getter that always yields v.
func Value[T any](v T) Getter[T] {
	return constant[T]{v: v}
}

// Default returns a Getter that yields the zero value of T.
func Default[T any]() Getter[T] {
	return constant[T]{}
}

// Must returns a Getter that loads from l with a background context and
// panics when loading fails.
func Must[T any](l Loader[T]) Getter[T] {
	return Func[T](func() T {
		v, err := l.Load(context.Background())
		if err != nil {
			panic(err)
		}
		return v
	})
}

// Or returns a Loader that falls back to def when l reports [ErrNotSet].
// Other errors are passed through.
func Or[T any](l Loader[T], def T) Loader[T] {
	return LoaderFunc[T](func(ctx context.Context) (T, error) {
		v, err := l.Load(ctx)
		if errors.Is(err, ErrNotSet) {
			return def, nil
		}
		return v, err
	})
}
