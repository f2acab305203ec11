package kit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/synthonyx/kit/dispatch"
	"github.com/synthonyx/kit/password"
)

const (
	moduleHash   = "password.hash"
	moduleVerify = "password.verify"
)

// Kit bundles a configured password hasher with the worker pool used for
// asynchronous hashing and the metrics both report into.
//
// Kit instances are intended to be configured during initialization and then treated as immutable.
type Kit struct {
	config  Config
	hasher  *password.Argon2
	pool    *dispatch.Pool
	metrics *Metrics
	logger  *slog.Logger
	closed  atomic.Bool
}

// Config returns the validated configuration the kit was built with.
func (k *Kit) Config() Config {
	return k.config
}

// Hasher returns the shared Argon2id hasher.
func (k *Kit) Hasher() *password.Argon2 {
	return k.hasher
}

// Pool returns the dispatch pool. Callers may submit their own calls to it.
func (k *Kit) Pool() *dispatch.Pool {
	return k.pool
}

// Metrics returns the kit metrics registry.
func (k *Kit) Metrics() *Metrics {
	return k.metrics
}

// NewCredential describes the newcredential operation and its observable behavior.
//
// NewCredential hashes plaintext with the kit's parameters on the calling goroutine.
func (k *Kit) NewCredential(plaintext string) (*password.Credential, error) {
	if k.closed.Load() {
		return nil, ErrKitClosed
	}
	return k.hasher.NewCredential(plaintext)
}

// ImportCredential wraps a stored hash and binds it to the kit's hasher, so
// [password.Credential.Upgrade] rehashes to the kit's parameters.
func (k *Kit) ImportCredential(encoded string) *password.Credential {
	return k.hasher.Import(encoded)
}

// HashAsync describes the hashasync operation and its observable behavior.
//
// HashAsync creates a credential on the dispatch pool. A non-nil error means the
// call was never queued; failures of the hash itself surface from the Future as
// a [*dispatch.Error].
func (k *Kit) HashAsync(ctx context.Context, plaintext string) (*dispatch.Future[*password.Credential], error) {
	if k.closed.Load() {
		return nil, ErrKitClosed
	}
	f, err := dispatch.Submit[*password.Credential](ctx, k.pool, moduleHash, dispatch.Func[*password.Credential](
		func(context.Context) (*password.Credential, error) {
			return k.hasher.NewCredential(plaintext)
		},
	))
	return f, submitErr(err)
}

// VerifyAsync checks password against cred on the dispatch pool.
func (k *Kit) VerifyAsync(ctx context.Context, cred password.Checker, plaintext string) (*dispatch.Future[bool], error) {
	if k.closed.Load() {
		return nil, ErrKitClosed
	}
	f, err := dispatch.Submit[bool](ctx, k.pool, moduleVerify, dispatch.Func[bool](
		func(context.Context) (bool, error) {
			return cred.Verify(plaintext)
		},
	))
	return f, submitErr(err)
}

// submitErr reports a pool closed underneath the kit as ErrKitClosed.
func submitErr(err error) error {
	if errors.Is(err, dispatch.ErrClosed) {
		return fmt.Errorf("%w: %w", ErrKitClosed, err)
	}
	return err
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
func (k *Kit) MetricsSnapshot() MetricsSnapshot {
	return k.metrics.Snapshot()
}

// DispatchDropped returns the number of asynchronous calls rejected by a full queue.
func (k *Kit) DispatchDropped() uint64 {
	return k.pool.Dropped()
}

// Close describes the close operation and its observable behavior.
//
// Close stops intake, waits for queued calls to finish and is safe to call more than once.
func (k *Kit) Close() {
	if k == nil || !k.closed.CompareAndSwap(false, true) {
		return
	}
	k.pool.Close()
	k.logger.Debug("kit: closed", "dispatch_dropped", k.pool.Dropped())
}
