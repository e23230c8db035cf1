// Package retry runs model calls with bounded retry-with-rotation over the
// shared credential pool.
package retry

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/proposal-writer/internal/keypool"
	"github.com/jonathan/proposal-writer/internal/observability"
)

// DefaultAttemptTimeout bounds a single model call.
const DefaultAttemptTimeout = 60 * time.Second

// Work is one unit of work run against the credential leased for the attempt.
// It is invoked afresh on every attempt.
type Work[T any] func(ctx context.Context, cred keypool.Credential) (T, error)

// Options configures an Executor. Zero values select defaults.
type Options struct {
	Classifier     *keypool.Classifier
	AttemptTimeout time.Duration
	Logger         *zap.Logger
	Metrics        *observability.Metrics
}

// Executor holds the collaborators shared by every retried call. It keeps no
// state of its own between calls.
type Executor struct {
	pool           keypool.Pool
	classifier     *keypool.Classifier
	attemptTimeout time.Duration
	logger         *zap.Logger
	metrics        *observability.Metrics
}

// NewExecutor creates an Executor over pool.
func NewExecutor(pool keypool.Pool, opts Options) *Executor {
	if opts.Classifier == nil {
		opts.Classifier = keypool.NewClassifier(nil)
	}
	if opts.AttemptTimeout == 0 {
		opts.AttemptTimeout = DefaultAttemptTimeout
	}
	return &Executor{
		pool:           pool,
		classifier:     opts.Classifier,
		attemptTimeout: opts.AttemptTimeout,
		logger:         observability.OrNop(opts.Logger),
		metrics:        opts.Metrics,
	}
}

// Pool returns the credential pool the executor draws from.
func (e *Executor) Pool() keypool.Pool {
	return e.pool
}

// Execute runs work with one attempt per credential in the pool.
func Execute[T any](ctx context.Context, e *Executor, op string, work Work[T]) (T, error) {
	return ExecuteN(ctx, e, op, 0, work)
}

// ExecuteN runs work up to maxAttempts times. A non-positive maxAttempts means
// the pool size. Quota errors rotate to the next credential and retry; any
// other error, or a quota error that rotation cannot help, is returned as-is.
func ExecuteN[T any](ctx context.Context, e *Executor, op string, maxAttempts int, work Work[T]) (T, error) {
	var zero T

	if maxAttempts <= 0 {
		maxAttempts = e.pool.Size()
	}
	if maxAttempts <= 0 {
		// Empty pool: surface the pool's own error.
		if _, err := e.pool.Current(); err != nil {
			return zero, err
		}
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		lease, err := e.pool.Current()
		if err != nil {
			return zero, err
		}

		start := time.Now()
		result, err := runAttempt(ctx, e.attemptTimeout, lease.Credential, work)
		if err == nil {
			e.metrics.ObserveModelCall(op, observability.OutcomeSuccess, time.Since(start))
			if attempt > 1 {
				e.logger.Info("model call succeeded after rotation",
					zap.String("op", op),
					zap.Int("attempt", attempt),
					zap.Int("key_index", lease.Index))
			}
			return result, nil
		}
		lastErr = err

		quota := e.classifier.IsQuotaError(err)
		outcome := observability.OutcomeError
		if quota {
			outcome = observability.OutcomeQuota
		}
		e.metrics.ObserveModelCall(op, outcome, time.Since(start))

		if attempt == maxAttempts {
			e.logger.Warn("model call failed on final attempt",
				zap.String("op", op),
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", maxAttempts),
				zap.Bool("quota", quota),
				zap.Error(err))
			return zero, err
		}

		if !quota {
			e.logger.Debug("model call failed with non-quota error",
				zap.String("op", op),
				zap.Int("attempt", attempt),
				zap.Error(err))
			return zero, err
		}

		if !e.pool.RotateFrom(lease.Index) {
			e.logger.Warn("quota exhausted and no alternate key available",
				zap.String("op", op),
				zap.Int("key_index", lease.Index),
				zap.String("key", keypool.Mask(lease.Credential)),
				zap.Error(err))
			return zero, err
		}

		e.logger.Info("quota error, rotated API key",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", maxAttempts),
			zap.Int("from_index", lease.Index),
			zap.String("from_key", keypool.Mask(lease.Credential)))
	}

	return zero, lastErr
}

// runAttempt invokes work once under the per-attempt timeout.
func runAttempt[T any](ctx context.Context, timeout time.Duration, cred keypool.Credential, work Work[T]) (T, error) {
	if timeout <= 0 {
		return work(ctx, cred)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return work(attemptCtx, cred)
}
