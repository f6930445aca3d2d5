package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	goretry "github.com/sethvargo/go-retry"
	"github.com/tourney-api/internal/domain"
)

// Options control a retried operation. Zero values fall back to the
// defaults below.
type Options struct {
	MaxRetries     uint64
	BackoffBase    time.Duration // doubles per attempt: base, 2*base, 4*base...
	AttemptTimeout time.Duration // each attempt races this deadline
}

const (
	defaultMaxRetries     = 3
	defaultBackoffBase    = 2 * time.Second
	defaultAttemptTimeout = 5 * time.Second
)

// Do runs op with the default retry policy: up to 3 retries, exponential
// backoff (2s, 4s, 8s), 5s per-attempt timeout. Only transient store errors
// and per-attempt timeouts are retried; domain.ErrPermissionDenied and all
// other errors propagate immediately. Callers that want a safe default on
// permission errors apply it at the call site.
func Do(ctx context.Context, op func(context.Context) error) error {
	return DoWith(ctx, Options{}, op)
}

// DoWith is Do with an explicit policy.
func DoWith(ctx context.Context, opts Options, op func(context.Context) error) error {
	if opts.MaxRetries == 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.BackoffBase == 0 {
		opts.BackoffBase = defaultBackoffBase
	}
	if opts.AttemptTimeout == 0 {
		opts.AttemptTimeout = defaultAttemptTimeout
	}

	backoff := goretry.WithMaxRetries(opts.MaxRetries, goretry.NewExponential(opts.BackoffBase))
	err := goretry.Do(ctx, backoff, func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, opts.AttemptTimeout)
		defer cancel()
		if err := op(attemptCtx); err != nil {
			if retryable(err) {
				return goretry.RetryableError(err)
			}
			return err
		}
		return nil
	})
	if err != nil && retryable(err) && !errors.Is(err, domain.ErrStoreUnavailable) {
		// Per-attempt timeouts exhausted: surface as a connectivity failure,
		// distinguishable from business errors.
		return fmt.Errorf("operation timed out after retries: %w", domain.ErrStoreUnavailable)
	}
	return err
}

func retryable(err error) bool {
	return errors.Is(err, domain.ErrStoreUnavailable) ||
		errors.Is(err, context.DeadlineExceeded)
}
