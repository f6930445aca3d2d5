package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tourney-api/internal/domain"
)

func fastOpts() Options {
	return Options{MaxRetries: 3, BackoffBase: time.Millisecond, AttemptTimeout: 50 * time.Millisecond}
}

func TestDoWith_SucceedsFirstTry(t *testing.T) {
	calls := 0
	err := DoWith(context.Background(), fastOpts(), func(ctx context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoWith_RetriesTransientThenSucceeds(t *testing.T) {
	calls := 0
	err := DoWith(context.Background(), fastOpts(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return fmt.Errorf("throttled: %w", domain.ErrStoreUnavailable)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoWith_ExhaustsRetries(t *testing.T) {
	calls := 0
	err := DoWith(context.Background(), fastOpts(), func(ctx context.Context) error {
		calls++
		return fmt.Errorf("down: %w", domain.ErrStoreUnavailable)
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrStoreUnavailable))
	assert.Equal(t, 4, calls) // initial attempt + 3 retries
}

func TestDoWith_PermissionErrorNotRetried(t *testing.T) {
	calls := 0
	err := DoWith(context.Background(), fastOpts(), func(ctx context.Context) error {
		calls++
		return fmt.Errorf("denied: %w", domain.ErrPermissionDenied)
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrPermissionDenied))
	assert.Equal(t, 1, calls)
}

func TestDoWith_NonTransientErrorNotRetried(t *testing.T) {
	calls := 0
	sentinel := errors.New("boom")
	err := DoWith(context.Background(), fastOpts(), func(ctx context.Context) error {
		calls++
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, calls)
}

func TestDoWith_AttemptTimeoutRetriedAndSurfacedAsStoreUnavailable(t *testing.T) {
	opts := Options{MaxRetries: 1, BackoffBase: time.Millisecond, AttemptTimeout: 10 * time.Millisecond}
	calls := 0
	err := DoWith(context.Background(), opts, func(ctx context.Context) error {
		calls++
		<-ctx.Done()
		return ctx.Err()
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrStoreUnavailable))
	assert.Equal(t, 2, calls)
}
