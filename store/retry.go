package store

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sicko7947/wldstore"
)

// RetryConfig controls how RetryBackend retries failed calls
type RetryConfig struct {
	MaxRetries int
	RetryDelay time.Duration
	Backoff    wldstore.BackoffStrategy
}

// DefaultRetryConfig retries three times with exponential backoff from 50ms
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		RetryDelay: 50 * time.Millisecond,
		Backoff:    wldstore.BackoffExponential,
	}
}

// RetryBackend retries transient failures of another backend.
// Quota errors and context cancellation are returned immediately.
type RetryBackend struct {
	next   wldstore.Backend
	config RetryConfig
	logger zerolog.Logger
}

var _ wldstore.Backend = (*RetryBackend)(nil)

// MaxRetryLimit is the most retries NewRetryBackend accepts
const MaxRetryLimit = 10

// NewRetryBackend wraps next. MaxRetries is clamped to [0, MaxRetryLimit].
func NewRetryBackend(next wldstore.Backend, config RetryConfig, logger zerolog.Logger) *RetryBackend {
	config.MaxRetries = min(max(config.MaxRetries, 0), MaxRetryLimit)
	return &RetryBackend{
		next:   next,
		config: config,
		logger: logger.With().Str("component", "retry_backend").Logger(),
	}
}

// Unwrap returns the wrapped backend
func (r *RetryBackend) Unwrap() wldstore.Backend {
	return r.next
}

func (r *RetryBackend) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	var found bool
	err := r.do(ctx, "get", key, func() error {
		var err error
		value, found, err = r.next.Get(ctx, key)
		return err
	})
	return value, found, err
}

func (r *RetryBackend) Set(ctx context.Context, key, value string) error {
	return r.do(ctx, "set", key, func() error {
		return r.next.Set(ctx, key, value)
	})
}

func (r *RetryBackend) Delete(ctx context.Context, key string) error {
	return r.do(ctx, "delete", key, func() error {
		return r.next.Delete(ctx, key)
	})
}

func (r *RetryBackend) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := r.do(ctx, "keys", prefix, func() error {
		var err error
		keys, err = r.next.Keys(ctx, prefix)
		return err
	})
	return keys, err
}

func (r *RetryBackend) do(ctx context.Context, op, key string, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		if attempt > 0 {
			r.logger.Warn().
				Err(lastErr).
				Str("op", op).
				Str("key", key).
				Int("attempt", attempt).
				Msg("Retrying backend call")

			if delay := wldstore.CalculateBackoff(r.config.RetryDelay, attempt, r.config.Backoff); delay > 0 {
				timer := time.NewTimer(delay)
				select {
				case <-ctx.Done():
					timer.Stop()
					return ctx.Err()
				case <-timer.C:
				}
			}
		}

		lastErr = fn()
		if lastErr == nil || !retryable(ctx, lastErr) {
			return lastErr
		}
	}
	return lastErr
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	return !errors.Is(err, wldstore.ErrQuotaExceeded) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}
