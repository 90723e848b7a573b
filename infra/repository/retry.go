package repository

import (
	"context"
	"log/slog"
	"time"

	"github.com/amirasaad/ledgercore/infra/repository/common"
	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy controls how transient store errors are retried.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy makes three attempts, waiting 100ms then 200ms.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: 100 * time.Millisecond, MaxDelay: 2 * time.Second}
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BaseDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = p.MaxDelay
	b.MaxElapsedTime = 0
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx)
}

// Retry runs op, retrying only errors classified as transient. Any other
// error is returned at once. The last transient error is returned when
// attempts run out.
func Retry(ctx context.Context, policy RetryPolicy, logger *slog.Logger, op func() error) error {
	if logger == nil {
		logger = slog.Default()
	}
	attempt := 0
	return backoff.RetryNotify(
		func() error {
			attempt++
			err := op()
			if err == nil {
				return nil
			}
			if !common.IsTransient(err) {
				return backoff.Permanent(err)
			}
			return err
		},
		policy.backOff(ctx),
		func(err error, wait time.Duration) {
			logger.Warn("⏳ transient store error, retrying",
				"attempt", attempt,
				"max_attempts", policy.MaxAttempts,
				"wait", wait,
				"error", err,
			)
		},
	)
}
