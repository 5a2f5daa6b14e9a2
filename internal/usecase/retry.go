package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
)

// RetryPolicy bounds retries of order store calls.
type RetryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
	// Timeout applies to every single attempt.
	Timeout time.Duration
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	b := backoff.NewExponentialBackOff()
	if p.BaseDelay > 0 {
		b.InitialInterval = p.BaseDelay
	}
	b.Multiplier = 2
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx)
}

// retryStore runs op until it succeeds, fails permanently or attempts run out.
// Only store outages are retried; every other error is returned as is.
func retryStore[T any](ctx context.Context, p RetryPolicy, op func(context.Context) (T, error)) (T, error) {
	return backoff.RetryWithData(func() (T, error) {
		callCtx := ctx
		if p.Timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, p.Timeout)
			defer cancel()
		}

		v, err := op(callCtx)
		switch {
		case err == nil:
			return v, nil
		case errors.Is(err, domainErrors.ErrStoreUnavailable):
			return v, err
		case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
			return v, fmt.Errorf("%w: %v", domainErrors.ErrStoreUnavailable, err)
		default:
			return v, backoff.Permanent(err)
		}
	}, p.backOff(ctx))
}
