package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"stockmeta/internal/domain"
	"stockmeta/internal/providers"
)

// linearBackOff waits Base * (n+1) before retry n.
type linearBackOff struct {
	policy  providers.Policy
	attempt int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	d := b.policy.Delay(b.attempt)
	b.attempt++
	return d
}

func (b *linearBackOff) Reset() {
	b.attempt = 0
}

// newBackOff builds the Tier 1 schedule for p, capped at p.Retries retries.
func newBackOff(ctx context.Context, p providers.Policy) backoff.BackOff {
	var b backoff.BackOff
	switch p.Backoff {
	case providers.BackoffFixed:
		b = backoff.NewConstantBackOff(p.BackoffBase)
	case providers.BackoffLinear:
		b = &linearBackOff{policy: p}
	default:
		expo := backoff.NewExponentialBackOff()
		expo.InitialInterval = p.BackoffBase
		expo.Multiplier = 2
		expo.RandomizationFactor = 0
		expo.MaxInterval = time.Hour
		expo.MaxElapsedTime = 0
		b = expo
	}
	retries := p.Retries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
}

// retry runs op until it succeeds, fails fatally, the budget is spent or the
// run is stopped. An in-flight attempt always completes; a stop seen before an
// attempt prevents it.
func retry(ctx context.Context, p providers.Policy, timer backoff.Timer, op func() error, notify func(error, time.Duration)) error {
	var last error
	wrapped := func() error {
		if Stopped(ctx) {
			return backoff.Permanent(errors.Join(domain.ErrStopped, last))
		}
		err := op()
		if err == nil {
			return nil
		}
		last = err
		if providers.Classify(err) == providers.OutcomeFatal {
			return backoff.Permanent(err)
		}
		if Stopped(ctx) {
			return backoff.Permanent(errors.Join(domain.ErrStopped, err))
		}
		return err
	}
	return backoff.RetryNotifyWithTimer(wrapped, newBackOff(ctx, p), notify, timer)
}
