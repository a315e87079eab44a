package meli

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/donaldgifford/meli-collector/internal/metrics"
)

// RetryPolicy controls how failed API calls are retried. Every failure,
// including translated HTTP errors, is retried unless it is listed in
// GiveUpOn or can never succeed (missing token, daily quota exhausted).
type RetryPolicy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64

	// MaxAttempts caps the total number of attempts. Zero means unbounded.
	MaxAttempts int
	// MaxElapsedTime caps the total time spent retrying. Zero means unbounded.
	MaxElapsedTime time.Duration

	// GiveUpOn lists HTTP status codes that are returned immediately
	// instead of being retried.
	GiveUpOn []int
}

// DefaultRetryPolicy waits 2s, doubling up to 30s, and never gives up.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		InitialInterval: 2 * time.Second,
		MaxInterval:     30 * time.Second,
		Multiplier:      2,
	}
}

// Unbounded reports whether the policy can retry forever.
func (p RetryPolicy) Unbounded() bool {
	return p.MaxAttempts <= 0 && p.MaxElapsedTime <= 0
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.InitialInterval
	eb.MaxInterval = p.MaxInterval
	eb.Multiplier = p.Multiplier
	eb.RandomizationFactor = 0
	eb.MaxElapsedTime = p.MaxElapsedTime

	var b backoff.BackOff = eb
	if p.MaxAttempts > 0 {
		b = backoff.WithMaxRetries(b, uint64(p.MaxAttempts-1))
	}
	return backoff.WithContext(b, ctx)
}

// permanent reports whether err must not be retried. Only ctx decides
// cancellation: http.Client timeouts also match context.DeadlineExceeded.
func (p RetryPolicy) permanent(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	if errors.Is(err, ErrDailyLimitReached) || errors.Is(err, ErrNoToken) {
		return true
	}
	code := StatusCode(err)
	return code != 0 && slices.Contains(p.GiveUpOn, code)
}

// withRetry runs op until it succeeds, the policy stops, or ctx is done.
func withRetry[T any](
	ctx context.Context,
	p RetryPolicy,
	log *slog.Logger,
	endpoint string,
	op func() (T, error),
) (T, error) {
	attempt := 0

	operation := func() (T, error) {
		attempt++
		res, err := op()
		if err != nil && p.permanent(ctx, err) {
			return res, backoff.Permanent(err)
		}
		return res, err
	}

	notify := func(err error, wait time.Duration) {
		metrics.APIRetriesTotal.WithLabelValues(endpoint).Inc()
		log.Warn("marketplace call failed, retrying",
			"endpoint", endpoint,
			"attempt", attempt,
			"wait", wait,
			"error", err,
		)
	}

	return backoff.RetryNotifyWithData(operation, p.backOff(ctx), notify)
}
