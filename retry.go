package tutasdk

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// RetryConfig configures the opt-in retry helper. The SDK itself never
// retries; wrap idempotent reads in Retry to get backoff.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts.
	MaxRetries int
	// BaseDelay is the initial delay between retry attempts.
	BaseDelay time.Duration
	// MaxDelay is the maximum delay between retry attempts.
	MaxDelay time.Duration
	// Multiplier is the factor by which the delay increases after each attempt.
	Multiplier float64
	// Jitter is the randomization factor (0.0 to 1.0) added to delays.
	Jitter float64
	// RetryableOn determines if an error should trigger a retry.
	RetryableOn func(err error) bool
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:  3,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
		Multiplier:  2.0,
		Jitter:      0.2,
		RetryableOn: IsTransient,
	}
}

// IsTransient reports whether err is a network failure or a server
// response that is worth retrying (408, 429, 500, 502, 503 or 504).
func IsTransient(err error) bool {
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return true
	}
	var respErr *ServerResponseError
	if errors.As(err, &respErr) {
		switch respErr.Status {
		case 408, 429, 500, 502, 503, 504:
			return true
		}
	}
	return false
}

// ShouldRetry determines if a failed call should be retried.
func (r *RetryConfig) ShouldRetry(attempt int, err error) bool {
	if err == nil || attempt >= r.MaxRetries {
		return false
	}
	if r.RetryableOn == nil {
		return IsTransient(err)
	}
	return r.RetryableOn(err)
}

// Delay calculates the delay before the next retry attempt with optional jitter.
func (r *RetryConfig) Delay(attempt int) time.Duration {
	delay := float64(r.BaseDelay) * math.Pow(r.Multiplier, float64(attempt))
	if delay > float64(r.MaxDelay) {
		delay = float64(r.MaxDelay)
	}

	if r.Jitter > 0 {
		jitterAmount := delay * r.Jitter
		delay = delay - jitterAmount + (rand.Float64() * 2 * jitterAmount)
	}

	return time.Duration(delay)
}

// Wait waits for the appropriate delay before retrying.
func (r *RetryConfig) Wait(ctx context.Context, attempt int) error {
	timer := time.NewTimer(r.Delay(attempt))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Retry calls fn until it succeeds, fails with an error cfg does not retry,
// runs out of attempts or ctx is done. A nil cfg uses DefaultRetryConfig.
// The last error of fn is returned.
func Retry[T any](ctx context.Context, cfg *RetryConfig, fn func(context.Context) (T, error)) (T, error) {
	if cfg == nil {
		cfg = DefaultRetryConfig()
	}
	for attempt := 0; ; attempt++ {
		result, err := fn(ctx)
		if !cfg.ShouldRetry(attempt, err) {
			return result, err
		}
		if waitErr := cfg.Wait(ctx, attempt); waitErr != nil {
			return result, err
		}
	}
}
