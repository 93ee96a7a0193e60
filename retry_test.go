package tutasdk

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestDefaultRetryConfig(t *testing.T) {
	cfg := DefaultRetryConfig()

	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.MaxRetries)
	}
	if cfg.BaseDelay != time.Second {
		t.Errorf("BaseDelay = %v, want 1s", cfg.BaseDelay)
	}
	if cfg.MaxDelay != 30*time.Second {
		t.Errorf("MaxDelay = %v, want 30s", cfg.MaxDelay)
	}
	if cfg.Multiplier != 2.0 {
		t.Errorf("Multiplier = %v, want 2.0", cfg.Multiplier)
	}
	if cfg.Jitter != 0.2 {
		t.Errorf("Jitter = %v, want 0.2", cfg.Jitter)
	}
	if cfg.RetryableOn == nil {
		t.Error("RetryableOn is nil")
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"network error", &NetworkError{Err: errors.New("connection reset")}, true},
		{"wrapped network error", fmt.Errorf("load: %w", &NetworkError{Err: errors.New("eof")}), true},
		{"408", &ServerResponseError{Status: 408}, true},
		{"429", &ServerResponseError{Status: 429}, true},
		{"500", &ServerResponseError{Status: 500}, true},
		{"502", &ServerResponseError{Status: 502}, true},
		{"503", &ServerResponseError{Status: 503}, true},
		{"504", &ServerResponseError{Status: 504}, true},
		{"400", &ServerResponseError{Status: 400}, false},
		{"401", &ServerResponseError{Status: 401}, false},
		{"404", &ServerResponseError{Status: 404}, false},
		{"507", &ServerResponseError{Status: 507}, false},
		{"decryption", &DecryptionError{Field: "subject"}, false},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRetryConfig_ShouldRetry(t *testing.T) {
	cfg := DefaultRetryConfig()
	unavailable := &ServerResponseError{Status: 503}

	tests := []struct {
		name     string
		attempt  int
		err      error
		expected bool
	}{
		{"first attempt, retryable", 0, unavailable, true},
		{"third attempt, retryable", 2, unavailable, true},
		{"max attempts reached", 3, unavailable, false},
		{"over max attempts", 4, unavailable, false},
		{"non-retryable status", 0, &ServerResponseError{Status: 400}, false},
		{"success", 0, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := cfg.ShouldRetry(tt.attempt, tt.err)
			if result != tt.expected {
				t.Errorf("ShouldRetry(%d, %v) = %v, want %v",
					tt.attempt, tt.err, result, tt.expected)
			}
		})
	}
}

func TestRetryConfig_Delay(t *testing.T) {
	cfg := &RetryConfig{
		BaseDelay:  time.Second,
		MaxDelay:   30 * time.Second,
		Multiplier: 2.0,
	}

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second}, // 32s capped
		{6, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			delay := cfg.Delay(tt.attempt)
			if delay != tt.expected {
				t.Errorf("Delay(%d) = %v, want %v", tt.attempt, delay, tt.expected)
			}
		})
	}
}

func TestRetryConfig_Delay_WithJitter(t *testing.T) {
	cfg := &RetryConfig{
		BaseDelay:  time.Second,
		MaxDelay:   30 * time.Second,
		Multiplier: 2.0,
		Jitter:     0.5,
	}

	for i := 0; i < 100; i++ {
		delay := cfg.Delay(0)
		if delay < 500*time.Millisecond || delay > 1500*time.Millisecond {
			t.Errorf("Delay(0) = %v, expected between 500ms and 1.5s", delay)
		}
	}
}

func TestRetryConfig_Wait_ContextCancellation(t *testing.T) {
	cfg := &RetryConfig{
		BaseDelay:  10 * time.Second,
		MaxDelay:   30 * time.Second,
		Multiplier: 2.0,
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := cfg.Wait(ctx, 0)
	elapsed := time.Since(start)

	if err != context.Canceled {
		t.Errorf("Wait() error = %v, want context.Canceled", err)
	}
	if elapsed > 200*time.Millisecond {
		t.Errorf("Wait() took too long after cancellation: %v", elapsed)
	}
}

func fastRetry(maxRetries int) *RetryConfig {
	return &RetryConfig{
		MaxRetries: maxRetries,
		BaseDelay:  time.Millisecond,
		MaxDelay:   5 * time.Millisecond,
		Multiplier: 2.0,
	}
}

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	got, err := Retry(context.Background(), fastRetry(3), func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", &ServerResponseError{Status: 503}
		}
		return "ok", nil
	})

	if err != nil {
		t.Fatalf("Retry() error = %v", err)
	}
	if got != "ok" {
		t.Errorf("Retry() = %q, want %q", got, "ok")
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetry_StopsOnPermanentError(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), fastRetry(3), func(context.Context) (int, error) {
		calls++
		return 0, &ServerResponseError{Status: 404}
	})

	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Retry() error = %v, want ErrNotFound", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetry_GivesUpAfterMaxRetries(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), fastRetry(2), func(context.Context) (int, error) {
		calls++
		return 0, &NetworkError{Err: errors.New("connection refused")}
	})

	if !errors.Is(err, ErrNoConnectivity) {
		t.Errorf("Retry() error = %v, want ErrNoConnectivity", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetry_ContextCanceledReturnsLastError(t *testing.T) {
	cfg := &RetryConfig{MaxRetries: 5, BaseDelay: time.Minute, MaxDelay: time.Minute, Multiplier: 1}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	calls := 0
	_, err := Retry(ctx, cfg, func(context.Context) (int, error) {
		calls++
		return 0, &ServerResponseError{Status: 429}
	})

	if !errors.Is(err, ErrTooManyRequests) {
		t.Errorf("Retry() error = %v, want ErrTooManyRequests", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryConfig_CustomRetryableOn(t *testing.T) {
	cfg := &RetryConfig{
		MaxRetries: 3,
		RetryableOn: func(err error) bool {
			return errors.Is(err, ErrLocked)
		},
	}

	if !cfg.ShouldRetry(0, &ServerResponseError{Status: 423}) {
		t.Error("ShouldRetry(0, 423) = false, want true")
	}
	if cfg.ShouldRetry(0, &ServerResponseError{Status: 503}) {
		t.Error("ShouldRetry(0, 503) = true, want false")
	}
}
