package httpx_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/visionpr/reviewer/internal/adapter/httpx"
)

func fastRetryConfig() httpx.RetryConfig {
	return httpx.RetryConfig{
		MaxRetries:     3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2.0,
	}
}

func TestDefaultRetryConfig(t *testing.T) {
	config := httpx.DefaultRetryConfig()
	assert.Equal(t, 5, config.MaxRetries)
	assert.Equal(t, 2*time.Second, config.InitialBackoff)
	assert.Equal(t, 32*time.Second, config.MaxBackoff)
	assert.Equal(t, 2.0, config.Multiplier)
}

func TestParseRetryConfig(t *testing.T) {
	config := httpx.ParseRetryConfig(2, "100ms", "1s", 3.0)
	assert.Equal(t, 2, config.MaxRetries)
	assert.Equal(t, 100*time.Millisecond, config.InitialBackoff)
	assert.Equal(t, time.Second, config.MaxBackoff)
	assert.Equal(t, 3.0, config.Multiplier)

	// Unparseable strings keep the defaults.
	config = httpx.ParseRetryConfig(-1, "soon", "later", 0)
	assert.Equal(t, httpx.DefaultRetryConfig(), config)
}

func TestExponentialBackoffStaysWithinJitterBounds(t *testing.T) {
	config := httpx.DefaultRetryConfig()
	tests := []struct {
		attempt int
		min     time.Duration
		max     time.Duration
	}{
		{0, 1500 * time.Millisecond, 2500 * time.Millisecond},
		{1, 3 * time.Second, 5 * time.Second},
		{2, 6 * time.Second, 10 * time.Second},
		{10, 24 * time.Second, 32 * time.Second}, // capped
	}
	for _, tt := range tests {
		for i := 0; i < 20; i++ {
			wait := httpx.ExponentialBackoff(tt.attempt, config)
			assert.GreaterOrEqual(t, wait, tt.min, "attempt %d", tt.attempt)
			assert.LessOrEqual(t, wait, tt.max, "attempt %d", tt.attempt)
		}
	}
}

func TestRetryWithBackoffSucceedsAfterRetryableErrors(t *testing.T) {
	calls := 0
	err := httpx.RetryWithBackoff(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return httpx.MapStatusError("github", 503, "flaky")
		}
		return nil
	}, fastRetryConfig())

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryWithBackoffStopsOnNonRetryable(t *testing.T) {
	calls := 0
	err := httpx.RetryWithBackoff(context.Background(), func(ctx context.Context) error {
		calls++
		return httpx.MapStatusError("github", 401, "bad token")
	}, fastRetryConfig())

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryWithBackoffExhaustsRetries(t *testing.T) {
	calls := 0
	err := httpx.RetryWithBackoff(context.Background(), func(ctx context.Context) error {
		calls++
		return httpx.MapStatusError("github", 429, "rate limited")
	}, fastRetryConfig())

	require.Error(t, err)
	assert.Equal(t, 4, calls) // initial attempt + 3 retries
}

func TestRetryWithBackoffHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := httpx.RetryWithBackoff(ctx, func(ctx context.Context) error {
		t.Fatal("operation ran with a cancelled context")
		return nil
	}, fastRetryConfig())

	assert.True(t, errors.Is(err, context.Canceled))
}

func TestShouldRetryGenericErrors(t *testing.T) {
	assert.False(t, httpx.ShouldRetry(nil))
	assert.False(t, httpx.ShouldRetry(errors.New("plain failure")))
	assert.True(t, httpx.ShouldRetry(httpx.NewTimeoutError("openai", "slow")))
}
