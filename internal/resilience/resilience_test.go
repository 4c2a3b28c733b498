package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errScrape = errors.New("scrape failed")

func TestBreakers_TripPerProgram(t *testing.T) {
	b := NewBreakers(DefaultBreakerConfig(), nil)

	for i := 0; i < 5; i++ {
		err := b.Execute("united", func() error { return errScrape })
		require.ErrorIs(t, err, errScrape)
	}
	assert.Equal(t, gobreaker.StateOpen, b.State("united"))

	calls := 0
	err := b.Execute("united", func() error { calls++; return nil })
	assert.True(t, IsOpen(err))
	assert.Zero(t, calls)

	require.NoError(t, b.Execute("aeroplan", func() error { return nil }))
	assert.Equal(t, gobreaker.StateClosed, b.State("aeroplan"))

	states := b.States()
	assert.Equal(t, "open", states["united"])
	assert.Equal(t, "closed", states["aeroplan"])
}

func TestBreakers_CancellationIsNotFailure(t *testing.T) {
	b := NewBreakers(DefaultBreakerConfig(), nil)
	for i := 0; i < 10; i++ {
		_ = b.Execute("delta", func() error { return context.Canceled })
	}
	assert.Equal(t, gobreaker.StateClosed, b.State("delta"))
}

func TestBreakers_HalfOpenRecovers(t *testing.T) {
	cfg := DefaultBreakerConfig()
	cfg.Timeout = 20 * time.Millisecond
	cfg.MinRequests = 1
	cfg.FailureRatio = 1
	b := NewBreakers(cfg, nil)

	_ = b.Execute("ana", func() error { return errScrape })
	require.Equal(t, gobreaker.StateOpen, b.State("ana"))

	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, gobreaker.StateHalfOpen, b.State("ana"))
	for i := 0; i < int(cfg.MaxRequests); i++ {
		require.NoError(t, b.Execute("ana", func() error { return nil }))
	}
	assert.Equal(t, gobreaker.StateClosed, b.State("ana"))
}

func TestRetry(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 2, RetryDelays: []time.Duration{time.Millisecond}}
	always := func(error) bool { return true }

	t.Run("succeeds after transient failures", func(t *testing.T) {
		attempts := 0
		err := Retry(context.Background(), cfg, always, func(context.Context) error {
			attempts++
			if attempts < 3 {
				return errScrape
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		attempts := 0
		err := Retry(context.Background(), cfg, always, func(context.Context) error {
			attempts++
			return errScrape
		})
		assert.ErrorIs(t, err, errScrape)
		assert.Equal(t, 3, attempts)
	})

	t.Run("non-retryable stops immediately", func(t *testing.T) {
		attempts := 0
		err := Retry(context.Background(), cfg, func(error) bool { return false }, func(context.Context) error {
			attempts++
			return errScrape
		})
		assert.ErrorIs(t, err, errScrape)
		assert.Equal(t, 1, attempts)
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		attempts := 0
		err := Retry(ctx, cfg, always, func(context.Context) error {
			attempts++
			return nil
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, attempts)
	})
}
