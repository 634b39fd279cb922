package assessor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(3, 2, 50*time.Millisecond)

	require.NoError(t, cb.Allow())
	cb.RecordFailure()
	cb.RecordFailure()
	assert.Equal(t, CircuitClosed, cb.State())

	cb.RecordFailure()
	assert.Equal(t, CircuitOpen, cb.State())
	assert.ErrorIs(t, cb.Allow(), ErrCircuitOpen)
}

func TestCircuitBreakerRecoversThroughHalfOpen(t *testing.T) {
	cb := NewCircuitBreaker(1, 2, 10*time.Millisecond)

	cb.RecordFailure()
	require.Equal(t, CircuitOpen, cb.State())

	// After the open timeout the next Allow transitions to half-open
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, cb.Allow())
	assert.Equal(t, CircuitHalfOpen, cb.State())

	cb.RecordSuccess()
	assert.Equal(t, CircuitHalfOpen, cb.State())
	cb.RecordSuccess()
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreakerReopensOnHalfOpenFailure(t *testing.T) {
	cb := NewCircuitBreaker(1, 2, 10*time.Millisecond)
	cb.RecordFailure()
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, cb.Allow())
	require.Equal(t, CircuitHalfOpen, cb.State())

	cb.RecordFailure()
	assert.Equal(t, CircuitOpen, cb.State())
}

func TestIsRetriableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"deadline", context.DeadlineExceeded, true},
		{"rate limit", errors.New("429 Too Many Requests"), true},
		{"server error", errors.New("500 internal server error"), true},
		{"bad gateway", errors.New("502 bad gateway"), true},
		{"connection reset", errors.New("read tcp: connection reset by peer"), true},
		{"auth failure", errors.New("401 unauthorized"), false},
		{"bad request", errors.New("400 invalid request body"), false},
		{"unknown", errors.New("something odd"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetriableError(tt.err))
		})
	}
}

func TestRetryWithBackoffGivesUpAfterMaxRetries(t *testing.T) {
	c := &Claude{
		retry: RetryConfig{
			MaxRetries:        2,
			InitialBackoff:    time.Millisecond,
			MaxBackoff:        2 * time.Millisecond,
			BackoffMultiplier: 2.0,
			Timeout:           time.Second,
		},
	}

	calls := 0
	err := c.retryWithBackoff(context.Background(), "test", func(context.Context) error {
		calls++
		return errors.New("503 service unavailable")
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls) // initial attempt + 2 retries
}

func TestRetryWithBackoffStopsOnNonRetriable(t *testing.T) {
	c := &Claude{
		retry: RetryConfig{
			MaxRetries:        3,
			InitialBackoff:    time.Millisecond,
			MaxBackoff:        2 * time.Millisecond,
			BackoffMultiplier: 2.0,
			Timeout:           time.Second,
		},
	}

	calls := 0
	err := c.retryWithBackoff(context.Background(), "test", func(context.Context) error {
		calls++
		return errors.New("401 unauthorized")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryWithBackoffSucceedsAfterTransientFailure(t *testing.T) {
	c := &Claude{
		retry: RetryConfig{
			MaxRetries:        3,
			InitialBackoff:    time.Millisecond,
			MaxBackoff:        2 * time.Millisecond,
			BackoffMultiplier: 2.0,
			Timeout:           time.Second,
		},
	}

	calls := 0
	err := c.retryWithBackoff(context.Background(), "test", func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("429 rate limit")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}
