package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestResilience() *ResilienceManager {
	m := NewResilienceManager(zap.NewNop())
	m.InitialInterval = time.Millisecond
	m.MaxInterval = 2 * time.Millisecond
	return m
}

func TestRunRetriesUntilSuccess(t *testing.T) {
	m := newTestResilience()

	calls := 0
	res, err := m.Run(context.Background(), "boto3", func(context.Context) (*TaskResult, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("throttled")
		}
		return &TaskResult{Status: "success"}, nil
	}, RunOptions{MaxRetries: 3})

	require.NoError(t, err)
	assert.Equal(t, "success", res.Status)
	assert.Equal(t, 3, calls)
}

func TestRunExhaustsRetries(t *testing.T) {
	m := newTestResilience()

	calls := 0
	_, err := m.Run(context.Background(), "boto3", func(context.Context) (*TaskResult, error) {
		calls++
		return nil, errors.New("still failing")
	}, RunOptions{MaxRetries: 2})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestRunCancelledContextIsPermanent(t *testing.T) {
	m := newTestResilience()

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := m.Run(ctx, "boto3", func(context.Context) (*TaskResult, error) {
		calls++
		cancel()
		return nil, errors.New("interrupted")
	}, RunOptions{MaxRetries: 5})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestCircuitBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	m := newTestResilience()
	m.FailureThreshold = 3
	m.Cooldown = time.Minute

	fail := func(context.Context) (*TaskResult, error) {
		return nil, errors.New("backend down")
	}
	opts := RunOptions{MaxRetries: 0, UseCircuitBreaker: true}

	for i := 0; i < 3; i++ {
		_, err := m.Run(context.Background(), "terraform", fail, opts)
		require.Error(t, err)
	}

	// Breaker is now open: the operation is not even attempted.
	calls := 0
	_, err := m.Run(context.Background(), "terraform", func(context.Context) (*TaskResult, error) {
		calls++
		return &TaskResult{Status: "success"}, nil
	}, opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker open")
	assert.Equal(t, 0, calls)
}

func TestCircuitBreakerIsPerKey(t *testing.T) {
	m := newTestResilience()
	m.FailureThreshold = 1
	m.Cooldown = time.Minute
	opts := RunOptions{MaxRetries: 0, UseCircuitBreaker: true}

	_, err := m.Run(context.Background(), "terraform", func(context.Context) (*TaskResult, error) {
		return nil, errors.New("backend down")
	}, opts)
	require.Error(t, err)

	// terraform's open breaker must not affect boto3.
	res, err := m.Run(context.Background(), "boto3", func(context.Context) (*TaskResult, error) {
		return &TaskResult{Status: "success"}, nil
	}, opts)
	require.NoError(t, err)
	assert.Equal(t, "success", res.Status)
}

func TestSuccessResetsFailureCount(t *testing.T) {
	m := newTestResilience()
	m.FailureThreshold = 2
	m.Cooldown = time.Minute
	opts := RunOptions{MaxRetries: 0, UseCircuitBreaker: true}

	fail := func(context.Context) (*TaskResult, error) { return nil, errors.New("backend down") }
	ok := func(context.Context) (*TaskResult, error) { return &TaskResult{Status: "success"}, nil }

	_, _ = m.Run(context.Background(), "boto3", fail, opts)
	_, err := m.Run(context.Background(), "boto3", ok, opts)
	require.NoError(t, err)
	_, _ = m.Run(context.Background(), "boto3", fail, opts)

	// One failure, success, one failure: never two consecutive, breaker stays
	// closed.
	res, err := m.Run(context.Background(), "boto3", ok, opts)
	require.NoError(t, err)
	assert.Equal(t, "success", res.Status)
}

func TestPerAttemptTimeout(t *testing.T) {
	m := newTestResilience()

	_, err := m.Run(context.Background(), "boto3", func(ctx context.Context) (*TaskResult, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Second):
			return &TaskResult{Status: "success"}, nil
		}
	}, RunOptions{MaxRetries: 1, Timeout: 10 * time.Millisecond})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
