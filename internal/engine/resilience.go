package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// RunOptions configures one resilient operation.
type RunOptions struct {
	MaxRetries        uint64
	UseCircuitBreaker bool
	Timeout           time.Duration
}

// breakerState tracks consecutive failures for one breaker key.
type breakerState struct {
	consecutiveFailures int
	openUntil           time.Time
}

// ResilienceManager wraps operations with exponential-backoff retries, a
// per-attempt timeout and a per-key circuit breaker. Keys are task types, so
// a run of terraform failures stops hitting terraform without affecting
// boto3 tasks.
type ResilienceManager struct {
	mu       sync.Mutex
	breakers map[string]*breakerState

	// FailureThreshold consecutive failures open a breaker for Cooldown.
	FailureThreshold int
	Cooldown         time.Duration

	InitialInterval time.Duration
	MaxInterval     time.Duration

	log *zap.SugaredLogger
}

// NewResilienceManager creates a manager with the default breaker settings.
func NewResilienceManager(logger *zap.Logger) *ResilienceManager {
	return &ResilienceManager{
		breakers:         make(map[string]*breakerState),
		FailureThreshold: 5,
		Cooldown:         30 * time.Second,
		InitialInterval:  500 * time.Millisecond,
		MaxInterval:      10 * time.Second,
		log:              logger.Sugar(),
	}
}

// Run executes op with bounded retries. Each attempt gets its own timeout.
// When the breaker for key is open, the call fails immediately.
func (m *ResilienceManager) Run(ctx context.Context, key string, op func(ctx context.Context) (*TaskResult, error), opts RunOptions) (*TaskResult, error) {
	if opts.UseCircuitBreaker {
		if until, open := m.breakerOpen(key); open {
			return nil, fmt.Errorf("circuit breaker open for %q until %s", key, until.Format(time.RFC3339))
		}
	}

	var result *TaskResult
	attempt := func() error {
		attemptCtx := ctx
		if opts.Timeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
			defer cancel()
		}

		res, err := op(attemptCtx)
		if err != nil {
			if ctx.Err() != nil {
				// The caller is gone; retrying cannot help.
				return backoff.Permanent(err)
			}
			return err
		}
		result = res
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = m.InitialInterval
	bo.MaxInterval = m.MaxInterval
	bo.MaxElapsedTime = 0

	err := backoff.Retry(attempt, backoff.WithContext(backoff.WithMaxRetries(bo, opts.MaxRetries), ctx))

	if opts.UseCircuitBreaker {
		m.record(key, err == nil)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (m *ResilienceManager) breakerOpen(key string) (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.breakers[key]
	if !ok {
		return time.Time{}, false
	}
	if time.Now().Before(b.openUntil) {
		return b.openUntil, true
	}
	return time.Time{}, false
}

func (m *ResilienceManager) record(key string, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.breakers[key]
	if !ok {
		b = &breakerState{}
		m.breakers[key] = b
	}

	if success {
		b.consecutiveFailures = 0
		return
	}

	b.consecutiveFailures++
	if b.consecutiveFailures >= m.FailureThreshold {
		b.openUntil = time.Now().Add(m.Cooldown)
		b.consecutiveFailures = 0
		m.log.Warnw("circuit breaker opened", "key", key, "cooldown", m.Cooldown)
	}
}
