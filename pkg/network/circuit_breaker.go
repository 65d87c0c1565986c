// Package network streams world snapshots to viewers over TCP. Frame
// writes go through a circuit breaker per viewer so one stuck viewer is
// dropped instead of stalling the others.
package network

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/opd-ai/go-arena/pkg/config"
	"github.com/opd-ai/go-arena/pkg/logging"
)

// Guard wraps network operations with a circuit breaker. After
// MaxConsecutiveFailures failed operations it opens and rejects calls
// until the breaker timeout elapses.
type Guard struct {
	breaker *gobreaker.CircuitBreaker
	logger  *logging.Logger
}

// Operation is one network call; it returns an error on failure
type Operation func() error

// NewGuard creates a guard named name. A nil logger discards.
func NewGuard(name string, cfg config.CircuitBreakerConfig, logger *logging.Logger) *Guard {
	if logger == nil {
		logger = logging.Discard()
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    time.Duration(cfg.IntervalSeconds) * time.Second,
		Timeout:     time.Duration(cfg.TimeoutSeconds) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info(context.Background(), "circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &Guard{
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  logger,
	}
}

// Execute runs op through the breaker. An open breaker fails immediately
// with gobreaker.ErrOpenState.
func (g *Guard) Execute(ctx context.Context, op Operation) error {
	_, err := g.breaker.Execute(func() (interface{}, error) {
		return nil, op()
	})
	if err != nil {
		return fmt.Errorf("circuit breaker: %w", err)
	}
	return nil
}

// ExecuteWithRetry runs op up to attempts times, waiting attempt*baseDelay
// between tries. It gives up early once the breaker opens.
func (g *Guard) ExecuteWithRetry(ctx context.Context, op Operation, attempts int, baseDelay time.Duration) error {
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = g.Execute(ctx, op); err == nil {
			return nil
		}
		if g.Open() {
			g.logger.Warn(ctx, "circuit breaker is open, skipping retries",
				"attempt", attempt,
				"max_retries", attempts,
			)
			return err
		}
		if attempt == attempts {
			break
		}

		delay := time.Duration(attempt) * baseDelay
		g.logger.Warn(ctx, "operation failed, retrying",
			"attempt", attempt,
			"max_retries", attempts,
			"delay", delay.String(),
			"error", err.Error(),
		)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		}
	}
	return fmt.Errorf("max retries (%d) exceeded: %w", attempts, err)
}

// Open reports whether the breaker currently rejects calls
func (g *Guard) Open() bool {
	return g.breaker.State() == gobreaker.StateOpen
}

// State returns the current state of the circuit breaker.
func (g *Guard) State() gobreaker.State {
	return g.breaker.State()
}

// Counts returns the failure and success counts of the current interval
func (g *Guard) Counts() gobreaker.Counts {
	return g.breaker.Counts()
}
