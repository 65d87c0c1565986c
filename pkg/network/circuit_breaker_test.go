package network

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"

	"github.com/opd-ai/go-arena/pkg/config"
)

func breakerConfig(maxFailures uint32) config.CircuitBreakerConfig {
	return config.CircuitBreakerConfig{
		MaxRequests:            1,
		IntervalSeconds:        60,
		TimeoutSeconds:         1,
		MaxConsecutiveFailures: maxFailures,
	}
}

func TestGuard_Execute(t *testing.T) {
	g := NewGuard("test", breakerConfig(5), nil)
	ctx := context.Background()

	if err := g.Execute(ctx, func() error { return nil }); err != nil {
		t.Errorf("Execute() error = %v", err)
	}

	testError := errors.New("test error")
	if err := g.Execute(ctx, func() error { return testError }); !errors.Is(err, testError) {
		t.Errorf("Execute() error = %v, want wrapped %v", err, testError)
	}
	if g.State() != gobreaker.StateClosed {
		t.Errorf("state after one failure = %v, want closed", g.State())
	}

	counts := g.Counts()
	if counts.TotalSuccesses != 1 || counts.TotalFailures != 1 {
		t.Errorf("Counts() = %+v", counts)
	}
}

func TestGuard_TripAndRecover(t *testing.T) {
	g := NewGuard("test", breakerConfig(3), nil)
	ctx := context.Background()
	testError := errors.New("test failure")

	for i := 0; i < 3; i++ {
		if err := g.Execute(ctx, func() error { return testError }); err == nil {
			t.Fatalf("attempt %d succeeded", i+1)
		}
	}
	if !g.Open() {
		t.Fatalf("state after 3 failures = %v, want open", g.State())
	}

	err := g.Execute(ctx, func() error {
		t.Error("operation ran while the breaker was open")
		return nil
	})
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("Execute() on open breaker error = %v", err)
	}

	time.Sleep(1100 * time.Millisecond)
	if err := g.Execute(ctx, func() error { return nil }); err != nil {
		t.Errorf("half-open probe error = %v", err)
	}
	if g.State() != gobreaker.StateClosed {
		t.Errorf("state after successful probe = %v, want closed", g.State())
	}
}

func TestGuard_ExecuteWithRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("eventual_success", func(t *testing.T) {
		g := NewGuard("test", breakerConfig(10), nil)
		attempt := 0
		err := g.ExecuteWithRetry(ctx, func() error {
			attempt++
			if attempt < 3 {
				return errors.New("temporary failure")
			}
			return nil
		}, 3, time.Millisecond)

		if err != nil {
			t.Errorf("ExecuteWithRetry() error = %v", err)
		}
		if attempt != 3 {
			t.Errorf("attempts = %d, want 3", attempt)
		}
	})

	t.Run("all_retries_fail", func(t *testing.T) {
		g := NewGuard("test", breakerConfig(10), nil)
		attempt := 0
		err := g.ExecuteWithRetry(ctx, func() error {
			attempt++
			return errors.New("persistent failure")
		}, 3, time.Millisecond)

		if err == nil {
			t.Error("ExecuteWithRetry() error = nil")
		}
		if attempt != 3 {
			t.Errorf("attempts = %d, want 3", attempt)
		}
	})

	t.Run("stops_when_open", func(t *testing.T) {
		g := NewGuard("test", breakerConfig(2), nil)
		attempt := 0
		err := g.ExecuteWithRetry(ctx, func() error {
			attempt++
			return errors.New("failure")
		}, 5, time.Millisecond)

		if err == nil {
			t.Error("ExecuteWithRetry() error = nil")
		}
		if attempt != 2 {
			t.Errorf("attempts = %d, want 2", attempt)
		}
	})

	t.Run("context_cancellation", func(t *testing.T) {
		g := NewGuard("test", breakerConfig(10), nil)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := g.ExecuteWithRetry(ctx, func() error {
			return errors.New("failure")
		}, 3, time.Second)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("ExecuteWithRetry() error = %v, want context.Canceled", err)
		}
	})
}
