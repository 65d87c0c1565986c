// pkg/resource/health.go
package resource

import (
	"context"
	"fmt"
)

// ResourceHealthCheck fails on memory over the limit or goroutines above
// 80% of theirs. Any recovered panic also fails it.
type ResourceHealthCheck struct {
	manager *ResourceManager
}

// NewResourceHealthCheck creates a new health check for the resource manager.
func NewResourceHealthCheck(manager *ResourceManager) *ResourceHealthCheck {
	return &ResourceHealthCheck{manager: manager}
}

// Name returns the name of this health check.
func (r *ResourceHealthCheck) Name() string {
	return "resource"
}

// Check re-samples memory, then inspects the stats
func (r *ResourceHealthCheck) Check(ctx context.Context) error {
	if err := r.manager.CheckMemoryUsage(); err != nil {
		return err
	}
	stats := r.manager.Stats()

	if stats.MaxGoroutines > 0 {
		threshold := stats.MaxGoroutines * 8 / 10
		if stats.GoroutineCount > threshold {
			return fmt.Errorf("goroutine count %d exceeds 80%% threshold (%d/%d)",
				stats.GoroutineCount, threshold, stats.MaxGoroutines)
		}
	}
	if stats.Panics > 0 {
		return fmt.Errorf("%d background goroutines panicked", stats.Panics)
	}
	return nil
}
