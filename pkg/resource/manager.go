// pkg/resource/manager.go
package resource

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opd-ai/go-arena/pkg/config"
	"github.com/opd-ai/go-arena/pkg/logging"
)

// ErrGoroutineLimit is returned by StartGoroutine when the limit is reached
var ErrGoroutineLimit = errors.New("goroutine limit exceeded")

// ResourceManager runs the background goroutines of an arena process
// against a limit and recovers their panics. It also samples the heap.
// Shutdown waits for every tracked goroutine.
type ResourceManager struct {
	maxMemoryMB     int64
	maxGoroutines   int64
	shutdownTimeout time.Duration
	checkInterval   time.Duration

	goroutineCount atomic.Int64
	memoryUsageMB  atomic.Int64
	panics         atomic.Int64
	readMemoryMB   func() int64

	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	mu        sync.RWMutex
	running   bool
	lastCheck time.Time
	logger    *logging.Logger
}

// NewResourceManager creates a manager for cfg. A nil logger discards.
func NewResourceManager(cfg config.ResourceConfig, logger *logging.Logger) *ResourceManager {
	if logger == nil {
		logger = logging.Discard()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &ResourceManager{
		maxMemoryMB:     cfg.MaxMemoryMB,
		maxGoroutines:   int64(cfg.MaxGoroutines),
		shutdownTimeout: time.Duration(cfg.ShutdownTimeoutSeconds) * time.Second,
		checkInterval:   time.Duration(cfg.CheckIntervalSeconds) * time.Second,
		readMemoryMB:    heapMB,
		ctx:             ctx,
		cancel:          cancel,
		done:            make(chan struct{}),
		logger:          logger,
	}
}

func heapMB() int64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return int64(m.Alloc / 1024 / 1024)
}

// Start begins the periodic memory check
func (rm *ResourceManager) Start() error {
	rm.mu.Lock()
	if rm.running {
		rm.mu.Unlock()
		return fmt.Errorf("resource manager already running")
	}
	rm.running = true
	rm.mu.Unlock()

	go rm.monitoringLoop()

	rm.logger.Info(rm.ctx, "Resource manager started",
		"max_memory_mb", rm.maxMemoryMB,
		"max_goroutines", rm.maxGoroutines,
		"check_interval", rm.checkInterval.String(),
	)
	return nil
}

// StartGoroutine runs fn in a tracked goroutine. A panic in fn is logged
// and counted instead of crashing the process.
func (rm *ResourceManager) StartGoroutine(ctx context.Context, name string, fn func(context.Context)) error {
	n := rm.goroutineCount.Add(1)
	if rm.maxGoroutines > 0 && n > rm.maxGoroutines {
		rm.goroutineCount.Add(-1)
		rm.logger.Warn(ctx, "Goroutine limit exceeded",
			"limit", rm.maxGoroutines,
			"name", name,
		)
		return fmt.Errorf("%w: %d/%d starting %s", ErrGoroutineLimit, n-1, rm.maxGoroutines, name)
	}

	go func() {
		defer rm.goroutineCount.Add(-1)
		defer func() {
			if r := recover(); r != nil {
				rm.panics.Add(1)
				rm.logger.Error(ctx, "Goroutine panic", fmt.Errorf("panic: %v", r), "name", name)
			}
		}()
		fn(ctx)
	}()
	return nil
}

// CheckMemoryUsage samples the heap and fails when it is over the limit
func (rm *ResourceManager) CheckMemoryUsage() error {
	current := rm.readMemoryMB()
	rm.memoryUsageMB.Store(current)
	rm.mu.Lock()
	rm.lastCheck = time.Now()
	rm.mu.Unlock()

	if rm.maxMemoryMB > 0 && current > rm.maxMemoryMB {
		return fmt.Errorf("memory usage %dMB exceeds limit %dMB", current, rm.maxMemoryMB)
	}
	return nil
}

// ResourceStats contains resource usage statistics.
type ResourceStats struct {
	GoroutineCount int64     `json:"goroutine_count"`
	MaxGoroutines  int64     `json:"max_goroutines"`
	MemoryUsageMB  int64     `json:"memory_usage_mb"`
	MaxMemoryMB    int64     `json:"max_memory_mb"`
	Panics         int64     `json:"panics"`
	LastCheck      time.Time `json:"last_check"`
}

// Stats returns current resource usage. MemoryUsageMB is the last sample.
func (rm *ResourceManager) Stats() ResourceStats {
	rm.mu.RLock()
	last := rm.lastCheck
	rm.mu.RUnlock()
	return ResourceStats{
		GoroutineCount: rm.goroutineCount.Load(),
		MaxGoroutines:  rm.maxGoroutines,
		MemoryUsageMB:  rm.memoryUsageMB.Load(),
		MaxMemoryMB:    rm.maxMemoryMB,
		Panics:         rm.panics.Load(),
		LastCheck:      last,
	}
}

// Shutdown stops the memory check and waits up to the shutdown timeout
// for tracked goroutines to return. Callers must first make them return,
// usually by cancelling the context they were started with.
func (rm *ResourceManager) Shutdown(ctx context.Context) error {
	rm.mu.Lock()
	wasRunning := rm.running
	rm.running = false
	rm.mu.Unlock()

	rm.cancel()

	shutdownCtx, cancel := context.WithTimeout(ctx, rm.shutdownTimeout)
	defer cancel()

	if wasRunning {
		select {
		case <-rm.done:
		case <-shutdownCtx.Done():
			rm.logger.Warn(ctx, "Resource monitoring loop did not stop gracefully")
		}
	}
	return rm.waitForGoroutines(shutdownCtx)
}

func (rm *ResourceManager) waitForGoroutines(ctx context.Context) error {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		count := rm.goroutineCount.Load()
		if count == 0 {
			rm.logger.Debug(ctx, "All tracked goroutines finished")
			return nil
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			rm.logger.Warn(ctx, "Shutdown timeout exceeded with goroutines still running",
				"remaining", count,
			)
			return fmt.Errorf("shutdown timeout: %d goroutines still running", count)
		}
	}
}

func (rm *ResourceManager) monitoringLoop() {
	defer close(rm.done)

	ticker := time.NewTicker(rm.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := rm.CheckMemoryUsage(); err != nil {
				rm.logger.Error(rm.ctx, "Memory limit exceeded", err)
			}
			rm.logger.Debug(rm.ctx, "Resource usage check",
				"goroutines", rm.goroutineCount.Load(),
				"memory_mb", rm.memoryUsageMB.Load(),
			)
		case <-rm.ctx.Done():
			return
		}
	}
}
