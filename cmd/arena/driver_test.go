package main

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/opd-ai/go-arena/pkg/config"
	"github.com/opd-ai/go-arena/pkg/engine"
	"github.com/opd-ai/go-arena/pkg/health"
	"github.com/opd-ai/go-arena/pkg/logging"
	"github.com/opd-ai/go-arena/pkg/network"
	"github.com/opd-ai/go-arena/pkg/physics"
	"github.com/opd-ai/go-arena/pkg/render"
)

func testDriver(t *testing.T, maxTicks uint64, frameEvery int) *driver {
	t.Helper()
	world, err := engine.NewWorldFromConfig(config.DefaultConfig())
	if err != nil {
		t.Fatalf("NewWorldFromConfig() error = %v", err)
	}
	return &driver{
		world:      world,
		logger:     logging.Discard(),
		progress:   &health.Progress{},
		tickRate:   60,
		maxTicks:   maxTicks,
		fast:       true,
		frameEvery: frameEvery,
	}
}

func TestDriver_RunsToMaxTicks(t *testing.T) {
	tests := []struct {
		name       string
		maxTicks   uint64
		frameEvery int
		wantFrames int
	}{
		{name: "every_tick", maxTicks: 6, frameEvery: 1, wantFrames: 6},
		{name: "every_other_tick", maxTicks: 10, frameEvery: 2, wantFrames: 5},
		{name: "unset_frame_rate_draws_every_tick", maxTicks: 4, frameEvery: 0, wantFrames: 4},
		{name: "uneven", maxTicks: 7, frameEvery: 3, wantFrames: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := testDriver(t, tt.maxTicks, tt.frameEvery)
			null := render.NewNullRenderer(nil)
			d.renderer = null

			if err := d.run(context.Background()); err != nil {
				t.Fatalf("run() error = %v", err)
			}
			if got := d.world.CurrentTick(); got != tt.maxTicks {
				t.Errorf("CurrentTick() = %d, want %d", got, tt.maxTicks)
			}
			if got := null.Frames(); got != tt.wantFrames {
				t.Errorf("Frames() = %d, want %d", got, tt.wantFrames)
			}

			tick, alive, nonFinite, at := d.progress.Last()
			if tick != tt.maxTicks || at.IsZero() {
				t.Errorf("progress = tick %d at %v, want tick %d", tick, at, tt.maxTicks)
			}
			if alive != d.world.Alive() || nonFinite != 0 {
				t.Errorf("progress alive = %d nonFinite = %d, want %d and 0", alive, nonFinite, d.world.Alive())
			}
		})
	}
}

func TestDriver_RealTime(t *testing.T) {
	d := testDriver(t, 3, 1)
	d.tickRate = 200
	d.fast = false

	start := time.Now()
	if err := d.run(context.Background()); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 10*time.Millisecond {
		t.Errorf("3 ticks at 200Hz took %v, want at least 10ms", elapsed)
	}
	if got := d.world.CurrentTick(); got != 3 {
		t.Errorf("CurrentTick() = %d, want 3", got)
	}
}

func TestDriver_StopsOnCancel(t *testing.T) {
	for _, fast := range []bool{true, false} {
		name := "real_time"
		if fast {
			name = "fast"
		}
		t.Run(name, func(t *testing.T) {
			d := testDriver(t, 0, 1)
			d.fast = fast

			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			if err := d.run(ctx); err != nil {
				t.Fatalf("run() error = %v", err)
			}
			if got := d.world.CurrentTick(); got != 0 {
				t.Errorf("CurrentTick() = %d, want 0", got)
			}
		})
	}
}

// failingRenderer fails every Present
type failingRenderer struct{ render.NullRenderer }

func (failingRenderer) Present() error { return errors.New("display gone") }

func TestDriver_RenderErrorStopsRun(t *testing.T) {
	d := testDriver(t, 10, 1)
	d.renderer = &failingRenderer{NullRenderer: *render.NewNullRenderer(nil)}

	err := d.run(context.Background())
	if err == nil {
		t.Fatal("run() error = nil, want render failure")
	}
	if !strings.Contains(err.Error(), "rendering frame at tick 1") || !strings.Contains(err.Error(), "display gone") {
		t.Errorf("run() error = %q", err)
	}
	if got := d.world.CurrentTick(); got != 1 {
		t.Errorf("CurrentTick() = %d, want 1", got)
	}
}

func TestDriver_CellsOnlyWhenShown(t *testing.T) {
	for _, show := range []bool{false, true} {
		d := testDriver(t, 1, 1)
		d.showCells = show
		rec := &cellCounter{NullRenderer: *render.NewNullRenderer(nil)}
		d.renderer = rec

		if err := d.run(context.Background()); err != nil {
			t.Fatalf("run() error = %v", err)
		}
		if got := rec.cells > 0; got != show {
			t.Errorf("showCells = %v drew %d cells", show, rec.cells)
		}
	}
}

type cellCounter struct {
	render.NullRenderer
	cells int
}

func (c *cellCounter) DrawCell(physics.Box2D) { c.cells++ }

func TestDriver_StreamsFrames(t *testing.T) {
	cfg := config.DefaultConfig().Stream
	cfg.Address = "127.0.0.1:0"

	server := network.NewFrameServer(cfg, network.Hello{RunID: "driver", Width: 800, Height: 600, TickRate: 60}, nil)
	if err := server.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	client, err := network.Dial(ctx, server.Addr(), cfg.CircuitBreaker, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer client.Close()
	go client.Run(ctx)

	deadline := time.Now().Add(time.Second)
	for server.Viewers() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("viewer never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	d := testDriver(t, 4, cfg.FrameEvery)
	d.stream = server
	if err := d.run(context.Background()); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	deadline = time.Now().Add(time.Second)
	for {
		if f, ok := client.Latest(); ok && f.Tick == 4 {
			if len(f.Bodies) != d.world.Alive() {
				t.Errorf("frame has %d bodies, want %d", len(f.Bodies), d.world.Alive())
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("client never received the tick 4 frame")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
