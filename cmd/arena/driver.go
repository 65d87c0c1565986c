package main

import (
	"context"
	"time"

	"github.com/opd-ai/go-arena/pkg/engine"
	"github.com/opd-ai/go-arena/pkg/health"
	"github.com/opd-ai/go-arena/pkg/logging"
	"github.com/opd-ai/go-arena/pkg/network"
	"github.com/opd-ai/go-arena/pkg/physics"
	"github.com/opd-ai/go-arena/pkg/render"
)

// driver runs the world at a fixed step and fans each tick out to the
// renderer, the frame stream and the health progress
type driver struct {
	world    *engine.World
	logger   *logging.Logger
	progress *health.Progress

	tickRate   int
	maxTicks   uint64
	fast       bool // tick back to back instead of in real time
	frameEvery int

	renderer  render.Renderer
	showCells bool
	stream    *network.FrameServer
}

// run ticks until ctx ends or maxTicks is reached
func (d *driver) run(ctx context.Context) error {
	step := time.Second / time.Duration(d.tickRate)

	var ticker *time.Ticker
	if !d.fast {
		ticker = time.NewTicker(step)
		defer ticker.Stop()
	}

	for d.maxTicks == 0 || d.world.CurrentTick() < d.maxTicks {
		if ticker != nil {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		} else if ctx.Err() != nil {
			return nil
		}

		if err := d.step(ctx); err != nil {
			return err
		}
	}
	return nil
}

// step advances one tick and publishes the result
func (d *driver) step(ctx context.Context) error {
	d.world.Tick(1 / float64(d.tickRate))
	tick := d.world.CurrentTick()

	nonFinite := d.world.NonFinite()
	d.progress.Observe(tick, d.world.Alive(), len(nonFinite))
	if len(nonFinite) > 0 {
		d.logger.Warn(ctx, "bodies hold non-finite state", "tick", tick, "ids", nonFinite)
	}

	if d.frameEvery > 1 && tick%uint64(d.frameEvery) != 0 {
		return nil
	}

	snap := d.world.Snapshot()
	if d.stream != nil {
		if err := d.stream.Broadcast(snap); err != nil {
			d.logger.Warn(ctx, "broadcasting frame failed", "tick", tick, "error", err.Error())
		}
	}
	if d.renderer != nil {
		var cells []physics.Box2D
		if d.showCells {
			cells = d.world.DebugQuadTreeCells()
		}
		if err := render.Draw(d.renderer, snap, cells); err != nil {
			return logging.WrapError(err, "rendering frame at tick %d", tick)
		}
	}
	return nil
}
