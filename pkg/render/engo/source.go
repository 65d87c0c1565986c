package engo

import (
	"github.com/opd-ai/go-arena/pkg/engine"
	"github.com/opd-ai/go-arena/pkg/network"
	"github.com/opd-ai/go-arena/pkg/physics"
)

// maxCatchUp bounds the ticks run for one slow frame
const maxCatchUp = 5

// Source supplies the frames the viewer draws. Frame advances the source
// by dt seconds; ok is false when there is nothing to draw yet.
type Source interface {
	Frame(dt float64, withCells bool) (snap engine.Snapshot, cells []physics.Box2D, ok bool)
}

// LocalSource runs a world in process at a fixed step
type LocalSource struct {
	world  *engine.World
	step   float64
	acc    float64
	onTick func(*engine.World)
}

// NewLocalSource steps world tickRate times per second of frame time.
// onTick, if set, runs after every tick.
func NewLocalSource(world *engine.World, tickRate float64, onTick func(*engine.World)) *LocalSource {
	return &LocalSource{world: world, step: 1 / tickRate, onTick: onTick}
}

// Frame implements Source. Time beyond maxCatchUp steps is dropped.
func (l *LocalSource) Frame(dt float64, withCells bool) (engine.Snapshot, []physics.Box2D, bool) {
	l.acc += dt
	for n := 0; l.acc >= l.step && n < maxCatchUp; n++ {
		l.world.Tick(l.step)
		l.acc -= l.step
		if l.onTick != nil {
			l.onTick(l.world)
		}
	}
	if l.acc >= l.step {
		l.acc = 0
	}

	var cells []physics.Box2D
	if withCells {
		cells = l.world.DebugQuadTreeCells()
	}
	return l.world.Snapshot(), cells, true
}

// latestFrame is the part of network.FrameClient RemoteSource reads
type latestFrame interface {
	Latest() (network.Frame, bool)
}

// RemoteSource draws the newest frame received from a stream. Frames do
// not carry the quad-tree, so cells are never returned.
type RemoteSource struct {
	client latestFrame
}

// NewRemoteSource wraps a connected client
func NewRemoteSource(client latestFrame) *RemoteSource {
	return &RemoteSource{client: client}
}

// Frame implements Source; dt is ignored, the stream sets the pace
func (r *RemoteSource) Frame(dt float64, withCells bool) (engine.Snapshot, []physics.Box2D, bool) {
	f, ok := r.client.Latest()
	if !ok {
		return engine.Snapshot{}, nil, false
	}
	return f.Snapshot(), nil, true
}
