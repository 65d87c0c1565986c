// pkg/render/engo/scene.go
package engo

import (
	"context"
	"image/color"

	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"
	"github.com/EngoEngine/engo/common"

	"github.com/opd-ai/go-arena/pkg/logging"
	"github.com/opd-ai/go-arena/pkg/render"
)

// ArenaSystem pulls a frame from its source every engo update and draws it
type ArenaSystem struct {
	source   Source
	renderer render.Renderer
	controls *Controls
	logger   *logging.Logger

	drawn    bool
	lastTick uint64
}

// NewArenaSystem creates the system; a nil logger discards
func NewArenaSystem(source Source, renderer render.Renderer, controls *Controls, logger *logging.Logger) *ArenaSystem {
	if logger == nil {
		logger = logging.Discard()
	}
	return &ArenaSystem{source: source, renderer: renderer, controls: controls, logger: logger}
}

// LastTick returns the tick of the last drawn frame
func (s *ArenaSystem) LastTick() uint64 { return s.lastTick }

// Remove satisfies the ecs.System interface
func (s *ArenaSystem) Remove(basic ecs.BasicEntity) {}

// Update advances the source by dt and redraws. A paused viewer keeps
// the last frame on screen.
func (s *ArenaSystem) Update(dt float32) {
	if s.controls.Paused() && s.drawn {
		return
	}

	snap, cells, ok := s.source.Frame(float64(dt), s.controls.ShowCells())
	if !ok {
		return
	}
	if err := render.Draw(s.renderer, snap, cells); err != nil {
		s.logger.Error(context.Background(), "drawing frame failed", err, "tick", snap.Tick)
		return
	}
	s.drawn = true
	s.lastTick = snap.Tick
}

// ArenaScene is the engo scene of the viewer
type ArenaScene struct {
	source   Source
	logger   *logging.Logger
	controls *Controls
	system   *ArenaSystem
}

// NewArenaScene creates a scene drawing frames from source
func NewArenaScene(source Source, logger *logging.Logger) *ArenaScene {
	return &ArenaScene{source: source, logger: logger, controls: &Controls{}}
}

// Type returns the scene type (required by Engo)
func (scene *ArenaScene) Type() string {
	return "ArenaScene"
}

// Preload is called before the scene starts (required by Engo)
func (scene *ArenaScene) Preload() {}

// Setup wires the render, arena and input systems (required by Engo)
func (scene *ArenaScene) Setup(u engo.Updater) {
	world, _ := u.(*ecs.World)
	common.SetBackground(color.Black)

	renderSystem := &common.RenderSystem{}
	world.AddSystem(renderSystem)

	SetupInputBindings()
	viewport := NewViewport(engo.GameWidth(), engo.GameHeight())
	renderer := NewEngoRenderer(renderSystem, viewport)

	scene.system = NewArenaSystem(scene.source, renderer, scene.controls, scene.logger)
	world.AddSystem(scene.system)
	world.AddSystem(NewInputSystem(scene.controls, viewport))
}

// Exit is called when the scene is exiting (required by Engo)
func (scene *ArenaScene) Exit() {}
