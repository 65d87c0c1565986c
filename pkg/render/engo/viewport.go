// pkg/render/engo/viewport.go
package engo

import (
	"math"

	"github.com/EngoEngine/engo"

	"github.com/opd-ai/go-arena/pkg/physics"
)

// Viewport maps arena coordinates onto the window. The arena is scaled to
// fit, centered, then multiplied by the zoom.
type Viewport struct {
	windowW, windowH float32

	zoom    float32
	minZoom float32
	maxZoom float32

	scale  float32
	offset engo.Point
}

// NewViewport creates a viewport for a window of the given size
func NewViewport(windowW, windowH float32) *Viewport {
	return &Viewport{
		windowW: windowW,
		windowH: windowH,
		zoom:    1.0,
		minZoom: 0.1,
		maxZoom: 3.0,
		scale:   1.0,
	}
}

// Fit recomputes the transform for an arena of the given size
func (v *Viewport) Fit(arenaW, arenaH float64) {
	if arenaW <= 0 || arenaH <= 0 {
		return
	}
	fit := math.Min(float64(v.windowW)/arenaW, float64(v.windowH)/arenaH)
	v.scale = float32(fit) * v.zoom
	v.offset = engo.Point{
		X: (v.windowW - float32(arenaW)*v.scale) / 2,
		Y: (v.windowH - float32(arenaH)*v.scale) / 2,
	}
}

// SetZoom sets the zoom level, clamped to the limits. The next Fit
// applies it.
func (v *Viewport) SetZoom(zoom float32) {
	v.zoom = v.clampZoom(zoom)
}

// Zoom returns the current zoom level
func (v *Viewport) Zoom() float32 {
	return v.zoom
}

func (v *Viewport) clampZoom(zoom float32) float32 {
	if zoom < v.minZoom {
		return v.minZoom
	}
	if zoom > v.maxZoom {
		return v.maxZoom
	}
	return zoom
}

// Scale returns window pixels per arena unit
func (v *Viewport) Scale() float32 {
	return v.scale
}

// ToScreen converts an arena point to window coordinates
func (v *Viewport) ToScreen(p physics.Vector2D) engo.Point {
	return engo.Point{
		X: float32(p.X)*v.scale + v.offset.X,
		Y: float32(p.Y)*v.scale + v.offset.Y,
	}
}

// ToWorld converts window coordinates back to the arena
func (v *Viewport) ToWorld(p engo.Point) physics.Vector2D {
	return physics.Vector2D{
		X: float64((p.X - v.offset.X) / v.scale),
		Y: float64((p.Y - v.offset.Y) / v.scale),
	}
}
