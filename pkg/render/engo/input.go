// pkg/render/engo/input.go
package engo

import (
	"sync"

	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"
)

// Button names registered by SetupInputBindings
const (
	buttonPause     = "pause"
	buttonCells     = "cells"
	buttonZoomIn    = "zoomIn"
	buttonZoomOut   = "zoomOut"
	buttonResetZoom = "resetZoom"
)

// Controls is the viewer state toggled from the keyboard
type Controls struct {
	mu        sync.Mutex
	paused    bool
	showCells bool
}

// TogglePause freezes or resumes the simulation
func (c *Controls) TogglePause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paused = !c.paused
}

// Paused reports whether the viewer is frozen
func (c *Controls) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

// ToggleCells shows or hides the quad-tree cells
func (c *Controls) ToggleCells() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.showCells = !c.showCells
}

// ShowCells reports whether quad-tree cells are drawn
func (c *Controls) ShowCells() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.showCells
}

// InputSystem turns key presses into Controls and Viewport changes
type InputSystem struct {
	controls *Controls
	viewport *Viewport
}

// NewInputSystem creates an input system; SetupInputBindings must have run
func NewInputSystem(controls *Controls, viewport *Viewport) *InputSystem {
	return &InputSystem{controls: controls, viewport: viewport}
}

// Remove satisfies the ecs.System interface
func (is *InputSystem) Remove(basic ecs.BasicEntity) {}

// Update polls the registered buttons
func (is *InputSystem) Update(dt float32) {
	if engo.Input.Button(buttonPause).JustPressed() {
		is.controls.TogglePause()
	}
	if engo.Input.Button(buttonCells).JustPressed() {
		is.controls.ToggleCells()
	}
	if engo.Input.Button(buttonZoomIn).Down() {
		is.viewport.SetZoom(is.viewport.Zoom() * 1.02)
	}
	if engo.Input.Button(buttonZoomOut).Down() {
		is.viewport.SetZoom(is.viewport.Zoom() * 0.98)
	}
	if engo.Input.Button(buttonResetZoom).JustPressed() {
		is.viewport.SetZoom(1.0)
	}
}

// SetupInputBindings registers the viewer keys
func SetupInputBindings() {
	engo.Input.RegisterButton(buttonPause, engo.KeySpace)
	engo.Input.RegisterButton(buttonCells, engo.KeyT)
	engo.Input.RegisterButton(buttonZoomIn, engo.KeyEquals)
	engo.Input.RegisterButton(buttonZoomOut, engo.KeyDash)
	engo.Input.RegisterButton(buttonResetZoom, engo.KeyR)
}
