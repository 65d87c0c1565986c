// pkg/render/renderer.go
package render

import (
	"context"

	"github.com/opd-ai/go-arena/pkg/engine"
	"github.com/opd-ai/go-arena/pkg/entity"
	"github.com/opd-ai/go-arena/pkg/logging"
	"github.com/opd-ai/go-arena/pkg/physics"
)

// Renderer is a drawing surface for world snapshots. Clear starts a frame
// for an arena of the given size; Present finishes it.
type Renderer interface {
	Clear(width, height float64)
	DrawRectangle(r engine.Record)
	DrawCircle(r engine.Record)
	DrawPolygon(r engine.Record)
	// DrawCell outlines one quad-tree leaf region
	DrawCell(cell physics.Box2D)
	Present() error
}

// Draw renders one frame: the quad-tree cells first, then every body in
// slot order so later slots paint over earlier ones
func Draw(r Renderer, snap engine.Snapshot, cells []physics.Box2D) error {
	r.Clear(snap.Width, snap.Height)
	for _, cell := range cells {
		r.DrawCell(cell)
	}
	for _, rec := range snap.Records {
		switch rec.Kind {
		case entity.KindRectangle:
			r.DrawRectangle(rec)
		case entity.KindCircle:
			r.DrawCircle(rec)
		case entity.KindPolygon:
			r.DrawPolygon(rec)
		}
	}
	return r.Present()
}

// NullRenderer draws nothing and logs every call at debug level
type NullRenderer struct {
	logger *logging.Logger
	frames int
}

// NewNullRenderer creates a NullRenderer; a nil logger discards
func NewNullRenderer(logger *logging.Logger) *NullRenderer {
	if logger == nil {
		logger = logging.Discard()
	}
	return &NullRenderer{logger: logger}
}

// Frames returns how many frames were presented
func (d *NullRenderer) Frames() int { return d.frames }

// Clear implements Renderer.
func (d *NullRenderer) Clear(width, height float64) {
	d.logger.Debug(context.Background(), "Clear called", "width", width, "height", height)
}

// DrawRectangle implements Renderer.
func (d *NullRenderer) DrawRectangle(r engine.Record) {
	d.logger.Debug(context.Background(), "DrawRectangle called",
		"body_id", r.ID,
		"durability", r.Durability,
		"immovable", r.Immovable,
	)
}

// DrawCircle implements Renderer.
func (d *NullRenderer) DrawCircle(r engine.Record) {
	d.logger.Debug(context.Background(), "DrawCircle called",
		"body_id", r.ID,
		"durability", r.Durability,
		"radius", r.Radius,
	)
}

// DrawPolygon implements Renderer.
func (d *NullRenderer) DrawPolygon(r engine.Record) {
	d.logger.Debug(context.Background(), "DrawPolygon called",
		"body_id", r.ID,
		"durability", r.Durability,
		"vertices", len(r.Vertices),
	)
}

// DrawCell implements Renderer.
func (d *NullRenderer) DrawCell(cell physics.Box2D) {
	d.logger.Debug(context.Background(), "DrawCell called", "width", cell.Width(), "height", cell.Height())
}

// Present implements Renderer.
func (d *NullRenderer) Present() error {
	d.frames++
	d.logger.Debug(context.Background(), "Present called", "frame", d.frames)
	return nil
}

// canvasRenderer rasterizes onto a Canvas; the terminal and screen
// renderers embed it and only differ in Present
type canvasRenderer struct {
	canvas *Canvas
}

func (c *canvasRenderer) Clear(width, height float64) {
	c.canvas.Reset(width, height)
}

func (c *canvasRenderer) DrawRectangle(r engine.Record) {
	if r.Immovable {
		c.canvas.FillBox(r.Box, GlyphWall)
		return
	}
	c.canvas.FillBox(r.Box, GlyphRectangle)
}

func (c *canvasRenderer) DrawCircle(r engine.Record) {
	c.canvas.FillCircle(r.Center, r.Radius, GlyphCircle)
}

func (c *canvasRenderer) DrawPolygon(r engine.Record) {
	n := len(r.Vertices)
	for i, v := range r.Vertices {
		c.canvas.Line(v, r.Vertices[(i+1)%n], GlyphPolygon)
	}
}

func (c *canvasRenderer) DrawCell(cell physics.Box2D) {
	c.canvas.StrokeBox(cell, GlyphCell)
}

// Canvas exposes the frame being drawn
func (c *canvasRenderer) Canvas() *Canvas { return c.canvas }
