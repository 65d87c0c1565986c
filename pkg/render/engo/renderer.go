// pkg/render/engo/renderer.go
package engo

import (
	"image/color"

	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"
	"github.com/EngoEngine/engo/common"

	"github.com/opd-ai/go-arena/pkg/engine"
	"github.com/opd-ai/go-arena/pkg/entity"
	"github.com/opd-ai/go-arena/pkg/physics"
)

// entitySink is the part of common.RenderSystem the renderer uses
type entitySink interface {
	Add(basic *ecs.BasicEntity, render *common.RenderComponent, space *common.SpaceComponent)
	Remove(basic ecs.BasicEntity)
}

// shapeEntity is one drawable in the render system
type shapeEntity struct {
	ecs.BasicEntity
	common.RenderComponent
	common.SpaceComponent
	seen bool
}

const (
	cellZIndex = 0
	bodyZIndex = 1
)

var cellColor = color.RGBA{40, 80, 160, 255}

// EngoRenderer implements render.Renderer on top of an engo render system.
// Each alive body keeps one entity across frames; bodies missing from a
// frame are removed in Present.
type EngoRenderer struct {
	sink     entitySink
	viewport *Viewport

	bodies    map[engine.BodyID]*shapeEntity
	cells     []*shapeEntity
	usedCells int
	frames    int
}

// NewEngoRenderer creates a renderer feeding sink, usually a
// *common.RenderSystem
func NewEngoRenderer(sink entitySink, viewport *Viewport) *EngoRenderer {
	return &EngoRenderer{
		sink:     sink,
		viewport: viewport,
		bodies:   make(map[engine.BodyID]*shapeEntity),
	}
}

// Bodies returns how many body entities are live
func (r *EngoRenderer) Bodies() int { return len(r.bodies) }

// Frames returns how many frames were presented
func (r *EngoRenderer) Frames() int { return r.frames }

// Clear implements render.Renderer
func (r *EngoRenderer) Clear(width, height float64) {
	r.viewport.Fit(width, height)
	for _, e := range r.bodies {
		e.seen = false
	}
	r.usedCells = 0
}

// DrawRectangle implements render.Renderer
func (r *EngoRenderer) DrawRectangle(rec engine.Record) {
	e := r.body(rec.ID)
	e.Drawable = common.Rectangle{}
	e.Color = bodyColor(rec)
	r.place(e, rec.Box)
}

// DrawCircle implements render.Renderer
func (r *EngoRenderer) DrawCircle(rec engine.Record) {
	e := r.body(rec.ID)
	e.Drawable = common.Circle{}
	e.Color = bodyColor(rec)
	r.place(e, physics.BoxAround(rec.Center, rec.Radius, rec.Radius))
}

// DrawPolygon implements render.Renderer. Vertices are given to engo
// relative to the bounding box.
func (r *EngoRenderer) DrawPolygon(rec engine.Record) {
	e := r.body(rec.ID)
	e.Drawable = common.ComplexTriangles{Points: fanPoints(rec.Vertices, rec.Box)}
	e.Color = bodyColor(rec)
	r.place(e, rec.Box)
}

// DrawCell implements render.Renderer
func (r *EngoRenderer) DrawCell(cell physics.Box2D) {
	if r.usedCells == len(r.cells) {
		e := &shapeEntity{BasicEntity: ecs.NewBasic()}
		e.Drawable = common.Rectangle{BorderWidth: 1, BorderColor: cellColor}
		e.Color = color.Transparent
		e.SetZIndex(cellZIndex)
		r.sink.Add(&e.BasicEntity, &e.RenderComponent, &e.SpaceComponent)
		r.cells = append(r.cells, e)
	}
	e := r.cells[r.usedCells]
	r.usedCells++
	r.place(e, cell)
}

// Present drops the entities of bodies that were not drawn this frame
// and hides unused cell outlines
func (r *EngoRenderer) Present() error {
	for id, e := range r.bodies {
		if !e.seen {
			r.sink.Remove(e.BasicEntity)
			delete(r.bodies, id)
		}
	}
	for _, e := range r.cells[r.usedCells:] {
		e.Hidden = true
	}
	r.frames++
	return nil
}

// body returns the entity for id, creating it on first sight
func (r *EngoRenderer) body(id engine.BodyID) *shapeEntity {
	e, ok := r.bodies[id]
	if !ok {
		e = &shapeEntity{BasicEntity: ecs.NewBasic()}
		e.SetZIndex(bodyZIndex)
		r.sink.Add(&e.BasicEntity, &e.RenderComponent, &e.SpaceComponent)
		r.bodies[id] = e
	}
	e.seen = true
	return e
}

// place positions e over box, hiding it when box is not finite
func (r *EngoRenderer) place(e *shapeEntity, box physics.Box2D) {
	if !box.Min.IsFinite() || !box.Max.IsFinite() {
		e.Hidden = true
		return
	}
	e.Hidden = false
	e.Position = r.viewport.ToScreen(box.Min)
	e.Width = float32(box.Width()) * r.viewport.Scale()
	e.Height = float32(box.Height()) * r.viewport.Scale()
}

// fanPoints maps vertices into the unit square of box and triangulates
// them as a fan from the first vertex
func fanPoints(vertices []physics.Vector2D, box physics.Box2D) []engo.Point {
	if len(vertices) < 3 {
		return nil
	}
	unit := func(v physics.Vector2D) engo.Point {
		var p engo.Point
		if w := box.Width(); w > 0 {
			p.X = float32((v.X - box.Left()) / w)
		}
		if h := box.Height(); h > 0 {
			p.Y = float32((v.Y - box.Top()) / h)
		}
		return p
	}

	points := make([]engo.Point, 0, 3*(len(vertices)-2))
	for i := 1; i+1 < len(vertices); i++ {
		points = append(points, unit(vertices[0]), unit(vertices[i]), unit(vertices[i+1]))
	}
	return points
}

// bodyColor picks the kind's color, dimmed as durability runs out
func bodyColor(rec engine.Record) color.Color {
	var base color.RGBA
	switch {
	case rec.Immovable:
		base = color.RGBA{200, 200, 200, 255}
	case rec.Kind == entity.KindRectangle:
		base = color.RGBA{0, 200, 0, 255}
	case rec.Kind == entity.KindCircle:
		base = color.RGBA{230, 200, 0, 255}
	default:
		base = color.RGBA{180, 0, 220, 255}
	}

	shade := min(max(rec.Durability, 1), engine.DefaultDurability)
	scale := func(c uint8) uint8 {
		return uint8(int(c) * (shade + 1) / (engine.DefaultDurability + 1))
	}
	return color.RGBA{scale(base.R), scale(base.G), scale(base.B), base.A}
}
