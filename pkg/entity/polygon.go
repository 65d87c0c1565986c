package entity

import (
	"math"

	"github.com/opd-ai/go-arena/pkg/physics"
)

// Polygon is a convex polygon that translates but never rotates. Its
// vertex offsets around Center are fixed at construction.
type Polygon struct {
	Center   physics.Vector2D
	Velocity physics.Vector2D

	offsets []physics.Vector2D
	normals []physics.Vector2D
	bounds  physics.Box2D // relative to Center
}

// NewPolygon creates a polygon from vertex offsets in winding order.
// The offsets are copied.
func NewPolygon(center physics.Vector2D, offsets []physics.Vector2D, velocity physics.Vector2D) *Polygon {
	owned := make([]physics.Vector2D, len(offsets))
	copy(owned, offsets)
	local := physics.NewPolygon(physics.Vector2D{}, owned)

	return &Polygon{
		Center:   center,
		Velocity: velocity,
		offsets:  local.Offsets,
		normals:  local.Normals,
		bounds:   local.Bounds(),
	}
}

// NewRegularPolygon places sides vertices on a circle of the given radius,
// vertex k at (sin θ, cos θ)·radius with θ = 2πk/sides.
func NewRegularPolygon(center physics.Vector2D, radius float64, sides int, velocity physics.Vector2D) *Polygon {
	offsets := make([]physics.Vector2D, sides)
	step := 2 * math.Pi / float64(sides)
	for k := range offsets {
		angle := step * float64(k)
		offsets[k] = physics.Vector2D{X: math.Sin(angle), Y: math.Cos(angle)}.Scale(radius)
	}
	return NewPolygon(center, offsets, velocity)
}

func (p *Polygon) Kind() Kind { return KindPolygon }

func (p *Polygon) Tick(dt float64) {
	p.Center = p.Center.Add(p.Velocity.Scale(dt))
}

func (p *Polygon) AABB() physics.Box2D {
	return p.bounds.Translate(p.Center)
}

func (p *Polygon) Speed() physics.Vector2D { return p.Velocity }

func (p *Polygon) Kick(v physics.Vector2D) {
	p.Velocity = p.Velocity.Add(v)
}

func (p *Polygon) Move(v physics.Vector2D) {
	p.Center = p.Center.Add(v)
}

func (p *Polygon) CollidesWith(other Body) physics.Contact {
	return collide(p, other)
}

// Shape returns the collision shape at the current position. The returned
// value shares the fixed offsets; do not modify them.
func (p *Polygon) Shape() physics.Polygon {
	return physics.Polygon{Center: p.Center, Offsets: p.offsets, Normals: p.normals}
}

// Len returns the number of vertices
func (p *Polygon) Len() int { return len(p.offsets) }

// Vertices returns the vertices in world space
func (p *Polygon) Vertices() []physics.Vector2D {
	return p.Shape().Vertices()
}

func (p *Polygon) sealed() {}
