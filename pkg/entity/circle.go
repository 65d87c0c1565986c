package entity

import "github.com/opd-ai/go-arena/pkg/physics"

// Circle is a moving disc
type Circle struct {
	Center   physics.Vector2D
	Radius   float64
	Velocity physics.Vector2D
}

// NewCircle creates a circle body
func NewCircle(center physics.Vector2D, radius float64, velocity physics.Vector2D) *Circle {
	return &Circle{
		Center:   center,
		Radius:   radius,
		Velocity: velocity,
	}
}

func (c *Circle) Kind() Kind { return KindCircle }

func (c *Circle) Tick(dt float64) {
	c.Center = c.Center.Add(c.Velocity.Scale(dt))
}

func (c *Circle) AABB() physics.Box2D {
	return physics.BoxAround(c.Center, c.Radius, c.Radius)
}

func (c *Circle) Speed() physics.Vector2D { return c.Velocity }

func (c *Circle) Kick(v physics.Vector2D) {
	c.Velocity = c.Velocity.Add(v)
}

func (c *Circle) Move(v physics.Vector2D) {
	c.Center = c.Center.Add(v)
}

func (c *Circle) CollidesWith(other Body) physics.Contact {
	return collide(c, other)
}

// Shape returns the collision shape at the current position
func (c *Circle) Shape() physics.Circle {
	return physics.Circle{Center: c.Center, Radius: c.Radius}
}

func (c *Circle) sealed() {}
