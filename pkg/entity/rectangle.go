package entity

import "github.com/opd-ai/go-arena/pkg/physics"

// Rectangle is an axis-aligned box. An immovable rectangle still collides
// but ignores Tick, Kick and Move, which makes it a static wall.
type Rectangle struct {
	Box       physics.Box2D
	Velocity  physics.Vector2D
	Immovable bool
}

// NewRectangle creates a moving rectangle with top-left corner (x, y)
func NewRectangle(x, y, w, h float64, velocity physics.Vector2D) *Rectangle {
	return &Rectangle{
		Box:      physics.NewBox(x, y, w, h),
		Velocity: velocity,
	}
}

// NewWall creates an immovable rectangle
func NewWall(x, y, w, h float64) *Rectangle {
	return &Rectangle{
		Box:       physics.NewBox(x, y, w, h),
		Immovable: true,
	}
}

func (r *Rectangle) Kind() Kind { return KindRectangle }

func (r *Rectangle) Tick(dt float64) {
	if r.Immovable {
		return
	}
	r.Box = r.Box.Translate(r.Velocity.Scale(dt))
}

func (r *Rectangle) AABB() physics.Box2D { return r.Box }

func (r *Rectangle) Speed() physics.Vector2D { return r.Velocity }

func (r *Rectangle) Kick(v physics.Vector2D) {
	if r.Immovable {
		return
	}
	r.Velocity = r.Velocity.Add(v)
}

func (r *Rectangle) Move(v physics.Vector2D) {
	if r.Immovable {
		return
	}
	r.Box = r.Box.Translate(v)
}

func (r *Rectangle) CollidesWith(other Body) physics.Contact {
	return collide(r, other)
}

func (r *Rectangle) sealed() {}
