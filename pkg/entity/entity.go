// pkg/entity/entity.go
package entity

import (
	"fmt"

	"github.com/opd-ai/go-arena/pkg/physics"
)

// Kind identifies the concrete shape behind a Body. The numeric values are
// the tags used in exported snapshots.
type Kind int

const (
	KindRectangle Kind = 1
	KindCircle    Kind = 2
	KindPolygon   Kind = 3
)

func (k Kind) String() string {
	switch k {
	case KindRectangle:
		return "rectangle"
	case KindCircle:
		return "circle"
	case KindPolygon:
		return "polygon"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Body is the closed set of simulated shapes: *Circle, *Rectangle and
// *Polygon. It cannot be implemented outside this package.
type Body interface {
	Kind() Kind
	// Tick integrates position by velocity over dt seconds
	Tick(dt float64)
	// AABB returns the current world-space bounding box
	AABB() physics.Box2D
	// Speed returns the current velocity
	Speed() physics.Vector2D
	// Kick adds v to the velocity
	Kick(v physics.Vector2D)
	// Move adds v to the position
	Move(v physics.Vector2D)
	// CollidesWith runs the narrow phase; the contact's MTV points from
	// the receiver toward other
	CollidesWith(other Body) physics.Contact

	sealed()
}

// collide double-dispatches on both concrete kinds. Routines taking their
// arguments in the opposite order have their contact inverted.
func collide(self, other Body) physics.Contact {
	switch a := self.(type) {
	case *Circle:
		switch b := other.(type) {
		case *Circle:
			return physics.CollideCircles(a.Shape(), b.Shape())
		case *Rectangle:
			return physics.CollideCircleBox(a.Shape(), b.Box)
		case *Polygon:
			return physics.CollideCirclePolygon(a.Shape(), b.Shape())
		}
	case *Rectangle:
		switch b := other.(type) {
		case *Circle:
			return physics.CollideCircleBox(b.Shape(), a.Box).Inverted()
		case *Rectangle:
			return physics.CollideBoxes(a.Box, b.Box)
		case *Polygon:
			return physics.CollidePolygonBox(b.Shape(), a.Box).Inverted()
		}
	case *Polygon:
		switch b := other.(type) {
		case *Circle:
			return physics.CollideCirclePolygon(b.Shape(), a.Shape()).Inverted()
		case *Rectangle:
			return physics.CollidePolygonBox(a.Shape(), b.Box)
		case *Polygon:
			return physics.CollidePolygons(a.Shape(), b.Shape())
		}
	}
	panic(fmt.Sprintf("entity: unhandled body pair %T and %T", self, other))
}
