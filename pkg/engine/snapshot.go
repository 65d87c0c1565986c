// pkg/engine/snapshot.go
package engine

import (
	"github.com/opd-ai/go-arena/pkg/entity"
	"github.com/opd-ai/go-arena/pkg/physics"
)

// Record is the exported state of one alive body. Center and Radius are
// set for circles, Vertices for polygons; Box is every body's AABB.
type Record struct {
	ID         BodyID             `json:"id"`
	Kind       entity.Kind        `json:"kind"`
	Durability int                `json:"durability"`
	Box        physics.Box2D      `json:"box"`
	Center     physics.Vector2D   `json:"center"`
	Radius     float64            `json:"radius,omitempty"`
	Vertices   []physics.Vector2D `json:"vertices,omitempty"`
	Velocity   physics.Vector2D   `json:"velocity"`
	Immovable  bool               `json:"immovable,omitempty"`
}

// Snapshot is a deep copy of the alive bodies in slot order. It shares
// nothing with the World and may be handed to other goroutines.
type Snapshot struct {
	Tick    uint64   `json:"tick"`
	Width   float64  `json:"width"`
	Height  float64  `json:"height"`
	Records []Record `json:"records"`
}

// Snapshot exports the current state without modifying it
func (w *World) Snapshot() Snapshot {
	snap := Snapshot{
		Tick:    w.currentTick,
		Width:   w.size.X,
		Height:  w.size.Y,
		Records: make([]Record, 0, len(w.bodies)),
	}

	for i, body := range w.bodies {
		if w.lifecycle[i] != Alive {
			continue
		}
		rec := Record{
			ID:         BodyID(i),
			Kind:       body.Kind(),
			Durability: w.durability[i],
			Box:        body.AABB(),
			Velocity:   body.Speed(),
		}
		rec.Center = rec.Box.Center()

		switch b := body.(type) {
		case *entity.Circle:
			rec.Center = b.Center
			rec.Radius = b.Radius
		case *entity.Rectangle:
			rec.Immovable = b.Immovable
		case *entity.Polygon:
			rec.Center = b.Center
			rec.Vertices = b.Vertices()
		}
		snap.Records = append(snap.Records, rec)
	}

	return snap
}

// Flatten encodes the records as a flat number stream:
//
//	rectangle: 1, durability, left, top, width, height
//	circle:    2, durability, cx, cy, radius
//	polygon:   3, durability, n, x1, y1, ... xn, yn, left, top, width, height
//
// where the polygon's trailing box is its AABB.
func (s Snapshot) Flatten() []float64 {
	out := make([]float64, 0, len(s.Records)*6)
	for _, r := range s.Records {
		out = append(out, float64(r.Kind), float64(r.Durability))
		switch r.Kind {
		case entity.KindRectangle:
			out = append(out, r.Box.Left(), r.Box.Top(), r.Box.Width(), r.Box.Height())
		case entity.KindCircle:
			out = append(out, r.Center.X, r.Center.Y, r.Radius)
		case entity.KindPolygon:
			out = append(out, float64(len(r.Vertices)))
			for _, v := range r.Vertices {
				out = append(out, v.X, v.Y)
			}
			out = append(out, r.Box.Left(), r.Box.Top(), r.Box.Width(), r.Box.Height())
		}
	}
	return out
}

// Alive returns the number of records
func (s Snapshot) Alive() int { return len(s.Records) }

// DebugQuadTree returns the shape of a broad phase tree built from the
// current state, see physics.QuadTree.Export
func (w *World) DebugQuadTree() []float64 {
	return w.buildTree().Export()
}

// DebugQuadTreeCells returns the leaf regions of the same tree
func (w *World) DebugQuadTreeCells() []physics.Box2D {
	return w.buildTree().Cells()
}
