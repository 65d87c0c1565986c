// pkg/physics/collision.go
package physics

import "math"

// Circle represents a circular collision shape
type Circle struct {
	Center Vector2D
	Radius float64
}

// Collides checks if two circles are overlapping
func (c Circle) Collides(other Circle) bool {
	return c.Center.Distance(other.Center) < c.Radius+other.Radius
}

// Project returns the circle's interval on axis
func (c Circle) Project(axis Axis) Interval {
	return ProjectCircle(axis, c.Center, c.Radius)
}

// Polygon is a convex polygon stored as fixed offsets around a center.
// Offsets must be in winding order; Normals[i] is the unit normal of the
// edge from vertex i to vertex i+1.
type Polygon struct {
	Center  Vector2D
	Offsets []Vector2D
	Normals []Vector2D
}

// NewPolygon builds a polygon at center and precomputes its edge normals
func NewPolygon(center Vector2D, offsets []Vector2D) Polygon {
	normals := make([]Vector2D, len(offsets))
	for i := range offsets {
		j := (i + 1) % len(offsets)
		normals[i] = offsets[j].Sub(offsets[i]).Perpendicular().Normalize()
	}
	return Polygon{Center: center, Offsets: offsets, Normals: normals}
}

// Vertex returns vertex i in world space
func (p Polygon) Vertex(i int) Vector2D {
	return p.Center.Add(p.Offsets[i])
}

// Vertices returns all vertices in world space
func (p Polygon) Vertices() []Vector2D {
	out := make([]Vector2D, len(p.Offsets))
	for i := range p.Offsets {
		out[i] = p.Vertex(i)
	}
	return out
}

// Project returns the polygon's interval on axis
func (p Polygon) Project(axis Axis) Interval {
	in := Interval{Min: math.MaxFloat64, Max: -math.MaxFloat64}
	for i := range p.Offsets {
		proj := ProjectPoint(axis, p.Vertex(i))
		if proj < in.Min {
			in.Min = proj
		}
		if proj > in.Max {
			in.Max = proj
		}
	}
	return in
}

// Bounds returns the world-space bounding box of the polygon
func (p Polygon) Bounds() Box2D {
	b := Box2D{
		Min: Vector2D{X: math.MaxFloat64, Y: math.MaxFloat64},
		Max: Vector2D{X: -math.MaxFloat64, Y: -math.MaxFloat64},
	}
	for _, o := range p.Offsets {
		b.Min.X = math.Min(b.Min.X, o.X)
		b.Min.Y = math.Min(b.Min.Y, o.Y)
		b.Max.X = math.Max(b.Max.X, o.X)
		b.Max.Y = math.Max(b.Max.Y, o.Y)
	}
	return b.Translate(p.Center)
}

func (p Polygon) appendAxes(axes []Axis) []Axis {
	for i, n := range p.Normals {
		axes = append(axes, Axis{Origin: p.Vertex(i), Direction: n})
	}
	return axes
}

func projectBox(b Box2D) func(Axis) Interval {
	corners := b.Corners()
	return func(axis Axis) Interval {
		return ProjectPoints(axis, corners[:])
	}
}

// ContactKind tells whether and how two shapes touch
type ContactKind int

const (
	// NoContact means a separating axis was found
	NoContact ContactKind = iota
	// Separating carries a usable minimum translation vector
	Separating
	// Degenerate means every tested axis was non-discriminating; the
	// vector has NonDiscriminating magnitude
	Degenerate
)

func (k ContactKind) String() string {
	switch k {
	case NoContact:
		return "none"
	case Separating:
		return "separating"
	case Degenerate:
		return "degenerate"
	default:
		return "unknown"
	}
}

// Contact is a narrow phase result. Its MTV points from the first shape
// toward the second: moving the second shape by MTV (or the first by -MTV)
// separates them along Axis.
type Contact struct {
	Kind  ContactKind
	Axis  Axis
	Depth float64
}

// Colliding reports whether the shapes overlap on every tested axis
func (c Contact) Colliding() bool {
	return c.Kind != NoContact
}

// MTV returns the minimum translation vector, zero for NoContact
func (c Contact) MTV() Vector2D {
	if c.Kind == NoContact {
		return Vector2D{}
	}
	return c.Axis.Direction.Scale(c.Depth)
}

// Inverted returns the same contact seen from the other shape
func (c Contact) Inverted() Contact {
	c.Depth = -c.Depth
	return c
}

// CollideCircles is the closed form circle test
func CollideCircles(a, b Circle) Contact {
	delta := b.Center.Sub(a.Center)
	push := a.Radius + b.Radius - delta.Length()
	if push > 0 {
		return Contact{
			Kind:  Separating,
			Axis:  NewAxis(a.Center, delta),
			Depth: push,
		}
	}
	return Contact{Kind: NoContact}
}

// CollideCircleBox tests a circle against a box
func CollideCircleBox(c Circle, b Box2D) Contact {
	axes := []Axis{AxisX, AxisY, centerLine(c.Center, b.Center())}
	return separatingAxisTest(c.Project, projectBox(b), axes)
}

// CollideCirclePolygon tests a circle against a polygon
func CollideCirclePolygon(c Circle, p Polygon) Contact {
	axes := make([]Axis, 0, len(p.Normals)+1)
	axes = p.appendAxes(axes)
	axes = append(axes, centerLine(c.Center, p.Center))
	return separatingAxisTest(c.Project, p.Project, axes)
}

// CollideBoxes tests two boxes on the x and y axes
func CollideBoxes(a, b Box2D) Contact {
	return separatingAxisTest(projectBox(a), projectBox(b), []Axis{AxisX, AxisY})
}

// CollidePolygonBox tests a polygon against a box
func CollidePolygonBox(p Polygon, b Box2D) Contact {
	axes := make([]Axis, 0, len(p.Normals)+2)
	axes = p.appendAxes(axes)
	axes = append(axes, AxisX, AxisY)
	return separatingAxisTest(p.Project, projectBox(b), axes)
}

// CollidePolygons tests two polygons on both sets of edge normals
func CollidePolygons(a, b Polygon) Contact {
	axes := make([]Axis, 0, len(a.Normals)+len(b.Normals))
	axes = a.appendAxes(axes)
	axes = b.appendAxes(axes)
	return separatingAxisTest(a.Project, b.Project, axes)
}

// centerLine is the extra axis used whenever a circle is involved
func centerLine(circleCenter, otherCenter Vector2D) Axis {
	return NewAxis(circleCenter, circleCenter.Sub(otherCenter))
}

// separatingAxisTest projects both shapes on every axis. The first disjoint
// axis ends the test; otherwise the smallest overlap magnitude wins, the
// later axis taking ties.
func separatingAxisTest(first, second func(Axis) Interval, axes []Axis) Contact {
	best := Contact{Kind: NoContact}
	bestMag := math.Inf(1)

	for _, axis := range axes {
		ov := IntervalOverlap(second(axis), first(axis))
		if ov.Kind == Disjoint {
			return Contact{Kind: NoContact}
		}
		if mag := math.Abs(ov.Depth); mag <= bestMag {
			bestMag = mag
			best = Contact{Kind: Separating, Axis: axis, Depth: ov.Depth}
			if ov.Kind == Contained {
				best.Kind = Degenerate
			}
		}
	}

	return best
}
