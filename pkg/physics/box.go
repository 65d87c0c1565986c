// pkg/physics/box.go
package physics

// Box2D is an axis-aligned box in screen coordinates (y grows downward).
// Min is the top-left corner and Max the bottom-right one.
type Box2D struct {
	Min Vector2D `json:"min"`
	Max Vector2D `json:"max"`
}

// NewBox creates a box from its top-left corner and size
func NewBox(x, y, w, h float64) Box2D {
	return Box2D{
		Min: Vector2D{X: x, Y: y},
		Max: Vector2D{X: x + w, Y: y + h},
	}
}

// BoxAround returns the box of half extents (hw, hh) centered on c
func BoxAround(c Vector2D, hw, hh float64) Box2D {
	return Box2D{
		Min: Vector2D{X: c.X - hw, Y: c.Y - hh},
		Max: Vector2D{X: c.X + hw, Y: c.Y + hh},
	}
}

func (b Box2D) Left() float64   { return b.Min.X }
func (b Box2D) Right() float64  { return b.Max.X }
func (b Box2D) Top() float64    { return b.Min.Y }
func (b Box2D) Bottom() float64 { return b.Max.Y }

// Width returns the horizontal extent
func (b Box2D) Width() float64 { return b.Max.X - b.Min.X }

// Height returns the vertical extent
func (b Box2D) Height() float64 { return b.Max.Y - b.Min.Y }

// Size returns (width, height) as a vector
func (b Box2D) Size() Vector2D { return b.Max.Sub(b.Min) }

// Center returns the midpoint of the box
func (b Box2D) Center() Vector2D {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Corners returns the four corners clockwise from the top-left one
func (b Box2D) Corners() [4]Vector2D {
	return [4]Vector2D{
		{X: b.Min.X, Y: b.Min.Y},
		{X: b.Max.X, Y: b.Min.Y},
		{X: b.Max.X, Y: b.Max.Y},
		{X: b.Min.X, Y: b.Max.Y},
	}
}

// Overlaps reports whether two boxes intersect. Touching edges count.
func (b Box2D) Overlaps(other Box2D) bool {
	return !(b.Left() > other.Right() ||
		b.Right() < other.Left() ||
		b.Top() > other.Bottom() ||
		b.Bottom() < other.Top())
}

// Contains reports whether the point lies inside the box or on its edge
func (b Box2D) Contains(p Vector2D) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X && p.Y >= b.Min.Y && p.Y <= b.Max.Y
}

// ContainsBox reports whether other lies entirely inside b
func (b Box2D) ContainsBox(other Box2D) bool {
	return b.Contains(other.Min) && b.Contains(other.Max)
}

// Translate returns the box moved by d
func (b Box2D) Translate(d Vector2D) Box2D {
	return Box2D{Min: b.Min.Add(d), Max: b.Max.Add(d)}
}

// Quadrants splits the box into four equal parts ordered
// top-left, top-right, bottom-left, bottom-right.
func (b Box2D) Quadrants() [4]Box2D {
	half := b.Size().Scale(0.5)
	tl := NewBox(b.Min.X, b.Min.Y, half.X, half.Y)
	return [4]Box2D{
		tl,
		tl.Translate(Vector2D{X: half.X}),
		tl.Translate(Vector2D{Y: half.Y}),
		tl.Translate(half),
	}
}

// Axis is a projection line used by the separating axis test.
// Direction is unit length; build axes with NewAxis.
type Axis struct {
	Origin    Vector2D
	Direction Vector2D
}

// NewAxis returns an axis through origin along dir, normalizing dir.
// A zero dir yields a NaN direction, which propagates through projections.
func NewAxis(origin, dir Vector2D) Axis {
	return Axis{Origin: origin, Direction: dir.Normalize()}
}

var (
	// AxisX is the horizontal unit axis through the origin
	AxisX = Axis{Direction: Vector2D{X: 1}}
	// AxisY is the vertical unit axis through the origin
	AxisY = Axis{Direction: Vector2D{Y: 1}}
)
