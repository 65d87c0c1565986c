// pkg/physics/projection.go
package physics

import "math"

// NonDiscriminating is the depth reported for an axis on which one
// interval contains the other. It is the largest finite float so that any
// real penetration depth on another axis wins the minimum search.
const NonDiscriminating = math.MaxFloat64

// Interval is a closed range of projections onto an axis
type Interval struct {
	Min float64
	Max float64
}

// OverlapKind classifies how two intervals relate on one axis
type OverlapKind int

const (
	// Disjoint intervals prove the shapes are separated
	Disjoint OverlapKind = iota
	// Penetrating intervals overlap partially; Depth is the signed push-out
	Penetrating
	// Contained means one interval nests inside the other (or shares a
	// bound with it); the axis cannot tell which way to push
	Contained
)

func (k OverlapKind) String() string {
	switch k {
	case Disjoint:
		return "disjoint"
	case Penetrating:
		return "penetrating"
	case Contained:
		return "contained"
	default:
		return "unknown"
	}
}

// Overlap is the result of comparing two projected intervals
type Overlap struct {
	Kind  OverlapKind
	Depth float64
}

// ProjectPoint returns the signed projection of point onto the axis
func ProjectPoint(axis Axis, point Vector2D) float64 {
	return point.Sub(axis.Origin).Dot(axis.Direction)
}

// ProjectPoints returns the tightest interval covering all projected points
func ProjectPoints(axis Axis, points []Vector2D) Interval {
	in := Interval{Min: math.MaxFloat64, Max: -math.MaxFloat64}
	for _, p := range points {
		proj := ProjectPoint(axis, p)
		if proj < in.Min {
			in.Min = proj
		}
		if proj > in.Max {
			in.Max = proj
		}
	}
	return in
}

// ProjectCircle projects the center and widens the result by radius
func ProjectCircle(axis Axis, center Vector2D, radius float64) Interval {
	c := ProjectPoint(axis, center)
	return Interval{Min: c - radius, Max: c + radius}
}

// IntervalOverlap compares the interval of the shape being pushed against
// (other) with the interval of the shape being pushed (self).
// A negative depth means other lies on the low side of self.
func IntervalOverlap(other, self Interval) Overlap {
	if other.Max < self.Min || other.Min > self.Max {
		return Overlap{Kind: Disjoint}
	}
	if other.Max < self.Max && other.Min < self.Min {
		return Overlap{Kind: Penetrating, Depth: self.Min - other.Max}
	}
	if other.Max > self.Max && other.Min > self.Min {
		return Overlap{Kind: Penetrating, Depth: self.Max - other.Min}
	}
	return Overlap{Kind: Contained, Depth: NonDiscriminating}
}
