// pkg/physics/collision_test.go
package physics

import (
	"math"
	"math/rand/v2"
	"testing"
)

func nearlyEqual(a, b Vector2D, eps float64) bool {
	return math.Abs(a.X-b.X) <= eps && math.Abs(a.Y-b.Y) <= eps
}

func square(center Vector2D, half float64) Polygon {
	return NewPolygon(center, []Vector2D{
		{X: -half, Y: -half},
		{X: half, Y: -half},
		{X: half, Y: half},
		{X: -half, Y: half},
	})
}

func TestCircle_Collides(t *testing.T) {
	tests := []struct {
		name     string
		circle1  Circle
		circle2  Circle
		expected bool
	}{
		{
			name:     "circles_touching",
			circle1:  Circle{Center: Vector2D{X: 0, Y: 0}, Radius: 5},
			circle2:  Circle{Center: Vector2D{X: 10, Y: 0}, Radius: 5},
			expected: false, // Distance equals sum of radii, collision logic uses <
		},
		{
			name:     "circles_overlapping",
			circle1:  Circle{Center: Vector2D{X: 0, Y: 0}, Radius: 5},
			circle2:  Circle{Center: Vector2D{X: 5, Y: 0}, Radius: 5},
			expected: true,
		},
		{
			name:     "circles_not_touching",
			circle1:  Circle{Center: Vector2D{X: 0, Y: 0}, Radius: 5},
			circle2:  Circle{Center: Vector2D{X: 15, Y: 0}, Radius: 5},
			expected: false,
		},
		{
			name:     "circles_diagonal_collision",
			circle1:  Circle{Center: Vector2D{X: 0, Y: 0}, Radius: 5},
			circle2:  Circle{Center: Vector2D{X: 3, Y: 4}, Radius: 3},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.circle1.Collides(tt.circle2)
			if result != tt.expected {
				t.Errorf("Circle.Collides() = %v, expected %v", result, tt.expected)
			}
			if got := CollideCircles(tt.circle1, tt.circle2).Colliding(); got != tt.expected {
				t.Errorf("CollideCircles().Colliding() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestCollideCircles(t *testing.T) {
	t.Run("no_collision", func(t *testing.T) {
		c := CollideCircles(Circle{Center: Vec(0, 0), Radius: 5}, Circle{Center: Vec(15, 0), Radius: 5})
		if c.Kind != NoContact {
			t.Errorf("Expected no collision, got %v", c.Kind)
		}
		if c.MTV() != (Vector2D{}) {
			t.Errorf("Expected zero MTV, got %v", c.MTV())
		}
	})

	t.Run("collision_with_penetration", func(t *testing.T) {
		c := CollideCircles(Circle{Center: Vec(0, 0), Radius: 5}, Circle{Center: Vec(8, 0), Radius: 5})
		if c.Kind != Separating {
			t.Fatalf("Expected separating contact, got %v", c.Kind)
		}
		if c.Depth != 2 {
			t.Errorf("Expected depth 2, got %v", c.Depth)
		}
		if c.MTV() != Vec(2, 0) {
			t.Errorf("Expected MTV (2, 0), got %v", c.MTV())
		}
	})

	t.Run("collision_diagonal", func(t *testing.T) {
		// 3-4-5 triangle: distance 5, radii sum 6
		c := CollideCircles(Circle{Center: Vec(0, 0), Radius: 3}, Circle{Center: Vec(3, 4), Radius: 3})
		if !nearlyEqual(c.MTV(), Vec(0.6, 0.8), 1e-9) {
			t.Errorf("Expected MTV (0.6, 0.8), got %v", c.MTV())
		}
	})

	t.Run("concentric_is_not_finite", func(t *testing.T) {
		c := CollideCircles(Circle{Center: Vec(4, 4), Radius: 3}, Circle{Center: Vec(4, 4), Radius: 2})
		if c.Kind != Separating {
			t.Fatalf("Expected separating contact, got %v", c.Kind)
		}
		if c.MTV().IsFinite() {
			t.Errorf("Expected non-finite MTV for concentric circles, got %v", c.MTV())
		}
	})
}

func TestCollideCircles_Property(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for i := 0; i < 500; i++ {
		a := Circle{Center: Vec(rng.Float64()*100, rng.Float64()*100), Radius: 1 + rng.Float64()*30}
		b := Circle{Center: Vec(rng.Float64()*100, rng.Float64()*100), Radius: 1 + rng.Float64()*30}
		d := a.Center.Distance(b.Center)
		c := CollideCircles(a, b)

		if c.Colliding() != (d < a.Radius+b.Radius) {
			t.Fatalf("case %d: Colliding() = %v with distance %v and radii %v, %v", i, c.Colliding(), d, a.Radius, b.Radius)
		}
		if !c.Colliding() {
			continue
		}
		mtv := c.MTV()
		if math.Abs(mtv.Length()-(a.Radius+b.Radius-d)) > 1e-9 {
			t.Errorf("case %d: MTV length = %v, expected %v", i, mtv.Length(), a.Radius+b.Radius-d)
		}
		if mtv.Dot(b.Center.Sub(a.Center)) <= 0 {
			t.Errorf("case %d: MTV %v does not point from a toward b", i, mtv)
		}
	}
}

func TestCollideBoxes(t *testing.T) {
	t.Run("partial_overlap_takes_smaller_axis", func(t *testing.T) {
		c := CollideBoxes(NewBox(0, 0, 10, 10), NewBox(8, 3, 10, 10))
		if c.Kind != Separating {
			t.Fatalf("Expected separating contact, got %v", c.Kind)
		}
		if c.MTV() != Vec(2, 0) {
			t.Errorf("Expected MTV (2, 0), got %v", c.MTV())
		}
	})

	t.Run("overlap_from_above", func(t *testing.T) {
		c := CollideBoxes(NewBox(0, 10, 10, 10), NewBox(1, 0, 10, 12))
		if c.MTV() != Vec(0, -2) {
			t.Errorf("Expected MTV (0, -2), got %v", c.MTV())
		}
	})

	t.Run("disjoint", func(t *testing.T) {
		c := CollideBoxes(NewBox(0, 0, 10, 10), NewBox(20, 0, 10, 10))
		if c.Colliding() {
			t.Errorf("Expected no collision, got %v", c.Kind)
		}
	})

	t.Run("nested_is_degenerate", func(t *testing.T) {
		c := CollideBoxes(NewBox(0, 0, 10, 10), NewBox(2, 2, 3, 3))
		if c.Kind != Degenerate {
			t.Fatalf("Expected degenerate contact, got %v", c.Kind)
		}
		if c.Depth != NonDiscriminating || c.Axis != AxisY {
			t.Errorf("Expected non-discriminating depth on the y axis, got %v on %v", c.Depth, c.Axis)
		}
	})
}

func TestCollideBoxes_TiesTakeLaterAxis(t *testing.T) {
	tests := []struct {
		name string
		a, b Box2D
		kind ContactKind
		axis Axis
		mtv  Vector2D
	}{
		{name: "equal_overlap", a: NewBox(0, 0, 10, 10), b: NewBox(5, 5, 10, 10), kind: Separating, axis: AxisY, mtv: Vec(0, 5)},
		{name: "identical_boxes", a: NewBox(0, 0, 10, 10), b: NewBox(0, 0, 10, 10), kind: Degenerate, axis: AxisY},
		{name: "x_strictly_smaller", a: NewBox(0, 0, 10, 10), b: NewBox(6, 5, 10, 10), kind: Separating, axis: AxisX, mtv: Vec(4, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := CollideBoxes(tt.a, tt.b)
			if c.Kind != tt.kind || c.Axis != tt.axis {
				t.Fatalf("CollideBoxes() = %v on %v, expected %v on %v", c.Kind, c.Axis, tt.kind, tt.axis)
			}
			if tt.kind == Separating && c.MTV() != tt.mtv {
				t.Errorf("MTV() = %v, expected %v", c.MTV(), tt.mtv)
			}
		})
	}
}

func TestCollideBoxes_Property(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))
	a := NewBox(0, 0, 10, 10)
	for i := 0; i < 500; i++ {
		dx := rng.Float64()*30 - 15
		dy := rng.Float64()*30 - 15
		b := NewBox(dx, dy, 10, 10)
		c := CollideBoxes(a, b)

		overlapX := math.Abs(dx) <= 10
		overlapY := math.Abs(dy) <= 10
		if c.Colliding() != (overlapX && overlapY) {
			t.Fatalf("case %d: Colliding() = %v for offset (%v, %v)", i, c.Colliding(), dx, dy)
		}
		if !c.Colliding() {
			continue
		}
		expected := math.Min(10-math.Abs(dx), 10-math.Abs(dy))
		if math.Abs(c.MTV().Length()-expected) > 1e-9 {
			t.Errorf("case %d: MTV length = %v, expected %v", i, c.MTV().Length(), expected)
		}
	}
}

func TestCollideCircleBox(t *testing.T) {
	c := CollideCircleBox(Circle{Center: Vec(50, 50), Radius: 30}, NewBox(10, 10, 100, 30))
	if c.Kind != Separating {
		t.Fatalf("Expected separating contact, got %v", c.Kind)
	}
	// The box sits above the circle, so the vector points up.
	if !nearlyEqual(c.MTV(), Vec(0, -20), 1e-7) {
		t.Errorf("Expected MTV (0, -20), got %v", c.MTV())
	}

	far := CollideCircleBox(Circle{Center: Vec(500, 500), Radius: 30}, NewBox(10, 10, 100, 30))
	if far.Colliding() {
		t.Errorf("Expected no collision, got %v", far.Kind)
	}
}

func TestCollideCircleBox_CornerUsesCenterLine(t *testing.T) {
	// Circle near the corner: both box axes overlap but the center line
	// separates them.
	c := CollideCircleBox(Circle{Center: Vec(18, 18), Radius: 10}, NewBox(0, 0, 10, 10))
	if c.Colliding() {
		t.Errorf("Expected center line to separate, got %v with MTV %v", c.Kind, c.MTV())
	}
}

func TestCollideCirclePolygon(t *testing.T) {
	c := CollideCirclePolygon(Circle{Center: Vec(12, 0), Radius: 8}, square(Vec(0, 0), 5))
	if c.Kind != Separating {
		t.Fatalf("Expected separating contact, got %v", c.Kind)
	}
	if !nearlyEqual(c.MTV(), Vec(-1, 0), 1e-9) {
		t.Errorf("Expected MTV (-1, 0), got %v", c.MTV())
	}

	far := CollideCirclePolygon(Circle{Center: Vec(40, 0), Radius: 8}, square(Vec(0, 0), 5))
	if far.Colliding() {
		t.Errorf("Expected no collision, got %v", far.Kind)
	}
}

func TestCollidePolygons(t *testing.T) {
	c := CollidePolygons(square(Vec(0, 0), 5), square(Vec(8, 0), 5))
	if c.Kind != Separating {
		t.Fatalf("Expected separating contact, got %v", c.Kind)
	}
	if !nearlyEqual(c.MTV(), Vec(2, 0), 1e-9) {
		t.Errorf("Expected MTV (2, 0), got %v", c.MTV())
	}

	far := CollidePolygons(square(Vec(0, 0), 5), square(Vec(0, 30), 5))
	if far.Colliding() {
		t.Errorf("Expected no collision, got %v", far.Kind)
	}
}

func TestCollidePolygonBox(t *testing.T) {
	c := CollidePolygonBox(square(Vec(0, 0), 5), NewBox(3, -5, 10, 10))
	if !nearlyEqual(c.MTV(), Vec(2, 0), 1e-9) {
		t.Errorf("Expected MTV (2, 0), got %v", c.MTV())
	}
}

func TestContact_Inverted(t *testing.T) {
	c := CollideCircles(Circle{Center: Vec(0, 0), Radius: 5}, Circle{Center: Vec(8, 0), Radius: 5})
	inv := c.Inverted()
	if inv.MTV() != c.MTV().Scale(-1) {
		t.Errorf("Inverted().MTV() = %v, expected %v", inv.MTV(), c.MTV().Scale(-1))
	}
	if inv.Kind != c.Kind {
		t.Errorf("Inverted() changed kind to %v", inv.Kind)
	}
}

func TestPolygon_Bounds(t *testing.T) {
	p := NewPolygon(Vec(10, 20), []Vector2D{{X: 0, Y: -4}, {X: 3, Y: 2}, {X: -5, Y: 1}})
	b := p.Bounds()
	expected := Box2D{Min: Vec(5, 16), Max: Vec(13, 22)}
	if b != expected {
		t.Errorf("Bounds() = %v, expected %v", b, expected)
	}
	for _, v := range p.Vertices() {
		if !b.Contains(v) {
			t.Errorf("Bounds() %v does not contain vertex %v", b, v)
		}
	}
}

func BenchmarkCollidePolygons(b *testing.B) {
	p1 := square(Vec(0, 0), 5)
	p2 := square(Vec(8, 1), 5)
	for i := 0; i < b.N; i++ {
		_ = CollidePolygons(p1, p2)
	}
}
