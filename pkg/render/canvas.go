package render

import (
	"math"
	"strings"

	"github.com/opd-ai/go-arena/pkg/physics"
)

// Glyphs used by the canvas renderers
const (
	GlyphEmpty     = ' '
	GlyphRectangle = '#'
	GlyphWall      = '='
	GlyphCircle    = 'o'
	GlyphPolygon   = '*'
	GlyphCell      = '.'
)

// maxLineSteps bounds a single stroke; bodies flung far outside the arena
// are skipped rather than walked cell by cell
const maxLineSteps = 1 << 12

// Canvas is a grid of glyphs covering the whole arena. Each cell maps to
// width/cols by height/rows world units.
type Canvas struct {
	cols, rows int
	cells      []rune
	cellW      float64
	cellH      float64
}

// NewCanvas creates a blank canvas of cols x rows cells
func NewCanvas(cols, rows int) *Canvas {
	c := &Canvas{}
	c.Resize(cols, rows)
	return c
}

// Resize changes the grid dimensions and blanks it
func (c *Canvas) Resize(cols, rows int) {
	c.cols, c.rows = max(cols, 0), max(rows, 0)
	c.cells = make([]rune, c.cols*c.rows)
	c.Reset(float64(c.cols), float64(c.rows))
}

// Reset blanks the canvas and maps it onto an arena of the given size
func (c *Canvas) Reset(width, height float64) {
	for i := range c.cells {
		c.cells[i] = GlyphEmpty
	}
	c.cellW, c.cellH = 1, 1
	if c.cols > 0 && width > 0 {
		c.cellW = width / float64(c.cols)
	}
	if c.rows > 0 && height > 0 {
		c.cellH = height / float64(c.rows)
	}
}

// Cols returns the grid width
func (c *Canvas) Cols() int { return c.cols }

// Rows returns the grid height
func (c *Canvas) Rows() int { return c.rows }

// At returns the glyph at col, row; out of range reads are empty
func (c *Canvas) At(col, row int) rune {
	if !c.inside(col, row) {
		return GlyphEmpty
	}
	return c.cells[row*c.cols+col]
}

// Lines returns the rows as strings
func (c *Canvas) Lines() []string {
	lines := make([]string, c.rows)
	for row := range lines {
		lines[row] = string(c.cells[row*c.cols : (row+1)*c.cols])
	}
	return lines
}

// String joins Lines with newlines
func (c *Canvas) String() string {
	return strings.Join(c.Lines(), "\n")
}

func (c *Canvas) inside(col, row int) bool {
	return col >= 0 && col < c.cols && row >= 0 && row < c.rows
}

// Plot sets one cell, ignoring cells off the grid
func (c *Canvas) Plot(col, row int, glyph rune) {
	if c.inside(col, row) {
		c.cells[row*c.cols+col] = glyph
	}
}

// cellOf maps a world point to its cell; ok is false for non-finite points
func (c *Canvas) cellOf(p physics.Vector2D) (col, row int, ok bool) {
	if !p.IsFinite() {
		return 0, 0, false
	}
	x, y := math.Floor(p.X/c.cellW), math.Floor(p.Y/c.cellH)
	// Clamp before converting so huge coordinates stay well defined.
	limit := float64(maxLineSteps + c.cols + c.rows)
	x = math.Max(-limit, math.Min(limit, x))
	y = math.Max(-limit, math.Min(limit, y))
	return int(x), int(y), true
}

// PlotPoint sets the cell containing p
func (c *Canvas) PlotPoint(p physics.Vector2D, glyph rune) {
	if col, row, ok := c.cellOf(p); ok {
		c.Plot(col, row, glyph)
	}
}

// Line strokes the cells between a and b
func (c *Canvas) Line(a, b physics.Vector2D, glyph rune) {
	c0, r0, ok0 := c.cellOf(a)
	c1, r1, ok1 := c.cellOf(b)
	if !ok0 || !ok1 {
		return
	}

	steps := max(abs(c1-c0), abs(r1-r0))
	if steps > maxLineSteps {
		return
	}
	if steps == 0 {
		c.Plot(c0, r0, glyph)
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		col := c0 + int(math.Round(t*float64(c1-c0)))
		row := r0 + int(math.Round(t*float64(r1-r0)))
		c.Plot(col, row, glyph)
	}
}

// StrokeBox outlines box
func (c *Canvas) StrokeBox(box physics.Box2D, glyph rune) {
	corners := box.Corners()
	for i := range corners {
		c.Line(corners[i], corners[(i+1)%len(corners)], glyph)
	}
}

// FillBox fills every cell whose center lies inside box, or the cell
// holding the box center when the box is smaller than a cell
func (c *Canvas) FillBox(box physics.Box2D, glyph rune) {
	c.fill(box, glyph, box.Contains)
}

// FillCircle fills every cell whose center lies inside the circle, or the
// cell holding the center for circles smaller than a cell
func (c *Canvas) FillCircle(center physics.Vector2D, radius float64, glyph rune) {
	box := physics.BoxAround(center, radius, radius)
	c.fill(box, glyph, func(p physics.Vector2D) bool {
		return p.Distance(center) <= radius
	})
}

// fill scans the cells covering box and plots those whose center passes in
func (c *Canvas) fill(box physics.Box2D, glyph rune, in func(physics.Vector2D) bool) {
	c0, r0, ok0 := c.cellOf(box.Min)
	c1, r1, ok1 := c.cellOf(box.Max)
	if !ok0 || !ok1 {
		return
	}
	c0, r0 = max(c0, 0), max(r0, 0)
	c1, r1 = min(c1, c.cols-1), min(r1, c.rows-1)

	plotted := false
	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			mid := physics.Vector2D{
				X: (float64(col) + 0.5) * c.cellW,
				Y: (float64(row) + 0.5) * c.cellH,
			}
			if in(mid) {
				c.Plot(col, row, glyph)
				plotted = true
			}
		}
	}
	if !plotted {
		c.PlotPoint(box.Center(), glyph)
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
