package render

import (
	"github.com/gdamore/tcell/v2"
)

// glyphStyles colors each glyph on a tcell screen
var glyphStyles = map[rune]tcell.Style{
	GlyphRectangle: tcell.StyleDefault.Foreground(tcell.ColorGreen),
	GlyphWall:      tcell.StyleDefault.Foreground(tcell.ColorWhite),
	GlyphCircle:    tcell.StyleDefault.Foreground(tcell.ColorYellow),
	GlyphPolygon:   tcell.StyleDefault.Foreground(tcell.ColorPurple),
	GlyphCell:      tcell.StyleDefault.Foreground(tcell.ColorBlue),
}

// ScreenRenderer draws frames on a tcell screen, sizing the canvas to the
// screen at the start of every frame
type ScreenRenderer struct {
	canvasRenderer
	screen tcell.Screen
}

// NewScreenRenderer wraps an initialized screen
func NewScreenRenderer(screen tcell.Screen) *ScreenRenderer {
	cols, rows := screen.Size()
	return &ScreenRenderer{
		canvasRenderer: canvasRenderer{canvas: NewCanvas(cols, rows)},
		screen:         screen,
	}
}

// Clear implements Renderer.
func (r *ScreenRenderer) Clear(width, height float64) {
	if cols, rows := r.screen.Size(); cols != r.canvas.Cols() || rows != r.canvas.Rows() {
		r.canvas.Resize(cols, rows)
	}
	r.canvasRenderer.Clear(width, height)
}

// Present copies the canvas to the screen and shows it
func (r *ScreenRenderer) Present() error {
	r.screen.Clear()
	for row := 0; row < r.canvas.Rows(); row++ {
		for col := 0; col < r.canvas.Cols(); col++ {
			glyph := r.canvas.At(col, row)
			if glyph == GlyphEmpty {
				continue
			}
			style, ok := glyphStyles[glyph]
			if !ok {
				style = tcell.StyleDefault
			}
			r.screen.SetContent(col, row, glyph, nil, style)
		}
	}
	r.screen.Show()
	return nil
}
