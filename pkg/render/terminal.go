package render

import (
	"bufio"
	"io"
	"strings"
)

// clearScreen moves the cursor home and erases the terminal
const clearScreen = "\033[H\033[2J"

// TerminalRenderer draws frames as ASCII art on an io.Writer
type TerminalRenderer struct {
	canvasRenderer
	out  io.Writer
	ansi bool
}

// NewTerminalRenderer creates a renderer with a cols x rows canvas. With
// ansi set each frame first clears the terminal.
func NewTerminalRenderer(out io.Writer, cols, rows int, ansi bool) *TerminalRenderer {
	return &TerminalRenderer{
		canvasRenderer: canvasRenderer{canvas: NewCanvas(cols, rows)},
		out:            out,
		ansi:           ansi,
	}
}

// Present writes the canvas inside a border
func (r *TerminalRenderer) Present() error {
	w := bufio.NewWriter(r.out)
	if r.ansi {
		w.WriteString(clearScreen)
	}

	border := "+" + strings.Repeat("-", r.canvas.Cols()) + "+\n"
	w.WriteString(border)
	for _, line := range r.canvas.Lines() {
		w.WriteString("|")
		w.WriteString(line)
		w.WriteString("|\n")
	}
	w.WriteString(border)
	return w.Flush()
}
