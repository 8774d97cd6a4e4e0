package render

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/opd-ai/go-physics2d/pkg/physics"
)

// Glyphs used by TerminalRenderer
const (
	GlyphEmpty  = ' '
	GlyphLine   = '#'
	GlyphCircle = 'o'
	GlyphPoint  = '*'
)

// TerminalRenderer rasterizes debug-draw primitives into a character grid.
// It implements physics.DebugDrawer.
type TerminalRenderer struct {
	width     int
	height    int
	buffer    [][]rune
	scale     float64
	centerPos physics.Vector2D

	// ClearScreen emits an ANSI clear before each frame
	ClearScreen bool
}

// NewTerminalRenderer creates a renderer of width x height cells, each cell
// covering scale world units
func NewTerminalRenderer(width, height int, scale float64) *TerminalRenderer {
	buffer := make([][]rune, height)
	for i := range buffer {
		buffer[i] = make([]rune, width)
	}

	r := &TerminalRenderer{
		width:  width,
		height: height,
		buffer: buffer,
		scale:  scale,
	}
	r.Clear()
	return r
}

// SetCenter sets the center position of the view
func (r *TerminalRenderer) SetCenter(pos physics.Vector2D) {
	r.centerPos = pos
}

// worldToScreen converts world coordinates to fractional cell coordinates
func (r *TerminalRenderer) worldToScreen(pos physics.Vector2D) (float64, float64) {
	screenX := (pos.X-r.centerPos.X)/r.scale + float64(r.width)/2
	screenY := (pos.Y-r.centerPos.Y)/r.scale + float64(r.height)/2
	return screenX, screenY
}

func (r *TerminalRenderer) plot(x, y float64, glyph rune) {
	cx, cy := int(math.Floor(x)), int(math.Floor(y))
	if cx >= 0 && cx < r.width && cy >= 0 && cy < r.height {
		r.buffer[cy][cx] = glyph
	}
}

// Clear blanks the grid
func (r *TerminalRenderer) Clear() {
	for y := range r.buffer {
		for x := range r.buffer[y] {
			r.buffer[y][x] = GlyphEmpty
		}
	}
}

// DrawPoint implements physics.DebugDrawer
func (r *TerminalRenderer) DrawPoint(p physics.Vector2D) {
	x, y := r.worldToScreen(p)
	r.plot(x, y, GlyphPoint)
}

// DrawLine implements physics.DebugDrawer
func (r *TerminalRenderer) DrawLine(from, to physics.Vector2D) {
	x0, y0 := r.worldToScreen(from)
	x1, y1 := r.worldToScreen(to)
	r.line(x0, y0, x1, y1, GlyphLine)
}

// line samples the segment once per cell after clipping it to the grid
func (r *TerminalRenderer) line(x0, y0, x1, y1 float64, glyph rune) {
	x0, y0, x1, y1, ok := clipSegment(x0, y0, x1, y1, float64(r.width), float64(r.height))
	if !ok {
		return
	}
	steps := int(math.Ceil(math.Max(math.Abs(x1-x0), math.Abs(y1-y0))))
	if steps == 0 {
		r.plot(x0, y0, glyph)
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		r.plot(x0+(x1-x0)*t, y0+(y1-y0)*t, glyph)
	}
}

// DrawCircle implements physics.DebugDrawer
func (r *TerminalRenderer) DrawCircle(center physics.Vector2D, radius float64) {
	cx, cy := r.worldToScreen(center)
	cells := radius / r.scale
	if cells < 0.5 {
		r.plot(cx, cy, GlyphCircle)
		return
	}
	// one sample per half cell of circumference
	n := min(int(math.Ceil(4*math.Pi*cells)), 4*(r.width+r.height))
	for i := 0; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		r.plot(cx+cells*math.Cos(a), cy+cells*math.Sin(a), GlyphCircle)
	}
}

// Present writes the grid with a border to w
func (r *TerminalRenderer) Present(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if r.ClearScreen {
		bw.WriteString("\033[H\033[2J")
	}
	border := "+" + strings.Repeat("-", r.width) + "+\n"
	bw.WriteString(border)
	for y := range r.buffer {
		bw.WriteByte('|')
		bw.WriteString(string(r.buffer[y]))
		bw.WriteString("|\n")
	}
	bw.WriteString(border)
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to present frame: %w", err)
	}
	return nil
}

// String returns the grid rows joined by newlines, without a border
func (r *TerminalRenderer) String() string {
	rows := make([]string, len(r.buffer))
	for y := range r.buffer {
		rows[y] = string(r.buffer[y])
	}
	return strings.Join(rows, "\n")
}

// clipSegment is Liang-Barsky against [0,w) x [0,h)
func clipSegment(x0, y0, x1, y1, w, h float64) (float64, float64, float64, float64, bool) {
	const inset = 1e-9
	dx, dy := x1-x0, y1-y0
	t0, t1 := 0.0, 1.0
	edges := [4][2]float64{
		{-dx, x0},
		{dx, w - inset - x0},
		{-dy, y0},
		{dy, h - inset - y0},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return 0, 0, 0, 0, false
			}
			continue
		}
		t := q / p
		if p < 0 {
			if t > t1 {
				return 0, 0, 0, 0, false
			}
			t0 = math.Max(t0, t)
		} else {
			if t < t0 {
				return 0, 0, 0, 0, false
			}
			t1 = math.Min(t1, t)
		}
	}
	return x0 + dx*t0, y0 + dy*t0, x0 + dx*t1, y0 + dy*t1, true
}
