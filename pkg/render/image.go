package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/vector"

	"github.com/opd-ai/go-physics2d/pkg/physics"
)

// Default colors of ImageRenderer
var (
	BackgroundColor = color.RGBA{R: 16, G: 16, B: 24, A: 255}
	LineColor       = color.RGBA{R: 120, G: 200, B: 255, A: 255}
	CircleColor     = color.RGBA{R: 255, G: 200, B: 80, A: 255}
	PointColor      = color.RGBA{R: 255, G: 64, B: 64, A: 255}
)

// ImageRenderer rasterizes debug-draw primitives into an RGBA image with
// anti-aliased strokes. It implements physics.DebugDrawer.
type ImageRenderer struct {
	img       *image.RGBA
	raster    *vector.Rasterizer
	scale     float64
	centerPos physics.Vector2D

	// StrokeWidth is in pixels
	StrokeWidth float64
}

// NewImageRenderer creates a width x height pixel renderer, each pixel
// covering scale world units
func NewImageRenderer(width, height int, scale float64) *ImageRenderer {
	r := &ImageRenderer{
		img:         image.NewRGBA(image.Rect(0, 0, width, height)),
		raster:      vector.NewRasterizer(width, height),
		scale:       scale,
		StrokeWidth: 1,
	}
	r.Clear()
	return r
}

// SetCenter sets the center position of the view
func (r *ImageRenderer) SetCenter(pos physics.Vector2D) {
	r.centerPos = pos
}

// Image returns the frame drawn so far
func (r *ImageRenderer) Image() *image.RGBA {
	return r.img
}

func (r *ImageRenderer) worldToScreen(pos physics.Vector2D) (float64, float64) {
	b := r.img.Bounds()
	return (pos.X-r.centerPos.X)/r.scale + float64(b.Dx())/2,
		(pos.Y-r.centerPos.Y)/r.scale + float64(b.Dy())/2
}

// Clear fills the frame with the background color
func (r *ImageRenderer) Clear() {
	draw.Draw(r.img, r.img.Bounds(), image.NewUniform(BackgroundColor), image.Point{}, draw.Src)
}

// stroke fills the quad around one screen-space segment
func (r *ImageRenderer) stroke(x0, y0, x1, y1 float64) {
	dx, dy := x1-x0, y1-y0
	l := math.Hypot(dx, dy)
	half := r.StrokeWidth / 2
	var nx, ny float64
	if l < 1e-9 {
		// a dot: square of the stroke width
		nx, ny = 0, half
		x0, x1 = x0-half, x0+half
	} else {
		nx, ny = -dy/l*half, dx/l*half
	}
	r.raster.MoveTo(float32(x0+nx), float32(y0+ny))
	r.raster.LineTo(float32(x1+nx), float32(y1+ny))
	r.raster.LineTo(float32(x1-nx), float32(y1-ny))
	r.raster.LineTo(float32(x0-nx), float32(y0-ny))
	r.raster.ClosePath()
}

func (r *ImageRenderer) flush(c color.Color) {
	r.raster.DrawOp = draw.Over
	r.raster.Draw(r.img, r.img.Bounds(), image.NewUniform(c), image.Point{})
	b := r.img.Bounds()
	r.raster.Reset(b.Dx(), b.Dy())
}

// DrawLine implements physics.DebugDrawer
func (r *ImageRenderer) DrawLine(from, to physics.Vector2D) {
	x0, y0 := r.worldToScreen(from)
	x1, y1 := r.worldToScreen(to)
	b := r.img.Bounds()
	x0, y0, x1, y1, ok := clipSegment(x0, y0, x1, y1, float64(b.Dx()), float64(b.Dy()))
	if !ok {
		return
	}
	r.stroke(x0, y0, x1, y1)
	r.flush(LineColor)
}

// DrawCircle implements physics.DebugDrawer
func (r *ImageRenderer) DrawCircle(center physics.Vector2D, radius float64) {
	cx, cy := r.worldToScreen(center)
	px := radius / r.scale
	b := r.img.Bounds()
	if cx+px < 0 || cy+px < 0 || cx-px > float64(b.Dx()) || cy-px > float64(b.Dy()) {
		return
	}
	n := int(math.Min(math.Max(math.Ceil(2*math.Pi*px/2), 12), 720))
	prevX, prevY := cx+px, cy
	for i := 1; i <= n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		x, y := cx+px*math.Cos(a), cy+px*math.Sin(a)
		r.stroke(prevX, prevY, x, y)
		prevX, prevY = x, y
	}
	r.flush(CircleColor)
}

// DrawPoint implements physics.DebugDrawer
func (r *ImageRenderer) DrawPoint(p physics.Vector2D) {
	x, y := r.worldToScreen(p)
	b := r.img.Bounds()
	if x < 0 || y < 0 || x >= float64(b.Dx()) || y >= float64(b.Dy()) {
		return
	}
	const size = 1.5
	r.raster.MoveTo(float32(x-size), float32(y-size))
	r.raster.LineTo(float32(x+size), float32(y-size))
	r.raster.LineTo(float32(x+size), float32(y+size))
	r.raster.LineTo(float32(x-size), float32(y+size))
	r.raster.ClosePath()
	r.flush(PointColor)
}

// WritePNG encodes the frame as PNG
func (r *ImageRenderer) WritePNG(w io.Writer) error {
	if err := png.Encode(w, r.img); err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	return nil
}
