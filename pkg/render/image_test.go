package render

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"

	"github.com/opd-ai/go-physics2d/pkg/physics"
)

func isBackground(r *ImageRenderer, x, y int) bool {
	return r.Image().RGBAAt(x, y) == BackgroundColor
}

func TestImageRenderer_Clear(t *testing.T) {
	r := NewImageRenderer(8, 4, 1)
	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			if !isBackground(r, x, y) {
				t.Fatalf("pixel (%d, %d) = %v, expected background", x, y, r.Image().RGBAAt(x, y))
			}
		}
	}
}

func TestImageRenderer_Draw(t *testing.T) {
	tests := []struct {
		name string
		draw func(r *ImageRenderer)
		x, y int
	}{
		{"point", func(r *ImageRenderer) { r.DrawPoint(physics.Vector2D{}) }, 10, 10},
		{"line", func(r *ImageRenderer) { r.DrawLine(physics.Vector2D{X: -8}, physics.Vector2D{X: 8}) }, 4, 10},
		{"clipped_line", func(r *ImageRenderer) { r.DrawLine(physics.Vector2D{X: -50}, physics.Vector2D{X: 50}) }, 0, 10},
		{"circle", func(r *ImageRenderer) { r.DrawCircle(physics.Vector2D{}, 6) }, 16, 10},
		{"scaled_center", func(r *ImageRenderer) {
			r.SetCenter(physics.Vector2D{X: 40, Y: 40})
			r.DrawPoint(physics.Vector2D{X: 40, Y: 40})
		}, 10, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewImageRenderer(20, 20, 1)
			tt.draw(r)

			if isBackground(r, tt.x, tt.y) {
				t.Errorf("pixel (%d, %d) is background, expected drawn", tt.x, tt.y)
			}
		})
	}
}

func TestImageRenderer_OffScreen(t *testing.T) {
	r := NewImageRenderer(20, 20, 1)
	r.DrawPoint(physics.Vector2D{X: 100})
	r.DrawCircle(physics.Vector2D{X: -100}, 5)
	r.DrawLine(physics.Vector2D{X: -100, Y: -100}, physics.Vector2D{X: 100, Y: -100})

	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			if !isBackground(r, x, y) {
				t.Fatalf("pixel (%d, %d) drawn by off-screen primitive", x, y)
			}
		}
	}
}

func TestImageRenderer_CircleInteriorUntouched(t *testing.T) {
	r := NewImageRenderer(40, 40, 1)
	r.DrawCircle(physics.Vector2D{}, 10)

	if !isBackground(r, 20, 20) {
		t.Errorf("circle center = %v, expected background", r.Image().RGBAAt(20, 20))
	}
	if isBackground(r, 30, 20) && isBackground(r, 29, 20) {
		t.Error("circle outline missing at radius")
	}
}

func TestImageRenderer_WritePNG(t *testing.T) {
	r := NewImageRenderer(16, 9, 1)
	r.DrawPoint(physics.Vector2D{})

	var buf bytes.Buffer
	if err := r.WritePNG(&buf); err != nil {
		t.Fatalf("WritePNG() error = %v", err)
	}

	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("png.Decode() error = %v", err)
	}
	if b := img.Bounds(); b.Dx() != 16 || b.Dy() != 9 {
		t.Errorf("decoded bounds = %v, expected 16x9", b)
	}
	got := color.RGBAModel.Convert(img.At(0, 0)).(color.RGBA)
	if got != BackgroundColor {
		t.Errorf("decoded corner = %v, expected %v", got, BackgroundColor)
	}
}
