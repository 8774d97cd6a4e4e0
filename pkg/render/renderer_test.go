package render

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/opd-ai/go-physics2d/pkg/logging"
	"github.com/opd-ai/go-physics2d/pkg/physics"
)

// overlappingWorld returns a world with two overlapping circles after one tick
func overlappingWorld(t *testing.T) *physics.World {
	t.Helper()
	w, err := physics.NewWorld(physics.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("NewWorld() error = %v", err)
	}
	for _, x := range []float64{0, 15} {
		shape, err := physics.NewCircle(10, physics.Vector2D{})
		if err != nil {
			t.Fatalf("NewCircle() error = %v", err)
		}
		if err := w.Add(w.NewBody(physics.Vector2D{X: x}, shape)); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}
	w.Step(1.0 / 60)
	return w
}

func TestDrawWorld(t *testing.T) {
	w := overlappingWorld(t)
	if len(w.Contacts()) != 1 {
		t.Fatalf("len(Contacts()) = %d, expected 1", len(w.Contacts()))
	}

	tests := []struct {
		name    string
		tree    bool
		circles int
		points  int
		minLine int
		maxLine int
	}{
		{"shapes_and_contacts", false, 2, 1, 1, 1},
		{"with_broadphase", true, 2, 1, 5, 1 << 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewNullRenderer(logging.NewNopLogger())
			DrawWorld(d, w, tt.tree)

			if d.Circles != tt.circles {
				t.Errorf("Circles = %d, expected %d", d.Circles, tt.circles)
			}
			if d.Points != tt.points {
				t.Errorf("Points = %d, expected %d", d.Points, tt.points)
			}
			if d.Lines < tt.minLine || d.Lines > tt.maxLine {
				t.Errorf("Lines = %d, expected between %d and %d", d.Lines, tt.minLine, tt.maxLine)
			}
		})
	}
}

func TestNullRenderer(t *testing.T) {
	var buf bytes.Buffer
	d := NewNullRenderer(logging.NewLoggerWithWriter(&buf, slog.LevelDebug))

	d.DrawLine(physics.Vector2D{}, physics.Vector2D{X: 1})
	d.DrawCircle(physics.Vector2D{}, 2)
	d.DrawPoint(physics.Vector2D{Y: 3})
	d.DrawPoint(physics.Vector2D{Y: 4})
	d.Present()

	if d.Lines != 1 || d.Circles != 1 || d.Points != 2 {
		t.Errorf("counters = %d/%d/%d, expected 1/1/2", d.Lines, d.Circles, d.Points)
	}
	for _, msg := range []string{"DrawLine called", "DrawCircle called", "DrawPoint called", "Present called"} {
		if !strings.Contains(buf.String(), msg) {
			t.Errorf("log output missing %q", msg)
		}
	}

	d.Clear()
	if d.Lines != 0 || d.Circles != 0 || d.Points != 0 {
		t.Errorf("counters after Clear() = %d/%d/%d, expected zero", d.Lines, d.Circles, d.Points)
	}
}

func TestNullRenderer_NilLogger(t *testing.T) {
	d := NewNullRenderer(nil)
	if d.logger == nil {
		t.Fatal("NewNullRenderer(nil) left logger nil")
	}
}
