package physics

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

const testTolerance = 1e-6

func approx(a, b float64) bool {
	return mgl64.FloatEqualThreshold(a, b, testTolerance)
}

func vecApprox(a, b Vector2D) bool {
	return a.Equals(b, testTolerance)
}

func mustCircleBody(t testing.TB, pos Vector2D, radius float64) *Body {
	t.Helper()
	c, err := NewCircle(radius, Zero)
	if err != nil {
		t.Fatalf("NewCircle(%v) error = %v", radius, err)
	}
	return NewBody(pos, c)
}

func mustBoxBody(t testing.TB, pos Vector2D, w, h float64) *Body {
	t.Helper()
	box, err := NewBox(w, h)
	if err != nil {
		t.Fatalf("NewBox(%v, %v) error = %v", w, h, err)
	}
	return NewBody(pos, box)
}

func mustPolygonBody(t testing.TB, pos Vector2D, points []Vector2D) *Body {
	t.Helper()
	p, err := NewConvexPolygon(points)
	if err != nil {
		t.Fatalf("NewConvexPolygon() error = %v", err)
	}
	return NewBody(pos, p)
}

func edgeBody(pos, begin, end Vector2D) *Body {
	return NewBody(pos, NewEdge(begin, end))
}
