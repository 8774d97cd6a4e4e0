// pkg/physics/vector_test.go
package physics

import (
	"math"
	"testing"
)

func TestVector2D_Arithmetic(t *testing.T) {
	a := Vec(3, 4)
	b := Vec(1, -2)

	tests := []struct {
		name     string
		got      Vector2D
		expected Vector2D
	}{
		{"add", a.Add(b), Vec(4, 2)},
		{"sub", a.Sub(b), Vec(2, 6)},
		{"scale", a.Scale(-2), Vec(-6, -8)},
		{"mul", a.Mul(b), Vec(3, -8)},
		{"negate", a.Negate(), Vec(-3, -4)},
		{"perpendicular", Vec(1, 0).Perpendicular(), Vec(0, 1)},
		{"normal", Vec(2, 0).Normal(), Vec(0, -1)},
		{"rotate_quarter_turn", Vec(1, 0).Rotate(math.Pi / 2), Vec(0, 1)},
		{"from_angle", FromAngle(math.Pi, 2), Vec(-2, 0)},
		{"cross_scalar", Vec(1, 2).CrossScalar(3), Vec(6, -3)},
		{"scalar_cross", ScalarCross(3, Vec(1, 2)), Vec(-6, 3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !vecApprox(tt.got, tt.expected) {
				t.Errorf("got %v, expected %v", tt.got, tt.expected)
			}
		})
	}
}

func TestVector2D_Scalars(t *testing.T) {
	tests := []struct {
		name     string
		got      float64
		expected float64
	}{
		{"length", Vec(3, 4).Length(), 5},
		{"length_squared", Vec(3, 4).LengthSquared(), 25},
		{"distance", Vec(1, 1).Distance(Vec(4, 5)), 5},
		{"distance_squared", Vec(1, 1).DistanceSquared(Vec(4, 5)), 25},
		{"dot", Vec(1, 2).Dot(Vec(3, 4)), 11},
		{"cross", Vec(1, 0).Cross(Vec(0, 1)), 1},
		{"angle", Vec(0, 2).Angle(), math.Pi / 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !approx(tt.got, tt.expected) {
				t.Errorf("got %v, expected %v", tt.got, tt.expected)
			}
		})
	}
}

func TestVector2D_Normalize(t *testing.T) {
	tests := []struct {
		name     string
		input    Vector2D
		expected Vector2D
	}{
		{"unit_x", Vec(5, 0), Vec(1, 0)},
		{"diagonal", Vec(3, 4), Vec(0.6, 0.8)},
		{"zero_stays_zero", Zero, Zero},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.input.Normalize(); !vecApprox(got, tt.expected) {
				t.Errorf("Normalize() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestVector2D_InPlace(t *testing.T) {
	v := Vec(1, 1)
	v.AddEqual(Vec(2, 3)).ScaleEqual(2).SubEqual(Vec(1, 1))
	if !vecApprox(v, Vec(5, 7)) {
		t.Errorf("chained in-place ops = %v, expected (5, 7)", v)
	}

	orig := Vec(1, 2)
	_ = orig.Add(Vec(10, 10))
	_ = orig.Scale(3)
	if orig != Vec(1, 2) {
		t.Errorf("non in-place ops mutated the receiver: %v", orig)
	}
}

func TestVector2D_Predicates(t *testing.T) {
	if !Zero.IsZero() || Vec(0, 1e-12).IsZero() {
		t.Error("IsZero() should only accept the exact zero vector")
	}
	if Vec(math.NaN(), 0).IsFinite() || Vec(0, math.Inf(-1)).IsFinite() {
		t.Error("IsFinite() accepted a NaN or infinite component")
	}
	if !Vec(1, 2).Equals(Vec(1.05, 1.95), 0.1) {
		t.Error("Equals() should accept differences inside the tolerance")
	}
	if got := Vec(1.5, -2).String(); got != "(1.5, -2)" {
		t.Errorf("String() = %q", got)
	}
}

func BenchmarkVector2D_Normalize(b *testing.B) {
	v := Vec(3, 4)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = v.Normalize()
	}
}
