package scene

import (
	"reflect"
	"testing"

	"github.com/opd-ai/go-physics2d/pkg/physics"
)

func TestGenerate(t *testing.T) {
	for _, kind := range Kinds() {
		t.Run(kind, func(t *testing.T) {
			s, err := Generate(kind, 20, 42)
			if err != nil {
				t.Fatalf("Generate() error = %v", err)
			}
			bodies, err := s.Build(physics.DefaultMass)
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}

			dynamic := 0
			for _, b := range bodies {
				if b.CollisionType == physics.Active {
					dynamic++
					if !(b.Mass > 0) {
						t.Errorf("dynamic body %d has mass %v", b.ID(), b.Mass)
					}
				}
			}
			if dynamic != 20 {
				t.Errorf("generated %d dynamic bodies, expected 20", dynamic)
			}
			if s.Gravity == nil || s.Gravity.Y <= 0 {
				t.Errorf("Gravity = %v, expected a downward pull", s.Gravity)
			}

			again, _ := Generate(kind, 20, 42)
			if !reflect.DeepEqual(s, again) {
				t.Error("same seed produced a different scene")
			}
		})
	}
}

func TestGenerate_Errors(t *testing.T) {
	if _, err := Generate("soup", 5, 1); err == nil {
		t.Error("Generate() accepted an unknown kind")
	}
	if _, err := Generate("rain", -1, 1); err == nil {
		t.Error("Generate() accepted a negative count")
	}
}

func TestGenerate_PyramidLevels(t *testing.T) {
	for _, count := range []int{0, 1, 3, 10, 50} {
		s, err := Generate("pyramid", count, 1)
		if err != nil {
			t.Fatalf("Generate(pyramid, %d) error = %v", count, err)
		}
		if got := len(s.Bodies) - 1; got != count {
			t.Errorf("pyramid of %d placed %d crates", count, got)
		}
	}
}

func TestKinds(t *testing.T) {
	expected := []string{"container", "default", "mixed", "pyramid", "rain"}
	if got := Kinds(); !reflect.DeepEqual(got, expected) {
		t.Errorf("Kinds() = %v, expected %v", got, expected)
	}
}
