package scene

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/opd-ai/go-physics2d/pkg/physics"
)

// Screen coordinates: y grows downward, so gravity is positive y and floors
// sit below the origin.

type generator func(r *rand.Rand, count int) []BodyConfig

var generators = map[string]generator{
	"default":   generateDefault,
	"pyramid":   generatePyramid,
	"rain":      generateRain,
	"container": generateContainer,
	"mixed":     generateMixed,
}

// Kinds lists the scene kinds Generate understands
func Kinds() []string {
	kinds := make([]string, 0, len(generators))
	for k := range generators {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Generate builds a procedural scene with count dynamic bodies. The same
// kind, count and seed always produce the same scene.
func Generate(kind string, count int, seed uint64) (*Scene, error) {
	gen, ok := generators[kind]
	if !ok {
		return nil, fmt.Errorf("unknown scene kind: %q", kind)
	}
	if count < 0 {
		return nil, fmt.Errorf("body count must not be negative, got %d", count)
	}
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	return &Scene{
		Name:    kind,
		Gravity: &physics.Vector2D{X: 0, Y: 98},
		Bodies:  gen(r, count),
	}, nil
}

func f64(v float64) *float64 { return &v }

func wall(pos physics.Vector2D, width, height float64) BodyConfig {
	return BodyConfig{
		Shape:         ShapeConfig{Kind: "box", Width: width, Height: height},
		Position:      pos,
		CollisionType: "fixed",
	}
}

func ball(pos physics.Vector2D, radius float64) BodyConfig {
	return BodyConfig{
		Shape:    ShapeConfig{Kind: "circle", Radius: radius},
		Position: pos,
		Mass:     f64(radius * radius * math.Pi),
	}
}

func crate(pos physics.Vector2D, width, height float64) BodyConfig {
	return BodyConfig{
		Shape:    ShapeConfig{Kind: "box", Width: width, Height: height},
		Position: pos,
		Mass:     f64(width * height),
	}
}

func generateDefault(r *rand.Rand, count int) []BodyConfig {
	bodies := []BodyConfig{wall(physics.Vec(0, 50), 200, 10)}
	for i := 0; i < count; i++ {
		pos := physics.Vec((r.Float64()-0.5)*150, -r.Float64()*50-10)
		if r.Float64() < 0.6 {
			bodies = append(bodies, ball(pos, r.Float64()*2+1))
		} else {
			size := r.Float64()*3 + 1
			bodies = append(bodies, crate(pos, size, size))
		}
	}
	return bodies
}

func generatePyramid(r *rand.Rand, count int) []BodyConfig {
	bodies := []BodyConfig{wall(physics.Vec(0, 10), 200, 5)}
	const size = 2.0
	levels := 0
	for levels*(levels+1)/2 < count {
		levels++
	}
	y := 10 - 2.5 - size/2
	placed := 0
	for level := levels; level > 0 && placed < count; level-- {
		for i := 0; i < level && placed < count; i++ {
			x := (float64(i) - float64(level-1)/2) * size
			bodies = append(bodies, crate(physics.Vec(x, y), size*0.9, size*0.9))
			placed++
		}
		y -= size
	}
	return bodies
}

func generateRain(r *rand.Rand, count int) []BodyConfig {
	bodies := []BodyConfig{
		wall(physics.Vec(0, 50), 300, 10),
		wall(physics.Vec(-150, 0), 10, 100),
		wall(physics.Vec(150, 0), 10, 100),
	}
	for i := 0; i < count; i++ {
		pos := physics.Vec((r.Float64()-0.5)*250, -r.Float64()*200-100)
		if r.Float64() < 0.7 {
			bodies = append(bodies, ball(pos, r.Float64()*2+0.5))
		} else {
			bodies = append(bodies, crate(pos, r.Float64()*3+1, r.Float64()*3+1))
		}
	}
	return bodies
}

func generateContainer(r *rand.Rand, count int) []BodyConfig {
	const (
		thickness = 5.0
		width     = 100.0
		height    = 80.0
	)
	bodies := []BodyConfig{
		wall(physics.Vec(0, height/2), width, thickness),
		wall(physics.Vec(-width/2, 0), thickness, height),
		wall(physics.Vec(width/2, 0), thickness, height),
	}
	for i := 0; i < count; i++ {
		pos := physics.Vec((r.Float64()-0.5)*(width-20), -r.Float64()*30)
		if r.Float64() < 0.6 {
			bodies = append(bodies, ball(pos, r.Float64()*1.5+0.5))
		} else {
			size := r.Float64()*2 + 1
			bodies = append(bodies, crate(pos, size, size))
		}
	}
	return bodies
}

// generateMixed uses every shape kind: edge platforms, triangles, circles
// and boxes with varied restitution and friction.
func generateMixed(r *rand.Rand, count int) []BodyConfig {
	bodies := []BodyConfig{
		{
			Name:          "floor",
			Shape:         ShapeConfig{Kind: "edge", Begin: physics.Vec(-100, 0), End: physics.Vec(100, 0)},
			Position:      physics.Vec(0, 60),
			CollisionType: "fixed",
		},
	}
	for i := 0; i < 3; i++ {
		half := r.Float64()*15 + 10
		bodies = append(bodies, BodyConfig{
			Name:          fmt.Sprintf("platform-%d", i),
			Shape:         ShapeConfig{Kind: "edge", Begin: physics.Vec(-half, 0), End: physics.Vec(half, 0)},
			Position:      physics.Vec((r.Float64()-0.5)*150, float64(i)*15),
			CollisionType: "fixed",
		})
	}

	for i := 0; i < count; i++ {
		pos := physics.Vec((r.Float64()-0.5)*200, -r.Float64()*100-50)
		var bc BodyConfig
		switch r.IntN(3) {
		case 0:
			bc = ball(pos, r.Float64()*2+0.5)
		case 1:
			size := r.Float64()*3 + 1
			bc = crate(pos, size, size)
		case 2:
			s := r.Float64()*2 + 1
			bc = BodyConfig{
				Shape: ShapeConfig{Kind: "polygon", Points: []physics.Vector2D{
					{X: 0, Y: -s}, {X: s, Y: s}, {X: -s, Y: s},
				}},
				Position: pos,
				Mass:     f64(2 * s * s),
			}
		}
		bc.Restitution = f64(r.Float64()*0.5 + 0.3)
		bc.Friction = f64(r.Float64()*0.5 + 0.2)
		bodies = append(bodies, bc)
	}
	return bodies
}
