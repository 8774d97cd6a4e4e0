package physics

import (
	"bytes"
	"errors"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/EngoEngine/ecs"

	"github.com/opd-ai/go-physics2d/pkg/logging"
)

func rigidBodyConfig() Config {
	cfg := DefaultConfig()
	cfg.Resolution = ResolutionRigidBody
	return cfg
}

func mustWorld(t *testing.T, cfg Config) *World {
	t.Helper()
	w, err := NewWorld(cfg, nil)
	if err != nil {
		t.Fatalf("NewWorld() error = %v", err)
	}
	return w
}

// headOn builds two unit-mass circles of radius 10 with A moving right at
// 100 px/s toward a resting B.
func headOn(t *testing.T, w *World, bx float64) (*Body, *Body) {
	t.Helper()
	a := mustCircleBody(t, Vec(0, 0), 10)
	b := mustCircleBody(t, Vec(bx, 0), 10)
	a.Mass, b.Mass = 1, 1
	a.Vel = Vec(100, 0)
	for _, body := range []*Body{a, b} {
		if err := w.Add(body); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}
	return a, b
}

func TestWorld_HeadOnSingleTick(t *testing.T) {
	for _, strategy := range []BroadPhaseStrategy{BroadPhaseDynamicTree, BroadPhaseNaive} {
		t.Run(strategy.String(), func(t *testing.T) {
			cfg := rigidBodyConfig()
			cfg.BroadPhase = strategy
			w := mustWorld(t, cfg)
			a, b := headOn(t, w, 25)

			contacts := w.Step(0.1)
			if len(contacts) != 1 {
				t.Fatalf("Step() returned %d contacts, expected 1", len(contacts))
			}
			c := contacts[0]
			if c.BodyA() != a || c.BodyB() != b {
				t.Error("contact bodies are not in tracking order")
			}
			if !vecApprox(c.Normal(), Vec(1, 0)) {
				t.Errorf("Normal() = %v, expected (1, 0)", c.Normal())
			}
			if !approx(c.Depth(), 5) {
				t.Errorf("Depth() = %v, expected 5", c.Depth())
			}
			// j = (1 + 0.2) * 100 / 2
			if !approx(a.Vel.X, 40) || !approx(b.Vel.X, 60) {
				t.Errorf("velocities = %v and %v, expected 40 and 60", a.Vel.X, b.Vel.X)
			}
			if a.Pos.X >= 10 || b.Pos.X <= 25 {
				t.Errorf("positions %v and %v were not corrected", a.Pos, b.Pos)
			}
			if len(w.Contacts()) != 1 || w.Ticks() != 1 {
				t.Error("world did not record the tick")
			}
		})
	}
}

func TestWorld_HeadOnFirstContact(t *testing.T) {
	w := mustWorld(t, rigidBodyConfig())
	a, b := headOn(t, w, 50)

	// A covers 10 px per tick and the circles touch once the gap closes below 20
	for tick := 1; tick <= 3; tick++ {
		if contacts := w.Step(0.1); len(contacts) != 0 {
			t.Fatalf("tick %d reported %d contacts, expected none", tick, len(contacts))
		}
	}
	if !approx(a.Pos.X, 30) || a.Vel.X != 100 {
		t.Fatalf("A at %v moving %v before contact", a.Pos, a.Vel)
	}

	contacts := w.Step(0.1)
	if len(contacts) != 1 {
		t.Fatalf("tick 4 reported %d contacts, expected 1", len(contacts))
	}
	if !vecApprox(contacts[0].Normal(), Vec(1, 0)) {
		t.Errorf("Normal() = %v, expected (1, 0)", contacts[0].Normal())
	}
	if !approx(a.Vel.X, 40) || !approx(b.Vel.X, 60) {
		t.Errorf("velocities = %v and %v, expected 40 and 60", a.Vel.X, b.Vel.X)
	}
	momentum := a.Vel.X*a.Mass + b.Vel.X*b.Mass
	if !approx(momentum, 100) {
		t.Errorf("momentum = %v, expected 100", momentum)
	}
}

func TestWorld_Add(t *testing.T) {
	t.Run("nil_body", func(t *testing.T) {
		w := mustWorld(t, DefaultConfig())
		if err := w.Add(nil); !errors.Is(err, ErrNilShape) {
			t.Errorf("Add(nil) error = %v, expected ErrNilShape", err)
		}
	})

	t.Run("no_shape", func(t *testing.T) {
		w := mustWorld(t, DefaultConfig())
		if err := w.Add(NewBody(Zero, nil)); !errors.Is(err, ErrNilShape) {
			t.Errorf("Add() error = %v, expected ErrNilShape", err)
		}
	})

	t.Run("duplicate", func(t *testing.T) {
		w := mustWorld(t, DefaultConfig())
		b := mustCircleBody(t, Zero, 1)
		if err := w.Add(b); err != nil {
			t.Fatalf("first Add() error = %v", err)
		}
		if err := w.Add(b); !errors.Is(err, ErrAlreadyTracked) {
			t.Errorf("second Add() error = %v, expected ErrAlreadyTracked", err)
		}
		if len(w.Bodies()) != 1 {
			t.Errorf("world holds %d bodies, expected 1", len(w.Bodies()))
		}
	})

	t.Run("massless_mover_under_rigidbody", func(t *testing.T) {
		w := mustWorld(t, rigidBodyConfig())
		b := mustCircleBody(t, Zero, 1)
		b.Mass = 0
		if err := w.Add(b); !errors.Is(err, ErrInvalidMass) {
			t.Errorf("Add() error = %v, expected ErrInvalidMass", err)
		}
	})

	t.Run("massless_fixed_under_rigidbody", func(t *testing.T) {
		w := mustWorld(t, rigidBodyConfig())
		b := mustBoxBody(t, Zero, 10, 1)
		b.Mass = 0
		b.CollisionType = Fixed
		if err := w.Add(b); err != nil {
			t.Errorf("Add() error = %v, expected nil", err)
		}
	})

	t.Run("massless_mover_under_box", func(t *testing.T) {
		w := mustWorld(t, DefaultConfig())
		b := mustCircleBody(t, Zero, 1)
		b.Mass = 0
		if err := w.Add(b); err != nil {
			t.Errorf("Add() error = %v, expected nil", err)
		}
	})
}

func TestWorld_RejectionIsLogged(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWorld(DefaultConfig(), logging.NewLoggerWithWriter(&buf, slog.LevelDebug))
	if err != nil {
		t.Fatalf("NewWorld() error = %v", err)
	}
	if !strings.Contains(buf.String(), "physics world created") {
		t.Error("world creation was not logged")
	}
	_ = w.Add(nil)
	if !strings.Contains(buf.String(), "body rejected") {
		t.Error("rejected body was not logged")
	}
	w.Step(0.016)
	if !strings.Contains(buf.String(), "physics tick") {
		t.Error("tick was not logged at debug level")
	}
}

func TestNewWorld_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.IntegrationSteps = 0
	if _, err := NewWorld(cfg, nil); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("NewWorld() error = %v, expected ErrInvalidConfig", err)
	}
}

func TestWorld_NewBodyUsesDefaultMass(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DefaultMass = 3
	w := mustWorld(t, cfg)
	c, _ := NewCircle(1, Zero)
	if b := w.NewBody(Zero, c); b.Mass != 3 {
		t.Errorf("NewBody().Mass = %v, expected 3", b.Mass)
	}
}

func TestWorld_SetConfigAppliesAtNextTick(t *testing.T) {
	w := mustWorld(t, DefaultConfig())
	var bodies []*Body
	for i := 0; i < 4; i++ {
		b := mustCircleBody(t, Vec(float64(i)*30, 0), 5)
		if err := w.Add(b); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
		bodies = append(bodies, b)
	}

	next := DefaultConfig()
	next.BroadPhase = BroadPhaseNaive
	next.Gravity = Vec(0, 10)
	if err := w.SetConfig(next); err != nil {
		t.Fatalf("SetConfig() error = %v", err)
	}
	if _, ok := w.BroadPhase().(*TreeBroadPhase); !ok {
		t.Error("broad-phase switched before the tick boundary")
	}
	if w.Config().Gravity != Zero {
		t.Error("config applied before the tick boundary")
	}

	w.Step(1)

	naive, ok := w.BroadPhase().(*NaiveBroadPhase)
	if !ok {
		t.Fatalf("BroadPhase() = %T, expected *NaiveBroadPhase", w.BroadPhase())
	}
	if naive.Len() != len(bodies) {
		t.Errorf("rebuilt broad-phase tracks %d bodies, expected %d", naive.Len(), len(bodies))
	}
	for _, b := range bodies {
		if !naive.Tracked(b) {
			t.Errorf("body %d was not re-tracked", b.ID())
		}
		if !approx(b.Vel.Y, 10) {
			t.Errorf("body %d Vel.Y = %v, expected gravity from the new config", b.ID(), b.Vel.Y)
		}
	}
}

func TestWorld_SetConfigRejects(t *testing.T) {
	w := mustWorld(t, DefaultConfig())
	b := mustCircleBody(t, Zero, 1)
	b.Mass = 0
	if err := w.Add(b); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if err := w.SetConfig(rigidBodyConfig()); !errors.Is(err, ErrInvalidMass) {
		t.Errorf("SetConfig(rigidbody) error = %v, expected ErrInvalidMass", err)
	}
	bad := DefaultConfig()
	bad.CollisionPasses = -1
	if err := w.SetConfig(bad); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("SetConfig(bad) error = %v, expected ErrInvalidConfig", err)
	}

	w.Step(0.016)
	if w.Config().Resolution != ResolutionBox || w.Config().CollisionPasses != 5 {
		t.Error("rejected config was applied")
	}
}

func TestWorld_DisabledOnlyIntegrates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = false
	w := mustWorld(t, cfg)
	a := mustCircleBody(t, Vec(0, 0), 5)
	b := mustCircleBody(t, Vec(4, 0), 5)
	a.Vel = Vec(10, 0)
	_ = w.Add(a)
	_ = w.Add(b)

	if contacts := w.Step(0.5); contacts != nil {
		t.Errorf("Step() = %d contacts, expected nil", len(contacts))
	}
	if !vecApprox(a.Pos, Vec(5, 0)) || b.Pos != Vec(4, 0) {
		t.Errorf("positions = %v and %v, expected integration only", a.Pos, b.Pos)
	}
}

func TestWorld_BallComesToRestOnGround(t *testing.T) {
	for _, resolution := range []ResolutionStrategy{ResolutionBox, ResolutionRigidBody} {
		t.Run(resolution.String(), func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Resolution = resolution
			cfg.Gravity = Vec(0, 100)
			w := mustWorld(t, cfg)

			ground := mustBoxBody(t, Vec(0, 30), 200, 20)
			ground.CollisionType = Fixed
			ball := mustCircleBody(t, Vec(0, 0), 5)
			ball.Restitution = 0
			_ = w.Add(ground)
			_ = w.Add(ball)

			for i := 0; i < 180; i++ {
				w.Step(1.0 / 60)
			}

			// ground top is y=20, so the ball rests with its center at 15
			if math.Abs(ball.Pos.Y-15) > 0.1 {
				t.Errorf("ball Pos.Y = %v, expected about 15", ball.Pos.Y)
			}
			if ground.Pos != Vec(0, 30) {
				t.Errorf("ground moved to %v", ground.Pos)
			}
		})
	}
}

func TestWorld_DrivenByECS(t *testing.T) {
	w := mustWorld(t, DefaultConfig())
	a := mustCircleBody(t, Vec(0, 0), 5)
	b := mustCircleBody(t, Vec(100, 0), 5)
	a.Vel = Vec(10, 0)
	_ = w.Add(a)
	_ = w.Add(b)

	ew := &ecs.World{}
	ew.AddSystem(w)
	ew.Update(0.5)

	if w.Ticks() != 1 || !approx(a.Pos.X, 5) {
		t.Errorf("after one ecs update: ticks %d, A at %v", w.Ticks(), a.Pos)
	}

	ew.RemoveEntity(b.BasicEntity)
	if _, ok := w.Body(b.ID()); ok {
		t.Error("removed entity is still simulated")
	}
	if w.BroadPhase().Tracked(b) {
		t.Error("removed entity is still tracked")
	}
	if got, ok := w.Body(a.ID()); !ok || got != a {
		t.Error("Body() lost the remaining body")
	}
}

func TestWorld_RemoveBody(t *testing.T) {
	w := mustWorld(t, DefaultConfig())
	a := mustCircleBody(t, Vec(0, 0), 5)
	b := mustCircleBody(t, Vec(3, 0), 5)
	_ = w.Add(a)
	_ = w.Add(b)

	w.RemoveBody(b)
	w.RemoveBody(nil)
	if contacts := w.Step(0.016); len(contacts) != 0 {
		t.Errorf("Step() = %d contacts after removal, expected 0", len(contacts))
	}
	if len(w.Bodies()) != 1 || w.BroadPhase().Len() != 1 {
		t.Error("world still holds the removed body")
	}
}

func TestWorld_RayCast(t *testing.T) {
	w := mustWorld(t, DefaultConfig())
	near := mustCircleBody(t, Vec(20, 0), 2)
	far := mustBoxBody(t, Vec(50, 0), 4, 4)
	_ = w.Add(far)
	_ = w.Add(near)
	w.Step(0)

	hits := w.RayCast(NewRay(Zero, Vec(1, 0)), RayCastOptions{SearchAll: true})
	if len(hits) != 2 {
		t.Fatalf("RayCast() = %d hits, expected 2", len(hits))
	}
	if hits[0].Body != near || !approx(hits[0].Distance, 18) {
		t.Errorf("first hit = body %d at %v, expected near at 18", hits[0].Body.ID(), hits[0].Distance)
	}
	if hits[1].Body != far || !approx(hits[1].Distance, 48) {
		t.Errorf("second hit = body %d at %v, expected far at 48", hits[1].Body.ID(), hits[1].Distance)
	}
}

type countingDrawer struct {
	points, lines, circles int
}

func (d *countingDrawer) DrawPoint(Vector2D)           { d.points++ }
func (d *countingDrawer) DrawLine(Vector2D, Vector2D)  { d.lines++ }
func (d *countingDrawer) DrawCircle(Vector2D, float64) { d.circles++ }

func TestWorld_DebugDraw(t *testing.T) {
	w := mustWorld(t, DefaultConfig())
	_ = w.Add(mustCircleBody(t, Vec(0, 0), 5))
	_ = w.Add(mustCircleBody(t, Vec(6, 0), 5))
	w.Step(0)

	d := &countingDrawer{}
	w.DebugDraw(d)
	if d.circles != 2 {
		t.Errorf("drew %d circles, expected 2", d.circles)
	}
	if d.points != 1 {
		t.Errorf("drew %d points, expected the single contact point", d.points)
	}
	// three tree nodes outlined with four lines each, plus the contact normal
	if d.lines != 13 {
		t.Errorf("drew %d lines, expected 13", d.lines)
	}
}
