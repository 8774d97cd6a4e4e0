// pkg/physics/world.go
package physics

import (
	"context"
	"fmt"

	"github.com/EngoEngine/ecs"

	"github.com/opd-ai/go-physics2d/pkg/logging"
)

// World runs the per-tick pipeline over its bodies: integrate, broad-phase,
// narrow-phase, then resolution passes. It implements ecs.System so an
// ecs.World can drive it.
//
// A World is single-threaded. Independent scenes should each own a World.
type World struct {
	config   Config
	pending  *Config
	broad    BroadPhase
	resolver Resolver

	bodies   []*Body
	contacts []*CollisionContact
	tick     uint64

	logger *logging.Logger
	ctx    context.Context
}

// NewWorld validates cfg and creates an empty world. A nil logger discards
// output.
func NewWorld(cfg Config, logger *logging.Logger) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	w := &World{
		config:   cfg,
		broad:    cfg.newBroadPhase(),
		resolver: cfg.newResolver(),
		logger:   logger,
		ctx:      logging.WithCorrelationID(context.Background(), ""),
	}
	w.logger.Info(w.ctx, "physics world created",
		"broad_phase", cfg.BroadPhase.String(),
		"resolution", cfg.Resolution.String())
	return w, nil
}

// Config returns the configuration in effect for the current tick
func (w *World) Config() Config { return w.config }

// SetConfig validates cfg and stages it for the next tick boundary. Switching
// broad-phase strategy rebuilds the index and re-tracks every body.
func (w *World) SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Resolution == ResolutionRigidBody {
		for _, b := range w.bodies {
			if err := checkMass(b); err != nil {
				return err
			}
		}
	}
	w.pending = &cfg
	return nil
}

func (w *World) applyPending() {
	if w.pending == nil {
		return
	}
	old := w.config
	w.config = *w.pending
	w.pending = nil
	w.resolver = w.config.newResolver()

	if old.BroadPhase == w.config.BroadPhase &&
		old.TreePadding == w.config.TreePadding &&
		old.TreeVelocityMultiplier == w.config.TreeVelocityMultiplier {
		return
	}
	w.broad = w.config.newBroadPhase()
	for _, b := range w.bodies {
		if err := w.broad.Track(b); err != nil {
			// bodies were already validated when added
			w.logger.Error(w.ctx, "re-track failed", err, "body", b.ID())
		}
	}
	w.logger.Info(w.ctx, "broad-phase rebuilt",
		"from", old.BroadPhase.String(),
		"to", w.config.BroadPhase.String(),
		"bodies", len(w.bodies))
}

func checkMass(b *Body) error {
	if b.CollisionType.moves() && !(b.Mass > 0) {
		return fmt.Errorf("body %d mass %v: %w", b.ID(), b.Mass, ErrInvalidMass)
	}
	return nil
}

// NewBody creates an Active body using the configured default mass. It is
// not added to the world.
func (w *World) NewBody(pos Vector2D, shape Shape) *Body {
	b := NewBody(pos, shape)
	b.Mass = w.config.DefaultMass
	return b
}

// Add starts simulating b. Bodies without a shape, bodies already present
// and, under RigidBody resolution, moving bodies without positive mass are
// rejected.
func (w *World) Add(b *Body) error {
	err := w.add(b)
	if err != nil {
		w.logger.Warn(w.ctx, "body rejected", "error", err.Error())
	}
	return err
}

func (w *World) add(b *Body) error {
	if b == nil || b.shape == nil {
		return ErrNilShape
	}
	if w.config.Resolution == ResolutionRigidBody {
		if err := checkMass(b); err != nil {
			return err
		}
	}
	if w.pending != nil && w.pending.Resolution == ResolutionRigidBody {
		if err := checkMass(b); err != nil {
			return err
		}
	}
	b.Recalc()
	if err := w.broad.Track(b); err != nil {
		return err
	}
	w.bodies = append(w.bodies, b)
	return nil
}

// Remove implements ecs.System. Unknown entities are ignored.
func (w *World) Remove(e ecs.BasicEntity) {
	for i, b := range w.bodies {
		if b.ID() == e.ID() {
			w.broad.Untrack(b)
			w.bodies = append(w.bodies[:i], w.bodies[i+1:]...)
			return
		}
	}
}

// RemoveBody stops simulating b
func (w *World) RemoveBody(b *Body) {
	if b != nil {
		w.Remove(b.BasicEntity)
	}
}

// Body looks up a body by entity id
func (w *World) Body(id uint64) (*Body, bool) {
	for _, b := range w.bodies {
		if b.ID() == id {
			return b, true
		}
	}
	return nil, false
}

// Bodies returns the bodies in insertion order
func (w *World) Bodies() []*Body {
	out := make([]*Body, len(w.bodies))
	copy(out, w.bodies)
	return out
}

// BroadPhase returns the active broad-phase
func (w *World) BroadPhase() BroadPhase { return w.broad }

// Contacts returns the contacts detected by the last tick
func (w *World) Contacts() []*CollisionContact { return w.contacts }

// Ticks returns how many ticks have run
func (w *World) Ticks() uint64 { return w.tick }

// Update implements ecs.System; dt is in seconds.
func (w *World) Update(dt float32) {
	w.Step(float64(dt))
}

// Step advances the simulation by delta seconds and returns the contacts
// found before resolution. The same list is available from Contacts until
// the next tick.
func (w *World) Step(delta float64) []*CollisionContact {
	w.applyPending()
	w.tick++
	cfg := w.config

	for _, b := range w.bodies {
		b.Integrate(delta, cfg.Gravity, cfg.IntegrationSteps)
	}

	if !cfg.Enabled {
		w.contacts = nil
		return nil
	}

	updates := w.broad.Update(nil, delta)
	pairs := w.broad.Pairs(nil, delta)
	contacts := narrow(pairs)

	current := contacts
	passes := cfg.passes()
	for pass := 0; pass < passes && len(current) > 0; pass++ {
		if pass > 0 {
			current = narrow(pairs)
		}
		w.resolver.Resolve(current, delta)
	}

	w.contacts = contacts
	w.logger.Debug(w.ctx, "physics tick",
		"tick", w.tick,
		"bodies", len(w.bodies),
		"pairs", len(pairs),
		"contacts", len(contacts),
		"index_updates", updates)
	return contacts
}

// RayCast returns the bodies hit by ray, nearest first
func (w *World) RayCast(ray Ray, opts RayCastOptions) []RayCastHit {
	return w.broad.RayCast(ray, opts)
}

// DebugDraw draws every shape, the broad-phase index and the last contacts
func (w *World) DebugDraw(d DebugDrawer) {
	for _, b := range w.bodies {
		b.shape.DebugDraw(d)
	}
	w.broad.DebugDraw(d)
	for _, c := range w.contacts {
		c.DebugDraw(d)
	}
}
