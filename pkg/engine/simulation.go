// pkg/engine/simulation.go
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/EngoEngine/ecs"

	"github.com/opd-ai/go-physics2d/pkg/config"
	"github.com/opd-ai/go-physics2d/pkg/event"
	"github.com/opd-ai/go-physics2d/pkg/logging"
	"github.com/opd-ai/go-physics2d/pkg/physics"
)

// Status is the lifecycle state of a Simulation
type Status int

const (
	StatusIdle Status = iota
	StatusRunning
	StatusStopped
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	case StatusStopped:
		return "stopped"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// ErrAlreadyRunning is returned by Run while another Run is in progress
var ErrAlreadyRunning = errors.New("simulation is already running")

// TickHook is called after every tick, after the tick's events were
// published, on the goroutine that stepped.
type TickHook func(tick uint64, world *physics.World)

// touch remembers which way round a pair was reported
type touch struct {
	a, b uint64
}

// Simulation is the caller side of a physics world: it owns the fixed-step
// loop, drives the world through an ecs.World and turns per-tick contacts
// into collision lifecycle events.
type Simulation struct {
	Config   *config.Config
	World    *physics.World
	ECS      *ecs.World
	EventBus *event.Bus

	Lock        sync.RWMutex
	Status      Status
	CurrentTick uint64

	touching map[physics.PairKey]touch
	hooks    []TickHook
	logger   *logging.Logger
	ctx      context.Context
}

// NewSimulation creates a simulation with an empty world. A nil logger
// discards output.
func NewSimulation(cfg *config.Config, logger *logging.Logger) (*Simulation, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid simulation config: %w", err)
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	world, err := physics.NewWorld(cfg.Physics, logger)
	if err != nil {
		return nil, err
	}

	sim := &Simulation{
		Config:   cfg,
		World:    world,
		ECS:      &ecs.World{},
		EventBus: event.NewEventBus(),
		touching: make(map[physics.PairKey]touch),
		logger:   logger,
		ctx:      logging.WithCorrelationID(context.Background(), ""),
	}
	sim.ECS.AddSystem(world)
	return sim, nil
}

// AddBody adds b to the world and announces it
func (s *Simulation) AddBody(b *physics.Body) error {
	s.Lock.Lock()
	err := s.World.Add(b)
	s.Lock.Unlock()
	if err != nil {
		return err
	}

	s.EventBus.Publish(event.NewBodyEvent(event.BodyAdded, s, b.ID()))
	return nil
}

// RemoveBody removes b from every system of the ecs world. Collisions it
// was part of end on the next tick.
func (s *Simulation) RemoveBody(b *physics.Body) {
	if b == nil {
		return
	}
	s.Lock.Lock()
	_, ok := s.World.Body(b.ID())
	s.ECS.RemoveEntity(b.BasicEntity)
	s.Lock.Unlock()

	if ok {
		s.EventBus.Publish(event.NewBodyEvent(event.BodyRemoved, s, b.ID()))
	}
}

// OnTick registers a hook run after every tick
func (s *Simulation) OnTick(hook TickHook) {
	s.Lock.Lock()
	defer s.Lock.Unlock()
	s.hooks = append(s.hooks, hook)
}

// Step advances the simulation by one tick of the configured rate and
// publishes the resulting collision events. It returns the tick's contacts.
func (s *Simulation) Step() []*physics.CollisionContact {
	s.Lock.Lock()
	s.ECS.Update(float32(s.Config.Simulation.Delta()))
	s.CurrentTick++
	tick := s.CurrentTick
	contacts := s.World.Contacts()
	events := s.collisionEvents(tick, contacts)
	hooks := s.hooks
	s.Lock.Unlock()

	// published without the lock so handlers may add or remove bodies
	for _, e := range events {
		s.EventBus.Publish(e)
	}
	for _, hook := range hooks {
		hook(tick, s.World)
	}

	return contacts
}

// collisionEvents diffs this tick's contacts against the pairs that touched
// on the previous tick. Must be called with the lock held.
func (s *Simulation) collisionEvents(tick uint64, contacts []*physics.CollisionContact) []event.Event {
	var events []event.Event
	current := make(map[physics.PairKey]touch, len(contacts))

	for _, c := range contacts {
		key, ok := c.Key()
		if !ok {
			continue
		}
		if _, dup := current[key]; dup {
			continue
		}
		pair := touch{a: c.BodyA().ID(), b: c.BodyB().ID()}
		current[key] = pair

		if _, was := s.touching[key]; !was {
			events = append(events, event.NewCollisionEvent(event.CollisionStart, s, tick, pair.a, pair.b, c))
		}
		events = append(events, event.NewCollisionEvent(event.Collision, s, tick, pair.a, pair.b, c))
	}

	var ended []physics.PairKey
	for key := range s.touching {
		if _, still := current[key]; !still {
			ended = append(ended, key)
		}
	}
	sort.Slice(ended, func(i, j int) bool {
		if ended[i].Lo != ended[j].Lo {
			return ended[i].Lo < ended[j].Lo
		}
		return ended[i].Hi < ended[j].Hi
	})
	for _, key := range ended {
		pair := s.touching[key]
		events = append(events, event.NewCollisionEvent(event.CollisionEnd, s, tick, pair.a, pair.b, nil))
	}

	s.touching = current
	return events
}

// Advance runs n ticks back to back without waiting on the clock. The
// simulation reports StatusRunning while it does.
func (s *Simulation) Advance(n int) error {
	start, err := s.begin(n)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		s.Step()
	}
	s.finish(start, nil)
	return nil
}

// Run steps the simulation at the configured tick rate until ticks have
// run (zero means no limit) or ctx is done. It returns ctx.Err() when
// cancelled and nil when the tick budget was used up.
func (s *Simulation) Run(ctx context.Context, ticks int) error {
	start, err := s.begin(ticks)
	if err != nil {
		return err
	}
	err = s.loop(ctx, ticks)
	s.finish(start, err)
	return err
}

// begin moves the simulation to StatusRunning and announces it
func (s *Simulation) begin(ticks int) (uint64, error) {
	s.Lock.Lock()
	if s.Status == StatusRunning {
		s.Lock.Unlock()
		return 0, ErrAlreadyRunning
	}
	s.Status = StatusRunning
	start := s.CurrentTick
	s.Lock.Unlock()

	s.logger.Info(s.ctx, "simulation started",
		"tick_rate", s.Config.Simulation.TickRate,
		"ticks", ticks,
		"bodies", len(s.World.Bodies()))
	s.EventBus.Publish(event.NewSimulationEvent(event.SimulationStarted, s, start, nil))
	return start, nil
}

func (s *Simulation) finish(start uint64, err error) {
	s.Lock.Lock()
	s.Status = StatusStopped
	tick := s.CurrentTick
	s.Lock.Unlock()

	s.logger.Info(s.ctx, "simulation stopped", "tick", tick, "ran", tick-start)
	s.EventBus.Publish(event.NewSimulationEvent(event.SimulationStopped, s, tick, err))
}

func (s *Simulation) loop(ctx context.Context, ticks int) error {
	ticker := time.NewTicker(s.Config.Simulation.TickInterval())
	defer ticker.Stop()

	for ran := 0; ticks <= 0 || ran < ticks; ran++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		s.Step()
	}
	return nil
}

// GetState returns a snapshot of every body
func (s *Simulation) GetState() *State {
	s.Lock.RLock()
	defer s.Lock.RUnlock()

	bodies := s.World.Bodies()
	state := &State{
		Tick:     s.CurrentTick,
		Bodies:   make([]BodyState, 0, len(bodies)),
		Contacts: len(s.World.Contacts()),
	}
	for _, b := range bodies {
		state.Bodies = append(state.Bodies, BodyState{
			ID:              b.ID(),
			Shape:           b.Shape().Kind().String(),
			CollisionType:   b.CollisionType,
			Position:        b.Pos,
			Velocity:        b.Vel,
			Rotation:        b.Rotation,
			AngularVelocity: b.AngularVelocity,
		})
	}
	return state
}

// State represents a snapshot of the simulation
type State struct {
	Tick     uint64      `json:"tick" yaml:"tick"`
	Bodies   []BodyState `json:"bodies" yaml:"bodies"`
	Contacts int         `json:"contacts" yaml:"contacts"`
}

// BodyState represents a snapshot of a body's state
type BodyState struct {
	ID              uint64                `json:"id" yaml:"id"`
	Shape           string                `json:"shape" yaml:"shape"`
	CollisionType   physics.CollisionType `json:"collision_type" yaml:"collision_type"`
	Position        physics.Vector2D      `json:"position" yaml:"position"`
	Velocity        physics.Vector2D      `json:"velocity" yaml:"velocity"`
	Rotation        float64               `json:"rotation" yaml:"rotation"`
	AngularVelocity float64               `json:"angular_velocity" yaml:"angular_velocity"`
}
