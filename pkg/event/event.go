// pkg/event/event.go
package event

import (
	"sync"

	"github.com/opd-ai/go-physics2d/pkg/physics"
)

// Type represents the type of event
type Type string

// Simulation event types
const (
	// CollisionStart fires on the first tick a pair of bodies touches
	CollisionStart Type = "collision_start"
	// Collision fires on every tick a pair of bodies touches, including the first
	Collision Type = "collision"
	// CollisionEnd fires on the first tick a touching pair separates or
	// either body leaves the world
	CollisionEnd      Type = "collision_end"
	BodyAdded         Type = "body_added"
	BodyRemoved       Type = "body_removed"
	SimulationStarted Type = "simulation_started"
	SimulationStopped Type = "simulation_stopped"
)

// Event is the base interface for all events
type Event interface {
	GetType() Type
	GetSource() interface{}
}

// BaseEvent provides common functionality for all events
type BaseEvent struct {
	EventType Type
	Source    interface{}
}

// GetType returns the event type
func (e *BaseEvent) GetType() Type {
	return e.EventType
}

// GetSource returns the event source
func (e *BaseEvent) GetSource() interface{} {
	return e.Source
}

// Handler is a function that handles events
type Handler func(Event)

// Subscription is returned by Subscribe. Cancel removes the handler and is
// safe to call more than once.
type Subscription struct {
	ID     uint64
	Type   Type
	Cancel func()
}

type subscriber struct {
	id      uint64
	handler Handler
}

// Bus manages event subscriptions and dispatching. Handlers run
// synchronously on the publishing goroutine.
type Bus struct {
	handlers map[Type][]subscriber
	nextID   uint64
	mu       sync.RWMutex
}

// NewEventBus creates a new event bus
func NewEventBus() *Bus {
	return &Bus{
		handlers: make(map[Type][]subscriber),
		nextID:   1,
	}
}

// Subscribe registers a handler for a specific event type
func (b *Bus) Subscribe(eventType Type, handler Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.handlers[eventType] = append(b.handlers[eventType], subscriber{id: id, handler: handler})

	return &Subscription{
		ID:   id,
		Type: eventType,
		Cancel: func() {
			b.Unsubscribe(eventType, id)
		},
	}
}

// Unsubscribe removes the handler registered under id
func (b *Bus) Unsubscribe(eventType Type, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.handlers[eventType]
	for i, s := range subs {
		if s.id == id {
			b.handlers[eventType] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.handlers[eventType]) == 0 {
		delete(b.handlers, eventType)
	}
}

// Publish sends an event to all subscribed handlers in subscription order.
// Handlers may subscribe or cancel while being called; changes apply to
// the next Publish.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	subs := b.handlers[event.GetType()]
	b.mu.RUnlock()

	for _, s := range subs {
		s.handler(event)
	}
}

// Specific event implementations

// CollisionEvent describes a pair of touching bodies. BodyA and BodyB
// follow the contact's shape order. Contact is nil for CollisionEnd.
type CollisionEvent struct {
	BaseEvent
	BodyA   uint64
	BodyB   uint64
	Tick    uint64
	Contact *physics.CollisionContact
}

// NewCollisionEvent creates a new collision event
func NewCollisionEvent(eventType Type, source interface{}, tick uint64, bodyA, bodyB uint64, contact *physics.CollisionContact) *CollisionEvent {
	return &CollisionEvent{
		BaseEvent: BaseEvent{
			EventType: eventType,
			Source:    source,
		},
		BodyA:   bodyA,
		BodyB:   bodyB,
		Tick:    tick,
		Contact: contact,
	}
}

// Key returns the unordered pair key of the two bodies
func (e *CollisionEvent) Key() physics.PairKey {
	return physics.MakePairKey(e.BodyA, e.BodyB)
}

// BodyEvent contains information about bodies entering or leaving a world
type BodyEvent struct {
	BaseEvent
	BodyID uint64
}

// NewBodyEvent creates a new body event
func NewBodyEvent(eventType Type, source interface{}, bodyID uint64) *BodyEvent {
	return &BodyEvent{
		BaseEvent: BaseEvent{
			EventType: eventType,
			Source:    source,
		},
		BodyID: bodyID,
	}
}

// SimulationEvent marks the start or end of a run
type SimulationEvent struct {
	BaseEvent
	Tick uint64
	// Err is the reason a run stopped early, if any
	Err error
}

// NewSimulationEvent creates a new simulation event
func NewSimulationEvent(eventType Type, source interface{}, tick uint64, err error) *SimulationEvent {
	return &SimulationEvent{
		BaseEvent: BaseEvent{
			EventType: eventType,
			Source:    source,
		},
		Tick: tick,
		Err:  err,
	}
}
