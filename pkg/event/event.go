// pkg/event/event.go
package event

import (
	"strings"
	"sync"

	"github.com/opd-ai/go-arena/pkg/physics"
)

// Type represents the type of event
type Type string

// Simulation event types
const (
	BodyCollision Type = "body_collision"
	BodyInert     Type = "body_inert"
	BodyBoundary  Type = "body_boundary"
	TickCompleted Type = "tick_completed"
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

// Subscription identifies one registered handler
type Subscription struct {
	ID     uint64
	Cancel func()
}

type registration struct {
	id      uint64
	handler Handler
}

// Bus manages event subscriptions and dispatching. Handlers run
// synchronously on the publishing goroutine.
type Bus struct {
	handlers map[Type][]registration
	nextID   uint64
	mu       sync.RWMutex
}

// NewEventBus creates a new event bus
func NewEventBus() *Bus {
	return &Bus{
		handlers: make(map[Type][]registration),
		nextID:   1,
	}
}

// Subscribe registers a handler for a specific event type
func (b *Bus) Subscribe(eventType Type, handler Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.handlers[eventType] = append(b.handlers[eventType], registration{id: id, handler: handler})

	return &Subscription{
		ID:     id,
		Cancel: func() { b.unsubscribe(eventType, id) },
	}
}

func (b *Bus) unsubscribe(eventType Type, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	regs := b.handlers[eventType]
	for i, r := range regs {
		if r.id == id {
			// Copy so that a Publish iterating the old slice is unaffected.
			kept := make([]registration, 0, len(regs)-1)
			kept = append(kept, regs[:i]...)
			b.handlers[eventType] = append(kept, regs[i+1:]...)
			return
		}
	}
}

// HasSubscribers reports whether any handler listens for eventType
func (b *Bus) HasSubscribers(eventType Type) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[eventType]) > 0
}

// Publish sends an event to all subscribed handlers
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	regs := b.handlers[event.GetType()]
	b.mu.RUnlock()

	for _, r := range regs {
		r.handler(event)
	}
}

// CollisionEvent reports one resolved contact between two bodies. MTV
// points from A toward B.
type CollisionEvent struct {
	BaseEvent
	A, B       int
	MTV        physics.Vector2D
	Degenerate bool
}

// NewCollisionEvent creates a new collision event
func NewCollisionEvent(source interface{}, a, b int, mtv physics.Vector2D, degenerate bool) *CollisionEvent {
	return &CollisionEvent{
		BaseEvent:  BaseEvent{EventType: BodyCollision, Source: source},
		A:          a,
		B:          b,
		MTV:        mtv,
		Degenerate: degenerate,
	}
}

// BodyInertEvent reports a body that ran out of durability
type BodyInertEvent struct {
	BaseEvent
	ID int
}

// NewBodyInertEvent creates a new inert event
func NewBodyInertEvent(source interface{}, id int) *BodyInertEvent {
	return &BodyInertEvent{
		BaseEvent: BaseEvent{EventType: BodyInert, Source: source},
		ID:        id,
	}
}

// Sides is a set of arena edges
type Sides uint8

const (
	SideLeft Sides = 1 << iota
	SideRight
	SideTop
	SideBottom
)

// Has reports whether every side in o is set
func (s Sides) Has(o Sides) bool { return s&o == o }

func (s Sides) String() string {
	if s == 0 {
		return "none"
	}
	var parts []string
	for _, side := range []struct {
		bit  Sides
		name string
	}{{SideLeft, "left"}, {SideRight, "right"}, {SideTop, "top"}, {SideBottom, "bottom"}} {
		if s.Has(side.bit) {
			parts = append(parts, side.name)
		}
	}
	return strings.Join(parts, "|")
}

// BoundaryEvent reports a body pushed back inside the arena
type BoundaryEvent struct {
	BaseEvent
	ID    int
	Sides Sides
}

// NewBoundaryEvent creates a new boundary event
func NewBoundaryEvent(source interface{}, id int, sides Sides) *BoundaryEvent {
	return &BoundaryEvent{
		BaseEvent: BaseEvent{EventType: BodyBoundary, Source: source},
		ID:        id,
		Sides:     sides,
	}
}

// TickEvent carries per-tick statistics
type TickEvent struct {
	BaseEvent
	Tick       uint64
	Alive      int
	Candidates int // broad-phase candidates returned for the tick
	Contacts   int // contacts resolved
}

// NewTickEvent creates a new tick event
func NewTickEvent(source interface{}, tick uint64, alive, candidates, contacts int) *TickEvent {
	return &TickEvent{
		BaseEvent:  BaseEvent{EventType: TickCompleted, Source: source},
		Tick:       tick,
		Alive:      alive,
		Candidates: candidates,
		Contacts:   contacts,
	}
}
