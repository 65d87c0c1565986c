// pkg/engine/world.go
package engine

import (
	"context"
	"fmt"

	"github.com/opd-ai/go-arena/pkg/entity"
	"github.com/opd-ai/go-arena/pkg/event"
	"github.com/opd-ai/go-arena/pkg/logging"
	"github.com/opd-ai/go-arena/pkg/physics"
)

const (
	// DefaultDurability is how many resolved contacts a body survives
	DefaultDurability = 3
	// DefaultEpsilon is the shortest MTV that is still resolved
	DefaultEpsilon = 1e-8
)

// BodyID is the stable slot index of a body
type BodyID int

// Lifecycle of a body slot
type Lifecycle int

const (
	// Alive bodies move, collide and are exported
	Alive Lifecycle = iota
	// Inert bodies are frozen in place and skipped everywhere
	Inert
)

func (l Lifecycle) String() string {
	switch l {
	case Alive:
		return "alive"
	case Inert:
		return "inert"
	default:
		return fmt.Sprintf("lifecycle(%d)", int(l))
	}
}

// TickStats summarizes the last tick
type TickStats struct {
	Candidates int // broad-phase pairs that reached the bounding box check
	Contacts   int // contacts resolved
	Degenerate int // degenerate contacts seen, resolved or not
	Boundary   int // bodies pushed back inside the arena
	Inert      int // bodies that ran out of durability
}

// World owns the bodies and advances them one tick at a time. Bodies may
// only be added before the first Tick. A World is not safe for concurrent
// use.
type World struct {
	bodies     []entity.Body
	durability []int
	lifecycle  []Lifecycle
	closed     bitset

	size        physics.Vector2D
	currentTick uint64
	stats       TickStats

	startDurability   int
	epsilon           float64
	resolveDegenerate bool
	treeCapacity      int
	treeMaxDepth      int

	logger   *logging.Logger
	eventBus *event.Bus
	ctx      context.Context
}

// Option configures a World
type Option func(*World)

// WithLogger sets the logger; the default discards everything
func WithLogger(l *logging.Logger) Option {
	return func(w *World) { w.logger = l }
}

// WithEventBus publishes simulation events on bus
func WithEventBus(bus *event.Bus) Option {
	return func(w *World) { w.eventBus = bus }
}

// WithContext sets the context used for log records, which carries the
// run ID
func WithContext(ctx context.Context) Option {
	return func(w *World) { w.ctx = ctx }
}

// WithQuadTree tunes the per-tick broad phase
func WithQuadTree(capacity, maxDepth int) Option {
	return func(w *World) {
		w.treeCapacity = capacity
		w.treeMaxDepth = maxDepth
	}
}

// WithDurability sets the durability given to bodies added afterwards.
// Bodies added with n <= 0 start inert.
func WithDurability(n int) Option {
	return func(w *World) { w.startDurability = n }
}

// WithEpsilon sets the shortest MTV that is resolved
func WithEpsilon(eps float64) Option {
	return func(w *World) { w.epsilon = eps }
}

// WithResolveDegenerate chooses whether degenerate contacts are applied
func WithResolveDegenerate(resolve bool) Option {
	return func(w *World) { w.resolveDegenerate = resolve }
}

// NewWorld creates an empty arena spanning [0,0]-[width,height]
func NewWorld(width, height float64, opts ...Option) *World {
	w := &World{
		size:              physics.Vector2D{X: width, Y: height},
		startDurability:   DefaultDurability,
		epsilon:           DefaultEpsilon,
		resolveDegenerate: true,
		treeCapacity:      physics.DefaultNodeCapacity,
		treeMaxDepth:      physics.DefaultMaxDepth,
		ctx:               context.Background(),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logging.Discard()
	}
	return w
}

// Add appends a body and returns its slot
func (w *World) Add(body entity.Body) BodyID {
	w.bodies = append(w.bodies, body)
	w.durability = append(w.durability, w.startDurability)
	state := Alive
	if w.startDurability <= 0 {
		state = Inert
	}
	w.lifecycle = append(w.lifecycle, state)
	return BodyID(len(w.bodies) - 1)
}

// Len returns the number of slots, alive or not
func (w *World) Len() int { return len(w.bodies) }

// Body returns the body in slot id
func (w *World) Body(id BodyID) entity.Body { return w.bodies[id] }

// Durability returns the remaining durability of slot id
func (w *World) Durability(id BodyID) int { return w.durability[id] }

// Lifecycle returns the state of slot id
func (w *World) Lifecycle(id BodyID) Lifecycle { return w.lifecycle[id] }

// Size returns the arena extent
func (w *World) Size() physics.Vector2D { return w.size }

// CurrentTick returns how many ticks have run
func (w *World) CurrentTick() uint64 { return w.currentTick }

// Stats returns the statistics of the last tick
func (w *World) Stats() TickStats { return w.stats }

// Alive returns the number of alive slots
func (w *World) Alive() int {
	n := 0
	for _, l := range w.lifecycle {
		if l == Alive {
			n++
		}
	}
	return n
}

// NonFinite returns the alive bodies whose bounding box or velocity holds
// NaN or an infinity
func (w *World) NonFinite() []BodyID {
	var ids []BodyID
	for i, b := range w.bodies {
		if w.lifecycle[i] != Alive {
			continue
		}
		box := b.AABB()
		if !box.Min.IsFinite() || !box.Max.IsFinite() || !b.Speed().IsFinite() {
			ids = append(ids, BodyID(i))
		}
	}
	return ids
}

// buildTree indexes every alive body
func (w *World) buildTree() *physics.QuadTree {
	tree := physics.NewQuadTree(physics.Box2D{Max: w.size}, w.treeCapacity, w.treeMaxDepth)
	for i, b := range w.bodies {
		if w.lifecycle[i] == Alive {
			tree.Insert(i, b.AABB())
		}
	}
	return tree
}

// Tick advances the simulation by deltaSeconds: collisions are detected
// and resolved against the positions at the start of the tick, bodies are
// kept inside the arena, then every alive body integrates its velocity.
func (w *World) Tick(deltaSeconds float64) {
	w.closed.reset(len(w.bodies))
	w.stats = TickStats{}
	tree := w.buildTree()

	for i, body := range w.bodies {
		w.closed.set(i)
		if w.lifecycle[i] == Inert {
			continue
		}

		for _, j := range tree.MightCollide(i, body.AABB()) {
			if w.closed.has(j) || w.lifecycle[j] == Inert {
				continue
			}
			w.stats.Candidates++

			other := w.bodies[j]
			if !body.AABB().Overlaps(other.AABB()) {
				continue
			}
			w.resolve(i, j, body.CollidesWith(other))
		}

		w.contain(i)
	}

	for i, body := range w.bodies {
		if w.lifecycle[i] == Alive {
			body.Tick(deltaSeconds)
		}
	}

	w.currentTick++
	w.finishTick()
}

// resolve applies an equal-mass elastic response: each body loses twice
// its velocity component along the contact normal and moves half the MTV
// away from the other.
func (w *World) resolve(i, j int, contact physics.Contact) {
	if !contact.Colliding() {
		return
	}

	degenerate := contact.Kind == physics.Degenerate
	if degenerate {
		w.stats.Degenerate++
		w.logger.Warn(w.ctx, "degenerate contact",
			"tick", w.currentTick,
			"a", i,
			"b", j,
			"resolved", w.resolveDegenerate,
		)
		if !w.resolveDegenerate {
			return
		}
	}

	mtv := contact.MTV()
	// NaN fails this comparison too.
	if !(mtv.Length() > w.epsilon) {
		return
	}

	a, b := w.bodies[i], w.bodies[j]
	normal := mtv.Normalize()
	speedA := normal.Dot(a.Speed())
	speedB := normal.Dot(b.Speed())

	a.Kick(normal.Scale(-2 * speedA))
	a.Move(mtv.Scale(-0.5))
	b.Kick(normal.Scale(-2 * speedB))
	b.Move(mtv.Scale(0.5))

	w.stats.Contacts++
	if w.eventBus != nil {
		w.eventBus.Publish(event.NewCollisionEvent(w, i, j, mtv, degenerate))
	}

	w.wear(i)
	w.wear(j)
}

// wear takes one point of durability, retiring the body at zero
func (w *World) wear(id int) {
	w.durability[id]--
	if w.durability[id] > 0 || w.lifecycle[id] == Inert {
		return
	}

	w.lifecycle[id] = Inert
	w.stats.Inert++
	w.logger.Debug(w.ctx, "body inert", "tick", w.currentTick, "id", id)
	if w.eventBus != nil {
		w.eventBus.Publish(event.NewBodyInertEvent(w, id))
	}
}

// contain reflects the velocity component and pushes the body back for
// every arena side it crosses. Right wins over left and bottom over top
// when a body is larger than the arena.
func (w *World) contain(id int) {
	body := w.bodies[id]
	box := body.AABB()
	speed := body.Speed()

	var kick, mov physics.Vector2D
	var sides event.Sides

	if box.Left() < 0 {
		kick.X = speed.X * -2
		mov.X = -box.Left()
		sides |= event.SideLeft
	}
	if box.Right() > w.size.X {
		kick.X = speed.X * -2
		mov.X = w.size.X - box.Right()
		sides |= event.SideRight
	}
	if box.Top() < 0 {
		kick.Y = speed.Y * -2
		mov.Y = -box.Top()
		sides |= event.SideTop
	}
	if box.Bottom() > w.size.Y {
		kick.Y = speed.Y * -2
		mov.Y = w.size.Y - box.Bottom()
		sides |= event.SideBottom
	}

	if sides == 0 {
		return
	}
	body.Kick(kick)
	body.Move(mov)

	w.stats.Boundary++
	if w.eventBus != nil {
		w.eventBus.Publish(event.NewBoundaryEvent(w, id, sides))
	}
}

func (w *World) finishTick() {
	if n := len(w.bodies); n > 0 {
		w.logger.Debug(w.ctx, "tick",
			"tick", w.currentTick,
			"candidates_per_body", float64(w.stats.Candidates)/float64(n),
			"contacts", w.stats.Contacts,
		)
	}
	if w.eventBus != nil {
		w.eventBus.Publish(event.NewTickEvent(w, w.currentTick, w.Alive(), w.stats.Candidates, w.stats.Contacts))
	}
}

// bitset marks the slots already scanned in the current tick
type bitset []uint64

func (b *bitset) reset(n int) {
	words := (n + 63) / 64
	if cap(*b) < words {
		*b = make(bitset, words)
		return
	}
	*b = (*b)[:words]
	clear(*b)
}

func (b bitset) set(i int) { b[i/64] |= 1 << (uint(i) % 64) }

func (b bitset) has(i int) bool { return b[i/64]&(1<<(uint(i)%64)) != 0 }
