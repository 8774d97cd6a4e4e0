// pkg/physics/broadphase.go
package physics

import (
	"fmt"
	"sort"
)

// BroadPhase keeps the set of tracked bodies and cheaply produces the
// candidate pairs worth a narrow-phase test. Implementations are not safe for
// concurrent use; the tracked set must not change during Pairs or Detect.
type BroadPhase interface {
	// Track adds a body. Tracking a body twice is an error.
	Track(b *Body) error
	// Untrack removes a body. Untracking an unknown body is a no-op.
	Untrack(b *Body)
	// Tracked reports whether the body is tracked.
	Tracked(b *Body) bool
	// Len returns the number of tracked bodies.
	Len() int
	// Update refreshes the index after bodies moved and returns how many
	// index updates (re-insertions and rotations) it performed.
	Update(bodies []*Body, delta float64) int
	// Pairs returns the filtered candidate pairs involving at least one of
	// bodies (nil means every tracked body), ordered by tracking order.
	Pairs(bodies []*Body, delta float64) []Pair
	// Detect runs the narrow-phase on Pairs.
	Detect(bodies []*Body, delta float64) []*CollisionContact
	// RayCast returns the bodies hit by ray ordered by distance.
	RayCast(ray Ray, opts RayCastOptions) []RayCastHit
	DebugDraw(d DebugDrawer)
}

// Pair is a candidate pair; A was tracked before B
type Pair struct {
	A *Body
	B *Body
}

// Key returns the symmetric pair hash
func (p Pair) Key() PairKey {
	return MakePairKey(p.A.ID(), p.B.ID())
}

// RayCastOptions narrows a ray query
type RayCastOptions struct {
	// MaxDistance limits the ray length; zero or less means unbounded.
	MaxDistance float64
	// Group filters the bodies that can be hit. The zero value hits every group.
	Group CollisionGroup
	// SearchAll returns every hit instead of only the nearest.
	SearchAll bool
}

// RayCastHit is one body struck by a ray
type RayCastHit struct {
	Body     *Body
	Point    Vector2D
	Distance float64
}

func (o RayCastOptions) group() CollisionGroup {
	if o.Group == (CollisionGroup{}) {
		return CollideAll
	}
	return o.Group
}

// tracking holds the insertion order shared by both strategies so they
// report pairs and hits in the same order.
type tracking struct {
	seq     map[uint64]uint64
	nextSeq uint64
}

func newTracking() tracking {
	return tracking{seq: make(map[uint64]uint64)}
}

func (t *tracking) add(b *Body) error {
	if b == nil || b.shape == nil {
		return ErrNilShape
	}
	if _, ok := t.seq[b.ID()]; ok {
		return fmt.Errorf("body %d: %w", b.ID(), ErrAlreadyTracked)
	}
	t.seq[b.ID()] = t.nextSeq
	t.nextSeq++
	return nil
}

func (t *tracking) remove(b *Body) bool {
	if b == nil {
		return false
	}
	if _, ok := t.seq[b.ID()]; !ok {
		return false
	}
	delete(t.seq, b.ID())
	return true
}

func (t *tracking) has(b *Body) bool {
	if b == nil {
		return false
	}
	_, ok := t.seq[b.ID()]
	return ok
}

// pairCollector dedups candidates found from both directions and applies the
// collision filter and the tight bounds check.
type pairCollector struct {
	t     *tracking
	seen  map[PairKey]struct{}
	pairs []Pair
}

func newPairCollector(t *tracking) *pairCollector {
	return &pairCollector{t: t, seen: make(map[PairKey]struct{})}
}

func (c *pairCollector) offer(a, b *Body) {
	if a == b || !canCollide(a, b) {
		return
	}
	key := MakePairKey(a.ID(), b.ID())
	if _, ok := c.seen[key]; ok {
		return
	}
	c.seen[key] = struct{}{}
	if !a.Bounds().Overlaps(b.Bounds()) {
		return
	}
	if c.t.seq[a.ID()] > c.t.seq[b.ID()] {
		a, b = b, a
	}
	c.pairs = append(c.pairs, Pair{A: a, B: b})
}

func (c *pairCollector) sorted() []Pair {
	seq := c.t.seq
	sort.Slice(c.pairs, func(i, j int) bool {
		ai, aj := seq[c.pairs[i].A.ID()], seq[c.pairs[j].A.ID()]
		if ai != aj {
			return ai < aj
		}
		return seq[c.pairs[i].B.ID()] < seq[c.pairs[j].B.ID()]
	})
	return c.pairs
}

// narrow runs the exact test on every pair
func narrow(pairs []Pair) []*CollisionContact {
	contacts := make([]*CollisionContact, 0, len(pairs))
	for _, p := range pairs {
		if c := Collide(p.A.shape, p.B.shape); c != nil {
			contacts = append(contacts, c)
		}
	}
	return contacts
}

func rayHit(b *Body, ray Ray, opts RayCastOptions, group CollisionGroup) (RayCastHit, bool) {
	if b.shape == nil || b.CollisionType == PreventCollision || !group.CanCollide(b.Group) {
		return RayCastHit{}, false
	}
	p, ok := b.shape.CastRay(ray, opts.MaxDistance)
	if !ok {
		return RayCastHit{}, false
	}
	return RayCastHit{Body: b, Point: p, Distance: p.Sub(ray.Pos).Length()}, true
}

func (t *tracking) sortHits(hits []RayCastHit, all bool) []RayCastHit {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return t.seq[hits[i].Body.ID()] < t.seq[hits[j].Body.ID()]
	})
	if !all && len(hits) > 1 {
		hits = hits[:1]
	}
	return hits
}

// NaiveBroadPhase tests every tracked pair. It is the reference the tree is
// checked against and is fine for small scenes.
type NaiveBroadPhase struct {
	tracking
	bodies []*Body
}

// NewNaiveBroadPhase creates an empty naive broad-phase
func NewNaiveBroadPhase() *NaiveBroadPhase {
	return &NaiveBroadPhase{tracking: newTracking()}
}

// Track implements BroadPhase
func (n *NaiveBroadPhase) Track(b *Body) error {
	if err := n.add(b); err != nil {
		return err
	}
	n.bodies = append(n.bodies, b)
	return nil
}

// Untrack implements BroadPhase
func (n *NaiveBroadPhase) Untrack(b *Body) {
	if !n.remove(b) {
		return
	}
	for i, tracked := range n.bodies {
		if tracked == b {
			n.bodies = append(n.bodies[:i], n.bodies[i+1:]...)
			return
		}
	}
}

// Tracked implements BroadPhase
func (n *NaiveBroadPhase) Tracked(b *Body) bool { return n.has(b) }

// Len implements BroadPhase
func (n *NaiveBroadPhase) Len() int { return len(n.bodies) }

// Update implements BroadPhase. There is no index to maintain.
func (n *NaiveBroadPhase) Update(bodies []*Body, delta float64) int { return 0 }

// Pairs implements BroadPhase
func (n *NaiveBroadPhase) Pairs(bodies []*Body, delta float64) []Pair {
	c := newPairCollector(&n.tracking)
	if bodies == nil {
		for i := 0; i < len(n.bodies); i++ {
			for j := i + 1; j < len(n.bodies); j++ {
				c.offer(n.bodies[i], n.bodies[j])
			}
		}
		return c.sorted()
	}
	for _, q := range bodies {
		if !n.has(q) {
			continue
		}
		for _, other := range n.bodies {
			c.offer(q, other)
		}
	}
	return c.sorted()
}

// Detect implements BroadPhase
func (n *NaiveBroadPhase) Detect(bodies []*Body, delta float64) []*CollisionContact {
	return narrow(n.Pairs(bodies, delta))
}

// RayCast implements BroadPhase with a linear scan
func (n *NaiveBroadPhase) RayCast(ray Ray, opts RayCastOptions) []RayCastHit {
	group := opts.group()
	var hits []RayCastHit
	for _, b := range n.bodies {
		if hit, ok := rayHit(b, ray, opts, group); ok {
			hits = append(hits, hit)
		}
	}
	return n.sortHits(hits, opts.SearchAll)
}

// DebugDraw implements BroadPhase by outlining every tracked body's bounds
func (n *NaiveBroadPhase) DebugDraw(d DebugDrawer) {
	for _, b := range n.bodies {
		b.Bounds().DebugDraw(d)
	}
}
