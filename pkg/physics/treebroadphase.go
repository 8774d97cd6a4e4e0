// pkg/physics/treebroadphase.go
package physics

// TreeBroadPhase indexes tracked bodies in a DynamicTree. It reports exactly
// the pairs NaiveBroadPhase would, in the same order.
type TreeBroadPhase struct {
	tracking
	tree   *DynamicTree
	bodies []*Body
}

// NewTreeBroadPhase creates an empty tree broad-phase
func NewTreeBroadPhase(padding, velocityMultiplier float64) *TreeBroadPhase {
	return &TreeBroadPhase{
		tracking: newTracking(),
		tree:     NewDynamicTree(padding, velocityMultiplier),
	}
}

// Tree exposes the underlying index for inspection and debug tooling
func (p *TreeBroadPhase) Tree() *DynamicTree { return p.tree }

// Track implements BroadPhase
func (p *TreeBroadPhase) Track(b *Body) error {
	if err := p.add(b); err != nil {
		return err
	}
	if err := p.tree.Insert(b); err != nil {
		p.remove(b)
		return err
	}
	p.bodies = append(p.bodies, b)
	return nil
}

// Untrack implements BroadPhase
func (p *TreeBroadPhase) Untrack(b *Body) {
	if !p.remove(b) {
		return
	}
	p.tree.Remove(b)
	for i, tracked := range p.bodies {
		if tracked == b {
			p.bodies = append(p.bodies[:i], p.bodies[i+1:]...)
			return
		}
	}
}

// Tracked implements BroadPhase
func (p *TreeBroadPhase) Tracked(b *Body) bool { return p.has(b) }

// Len implements BroadPhase
func (p *TreeBroadPhase) Len() int { return len(p.bodies) }

// Update implements BroadPhase: bodies whose tight bounds left their leaf box
// are re-inserted. The result counts re-insertions plus rotations.
func (p *TreeBroadPhase) Update(bodies []*Body, delta float64) int {
	before := p.tree.Rotations()
	moved := 0
	for _, b := range p.queryBodies(bodies) {
		if p.tree.Move(b, delta) {
			moved++
		}
	}
	return moved + p.tree.Rotations() - before
}

// Pairs implements BroadPhase. Leaf boxes are only guaranteed to contain the
// bodies after Update, so call it first once bodies have moved.
func (p *TreeBroadPhase) Pairs(bodies []*Body, delta float64) []Pair {
	c := newPairCollector(&p.tracking)
	for _, q := range p.queryBodies(bodies) {
		p.tree.Query(q.Bounds(), func(other *Body) bool {
			c.offer(q, other)
			return true
		})
	}
	return c.sorted()
}

// Detect implements BroadPhase
func (p *TreeBroadPhase) Detect(bodies []*Body, delta float64) []*CollisionContact {
	return narrow(p.Pairs(bodies, delta))
}

// RayCast implements BroadPhase, pruning subtrees with the slab test
func (p *TreeBroadPhase) RayCast(ray Ray, opts RayCastOptions) []RayCastHit {
	group := opts.group()
	var hits []RayCastHit
	p.tree.RayCast(ray, opts.MaxDistance, !opts.SearchAll, func(b *Body) (float64, bool) {
		hit, ok := rayHit(b, ray, opts, group)
		if !ok {
			return 0, false
		}
		hits = append(hits, hit)
		return hit.Distance, true
	})
	return p.sortHits(hits, opts.SearchAll)
}

// DebugDraw implements BroadPhase
func (p *TreeBroadPhase) DebugDraw(d DebugDrawer) {
	p.tree.DebugDraw(d)
}

// queryBodies resolves the query set: every tracked body in tracking order
// when bodies is nil, otherwise the tracked subset of bodies.
func (p *TreeBroadPhase) queryBodies(bodies []*Body) []*Body {
	if bodies == nil {
		return p.bodies
	}
	out := make([]*Body, 0, len(bodies))
	for _, b := range bodies {
		if p.has(b) {
			out = append(out, b)
		}
	}
	return out
}
