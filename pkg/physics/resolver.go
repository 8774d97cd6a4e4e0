// pkg/physics/resolver.go
package physics

import "math"

// Resolver mutates bodies to answer one pass worth of contacts
type Resolver interface {
	Resolve(contacts []*CollisionContact, delta float64)
}

// participates reports whether resolution touches this contact at all.
// Passive bodies only raise events.
func participates(a, b *Body) bool {
	if a == nil || b == nil {
		return false
	}
	if a.CollisionType == Passive || b.CollisionType == Passive {
		return false
	}
	return a.CollisionType != PreventCollision && b.CollisionType != PreventCollision
}

// BoxResolver is arcade resolution: bodies are pushed apart along the MTV
// and lose (or, when Elastic, mirror) their approaching velocity. There is
// no angular response.
type BoxResolver struct{}

// Resolve implements Resolver
func (r *BoxResolver) Resolve(contacts []*CollisionContact, delta float64) {
	for _, c := range contacts {
		a, b := c.BodyA(), c.BodyB()
		if !participates(a, b) {
			continue
		}
		displace(c, a, b)
	}
}

// boxWeight is the share of the MTV a body takes; movers without mass split
// evenly with other movers.
func boxWeight(b *Body) float64 {
	if !b.CollisionType.moves() {
		return 0
	}
	if inv := b.InverseMass(); inv > 0 {
		return inv
	}
	return 1
}

func displace(c *CollisionContact, a, b *Body) {
	wa, wb := boxWeight(a), boxWeight(b)
	total := wa + wb
	if total == 0 {
		return
	}
	mtv := c.MTV()
	n := c.Normal()
	if wa > 0 {
		a.Pos.SubEqual(mtv.Scale(wa / total))
		cancelApproach(a, n)
		a.Recalc()
	}
	if wb > 0 {
		b.Pos.AddEqual(mtv.Scale(wb / total))
		cancelApproach(b, n.Negate())
		b.Recalc()
	}
}

// cancelApproach removes (Active) or mirrors (Elastic) the velocity
// component along toward, the direction of the other body.
func cancelApproach(b *Body, toward Vector2D) {
	vn := b.Vel.Dot(toward)
	if vn <= 0 {
		return
	}
	if b.CollisionType == Elastic {
		b.Vel.SubEqual(toward.Scale(2 * vn))
		return
	}
	b.Vel.SubEqual(toward.Scale(vn))
}

// RigidBodyResolver applies normal and friction impulses at the contact
// point, then corrects the penetration beyond CollisionShift. Only one
// contact point per pair is modeled and nothing sleeps, so resting stacks
// are re-resolved every tick.
type RigidBodyResolver struct {
	CollisionShift float64
}

// Resolve implements Resolver
func (r *RigidBodyResolver) Resolve(contacts []*CollisionContact, delta float64) {
	for _, c := range contacts {
		a, b := c.BodyA(), c.BodyB()
		if !participates(a, b) {
			continue
		}
		if a.CollisionType == Elastic || b.CollisionType == Elastic {
			// Elastic is the prototyping shortcut: reflect instead of impulse
			displace(c, a, b)
			continue
		}
		r.resolve(c, a, b)
	}
}

func (r *RigidBodyResolver) resolve(c *CollisionContact, a, b *Body) {
	invMassA, invMassB := a.InverseMass(), b.InverseMass()
	if invMassA+invMassB == 0 {
		return
	}
	invInertiaA, invInertiaB := a.InverseInertia(), b.InverseInertia()
	n := c.Normal()
	p := c.Point()
	rA := p.Sub(a.Pos)
	rB := p.Sub(b.Pos)

	rel := relativeVelocity(a, b, rA, rB)
	vn := rel.Dot(n)
	if vn < 0 {
		e := math.Min(a.Restitution, b.Restitution)
		rAn := rA.Cross(n)
		rBn := rB.Cross(n)
		denom := invMassA + invMassB + rAn*rAn*invInertiaA + rBn*rBn*invInertiaB
		j := -(1 + e) * vn / denom
		impulse := n.Scale(j)
		a.ApplyImpulse(impulse.Negate(), p)
		b.ApplyImpulse(impulse, p)

		rel = relativeVelocity(a, b, rA, rB)
		tangent := rel.Sub(n.Scale(rel.Dot(n)))
		if tangent.LengthSquared() > Epsilon {
			tangent = tangent.Normalize()
			rAt := rA.Cross(tangent)
			rBt := rB.Cross(tangent)
			denomT := invMassA + invMassB + rAt*rAt*invInertiaA + rBt*rBt*invInertiaB
			jt := -rel.Dot(tangent) / denomT
			mu := math.Sqrt(math.Max(a.Friction, 0) * math.Max(b.Friction, 0))
			jt = clamp(jt, -j*mu, j*mu)
			friction := tangent.Scale(jt)
			a.ApplyImpulse(friction.Negate(), p)
			b.ApplyImpulse(friction, p)
		}
	}

	if depth := c.Depth() - r.CollisionShift; depth > 0 {
		correction := n.Scale(depth / (invMassA + invMassB))
		a.Pos.SubEqual(correction.Scale(invMassA))
		b.Pos.AddEqual(correction.Scale(invMassB))
	}
	a.Recalc()
	b.Recalc()
}

func relativeVelocity(a, b *Body, rA, rB Vector2D) Vector2D {
	va := a.Vel.Add(ScalarCross(a.AngularVelocity, rA))
	vb := b.Vel.Add(ScalarCross(b.AngularVelocity, rB))
	return vb.Sub(va)
}
