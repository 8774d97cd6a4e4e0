// pkg/physics/contact.go
package physics

import "fmt"

// PairKey identifies an unordered pair of bodies
type PairKey struct {
	Lo uint64
	Hi uint64
}

// MakePairKey orders the two ids so (a, b) and (b, a) share a key
func MakePairKey(a, b uint64) PairKey {
	if a > b {
		a, b = b, a
	}
	return PairKey{Lo: a, Hi: b}
}

func (k PairKey) String() string {
	return fmt.Sprintf("%d:%d", k.Lo, k.Hi)
}

// CollisionContact is the immutable result of a successful narrow-phase
// test. MTV and Normal point away from A, toward B: moving B by MTV (or A by
// its negation) separates the shapes.
type CollisionContact struct {
	a      Shape
	b      Shape
	mtv    Vector2D
	point  Vector2D
	normal Vector2D
}

func newContact(a, b Shape, mtv, point, normal Vector2D) *CollisionContact {
	return &CollisionContact{a: a, b: b, mtv: mtv, point: point, normal: normal}
}

// A returns the first shape
func (c *CollisionContact) A() Shape { return c.a }

// B returns the second shape
func (c *CollisionContact) B() Shape { return c.b }

// BodyA returns the body owning the first shape
func (c *CollisionContact) BodyA() *Body { return c.a.Body() }

// BodyB returns the body owning the second shape
func (c *CollisionContact) BodyB() *Body { return c.b.Body() }

// MTV is the minimum translation vector
func (c *CollisionContact) MTV() Vector2D { return c.mtv }

// Point is the single representative contact point
func (c *CollisionContact) Point() Vector2D { return c.point }

// Normal is the unit contact normal
func (c *CollisionContact) Normal() Vector2D { return c.normal }

// Depth is the penetration depth along Normal
func (c *CollisionContact) Depth() float64 { return c.mtv.Length() }

// Key returns the pair key of the two owning bodies, or false if either
// shape is detached.
func (c *CollisionContact) Key() (PairKey, bool) {
	ba, bb := c.BodyA(), c.BodyB()
	if ba == nil || bb == nil {
		return PairKey{}, false
	}
	return MakePairKey(ba.ID(), bb.ID()), true
}

// flip swaps the roles of the two shapes
func (c *CollisionContact) flip() *CollisionContact {
	return newContact(c.b, c.a, c.mtv.Negate(), c.point, c.normal.Negate())
}

// DebugDraw marks the contact point and its normal
func (c *CollisionContact) DebugDraw(d DebugDrawer) {
	d.DrawPoint(c.point)
	d.DrawLine(c.point, c.point.Add(c.normal.Scale(10)))
}
