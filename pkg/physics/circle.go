// pkg/physics/circle.go
package physics

import (
	"fmt"
	"math"
)

// Circle is a circular collision shape with a local center offset
type Circle struct {
	offset Vector2D
	radius float64
	body   *Body

	center      Vector2D
	worldRadius float64
	bounds      BoundingBox
}

// NewCircle creates a circle of the given radius centered at offset from the
// body origin. A zero radius is accepted but never produces contacts.
func NewCircle(radius float64, offset Vector2D) (*Circle, error) {
	if radius < 0 || math.IsNaN(radius) {
		return nil, fmt.Errorf("circle radius %v: %w", radius, ErrNegativeRadius)
	}
	c := &Circle{offset: offset, radius: radius}
	c.Recalc()
	return c, nil
}

// Kind implements Shape
func (c *Circle) Kind() ShapeKind { return KindCircle }

// Body implements Shape
func (c *Circle) Body() *Body { return c.body }

func (c *Circle) attach(b *Body) {
	c.body = b
	c.Recalc()
}

// Radius returns the world-space radius
func (c *Circle) Radius() float64 { return c.worldRadius }

// LocalRadius returns the radius before body scale is applied
func (c *Circle) LocalRadius() float64 { return c.radius }

// Offset returns the local center offset
func (c *Circle) Offset() Vector2D { return c.offset }

// Recalc implements Shape
func (c *Circle) Recalc() {
	t := transformOf(c.body)
	c.center = t.apply(c.offset)
	c.worldRadius = c.radius * t.maxScale()
	c.bounds = BoundingBox{
		Left:   c.center.X - c.worldRadius,
		Top:    c.center.Y - c.worldRadius,
		Right:  c.center.X + c.worldRadius,
		Bottom: c.center.Y + c.worldRadius,
	}
}

// Center implements Shape
func (c *Circle) Center() Vector2D { return c.center }

// Bounds implements Shape
func (c *Circle) Bounds() BoundingBox { return c.bounds }

// FurthestPoint implements Shape
func (c *Circle) FurthestPoint(direction Vector2D) Vector2D {
	return c.center.Add(direction.Normalize().Scale(c.worldRadius))
}

// Axes implements Shape. Circles have no fixed axes; the narrow-phase builds
// one from the other shape on demand.
func (c *Circle) Axes() []Vector2D { return nil }

// Project implements Shape
func (c *Circle) Project(axis Vector2D) Projection {
	d := c.center.Dot(axis)
	r := c.worldRadius * axis.Length()
	return Projection{Min: d - r, Max: d + r}
}

// Contains implements Shape
func (c *Circle) Contains(point Vector2D) bool {
	return point.DistanceSquared(c.center) <= c.worldRadius*c.worldRadius
}

// CastRay implements Shape
func (c *Circle) CastRay(ray Ray, maxDistance float64) (Vector2D, bool) {
	if c.worldRadius <= 0 {
		return Vector2D{}, false
	}
	m := ray.Pos.Sub(c.center)
	b := m.Dot(ray.Dir)
	cc := m.LengthSquared() - c.worldRadius*c.worldRadius
	if cc > 0 && b > 0 {
		return Vector2D{}, false
	}
	disc := b*b - cc
	if disc < 0 {
		return Vector2D{}, false
	}
	t := -b - math.Sqrt(disc)
	if t < 0 {
		t = 0
	}
	if maxDistance > 0 && t > maxDistance {
		return Vector2D{}, false
	}
	return ray.At(t), true
}

// MomentOfInertia implements Shape: a solid disc, shifted to the body origin
func (c *Circle) MomentOfInertia() float64 {
	mass := bodyMass(c.body)
	t := transformOf(c.body)
	d := c.offset.Mul(t.scale).LengthSquared()
	return mass*c.worldRadius*c.worldRadius/2 + mass*d
}

// DebugDraw implements Shape
func (c *Circle) DebugDraw(d DebugDrawer) {
	d.DrawCircle(c.center, c.worldRadius)
}

func (c *Circle) degenerate() bool {
	return c.worldRadius <= 0 || !c.center.IsFinite()
}
