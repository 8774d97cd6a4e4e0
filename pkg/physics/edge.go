// pkg/physics/edge.go
package physics

import "math"

// edgeThickness is how close a point must be to count as on the edge
const edgeThickness = 1e-6

// Edge is a zero-width line segment, typically a static platform or wall
type Edge struct {
	begin Vector2D
	end   Vector2D
	body  *Body

	worldBegin Vector2D
	worldEnd   Vector2D
	axes       []Vector2D
	bounds     BoundingBox
}

// NewEdge creates an edge between two body-local points. A zero-length
// edge is accepted but never produces contacts.
func NewEdge(begin, end Vector2D) *Edge {
	e := &Edge{begin: begin, end: end}
	e.Recalc()
	return e
}

// Kind implements Shape
func (e *Edge) Kind() ShapeKind { return KindEdge }

// Body implements Shape
func (e *Edge) Body() *Body { return e.body }

func (e *Edge) attach(b *Body) {
	e.body = b
	e.Recalc()
}

// Recalc implements Shape
func (e *Edge) Recalc() {
	t := transformOf(e.body)
	e.worldBegin = t.apply(e.begin)
	e.worldEnd = t.apply(e.end)
	e.bounds = NewBoundingBox(e.worldBegin, e.worldEnd)
	if e.degenerate() {
		e.axes = nil
		return
	}
	e.axes = []Vector2D{e.Segment().Normal()}
}

// Segment returns the world-space segment
func (e *Edge) Segment() LineSegment {
	return LineSegment{Begin: e.worldBegin, End: e.worldEnd}
}

// Center implements Shape
func (e *Edge) Center() Vector2D {
	return e.worldBegin.Add(e.worldEnd).Scale(0.5)
}

// Bounds implements Shape
func (e *Edge) Bounds() BoundingBox { return e.bounds }

// FurthestPoint implements Shape
func (e *Edge) FurthestPoint(direction Vector2D) Vector2D {
	if e.worldEnd.Dot(direction) > e.worldBegin.Dot(direction) {
		return e.worldEnd
	}
	return e.worldBegin
}

// Axes implements Shape
func (e *Edge) Axes() []Vector2D { return e.axes }

// Project implements Shape
func (e *Edge) Project(axis Vector2D) Projection {
	a := e.worldBegin.Dot(axis)
	b := e.worldEnd.Dot(axis)
	return Projection{Min: math.Min(a, b), Max: math.Max(a, b)}
}

// Contains implements Shape
func (e *Edge) Contains(point Vector2D) bool {
	return e.Segment().DistanceToPoint(point) <= edgeThickness
}

// CastRay implements Shape
func (e *Edge) CastRay(ray Ray, maxDistance float64) (Vector2D, bool) {
	if e.degenerate() {
		return Vector2D{}, false
	}
	t, ok := ray.IntersectSegment(e.Segment())
	if !ok || (maxDistance > 0 && t > maxDistance) {
		return Vector2D{}, false
	}
	return ray.At(t), true
}

// MomentOfInertia implements Shape: a thin rod about its midpoint, shifted
// to the body origin.
func (e *Edge) MomentOfInertia() float64 {
	mass := bodyMass(e.body)
	t := transformOf(e.body)
	a := e.begin.Mul(t.scale)
	b := e.end.Mul(t.scale)
	length := b.Sub(a).Length()
	mid := a.Add(b).Scale(0.5)
	return mass*length*length/12 + mass*mid.LengthSquared()
}

// DebugDraw implements Shape
func (e *Edge) DebugDraw(d DebugDrawer) {
	d.DrawLine(e.worldBegin, e.worldEnd)
}

func (e *Edge) degenerate() bool {
	return e.worldBegin.DistanceSquared(e.worldEnd) < Epsilon*Epsilon ||
		!e.worldBegin.IsFinite() || !e.worldEnd.IsFinite()
}
