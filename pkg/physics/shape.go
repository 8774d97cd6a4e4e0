// pkg/physics/shape.go
package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ShapeKind tags the three collision shape variants
type ShapeKind int

const (
	KindCircle ShapeKind = iota
	KindEdge
	KindPolygon
	shapeKindCount
)

func (k ShapeKind) String() string {
	switch k {
	case KindCircle:
		return "circle"
	case KindEdge:
		return "edge"
	case KindPolygon:
		return "polygon"
	default:
		return "unknown"
	}
}

// Shape is the collision geometry owned by a Body. Shapes keep their geometry
// in body-local space and cache the world-space version; Recalc must be
// called after the owning body's position, rotation or scale changes or
// queries return stale results.
//
// The set of implementations is closed: Circle, Edge and ConvexPolygon.
type Shape interface {
	Kind() ShapeKind
	// Body returns the owning body, or nil for a detached shape.
	Body() *Body
	Center() Vector2D
	Bounds() BoundingBox
	// FurthestPoint is the SAT support function.
	FurthestPoint(direction Vector2D) Vector2D
	// Axes returns the candidate separating axes (unit length).
	Axes() []Vector2D
	Project(axis Vector2D) Projection
	Contains(point Vector2D) bool
	// CastRay returns the first point where the ray enters the shape.
	// maxDistance <= 0 means unbounded.
	CastRay(ray Ray, maxDistance float64) (Vector2D, bool)
	// MomentOfInertia about the owning body's origin, using the body's mass.
	MomentOfInertia() float64
	Recalc()
	DebugDraw(d DebugDrawer)

	attach(b *Body)
}

// transform maps body-local points to world space: scale, rotate, translate.
type transform struct {
	pos   Vector2D
	scale Vector2D
	rot   mgl64.Mat2
}

func transformOf(b *Body) transform {
	if b == nil {
		return transform{scale: Vector2D{X: 1, Y: 1}, rot: mgl64.Ident2()}
	}
	return transform{
		pos:   b.Pos,
		scale: b.Scale,
		rot:   mgl64.Rotate2D(b.Rotation),
	}
}

func (t transform) apply(local Vector2D) Vector2D {
	v := t.rot.Mul2x1(mgl64.Vec2{local.X * t.scale.X, local.Y * t.scale.Y})
	return Vector2D{X: v[0] + t.pos.X, Y: v[1] + t.pos.Y}
}

// maxScale is used for shapes that cannot represent non-uniform scale.
func (t transform) maxScale() float64 {
	return math.Max(math.Abs(t.scale.X), math.Abs(t.scale.Y))
}

func bodyMass(b *Body) float64 {
	if b == nil {
		return 0
	}
	return b.Mass
}
