// pkg/physics/geometry.go
package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/exp/constraints"
)

// Epsilon is the tolerance used by geometric predicates
const Epsilon = 1e-9

func clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// nearlyEqual wraps mgl64's relative/absolute threshold comparison
func nearlyEqual(a, b float64) bool {
	return mgl64.FloatEqualThreshold(a, b, Epsilon)
}

// LineSegment is a finite segment between two points
type LineSegment struct {
	Begin Vector2D
	End   Vector2D
}

// Direction returns End - Begin
func (l LineSegment) Direction() Vector2D {
	return l.End.Sub(l.Begin)
}

// Length returns the segment length
func (l LineSegment) Length() float64 {
	return l.Direction().Length()
}

// Midpoint returns the point halfway between Begin and End
func (l LineSegment) Midpoint() Vector2D {
	return l.Begin.Add(l.End).Scale(0.5)
}

// Normal returns the unit normal (Direction rotated clockwise)
func (l LineSegment) Normal() Vector2D {
	return l.Direction().Normal()
}

// ClosestPoint returns the point on the segment closest to p together with
// the clamped segment parameter in [0, 1].
func (l LineSegment) ClosestPoint(p Vector2D) (Vector2D, float64) {
	d := l.Direction()
	lenSq := d.LengthSquared()
	if lenSq == 0 {
		return l.Begin, 0
	}
	t := clamp(p.Sub(l.Begin).Dot(d)/lenSq, 0, 1)
	return l.Begin.Add(d.Scale(t)), t
}

// DistanceToPoint returns the distance from p to the closest point on the segment
func (l LineSegment) DistanceToPoint(p Vector2D) float64 {
	c, _ := l.ClosestPoint(p)
	return c.Distance(p)
}

// Intersect returns the intersection point of two segments. Parallel and
// collinear segments report no intersection.
func (l LineSegment) Intersect(other LineSegment) (Vector2D, bool) {
	r := l.Direction()
	s := other.Direction()
	denom := r.Cross(s)
	if math.Abs(denom) < Epsilon {
		return Vector2D{}, false
	}
	qp := other.Begin.Sub(l.Begin)
	t := qp.Cross(s) / denom
	u := qp.Cross(r) / denom
	if t < -Epsilon || t > 1+Epsilon || u < -Epsilon || u > 1+Epsilon {
		return Vector2D{}, false
	}
	return l.Begin.Add(r.Scale(t)), true
}

// Ray is a half-line from Pos along Dir. Dir is normalized by NewRay.
type Ray struct {
	Pos Vector2D
	Dir Vector2D
}

// NewRay creates a ray with a normalized direction
func NewRay(pos, dir Vector2D) Ray {
	return Ray{Pos: pos, Dir: dir.Normalize()}
}

// At returns the point at distance t along the ray
func (r Ray) At(t float64) Vector2D {
	return r.Pos.Add(r.Dir.Scale(t))
}

// IntersectSegment returns the distance along the ray to the segment, or
// false when the ray misses it.
func (r Ray) IntersectSegment(seg LineSegment) (float64, bool) {
	s := seg.Direction()
	denom := r.Dir.Cross(s)
	if math.Abs(denom) < Epsilon {
		return 0, false
	}
	qp := seg.Begin.Sub(r.Pos)
	t := qp.Cross(s) / denom
	u := qp.Cross(r.Dir) / denom
	if t < 0 || u < -Epsilon || u > 1+Epsilon {
		return 0, false
	}
	return t, true
}

// Projection is the 1-D interval a shape covers along an axis
type Projection struct {
	Min float64
	Max float64
}

// Overlaps reports whether the intervals share more than a single point
func (p Projection) Overlaps(other Projection) bool {
	return p.Max > other.Min && other.Max > p.Min
}

// Overlap returns the signed overlap of two intervals. When one interval
// contains the other the distance to the nearest exit is added so the
// result is the true separation distance along the axis.
func (p Projection) Overlap(other Projection) float64 {
	overlap := math.Min(p.Max, other.Max) - math.Max(p.Min, other.Min)
	if overlap < 0 {
		return overlap
	}
	if p.Contains(other) || other.Contains(p) {
		overlap += math.Min(math.Abs(p.Min-other.Min), math.Abs(p.Max-other.Max))
	}
	return overlap
}

// Contains reports whether other lies entirely inside p
func (p Projection) Contains(other Projection) bool {
	return other.Min >= p.Min && other.Max <= p.Max
}

// BoundingBox is an axis-aligned box. Left <= Right and Top <= Bottom.
type BoundingBox struct {
	Left   float64
	Top    float64
	Right  float64
	Bottom float64
}

// NewBoundingBox builds a box from any two corners
func NewBoundingBox(a, b Vector2D) BoundingBox {
	return BoundingBox{
		Left:   math.Min(a.X, b.X),
		Top:    math.Min(a.Y, b.Y),
		Right:  math.Max(a.X, b.X),
		Bottom: math.Max(a.Y, b.Y),
	}
}

// BoundsFromPoints returns the tight box around the given points
func BoundsFromPoints(points []Vector2D) BoundingBox {
	if len(points) == 0 {
		return BoundingBox{}
	}
	bb := BoundingBox{Left: points[0].X, Right: points[0].X, Top: points[0].Y, Bottom: points[0].Y}
	for _, p := range points[1:] {
		bb.Left = math.Min(bb.Left, p.X)
		bb.Right = math.Max(bb.Right, p.X)
		bb.Top = math.Min(bb.Top, p.Y)
		bb.Bottom = math.Max(bb.Bottom, p.Y)
	}
	return bb
}

// Width of the box
func (b BoundingBox) Width() float64 { return b.Right - b.Left }

// Height of the box
func (b BoundingBox) Height() float64 { return b.Bottom - b.Top }

// Center of the box
func (b BoundingBox) Center() Vector2D {
	return Vector2D{X: (b.Left + b.Right) / 2, Y: (b.Top + b.Bottom) / 2}
}

// Perimeter is the 2D surface-area heuristic used by the dynamic tree
func (b BoundingBox) Perimeter() float64 {
	return 2 * (b.Width() + b.Height())
}

// Combine returns the union of two boxes
func (b BoundingBox) Combine(other BoundingBox) BoundingBox {
	return BoundingBox{
		Left:   math.Min(b.Left, other.Left),
		Top:    math.Min(b.Top, other.Top),
		Right:  math.Max(b.Right, other.Right),
		Bottom: math.Max(b.Bottom, other.Bottom),
	}
}

// Contains reports whether other lies inside b (edges inclusive)
func (b BoundingBox) Contains(other BoundingBox) bool {
	return other.Left >= b.Left && other.Right <= b.Right &&
		other.Top >= b.Top && other.Bottom <= b.Bottom
}

// ContainsPoint reports whether p lies inside b (edges inclusive)
func (b BoundingBox) ContainsPoint(p Vector2D) bool {
	return p.X >= b.Left && p.X <= b.Right && p.Y >= b.Top && p.Y <= b.Bottom
}

// Overlaps reports whether the boxes intersect (touching counts)
func (b BoundingBox) Overlaps(other BoundingBox) bool {
	return b.Left <= other.Right && b.Right >= other.Left &&
		b.Top <= other.Bottom && b.Bottom >= other.Top
}

// Pad grows the box by amount on every side
func (b BoundingBox) Pad(amount float64) BoundingBox {
	return BoundingBox{
		Left:   b.Left - amount,
		Top:    b.Top - amount,
		Right:  b.Right + amount,
		Bottom: b.Bottom + amount,
	}
}

// Extend stretches the box in the direction of d only
func (b BoundingBox) Extend(d Vector2D) BoundingBox {
	if d.X < 0 {
		b.Left += d.X
	} else {
		b.Right += d.X
	}
	if d.Y < 0 {
		b.Top += d.Y
	} else {
		b.Bottom += d.Y
	}
	return b
}

// Points returns the four corners clockwise from top-left
func (b BoundingBox) Points() []Vector2D {
	return []Vector2D{
		{X: b.Left, Y: b.Top},
		{X: b.Right, Y: b.Top},
		{X: b.Right, Y: b.Bottom},
		{X: b.Left, Y: b.Bottom},
	}
}

// RayCast runs the slab test and returns the entry distance along the ray.
// A ray starting inside the box reports distance 0.
func (b BoundingBox) RayCast(ray Ray, maxDistance float64) (float64, bool) {
	tmin := 0.0
	tmax := maxDistance
	if tmax <= 0 {
		tmax = math.Inf(1)
	}

	slab := func(origin, dir, lo, hi float64) bool {
		if math.Abs(dir) < Epsilon {
			return origin >= lo && origin <= hi
		}
		inv := 1 / dir
		t1 := (lo - origin) * inv
		t2 := (hi - origin) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math.Max(tmin, t1)
		tmax = math.Min(tmax, t2)
		return tmin <= tmax
	}

	if !slab(ray.Pos.X, ray.Dir.X, b.Left, b.Right) {
		return 0, false
	}
	if !slab(ray.Pos.Y, ray.Dir.Y, b.Top, b.Bottom) {
		return 0, false
	}
	return tmin, true
}

// DebugDraw outlines the box
func (b BoundingBox) DebugDraw(d DebugDrawer) {
	pts := b.Points()
	for i := range pts {
		d.DrawLine(pts[i], pts[(i+1)%len(pts)])
	}
}
