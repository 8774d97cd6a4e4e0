// pkg/physics/polygon.go
package physics

import (
	"fmt"
	"math"
)

// ConvexPolygon is a convex hull given by its body-local vertices. Either
// winding order is accepted; outward normals are derived from the signed
// area of the transformed vertices, so mirrored scales keep working.
type ConvexPolygon struct {
	points []Vector2D
	body   *Body

	transformed []Vector2D
	axes        []Vector2D
	sides       []LineSegment
	bounds      BoundingBox
	center      Vector2D
	clockwise   bool
	flat        bool
}

// NewConvexPolygon validates and creates a polygon. Fewer than three points,
// a zero-area hull and a concave outline are rejected.
func NewConvexPolygon(points []Vector2D) (*ConvexPolygon, error) {
	if len(points) < 3 {
		return nil, fmt.Errorf("polygon with %d vertices: %w", len(points), ErrTooFewVertices)
	}
	if err := checkConvex(points); err != nil {
		return nil, err
	}
	p := &ConvexPolygon{points: append([]Vector2D(nil), points...)}
	p.Recalc()
	return p, nil
}

// NewBox creates an axis-aligned rectangle centered on the body origin
func NewBox(width, height float64) (*ConvexPolygon, error) {
	hw, hh := width/2, height/2
	return NewConvexPolygon([]Vector2D{
		{X: -hw, Y: -hh},
		{X: hw, Y: -hh},
		{X: hw, Y: hh},
		{X: -hw, Y: hh},
	})
}

func checkConvex(points []Vector2D) error {
	n := len(points)
	sign := 0.0
	for i := 0; i < n; i++ {
		a := points[i]
		b := points[(i+1)%n]
		c := points[(i+2)%n]
		cross := b.Sub(a).Cross(c.Sub(b))
		if math.Abs(cross) < Epsilon {
			continue
		}
		if sign == 0 {
			sign = math.Copysign(1, cross)
			continue
		}
		if math.Copysign(1, cross) != sign {
			return fmt.Errorf("vertex %d turns against the hull: %w", (i+1)%n, ErrNonConvexPolygon)
		}
	}
	if sign == 0 || math.Abs(signedArea(points)) < Epsilon {
		return fmt.Errorf("polygon has zero area: %w", ErrNonConvexPolygon)
	}
	// a star traced twice has consistent turns but winds more than once
	turn := 0.0
	for i := 0; i < n; i++ {
		d1 := points[(i+1)%n].Sub(points[i])
		d2 := points[(i+2)%n].Sub(points[(i+1)%n])
		turn += math.Atan2(d1.Cross(d2), d1.Dot(d2))
	}
	if math.Abs(turn) > 2*math.Pi+1e-6 {
		return fmt.Errorf("polygon winds %.0f times: %w", math.Abs(turn)/(2*math.Pi), ErrNonConvexPolygon)
	}
	return nil
}

func signedArea(points []Vector2D) float64 {
	area := 0.0
	for i := range points {
		area += points[i].Cross(points[(i+1)%len(points)])
	}
	return area / 2
}

// Kind implements Shape
func (p *ConvexPolygon) Kind() ShapeKind { return KindPolygon }

// Body implements Shape
func (p *ConvexPolygon) Body() *Body { return p.body }

func (p *ConvexPolygon) attach(b *Body) {
	p.body = b
	p.Recalc()
}

// LocalPoints returns a copy of the body-local vertices
func (p *ConvexPolygon) LocalPoints() []Vector2D {
	return append([]Vector2D(nil), p.points...)
}

// Points returns the cached world-space vertices
func (p *ConvexPolygon) Points() []Vector2D { return p.transformed }

// Sides returns the cached world-space sides; Sides()[i] has normal Axes()[i]
func (p *ConvexPolygon) Sides() []LineSegment { return p.sides }

// Clockwise reports the winding of the transformed vertices
func (p *ConvexPolygon) Clockwise() bool { return p.clockwise }

// Recalc implements Shape
func (p *ConvexPolygon) Recalc() {
	t := transformOf(p.body)
	n := len(p.points)
	if cap(p.transformed) < n {
		p.transformed = make([]Vector2D, n)
		p.sides = make([]LineSegment, n)
		p.axes = make([]Vector2D, n)
	}
	p.transformed = p.transformed[:n]
	p.sides = p.sides[:n]
	p.axes = p.axes[:n]

	for i, local := range p.points {
		p.transformed[i] = t.apply(local)
	}
	p.bounds = BoundsFromPoints(p.transformed)

	area := signedArea(p.transformed)
	p.flat = n < 3 || math.Abs(area) < Epsilon
	p.clockwise = area < 0
	p.center = polygonCentroid(p.transformed, area)

	for i := range p.transformed {
		side := LineSegment{Begin: p.transformed[i], End: p.transformed[(i+1)%n]}
		p.sides[i] = side
		normal := side.Normal()
		if p.clockwise {
			normal = normal.Negate()
		}
		p.axes[i] = normal
	}
}

func polygonCentroid(points []Vector2D, area float64) Vector2D {
	if len(points) == 0 {
		return Vector2D{}
	}
	if math.Abs(area) < Epsilon {
		sum := Vector2D{}
		for _, pt := range points {
			sum.AddEqual(pt)
		}
		return sum.Scale(1 / float64(len(points)))
	}
	var cx, cy float64
	for i := range points {
		a := points[i]
		b := points[(i+1)%len(points)]
		cross := a.Cross(b)
		cx += (a.X + b.X) * cross
		cy += (a.Y + b.Y) * cross
	}
	return Vector2D{X: cx / (6 * area), Y: cy / (6 * area)}
}

// Center implements Shape
func (p *ConvexPolygon) Center() Vector2D { return p.center }

// Bounds implements Shape
func (p *ConvexPolygon) Bounds() BoundingBox { return p.bounds }

// FurthestPoint implements Shape. Ties keep the lowest vertex index.
func (p *ConvexPolygon) FurthestPoint(direction Vector2D) Vector2D {
	return p.transformed[p.furthestIndex(direction)]
}

func (p *ConvexPolygon) furthestIndex(direction Vector2D) int {
	best := 0
	bestDot := math.Inf(-1)
	for i, v := range p.transformed {
		if d := v.Dot(direction); d > bestDot+Epsilon {
			best, bestDot = i, d
		}
	}
	return best
}

// Axes implements Shape
func (p *ConvexPolygon) Axes() []Vector2D {
	if p.flat {
		return nil
	}
	return p.axes
}

// Project implements Shape
func (p *ConvexPolygon) Project(axis Vector2D) Projection {
	proj := Projection{Min: math.Inf(1), Max: math.Inf(-1)}
	for _, v := range p.transformed {
		d := v.Dot(axis)
		proj.Min = math.Min(proj.Min, d)
		proj.Max = math.Max(proj.Max, d)
	}
	return proj
}

// Contains implements Shape
func (p *ConvexPolygon) Contains(point Vector2D) bool {
	if p.flat {
		return false
	}
	for i, side := range p.sides {
		if point.Sub(side.Begin).Dot(p.axes[i]) > Epsilon {
			return false
		}
	}
	return true
}

// CastRay implements Shape
func (p *ConvexPolygon) CastRay(ray Ray, maxDistance float64) (Vector2D, bool) {
	if p.flat {
		return Vector2D{}, false
	}
	if p.Contains(ray.Pos) {
		return ray.Pos, true
	}
	best := math.Inf(1)
	for _, side := range p.sides {
		if t, ok := ray.IntersectSegment(side); ok && t < best {
			best = t
		}
	}
	if math.IsInf(best, 1) || (maxDistance > 0 && best > maxDistance) {
		return Vector2D{}, false
	}
	return ray.At(best), true
}

// MomentOfInertia implements Shape: the polygon second moment about the body
// origin, scaled by mass over area.
func (p *ConvexPolygon) MomentOfInertia() float64 {
	mass := bodyMass(p.body)
	t := transformOf(p.body)
	var numerator, denominator float64
	n := len(p.points)
	for i := 0; i < n; i++ {
		a := p.points[i].Mul(t.scale)
		b := p.points[(i+1)%n].Mul(t.scale)
		cross := math.Abs(a.Cross(b))
		numerator += cross * (a.Dot(a) + a.Dot(b) + b.Dot(b))
		denominator += cross
	}
	if denominator == 0 {
		return 0
	}
	return mass / 6 * numerator / denominator
}

// DebugDraw implements Shape
func (p *ConvexPolygon) DebugDraw(d DebugDrawer) {
	for _, side := range p.sides {
		d.DrawLine(side.Begin, side.End)
	}
}

func (p *ConvexPolygon) degenerate() bool {
	return p.flat || !p.center.IsFinite()
}
