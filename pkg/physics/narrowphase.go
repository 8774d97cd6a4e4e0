// pkg/physics/narrowphase.go
package physics

import "math"

type collideFunc func(a, b Shape) *CollisionContact

// collisionTable holds the six pairwise tests. Entries below the diagonal
// reuse the canonical test with the arguments swapped and flip the result.
var collisionTable = [shapeKindCount][shapeKindCount]collideFunc{
	KindCircle: {
		KindCircle: func(a, b Shape) *CollisionContact {
			return collideCircleCircle(a.(*Circle), b.(*Circle))
		},
		KindEdge: func(a, b Shape) *CollisionContact {
			return collideCircleEdge(a.(*Circle), b.(*Edge))
		},
		KindPolygon: func(a, b Shape) *CollisionContact {
			return collideCirclePolygon(a.(*Circle), b.(*ConvexPolygon))
		},
	},
	KindEdge: {
		KindCircle: swapped(func(a, b Shape) *CollisionContact {
			return collideCircleEdge(a.(*Circle), b.(*Edge))
		}),
		KindEdge: func(a, b Shape) *CollisionContact {
			return collideEdgeEdge(a.(*Edge), b.(*Edge))
		},
		KindPolygon: swapped(func(a, b Shape) *CollisionContact {
			return collidePolygonEdge(a.(*ConvexPolygon), b.(*Edge))
		}),
	},
	KindPolygon: {
		KindCircle: swapped(func(a, b Shape) *CollisionContact {
			return collideCirclePolygon(a.(*Circle), b.(*ConvexPolygon))
		}),
		KindEdge: func(a, b Shape) *CollisionContact {
			return collidePolygonEdge(a.(*ConvexPolygon), b.(*Edge))
		},
		KindPolygon: func(a, b Shape) *CollisionContact {
			return collidePolygonPolygon(a.(*ConvexPolygon), b.(*ConvexPolygon))
		},
	},
}

func swapped(f collideFunc) collideFunc {
	return func(a, b Shape) *CollisionContact {
		if c := f(b, a); c != nil {
			return c.flip()
		}
		return nil
	}
}

// Collide runs the exact test for any two shapes and returns nil when they
// do not intersect. Touching shapes (zero overlap) do not collide. Shapes
// of the same body never collide with each other.
//
// When several separating-axis candidates have equal overlap the axis of
// the first argument of the pairwise test wins. For mixed pairs that is the
// shape listed first in the pair name (circle before edge and polygon,
// polygon before edge) regardless of call order.
func Collide(a, b Shape) *CollisionContact {
	if a == nil || b == nil || a == b {
		return nil
	}
	if a.Body() != nil && a.Body() == b.Body() {
		return nil
	}
	ka, kb := a.Kind(), b.Kind()
	if ka < 0 || ka >= shapeKindCount || kb < 0 || kb >= shapeKindCount {
		return nil
	}
	c := collisionTable[ka][kb](a, b)
	if c == nil || !c.mtv.IsFinite() || !c.normal.IsFinite() || !c.point.IsFinite() {
		return nil
	}
	return c
}

const (
	ownerA = iota
	ownerB
)

type satAxis struct {
	axis  Vector2D
	owner int
}

type satResult struct {
	axis    Vector2D
	overlap float64
	owner   int
}

// sat projects both shapes on every axis. It stops at the first separating
// axis; otherwise it returns the axis of least overlap, keeping the earlier
// axis on ties.
func sat(a, b Shape, axes []satAxis) (satResult, bool) {
	best := satResult{overlap: math.Inf(1)}
	for _, ax := range axes {
		if ax.axis.LengthSquared() < Epsilon {
			continue
		}
		overlap := a.Project(ax.axis).Overlap(b.Project(ax.axis))
		if overlap <= 0 {
			return satResult{}, false
		}
		if overlap < best.overlap && !nearlyEqual(overlap, best.overlap) {
			best = satResult{axis: ax.axis, overlap: overlap, owner: ax.owner}
		}
	}
	if math.IsInf(best.overlap, 1) {
		return satResult{}, false
	}
	return best, true
}

// orient flips axis so it points from → to
func orient(axis, from, to Vector2D) Vector2D {
	if axis.Dot(to.Sub(from)) < 0 {
		return axis.Negate()
	}
	return axis
}

func collideCircleCircle(a, b *Circle) *CollisionContact {
	if a.degenerate() || b.degenerate() {
		return nil
	}
	d := b.center.Sub(a.center)
	dist := d.Length()
	sum := a.worldRadius + b.worldRadius
	if dist >= sum {
		return nil
	}
	normal := Vector2D{X: 1, Y: 0}
	if dist > Epsilon {
		normal = d.Scale(1 / dist)
	}
	depth := sum - dist
	point := a.center.Add(normal.Scale(a.worldRadius))
	return newContact(a, b, normal.Scale(depth), point, normal)
}

// collideCircleEdge classifies the circle center into the Voronoi regions of
// the segment: either endpoint, or the face between them.
func collideCircleEdge(a *Circle, b *Edge) *CollisionContact {
	if a.degenerate() || b.degenerate() {
		return nil
	}
	seg := b.Segment()
	c := a.center
	cp, t := seg.ClosestPoint(c)
	d := cp.Sub(c)
	dist := d.Length()
	if dist >= a.worldRadius {
		return nil
	}

	var normal Vector2D
	switch {
	case t <= 0 || t >= 1:
		// vertex region: the axis runs from the center to the endpoint
		if dist <= Epsilon {
			normal = seg.Normal()
		} else {
			normal = d.Scale(1 / dist)
		}
	default:
		// face region: the axis is the edge normal facing away from the circle
		normal = seg.Normal()
		if normal.Dot(d) < 0 {
			normal = normal.Negate()
		}
	}
	depth := a.worldRadius - dist
	return newContact(a, b, normal.Scale(depth), cp, normal)
}

func collideCirclePolygon(a *Circle, b *ConvexPolygon) *CollisionContact {
	if a.degenerate() || b.degenerate() {
		return nil
	}
	c := a.center

	closestVertex := b.transformed[0]
	for _, v := range b.transformed[1:] {
		if v.DistanceSquared(c) < closestVertex.DistanceSquared(c) {
			closestVertex = v
		}
	}

	axes := make([]satAxis, 0, len(b.axes)+1)
	axes = append(axes, satAxis{axis: closestVertex.Sub(c).Normalize(), owner: ownerA})
	for _, ax := range b.axes {
		axes = append(axes, satAxis{axis: ax, owner: ownerB})
	}
	best, ok := sat(a, b, axes)
	if !ok {
		return nil
	}

	// Outside the polygon the closest boundary point fixes the normal side
	// for both face and vertex regions; inside, the centers do.
	toward := b.center
	point := Vector2D{}
	inside := b.Contains(c)
	if !inside {
		point = closestBoundaryPoint(b, c)
		toward = point
	}
	normal := orient(best.axis, c, toward)
	if inside {
		point = a.FurthestPoint(normal)
	}
	return newContact(a, b, normal.Scale(best.overlap), point, normal)
}

func closestBoundaryPoint(p *ConvexPolygon, q Vector2D) Vector2D {
	best := p.transformed[0]
	bestDist := math.Inf(1)
	for _, side := range p.sides {
		cp, _ := side.ClosestPoint(q)
		if d := cp.DistanceSquared(q); d < bestDist {
			best, bestDist = cp, d
		}
	}
	return best
}

// collideEdgeEdge only reports crossing or perpendicular-touching segments,
// the configurations that matter for thin platforms. Parallel and collinear
// overlaps are not contacts.
func collideEdgeEdge(a, b *Edge) *CollisionContact {
	if a.degenerate() || b.degenerate() {
		return nil
	}
	segA, segB := a.Segment(), b.Segment()
	point, ok := segA.Intersect(segB)
	if !ok {
		return nil
	}

	nA := segA.Normal()
	nB := segB.Normal()

	// moving b across a's line
	depthA, dirA := edgeAxis(segB.Begin.Sub(segA.Begin).Dot(nA), segB.End.Sub(segA.Begin).Dot(nA), nA)
	// moving a across b's line, expressed as a move of b
	depthB, dirB := edgeAxis(segA.Begin.Sub(segB.Begin).Dot(nB), segA.End.Sub(segB.Begin).Dot(nB), nB)

	depth, normal := depthA, dirA
	if depthB < depthA && !nearlyEqual(depthA, depthB) {
		depth, normal = depthB, dirB.Negate()
	}
	if depth <= Epsilon {
		return nil
	}
	return newContact(a, b, normal.Scale(depth), point, normal)
}

// edgeAxis takes the signed distances of a segment's endpoints from a line
// and returns how far the segment must move along the line normal to end up
// entirely on the side of its deeper endpoint.
func edgeAxis(s1, s2 float64, n Vector2D) (float64, Vector2D) {
	deep, shallow := s1, s2
	if math.Abs(s2) > math.Abs(s1) {
		deep, shallow = s2, s1
	}
	if deep*shallow > 0 {
		return 0, n
	}
	return math.Abs(shallow), n.Scale(math.Copysign(1, deep))
}

func collidePolygonEdge(a *ConvexPolygon, b *Edge) *CollisionContact {
	if a.degenerate() || b.degenerate() {
		return nil
	}
	axes := make([]satAxis, 0, len(a.axes)+1)
	for _, ax := range a.axes {
		axes = append(axes, satAxis{axis: ax, owner: ownerA})
	}
	axes = append(axes, satAxis{axis: b.axes[0], owner: ownerB})
	best, ok := sat(a, b, axes)
	if !ok {
		return nil
	}
	normal := orient(best.axis, a.center, b.Center())
	seg := b.Segment()

	var point Vector2D
	if best.owner == ownerA {
		point, ok = clipContact(referenceFace(a, normal), normal, seg)
		if !ok {
			point = b.FurthestPoint(normal.Negate())
		}
	} else {
		point, ok = clipContact(seg, normal.Negate(), incidentFace(a, normal.Negate()))
		if !ok {
			point = a.FurthestPoint(normal)
		}
	}
	return newContact(a, b, normal.Scale(best.overlap), point, normal)
}

func collidePolygonPolygon(a, b *ConvexPolygon) *CollisionContact {
	if a.degenerate() || b.degenerate() {
		return nil
	}
	axes := make([]satAxis, 0, len(a.axes)+len(b.axes))
	for _, ax := range a.axes {
		axes = append(axes, satAxis{axis: ax, owner: ownerA})
	}
	for _, ax := range b.axes {
		axes = append(axes, satAxis{axis: ax, owner: ownerB})
	}
	best, ok := sat(a, b, axes)
	if !ok {
		return nil
	}
	normal := orient(best.axis, a.center, b.center)

	var point Vector2D
	if best.owner == ownerA {
		point, ok = clipContact(referenceFace(a, normal), normal, incidentFace(b, normal))
		if !ok {
			point = b.FurthestPoint(normal.Negate())
		}
	} else {
		n := normal.Negate()
		point, ok = clipContact(referenceFace(b, n), n, incidentFace(a, n))
		if !ok {
			point = a.FurthestPoint(normal)
		}
	}
	return newContact(a, b, normal.Scale(best.overlap), point, normal)
}

// referenceFace is the side of p whose outward normal best matches n
func referenceFace(p *ConvexPolygon, n Vector2D) LineSegment {
	best, bestDot := 0, math.Inf(-1)
	for i, ax := range p.axes {
		if d := ax.Dot(n); d > bestDot+Epsilon {
			best, bestDot = i, d
		}
	}
	return p.sides[best]
}

// incidentFace is the side of p most opposed to the reference normal n
func incidentFace(p *ConvexPolygon, n Vector2D) LineSegment {
	best, bestDot := 0, math.Inf(1)
	for i, ax := range p.axes {
		if d := ax.Dot(n); d < bestDot-Epsilon {
			best, bestDot = i, d
		}
	}
	return p.sides[best]
}

// clipContact clips the incident segment to the side planes of the reference
// face and averages the clipped points lying behind the reference face.
func clipContact(ref LineSegment, n Vector2D, inc LineSegment) (Vector2D, bool) {
	t := ref.Direction().Normalize()
	if t.IsZero() {
		return Vector2D{}, false
	}
	pts := clipSegment([]Vector2D{inc.Begin, inc.End}, t, ref.Begin.Dot(t))
	if len(pts) < 2 {
		return Vector2D{}, false
	}
	pts = clipSegment(pts, t.Negate(), -ref.End.Dot(t))
	if len(pts) < 2 {
		return Vector2D{}, false
	}

	face := ref.Begin.Dot(n)
	sum := Vector2D{}
	count := 0
	for _, p := range pts {
		if p.Dot(n)-face <= Epsilon {
			sum.AddEqual(p)
			count++
		}
	}
	if count == 0 {
		return Vector2D{}, false
	}
	return sum.Scale(1 / float64(count)), true
}

// clipSegment keeps the part of a two-point segment with p·dir >= offset
func clipSegment(pts []Vector2D, dir Vector2D, offset float64) []Vector2D {
	out := make([]Vector2D, 0, 2)
	d0 := pts[0].Dot(dir) - offset
	d1 := pts[1].Dot(dir) - offset
	if d0 >= 0 {
		out = append(out, pts[0])
	}
	if d1 >= 0 {
		out = append(out, pts[1])
	}
	if d0*d1 < 0 {
		out = append(out, pts[0].Add(pts[1].Sub(pts[0]).Scale(d0/(d0-d1))))
	}
	return out
}
