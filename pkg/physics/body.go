// pkg/physics/body.go
package physics

import (
	"fmt"
	"strings"

	"github.com/EngoEngine/ecs"
)

// CollisionType decides whether and how a body takes part in collisions
type CollisionType int

const (
	// PreventCollision bodies never produce contacts
	PreventCollision CollisionType = iota
	// Passive bodies produce contacts but are never displaced
	Passive
	// Active bodies are displaced by Active and Fixed bodies
	Active
	// Fixed bodies are never displaced by anything
	Fixed
	// Elastic bodies act like Active but have their velocity reflected
	Elastic
)

var collisionTypeNames = map[CollisionType]string{
	PreventCollision: "prevent",
	Passive:          "passive",
	Active:           "active",
	Fixed:            "fixed",
	Elastic:          "elastic",
}

func (c CollisionType) String() string {
	if name, ok := collisionTypeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("CollisionType(%d)", int(c))
}

// MarshalText implements encoding.TextMarshaler
func (c CollisionType) MarshalText() ([]byte, error) {
	if _, ok := collisionTypeNames[c]; !ok {
		return nil, fmt.Errorf("unknown collision type %d", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (c *CollisionType) UnmarshalText(text []byte) error {
	s := strings.ToLower(strings.TrimSpace(string(text)))
	for k, name := range collisionTypeNames {
		if name == s {
			*c = k
			return nil
		}
	}
	if s == "preventcollision" {
		*c = PreventCollision
		return nil
	}
	return fmt.Errorf("unknown collision type %q", string(text))
}

// moves reports whether resolution may displace a body of this type
func (c CollisionType) moves() bool {
	return c == Active || c == Elastic
}

// DefaultMass is used by NewBody
const DefaultMass = 10.0

// motionBias weights the running motion average toward history
const motionBias = 0.9

// Body is a rigid body with exactly one collision shape. Bodies are owned by
// the caller; the physics world and broad-phase only reference them.
type Body struct {
	ecs.BasicEntity

	Pos    Vector2D
	OldPos Vector2D
	Vel    Vector2D
	OldVel Vector2D
	Acc    Vector2D
	Scale  Vector2D

	Rotation        float64
	AngularVelocity float64
	Torque          float64

	Mass        float64
	Friction    float64
	Restitution float64

	CollisionType CollisionType
	Group         CollisionGroup

	force  Vector2D
	motion float64
	shape  Shape
}

// NewBody creates an Active body at pos owning shape
func NewBody(pos Vector2D, shape Shape) *Body {
	b := &Body{
		BasicEntity:   ecs.NewBasic(),
		Pos:           pos,
		OldPos:        pos,
		Scale:         Vector2D{X: 1, Y: 1},
		Mass:          DefaultMass,
		Friction:      0.2,
		Restitution:   0.2,
		CollisionType: Active,
		Group:         CollideAll,
	}
	if shape != nil {
		b.shape = shape
		shape.attach(b)
	}
	return b
}

// Shape returns the body's collision shape
func (b *Body) Shape() Shape { return b.shape }

// SetShape replaces the collision shape
func (b *Body) SetShape(s Shape) error {
	if s == nil {
		return ErrNilShape
	}
	b.shape = s
	s.attach(b)
	return nil
}

// UseCircle switches to circle collision
func (b *Body) UseCircle(radius float64, offset Vector2D) error {
	c, err := NewCircle(radius, offset)
	if err != nil {
		return err
	}
	return b.SetShape(c)
}

// UseBox switches to an axis-aligned box centered on the body
func (b *Body) UseBox(width, height float64) error {
	p, err := NewBox(width, height)
	if err != nil {
		return err
	}
	return b.SetShape(p)
}

// UsePolygon switches to convex polygon collision
func (b *Body) UsePolygon(points []Vector2D) error {
	p, err := NewConvexPolygon(points)
	if err != nil {
		return err
	}
	return b.SetShape(p)
}

// UseEdge switches to edge collision
func (b *Body) UseEdge(begin, end Vector2D) error {
	return b.SetShape(NewEdge(begin, end))
}

// Recalc refreshes the shape's cached world geometry. Call after changing
// Pos, Rotation or Scale directly.
func (b *Body) Recalc() {
	if b.shape != nil {
		b.shape.Recalc()
	}
}

// Bounds returns the tight world AABB of the shape
func (b *Body) Bounds() BoundingBox {
	if b.shape == nil {
		return BoundingBox{Left: b.Pos.X, Right: b.Pos.X, Top: b.Pos.Y, Bottom: b.Pos.Y}
	}
	return b.shape.Bounds()
}

// InverseMass is zero for Fixed bodies and bodies without positive mass
func (b *Body) InverseMass() float64 {
	if b.CollisionType == Fixed || b.Mass <= 0 {
		return 0
	}
	return 1 / b.Mass
}

// Inertia returns the shape's moment of inertia for the body's mass
func (b *Body) Inertia() float64 {
	if b.shape == nil {
		return 0
	}
	return b.shape.MomentOfInertia()
}

// InverseInertia is zero for Fixed bodies and shapes without inertia
func (b *Body) InverseInertia() float64 {
	if b.CollisionType == Fixed {
		return 0
	}
	i := b.Inertia()
	if i <= 0 {
		return 0
	}
	return 1 / i
}

// Motion is a running average of squared linear and angular speed. A value
// that keeps rising under resting contact hints at an unstable stack.
func (b *Body) Motion() float64 { return b.motion }

// ApplyForce accumulates a force for the next integration only
func (b *Body) ApplyForce(force Vector2D) {
	b.force.AddEqual(force)
}

// ApplyImpulse changes linear and angular velocity as if impulse acted at
// the world point. Bodies without inverse mass are unaffected.
func (b *Body) ApplyImpulse(impulse, point Vector2D) {
	invMass := b.InverseMass()
	if invMass == 0 {
		return
	}
	b.Vel.AddEqual(impulse.Scale(invMass))
	r := point.Sub(b.Pos)
	b.AngularVelocity += r.Cross(impulse) * b.InverseInertia()
}

// Integrate advances the body by delta seconds with semi-implicit Euler over
// the given number of sub-steps. Gravity only affects Active and Elastic
// bodies. The shape is recalculated afterwards.
func (b *Body) Integrate(delta float64, gravity Vector2D, steps int) {
	if steps < 1 {
		steps = 1
	}
	b.OldPos = b.Pos
	b.OldVel = b.Vel

	acc := b.Acc
	if b.CollisionType.moves() {
		acc = acc.Add(gravity)
		if b.Mass > 0 {
			acc = acc.Add(b.force.Scale(1 / b.Mass))
		}
	}
	angAcc := b.Torque * b.InverseInertia()

	dt := delta / float64(steps)
	for i := 0; i < steps; i++ {
		b.Vel.AddEqual(acc.Scale(dt))
		b.Pos.AddEqual(b.Vel.Scale(dt))
		b.AngularVelocity += angAcc * dt
		b.Rotation += b.AngularVelocity * dt
	}
	b.force = Vector2D{}

	current := b.Vel.LengthSquared() + b.AngularVelocity*b.AngularVelocity
	b.motion = motionBias*b.motion + (1-motionBias)*current

	b.Recalc()
}

// canCollide is the broad-phase filter applied before narrow-phase
func canCollide(a, b *Body) bool {
	if a == b || a.shape == nil || b.shape == nil {
		return false
	}
	if a.CollisionType == PreventCollision || b.CollisionType == PreventCollision {
		return false
	}
	if a.CollisionType == Passive && b.CollisionType == Passive {
		return false
	}
	if a.CollisionType == Fixed && b.CollisionType == Fixed {
		return false
	}
	return a.Group.CanCollide(b.Group)
}
