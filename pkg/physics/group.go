// pkg/physics/group.go
package physics

// CollisionGroup filters which bodies may touch. Two bodies collide only when
// each one's category is present in the other's mask.
type CollisionGroup struct {
	Name     string `json:"name" yaml:"name"`
	Category uint32 `json:"category" yaml:"category"`
	Mask     uint32 `json:"mask" yaml:"mask"`
}

// CollideAll is the default group: member of everything, collides with everything
var CollideAll = CollisionGroup{Name: "all", Category: ^uint32(0), Mask: ^uint32(0)}

// NewCollisionGroup creates a group occupying a single category bit
func NewCollisionGroup(name string, bit uint, mask uint32) CollisionGroup {
	return CollisionGroup{Name: name, Category: 1 << bit, Mask: mask}
}

// CanCollide reports whether members of g and other may produce contacts
func (g CollisionGroup) CanCollide(other CollisionGroup) bool {
	return g.Category&other.Mask != 0 && other.Category&g.Mask != 0
}

// Invert returns a group that collides with everything g does not
func (g CollisionGroup) Invert() CollisionGroup {
	return CollisionGroup{Name: "~" + g.Name, Category: ^g.Category, Mask: ^g.Mask}
}
