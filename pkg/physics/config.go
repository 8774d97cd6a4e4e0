// pkg/physics/config.go
package physics

import (
	"fmt"
	"math"
	"strings"
)

// BroadPhaseStrategy selects how candidate pairs are found
type BroadPhaseStrategy int

const (
	BroadPhaseDynamicTree BroadPhaseStrategy = iota
	BroadPhaseNaive
)

func (s BroadPhaseStrategy) String() string {
	switch s {
	case BroadPhaseDynamicTree:
		return "tree"
	case BroadPhaseNaive:
		return "naive"
	default:
		return fmt.Sprintf("BroadPhaseStrategy(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler
func (s BroadPhaseStrategy) MarshalText() ([]byte, error) {
	if s != BroadPhaseDynamicTree && s != BroadPhaseNaive {
		return nil, fmt.Errorf("unknown broad-phase strategy %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *BroadPhaseStrategy) UnmarshalText(text []byte) error {
	v, err := ParseBroadPhase(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseBroadPhase accepts "tree", "dynamictree", "dynamic_tree" and "naive"
func ParseBroadPhase(s string) (BroadPhaseStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tree", "dynamictree", "dynamic_tree", "dynamic-tree":
		return BroadPhaseDynamicTree, nil
	case "naive":
		return BroadPhaseNaive, nil
	}
	return 0, fmt.Errorf("unknown broad-phase strategy %q", s)
}

// ResolutionStrategy selects how contacts are resolved
type ResolutionStrategy int

const (
	ResolutionBox ResolutionStrategy = iota
	ResolutionRigidBody
)

func (s ResolutionStrategy) String() string {
	switch s {
	case ResolutionBox:
		return "box"
	case ResolutionRigidBody:
		return "rigidbody"
	default:
		return fmt.Sprintf("ResolutionStrategy(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler
func (s ResolutionStrategy) MarshalText() ([]byte, error) {
	if s != ResolutionBox && s != ResolutionRigidBody {
		return nil, fmt.Errorf("unknown resolution strategy %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *ResolutionStrategy) UnmarshalText(text []byte) error {
	v, err := ParseResolution(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseResolution accepts "box", "arcade", "rigidbody", "rigid_body" and "impulse"
func ParseResolution(s string) (ResolutionStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "box", "arcade":
		return ResolutionBox, nil
	case "rigidbody", "rigid_body", "rigid-body", "impulse":
		return ResolutionRigidBody, nil
	}
	return 0, fmt.Errorf("unknown resolution strategy %q", s)
}

// Config holds the tunables of one World. It is read at tick boundaries only.
type Config struct {
	// Enabled turns detection and resolution on; integration always runs.
	Enabled bool `json:"enabled" yaml:"enabled"`
	// Gravity is the global acceleration applied to Active and Elastic bodies.
	Gravity Vector2D `json:"gravity" yaml:"gravity"`
	// CollisionPasses is the number of RigidBody resolution passes. Box
	// resolution runs a single pass unless this is zero.
	CollisionPasses int                `json:"collision_passes" yaml:"collision_passes"`
	BroadPhase      BroadPhaseStrategy `json:"broad_phase" yaml:"broad_phase"`
	Resolution      ResolutionStrategy `json:"resolution" yaml:"resolution"`
	// DefaultMass is used by World.NewBody.
	DefaultMass      float64 `json:"default_mass" yaml:"default_mass"`
	IntegrationSteps int     `json:"integration_steps" yaml:"integration_steps"`
	// CollisionShift is the penetration left uncorrected by RigidBody
	// resolution so resting contacts keep touching.
	CollisionShift         float64 `json:"collision_shift" yaml:"collision_shift"`
	TreePadding            float64 `json:"tree_padding" yaml:"tree_padding"`
	TreeVelocityMultiplier float64 `json:"tree_velocity_multiplier" yaml:"tree_velocity_multiplier"`
}

// DefaultConfig returns a working configuration without gravity
func DefaultConfig() Config {
	return Config{
		Enabled:                true,
		CollisionPasses:        5,
		BroadPhase:             BroadPhaseDynamicTree,
		Resolution:             ResolutionBox,
		DefaultMass:            DefaultMass,
		IntegrationSteps:       1,
		CollisionShift:         0.001,
		TreePadding:            DefaultTreePadding,
		TreeVelocityMultiplier: DefaultTreeVelocityMultiplier,
	}
}

// Validate rejects configurations the world cannot run
func (c Config) Validate() error {
	switch {
	case !c.Gravity.IsFinite():
		return fmt.Errorf("gravity %v: %w", c.Gravity, ErrInvalidConfig)
	case c.CollisionPasses < 0:
		return fmt.Errorf("collision passes %d: %w", c.CollisionPasses, ErrInvalidConfig)
	case c.BroadPhase != BroadPhaseDynamicTree && c.BroadPhase != BroadPhaseNaive:
		return fmt.Errorf("broad-phase %v: %w", c.BroadPhase, ErrInvalidConfig)
	case c.Resolution != ResolutionBox && c.Resolution != ResolutionRigidBody:
		return fmt.Errorf("resolution %v: %w", c.Resolution, ErrInvalidConfig)
	case !(c.DefaultMass > 0) || math.IsInf(c.DefaultMass, 0):
		return fmt.Errorf("default mass %v: %w", c.DefaultMass, ErrInvalidConfig)
	case c.IntegrationSteps < 1:
		return fmt.Errorf("integration steps %d: %w", c.IntegrationSteps, ErrInvalidConfig)
	case !(c.CollisionShift >= 0):
		return fmt.Errorf("collision shift %v: %w", c.CollisionShift, ErrInvalidConfig)
	case !(c.TreePadding >= 0) || !(c.TreeVelocityMultiplier >= 0):
		return fmt.Errorf("tree fattening %v/%v: %w", c.TreePadding, c.TreeVelocityMultiplier, ErrInvalidConfig)
	}
	return nil
}

// passes returns how many resolution passes run per tick
func (c Config) passes() int {
	if c.Resolution == ResolutionBox {
		return min(c.CollisionPasses, 1)
	}
	return c.CollisionPasses
}

func (c Config) newBroadPhase() BroadPhase {
	if c.BroadPhase == BroadPhaseNaive {
		return NewNaiveBroadPhase()
	}
	return NewTreeBroadPhase(c.TreePadding, c.TreeVelocityMultiplier)
}

func (c Config) newResolver() Resolver {
	if c.Resolution == ResolutionRigidBody {
		return &RigidBodyResolver{CollisionShift: c.CollisionShift}
	}
	return &BoxResolver{}
}
