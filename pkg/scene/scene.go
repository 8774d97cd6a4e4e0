// Package scene reads declarative body layouts and turns them into
// physics bodies.
package scene

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/opd-ai/go-physics2d/pkg/physics"
)

// Scene is a named set of bodies with an optional gravity override
type Scene struct {
	Name    string            `json:"name,omitempty" yaml:"name,omitempty"`
	Gravity *physics.Vector2D `json:"gravity,omitempty" yaml:"gravity,omitempty"`
	Bodies  []BodyConfig      `json:"bodies" yaml:"bodies"`
}

// BodyConfig describes one body. Optional numbers left out of the file keep
// the body defaults; a missing mass uses the world's default mass.
type BodyConfig struct {
	Name            string           `json:"name,omitempty" yaml:"name,omitempty"`
	Shape           ShapeConfig      `json:"shape" yaml:"shape"`
	Position        physics.Vector2D `json:"position" yaml:"position"`
	Velocity        physics.Vector2D `json:"velocity" yaml:"velocity"`
	Rotation        float64          `json:"rotation,omitempty" yaml:"rotation,omitempty"`
	AngularVelocity float64          `json:"angular_velocity,omitempty" yaml:"angular_velocity,omitempty"`
	Mass            *float64         `json:"mass,omitempty" yaml:"mass,omitempty"`
	Restitution     *float64         `json:"restitution,omitempty" yaml:"restitution,omitempty"`
	Friction        *float64         `json:"friction,omitempty" yaml:"friction,omitempty"`
	// CollisionType is one of active, passive, fixed, elastic or
	// prevent; empty means active
	CollisionType string       `json:"collision_type,omitempty" yaml:"collision_type,omitempty"`
	Group         *GroupConfig `json:"group,omitempty" yaml:"group,omitempty"`
}

// ShapeConfig selects the collision shape. Kind is circle, box, polygon or
// edge; only the fields of that kind are read.
type ShapeConfig struct {
	Kind   string             `json:"kind" yaml:"kind"`
	Radius float64            `json:"radius,omitempty" yaml:"radius,omitempty"`
	Offset physics.Vector2D   `json:"offset,omitempty" yaml:"offset,omitempty"`
	Width  float64            `json:"width,omitempty" yaml:"width,omitempty"`
	Height float64            `json:"height,omitempty" yaml:"height,omitempty"`
	Points []physics.Vector2D `json:"points,omitempty" yaml:"points,omitempty"`
	Begin  physics.Vector2D   `json:"begin,omitempty" yaml:"begin,omitempty"`
	End    physics.Vector2D   `json:"end,omitempty" yaml:"end,omitempty"`
}

// GroupConfig is a collision group: the body collides with bodies whose
// category bit is set in Mask, and vice versa.
type GroupConfig struct {
	Name     string `json:"name" yaml:"name"`
	Category uint   `json:"category" yaml:"category"`
	Mask     uint32 `json:"mask" yaml:"mask"`
}

// Format is a scene file encoding
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatFromPath picks YAML for .yaml and .yml files and JSON otherwise
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// Parse decodes a scene document
func Parse(data []byte, format Format) (*Scene, error) {
	var s Scene
	var err error
	if format == FormatYAML {
		err = yaml.Unmarshal(data, &s)
	} else {
		err = json.Unmarshal(data, &s)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse scene: %w", err)
	}
	return &s, nil
}

// LoadSceneFromFile reads a JSON or YAML scene file
func LoadSceneFromFile(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene file: %w", err)
	}
	return Parse(data, FormatFromPath(path))
}

// SaveSceneToFile writes the scene in the encoding its extension names
func SaveSceneToFile(s *Scene, path string) error {
	if s == nil {
		return fmt.Errorf("failed to marshal scene: scene is nil")
	}
	var data []byte
	var err error
	if FormatFromPath(path) == FormatYAML {
		data, err = yaml.Marshal(s)
	} else {
		data, err = json.MarshalIndent(s, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal scene: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write scene file: %w", err)
	}
	return nil
}

// ApplyTo copies the scene's gravity override into cfg
func (s *Scene) ApplyTo(cfg *physics.Config) {
	if s.Gravity != nil {
		cfg.Gravity = *s.Gravity
	}
}

// Build creates every body of the scene. The first invalid body aborts the
// build; its index and name are part of the error.
func (s *Scene) Build(defaultMass float64) ([]*physics.Body, error) {
	bodies := make([]*physics.Body, 0, len(s.Bodies))
	for i, bc := range s.Bodies {
		b, err := bc.Build(defaultMass)
		if err != nil {
			if bc.Name != "" {
				return nil, fmt.Errorf("body %d (%s): %w", i, bc.Name, err)
			}
			return nil, fmt.Errorf("body %d: %w", i, err)
		}
		bodies = append(bodies, b)
	}
	return bodies, nil
}

// Build creates the body this config describes
func (bc BodyConfig) Build(defaultMass float64) (*physics.Body, error) {
	shape, err := bc.Shape.Build()
	if err != nil {
		return nil, err
	}

	b := physics.NewBody(bc.Position, shape)
	b.Vel = bc.Velocity
	b.Rotation = bc.Rotation
	b.AngularVelocity = bc.AngularVelocity
	b.Mass = defaultMass
	if bc.Mass != nil {
		b.Mass = *bc.Mass
	}
	if bc.Restitution != nil {
		b.Restitution = *bc.Restitution
	}
	if bc.Friction != nil {
		b.Friction = *bc.Friction
	}
	if bc.CollisionType != "" {
		if err := b.CollisionType.UnmarshalText([]byte(bc.CollisionType)); err != nil {
			return nil, err
		}
	}
	if bc.Group != nil {
		if bc.Group.Category >= 32 {
			return nil, fmt.Errorf("group %q category %d out of range", bc.Group.Name, bc.Group.Category)
		}
		b.Group = physics.NewCollisionGroup(bc.Group.Name, bc.Group.Category, bc.Group.Mask)
	}
	b.Recalc()
	return b, nil
}

// Build creates the shape
func (sc ShapeConfig) Build() (physics.Shape, error) {
	var (
		shape physics.Shape
		err   error
	)
	switch strings.ToLower(sc.Kind) {
	case "circle":
		var c *physics.Circle
		c, err = physics.NewCircle(sc.Radius, sc.Offset)
		shape = c
	case "box":
		var p *physics.ConvexPolygon
		p, err = physics.NewBox(sc.Width, sc.Height)
		shape = p
	case "polygon":
		var p *physics.ConvexPolygon
		p, err = physics.NewConvexPolygon(sc.Points)
		shape = p
	case "edge":
		shape = physics.NewEdge(sc.Begin, sc.End)
	default:
		return nil, fmt.Errorf("unknown shape kind: %q", sc.Kind)
	}
	if err != nil {
		return nil, err
	}
	return shape, nil
}
