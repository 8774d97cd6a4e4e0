// pkg/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/opd-ai/go-physics2d/pkg/physics"
)

// Config is the file format read by tools driving a physics world
type Config struct {
	Physics    physics.Config   `json:"physics" yaml:"physics"`
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`
}

// SimulationConfig controls the fixed-step loop around the world
type SimulationConfig struct {
	// TickRate is the number of ticks per simulated second
	TickRate int `json:"tick_rate" yaml:"tick_rate"`
	// Ticks is how many ticks a run lasts; zero runs until cancelled
	Ticks  int          `json:"ticks" yaml:"ticks"`
	Render RenderConfig `json:"render" yaml:"render"`
}

// RenderConfig contains debug overlay options
type RenderConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
	Width   int  `json:"width" yaml:"width"`
	Height  int  `json:"height" yaml:"height"`
	// Scale is the number of world units covered by one character cell
	Scale float64 `json:"scale" yaml:"scale"`
	// Center is the world position shown in the middle of the frame
	Center physics.Vector2D `json:"center" yaml:"center"`
	// Every renders one frame per this many ticks
	Every int `json:"every" yaml:"every"`
}

// Delta is the duration of one tick in seconds
func (s SimulationConfig) Delta() float64 {
	if s.TickRate <= 0 {
		return 0
	}
	return 1 / float64(s.TickRate)
}

// TickInterval is the wall-clock duration of one tick
func (s SimulationConfig) TickInterval() time.Duration {
	if s.TickRate <= 0 {
		return 0
	}
	return time.Second / time.Duration(s.TickRate)
}

// Validate checks the physics and simulation sections
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config is nil")
	}
	if err := c.Physics.Validate(); err != nil {
		return err
	}
	if c.Simulation.TickRate <= 0 {
		return fmt.Errorf("tick rate must be positive, got %d", c.Simulation.TickRate)
	}
	if c.Simulation.Ticks < 0 {
		return fmt.Errorf("tick count must not be negative, got %d", c.Simulation.Ticks)
	}
	r := c.Simulation.Render
	if r.Enabled {
		if r.Width <= 0 || r.Height <= 0 {
			return fmt.Errorf("render size must be positive, got %dx%d", r.Width, r.Height)
		}
		if !(r.Scale > 0) {
			return fmt.Errorf("render scale must be positive, got %v", r.Scale)
		}
		if r.Every < 1 {
			return fmt.Errorf("render interval must be at least 1, got %d", r.Every)
		}
	}
	return nil
}

// isYAML reports whether the path names a YAML document
func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// LoadConfig loads a configuration from a JSON or YAML file. Fields missing
// from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if isYAML(path) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return config, nil
}

// SaveConfig saves a configuration to a file, as YAML when the extension
// says so and as indented JSON otherwise
func SaveConfig(config *Config, path string) error {
	if config == nil {
		return fmt.Errorf("failed to marshal config: config is nil")
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(config)
	} else {
		data, err = json.MarshalIndent(config, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfig returns a default configuration: the default physics world
// ticking at 60 Hz for ten seconds with rendering off
func DefaultConfig() *Config {
	return &Config{
		Physics: physics.DefaultConfig(),
		Simulation: SimulationConfig{
			TickRate: 60,
			Ticks:    600,
			Render: RenderConfig{
				Enabled: false,
				Width:   80,
				Height:  24,
				Scale:   10,
				Every:   60,
			},
		},
	}
}
