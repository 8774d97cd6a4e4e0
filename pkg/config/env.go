// pkg/config/env.go
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/opd-ai/go-physics2d/pkg/physics"
)

// Environment variables read by ApplyEnvironmentOverrides
const (
	EnvGravityX         = "PHYSICS2D_GRAVITY_X"
	EnvGravityY         = "PHYSICS2D_GRAVITY_Y"
	EnvCollisionPasses  = "PHYSICS2D_COLLISION_PASSES"
	EnvBroadPhase       = "PHYSICS2D_BROADPHASE"
	EnvResolution       = "PHYSICS2D_RESOLUTION"
	EnvIntegrationSteps = "PHYSICS2D_INTEGRATION_STEPS"
	EnvEnabled          = "PHYSICS2D_ENABLED"
	EnvTickRate         = "PHYSICS2D_TICK_RATE"
	EnvTicks            = "PHYSICS2D_TICKS"
)

// ApplyEnvironmentOverrides replaces configuration values with the ones set
// in the environment. Malformed numbers keep the file value; unknown
// strategy names are an error. The result is validated.
func ApplyEnvironmentOverrides(config *Config) error {
	if config == nil {
		return fmt.Errorf("config is nil")
	}

	p := &config.Physics
	p.Gravity.X = getEnvAsFloatOrDefault(EnvGravityX, p.Gravity.X)
	p.Gravity.Y = getEnvAsFloatOrDefault(EnvGravityY, p.Gravity.Y)
	p.CollisionPasses = getEnvAsIntOrDefault(EnvCollisionPasses, p.CollisionPasses)
	p.IntegrationSteps = getEnvAsIntOrDefault(EnvIntegrationSteps, p.IntegrationSteps)
	p.Enabled = getEnvAsBoolOrDefault(EnvEnabled, p.Enabled)

	if v := os.Getenv(EnvBroadPhase); v != "" {
		s, err := physics.ParseBroadPhase(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvBroadPhase, err)
		}
		p.BroadPhase = s
	}
	if v := os.Getenv(EnvResolution); v != "" {
		s, err := physics.ParseResolution(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvResolution, err)
		}
		p.Resolution = s
	}

	config.Simulation.TickRate = getEnvAsIntOrDefault(EnvTickRate, config.Simulation.TickRate)
	config.Simulation.Ticks = getEnvAsIntOrDefault(EnvTicks, config.Simulation.Ticks)

	if err := config.Validate(); err != nil {
		return fmt.Errorf("environment overrides: %w", err)
	}
	return nil
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	if value, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}
