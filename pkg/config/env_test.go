package config

import (
	"testing"

	"github.com/opd-ai/go-physics2d/pkg/physics"
)

var envVars = []string{
	EnvGravityX,
	EnvGravityY,
	EnvCollisionPasses,
	EnvBroadPhase,
	EnvResolution,
	EnvIntegrationSteps,
	EnvEnabled,
	EnvTickRate,
	EnvTicks,
}

// clearEnv blanks every override; t.Setenv restores the originals
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envVars {
		t.Setenv(key, "")
	}
}

func TestApplyEnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvGravityX, "1.5")
	t.Setenv(EnvGravityY, "-98")
	t.Setenv(EnvCollisionPasses, "8")
	t.Setenv(EnvBroadPhase, "naive")
	t.Setenv(EnvResolution, "RigidBody")
	t.Setenv(EnvIntegrationSteps, "4")
	t.Setenv(EnvEnabled, "false")
	t.Setenv(EnvTickRate, "120")
	t.Setenv(EnvTicks, "10")

	config := DefaultConfig()
	if err := ApplyEnvironmentOverrides(config); err != nil {
		t.Fatalf("ApplyEnvironmentOverrides failed: %v", err)
	}

	p := config.Physics
	if p.Gravity != physics.Vec(1.5, -98) {
		t.Errorf("Expected gravity (1.5, -98), got %v", p.Gravity)
	}
	if p.CollisionPasses != 8 || p.IntegrationSteps != 4 {
		t.Errorf("Expected passes 8 and steps 4, got %d and %d", p.CollisionPasses, p.IntegrationSteps)
	}
	if p.BroadPhase != physics.BroadPhaseNaive || p.Resolution != physics.ResolutionRigidBody {
		t.Errorf("Expected naive/rigidbody, got %v/%v", p.BroadPhase, p.Resolution)
	}
	if p.Enabled {
		t.Error("Expected Enabled false")
	}
	if config.Simulation.TickRate != 120 || config.Simulation.Ticks != 10 {
		t.Errorf("Expected tick rate 120 and 10 ticks, got %d and %d", config.Simulation.TickRate, config.Simulation.Ticks)
	}
}

func TestApplyEnvironmentOverrides_Unset(t *testing.T) {
	clearEnv(t)

	config := DefaultConfig()
	if err := ApplyEnvironmentOverrides(config); err != nil {
		t.Fatalf("ApplyEnvironmentOverrides failed: %v", err)
	}
	if *config != *DefaultConfig() {
		t.Errorf("Expected defaults unchanged, got %+v", config)
	}
}

func TestApplyEnvironmentOverrides_Errors(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown_broad_phase", EnvBroadPhase, "octree"},
		{"unknown_resolution", EnvResolution, "verlet"},
		{"invalid_result", EnvIntegrationSteps, "0"},
		{"negative_tick_rate", EnvTickRate, "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			if err := ApplyEnvironmentOverrides(DefaultConfig()); err == nil {
				t.Errorf("Expected error for %s=%q", tt.key, tt.value)
			}
		})
	}

	if err := ApplyEnvironmentOverrides(nil); err == nil {
		t.Error("Expected error for nil config")
	}
}

func TestGetEnvHelperFunctions(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	if result := getEnvAsIntOrDefault("TEST_INT", 10); result != 42 {
		t.Errorf("getEnvAsIntOrDefault: expected 42, got %d", result)
	}
	if result := getEnvAsIntOrDefault("PHYSICS2D_NONEXISTENT", 10); result != 10 {
		t.Errorf("getEnvAsIntOrDefault: expected 10, got %d", result)
	}
	t.Setenv("TEST_INT", "invalid")
	if result := getEnvAsIntOrDefault("TEST_INT", 10); result != 10 {
		t.Errorf("getEnvAsIntOrDefault with invalid value: expected 10, got %d", result)
	}

	t.Setenv("TEST_BOOL", "true")
	if result := getEnvAsBoolOrDefault("TEST_BOOL", false); result != true {
		t.Errorf("getEnvAsBoolOrDefault: expected true, got %v", result)
	}
	t.Setenv("TEST_BOOL", "invalid")
	if result := getEnvAsBoolOrDefault("TEST_BOOL", false); result != false {
		t.Errorf("getEnvAsBoolOrDefault with invalid value: expected false, got %v", result)
	}

	t.Setenv("TEST_FLOAT", "3.14")
	if result := getEnvAsFloatOrDefault("TEST_FLOAT", 1.0); result != 3.14 {
		t.Errorf("getEnvAsFloatOrDefault: expected 3.14, got %f", result)
	}
	t.Setenv("TEST_FLOAT", "invalid")
	if result := getEnvAsFloatOrDefault("TEST_FLOAT", 1.0); result != 1.0 {
		t.Errorf("getEnvAsFloatOrDefault with invalid value: expected 1.0, got %f", result)
	}
}
