package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, ":8080", cfg.Port)
	assert.False(t, cfg.Monitor.LowFlow.Enabled)
	assert.Equal(t, []string{"Away"}, cfg.Monitor.Intelligent.AwayStates)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", ":9090")
	t.Setenv("LOW_FLOW_ENABLED", "true")
	t.Setenv("LOW_FLOW_MIN_S", "120")
	t.Setenv("INTELLIGENT_SENSITIVITY", "75")
	t.Setenv("OCCUPANCY_AWAY_STATES", "Away, Extended Away")

	cfg := Load()

	assert.Equal(t, ":9090", cfg.Port)
	assert.True(t, cfg.Monitor.LowFlow.Enabled)
	assert.Equal(t, 120, cfg.Monitor.LowFlow.MinS)
	assert.Equal(t, 75.0, cfg.Monitor.Intelligent.Sensitivity)
	assert.Equal(t, []string{"Away", "Extended Away"}, cfg.Monitor.Intelligent.AwayStates)
}

func TestLoadIgnoresMalformedEnv(t *testing.T) {
	t.Setenv("LOW_FLOW_ENABLED", "maybe")
	t.Setenv("LOW_FLOW_MIN_S", "soon")

	cfg := Load()

	assert.False(t, cfg.Monitor.LowFlow.Enabled)
	assert.Equal(t, 300, cfg.Monitor.LowFlow.MinS)
}
