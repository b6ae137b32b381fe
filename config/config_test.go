package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 10, cfg.OutbreakThreshold)
	assert.Equal(t, 24, cfg.OutbreakWindowHours)
	assert.Equal(t, 3, cfg.EmergencyClusterThreshold)
	assert.Equal(t, 24, cfg.EmergencyWindowHours)
	assert.Equal(t, 7, cfg.MonitoringAfterDays)
	assert.Equal(t, 30, cfg.ArchiveAfterDays)
}

func TestLoadOverridesFromEnv(t *testing.T) {
	t.Setenv("OUTBREAK_COUNT", "5")
	t.Setenv("EMERGENCY_WINDOW_HOURS", "48")

	cfg := Load()

	assert.Equal(t, 5, cfg.OutbreakThreshold)
	assert.Equal(t, 48, cfg.EmergencyWindowHours)
}

func TestLoadIgnoresMalformedEnv(t *testing.T) {
	t.Setenv("OUTBREAK_COUNT", "lots")

	cfg := Load()

	assert.Equal(t, 10, cfg.OutbreakThreshold)
}
