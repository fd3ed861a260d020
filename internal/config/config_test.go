package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ticktick/backend/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg := config.Load()

	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, "./data/ticktick.db", cfg.DBPath)
	assert.Equal(t, "./migrations", cfg.MigrationsDir)

	assert.InDelta(t, 41.0, cfg.Policy.WeeklyTargetHours, 0.0001)
	assert.InDelta(t, 10.0, cfg.Policy.MaxDailyHours, 0.0001)
	assert.InDelta(t, 6.0, cfg.Policy.LunchThresholdHours, 0.0001)
	assert.Equal(t, 30, cfg.Policy.LunchDurationMinutes)
	assert.Equal(t, 5, cfg.Policy.WorkdaysPerWeek)
	assert.Equal(t, 36000, cfg.Policy.MaxDailySeconds())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("TICKTICK_PORT", "9100")
	t.Setenv("TICKTICK_WEEKLY_HOURS", "40")
	t.Setenv("TICKTICK_MAX_DAILY_HOURS", "9")
	t.Setenv("TICKTICK_LUNCH_DURATION", "45")

	cfg := config.Load()

	assert.Equal(t, "9100", cfg.Port)
	assert.InDelta(t, 40.0, cfg.Policy.WeeklyTargetHours, 0.0001)
	assert.Equal(t, 32400, cfg.Policy.MaxDailySeconds())
	assert.Equal(t, 45, cfg.Policy.LunchDurationMinutes)
	assert.Equal(t, 28800, cfg.Policy.DailyRequirementSeconds())
}
