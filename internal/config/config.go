package config

import (
	"github.com/spf13/viper"

	"ticktick/backend/internal/policy"
)

type Config struct {
	Port          string
	DBPath        string
	MigrationsDir string
	CORSOrigins   []string
	Policy        policy.Policy
}

// Load resolves settings from TICKTICK_* environment variables with the
// documented defaults. The policy knobs are read once here; the rest of
// the process treats the resulting Policy as immutable.
func Load() Config {
	v := viper.New()
	v.SetEnvPrefix("ticktick")
	v.AutomaticEnv()

	v.SetDefault("port", "8000")
	v.SetDefault("db_path", "./data/ticktick.db")
	v.SetDefault("migrations_dir", "./migrations")
	v.SetDefault("cors_origins", []string{"http://localhost:5173", "http://127.0.0.1:5173"})
	v.SetDefault("weekly_hours", 41.0)
	v.SetDefault("max_daily_hours", 10.0)
	v.SetDefault("lunch_threshold", 6.0)
	v.SetDefault("lunch_duration", 30)

	pol := policy.Default()
	pol.WeeklyTargetHours = v.GetFloat64("weekly_hours")
	pol.MaxDailyHours = v.GetFloat64("max_daily_hours")
	pol.LunchThresholdHours = v.GetFloat64("lunch_threshold")
	pol.LunchDurationMinutes = v.GetInt("lunch_duration")

	return Config{
		Port:          v.GetString("port"),
		DBPath:        v.GetString("db_path"),
		MigrationsDir: v.GetString("migrations_dir"),
		CORSOrigins:   v.GetStringSlice("cors_origins"),
		Policy:        pol,
	}
}
