// Package policy holds the immutable work-time rules the engine and all
// projections are derived from. A Policy is resolved once at startup and
// never mutated afterwards.
package policy

type Policy struct {
	WeeklyTargetHours    float64
	MaxDailyHours        float64
	LunchThresholdHours  float64
	LunchDurationMinutes int
	WorkdaysPerWeek      int
}

func Default() Policy {
	return Policy{
		WeeklyTargetHours:    41,
		MaxDailyHours:        10,
		LunchThresholdHours:  6,
		LunchDurationMinutes: 30,
		WorkdaysPerWeek:      5,
	}
}

// DailyRequirementMinutes is the per-workday share of the weekly target
// (41h / 5 = 8h12m = 492 minutes with the defaults).
func (p Policy) DailyRequirementMinutes() float64 {
	return p.WeeklyTargetHours * 60 / float64(p.WorkdaysPerWeek)
}

func (p Policy) DailyRequirementSeconds() int {
	return int(p.WeeklyTargetHours * 3600 / float64(p.WorkdaysPerWeek))
}

func (p Policy) WeeklyTargetSeconds() int {
	return int(p.WeeklyTargetHours * 3600)
}

// MaxDailySeconds is the hard ceiling on net work time per session.
func (p Policy) MaxDailySeconds() int {
	return int(p.MaxDailyHours * 3600)
}
