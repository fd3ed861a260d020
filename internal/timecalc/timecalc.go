// Package timecalc contains the pure time-accounting arithmetic: pause
// totals, net work time, leave-time projections and duration formatting.
// Every function takes its reference instant explicitly so results are
// deterministic under test.
package timecalc

import (
	"fmt"
	"time"

	"ticktick/backend/internal/model"
	"ticktick/backend/internal/policy"
)

// MinWorkHours is the minimum attendance before leaving is possible at all.
// It sits exactly at the lunch threshold, so no lunch deduction applies yet.
const MinWorkHours = 6

// FormatDuration renders seconds as HH:MM:SS. Negative inputs keep a
// leading minus; hours are not wrapped at 24.
func FormatDuration(seconds int) string {
	sign := ""
	if seconds < 0 {
		sign = "-"
		seconds = -seconds
	}
	hours := seconds / 3600
	minutes := seconds % 3600 / 60
	secs := seconds % 60
	return fmt.Sprintf("%s%02d:%02d:%02d", sign, hours, minutes, secs)
}

// FormatDurationShort renders seconds as HH:MM.
func FormatDurationShort(seconds int) string {
	sign := ""
	if seconds < 0 {
		sign = "-"
		seconds = -seconds
	}
	return fmt.Sprintf("%s%02d:%02d", sign, seconds/3600, seconds%3600/60)
}

// FormatTime renders a wall-clock instant as HH:MM.
func FormatTime(t time.Time) string {
	return t.Format("15:04")
}

// PauseSeconds sums the session's pause intervals up to asOf. An interval
// without an end is still open and measured against asOf.
func PauseSeconds(session *model.WorkSession, asOf time.Time) int {
	total := 0
	for _, pause := range session.Pauses {
		end := asOf
		if pause.PauseEnd != nil {
			end = *pause.PauseEnd
		}
		total += int(end.Sub(pause.PauseStart).Seconds())
	}
	return total
}

// NetWorkSeconds is elapsed time minus pauses, floored at zero and capped
// at the policy's daily maximum.
func NetWorkSeconds(p policy.Policy, session *model.WorkSession, asOf time.Time) int {
	end := asOf
	if session.EndTime != nil {
		end = *session.EndTime
	}
	net := int(end.Sub(session.StartTime).Seconds()) - PauseSeconds(session, asOf)
	if net < 0 {
		return 0
	}
	if capSeconds := p.MaxDailySeconds(); net > capSeconds {
		return capSeconds
	}
	return net
}

// LunchBreakMinutes returns the lunch deduction once the worked minutes
// exceed the threshold, zero before that.
func LunchBreakMinutes(p policy.Policy, workMinutes float64) int {
	if workMinutes > p.LunchThresholdHours*60 {
		return p.LunchDurationMinutes
	}
	return 0
}

// EarliestLeave is start + the 6h minimum + accumulated pauses.
func EarliestLeave(start time.Time, pauseMinutes int) time.Time {
	return start.Add(time.Duration(MinWorkHours*60+pauseMinutes) * time.Minute)
}

// NormalLeave is start + daily requirement + pauses + lunch. The daily
// requirement always exceeds the lunch threshold, so lunch always applies.
func NormalLeave(p policy.Policy, start time.Time, pauseMinutes int) time.Time {
	totalMinutes := p.DailyRequirementMinutes() + float64(pauseMinutes) + float64(p.LunchDurationMinutes)
	return start.Add(time.Duration(totalMinutes * float64(time.Minute)))
}

// LatestLeave is start + the daily cap + pauses + lunch.
func LatestLeave(p policy.Policy, start time.Time, pauseMinutes int) time.Time {
	totalMinutes := p.MaxDailyHours*60 + float64(pauseMinutes) + float64(p.LunchDurationMinutes)
	return start.Add(time.Duration(totalMinutes * float64(time.Minute)))
}

// LunchBreakTime is the instant the lunch deduction starts applying. Only
// meaningful while the threshold has not been crossed yet.
func LunchBreakTime(p policy.Policy, start time.Time, pauseMinutes int) time.Time {
	totalMinutes := p.LunchThresholdHours*60 + float64(pauseMinutes)
	return start.Add(time.Duration(totalMinutes * float64(time.Minute)))
}

// RemainingForDaily is the time still missing to the daily requirement.
func RemainingForDaily(p policy.Policy, netSeconds int) int {
	remaining := p.DailyRequirementSeconds() - netSeconds
	if remaining < 0 {
		return 0
	}
	return remaining
}

// OvertimeSeconds is net work minus the daily requirement; negative means
// undertime.
func OvertimeSeconds(p policy.Policy, netSeconds int) int {
	return netSeconds - p.DailyRequirementSeconds()
}
