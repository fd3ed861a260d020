package timecalc_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ticktick/backend/internal/model"
	"ticktick/backend/internal/policy"
	"ticktick/backend/internal/timecalc"
)

func at(hour, minute int) time.Time {
	return time.Date(2026, 2, 18, hour, minute, 0, 0, time.Local)
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		seconds int
		want    string
	}{
		{0, "00:00:00"},
		{59, "00:00:59"},
		{3661, "01:01:01"},
		{36000, "10:00:00"},
		{90061, "25:01:01"},
		{-3690, "-01:01:30"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, timecalc.FormatDuration(tc.seconds))
	}
}

func TestFormatDurationShort(t *testing.T) {
	assert.Equal(t, "00:00", timecalc.FormatDurationShort(0))
	assert.Equal(t, "10:00", timecalc.FormatDurationShort(36000))
	assert.Equal(t, "08:12", timecalc.FormatDurationShort(29520))
	assert.Equal(t, "-07:42", timecalc.FormatDurationShort(-27720))
}

func TestFormatTime(t *testing.T) {
	assert.Equal(t, "08:05", timecalc.FormatTime(at(8, 5)))
}

func TestPolicyDerivedValues(t *testing.T) {
	p := policy.Default()
	assert.InDelta(t, 492.0, p.DailyRequirementMinutes(), 0.0001)
	assert.Equal(t, 29520, p.DailyRequirementSeconds())
	assert.Equal(t, 36000, p.MaxDailySeconds())
	assert.Equal(t, 147600, p.WeeklyTargetSeconds())
}

func TestPauseSeconds(t *testing.T) {
	end := at(10, 15)
	session := &model.WorkSession{
		StartTime: at(7, 0),
		Pauses: []model.PauseInterval{
			{PauseStart: at(10, 0), PauseEnd: &end},
		},
	}

	assert.Equal(t, 900, timecalc.PauseSeconds(session, at(12, 0)))

	// An open pause keeps growing with asOf.
	session.Pauses = append(session.Pauses, model.PauseInterval{PauseStart: at(12, 0)})
	assert.Equal(t, 900+600, timecalc.PauseSeconds(session, at(12, 10)))
	assert.Equal(t, 900+1200, timecalc.PauseSeconds(session, at(12, 20)))
}

func TestNetWorkSeconds(t *testing.T) {
	p := policy.Default()

	session := &model.WorkSession{StartTime: at(8, 0)}
	assert.Equal(t, 1800, timecalc.NetWorkSeconds(p, session, at(8, 30)))

	// Floored at zero when pauses exceed elapsed time.
	end := at(9, 0)
	session.Pauses = []model.PauseInterval{{PauseStart: at(8, 0), PauseEnd: &end}}
	assert.Equal(t, 0, timecalc.NetWorkSeconds(p, session, at(8, 45)))

	// Capped at the daily maximum: 07:00-18:00 with a 15m pause is 10h45m.
	pauseEnd := at(10, 15)
	sessionEnd := at(18, 0)
	capped := &model.WorkSession{
		StartTime: at(7, 0),
		EndTime:   &sessionEnd,
		Pauses:    []model.PauseInterval{{PauseStart: at(10, 0), PauseEnd: &pauseEnd}},
	}
	assert.Equal(t, 36000, timecalc.NetWorkSeconds(p, capped, sessionEnd))
}

func TestNetWorkSecondsNeverExceedsCap(t *testing.T) {
	p := policy.Default()
	session := &model.WorkSession{StartTime: at(0, 0)}
	for hour := 1; hour < 24; hour++ {
		net := timecalc.NetWorkSeconds(p, session, at(hour, 0))
		assert.GreaterOrEqual(t, net, 0)
		assert.LessOrEqual(t, net, p.MaxDailySeconds())
	}
}

func TestLunchBreakMinutes(t *testing.T) {
	p := policy.Default()
	assert.Equal(t, 0, timecalc.LunchBreakMinutes(p, 359))
	assert.Equal(t, 0, timecalc.LunchBreakMinutes(p, 360))
	assert.Equal(t, 30, timecalc.LunchBreakMinutes(p, 361))
}

func TestLeaveProjections(t *testing.T) {
	p := policy.Default()
	start := at(8, 0)

	assert.Equal(t, "14:00", timecalc.FormatTime(timecalc.EarliestLeave(start, 0)))
	assert.Equal(t, "16:42", timecalc.FormatTime(timecalc.NormalLeave(p, start, 0)))
	assert.Equal(t, "18:30", timecalc.FormatTime(timecalc.LatestLeave(p, start, 0)))
	assert.Equal(t, "14:00", timecalc.FormatTime(timecalc.LunchBreakTime(p, start, 0)))

	// Pauses push every projection out.
	assert.Equal(t, "14:45", timecalc.FormatTime(timecalc.EarliestLeave(start, 45)))
	assert.Equal(t, "17:27", timecalc.FormatTime(timecalc.NormalLeave(p, start, 45)))
}

func TestRemainingAndOvertime(t *testing.T) {
	p := policy.Default()

	assert.Equal(t, 29520, timecalc.RemainingForDaily(p, 0))
	assert.Equal(t, 27720, timecalc.RemainingForDaily(p, 1800))
	assert.Equal(t, 0, timecalc.RemainingForDaily(p, 29520))
	assert.Equal(t, 0, timecalc.RemainingForDaily(p, 40000))

	assert.Equal(t, 480, timecalc.OvertimeSeconds(p, 30000))
	assert.Equal(t, -520, timecalc.OvertimeSeconds(p, 29000))
	assert.Equal(t, 0, timecalc.OvertimeSeconds(p, 29520))
}
