package service

import (
	"context"
	"time"

	apperrors "ticktick/backend/internal/errors"
	"ticktick/backend/internal/model"
	"ticktick/backend/internal/policy"
	"ticktick/backend/internal/repository"
	"ticktick/backend/internal/timecalc"
)

const recentSessionLimit = 10

// StatisticsService builds read-only projections over completed sessions.
// It reuses the same arithmetic as the live timer; reset sessions never
// appear here.
type StatisticsService struct {
	repo   *repository.TimerRepository
	policy policy.Policy
}

type WeekSummary struct {
	TotalSeconds       int     `json:"total_seconds"`
	TotalFormatted     string  `json:"total_formatted"`
	TargetSeconds      int     `json:"target_seconds"`
	TargetFormatted    string  `json:"target_formatted"`
	DaysWorked         int     `json:"days_worked"`
	AvgPerDayFormatted string  `json:"avg_per_day_formatted"`
	OvertimeSeconds    int     `json:"overtime_seconds"`
	OvertimeFormatted  string  `json:"overtime_formatted"`
	AverageStartTime   *string `json:"average_start_time"`
	AverageEndTime     *string `json:"average_end_time"`
}

type MonthSummary struct {
	TotalSeconds       int     `json:"total_seconds"`
	TotalFormatted     string  `json:"total_formatted"`
	DaysWorked         int     `json:"days_worked"`
	AvgPerDayFormatted string  `json:"avg_per_day_formatted"`
	OvertimeSeconds    int     `json:"overtime_seconds"`
	OvertimeFormatted  string  `json:"overtime_formatted"`
	AverageStartTime   *string `json:"average_start_time"`
	AverageEndTime     *string `json:"average_end_time"`
}

type SessionSummary struct {
	ID                string  `json:"id"`
	Date              string  `json:"date"`
	StartTime         string  `json:"start_time"`
	EndTime           *string `json:"end_time"`
	NetWorkFormatted  string  `json:"net_work_formatted"`
	OvertimeSeconds   int     `json:"overtime_seconds"`
	OvertimeFormatted string  `json:"overtime_formatted"`
	Status            string  `json:"status"`
}

type StatisticsView struct {
	ThisWeek       WeekSummary      `json:"this_week"`
	ThisMonth      MonthSummary     `json:"this_month"`
	RecentSessions []SessionSummary `json:"recent_sessions"`
}

type PauseIntervalInfo struct {
	ID                string  `json:"id"`
	PauseStart        string  `json:"pause_start"`
	PauseEnd          *string `json:"pause_end"`
	DurationFormatted string  `json:"duration_formatted"`
}

type SessionDetailView struct {
	ID                  string              `json:"id"`
	Date                string              `json:"date"`
	StartTime           string              `json:"start_time"`
	EndTime             *string             `json:"end_time"`
	NetWorkFormatted    string              `json:"net_work_formatted"`
	GrossWorkFormatted  string              `json:"gross_work_formatted"`
	TotalPauseFormatted string              `json:"total_pause_formatted"`
	OvertimeSeconds     int                 `json:"overtime_seconds"`
	OvertimeFormatted   string              `json:"overtime_formatted"`
	Status              string              `json:"status"`
	PauseCount          int                 `json:"pause_count"`
	Pauses              []PauseIntervalInfo `json:"pauses"`
}

func NewStatisticsService(repo *repository.TimerRepository, pol policy.Policy) *StatisticsService {
	return &StatisticsService{repo: repo, policy: pol}
}

// Summary aggregates the current week (Monday-based) and calendar month.
// Sessions dated after today are ignored by the aggregates.
func (s *StatisticsService) Summary(ctx context.Context, now time.Time) (*StatisticsView, *apperrors.APIError) {
	today := now.Format(model.DateLayout)
	weekStart := now.AddDate(0, 0, -((int(now.Weekday()) + 6) % 7)).Format(model.DateLayout)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).Format(model.DateLayout)

	weekSessions, err := s.repo.ListCompletedBetween(ctx, weekStart, today)
	if err != nil {
		return nil, apperrors.Internal("failed to load week sessions")
	}
	monthSessions, err := s.repo.ListCompletedBetween(ctx, monthStart, today)
	if err != nil {
		return nil, apperrors.Internal("failed to load month sessions")
	}
	recent, err := s.repo.ListRecentCompleted(ctx, recentSessionLimit)
	if err != nil {
		return nil, apperrors.Internal("failed to load recent sessions")
	}

	weekTotal, weekDays := sumSessions(weekSessions)
	weekTarget := s.policy.WeeklyTargetSeconds()
	weekOvertime := weekTotal - weekTarget
	weekAvgStart, weekAvgEnd := averageTimes(weekSessions)

	monthTotal, monthDays := sumSessions(monthSessions)
	monthTarget := monthDays * s.policy.DailyRequirementSeconds()
	monthOvertime := monthTotal - monthTarget
	monthAvgStart, monthAvgEnd := averageTimes(monthSessions)

	view := StatisticsView{
		ThisWeek: WeekSummary{
			TotalSeconds:       weekTotal,
			TotalFormatted:     timecalc.FormatDuration(weekTotal),
			TargetSeconds:      weekTarget,
			TargetFormatted:    timecalc.FormatDuration(weekTarget),
			DaysWorked:         weekDays,
			AvgPerDayFormatted: timecalc.FormatDuration(averagePerDay(weekTotal, weekDays)),
			OvertimeSeconds:    weekOvertime,
			OvertimeFormatted:  timecalc.FormatDuration(weekOvertime),
			AverageStartTime:   weekAvgStart,
			AverageEndTime:     weekAvgEnd,
		},
		ThisMonth: MonthSummary{
			TotalSeconds:       monthTotal,
			TotalFormatted:     timecalc.FormatDuration(monthTotal),
			DaysWorked:         monthDays,
			AvgPerDayFormatted: timecalc.FormatDuration(averagePerDay(monthTotal, monthDays)),
			OvertimeSeconds:    monthOvertime,
			OvertimeFormatted:  timecalc.FormatDuration(monthOvertime),
			AverageStartTime:   monthAvgStart,
			AverageEndTime:     monthAvgEnd,
		},
		RecentSessions: make([]SessionSummary, 0, len(recent)),
	}

	for _, session := range recent {
		netSeconds := 0
		if session.NetSeconds != nil {
			netSeconds = *session.NetSeconds
		}
		overtime := timecalc.OvertimeSeconds(s.policy, netSeconds)

		summary := SessionSummary{
			ID:                session.ID,
			Date:              session.Date,
			StartTime:         timecalc.FormatTime(session.StartTime),
			NetWorkFormatted:  timecalc.FormatDurationShort(netSeconds),
			OvertimeSeconds:   overtime,
			OvertimeFormatted: timecalc.FormatDurationShort(overtime),
			Status:            session.Status,
		}
		if session.EndTime != nil {
			end := timecalc.FormatTime(*session.EndTime)
			summary.EndTime = &end
		}
		view.RecentSessions = append(view.RecentSessions, summary)
	}

	return &view, nil
}

// SessionDetail reports one session with its full pause list. A session
// still missing an end time is measured against now.
func (s *StatisticsService) SessionDetail(ctx context.Context, sessionID string, now time.Time) (*SessionDetailView, *apperrors.APIError) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to start transaction")
	}
	defer tx.Rollback()

	session, sessionErr := s.repo.GetSessionTx(ctx, tx, sessionID)
	if sessionErr != nil {
		if sessionErr == repository.ErrNotFound {
			return nil, apperrors.NotFound("session_not_found", "Session not found")
		}
		return nil, apperrors.Internal("failed to load session")
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.Internal("failed to commit transaction")
	}

	netSeconds := 0
	if session.NetSeconds != nil {
		netSeconds = *session.NetSeconds
	}

	end := now
	if session.EndTime != nil {
		end = *session.EndTime
	}
	grossSeconds := int(end.Sub(session.StartTime).Seconds())
	pauseSeconds := timecalc.PauseSeconds(session, now)
	overtime := timecalc.OvertimeSeconds(s.policy, netSeconds)

	view := SessionDetailView{
		ID:                  session.ID,
		Date:                session.Date,
		StartTime:           timecalc.FormatTime(session.StartTime),
		NetWorkFormatted:    timecalc.FormatDurationShort(netSeconds),
		GrossWorkFormatted:  timecalc.FormatDurationShort(grossSeconds),
		TotalPauseFormatted: timecalc.FormatDurationShort(pauseSeconds),
		OvertimeSeconds:     overtime,
		OvertimeFormatted:   timecalc.FormatDurationShort(overtime),
		Status:              session.Status,
		PauseCount:          len(session.Pauses),
		Pauses:              make([]PauseIntervalInfo, 0, len(session.Pauses)),
	}
	if session.EndTime != nil {
		formatted := timecalc.FormatTime(*session.EndTime)
		view.EndTime = &formatted
	}

	for _, pause := range session.Pauses {
		pauseEnd := now
		if pause.PauseEnd != nil {
			pauseEnd = *pause.PauseEnd
		}
		info := PauseIntervalInfo{
			ID:                pause.ID,
			PauseStart:        timecalc.FormatTime(pause.PauseStart),
			DurationFormatted: timecalc.FormatDurationShort(int(pauseEnd.Sub(pause.PauseStart).Seconds())),
		}
		if pause.PauseEnd != nil {
			formatted := timecalc.FormatTime(*pause.PauseEnd)
			info.PauseEnd = &formatted
		}
		view.Pauses = append(view.Pauses, info)
	}

	return &view, nil
}

func sumSessions(sessions []model.WorkSession) (totalSeconds, daysWorked int) {
	days := make(map[string]struct{}, len(sessions))
	for _, session := range sessions {
		if session.NetSeconds != nil {
			totalSeconds += *session.NetSeconds
		}
		days[session.Date] = struct{}{}
	}
	return totalSeconds, len(days)
}

func averagePerDay(totalSeconds, daysWorked int) int {
	if daysWorked == 0 {
		return 0
	}
	return totalSeconds / daysWorked
}

// averageTimes computes mean start and end wall-clock times as seconds
// since midnight. Sessions without an end time are skipped for the end
// average.
func averageTimes(sessions []model.WorkSession) (*string, *string) {
	var startTotal, startCount, endTotal, endCount int
	for _, session := range sessions {
		startTotal += secondsSinceMidnight(session.StartTime)
		startCount++
		if session.EndTime != nil {
			endTotal += secondsSinceMidnight(*session.EndTime)
			endCount++
		}
	}

	var avgStart, avgEnd *string
	if startCount > 0 {
		formatted := timecalc.FormatDurationShort(startTotal / startCount)
		avgStart = &formatted
	}
	if endCount > 0 {
		formatted := timecalc.FormatDurationShort(endTotal / endCount)
		avgEnd = &formatted
	}
	return avgStart, avgEnd
}

func secondsSinceMidnight(t time.Time) int {
	return t.Hour()*3600 + t.Minute()*60 + t.Second()
}
