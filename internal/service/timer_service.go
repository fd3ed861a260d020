package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	apperrors "ticktick/backend/internal/errors"
	"ticktick/backend/internal/model"
	"ticktick/backend/internal/policy"
	"ticktick/backend/internal/repository"
	"ticktick/backend/internal/timecalc"
)

// TimerService owns the run/pause/stop lifecycle of the single workday
// timer. Business-rule violations come back as ActionResult with
// Success=false and the authoritative current status; only storage
// failures surface as *apperrors.APIError.
type TimerService struct {
	repo   *repository.TimerRepository
	policy policy.Policy
}

type ActionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

type SessionInfo struct {
	ID                string    `json:"id"`
	StartTime         time.Time `json:"start_time"`
	CurrentTime       time.Time `json:"current_time"`
	NetWorkSeconds    int       `json:"net_work_seconds"`
	NetWorkFormatted  string    `json:"net_work_formatted"`
	PauseCount        int       `json:"pause_count"`
	TotalPauseSeconds int       `json:"total_pause_seconds"`
}

type Calculations struct {
	LunchBreakApplies bool    `json:"lunch_break_applies"`
	LunchBreakAt      *string `json:"lunch_break_at"`
	EarliestLeave     string  `json:"earliest_leave"`
	NormalLeave       string  `json:"normal_leave"`
	LatestLeave       string  `json:"latest_leave"`
	RemainingForDaily string  `json:"remaining_for_daily"`
	OvertimeSeconds   int     `json:"overtime_seconds"`
	OvertimeFormatted string  `json:"overtime_formatted"`
}

type StatusView struct {
	Status       string        `json:"status"`
	Session      *SessionInfo  `json:"session"`
	Calculations *Calculations `json:"calculations"`
	AutoStopped  bool          `json:"auto_stopped"`
}

// UpdateSessionInput carries the user-editable fields of a past session.
// Times are wall-clock HH:MM strings interpreted on the session's date.
type UpdateSessionInput struct {
	StartTime *string
	EndTime   *string
}

func NewTimerService(repo *repository.TimerRepository, pol policy.Policy) *TimerService {
	return &TimerService{repo: repo, policy: pol}
}

// Start creates a new active session and claims the timer state for it.
// The claim is a conditional write: when two starts race, the loser's
// freshly inserted session is rolled back and the winner's status is
// reported back.
func (s *TimerService) Start(ctx context.Context, now time.Time) (*ActionResult, *apperrors.APIError) {
	if _, err := s.repo.GetOrCreateTimerState(ctx); err != nil {
		return nil, apperrors.Internal("failed to load timer state")
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to start transaction")
	}
	defer tx.Rollback()

	session := model.WorkSession{
		ID:        uuid.NewString(),
		Date:      now.Format(model.DateLayout),
		StartTime: now,
		Status:    model.SessionStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.InsertSessionTx(ctx, tx, &session); err != nil {
		return nil, apperrors.Internal("failed to create session")
	}

	claimed, err := s.repo.ClaimActiveSessionTx(ctx, tx, session.ID)
	if err != nil {
		return nil, apperrors.Internal("failed to claim timer state")
	}
	if !claimed {
		// Lost the race. The deferred rollback discards the session row;
		// report the winner's actual status.
		state, stateErr := s.repo.GetTimerStateTx(ctx, tx)
		if stateErr != nil {
			return nil, apperrors.Internal("failed to load timer state")
		}
		return &ActionResult{Success: false, Message: "Timer already running", Status: statusOf(state)}, nil
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.Internal("failed to commit transaction")
	}

	return &ActionResult{Success: true, Message: "Timer started", Status: model.TimerStatusRunning}, nil
}

// Pause opens a new pause interval on the active session.
func (s *TimerService) Pause(ctx context.Context, now time.Time) (*ActionResult, *apperrors.APIError) {
	if _, err := s.repo.GetOrCreateTimerState(ctx); err != nil {
		return nil, apperrors.Internal("failed to load timer state")
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to start transaction")
	}
	defer tx.Rollback()

	state, stateErr := s.repo.GetTimerStateTx(ctx, tx)
	if stateErr != nil {
		return nil, apperrors.Internal("failed to load timer state")
	}
	if state.CurrentSessionID == nil {
		return &ActionResult{Success: false, Message: "No active session", Status: model.TimerStatusIdle}, nil
	}
	if state.IsPaused {
		return &ActionResult{Success: false, Message: "Timer already paused", Status: model.TimerStatusPaused}, nil
	}

	pause := model.PauseInterval{
		ID:         uuid.NewString(),
		SessionID:  *state.CurrentSessionID,
		PauseStart: now,
	}
	if err := s.repo.InsertPauseTx(ctx, tx, &pause); err != nil {
		return nil, apperrors.Internal("failed to create pause")
	}
	if err := s.repo.SetPausedTx(ctx, tx, true); err != nil {
		return nil, apperrors.Internal("failed to update timer state")
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.Internal("failed to commit transaction")
	}

	return &ActionResult{Success: true, Message: "Timer paused", Status: model.TimerStatusPaused}, nil
}

// Continue closes the open pause interval and resumes the session.
func (s *TimerService) Continue(ctx context.Context, now time.Time) (*ActionResult, *apperrors.APIError) {
	if _, err := s.repo.GetOrCreateTimerState(ctx); err != nil {
		return nil, apperrors.Internal("failed to load timer state")
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to start transaction")
	}
	defer tx.Rollback()

	state, stateErr := s.repo.GetTimerStateTx(ctx, tx)
	if stateErr != nil {
		return nil, apperrors.Internal("failed to load timer state")
	}
	if state.CurrentSessionID == nil {
		return &ActionResult{Success: false, Message: "No active session", Status: model.TimerStatusIdle}, nil
	}
	if !state.IsPaused {
		return &ActionResult{Success: false, Message: "Timer not paused", Status: model.TimerStatusRunning}, nil
	}

	openPause, pauseErr := s.repo.FindOpenPauseTx(ctx, tx, *state.CurrentSessionID)
	if pauseErr != nil && pauseErr != repository.ErrNotFound {
		return nil, apperrors.Internal("failed to load open pause")
	}
	if openPause != nil {
		if err := s.repo.ClosePauseTx(ctx, tx, openPause.ID, now); err != nil {
			return nil, apperrors.Internal("failed to close pause")
		}
	}
	if err := s.repo.SetPausedTx(ctx, tx, false); err != nil {
		return nil, apperrors.Internal("failed to update timer state")
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.Internal("failed to commit transaction")
	}

	return &ActionResult{Success: true, Message: "Timer resumed", Status: model.TimerStatusRunning}, nil
}

// Stop completes the active session: any open pause is closed at now, the
// net work time is fixed, and the timer state is released.
func (s *TimerService) Stop(ctx context.Context, now time.Time) (*ActionResult, *apperrors.APIError) {
	if _, err := s.repo.GetOrCreateTimerState(ctx); err != nil {
		return nil, apperrors.Internal("failed to load timer state")
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to start transaction")
	}
	defer tx.Rollback()

	state, stateErr := s.repo.GetTimerStateTx(ctx, tx)
	if stateErr != nil {
		return nil, apperrors.Internal("failed to load timer state")
	}
	if state.CurrentSessionID == nil {
		return &ActionResult{Success: false, Message: "No active session", Status: model.TimerStatusIdle}, nil
	}

	if apiErr := s.completeSessionTx(ctx, tx, *state.CurrentSessionID, now, nil); apiErr != nil {
		return nil, apiErr
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.Internal("failed to commit transaction")
	}

	return &ActionResult{Success: true, Message: "Timer stopped and saved", Status: model.TimerStatusIdle}, nil
}

// Reset discards the active session: it is kept for audit with status
// "reset" and no net seconds, and never counts towards statistics.
func (s *TimerService) Reset(ctx context.Context, now time.Time) (*ActionResult, *apperrors.APIError) {
	if _, err := s.repo.GetOrCreateTimerState(ctx); err != nil {
		return nil, apperrors.Internal("failed to load timer state")
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to start transaction")
	}
	defer tx.Rollback()

	state, stateErr := s.repo.GetTimerStateTx(ctx, tx)
	if stateErr != nil {
		return nil, apperrors.Internal("failed to load timer state")
	}
	if state.CurrentSessionID == nil {
		return &ActionResult{Success: false, Message: "No active session", Status: model.TimerStatusIdle}, nil
	}

	session, sessionErr := s.repo.GetSessionTx(ctx, tx, *state.CurrentSessionID)
	if sessionErr != nil {
		return nil, apperrors.Internal("failed to load session")
	}

	openPause, pauseErr := s.repo.FindOpenPauseTx(ctx, tx, session.ID)
	if pauseErr != nil && pauseErr != repository.ErrNotFound {
		return nil, apperrors.Internal("failed to load open pause")
	}
	if openPause != nil {
		if err := s.repo.ClosePauseTx(ctx, tx, openPause.ID, now); err != nil {
			return nil, apperrors.Internal("failed to close pause")
		}
	}

	session.EndTime = &now
	session.NetSeconds = nil
	session.Status = model.SessionStatusReset
	session.UpdatedAt = now
	if err := s.repo.UpdateSessionTx(ctx, tx, session); err != nil {
		return nil, apperrors.Internal("failed to update session")
	}
	if err := s.repo.ClearActiveSessionTx(ctx, tx); err != nil {
		return nil, apperrors.Internal("failed to clear timer state")
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.Internal("failed to commit transaction")
	}

	return &ActionResult{Success: true, Message: "Timer reset (session discarded)", Status: model.TimerStatusIdle}, nil
}

// Delete removes a past session and its pause intervals. The active
// session cannot be deleted.
func (s *TimerService) Delete(ctx context.Context, sessionID string) (*ActionResult, *apperrors.APIError) {
	state, err := s.repo.GetOrCreateTimerState(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to load timer state")
	}
	if state.CurrentSessionID != nil && *state.CurrentSessionID == sessionID {
		return &ActionResult{Success: false, Message: "Cannot delete the currently active session", Status: statusOf(state)}, nil
	}

	tx, txErr := s.repo.BeginTx(ctx)
	if txErr != nil {
		return nil, apperrors.Internal("failed to start transaction")
	}
	defer tx.Rollback()

	if _, sessionErr := s.repo.GetSessionTx(ctx, tx, sessionID); sessionErr != nil {
		if sessionErr == repository.ErrNotFound {
			return &ActionResult{Success: false, Message: "Session not found", Status: statusOf(state)}, nil
		}
		return nil, apperrors.Internal("failed to load session")
	}

	if err := s.repo.DeleteSessionTx(ctx, tx, sessionID); err != nil {
		return nil, apperrors.Internal("failed to delete session")
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.Internal("failed to commit transaction")
	}

	return &ActionResult{Success: true, Message: "Session deleted", Status: statusOf(state)}, nil
}

// Update edits the start and/or end time of a past session and recomputes
// its net work time. Edits must not cut into recorded pause intervals.
func (s *TimerService) Update(ctx context.Context, sessionID string, input UpdateSessionInput, now time.Time) (*ActionResult, *apperrors.APIError) {
	state, err := s.repo.GetOrCreateTimerState(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to load timer state")
	}
	currentStatus := statusOf(state)

	if state.CurrentSessionID != nil && *state.CurrentSessionID == sessionID {
		return &ActionResult{Success: false, Message: "Cannot edit the currently active session", Status: currentStatus}, nil
	}
	if input.StartTime == nil && input.EndTime == nil {
		return &ActionResult{Success: false, Message: "No changes provided", Status: currentStatus}, nil
	}

	tx, txErr := s.repo.BeginTx(ctx)
	if txErr != nil {
		return nil, apperrors.Internal("failed to start transaction")
	}
	defer tx.Rollback()

	session, sessionErr := s.repo.GetSessionTx(ctx, tx, sessionID)
	if sessionErr != nil {
		if sessionErr == repository.ErrNotFound {
			return &ActionResult{Success: false, Message: "Session not found", Status: currentStatus}, nil
		}
		return nil, apperrors.Internal("failed to load session")
	}

	newStart := session.StartTime
	newEnd := session.EndTime
	if input.StartTime != nil {
		parsed, parseErr := parseClock(session, *input.StartTime)
		if parseErr != nil {
			return &ActionResult{Success: false, Message: "Invalid time format (expected HH:MM)", Status: currentStatus}, nil
		}
		newStart = parsed
	}
	if input.EndTime != nil {
		parsed, parseErr := parseClock(session, *input.EndTime)
		if parseErr != nil {
			return &ActionResult{Success: false, Message: "Invalid time format (expected HH:MM)", Status: currentStatus}, nil
		}
		newEnd = &parsed
	}

	if newEnd != nil && !newStart.Before(*newEnd) {
		return &ActionResult{Success: false, Message: "Start time must precede end time", Status: currentStatus}, nil
	}
	if len(session.Pauses) > 0 {
		if newStart.After(session.Pauses[0].PauseStart) {
			return &ActionResult{Success: false, Message: "Start time must precede the first pause", Status: currentStatus}, nil
		}
		if newEnd != nil {
			if lastEnd := lastClosedPauseEnd(session); lastEnd != nil && newEnd.Before(*lastEnd) {
				return &ActionResult{Success: false, Message: "End time must follow the last pause", Status: currentStatus}, nil
			}
		}
	}

	session.StartTime = newStart
	session.EndTime = newEnd
	if session.Status == model.SessionStatusCompleted {
		net := timecalc.NetWorkSeconds(s.policy, session, now)
		session.NetSeconds = &net
	}
	session.UpdatedAt = now

	if err := s.repo.UpdateSessionTx(ctx, tx, session); err != nil {
		return nil, apperrors.Internal("failed to update session")
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.Internal("failed to commit transaction")
	}

	return &ActionResult{Success: true, Message: "Session updated", Status: currentStatus}, nil
}

// Status reports the live timer with all derived calculations. Reaching
// the daily cap is discovered here: the session is completed in place with
// net seconds pinned to the cap, and the view flags the correction.
func (s *TimerService) Status(ctx context.Context, now time.Time) (*StatusView, *apperrors.APIError) {
	if _, err := s.repo.GetOrCreateTimerState(ctx); err != nil {
		return nil, apperrors.Internal("failed to load timer state")
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to start transaction")
	}
	defer tx.Rollback()

	state, stateErr := s.repo.GetTimerStateTx(ctx, tx)
	if stateErr != nil {
		return nil, apperrors.Internal("failed to load timer state")
	}
	if state.CurrentSessionID == nil {
		return &StatusView{Status: model.TimerStatusIdle}, nil
	}

	session, sessionErr := s.repo.GetSessionTx(ctx, tx, *state.CurrentSessionID)
	if sessionErr != nil {
		return nil, apperrors.Internal("failed to load session")
	}

	netSeconds := timecalc.NetWorkSeconds(s.policy, session, now)
	if netSeconds >= s.policy.MaxDailySeconds() {
		capSeconds := s.policy.MaxDailySeconds()
		if apiErr := s.completeSessionTx(ctx, tx, session.ID, now, &capSeconds); apiErr != nil {
			return nil, apiErr
		}
		if err := tx.Commit(); err != nil {
			return nil, apperrors.Internal("failed to commit transaction")
		}
		return &StatusView{Status: model.TimerStatusIdle, AutoStopped: true}, nil
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.Internal("failed to commit transaction")
	}

	status := model.TimerStatusRunning
	if state.IsPaused {
		status = model.TimerStatusPaused
	}

	pauseSeconds := timecalc.PauseSeconds(session, now)
	pauseMinutes := pauseSeconds / 60

	info := SessionInfo{
		ID:                session.ID,
		StartTime:         session.StartTime,
		CurrentTime:       now,
		NetWorkSeconds:    netSeconds,
		NetWorkFormatted:  timecalc.FormatDuration(netSeconds),
		PauseCount:        len(session.Pauses),
		TotalPauseSeconds: pauseSeconds,
	}

	lunchApplies := timecalc.LunchBreakMinutes(s.policy, float64(netSeconds)/60) > 0
	overtime := timecalc.OvertimeSeconds(s.policy, netSeconds)

	calc := Calculations{
		LunchBreakApplies: lunchApplies,
		EarliestLeave:     timecalc.FormatTime(timecalc.EarliestLeave(session.StartTime, pauseMinutes)),
		NormalLeave:       timecalc.FormatTime(timecalc.NormalLeave(s.policy, session.StartTime, pauseMinutes)),
		LatestLeave:       timecalc.FormatTime(timecalc.LatestLeave(s.policy, session.StartTime, pauseMinutes)),
		RemainingForDaily: timecalc.FormatDuration(timecalc.RemainingForDaily(s.policy, netSeconds)),
		OvertimeSeconds:   overtime,
		OvertimeFormatted: timecalc.FormatDuration(overtime),
	}
	if !lunchApplies {
		lunchAt := timecalc.FormatTime(timecalc.LunchBreakTime(s.policy, session.StartTime, pauseMinutes))
		calc.LunchBreakAt = &lunchAt
	}

	return &StatusView{Status: status, Session: &info, Calculations: &calc}, nil
}

// completeSessionTx closes any open pause, fixes the session's net work
// time (forced to forcedNet when given), marks it completed, and releases
// the timer state. Caller owns the transaction.
func (s *TimerService) completeSessionTx(ctx context.Context, tx *sql.Tx, sessionID string, now time.Time, forcedNet *int) *apperrors.APIError {
	session, err := s.repo.GetSessionTx(ctx, tx, sessionID)
	if err != nil {
		return apperrors.Internal("failed to load session")
	}

	openPause, pauseErr := s.repo.FindOpenPauseTx(ctx, tx, session.ID)
	if pauseErr != nil && pauseErr != repository.ErrNotFound {
		return apperrors.Internal("failed to load open pause")
	}
	if openPause != nil {
		if err := s.repo.ClosePauseTx(ctx, tx, openPause.ID, now); err != nil {
			return apperrors.Internal("failed to close pause")
		}
		for i := range session.Pauses {
			if session.Pauses[i].ID == openPause.ID {
				end := now
				session.Pauses[i].PauseEnd = &end
			}
		}
	}

	session.EndTime = &now
	net := timecalc.NetWorkSeconds(s.policy, session, now)
	if forcedNet != nil {
		net = *forcedNet
	}
	session.NetSeconds = &net
	session.Status = model.SessionStatusCompleted
	session.UpdatedAt = now

	if err := s.repo.UpdateSessionTx(ctx, tx, session); err != nil {
		return apperrors.Internal("failed to update session")
	}
	if err := s.repo.ClearActiveSessionTx(ctx, tx); err != nil {
		return apperrors.Internal("failed to clear timer state")
	}
	return nil
}

func statusOf(state *model.TimerState) string {
	if state.CurrentSessionID == nil {
		return model.TimerStatusIdle
	}
	if state.IsPaused {
		return model.TimerStatusPaused
	}
	return model.TimerStatusRunning
}

func lastClosedPauseEnd(session *model.WorkSession) *time.Time {
	var last *time.Time
	for i := range session.Pauses {
		end := session.Pauses[i].PauseEnd
		if end != nil && (last == nil || end.After(*last)) {
			last = end
		}
	}
	return last
}

// parseClock interprets an HH:MM wall-clock string on the session's
// calendar date.
func parseClock(session *model.WorkSession, value string) (time.Time, error) {
	return time.ParseInLocation(model.DateLayout+" 15:04", session.Date+" "+value, time.Local)
}
