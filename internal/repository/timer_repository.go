package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ticktick/backend/internal/model"
)

type TimerRepository struct {
	db *sql.DB
}

func NewTimerRepository(db *sql.DB) *TimerRepository {
	return &TimerRepository{db: db}
}

func (r *TimerRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return tx, nil
}

// GetOrCreateTimerState returns the singleton timer_state row, seeding the
// default idle row if the migration seed is missing.
func (r *TimerRepository) GetOrCreateTimerState(ctx context.Context) (*model.TimerState, error) {
	if _, err := r.db.ExecContext(
		ctx,
		`INSERT OR IGNORE INTO timer_state (id, current_session_id, is_running, is_paused)
		 VALUES (?, NULL, 0, 0)`,
		model.TimerStateID,
	); err != nil {
		return nil, fmt.Errorf("seed timer state: %w", err)
	}

	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, current_session_id, is_running, is_paused FROM timer_state WHERE id = ?`,
		model.TimerStateID,
	)
	return scanTimerState(row)
}

func (r *TimerRepository) GetTimerStateTx(ctx context.Context, tx *sql.Tx) (*model.TimerState, error) {
	row := tx.QueryRowContext(
		ctx,
		`SELECT id, current_session_id, is_running, is_paused FROM timer_state WHERE id = ?`,
		model.TimerStateID,
	)
	return scanTimerState(row)
}

// ClaimActiveSessionTx is the compare-and-set behind start: it succeeds only
// if no session is referenced at write time. The returned bool reports
// whether this caller won the claim.
func (r *TimerRepository) ClaimActiveSessionTx(ctx context.Context, tx *sql.Tx, sessionID string) (bool, error) {
	result, err := tx.ExecContext(
		ctx,
		`UPDATE timer_state
		 SET current_session_id = ?, is_running = 1, is_paused = 0
		 WHERE id = ? AND current_session_id IS NULL`,
		sessionID,
		model.TimerStateID,
	)
	if err != nil {
		return false, fmt.Errorf("claim active session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim active session rows: %w", err)
	}
	return affected > 0, nil
}

func (r *TimerRepository) SetPausedTx(ctx context.Context, tx *sql.Tx, paused bool) error {
	_, err := tx.ExecContext(
		ctx,
		`UPDATE timer_state SET is_running = ?, is_paused = ? WHERE id = ?`,
		!paused,
		paused,
		model.TimerStateID,
	)
	if err != nil {
		return fmt.Errorf("set paused: %w", err)
	}
	return nil
}

func (r *TimerRepository) ClearActiveSessionTx(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(
		ctx,
		`UPDATE timer_state SET current_session_id = NULL, is_running = 0, is_paused = 0 WHERE id = ?`,
		model.TimerStateID,
	)
	if err != nil {
		return fmt.Errorf("clear active session: %w", err)
	}
	return nil
}

func (r *TimerRepository) InsertSessionTx(ctx context.Context, tx *sql.Tx, session *model.WorkSession) error {
	var endTime interface{}
	if session.EndTime != nil {
		endTime = formatTime(*session.EndTime)
	}
	var netSeconds interface{}
	if session.NetSeconds != nil {
		netSeconds = *session.NetSeconds
	}

	_, err := tx.ExecContext(
		ctx,
		`INSERT INTO work_sessions (
			id, date, start_time, end_time, net_seconds, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.Date,
		formatTime(session.StartTime),
		endTime,
		netSeconds,
		session.Status,
		formatTime(session.CreatedAt),
		formatTime(session.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// GetSessionTx loads a session together with its pause intervals in
// chronological order.
func (r *TimerRepository) GetSessionTx(ctx context.Context, tx *sql.Tx, sessionID string) (*model.WorkSession, error) {
	row := tx.QueryRowContext(
		ctx,
		`SELECT id, date, start_time, end_time, net_seconds, status, created_at, updated_at
		 FROM work_sessions WHERE id = ?`,
		sessionID,
	)
	session, err := scanWorkSession(row)
	if err != nil {
		return nil, err
	}

	rows, err := tx.QueryContext(
		ctx,
		`SELECT id, session_id, pause_start, pause_end
		 FROM pause_intervals WHERE session_id = ? ORDER BY pause_start`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list pauses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		pause, scanErr := scanPauseInterval(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		session.Pauses = append(session.Pauses, *pause)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pauses: %w", err)
	}

	return session, nil
}

func (r *TimerRepository) UpdateSessionTx(ctx context.Context, tx *sql.Tx, session *model.WorkSession) error {
	var endTime interface{}
	if session.EndTime != nil {
		endTime = formatTime(*session.EndTime)
	}
	var netSeconds interface{}
	if session.NetSeconds != nil {
		netSeconds = *session.NetSeconds
	}

	_, err := tx.ExecContext(
		ctx,
		`UPDATE work_sessions
		 SET date = ?,
		     start_time = ?,
		     end_time = ?,
		     net_seconds = ?,
		     status = ?,
		     updated_at = ?
		 WHERE id = ?`,
		session.Date,
		formatTime(session.StartTime),
		endTime,
		netSeconds,
		session.Status,
		formatTime(session.UpdatedAt),
		session.ID,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

// DeleteSessionTx removes a session and its pause intervals. The cascade is
// explicit so both deletes share the caller's transaction.
func (r *TimerRepository) DeleteSessionTx(ctx context.Context, tx *sql.Tx, sessionID string) error {
	if _, err := tx.ExecContext(
		ctx,
		`DELETE FROM pause_intervals WHERE session_id = ?`,
		sessionID,
	); err != nil {
		return fmt.Errorf("delete pauses: %w", err)
	}
	if _, err := tx.ExecContext(
		ctx,
		`DELETE FROM work_sessions WHERE id = ?`,
		sessionID,
	); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *TimerRepository) InsertPauseTx(ctx context.Context, tx *sql.Tx, pause *model.PauseInterval) error {
	var pauseEnd interface{}
	if pause.PauseEnd != nil {
		pauseEnd = formatTime(*pause.PauseEnd)
	}

	_, err := tx.ExecContext(
		ctx,
		`INSERT INTO pause_intervals (id, session_id, pause_start, pause_end) VALUES (?, ?, ?, ?)`,
		pause.ID,
		pause.SessionID,
		formatTime(pause.PauseStart),
		pauseEnd,
	)
	if err != nil {
		return fmt.Errorf("insert pause: %w", err)
	}
	return nil
}

// FindOpenPauseTx returns the session's pause interval without an end, or
// ErrNotFound. At most one such interval exists per session.
func (r *TimerRepository) FindOpenPauseTx(ctx context.Context, tx *sql.Tx, sessionID string) (*model.PauseInterval, error) {
	row := tx.QueryRowContext(
		ctx,
		`SELECT id, session_id, pause_start, pause_end
		 FROM pause_intervals
		 WHERE session_id = ? AND pause_end IS NULL`,
		sessionID,
	)
	return scanPauseInterval(row)
}

func (r *TimerRepository) ClosePauseTx(ctx context.Context, tx *sql.Tx, pauseID string, end time.Time) error {
	_, err := tx.ExecContext(
		ctx,
		`UPDATE pause_intervals SET pause_end = ? WHERE id = ?`,
		formatTime(end),
		pauseID,
	)
	if err != nil {
		return fmt.Errorf("close pause: %w", err)
	}
	return nil
}

// ListCompletedBetween returns completed sessions with fromDate <= date <=
// throughDate, used by the weekly/monthly aggregates.
func (r *TimerRepository) ListCompletedBetween(ctx context.Context, fromDate, throughDate string) ([]model.WorkSession, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, date, start_time, end_time, net_seconds, status, created_at, updated_at
		 FROM work_sessions
		 WHERE status = ? AND date >= ? AND date <= ?
		 ORDER BY date, start_time`,
		model.SessionStatusCompleted,
		fromDate,
		throughDate,
	)
	if err != nil {
		return nil, fmt.Errorf("list completed sessions: %w", err)
	}
	return collectSessions(rows)
}

// ListRecentCompleted returns the most recent completed sessions, newest
// first.
func (r *TimerRepository) ListRecentCompleted(ctx context.Context, limit int) ([]model.WorkSession, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, date, start_time, end_time, net_seconds, status, created_at, updated_at
		 FROM work_sessions
		 WHERE status = ?
		 ORDER BY date DESC, start_time DESC
		 LIMIT ?`,
		model.SessionStatusCompleted,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list recent sessions: %w", err)
	}
	return collectSessions(rows)
}

func collectSessions(rows *sql.Rows) ([]model.WorkSession, error) {
	defer rows.Close()

	sessions := make([]model.WorkSession, 0)
	for rows.Next() {
		session, err := scanWorkSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTimerState(s scanner) (*model.TimerState, error) {
	state := model.TimerState{}
	var currentSessionID sql.NullString
	err := s.Scan(&state.ID, &currentSessionID, &state.IsRunning, &state.IsPaused)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan timer state: %w", err)
	}
	if currentSessionID.Valid {
		value := currentSessionID.String
		state.CurrentSessionID = &value
	}
	return &state, nil
}

func scanWorkSession(s scanner) (*model.WorkSession, error) {
	session := model.WorkSession{}
	var startTime string
	var endTime sql.NullString
	var netSeconds sql.NullInt64
	var createdAt string
	var updatedAt string
	err := s.Scan(
		&session.ID,
		&session.Date,
		&startTime,
		&endTime,
		&netSeconds,
		&session.Status,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}

	parsedStart, err := parseTime(startTime)
	if err != nil {
		return nil, fmt.Errorf("parse session start_time: %w", err)
	}
	session.StartTime = parsedStart

	if endTime.Valid {
		parsedEnd, parseErr := parseTime(endTime.String)
		if parseErr != nil {
			return nil, fmt.Errorf("parse session end_time: %w", parseErr)
		}
		session.EndTime = &parsedEnd
	}
	if netSeconds.Valid {
		value := int(netSeconds.Int64)
		session.NetSeconds = &value
	}

	parsedCreated, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse session created_at: %w", err)
	}
	session.CreatedAt = parsedCreated

	parsedUpdated, err := parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse session updated_at: %w", err)
	}
	session.UpdatedAt = parsedUpdated

	return &session, nil
}

func scanPauseInterval(s scanner) (*model.PauseInterval, error) {
	pause := model.PauseInterval{}
	var pauseStart string
	var pauseEnd sql.NullString
	err := s.Scan(&pause.ID, &pause.SessionID, &pauseStart, &pauseEnd)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan pause: %w", err)
	}

	parsedStart, err := parseTime(pauseStart)
	if err != nil {
		return nil, fmt.Errorf("parse pause_start: %w", err)
	}
	pause.PauseStart = parsedStart

	if pauseEnd.Valid {
		parsedEnd, parseErr := parseTime(pauseEnd.String)
		if parseErr != nil {
			return nil, fmt.Errorf("parse pause_end: %w", parseErr)
		}
		pause.PauseEnd = &parsedEnd
	}

	return &pause, nil
}
