package model

import "time"

const (
	SessionStatusActive    = "active"
	SessionStatusCompleted = "completed"
	SessionStatusReset     = "reset"

	TimerStatusIdle    = "idle"
	TimerStatusRunning = "running"
	TimerStatusPaused  = "paused"
)

// TimerStateID is the fixed primary key of the singleton timer_state row.
const TimerStateID = 1

// DateLayout is the calendar-date format used in the date column.
const DateLayout = "2006-01-02"

type WorkSession struct {
	ID         string          `json:"id"`
	Date       string          `json:"date"`
	StartTime  time.Time       `json:"start_time"`
	EndTime    *time.Time      `json:"end_time,omitempty"`
	NetSeconds *int            `json:"net_seconds,omitempty"`
	Status     string          `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	Pauses     []PauseInterval `json:"pauses,omitempty"`
}

type PauseInterval struct {
	ID         string     `json:"id"`
	SessionID  string     `json:"session_id"`
	PauseStart time.Time  `json:"pause_start"`
	PauseEnd   *time.Time `json:"pause_end,omitempty"`
}

// TimerState is the process-wide singleton that arbitrates which session,
// if any, is live. Session.Status alone is never trusted for that.
type TimerState struct {
	ID               int     `json:"id"`
	CurrentSessionID *string `json:"current_session_id,omitempty"`
	IsRunning        bool    `json:"is_running"`
	IsPaused         bool    `json:"is_paused"`
}
