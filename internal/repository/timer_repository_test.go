package repository_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticktick/backend/internal/db"
	"ticktick/backend/internal/model"
	"ticktick/backend/internal/repository"
)

func newRepo(t *testing.T) (*repository.TimerRepository, *sql.DB) {
	t.Helper()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = database.Close()
	})

	_, currentFile, _, _ := runtime.Caller(0)
	migrationsDir := filepath.Join(filepath.Dir(currentFile), "..", "..", "migrations")
	require.NoError(t, db.RunMigrations(database, migrationsDir))

	return repository.NewTimerRepository(database), database
}

func insertSession(t *testing.T, repo *repository.TimerRepository, start time.Time) string {
	t.Helper()
	ctx := context.Background()
	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	session := model.WorkSession{
		ID:        uuid.NewString(),
		Date:      start.Format(model.DateLayout),
		StartTime: start,
		Status:    model.SessionStatusActive,
		CreatedAt: start,
		UpdatedAt: start,
	}
	require.NoError(t, repo.InsertSessionTx(ctx, tx, &session))
	require.NoError(t, tx.Commit())
	return session.ID
}

func TestGetOrCreateTimerState(t *testing.T) {
	repo, database := newRepo(t)
	ctx := context.Background()

	state, err := repo.GetOrCreateTimerState(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.TimerStateID, state.ID)
	assert.Nil(t, state.CurrentSessionID)
	assert.False(t, state.IsRunning)
	assert.False(t, state.IsPaused)

	// Even with the seed row removed, the next call recreates it.
	_, err = database.Exec(`DELETE FROM timer_state`)
	require.NoError(t, err)

	state, err = repo.GetOrCreateTimerState(ctx)
	require.NoError(t, err)
	assert.Nil(t, state.CurrentSessionID)
}

func TestClaimActiveSessionIsConditional(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	start := time.Date(2026, 2, 18, 8, 0, 0, 0, time.Local)
	firstID := insertSession(t, repo, start)
	secondID := insertSession(t, repo, start)

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	claimed, err := repo.ClaimActiveSessionTx(ctx, tx, firstID)
	require.NoError(t, err)
	assert.True(t, claimed)
	require.NoError(t, tx.Commit())

	// The claim only succeeds while no session is referenced.
	tx, err = repo.BeginTx(ctx)
	require.NoError(t, err)
	claimed, err = repo.ClaimActiveSessionTx(ctx, tx, secondID)
	require.NoError(t, err)
	assert.False(t, claimed)

	state, err := repo.GetTimerStateTx(ctx, tx)
	require.NoError(t, err)
	require.NotNil(t, state.CurrentSessionID)
	assert.Equal(t, firstID, *state.CurrentSessionID)
	require.NoError(t, tx.Rollback())

	// After a clear, the state can be claimed again.
	tx, err = repo.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.ClearActiveSessionTx(ctx, tx))
	claimed, err = repo.ClaimActiveSessionTx(ctx, tx, secondID)
	require.NoError(t, err)
	assert.True(t, claimed)
	require.NoError(t, tx.Commit())
}

func TestDeleteSessionCascadesPauses(t *testing.T) {
	repo, database := newRepo(t)
	ctx := context.Background()

	start := time.Date(2026, 2, 18, 8, 0, 0, 0, time.Local)
	sessionID := insertSession(t, repo, start)

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	pauseEnd := start.Add(30 * time.Minute)
	pause := model.PauseInterval{
		ID:         uuid.NewString(),
		SessionID:  sessionID,
		PauseStart: start.Add(15 * time.Minute),
		PauseEnd:   &pauseEnd,
	}
	require.NoError(t, repo.InsertPauseTx(ctx, tx, &pause))
	require.NoError(t, repo.DeleteSessionTx(ctx, tx, sessionID))
	require.NoError(t, tx.Commit())

	var sessions, pauses int
	require.NoError(t, database.QueryRow(`SELECT COUNT(1) FROM work_sessions`).Scan(&sessions))
	require.NoError(t, database.QueryRow(`SELECT COUNT(1) FROM pause_intervals`).Scan(&pauses))
	assert.Equal(t, 0, sessions)
	assert.Equal(t, 0, pauses)
}

func TestFindOpenPause(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	start := time.Date(2026, 2, 18, 8, 0, 0, 0, time.Local)
	sessionID := insertSession(t, repo, start)

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	_, err = repo.FindOpenPauseTx(ctx, tx, sessionID)
	assert.Equal(t, repository.ErrNotFound, err)

	pause := model.PauseInterval{
		ID:         uuid.NewString(),
		SessionID:  sessionID,
		PauseStart: start.Add(time.Hour),
	}
	require.NoError(t, repo.InsertPauseTx(ctx, tx, &pause))

	open, err := repo.FindOpenPauseTx(ctx, tx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, pause.ID, open.ID)
	assert.Nil(t, open.PauseEnd)

	require.NoError(t, repo.ClosePauseTx(ctx, tx, pause.ID, start.Add(90*time.Minute)))
	_, err = repo.FindOpenPauseTx(ctx, tx, sessionID)
	assert.Equal(t, repository.ErrNotFound, err)
}

func TestSessionRoundTrip(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	start := time.Date(2026, 2, 18, 8, 0, 0, 0, time.Local)
	end := start.Add(8 * time.Hour)
	net := 28800

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)

	session := model.WorkSession{
		ID:         uuid.NewString(),
		Date:       start.Format(model.DateLayout),
		StartTime:  start,
		EndTime:    &end,
		NetSeconds: &net,
		Status:     model.SessionStatusCompleted,
		CreatedAt:  start,
		UpdatedAt:  end,
	}
	require.NoError(t, repo.InsertSessionTx(ctx, tx, &session))

	loaded, err := repo.GetSessionTx(ctx, tx, session.ID)
	require.NoError(t, err)
	assert.True(t, loaded.StartTime.Equal(start))
	require.NotNil(t, loaded.EndTime)
	assert.True(t, loaded.EndTime.Equal(end))
	require.NotNil(t, loaded.NetSeconds)
	assert.Equal(t, net, *loaded.NetSeconds)
	assert.Equal(t, model.SessionStatusCompleted, loaded.Status)
	require.NoError(t, tx.Rollback())
}
