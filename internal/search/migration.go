// Package search provides the full-text search capability for tusk.
package search

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// MigrationState is one step of the naive-to-indexed search migration.
type MigrationState string

const (
	MigrationPending    MigrationState = "pending"
	MigrationInProgress MigrationState = "in_progress"
	MigrationCompleted  MigrationState = "completed"
	MigrationFailed     MigrationState = "failed"
)

// MigrationStatus reports the migration state machine to callers.
type MigrationStatus struct {
	State    MigrationState `json:"state"`
	Progress int            `json:"progress"` // 0-100
	Error    string         `json:"error,omitempty"`
}

// MigrationManager governs the transition from the naive substring-scan
// search to the FTS5-indexed one. A failed or in-flight migration never
// aborts recall; search calls simply take the fallback path until the index
// is complete.
type MigrationManager struct {
	rawDB *sql.DB

	mu     sync.Mutex
	status MigrationStatus
}

// NewMigrationManager creates a manager and probes the database for an
// existing index so a previously completed migration is recognized.
func NewMigrationManager(rawDB *sql.DB) *MigrationManager {
	m := &MigrationManager{
		rawDB:  rawDB,
		status: MigrationStatus{State: MigrationPending},
	}
	if m.indexExists(context.Background()) {
		m.status = MigrationStatus{State: MigrationCompleted, Progress: 100}
	}
	return m
}

// IsMigrationNeeded probes whether the FTS index backing exists.
func (m *MigrationManager) IsMigrationNeeded(ctx context.Context) bool {
	return !m.indexExists(ctx)
}

// Status reports the current migration state, progress and error.
func (m *MigrationManager) Status() MigrationStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// IndexAvailable reports whether the indexed search path may be used right
// now. Re-checked at every search call: an in-progress or failed migration
// routes callers to the fallback path.
func (m *MigrationManager) IndexAvailable(ctx context.Context) bool {
	m.mu.Lock()
	state := m.status.State
	m.mu.Unlock()

	if state != MigrationCompleted {
		return false
	}
	return m.indexExists(ctx)
}

// MigrateToFTS builds the FTS5 index and backfills it from the checkpoint
// table. On failure the state machine records the error and the naive path
// stays active.
func (m *MigrationManager) MigrateToFTS(ctx context.Context) error {
	m.mu.Lock()
	if m.status.State == MigrationInProgress {
		m.mu.Unlock()
		return newError(KindMigrationFailed, "migration already in progress", nil)
	}
	m.status = MigrationStatus{State: MigrationInProgress}
	m.mu.Unlock()

	steps := []struct {
		progress int
		sql      string
	}{
		{30, `CREATE VIRTUAL TABLE IF NOT EXISTS checkpoints_fts USING fts5(
			description, project, git_branch, tags,
			content='checkpoints'
		)`},
		{90, `INSERT INTO checkpoints_fts(rowid, description, project, git_branch, tags)
			SELECT rowid, description, project, git_branch, tags FROM checkpoints`},
	}

	for _, step := range steps {
		if _, err := m.rawDB.ExecContext(ctx, step.sql); err != nil {
			// Drop the partial index so a later process probing sqlite_master
			// does not mistake it for a completed migration.
			_ = m.dropIndexTables(ctx)
			m.fail(err)
			return newError(KindMigrationFailed, "build FTS index", err)
		}
		m.setProgress(step.progress)
	}

	m.mu.Lock()
	m.status = MigrationStatus{State: MigrationCompleted, Progress: 100}
	m.mu.Unlock()

	log.Info().Msg("FTS migration completed")
	return nil
}

// RollbackFTSMigration drops the index and reverts to the non-indexed path.
func (m *MigrationManager) RollbackFTSMigration(ctx context.Context) error {
	if err := m.dropIndexTables(ctx); err != nil {
		m.fail(err)
		return newError(KindMigrationFailed, "drop FTS index", err)
	}

	m.mu.Lock()
	m.status = MigrationStatus{State: MigrationPending}
	m.mu.Unlock()

	log.Info().Msg("FTS migration rolled back")
	return nil
}

// dropIndexTables removes the FTS table and the vocab table Stats creates
// lazily against it. Called best effort in the failure path, where the
// original error is the one worth reporting.
func (m *MigrationManager) dropIndexTables(ctx context.Context) error {
	if _, err := m.rawDB.ExecContext(ctx, "DROP TABLE IF EXISTS checkpoints_fts_vocab"); err != nil {
		return err
	}
	if _, err := m.rawDB.ExecContext(ctx, "DROP TABLE IF EXISTS checkpoints_fts"); err != nil {
		return err
	}
	return nil
}

func (m *MigrationManager) setProgress(progress int) {
	m.mu.Lock()
	m.status.Progress = progress
	m.mu.Unlock()
}

func (m *MigrationManager) fail(err error) {
	m.mu.Lock()
	m.status.State = MigrationFailed
	m.status.Error = fmt.Sprintf("%v", err)
	m.mu.Unlock()
	log.Warn().Err(err).Msg("FTS migration failed; naive search stays active")
}

// indexExists probes sqlite_master for the FTS virtual table.
func (m *MigrationManager) indexExists(ctx context.Context) bool {
	var count int
	err := m.rawDB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='checkpoints_fts'",
	).Scan(&count)
	return err == nil && count == 1
}
