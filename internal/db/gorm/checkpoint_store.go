// Package gorm provides GORM-based database operations for tusk.
package gorm

import (
	"context"
	"database/sql"

	"gorm.io/gorm"

	"github.com/anortham/tusk-sub002/pkg/models"
)

// DefaultListLimit caps candidate retrieval when no limit is given.
const DefaultListLimit = 500

// ListFilter constrains ListEntries. Zero values mean "no constraint".
type ListFilter struct {
	Since   int64  // inclusive lower bound, epoch millis
	Until   int64  // inclusive upper bound, epoch millis
	Project string // exact project match
	Limit   int    // max rows, DefaultListLimit when <= 0
}

// CheckpointStore provides checkpoint-related database operations using GORM.
type CheckpointStore struct {
	db    *gorm.DB
	rawDB *sql.DB
}

// NewCheckpointStore creates a new checkpoint store.
func NewCheckpointStore(store *Store) *CheckpointStore {
	return &CheckpointStore{
		db:    store.DB,
		rawDB: store.GetRawDB(),
	}
}

// SaveCheckpoint persists a checkpoint entry. The entry keeps its ID if it
// already has one; otherwise an ID and timestamps are assigned on insert and
// written back to the entry.
func (s *CheckpointStore) SaveCheckpoint(ctx context.Context, entry *models.CheckpointEntry) error {
	row := toDBCheckpoint(entry)
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return err
	}

	entry.ID = row.ID
	entry.CreatedAt = row.CreatedAt
	entry.CreatedAtEpoch = row.CreatedAtEpoch
	return nil
}

// GetCheckpointByID retrieves a checkpoint by its ID. Returns (nil, nil)
// when no such checkpoint exists.
func (s *CheckpointStore) GetCheckpointByID(ctx context.Context, id string) (*models.CheckpointEntry, error) {
	var row Checkpoint
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toModelCheckpoint(&row), nil
}

// ListEntries retrieves checkpoints matching the filter, most recent first.
func (s *CheckpointStore) ListEntries(ctx context.Context, filter ListFilter) ([]*models.CheckpointEntry, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	var rows []Checkpoint
	err := s.db.WithContext(ctx).
		Scopes(dateWindowFilter(filter.Since, filter.Until), projectFilter(filter.Project), recencyOrdering()).
		Limit(limit).
		Find(&rows).Error

	if err != nil {
		return nil, err
	}

	return toModelCheckpoints(rows), nil
}

// GetCheckpointsByIDs retrieves checkpoints for a list of IDs. Order is
// unspecified; callers needing ranked order should re-sort by ID.
func (s *CheckpointStore) GetCheckpointsByIDs(ctx context.Context, ids []string) ([]*models.CheckpointEntry, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var rows []Checkpoint
	err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error
	if err != nil {
		return nil, err
	}

	return toModelCheckpoints(rows), nil
}

// AllCheckpoints retrieves every checkpoint in insertion order, for index
// rebuilds.
func (s *CheckpointStore) AllCheckpoints(ctx context.Context) ([]*models.CheckpointEntry, error) {
	var rows []Checkpoint
	err := s.db.WithContext(ctx).
		Order("created_at_epoch").
		Find(&rows).Error

	if err != nil {
		return nil, err
	}

	return toModelCheckpoints(rows), nil
}

// DeleteCheckpoint removes a checkpoint by ID. Returns whether a row was
// deleted.
func (s *CheckpointStore) DeleteCheckpoint(ctx context.Context, id string) (bool, error) {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&Checkpoint{})
	return result.RowsAffected > 0, result.Error
}

// CountCheckpoints returns the number of checkpoints, optionally scoped to a
// project.
func (s *CheckpointStore) CountCheckpoints(ctx context.Context, project string) (int64, error) {
	var count int64
	query := s.db.WithContext(ctx).Model(&Checkpoint{})
	if project != "" {
		query = query.Where("project = ?", project)
	}
	err := query.Count(&count).Error
	return count, err
}

// ====================
// GORM Scopes (Reusable Query Filters)
// ====================

// dateWindowFilter bounds results by creation epoch.
func dateWindowFilter(since, until int64) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if since > 0 {
			db = db.Where("created_at_epoch >= ?", since)
		}
		if until > 0 {
			db = db.Where("created_at_epoch <= ?", until)
		}
		return db
	}
}

// projectFilter restricts results to a project when one is given.
func projectFilter(project string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if project == "" {
			return db
		}
		return db.Where("project = ?", project)
	}
}

// recencyOrdering orders by creation epoch DESC.
func recencyOrdering() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at_epoch DESC")
	}
}

// ====================
// Helper Functions
// ====================

// toDBCheckpoint converts a domain entry to its GORM row.
func toDBCheckpoint(e *models.CheckpointEntry) *Checkpoint {
	return &Checkpoint{
		ID:             e.ID,
		Description:    e.Description,
		Project:        e.Project,
		GitBranch:      e.GitBranch,
		GitCommit:      e.GitCommit,
		Files:          e.Files,
		Tags:           e.Tags,
		CreatedAt:      e.CreatedAt,
		CreatedAtEpoch: e.CreatedAtEpoch,
	}
}

// toModelCheckpoint converts a GORM row to the domain entry.
func toModelCheckpoint(c *Checkpoint) *models.CheckpointEntry {
	return &models.CheckpointEntry{
		ID:             c.ID,
		Description:    c.Description,
		Project:        c.Project,
		GitBranch:      c.GitBranch,
		GitCommit:      c.GitCommit,
		Files:          c.Files,
		Tags:           c.Tags,
		CreatedAt:      c.CreatedAt,
		CreatedAtEpoch: c.CreatedAtEpoch,
	}
}

// toModelCheckpoints converts a slice of GORM rows to domain entries.
func toModelCheckpoints(rows []Checkpoint) []*models.CheckpointEntry {
	result := make([]*models.CheckpointEntry, len(rows))
	for i := range rows {
		result[i] = toModelCheckpoint(&rows[i])
	}
	return result
}
