// Package gorm provides GORM-based database operations for tusk.
package gorm

import (
	"time"

	"gorm.io/gorm"

	"github.com/anortham/tusk-sub002/pkg/models"
)

// Checkpoint is the persisted form of a checkpoint entry.
//
// The ID is a string (timestamp plus random component) assigned at creation.
// SQLite still gives the row an implicit rowid, which the FTS5 external
// content table keys on.
type Checkpoint struct {
	ID             string                 `gorm:"primaryKey;type:text"`
	Description    string                 `gorm:"type:text;not null"`
	Project        string                 `gorm:"index:idx_checkpoints_project"`
	GitBranch      string                 `gorm:"type:text"`
	GitCommit      string                 `gorm:"type:text"`
	Files          models.JSONStringArray `gorm:"type:text"` // JSON array
	Tags           models.JSONStringArray `gorm:"type:text"` // JSON array
	CreatedAt      string                 `gorm:"not null"`
	CreatedAtEpoch int64                  `gorm:"index:idx_checkpoints_created,sort:desc;not null"`
}

func (Checkpoint) TableName() string { return "checkpoints" }

// BeforeCreate hook to ensure ID and timestamps are set.
func (c *Checkpoint) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = models.NewCheckpointID()
	}
	if c.CreatedAtEpoch == 0 {
		c.CreatedAtEpoch = time.Now().UnixMilli()
	}
	if c.CreatedAt == "" {
		c.CreatedAt = time.Now().Format(time.RFC3339)
	}
	return nil
}
