// Package gorm provides GORM-based database operations for tusk.
package gorm

import (
	"fmt"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// runMigrations runs all database migrations using gormigrate.
//
// Note: the checkpoints_fts virtual table is intentionally NOT created here.
// The FTS index is an optional capability built by the search migration
// state machine (internal/search), so a fresh database starts on the naive
// search path.
func runMigrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		// Migration 001: Checkpoints table
		{
			ID: "001_checkpoints",
			Migrate: func(tx *gorm.DB) error {
				// AutoMigrate creates the table with all indexes from struct tags
				return tx.AutoMigrate(&Checkpoint{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("checkpoints")
			},
		},
	})

	if err := m.Migrate(); err != nil {
		return fmt.Errorf("run gormigrate migrations: %w", err)
	}

	return nil
}
