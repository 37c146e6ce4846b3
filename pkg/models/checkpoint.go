// Package models contains domain models for tusk.
package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CheckpointEntry represents a single journaled progress record.
// Entries are immutable once created; the only derived variant is the
// consolidated representative produced when similar entries are merged
// during recall.
type CheckpointEntry struct {
	ID             string             `db:"id" json:"id"`
	Description    string             `db:"description" json:"description"`
	Project        string             `db:"project" json:"project,omitempty"`
	GitBranch      string             `db:"git_branch" json:"git_branch,omitempty"`
	GitCommit      string             `db:"git_commit" json:"git_commit,omitempty"`
	Files          JSONStringArray    `db:"files" json:"files,omitempty"`
	Tags           JSONStringArray    `db:"tags" json:"tags,omitempty"`
	CreatedAt      string             `db:"created_at" json:"created_at"`
	CreatedAtEpoch int64              `db:"created_at_epoch" json:"created_at_epoch"`
	Consolidation  *ConsolidationInfo `db:"-" json:"consolidation,omitempty"`
}

// ConsolidationInfo is attached to an entry that represents a merge of
// multiple similar originals. It is computed per recall and never stored.
type ConsolidationInfo struct {
	MergedEntries int      `json:"merged_entries"`
	MergedIDs     []string `json:"merged_ids"`
	Earliest      string   `json:"earliest"`
	Latest        string   `json:"latest"`
}

// NewCheckpointID generates a unique checkpoint identifier from the current
// time plus a random component. IDs are never reused.
func NewCheckpointID() string {
	return fmt.Sprintf("%d_%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}

// NewCheckpointEntry creates a checkpoint with a fresh ID and timestamps.
// Description is required; everything else is optional metadata.
func NewCheckpointEntry(description string) *CheckpointEntry {
	now := time.Now()
	return &CheckpointEntry{
		ID:             NewCheckpointID(),
		Description:    description,
		CreatedAt:      now.Format(time.RFC3339),
		CreatedAtEpoch: now.UnixMilli(),
	}
}

// Timestamp returns the creation instant as a time.Time.
func (e *CheckpointEntry) Timestamp() time.Time {
	return time.UnixMilli(e.CreatedAtEpoch)
}

// Clone returns a deep copy of the entry. Slices are copied so the clone can
// be mutated (e.g. during cluster merging) without touching the original.
func (e *CheckpointEntry) Clone() *CheckpointEntry {
	clone := *e
	clone.Files = append(JSONStringArray(nil), e.Files...)
	clone.Tags = append(JSONStringArray(nil), e.Tags...)
	if e.Consolidation != nil {
		info := *e.Consolidation
		info.MergedIDs = append([]string(nil), e.Consolidation.MergedIDs...)
		clone.Consolidation = &info
	}
	return &clone
}
