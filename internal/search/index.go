// Package search provides the full-text search capability for tusk.
//
// Search is optional: when the FTS5 index is absent, mid-migration or
// broken, callers degrade to a naive substring scan. Availability is
// re-checked on every call, never cached, so a mid-flight migration cannot
// crash a recall.
package search

import (
	"context"

	"github.com/anortham/tusk-sub002/pkg/models"
)

// Field names accepted in Options.Boosts.
const (
	FieldDescription = "description"
	FieldProject     = "project"
	FieldGitBranch   = "git_branch"
	FieldTags        = "tags"
)

// Options configures a single search call.
type Options struct {
	// Query is free text. AND/OR boolean operators and quoted phrases are
	// supported; everything else is matched as plain terms.
	Query string
	// Boosts maps field names to per-field ranking weights. Unset fields use
	// the built-in defaults.
	Boosts map[string]float64
	// MinScore drops results scoring below the cutoff. Zero keeps everything.
	MinScore float64
	// Exact matches the whole query as one phrase instead of fuzzy
	// (prefix-expanded) terms.
	Exact bool
	// IncludeScores attaches per-result relevance scores and highlighted
	// match spans.
	IncludeScores bool
}

// Result is one ranked search hit.
type Result struct {
	Entry                  *models.CheckpointEntry `json:"entry"`
	Score                  float64                 `json:"score,omitempty"`
	MatchedFields          []string                `json:"matched_fields,omitempty"`
	HighlightedDescription string                  `json:"highlighted_description,omitempty"`
}

// Stats reports index health and size.
type Stats struct {
	DocumentCount  int64   `json:"document_count"`
	TermCount      int64   `json:"term_count"`
	IndexBytes     int64   `json:"index_bytes"`
	LastRebuild    string  `json:"last_rebuild,omitempty"`
	AvgQueryMillis float64 `json:"avg_query_millis"`
}

// Index is the external-capability contract for an index-backed search path.
// Implementations must be safe to call while a migration is running; when the
// backing is unavailable every method degrades (no-op or error) rather than
// panicking.
type Index interface {
	// IsEnabled reports whether the index-backed path is currently available.
	// Checked per call, not cached.
	IsEnabled() bool
	Search(ctx context.Context, opts Options) ([]Result, error)

	// Maintenance.
	Rebuild(ctx context.Context) error
	Optimize(ctx context.Context) error
	Stats(ctx context.Context) (*Stats, error)

	// Incremental maintenance, invoked whenever the store adds or deletes an
	// entry. RemoveDocument must be called before the row leaves the store.
	UpsertDocument(ctx context.Context, id string, entry *models.CheckpointEntry) error
	RemoveDocument(ctx context.Context, id string) error
}
