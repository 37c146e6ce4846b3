// Package search provides the full-text search capability for tusk.
package search

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	"github.com/anortham/tusk-sub002/pkg/models"
)

// Highlight markers wrapped around matched spans.
const (
	highlightOpen  = "«"
	highlightClose = "»"
)

// maxFTSResults bounds how many rows a single index query returns before
// candidate intersection and relevance ranking.
const maxFTSResults = 200

// defaultBoosts are the per-field bm25 weights when the caller sets none.
var defaultBoosts = map[string]float64{
	FieldDescription: 2.0,
	FieldProject:     1.0,
	FieldGitBranch:   0.5,
	FieldTags:        1.5,
}

// EntryFetcher retrieves full entries for ranked index hits.
type EntryFetcher interface {
	GetCheckpointsByIDs(ctx context.Context, ids []string) ([]*models.CheckpointEntry, error)
}

// FTSIndex implements Index on top of a SQLite FTS5 external-content table.
// The handle is an explicit value passed into every search call; lifecycle
// (migrate/rebuild/rollback) is owned by the MigrationManager.
type FTSIndex struct {
	rawDB     *sql.DB
	fetcher   EntryFetcher
	migration *MigrationManager

	mu          sync.Mutex
	queryCount  int64
	queryMillis float64
	lastRebuild string
}

// NewFTSIndex creates an index handle over the given database.
func NewFTSIndex(rawDB *sql.DB, fetcher EntryFetcher, migration *MigrationManager) *FTSIndex {
	return &FTSIndex{
		rawDB:     rawDB,
		fetcher:   fetcher,
		migration: migration,
	}
}

// Migration exposes the index's migration state machine.
func (ix *FTSIndex) Migration() *MigrationManager { return ix.migration }

// IsEnabled reports whether the indexed path is usable right now. Checked
// per call so a mid-flight migration or rollback is picked up immediately.
func (ix *FTSIndex) IsEnabled() bool {
	return ix.migration.IndexAvailable(context.Background())
}

// Search runs a ranked FTS5 query with per-field boosts and highlighting.
func (ix *FTSIndex) Search(ctx context.Context, opts Options) ([]Result, error) {
	if v := ValidateQuery(opts.Query); !v.Valid {
		return nil, newError(KindInvalidQuery, strings.Join(v.Errors, "; "), nil)
	}

	match := buildMatchExpression(opts.Query, opts.Exact)
	if match == "" {
		return nil, nil
	}

	started := time.Now()

	query := `
		SELECT c.id,
		       highlight(checkpoints_fts, 0, ?, ?),
		       highlight(checkpoints_fts, 1, ?, ?),
		       highlight(checkpoints_fts, 2, ?, ?),
		       highlight(checkpoints_fts, 3, ?, ?),
		       bm25(checkpoints_fts, ?, ?, ?, ?) AS rank
		FROM checkpoints_fts
		JOIN checkpoints c ON c.rowid = checkpoints_fts.rowid
		WHERE checkpoints_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`

	boost := func(field string) float64 {
		if opts.Boosts != nil {
			if w, ok := opts.Boosts[field]; ok {
				return w
			}
		}
		return defaultBoosts[field]
	}

	rows, err := ix.rawDB.QueryContext(ctx, query,
		highlightOpen, highlightClose,
		highlightOpen, highlightClose,
		highlightOpen, highlightClose,
		highlightOpen, highlightClose,
		boost(FieldDescription), boost(FieldProject), boost(FieldGitBranch), boost(FieldTags),
		match, maxFTSResults,
	)
	if err != nil {
		return nil, newError(KindIndexError, "FTS query failed", err)
	}
	defer rows.Close()

	type hit struct {
		id          string
		highlighted string
		matched     []string
		score       float64
	}

	var hits []hit
	var ids []string
	for rows.Next() {
		var id string
		var hl [4]string
		var rank float64
		if err := rows.Scan(&id, &hl[0], &hl[1], &hl[2], &hl[3], &rank); err != nil {
			return nil, newError(KindIndexError, "scan FTS row", err)
		}

		var matched []string
		for i, field := range []string{FieldDescription, FieldProject, FieldGitBranch, FieldTags} {
			if strings.Contains(hl[i], highlightOpen) {
				matched = append(matched, field)
			}
		}

		// bm25 returns more-negative for better matches; map to (0, 1).
		score := -rank / (1 - rank)
		if score < opts.MinScore {
			continue
		}

		hits = append(hits, hit{id: id, highlighted: hl[0], matched: matched, score: score})
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, newError(KindIndexError, "iterate FTS rows", err)
	}

	entries, err := ix.fetcher.GetCheckpointsByIDs(ctx, ids)
	if err != nil {
		return nil, newError(KindIndexError, "fetch FTS hits", err)
	}
	byID := make(map[string]*models.CheckpointEntry, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
	}

	results := make([]Result, 0, len(hits))
	for _, h := range hits {
		entry, ok := byID[h.id]
		if !ok {
			continue
		}
		r := Result{Entry: entry}
		if opts.IncludeScores {
			r.Score = h.score
			r.MatchedFields = h.matched
			r.HighlightedDescription = h.highlighted
		}
		results = append(results, r)
	}

	ix.recordQuery(time.Since(started))
	return results, nil
}

// Rebuild regenerates the whole index from the content table.
func (ix *FTSIndex) Rebuild(ctx context.Context) error {
	if !ix.IsEnabled() {
		return newError(KindIndexError, "index not available", nil)
	}
	if _, err := ix.rawDB.ExecContext(ctx,
		"INSERT INTO checkpoints_fts(checkpoints_fts) VALUES('rebuild')"); err != nil {
		return newError(KindIndexError, "rebuild index", err)
	}

	ix.mu.Lock()
	ix.lastRebuild = time.Now().Format(time.RFC3339)
	ix.mu.Unlock()
	return nil
}

// Optimize merges the index's b-tree segments.
func (ix *FTSIndex) Optimize(ctx context.Context) error {
	if !ix.IsEnabled() {
		return newError(KindIndexError, "index not available", nil)
	}
	if _, err := ix.rawDB.ExecContext(ctx,
		"INSERT INTO checkpoints_fts(checkpoints_fts) VALUES('optimize')"); err != nil {
		return newError(KindIndexError, "optimize index", err)
	}
	return nil
}

// Stats reports document count, term count, index size on disk, last rebuild
// time and average query latency.
func (ix *FTSIndex) Stats(ctx context.Context) (*Stats, error) {
	if !ix.IsEnabled() {
		return nil, newError(KindIndexError, "index not available", nil)
	}

	stats := &Stats{}

	if err := ix.rawDB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM checkpoints").Scan(&stats.DocumentCount); err != nil {
		return nil, newError(KindIndexError, "count documents", err)
	}

	// fts5vocab gives per-term rows; created lazily, dropped with the index.
	if _, err := ix.rawDB.ExecContext(ctx,
		"CREATE VIRTUAL TABLE IF NOT EXISTS checkpoints_fts_vocab USING fts5vocab('checkpoints_fts', 'row')"); err == nil {
		_ = ix.rawDB.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM checkpoints_fts_vocab").Scan(&stats.TermCount)
	}

	_ = ix.rawDB.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(LENGTH(block)), 0) FROM checkpoints_fts_data").Scan(&stats.IndexBytes)

	ix.mu.Lock()
	stats.LastRebuild = ix.lastRebuild
	if ix.queryCount > 0 {
		stats.AvgQueryMillis = ix.queryMillis / float64(ix.queryCount)
	}
	ix.mu.Unlock()

	return stats, nil
}

// UpsertDocument indexes a newly stored entry. A no-op when the index is
// absent; entries are immutable so upsert after insert is a plain insert.
func (ix *FTSIndex) UpsertDocument(ctx context.Context, id string, entry *models.CheckpointEntry) error {
	if !ix.IsEnabled() {
		return nil
	}

	tagsJSON, err := entry.Tags.Value()
	if err != nil {
		return newError(KindIndexError, "encode tags", err)
	}

	if _, err := ix.rawDB.ExecContext(ctx, `
		INSERT INTO checkpoints_fts(rowid, description, project, git_branch, tags)
		SELECT rowid, ?, ?, ?, ? FROM checkpoints WHERE id = ?`,
		entry.Description, entry.Project, entry.GitBranch, tagsJSON, id); err != nil {
		return newError(KindIndexError, "index document", err)
	}
	return nil
}

// RemoveDocument de-indexes an entry. Must run before the row is deleted
// from the store, since the delete command needs the indexed values.
func (ix *FTSIndex) RemoveDocument(ctx context.Context, id string) error {
	if !ix.IsEnabled() {
		return nil
	}

	if _, err := ix.rawDB.ExecContext(ctx, `
		INSERT INTO checkpoints_fts(checkpoints_fts, rowid, description, project, git_branch, tags)
		SELECT 'delete', rowid, description, project, git_branch, tags FROM checkpoints WHERE id = ?`,
		id); err != nil {
		return newError(KindIndexError, "de-index document", err)
	}
	return nil
}

func (ix *FTSIndex) recordQuery(elapsed time.Duration) {
	ix.mu.Lock()
	ix.queryCount++
	ix.queryMillis += float64(elapsed.Microseconds()) / 1000.0
	ix.mu.Unlock()
}
