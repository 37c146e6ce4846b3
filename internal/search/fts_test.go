//go:build fts5

package search

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anortham/tusk-sub002/pkg/models"
)

// mapFetcher serves entries from memory, standing in for the checkpoint store.
type mapFetcher map[string]*models.CheckpointEntry

func (f mapFetcher) GetCheckpointsByIDs(_ context.Context, ids []string) ([]*models.CheckpointEntry, error) {
	var entries []*models.CheckpointEntry
	for _, id := range ids {
		if e, ok := f[id]; ok {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func insertCheckpoint(t *testing.T, db *sql.DB, e *models.CheckpointEntry) {
	t.Helper()

	tags, err := e.Tags.Value()
	require.NoError(t, err)
	_, err = db.Exec(
		`INSERT INTO checkpoints (id, description, project, git_branch, tags, created_at, created_at_epoch)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Description, e.Project, e.GitBranch, tags, e.CreatedAt, e.CreatedAtEpoch)
	require.NoError(t, err)
}

// testFTSIndex builds a migrated index over two seed checkpoints.
func testFTSIndex(t *testing.T) (*FTSIndex, *sql.DB, mapFetcher) {
	t.Helper()

	db := testSearchDB(t)
	fetcher := mapFetcher{}

	entries := []*models.CheckpointEntry{
		{
			ID:          "a",
			Description: "fixed login redirect loop",
			Project:     "auth-service",
			GitBranch:   "feature/login",
			Tags:        models.JSONStringArray{"bug-fix"},
		},
		{
			ID:          "b",
			Description: "refactored parser internals",
			Project:     "compiler",
			GitBranch:   "main",
		},
	}
	for _, e := range entries {
		insertCheckpoint(t, db, e)
		fetcher[e.ID] = e
	}

	migration := NewMigrationManager(db)
	require.NoError(t, migration.MigrateToFTS(context.Background()))

	return NewFTSIndex(db, fetcher, migration), db, fetcher
}

func TestFTSIndex_Search(t *testing.T) {
	index, _, _ := testFTSIndex(t)
	ctx := context.Background()

	results, err := index.Search(ctx, Options{Query: "login", IncludeScores: true})
	require.NoError(t, err)
	require.Len(t, results, 1)

	hit := results[0]
	assert.Equal(t, "a", hit.Entry.ID)
	assert.Greater(t, hit.Score, 0.0)
	assert.LessOrEqual(t, hit.Score, 1.0)
	assert.Contains(t, hit.HighlightedDescription, "«login»")
	assert.Contains(t, hit.MatchedFields, FieldDescription)
	assert.Contains(t, hit.MatchedFields, FieldGitBranch)
}

func TestFTSIndex_SearchWithoutScores(t *testing.T) {
	index, _, _ := testFTSIndex(t)

	results, err := index.Search(context.Background(), Options{Query: "login"})
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Zero(t, results[0].Score)
	assert.Empty(t, results[0].MatchedFields)
	assert.Empty(t, results[0].HighlightedDescription)
}

func TestFTSIndex_PrefixExpansion(t *testing.T) {
	index, _, _ := testFTSIndex(t)

	results, err := index.Search(context.Background(), Options{Query: "refact"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "b", results[0].Entry.ID)
}

func TestFTSIndex_ExactPhrase(t *testing.T) {
	index, _, _ := testFTSIndex(t)
	ctx := context.Background()

	results, err := index.Search(ctx, Options{Query: "login redirect", Exact: true})
	require.NoError(t, err)
	assert.Len(t, results, 1)

	// Exact mode does not prefix-expand.
	results, err = index.Search(ctx, Options{Query: "login redir", Exact: true})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFTSIndex_BooleanOperators(t *testing.T) {
	index, _, _ := testFTSIndex(t)

	results, err := index.Search(context.Background(), Options{Query: "login OR parser"})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestFTSIndex_InvalidQuery(t *testing.T) {
	index, _, _ := testFTSIndex(t)

	_, err := index.Search(context.Background(), Options{Query: `"unbalanced`})
	require.Error(t, err)

	var searchErr *Error
	require.True(t, errors.As(err, &searchErr))
	assert.Equal(t, KindInvalidQuery, searchErr.Kind)
}

func TestFTSIndex_EmptyQueryReturnsNothing(t *testing.T) {
	index, _, _ := testFTSIndex(t)

	results, err := index.Search(context.Background(), Options{Query: "   "})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFTSIndex_UpsertAndRemoveDocument(t *testing.T) {
	index, db, fetcher := testFTSIndex(t)
	ctx := context.Background()

	entry := &models.CheckpointEntry{
		ID:          "c",
		Description: "deployed billing service",
		Project:     "billing",
	}
	insertCheckpoint(t, db, entry)
	fetcher[entry.ID] = entry

	require.NoError(t, index.UpsertDocument(ctx, entry.ID, entry))

	results, err := index.Search(ctx, Options{Query: "billing"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "c", results[0].Entry.ID)

	// De-index before the row leaves the store.
	require.NoError(t, index.RemoveDocument(ctx, entry.ID))
	_, err = db.Exec("DELETE FROM checkpoints WHERE id = ?", entry.ID)
	require.NoError(t, err)

	results, err = index.Search(ctx, Options{Query: "billing"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFTSIndex_MaintenanceNoopsWhenDisabled(t *testing.T) {
	db := testSearchDB(t)
	index := NewFTSIndex(db, mapFetcher{}, NewMigrationManager(db))
	ctx := context.Background()

	assert.False(t, index.IsEnabled())
	assert.NoError(t, index.UpsertDocument(ctx, "x", &models.CheckpointEntry{ID: "x"}))
	assert.NoError(t, index.RemoveDocument(ctx, "x"))

	assert.Error(t, index.Rebuild(ctx))
	assert.Error(t, index.Optimize(ctx))
	_, err := index.Stats(ctx)
	assert.Error(t, err)
}

func TestFTSIndex_RebuildAndStats(t *testing.T) {
	index, _, _ := testFTSIndex(t)
	ctx := context.Background()

	require.NoError(t, index.Rebuild(ctx))
	require.NoError(t, index.Optimize(ctx))

	// A query so average latency has a sample.
	_, err := index.Search(ctx, Options{Query: "login"})
	require.NoError(t, err)

	stats, err := index.Stats(ctx)
	require.NoError(t, err)

	assert.EqualValues(t, 2, stats.DocumentCount)
	assert.Greater(t, stats.TermCount, int64(0))
	assert.Greater(t, stats.IndexBytes, int64(0))
	assert.NotEmpty(t, stats.LastRebuild)
	assert.Greater(t, stats.AvgQueryMillis, 0.0)
}
