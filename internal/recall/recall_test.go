package recall

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbgorm "github.com/anortham/tusk-sub002/internal/db/gorm"
	"github.com/anortham/tusk-sub002/internal/search"
	"github.com/anortham/tusk-sub002/pkg/models"
)

var testNow = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

// fakeLister serves a fixed entry set, applying the date window and project
// filter the way the store does.
type fakeLister struct {
	entries []*models.CheckpointEntry
	err     error

	lastFilter dbgorm.ListFilter
}

func (f *fakeLister) ListEntries(_ context.Context, filter dbgorm.ListFilter) ([]*models.CheckpointEntry, error) {
	f.lastFilter = filter
	if f.err != nil {
		return nil, f.err
	}

	var out []*models.CheckpointEntry
	for _, e := range f.entries {
		if filter.Since > 0 && e.CreatedAtEpoch < filter.Since {
			continue
		}
		if filter.Project != "" && e.Project != filter.Project {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func testOrchestrator(entries ...*models.CheckpointEntry) (*Orchestrator, *fakeLister) {
	lister := &fakeLister{entries: entries}
	o := NewOrchestrator(lister, search.NewEngine(nil))
	o.now = func() time.Time { return testNow }
	return o, lister
}

func recallEntry(id, description string, age time.Duration) *models.CheckpointEntry {
	ts := testNow.Add(-age)
	return &models.CheckpointEntry{
		ID:             id,
		Description:    description,
		CreatedAt:      ts.Format(time.RFC3339),
		CreatedAtEpoch: ts.UnixMilli(),
	}
}

func TestRecall_RanksAndReportsStats(t *testing.T) {
	o, _ := testOrchestrator(
		recallEntry("old", "investigating parser slowdown", 72*time.Hour),
		recallEntry("new", "fixed parser slowdown", time.Hour),
	)

	result, err := o.Recall(context.Background(), Options{})
	require.NoError(t, err)

	require.Len(t, result.Entries, 2)
	assert.Equal(t, "new", result.Entries[0].ID, "fresher completed work ranks first")
	assert.Greater(t, result.Entries[0].Relevance, result.Entries[1].Relevance)

	assert.Equal(t, 2, result.Stats.TotalConsidered)
	assert.Equal(t, 2, result.Stats.ClustersFormed)
	assert.Equal(t, 0, result.Stats.MergedAway)
	assert.InDelta(t, DefaultSimilarityThreshold, result.Stats.Threshold, 1e-9)
	assert.False(t, result.Stats.FallbackUsed)
}

func TestRecall_DeduplicatesSimilarEntries(t *testing.T) {
	o, _ := testOrchestrator(
		recallEntry("a", "Fixed login bug", 2*time.Hour),
		recallEntry("b", "Fixed login bug!!", time.Hour),
		recallEntry("c", "rewrote deployment pipeline", 3*time.Hour),
	)

	result, err := o.Recall(context.Background(), Options{})
	require.NoError(t, err)

	require.Len(t, result.Entries, 2)
	assert.Equal(t, 3, result.Stats.TotalConsidered)
	assert.Equal(t, 2, result.Stats.ClustersFormed)
	assert.Equal(t, 1, result.Stats.MergedAway)

	var rep *models.CheckpointEntry
	for _, e := range result.Entries {
		if e.Consolidation != nil {
			rep = e.CheckpointEntry
		}
	}
	require.NotNil(t, rep, "duplicate pair yields one consolidated representative")
	assert.Equal(t, "b", rep.ID, "most recent duplicate represents the cluster")
	assert.Equal(t, 2, rep.Consolidation.MergedEntries)
}

func TestRecall_DateWindow(t *testing.T) {
	o, lister := testOrchestrator(
		recallEntry("recent", "deployed api gateway", 12*time.Hour),
		recallEntry("ancient", "bootstrapped repository", 40*24*time.Hour),
	)

	result, err := o.Recall(context.Background(), Options{Days: 7})
	require.NoError(t, err)

	require.Len(t, result.Entries, 1)
	assert.Equal(t, "recent", result.Entries[0].ID)
	assert.Equal(t, testNow.AddDate(0, 0, -7).UnixMilli(), lister.lastFilter.Since)
}

func TestRecall_ProjectFilterPassedThrough(t *testing.T) {
	a := recallEntry("a", "tuned cache eviction", time.Hour)
	a.Project = "cache"
	b := recallEntry("b", "tuned query planner", time.Hour)
	b.Project = "db"

	o, lister := testOrchestrator(a, b)

	result, err := o.Recall(context.Background(), Options{Project: "cache"})
	require.NoError(t, err)

	require.Len(t, result.Entries, 1)
	assert.Equal(t, "a", result.Entries[0].ID)
	assert.Equal(t, "cache", lister.lastFilter.Project)
}

func TestRecall_SearchUsesFallbackWithoutIndex(t *testing.T) {
	o, _ := testOrchestrator(
		recallEntry("a", "fixed login bug", time.Hour),
		recallEntry("b", "refactored parser", time.Hour),
	)

	result, err := o.Recall(context.Background(), Options{Search: "login"})
	require.NoError(t, err)

	require.Len(t, result.Entries, 1)
	assert.Equal(t, "a", result.Entries[0].ID)
	assert.True(t, result.Stats.FallbackUsed)
}

func TestRecall_ResultLimit(t *testing.T) {
	o, _ := testOrchestrator(
		recallEntry("a", "wrote integration harness", time.Hour),
		recallEntry("b", "profiled allocation hotspots", 2*time.Hour),
		recallEntry("c", "upgraded build toolchain", 3*time.Hour),
	)

	result, err := o.Recall(context.Background(), Options{ResultLimit: 2})
	require.NoError(t, err)

	assert.Len(t, result.Entries, 2)
	assert.Equal(t, 3, result.Stats.TotalConsidered, "stats count the pre-truncation set")
}

func TestRecall_CustomThreshold(t *testing.T) {
	o, _ := testOrchestrator(
		recallEntry("a", "fixed login bug", 2*time.Hour),
		recallEntry("b", "fixed login bugs", time.Hour),
	)

	// One edit apart after normalization: merged at the default threshold,
	// kept separate at a near-exact one.
	merged, err := o.Recall(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, merged.Stats.ClustersFormed)

	strict, err := o.Recall(context.Background(), Options{SimilarityThreshold: 0.99})
	require.NoError(t, err)
	assert.Equal(t, 2, strict.Stats.ClustersFormed)
	assert.InDelta(t, 0.99, strict.Stats.Threshold, 1e-9)
}

func TestRecall_StoreErrorPropagates(t *testing.T) {
	lister := &fakeLister{err: errors.New("disk on fire")}
	o := NewOrchestrator(lister, search.NewEngine(nil))

	_, err := o.Recall(context.Background(), Options{})
	require.Error(t, err)
	assert.ErrorContains(t, err, "disk on fire")
}

func TestRecall_EmptyStore(t *testing.T) {
	o, _ := testOrchestrator()

	result, err := o.Recall(context.Background(), Options{})
	require.NoError(t, err)

	assert.Empty(t, result.Entries)
	assert.Equal(t, 0, result.Stats.TotalConsidered)
}
