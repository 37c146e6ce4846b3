// Package recall composes filtering, clustering, deduplication and scoring
// into the recall pipeline: raw entries from the store, optionally narrowed
// by a date window and search query, are clustered into similarity groups,
// merged, relevance-scored and truncated to a result budget.
package recall

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	dbgorm "github.com/anortham/tusk-sub002/internal/db/gorm"
	"github.com/anortham/tusk-sub002/internal/search"
	"github.com/anortham/tusk-sub002/pkg/models"
	"github.com/anortham/tusk-sub002/pkg/relevance"
	"github.com/anortham/tusk-sub002/pkg/similarity"
)

// Defaults applied when Options leaves a field zero.
const (
	DefaultSimilarityThreshold = 0.7
	DefaultResultLimit         = 50
)

// Options configures a recall request.
type Options struct {
	Days                int                // restrict to the last N days; 0 = no window
	Search              string             // free-text query; empty = no query filter
	Project             string             // exact project filter; empty = all projects
	SimilarityThreshold float64            // clustering threshold in [0,1]; 0 = default
	ResultLimit         int                // max entries returned; 0 = default
	Weights             *relevance.Weights // scoring weights; nil = defaults
}

// Stats summarizes what a recall considered and collapsed.
type Stats struct {
	TotalConsidered int     `json:"total_considered"`
	ClustersFormed  int     `json:"clusters_formed"`
	MergedAway      int     `json:"merged_away"`
	Threshold       float64 `json:"threshold"`
	FallbackUsed    bool    `json:"fallback_used"`
}

// Result is the ranked, deduplicated recall output.
type Result struct {
	Entries []relevance.ScoredEntry `json:"entries"`
	Stats   Stats                   `json:"stats"`
}

// EntryLister is the storage-read contract the orchestrator consumes.
type EntryLister interface {
	ListEntries(ctx context.Context, filter dbgorm.ListFilter) ([]*models.CheckpointEntry, error)
}

// Orchestrator runs the recall pipeline over an in-memory snapshot of
// entries. All steps are synchronous and side-effect free; the only shared
// state touched is the store read and the per-call search path check.
type Orchestrator struct {
	store  EntryLister
	search *search.Engine
	now    func() time.Time
}

// NewOrchestrator creates a recall orchestrator.
func NewOrchestrator(store EntryLister, engine *search.Engine) *Orchestrator {
	return &Orchestrator{
		store:  store,
		search: engine,
		now:    time.Now,
	}
}

// Recall retrieves candidates, deduplicates them by similarity clustering,
// scores and ranks the merged set, and truncates to the result budget.
func (o *Orchestrator) Recall(ctx context.Context, opts Options) (*Result, error) {
	threshold := opts.SimilarityThreshold
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	limit := opts.ResultLimit
	if limit <= 0 {
		limit = DefaultResultLimit
	}

	reference := o.now()

	filter := dbgorm.ListFilter{Project: opts.Project}
	if opts.Days > 0 {
		filter.Since = reference.AddDate(0, 0, -opts.Days).UnixMilli()
	}

	candidates, err := o.store.ListEntries(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}

	stats := Stats{
		TotalConsidered: len(candidates),
		Threshold:       threshold,
	}

	if opts.Search != "" {
		results, fallbackUsed := o.search.Filter(ctx, candidates, search.Options{Query: opts.Search})
		stats.FallbackUsed = fallbackUsed
		candidates = candidates[:0]
		for _, r := range results {
			candidates = append(candidates, r.Entry)
		}
	}

	clusters := similarity.BuildClusters(candidates, threshold)
	merged := make([]*models.CheckpointEntry, 0, len(clusters))
	clustered := 0
	for _, cluster := range clusters {
		clustered += len(cluster)
		rep, err := similarity.MergeCluster(cluster)
		if err != nil {
			// Contract violation in cluster construction, not a data problem.
			return nil, fmt.Errorf("merge cluster: %w", err)
		}
		merged = append(merged, rep)
	}
	stats.ClustersFormed = len(clusters)
	stats.MergedAway = clustered - len(clusters)

	weights := relevance.DefaultWeights()
	if opts.Weights != nil {
		weights = *opts.Weights
	}

	scored := relevance.SortByRelevance(merged, weights, reference)
	if len(scored) > limit {
		scored = scored[:limit]
	}

	log.Debug().
		Int("considered", stats.TotalConsidered).
		Int("clusters", stats.ClustersFormed).
		Int("returned", len(scored)).
		Bool("fallback", stats.FallbackUsed).
		Msg("recall complete")

	return &Result{Entries: scored, Stats: stats}, nil
}
