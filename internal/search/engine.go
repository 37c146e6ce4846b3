// Package search provides the full-text search capability for tusk.
package search

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/anortham/tusk-sub002/pkg/models"
)

// Engine routes each search call through whichever path is currently active:
// the FTS index when it is enabled, the naive substring fallback otherwise.
// Index availability is re-checked per call, so a migration finishing or
// failing mid-flight is tolerated without crashing. Search availability
// never blocks recall.
type Engine struct {
	index Index // may be nil: fallback-only operation
}

// NewEngine creates a search engine. A nil index pins the fallback path.
func NewEngine(index Index) *Engine {
	return &Engine{index: index}
}

// Filter narrows candidates to those matching the query, ranked when the
// index path served the call. The second return reports whether the naive
// fallback was used; index errors degrade to the fallback and are surfaced
// only through that flag.
func (e *Engine) Filter(ctx context.Context, candidates []*models.CheckpointEntry, opts Options) ([]Result, bool) {
	if e.index != nil && e.index.IsEnabled() {
		results, err := e.index.Search(ctx, opts)
		if err == nil {
			return intersect(results, candidates), false
		}
		log.Warn().Err(err).Msg("index search failed, using fallback")
	}

	return Fallback(candidates, opts.Query), true
}

// intersect keeps index results that are in the candidate set, preserving
// the index's ranked order. The index searches the whole store; candidates
// have already been date/project filtered.
func intersect(results []Result, candidates []*models.CheckpointEntry) []Result {
	allowed := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		allowed[c.ID] = true
	}

	kept := results[:0]
	for _, r := range results {
		if allowed[r.Entry.ID] {
			kept = append(kept, r)
		}
	}
	return kept
}
