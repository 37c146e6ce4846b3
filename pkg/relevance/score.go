// Package relevance scores checkpoint entries for recall ranking.
//
// A score is a weighted combination of five sub-scores, each in [0, 1]:
// recency (exponential decay), tag importance, completion signal, git
// activity and uniqueness. The final result is clamped to [0, 1]; the
// weights themselves are not renormalized, so callers choosing custom
// weights are responsible for keeping the weighted sum in range.
package relevance

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/anortham/tusk-sub002/pkg/models"
)

// recencyDecayDays is the characteristic time of the recency decay:
// an entry one week old scores exp(-1) ≈ 0.37 on the recency axis.
const recencyDecayDays = 7.0

// Weights holds the non-negative factor weights for scoring.
type Weights struct {
	Recency     float64 `yaml:"recency" json:"recency"`
	Tags        float64 `yaml:"tags" json:"tags"`
	Completion  float64 `yaml:"completion" json:"completion"`
	GitActivity float64 `yaml:"git_activity" json:"git_activity"`
	Uniqueness  float64 `yaml:"uniqueness" json:"uniqueness"`
}

// DefaultWeights returns the standard weights, which sum to 1.
func DefaultWeights() Weights {
	return Weights{
		Recency:     0.3,
		Tags:        0.2,
		Completion:  0.2,
		GitActivity: 0.15,
		Uniqueness:  0.15,
	}
}

// importantTags score 0.3 each instead of the base 0.1.
var importantTags = map[string]bool{
	"critical":     true,
	"important":    true,
	"breakthrough": true,
	"milestone":    true,
	"completed":    true,
	"bug-fix":      true,
}

// completionKeywords mark a description as describing finished work.
var completionKeywords = []string{
	"completed", "finished", "fixed", "implemented", "resolved", "deployed", "done",
}

// ScoredEntry is an entry annotated with its relevance score.
type ScoredEntry struct {
	*models.CheckpointEntry
	Relevance float64 `json:"relevance"`
}

// Score computes the relevance of an entry relative to referenceDate,
// always in [0, 1]. It is a total function over well-formed entries.
func Score(e *models.CheckpointEntry, w Weights, referenceDate time.Time) float64 {
	score := w.Recency*recencyScore(e, referenceDate) +
		w.Tags*tagScore(e.Tags) +
		w.Completion*completionScore(e.Description) +
		w.GitActivity*gitActivityScore(e) +
		w.Uniqueness*uniquenessScore(e)

	if score > 1.0 {
		return 1.0
	}
	if score < 0 {
		return 0
	}
	return score
}

// SortByRelevance scores entries and returns them sorted by score
// descending. Entries without an ID are excluded. Tie order is
// unspecified and must not be relied upon.
func SortByRelevance(entries []*models.CheckpointEntry, w Weights, referenceDate time.Time) []ScoredEntry {
	scored := make([]ScoredEntry, 0, len(entries))
	for _, e := range entries {
		if e.ID == "" {
			continue
		}
		scored = append(scored, ScoredEntry{
			CheckpointEntry: e,
			Relevance:       Score(e, w, referenceDate),
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		return scored[i].Relevance > scored[j].Relevance
	})
	return scored
}

// FilterByRelevance keeps entries whose score meets the threshold.
func FilterByRelevance(entries []*models.CheckpointEntry, threshold float64, w Weights, referenceDate time.Time) []*models.CheckpointEntry {
	var kept []*models.CheckpointEntry
	for _, e := range entries {
		if e.ID == "" {
			continue
		}
		if Score(e, w, referenceDate) >= threshold {
			kept = append(kept, e)
		}
	}
	return kept
}

// recencyScore decays exponentially with age. Entries dated after the
// reference yield a value above 1 before the final clamp; that edge case is
// accepted rather than corrected.
func recencyScore(e *models.CheckpointEntry, referenceDate time.Time) float64 {
	days := referenceDate.Sub(e.Timestamp()).Hours() / 24
	return math.Exp(-days / recencyDecayDays)
}

// tagScore sums 0.3 per important tag and 0.1 per other tag, clamped to 1.
// Tags are treated as a case-insensitive set.
func tagScore(tags []string) float64 {
	if len(tags) == 0 {
		return 0
	}

	seen := make(map[string]bool, len(tags))
	total := 0.0
	for _, tag := range tags {
		key := strings.ToLower(tag)
		if seen[key] {
			continue
		}
		seen[key] = true
		if importantTags[key] {
			total += 0.3
		} else {
			total += 0.1
		}
	}

	if total > 1.0 {
		return 1.0
	}
	return total
}

func completionScore(description string) float64 {
	lower := strings.ToLower(description)
	for _, kw := range completionKeywords {
		if strings.Contains(lower, kw) {
			return 1.0
		}
	}
	return 0.5
}

func gitActivityScore(e *models.CheckpointEntry) float64 {
	switch {
	case e.GitCommit != "":
		return 1.0
	case e.GitBranch != "":
		return 0.7
	default:
		return 0.3
	}
}

// uniquenessScore penalizes heavily-merged entries, floored at 0.3.
func uniquenessScore(e *models.CheckpointEntry) float64 {
	if e.Consolidation == nil {
		return 1.0
	}
	penalized := 1.0 - float64(e.Consolidation.MergedEntries-1)*0.1
	return math.Max(0.3, penalized)
}
