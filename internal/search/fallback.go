// Package search provides the full-text search capability for tusk.
package search

import (
	"strings"

	"github.com/anortham/tusk-sub002/pkg/models"
)

// Fallback performs a naive case-insensitive substring match across
// description, project, branch and tags. It is always available and is the
// active path whenever the FTS index is disabled, mid-migration or failed.
// Results carry no scores, highlights or matched fields.
func Fallback(entries []*models.CheckpointEntry, query string) []Result {
	needle := strings.ToLower(strings.Trim(strings.TrimSpace(query), `"`))
	if needle == "" {
		results := make([]Result, len(entries))
		for i, e := range entries {
			results[i] = Result{Entry: e}
		}
		return results
	}

	var results []Result
	for _, e := range entries {
		if fallbackMatches(e, needle) {
			results = append(results, Result{Entry: e})
		}
	}
	return results
}

func fallbackMatches(e *models.CheckpointEntry, needle string) bool {
	if strings.Contains(strings.ToLower(e.Description), needle) ||
		strings.Contains(strings.ToLower(e.Project), needle) ||
		strings.Contains(strings.ToLower(e.GitBranch), needle) {
		return true
	}
	for _, tag := range e.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}
