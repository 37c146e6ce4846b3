// Package similarity provides text similarity and clustering utilities.
package similarity

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/anortham/tusk-sub002/pkg/models"
)

// ErrEmptyCluster is returned when MergeCluster is given an empty cluster.
// BuildClusters never produces one, so seeing this indicates a programming
// error in the caller.
var ErrEmptyCluster = errors.New("cannot merge an empty cluster")

// Cluster is a non-empty group of checkpoint entries judged similar enough
// to represent the same underlying event. Clusters are transient: computed
// per recall request and never persisted.
type Cluster []*models.CheckpointEntry

// BuildClusters partitions entries into similarity clusters using a
// single-pass, seed-relative greedy scan: each unprocessed entry opens a new
// cluster and the remaining entries (in their given order) join it when their
// similarity to the seed meets the threshold. Members are compared only
// against the seed, not against each other, so clusters can contain members
// that are mutually below threshold and the result depends on input order.
// Entries without an ID are excluded.
func BuildClusters(entries []*models.CheckpointEntry, threshold float64) []Cluster {
	processed := make([]bool, len(entries))
	var clusters []Cluster

	for i, seed := range entries {
		if processed[i] || seed.ID == "" {
			continue
		}

		cluster := Cluster{seed}
		processed[i] = true

		for j := i + 1; j < len(entries); j++ {
			if processed[j] || entries[j].ID == "" {
				continue
			}
			if EntrySimilarity(seed, entries[j]) >= threshold {
				cluster = append(cluster, entries[j])
				processed[j] = true
			}
		}

		clusters = append(clusters, cluster)
	}

	return clusters
}

// MergeCluster consolidates a cluster into one representative entry.
//
// A single-element cluster returns its element unchanged. Otherwise the most
// recent member becomes the primary; the merged entry is a copy of it with
// tags and files unioned across members, project/branch/commit taken from the
// first member (most recent first) that has a value, a description suffix
// noting the merge, and ConsolidationInfo describing the merged span.
func MergeCluster(cluster Cluster) (*models.CheckpointEntry, error) {
	if len(cluster) == 0 {
		return nil, ErrEmptyCluster
	}
	if len(cluster) == 1 {
		return cluster[0], nil
	}

	members := make(Cluster, len(cluster))
	copy(members, cluster)
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].CreatedAtEpoch > members[j].CreatedAtEpoch
	})

	primary := members[0]
	merged := primary.Clone()

	merged.Tags = unionStrings(members, true, func(e *models.CheckpointEntry) []string { return e.Tags })
	merged.Files = unionStrings(members, false, func(e *models.CheckpointEntry) []string { return e.Files })
	merged.Project = firstNonEmpty(members, func(e *models.CheckpointEntry) string { return e.Project })
	merged.GitBranch = firstNonEmpty(members, func(e *models.CheckpointEntry) string { return e.GitBranch })
	merged.GitCommit = firstNonEmpty(members, func(e *models.CheckpointEntry) string { return e.GitCommit })

	if identicalDescriptions(members) {
		merged.Description = fmt.Sprintf("%s [%d occurrences]", primary.Description, len(members))
	} else {
		merged.Description = fmt.Sprintf("%s [consolidated from %d similar entries]", primary.Description, len(members))
	}

	earliest := members[len(members)-1]
	mergedIDs := make([]string, 0, len(members))
	for _, m := range members {
		if m.ID != "" {
			mergedIDs = append(mergedIDs, m.ID)
		}
	}
	merged.Consolidation = &models.ConsolidationInfo{
		MergedEntries: len(members),
		MergedIDs:     mergedIDs,
		Earliest:      earliest.CreatedAt,
		Latest:        primary.CreatedAt,
	}

	return merged, nil
}

// identicalDescriptions reports whether all member descriptions are equal
// after normalization, so entries differing only in punctuation count as
// repeat occurrences rather than distinct notes.
func identicalDescriptions(members Cluster) bool {
	first := NormalizeText(members[0].Description)
	for _, m := range members[1:] {
		if NormalizeText(m.Description) != first {
			return false
		}
	}
	return true
}

// unionStrings unions a string field across members, preserving first-seen
// order. Tags compare case-insensitively; file paths compare exactly.
func unionStrings(members Cluster, caseFold bool, field func(*models.CheckpointEntry) []string) models.JSONStringArray {
	seen := make(map[string]bool)
	var union models.JSONStringArray
	for _, m := range members {
		for _, v := range field(m) {
			key := v
			if caseFold {
				key = strings.ToLower(v)
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			union = append(union, v)
		}
	}
	return union
}

func firstNonEmpty(members Cluster, field func(*models.CheckpointEntry) string) string {
	for _, m := range members {
		if v := field(m); v != "" {
			return v
		}
	}
	return ""
}
