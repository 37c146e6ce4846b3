// Package similarity provides text similarity and clustering utilities.
package similarity

import (
	"strings"
	"unicode"

	"github.com/anortham/tusk-sub002/pkg/models"
)

// Bonus weights applied on top of the description similarity when two
// entries share structural metadata.
const (
	projectBonus    = 0.1
	tagOverlapBonus = 0.15
	branchBonus     = 0.05
)

// EditDistance computes the Levenshtein distance between two strings over
// their code-point sequences. Insertions, deletions and substitutions each
// cost 1. Symmetric: EditDistance(a, b) == EditDistance(b, a).
func EditDistance(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)

	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	// Two-row DP over the classic edit distance matrix.
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := 0; j <= len(rb); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = minInt(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(rb)]
}

// TextSimilarity returns a normalized similarity in [0, 1] between two
// strings: 1 - editDistance(lower(a), lower(b)) / max(len(a), len(b)).
// Two empty strings are defined as identical (1.0).
func TextSimilarity(a, b string) float64 {
	la := len([]rune(a))
	lb := len([]rune(b))
	if la == 0 && lb == 0 {
		return 1.0
	}

	maxLen := la
	if lb > maxLen {
		maxLen = lb
	}

	dist := EditDistance(strings.ToLower(a), strings.ToLower(b))
	return 1.0 - float64(dist)/float64(maxLen)
}

// EntrySimilarity computes a composite semantic similarity in [0, 1] between
// two checkpoint entries. The base is the text similarity of their normalized
// descriptions; shared project, overlapping tags and a shared branch each add
// a bonus, capped so the running total never exceeds 1.
//
// This is a heuristic: order-insensitive but not a metric, so callers must
// not rely on transitivity.
func EntrySimilarity(e1, e2 *models.CheckpointEntry) float64 {
	sim := TextSimilarity(NormalizeText(e1.Description), NormalizeText(e2.Description))

	if e1.Project != "" && e1.Project == e2.Project {
		sim = capAt1(sim + projectBonus)
	}

	if overlap, union := tagOverlap(e1.Tags, e2.Tags); union > 0 {
		sim = capAt1(sim + float64(overlap)/float64(union)*tagOverlapBonus)
	}

	if e1.GitBranch != "" && e1.GitBranch == e2.GitBranch {
		sim = capAt1(sim + branchBonus)
	}

	return sim
}

// NormalizeText lowercases, collapses punctuation to whitespace and squeezes
// whitespace runs, so descriptions differing only in punctuation compare
// as equal.
func NormalizeText(s string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)

	return strings.Join(strings.Fields(mapped), " ")
}

// tagOverlap returns the intersection and union sizes of two tag sets,
// compared case-insensitively.
func tagOverlap(t1, t2 []string) (overlap, union int) {
	set1 := make(map[string]bool, len(t1))
	for _, t := range t1 {
		set1[strings.ToLower(t)] = true
	}
	set2 := make(map[string]bool, len(t2))
	for _, t := range t2 {
		set2[strings.ToLower(t)] = true
	}

	for t := range set1 {
		if set2[t] {
			overlap++
		}
	}
	union = len(set1) + len(set2) - overlap
	return overlap, union
}

func capAt1(v float64) float64 {
	if v > 1.0 {
		return 1.0
	}
	return v
}

func minInt(vals ...int) int {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
