package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/anortham/tusk-sub002/pkg/models"
)

func TestEditDistance_TableDrivenCases(t *testing.T) {
	tests := []struct {
		name     string
		a        string
		b        string
		expected int
	}{
		{name: "both empty", a: "", b: "", expected: 0},
		{name: "one empty", a: "", b: "abc", expected: 3},
		{name: "identical", a: "kitten", b: "kitten", expected: 0},
		{name: "classic kitten sitting", a: "kitten", b: "sitting", expected: 3},
		{name: "single substitution", a: "cat", b: "bat", expected: 1},
		{name: "single insertion", a: "cat", b: "cart", expected: 1},
		{name: "multibyte runes", a: "héllo", b: "hello", expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, EditDistance(tt.a, tt.b))
			// distance is symmetric
			assert.Equal(t, tt.expected, EditDistance(tt.b, tt.a))
		})
	}
}

func TestEditDistance_SelfIsZero(t *testing.T) {
	for _, s := range []string{"", "a", "fixed login bug", "日本語テキスト"} {
		assert.Equal(t, 0, EditDistance(s, s))
	}
}

func TestTextSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a        string
		b        string
		expected float64
	}{
		{name: "both empty", a: "", b: "", expected: 1.0},
		{name: "identical", a: "hello", b: "hello", expected: 1.0},
		{name: "case insensitive", a: "Hello", b: "hello", expected: 1.0},
		{name: "completely different", a: "aaaa", b: "bbbb", expected: 0.0},
		{name: "one empty", a: "abcd", b: "", expected: 0.0},
		{name: "half overlap", a: "ab", b: "aa", expected: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, TextSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestTextSimilarity_Bounds(t *testing.T) {
	pairs := [][2]string{
		{"short", "a much longer string entirely"},
		{"", "x"},
		{"refactored parser", "refactored parser!"},
	}
	for _, p := range pairs {
		sim := TextSimilarity(p[0], p[1])
		assert.GreaterOrEqual(t, sim, 0.0)
		assert.LessOrEqual(t, sim, 1.0)
	}
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{name: "lowercases", in: "Fixed LOGIN Bug", expected: "fixed login bug"},
		{name: "strips punctuation", in: "Fixed login bug!!", expected: "fixed login bug"},
		{name: "collapses whitespace", in: "fixed   login \t bug", expected: "fixed login bug"},
		{name: "empty", in: "", expected: ""},
		{name: "only punctuation", in: "?!...", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeText(tt.in))
		})
	}
}

func TestEntrySimilarity_MetadataBonuses(t *testing.T) {
	base := func() *models.CheckpointEntry {
		return &models.CheckpointEntry{ID: "a", Description: "fixed login bug"}
	}

	e1 := base()
	e2 := base()
	e2.ID = "b"
	assert.InDelta(t, 1.0, EntrySimilarity(e1, e2), 1e-9, "identical descriptions")

	// Shared project adds 0.1 but the total stays capped at 1.
	e1.Project = "tusk"
	e2.Project = "tusk"
	assert.InDelta(t, 1.0, EntrySimilarity(e1, e2), 1e-9)

	// Distinct descriptions: bonuses visibly raise the score.
	e3 := &models.CheckpointEntry{ID: "c", Description: "fixed login bug"}
	e4 := &models.CheckpointEntry{ID: "d", Description: "updated dependencies"}
	plain := EntrySimilarity(e3, e4)

	e3.Project = "tusk"
	e4.Project = "tusk"
	withProject := EntrySimilarity(e3, e4)
	assert.InDelta(t, plain+0.1, withProject, 1e-9)

	e3.GitBranch = "main"
	e4.GitBranch = "main"
	withBranch := EntrySimilarity(e3, e4)
	assert.InDelta(t, withProject+0.05, withBranch, 1e-9)

	e3.Tags = []string{"bug-fix", "auth"}
	e4.Tags = []string{"bug-fix"}
	withTags := EntrySimilarity(e3, e4)
	// overlap 1, union 2 -> + 0.5 * 0.15
	assert.InDelta(t, withBranch+0.075, withTags, 1e-9)
}

func TestEntrySimilarity_EmptyProjectNotShared(t *testing.T) {
	e1 := &models.CheckpointEntry{ID: "a", Description: "alpha"}
	e2 := &models.CheckpointEntry{ID: "b", Description: "omega"}
	without := EntrySimilarity(e1, e2)

	// Both projects empty must not count as "shared project".
	e1.Project = ""
	e2.Project = ""
	assert.InDelta(t, without, EntrySimilarity(e1, e2), 1e-9)
}

func TestEntrySimilarity_SymmetricHeuristic(t *testing.T) {
	e1 := &models.CheckpointEntry{ID: "a", Description: "implemented caching layer", Project: "api", Tags: []string{"performance"}}
	e2 := &models.CheckpointEntry{ID: "b", Description: "implemented cache layer", Project: "api", Tags: []string{"performance", "cache"}}
	assert.InDelta(t, EntrySimilarity(e1, e2), EntrySimilarity(e2, e1), 1e-9)
}
