// Package search provides the full-text search capability for tusk.
package search

import (
	"fmt"
	"strings"
)

// ValidationResult is the outcome of query syntax validation. Malformed
// queries are reported here, never thrown across the recall boundary.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// ValidateQuery checks boolean/phrase syntax: balanced quotes, no dangling
// or doubled AND/OR operators. An empty query is valid (matches everything).
func ValidateQuery(query string) ValidationResult {
	var errs []string

	if strings.Count(query, `"`)%2 != 0 {
		errs = append(errs, "unbalanced quotes in query")
	}

	tokens := tokenize(query)
	prevOp := true // treat start-of-query like "after an operator"
	for i, tok := range tokens {
		if !isOperator(tok) {
			prevOp = false
			continue
		}
		if prevOp {
			errs = append(errs, fmt.Sprintf("operator %s has no left operand", tok))
		}
		if i == len(tokens)-1 {
			errs = append(errs, fmt.Sprintf("operator %s has no right operand", tok))
		}
		prevOp = true
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// EscapeQuery quotes untrusted text for safe embedding in a structured FTS5
// query, preventing syntax injection.
func EscapeQuery(text string) string {
	return `"` + strings.ReplaceAll(text, `"`, `""`) + `"`
}

// buildMatchExpression translates a user query into an FTS5 MATCH
// expression. Exact mode matches the whole query as a single phrase; fuzzy
// mode prefix-expands bare terms. Quoted phrases and AND/OR operators pass
// through, with every term quoted to defuse FTS5 syntax.
func buildMatchExpression(query string, exact bool) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return ""
	}

	if exact {
		return EscapeQuery(strings.Trim(query, `"`))
	}

	var parts []string
	for _, tok := range tokenize(query) {
		switch {
		case isOperator(tok):
			parts = append(parts, strings.ToUpper(tok))
		case strings.HasPrefix(tok, `"`):
			// Quoted phrase: exact, no prefix expansion.
			parts = append(parts, EscapeQuery(strings.Trim(tok, `"`)))
		default:
			parts = append(parts, EscapeQuery(tok)+"*")
		}
	}
	return strings.Join(parts, " ")
}

// tokenize splits a query into words, operators and quoted phrases.
// Phrases keep their surrounding quotes.
func tokenize(query string) []string {
	var tokens []string
	var current strings.Builder
	inQuotes := false

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	for _, r := range query {
		switch {
		case r == '"':
			current.WriteRune(r)
			if inQuotes {
				flush()
			}
			inQuotes = !inQuotes
		case !inQuotes && (r == ' ' || r == '\t' || r == '\n'):
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()

	return tokens
}

func isOperator(tok string) bool {
	upper := strings.ToUpper(tok)
	return upper == "AND" || upper == "OR"
}
