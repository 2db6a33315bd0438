// Package rank implements lexical query tokenization and entry scoring.
// Matching is keyword-based, not semantic: "react" matches "react", never
// "frontend framework".
package rank

import (
	"strings"
	"unicode"

	"github.com/mindlog/mindlog/internal/model"
)

const (
	// minTermLen drops short tokens that match everything.
	minTermLen = 3

	// summaryWeight and contentWeight bias matches in the summary over
	// matches buried in the body.
	summaryWeight = 3.0
	contentWeight = 1.0
)

// stopwords are common English function words excluded from queries.
var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "but": true,
	"not": true, "you": true, "all": true, "can": true, "had": true,
	"her": true, "was": true, "one": true, "our": true, "out": true,
	"has": true, "have": true, "this": true, "that": true, "with": true,
	"from": true, "they": true, "will": true, "would": true, "there": true,
	"their": true, "what": true, "about": true, "which": true, "when": true,
	"were": true, "been": true, "into": true, "them": true, "then": true,
	"than": true, "some": true, "could": true, "should": true, "does": true,
	"did": true, "how": true, "why": true, "who": true, "where": true,
}

// Tokenize splits a query into lowercase alphanumeric terms, discarding
// stopwords and terms shorter than three characters. Duplicate terms are
// collapsed.
func Tokenize(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := map[string]bool{}
	var terms []string
	for _, f := range fields {
		if len(f) < minTermLen || stopwords[f] {
			continue
		}
		if seen[f] {
			continue
		}
		seen[f] = true
		terms = append(terms, f)
	}
	return terms
}

// Score computes the lexical relevance of an entry for a set of terms.
// Summary matches count more than content matches, and the raw hit count is
// normalized by entry length so long entries do not dominate. Returns 0 when
// nothing matches.
func Score(e model.Entry, terms []string) float64 {
	if len(terms) == 0 {
		return 0
	}

	summary := strings.ToLower(e.Summary)
	content := strings.ToLower(e.Content)

	var hits float64
	for _, term := range terms {
		hits += summaryWeight * float64(strings.Count(summary, term))
		hits += contentWeight * float64(strings.Count(content, term))
	}
	if hits == 0 {
		return 0
	}

	// Normalize by length in term-sized units; +1 avoids division spikes on
	// tiny entries.
	length := float64(len(summary)+len(content))/100.0 + 1.0
	return hits / length
}
