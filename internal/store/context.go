package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/mindlog/mindlog/internal/model"
)

// CharsPerToken is the fixed character-to-token ratio used to estimate
// context cost. It intentionally trades accuracy for determinism and zero
// dependency on tokenizer vocabularies.
const CharsPerToken = 4

// renderOverheadChars approximates the rendered envelope around each entry
// (kind tag, timestamp, separators).
const renderOverheadChars = 40

const (
	defaultRecentCount   = 20
	defaultRelevantCount = 10
	defaultMaxTokens     = 2000
)

// EstimateTokens returns the estimated token cost of rendering an entry.
func EstimateTokens(e model.Entry) int {
	chars := len(e.Summary) + len(e.Content) + renderOverheadChars
	return (chars + CharsPerToken - 1) / CharsPerToken
}

// BuildContext assembles a token-budgeted bundle of recent and relevant
// entries for session-start injection. Recents are included first (newest
// first), then search hits in score order, skipping ids already included.
// Assembly stops before the running estimate would exceed the budget and
// marks the result truncated instead.
func (s *FileStore) BuildContext(p ContextParams) (*ContextResult, error) {
	if p.MaxTokens <= 0 {
		p.MaxTokens = defaultMaxTokens
	}
	if p.RecentCount <= 0 {
		p.RecentCount = defaultRecentCount
	}
	if p.RelevantCount <= 0 {
		p.RelevantCount = defaultRelevantCount
	}

	entries, err := s.ReadAll()
	if err != nil {
		return nil, err
	}

	recents := entries
	if len(recents) > p.RecentCount {
		recents = recents[len(recents)-p.RecentCount:]
	}

	var relevant []Scored
	if strings.TrimSpace(p.Query) != "" {
		relevant, err = s.Search(SearchParams{Query: p.Query, Limit: p.RelevantCount})
		if err != nil {
			return nil, err
		}
	}

	result := &ContextResult{
		Recent:   []model.Entry{},
		Relevant: []Scored{},
		Budget:   p.MaxTokens,
	}
	included := map[string]bool{}
	used := 0

	// Recent bucket, newest first.
	for i := len(recents) - 1; i >= 0; i-- {
		e := recents[i]
		cost := EstimateTokens(e)
		if used+cost > p.MaxTokens {
			result.Truncated = true
			result.UsedTokens = used
			return result, nil
		}
		result.Recent = append(result.Recent, e)
		included[e.ID] = true
		used += cost
	}

	// Relevant bucket, score order, duplicates skipped.
	for _, sc := range relevant {
		if included[sc.ID] {
			continue
		}
		cost := EstimateTokens(sc.Entry)
		if used+cost > p.MaxTokens {
			result.Truncated = true
			break
		}
		result.Relevant = append(result.Relevant, sc)
		included[sc.ID] = true
		used += cost
	}

	result.UsedTokens = used
	return result, nil
}

// RenderContext formats an assembled context as the plain-text injection
// payload handed to the host at session start.
func RenderContext(r *ContextResult) string {
	if r == nil || (len(r.Recent) == 0 && len(r.Relevant) == 0) {
		return ""
	}

	var b strings.Builder
	b.WriteString("# Project memory\n")

	if len(r.Recent) > 0 {
		b.WriteString("\n## Recent observations\n")
		for _, e := range r.Recent {
			writeEntryLine(&b, e)
		}
	}
	if len(r.Relevant) > 0 {
		b.WriteString("\n## Relevant observations\n")
		for _, sc := range r.Relevant {
			writeEntryLine(&b, sc.Entry)
		}
	}
	if r.Truncated {
		b.WriteString("\n(older observations omitted to fit the context budget)\n")
	}
	return b.String()
}

func writeEntryLine(b *strings.Builder, e model.Entry) {
	ts := e.Created().UTC().Format(time.DateOnly)
	fmt.Fprintf(b, "- [%s] %s %s", e.Kind, ts, e.Summary)
	if e.Content != "" && e.Content != e.Summary {
		fmt.Fprintf(b, "\n  %s", strings.ReplaceAll(e.Content, "\n", "\n  "))
	}
	b.WriteString("\n")
}
