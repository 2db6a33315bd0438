package store

import (
	"sort"

	"github.com/mindlog/mindlog/internal/rank"
)

// Search finds entries lexically matching the query, ordered by score
// descending with ties broken by recency. Matching is keyword-based only;
// synonyms do not match. At most Limit results are returned (default 20).
func (s *FileStore) Search(p SearchParams) ([]Scored, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}

	terms := rank.Tokenize(p.Query)
	if len(terms) == 0 {
		return nil, nil
	}

	entries, err := s.ReadAll()
	if err != nil {
		return nil, err
	}

	var results []Scored
	for _, e := range entries {
		if score := rank.Score(e, terms); score > 0 {
			results = append(results, Scored{Entry: e, Score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].CreatedAt > results[j].CreatedAt
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Ask retrieves entries relevant to a natural-language question. The
// question runs through the same stopword-filtered tokenization as Search;
// there is no answer generation, only retrieval.
func (s *FileStore) Ask(question string, limit int) ([]Scored, error) {
	return s.Search(SearchParams{Query: question, Limit: limit})
}
