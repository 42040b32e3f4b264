// Package retrieval ranks stored documents against a chat message by literal
// substring counting. It is not a tokenizer or a relevance model: a query of
// "the" also matches inside "there".
package retrieval

import (
	"sort"
	"strings"

	"supportdesk/internal/model"
)

const DefaultLimit = 3

// ScoredDocument pairs a document with the number of times the query occurs in its text.
type ScoredDocument struct {
	Document model.Document
	Score    int
}

// Retrieve returns at most limit documents whose text contains query, case-insensitively,
// ranked by occurrence count. Ties keep corpus order.
func Retrieve(query string, corpus []model.Document, limit int) []ScoredDocument {
	if query == "" || len(corpus) == 0 {
		return nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	needle := strings.ToLower(query)
	scored := make([]ScoredDocument, 0, len(corpus))
	for _, doc := range corpus {
		score := strings.Count(strings.ToLower(doc.Text), needle)
		if score == 0 {
			continue
		}
		scored = append(scored, ScoredDocument{Document: doc, Score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}
