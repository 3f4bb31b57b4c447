// Package retrieval ranks stored knowledge documents against a query
// embedding by cosine similarity.
package retrieval

import (
	"sort"

	"savannatrails-concierge/internal/model"
)

const (
	// DefaultMaxCandidates bounds how many documents are fetched from storage
	// per request.
	DefaultMaxCandidates = 40
	// DefaultTopK is how many ranked candidates survive the cut.
	DefaultTopK = 6
	// DefaultRelevanceFloor is the score at or below which a candidate is
	// considered noise rather than context.
	DefaultRelevanceFloor = 0.15
)

// ScoredDocument pairs a document with its similarity to the query.
type ScoredDocument struct {
	Document   model.Document
	Similarity float32
}

// Ranker orders candidate documents by cosine similarity to a query vector.
type Ranker struct {
	topK  int
	floor float32
}

func NewRanker(topK int, floor float32) *Ranker {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Ranker{topK: topK, floor: floor}
}

// Rank scores every candidate against query, sorts descending (stable, so
// ties keep fetch order), keeps the top K, and drops anything at or below the
// relevance floor. Candidates with malformed or missing embeddings score 0
// rather than failing the request.
func (r *Ranker) Rank(query []float32, candidates []model.Document) []ScoredDocument {
	if len(query) == 0 || len(candidates) == 0 {
		return nil
	}

	q := Normalize(query)
	scored := make([]ScoredDocument, len(candidates))
	for i := range candidates {
		scored[i] = ScoredDocument{
			Document:   candidates[i],
			Similarity: dot(q, Normalize(candidates[i].EmbeddingVector())),
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})

	k := r.topK
	if k > len(scored) {
		k = len(scored)
	}
	scored = scored[:k]

	relevant := scored[:0]
	for _, s := range scored {
		if s.Similarity > r.floor {
			relevant = append(relevant, s)
		}
	}
	if len(relevant) == 0 {
		return nil
	}
	return relevant
}
