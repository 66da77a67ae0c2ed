package interfaces

import (
	"context"

	"github.com/ternarybob/respondeo/internal/models"
)

// ScoredChunk pairs a retrieved chunk with its similarity score. Scores are
// comparable only within the same distance metric and embedding model.
type ScoredChunk struct {
	Chunk *models.Document
	Score float64
}

// VectorIndex is the vector index service boundary. The persistent
// implementation is durable and shared across turns; the ephemeral one lives
// for a single rerank call and is discarded after use.
type VectorIndex interface {
	// Add embeds and stores the documents, returning one id per document in
	// input order. Persistent implementations persist before returning.
	Add(ctx context.Context, docs []*models.Document) ([]string, error)

	// SimilaritySearch embeds the query and returns up to k chunks whose
	// score clears the threshold, ranked by descending score. The threshold
	// is inclusive: a score exactly at the threshold passes.
	SimilaritySearch(ctx context.Context, query string, k int, threshold float64) ([]ScoredChunk, error)

	// Delete removes records by id. Deleting a nonexistent id is a no-op.
	Delete(ids []string) error

	// Persist flushes the index to durable storage. A no-op for ephemeral
	// implementations.
	Persist() error
}
