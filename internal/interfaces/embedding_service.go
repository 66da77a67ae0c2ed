package interfaces

import "context"

// EmbeddingService generates vector embeddings. Implementations normalize
// vectors to unit length so inner products are comparable cosine
// similarities.
type EmbeddingService interface {
	// EmbedQuery generates an embedding for a search query.
	EmbedQuery(ctx context.Context, query string) ([]float32, error)

	// EmbedDocuments generates embeddings for document texts, one vector
	// per input, input order preserved.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// ModelName returns the embedding model identifier.
	ModelName() string

	// Dimension returns the embedding dimension.
	Dimension() int
}
