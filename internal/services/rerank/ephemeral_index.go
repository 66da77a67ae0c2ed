package rerank

import (
	"context"
	"fmt"
	"sort"

	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
)

// ephemeralIndex is a process-scoped vector index over freshly fetched
// chunks. It exists for a single rerank call and is discarded after use,
// never shared and never persisted.
type ephemeralIndex struct {
	embedder interfaces.EmbeddingService
	entries  []indexEntry
}

type indexEntry struct {
	embedding []float32
	chunk     *models.Document
}

func newEphemeralIndex(embedder interfaces.EmbeddingService) *ephemeralIndex {
	return &ephemeralIndex{embedder: embedder}
}

// Add embeds the documents and stores them. Returns the split ids as the
// record ids.
func (idx *ephemeralIndex) Add(ctx context.Context, docs []*models.Document) ([]string, error) {
	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Content
	}

	embeddings, err := idx.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(embeddings) != len(docs) {
		return nil, fmt.Errorf("embedding count mismatch: %d texts, %d vectors", len(docs), len(embeddings))
	}

	ids := make([]string, len(docs))
	for i, doc := range docs {
		idx.entries = append(idx.entries, indexEntry{embedding: embeddings[i], chunk: doc})
		ids[i] = doc.SplitID()
	}
	return ids, nil
}

// SimilaritySearch returns up to k chunks scoring at or above the threshold,
// best first. Ties keep insertion order.
func (idx *ephemeralIndex) SimilaritySearch(ctx context.Context, query string, k int, threshold float64) ([]interfaces.ScoredChunk, error) {
	queryVec, err := idx.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	scored := make([]interfaces.ScoredChunk, 0, len(idx.entries))
	for _, entry := range idx.entries {
		score := common.DotProduct(queryVec, entry.embedding)
		if score >= threshold {
			scored = append(scored, interfaces.ScoredChunk{Chunk: entry.chunk, Score: score})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

func (idx *ephemeralIndex) Delete(ids []string) error { return nil }
func (idx *ephemeralIndex) Persist() error            { return nil }
