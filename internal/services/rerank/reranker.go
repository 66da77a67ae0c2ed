package rerank

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
)

const (
	// DefaultTopK is the maximum number of chunks kept across all pages.
	DefaultTopK = 20
	// DefaultMinSimilarity is the inclusive relevance cutoff.
	DefaultMinSimilarity = 0.30
)

// Reranker filters freshly fetched page chunks down to the ones most
// relevant to the question. Each call builds a throwaway index over every
// chunk in every group, queries it once, then reconstitutes the surviving
// chunks back into their original per-page groupings.
type Reranker struct {
	embedder      interfaces.EmbeddingService
	topK          int
	minSimilarity float64
	logger        arbor.ILogger
}

func NewReranker(embedder interfaces.EmbeddingService, topK int, minSimilarity float64, logger arbor.ILogger) *Reranker {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Reranker{
		embedder:      embedder,
		topK:          topK,
		minSimilarity: minSimilarity,
		logger:        logger,
	}
}

// Rerank scores every chunk against the query and returns the surviving
// groups. The result preserves the input ordering: groups stay in their
// original order and within each group chunks keep their original order,
// with unselected chunks removed. Groups left empty are dropped. Chunks
// are scored with their title line prepended so headers count towards
// relevance, but the returned documents are the originals.
func (r *Reranker) Rerank(ctx context.Context, query string, groups [][]*models.Document) ([][]*models.Document, error) {
	var flat []*models.Document
	for _, group := range groups {
		flat = append(flat, group...)
	}
	if len(flat) == 0 {
		return nil, nil
	}

	annotated := make([]*models.Document, len(flat))
	for i, doc := range flat {
		annotated[i] = doc.WithTitle()
	}

	index := newEphemeralIndex(r.embedder)
	if _, err := index.Add(ctx, annotated); err != nil {
		return nil, fmt.Errorf("failed to build rerank index: %w", err)
	}

	selected, err := index.SimilaritySearch(ctx, query, r.topK, r.minSimilarity)
	if err != nil {
		return nil, fmt.Errorf("rerank search failed: %w", err)
	}

	keep := make(map[string]bool, len(selected))
	for _, sc := range selected {
		keep[sc.Chunk.SplitID()] = true
	}

	var result [][]*models.Document
	for _, group := range groups {
		var kept []*models.Document
		for _, doc := range group {
			if keep[doc.SplitID()] {
				kept = append(kept, doc)
			}
		}
		if len(kept) > 0 {
			result = append(result, kept)
		}
	}

	r.logger.Debug().
		Int("chunks_in", len(flat)).
		Int("chunks_kept", len(selected)).
		Int("groups_out", len(result)).
		Msg("Reranked fetched chunks")

	return result, nil
}
