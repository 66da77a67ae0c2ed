package retriever

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
)

const (
	// DefaultMaxDocuments is the number of chunks returned per question.
	DefaultMaxDocuments = 10
	// DefaultMinSimilarity is the inclusive relevance cutoff.
	DefaultMinSimilarity = 0.40
	// poolFactor widens the index scan before the final cut.
	poolFactor = 5
)

// Retriever answers questions from the persistent index over uploaded
// files. An empty result with a nil error means nothing indexed was
// relevant enough; a failed index operation is an IndexError and the caller
// decides the fallback.
type Retriever struct {
	index         interfaces.VectorIndex
	maxDocuments  int
	minSimilarity float64
	logger        arbor.ILogger
}

func NewRetriever(index interfaces.VectorIndex, maxDocuments int, minSimilarity float64, logger arbor.ILogger) *Retriever {
	if maxDocuments <= 0 {
		maxDocuments = DefaultMaxDocuments
	}
	return &Retriever{
		index:         index,
		maxDocuments:  maxDocuments,
		minSimilarity: minSimilarity,
		logger:        logger,
	}
}

// Retrieve returns the most relevant indexed chunks as evidence, best
// first. The index is scanned with a widened candidate pool before the
// final cut to maxDocuments.
func (r *Retriever) Retrieve(ctx context.Context, question string) ([]models.EvidenceRef, error) {
	pool := r.maxDocuments * poolFactor
	scored, err := r.index.SimilaritySearch(ctx, question, pool, r.minSimilarity)
	if err != nil {
		return nil, fmt.Errorf("file retrieval failed: %w", err)
	}

	if len(scored) > r.maxDocuments {
		scored = scored[:r.maxDocuments]
	}

	evidence := make([]models.EvidenceRef, 0, len(scored))
	for _, sc := range scored {
		evidence = append(evidence, renderChunk(sc))
	}

	r.logger.Debug().
		Str("question", question).
		Int("chunks", len(evidence)).
		Msg("File retrieval complete")

	return evidence, nil
}

// renderChunk formats one retrieved chunk as a self-describing evidence
// document named after its source file.
func renderChunk(sc interfaces.ScoredChunk) models.EvidenceRef {
	name := sc.Chunk.Metadata[models.MetaFileName]
	if name == "" {
		name = sc.Chunk.Metadata[models.MetaTitle]
	}

	var b strings.Builder
	if line := sc.Chunk.TitleLine(); line != "# " {
		b.WriteString(line)
		b.WriteString("\n\n")
	}
	b.WriteString(sc.Chunk.Content)

	return models.EvidenceRef{
		Name:    name,
		Source:  name,
		Content: b.String(),
		Score:   sc.Score,
	}
}
