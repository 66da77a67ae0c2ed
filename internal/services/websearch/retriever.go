package websearch

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
	"github.com/ternarybob/respondeo/internal/services/rerank"
	"github.com/ternarybob/respondeo/internal/services/segment"
)

// Retriever turns a question into web evidence. It searches, fetches the
// result pages concurrently, splits the readable text into chunks, reranks
// the chunks against the question and renders the survivors one evidence
// document per page.
type Retriever struct {
	provider  interfaces.SearchProvider
	fetcher   *Fetcher
	segmenter *segment.Segmenter
	reranker  *rerank.Reranker

	maxResults int
	minLength  int
	logger     arbor.ILogger
}

func NewRetriever(
	provider interfaces.SearchProvider,
	fetcher *Fetcher,
	segmenter *segment.Segmenter,
	reranker *rerank.Reranker,
	maxResults int,
	minLength int,
	logger arbor.ILogger,
) *Retriever {
	return &Retriever{
		provider:   provider,
		fetcher:    fetcher,
		segmenter:  segmenter,
		reranker:   reranker,
		maxResults: maxResults,
		minLength:  minLength,
		logger:     logger,
	}
}

// Retrieve runs the full search pipeline for the given question. Pages that
// fail to fetch or carry too little readable text are skipped, not fatal.
// An empty result with a nil error means the web had nothing relevant.
func (r *Retriever) Retrieve(ctx context.Context, question string) ([]models.EvidenceRef, error) {
	candidates, err := r.provider.Search(ctx, question, r.maxResults)
	if err != nil {
		return nil, fmt.Errorf("web search failed: %w", err)
	}
	if len(candidates) == 0 {
		r.logger.Debug().Str("question", question).Msg("Web search returned no results")
		return nil, nil
	}

	results := r.fetcher.FetchAll(ctx, candidates)

	var groups [][]*models.Document
	for _, res := range results {
		if res.Err != nil {
			r.logger.Debug().Str("url", res.Href).Err(res.Err).Msg("Skipping failed fetch")
			continue
		}
		if !res.HasText(r.minLength) {
			r.logger.Debug().Str("url", res.Href).Int("length", len(res.Text)).Msg("Skipping page with too little text")
			continue
		}

		page := models.NewDocument(res.Text, map[string]string{
			models.MetaURL:   res.Href,
			models.MetaTitle: res.Title,
		})
		chunks, err := r.segmenter.Segment(page)
		if err != nil {
			r.logger.Warn().Str("url", res.Href).Err(err).Msg("Skipping page that failed to split")
			continue
		}
		if len(chunks) > 0 {
			groups = append(groups, chunks)
		}
	}
	if len(groups) == 0 {
		return nil, nil
	}

	kept, err := r.reranker.Rerank(ctx, question, groups)
	if err != nil {
		return nil, fmt.Errorf("failed to rerank web results: %w", err)
	}

	evidence := make([]models.EvidenceRef, 0, len(kept))
	for _, group := range kept {
		evidence = append(evidence, renderGroup(group))
	}

	r.logger.Info().
		Str("question", question).
		Int("pages_fetched", len(results)).
		Int("pages_kept", len(evidence)).
		Msg("Web retrieval complete")

	return evidence, nil
}

// renderGroup flattens one page's surviving chunks into a single evidence
// document: the page title first, then each chunk under its header line.
func renderGroup(group []*models.Document) models.EvidenceRef {
	title := group[0].Metadata[models.MetaTitle]
	url := group[0].Metadata[models.MetaURL]

	var b strings.Builder
	b.WriteString("# ")
	b.WriteString(title)
	b.WriteString("\n")
	for _, chunk := range group {
		// Chunk headers sit one level below the page title.
		if line := chunk.TitleLine(); line != "# " {
			b.WriteString("\n#")
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(chunk.Content)
		b.WriteString("\n")
	}

	return models.EvidenceRef{
		Name:    title,
		Source:  url,
		Content: b.String(),
	}
}
