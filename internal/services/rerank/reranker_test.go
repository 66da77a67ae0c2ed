package rerank

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/models"
)

// topicEmbedder assigns axis-aligned unit vectors by keyword so similarity
// is 1.0 for matching topics and 0.0 otherwise.
type topicEmbedder struct{}

func (topicEmbedder) embed(text string) []float32 {
	switch {
	case strings.Contains(strings.ToLower(text), "tide"):
		return []float32{1, 0, 0}
	case strings.Contains(strings.ToLower(text), "moon"):
		return []float32{0.8, 0.6, 0}
	default:
		return []float32{0, 0, 1}
	}
}

func (e topicEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return e.embed(text), nil
}

func (e topicEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.embed(t)
	}
	return out, nil
}

func (topicEmbedder) ModelName() string { return "topic-test" }
func (topicEmbedder) Dimension() int    { return 3 }

func chunk(url, content string, i string) *models.Document {
	return models.NewDocument(content, map[string]string{
		models.MetaURL:     url,
		models.MetaSplitID: url + "-" + i,
	})
}

func TestRerankKeepsRelevantChunksInOriginalOrder(t *testing.T) {
	groups := [][]*models.Document{
		{
			chunk("https://a.test", "Tides are caused by gravity.", "0"),
			chunk("https://a.test", "Unrelated recipe for soup.", "1"),
			chunk("https://a.test", "The moon pulls the ocean.", "2"),
		},
		{
			chunk("https://b.test", "Football scores from last night.", "0"),
		},
		{
			chunk("https://c.test", "Spring tides happen twice a month.", "0"),
		},
	}

	reranker := NewReranker(topicEmbedder{}, 20, 0.30, arbor.NewLogger())
	result, err := reranker.Rerank(context.Background(), "why do tides happen", groups)
	require.NoError(t, err)

	require.Len(t, result, 2)
	require.Len(t, result[0], 2)
	assert.Equal(t, "https://a.test-0", result[0][0].SplitID())
	assert.Equal(t, "https://a.test-2", result[0][1].SplitID())
	assert.Equal(t, "https://c.test-0", result[1][0].SplitID())
}

func TestRerankThresholdIsInclusive(t *testing.T) {
	groups := [][]*models.Document{
		{chunk("https://m.test", "The moon pulls the ocean.", "0")},
	}

	// moon vector scores exactly 0.8 against the tide axis
	reranker := NewReranker(topicEmbedder{}, 20, 0.80, arbor.NewLogger())
	result, err := reranker.Rerank(context.Background(), "tide", groups)
	require.NoError(t, err)
	require.Len(t, result, 1)

	reranker = NewReranker(topicEmbedder{}, 20, 0.81, arbor.NewLogger())
	result, err = reranker.Rerank(context.Background(), "tide", groups)
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestRerankTopKCapsAcrossGroups(t *testing.T) {
	var group []*models.Document
	for i := 0; i < 5; i++ {
		group = append(group, chunk("https://a.test", "Tides again.", string(rune('0'+i))))
	}

	reranker := NewReranker(topicEmbedder{}, 3, 0.30, arbor.NewLogger())
	result, err := reranker.Rerank(context.Background(), "tide", [][]*models.Document{group})
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Len(t, result[0], 3)
}

func TestRerankEmptyInput(t *testing.T) {
	reranker := NewReranker(topicEmbedder{}, 20, 0.30, arbor.NewLogger())
	result, err := reranker.Rerank(context.Background(), "anything", nil)
	require.NoError(t, err)
	assert.Empty(t, result)
}

