package segment

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/respondeo/internal/models"
)

func testDoc(content string) *models.Document {
	return models.NewDocument(content, map[string]string{
		models.MetaURL:   "https://example.com/page",
		models.MetaTitle: "Example Page",
	})
}

func TestSegment_MarkdownHeaders(t *testing.T) {
	content := `intro text before any heading

# Alpha

alpha body

## Beta

beta body

# Gamma

gamma body`

	chunks, err := NewSegmenter(arbor.NewLogger()).Segment(testDoc(content))
	require.NoError(t, err)
	require.Len(t, chunks, 4)

	// Preamble chunk has no header metadata.
	assert.Equal(t, "intro text before any heading", chunks[0].Content)
	assert.Empty(t, chunks[0].Metadata["H1"])

	assert.Equal(t, "alpha body", chunks[1].Content)
	assert.Equal(t, "Alpha", chunks[1].Metadata["H1"])

	assert.Equal(t, "beta body", chunks[2].Content)
	assert.Equal(t, "Alpha", chunks[2].Metadata["H1"])
	assert.Equal(t, "Beta", chunks[2].Metadata["H2"])

	// A new H1 clears the deeper levels.
	assert.Equal(t, "gamma body", chunks[3].Content)
	assert.Equal(t, "Gamma", chunks[3].Metadata["H1"])
	assert.Empty(t, chunks[3].Metadata["H2"])
}

func TestSegment_SplitIDsStableAndUnique(t *testing.T) {
	content := "# A\n\none\n\n# B\n\ntwo"
	segmenter := NewSegmenter(arbor.NewLogger())

	first, err := segmenter.Segment(testDoc(content))
	require.NoError(t, err)
	second, err := segmenter.Segment(testDoc(content))
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	seen := map[string]bool{}
	for i := range first {
		id := first[i].SplitID()
		assert.Equal(t, id, second[i].SplitID(), "split ids must be stable across re-splits")
		assert.False(t, seen[id], "split ids must be unique within a parent")
		seen[id] = true
		assert.True(t, strings.HasPrefix(id, "https://example.com/page-"))
	}
}

func TestSegment_CodeFenceHashesDoNotSplit(t *testing.T) {
	content := "# Real Heading\n\nbody\n\n```\n# not a heading\n```\n\ntail"

	chunks, err := NewSegmenter(arbor.NewLogger()).Segment(testDoc(content))
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0].Content, "# not a heading")
	assert.Equal(t, "Real Heading", chunks[0].Metadata["H1"])
}

func TestSegment_WindowFallback(t *testing.T) {
	content := strings.Repeat("a", 950)

	chunks, err := NewSegmenter(arbor.NewLogger()).Segment(testDoc(content))
	require.NoError(t, err)

	// 950 runes, window 400, step 380: windows at 0, 380, 760.
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0].Content, 400)
	assert.Len(t, chunks[1].Content, 400)
	assert.Len(t, chunks[2].Content, 190)
	assert.Equal(t, "https://example.com/page-2", chunks[2].SplitID())
}

func TestSegment_InvalidUTF8(t *testing.T) {
	doc := testDoc("valid prefix \xff\xfe invalid")

	_, err := NewSegmenter(arbor.NewLogger()).Segment(doc)
	var decodeErr *models.DecodeError
	require.True(t, errors.As(err, &decodeErr))
}

func TestSegment_EmptyDocument(t *testing.T) {
	chunks, err := NewSegmenter(arbor.NewLogger()).Segment(testDoc(""))
	require.NoError(t, err)
	assert.Empty(t, chunks, "no extractable text is a valid empty result, not an error")
}

func TestTitleLine(t *testing.T) {
	doc := models.NewDocument("body", map[string]string{
		"H1": "Top", "H2": "Middle", "H4": "Deep",
	})
	assert.Equal(t, "# Top - Middle - Deep", doc.TitleLine())

	withTitle := doc.WithTitle()
	assert.Equal(t, "# Top - Middle - Deep\nbody", withTitle.Content)
	// Original document is untouched.
	assert.Equal(t, "body", doc.Content)
}
