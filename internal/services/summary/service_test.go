package summary

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
	"github.com/ternarybob/respondeo/internal/services/prompts"
)

// scriptedLLM returns a fixed response and records the last request.
type scriptedLLM struct {
	response string
	err      error
	lastReq  *interfaces.CompletionRequest
}

func (m *scriptedLLM) Complete(_ context.Context, req *interfaces.CompletionRequest) (string, error) {
	m.lastReq = req
	return m.response, m.err
}

func (m *scriptedLLM) CompleteStream(_ context.Context, req *interfaces.CompletionRequest) (<-chan interfaces.Token, error) {
	m.lastReq = req
	out := make(chan interfaces.Token, 1)
	out <- interfaces.Token{Text: m.response}
	close(out)
	return out, nil
}

func (m *scriptedLLM) HealthCheck(_ context.Context) error { return nil }
func (m *scriptedLLM) Close() error                        { return nil }

func newRegistry(t *testing.T) *prompts.Registry {
	t.Helper()
	registry, err := prompts.NewRegistry("")
	require.NoError(t, err)
	return registry
}

func TestSummarize(t *testing.T) {
	llm := &scriptedLLM{response: "  Notes about tides.  "}
	svc := NewService(llm, newRegistry(t), arbor.NewLogger())

	summary, err := svc.Summarize(context.Background(), "notes.md", "Tides rise and fall.")
	require.NoError(t, err)
	assert.Equal(t, "Notes about tides.", summary)

	require.NotNil(t, llm.lastReq)
	assert.Equal(t, interfaces.SamplingDeterministic, llm.lastReq.Mode)
	assert.Contains(t, llm.lastReq.Messages[0].Content, "Tides rise and fall.")
}

func TestSummarizeTruncatesLongFiles(t *testing.T) {
	llm := &scriptedLLM{response: "summary"}
	svc := NewService(llm, newRegistry(t), arbor.NewLogger())

	content := strings.TrimSpace(strings.Repeat("word ", 500))
	_, err := svc.Summarize(context.Background(), "big.txt", content)
	require.NoError(t, err)

	sent := llm.lastReq.Messages[0].Content
	assert.Less(t, len(sent), len(content))
}

func TestSummarizeEmptyResponse(t *testing.T) {
	llm := &scriptedLLM{response: "   "}
	svc := NewService(llm, newRegistry(t), arbor.NewLogger())

	_, err := svc.Summarize(context.Background(), "notes.md", "content")
	var genErr *models.GenerationError
	assert.ErrorAs(t, err, &genErr)
}

func TestTruncateWords(t *testing.T) {
	assert.Equal(t, "a b", truncateWords("a b", 5))
	assert.Equal(t, "a b c", truncateWords("a b c d e", 3))
}
