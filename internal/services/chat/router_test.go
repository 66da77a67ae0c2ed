package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
	"github.com/ternarybob/respondeo/internal/services/prompts"
)

// cannedLLM returns one fixed completion, or an error.
type cannedLLM struct {
	response string
	err      error
	lastReq  *interfaces.CompletionRequest
}

func (m *cannedLLM) Complete(_ context.Context, req *interfaces.CompletionRequest) (string, error) {
	m.lastReq = req
	return m.response, m.err
}

func (m *cannedLLM) CompleteStream(_ context.Context, _ *interfaces.CompletionRequest) (<-chan interfaces.Token, error) {
	return nil, errors.New("not implemented")
}

func (m *cannedLLM) HealthCheck(_ context.Context) error { return nil }
func (m *cannedLLM) Close() error                        { return nil }

func testRegistry(t *testing.T) *prompts.Registry {
	t.Helper()
	registry, err := prompts.NewRegistry("")
	require.NoError(t, err)
	return registry
}

func TestRouteParsesAction(t *testing.T) {
	llm := &cannedLLM{response: " Web_Search \n"}
	router := NewRouter(llm, testRegistry(t), listFiles{}, arbor.NewLogger())

	sink := NewOutputSink()
	action := router.Route(context.Background(), "latest go release?", sink)
	assert.Equal(t, models.ActionWebSearch, action)
}

func TestRouteMalformedOutputDefaultsToRespond(t *testing.T) {
	llm := &cannedLLM{response: "I think you should search the web for that."}
	router := NewRouter(llm, testRegistry(t), listFiles{}, arbor.NewLogger())

	sink := NewOutputSink()
	action := router.Route(context.Background(), "anything", sink)
	assert.Equal(t, models.ActionRespond, action)

	debug := sink.DrainDebug()
	names := make([]string, 0, len(debug))
	for _, d := range debug {
		names = append(names, d.Name)
	}
	assert.Contains(t, names, "next_action_raw")
	assert.Contains(t, names, "next_action_error")
}

func TestRouteModelErrorDefaultsToRespond(t *testing.T) {
	llm := &cannedLLM{err: errors.New("upstream down")}
	router := NewRouter(llm, testRegistry(t), listFiles{}, arbor.NewLogger())

	action := router.Route(context.Background(), "anything", NewOutputSink())
	assert.Equal(t, models.ActionRespond, action)
}

func TestRoutePromptListsUploadedFiles(t *testing.T) {
	llm := &cannedLLM{response: "file_search"}
	files := listFiles{files: []interfaces.FileSummary{
		{Name: "notes.md", Summary: "Notes on ocean tides."},
		{Name: "paper.md", Summary: "A paper about lunar orbits."},
	}}
	router := NewRouter(llm, testRegistry(t), files, arbor.NewLogger())

	router.Route(context.Background(), "what do my notes say?", NewOutputSink())

	prompt := llm.lastReq.Messages[0].Content
	assert.Contains(t, prompt, "- Document 1 (notes.md): Notes on ocean tides.")
	assert.Contains(t, prompt, "- Document 2 (paper.md): A paper about lunar orbits.")
	assert.Equal(t, interfaces.SamplingDeterministic, llm.lastReq.Mode)
}

func TestRoutePromptShowsNoneWithoutFiles(t *testing.T) {
	llm := &cannedLLM{response: "respond"}
	router := NewRouter(llm, testRegistry(t), listFiles{}, arbor.NewLogger())

	router.Route(context.Background(), "hello", NewOutputSink())
	assert.Contains(t, llm.lastReq.Messages[0].Content, "(none)")
}
