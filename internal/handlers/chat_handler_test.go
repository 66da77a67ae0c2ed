package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
	"github.com/ternarybob/respondeo/internal/services/chat"
	"github.com/ternarybob/respondeo/internal/services/prompts"
)

// scriptedLLM answers routing prompts with fixed labels and streams fixed
// tokens, recording the transcripts it is asked to rephrase. With
// failFirstStream set, the first answer stream ends in an error.
type scriptedLLM struct {
	rephrasePrompts []string
	tokens          []string
	failFirstStream bool
	streams         int
}

func (m *scriptedLLM) Complete(_ context.Context, req *interfaces.CompletionRequest) (string, error) {
	prompt := req.Messages[len(req.Messages)-1].Content
	if strings.Contains(prompt, "Standalone question:") {
		m.rephrasePrompts = append(m.rephrasePrompts, prompt)
		return "standalone form", nil
	}
	return "respond", nil
}

func (m *scriptedLLM) CompleteStream(_ context.Context, _ *interfaces.CompletionRequest) (<-chan interfaces.Token, error) {
	m.streams++
	out := make(chan interfaces.Token, len(m.tokens)+1)
	for _, t := range m.tokens {
		out <- interfaces.Token{Text: t}
	}
	if m.failFirstStream && m.streams == 1 {
		out <- interfaces.Token{Err: errors.New("model unavailable")}
	}
	close(out)
	return out, nil
}

func (m *scriptedLLM) HealthCheck(_ context.Context) error { return nil }
func (m *scriptedLLM) Close() error                        { return nil }

type emptyFiles struct{}

func (emptyFiles) ListFiles() ([]interfaces.FileSummary, error) { return nil, nil }
func (emptyFiles) SaveFile(_, _ string) error                   { return nil }
func (emptyFiles) SaveChunks(_ string, _ []string) error        { return nil }
func (emptyFiles) ChunkIDs(_ string) ([]string, error)          { return nil, nil }
func (emptyFiles) DeleteFile(_ string) error                    { return nil }

type noEvidence struct{}

func (noEvidence) Retrieve(_ context.Context, _ string) ([]models.EvidenceRef, error) {
	return nil, nil
}

func dialTestChat(t *testing.T, llm interfaces.LLMService) (*websocket.Conn, func()) {
	t.Helper()
	logger := arbor.NewLogger()
	registry, err := prompts.NewRegistry("")
	require.NoError(t, err)

	factory := chat.NewPipelineFactory(
		chat.NewRephraser(llm, registry, chat.DefaultMaxHistoryTurns, logger),
		chat.NewRouter(llm, registry, emptyFiles{}, logger),
		chat.NewGenerator(llm, registry, chat.DefaultMaxHistoryTurns, logger),
		noEvidence{},
		noEvidence{},
		logger,
	)

	server := httptest.NewServer(http.HandlerFunc(NewChatHandler(factory, logger).HandleWebSocket))
	url := "ws" + strings.TrimPrefix(server.URL, "http")

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	return conn, func() {
		conn.Close()
		server.Close()
	}
}

// readTurn reads frames until done or error and returns them by type.
func readTurn(t *testing.T, conn *websocket.Conn) (answer string, types []string) {
	t.Helper()
	for {
		var frame chatFrame
		require.NoError(t, conn.ReadJSON(&frame))
		types = append(types, frame.Type)
		switch frame.Type {
		case "token":
			answer += frame.Content
		case "done", "error":
			return answer, types
		}
	}
}

func TestChatWebSocketFrameOrder(t *testing.T) {
	llm := &scriptedLLM{tokens: []string{"Hello ", "there."}}
	conn, cleanup := dialTestChat(t, llm)
	defer cleanup()

	require.NoError(t, conn.WriteJSON(chatRequest{Question: "hi"}))
	answer, types := readTurn(t, conn)

	assert.Equal(t, "Hello there.", answer)
	assert.Equal(t, []string{"token", "token", "sources", "debug", "done"}, types)
}

func TestChatWebSocketEmptyQuestion(t *testing.T) {
	llm := &scriptedLLM{tokens: []string{"x"}}
	conn, cleanup := dialTestChat(t, llm)
	defer cleanup()

	require.NoError(t, conn.WriteJSON(chatRequest{Question: "  "}))

	var frame chatFrame
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, "error", frame.Type)
	assert.NotEmpty(t, frame.Error)
}

func TestChatWebSocketRecoversAfterStreamError(t *testing.T) {
	llm := &scriptedLLM{tokens: []string{"partial "}, failFirstStream: true}
	conn, cleanup := dialTestChat(t, llm)
	defer cleanup()

	require.NoError(t, conn.WriteJSON(chatRequest{Question: "first"}))
	_, types := readTurn(t, conn)
	assert.Equal(t, "error", types[len(types)-1])

	// the same connection serves the next question cleanly
	require.NoError(t, conn.WriteJSON(chatRequest{Question: "second"}))
	answer, types := readTurn(t, conn)
	assert.Equal(t, "partial ", answer)
	assert.Equal(t, []string{"token", "sources", "debug", "done"}, types)
}

func TestChatWebSocketHistoryAcrossTurns(t *testing.T) {
	llm := &scriptedLLM{tokens: []string{"The moon."}}
	conn, cleanup := dialTestChat(t, llm)
	defer cleanup()

	require.NoError(t, conn.WriteJSON(chatRequest{Question: "what causes tides?"}))
	readTurn(t, conn)

	require.NoError(t, conn.WriteJSON(chatRequest{Question: "why though?"}))
	readTurn(t, conn)

	// the second turn carried the first turn's Q&A as transcript
	require.Len(t, llm.rephrasePrompts, 1)
	assert.Contains(t, llm.rephrasePrompts[0], "- human: what causes tides?")
	assert.Contains(t, llm.rephrasePrompts[0], "- ai: The moon.")
}
