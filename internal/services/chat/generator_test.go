package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/models"
)

func TestFormatDocs(t *testing.T) {
	evidence := []models.EvidenceRef{
		{Name: "a", Content: "first document"},
		{Name: "b", Content: "second document"},
	}

	got := FormatDocs(evidence)
	assert.Equal(t, "<doc id='1'>\nfirst document\n</doc>\n\n<doc id='2'>\nsecond document\n</doc>", got)
	assert.Equal(t, "", FormatDocs(nil))
}

func TestGroundedMessagesShape(t *testing.T) {
	gen := NewGenerator(&cannedLLM{}, testRegistry(t), DefaultMaxHistoryTurns, arbor.NewLogger())

	history := []models.Turn{
		{Role: models.RoleHuman, Content: "earlier question"},
		{Role: models.RoleAI, Content: "earlier answer"},
	}
	evidence := []models.EvidenceRef{{Name: "notes.md", Content: "tides content"}}

	messages, err := gen.GroundedMessages("why do tides happen", history, evidence)
	require.NoError(t, err)
	require.Len(t, messages, 5)

	assert.Equal(t, "system", messages[0].Role)
	assert.Contains(t, messages[0].Content, "<doc id='1'>\ntides content\n</doc>")
	assert.Contains(t, messages[0].Content, "[[1]]")

	// fixed assistant acknowledgment precedes the conversation
	assert.Equal(t, "assistant", messages[1].Role)
	assert.Equal(t, "user", messages[2].Role)
	assert.Equal(t, "earlier question", messages[2].Content)
	assert.Equal(t, "assistant", messages[3].Role)
	assert.Equal(t, "user", messages[4].Role)
	assert.Equal(t, "why do tides happen", messages[4].Content)
}

func TestUngroundedMessagesShape(t *testing.T) {
	gen := NewGenerator(&cannedLLM{}, testRegistry(t), DefaultMaxHistoryTurns, arbor.NewLogger())

	messages, err := gen.UngroundedMessages("hello", nil)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, "system", messages[0].Role)
	assert.NotContains(t, messages[0].Content, "<doc id=")

	// same assistant acknowledgment as the grounded prompt
	assert.Equal(t, "assistant", messages[1].Role)
	assert.Contains(t, messages[1].Content, "Understood")

	assert.Equal(t, "user", messages[2].Role)
}

func TestCodeMessagesUseCodingPrompt(t *testing.T) {
	gen := NewGenerator(&cannedLLM{}, testRegistry(t), DefaultMaxHistoryTurns, arbor.NewLogger())

	messages, err := gen.CodeMessages("reverse a slice", nil)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Contains(t, messages[0].Content, "coding assistant")
}
