package chat

import (
	"strings"

	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
)

// DefaultMaxHistoryTurns caps how much conversation the model sees.
const DefaultMaxHistoryTurns = 10

// CapHistory returns the most recent maxTurns turns in original order.
func CapHistory(turns []models.Turn, maxTurns int) []models.Turn {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxHistoryTurns
	}
	if len(turns) > maxTurns {
		return turns[len(turns)-maxTurns:]
	}
	return turns
}

// FormatTranscript renders the conversation as a flat transcript, one line
// per turn in "- role: content" form, capped to the most recent maxTurns.
func FormatTranscript(turns []models.Turn, maxTurns int) string {
	turns = CapHistory(turns, maxTurns)

	lines := make([]string, 0, len(turns))
	for _, turn := range turns {
		lines = append(lines, "- "+string(turn.Role)+": "+turn.Content)
	}
	return strings.Join(lines, "\n")
}

// HistoryMessages renders the conversation as chat messages for the answer
// prompt, capped to the most recent maxTurns.
func HistoryMessages(turns []models.Turn, maxTurns int) []interfaces.Message {
	turns = CapHistory(turns, maxTurns)

	messages := make([]interfaces.Message, 0, len(turns))
	for _, turn := range turns {
		role := "user"
		if turn.Role == models.RoleAI {
			role = "assistant"
		}
		messages = append(messages, interfaces.Message{Role: role, Content: turn.Content})
	}
	return messages
}
