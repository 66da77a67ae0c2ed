package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
	"github.com/ternarybob/respondeo/internal/services/prompts"
)

// Generator produces the streamed answer. Three prompt shapes: grounded
// (system + context instructions with the numbered doc block + a fixed
// initial assistant message), ungrounded (same shape without the context
// instructions and doc block) and code assistant (its own system prompt, no
// retrieval, no initial assistant message).
type Generator struct {
	llm      interfaces.LLMService
	registry *prompts.Registry
	maxTurns int
	logger   arbor.ILogger
}

func NewGenerator(llm interfaces.LLMService, registry *prompts.Registry, maxTurns int, logger arbor.ILogger) *Generator {
	return &Generator{
		llm:      llm,
		registry: registry,
		maxTurns: maxTurns,
		logger:   logger,
	}
}

// FormatDocs wraps each evidence item in a doc tag with a stable numeric
// id, numbered from 1 in evidence order.
func FormatDocs(evidence []models.EvidenceRef) string {
	blocks := make([]string, 0, len(evidence))
	for i, ref := range evidence {
		blocks = append(blocks, fmt.Sprintf("<doc id='%d'>\n%s\n</doc>", i+1, ref.Content))
	}
	return strings.Join(blocks, "\n\n")
}

// GroundedMessages builds the prompt for an answer grounded in evidence.
func (g *Generator) GroundedMessages(question string, history []models.Turn, evidence []models.EvidenceRef) ([]interfaces.Message, error) {
	system, err := g.registry.Prompt(prompts.TaskAnswerSystem)
	if err != nil {
		return nil, err
	}
	groundedTemplate, err := g.registry.Prompt(prompts.TaskAnswerGroundedSystem)
	if err != nil {
		return nil, err
	}
	initialAI, err := g.registry.Prompt(prompts.TaskAnswerInitialAI)
	if err != nil {
		return nil, err
	}

	grounded := prompts.Render(groundedTemplate, map[string]string{
		"context": FormatDocs(evidence),
	})

	messages := []interfaces.Message{
		{Role: "system", Content: system + "\n\n" + grounded},
		{Role: "assistant", Content: initialAI},
	}
	messages = append(messages, HistoryMessages(history, g.maxTurns)...)
	messages = append(messages, interfaces.Message{Role: "user", Content: question})
	return messages, nil
}

// UngroundedMessages builds the prompt for a plain conversational answer.
// The fixed assistant acknowledgment is kept here too, so grounded and
// ungrounded answers open the conversation identically.
func (g *Generator) UngroundedMessages(question string, history []models.Turn) ([]interfaces.Message, error) {
	system, err := g.registry.Prompt(prompts.TaskAnswerSystem)
	if err != nil {
		return nil, err
	}
	initialAI, err := g.registry.Prompt(prompts.TaskAnswerInitialAI)
	if err != nil {
		return nil, err
	}

	messages := []interfaces.Message{
		{Role: "system", Content: system},
		{Role: "assistant", Content: initialAI},
	}
	messages = append(messages, HistoryMessages(history, g.maxTurns)...)
	messages = append(messages, interfaces.Message{Role: "user", Content: question})
	return messages, nil
}

// CodeMessages builds the prompt for the code-assistant branch.
func (g *Generator) CodeMessages(question string, history []models.Turn) ([]interfaces.Message, error) {
	system, err := g.registry.Prompt(prompts.TaskCodingSystem)
	if err != nil {
		return nil, err
	}

	messages := []interfaces.Message{{Role: "system", Content: system}}
	messages = append(messages, HistoryMessages(history, g.maxTurns)...)
	messages = append(messages, interfaces.Message{Role: "user", Content: question})
	return messages, nil
}

// Generate streams the answer for the prepared messages. Sampling is
// creative; the stream is finite and not restartable.
func (g *Generator) Generate(ctx context.Context, messages []interfaces.Message) (<-chan interfaces.Token, error) {
	stream, err := g.llm.CompleteStream(ctx, &interfaces.CompletionRequest{
		Messages: messages,
		Mode:     interfaces.SamplingCreative,
	})
	if err != nil {
		return nil, &models.GenerationError{Stage: "answer", Err: err}
	}
	return stream, nil
}
