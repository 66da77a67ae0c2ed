package chat

import (
	"strings"

	"context"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
	"github.com/ternarybob/respondeo/internal/services/prompts"
)

// Rephraser rewrites the latest question plus history into a standalone
// question usable as a retrieval query without the conversation.
type Rephraser struct {
	llm      interfaces.LLMService
	registry *prompts.Registry
	maxTurns int
	logger   arbor.ILogger
}

func NewRephraser(llm interfaces.LLMService, registry *prompts.Registry, maxTurns int, logger arbor.ILogger) *Rephraser {
	return &Rephraser{
		llm:      llm,
		registry: registry,
		maxTurns: maxTurns,
		logger:   logger,
	}
}

// Rephrase returns the standalone form of the question. With no history the
// question already stands alone and is passed through without a model call.
// An empty model output is a GenerationError, never silently defaulted.
func (r *Rephraser) Rephrase(ctx context.Context, question string, history []models.Turn, sink *OutputSink) (string, error) {
	if len(history) == 0 {
		sink.AddDebug("standalone_question", question)
		return question, nil
	}

	template, err := r.registry.Prompt(prompts.TaskStandaloneQuestion)
	if err != nil {
		return "", err
	}

	prompt := prompts.Render(template, map[string]string{
		"chat_history_str": FormatTranscript(history, r.maxTurns),
		"question":         question,
	})

	response, err := r.llm.Complete(ctx, &interfaces.CompletionRequest{
		Messages: []interfaces.Message{{Role: "user", Content: prompt}},
		Mode:     interfaces.SamplingDeterministic,
	})
	if err != nil {
		return "", &models.GenerationError{Stage: "rephrase", Err: err}
	}

	standalone := strings.TrimSpace(response)
	if standalone == "" {
		return "", &models.GenerationError{Stage: "rephrase"}
	}

	r.logger.Debug().
		Str("question", question).
		Str("standalone", standalone).
		Msg("Question rephrased")

	sink.AddDebug("standalone_question", standalone)
	return standalone, nil
}
