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

// Router classifies the standalone question into a next action with a
// deterministic model call. It is a pure classifier: no side effects beyond
// debug records of its own prompt and raw output.
type Router struct {
	llm      interfaces.LLMService
	registry *prompts.Registry
	files    interfaces.FileStore
	logger   arbor.ILogger
}

func NewRouter(llm interfaces.LLMService, registry *prompts.Registry, files interfaces.FileStore, logger arbor.ILogger) *Router {
	return &Router{
		llm:      llm,
		registry: registry,
		files:    files,
		logger:   logger,
	}
}

// Route returns the branch that should answer the question. Classification
// is best effort: a failed call or unrecognized output falls back to the
// default branch with the recovery recorded in the debug sink, never an
// error to the caller.
func (r *Router) Route(ctx context.Context, question string, sink *OutputSink) models.NextAction {
	template, err := r.registry.Prompt(prompts.TaskSelectNextAction)
	if err != nil {
		sink.AddDebug("next_action_error", err.Error())
		return models.ActionRespond
	}

	prompt := prompts.Render(template, map[string]string{
		"uploaded_file_summaries": r.summariesDigest(),
		"question":                question,
	})
	sink.AddDebug("next_action_prompt", prompt)

	raw, err := r.llm.Complete(ctx, &interfaces.CompletionRequest{
		Messages: []interfaces.Message{{Role: "user", Content: prompt}},
		Mode:     interfaces.SamplingDeterministic,
	})
	if err != nil {
		sink.AddDebug("next_action_error", err.Error())
		r.logger.Warn().Err(err).Msg("Action classification failed, using default branch")
		return models.ActionRespond
	}
	sink.AddDebug("next_action_raw", raw)

	action, err := models.ParseNextAction(raw)
	if err != nil {
		sink.AddDebug("next_action_error", err.Error())
		r.logger.Warn().Err(err).Msg("Unrecognized next action, using default branch")
	}

	r.logger.Debug().
		Str("question", question).
		Str("action", action.String()).
		Msg("Next action selected")

	return action
}

// summariesDigest renders the uploaded-file summaries the router reads when
// judging whether a question is answerable from files.
func (r *Router) summariesDigest() string {
	files, err := r.files.ListFiles()
	if err != nil {
		r.logger.Warn().Err(err).Msg("Failed to list files for routing")
		return "(none)"
	}
	if len(files) == 0 {
		return "(none)"
	}

	lines := make([]string, 0, len(files))
	for i, f := range files {
		lines = append(lines, fmt.Sprintf("- Document %d (%s): %s", i+1, f.Name, f.Summary))
	}
	return strings.Join(lines, "\n")
}
