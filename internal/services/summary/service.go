package summary

import (
	"context"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
	"github.com/ternarybob/respondeo/internal/services/prompts"
)

// maxSummaryWords bounds how much of a file the summary prompt sees. The
// opening of a document is enough to say what it is about.
const maxSummaryWords = 400

// Service produces the one-line summaries of uploaded files that the action
// router reads when deciding whether a question can be answered from files.
type Service struct {
	llm      interfaces.LLMService
	registry *prompts.Registry
	logger   arbor.ILogger
}

func NewService(llm interfaces.LLMService, registry *prompts.Registry, logger arbor.ILogger) *Service {
	return &Service{
		llm:      llm,
		registry: registry,
		logger:   logger,
	}
}

// Summarize generates a short summary of the file content. The call is
// deterministic so re-uploading the same file yields the same summary.
func (s *Service) Summarize(ctx context.Context, fileName, content string) (string, error) {
	template, err := s.registry.Prompt(prompts.TaskFileSummary)
	if err != nil {
		return "", err
	}

	prompt := prompts.Render(template, map[string]string{
		"uploaded_file_content": truncateWords(content, maxSummaryWords),
	})

	response, err := s.llm.Complete(ctx, &interfaces.CompletionRequest{
		Messages: []interfaces.Message{{Role: "user", Content: prompt}},
		Mode:     interfaces.SamplingDeterministic,
	})
	if err != nil {
		return "", &models.GenerationError{Stage: "file_summary", Err: err}
	}

	summary := strings.TrimSpace(response)
	if summary == "" {
		return "", &models.GenerationError{Stage: "file_summary"}
	}

	s.logger.Debug().
		Str("file", fileName).
		Int("summary_length", len(summary)).
		Msg("File summary generated")

	return summary, nil
}

// truncateWords keeps the first n whitespace-separated words.
func truncateWords(text string, n int) string {
	words := strings.Fields(text)
	if len(words) <= n {
		return text
	}
	return strings.Join(words[:n], " ")
}
