package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/interfaces"
)

// ClaudeService implements the LLMService interface using the Anthropic
// Claude API.
type ClaudeService struct {
	config    *common.ClaudeConfig
	logger    arbor.ILogger
	client    anthropic.Client
	maxTokens int
}

// assistantPreamble opens the conversation when the prompt starts with a
// priming assistant message, which the Messages API rejects in first
// position.
const assistantPreamble = "Please confirm you understand the instructions."

// convertMessagesToClaude converts []interfaces.Message to Claude
// MessageParam format, extracting the first system message for the System
// parameter. Chronological ordering is maintained.
func convertMessagesToClaude(messages []interfaces.Message) ([]anthropic.MessageParam, string, error) {
	if len(messages) == 0 {
		return nil, "", fmt.Errorf("messages cannot be empty")
	}

	hasUserMessage := false
	for _, msg := range messages {
		if msg.Role == "user" {
			hasUserMessage = true
			break
		}
	}
	if !hasUserMessage {
		return nil, "", fmt.Errorf("at least one message must have role 'user'")
	}

	claudeMessages := make([]anthropic.MessageParam, 0, len(messages))
	var systemText string
	for _, msg := range messages {
		if msg.Role == "system" {
			if systemText == "" {
				systemText = msg.Content
			}
			continue
		}

		switch msg.Role {
		case "assistant":
			claudeMessages = append(claudeMessages, anthropic.NewAssistantMessage(
				anthropic.NewTextBlock(msg.Content),
			))
		default:
			claudeMessages = append(claudeMessages, anthropic.NewUserMessage(
				anthropic.NewTextBlock(msg.Content),
			))
		}
	}

	// The Messages API requires the conversation to open with a user turn;
	// a priming assistant message gets a short user preamble so the
	// acknowledgment reads as a reply to it.
	if claudeMessages[0].Role == anthropic.MessageParamRoleAssistant {
		opener := anthropic.NewUserMessage(anthropic.NewTextBlock(assistantPreamble))
		claudeMessages = append([]anthropic.MessageParam{opener}, claudeMessages...)
	}

	return claudeMessages, systemText, nil
}

// NewClaudeService creates a new Claude LLM service instance.
func NewClaudeService(claudeConfig *common.ClaudeConfig, logger arbor.ILogger) (*ClaudeService, error) {
	if claudeConfig.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required for Claude service (set via ANTHROPIC_API_KEY or claude.api_key in config)")
	}

	if claudeConfig.Model == "" {
		claudeConfig.Model = "claude-sonnet-4-20250514"
	}

	maxTokens := claudeConfig.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	client := anthropic.NewClient(
		option.WithAPIKey(claudeConfig.APIKey),
	)

	service := &ClaudeService{
		config:    claudeConfig,
		logger:    logger,
		client:    client,
		maxTokens: maxTokens,
	}

	logger.Debug().
		Str("model", claudeConfig.Model).
		Float32("temperature", claudeConfig.Temperature).
		Int("max_tokens", maxTokens).
		Msg("Claude LLM service initialized successfully")

	return service, nil
}

// Complete runs a blocking completion and returns the full response text.
func (s *ClaudeService) Complete(ctx context.Context, req *interfaces.CompletionRequest) (string, error) {
	params, err := s.buildParams(req)
	if err != nil {
		return "", err
	}

	startTime := time.Now()
	resp, err := s.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("Claude API call failed: %w", err)
	}

	var response strings.Builder
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			response.WriteString(variant.Text)
		}
	}

	if response.Len() == 0 {
		return "", fmt.Errorf("no response generated from Claude API")
	}

	s.logger.Debug().
		Int("message_count", len(req.Messages)).
		Int("response_length", response.Len()).
		Dur("duration", time.Since(startTime)).
		Msg("Claude completion finished")

	return response.String(), nil
}

// CompleteStream runs a completion and forwards text deltas on the returned
// channel. The channel is closed when the stream ends or fails.
func (s *ClaudeService) CompleteStream(ctx context.Context, req *interfaces.CompletionRequest) (<-chan interfaces.Token, error) {
	params, err := s.buildParams(req)
	if err != nil {
		return nil, err
	}

	out := make(chan interfaces.Token)
	go func() {
		defer close(out)

		stream := s.client.Messages.NewStreaming(ctx, params)
		for stream.Next() {
			event := stream.Current()
			switch eventVariant := event.AsAny().(type) {
			case anthropic.ContentBlockDeltaEvent:
				switch deltaVariant := eventVariant.Delta.AsAny().(type) {
				case anthropic.TextDelta:
					if deltaVariant.Text != "" {
						select {
						case out <- interfaces.Token{Text: deltaVariant.Text}:
						case <-ctx.Done():
							return
						}
					}
				}
			}
		}
		if err := stream.Err(); err != nil {
			s.logger.Warn().Err(err).Msg("Claude stream failed")
			select {
			case out <- interfaces.Token{Err: fmt.Errorf("Claude stream failed: %w", err)}:
			case <-ctx.Done():
			}
		}
	}()

	return out, nil
}

// HealthCheck verifies the Claude service is operational.
func (s *ClaudeService) HealthCheck(ctx context.Context) error {
	healthCheckCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	response, err := s.Complete(healthCheckCtx, &interfaces.CompletionRequest{
		Messages: []interfaces.Message{{Role: "user", Content: "ping"}},
		Mode:     interfaces.SamplingDeterministic,
	})
	if err != nil {
		return fmt.Errorf("Claude health check failed: %w", err)
	}
	if len(strings.TrimSpace(response)) == 0 {
		return fmt.Errorf("Claude probe returned empty response")
	}

	s.logger.Debug().Str("model", s.config.Model).Msg("Claude LLM service health check passed")
	return nil
}

// Close releases resources. The Claude client requires no explicit cleanup.
func (s *ClaudeService) Close() error {
	s.logger.Debug().Msg("Closing Claude LLM service")
	return nil
}

func (s *ClaudeService) buildParams(req *interfaces.CompletionRequest) (anthropic.MessageNewParams, error) {
	claudeMessages, systemText, err := convertMessagesToClaude(req.Messages)
	if err != nil {
		return anthropic.MessageNewParams{}, fmt.Errorf("failed to convert messages to Claude format: %w", err)
	}

	model := req.Model
	if model == "" {
		model = s.config.Model
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(s.maxTokens),
		Messages:  claudeMessages,
	}

	switch req.Mode {
	case interfaces.SamplingDeterministic:
		params.Temperature = anthropic.Float(0)
	default:
		if s.config.Temperature > 0 {
			params.Temperature = anthropic.Float(float64(s.config.Temperature))
		}
	}

	if len(req.StopSequences) > 0 {
		params.StopSequences = req.StopSequences
	}

	if systemText != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: systemText},
		}
	}

	return params, nil
}
