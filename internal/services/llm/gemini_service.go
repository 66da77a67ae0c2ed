package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"google.golang.org/genai"
)

// GeminiService implements the LLMService interface using Google Gemini
// models.
type GeminiService struct {
	config *common.GeminiConfig
	logger arbor.ILogger
	client *genai.Client
	retry  *RetryConfig
}

// convertMessagesToGemini converts []interfaces.Message to Gemini Content
// format, extracting the first system message for SystemInstruction.
// Chronological ordering is maintained.
func convertMessagesToGemini(messages []interfaces.Message) ([]*genai.Content, string, error) {
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

	contents := make([]*genai.Content, 0, len(messages))
	var systemText string
	for _, msg := range messages {
		if msg.Role == "system" {
			if systemText == "" {
				systemText = msg.Content
			}
			continue
		}

		var geminiRole string
		switch msg.Role {
		case "assistant":
			geminiRole = genai.RoleModel
		default:
			geminiRole = genai.RoleUser
		}

		contents = append(contents, &genai.Content{
			Role:  geminiRole,
			Parts: []*genai.Part{genai.NewPartFromText(msg.Content)},
		})
	}

	return contents, systemText, nil
}

// NewGeminiService creates a new Gemini LLM service instance.
func NewGeminiService(geminiConfig *common.GeminiConfig, logger arbor.ILogger) (*GeminiService, error) {
	if geminiConfig.APIKey == "" {
		return nil, fmt.Errorf("Google API key is required for Gemini service (set via GEMINI_API_KEY or gemini.api_key in config)")
	}

	if geminiConfig.Model == "" {
		geminiConfig.Model = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  geminiConfig.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	service := &GeminiService{
		config: geminiConfig,
		logger: logger,
		client: client,
		retry:  NewDefaultRetryConfig(),
	}

	logger.Debug().
		Str("model", geminiConfig.Model).
		Float32("temperature", geminiConfig.Temperature).
		Msg("Gemini LLM service initialized successfully")

	return service, nil
}

// Complete runs a blocking completion and returns the full response text.
// Rate-limited calls are retried with backoff.
func (s *GeminiService) Complete(ctx context.Context, req *interfaces.CompletionRequest) (string, error) {
	contents, config, model, err := s.buildRequest(req)
	if err != nil {
		return "", err
	}

	startTime := time.Now()

	var response string
	err = s.retry.Do(ctx, s.logger, func() error {
		resp, callErr := s.client.Models.GenerateContent(ctx, model, contents, config)
		if callErr != nil {
			return fmt.Errorf("chat generation failed: %w", callErr)
		}
		response = extractText(resp)
		return nil
	})
	if err != nil {
		return "", err
	}

	if response == "" {
		return "", fmt.Errorf("no response generated from chat model")
	}

	s.logger.Debug().
		Int("message_count", len(req.Messages)).
		Int("response_length", len(response)).
		Dur("duration", time.Since(startTime)).
		Msg("Gemini completion finished")

	return response, nil
}

// CompleteStream runs a completion and forwards text chunks on the returned
// channel. The channel is closed when the stream ends or fails.
func (s *GeminiService) CompleteStream(ctx context.Context, req *interfaces.CompletionRequest) (<-chan interfaces.Token, error) {
	contents, config, model, err := s.buildRequest(req)
	if err != nil {
		return nil, err
	}

	out := make(chan interfaces.Token)
	go func() {
		defer close(out)

		for resp, err := range s.client.Models.GenerateContentStream(ctx, model, contents, config) {
			if err != nil {
				s.logger.Warn().Err(err).Msg("Gemini stream failed")
				select {
				case out <- interfaces.Token{Err: fmt.Errorf("Gemini stream failed: %w", err)}:
				case <-ctx.Done():
				}
				return
			}
			if text := extractText(resp); text != "" {
				select {
				case out <- interfaces.Token{Text: text}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// HealthCheck verifies the Gemini service is operational.
func (s *GeminiService) HealthCheck(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("genai client is not initialized")
	}

	healthCheckCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	response, err := s.Complete(healthCheckCtx, &interfaces.CompletionRequest{
		Messages: []interfaces.Message{{Role: "user", Content: "ping"}},
		Mode:     interfaces.SamplingDeterministic,
	})
	if err != nil {
		return fmt.Errorf("Gemini health check failed: %w", err)
	}
	if len(strings.TrimSpace(response)) == 0 {
		return fmt.Errorf("Gemini probe returned empty response")
	}

	s.logger.Debug().Str("model", s.config.Model).Msg("Gemini LLM service health check passed")
	return nil
}

// Close releases resources. The genai client requires no explicit cleanup.
func (s *GeminiService) Close() error {
	s.logger.Debug().Msg("Closing Gemini LLM service")
	s.client = nil
	return nil
}

func (s *GeminiService) buildRequest(req *interfaces.CompletionRequest) ([]*genai.Content, *genai.GenerateContentConfig, string, error) {
	contents, systemText, err := convertMessagesToGemini(req.Messages)
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to convert messages to Gemini format: %w", err)
	}

	config := &genai.GenerateContentConfig{}
	switch req.Mode {
	case interfaces.SamplingDeterministic:
		config.Temperature = genai.Ptr(float32(0))
	default:
		config.Temperature = genai.Ptr(s.config.Temperature)
	}

	if len(req.StopSequences) > 0 {
		config.StopSequences = req.StopSequences
	}
	if systemText != "" {
		config.SystemInstruction = genai.NewContentFromText(systemText, genai.RoleUser)
	}

	model := req.Model
	if model == "" {
		model = s.config.Model
	}

	return contents, config, model, nil
}

// extractText concatenates the text parts of the first candidate carrying
// any.
func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var text strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				text.WriteString(part.Text)
			}
		}
		if text.Len() > 0 {
			break
		}
	}
	return text.String()
}
