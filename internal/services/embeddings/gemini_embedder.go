package embeddings

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/common"
	"google.golang.org/genai"
)

// GeminiEmbedder implements the EmbeddingService interface using the Gemini
// embedding API. Vectors are normalized to unit length before being
// returned, so inner products are cosine similarities. The embedder is
// independent of the chat provider: Claude deployments still embed through
// Gemini.
type GeminiEmbedder struct {
	config *common.EmbeddingsConfig
	logger arbor.ILogger
	client *genai.Client
}

// NewGeminiEmbedder creates a new embedding service instance.
func NewGeminiEmbedder(embedConfig *common.EmbeddingsConfig, apiKey string, logger arbor.ILogger) (*GeminiEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Google API key is required for embeddings (set via GEMINI_API_KEY or gemini.api_key in config)")
	}

	if embedConfig.Model == "" {
		embedConfig.Model = "gemini-embedding-001"
	}
	if embedConfig.Dimension <= 0 {
		embedConfig.Dimension = 768
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	logger.Debug().
		Str("model", embedConfig.Model).
		Int("dimension", embedConfig.Dimension).
		Msg("Embedding service initialized successfully")

	return &GeminiEmbedder{
		config: embedConfig,
		logger: logger,
		client: client,
	}, nil
}

// EmbedQuery generates a normalized embedding for a search query.
func (s *GeminiEmbedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	vectors, err := s.EmbedDocuments(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedDocuments generates normalized embeddings for document texts, one
// vector per input in input order.
func (s *GeminiEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	for i, text := range texts {
		if text == "" {
			return nil, fmt.Errorf("text %d cannot be empty for embedding generation", i)
		}
	}

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	outputDim := int32(s.config.Dimension)
	result, err := s.client.Models.EmbedContent(ctx, s.config.Model, contents, &genai.EmbedContentConfig{
		OutputDimensionality: &outputDim,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}
	if result == nil || len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: %d texts, %d vectors", len(texts), embeddingCount(result))
	}

	vectors := make([][]float32, len(texts))
	for i, embedding := range result.Embeddings {
		if len(embedding.Values) != s.config.Dimension {
			return nil, fmt.Errorf("embedding dimension mismatch: expected %d, got %d", s.config.Dimension, len(embedding.Values))
		}
		vectors[i] = common.NormalizeVector(embedding.Values)
	}

	s.logger.Debug().Int("texts", len(texts)).Msg("Embeddings generated")
	return vectors, nil
}

// ModelName returns the embedding model identifier.
func (s *GeminiEmbedder) ModelName() string {
	return s.config.Model
}

// Dimension returns the embedding dimension.
func (s *GeminiEmbedder) Dimension() int {
	return s.config.Dimension
}

func embeddingCount(result *genai.EmbedContentResponse) int {
	if result == nil {
		return 0
	}
	return len(result.Embeddings)
}
