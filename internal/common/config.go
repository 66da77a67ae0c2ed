package common

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment"`
	Server      ServerConfig     `toml:"server"`
	Logging     LoggingConfig    `toml:"logging"`
	Storage     StorageConfig    `toml:"storage"`
	LLM         LLMConfig        `toml:"llm"`
	Claude      ClaudeConfig     `toml:"claude"`
	Gemini      GeminiConfig     `toml:"gemini"`
	Embeddings  EmbeddingsConfig `toml:"embeddings"`
	Retrieval   RetrievalConfig  `toml:"retrieval"`
	Rerank      RerankConfig     `toml:"rerank"`
	WebSearch   WebSearchConfig  `toml:"websearch"`
	History     HistoryConfig    `toml:"history"`
	Prompts     PromptsConfig    `toml:"prompts"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"gte=0,lte=65535"`
	Host string `toml:"host"`
}

type LoggingConfig struct {
	Level  string   `toml:"level" validate:"oneof=debug info warn error"`
	Output []string `toml:"output"` // "stdout", "file"
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path" validate:"required"`
	ResetOnStartup bool   `toml:"reset_on_startup"`
	GCSchedule     string `toml:"gc_schedule"` // cron spec for value-log GC, empty disables
}

type LLMConfig struct {
	DefaultProvider string `toml:"default_provider" validate:"oneof=claude gemini"`
}

type ClaudeConfig struct {
	Model       string  `toml:"model"`
	APIKey      string  `toml:"api_key"`
	MaxTokens   int     `toml:"max_tokens" validate:"gt=0"`
	Temperature float32 `toml:"temperature" validate:"gte=0,lte=1"`
}

type GeminiConfig struct {
	Model       string  `toml:"model"`
	APIKey      string  `toml:"api_key"`
	Temperature float32 `toml:"temperature" validate:"gte=0,lte=2"`
}

type EmbeddingsConfig struct {
	Model        string `toml:"model"`
	Dimension    int    `toml:"dimension" validate:"gt=0"`
	CacheEnabled bool   `toml:"cache_enabled"`
}

// RetrievalConfig tunes the persistent retriever over uploaded files.
type RetrievalConfig struct {
	MaxDocuments  int     `toml:"max_documents" validate:"gt=0"`
	MinSimilarity float64 `toml:"min_similarity" validate:"gte=-1,lte=1"`
}

// RerankConfig tunes the ephemeral reranker over fetched web chunks.
type RerankConfig struct {
	TopK          int     `toml:"top_k" validate:"gt=0"`
	MinSimilarity float64 `toml:"min_similarity" validate:"gte=-1,lte=1"`
}

type WebSearchConfig struct {
	MaxResults        int           `toml:"max_results" validate:"gt=0"`
	FetchTimeout      time.Duration `toml:"fetch_timeout" validate:"gt=0"`
	MinLength         int           `toml:"min_length" validate:"gte=0"`
	RequestsPerSecond int           `toml:"requests_per_second" validate:"gt=0"`
	UserAgent         string        `toml:"user_agent"`
}

type HistoryConfig struct {
	MaxTurns int `toml:"max_turns" validate:"gt=0"`
}

// PromptsConfig points at optional prompt/instruction overrides on disk.
// Compiled-in defaults are used when the files are absent.
type PromptsConfig struct {
	Dir string `toml:"dir"`
}

// DefaultConfig returns the configuration defaults applied before any file
// or environment override.
func DefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8090,
			Host: "localhost",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path:       "./data/respondeo",
				GCSchedule: "@every 10m",
			},
		},
		LLM: LLMConfig{DefaultProvider: "gemini"},
		Claude: ClaudeConfig{
			Model:       "claude-sonnet-4-20250514",
			MaxTokens:   4096,
			Temperature: 0.4,
		},
		Gemini: GeminiConfig{
			Model:       "gemini-2.5-flash",
			Temperature: 0.4,
		},
		Embeddings: EmbeddingsConfig{
			Model:        "gemini-embedding-001",
			Dimension:    768,
			CacheEnabled: true,
		},
		Retrieval: RetrievalConfig{
			MaxDocuments:  10,
			MinSimilarity: 0.40,
		},
		Rerank: RerankConfig{
			TopK:          20,
			MinSimilarity: 0.30,
		},
		WebSearch: WebSearchConfig{
			MaxResults:        10,
			FetchTimeout:      1990 * time.Millisecond,
			MinLength:         200,
			RequestsPerSecond: 10,
			UserAgent:         "respondeo/1.0",
		},
		History: HistoryConfig{MaxTurns: 10},
		Prompts: PromptsConfig{Dir: "./config"},
	}
}

// LoadConfig loads configuration from defaults, then the given TOML files in
// order (later files override earlier ones), then environment variables.
func LoadConfig(paths ...string) (*Config, error) {
	config := DefaultConfig()

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// applyEnvOverrides applies environment variables on top of file values.
// API keys are the values most commonly supplied this way.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		config.Gemini.APIKey = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		config.Claude.APIKey = v
	}
	if v := os.Getenv("RESPONDEO_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("RESPONDEO_DATA_PATH"); v != "" {
		config.Storage.Badger.Path = v
	}
}
