package interfaces

import (
	"context"
)

// SamplingMode selects the decoding behavior of a model call.
type SamplingMode string

const (
	// SamplingDeterministic pins temperature to zero. Used for the
	// rephraser and the action router, where output must be reproducible.
	SamplingDeterministic SamplingMode = "deterministic"

	// SamplingCreative uses the provider's configured answer temperature.
	SamplingCreative SamplingMode = "creative"
)

// Message represents a single message in a chat conversation.
// Role is "user", "assistant", or "system".
type Message struct {
	Role    string
	Content string
}

// CompletionRequest is a provider-agnostic model call. The pipeline depends
// only on this contract, not on any specific backend.
type CompletionRequest struct {
	Messages      []Message
	Mode          SamplingMode
	StopSequences []string
	Model         string // empty uses the configured default
}

// Token is one increment of a streamed completion. A non-nil Err terminates
// the stream; the channel is closed afterwards.
type Token struct {
	Text string
	Err  error
}

// LLMService defines the model service boundary: blocking completions and
// token-streamed completions. Embeddings are a separate service because they
// are provider-independent of the answering model.
type LLMService interface {
	// Complete runs a blocking completion and returns the full response text.
	Complete(ctx context.Context, req *CompletionRequest) (string, error)

	// CompleteStream runs a completion and delivers tokens incrementally.
	// The returned channel is closed when generation finishes or fails; the
	// stream is finite and not restartable.
	CompleteStream(ctx context.Context, req *CompletionRequest) (<-chan Token, error)

	// HealthCheck verifies the service can handle requests.
	HealthCheck(ctx context.Context) error

	// Close releases provider clients.
	Close() error
}
