// Package llm provides inference backend clients for generation and
// embedding.
package llm

import (
	"context"
	"fmt"
)

// ChatMessage is a chat message in provider-neutral form.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest represents a completion request.
type CompletionRequest struct {
	Model       string
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float64
}

// CompletionResponse represents a completion response.
type CompletionResponse struct {
	Content    string
	Model      string
	TokensIn   int
	TokensOut  int
	StopReason string
	LatencyMs  int64
}

// Client is the interface for inference providers. Embed returns one vector
// per input text, same order; providers without an embeddings capability
// return an EmbeddingBackendError.
type Client interface {
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)
	Embed(ctx context.Context, texts []string, model string) ([][]float32, error)
	Name() string
}

// Provider is the type of inference provider.
type Provider string

const (
	ProviderOllama    Provider = "ollama"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// ProviderConfig carries provider-specific connection settings.
type ProviderConfig struct {
	OllamaBaseURL   string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	AnthropicAPIKey string
}

// NewClient creates a new inference client for the given provider.
func NewClient(provider Provider, cfg ProviderConfig) (Client, error) {
	switch provider {
	case ProviderOllama:
		return NewOllamaClient(cfg.OllamaBaseURL)
	case ProviderOpenAI:
		return NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)
	case ProviderAnthropic:
		return NewAnthropicClient(cfg.AnthropicAPIKey)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", provider)
	}
}
