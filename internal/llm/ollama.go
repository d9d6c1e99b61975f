package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/docchat-ai/rag-platform/internal/errs"
)

// OllamaClient talks to an Ollama server's native HTTP API.
type OllamaClient struct {
	baseURL string
	client  *http.Client
}

// NewOllamaClient creates a client for the given base URL.
func NewOllamaClient(baseURL string) (*OllamaClient, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("ollama base URL is required")
	}
	return &OllamaClient{
		baseURL: baseURL,
		// Per-call deadlines come from the request context.
		client: &http.Client{},
	}, nil
}

// Name returns the provider name.
func (c *OllamaClient) Name() string {
	return "ollama"
}

type ollamaChatRequest struct {
	Model    string         `json:"model"`
	Messages []ChatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Response        string `json:"response"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
	DoneReason      string `json:"done_reason"`
}

// Complete sends a chat request and returns the single assistant message.
func (c *OllamaClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()

	if req.Model == "" {
		return nil, errors.New("model name is required")
	}
	if len(req.Messages) == 0 {
		return nil, errors.New("messages list is empty")
	}

	body := ollamaChatRequest{
		Model:    req.Model,
		Messages: req.Messages,
		Stream:   false,
		Options:  map[string]any{"temperature": req.Temperature},
	}
	if req.MaxTokens > 0 {
		body.Options["num_predict"] = req.MaxTokens
	}

	var out ollamaChatResponse
	if err := c.post(ctx, "/api/chat", body, &out); err != nil {
		return nil, err
	}

	content := strings.TrimSpace(out.Message.Content)
	if content == "" {
		content = strings.TrimSpace(out.Response)
	}
	if content == "" {
		return nil, errors.New("ollama returned an empty chat response")
	}

	return &CompletionResponse{
		Content:    content,
		Model:      req.Model,
		TokensIn:   out.PromptEvalCount,
		TokensOut:  out.EvalCount,
		StopReason: out.DoneReason,
		LatencyMs:  time.Since(start).Milliseconds(),
	}, nil
}

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed returns one vector per input text, in order. The whole batch fails
// on the first backend failure.
func (c *OllamaClient) Embed(ctx context.Context, texts []string, model string) ([][]float32, error) {
	if model == "" {
		return nil, errs.NewEmbeddingError(errors.New("embedding model name is empty"))
	}

	vectors := make([][]float32, 0, len(texts))
	for _, text := range texts {
		var out ollamaEmbedResponse
		if err := c.post(ctx, "/api/embeddings", ollamaEmbedRequest{Model: model, Prompt: text}, &out); err != nil {
			return nil, asEmbeddingError(err)
		}
		if len(out.Embedding) == 0 {
			return nil, errs.NewEmbeddingError(errors.New("ollama returned no embedding"))
		}
		vectors = append(vectors, out.Embedding)
	}
	return vectors, nil
}

// transientHTTPError marks failures worth retrying.
type transientHTTPError struct{ err error }

func (e *transientHTTPError) Error() string { return e.err.Error() }
func (e *transientHTTPError) Unwrap() error { return e.err }

func asEmbeddingError(err error) error {
	var t *transientHTTPError
	if errors.As(err, &t) {
		return errs.NewTransientEmbeddingError(err)
	}
	return errs.NewEmbeddingError(err)
}

func (c *OllamaClient) post(ctx context.Context, path string, in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return &transientHTTPError{err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &transientHTTPError{err: err}
	}

	if resp.StatusCode != http.StatusOK {
		snippet := string(body)
		if len(snippet) > 500 {
			snippet = snippet[:500]
		}
		httpErr := fmt.Errorf("ollama %s failed: %d %s", path, resp.StatusCode, snippet)
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return &transientHTTPError{err: httpErr}
		}
		return httpErr
	}

	return json.Unmarshal(body, out)
}
