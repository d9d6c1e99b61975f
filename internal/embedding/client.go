// Package embedding turns chunk text into fixed-dimension vectors via the
// inference backend, batching and retrying along the way.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/docchat-ai/rag-platform/internal/errs"
	"github.com/docchat-ai/rag-platform/internal/llm"
	"github.com/docchat-ai/rag-platform/pkg/logger"
	"github.com/docchat-ai/rag-platform/pkg/metrics"
)

// Config holds embedding pipeline tunables.
type Config struct {
	Model      string
	Dim        int
	BatchSize  int
	MaxRetries int

	// RetryInterval is the initial backoff interval. Zero means the
	// backoff library default.
	RetryInterval time.Duration
}

// Client batches embedding requests against the inference backend. A batch
// that exhausts its retries fails the enclosing job but never touches
// already-committed vectors, so embedding is always retriable.
type Client struct {
	backend llm.Client
	cfg     Config
	logger  *logger.Logger
}

// NewClient validates cfg and returns a Client.
func NewClient(backend llm.Client, cfg Config, log *logger.Logger) (*Client, error) {
	if cfg.Model == "" {
		return nil, errs.InvalidConfiguration("embedding model name is empty")
	}
	if cfg.Dim <= 0 {
		return nil, errs.InvalidConfiguration("embedding dimension must be > 0, got %d", cfg.Dim)
	}
	if cfg.BatchSize <= 0 {
		return nil, errs.InvalidConfiguration("embedding batch size must be > 0, got %d", cfg.BatchSize)
	}
	if cfg.MaxRetries < 0 {
		return nil, errs.InvalidConfiguration("embedding max retries must be >= 0, got %d", cfg.MaxRetries)
	}
	return &Client{backend: backend, cfg: cfg, logger: log}, nil
}

// Model returns the configured embedding model identifier.
func (c *Client) Model() string {
	return c.cfg.Model
}

// Dim returns the expected vector width.
func (c *Client) Dim() int {
	return c.cfg.Dim
}

// EmbedTexts returns one vector per input, in order. Oversized input sets
// are split into sequential batches; each batch either fully succeeds or
// fails the whole call with an EmbeddingBackendError.
func (c *Client) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += c.cfg.BatchSize {
		end := start + c.cfg.BatchSize
		if end > len(texts) {
			end = len(texts)
		}
		vectors, err := c.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}

// EmbedQuery embeds a single query string.
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, errs.NewEmbeddingError(errors.New("backend returned no query embedding"))
	}
	return vectors[0], nil
}

func (c *Client) embedBatch(ctx context.Context, batch []string) ([][]float32, error) {
	var vectors [][]float32

	op := func() error {
		start := time.Now()
		vs, err := c.backend.Embed(ctx, batch, c.cfg.Model)
		metrics.EmbedBatchDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			var be *errs.EmbeddingBackendError
			if errors.As(err, &be) && !be.Transient {
				return backoff.Permanent(err)
			}
			c.logger.Warn("embedding batch failed, will retry")
			return err
		}
		if len(vs) != len(batch) {
			return backoff.Permanent(errs.NewEmbeddingError(
				fmt.Errorf("backend returned %d vectors for %d inputs", len(vs), len(batch))))
		}
		for _, v := range vs {
			if len(v) != c.cfg.Dim {
				return backoff.Permanent(errs.NewEmbeddingError(
					fmt.Errorf("embedding dimension mismatch: expected %d, got %d", c.cfg.Dim, len(v))))
			}
		}
		vectors = vs
		return nil
	}

	eb := backoff.NewExponentialBackOff()
	if c.cfg.RetryInterval > 0 {
		eb.InitialInterval = c.cfg.RetryInterval
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(c.cfg.MaxRetries)), ctx)

	if err := backoff.Retry(op, policy); err != nil {
		if errs.IsEmbeddingError(err) {
			return nil, err
		}
		return nil, errs.NewTransientEmbeddingError(err)
	}
	return vectors, nil
}
