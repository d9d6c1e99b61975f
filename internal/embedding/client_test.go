package embedding

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docchat-ai/rag-platform/internal/errs"
	"github.com/docchat-ai/rag-platform/internal/llm"
	"github.com/docchat-ai/rag-platform/pkg/logger"
)

type fakeBackend struct {
	dim       int
	calls     [][]string
	failFirst int
	failWith  error
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeBackend) Embed(ctx context.Context, texts []string, model string) ([][]float32, error) {
	f.calls = append(f.calls, texts)
	if f.failFirst > 0 {
		f.failFirst--
		return nil, f.failWith
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, f.dim)
	}
	return out, nil
}

func newTestClient(t *testing.T, backend llm.Client, batchSize, retries int) *Client {
	t.Helper()
	c, err := NewClient(backend, Config{
		Model:         "nomic-embed-text",
		Dim:           4,
		BatchSize:     batchSize,
		MaxRetries:    retries,
		RetryInterval: time.Millisecond,
	}, logger.NewNop())
	require.NoError(t, err)
	return c
}

func TestNewClientValidation(t *testing.T) {
	backend := &fakeBackend{dim: 4}
	cases := []Config{
		{Model: "", Dim: 4, BatchSize: 16},
		{Model: "m", Dim: 0, BatchSize: 16},
		{Model: "m", Dim: 4, BatchSize: 0},
		{Model: "m", Dim: 4, BatchSize: 16, MaxRetries: -1},
	}
	for _, cfg := range cases {
		_, err := NewClient(backend, cfg, logger.NewNop())
		assert.ErrorIs(t, err, errs.ErrInvalidConfiguration)
	}
}

func TestEmbedTextsSplitsBatches(t *testing.T) {
	backend := &fakeBackend{dim: 4}
	c := newTestClient(t, backend, 3, 0)

	texts := []string{"a", "b", "c", "d", "e", "f", "g"}
	vectors, err := c.EmbedTexts(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vectors, 7)

	require.Len(t, backend.calls, 3)
	assert.Len(t, backend.calls[0], 3)
	assert.Len(t, backend.calls[1], 3)
	assert.Len(t, backend.calls[2], 1)
}

func TestEmbedTextsEmptyInput(t *testing.T) {
	backend := &fakeBackend{dim: 4}
	c := newTestClient(t, backend, 3, 0)

	vectors, err := c.EmbedTexts(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
	assert.Empty(t, backend.calls)
}

func TestEmbedTextsRetriesTransientFailures(t *testing.T) {
	backend := &fakeBackend{
		dim:       4,
		failFirst: 2,
		failWith:  errs.NewTransientEmbeddingError(errors.New("connection refused")),
	}
	c := newTestClient(t, backend, 16, 3)

	vectors, err := c.EmbedTexts(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, vectors, 2)
	assert.Len(t, backend.calls, 3)
}

func TestEmbedTextsNoRetryOnPermanentFailure(t *testing.T) {
	backend := &fakeBackend{
		dim:       4,
		failFirst: 1,
		failWith:  errs.NewEmbeddingError(errors.New("model not found")),
	}
	c := newTestClient(t, backend, 16, 3)

	_, err := c.EmbedTexts(context.Background(), []string{"a"})
	require.Error(t, err)
	assert.True(t, errs.IsEmbeddingError(err))
	assert.Len(t, backend.calls, 1)
}

func TestEmbedTextsExhaustsRetries(t *testing.T) {
	backend := &fakeBackend{
		dim:       4,
		failFirst: 10,
		failWith:  errs.NewTransientEmbeddingError(errors.New("timeout")),
	}
	c := newTestClient(t, backend, 16, 2)

	_, err := c.EmbedTexts(context.Background(), []string{"a"})
	require.Error(t, err)
	assert.True(t, errs.IsEmbeddingError(err))
	assert.Len(t, backend.calls, 3)
}

func TestEmbedTextsDimensionMismatch(t *testing.T) {
	backend := &fakeBackend{dim: 3}
	c := newTestClient(t, backend, 16, 3)

	_, err := c.EmbedTexts(context.Background(), []string{"a"})
	require.Error(t, err)
	assert.True(t, errs.IsEmbeddingError(err))
	assert.Contains(t, err.Error(), "dimension mismatch")
	assert.Len(t, backend.calls, 1)
}

func TestEmbedQuery(t *testing.T) {
	backend := &fakeBackend{dim: 4}
	c := newTestClient(t, backend, 16, 0)

	vector, err := c.EmbedQuery(context.Background(), "what is the refund policy")
	require.NoError(t, err)
	assert.Len(t, vector, 4)
}
