package router

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/docchat-ai/rag-platform/internal/llm"
	"github.com/docchat-ai/rag-platform/pkg/logger"
)

type fakeLLM struct {
	content string
	err     error
}

func (f *fakeLLM) Name() string { return "fake" }

func (f *fakeLLM) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{Content: f.content}, nil
}

func (f *fakeLLM) Embed(ctx context.Context, texts []string, m string) ([][]float32, error) {
	return nil, errors.New("not implemented")
}

func classify(t *testing.T, client llm.Client, question string) Route {
	t.Helper()
	r := New(client, Config{Timeout: time.Second, MaxTokens: 60}, logger.NewNop())
	return r.Classify(context.Background(), "router-model", question, nil)
}

func TestClassifyStrictJSON(t *testing.T) {
	assert.Equal(t, RouteCasual, classify(t, &fakeLLM{content: `{"route":"casual"}`}, "hi there"))
	assert.Equal(t, RouteGrounded, classify(t, &fakeLLM{content: `{"route":"grounded"}`}, "what does the contract say"))
}

func TestClassifyProseWrappedJSON(t *testing.T) {
	content := "Sure! Here is the classification: {\"route\": \"casual\"} as requested."
	assert.Equal(t, RouteCasual, classify(t, &fakeLLM{content: content}, "hello"))
}

func TestClassifyBareLabel(t *testing.T) {
	assert.Equal(t, RouteCasual, classify(t, &fakeLLM{content: "casual"}, "hey"))
	assert.Equal(t, RouteGrounded, classify(t, &fakeLLM{content: "grounded"}, "summarize the report"))
}

func TestClassifyAmbiguousDefaultsToGrounded(t *testing.T) {
	assert.Equal(t, RouteGrounded, classify(t, &fakeLLM{content: "either casual or grounded"}, "hmm"))
	assert.Equal(t, RouteGrounded, classify(t, &fakeLLM{content: "no idea"}, "hmm"))
	assert.Equal(t, RouteGrounded, classify(t, &fakeLLM{content: `{"route":"banana"}`}, "hmm"))
}

func TestClassifyErrorDefaultsToGrounded(t *testing.T) {
	assert.Equal(t, RouteGrounded, classify(t, &fakeLLM{err: errors.New("model not loaded")}, "hi"))
}
