package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessageParamsCarriesTemperature(t *testing.T) {
	params, err := buildMessageParams(&CompletionRequest{
		Model:       "claude-3-haiku-20240307",
		Messages:    []ChatMessage{{Role: "user", Content: "hi"}},
		Temperature: 0.2,
	})
	require.NoError(t, err)

	assert.True(t, params.Temperature.Present)
	assert.InDelta(t, 0.2, params.Temperature.Value, 1e-9)
}

func TestBuildMessageParamsFoldsSystemMessages(t *testing.T) {
	params, err := buildMessageParams(&CompletionRequest{
		Model: "claude-3-haiku-20240307",
		Messages: []ChatMessage{
			{Role: "system", Content: "first rule"},
			{Role: "system", Content: "second rule"},
			{Role: "user", Content: "question"},
		},
		MaxTokens: 200,
	})
	require.NoError(t, err)

	require.True(t, params.System.Present)
	require.Len(t, params.System.Value, 1)
	assert.Equal(t, "first rule\nsecond rule", params.System.Value[0].Text.Value)

	require.Len(t, params.Messages.Value, 1)
	assert.Equal(t, int64(200), params.MaxTokens.Value)
}

func TestBuildMessageParamsRequiresModel(t *testing.T) {
	_, err := buildMessageParams(&CompletionRequest{
		Messages: []ChatMessage{{Role: "user", Content: "hi"}},
	})
	assert.Error(t, err)
}
