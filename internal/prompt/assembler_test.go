package prompt

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docchat-ai/rag-platform/internal/model"
)

func TestAssembleTagsAndSources(t *testing.T) {
	a := NewAssembler(2200)
	ctx := a.Assemble([]model.RankedChunk{
		{ChunkID: 11, DocumentID: 1, Filename: "handbook.pdf", ChunkIndex: 4, Text: "Refunds take 14 days.", Score: 0.5},
		{ChunkID: 22, DocumentID: 2, Filename: "faq.md", ChunkIndex: 0, Text: "Contact support by email.", Score: 0.3},
	})

	assert.True(t, ctx.Grounded)
	assert.Contains(t, ctx.Text, "[S1] filename=handbook.pdf chunk=4\nRefunds take 14 days.")
	assert.Contains(t, ctx.Text, "[S2] filename=faq.md chunk=0\nContact support by email.")

	require.Len(t, ctx.Sources, 2)
	assert.Equal(t, "S1", ctx.Sources[0].SourceID)
	assert.Equal(t, int64(11), ctx.Sources[0].ChunkID)
	assert.Equal(t, "S2", ctx.Sources[1].SourceID)
	assert.Equal(t, int64(22), ctx.Sources[1].ChunkID)
}

func TestAssembleTruncatesLongChunks(t *testing.T) {
	a := NewAssembler(10)
	ctx := a.Assemble([]model.RankedChunk{
		{ChunkID: 1, Filename: "a.txt", Text: strings.Repeat("x", 100)},
	})

	assert.Contains(t, ctx.Text, strings.Repeat("x", 10))
	assert.NotContains(t, ctx.Text, strings.Repeat("x", 11))
}

func TestAssembleTruncationCountsRunes(t *testing.T) {
	a := NewAssembler(10)
	ctx := a.Assemble([]model.RankedChunk{
		{ChunkID: 1, Filename: "fr.txt", Text: strings.Repeat("é", 50)},
	})

	assert.True(t, utf8.ValidString(ctx.Text))
	assert.Contains(t, ctx.Text, strings.Repeat("é", 10))
	assert.NotContains(t, ctx.Text, strings.Repeat("é", 11))
}

func TestRouterMessagesTruncateHistoryOnRuneBoundary(t *testing.T) {
	history := []model.Message{
		{Role: model.RoleUser, Content: strings.Repeat("é", 400)},
	}
	messages := RouterMessages("what now?", history)

	require.Len(t, messages, 2)
	assert.True(t, utf8.ValidString(messages[1].Content))
	assert.Contains(t, messages[1].Content, strings.Repeat("é", 300))
	assert.NotContains(t, messages[1].Content, strings.Repeat("é", 301))
}

func TestAssembleEmptyResults(t *testing.T) {
	a := NewAssembler(2200)
	ctx := a.Assemble(nil)

	assert.False(t, ctx.Grounded)
	assert.Empty(t, ctx.Text)
	assert.Empty(t, ctx.Sources)
}

func TestChatMessagesWithContext(t *testing.T) {
	history := []model.Message{
		{Role: model.RoleUser, Content: "hi"},
		{Role: model.RoleAssistant, Content: "hello"},
	}
	messages := ChatMessages(GroundedSystemPrompt, "[S1] filename=a.txt chunk=0\nbody", "what is in a.txt?", history)

	require.Len(t, messages, 4)
	assert.Equal(t, "system", messages[0].Role)
	assert.Equal(t, "user", messages[1].Role)
	assert.Equal(t, "assistant", messages[2].Role)
	assert.Contains(t, messages[3].Content, "CONTEXT:")
	assert.Contains(t, messages[3].Content, "QUESTION: what is in a.txt?")
}

func TestChatMessagesSkipsSystemHistory(t *testing.T) {
	history := []model.Message{
		{Role: model.RoleSystem, Content: "internal"},
		{Role: model.RoleUser, Content: "hi"},
	}
	messages := ChatMessages(CasualSystemPrompt, "", "hello", history)

	require.Len(t, messages, 3)
	for _, m := range messages[1:] {
		assert.NotEqual(t, "internal", m.Content)
	}
	assert.Equal(t, "hello", messages[2].Content)
}
