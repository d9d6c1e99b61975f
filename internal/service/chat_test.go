package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docchat-ai/rag-platform/internal/errs"
	"github.com/docchat-ai/rag-platform/internal/llm"
	"github.com/docchat-ai/rag-platform/internal/model"
	"github.com/docchat-ai/rag-platform/internal/prompt"
	"github.com/docchat-ai/rag-platform/internal/retrieval"
	"github.com/docchat-ai/rag-platform/internal/router"
	"github.com/docchat-ai/rag-platform/pkg/logger"
)

type fakeConversations struct {
	conv      *model.Conversation
	history   []model.Message
	ensureErr error

	ensuredKey string
	appended   *model.Message
	appendedQ  string
}

func (f *fakeConversations) EnsureConversation(ctx context.Context, userID, key string) (*model.Conversation, error) {
	f.ensuredKey = key
	if f.ensureErr != nil {
		return nil, f.ensureErr
	}
	return f.conv, nil
}

func (f *fakeConversations) AppendTurn(ctx context.Context, conversationID int64, question string, answer *model.Message) error {
	f.appendedQ = question
	f.appended = answer
	return nil
}

func (f *fakeConversations) RecentMessages(ctx context.Context, conversationID int64, limit int) ([]model.Message, error) {
	return f.history, nil
}

func (f *fakeConversations) ModelConfig(ctx context.Context, defaults model.ModelConfig) (model.ModelConfig, error) {
	return defaults, nil
}

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return f.vector, f.err
}

type fakeRetriever struct {
	result *retrieval.Result
	err    error

	gotVector []float32
	gotK      int
	called    bool
}

func (f *fakeRetriever) Retrieve(ctx context.Context, userID, query string, queryVector []float32, k int) (*retrieval.Result, error) {
	f.called = true
	f.gotVector = queryVector
	f.gotK = k
	return f.result, f.err
}

type fakeClassifier struct {
	route router.Route
}

func (f *fakeClassifier) Classify(ctx context.Context, routerModel, question string, history []model.Message) router.Route {
	return f.route
}

type fakeGenerator struct {
	content string
	err     error

	gotMessages []llm.ChatMessage
}

func (f *fakeGenerator) Name() string { return "fake" }

func (f *fakeGenerator) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.gotMessages = req.Messages
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{Content: f.content, TokensIn: 10, TokensOut: 5}, nil
}

func (f *fakeGenerator) Embed(ctx context.Context, texts []string, m string) ([][]float32, error) {
	return nil, errors.New("not implemented")
}

type chatFixture struct {
	conversations *fakeConversations
	embedder      *fakeEmbedder
	retriever     *fakeRetriever
	classifier    *fakeClassifier
	generator     *fakeGenerator
	svc           *ChatService
}

func newChatFixture() *chatFixture {
	f := &chatFixture{
		conversations: &fakeConversations{
			conv: &model.Conversation{ID: 1, ConversationKey: "conv-key-1", UserID: "u1"},
		},
		embedder:   &fakeEmbedder{vector: []float32{0.1, 0.2}},
		retriever:  &fakeRetriever{result: &retrieval.Result{}},
		classifier: &fakeClassifier{route: router.RouteGrounded},
		generator:  &fakeGenerator{content: "the answer [S1]"},
	}
	f.svc = NewChatService(
		f.conversations, f.embedder, f.retriever, f.classifier,
		prompt.NewAssembler(2200), f.generator,
		ChatConfig{TopK: 5, HistoryMessages: 8, Defaults: model.ModelConfig{GenerationModel: "gen", RouterModel: "route"}},
		logger.NewNop(),
	)
	return f
}

func TestChatGroundedWithSources(t *testing.T) {
	f := newChatFixture()
	f.retriever.result = &retrieval.Result{Chunks: []model.RankedChunk{
		{ChunkID: 11, DocumentID: 1, Filename: "a.txt", ChunkIndex: 0, Text: "body", Score: 0.4},
	}}

	resp, err := f.svc.Chat(context.Background(), "u1", &model.ChatRequest{Question: "what is in a.txt?"})
	require.NoError(t, err)

	assert.Equal(t, "the answer [S1]", resp.Answer)
	assert.Equal(t, "conv-key-1", resp.ConversationID)
	assert.True(t, resp.UsedRetrieval)
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, "S1", resp.Sources[0].SourceID)
	assert.Equal(t, int64(11), resp.Sources[0].ChunkID)

	require.NotNil(t, f.conversations.appended)
	assert.Equal(t, "what is in a.txt?", f.conversations.appendedQ)
	assert.Equal(t, resp.Sources, []model.Source(f.conversations.appended.Sources))
}

func TestChatCasualSkipsRetrieval(t *testing.T) {
	f := newChatFixture()
	f.classifier.route = router.RouteCasual
	f.generator.content = "hello!"

	resp, err := f.svc.Chat(context.Background(), "u1", &model.ChatRequest{Question: "hi"})
	require.NoError(t, err)

	assert.False(t, f.retriever.called)
	assert.False(t, resp.UsedRetrieval)
	assert.Empty(t, resp.Sources)
	assert.NotNil(t, f.conversations.appended)
}

func TestChatEmptyRetrievalAnswersUngrounded(t *testing.T) {
	f := newChatFixture()
	f.retriever.result = &retrieval.Result{}

	resp, err := f.svc.Chat(context.Background(), "u1", &model.ChatRequest{Question: "what about X?"})
	require.NoError(t, err)

	assert.False(t, resp.UsedRetrieval)
	assert.Empty(t, resp.Sources)
	require.NotEmpty(t, f.generator.gotMessages)
	assert.Equal(t, prompt.UngroundedSystemPrompt, f.generator.gotMessages[0].Content)
	assert.NotNil(t, f.conversations.appended)
}

func TestChatRetrievalFailurePersistsNothing(t *testing.T) {
	f := newChatFixture()
	f.retriever.err = errs.ErrRetrievalUnavailable

	_, err := f.svc.Chat(context.Background(), "u1", &model.ChatRequest{Question: "q"})
	assert.ErrorIs(t, err, errs.ErrRetrievalUnavailable)
	assert.Nil(t, f.conversations.appended)
}

func TestChatGenerationFailurePersistsNothing(t *testing.T) {
	f := newChatFixture()
	f.generator.err = errors.New("model crashed")

	_, err := f.svc.Chat(context.Background(), "u1", &model.ChatRequest{Question: "q"})
	assert.ErrorIs(t, err, errs.ErrGenerationUnavailable)
	assert.Nil(t, f.conversations.appended)
}

func TestChatEmbeddingFailureDegradesToLexical(t *testing.T) {
	f := newChatFixture()
	f.embedder.err = errors.New("backend down")
	f.retriever.result = &retrieval.Result{
		Chunks:  []model.RankedChunk{{ChunkID: 1, Filename: "a.txt", Text: "body"}},
		Partial: true,
	}

	resp, err := f.svc.Chat(context.Background(), "u1", &model.ChatRequest{Question: "q", Debug: true})
	require.NoError(t, err)

	assert.Nil(t, f.retriever.gotVector)
	assert.True(t, resp.PartialRetrieval)
	assert.True(t, resp.UsedRetrieval)
}

func TestChatLazyConversationCreation(t *testing.T) {
	f := newChatFixture()
	f.classifier.route = router.RouteCasual

	_, err := f.svc.Chat(context.Background(), "u1", &model.ChatRequest{Question: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "", f.conversations.ensuredKey)

	_, err = f.svc.Chat(context.Background(), "u1", &model.ChatRequest{Question: "hi", ConversationID: "conv-key-1"})
	require.NoError(t, err)
	assert.Equal(t, "conv-key-1", f.conversations.ensuredKey)
}

func TestChatTopKOverride(t *testing.T) {
	f := newChatFixture()

	_, err := f.svc.Chat(context.Background(), "u1", &model.ChatRequest{Question: "q", TopK: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, f.retriever.gotK)

	_, err = f.svc.Chat(context.Background(), "u1", &model.ChatRequest{Question: "q"})
	require.NoError(t, err)
	assert.Equal(t, 5, f.retriever.gotK)
}

func TestChatEmptyQuestionRejected(t *testing.T) {
	f := newChatFixture()

	_, err := f.svc.Chat(context.Background(), "u1", &model.ChatRequest{Question: "   "})
	assert.ErrorIs(t, err, errs.ErrInvalidConfiguration)
}

func TestChatUnknownConversationKey(t *testing.T) {
	f := newChatFixture()
	f.conversations.ensureErr = errs.ErrNotFound

	_, err := f.svc.Chat(context.Background(), "u1", &model.ChatRequest{Question: "q", ConversationID: "missing"})
	assert.ErrorIs(t, err, errs.ErrNotFound)
}
