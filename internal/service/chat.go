package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/docchat-ai/rag-platform/internal/errs"
	"github.com/docchat-ai/rag-platform/internal/llm"
	"github.com/docchat-ai/rag-platform/internal/model"
	"github.com/docchat-ai/rag-platform/internal/prompt"
	"github.com/docchat-ai/rag-platform/internal/retrieval"
	"github.com/docchat-ai/rag-platform/internal/router"
	"github.com/docchat-ai/rag-platform/pkg/logger"
	"github.com/docchat-ai/rag-platform/pkg/metrics"
)

// Conversations is the thread persistence surface the chat flow needs.
type Conversations interface {
	EnsureConversation(ctx context.Context, userID, key string) (*model.Conversation, error)
	AppendTurn(ctx context.Context, conversationID int64, question string, answer *model.Message) error
	RecentMessages(ctx context.Context, conversationID int64, limit int) ([]model.Message, error)
	ModelConfig(ctx context.Context, defaults model.ModelConfig) (model.ModelConfig, error)
}

// QueryEmbedder embeds a single query string.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Retriever runs hybrid retrieval.
type Retriever interface {
	Retrieve(ctx context.Context, userID, query string, queryVector []float32, k int) (*retrieval.Result, error)
}

// Classifier routes a question.
type Classifier interface {
	Classify(ctx context.Context, routerModel, question string, history []model.Message) router.Route
}

// ChatConfig holds chat turn tunables.
type ChatConfig struct {
	GenerationTimeout time.Duration
	Temperature       float64
	MaxOutTokens      int
	TopK              int
	HistoryMessages   int
	Defaults          model.ModelConfig
}

// ChatService runs the chat turn state machine: route, retrieve, assemble,
// generate, persist. A turn persists only after the full answer exists, so
// stored history never contains half a turn.
type ChatService struct {
	conversations Conversations
	embedder      QueryEmbedder
	retriever     Retriever
	classifier    Classifier
	assembler     *prompt.Assembler
	generator     llm.Client
	cfg           ChatConfig
	logger        *logger.Logger
}

// NewChatService creates a ChatService.
func NewChatService(
	conversations Conversations,
	embedder QueryEmbedder,
	retriever Retriever,
	classifier Classifier,
	assembler *prompt.Assembler,
	generator llm.Client,
	cfg ChatConfig,
	log *logger.Logger,
) *ChatService {
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	if cfg.HistoryMessages <= 0 {
		cfg.HistoryMessages = 8
	}
	return &ChatService{
		conversations: conversations,
		embedder:      embedder,
		retriever:     retriever,
		classifier:    classifier,
		assembler:     assembler,
		generator:     generator,
		cfg:           cfg,
		logger:        log,
	}
}

// Chat runs one full turn.
func (s *ChatService) Chat(ctx context.Context, userID string, req *model.ChatRequest) (*model.ChatResponse, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, errs.InvalidConfiguration("question is empty")
	}

	conv, err := s.conversations.EnsureConversation(ctx, userID, req.ConversationID)
	if err != nil {
		return nil, err
	}

	history, err := s.conversations.RecentMessages(ctx, conv.ID, s.cfg.HistoryMessages)
	if err != nil {
		return nil, err
	}

	models, err := s.conversations.ModelConfig(ctx, s.cfg.Defaults)
	if err != nil {
		return nil, err
	}

	route := s.classifier.Classify(ctx, models.RouterModel, question, history)

	var (
		sources    []model.Source
		contextTxt string
		system     string
		partial    bool
		grounded   bool
	)

	if route == router.RouteCasual {
		system = prompt.CasualSystemPrompt
	} else {
		result, err := s.retrieve(ctx, userID, question, req.TopK)
		if err != nil {
			metrics.ChatTurnsTotal.WithLabelValues(string(route), "retrieval_failed").Inc()
			return nil, err
		}
		partial = result.Partial

		assembled := s.assembler.Assemble(result.Chunks)
		grounded = assembled.Grounded
		if grounded {
			system = prompt.GroundedSystemPrompt
			contextTxt = assembled.Text
			sources = assembled.Sources
		} else {
			// Retrieval worked but matched nothing. Answer anyway, with
			// the missing grounding disclosed to the user.
			system = prompt.UngroundedSystemPrompt
		}
	}

	answer, tokensIn, tokensOut, err := s.generate(ctx, models.GenerationModel, system, contextTxt, question, history)
	if err != nil {
		metrics.ChatTurnsTotal.WithLabelValues(string(route), "generation_failed").Inc()
		return nil, err
	}

	assistantMsg := &model.Message{
		Content: answer,
		Sources: sources,
		Metadata: model.JSONMap{
			"model":      models.GenerationModel,
			"route":      string(route),
			"tokens_in":  tokensIn,
			"tokens_out": tokensOut,
		},
	}
	if err := s.conversations.AppendTurn(ctx, conv.ID, question, assistantMsg); err != nil {
		metrics.ChatTurnsTotal.WithLabelValues(string(route), "persist_failed").Inc()
		return nil, err
	}

	metrics.ChatTurnsTotal.WithLabelValues(string(route), "ok").Inc()

	resp := &model.ChatResponse{
		Answer:         answer,
		ConversationID: conv.ConversationKey,
		Sources:        sources,
		UsedRetrieval:  grounded,
	}
	if req.Debug {
		resp.Route = string(route)
		resp.PartialRetrieval = partial
	}
	return resp, nil
}

// retrieve embeds the question and fans out. An embedding failure downgrades
// to lexical-only rather than failing the turn.
func (s *ChatService) retrieve(ctx context.Context, userID, question string, topK int) (*retrieval.Result, error) {
	if topK <= 0 {
		topK = s.cfg.TopK
	}

	vector, err := s.embedder.EmbedQuery(ctx, question)
	if err != nil {
		s.logger.Warn("query embedding failed, retrieving lexically only", zap.Error(err))
		vector = nil
	}

	return s.retriever.Retrieve(ctx, userID, question, vector, topK)
}

func (s *ChatService) generate(ctx context.Context, generationModel, system, contextTxt, question string, history []model.Message) (string, int, int, error) {
	if s.cfg.GenerationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.GenerationTimeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := s.generator.Complete(ctx, &llm.CompletionRequest{
		Model:       generationModel,
		Messages:    prompt.ChatMessages(system, contextTxt, question, history),
		MaxTokens:   s.cfg.MaxOutTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		metrics.RecordGeneration(generationModel, "error", time.Since(start).Seconds(), 0, 0)
		return "", 0, 0, fmt.Errorf("%w: %s", errs.ErrGenerationUnavailable, err)
	}

	metrics.RecordGeneration(generationModel, "ok", time.Since(start).Seconds(), resp.TokensIn, resp.TokensOut)
	return resp.Content, resp.TokensIn, resp.TokensOut, nil
}
