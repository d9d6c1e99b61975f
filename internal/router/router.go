// Package router classifies incoming questions as casual chat or grounded
// questions that need document retrieval.
package router

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/docchat-ai/rag-platform/internal/llm"
	"github.com/docchat-ai/rag-platform/internal/model"
	"github.com/docchat-ai/rag-platform/internal/prompt"
	"github.com/docchat-ai/rag-platform/pkg/logger"
)

// Route is a classification outcome.
type Route string

const (
	RouteCasual   Route = "casual"
	RouteGrounded Route = "grounded"
)

// Config holds router call tunables.
type Config struct {
	Timeout   time.Duration
	MaxTokens int
}

// Router asks a small model whether a question needs retrieval. Any failure
// or unparseable reply falls back to grounded, so routing can degrade but
// never block a turn.
type Router struct {
	client llm.Client
	cfg    Config
	logger *logger.Logger
}

// New creates a Router.
func New(client llm.Client, cfg Config, log *logger.Logger) *Router {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 60
	}
	return &Router{client: client, cfg: cfg, logger: log}
}

// Classify routes the question using the given router model. History gives
// the classifier conversational context for follow-ups like "what about the
// second one".
func (r *Router) Classify(ctx context.Context, routerModel, question string, history []model.Message) Route {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	resp, err := r.client.Complete(ctx, &llm.CompletionRequest{
		Model:     routerModel,
		Messages:  prompt.RouterMessages(question, history),
		MaxTokens: r.cfg.MaxTokens,
	})
	if err != nil {
		r.logger.Warn("router call failed, defaulting to grounded", zap.Error(err))
		return RouteGrounded
	}

	return parseRoute(resp.Content)
}

// parseRoute extracts the route label. Strict JSON first, then a substring
// scan for models that wrap the JSON in prose.
func parseRoute(content string) Route {
	var decoded struct {
		Route string `json:"route"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &decoded); err == nil {
		switch Route(strings.ToLower(decoded.Route)) {
		case RouteCasual:
			return RouteCasual
		case RouteGrounded:
			return RouteGrounded
		}
	}

	lower := strings.ToLower(content)
	casual := strings.Contains(lower, string(RouteCasual))
	grounded := strings.Contains(lower, string(RouteGrounded))
	if casual && !grounded {
		return RouteCasual
	}
	return RouteGrounded
}
