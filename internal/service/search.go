package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/docchat-ai/rag-platform/internal/errs"
	"github.com/docchat-ai/rag-platform/internal/model"
	"github.com/docchat-ai/rag-platform/internal/store"
	"github.com/docchat-ai/rag-platform/pkg/logger"
)

// SearchConfig holds direct-search tunables.
type SearchConfig struct {
	DefaultK int
	MaxK     int
}

// SearchService exposes the retrieval index directly, without generation.
type SearchService struct {
	index     *store.IndexStore
	embedder  QueryEmbedder
	retriever Retriever
	cfg       SearchConfig
	logger    *logger.Logger
}

// NewSearchService creates a SearchService.
func NewSearchService(index *store.IndexStore, embedder QueryEmbedder, retriever Retriever, cfg SearchConfig, log *logger.Logger) *SearchService {
	if cfg.DefaultK <= 0 {
		cfg.DefaultK = 5
	}
	if cfg.MaxK <= 0 {
		cfg.MaxK = 20
	}
	return &SearchService{index: index, embedder: embedder, retriever: retriever, cfg: cfg, logger: log}
}

// Search runs one query in the requested mode. Hybrid is the default.
func (s *SearchService) Search(ctx context.Context, userID string, req *model.SearchRequest) (*model.SearchResponse, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, errs.InvalidConfiguration("query is empty")
	}

	k := req.K
	if k <= 0 {
		k = s.cfg.DefaultK
	}
	if k > s.cfg.MaxK {
		k = s.cfg.MaxK
	}

	mode := req.Mode
	if mode == "" {
		mode = model.SearchHybrid
	}

	switch mode {
	case model.SearchLexical:
		chunks, err := s.index.LexicalSearch(ctx, userID, query, k)
		if err != nil {
			return nil, err
		}
		return &model.SearchResponse{Results: toSearchResults(chunks, string(mode))}, nil

	case model.SearchVector:
		vector, err := s.embedder.EmbedQuery(ctx, query)
		if err != nil {
			return nil, err
		}
		chunks, err := s.index.VectorSearch(ctx, userID, vector, k)
		if err != nil {
			return nil, err
		}
		return &model.SearchResponse{Results: toSearchResults(chunks, string(mode))}, nil

	case model.SearchHybrid:
		vector, err := s.embedder.EmbedQuery(ctx, query)
		if err != nil {
			// Degrade to lexical-only; the response carries the partial flag.
			s.logger.Warn("query embedding failed, hybrid search degraded", zap.Error(err))
			vector = nil
		}
		result, err := s.retriever.Retrieve(ctx, userID, query, vector, k)
		if err != nil {
			return nil, err
		}
		return &model.SearchResponse{
			Results: toSearchResults(result.Chunks, string(mode)),
			Partial: result.Partial,
		}, nil

	default:
		return nil, errs.InvalidConfiguration("unknown search mode %q", mode)
	}
}

// toSearchResults copies ranked chunks into the response shape. Fused chunks
// carry their own method attribution; single-method results fall back to the
// mode they came from.
func toSearchResults(chunks []model.RankedChunk, method string) []model.SearchResult {
	out := make([]model.SearchResult, len(chunks))
	for i, c := range chunks {
		methods := c.Methods
		if methods == "" {
			methods = method
		}
		out[i] = model.SearchResult{
			ChunkID:    c.ChunkID,
			DocumentID: c.DocumentID,
			Filename:   c.Filename,
			ChunkIndex: c.ChunkIndex,
			Text:       c.Text,
			Score:      c.Score,
			Methods:    methods,
		}
	}
	return out
}
