package retrieval

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/docchat-ai/rag-platform/internal/errs"
	"github.com/docchat-ai/rag-platform/internal/model"
	"github.com/docchat-ai/rag-platform/pkg/logger"
	"github.com/docchat-ai/rag-platform/pkg/metrics"
)

// Retrieval method names, as carried in fused result attribution.
const (
	MethodLexical = "lexical"
	MethodVector  = "vector"
)

// Index is the search surface the retriever fans out over.
type Index interface {
	LexicalSearch(ctx context.Context, userID, query string, limit int) ([]model.RankedChunk, error)
	VectorSearch(ctx context.Context, userID string, vector []float32, limit int) ([]model.RankedChunk, error)
}

// Config holds fusion tunables. LegTimeout bounds each search leg on top of
// the request deadline.
type Config struct {
	RRFConstant  int
	FanOutFactor int
	LegTimeout   time.Duration
}

// Result is a fused retrieval outcome. Partial is set when one search leg
// failed or was skipped and the results come from the surviving leg alone.
type Result struct {
	Chunks  []model.RankedChunk
	Partial bool
}

// Retriever runs hybrid search: both legs in parallel, reciprocal rank
// fusion over whatever survives.
type Retriever struct {
	index  Index
	cfg    Config
	logger *logger.Logger
}

// NewRetriever creates a Retriever.
func NewRetriever(index Index, cfg Config, log *logger.Logger) *Retriever {
	if cfg.RRFConstant <= 0 {
		cfg.RRFConstant = DefaultRRFConstant
	}
	if cfg.FanOutFactor <= 0 {
		cfg.FanOutFactor = 2
	}
	if cfg.LegTimeout <= 0 {
		cfg.LegTimeout = 10 * time.Second
	}
	return &Retriever{index: index, cfg: cfg, logger: log}
}

type legResult struct {
	chunks []model.RankedChunk
	err    error
}

// Retrieve fans the query out to both indexes and fuses the top k. A nil
// queryVector skips the vector leg and yields a partial lexical result. If
// every attempted leg fails, the whole retrieval fails with
// ErrRetrievalUnavailable so the caller can refuse to answer ungrounded.
func (r *Retriever) Retrieve(ctx context.Context, userID, query string, queryVector []float32, k int) (*Result, error) {
	fanOut := r.cfg.FanOutFactor * k
	if fanOut < k {
		fanOut = k
	}

	lexCh := make(chan legResult, 1)
	vecCh := make(chan legResult, 1)

	go func() {
		chunks, err := r.searchLeg(ctx, MethodLexical, func(ctx context.Context) ([]model.RankedChunk, error) {
			return r.index.LexicalSearch(ctx, userID, query, fanOut)
		})
		lexCh <- legResult{chunks: chunks, err: err}
	}()

	vectorSkipped := queryVector == nil
	if vectorSkipped {
		vecCh <- legResult{}
	} else {
		go func() {
			chunks, err := r.searchLeg(ctx, MethodVector, func(ctx context.Context) ([]model.RankedChunk, error) {
				return r.index.VectorSearch(ctx, userID, queryVector, fanOut)
			})
			vecCh <- legResult{chunks: chunks, err: err}
		}()
	}

	lex := <-lexCh
	vec := <-vecCh

	if lex.err != nil && (vectorSkipped || vec.err != nil) {
		return nil, errs.ErrRetrievalUnavailable
	}

	var lists []RankedList
	partial := false
	if lex.err != nil {
		r.logger.Warn("lexical search failed, serving vector results only", zap.Error(lex.err))
		partial = true
	} else {
		lists = append(lists, RankedList{Method: MethodLexical, Chunks: lex.chunks})
	}
	if vectorSkipped {
		partial = true
	} else if vec.err != nil {
		r.logger.Warn("vector search failed, serving lexical results only", zap.Error(vec.err))
		partial = true
	} else {
		lists = append(lists, RankedList{Method: MethodVector, Chunks: vec.chunks})
	}

	if partial {
		metrics.RetrievalPartialTotal.Inc()
	}

	return &Result{
		Chunks:  FuseRRF(lists, r.cfg.RRFConstant, k),
		Partial: partial,
	}, nil
}

// searchLeg bounds one leg with its own deadline and times it.
func (r *Retriever) searchLeg(ctx context.Context, method string, fn func(context.Context) ([]model.RankedChunk, error)) ([]model.RankedChunk, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.LegTimeout)
	defer cancel()

	timer := prometheus.NewTimer(metrics.RetrievalDuration.WithLabelValues(method))
	defer timer.ObserveDuration()
	return fn(ctx)
}
