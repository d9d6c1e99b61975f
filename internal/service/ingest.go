// Package service orchestrates the ingestion, search, and chat flows over
// the stores, the retrieval layer, and the inference backends.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/docchat-ai/rag-platform/internal/chunker"
	"github.com/docchat-ai/rag-platform/internal/embedding"
	"github.com/docchat-ai/rag-platform/internal/errs"
	"github.com/docchat-ai/rag-platform/internal/jobs"
	"github.com/docchat-ai/rag-platform/internal/model"
	"github.com/docchat-ai/rag-platform/internal/store"
	"github.com/docchat-ai/rag-platform/pkg/logger"
	"github.com/docchat-ai/rag-platform/pkg/metrics"
)

// EmbedQueue enqueues background embedding work.
type EmbedQueue interface {
	SubmitEmbedJob(ctx context.Context, job jobs.EmbedJob) error
}

// IngestService stores documents, splits them into chunks, and drives the
// embedding pipeline.
type IngestService struct {
	index    *store.IndexStore
	chunker  *chunker.Chunker
	embedder *embedding.Client
	queue    EmbedQueue
	logger   *logger.Logger
}

// NewIngestService creates an IngestService.
func NewIngestService(index *store.IndexStore, ch *chunker.Chunker, embedder *embedding.Client, queue EmbedQueue, log *logger.Logger) *IngestService {
	return &IngestService{index: index, chunker: ch, embedder: embedder, queue: queue, logger: log}
}

// Ingest validates the request, stores the document with its chunks, and
// queues embedding. The response returns before any embedding happens.
func (s *IngestService) Ingest(ctx context.Context, userID string, req *model.IngestRequest) (*model.IngestResponse, error) {
	if strings.TrimSpace(req.Filename) == "" {
		return nil, errs.InvalidConfiguration("filename is required")
	}
	if strings.TrimSpace(req.ExtractedText) == "" {
		return nil, errs.InvalidConfiguration("extracted_text is empty")
	}

	doc := &model.Document{
		UserID:        userID,
		Filename:      req.Filename,
		ContentType:   req.ContentType,
		SizeBytes:     req.SizeBytes,
		ContentHash:   req.SHA256,
		ExtractedText: req.ExtractedText,
		Metadata:      req.Metadata,
	}

	texts := s.chunker.Split(req.ExtractedText)
	chunks, err := s.index.CreateDocument(ctx, doc, texts)
	if err != nil {
		return nil, err
	}
	metrics.RecordIngest(len(chunks))

	if len(chunks) > 0 {
		err = s.queue.SubmitEmbedJob(ctx, jobs.EmbedJob{DocumentID: doc.ID, UserID: userID})
		if err != nil {
			// The document is stored and lexically searchable. A later manual
			// re-embed recovers the vectors.
			s.logger.Error("failed to queue embed job",
				zap.Int64("document_id", doc.ID),
				zap.Error(err))
		}
	}

	return &model.IngestResponse{DocumentID: doc.ID, ChunkCount: len(chunks)}, nil
}

// Reembed queues a forced re-embedding of every chunk of the document.
func (s *IngestService) Reembed(ctx context.Context, userID string, docID int64) error {
	if _, err := s.index.GetDocument(ctx, userID, docID); err != nil {
		return err
	}
	return s.queue.SubmitEmbedJob(ctx, jobs.EmbedJob{DocumentID: docID, UserID: userID, Force: true})
}

// EmbedDocument is the worker handler. A forced job re-chunks the document
// from its stored text before embedding, so re-embeds pick up chunking
// config changes; a normal job only fills missing vectors, which keeps it
// cheaply resumable after a partial failure.
func (s *IngestService) EmbedDocument(ctx context.Context, job jobs.EmbedJob) error {
	var chunks []model.Chunk
	var err error
	if job.Force {
		doc, derr := s.index.GetDocument(ctx, job.UserID, job.DocumentID)
		if derr != nil {
			if errors.Is(derr, errs.ErrNotFound) {
				// Deleted since submission, nothing to do.
				return nil
			}
			return fmt.Errorf("load document %d: %w", job.DocumentID, derr)
		}
		chunks, err = s.index.ReplaceChunks(ctx, job.DocumentID, s.chunker.Split(doc.ExtractedText))
	} else {
		chunks, err = s.index.ChunksToEmbed(ctx, job.DocumentID, false)
	}
	if err != nil {
		return fmt.Errorf("load chunks for document %d: %w", job.DocumentID, err)
	}
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	ids := make([]int64, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
		ids[i] = c.ID
	}

	vectors, err := s.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed document %d: %w", job.DocumentID, err)
	}

	if err := s.index.WriteEmbeddings(ctx, ids, vectors, s.embedder.Model()); err != nil {
		return fmt.Errorf("write embeddings for document %d: %w", job.DocumentID, err)
	}

	s.logger.Info("document embedded",
		zap.Int64("document_id", job.DocumentID),
		zap.Int("chunks", len(chunks)))
	return nil
}

// ListDocuments returns the user's live documents with embedding counts.
func (s *IngestService) ListDocuments(ctx context.Context, userID string) ([]model.DocumentSummary, error) {
	return s.index.ListDocuments(ctx, userID)
}

// DeleteDocument soft deletes the user's document.
func (s *IngestService) DeleteDocument(ctx context.Context, userID string, docID int64) error {
	return s.index.SoftDeleteDocument(ctx, userID, docID)
}

// EmbeddingStatus reports embedding progress for the user's document.
func (s *IngestService) EmbeddingStatus(ctx context.Context, userID string, docID int64) (*model.EmbeddingStatus, error) {
	status, err := s.index.EmbeddingStatus(ctx, userID, docID)
	if err != nil {
		return nil, err
	}
	if status.Model == "" {
		status.Model = s.embedder.Model()
	}
	return status, nil
}
