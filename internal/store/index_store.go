package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"github.com/docchat-ai/rag-platform/internal/errs"
	"github.com/docchat-ai/rag-platform/internal/model"
)

// IndexStore owns the document and chunk tables. Every read and write is
// scoped to a user id; an empty scope is rejected before any SQL runs.
type IndexStore struct {
	db *gorm.DB
}

// NewIndexStore creates an IndexStore.
func NewIndexStore(db *gorm.DB) *IndexStore {
	return &IndexStore{db: db}
}

func requireScope(userID string) error {
	if userID == "" {
		return errs.ErrScopeViolation
	}
	return nil
}

// CreateDocument inserts the document and its chunks in one transaction.
// Chunk indices are assigned contiguously from 0 in input order.
func (s *IndexStore) CreateDocument(ctx context.Context, doc *model.Document, texts []string) ([]model.Chunk, error) {
	if err := requireScope(doc.UserID); err != nil {
		return nil, err
	}

	chunks := make([]model.Chunk, len(texts))
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(doc).Error; err != nil {
			return err
		}
		for i, text := range texts {
			chunks[i] = model.Chunk{
				DocumentID: doc.ID,
				ChunkIndex: i,
				Text:       text,
			}
		}
		if len(chunks) == 0 {
			return nil
		}
		return tx.CreateInBatches(&chunks, 200).Error
	})
	if err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	return chunks, nil
}

// ReplaceChunks swaps the document's chunk set in one transaction. Indices
// are contiguous from 0 in input order; old chunks and their vectors go away
// with the swap.
func (s *IndexStore) ReplaceChunks(ctx context.Context, docID int64, texts []string) ([]model.Chunk, error) {
	chunks := make([]model.Chunk, len(texts))
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", docID).Delete(&model.Chunk{}).Error; err != nil {
			return err
		}
		for i, text := range texts {
			chunks[i] = model.Chunk{
				DocumentID: docID,
				ChunkIndex: i,
				Text:       text,
			}
		}
		if len(chunks) == 0 {
			return nil
		}
		return tx.CreateInBatches(&chunks, 200).Error
	})
	if err != nil {
		return nil, fmt.Errorf("replace chunks: %w", err)
	}
	return chunks, nil
}

// GetDocument loads one live document owned by userID.
func (s *IndexStore) GetDocument(ctx context.Context, userID string, docID int64) (*model.Document, error) {
	if err := requireScope(userID); err != nil {
		return nil, err
	}

	var doc model.Document
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ? AND deleted_at IS NULL", docID, userID).
		First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListDocuments returns the user's live documents newest first, with chunk
// and embedding counts.
func (s *IndexStore) ListDocuments(ctx context.Context, userID string) ([]model.DocumentSummary, error) {
	if err := requireScope(userID); err != nil {
		return nil, err
	}

	var rows []model.DocumentSummary
	err := s.db.WithContext(ctx).Raw(`
		SELECT d.id, d.filename, d.content_type, d.size_bytes, d.created_at,
		       COUNT(c.id) AS chunk_count,
		       COUNT(c.embedding) AS embedded_count
		FROM documents d
		LEFT JOIN chunks c ON c.document_id = d.id
		WHERE d.user_id = ? AND d.deleted_at IS NULL
		GROUP BY d.id
		ORDER BY d.created_at DESC`, userID).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// SoftDeleteDocument marks the document deleted. Its chunks stay in place
// but drop out of every search through the deleted_at filter.
func (s *IndexStore) SoftDeleteDocument(ctx context.Context, userID string, docID int64) error {
	if err := requireScope(userID); err != nil {
		return err
	}

	res := s.db.WithContext(ctx).Model(&model.Document{}).
		Where("id = ? AND user_id = ? AND deleted_at IS NULL", docID, userID).
		Update("deleted_at", time.Now().UTC())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// ChunksToEmbed returns the document's chunks that need a vector, ordered by
// chunk index. With force set, every chunk is returned regardless of state.
func (s *IndexStore) ChunksToEmbed(ctx context.Context, docID int64, force bool) ([]model.Chunk, error) {
	q := s.db.WithContext(ctx).Where("document_id = ?", docID)
	if !force {
		q = q.Where("embedding IS NULL")
	}

	var chunks []model.Chunk
	if err := q.Order("chunk_index").Find(&chunks).Error; err != nil {
		return nil, err
	}
	return chunks, nil
}

// WriteEmbeddings stores one vector per chunk id, stamping the model and
// time. Vectors and ids are parallel slices.
func (s *IndexStore) WriteEmbeddings(ctx context.Context, chunkIDs []int64, vectors [][]float32, embeddingModel string) error {
	if len(chunkIDs) != len(vectors) {
		return fmt.Errorf("chunk id count %d does not match vector count %d", len(chunkIDs), len(vectors))
	}

	now := time.Now().UTC()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, id := range chunkIDs {
			vec := pgvector.NewVector(vectors[i])
			err := tx.Model(&model.Chunk{}).Where("id = ?", id).Updates(map[string]any{
				"embedding":       &vec,
				"embedding_model": embeddingModel,
				"embedded_at":     now,
			}).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// EmbeddingStatus reports embedding progress for one of the user's documents.
func (s *IndexStore) EmbeddingStatus(ctx context.Context, userID string, docID int64) (*model.EmbeddingStatus, error) {
	if _, err := s.GetDocument(ctx, userID, docID); err != nil {
		return nil, err
	}

	var row struct {
		ChunkCount    int
		EmbeddedCount int
		Model         string
	}
	err := s.db.WithContext(ctx).Raw(`
		SELECT COUNT(*) AS chunk_count,
		       COUNT(embedding) AS embedded_count,
		       COALESCE(MAX(embedding_model), '') AS model
		FROM chunks WHERE document_id = ?`, docID).Scan(&row).Error
	if err != nil {
		return nil, err
	}

	return &model.EmbeddingStatus{
		DocumentID:    docID,
		ChunkCount:    row.ChunkCount,
		EmbeddedCount: row.EmbeddedCount,
		Remaining:     row.ChunkCount - row.EmbeddedCount,
		Model:         row.Model,
	}, nil
}

// LexicalSearch runs full-text search over the user's live chunks and
// returns at most limit results, best first, with 1-based ranks.
func (s *IndexStore) LexicalSearch(ctx context.Context, userID, query string, limit int) ([]model.RankedChunk, error) {
	if err := requireScope(userID); err != nil {
		return nil, err
	}

	var rows []model.RankedChunk
	err := s.db.WithContext(ctx).Raw(`
		SELECT c.id AS chunk_id, c.document_id, d.filename, c.chunk_index, c.text,
		       ts_rank_cd(c.tsv, q) AS score,
		       ROW_NUMBER() OVER (ORDER BY ts_rank_cd(c.tsv, q) DESC, c.id) AS rank
		FROM chunks c
		JOIN documents d ON d.id = c.document_id,
		     websearch_to_tsquery('simple', ?) q
		WHERE d.user_id = ? AND d.deleted_at IS NULL AND c.tsv @@ q
		ORDER BY score DESC, c.id
		LIMIT ?`, query, userID, limit).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// VectorSearch runs cosine-similarity search over the user's live embedded
// chunks and returns at most limit results, best first, with 1-based ranks.
func (s *IndexStore) VectorSearch(ctx context.Context, userID string, vector []float32, limit int) ([]model.RankedChunk, error) {
	if err := requireScope(userID); err != nil {
		return nil, err
	}

	vec := pgvector.NewVector(vector)
	var rows []model.RankedChunk
	err := s.db.WithContext(ctx).Raw(`
		SELECT c.id AS chunk_id, c.document_id, d.filename, c.chunk_index, c.text,
		       1 - (c.embedding <=> ?) AS score,
		       ROW_NUMBER() OVER (ORDER BY c.embedding <=> ?, c.id) AS rank
		FROM chunks c
		JOIN documents d ON d.id = c.document_id
		WHERE d.user_id = ? AND d.deleted_at IS NULL AND c.embedding IS NOT NULL
		ORDER BY c.embedding <=> ?, c.id
		LIMIT ?`, vec, vec, userID, vec, limit).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
