// Package model defines data structures for the grounded chat platform.
package model

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

// Document is an ingested text document. Immutable after storage except for
// soft deletion.
type Document struct {
	ID            int64      `gorm:"primaryKey" json:"id"`
	UserID        string     `gorm:"size:64;not null;index" json:"user_id"`
	Filename      string     `gorm:"size:512;not null" json:"filename"`
	ContentType   string     `gorm:"size:128" json:"content_type"`
	SizeBytes     int64      `gorm:"not null" json:"size_bytes"`
	ContentHash   string     `gorm:"size:64" json:"content_hash"`
	ExtractedText string     `gorm:"type:text;not null" json:"-"`
	Metadata      JSONMap    `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	DeletedAt     *time.Time `gorm:"index" json:"deleted_at,omitempty"`
}

func (Document) TableName() string { return "documents" }

// Chunk is a contiguous retrievable span of a document's text. Chunk indices
// within a document are contiguous from 0 and never reordered. A chunk with
// no embedding is retrievable lexically only.
//
// The lexical index entry (tsv column) is generated by the database from the
// text column and is intentionally absent from this struct.
type Chunk struct {
	ID             int64            `gorm:"primaryKey" json:"id"`
	DocumentID     int64            `gorm:"not null;uniqueIndex:idx_chunks_doc_seq,priority:1" json:"document_id"`
	ChunkIndex     int              `gorm:"not null;uniqueIndex:idx_chunks_doc_seq,priority:2" json:"chunk_index"`
	Text           string           `gorm:"type:text;not null" json:"text"`
	Embedding      *pgvector.Vector `gorm:"type:vector(768)" json:"-"`
	EmbeddingModel string           `gorm:"size:128" json:"embedding_model,omitempty"`
	EmbeddedAt     *time.Time       `json:"embedded_at,omitempty"`
}

func (Chunk) TableName() string { return "chunks" }

// RankedChunk is one entry of an ordered search result. Rank is 1-based
// within the result list. After fusion, Methods names the contributing
// retrieval methods, comma-joined.
type RankedChunk struct {
	ChunkID    int64   `json:"chunk_id"`
	DocumentID int64   `json:"document_id"`
	Filename   string  `json:"filename"`
	ChunkIndex int     `json:"chunk_index"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
	Rank       int     `json:"rank"`
	Methods    string  `json:"methods,omitempty" gorm:"-"`
}

// DocumentSummary is a listing row with embedding progress.
type DocumentSummary struct {
	ID            int64     `json:"id"`
	Filename      string    `json:"filename"`
	ContentType   string    `json:"content_type"`
	SizeBytes     int64     `json:"size_bytes"`
	CreatedAt     time.Time `json:"created_at"`
	ChunkCount    int       `json:"chunk_count"`
	EmbeddedCount int       `json:"embedded_chunk_count"`
}

// EmbeddingStatus reports embedding progress for one document.
type EmbeddingStatus struct {
	DocumentID    int64  `json:"document_id"`
	ChunkCount    int    `json:"chunk_count"`
	EmbeddedCount int    `json:"embedded_count"`
	Remaining     int    `json:"remaining"`
	Model         string `json:"model"`
}
