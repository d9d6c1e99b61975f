// Package store persists documents, chunks, and conversations in Postgres
// and runs the lexical and vector search queries.
package store

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/docchat-ai/rag-platform/internal/model"
)

// Connect opens the Postgres connection pool and runs migrations.
func Connect(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}

// migrate creates the schema. Extensions and the generated tsv column cannot
// be expressed through gorm tags, so they run as raw DDL.
func migrate(db *gorm.DB) error {
	for _, stmt := range []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE EXTENSION IF NOT EXISTS pg_trgm`,
	} {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}

	if err := db.AutoMigrate(
		&model.Document{},
		&model.Chunk{},
		&model.Conversation{},
		&model.Message{},
		&model.ModelSettings{},
	); err != nil {
		return err
	}

	for _, stmt := range []string{
		`ALTER TABLE chunks ADD COLUMN IF NOT EXISTS tsv tsvector
			GENERATED ALWAYS AS (to_tsvector('simple', text)) STORED`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_tsv ON chunks USING gin (tsv)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_embedding ON chunks
			USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_content_trgm ON messages
			USING gin (lower(content) gin_trgm_ops)`,
	} {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
