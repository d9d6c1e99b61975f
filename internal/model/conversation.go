package model

import (
	"time"
)

// Role is the sender role of a message. The set is closed; persistence and
// prompt assembly reject anything else.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// Conversation is a chat thread. UserID is empty for anonymous threads.
// UpdatedAt bumps on every appended message and drives recency ordering.
type Conversation struct {
	ID              int64     `gorm:"primaryKey" json:"-"`
	ConversationKey string    `gorm:"size:64;not null;uniqueIndex" json:"conversation_id"`
	UserID          string    `gorm:"size:64;index" json:"user_id,omitempty"`
	Metadata        JSONMap   `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (Conversation) TableName() string { return "conversations" }

// Message is one turn in a conversation. Messages are append-only; only soft
// deletion mutates a sent message.
type Message struct {
	ID             int64      `gorm:"primaryKey" json:"id"`
	ConversationID int64      `gorm:"not null;index" json:"-"`
	Role           Role       `gorm:"size:16;not null" json:"role"`
	Content        string     `gorm:"type:text;not null" json:"content"`
	Sources        SourceList `gorm:"type:jsonb" json:"sources"`
	Metadata       JSONMap    `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
}

func (Message) TableName() string { return "messages" }

// Source is a cited chunk reference attached to an assistant message.
type Source struct {
	SourceID   string  `json:"source_id"`
	ChunkID    int64   `json:"chunk_id"`
	DocumentID int64   `json:"document_id"`
	Filename   string  `json:"filename"`
	ChunkIndex int     `json:"chunk_index"`
	Score      float64 `json:"score,omitempty"`
}

// ConversationSummary is a listing row with a last-message preview.
type ConversationSummary struct {
	ConversationKey string    `json:"conversation_id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	MessageCount    int       `json:"message_count"`
	LastPreview     string    `json:"last_message_preview"`
	Similarity      float64   `json:"similarity,omitempty"`
}

// ModelConfig is a per-request snapshot of the selected model names.
// Resolved once at the start of a chat turn; never shared mutable state.
type ModelConfig struct {
	GenerationModel string
	RouterModel     string
}

// ModelSettings is the stored model selection, read-only for this core.
type ModelSettings struct {
	ID              int64  `gorm:"primaryKey"`
	GenerationModel string `gorm:"size:128"`
	RouterModel     string `gorm:"size:128"`
}

func (ModelSettings) TableName() string { return "model_settings" }
