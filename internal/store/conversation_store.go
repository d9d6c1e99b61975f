package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/docchat-ai/rag-platform/internal/errs"
	"github.com/docchat-ai/rag-platform/internal/model"
)

const previewChars = 180

// ConversationStore persists chat threads and their messages.
type ConversationStore struct {
	db *gorm.DB
}

// NewConversationStore creates a ConversationStore.
func NewConversationStore(db *gorm.DB) *ConversationStore {
	return &ConversationStore{db: db}
}

// EnsureConversation resolves a conversation key to a thread, creating the
// thread lazily. An empty key always creates a fresh thread with a random
// key. A key owned by another user is reported as not found, never leaked.
func (s *ConversationStore) EnsureConversation(ctx context.Context, userID, key string) (*model.Conversation, error) {
	if err := requireScope(userID); err != nil {
		return nil, err
	}

	if key != "" {
		var conv model.Conversation
		err := s.db.WithContext(ctx).
			Where("conversation_key = ? AND user_id = ?", key, userID).
			First(&conv).Error
		if err == nil {
			return &conv, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, errs.ErrNotFound
	}

	conv := model.Conversation{
		ConversationKey: uuid.NewString(),
		UserID:          userID,
	}
	if err := s.db.WithContext(ctx).Create(&conv).Error; err != nil {
		return nil, err
	}
	return &conv, nil
}

// AppendTurn stores the user question and the assistant answer as one unit
// and bumps the thread's recency. Either both messages land or neither does.
func (s *ConversationStore) AppendTurn(ctx context.Context, conversationID int64, question string, answer *model.Message) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		userMsg := model.Message{
			ConversationID: conversationID,
			Role:           model.RoleUser,
			Content:        question,
		}
		if err := tx.Create(&userMsg).Error; err != nil {
			return err
		}

		answer.ConversationID = conversationID
		answer.Role = model.RoleAssistant
		if err := tx.Create(answer).Error; err != nil {
			return err
		}

		return tx.Model(&model.Conversation{}).
			Where("id = ?", conversationID).
			Update("updated_at", time.Now().UTC()).Error
	})
}

// RecentMessages returns the thread's last limit live messages in
// chronological order.
func (s *ConversationStore) RecentMessages(ctx context.Context, conversationID int64, limit int) ([]model.Message, error) {
	var messages []model.Message
	err := s.db.WithContext(ctx).
		Where("conversation_id = ? AND deleted_at IS NULL", conversationID).
		Order("id DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	// Reverse into oldest-first for prompt assembly.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// ListMessages returns every live message of the user's thread in
// chronological order.
func (s *ConversationStore) ListMessages(ctx context.Context, userID, key string) ([]model.Message, error) {
	if err := requireScope(userID); err != nil {
		return nil, err
	}

	var conv model.Conversation
	err := s.db.WithContext(ctx).
		Where("conversation_key = ? AND user_id = ?", key, userID).
		First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var messages []model.Message
	err = s.db.WithContext(ctx).
		Where("conversation_id = ? AND deleted_at IS NULL", conv.ID).
		Order("id").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// DeleteConversation removes the user's thread and all of its messages.
func (s *ConversationStore) DeleteConversation(ctx context.Context, userID, key string) error {
	if err := requireScope(userID); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var conv model.Conversation
		err := tx.Where("conversation_key = ? AND user_id = ?", key, userID).First(&conv).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.ErrNotFound
		}
		if err != nil {
			return err
		}

		if err := tx.Where("conversation_id = ?", conv.ID).Delete(&model.Message{}).Error; err != nil {
			return err
		}
		return tx.Delete(&conv).Error
	})
}

// ListConversations returns the user's threads newest-activity first. A
// non-empty query additionally filters by trigram similarity against the
// threads' message text.
func (s *ConversationStore) ListConversations(ctx context.Context, userID, query string, limit, offset int) ([]model.ConversationSummary, error) {
	if err := requireScope(userID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var rows []model.ConversationSummary
	if strings.TrimSpace(query) == "" {
		err := s.db.WithContext(ctx).Raw(`
			SELECT c.conversation_key, c.created_at, c.updated_at,
			       COUNT(m.id) AS message_count,
			       COALESCE(LEFT((
			           SELECT content FROM messages
			           WHERE conversation_id = c.id AND deleted_at IS NULL
			           ORDER BY id DESC LIMIT 1
			       ), ?), '') AS last_preview
			FROM conversations c
			LEFT JOIN messages m ON m.conversation_id = c.id AND m.deleted_at IS NULL
			WHERE c.user_id = ?
			GROUP BY c.id
			ORDER BY c.updated_at DESC
			LIMIT ? OFFSET ?`, previewChars, userID, limit, offset).Scan(&rows).Error
		if err != nil {
			return nil, err
		}
		return rows, nil
	}

	err := s.db.WithContext(ctx).Raw(`
		SELECT c.conversation_key, c.created_at, c.updated_at,
		       COUNT(m.id) AS message_count,
		       COALESCE(LEFT((
		           SELECT content FROM messages
		           WHERE conversation_id = c.id AND deleted_at IS NULL
		           ORDER BY id DESC LIMIT 1
		       ), ?), '') AS last_preview,
		       MAX(similarity(lower(m.content), lower(?))) AS similarity
		FROM conversations c
		JOIN messages m ON m.conversation_id = c.id AND m.deleted_at IS NULL
		WHERE c.user_id = ?
		  AND (lower(m.content) % lower(?) OR lower(m.content) LIKE '%' || lower(?) || '%')
		GROUP BY c.id
		ORDER BY similarity DESC, c.updated_at DESC
		LIMIT ? OFFSET ?`, previewChars, query, userID, query, query, limit, offset).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ModelConfig reads the stored model selection, falling back to the given
// defaults for any unset field. The snapshot is taken once per chat turn.
func (s *ConversationStore) ModelConfig(ctx context.Context, defaults model.ModelConfig) (model.ModelConfig, error) {
	var settings model.ModelSettings
	err := s.db.WithContext(ctx).Order("id DESC").First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return defaults, nil
	}
	if err != nil {
		return model.ModelConfig{}, err
	}

	cfg := defaults
	if settings.GenerationModel != "" {
		cfg.GenerationModel = settings.GenerationModel
	}
	if settings.RouterModel != "" {
		cfg.RouterModel = settings.RouterModel
	}
	if cfg.RouterModel == "" {
		cfg.RouterModel = cfg.GenerationModel
	}
	return cfg, nil
}
