package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/docchat-ai/rag-platform/internal/middleware"
	"github.com/docchat-ai/rag-platform/internal/model"
	"github.com/docchat-ai/rag-platform/internal/store"
	"github.com/docchat-ai/rag-platform/pkg/logger"
)

// ConversationHandler serves the conversation listing routes.
type ConversationHandler struct {
	conversations *store.ConversationStore
	logger        *logger.Logger
}

// NewConversationHandler creates a ConversationHandler.
func NewConversationHandler(conversations *store.ConversationStore, log *logger.Logger) *ConversationHandler {
	return &ConversationHandler{conversations: conversations, logger: log}
}

// List handles GET /conversations with optional ?q= fuzzy filtering.
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	offset := 0
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			offset = n
		}
	}

	rows, err := h.conversations.ListConversations(
		r.Context(),
		middleware.GetUserID(r.Context()),
		r.URL.Query().Get("q"),
		limit,
		offset,
	)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, model.ListConversationsResponse{
		Conversations: rows,
		Limit:         limit,
		Offset:        offset,
		Count:         len(rows),
	})
}

// Delete handles DELETE /conversations/{key}.
func (h *ConversationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	if err := h.conversations.DeleteConversation(r.Context(), middleware.GetUserID(r.Context()), key); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Messages handles GET /conversations/{key}/messages.
func (h *ConversationHandler) Messages(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	messages, err := h.conversations.ListMessages(r.Context(), middleware.GetUserID(r.Context()), key)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, model.ListMessagesResponse{
		ConversationID: key,
		Messages:       messages,
	})
}
