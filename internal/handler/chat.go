package handler

import (
	"net/http"

	"github.com/docchat-ai/rag-platform/internal/middleware"
	"github.com/docchat-ai/rag-platform/internal/model"
	"github.com/docchat-ai/rag-platform/internal/service"
	"github.com/docchat-ai/rag-platform/pkg/logger"
)

// ChatHandler serves POST /chat.
type ChatHandler struct {
	chat   *service.ChatService
	logger *logger.Logger
}

// NewChatHandler creates a ChatHandler.
func NewChatHandler(chat *service.ChatService, log *logger.Logger) *ChatHandler {
	return &ChatHandler{chat: chat, logger: log}
}

// Chat handles one chat turn.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req model.ChatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	resp, err := h.chat.Chat(r.Context(), middleware.GetUserID(r.Context()), &req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
