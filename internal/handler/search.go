package handler

import (
	"net/http"

	"github.com/docchat-ai/rag-platform/internal/middleware"
	"github.com/docchat-ai/rag-platform/internal/model"
	"github.com/docchat-ai/rag-platform/internal/service"
	"github.com/docchat-ai/rag-platform/pkg/logger"
)

// SearchHandler serves POST /search.
type SearchHandler struct {
	search *service.SearchService
	logger *logger.Logger
}

// NewSearchHandler creates a SearchHandler.
func NewSearchHandler(search *service.SearchService, log *logger.Logger) *SearchHandler {
	return &SearchHandler{search: search, logger: log}
}

// Search handles a direct index query.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req model.SearchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	resp, err := h.search.Search(r.Context(), middleware.GetUserID(r.Context()), &req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
