package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/docchat-ai/rag-platform/internal/errs"
	"github.com/docchat-ai/rag-platform/internal/middleware"
	"github.com/docchat-ai/rag-platform/internal/model"
	"github.com/docchat-ai/rag-platform/internal/service"
	"github.com/docchat-ai/rag-platform/pkg/logger"
)

// DocumentHandler serves the document ingestion and management routes.
type DocumentHandler struct {
	ingest *service.IngestService
	logger *logger.Logger
}

// NewDocumentHandler creates a DocumentHandler.
func NewDocumentHandler(ingest *service.IngestService, log *logger.Logger) *DocumentHandler {
	return &DocumentHandler{ingest: ingest, logger: log}
}

// Create handles POST /documents.
func (h *DocumentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.IngestRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	resp, err := h.ingest.Ingest(r.Context(), middleware.GetUserID(r.Context()), &req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// List handles GET /documents.
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.ingest.ListDocuments(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs, "count": len(docs)})
}

// Delete handles DELETE /documents/{id}.
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	docID, err := docIDParam(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.ingest.DeleteDocument(r.Context(), middleware.GetUserID(r.Context()), docID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Reembed handles POST /documents/{id}/embed.
func (h *DocumentHandler) Reembed(w http.ResponseWriter, r *http.Request) {
	docID, err := docIDParam(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.ingest.Reembed(r.Context(), middleware.GetUserID(r.Context()), docID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"document_id": docID, "status": "queued"})
}

// EmbeddingStatus handles GET /documents/{id}/embedding.
func (h *DocumentHandler) EmbeddingStatus(w http.ResponseWriter, r *http.Request) {
	docID, err := docIDParam(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	status, err := h.ingest.EmbeddingStatus(r.Context(), middleware.GetUserID(r.Context()), docID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func docIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errs.InvalidConfiguration("invalid document id")
	}
	return id, nil
}
