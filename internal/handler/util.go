// Package handler implements the HTTP API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/docchat-ai/rag-platform/internal/errs"
	"github.com/docchat-ai/rag-platform/internal/middleware"
	"github.com/docchat-ai/rag-platform/pkg/logger"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps domain errors to HTTP statuses. Internal detail stays in
// the logs; clients get a stable message per class.
func writeError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	var status int
	var message string

	switch {
	case errors.Is(err, errs.ErrInvalidConfiguration):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, errs.ErrNotFound):
		status = http.StatusNotFound
		message = "not found"
	case errors.Is(err, errs.ErrScopeViolation):
		status = http.StatusForbidden
		message = "request is not scoped to a user"
	case errors.Is(err, errs.ErrRetrievalUnavailable):
		status = http.StatusServiceUnavailable
		message = "retrieval is unavailable, try again later"
	case errors.Is(err, errs.ErrGenerationUnavailable):
		status = http.StatusBadGateway
		message = "answer generation is unavailable, try again later"
	case errs.IsEmbeddingError(err):
		status = http.StatusServiceUnavailable
		message = "embedding backend is unavailable, try again later"
	default:
		status = http.StatusInternalServerError
		message = "internal error"
	}

	if status >= 500 {
		log.Error("request failed",
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}

	writeJSON(w, status, errorResponse{Error: message})
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 10<<20))
	if err := dec.Decode(dst); err != nil {
		return errs.InvalidConfiguration("invalid JSON body: %s", err)
	}
	return nil
}
