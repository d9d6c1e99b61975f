// Package errs defines the error taxonomy shared across the pipeline.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration is returned for bad tunables, before any I/O.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrRetrievalUnavailable means both lexical and vector search failed.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")

	// ErrGenerationUnavailable means the answer model call failed or timed out.
	ErrGenerationUnavailable = errors.New("generation unavailable")

	// ErrScopeViolation means a query would cross a user boundary.
	ErrScopeViolation = errors.New("scope violation")

	// ErrNotFound means the requested resource does not exist for this user.
	ErrNotFound = errors.New("not found")
)

// EmbeddingBackendError wraps a failure on the embedding path.
type EmbeddingBackendError struct {
	Cause     error
	Transient bool
}

func (e *EmbeddingBackendError) Error() string {
	return fmt.Sprintf("embedding backend error: %v", e.Cause)
}

func (e *EmbeddingBackendError) Unwrap() error {
	return e.Cause
}

// NewEmbeddingError wraps err as a permanent embedding backend failure.
func NewEmbeddingError(err error) *EmbeddingBackendError {
	return &EmbeddingBackendError{Cause: err}
}

// NewTransientEmbeddingError wraps err as a retriable embedding backend failure.
func NewTransientEmbeddingError(err error) *EmbeddingBackendError {
	return &EmbeddingBackendError{Cause: err, Transient: true}
}

// IsEmbeddingError reports whether err is an EmbeddingBackendError.
func IsEmbeddingError(err error) bool {
	var e *EmbeddingBackendError
	return errors.As(err, &e)
}

// InvalidConfiguration wraps ErrInvalidConfiguration with a detail message.
func InvalidConfiguration(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfiguration, fmt.Sprintf(format, args...))
}
