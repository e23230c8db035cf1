// Package server provides the HTTP API for proposal generation and revision.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/proposal-writer/internal/ingestion"
	"github.com/jonathan/proposal-writer/internal/keypool"
	"github.com/jonathan/proposal-writer/internal/pipeline"
	"github.com/jonathan/proposal-writer/internal/revision"
	"github.com/jonathan/proposal-writer/internal/store"
	"github.com/jonathan/proposal-writer/internal/types"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validationErr *ErrValidation
		fieldErrs     validator.ValidationErrors
		notFound      *store.NotFoundError
		pipelineErr   *pipeline.Error
		revisionErr   *revision.Error
	)

	switch {
	case errors.As(err, &validationErr),
		errors.As(err, &fieldErrs),
		errors.Is(err, types.ErrMissingJobBrief),
		errors.Is(err, pipeline.ErrEmptyJobBrief):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.Is(err, keypool.ErrNoCredentialsConfigured):
		return http.StatusServiceUnavailable
	case errors.As(err, &pipelineErr),
		errors.As(err, &revisionErr),
		errors.Is(err, ingestion.ErrHTTPRequestFailed):
		return http.StatusBadGateway
	case errors.Is(err, ingestion.ErrEmptyBrief),
		errors.Is(err, ingestion.ErrContentExtractionFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, store.ErrArchiveUnsupported):
		return http.StatusNotImplemented
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the error text safe to show API clients. Terminal
// generation failures carry provider detail in their cause, so only the
// fixed user message is exposed for them.
func PublicMessage(err error) string {
	var pipelineErr *pipeline.Error
	if errors.As(err, &pipelineErr) {
		return pipelineErr.Message
	}
	if HTTPStatus(err) == http.StatusInternalServerError {
		return "internal error"
	}
	return err.Error()
}
