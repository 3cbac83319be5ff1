package api

import (
	"errors"
	"net/http"

	"github.com/melodia/melodia-api/internal/domain"
	"github.com/melodia/melodia-api/internal/ratelimit"
	"github.com/melodia/melodia-api/internal/service"
	"github.com/melodia/melodia-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status
// codes based on the error type. This prevents leaking internal error
// types or messages to clients.
func MapErrorToStatusCode(err error) int {
	var limitErr *ratelimit.LimitExceededError

	switch {
	case errors.As(err, &limitErr):
		return http.StatusTooManyRequests

	case errors.Is(err, service.ErrNotOwned):
		return http.StatusForbidden

	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	case errors.Is(err, domain.ErrEmptyPromptText),
		errors.Is(err, domain.ErrEmptyPromptUserID),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var limitErr *ratelimit.LimitExceededError

	switch {
	case errors.As(err, &limitErr):
		return limitErr.Error()

	case errors.Is(err, service.ErrNotOwned):
		return "You do not own this prompt"

	case errors.Is(err, store.ErrPromptNotFound):
		return "Prompt not found"

	case errors.Is(err, store.ErrArtifactNotFound):
		return "Artifact not found"

	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"

	case errors.Is(err, domain.ErrEmptyPromptText):
		return "Prompt text is required"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid request data"

	default:
		return "An unexpected error occurred"
	}
}
