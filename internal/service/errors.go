// Package service provides the application-level operations for
// submitting and querying prompts.
package service

import (
	"errors"
	"fmt"
)

// Common service errors - sentinel errors used across service implementations.
// Callers check for these with errors.Is(); the API layer maps them to
// HTTP status codes.
var (
	// ErrNotOwned indicates a resource is owned by a different user than
	// the one making the request. API layer should map this to HTTP 403.
	ErrNotOwned = errors.New("resource is owned by another user")
)

// PromptServiceError is a custom error type for prompt service errors.
type PromptServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for PromptServiceError.
func (e *PromptServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("prompt service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("prompt service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *PromptServiceError) Unwrap() error {
	return e.Err
}

// NewPromptServiceError creates a new PromptServiceError.
func NewPromptServiceError(operation, message string, err error) *PromptServiceError {
	return &PromptServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
