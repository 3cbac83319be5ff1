package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	// This is a generic version of the entity-specific not found errors
	// (e.g., ErrPromptNotFound, ErrArtifactNotFound).
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity (e.g., a second artifact for the same prompt).
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored. Check the wrapped error for specific validation details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrTransactionFailed is returned when a database transaction fails
	// to commit or when an operation within a transaction fails.
	ErrTransactionFailed = errors.New("transaction failed")

	// Entity-specific "not found" errors

	// ErrPromptNotFound indicates that the requested prompt does not exist in the store.
	ErrPromptNotFound = fmt.Errorf("%w: prompt", ErrNotFound)

	// ErrArtifactNotFound indicates that the requested artifact does not exist in the store.
	ErrArtifactNotFound = fmt.Errorf("%w: artifact", ErrNotFound)

	// ErrSubscriptionNotFound indicates that the user has no subscription record.
	ErrSubscriptionNotFound = fmt.Errorf("%w: subscription", ErrNotFound)

	// Entity-specific "duplicate" errors

	// ErrArtifactExists indicates an artifact was already created for the prompt.
	// The prompt_id column carries a unique constraint so exactly one artifact
	// can ever exist per prompt.
	ErrArtifactExists = fmt.Errorf("%w: artifact for prompt", ErrDuplicate)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError checks if the error is any kind of "duplicate" error.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}
