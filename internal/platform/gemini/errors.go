package gemini

import "errors"

// Package-specific errors for the Gemini title provider
var (
	// ErrEmptyPromptText is returned when the prompt text to title is empty
	ErrEmptyPromptText = errors.New("prompt text cannot be empty")

	// ErrEmptyTitle is returned when the model responds with no usable title
	ErrEmptyTitle = errors.New("model returned an empty title")
)
