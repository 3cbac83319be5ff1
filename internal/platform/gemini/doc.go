// Package gemini implements a title provider backed by Google's Gemini
// API. The pipeline uses it to name rendered artifacts; callers treat
// every failure here as recoverable and fall back to a locally derived
// title.
package gemini
