// Package generation defines the Generator boundary the processing
// pipeline renders artifacts through, along with a local synthesizer
// implementation that derives artifact metadata from prompt text.
package generation
