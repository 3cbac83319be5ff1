// Package events defines the prompt lifecycle notifications the
// pipeline publishes when a prompt reaches a terminal state, and the
// Publisher boundary transports implement to deliver them.
package events
