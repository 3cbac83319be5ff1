// Package api contains the HTTP transport layer: request and response
// models, handlers for the prompt endpoints and the websocket
// attachment point, and the error-to-status mapping that keeps internal
// error details out of client responses.
package api
