package api

import (
	"net/http"

	"github.com/melodia/melodia-api/internal/api/middleware"
	"github.com/melodia/melodia-api/internal/api/shared"
	"github.com/melodia/melodia-api/internal/platform/ws"
)

// WSHandler attaches clients to the notification hub.
type WSHandler struct {
	hub *ws.Hub
}

// NewWSHandler creates a WSHandler.
func NewWSHandler(hub *ws.Hub) *WSHandler {
	if hub == nil {
		panic("hub cannot be nil")
	}
	return &WSHandler{hub: hub}
}

// Connect handles GET /api/ws, upgrading the request and holding the
// connection open for prompt lifecycle notifications.
func (h *WSHandler) Connect(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User identity required")
		return
	}

	h.hub.HandleConnection(w, r, userID)
}
