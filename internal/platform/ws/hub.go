package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/melodia/melodia-api/internal/events"
)

const writeTimeout = 5 * time.Second

// Hub tracks websocket connections per user and delivers prompt
// lifecycle events to them. It implements events.Publisher.
//
// Delivery is best effort. A user with no open connection is simply not
// notified, and a connection that fails a write is dropped; neither case
// surfaces as an error to the publisher's caller.
type Hub struct {
	mu     sync.Mutex
	conns  map[uuid.UUID]map[*websocket.Conn]struct{}
	closed bool
	logger *slog.Logger

	upgrader websocket.Upgrader
}

// Ensure Hub implements events.Publisher interface
var _ events.Publisher = (*Hub)(nil)

// NewHub creates an empty connection hub.
// If logger is nil, a default logger will be used.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}

	return &Hub{
		conns:  make(map[uuid.UUID]map[*websocket.Conn]struct{}),
		logger: logger.With(slog.String("component", "ws_hub")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// HandleConnection upgrades the request to a websocket, registers it for
// the user, and holds it open until the client disconnects. Inbound
// messages are discarded; the socket is a one-way notification channel.
func (h *Hub) HandleConnection(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return
	}

	if !h.register(userID, conn) {
		_ = conn.Close()
		return
	}

	h.logger.Debug("websocket connected",
		slog.String("user_id", userID.String()))

	// Block on the read loop to detect disconnection.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.unregister(userID, conn)
	_ = conn.Close()

	h.logger.Debug("websocket disconnected",
		slog.String("user_id", userID.String()))
}

// Publish implements events.Publisher.Publish. A nil event or an absent
// recipient is a no-op.
func (h *Hub) Publish(_ context.Context, userID uuid.UUID, event *events.PromptEvent) error {
	if event == nil {
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	targets := h.conns[userID]
	if len(targets) == 0 {
		h.logger.Debug("no connections for user, dropping event",
			slog.String("user_id", userID.String()),
			slog.String("event_type", string(event.Type)))
		return nil
	}

	for conn := range targets {
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.logger.Warn("dropping websocket connection after failed write",
				slog.String("error", err.Error()),
				slog.String("user_id", userID.String()))
			delete(targets, conn)
			_ = conn.Close()
		}
	}
	if len(targets) == 0 {
		delete(h.conns, userID)
	}

	return nil
}

// ConnectionCount reports how many open connections a user has.
func (h *Hub) ConnectionCount(userID uuid.UUID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns[userID])
}

// Close drops every connection and rejects future registrations.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true

	for userID, targets := range h.conns {
		for conn := range targets {
			_ = conn.Close()
		}
		delete(h.conns, userID)
	}
	h.logger.Info("websocket hub closed")
}

func (h *Hub) register(userID uuid.UUID, conn *websocket.Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	if h.conns[userID] == nil {
		h.conns[userID] = make(map[*websocket.Conn]struct{})
	}
	h.conns[userID][conn] = struct{}{}
	return true
}

func (h *Hub) unregister(userID uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if targets, ok := h.conns[userID]; ok {
		delete(targets, conn)
		if len(targets) == 0 {
			delete(h.conns, userID)
		}
	}
}
