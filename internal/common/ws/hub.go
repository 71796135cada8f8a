package ws

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// writeWait bounds every data write. Hub writes run on the position and
// session event paths; a stalled client must fail fast, not wedge them.
const writeWait = 5 * time.Second

// Hub stores all active WebSocket connections keyed by client ID.
type Hub struct {
	mu      sync.Mutex
	clients map[string]*websocket.Conn
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*websocket.Conn),
		logger:  logger,
	}
}

// Add registers a new connection under a unique ID. An existing connection
// under the same ID is closed and replaced.
func (h *Hub) Add(id string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if old, ok := h.clients[id]; ok {
		_ = old.Close()
	}
	h.clients[id] = conn
	h.logger.Info("ws_registered", "id", id)
}

// Remove deletes and closes a connection.
func (h *Hub) Remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conn, ok := h.clients[id]; ok {
		_ = conn.Close()
		delete(h.clients, id)
		h.logger.Info("ws_removed", "id", id)
	}
}

// Send transmits a JSON message to a single connected client. Writes are
// serialized through the hub mutex; gorilla connections allow one writer.
// A client whose write fails or times out is dropped.
func (h *Hub) Send(id string, msg any) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	conn, ok := h.clients[id]
	if !ok {
		return nil // client not connected
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(msg); err != nil {
		h.logger.Warn("ws_send_fail", "id", id, "error", err)
		_ = conn.Close()
		delete(h.clients, id)
		return err
	}
	return nil
}

// Broadcast transmits a JSON message to every connected client. Clients
// whose write fails or times out are dropped from the hub.
func (h *Hub) Broadcast(msg any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, conn := range h.clients {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(msg); err != nil {
			h.logger.Warn("ws_broadcast_fail", "id", id, "error", err)
			_ = conn.Close()
			delete(h.clients, id)
		}
	}
}

// ListConnected returns all connected IDs (for debugging/admin tools).
func (h *Hub) ListConnected() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	keys := make([]string, 0, len(h.clients))
	for k := range h.clients {
		keys = append(keys, k)
	}
	return keys
}
