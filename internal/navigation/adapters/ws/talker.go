package ws

import (
	"gps-navigator/internal/common/ws" // shared Hub
	"gps-navigator/internal/navigation/domain"
)

// Ensure Talker implements the domain.Broadcaster interface.
var _ domain.Broadcaster = (*Talker)(nil)

// Talker is the outbound WebSocket adapter the application layer uses to
// fan frames out to every connected client via the shared Hub.
type Talker struct {
	hub *ws.Hub
}

// NewTalker creates a new Talker bound to the shared Hub.
func NewTalker(hub *ws.Hub) *Talker {
	return &Talker{hub: hub}
}

// Broadcast writes a JSON message to every connected client.
func (t *Talker) Broadcast(msg any) {
	t.hub.Broadcast(msg)
}
