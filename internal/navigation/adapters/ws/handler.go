package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"gps-navigator/internal/common/ws"
	"gps-navigator/internal/general/contracts"
	"gps-navigator/internal/general/jwt"
	"gps-navigator/internal/navigation/app"
)

// serverMessage is the generic info/error frame sent to clients.
type serverMessage struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

type WSHandler struct {
	logger   *slog.Logger
	hub      *ws.Hub
	jwt      *jwt.Manager
	service  *app.AppService
	upgrader websocket.Upgrader
}

func NewWSHandler(logger *slog.Logger, hub *ws.Hub, mgr *jwt.Manager, service *app.AppService) *WSHandler {
	return &WSHandler{
		logger:  logger,
		hub:     hub,
		jwt:     mgr,
		service: service,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// HandleWS upgrades the connection, authenticates the first frame, then
// serves position/session frames until the client drops.
func (h *WSHandler) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("ws_upgrade_fail", "error", err)
		return
	}
	defer conn.Close()

	// ---------------- AUTH PHASE ----------------
	conn.SetReadDeadline(time.Now().Add(5 * time.Second)) // 5-second window for first message
	_, frame, err := conn.ReadMessage()
	if err != nil {
		h.logger.Warn("ws_auth_timeout_or_fail", "error", err)
		conn.WriteJSON(serverMessage{Type: "error", Message: "auth timeout or failed"})
		return
	}

	result, err := jwt.ValidateWSAuth(frame, h.jwt)
	if err != nil {
		h.logger.Warn("ws_auth_fail", "error", err)
		conn.WriteJSON(serverMessage{Type: "error", Message: err.Error()})
		return
	}

	deviceID := result.Claims.DeviceID()
	h.logger.Info("ws_auth_success", "device_id", deviceID)
	// confirm before the hub sees the connection: once added, broadcasts
	// may write it, and every data write must go through the hub mutex
	conn.WriteJSON(serverMessage{Type: "info", Message: "authenticated"})
	h.hub.Add(deviceID, conn)
	defer h.hub.Remove(deviceID)

	// ---------------- KEEP-ALIVE PHASE ----------------
	const (
		pingPeriod = 30 * time.Second
		pongWait   = 60 * time.Second
	)
	pingTicker := time.NewTicker(pingPeriod)
	defer pingTicker.Stop()

	// Every received pong extends the read deadline.
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				h.logger.Warn("ws_read_or_pong_timeout", "device_id", deviceID, "error", err)
				return
			}
			h.handleClientFrame(r, deviceID, msg)
		}
	}()

	for {
		select {
		case <-done:
			return
		case <-pingTicker.C:
			if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(5*time.Second)); err != nil {
				h.logger.Warn("ws_ping_fail", "device_id", deviceID, "error", err)
				return
			}
		}
	}
}

// handleClientFrame dispatches one post-auth client frame.
func (h *WSHandler) handleClientFrame(r *http.Request, deviceID string, msg []byte) {
	var envelope struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(msg, &envelope); err != nil {
		h.logger.Warn("ws_bad_frame", "device_id", deviceID, "error", err)
		return
	}

	switch envelope.Type {
	case "ping":
		_ = h.hub.Send(deviceID, serverMessage{Type: "pong"})

	case "gps_update":
		var wire contracts.PositionWire
		if err := json.Unmarshal(envelope.Data, &wire); err != nil {
			h.logger.Warn("ws_bad_gps_frame", "device_id", deviceID, "error", err)
			return
		}
		if _, err := h.service.IngestPosition(r.Context(), wire); err != nil {
			h.logger.Warn("ws_gps_rejected", "device_id", deviceID, "error", err)
		}

	case "request_position":
		position, ok, err := h.service.CurrentPosition(r.Context())
		if err != nil || !ok {
			_ = h.hub.Send(deviceID, serverMessage{Type: "error", Message: "no position available"})
			return
		}
		_ = h.hub.Send(deviceID, contracts.WSGpsUpdate{Type: "gps_update", Data: contracts.PositionToWire(position)})

	default:
		h.logger.Info("ws_msg_ignored", "device_id", deviceID, "msg_type", envelope.Type)
	}
}
