package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"lobbynotify/internal/config"
	"lobbynotify/internal/ws"
)

type WebSocketHandler struct {
	hub      *ws.Hub
	allowed  []string
	upgrader websocket.Upgrader
}

func NewWebSocketHandler(hub *ws.Hub, cfg config.WebSocketConfig) *WebSocketHandler {
	h := &WebSocketHandler{hub: hub, allowed: cfg.AllowedOrigins}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// checkOrigin admits requests without an Origin header (native clients),
// loopback origins and configured ones.
func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return originAllowed(origin, h.allowed)
}

// ServeWS upgrades the connection. Authentication happens afterwards
// with the IDENTIFY command.
func (h *WebSocketHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Debug("websocket upgrade failed", "component", "api", "error", err)
		return
	}

	client := ws.NewClient(h.hub, conn, r.Header.Get("Origin"))
	client.SendHello()

	go client.WritePump()
	go client.ReadPump()
}
