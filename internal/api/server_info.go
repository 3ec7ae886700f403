package api

import (
	"net/http"

	"lobbynotify/internal/ws"
)

type ServerInfoHandler struct {
	serverName string
}

func NewServerInfoHandler(name string) *ServerInfoHandler {
	return &ServerInfoHandler{serverName: name}
}

type ServerInfoResponse struct {
	Name            string `json:"name"`
	ProtocolVersion int    `json:"protocolVersion"`
}

// GET /api/v1/server/info
func (h *ServerInfoHandler) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ServerInfoResponse{
		Name:            h.serverName,
		ProtocolVersion: ws.ProtocolVersion,
	})
}
