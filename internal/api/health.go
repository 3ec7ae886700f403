package api

import (
	"net/http"

	"lobbynotify/internal/db"
)

type HealthHandler struct {
	database *db.DB
}

func NewHealthHandler(database *db.DB) *HealthHandler {
	return &HealthHandler{database: database}
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	dbStatus := "ok"
	status := http.StatusOK

	if err := h.database.PingContext(r.Context()); err != nil {
		dbStatus = "error"
		status = http.StatusServiceUnavailable
	}

	var schemaVersion int64
	if status == http.StatusOK {
		if v, err := h.database.SchemaVersion(); err == nil {
			schemaVersion = v
		}
	}

	result := "ok"
	if status != http.StatusOK {
		result = "degraded"
	}

	writeJSON(w, status, map[string]any{
		"status":        result,
		"schemaVersion": schemaVersion,
		"checks": map[string]string{
			"database": dbStatus,
		},
	})
}
