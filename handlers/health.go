package handlers

import (
	"net/http"

	"github.com/akinalp/pricelist/pkg"
)

// ConnectionCounter, açık WebSocket bağlantılarını sayar (ws.Hub).
type ConnectionCounter interface {
	ConnectionCount() int
	OnlineUsernames() []string
}

// HealthResponse, health endpoint'inin response formatı.
type HealthResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Storage     string `json:"storage"`
	Connections int    `json:"connections"`
	OnlineUsers int    `json:"online_users"`
}

// HealthHandler, auth gerektirmeyen durum endpoint'i.
type HealthHandler struct {
	version string
	storage string
	conns   ConnectionCounter
}

// NewHealthHandler, constructor. main.go'da wire-up edilir.
func NewHealthHandler(version, storageDriver string, conns ConnectionCounter) *HealthHandler {
	return &HealthHandler{version: version, storage: storageDriver, conns: conns}
}

// Health: GET /api/health
// Response: { "success": true, "data": { "status": "ok", ... } }
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:  "ok",
		Version: h.version,
		Storage: h.storage,
	}
	if h.conns != nil {
		resp.Connections = h.conns.ConnectionCount()
		resp.OnlineUsers = len(h.conns.OnlineUsernames())
	}
	pkg.JSON(w, http.StatusOK, resp)
}
