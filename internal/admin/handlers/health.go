package handlers

import (
	"net/http"
	"time"

	"github.com/quillfs/quillfs/pkg/nameserver"
)

// HealthHandler handles the unauthenticated health probes.
type HealthHandler struct {
	state     *nameserver.State
	startTime time.Time
}

// NewHealthHandler creates a health handler. The state may be nil, in
// which case readiness reports unavailable.
func NewHealthHandler(state *nameserver.State) *HealthHandler {
	return &HealthHandler{
		state:     state,
		startTime: time.Now(),
	}
}

// Response wraps health payloads with a status and timestamp.
type Response struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
	Error     string    `json:"error,omitempty"`
}

func healthyResponse(data any) Response {
	return Response{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

func unhealthyResponse(errMsg string) Response {
	return Response{
		Status:    "unhealthy",
		Timestamp: time.Now().UTC(),
		Error:     errMsg,
	}
}

// Liveness handles GET /health. It succeeds as long as the HTTP server
// is responsive.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(h.startTime)
	WriteJSON(w, http.StatusOK, healthyResponse(map[string]any{
		"service":    "quillfs",
		"started_at": h.startTime.UTC().Format(time.RFC3339),
		"uptime":     uptime.Round(time.Second).String(),
		"uptime_sec": int64(uptime.Seconds()),
	}))
}

// Readiness handles GET /health/ready. Ready means the name server state
// is wired up; the counts give probes something to alert on.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.state == nil {
		WriteJSON(w, http.StatusServiceUnavailable, unhealthyResponse("name server state not initialized"))
		return
	}

	files := 0
	h.state.Walk(func(nameserver.IndexEntry) { files++ })

	WriteJSON(w, http.StatusOK, healthyResponse(map[string]any{
		"storage_servers": len(h.state.ActiveServers()),
		"indexed_files":   files,
	}))
}
