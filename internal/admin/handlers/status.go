package handlers

import (
	"net/http"
	"time"

	"github.com/quillfs/quillfs/pkg/nameserver"
	"github.com/quillfs/quillfs/pkg/storage"
)

// StatusHandler serves the aggregate node status and the manual sweep
// trigger. Uptime is measured from the name server state's creation, not
// from the admin server's.
type StatusHandler struct {
	state    *nameserver.State
	dataPath string
}

// NewStatusHandler creates a StatusHandler. dataPath may be empty when
// the node has no local data root; disk stats are omitted in that case.
func NewStatusHandler(state *nameserver.State, dataPath string) *StatusHandler {
	return &StatusHandler{state: state, dataPath: dataPath}
}

// StatusResponse is the response body for GET /api/v1/status.
type StatusResponse struct {
	Service        string             `json:"service"`
	StartedAt      time.Time          `json:"started_at"`
	Uptime         string             `json:"uptime"`
	UptimeSec      int64              `json:"uptime_sec"`
	StorageServers int                `json:"storage_servers"`
	IndexedFiles   int                `json:"indexed_files"`
	Disk           *storage.DiskUsage `json:"disk,omitempty"`
}

// Status handles GET /api/v1/status.
func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	files := 0
	h.state.Walk(func(nameserver.IndexEntry) { files++ })

	started := h.state.Started()
	uptime := time.Since(started)
	resp := StatusResponse{
		Service:        "quillfs",
		StartedAt:      started.UTC(),
		Uptime:         uptime.Round(time.Second).String(),
		UptimeSec:      int64(uptime.Seconds()),
		StorageServers: len(h.state.ActiveServers()),
		IndexedFiles:   files,
	}

	if h.dataPath != "" {
		if du, err := storage.ReadDiskUsage(h.dataPath); err == nil {
			resp.Disk = &du
		}
	}

	WriteJSONOK(w, resp)
}

// SweepResponse is the response body for POST /api/v1/sweep.
type SweepResponse struct {
	Evicted int `json:"evicted"`
}

// Sweep handles POST /api/v1/sweep. It probes every registered storage
// server once and evicts the unreachable ones, exactly like the periodic
// sweep.
func (h *StatusHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	WriteJSONOK(w, SweepResponse{Evicted: h.state.Sweep()})
}
