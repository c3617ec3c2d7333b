package handlers

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/quillfs/quillfs/pkg/nameserver"
)

// probeTimeout bounds the per-server liveness probe run for a registry
// snapshot. Probes run in parallel, so the whole request stays inside
// one timeout.
const probeTimeout = 300 * time.Millisecond

// ServersHandler serves the storage server registry snapshot.
type ServersHandler struct {
	state *nameserver.State
}

// NewServersHandler creates a ServersHandler.
func NewServersHandler(state *nameserver.State) *ServersHandler {
	return &ServersHandler{state: state}
}

// ServerInfo is one registry row. LastSeen is the last successful probe
// (sweeps refresh it); Active is the probe run for this request.
type ServerInfo struct {
	ID           int       `json:"id"`
	Host         string    `json:"host"`
	Port         int       `json:"port"`
	Address      string    `json:"address"`
	Active       bool      `json:"active"`
	RegisteredAt time.Time `json:"registered_at"`
	LastSeen     time.Time `json:"last_seen"`
	Files        int       `json:"files"`
}

// ServersResponse is the response body for GET /api/v1/servers.
type ServersResponse struct {
	Servers []ServerInfo `json:"servers"`
	Total   int          `json:"total"`
}

// List handles GET /api/v1/servers. Each registered server is probed for
// liveness; the file counts come from the index.
func (h *ServersHandler) List(w http.ResponseWriter, r *http.Request) {
	entries := h.state.ActiveServers()

	counts := make(map[int]int)
	h.state.Walk(func(e nameserver.IndexEntry) {
		for _, id := range e.Servers {
			counts[id]++
		}
	})

	infos := make([]ServerInfo, len(entries))
	var wg sync.WaitGroup
	for i, entry := range entries {
		infos[i] = ServerInfo{
			ID:           entry.ID,
			Host:         entry.Host,
			Port:         entry.ClientPort,
			Address:      entry.Addr(),
			RegisteredAt: entry.Registered,
			LastSeen:     entry.LastSeen,
			Files:        counts[entry.ID],
		}
		wg.Add(1)
		go func(i int, addr string) {
			defer wg.Done()
			infos[i].Active = probe(addr)
		}(i, entry.Addr())
	}
	wg.Wait()

	WriteJSONOK(w, ServersResponse{Servers: infos, Total: len(infos)})
}

func probe(addr string) bool {
	conn, err := net.DialTimeout("tcp", addr, probeTimeout)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
