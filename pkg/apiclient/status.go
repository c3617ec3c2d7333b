package apiclient

import (
	"time"
)

// DiskUsage reports capacity of the filesystem under the data root.
type DiskUsage struct {
	TotalBytes uint64 `json:"total_bytes"`
	UsedBytes  uint64 `json:"used_bytes"`
	FreeBytes  uint64 `json:"free_bytes"`
}

// StatusResponse is the aggregate node status.
type StatusResponse struct {
	Service        string     `json:"service"`
	StartedAt      time.Time  `json:"started_at"`
	Uptime         string     `json:"uptime"`
	UptimeSec      int64      `json:"uptime_sec"`
	StorageServers int        `json:"storage_servers"`
	IndexedFiles   int        `json:"indexed_files"`
	Disk           *DiskUsage `json:"disk,omitempty"`
}

// Status returns uptime, registry and index counts, and disk stats.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.get("/api/v1/status", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SweepResponse reports the outcome of a manual sweep.
type SweepResponse struct {
	Evicted int `json:"evicted"`
}

// Sweep asks the name server to probe every registered storage server
// and evict the unreachable ones.
func (c *Client) Sweep() (*SweepResponse, error) {
	var resp SweepResponse
	if err := c.post("/api/v1/sweep", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
