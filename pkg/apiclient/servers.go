package apiclient

import (
	"time"
)

// StorageServer is one row of the registry snapshot.
type StorageServer struct {
	ID           int       `json:"id"`
	Host         string    `json:"host"`
	Port         int       `json:"port"`
	Address      string    `json:"address"`
	Active       bool      `json:"active"`
	RegisteredAt time.Time `json:"registered_at"`
	LastSeen     time.Time `json:"last_seen"`
	Files        int       `json:"files"`
}

// ServersResponse is the registry snapshot.
type ServersResponse struct {
	Servers []StorageServer `json:"servers"`
	Total   int             `json:"total"`
}

// Servers returns the storage server registry with live probe results.
func (c *Client) Servers() (*ServersResponse, error) {
	var resp ServersResponse
	if err := c.get("/api/v1/servers", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
