package apiclient

import (
	"time"
)

// HealthResponse is the liveness/readiness envelope.
type HealthResponse struct {
	Status    string         `json:"status"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// Healthy reports whether the probe succeeded.
func (h *HealthResponse) Healthy() bool {
	return h.Status == "healthy"
}

// Health performs a liveness probe. It needs no token.
func (c *Client) Health() (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.get("/health", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Ready performs a readiness probe. It needs no token.
func (c *Client) Ready() (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.get("/health/ready", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
