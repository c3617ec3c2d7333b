// Package health mirrors the admin API's /health liveness payload for
// CLI probes that must not depend on the public apiclient.
package health

// Response is the shape written by the admin liveness handler.
type Response struct {
	Status    string       `json:"status"`
	Timestamp string       `json:"timestamp"`
	Data      LivenessData `json:"data"`
	Error     string       `json:"error,omitempty"`
}

// LivenessData carries the uptime block of a healthy reply.
type LivenessData struct {
	Service   string `json:"service"`
	StartedAt string `json:"started_at"`
	Uptime    string `json:"uptime"`
	UptimeSec int64  `json:"uptime_sec"`
}

// Healthy reports whether the probe returned the healthy status.
func (r Response) Healthy() bool { return r.Status == "healthy" }
