package apiclient

import (
	"time"
)

// File is one row of the file index snapshot.
type File struct {
	Name     string    `json:"name"`
	Owner    string    `json:"owner"`
	Servers  []int     `json:"servers"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`
	Accessed time.Time `json:"accessed"`
	Readers  int       `json:"readers"`
	Writers  int       `json:"writers"`
}

// FilesResponse is the file index snapshot.
type FilesResponse struct {
	Files []File `json:"files"`
	Total int    `json:"total"`
}

// Files returns the name server's file index in name order.
func (c *Client) Files() (*FilesResponse, error) {
	var resp FilesResponse
	if err := c.get("/api/v1/files", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
