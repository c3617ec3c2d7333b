package handlers

import (
	"net/http"
	"time"

	"github.com/quillfs/quillfs/pkg/nameserver"
)

// FilesHandler serves the file index snapshot.
type FilesHandler struct {
	state *nameserver.State
}

// NewFilesHandler creates a FilesHandler.
func NewFilesHandler(state *nameserver.State) *FilesHandler {
	return &FilesHandler{state: state}
}

// FileInfo is one index row.
type FileInfo struct {
	Name     string    `json:"name"`
	Owner    string    `json:"owner"`
	Servers  []int     `json:"servers"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`
	Accessed time.Time `json:"accessed"`
	Readers  int       `json:"readers"`
	Writers  int       `json:"writers"`
}

// FilesResponse is the response body for GET /api/v1/files.
type FilesResponse struct {
	Files []FileInfo `json:"files"`
	Total int        `json:"total"`
}

// List handles GET /api/v1/files. Rows come back in name order.
func (h *FilesHandler) List(w http.ResponseWriter, r *http.Request) {
	files := make([]FileInfo, 0)
	h.state.Walk(func(e nameserver.IndexEntry) {
		files = append(files, FileInfo{
			Name:     e.Name,
			Owner:    e.Owner,
			Servers:  e.Servers,
			Created:  e.Created,
			Modified: e.Modified,
			Accessed: e.Accessed,
			Readers:  len(e.ReadUsers),
			Writers:  len(e.WriteUsers),
		})
	})

	WriteJSONOK(w, FilesResponse{Files: files, Total: len(files)})
}
