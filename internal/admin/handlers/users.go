package handlers

import (
	"net/http"

	"github.com/quillfs/quillfs/pkg/users"
)

// UsersHandler serves the account list from the users file oracle.
type UsersHandler struct {
	users *users.Store
}

// NewUsersHandler creates a UsersHandler.
func NewUsersHandler(store *users.Store) *UsersHandler {
	return &UsersHandler{users: store}
}

// UsersResponse is the response body for GET /api/v1/users.
type UsersResponse struct {
	Users []string `json:"users"`
	Total int      `json:"total"`
}

// List handles GET /api/v1/users. Only usernames leave the oracle;
// password hashes never cross the API.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	names, err := h.users.List()
	if err != nil {
		ServiceUnavailable(w, "Users store unavailable")
		return
	}

	WriteJSONOK(w, UsersResponse{Users: names, Total: len(names)})
}
