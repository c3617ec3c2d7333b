package apiclient

import (
	"fmt"
	"net/http"
)

// APIError is an error response from the admin API. The API answers
// failures with RFC 7807 problem documents; responses that are not
// problem documents (the auth middleware's plain-text 401, proxies) are
// folded into the same shape with the body as detail.
type APIError struct {
	Type   string `json:"type,omitempty"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Title, e.Detail)
	}
	return e.Title
}

// IsAuthError returns true if the request was rejected for missing or
// bad credentials.
func (e *APIError) IsAuthError() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

// IsNotFound returns true if the resource does not exist.
func (e *APIError) IsNotFound() bool {
	return e.Status == http.StatusNotFound
}

// IsUnavailable returns true if the server could not serve the request,
// typically because the users file is unreadable.
func (e *APIError) IsUnavailable() bool {
	return e.Status == http.StatusServiceUnavailable
}
