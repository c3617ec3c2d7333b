package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/quillfs/quillfs/internal/admin/auth"
	"github.com/quillfs/quillfs/pkg/users"
)

// AuthHandler handles login against the users file oracle and token
// introspection.
type AuthHandler struct {
	users      *users.Store
	jwtService *auth.JWTService
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(oracle *users.Store, jwtService *auth.JWTService) *AuthHandler {
	return &AuthHandler{
		users:      oracle,
		jwtService: jwtService,
	}
}

// LoginRequest is the request body for POST /api/v1/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the response body for POST /api/v1/auth/login.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int64     `json:"expires_in"`
	ExpiresAt   time.Time `json:"expires_at"`
	Username    string    `json:"username"`
}

// Login handles POST /api/v1/auth/login: credentials against the users
// file, a signed token back.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.Username == "" || req.Password == "" {
		BadRequest(w, "Username and password are required")
		return
	}

	if err := h.users.Authenticate(req.Username, req.Password); err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			Unauthorized(w, "Invalid username or password")
			return
		}
		ServiceUnavailable(w, "Users store unavailable")
		return
	}

	token, err := h.jwtService.Generate(req.Username)
	if err != nil {
		InternalServerError(w, "Failed to generate token")
		return
	}

	WriteJSONOK(w, LoginResponse{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		ExpiresIn:   token.ExpiresIn,
		ExpiresAt:   token.ExpiresAt,
		Username:    req.Username,
	})
}

// MeResponse is the response body for GET /api/v1/auth/me.
type MeResponse struct {
	Username  string    `json:"username"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Me handles GET /api/v1/auth/me: introspection of the presented token.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		Unauthorized(w, "Authentication required")
		return
	}

	resp := MeResponse{Username: claims.Username}
	if claims.IssuedAt != nil {
		resp.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.Time
	}
	WriteJSONOK(w, resp)
}
