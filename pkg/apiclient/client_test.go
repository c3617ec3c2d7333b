package apiclient

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================
// Client core
// ============================================================

func TestNew(t *testing.T) {
	client := New("http://localhost:9090/")
	assert.NotNil(t, client)
	assert.Equal(t, "http://localhost:9090", client.baseURL)
}

func TestWithToken(t *testing.T) {
	client := New("http://localhost:9090")
	tokenClient := client.WithToken("test-token")

	// Original client should not have token
	assert.Empty(t, client.token)

	// New client should have token
	assert.Equal(t, "test-token", tokenClient.token)
	assert.Equal(t, "http://localhost:9090", tokenClient.baseURL)
}

func TestSetToken(t *testing.T) {
	client := New("http://localhost:9090")
	client.SetToken("my-token")
	assert.Equal(t, "my-token", client.token)
}

func TestDoSetsJSONHeaders(t *testing.T) {
	type Response struct {
		Message string `json:"message"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(Response{Message: "success"})
	}))
	defer server.Close()

	client := New(server.URL)

	var resp Response
	err := client.get("/test", &resp)
	require.NoError(t, err)
	assert.Equal(t, "success", resp.Message)
}

func TestDoSendsBearerToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := New(server.URL).WithToken("test-token")
	err := client.get("/test", nil)
	require.NoError(t, err)
}

func TestDoDecodesProblemResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/problem+json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(APIError{
			Type:   "about:blank",
			Title:  "Unauthorized",
			Detail: "Invalid username or password",
		})
	}))
	defer server.Close()

	client := New(server.URL)
	err := client.get("/test", nil)
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, "Unauthorized", apiErr.Title)
	assert.Equal(t, "Invalid username or password", apiErr.Detail)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.True(t, apiErr.IsAuthError())
	assert.Equal(t, "Unauthorized: Invalid username or password", apiErr.Error())
}

func TestDoFoldsPlainTextErrors(t *testing.T) {
	// The bearer middleware answers with http.Error, not a problem
	// document.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Authorization header required", http.StatusUnauthorized)
	}))
	defer server.Close()

	client := New(server.URL)
	err := client.get("/test", nil)
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Authorization header required", apiErr.Detail)
	assert.True(t, apiErr.IsAuthError())
}

func TestPostEncodesBody(t *testing.T) {
	type Request struct {
		Name string `json:"name"`
	}
	type Response struct {
		ID int `json:"id"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)

		var req Request
		_ = json.NewDecoder(r.Body).Decode(&req)
		assert.Equal(t, "test", req.Name)

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(Response{ID: 123})
	}))
	defer server.Close()

	client := New(server.URL)

	var resp Response
	err := client.post("/test", Request{Name: "test"}, &resp)
	require.NoError(t, err)
	assert.Equal(t, 123, resp.ID)
}

// ============================================================
// Typed endpoints
// ============================================================

func TestLogin(t *testing.T) {
	expiry := time.Now().Add(24 * time.Hour).Truncate(time.Second)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/auth/login", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		var req LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "alice", req.Username)
		assert.Equal(t, "secret", req.Password)

		_ = json.NewEncoder(w).Encode(TokenResponse{
			AccessToken: "signed-token",
			TokenType:   "Bearer",
			ExpiresIn:   86400,
			ExpiresAt:   expiry,
			Username:    "alice",
		})
	}))
	defer server.Close()

	token, err := New(server.URL).Login("alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, "signed-token", token.AccessToken)
	assert.Equal(t, "alice", token.Username)
	assert.Equal(t, 24*time.Hour, token.ExpiresInDuration())
	assert.WithinDuration(t, expiry, token.ExpiresAt, time.Second)
}

func TestServersSnapshot(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/servers", r.URL.Path)
		_ = json.NewEncoder(w).Encode(ServersResponse{
			Servers: []StorageServer{
				{ID: 1, Host: "10.0.0.5", Port: 8082, Address: "10.0.0.5:8082", Active: true, Files: 3},
				{ID: 2, Host: "10.0.0.6", Port: 8083, Address: "10.0.0.6:8083", Active: false},
			},
			Total: 2,
		})
	}))
	defer server.Close()

	resp, err := New(server.URL).WithToken("tok").Servers()
	require.NoError(t, err)
	require.Equal(t, 2, resp.Total)
	assert.Equal(t, 1, resp.Servers[0].ID)
	assert.True(t, resp.Servers[0].Active)
	assert.Equal(t, 3, resp.Servers[0].Files)
	assert.False(t, resp.Servers[1].Active)
}

func TestFilesSnapshot(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/files", r.URL.Path)
		_ = json.NewEncoder(w).Encode(FilesResponse{
			Files: []File{{Name: "doc.txt", Owner: "alice", Servers: []int{1, 2}, Readers: 2, Writers: 1}},
			Total: 1,
		})
	}))
	defer server.Close()

	resp, err := New(server.URL).WithToken("tok").Files()
	require.NoError(t, err)
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, "doc.txt", resp.Files[0].Name)
	assert.Equal(t, []int{1, 2}, resp.Files[0].Servers)
}

func TestUsersList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/users", r.URL.Path)
		_ = json.NewEncoder(w).Encode(UsersResponse{Users: []string{"alice", "bob"}, Total: 2})
	}))
	defer server.Close()

	resp, err := New(server.URL).WithToken("tok").Users()
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, resp.Users)
}

func TestStatusAndSweep(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/status":
			_ = json.NewEncoder(w).Encode(StatusResponse{
				Service:        "quillfs",
				StorageServers: 2,
				IndexedFiles:   7,
				Disk:           &DiskUsage{TotalBytes: 1000, UsedBytes: 400, FreeBytes: 600},
			})
		case "/api/v1/sweep":
			require.Equal(t, http.MethodPost, r.Method)
			_ = json.NewEncoder(w).Encode(SweepResponse{Evicted: 1})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := New(server.URL).WithToken("tok")

	status, err := client.Status()
	require.NoError(t, err)
	assert.Equal(t, "quillfs", status.Service)
	assert.Equal(t, 2, status.StorageServers)
	require.NotNil(t, status.Disk)
	assert.EqualValues(t, 1000, status.Disk.TotalBytes)

	sweep, err := client.Sweep()
	require.NoError(t, err)
	assert.Equal(t, 1, sweep.Evicted)
}

func TestHealthProbe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		_ = json.NewEncoder(w).Encode(HealthResponse{Status: "healthy", Timestamp: time.Now()})
	}))
	defer server.Close()

	resp, err := New(server.URL).Health()
	require.NoError(t, err)
	assert.True(t, resp.Healthy())
}
