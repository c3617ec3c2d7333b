package admin

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/quillfs/quillfs/internal/admin/auth"
	"github.com/quillfs/quillfs/internal/admin/handlers"
	"github.com/quillfs/quillfs/internal/logger"
	"github.com/quillfs/quillfs/pkg/metrics"
	"github.com/quillfs/quillfs/pkg/nameserver"
	"github.com/quillfs/quillfs/pkg/users"
)

// Deps collects the live name server pieces the admin handlers read
// from. The handlers never mutate any of them except through Sweep.
type Deps struct {
	// State is the registry and file index.
	State *nameserver.State

	// Users is the credentials oracle behind login and the user list.
	Users *users.Store

	// DataPath is the local data root for disk stats. Empty omits disk
	// stats from the status endpoint.
	DataPath string
}

// NewRouter creates and configures the chi router with all middleware
// and routes.
//
// Routes:
//   - GET /health - Liveness probe
//   - GET /health/ready - Readiness probe
//   - GET /metrics - Prometheus exposition (404 when metrics are off)
//   - POST /api/v1/auth/login - Token issuance against the users oracle
//   - GET /api/v1/auth/me - Token introspection
//   - GET /api/v1/servers - Storage server registry snapshot
//   - GET /api/v1/files - File index snapshot
//   - GET /api/v1/users - Oracle usernames
//   - GET /api/v1/status - Uptime, counts, disk stats
//   - POST /api/v1/sweep - Trigger a registry probe sweep
//
// Everything under /api/v1 except login requires a bearer token.
func NewRouter(deps Deps, jwtService *auth.JWTService) http.Handler {
	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	healthHandler := handlers.NewHealthHandler(deps.State)

	// Health routes - unauthenticated
	r.Route("/health", func(r chi.Router) {
		r.Get("/", healthHandler.Liveness)
		r.Get("/ready", healthHandler.Readiness)
	})

	// Prometheus exposition - unauthenticated, 404s when metrics are off
	r.Handle("/metrics", metrics.Handler())

	// Root redirect to health for convenience
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})

	authHandler := handlers.NewAuthHandler(deps.Users, jwtService)
	serversHandler := handlers.NewServersHandler(deps.State)
	filesHandler := handlers.NewFilesHandler(deps.State)
	usersHandler := handlers.NewUsersHandler(deps.Users)
	statusHandler := handlers.NewStatusHandler(deps.State, deps.DataPath)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			// Public endpoint
			r.Post("/login", authHandler.Login)

			// Authenticated endpoint
			r.Group(func(r chi.Router) {
				r.Use(auth.JWTAuth(jwtService))
				r.Get("/me", authHandler.Me)
			})
		})

		// Protected routes - require a valid token
		r.Group(func(r chi.Router) {
			r.Use(auth.JWTAuth(jwtService))

			r.Get("/servers", serversHandler.List)
			r.Get("/files", filesHandler.List)
			r.Get("/users", usersHandler.List)
			r.Get("/status", statusHandler.Status)
			r.Post("/sweep", statusHandler.Sweep)
		})
	})

	return r
}

// isHealthPath returns true if the request path is a healthcheck endpoint.
func isHealthPath(path string) bool {
	return path == "/health" || strings.HasPrefix(path, "/health/")
}

// requestLogger is a custom middleware that logs requests using the
// internal logger.
//
// It logs:
//   - Request start (DEBUG level): method, path, remote addr
//   - Request completion (INFO level): method, path, status, duration
//   - Healthcheck requests are logged at DEBUG level to reduce noise
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		logger.Debug("admin request started",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)

		// Wrap response writer to capture status code
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		duration := time.Since(start)

		logArgs := []any{
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", duration.String(),
		}

		// Log healthcheck requests at DEBUG to avoid polluting logs in k8s
		if isHealthPath(r.URL.Path) {
			logger.Debug("admin request completed", logArgs...)
		} else {
			logger.Info("admin request completed", logArgs...)
		}
	})
}
