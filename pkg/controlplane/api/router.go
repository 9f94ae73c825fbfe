package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kanbu/kanbu-acl/internal/controlplane/api/auth"
	"github.com/kanbu/kanbu-acl/internal/controlplane/api/handlers"
	apiMiddleware "github.com/kanbu/kanbu-acl/internal/controlplane/api/middleware"
	"github.com/kanbu/kanbu-acl/internal/logger"
	"github.com/kanbu/kanbu-acl/pkg/authz"
)

// NewRouter creates and configures the chi router with all middleware and routes.
//
// Routes:
//   - GET /health - Liveness check
//   - GET /health/ready - Readiness check (store ping)
//   - GET /api/v1/presets - Permission presets
//   - GET /api/v1/{resourceType}/{resourceID}/acl - List entries (READ)
//   - PUT /api/v1/{resourceType}/{resourceID}/acl/{principalType}/{principalID}/grant - Grant (PERMISSIONS)
//   - PUT /api/v1/{resourceType}/{resourceID}/acl/{principalType}/{principalID}/deny - Deny (PERMISSIONS)
//   - DELETE /api/v1/{resourceType}/{resourceID}/acl/{principalType}/{principalID} - Revoke (PERMISSIONS)
//   - GET /api/v1/{resourceType}/{resourceID}/access - Evaluate
//   - GET /api/v1/{resourceType}/{resourceID}/explain - Entries behind an evaluation
//
// Admins bypass the per-resource checks.
func NewRouter(svc *authz.Service, jwtService *auth.JWTService, health handlers.Pinger, requestTimeout time.Duration) http.Handler {
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.LogContext)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	healthHandler := handlers.NewHealthHandler(health)
	r.Route("/health", func(r chi.Router) {
		r.Get("/", healthHandler.Liveness)
		r.Get("/ready", healthHandler.Readiness)
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})

	aclHandler := handlers.NewACLHandler(svc)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(apiMiddleware.JWTAuth(jwtService))

		r.Get("/presets", handlers.ListPresets)

		r.Route("/{resourceType}/{resourceID}", func(r chi.Router) {
			r.Get("/access", aclHandler.Access)
			r.Get("/explain", aclHandler.Explain)

			r.Route("/acl", func(r chi.Router) {
				r.Get("/", aclHandler.List)
				r.Route("/{principalType}/{principalID}", func(r chi.Router) {
					r.Put("/grant", aclHandler.Grant)
					r.Put("/deny", aclHandler.Deny)
					r.Delete("/", aclHandler.Revoke)
				})
			})
		})
	})

	return r
}

// isHealthPath returns true if the request path is a healthcheck endpoint.
func isHealthPath(path string) bool {
	return path == "/health" || strings.HasPrefix(path, "/health/")
}

// requestLogger logs request completion; healthchecks at DEBUG.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		logger.DebugCtx(r.Context(), "API request started",
			logger.KeyMethod, r.Method,
			logger.KeyPath, r.URL.Path,
		)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		logArgs := []any{
			logger.KeyMethod, r.Method,
			logger.KeyPath, r.URL.Path,
			logger.KeyStatus, ww.Status(),
			"bytes", ww.BytesWritten(),
			logger.KeyDurationMs, float64(time.Since(start).Microseconds()) / 1000,
		}

		if isHealthPath(r.URL.Path) {
			logger.DebugCtx(r.Context(), "API request completed", logArgs...)
		} else {
			logger.InfoCtx(r.Context(), "API request completed", logArgs...)
		}
	})
}
