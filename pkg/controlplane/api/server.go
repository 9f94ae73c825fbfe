package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/kanbu/kanbu-acl/internal/controlplane/api/auth"
	"github.com/kanbu/kanbu-acl/internal/controlplane/api/handlers"
	"github.com/kanbu/kanbu-acl/internal/logger"
	"github.com/kanbu/kanbu-acl/pkg/authz"
)

// Issuer is the JWT issuer claim of tokens accepted by the API.
const Issuer = "kanbu-acl"

// Server provides an HTTP server for the REST API.
//
// The server supports graceful shutdown with configurable timeout.
type Server struct {
	server       *http.Server
	jwtService   *auth.JWTService
	config       APIConfig
	shutdownOnce sync.Once
}

// NewJWTService builds the token service for config. The secret must be set
// via config.JWT.Secret or KANBU_ACL_CONTROLPLANE_SECRET.
func NewJWTService(config APIConfig) (*auth.JWTService, error) {
	config.ApplyDefaults()

	jwtSecret := config.GetJWTSecret()
	if len(jwtSecret) < auth.MinSecretLength {
		return nil, fmt.Errorf("JWT secret must be at least %d characters; set via %s env var or config",
			auth.MinSecretLength, EnvControlPlaneSecret)
	}

	return auth.NewJWTService(auth.JWTConfig{
		Secret:              jwtSecret,
		Issuer:              Issuer,
		AccessTokenDuration: config.JWT.AccessTokenDuration,
	})
}

// NewServer creates a new API HTTP server in a stopped state. Call Start to
// begin serving requests.
//
// health is pinged by the readiness check; it is normally the same store
// that backs svc.
func NewServer(config APIConfig, svc *authz.Service, health handlers.Pinger) (*Server, error) {
	config.ApplyDefaults()

	jwtService, err := NewJWTService(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}

	router := NewRouter(svc, jwtService, health, config.RequestTimeout)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", config.Port),
		Handler:      router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return &Server{
		server:     server,
		jwtService: jwtService,
		config:     config,
	}, nil
}

// Start starts the API HTTP server and blocks until the context is cancelled
// or an error occurs. Cancellation triggers a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		logger.Info("API server listening", "port", s.config.Port)
		logger.Debug("API endpoints available",
			"health", fmt.Sprintf("http://localhost:%d/health", s.config.Port),
			"ready", fmt.Sprintf("http://localhost:%d/health/ready", s.config.Port),
		)

		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			select {
			case errChan <- err:
			default:
			}
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("API server shutdown signal received")
		// The cancelled ctx would abort the shutdown immediately.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("API server failed: %w", err)
	}
}

// Stop initiates graceful shutdown of the API server.
//
// Stop is safe to call multiple times and safe to call concurrently with Start().
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		logger.Debug("API server shutdown initiated")

		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("API server shutdown error: %w", err)
			logger.Error("API server shutdown error", logger.Err(err))
		} else {
			logger.Info("API server stopped gracefully")
		}
	})
	return shutdownErr
}

// Port returns the TCP port the server is listening on.
func (s *Server) Port() int {
	return s.config.Port
}

// JWTService returns the token service used to validate requests.
func (s *Server) JWTService() *auth.JWTService {
	return s.jwtService
}
