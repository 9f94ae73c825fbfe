package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/juju/clock/testclock"

	"github.com/kanbu/kanbu-acl/pkg/authz"
	"github.com/kanbu/kanbu-acl/pkg/controlplane/store"
)

const testSecret = "test-secret-key-for-testing-only-32chars"

// testSetup creates a control plane store, an authz service and an APIConfig
// for testing.
func testSetup(t *testing.T, port int) (*store.GORMStore, *authz.Service, APIConfig) {
	t.Helper()
	t.Setenv(EnvControlPlaneSecret, "")

	cpStore, err := store.New(&store.Config{
		Type:   store.DatabaseTypeSQLite,
		SQLite: store.SQLiteConfig{Path: filepath.Join(t.TempDir(), "acl.db")},
	})
	if err != nil {
		t.Fatalf("Failed to create control plane store: %v", err)
	}
	t.Cleanup(func() { _ = cpStore.Close() })

	svc := authz.NewFromStore(cpStore, testclock.NewClock(time.Now()))

	cfg := APIConfig{
		Port:         port,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  10 * time.Second,
		JWT: JWTConfig{
			Secret:              testSecret,
			AccessTokenDuration: 15 * time.Minute,
		},
	}

	return cpStore, svc, cfg
}

// freePort asks the kernel for an unused TCP port.
func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to find free port: %v", err)
	}
	defer func() { _ = l.Close() }()
	return l.Addr().(*net.TCPAddr).Port
}

// waitForServer polls /health until the server answers.
func waitForServer(t *testing.T, port int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/health", port))
		if err == nil {
			_ = resp.Body.Close()
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("Server did not start in time")
}

func TestAPIServer_Lifecycle(t *testing.T) {
	cpStore, svc, cfg := testSetup(t, freePort(t))

	server, err := NewServer(cfg, svc, cpStore)
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start(ctx)
	}()
	waitForServer(t, cfg.Port)

	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/health/ready", cfg.Port))
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected Content-Type 'application/json', got '%s'", ct)
	}

	cancel()

	select {
	case err := <-errChan:
		if err != nil {
			t.Errorf("Expected nil on graceful shutdown, got: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Server did not shutdown in time")
	}

	// A second Stop is a no-op.
	if err := server.Stop(context.Background()); err != nil {
		t.Errorf("Expected nil from repeated Stop, got: %v", err)
	}
}

func TestAPIServer_DefaultConfig(t *testing.T) {
	cpStore, svc, _ := testSetup(t, 0)

	cfg := APIConfig{JWT: JWTConfig{Secret: testSecret}}

	server, err := NewServer(cfg, svc, cpStore)
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}
	if server.Port() != 8080 {
		t.Errorf("Expected default port 8080, got %d", server.Port())
	}
	if server.JWTService().AccessTokenDuration() != 15*time.Minute {
		t.Errorf("Expected default access token duration, got %v", server.JWTService().AccessTokenDuration())
	}
}

func TestAPIServer_InvalidJWTSecret(t *testing.T) {
	cpStore, svc, _ := testSetup(t, 0)

	cfg := APIConfig{JWT: JWTConfig{Secret: "short"}}

	if _, err := NewServer(cfg, svc, cpStore); err == nil {
		t.Fatal("Expected error for invalid JWT secret, got nil")
	}
}

func TestAPIConfig_SecretFromEnvironment(t *testing.T) {
	t.Setenv(EnvControlPlaneSecret, "environment-secret-that-is-long-enough")

	cfg := APIConfig{JWT: JWTConfig{Secret: "config-file-secret-that-is-long-enough"}}
	if got := cfg.GetJWTSecret(); got != "environment-secret-that-is-long-enough" {
		t.Errorf("Expected environment secret to win, got %q", got)
	}

	if _, err := NewJWTService(APIConfig{}); err != nil {
		t.Errorf("Expected environment secret alone to be enough, got: %v", err)
	}
}
