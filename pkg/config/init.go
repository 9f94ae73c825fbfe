package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# kanbu-acl Configuration File
#
# Every value can be overridden with an environment variable using the
# KANBU_ACL_ prefix, e.g. KANBU_ACL_LOGGING_LEVEL=DEBUG.

logging:
  level: INFO        # DEBUG, INFO, WARN, ERROR
  format: text       # text or json
  output: stdout     # stdout, stderr or a file path

telemetry:
  enabled: false
  endpoint: localhost:4317
  insecure: true
  sample_rate: 1.0
  profiling:
    enabled: false
    endpoint: http://localhost:4040

metrics:
  enabled: false
  port: 9090

database:
  type: sqlite       # sqlite or postgres
  sqlite:
    path: %q
  # postgres:
  #   host: localhost
  #   port: 5432
  #   user: kanbu
  #   database: kanbu_acl
  #   sslmode: disable

controlplane:
  port: 8080
  read_timeout: 10s
  write_timeout: 10s
  idle_timeout: 60s
  request_timeout: 30s
  jwt:
    # Development secret. Prefer KANBU_ACL_CONTROLPLANE_SECRET in production.
    secret: %q
    access_token_duration: 15m

shutdown_timeout: 30s
`

// InitConfig writes a sample configuration to the default location and
// returns its path.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}
	return path, nil
}

// InitConfigToPath writes a sample configuration to path with a freshly
// generated JWT secret. The SQLite database is placed next to the file.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
		}
	}

	secret, err := generateSecret()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	content := fmt.Sprintf(configTemplate, filepath.Join(dir, "acl.db"), secret)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// RotateJWTSecret replaces the JWT secret in the config file at path with a
// freshly generated one and returns the new secret. The file is rewritten
// from the loaded configuration, so comments are lost and KANBU_ACL_*
// overrides in effect are persisted.
func RotateJWTSecret(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("config file not found at %s: run 'kanbu-acl init' first", path)
	}
	cfg, err := Load(path)
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}

	secret, err := generateSecret()
	if err != nil {
		return "", err
	}
	cfg.ControlPlane.JWT.Secret = secret

	if err := SaveConfig(cfg, path); err != nil {
		return "", err
	}
	return secret, nil
}

// generateSecret returns 32 random bytes hex-encoded (64 characters).
func generateSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate JWT secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
