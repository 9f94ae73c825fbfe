package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/kanbu/kanbu-acl/internal/controlplane/api/auth"
	"github.com/kanbu/kanbu-acl/internal/telemetry"
)

var validate = validator.New()

// Validate runs struct-tag validation and the cross-field checks tags
// cannot express.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	if err := validate.Struct(cfg); err != nil {
		return err
	}

	if err := cfg.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	// An empty secret is allowed here: it may come from the environment at
	// start time.
	if s := cfg.ControlPlane.JWT.Secret; s != "" && len(s) < auth.MinSecretLength {
		return fmt.Errorf("controlplane.jwt.secret must be at least %d characters", auth.MinSecretLength)
	}

	if cfg.Telemetry.Profiling.Enabled {
		for _, pt := range cfg.Telemetry.Profiling.ProfileTypes {
			if !telemetry.ValidProfileType(pt) {
				return fmt.Errorf("telemetry.profiling.profile_types: unknown profile type %q", pt)
			}
		}
	}

	return nil
}
