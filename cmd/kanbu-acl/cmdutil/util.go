// Package cmdutil holds helpers shared by the kanbu-acl subcommands.
package cmdutil

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/juju/clock"
	"github.com/spf13/cobra"

	"github.com/kanbu/kanbu-acl/internal/cli/output"
	"github.com/kanbu/kanbu-acl/internal/cli/prompt"
	"github.com/kanbu/kanbu-acl/internal/logger"
	"github.com/kanbu/kanbu-acl/pkg/acl"
	"github.com/kanbu/kanbu-acl/pkg/authz"
	"github.com/kanbu/kanbu-acl/pkg/config"
	"github.com/kanbu/kanbu-acl/pkg/controlplane/store"
)

// GlobalFlags holds the persistent root flags.
type GlobalFlags struct {
	ConfigFile string
	Output     string
}

// Flags is synced from the root command before any subcommand runs.
var Flags = &GlobalFlags{Output: "table"}

// LoadConfig loads the configuration named by --config, falling back to
// defaults when no file exists.
func LoadConfig() (*config.Config, error) {
	return config.Load(Flags.ConfigFile)
}

// InitLogger initializes the structured logger from configuration.
func InitLogger(cfg *config.Config) error {
	if err := logger.Init(cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// Env is an opened database plus the ACL service on top of it.
type Env struct {
	Config  *config.Config
	Store   *store.GORMStore
	Service *authz.Service
}

// Close releases the database.
func (e *Env) Close() {
	_ = e.Store.Close()
}

// OpenEnv loads configuration and opens the database for an admin command.
// Admin commands log only warnings and errors so their output stays clean.
func OpenEnv() (*Env, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	logger.SetLevel("WARN")

	st, err := store.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &Env{
		Config:  cfg,
		Store:   st,
		Service: authz.NewFromStore(st, clock.WallClock),
	}, nil
}

// Printer returns a printer for the --output flag writing to cmd's stdout.
func Printer(cmd *cobra.Command) (*output.Printer, error) {
	format, err := output.ParseFormat(Flags.Output)
	if err != nil {
		return nil, err
	}
	return output.NewPrinter(cmd.OutOrStdout(), format), nil
}

// PrincipalFromFlags builds the principal from mutually exclusive --user and
// --group IDs.
func PrincipalFromFlags(userID, groupID int64) (acl.PrincipalRef, error) {
	switch {
	case userID != 0 && groupID != 0:
		return acl.PrincipalRef{}, errors.New("specify only one of --user or --group")
	case userID != 0:
		return acl.User(userID), nil
	case groupID != 0:
		return acl.Group(groupID), nil
	default:
		return acl.PrincipalRef{}, errors.New("one of --user or --group is required")
	}
}

// FormatPermission renders a mask as "Read, Write (Editor)".
func FormatPermission(p acl.Permission) string {
	names := acl.Names(p)
	if len(names) == 0 {
		return "-"
	}
	s := strings.Join(names, ", ")
	if preset, ok := acl.PresetName(p); ok {
		s += " (" + preset + ")"
	}
	return s
}

// HandleAbort turns a prompt abort into a quiet cancellation.
func HandleAbort(err error) error {
	if errors.Is(err, prompt.ErrAborted) {
		return errors.New("aborted")
	}
	return err
}

// Context returns cmd's context or Background when none was set.
func Context(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
