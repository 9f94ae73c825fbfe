package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kanbu/kanbu-acl/cmd/kanbu-acl/cmdutil"
	"github.com/kanbu/kanbu-acl/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the kanbu-acl configuration file.

Examples:
  kanbu-acl config validate
  kanbu-acl config validate --config /etc/kanbu-acl/config.yaml`,
	Args: cobra.NoArgs,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	configPath := cmdutil.Flags.ConfigFile
	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file: %s\n", configPath)
	_, _ = fmt.Fprintln(out, "Validation: OK")

	if !cfg.ControlPlane.HasJWTSecret() {
		_, _ = fmt.Fprintln(out, "\nWarnings:")
		_, _ = fmt.Fprintln(out, "  - JWT secret not configured - API authentication will fail")
	}

	_, _ = fmt.Fprintf(out, "\nConfiguration summary:\n")
	_, _ = fmt.Fprintf(out, "  Database type:   %s\n", cfg.Database.Type)
	_, _ = fmt.Fprintf(out, "  API port:        %d\n", cfg.ControlPlane.Port)
	_, _ = fmt.Fprintf(out, "  Metrics:         %t\n", cfg.Metrics.Enabled)
	_, _ = fmt.Fprintf(out, "  Log level:       %s\n", cfg.Logging.Level)
	return nil
}
