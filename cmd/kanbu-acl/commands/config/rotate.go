package config

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kanbu/kanbu-acl/cmd/kanbu-acl/cmdutil"
	"github.com/kanbu/kanbu-acl/pkg/config"
	"github.com/kanbu/kanbu-acl/pkg/controlplane/api"
)

var rotateSecretCmd = &cobra.Command{
	Use:   "rotate-secret",
	Short: "Replace the JWT signing secret",
	Long: `Generate a new JWT signing secret and write it to the configuration file.

Every token issued with the previous secret stops validating once the server
is restarted with the new file.

Examples:
  kanbu-acl config rotate-secret
  kanbu-acl config rotate-secret --config /etc/kanbu-acl/config.yaml`,
	Args: cobra.NoArgs,
	RunE: runRotateSecret,
}

func runRotateSecret(cmd *cobra.Command, args []string) error {
	configPath := cmdutil.Flags.ConfigFile
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}

	if _, err := config.RotateJWTSecret(configPath); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "JWT secret rotated in %s\n", configPath)
	if os.Getenv(api.EnvControlPlaneSecret) != "" {
		_, _ = fmt.Fprintf(out, "Warning: %s is set and still overrides the file.\n", api.EnvControlPlaneSecret)
	}
	return nil
}
