package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kanbu/kanbu-acl/cmd/kanbu-acl/cmdutil"
	"github.com/kanbu/kanbu-acl/internal/cli/prompt"
	"github.com/kanbu/kanbu-acl/pkg/config"
	"github.com/kanbu/kanbu-acl/pkg/controlplane/api"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample kanbu-acl configuration file with a random JWT secret.

By default, the configuration file is created at $XDG_CONFIG_HOME/kanbu-acl/config.yaml.
Use --config to specify a custom path.

Examples:
  # Initialize with default location
  kanbu-acl init

  # Initialize with custom path
  kanbu-acl init --config /etc/kanbu-acl/config.yaml

  # Overwrite an existing file without asking
  kanbu-acl init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file without asking")
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath := cmdutil.Flags.ConfigFile
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}

	if _, err := os.Stat(configPath); err == nil {
		ok, err := prompt.ConfirmWithForce(fmt.Sprintf("%s already exists. Overwrite", configPath), initForce)
		if err != nil {
			return cmdutil.HandleAbort(err)
		}
		if !ok {
			return nil
		}
	}

	// Overwrite was confirmed above.
	if err := config.InitConfigToPath(configPath, true); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file created at: %s\n", configPath)
	_, _ = fmt.Fprintln(out, "\nNext steps:")
	_, _ = fmt.Fprintln(out, "  1. Create an admin user:  kanbu-acl user create --username admin --role admin")
	_, _ = fmt.Fprintln(out, "  2. Issue an API token:    kanbu-acl token issue --user 1")
	_, _ = fmt.Fprintln(out, "  3. Start the server:      kanbu-acl start")
	_, _ = fmt.Fprintln(out, "\nSecurity note:")
	_, _ = fmt.Fprintln(out, "  A random JWT secret has been generated for development use.")
	_, _ = fmt.Fprintf(out, "  For production, set %s instead.\n", api.EnvControlPlaneSecret)

	return nil
}
