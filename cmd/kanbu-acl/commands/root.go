// Package commands implements the kanbu-acl command line.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/kanbu/kanbu-acl/cmd/kanbu-acl/cmdutil"
	configcmd "github.com/kanbu/kanbu-acl/cmd/kanbu-acl/commands/config"
	groupcmd "github.com/kanbu/kanbu-acl/cmd/kanbu-acl/commands/group"
	resourcecmd "github.com/kanbu/kanbu-acl/cmd/kanbu-acl/commands/resource"
	usercmd "github.com/kanbu/kanbu-acl/cmd/kanbu-acl/commands/user"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "kanbu-acl",
	Short: "Kanbu ACL - deny-first authorization for workspaces and projects",
	Long: `kanbu-acl stores filesystem-style access control lists for Kanbu
workspaces and projects and answers "may this user do this here?".

Grants and denies bind a user or group to a resource with a bitmask of
Read, Write, Execute, Delete and Permissions. Denies always win, and
workspace grants can flow down to projects.

Use "kanbu-acl [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cmdutil.Flags.ConfigFile, _ = cmd.Flags().GetString("config")
		cmdutil.Flags.Output, _ = cmd.Flags().GetString("output")
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: $XDG_CONFIG_HOME/kanbu-acl/config.yaml)")
	rootCmd.PersistentFlags().StringP("output", "o", "table", "Output format (table|json|yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(grantCmd)
	rootCmd.AddCommand(denyCmd)
	rootCmd.AddCommand(revokeCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(aclCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(configcmd.Cmd)
	rootCmd.AddCommand(usercmd.Cmd)
	rootCmd.AddCommand(groupcmd.Cmd)
	rootCmd.AddCommand(resourcecmd.WorkspaceCmd)
	rootCmd.AddCommand(resourcecmd.ProjectCmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
