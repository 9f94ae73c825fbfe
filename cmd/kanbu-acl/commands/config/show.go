package config

import (
	"github.com/spf13/cobra"

	"github.com/kanbu/kanbu-acl/cmd/kanbu-acl/cmdutil"
	"github.com/kanbu/kanbu-acl/internal/cli/output"
	"github.com/kanbu/kanbu-acl/pkg/config"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the effective configuration",
	Long: `Display the configuration after defaults and KANBU_ACL_* overrides.

Table output is not supported here; YAML is printed instead.

Examples:
  kanbu-acl config show
  kanbu-acl config show -o json`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(cmdutil.Flags.ConfigFile)
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(cmdutil.Flags.Output)
	if err != nil {
		return err
	}
	if format == output.FormatJSON {
		return output.PrintJSON(cmd.OutOrStdout(), cfg)
	}
	return output.PrintYAML(cmd.OutOrStdout(), cfg)
}
