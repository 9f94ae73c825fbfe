// Package resource implements workspace and project commands.
package resource

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/kanbu/kanbu-acl/cmd/kanbu-acl/cmdutil"
	"github.com/kanbu/kanbu-acl/internal/cli/prompt"
	"github.com/kanbu/kanbu-acl/pkg/controlplane/models"
)

// WorkspaceCmd is the parent command for workspace management.
var WorkspaceCmd = &cobra.Command{
	Use:     "workspace",
	Aliases: []string{"ws"},
	Short:   "Manage workspaces",
}

var (
	wsName  string
	wsSlug  string
	wsForce bool
)

var wsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a workspace",
	Args:  cobra.NoArgs,
	RunE:  runWorkspaceCreate,
}

var wsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List workspaces",
	Args:  cobra.NoArgs,
	RunE:  runWorkspaceList,
}

var wsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a workspace, its projects and every ACL entry on them",
	Args:  cobra.ExactArgs(1),
	RunE:  runWorkspaceDelete,
}

func init() {
	wsCreateCmd.Flags().StringVarP(&wsName, "name", "n", "", "Workspace name (required)")
	wsCreateCmd.Flags().StringVar(&wsSlug, "slug", "", "URL slug (required)")
	_ = wsCreateCmd.MarkFlagRequired("name")
	_ = wsCreateCmd.MarkFlagRequired("slug")

	wsDeleteCmd.Flags().BoolVarP(&wsForce, "force", "f", false, "Skip confirmation")

	WorkspaceCmd.AddCommand(wsCreateCmd)
	WorkspaceCmd.AddCommand(wsListCmd)
	WorkspaceCmd.AddCommand(wsDeleteCmd)
}

func runWorkspaceCreate(cmd *cobra.Command, args []string) error {
	env, err := cmdutil.OpenEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	id, err := env.Store.CreateWorkspace(cmdutil.Context(cmd), &models.Workspace{Name: wsName, Slug: wsSlug})
	if err != nil {
		return err
	}

	p, err := cmdutil.Printer(cmd)
	if err != nil {
		return err
	}
	p.Success("Created workspace %s (workspace:%d)", wsName, id)
	return nil
}

// workspaceList renders workspaces as a table.
type workspaceList []*models.Workspace

func (l workspaceList) Headers() []string { return []string{"ID", "Name", "Slug", "Created"} }

func (l workspaceList) Rows() [][]string {
	rows := make([][]string, len(l))
	for i, w := range l {
		rows[i] = []string{strconv.FormatInt(w.ID, 10), w.Name, w.Slug, w.CreatedAt.Format(time.RFC3339)}
	}
	return rows
}

func runWorkspaceList(cmd *cobra.Command, args []string) error {
	env, err := cmdutil.OpenEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	workspaces, err := env.Store.ListWorkspaces(cmdutil.Context(cmd))
	if err != nil {
		return err
	}

	p, err := cmdutil.Printer(cmd)
	if err != nil {
		return err
	}
	return p.Print(workspaceList(workspaces))
}

func runWorkspaceDelete(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return err
	}

	env, err := cmdutil.OpenEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	ctx := cmdutil.Context(cmd)
	ws, err := env.Store.GetWorkspace(ctx, id)
	if err != nil {
		return err
	}

	ok, err := prompt.ConfirmWithForce("Delete workspace "+ws.Name+" and all of its projects", wsForce)
	if err != nil {
		return cmdutil.HandleAbort(err)
	}
	if !ok {
		return nil
	}

	if err := env.Store.DeleteWorkspace(ctx, id); err != nil {
		return err
	}

	p, err := cmdutil.Printer(cmd)
	if err != nil {
		return err
	}
	p.Success("Deleted workspace %s", ws.Name)
	return nil
}
