package resource

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/kanbu/kanbu-acl/cmd/kanbu-acl/cmdutil"
	"github.com/kanbu/kanbu-acl/pkg/controlplane/models"
)

// ProjectCmd is the parent command for project management.
var ProjectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
}

var (
	projectWorkspace int64
	projectName      string
)

var projectCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a project in a workspace",
	Long: `Create a project. Grants on the parent workspace that were made with
inheritance enabled apply to the new project immediately.

Examples:
  kanbu-acl project create --workspace 1 --name Website`,
	Args: cobra.NoArgs,
	RunE: runProjectCreate,
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the projects of a workspace",
	Args:  cobra.NoArgs,
	RunE:  runProjectList,
}

var projectDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a project and its ACL entries",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectDelete,
}

func init() {
	projectCreateCmd.Flags().Int64VarP(&projectWorkspace, "workspace", "w", 0, "Workspace ID (required)")
	projectCreateCmd.Flags().StringVarP(&projectName, "name", "n", "", "Project name (required)")
	_ = projectCreateCmd.MarkFlagRequired("workspace")
	_ = projectCreateCmd.MarkFlagRequired("name")

	projectListCmd.Flags().Int64VarP(&projectWorkspace, "workspace", "w", 0, "Workspace ID (required)")
	_ = projectListCmd.MarkFlagRequired("workspace")

	ProjectCmd.AddCommand(projectCreateCmd)
	ProjectCmd.AddCommand(projectListCmd)
	ProjectCmd.AddCommand(projectDeleteCmd)
}

func runProjectCreate(cmd *cobra.Command, args []string) error {
	env, err := cmdutil.OpenEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	id, err := env.Store.CreateProject(cmdutil.Context(cmd), &models.Project{WorkspaceID: projectWorkspace, Name: projectName})
	if err != nil {
		return err
	}

	p, err := cmdutil.Printer(cmd)
	if err != nil {
		return err
	}
	p.Success("Created project %s (project:%d)", projectName, id)
	return nil
}

// projectList renders projects as a table.
type projectList []*models.Project

func (l projectList) Headers() []string { return []string{"ID", "Workspace", "Name", "Created"} }

func (l projectList) Rows() [][]string {
	rows := make([][]string, len(l))
	for i, pr := range l {
		rows[i] = []string{
			strconv.FormatInt(pr.ID, 10),
			strconv.FormatInt(pr.WorkspaceID, 10),
			pr.Name,
			pr.CreatedAt.Format(time.RFC3339),
		}
	}
	return rows
}

func runProjectList(cmd *cobra.Command, args []string) error {
	env, err := cmdutil.OpenEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	projects, err := env.Store.ListProjects(cmdutil.Context(cmd), projectWorkspace)
	if err != nil {
		return err
	}

	p, err := cmdutil.Printer(cmd)
	if err != nil {
		return err
	}
	return p.Print(projectList(projects))
}

func runProjectDelete(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return err
	}

	env, err := cmdutil.OpenEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	if err := env.Store.DeleteProject(cmdutil.Context(cmd), id); err != nil {
		return err
	}

	p, err := cmdutil.Printer(cmd)
	if err != nil {
		return err
	}
	p.Success("Deleted project %d", id)
	return nil
}
