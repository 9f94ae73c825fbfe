// Package group implements group and membership commands.
package group

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kanbu/kanbu-acl/cmd/kanbu-acl/cmdutil"
	"github.com/kanbu/kanbu-acl/pkg/controlplane/models"
	"github.com/kanbu/kanbu-acl/pkg/controlplane/store"
)

// Cmd is the parent command for group management.
var Cmd = &cobra.Command{
	Use:   "group",
	Short: "Manage groups and memberships",
}

var (
	createName        string
	createDescription string
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a group",
	Args:  cobra.NoArgs,
	RunE:  runCreate,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List groups",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <group>",
	Short: "Delete a group with its memberships and ACL entries",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	createCmd.Flags().StringVarP(&createName, "name", "n", "", "Group name (required)")
	createCmd.Flags().StringVar(&createDescription, "description", "", "Description")
	_ = createCmd.MarkFlagRequired("name")

	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(deleteCmd)
	Cmd.AddCommand(addMemberCmd)
	Cmd.AddCommand(removeMemberCmd)
	Cmd.AddCommand(membersCmd)
}

// lookup resolves a group by numeric ID or by name.
func lookup(ctx context.Context, st *store.GORMStore, ref string) (*models.Group, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return st.GetGroupByID(ctx, id)
	}
	return st.GetGroup(ctx, ref)
}

func runCreate(cmd *cobra.Command, args []string) error {
	env, err := cmdutil.OpenEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	id, err := env.Store.CreateGroup(cmdutil.Context(cmd), &models.Group{Name: createName, Description: createDescription})
	if err != nil {
		return err
	}

	p, err := cmdutil.Printer(cmd)
	if err != nil {
		return err
	}
	p.Success("Created group %s (id %d)", createName, id)
	return nil
}

// groupList renders groups as a table.
type groupList []*models.Group

func (l groupList) Headers() []string { return []string{"ID", "Name", "Description"} }

func (l groupList) Rows() [][]string {
	rows := make([][]string, len(l))
	for i, g := range l {
		rows[i] = []string{strconv.FormatInt(g.ID, 10), g.Name, g.Description}
	}
	return rows
}

func runList(cmd *cobra.Command, args []string) error {
	env, err := cmdutil.OpenEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	groups, err := env.Store.ListGroups(cmdutil.Context(cmd))
	if err != nil {
		return err
	}

	p, err := cmdutil.Printer(cmd)
	if err != nil {
		return err
	}
	return p.Print(groupList(groups))
}

func runDelete(cmd *cobra.Command, args []string) error {
	env, err := cmdutil.OpenEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	ctx := cmdutil.Context(cmd)
	g, err := lookup(ctx, env.Store, args[0])
	if err != nil {
		return err
	}
	if err := env.Store.DeleteGroup(ctx, g.Name); err != nil {
		return err
	}

	p, err := cmdutil.Printer(cmd)
	if err != nil {
		return err
	}
	p.Success("Deleted group %s", g.Name)
	return nil
}
