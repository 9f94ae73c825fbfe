// Package user implements user management commands.
package user

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/kanbu/kanbu-acl/cmd/kanbu-acl/cmdutil"
	"github.com/kanbu/kanbu-acl/internal/cli/output"
	"github.com/kanbu/kanbu-acl/pkg/controlplane/models"
)

// Cmd is the parent command for user management.
var Cmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var (
	createUsername string
	createEmail    string
	createRole     string
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new user",
	Long: `Create a user that ACL entries can name.

Admins bypass ACL checks on the admin API; regular users are
authorized by their entries.

Examples:
  kanbu-acl user create --username alice
  kanbu-acl user create --username root --role admin`,
	Args: cobra.NoArgs,
	RunE: runCreate,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	createCmd.Flags().StringVarP(&createUsername, "username", "u", "", "Username (required)")
	createCmd.Flags().StringVar(&createEmail, "email", "", "Email address")
	createCmd.Flags().StringVar(&createRole, "role", string(models.RoleUser), "Role (user|admin)")
	_ = createCmd.MarkFlagRequired("username")

	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(listCmd)
}

func runCreate(cmd *cobra.Command, args []string) error {
	env, err := cmdutil.OpenEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	user := &models.User{Username: createUsername, Email: createEmail, Role: createRole}
	id, err := env.Store.CreateUser(cmdutil.Context(cmd), user)
	if err != nil {
		return err
	}
	user.ID = id

	p, err := cmdutil.Printer(cmd)
	if err != nil {
		return err
	}
	p.Success("Created user %s (id %d)", user.Username, id)
	if p.Format() == output.FormatTable {
		return nil
	}
	return p.Print(user)
}

// userList renders users as a table.
type userList []*models.User

func (l userList) Headers() []string { return []string{"ID", "Username", "Email", "Role", "Created"} }

func (l userList) Rows() [][]string {
	rows := make([][]string, len(l))
	for i, u := range l {
		rows[i] = []string{strconv.FormatInt(u.ID, 10), u.Username, u.Email, u.Role, u.CreatedAt.Format(time.RFC3339)}
	}
	return rows
}

func runList(cmd *cobra.Command, args []string) error {
	env, err := cmdutil.OpenEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	users, err := env.Store.ListUsers(cmdutil.Context(cmd))
	if err != nil {
		return err
	}

	p, err := cmdutil.Printer(cmd)
	if err != nil {
		return err
	}
	return p.Print(userList(users))
}
