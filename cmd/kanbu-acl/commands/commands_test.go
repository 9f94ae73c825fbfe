package commands

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanbu/kanbu-acl/pkg/acl"
	"github.com/kanbu/kanbu-acl/pkg/config"
)

// run executes the root command with args and returns everything written
// to stdout and stderr.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	root := GetRootCmd()
	resetFlags(root)
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

// resetFlags restores every flag in the tree to its default, since the
// command tree is shared by every run in the process.
func resetFlags(c *cobra.Command) {
	c.Flags().VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func TestACLWorkflow(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	cfg := func(args ...string) []string {
		return append([]string{"--config", configPath}, args...)
	}

	out, err := run(t, cfg("init", "--force")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration file created at: "+configPath)

	out, err = run(t, cfg("user", "create", "--username", "alice", "-o", "table")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Created user alice (id 1)")

	out, err = run(t, cfg("workspace", "create", "--name", "Acme", "--slug", "acme", "-o", "table")...)
	require.NoError(t, err)
	assert.Contains(t, out, "workspace:1")

	out, err = run(t, cfg("project", "create", "--workspace", "1", "--name", "Site", "-o", "table")...)
	require.NoError(t, err)
	assert.Contains(t, out, "project:1")

	out, err = run(t, cfg("grant", "workspace:1", "--user", "1", "-p", "Contributor", "-o", "table")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Grant user:1 on workspace:1")

	// The workspace grant flows down to the project.
	out, err = run(t, cfg("check", "project:1", "--user", "1", "-p", "rw", "-o", "json")...)
	require.NoError(t, err)
	var result checkResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.True(t, result.Allowed)
	assert.Equal(t, []string{"Read", "Write", "Execute"}, result.Effective)

	_, err = run(t, cfg("deny", "project:1", "--user", "1", "-p", "write", "-o", "table")...)
	require.NoError(t, err)

	_, err = run(t, cfg("check", "project:1", "--user", "1", "-p", "write", "-o", "table")...)
	assert.ErrorIs(t, err, errNotPermitted)

	out, err = run(t, cfg("acl", "list", "workspace:1", "-o", "json")...)
	require.NoError(t, err)
	var entries []acl.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, acl.Contributor, entries[0].Permissions)
	assert.True(t, entries[0].InheritToChildren)

	_, err = run(t, cfg("revoke", "workspace:1", "--user", "1", "--strict", "-o", "table")...)
	require.NoError(t, err)

	_, err = run(t, cfg("revoke", "workspace:1", "--user", "1", "--strict", "-o", "table")...)
	assert.ErrorIs(t, err, acl.ErrEntryNotFound)
}

func TestACLPresets(t *testing.T) {
	out, err := run(t, "acl", "presets", "-o", "json")
	require.NoError(t, err)

	var presets []acl.Preset
	require.NoError(t, json.Unmarshal([]byte(out), &presets))
	require.Len(t, presets, 4)
	assert.Equal(t, "Full Control", presets[3].Name)
}

func TestInvalidResourceArgument(t *testing.T) {
	_, err := run(t, "acl", "list", "task:1", "-o", "table")
	assert.ErrorIs(t, err, acl.ErrInvalidResourceType)
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Grant", capitalize("grant"))
	assert.Equal(t, "", capitalize(""))
}

func TestACLCommandsOwnTheirFlags(t *testing.T) {
	require.NoError(t, grantCmd.Flags().Set("user", "5"))
	require.NoError(t, grantCmd.Flags().Set("no-inherit", "true"))
	require.NoError(t, grantCmd.Flags().Set("permissions", "rw"))
	t.Cleanup(func() { resetFlags(grantCmd) })

	for _, c := range []*cobra.Command{denyCmd, revokeCmd, checkCmd} {
		assert.Equal(t, "0", c.Flags().Lookup("user").Value.String(), c.Name())
	}
	assert.Equal(t, "", denyCmd.Flags().Lookup("permissions").Value.String())
	assert.Equal(t, "", checkCmd.Flags().Lookup("permissions").Value.String())
	assert.Equal(t, int64(5), grantOpts.principal.userID)
	assert.Zero(t, denyOpts.principal.userID)
	assert.Zero(t, revokeOpts.principal.userID)
	assert.Zero(t, checkOpts.userID)
}

func TestGrantFlagsDoNotLeakBetweenRuns(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	cfg := func(args ...string) []string {
		return append([]string{"--config", configPath}, args...)
	}

	_, err := run(t, cfg("init", "--force")...)
	require.NoError(t, err)
	_, err = run(t, cfg("user", "create", "--username", "alice", "-o", "table")...)
	require.NoError(t, err)
	_, err = run(t, cfg("group", "create", "--name", "eng", "-o", "table")...)
	require.NoError(t, err)
	_, err = run(t, cfg("workspace", "create", "--name", "Acme", "--slug", "acme", "-o", "table")...)
	require.NoError(t, err)

	_, err = run(t, cfg("grant", "workspace:1", "--user", "1", "-p", "viewer", "--no-inherit", "-o", "table")...)
	require.NoError(t, err)
	_, err = run(t, cfg("check", "workspace:1", "--user", "1", "-p", "read", "-o", "table")...)
	require.NoError(t, err)

	// Neither --user from the runs above nor --no-inherit carries over.
	_, err = run(t, cfg("grant", "workspace:1", "--group", "1", "-p", "owner", "-o", "table")...)
	require.NoError(t, err)

	out, err := run(t, cfg("acl", "list", "workspace:1", "-o", "json")...)
	require.NoError(t, err)
	var entries []acl.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 2)
	for _, e := range entries {
		switch e.Principal {
		case acl.User(1):
			assert.Equal(t, acl.ReadOnly, e.Permissions)
			assert.False(t, e.InheritToChildren)
		case acl.Group(1):
			assert.Equal(t, acl.FullControl, e.Permissions)
			assert.True(t, e.InheritToChildren)
		default:
			t.Errorf("unexpected principal %s", e.Principal)
		}
	}

	// Alice is not in the group, so only her own grant counts.
	out, err = run(t, cfg("acl", "effective", "workspace:1", "--user", "1", "-o", "json")...)
	require.NoError(t, err)
	var effective effectiveResult
	require.NoError(t, json.Unmarshal([]byte(out), &effective))
	assert.Equal(t, uint8(acl.ReadOnly), effective.Mask)
	assert.Equal(t, []string{"Read"}, effective.Permissions)
}

func TestConfigRotateSecret(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	_, err := run(t, "--config", configPath, "init", "--force")
	require.NoError(t, err)
	before, err := config.Load(configPath)
	require.NoError(t, err)

	t.Setenv("KANBU_ACL_CONTROLPLANE_SECRET", "")
	out, err := run(t, "--config", configPath, "config", "rotate-secret")
	require.NoError(t, err)
	assert.Contains(t, out, "JWT secret rotated in "+configPath)
	assert.NotContains(t, out, "Warning")

	after, err := config.Load(configPath)
	require.NoError(t, err)
	assert.NotEqual(t, before.ControlPlane.JWT.Secret, after.ControlPlane.JWT.Secret)
	assert.Len(t, after.ControlPlane.JWT.Secret, 64)
}
