package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedYAML = `users:
  - username: alice
    password: wonderland
    display_name: Alice
    groups: [admins]
  - username: bob
    password: builder
    groups: [staff]
groups: [empty]
`

// setupEnv points the configuration at a fresh local snapshot.
func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "directory.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seedYAML), 0o600))

	t.Setenv("DIRECTORY_BACKEND", "local")
	t.Setenv("LOCAL_SNAPSHOT_PATH", path)
	t.Setenv("LOCAL_RESOURCES_ROOT", filepath.Join(dir, "files"))
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("METRICS_ENABLED", "false")
	return dir
}

// run executes the CLI with args and returns stdout, stderr and the error.
func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func decode(t *testing.T, out string) map[string]any {
	t.Helper()
	var v map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &v), out)
	return v
}

func TestVersionCmd(t *testing.T) {
	out, _, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "dirgate", decode(t, out)["app"])

	out, _, err = run(t, "", "version", "--plain")
	require.NoError(t, err)
	assert.Contains(t, out, "dirgate version")
}

func TestAuthCmd(t *testing.T) {
	setupEnv(t)

	out, _, err := run(t, "", "auth", "alice", "--password", "wonderland")
	require.NoError(t, err)
	v := decode(t, out)
	assert.Equal(t, "alice", v["username"])
	assert.Equal(t, []any{"admins"}, v["authorities"])

	// Password from stdin
	out, _, err = run(t, "builder\n", "auth", "bob")
	require.NoError(t, err)
	assert.Equal(t, "bob", decode(t, out)["username"])

	_, _, err = run(t, "", "auth", "alice", "--password", "nope")
	assert.Error(t, err)
}

func TestUserCmds(t *testing.T) {
	setupEnv(t)

	out, _, err := run(t, "", "user", "list")
	require.NoError(t, err)
	assert.Equal(t, []any{"alice", "bob"}, decode(t, out)["users"])

	out, _, err = run(t, "", "user", "create", "carol",
		"--password", "pw", "--email", "carol@example.com", "--group", "ops", "--group", "staff")
	require.NoError(t, err)
	v := decode(t, out)
	assert.Equal(t, "carol@example.com", v["email"])
	assert.Equal(t, []any{"ops", "staff"}, v["groups"])
	assert.NotContains(t, out, `"pw"`)

	// Update without --group keeps the membership
	out, _, err = run(t, "", "user", "update", "carol", "--display-name", "Carol", "--disabled")
	require.NoError(t, err)
	v = decode(t, out)
	assert.Equal(t, "Carol", v["display_name"])
	assert.Equal(t, false, v["enabled"])
	assert.Equal(t, []any{"ops", "staff"}, v["groups"])

	out, _, err = run(t, "", "user", "groups", "carol")
	require.NoError(t, err)
	assert.Equal(t, []any{"ops", "staff"}, decode(t, out)["groups"])

	out, _, err = run(t, "", "user", "get", "carol")
	require.NoError(t, err)
	assert.Equal(t, "carol", decode(t, out)["username"])

	_, _, err = run(t, "", "user", "delete", "carol", "--prune-groups")
	require.NoError(t, err)

	out, _, err = run(t, "", "group", "list")
	require.NoError(t, err)
	assert.ElementsMatch(t, []any{"empty", "admins", "staff"}, decode(t, out)["groups"])

	_, _, err = run(t, "", "user", "get", "carol")
	assert.Error(t, err)
}

func TestGroupCmds(t *testing.T) {
	setupEnv(t)

	_, _, err := run(t, "", "group", "create", "ops")
	require.NoError(t, err)
	_, _, err = run(t, "", "group", "create", "ops")
	assert.Error(t, err)

	out, _, err := run(t, "", "group", "members", "staff")
	require.NoError(t, err)
	assert.Equal(t, []any{"bob"}, decode(t, out)["users"])

	_, _, err = run(t, "", "group", "delete", "staff")
	require.NoError(t, err)

	out, _, err = run(t, "", "user", "groups", "bob")
	require.NoError(t, err)
	assert.Equal(t, []any{}, decode(t, out)["groups"])
}

func TestResourcesCmd(t *testing.T) {
	dir := setupEnv(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "files", "alice", "docs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "files", "alice", "docs", "a.txt"), []byte("a"), 0o600))

	out, _, err := run(t, "", "resources", "alice", "docs")
	require.NoError(t, err)
	resources, ok := decode(t, out)["resources"].([]any)
	require.True(t, ok)
	require.Len(t, resources, 1)
	assert.Equal(t, "a.txt", resources[0].(map[string]any)["name"])

	_, _, err = run(t, "", "resources", "alice", "../bob")
	assert.Error(t, err)
}

func TestPrintError(t *testing.T) {
	setupEnv(t)
	_, _, err := run(t, "", "user", "get", "ghost")
	require.Error(t, err)

	var buf bytes.Buffer
	printError(&buf, err)
	v := decode(t, buf.String())
	assert.Equal(t, "user_not_found", v["error"])
}

func TestInvalidBackendFlag(t *testing.T) {
	setupEnv(t)
	_, _, err := run(t, "", "--backend", "ldap", "user", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid DIRECTORY_BACKEND")
}
