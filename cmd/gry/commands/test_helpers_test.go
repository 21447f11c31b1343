package commands_test

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/gridworks-io/grist/cmd/gry/commands"
	"github.com/gridworks-io/grist/pkg/grist"
)

// testAPIKey obfuscates to "te<11>56" in rendered output.
const testAPIKey = "test-key-123456"

// findSubcommand resolves a subcommand by name, failing the test when
// the tree does not carry it.
func findSubcommand(t *testing.T, parent *cobra.Command, name string) *cobra.Command {
	t.Helper()

	for _, sub := range parent.Commands() {
		if sub.Name() == name {
			return sub
		}
	}

	require.Failf(t, "missing subcommand", "%s has no subcommand %q", parent.Name(), name)

	return nil
}

// setTestEnv points the CLI configuration at a test server and returns
// the temporary home directory. HOME moves there so no real user
// config file leaks in.
func setTestEnv(t *testing.T, baseURL string) string {
	t.Helper()

	home := t.TempDir()

	t.Setenv("HOME", home)
	t.Setenv(grist.KeyAPIKey, testAPIKey)
	t.Setenv(grist.KeySelfManaged, "Y")
	t.Setenv(grist.KeySelfManagedHome, baseURL)
	t.Setenv(grist.KeyDocID, "docid")
	t.Setenv(grist.KeyWorkspaceID, "5")

	return home
}

// runGry executes one CLI invocation against a fresh command tree and
// returns the combined output.
func runGry(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := commands.NewRootCommand("0.0.0-test", "none", "unknown")

	var out bytes.Buffer

	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	err := root.Execute()

	return out.String(), err
}
