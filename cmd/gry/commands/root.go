package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/gridworks-io/grist/internal/constants"
)

// NewRootCommand assembles the gry command tree.
func NewRootCommand(version, commit, date string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gry",
		Short: "A command line tool for the Grist API",
		Long: `gry talks to the Grist API from the shell.

Commands are nouns naming the API sections: team, ws, doc, table, col,
rec, att, hook, user, scim. Each command has action sub-commands that
tend to repeat: "gry doc new" adds a document, "gry table new" adds a
table, "gry col new" adds a column.

Default output is human-readable. Pass -v to get the decoded API value
instead, -vv for the raw response body, and -i to also dump the request
and response metadata. Pass -q to suppress all output.

Configuration comes from ~/.gristapi/config.json, an optional
./gryconf.json in the current directory, and GRIST_* environment
variables, in rising order of precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().CountP("verbose", "v", "raise the output level: -v decoded value, -vv raw response body")
	cmd.PersistentFlags().BoolP("quiet", "q", false, "suppress all output")
	cmd.PersistentFlags().BoolP("inspect", "i", false, "print the request and response record after the call")
	cmd.PersistentFlags().StringP("output", "o", constants.FormatTable, "format for human-readable output (table, json, yaml)")

	cmd.AddCommand(NewVersionCommand(version, commit, date))
	cmd.AddCommand(NewConfCommand())
	cmd.AddCommand(NewSelfTestCommand())
	cmd.AddCommand(NewSQLCommand())
	cmd.AddCommand(NewTeamCommand())
	cmd.AddCommand(NewWorkspaceCommand())
	cmd.AddCommand(NewDocCommand())
	cmd.AddCommand(NewTableCommand())
	cmd.AddCommand(NewColCommand())
	cmd.AddCommand(NewRecCommand())
	cmd.AddCommand(NewAttCommand())
	cmd.AddCommand(NewHookCommand())
	cmd.AddCommand(NewUserCommand())
	cmd.AddCommand(NewSCIMCommand())

	return cmd
}

// exitError carries a process exit code through cobra's error return.
// The message may be empty when the command already reported the
// failure itself.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string {
	return e.msg
}

// errBadCall is the silent exit-3 marker for calls the server refused.
// The refusal is printed where the status is known.
var errBadCall = &exitError{code: constants.ExitBadCall}

func internalError(err error) error {
	return &exitError{code: constants.ExitInternal, msg: err.Error()}
}

// ExitCode maps an error returned by the command tree to a process
// exit code: 0 for nil, the carried code for call and internal
// failures, 2 for anything cobra rejected before a command ran.
func ExitCode(err error) int {
	if err == nil {
		return constants.ExitOK
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}

	return constants.ExitUsage
}
