package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/gridworks-io/grist/internal/constants"
	"github.com/gridworks-io/grist/pkg/grist"
)

// NewSQLCommand creates the sql command.
func NewSQLCommand() *cobra.Command {
	var (
		team      string
		doc       string
		params    []string
		timeoutMs int
	)

	cmd := &cobra.Command{
		Use:   "sql STATEMENT",
		Short: "Run a SELECT statement against a document",
		Long: `Run a read-only SQL statement against a document. Placeholders in the
statement are filled from -p flags, in order. The timeout is in
milliseconds and is enforced server side.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := getOutputOptions(cmd)

			cli, err := createClient(team)
			if err != nil {
				return err
			}

			ctx := context.Background()
			statement := args[0]

			var (
				result  *grist.SQLResult
				callErr error
			)

			if len(params) > 0 || cmd.Flags().Changed("timeout") {
				sqlArgs := make([]interface{}, 0, len(params))
				for _, param := range params {
					sqlArgs = append(sqlArgs, param)
				}

				result, callErr = cli.SQL().QueryWithArgs(ctx, doc, statement, sqlArgs, timeoutMs)
			} else {
				result, callErr = cli.SQL().Query(ctx, doc, statement)
			}

			if err := reportFailure(cmd, opts, cli, callErr); err != nil {
				return err
			}

			return printValue(cmd, opts, cli, result.Records, func(out io.Writer) error {
				if len(result.Records) == 0 {
					fmt.Fprintln(out, "No records found.")

					return nil
				}

				fieldsets := make([]map[string]interface{}, 0, len(result.Records))
				for _, record := range result.Records {
					fieldsets = append(fieldsets, record.Fields)
				}

				return fieldsTable(out, nil, fieldsets)
			})
		},
	}

	addTeamFlag(cmd, &team)
	addDocFlag(cmd, &doc)
	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "positional parameter for the statement, repeatable")
	cmd.Flags().IntVar(&timeoutMs, "timeout", constants.DefaultSQLTimeoutMs, "statement timeout in milliseconds")

	return cmd
}
