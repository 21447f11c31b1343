package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// columnSummary is the metadata subset the column listing shows.
var columnSummary = []string{"label", "type", "isFormula", "formula"}

// NewColCommand creates the col command group.
func NewColCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "col",
		Aliases: []string{"cols", "column"},
		Short:   "Manage the columns of a table",
		Long:    "Manage the columns of a table: list them, add, retype or relabel, and delete",
	}

	cmd.AddCommand(newColListCommand())
	cmd.AddCommand(newColNewCommand())
	cmd.AddCommand(newColUpdateCommand())
	cmd.AddCommand(newColDeleteCommand())

	return cmd
}

func newColListCommand() *cobra.Command {
	var (
		team   string
		doc    string
		table  string
		hidden bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the columns of a table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := getOutputOptions(cmd)

			cli, err := createClient(team)
			if err != nil {
				return err
			}

			ctx := context.Background()

			columns, callErr := cli.Columns().List(ctx, doc, table, hidden)
			if err := reportFailure(cmd, opts, cli, callErr); err != nil {
				return err
			}

			return printValue(cmd, opts, cli, columns, func(out io.Writer) error {
				if len(columns) == 0 {
					fmt.Fprintln(out, "No columns found.")

					return nil
				}

				rows := make([][2]string, 0, len(columns))
				for _, col := range columns {
					rows = append(rows, [2]string{col.ID, summaryBlock(col.Fields, columnSummary)})
				}

				return idBlockTable(out, "Column ID", rows)
			})
		},
	}

	addTeamFlag(cmd, &team)
	addDocFlag(cmd, &doc)
	addTableFlag(cmd, &table)
	cmd.Flags().BoolVar(&hidden, "hidden", false, "include the hidden helper columns")

	return cmd
}

func newColNewCommand() *cobra.Command {
	var (
		team  string
		doc   string
		table string
	)

	cmd := &cobra.Command{
		Use:   "new COLUMN...",
		Short: "Add columns to a table",
		Long: `Add columns to a table. Each positional argument declares one column
as "id:type:label", e.g. age:Int:Age.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := getOutputOptions(cmd)

			columns, err := parseColumns(args)
			if err != nil {
				return err
			}

			cli, err := createClient(team)
			if err != nil {
				return err
			}

			ctx := context.Background()

			ids, callErr := cli.Columns().Create(ctx, doc, table, columns)
			if err := reportFailure(cmd, opts, cli, callErr); err != nil {
				return err
			}

			created := ""
			if len(ids) > 0 {
				created = ids[0]
			}

			return printDoneID(cmd, opts, cli, ids, created)
		},
	}

	addTeamFlag(cmd, &team)
	addDocFlag(cmd, &doc)
	addTableFlag(cmd, &table)

	return cmd
}

func newColUpdateCommand() *cobra.Command {
	var (
		team  string
		doc   string
		table string
	)

	cmd := &cobra.Command{
		Use:   "update COLUMN...",
		Short: "Change columns of a table",
		Long: `Change columns of a table. Each positional argument redeclares one
existing column as "id:type:label".`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := getOutputOptions(cmd)

			columns, err := parseColumns(args)
			if err != nil {
				return err
			}

			cli, err := createClient(team)
			if err != nil {
				return err
			}

			ctx := context.Background()

			callErr := cli.Columns().Update(ctx, doc, table, columns)
			if err := reportFailure(cmd, opts, cli, callErr); err != nil {
				return err
			}

			return printDone(cmd, opts, cli, recordValue(cli))
		},
	}

	addTeamFlag(cmd, &team)
	addDocFlag(cmd, &doc)
	addTableFlag(cmd, &table)

	return cmd
}

func newColDeleteCommand() *cobra.Command {
	var (
		team  string
		doc   string
		table string
	)

	cmd := &cobra.Command{
		Use:   "delete COLUMN_ID",
		Short: "Delete a column from a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := getOutputOptions(cmd)

			cli, err := createClient(team)
			if err != nil {
				return err
			}

			ctx := context.Background()

			callErr := cli.Columns().Delete(ctx, doc, table, args[0])
			if err := reportFailure(cmd, opts, cli, callErr); err != nil {
				return err
			}

			return printDone(cmd, opts, cli, recordValue(cli))
		},
	}

	addTeamFlag(cmd, &team)
	addDocFlag(cmd, &doc)
	addTableFlag(cmd, &table)

	return cmd
}
