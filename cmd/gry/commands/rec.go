package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/gridworks-io/grist/pkg/grist"
)

// NewRecCommand creates the rec command group.
func NewRecCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rec",
		Aliases: []string{"recs", "record", "records"},
		Short:   "Manage the records of a table",
		Long:    "Manage the records of a table: list them with sorting and limits, add, change and delete rows",
	}

	cmd.AddCommand(newRecListCommand())
	cmd.AddCommand(newRecNewCommand())
	cmd.AddCommand(newRecUpdateCommand())
	cmd.AddCommand(newRecDeleteCommand())

	return cmd
}

func newRecListCommand() *cobra.Command {
	var (
		team   string
		doc    string
		table  string
		sortBy string
		limit  int
		hidden bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the records of a table",
		Long: `List the records of a table. Sorting takes a comma-separated list of
column names, each optionally prefixed with - for descending order.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := getOutputOptions(cmd)

			cli, err := createClient(team)
			if err != nil {
				return err
			}

			ctx := context.Background()

			listOpts := grist.NewListOptions()
			if sortBy != "" {
				listOpts = listOpts.WithSort(sortBy)
			}

			if limit > 0 {
				listOpts = listOpts.WithLimit(limit)
			}

			if hidden {
				listOpts = listOpts.WithHidden(true)
			}

			records, callErr := cli.Records().List(ctx, doc, table, listOpts)
			if err := reportFailure(cmd, opts, cli, callErr); err != nil {
				return err
			}

			return printValue(cmd, opts, cli, records, func(out io.Writer) error {
				if len(records) == 0 {
					fmt.Fprintln(out, "No records found.")

					return nil
				}

				ids := make([]int, 0, len(records))
				fieldsets := make([]map[string]interface{}, 0, len(records))

				for _, record := range records {
					ids = append(ids, record.ID)
					fieldsets = append(fieldsets, record.Fields)
				}

				return fieldsTable(out, ids, fieldsets)
			})
		},
	}

	addTeamFlag(cmd, &team)
	addDocFlag(cmd, &doc)
	addTableFlag(cmd, &table)
	cmd.Flags().StringVarP(&sortBy, "sort", "s", "", "sort order, e.g. name or -age,name")
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "return at most this many records")
	cmd.Flags().BoolVar(&hidden, "hidden", false, "include the hidden helper fields")

	return cmd
}

func newRecNewCommand() *cobra.Command {
	var (
		team    string
		doc     string
		table   string
		noparse bool
	)

	cmd := &cobra.Command{
		Use:   "new FIELD...",
		Short: "Add a record to a table",
		Long: `Add a record to a table. Each positional argument sets one field as
"column:value", e.g. name:Bob age:42.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := getOutputOptions(cmd)

			fields, err := parseRecordFields(args)
			if err != nil {
				return err
			}

			cli, err := createClient(team)
			if err != nil {
				return err
			}

			ctx := context.Background()

			ids, callErr := cli.Records().Add(ctx, doc, table, []map[string]interface{}{fields}, recordWriteOptions(noparse))
			if err := reportFailure(cmd, opts, cli, callErr); err != nil {
				return err
			}

			created := 0
			if len(ids) > 0 {
				created = ids[0]
			}

			return printDoneID(cmd, opts, cli, ids, created)
		},
	}

	addTeamFlag(cmd, &team)
	addDocFlag(cmd, &doc)
	addTableFlag(cmd, &table)
	cmd.Flags().BoolVar(&noparse, "noparse", false, "store the values as-is instead of parsing them")

	return cmd
}

func newRecUpdateCommand() *cobra.Command {
	var (
		team    string
		doc     string
		table   string
		noparse bool
	)

	cmd := &cobra.Command{
		Use:   "update FIELD...",
		Short: "Change a record of a table",
		Long: `Change a record of a table. Each positional argument sets one field as
"column:value"; one of them must be "id:N" naming the record.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := getOutputOptions(cmd)

			fields, err := parseRecordFields(args)
			if err != nil {
				return err
			}

			idValue, ok := fields["id"]
			if !ok {
				return fmt.Errorf(`the fields must include "id:N" naming the record`)
			}

			idText, _ := idValue.(string)

			recordID, err := strconv.Atoi(idText)
			if err != nil {
				return fmt.Errorf("the record id must be a number")
			}

			delete(fields, "id")

			cli, err := createClient(team)
			if err != nil {
				return err
			}

			ctx := context.Background()

			callErr := cli.Records().Update(ctx, doc, table, []grist.Record{
				{ID: recordID, Fields: fields},
			}, recordWriteOptions(noparse))
			if err := reportFailure(cmd, opts, cli, callErr); err != nil {
				return err
			}

			return printDone(cmd, opts, cli, recordValue(cli))
		},
	}

	addTeamFlag(cmd, &team)
	addDocFlag(cmd, &doc)
	addTableFlag(cmd, &table)
	cmd.Flags().BoolVar(&noparse, "noparse", false, "store the values as-is instead of parsing them")

	return cmd
}

func newRecDeleteCommand() *cobra.Command {
	var (
		team  string
		doc   string
		table string
	)

	cmd := &cobra.Command{
		Use:   "delete RECORD_ID...",
		Short: "Delete records from a table",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := getOutputOptions(cmd)

			ids := make([]int, 0, len(args))

			for _, arg := range args {
				id, err := strconv.Atoi(arg)
				if err != nil {
					return fmt.Errorf("the record ids must be numbers")
				}

				ids = append(ids, id)
			}

			cli, err := createClient(team)
			if err != nil {
				return err
			}

			ctx := context.Background()

			callErr := cli.Records().Delete(ctx, doc, table, ids)
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

// recordWriteOptions maps the --noparse flag to write options, nil
// when the default parsing is wanted.
func recordWriteOptions(noparse bool) *grist.RecordWriteOptions {
	if !noparse {
		return nil
	}

	return &grist.RecordWriteOptions{NoParse: true}
}
