package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/gridworks-io/grist/pkg/grist"
)

// Export modes of the table download command.
const (
	exportCSV    = "csv"
	exportExcel  = "excel"
	exportSchema = "schema"
)

// NewTableCommand creates the table command group.
func NewTableCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "table",
		Aliases: []string{"tables"},
		Short:   "Manage the tables of a document",
		Long:    "Manage the tables of a document: list them with their metadata, create one column by column, adjust metadata, and export the content as CSV, Excel or a JSON schema",
	}

	cmd.AddCommand(newTableListCommand())
	cmd.AddCommand(newTableNewCommand())
	cmd.AddCommand(newTableUpdateCommand())
	cmd.AddCommand(newTableDownloadCommand())

	return cmd
}

func newTableListCommand() *cobra.Command {
	var (
		team string
		doc  string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the tables of a document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := getOutputOptions(cmd)

			cli, err := createClient(team)
			if err != nil {
				return err
			}

			ctx := context.Background()

			tables, callErr := cli.Tables().List(ctx, doc)
			if err := reportFailure(cmd, opts, cli, callErr); err != nil {
				return err
			}

			return printValue(cmd, opts, cli, tables, func(out io.Writer) error {
				if len(tables) == 0 {
					fmt.Fprintln(out, "No tables found.")

					return nil
				}

				rows := make([][2]string, 0, len(tables))
				for _, tbl := range tables {
					rows = append(rows, [2]string{tbl.ID, metadataBlock(tbl.Fields)})
				}

				return idBlockTable(out, "Table ID", rows)
			})
		},
	}

	addTeamFlag(cmd, &team)
	addDocFlag(cmd, &doc)

	return cmd
}

func newTableNewCommand() *cobra.Command {
	var (
		team  string
		doc   string
		table string
	)

	cmd := &cobra.Command{
		Use:   "new COLUMN...",
		Short: "Add a table to a document",
		Long: `Add a table to a document. Each positional argument declares one
column as "id:type:label", e.g. name:Text:Name.`,
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

			ids, callErr := cli.Tables().Create(ctx, doc, []grist.TableCreate{
				{ID: table, Columns: columns},
			})
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

func newTableUpdateCommand() *cobra.Command {
	var (
		team              string
		doc               string
		table             string
		primaryView       int
		summarySource     int
		onDemand          bool
		rawSection        int
		recordCardSection int
	)

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change the metadata of a table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := getOutputOptions(cmd)

			fields := make(map[string]interface{})

			if cmd.Flags().Changed("primary-view") {
				fields["primaryViewId"] = primaryView
			}

			if cmd.Flags().Changed("summary-source") {
				fields["summarySourceTable"] = summarySource
			}

			if cmd.Flags().Changed("on-demand") {
				fields["onDemand"] = onDemand
			}

			if cmd.Flags().Changed("raw-section") {
				fields["rawViewSectionRef"] = rawSection
			}

			if cmd.Flags().Changed("record-card-section") {
				fields["recordCardViewSectionRef"] = recordCardSection
			}

			if len(fields) == 0 {
				return fmt.Errorf("nothing to update: pass at least one metadata flag")
			}

			cli, err := createClient(team)
			if err != nil {
				return err
			}

			ctx := context.Background()

			callErr := cli.Tables().Update(ctx, doc, []grist.TableUpdate{
				{ID: table, Fields: fields},
			})
			if err := reportFailure(cmd, opts, cli, callErr); err != nil {
				return err
			}

			return printDone(cmd, opts, cli, recordValue(cli))
		},
	}

	addTeamFlag(cmd, &team)
	addDocFlag(cmd, &doc)
	addTableFlag(cmd, &table)
	cmd.Flags().IntVar(&primaryView, "primary-view", 0, "the primary view id")
	cmd.Flags().IntVar(&summarySource, "summary-source", 0, "the summary source table id")
	cmd.Flags().BoolVar(&onDemand, "on-demand", false, "load the table on demand")
	cmd.Flags().IntVar(&rawSection, "raw-section", 0, "the raw view section id")
	cmd.Flags().IntVar(&recordCardSection, "record-card-section", 0, "the record card view section id")

	return cmd
}

func newTableDownloadCommand() *cobra.Command {
	var (
		team   string
		doc    string
		table  string
		mode   string
		header string
	)

	cmd := &cobra.Command{
		Use:   "download FILENAME",
		Short: "Export a table as CSV, Excel or a JSON schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := getOutputOptions(cmd)
			opts.verbose = 0

			path := args[0]
			if err := checkDownloadPath(path); err != nil {
				return err
			}

			if header != grist.HeaderLabel && header != grist.HeaderColID {
				return fmt.Errorf("the header style must be %s or %s", grist.HeaderLabel, grist.HeaderColID)
			}

			cli, err := createClient(team)
			if err != nil {
				return err
			}

			ctx := context.Background()
			exportOpts := &grist.ExportOptions{Header: header}

			switch mode {
			case exportCSV, exportExcel:
				callErr := downloadToFile(path, func(dst io.Writer) error {
					if mode == exportCSV {
						return cli.Docs().DownloadCSV(ctx, doc, table, dst, exportOpts)
					}

					return cli.Docs().DownloadExcel(ctx, doc, table, dst, exportOpts)
				})
				if err := reportFailure(cmd, opts, cli, callErr); err != nil {
					removeRefusedDownload(cli.Record(), path)

					return err
				}
			case exportSchema:
				schema, callErr := cli.Docs().DownloadTableSchema(ctx, doc, table, exportOpts)
				if err := reportFailure(cmd, opts, cli, callErr); err != nil {
					return err
				}

				payload, err := json.MarshalIndent(schema, "", "  ")
				if err != nil {
					return internalError(err)
				}

				if err := os.WriteFile(path, append(payload, '\n'), 0o644); err != nil {
					return internalError(err)
				}
			default:
				return fmt.Errorf("the export mode must be %s, %s or %s", exportCSV, exportExcel, exportSchema)
			}

			return printDone(cmd, opts, cli, recordValue(cli))
		},
	}

	addTeamFlag(cmd, &team)
	addDocFlag(cmd, &doc)
	addTableFlag(cmd, &table)
	cmd.Flags().StringVarP(&mode, "mode", "m", exportCSV, "the export mode: csv, excel or schema")
	cmd.Flags().StringVar(&header, "header", grist.HeaderLabel, "the column header style: label or colId")

	return cmd
}
