package commands

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/gridworks-io/grist/internal/constants"
	"github.com/gridworks-io/grist/pkg/grist"
)

// NewSelfTestCommand creates the test command.
func NewSelfTestCommand() *cobra.Command {
	var team string

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Verify the configuration against the API",
		Long: `Run a handful of read-only calls to verify the configuration: the
connection and API key, the configured team site, SCIM availability,
and the configured workspace, document and attachment store. Checks
whose prerequisite failed stay at N/A. The result table is always
printed, whatever the output flags say.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			const (
				checkConnection = "connection"
				checkTeam       = "default team"
				checkSCIM       = "scim enabled"
				checkWorkspace  = "default workspace"
				checkDocument   = "default document"
				checkStore      = "attachment store"
			)

			checkNames := []string{
				checkConnection,
				checkTeam,
				checkSCIM,
				checkWorkspace,
				checkDocument,
				checkStore,
			}

			results := make(map[string]string, len(checkNames))
			for _, name := range checkNames {
				results[name] = constants.NotAvailable
			}

			cli, err := createClient(team)
			if err != nil {
				return err
			}

			ctx := context.Background()

			connected := false
			teamOK := false
			docOK := false

			org, orgErr := cli.Orgs().Get(ctx, "")
			record := cli.Record()

			switch {
			case orgErr != nil:
				results[checkConnection] = callFailure(orgErr)
			case record.StatusCode == http.StatusUnauthorized:
				results[checkConnection] = recordMessage(record)
			default:
				connected = true
				results[checkConnection] = "ok"

				if record.StatusCode == http.StatusOK {
					teamOK = true
					results[checkTeam] = org.Name
				} else {
					results[checkTeam] = recordMessage(record)
				}
			}

			if connected {
				if _, scimErr := cli.Users().Me(ctx); scimErr != nil {
					results[checkSCIM] = callFailure(scimErr)
				} else if cli.Record().StatusCode == http.StatusOK {
					results[checkSCIM] = "yes"
				} else {
					results[checkSCIM] = recordMessage(cli.Record())
				}

				if ws, wsErr := cli.Workspaces().Get(ctx, 0); wsErr != nil {
					results[checkWorkspace] = callFailure(wsErr)
				} else if cli.Record().StatusCode == http.StatusOK {
					results[checkWorkspace] = ws.Name
				} else {
					results[checkWorkspace] = recordMessage(cli.Record())
				}
			}

			if teamOK {
				if doc, docErr := cli.Docs().Get(ctx, ""); docErr != nil {
					results[checkDocument] = callFailure(docErr)
				} else if cli.Record().StatusCode == http.StatusOK {
					docOK = true
					results[checkDocument] = doc.Name
				} else {
					results[checkDocument] = recordMessage(cli.Record())
				}
			}

			if docOK {
				if store, storeErr := cli.Attachments().Store(ctx, ""); storeErr != nil {
					results[checkStore] = callFailure(storeErr)
				} else if cli.Record().StatusCode == http.StatusOK {
					results[checkStore] = store.Type
				} else {
					results[checkStore] = recordMessage(cli.Record())
				}
			}

			rows := make([][]string, 0, len(checkNames))
			for _, name := range checkNames {
				rows = append(rows, []string{name, results[name]})
			}

			return checkTable(cmd.OutOrStdout(), rows)
		},
	}

	addTeamFlag(cmd, &team)

	return cmd
}

// callFailure renders a failed call for the check table: the wrapped
// cause for transport failures, the error text otherwise.
func callFailure(err error) string {
	var transportErr *grist.TransportError
	if errors.As(err, &transportErr) {
		return transportErr.Err.Error()
	}

	return err.Error()
}

func checkTable(out io.Writer, rows [][]string) error {
	table := tablewriter.NewWriter(out)
	table.Header("Check", "Result")

	for _, row := range rows {
		_ = table.Append(row[0], row[1])
	}

	return table.Render()
}
