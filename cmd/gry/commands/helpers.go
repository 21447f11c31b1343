package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gridworks-io/grist/internal/client"
	"github.com/gridworks-io/grist/internal/constants"
	http_internal "github.com/gridworks-io/grist/internal/http"
	"github.com/gridworks-io/grist/pkg/grist"
)

// Extra configuration the CLI carries on top of the canonical keys.
const (
	// keyCLITimeout caps each API call, in seconds. It resolves through
	// the same layers as the canonical keys, so a config file entry or
	// an environment variable of the same name wins over the default.
	keyCLITimeout = "GRIST_CLI_TIMEOUT"

	defaultCLITimeout = "60"

	// cliConfigFile is the per-directory config file merged on top of
	// the user-level one. Only the CLI reads it.
	cliConfigFile = "gryconf.json"
)

const (
	doneMessage = "Done."
	errorBanner = "Error!"
)

// inspectRule separates the record dump from the command output.
const inspectRule = "----------------------------------------------------------------------"

// outputOptions captures the output flags shared by every command: -v
// raises the level from rendered (0) to decoded value (1) to raw
// response body (2), -q silences everything, -i prepends the
// transaction record, -o picks the format of rendered output.
type outputOptions struct {
	verbose int
	quiet   bool
	inspect bool
	format  string
}

func getOutputOptions(cmd *cobra.Command) outputOptions {
	verbose, _ := cmd.Flags().GetCount("verbose")
	quiet, _ := cmd.Flags().GetBool("quiet")
	inspect, _ := cmd.Flags().GetBool("inspect")
	format, _ := cmd.Flags().GetString("output")

	return outputOptions{verbose: verbose, quiet: quiet, inspect: inspect, format: format}
}

// createClient builds the API client for one command invocation. A
// non-empty teamID retargets the call at that team site. Error raising
// and safe mode are forced off: a bad status must stay on the record
// so the command can report it with the full payload at hand.
func createClient(teamID string) (*client.Client, error) {
	overrides := make(map[string]string)
	if teamID != "" {
		overrides[grist.KeyTeamSite] = teamID
	}

	configurator, err := grist.NewConfigurator(overrides,
		grist.WithExtraConfigFile(cliConfigFile),
		grist.WithExtraDefaults(map[string]string{keyCLITimeout: defaultCLITimeout}),
		grist.WithForcedValues(map[string]string{
			grist.KeyRaiseError: constants.ConfigNo,
			grist.KeySafeMode:   constants.ConfigNo,
		}),
	)
	if err != nil {
		return nil, internalError(err)
	}

	return client.NewWithConfigurator(configurator, http_internal.WithTimeout(cliTimeout(configurator))), nil
}

// cliTimeout reads the per-call timeout from the resolved
// configuration, falling back to the default on an unusable value.
func cliTimeout(configurator *grist.Configurator) time.Duration {
	seconds, err := strconv.Atoi(configurator.Get(keyCLITimeout))
	if err != nil || seconds <= 0 {
		seconds, _ = strconv.Atoi(defaultCLITimeout)
	}

	return time.Duration(seconds) * time.Second
}

// reportFailure handles the aftermath of an API call: the record dump
// for -i, then the refusal or transport failure if there was one. A
// nil return means the call went through and the command can print its
// output.
func reportFailure(cmd *cobra.Command, opts outputOptions, cli *client.Client, callErr error) error {
	out := cmd.OutOrStdout()

	if opts.inspect && !opts.quiet {
		fmt.Fprintln(out, cli.Inspect())
		fmt.Fprintln(out, inspectRule)
	}

	if callErr != nil {
		var transportErr *grist.TransportError
		if errors.As(callErr, &transportErr) {
			if !opts.quiet {
				fmt.Fprintf(out, "%s Status: %d %v\n", errorBanner, transportErr.SyntheticStatus, transportErr.Err)
			}

			return errBadCall
		}

		return internalError(callErr)
	}

	record := cli.Record()
	if record.HasResponse() && record.StatusCode >= http.StatusMultipleChoices {
		if !opts.quiet {
			if opts.verbose >= 2 {
				fmt.Fprintln(out, record.ResponseAsJSON())
			} else {
				fmt.Fprintf(out, "%s Status: %d %s\n", errorBanner, record.StatusCode, recordMessage(record))
			}
		}

		return errBadCall
	}

	return nil
}

// recordMessage extracts the error text from the retained response
// body, falling back to the reason phrase.
func recordMessage(record *grist.TransactionRecord) string {
	statusErr := &grist.StatusError{
		StatusCode: record.StatusCode,
		Status:     record.Status,
		Payload:    json.RawMessage(record.RespBody),
	}

	if msg := statusErr.Message(); msg != "" {
		return msg
	}

	return record.Status
}

// printResult writes the success output of a call: the rendered form
// at the default level, the decoded value as JSON at -v, the raw
// response body at -vv. Quiet drops everything.
func printResult(cmd *cobra.Command, opts outputOptions, cli *client.Client, value interface{}, render func(io.Writer) error) error {
	if opts.quiet {
		return nil
	}

	out := cmd.OutOrStdout()

	switch {
	case opts.verbose >= 2:
		fmt.Fprintln(out, cli.Record().ResponseAsJSON())

		return nil
	case opts.verbose == 1:
		return encodeJSON(out, value)
	default:
		return render(out)
	}
}

// printValue is printResult with the rendered form following the
// --output format: the given table renderer by default, JSON or YAML
// when asked.
func printValue(cmd *cobra.Command, opts outputOptions, cli *client.Client, value interface{}, table func(io.Writer) error) error {
	return printResult(cmd, opts, cli, value, func(out io.Writer) error {
		switch opts.format {
		case constants.FormatJSON:
			return encodeJSON(out, value)
		case constants.FormatYAML:
			return encodeYAML(out, value)
		default:
			return table(out)
		}
	})
}

func printDone(cmd *cobra.Command, opts outputOptions, cli *client.Client, value interface{}) error {
	return printResult(cmd, opts, cli, value, func(out io.Writer) error {
		fmt.Fprintln(out, doneMessage)

		return nil
	})
}

func printDoneID(cmd *cobra.Command, opts outputOptions, cli *client.Client, value, id interface{}) error {
	return printResult(cmd, opts, cli, value, func(out io.Writer) error {
		fmt.Fprintf(out, "%s Id: %v\n", doneMessage, id)

		return nil
	})
}

func encodeJSON(out io.Writer, value interface{}) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")

	return encoder.Encode(value)
}

func encodeYAML(out io.Writer, value interface{}) error {
	encoder := yaml.NewEncoder(out)
	defer func() { _ = encoder.Close() }()

	return encoder.Encode(value)
}

// recordValue decodes the retained response body, for commands whose
// client call returns no payload of its own.
func recordValue(cli *client.Client) interface{} {
	var value interface{}

	_ = json.Unmarshal([]byte(cli.Record().ResponseAsJSON()), &value)

	return value
}

// formatCell renders one cell the way the value reads naturally: no
// quotes on strings, no exponent notation on row numbers.
func formatCell(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

// metadataBlock renders a fields map as "key: value" lines, sorted for
// stable output.
func metadataBlock(fields map[string]interface{}) string {
	lines := make([]string, 0, len(fields))

	for _, key := range sortedKeys(fields) {
		lines = append(lines, fmt.Sprintf("%s: %s", key, formatCell(fields[key])))
	}

	return strings.Join(lines, "\n")
}

// summaryBlock is metadataBlock restricted to the given keys, in the
// given order.
func summaryBlock(fields map[string]interface{}, keys []string) string {
	lines := make([]string, 0, len(keys))

	for _, key := range keys {
		lines = append(lines, fmt.Sprintf("%s: %s", key, formatCell(fields[key])))
	}

	return strings.Join(lines, "\n")
}

// keyValueTable renders two-column rows under key/value headers.
func keyValueTable(out io.Writer, rows [][]string) error {
	table := tablewriter.NewWriter(out)
	table.Header("Key", "Value")

	for _, row := range rows {
		_ = table.Append(row[0], row[1])
	}

	return table.Render()
}

// idBlockTable renders one row per entity: its id next to a metadata
// block.
func idBlockTable(out io.Writer, idHeader string, rows [][2]string) error {
	table := tablewriter.NewWriter(out)
	table.Header(idHeader, "Metadata")

	for _, row := range rows {
		_ = table.Append(row[0], row[1])
	}

	return table.Render()
}

// fieldsTable renders rows sharing one set of field columns, headers
// taken from the first row's field set. An id column is prepended when
// ids is non-nil.
func fieldsTable(out io.Writer, ids []int, fieldsets []map[string]interface{}) error {
	if len(fieldsets) == 0 {
		return nil
	}

	headers := sortedKeys(fieldsets[0])
	table := tablewriter.NewWriter(out)

	columns := make([]interface{}, 0, len(headers)+1)
	if ids != nil {
		columns = append(columns, "ID")
	}

	for _, header := range headers {
		columns = append(columns, header)
	}

	table.Header(columns...)

	for i, fields := range fieldsets {
		row := make([]interface{}, 0, len(headers)+1)
		if ids != nil {
			row = append(row, strconv.Itoa(ids[i]))
		}

		for _, header := range headers {
			row = append(row, formatCell(fields[header]))
		}

		_ = table.Append(row...)
	}

	return table.Render()
}

// shareUsersTable renders the collaborator listing shared by the team,
// workspace and document access commands.
func shareUsersTable(out io.Writer, shares *grist.ShareList) error {
	table := tablewriter.NewWriter(out)
	table.Header("ID", "Name", "Email", "Access")

	for _, user := range shares.Users {
		_ = table.Append(strconv.Itoa(user.ID), user.Name, user.Email, user.Access)
	}

	return table.Render()
}

// findShareEmail resolves a collaborator id to the email address the
// access update endpoints want users addressed by.
func findShareEmail(shares *grist.ShareList, userID int) string {
	for _, user := range shares.Users {
		if user.ID == userID {
			return user.Email
		}
	}

	return ""
}

// scimUserRows renders one SCIM account as key/value rows.
func scimUserRows(user *grist.SCIMUser) [][]string {
	emails := make([]string, 0, len(user.Emails))

	for _, email := range user.Emails {
		value := email.Value
		if email.Primary {
			value += " (primary)"
		}

		emails = append(emails, value)
	}

	return [][]string{
		{"id", user.ID},
		{"name", user.UserName},
		{"display name", user.DisplayName},
		{"email", strings.Join(emails, "\n")},
	}
}

// scimUsersTable renders SCIM accounts as stacked key/value blocks.
func scimUsersTable(out io.Writer, users []grist.SCIMUser) error {
	table := tablewriter.NewWriter(out)
	table.Header("Key", "Value")

	for i, user := range users {
		if i > 0 {
			_ = table.Append("", "")
		}

		for _, row := range scimUserRows(&user) {
			_ = table.Append(row[0], row[1])
		}
	}

	return table.Render()
}

// accessNone revokes a collaborator's access.
const accessNone = "none"

var (
	errUnknownAccess    = errors.New("access must be one of: owners editors viewers members none")
	errUnknownMaxAccess = errors.New("max access must be one of: owners editors viewers")
	errBadColumnDecl    = errors.New(`column must be declared as "id:type:label"`)
	errBadRecordDecl    = errors.New(`record must be declared as "col:value col:value ..."`)
	errUserNotFound     = errors.New("user id not found")
)

// parseAccess validates a share access level. The returned pointer is
// nil for "none", the wire form of a removal.
func parseAccess(value string) (*string, error) {
	switch value {
	case grist.AccessOwners, grist.AccessEditors, grist.AccessViewers, grist.AccessMembers:
		return &value, nil
	case accessNone:
		return nil, nil
	default:
		return nil, errUnknownAccess
	}
}

func parseMaxAccess(value string) (string, error) {
	switch value {
	case grist.AccessOwners, grist.AccessEditors, grist.AccessViewers:
		return value, nil
	default:
		return "", errUnknownMaxAccess
	}
}

// parseColumns turns id:type:label declarations into column payloads.
func parseColumns(args []string) ([]grist.Column, error) {
	columns := make([]grist.Column, 0, len(args))

	for _, arg := range args {
		parts := strings.Split(arg, ":")
		if len(parts) != constants.ColumnDeclParts {
			return nil, errBadColumnDecl
		}

		columns = append(columns, grist.Column{
			ID:     parts[0],
			Fields: map[string]interface{}{"type": parts[1], "label": parts[2]},
		})
	}

	return columns, nil
}

// parseRecordFields turns col:value declarations into a fields map.
func parseRecordFields(args []string) (map[string]interface{}, error) {
	fields := make(map[string]interface{}, len(args))

	for _, arg := range args {
		parts := strings.Split(arg, ":")
		if len(parts) != constants.KeyValueSplitParts {
			return nil, errBadRecordDecl
		}

		fields[parts[0]] = parts[1]
	}

	return fields, nil
}

// Scoping flags shared across the data commands. An empty or zero
// value falls back to the configured default.
func addTeamFlag(cmd *cobra.Command, team *string) {
	cmd.Flags().StringVarP(team, "team", "t", "", "the team site (default: the configured one)")
}

func addWorkspaceFlag(cmd *cobra.Command, workspace *int) {
	cmd.Flags().IntVarP(workspace, "workspace", "w", 0, "the workspace integer id (0 means the configured one)")
}

func addDocFlag(cmd *cobra.Command, doc *string) {
	cmd.Flags().StringVarP(doc, "document", "d", "", "the document id (default: the configured one)")
}

func addTableFlag(cmd *cobra.Command, table *string) {
	cmd.Flags().StringVarP(table, "table", "b", "", "the table id name")
	_ = cmd.MarkFlagRequired("table")
}
