package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/gridworks-io/grist/internal/constants"
	"github.com/gridworks-io/grist/pkg/grist"
)

// confKeyOrder is the display order of the canonical keys. Extra keys
// follow, sorted.
var confKeyOrder = []string{
	grist.KeyAPIKey,
	grist.KeySelfManaged,
	grist.KeySelfManagedHome,
	grist.KeySelfManagedSingleOrg,
	grist.KeyServerProtocol,
	grist.KeyAPIServer,
	grist.KeyAPIRoot,
	grist.KeyTeamSite,
	grist.KeyWorkspaceID,
	grist.KeyDocID,
	grist.KeyRaiseError,
	grist.KeySafeMode,
}

// NewConfCommand creates the conf command.
func NewConfCommand() *cobra.Command {
	var showAPIKey bool

	cmd := &cobra.Command{
		Use:   "conf",
		Short: "Show the configuration gry is running with",
		Long: `Show the fully resolved configuration: built-in defaults, the user
configuration file, a gryconf.json in the current directory if any,
and GRIST_* environment variables, later layers winning. No API call
is made. The API key is obfuscated unless -K is passed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := getOutputOptions(cmd)

			cli, err := createClient("")
			if err != nil {
				return err
			}

			snapshot := cli.Configurator().Snapshot()

			shown := make(map[string]string, len(snapshot))
			for key, value := range snapshot {
				shown[key] = value
			}

			if !showAPIKey {
				shown = grist.ObfuscatedConfig(shown)
			}

			if opts.quiet {
				return nil
			}

			out := cmd.OutOrStdout()

			if opts.verbose >= 1 {
				return encodeJSON(out, shown)
			}

			switch opts.format {
			case constants.FormatJSON:
				return encodeJSON(out, shown)
			case constants.FormatYAML:
				return encodeYAML(out, shown)
			default:
				return keyValueTable(out, confRows(shown))
			}
		},
	}

	cmd.Flags().BoolVarP(&showAPIKey, "show-apikey", "K", false, "print the API key in clear")

	cmd.AddCommand(newConfSetKeyCommand())

	return cmd
}

func confRows(cfg map[string]string) [][]string {
	known := make(map[string]bool, len(confKeyOrder))
	rows := make([][]string, 0, len(cfg))

	for _, key := range confKeyOrder {
		if value, present := cfg[key]; present {
			rows = append(rows, []string{key, value})
			known[key] = true
		}
	}

	extra := make([]string, 0, len(cfg))

	for key := range cfg {
		if !known[key] {
			extra = append(extra, key)
		}
	}

	sort.Strings(extra)

	for _, key := range extra {
		rows = append(rows, []string{key, cfg[key]})
	}

	return rows
}

func newConfSetKeyCommand() *cobra.Command {
	var apiKey string

	cmd := &cobra.Command{
		Use:   "set-key",
		Short: "Store the API key in the user configuration file",
		Long: `Store the API key in the user configuration file, creating the file
on first use. The key is prompted for without echo when not passed
with --key. Other entries in the file are left alone.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := getOutputOptions(cmd)
			out := cmd.OutOrStdout()

			if apiKey == "" {
				fmt.Fprint(out, "API key: ")

				byteKey, err := term.ReadPassword(int(syscall.Stdin))
				if err != nil {
					return internalError(fmt.Errorf("failed to read API key: %w", err))
				}

				fmt.Fprintln(out)

				apiKey = strings.TrimSpace(string(byteKey))
			}

			if apiKey == "" {
				return fmt.Errorf("the API key must not be empty")
			}

			path, err := grist.DefaultConfigFile()
			if err != nil {
				return internalError(err)
			}

			if err := writeConfigEntry(path, grist.KeyAPIKey, apiKey); err != nil {
				return internalError(err)
			}

			if !opts.quiet {
				fmt.Fprintf(out, "API key saved to %s\n", path)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&apiKey, "key", "k", "", "the API key (prompted for without echo when omitted)")

	return cmd
}

// writeConfigEntry merges one entry into the JSON configuration file,
// creating the file and its directory on first use.
func writeConfigEntry(path, key, value string) error {
	cfg := make(map[string]interface{})

	data, err := os.ReadFile(path)

	switch {
	case err == nil:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return err
	}

	cfg[key] = value

	payload, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	return os.WriteFile(path, append(payload, '\n'), 0o600)
}
