package commands

import (
	"github.com/spf13/cobra"

	"github.com/gridworks-io/grist/internal/constants"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			type versionInfo struct {
				Version string `json:"version" yaml:"version"`
				Commit  string `json:"commit" yaml:"commit"`
				Built   string `json:"built" yaml:"built"`
			}

			info := versionInfo{Version: version, Commit: commit, Built: date}

			out := cmd.OutOrStdout()

			switch format, _ := cmd.Flags().GetString("output"); format {
			case constants.FormatJSON:
				return encodeJSON(out, info)
			case constants.FormatYAML:
				return encodeYAML(out, info)
			default:
				return keyValueTable(out, [][]string{
					{"Version", version},
					{"Commit", commit},
					{"Built", date},
				})
			}
		},
	}
}
