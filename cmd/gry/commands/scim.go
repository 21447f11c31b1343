package commands

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/gridworks-io/grist/internal/client"
)

// NewSCIMCommand creates the scim command group.
func NewSCIMCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scim",
		Short: "Inspect the SCIM service",
		Long:  "Inspect the SCIM service itself: the schemas it serves, its resource types and its provider configuration",
	}

	cmd.AddCommand(newSCIMPayloadCommand("schemas", "Show the schemas the SCIM service serves",
		func(ctx context.Context, cli *client.Client) (json.RawMessage, error) {
			return cli.Users().Schemas(ctx)
		}))
	cmd.AddCommand(newSCIMPayloadCommand("resources", "Show the resource types the SCIM service serves",
		func(ctx context.Context, cli *client.Client) (json.RawMessage, error) {
			return cli.Users().ResourceTypes(ctx)
		}))
	cmd.AddCommand(newSCIMPayloadCommand("config", "Show the SCIM service provider configuration",
		func(ctx context.Context, cli *client.Client) (json.RawMessage, error) {
			return cli.Users().ProviderConfig(ctx)
		}))

	return cmd
}

// newSCIMPayloadCommand builds one of the scim inspection commands.
// They differ only in the endpoint they read.
func newSCIMPayloadCommand(use, short string, call func(context.Context, *client.Client) (json.RawMessage, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := getOutputOptions(cmd)

			cli, err := createClient("")
			if err != nil {
				return err
			}

			ctx := context.Background()

			payload, callErr := call(ctx, cli)
			if err := reportFailure(cmd, opts, cli, callErr); err != nil {
				return err
			}

			var value interface{}

			_ = json.Unmarshal(payload, &value)

			return printValue(cmd, opts, cli, value, func(out io.Writer) error {
				return encodeJSON(out, value)
			})
		},
	}
}
