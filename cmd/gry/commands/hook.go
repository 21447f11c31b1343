package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/gridworks-io/grist/pkg/grist"
)

// NewHookCommand creates the hook command group.
func NewHookCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "hook",
		Aliases: []string{"hooks", "webhook", "webhooks"},
		Short:   "Manage the webhooks of a document",
		Long:    "Manage the webhooks of a document: list them, subscribe an endpoint to table events, change or remove a subscription, and flush the delivery queue",
	}

	cmd.AddCommand(newHookListCommand())
	cmd.AddCommand(newHookNewCommand())
	cmd.AddCommand(newHookUpdateCommand())
	cmd.AddCommand(newHookDeleteCommand())
	cmd.AddCommand(newHookEmptyQueueCommand())

	return cmd
}

func newHookListCommand() *cobra.Command {
	var (
		team string
		doc  string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the webhooks of a document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := getOutputOptions(cmd)

			cli, err := createClient(team)
			if err != nil {
				return err
			}

			ctx := context.Background()

			webhooks, callErr := cli.Webhooks().List(ctx, doc)
			if err := reportFailure(cmd, opts, cli, callErr); err != nil {
				return err
			}

			return printValue(cmd, opts, cli, webhooks, func(out io.Writer) error {
				if len(webhooks) == 0 {
					fmt.Fprintln(out, "No webhooks found.")

					return nil
				}

				table := tablewriter.NewWriter(out)
				table.Header("Webhook data")

				for _, hook := range webhooks {
					_ = table.Append(webhookBlock(hook))
				}

				return table.Render()
			})
		},
	}

	addTeamFlag(cmd, &team)
	addDocFlag(cmd, &doc)

	return cmd
}

func newHookNewCommand() *cobra.Command {
	var (
		team    string
		doc     string
		table   string
		events  string
		ready   string
		enabled bool
	)

	cmd := &cobra.Command{
		Use:   "new NAME URL",
		Short: "Subscribe an endpoint to table events",
		Long: `Subscribe an endpoint to table events. The events are colon-separated,
e.g. "add:update". Prints the id of the new webhook.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := getOutputOptions(cmd)

			fields := grist.WebhookFields{
				Name:       args[0],
				URL:        args[1],
				Enabled:    enabled,
				EventTypes: strings.Split(events, ":"),
				TableID:    table,
			}
			if ready != "" {
				fields.IsReadyColumn = &ready
			}

			cli, err := createClient(team)
			if err != nil {
				return err
			}

			ctx := context.Background()

			ids, callErr := cli.Webhooks().Create(ctx, doc, []grist.WebhookFields{fields})
			if err := reportFailure(cmd, opts, cli, callErr); err != nil {
				return err
			}

			created := ""
			if len(ids) > 0 {
				created = ids[0]
			}

			return printResult(cmd, opts, cli, ids, func(out io.Writer) error {
				fmt.Fprintln(out, created)

				return nil
			})
		},
	}

	addTeamFlag(cmd, &team)
	addDocFlag(cmd, &doc)
	addTableFlag(cmd, &table)
	cmd.Flags().StringVar(&events, "events", "add", `the events to subscribe, colon-separated: "add:update"`)
	cmd.Flags().StringVar(&ready, "ready", "", "only fire once this column is truthy")
	cmd.Flags().BoolVar(&enabled, "enabled", true, "start the webhook enabled")

	return cmd
}

func newHookUpdateCommand() *cobra.Command {
	var (
		team    string
		doc     string
		name    string
		url     string
		table   string
		events  string
		ready   string
		enabled bool
	)

	cmd := &cobra.Command{
		Use:   "update WEBHOOK_ID",
		Short: "Change a webhook",
		Long:  "Change a webhook. Only the passed flags are touched, everything else keeps its value.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := getOutputOptions(cmd)

			var update grist.WebhookUpdate

			if cmd.Flags().Changed("name") {
				update.Name = &name
			}

			if cmd.Flags().Changed("url") {
				update.URL = &url
			}

			if cmd.Flags().Changed("table") {
				update.TableID = &table
			}

			if cmd.Flags().Changed("events") {
				eventTypes := strings.Split(events, ":")
				update.EventTypes = &eventTypes
			}

			if cmd.Flags().Changed("ready") {
				update.IsReadyColumn = &ready
			}

			if cmd.Flags().Changed("enabled") {
				update.Enabled = &enabled
			}

			cli, err := createClient(team)
			if err != nil {
				return err
			}

			ctx := context.Background()

			callErr := cli.Webhooks().Update(ctx, doc, args[0], update)
			if err := reportFailure(cmd, opts, cli, callErr); err != nil {
				return err
			}

			return printDone(cmd, opts, cli, recordValue(cli))
		},
	}

	addTeamFlag(cmd, &team)
	addDocFlag(cmd, &doc)
	cmd.Flags().StringVar(&name, "name", "", "the new name")
	cmd.Flags().StringVar(&url, "url", "", "the new endpoint URL")
	cmd.Flags().StringVar(&table, "table", "", "the new table id name")
	cmd.Flags().StringVar(&events, "events", "", `the new events, colon-separated: "add:update"`)
	cmd.Flags().StringVar(&ready, "ready", "", "the new readiness column")
	cmd.Flags().BoolVar(&enabled, "enabled", true, "enable or disable the webhook")

	return cmd
}

func newHookDeleteCommand() *cobra.Command {
	var (
		team string
		doc  string
	)

	cmd := &cobra.Command{
		Use:   "delete WEBHOOK_ID",
		Short: "Remove a webhook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := getOutputOptions(cmd)

			cli, err := createClient(team)
			if err != nil {
				return err
			}

			ctx := context.Background()

			callErr := cli.Webhooks().Delete(ctx, doc, args[0])
			if err := reportFailure(cmd, opts, cli, callErr); err != nil {
				return err
			}

			return printDone(cmd, opts, cli, recordValue(cli))
		},
	}

	addTeamFlag(cmd, &team)
	addDocFlag(cmd, &doc)

	return cmd
}

func newHookEmptyQueueCommand() *cobra.Command {
	var (
		team string
		doc  string
	)

	cmd := &cobra.Command{
		Use:   "empty-queue",
		Short: "Flush the webhook delivery queue of a document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := getOutputOptions(cmd)

			cli, err := createClient(team)
			if err != nil {
				return err
			}

			ctx := context.Background()

			callErr := cli.Webhooks().EmptyQueue(ctx, doc)
			if err := reportFailure(cmd, opts, cli, callErr); err != nil {
				return err
			}

			return printDone(cmd, opts, cli, recordValue(cli))
		},
	}

	addTeamFlag(cmd, &team)
	addDocFlag(cmd, &doc)

	return cmd
}

func webhookBlock(hook grist.Webhook) string {
	return strings.Join([]string{
		"id: " + hook.ID,
		"name: " + hook.Fields.Name,
		"url: " + hook.Fields.URL,
		fmt.Sprintf("enabled: %t", hook.Fields.Enabled),
		"table: " + hook.Fields.TableID,
		"events: " + strings.Join(hook.Fields.EventTypes, ", "),
	}, "\n")
}
