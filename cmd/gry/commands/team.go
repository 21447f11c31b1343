package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/gridworks-io/grist/internal/constants"
	"github.com/gridworks-io/grist/pkg/grist"
)

// NewTeamCommand creates the team command group.
func NewTeamCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "team",
		Aliases: []string{"teams", "org"},
		Short:   "Manage team sites",
		Long:    "Manage team sites (organizations): list them, inspect one, rename, delete, and control who can access them",
	}

	cmd.AddCommand(newTeamListCommand())
	cmd.AddCommand(newTeamSeeCommand())
	cmd.AddCommand(newTeamUpdateCommand())
	cmd.AddCommand(newTeamDeleteCommand())
	cmd.AddCommand(newTeamUsersCommand())
	cmd.AddCommand(newTeamUserAccessCommand())

	return cmd
}

func newTeamListCommand() *cobra.Command {
	var team string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the team sites you can access",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := getOutputOptions(cmd)

			cli, err := createClient(team)
			if err != nil {
				return err
			}

			ctx := context.Background()

			orgs, callErr := cli.Orgs().List(ctx)
			if err := reportFailure(cmd, opts, cli, callErr); err != nil {
				return err
			}

			return printValue(cmd, opts, cli, orgs, func(out io.Writer) error {
				if len(orgs) == 0 {
					fmt.Fprintln(out, "No team sites found.")

					return nil
				}

				table := tablewriter.NewWriter(out)
				table.Header("ID", "Name", "Owner")

				for _, org := range orgs {
					_ = table.Append(strconv.Itoa(org.ID), org.Name, orgOwnerCell(org.Owner))
				}

				return table.Render()
			})
		},
	}

	addTeamFlag(cmd, &team)

	return cmd
}

func newTeamSeeCommand() *cobra.Command {
	var team string

	cmd := &cobra.Command{
		Use:   "see",
		Short: "Describe one team site",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := getOutputOptions(cmd)

			cli, err := createClient(team)
			if err != nil {
				return err
			}

			ctx := context.Background()

			org, callErr := cli.Orgs().Get(ctx, team)
			if err := reportFailure(cmd, opts, cli, callErr); err != nil {
				return err
			}

			return printValue(cmd, opts, cli, org, func(out io.Writer) error {
				return keyValueTable(out, [][]string{
					{"id", strconv.Itoa(org.ID)},
					{"name", org.Name},
					{"domain", org.Domain},
					{"owner", orgOwnerCell(org.Owner)},
				})
			})
		},
	}

	addTeamFlag(cmd, &team)

	return cmd
}

func newTeamUpdateCommand() *cobra.Command {
	var team string

	cmd := &cobra.Command{
		Use:   "update NAME",
		Short: "Rename a team site",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := getOutputOptions(cmd)

			cli, err := createClient(team)
			if err != nil {
				return err
			}

			ctx := context.Background()

			callErr := cli.Orgs().Update(ctx, team, args[0])
			if err := reportFailure(cmd, opts, cli, callErr); err != nil {
				return err
			}

			return printDone(cmd, opts, cli, recordValue(cli))
		},
	}

	addTeamFlag(cmd, &team)

	return cmd
}

func newTeamDeleteCommand() *cobra.Command {
	var team string

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a team site",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := getOutputOptions(cmd)

			cli, err := createClient(team)
			if err != nil {
				return err
			}

			ctx := context.Background()

			callErr := cli.Orgs().Delete(ctx, team)
			if err := reportFailure(cmd, opts, cli, callErr); err != nil {
				return err
			}

			return printDone(cmd, opts, cli, recordValue(cli))
		},
	}

	addTeamFlag(cmd, &team)

	return cmd
}

func newTeamUsersCommand() *cobra.Command {
	var team string

	cmd := &cobra.Command{
		Use:   "users",
		Short: "List the users with access to a team site",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := getOutputOptions(cmd)

			cli, err := createClient(team)
			if err != nil {
				return err
			}

			ctx := context.Background()

			shares, callErr := cli.Orgs().ListUsers(ctx, team)
			if err := reportFailure(cmd, opts, cli, callErr); err != nil {
				return err
			}

			return printValue(cmd, opts, cli, shares, func(out io.Writer) error {
				if len(shares.Users) == 0 {
					fmt.Fprintln(out, "No users found.")

					return nil
				}

				return shareUsersTable(out, shares)
			})
		},
	}

	addTeamFlag(cmd, &team)

	return cmd
}

func newTeamUserAccessCommand() *cobra.Command {
	var (
		team   string
		access string
	)

	cmd := &cobra.Command{
		Use:   "user-access USER_ID",
		Short: "Change one user's access to a team site",
		Long:  `Change one user's access to a team site. Pass "none" to revoke it.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := getOutputOptions(cmd)

			userID, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("the user id must be a number")
			}

			accessPtr, err := parseAccess(access)
			if err != nil {
				return err
			}

			cli, err := createClient(team)
			if err != nil {
				return err
			}

			ctx := context.Background()

			shares, callErr := cli.Orgs().ListUsers(ctx, team)
			if err := reportFailure(cmd, opts, cli, callErr); err != nil {
				return err
			}

			email := findShareEmail(shares, userID)
			if email == "" {
				return errUserNotFound
			}

			callErr = cli.Orgs().UpdateUsers(ctx, team, grist.PermissionDelta{
				Users: map[string]*string{email: accessPtr},
			})
			if err := reportFailure(cmd, opts, cli, callErr); err != nil {
				return err
			}

			return printDone(cmd, opts, cli, recordValue(cli))
		},
	}

	addTeamFlag(cmd, &team)
	cmd.Flags().StringVarP(&access, "access", "a", "", "the access level: owners, editors, viewers, members or none (required)")
	_ = cmd.MarkFlagRequired("access")

	return cmd
}

func orgOwnerCell(owner *grist.OrgOwner) string {
	if owner == nil {
		return constants.NotAvailable
	}

	return fmt.Sprintf("%d - %s", owner.ID, owner.Name)
}
