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

// NewWorkspaceCommand creates the ws command group.
func NewWorkspaceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ws",
		Aliases: []string{"workspace", "workspaces"},
		Short:   "Manage workspaces",
		Long:    "Manage workspaces: list the ones in a team site, inspect one with its documents, create, rename, delete, and control who can access them",
	}

	cmd.AddCommand(newWorkspaceListCommand())
	cmd.AddCommand(newWorkspaceSeeCommand())
	cmd.AddCommand(newWorkspaceNewCommand())
	cmd.AddCommand(newWorkspaceUpdateCommand())
	cmd.AddCommand(newWorkspaceDeleteCommand())
	cmd.AddCommand(newWorkspaceUsersCommand())
	cmd.AddCommand(newWorkspaceUserAccessCommand())

	return cmd
}

func newWorkspaceListCommand() *cobra.Command {
	var team string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the workspaces of a team site",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := getOutputOptions(cmd)

			cli, err := createClient(team)
			if err != nil {
				return err
			}

			ctx := context.Background()

			workspaces, callErr := cli.Workspaces().List(ctx, team)
			if err := reportFailure(cmd, opts, cli, callErr); err != nil {
				return err
			}

			return printValue(cmd, opts, cli, workspaces, func(out io.Writer) error {
				if len(workspaces) == 0 {
					fmt.Fprintln(out, "No workspaces found.")

					return nil
				}

				table := tablewriter.NewWriter(out)
				table.Header("ID", "Name", "Owner", "Email", "Docs")

				for _, ws := range workspaces {
					owner := constants.NotAvailable
					email := ""

					if ws.Owner != nil {
						owner = fmt.Sprintf("%d - %s", ws.Owner.ID, ws.Owner.Name)
						email = ws.Owner.Email
					}

					_ = table.Append(strconv.Itoa(ws.ID), ws.Name, owner, email, strconv.Itoa(len(ws.Docs)))
				}

				return table.Render()
			})
		},
	}

	addTeamFlag(cmd, &team)

	return cmd
}

func newWorkspaceSeeCommand() *cobra.Command {
	var workspace int

	cmd := &cobra.Command{
		Use:   "see",
		Short: "Describe one workspace and its documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := getOutputOptions(cmd)

			cli, err := createClient("")
			if err != nil {
				return err
			}

			ctx := context.Background()

			ws, callErr := cli.Workspaces().Get(ctx, workspace)
			if err := reportFailure(cmd, opts, cli, callErr); err != nil {
				return err
			}

			return printValue(cmd, opts, cli, ws, func(out io.Writer) error {
				team := constants.NotAvailable
				if ws.Org != nil {
					team = fmt.Sprintf("%d - %s", ws.Org.ID, ws.Org.Name)
				}

				rows := [][]string{
					{"id", strconv.Itoa(ws.ID)},
					{"name", ws.Name},
					{"team", team},
				}

				for _, doc := range ws.Docs {
					rows = append(rows, []string{"doc", fmt.Sprintf("%s - %s", doc.ID, doc.Name)})
				}

				return keyValueTable(out, rows)
			})
		},
	}

	addWorkspaceFlag(cmd, &workspace)

	return cmd
}

func newWorkspaceNewCommand() *cobra.Command {
	var team string

	cmd := &cobra.Command{
		Use:   "new NAME",
		Short: "Add a workspace to a team site",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := getOutputOptions(cmd)

			cli, err := createClient(team)
			if err != nil {
				return err
			}

			ctx := context.Background()

			wsID, callErr := cli.Workspaces().Create(ctx, args[0], team)
			if err := reportFailure(cmd, opts, cli, callErr); err != nil {
				return err
			}

			return printDoneID(cmd, opts, cli, wsID, wsID)
		},
	}

	addTeamFlag(cmd, &team)

	return cmd
}

func newWorkspaceUpdateCommand() *cobra.Command {
	var workspace int

	cmd := &cobra.Command{
		Use:   "update NAME",
		Short: "Rename a workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := getOutputOptions(cmd)

			cli, err := createClient("")
			if err != nil {
				return err
			}

			ctx := context.Background()

			callErr := cli.Workspaces().Update(ctx, workspace, args[0])
			if err := reportFailure(cmd, opts, cli, callErr); err != nil {
				return err
			}

			return printDone(cmd, opts, cli, recordValue(cli))
		},
	}

	addWorkspaceFlag(cmd, &workspace)

	return cmd
}

func newWorkspaceDeleteCommand() *cobra.Command {
	var workspace int

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a workspace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := getOutputOptions(cmd)

			cli, err := createClient("")
			if err != nil {
				return err
			}

			ctx := context.Background()

			callErr := cli.Workspaces().Delete(ctx, workspace)
			if err := reportFailure(cmd, opts, cli, callErr); err != nil {
				return err
			}

			return printDone(cmd, opts, cli, recordValue(cli))
		},
	}

	addWorkspaceFlag(cmd, &workspace)

	return cmd
}

func newWorkspaceUsersCommand() *cobra.Command {
	var workspace int

	cmd := &cobra.Command{
		Use:   "users",
		Short: "List the users with access to a workspace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := getOutputOptions(cmd)

			cli, err := createClient("")
			if err != nil {
				return err
			}

			ctx := context.Background()

			shares, callErr := cli.Workspaces().ListUsers(ctx, workspace)
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

	addWorkspaceFlag(cmd, &workspace)

	return cmd
}

func newWorkspaceUserAccessCommand() *cobra.Command {
	var (
		workspace int
		access    string
	)

	cmd := &cobra.Command{
		Use:   "user-access USER_ID",
		Short: "Change one user's access to a workspace",
		Long:  `Change one user's access to a workspace. Pass "none" to revoke it.`,
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

			cli, err := createClient("")
			if err != nil {
				return err
			}

			ctx := context.Background()

			shares, callErr := cli.Workspaces().ListUsers(ctx, workspace)
			if err := reportFailure(cmd, opts, cli, callErr); err != nil {
				return err
			}

			email := findShareEmail(shares, userID)
			if email == "" {
				return errUserNotFound
			}

			callErr = cli.Workspaces().UpdateUsers(ctx, workspace, grist.PermissionDelta{
				Users: map[string]*string{email: accessPtr},
			})
			if err := reportFailure(cmd, opts, cli, callErr); err != nil {
				return err
			}

			return printDone(cmd, opts, cli, recordValue(cli))
		},
	}

	addWorkspaceFlag(cmd, &workspace)
	cmd.Flags().StringVarP(&access, "access", "a", "", "the access level: owners, editors, viewers, members or none (required)")
	_ = cmd.MarkFlagRequired("access")

	return cmd
}
