package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/gridworks-io/grist/internal/constants"
	"github.com/gridworks-io/grist/pkg/grist"
)

// NewUserCommand creates the user command group.
func NewUserCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "user",
		Aliases: []string{"users"},
		Short:   "Manage user accounts over SCIM",
		Long:    "Manage user accounts through the SCIM endpoints: list and search them, inspect one, create, patch and delete accounts. The endpoints must be enabled on the server.",
	}

	cmd.AddCommand(newUserListCommand())
	cmd.AddCommand(newUserMeCommand())
	cmd.AddCommand(newUserSeeCommand())
	cmd.AddCommand(newUserSearchCommand())
	cmd.AddCommand(newUserNewCommand())
	cmd.AddCommand(newUserUpdateCommand())
	cmd.AddCommand(newUserDeleteCommand())

	return cmd
}

func newUserListCommand() *cobra.Command {
	var (
		start int
		count int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List user accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := getOutputOptions(cmd)

			cli, err := createClient("")
			if err != nil {
				return err
			}

			ctx := context.Background()

			resp, callErr := cli.Users().List(ctx, start, count)
			if err := reportFailure(cmd, opts, cli, callErr); err != nil {
				return err
			}

			return printValue(cmd, opts, cli, resp, func(out io.Writer) error {
				if len(resp.Resources) == 0 {
					fmt.Fprintln(out, "No users found.")

					return nil
				}

				return scimUsersTable(out, resp.Resources)
			})
		},
	}

	cmd.Flags().IntVarP(&start, "start", "s", constants.DefaultSCIMStartIndex, "the 1-based index to start from")
	cmd.Flags().IntVarP(&count, "retrieve", "r", constants.DefaultSCIMCount, "how many accounts to retrieve")

	return cmd
}

func newUserMeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "me",
		Short: "Describe your own account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := getOutputOptions(cmd)

			cli, err := createClient("")
			if err != nil {
				return err
			}

			ctx := context.Background()

			user, callErr := cli.Users().Me(ctx)
			if err := reportFailure(cmd, opts, cli, callErr); err != nil {
				return err
			}

			return printValue(cmd, opts, cli, user, func(out io.Writer) error {
				return keyValueTable(out, scimUserRows(user))
			})
		},
	}

	return cmd
}

func newUserSeeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "see USER_ID",
		Short: "Describe one user account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := getOutputOptions(cmd)

			userID, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("the user id must be a number")
			}

			cli, err := createClient("")
			if err != nil {
				return err
			}

			ctx := context.Background()

			user, callErr := cli.Users().Get(ctx, userID)
			if err := reportFailure(cmd, opts, cli, callErr); err != nil {
				return err
			}

			return printValue(cmd, opts, cli, user, func(out io.Writer) error {
				return keyValueTable(out, scimUserRows(user))
			})
		},
	}

	return cmd
}

func newUserSearchCommand() *cobra.Command {
	var (
		start int
		count int
	)

	cmd := &cobra.Command{
		Use:   "search FILTER",
		Short: "Search user accounts with a SCIM filter",
		Long: `Search user accounts with a SCIM filter expression, e.g.
'userName co "bob"' or 'emails.value sw "ops@"'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := getOutputOptions(cmd)

			cli, err := createClient("")
			if err != nil {
				return err
			}

			ctx := context.Background()

			resp, callErr := cli.Users().Search(ctx, &grist.SCIMSearchRequest{
				Filter:     args[0],
				StartIndex: start,
				Count:      count,
			})
			if err := reportFailure(cmd, opts, cli, callErr); err != nil {
				return err
			}

			return printValue(cmd, opts, cli, resp, func(out io.Writer) error {
				if len(resp.Resources) == 0 {
					fmt.Fprintln(out, "No users found.")

					return nil
				}

				return scimUsersTable(out, resp.Resources)
			})
		},
	}

	cmd.Flags().IntVarP(&start, "start", "s", constants.DefaultSCIMStartIndex, "the 1-based index to start from")
	cmd.Flags().IntVarP(&count, "retrieve", "r", constants.DefaultSCIMCount, "how many accounts to retrieve")

	return cmd
}

func newUserNewCommand() *cobra.Command {
	var (
		display   string
		formatted string
		language  string
		locale    string
		picture   string
	)

	cmd := &cobra.Command{
		Use:   "new NAME EMAIL",
		Short: "Create a user account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := getOutputOptions(cmd)

			user := grist.SCIMUser{
				UserName:          args[0],
				DisplayName:       display,
				PreferredLanguage: language,
				Locale:            locale,
				Emails: []grist.SCIMEmail{
					{Value: args[1], Primary: true},
				},
			}

			if formatted != "" {
				user.Name = &grist.SCIMName{Formatted: formatted}
			}

			if picture != "" {
				user.Photos = []grist.SCIMPhoto{{Value: picture, Type: "photo"}}
			}

			cli, err := createClient("")
			if err != nil {
				return err
			}

			ctx := context.Background()

			userID, callErr := cli.Users().Create(ctx, &user)
			if err := reportFailure(cmd, opts, cli, callErr); err != nil {
				return err
			}

			return printDoneID(cmd, opts, cli, userID, userID)
		},
	}

	cmd.Flags().StringVarP(&display, "display", "d", "", "the display name")
	cmd.Flags().StringVarP(&formatted, "formatted", "f", "", "the formatted full name")
	cmd.Flags().StringVarP(&language, "language", "g", "en", "the preferred language")
	cmd.Flags().StringVarP(&locale, "locale", "l", "en", "the locale")
	cmd.Flags().StringVarP(&picture, "picture", "p", "", "the profile picture URL")

	return cmd
}

func newUserUpdateCommand() *cobra.Command {
	var operation string

	cmd := &cobra.Command{
		Use:   "update USER_ID OP_PATH OP_VALUE",
		Short: "Patch one attribute of a user account",
		Long: `Patch one attribute of a user account, e.g.
gry user update 7 displayName Robert
gry user update 7 locale fr --operation add`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := getOutputOptions(cmd)

			userID, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("the user id must be a number")
			}

			switch operation {
			case "add", "replace", "remove":
			default:
				return fmt.Errorf("the operation must be add, replace or remove")
			}

			cli, err := createClient("")
			if err != nil {
				return err
			}

			ctx := context.Background()

			callErr := cli.Users().Patch(ctx, userID, grist.SCIMPatchOp{
				Op:    operation,
				Path:  args[1],
				Value: args[2],
			})
			if err := reportFailure(cmd, opts, cli, callErr); err != nil {
				return err
			}

			return printDone(cmd, opts, cli, recordValue(cli))
		},
	}

	cmd.Flags().StringVar(&operation, "operation", "replace", "the patch operation: add, replace or remove")

	return cmd
}

func newUserDeleteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete USER_ID",
		Short: "Delete a user account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := getOutputOptions(cmd)

			userID, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("the user id must be a number")
			}

			cli, err := createClient("")
			if err != nil {
				return err
			}

			ctx := context.Background()

			callErr := cli.Users().Delete(ctx, userID)
			if err := reportFailure(cmd, opts, cli, callErr); err != nil {
				return err
			}

			return printDone(cmd, opts, cli, recordValue(cli))
		},
	}

	return cmd
}
