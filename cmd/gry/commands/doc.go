package commands

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/gridworks-io/grist/internal/constants"
	"github.com/gridworks-io/grist/pkg/grist"
)

// NewDocCommand creates the doc command group.
func NewDocCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "doc",
		Aliases: []string{"docs", "document"},
		Short:   "Manage documents",
		Long:    "Manage documents: inspect one, create, rename, pin, move across workspaces, delete, trim history, download as SQLite, and control who can access them",
	}

	cmd.AddCommand(newDocSeeCommand())
	cmd.AddCommand(newDocNewCommand())
	cmd.AddCommand(newDocUpdateCommand())
	cmd.AddCommand(newDocMoveCommand())
	cmd.AddCommand(newDocDeleteCommand())
	cmd.AddCommand(newDocPurgeHistoryCommand())
	cmd.AddCommand(newDocReloadCommand())
	cmd.AddCommand(newDocDownloadCommand())
	cmd.AddCommand(newDocUsersCommand())
	cmd.AddCommand(newDocUserAccessCommand())

	return cmd
}

func newDocSeeCommand() *cobra.Command {
	var (
		team string
		doc  string
	)

	cmd := &cobra.Command{
		Use:   "see",
		Short: "Describe one document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := getOutputOptions(cmd)

			cli, err := createClient(team)
			if err != nil {
				return err
			}

			ctx := context.Background()

			document, callErr := cli.Docs().Get(ctx, doc)
			if err := reportFailure(cmd, opts, cli, callErr); err != nil {
				return err
			}

			return printValue(cmd, opts, cli, document, func(out io.Writer) error {
				workspace := constants.NotAvailable
				teamCell := constants.NotAvailable

				if document.Workspace != nil {
					workspace = fmt.Sprintf("%d - %s", document.Workspace.ID, document.Workspace.Name)

					if document.Workspace.Org != nil {
						teamCell = fmt.Sprintf("%d - %s", document.Workspace.Org.ID, document.Workspace.Org.Name)
					}
				}

				return keyValueTable(out, [][]string{
					{"id", document.ID},
					{"name", document.Name},
					{"pinned", strconv.FormatBool(document.IsPinned)},
					{"workspace", workspace},
					{"team", teamCell},
				})
			})
		},
	}

	addTeamFlag(cmd, &team)
	addDocFlag(cmd, &doc)

	return cmd
}

func newDocNewCommand() *cobra.Command {
	var (
		workspace int
		pinned    bool
	)

	cmd := &cobra.Command{
		Use:   "new NAME",
		Short: "Add a document to a workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := getOutputOptions(cmd)

			cli, err := createClient("")
			if err != nil {
				return err
			}

			ctx := context.Background()

			docID, callErr := cli.Docs().Create(ctx, args[0], workspace, pinned)
			if err := reportFailure(cmd, opts, cli, callErr); err != nil {
				return err
			}

			return printDoneID(cmd, opts, cli, docID, docID)
		},
	}

	addWorkspaceFlag(cmd, &workspace)
	cmd.Flags().BoolVar(&pinned, "pinned", false, "pin the document")

	return cmd
}

func newDocUpdateCommand() *cobra.Command {
	var (
		team   string
		doc    string
		pinned bool
	)

	cmd := &cobra.Command{
		Use:   "update NAME",
		Short: "Rename a document, optionally changing its pin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := getOutputOptions(cmd)

			cli, err := createClient(team)
			if err != nil {
				return err
			}

			ctx := context.Background()

			update := grist.DocUpdate{Name: &args[0]}
			if cmd.Flags().Changed("pinned") {
				update.IsPinned = &pinned
			}

			callErr := cli.Docs().Update(ctx, doc, update)
			if err := reportFailure(cmd, opts, cli, callErr); err != nil {
				return err
			}

			return printDone(cmd, opts, cli, recordValue(cli))
		},
	}

	addTeamFlag(cmd, &team)
	addDocFlag(cmd, &doc)
	cmd.Flags().BoolVar(&pinned, "pinned", false, "pin or unpin the document")

	return cmd
}

func newDocMoveCommand() *cobra.Command {
	var (
		team string
		doc  string
	)

	cmd := &cobra.Command{
		Use:   "move DEST_WORKSPACE_ID",
		Short: "Move a document to another workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := getOutputOptions(cmd)

			destination, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("the destination workspace id must be a number")
			}

			cli, err := createClient(team)
			if err != nil {
				return err
			}

			ctx := context.Background()

			callErr := cli.Docs().Move(ctx, doc, destination)
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

func newDocDeleteCommand() *cobra.Command {
	var (
		team string
		doc  string
	)

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := getOutputOptions(cmd)

			cli, err := createClient(team)
			if err != nil {
				return err
			}

			ctx := context.Background()

			callErr := cli.Docs().Delete(ctx, doc)
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

func newDocPurgeHistoryCommand() *cobra.Command {
	var (
		team string
		doc  string
		keep int
	)

	cmd := &cobra.Command{
		Use:   "purge-history",
		Short: "Drop the action history of a document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := getOutputOptions(cmd)

			cli, err := createClient(team)
			if err != nil {
				return err
			}

			ctx := context.Background()

			callErr := cli.Docs().DeleteHistory(ctx, doc, keep)
			if err := reportFailure(cmd, opts, cli, callErr); err != nil {
				return err
			}

			return printDone(cmd, opts, cli, recordValue(cli))
		},
	}

	addTeamFlag(cmd, &team)
	addDocFlag(cmd, &doc)
	cmd.Flags().IntVarP(&keep, "keep", "k", 0, "how many recent actions to keep")

	return cmd
}

func newDocReloadCommand() *cobra.Command {
	var (
		team string
		doc  string
	)

	cmd := &cobra.Command{
		Use:   "reload",
		Short: "Force a reload of a document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := getOutputOptions(cmd)

			cli, err := createClient(team)
			if err != nil {
				return err
			}

			ctx := context.Background()

			callErr := cli.Docs().ForceReload(ctx, doc)
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

func newDocDownloadCommand() *cobra.Command {
	var (
		team     string
		doc      string
		history  bool
		template bool
	)

	cmd := &cobra.Command{
		Use:   "download FILENAME",
		Short: "Download a document as a SQLite file",
		Long: `Download a document as a SQLite file. History is stripped unless
--history is passed; --template drops the data as well and keeps the
structure only.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := getOutputOptions(cmd)
			opts.verbose = 0

			path := args[0]
			if err := checkDownloadPath(path); err != nil {
				return err
			}

			cli, err := createClient(team)
			if err != nil {
				return err
			}

			ctx := context.Background()

			callErr := downloadToFile(path, func(dst io.Writer) error {
				return cli.Docs().DownloadSQLite(ctx, doc, dst, &grist.SQLiteDownloadOptions{
					NoHistory: !history,
					Template:  template,
				})
			})
			if err := reportFailure(cmd, opts, cli, callErr); err != nil {
				removeRefusedDownload(cli.Record(), path)

				return err
			}

			return printDone(cmd, opts, cli, recordValue(cli))
		},
	}

	addTeamFlag(cmd, &team)
	addDocFlag(cmd, &doc)
	cmd.Flags().BoolVar(&history, "history", false, "keep the action history")
	cmd.Flags().BoolVar(&template, "template", false, "structure only, without data")

	return cmd
}

func newDocUsersCommand() *cobra.Command {
	var (
		team string
		doc  string
	)

	cmd := &cobra.Command{
		Use:   "users",
		Short: "List the users with access to a document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := getOutputOptions(cmd)

			cli, err := createClient(team)
			if err != nil {
				return err
			}

			ctx := context.Background()

			shares, callErr := cli.Docs().ListUsers(ctx, doc)
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
	addDocFlag(cmd, &doc)

	return cmd
}

func newDocUserAccessCommand() *cobra.Command {
	var (
		team      string
		doc       string
		access    string
		maxAccess string
	)

	cmd := &cobra.Command{
		Use:   "user-access USER_ID",
		Short: "Change one user's access to a document",
		Long: `Change one user's access to a document. Pass "none" to revoke it.
--max-access caps what anyone can inherit from the workspace.`,
		Args: cobra.ExactArgs(1),
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

			maxRole, err := parseMaxAccess(maxAccess)
			if err != nil {
				return err
			}

			cli, err := createClient(team)
			if err != nil {
				return err
			}

			ctx := context.Background()

			shares, callErr := cli.Docs().ListUsers(ctx, doc)
			if err := reportFailure(cmd, opts, cli, callErr); err != nil {
				return err
			}

			email := findShareEmail(shares, userID)
			if email == "" {
				return errUserNotFound
			}

			callErr = cli.Docs().UpdateUsers(ctx, doc, grist.PermissionDelta{
				Users:            map[string]*string{email: accessPtr},
				MaxInheritedRole: &maxRole,
			})
			if err := reportFailure(cmd, opts, cli, callErr); err != nil {
				return err
			}

			return printDone(cmd, opts, cli, recordValue(cli))
		},
	}

	addTeamFlag(cmd, &team)
	addDocFlag(cmd, &doc)
	cmd.Flags().StringVarP(&access, "access", "a", "", "the access level: owners, editors, viewers, members or none (required)")
	_ = cmd.MarkFlagRequired("access")
	cmd.Flags().StringVarP(&maxAccess, "max-access", "A", grist.AccessOwners, "the maximum inherited access: owners, editors or viewers")

	return cmd
}

// checkDownloadPath rejects destinations whose directory does not
// exist, before any API call is made.
func checkDownloadPath(path string) error {
	info, err := os.Stat(filepath.Dir(path))
	if err != nil || !info.IsDir() {
		return fmt.Errorf("the directory of %s does not exist", path)
	}

	return nil
}

// downloadToFile creates the destination and streams the download into
// it. The file stays behind on success only.
func downloadToFile(path string, download func(io.Writer) error) error {
	dst, err := os.Create(path)
	if err != nil {
		return err
	}

	callErr := download(dst)

	if err := dst.Close(); callErr == nil && err != nil {
		return err
	}

	return callErr
}

// removeRefusedDownload drops the empty destination left behind when
// the server refused the download.
func removeRefusedDownload(record *grist.TransactionRecord, path string) {
	if record.HasResponse() && record.StatusCode >= http.StatusMultipleChoices {
		_ = os.Remove(path)
	}
}
