package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gridworks-io/grist/pkg/grist"
)

// NewAttCommand creates the att command group.
func NewAttCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "att",
		Aliases: []string{"atts", "attachment", "attachments"},
		Short:   "Manage the attachments of a document",
		Long:    "Manage the attachments of a document: list and inspect them, upload and download files, back up and restore the whole set, and control where the payloads are stored",
	}

	cmd.AddCommand(newAttListCommand())
	cmd.AddCommand(newAttSeeCommand())
	cmd.AddCommand(newAttDownloadCommand())
	cmd.AddCommand(newAttUploadCommand())
	cmd.AddCommand(newAttBackupCommand())
	cmd.AddCommand(newAttRestoreCommand())
	cmd.AddCommand(newAttStoreCommand())
	cmd.AddCommand(newAttSetStoreCommand())
	cmd.AddCommand(newAttStoreSettingsCommand())
	cmd.AddCommand(newAttTransferCommand())
	cmd.AddCommand(newAttTransferStatusCommand())

	return cmd
}

func newAttListCommand() *cobra.Command {
	var (
		team   string
		doc    string
		sortBy string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the attachments of a document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := getOutputOptions(cmd)

			cli, err := createClient(team)
			if err != nil {
				return err
			}

			ctx := context.Background()

			listOpts := grist.NewListOptions()
			if sortBy != "" {
				listOpts = listOpts.WithSort(sortBy)
			}

			if limit > 0 {
				listOpts = listOpts.WithLimit(limit)
			}

			attachments, callErr := cli.Attachments().List(ctx, doc, listOpts)
			if err := reportFailure(cmd, opts, cli, callErr); err != nil {
				return err
			}

			return printValue(cmd, opts, cli, attachments, func(out io.Writer) error {
				if len(attachments) == 0 {
					fmt.Fprintln(out, "No attachments found.")

					return nil
				}

				rows := make([][2]string, 0, len(attachments))
				for _, att := range attachments {
					rows = append(rows, [2]string{strconv.Itoa(att.ID), attachmentBlock(att.Fields)})
				}

				return idBlockTable(out, "Att. ID", rows)
			})
		},
	}

	addTeamFlag(cmd, &team)
	addDocFlag(cmd, &doc)
	cmd.Flags().StringVarP(&sortBy, "sort", "s", "", "sort order, e.g. fileName or -fileSize")
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "return at most this many attachments")

	return cmd
}

func newAttSeeCommand() *cobra.Command {
	var (
		team string
		doc  string
	)

	cmd := &cobra.Command{
		Use:   "see ATTACHMENT_ID",
		Short: "Describe one attachment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := getOutputOptions(cmd)

			attID, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("the attachment id must be a number")
			}

			cli, err := createClient(team)
			if err != nil {
				return err
			}

			ctx := context.Background()

			fields, callErr := cli.Attachments().Get(ctx, doc, attID)
			if err := reportFailure(cmd, opts, cli, callErr); err != nil {
				return err
			}

			return printValue(cmd, opts, cli, fields, func(out io.Writer) error {
				return keyValueTable(out, [][]string{
					{"id", strconv.Itoa(attID)},
					{"fileName", fields.FileName},
					{"fileSize", strconv.FormatInt(fields.FileSize, 10)},
					{"timeUploaded", fields.TimeUploaded},
				})
			})
		},
	}

	addTeamFlag(cmd, &team)
	addDocFlag(cmd, &doc)

	return cmd
}

func newAttDownloadCommand() *cobra.Command {
	var (
		team  string
		doc   string
		attID int
	)

	cmd := &cobra.Command{
		Use:   "download FILENAME",
		Short: "Download one attachment",
		Args:  cobra.ExactArgs(1),
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
				return cli.Attachments().Download(ctx, doc, attID, dst)
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
	cmd.Flags().IntVarP(&attID, "attachment", "a", 0, "the attachment integer id (required)")
	_ = cmd.MarkFlagRequired("attachment")

	return cmd
}

func newAttUploadCommand() *cobra.Command {
	var (
		team string
		doc  string
	)

	cmd := &cobra.Command{
		Use:   "upload FILENAME...",
		Short: "Upload files as attachments",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := getOutputOptions(cmd)

			for _, path := range args {
				info, err := os.Stat(path)
				if err != nil || info.IsDir() {
					return fmt.Errorf("%s is not an existing file", path)
				}
			}

			cli, err := createClient(team)
			if err != nil {
				return err
			}

			ctx := context.Background()

			ids, callErr := cli.Attachments().Upload(ctx, doc, args...)
			if err := reportFailure(cmd, opts, cli, callErr); err != nil {
				return err
			}

			created := 0
			if len(ids) > 0 {
				created = ids[0]
			}

			return printDoneID(cmd, opts, cli, ids, created)
		},
	}

	addTeamFlag(cmd, &team)
	addDocFlag(cmd, &doc)

	return cmd
}

func newAttBackupCommand() *cobra.Command {
	var (
		team string
		doc  string
		mode string
	)

	cmd := &cobra.Command{
		Use:   "backup FILENAME",
		Short: "Download all attachments as one archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := getOutputOptions(cmd)
			opts.verbose = 0

			path := args[0]
			if err := checkDownloadPath(path); err != nil {
				return err
			}

			if mode != grist.ArchiveTar && mode != grist.ArchiveZip {
				return fmt.Errorf("the archive mode must be %s or %s", grist.ArchiveTar, grist.ArchiveZip)
			}

			cli, err := createClient(team)
			if err != nil {
				return err
			}

			ctx := context.Background()

			callErr := downloadToFile(path, func(dst io.Writer) error {
				return cli.Attachments().DownloadAll(ctx, doc, dst, mode)
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
	cmd.Flags().StringVarP(&mode, "mode", "m", grist.ArchiveTar, "the archive mode: tar or zip")

	return cmd
}

func newAttRestoreCommand() *cobra.Command {
	var (
		team string
		doc  string
	)

	cmd := &cobra.Command{
		Use:   "restore FILENAME",
		Short: "Restore attachments from a tar archive",
		Long: `Restore attachments from a tar archive made by the backup command.
Prints how many payloads were added and any per-file errors.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := getOutputOptions(cmd)

			path := args[0]

			archive, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("%s is not an existing file", path)
			}

			defer func() {
				_ = archive.Close()
			}()

			cli, err := createClient(team)
			if err != nil {
				return err
			}

			ctx := context.Background()

			callErr := cli.Attachments().RestoreAll(ctx, doc, archive)
			if err := reportFailure(cmd, opts, cli, callErr); err != nil {
				return err
			}

			value := recordValue(cli)

			return printValue(cmd, opts, cli, value, func(out io.Writer) error {
				return encodeJSON(out, value)
			})
		},
	}

	addTeamFlag(cmd, &team)
	addDocFlag(cmd, &doc)

	return cmd
}

func newAttStoreCommand() *cobra.Command {
	var (
		team string
		doc  string
	)

	cmd := &cobra.Command{
		Use:   "store",
		Short: "Show where attachment payloads are stored",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := getOutputOptions(cmd)

			cli, err := createClient(team)
			if err != nil {
				return err
			}

			ctx := context.Background()

			store, callErr := cli.Attachments().Store(ctx, doc)
			if err := reportFailure(cmd, opts, cli, callErr); err != nil {
				return err
			}

			return printValue(cmd, opts, cli, store, func(out io.Writer) error {
				fmt.Fprintln(out, store.Type)

				return nil
			})
		},
	}

	addTeamFlag(cmd, &team)
	addDocFlag(cmd, &doc)

	return cmd
}

func newAttSetStoreCommand() *cobra.Command {
	var (
		team     string
		doc      string
		internal bool
		external bool
	)

	cmd := &cobra.Command{
		Use:   "set-store",
		Short: "Choose where attachment payloads are stored",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := getOutputOptions(cmd)

			storeType := grist.StoreInternal
			if external {
				storeType = grist.StoreExternal
			}

			cli, err := createClient(team)
			if err != nil {
				return err
			}

			ctx := context.Background()

			callErr := cli.Attachments().SetStore(ctx, doc, storeType)
			if err := reportFailure(cmd, opts, cli, callErr); err != nil {
				return err
			}

			return printDone(cmd, opts, cli, recordValue(cli))
		},
	}

	addTeamFlag(cmd, &team)
	addDocFlag(cmd, &doc)
	cmd.Flags().BoolVar(&internal, "internal", false, "store payloads inside the document (the default)")
	cmd.Flags().BoolVar(&external, "external", false, "store payloads in the configured external store")
	cmd.MarkFlagsMutuallyExclusive("internal", "external")

	return cmd
}

func newAttStoreSettingsCommand() *cobra.Command {
	var (
		team string
		doc  string
	)

	cmd := &cobra.Command{
		Use:   "store-settings",
		Short: "Show the attachment store settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := getOutputOptions(cmd)

			cli, err := createClient(team)
			if err != nil {
				return err
			}

			ctx := context.Background()

			settings, callErr := cli.Attachments().StoreSettings(ctx, doc)
			if err := reportFailure(cmd, opts, cli, callErr); err != nil {
				return err
			}

			return printValue(cmd, opts, cli, settings, func(out io.Writer) error {
				return encodeJSON(out, settings)
			})
		},
	}

	addTeamFlag(cmd, &team)
	addDocFlag(cmd, &doc)

	return cmd
}

func newAttTransferCommand() *cobra.Command {
	var (
		team string
		doc  string
	)

	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Start moving attachment payloads to the current store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := getOutputOptions(cmd)

			cli, err := createClient(team)
			if err != nil {
				return err
			}

			ctx := context.Background()

			status, callErr := cli.Attachments().TransferAll(ctx, doc)
			if err := reportFailure(cmd, opts, cli, callErr); err != nil {
				return err
			}

			return printValue(cmd, opts, cli, status, func(out io.Writer) error {
				return transferTable(out, status)
			})
		},
	}

	addTeamFlag(cmd, &team)
	addDocFlag(cmd, &doc)

	return cmd
}

func newAttTransferStatusCommand() *cobra.Command {
	var (
		team string
		doc  string
	)

	cmd := &cobra.Command{
		Use:   "transfer-status",
		Short: "Show the progress of an attachment transfer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := getOutputOptions(cmd)

			cli, err := createClient(team)
			if err != nil {
				return err
			}

			ctx := context.Background()

			status, callErr := cli.Attachments().TransferStatus(ctx, doc)
			if err := reportFailure(cmd, opts, cli, callErr); err != nil {
				return err
			}

			return printValue(cmd, opts, cli, status, func(out io.Writer) error {
				return transferTable(out, status)
			})
		},
	}

	addTeamFlag(cmd, &team)
	addDocFlag(cmd, &doc)

	return cmd
}

func attachmentBlock(fields grist.AttachmentFields) string {
	return strings.Join([]string{
		"fileName: " + fields.FileName,
		"fileSize: " + strconv.FormatInt(fields.FileSize, 10),
		"timeUploaded: " + fields.TimeUploaded,
	}, "\n")
}

func transferTable(out io.Writer, status *grist.TransferStatus) error {
	return keyValueTable(out, [][]string{
		{"pending transfers", strconv.Itoa(status.Status.PendingTransferCount)},
		{"running", strconv.FormatBool(status.Status.IsRunning)},
		{"location", status.LocationSummary},
	})
}
