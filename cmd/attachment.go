package cmd

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"jiskefet/internal/bootstrap"
	"jiskefet/internal/errs"
	"jiskefet/internal/usecase/logbook"
)

var attachmentCmd = &cobra.Command{
	Use:   "attachment",
	Short: "Manage files attached to log entries",
}

var attachmentAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Attach a file to a log entry",
	RunE: withApp(func(cmd *cobra.Command, _ []string, app *bootstrap.App) error {
		logID, _ := cmd.Flags().GetUint64("log-id")
		path, _ := cmd.Flags().GetString("file")
		fileMime, _ := cmd.Flags().GetString("mime")

		data, err := os.ReadFile(path)
		if err != nil {
			return errs.Wrapf(err, "read attachment %s", path)
		}
		if fileMime == "" {
			fileMime = mime.TypeByExtension(filepath.Ext(path))
		}

		result := app.Services.Attachments.Create(cmd.Context(), logbook.CreateAttachmentInput{
			LogID:    logID,
			FileName: filepath.Base(path),
			FileMime: fileMime,
			FileData: data,
		})
		if result.Status != logbook.AttachmentOK {
			if result.Status == logbook.AttachmentPartialFailure {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "attachment partially failed, diagnostic written=%v\n", result.DiagnosticWritten)
			}
			return errs.Wrap(result.Err, "add attachment")
		}

		attachment := result.Attachment
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "attached %s (%d bytes) to log %d: id=%d\n", attachment.FileName, attachment.FileSize, attachment.LogID, attachment.AttachmentID); err != nil {
			return errs.Wrap(err, "write attachment output")
		}
		return nil
	}),
}

var attachmentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the attachments of a log entry",
	RunE: withApp(func(cmd *cobra.Command, _ []string, app *bootstrap.App) error {
		logID, _ := cmd.Flags().GetUint64("log-id")
		items, err := app.Services.Attachments.FindByLog(cmd.Context(), logID)
		if err != nil {
			return errs.Wrap(err, "list attachments")
		}

		out := cmd.OutOrStdout()
		if len(items) == 0 {
			if _, err := fmt.Fprintln(out, "no attachments"); err != nil {
				return errs.Wrap(err, "write attachment output")
			}
		}
		for _, item := range items {
			if _, err := fmt.Fprintf(out, "%d\t%s\t%s\t%d bytes\n", item.AttachmentID, item.FileName, item.FileMime, item.FileSize); err != nil {
				return errs.Wrap(err, "write attachment output")
			}
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(attachmentCmd)
	attachmentCmd.AddCommand(attachmentAddCmd, attachmentListCmd)

	for _, command := range []*cobra.Command{attachmentAddCmd, attachmentListCmd} {
		command.Flags().Uint64("log-id", 0, "Log id")
		_ = command.MarkFlagRequired("log-id")
	}
	attachmentAddCmd.Flags().String("file", "", "File to attach")
	attachmentAddCmd.Flags().String("mime", "", "MIME type (guessed from the extension when empty)")
	_ = attachmentAddCmd.MarkFlagRequired("file")
}
