package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"jiskefet/internal/bootstrap"
	"jiskefet/internal/errs"
	"jiskefet/internal/ports"
	"jiskefet/internal/usecase/logbook"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Manage logbook entries",
}

var logCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Write a log entry",
	RunE: withApp(func(cmd *cobra.Command, _ []string, app *bootstrap.App) error {
		title, _ := cmd.Flags().GetString("title")
		body, _ := cmd.Flags().GetString("body")
		subtype, _ := cmd.Flags().GetString("subtype")
		origin, _ := cmd.Flags().GetString("origin")
		author, _ := cmd.Flags().GetString("author")

		entry, err := app.Services.Logs.Create(cmd.Context(), logbook.CreateLogInput{
			Title:   title,
			Body:    body,
			Subtype: subtype,
			Origin:  origin,
			Author:  author,
		})
		if err != nil {
			return errs.Wrap(err, "create log")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "created log: %d\n", entry.LogID); err != nil {
			return errs.Wrap(err, "write log output")
		}
		return nil
	}),
}

var logListCmd = &cobra.Command{
	Use:   "list",
	Short: "List log entries",
	RunE: withApp(func(cmd *cobra.Command, _ []string, app *bootstrap.App) error {
		pageSize, _ := cmd.Flags().GetInt("page-size")
		pageNumber, _ := cmd.Flags().GetInt("page")
		orderBy, _ := cmd.Flags().GetString("order-by")
		order, _ := cmd.Flags().GetString("order")
		subtype, _ := cmd.Flags().GetString("subtype")
		origin, _ := cmd.Flags().GetString("origin")
		title, _ := cmd.Flags().GetString("title")
		runNumber, _ := cmd.Flags().GetInt64("run-number")

		entries, total, err := app.Services.Logs.FindAll(cmd.Context(), logbook.ListLogsInput{
			PageSize:       pageSize,
			PageNumber:     pageNumber,
			OrderBy:        orderBy,
			OrderDirection: order,
			Subtype:        subtype,
			Origin:         origin,
			Title:          title,
			RunNumber:      runNumber,
		})
		if err != nil {
			return errs.Wrap(err, "list logs")
		}
		if err := printLogs(cmd, entries); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "total: %d\n", total); err != nil {
			return errs.Wrap(err, "write log output")
		}
		return nil
	}),
}

var logShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a log entry with its runs",
	RunE: withApp(func(cmd *cobra.Command, _ []string, app *bootstrap.App) error {
		logID, _ := cmd.Flags().GetUint64("id")
		detail, err := app.Services.Logs.FindByID(cmd.Context(), logID)
		if err != nil {
			return errs.Wrap(err, "show log")
		}

		out := cmd.OutOrStdout()
		entry := detail.Log
		lines := []string{
			fmt.Sprintf("Log: %d", entry.LogID),
			fmt.Sprintf("Title: %s", entry.Title),
			fmt.Sprintf("Subtype: %s", entry.Subtype),
			fmt.Sprintf("Origin: %s", entry.Origin),
			fmt.Sprintf("Author: %s", orDash(entry.Author)),
			fmt.Sprintf("CreatedAt: %s", formatTime(&entry.CreatedAt)),
			fmt.Sprintf("Attachments: %d", detail.AttachmentCount),
			fmt.Sprintf("\nBody:\n%s", entry.Body),
		}
		for _, line := range lines {
			if _, err := fmt.Fprintln(out, line); err != nil {
				return errs.Wrap(err, "write log output")
			}
		}
		if _, err := fmt.Fprintln(out, "\nRuns:"); err != nil {
			return errs.Wrap(err, "write log output")
		}
		return printRuns(cmd, detail.Runs, 0)
	}),
}

var logLinkRunCmd = &cobra.Command{
	Use:   "link-run",
	Short: "Link a log entry to a run",
	RunE: withApp(func(cmd *cobra.Command, _ []string, app *bootstrap.App) error {
		logID, _ := cmd.Flags().GetUint64("id")
		runNumber, _ := cmd.Flags().GetInt64("run-number")

		if err := app.Services.LogRuns.LinkRunToLog(cmd.Context(), logID, runNumber); err != nil {
			return errs.Wrap(err, "link run to log")
		}
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "linked log %d to run %d\n", logID, runNumber); err != nil {
			return errs.Wrap(err, "write log output")
		}
		return nil
	}),
}

func printLogs(cmd *cobra.Command, entries []ports.Log) error {
	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		if _, err := fmt.Fprintln(out, "no logs"); err != nil {
			return errs.Wrap(err, "write log output")
		}
		return nil
	}
	for _, entry := range entries {
		if _, err := fmt.Fprintf(
			out,
			"%d\t%s\t%s/%s\t%s\n",
			entry.LogID,
			formatTime(&entry.CreatedAt),
			entry.Subtype,
			entry.Origin,
			entry.Title,
		); err != nil {
			return errs.Wrap(err, "write log output")
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(logCmd)
	logCmd.AddCommand(logCreateCmd, logListCmd, logShowCmd, logLinkRunCmd)

	logCreateCmd.Flags().String("title", "", "Title")
	logCreateCmd.Flags().String("body", "", "Body text")
	logCreateCmd.Flags().String("subtype", "run", "Subtype (run|subsystem|announcement|intervention|comment)")
	logCreateCmd.Flags().String("origin", "human", "Origin (human|process)")
	logCreateCmd.Flags().String("author", "", "Author")
	_ = logCreateCmd.MarkFlagRequired("title")
	_ = logCreateCmd.MarkFlagRequired("body")

	logListCmd.Flags().Int("page-size", 25, "Page size")
	logListCmd.Flags().Int("page", 1, "Page number")
	logListCmd.Flags().String("order-by", "", "Order column (log_id|title|created_at)")
	logListCmd.Flags().String("order", "DESC", "Order direction (ASC|DESC)")
	logListCmd.Flags().String("subtype", "", "Filter by subtype")
	logListCmd.Flags().String("origin", "", "Filter by origin")
	logListCmd.Flags().String("title", "", "Filter by title substring")
	logListCmd.Flags().Int64("run-number", 0, "Only logs linked to this run")

	for _, command := range []*cobra.Command{logShowCmd, logLinkRunCmd} {
		command.Flags().Uint64("id", 0, "Log id")
		_ = command.MarkFlagRequired("id")
	}
	logLinkRunCmd.Flags().Int64("run-number", 0, "Run number")
	_ = logLinkRunCmd.MarkFlagRequired("run-number")
}
