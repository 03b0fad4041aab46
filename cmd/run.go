package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"jiskefet/internal/bootstrap"
	"jiskefet/internal/errs"
	"jiskefet/internal/ports"
	"jiskefet/internal/usecase/logbook"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Manage data-taking runs",
}

var runCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Start a run",
	RunE: withApp(func(cmd *cobra.Command, _ []string, app *bootstrap.App) error {
		now := time.Now().UTC()
		o2Start, err := timeFlag(cmd, "o2-start", now)
		if err != nil {
			return err
		}
		trgStart, err := timeFlag(cmd, "trg-start", o2Start)
		if err != nil {
			return err
		}

		runNumber, _ := cmd.Flags().GetInt64("run-number")
		activity, _ := cmd.Flags().GetString("activity")
		runType, _ := cmd.Flags().GetString("type")
		quality, _ := cmd.Flags().GetString("quality")
		detectors, _ := cmd.Flags().GetInt64("detectors")
		epns, _ := cmd.Flags().GetInt64("epns")

		run, err := app.Services.Runs.CreateRun(cmd.Context(), logbook.CreateRunInput{
			RunNumber:         runNumber,
			TimeO2Start:       o2Start,
			TimeTrgStart:      trgStart,
			ActivityID:        activity,
			RunType:           runType,
			RunQuality:        quality,
			NumberOfDetectors: detectors,
			NumberOfEpns:      epns,
		})
		if err != nil {
			return errs.Wrap(err, "create run")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "created run: %d\n", run.RunNumber); err != nil {
			return errs.Wrap(err, "write run output")
		}
		return nil
	}),
}

var runEndCmd = &cobra.Command{
	Use:   "end",
	Short: "End a run",
	RunE: withApp(func(cmd *cobra.Command, _ []string, app *bootstrap.App) error {
		o2End, err := timeFlag(cmd, "o2-end", time.Now().UTC())
		if err != nil {
			return err
		}
		trgEnd, err := timeFlag(cmd, "trg-end", time.Time{})
		if err != nil {
			return err
		}
		runNumber, _ := cmd.Flags().GetInt64("run-number")
		quality, _ := cmd.Flags().GetString("quality")

		run, err := app.Services.Runs.EndRun(cmd.Context(), runNumber, logbook.EndRunInput{
			TimeO2End:  o2End,
			TimeTrgEnd: trgEnd,
			RunQuality: quality,
		})
		if err != nil {
			return errs.Wrap(err, "end run")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "ended run: %d at %s\n", run.RunNumber, formatTime(run.TimeO2End)); err != nil {
			return errs.Wrap(err, "write run output")
		}
		return nil
	}),
}

var runShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a run with its FLPs and detectors",
	RunE: withApp(func(cmd *cobra.Command, _ []string, app *bootstrap.App) error {
		runNumber, _ := cmd.Flags().GetInt64("run-number")
		detail, err := app.Services.Runs.FindRun(cmd.Context(), runNumber)
		if err != nil {
			return errs.Wrap(err, "show run")
		}

		out := cmd.OutOrStdout()
		run := detail.Run
		lines := []string{
			fmt.Sprintf("Run: %d", run.RunNumber),
			fmt.Sprintf("Type: %s", orDash(run.RunType)),
			fmt.Sprintf("Quality: %s", orDash(run.RunQuality)),
			fmt.Sprintf("Activity: %s", orDash(run.ActivityID)),
			fmt.Sprintf("O2Start: %s", formatTime(&run.TimeO2Start)),
			fmt.Sprintf("O2End: %s", formatTime(run.TimeO2End)),
			fmt.Sprintf("FLPs: %d", run.NumberOfFlps),
			fmt.Sprintf("BytesReadOut: %d", run.BytesReadOut),
			fmt.Sprintf("Timeframes: %d", run.NumberOfTimeframes),
			fmt.Sprintf("Subtimeframes: %d", run.NumberOfSubtimeframes),
			fmt.Sprintf("LastFlpReport: %s", orDash(detail.LastFlpReport)),
		}
		for _, line := range lines {
			if _, err := fmt.Fprintln(out, line); err != nil {
				return errs.Wrap(err, "write run output")
			}
		}

		for _, role := range detail.FlpRoles {
			if _, err := fmt.Fprintf(
				out,
				"- flp %s host=%s bytes=%d stf=%d tf=%d\n",
				role.FlpName,
				orDash(role.FlpHostname),
				role.Counters.BytesReadOut,
				role.Counters.NumberOfSubtimeframes,
				role.Counters.NumberOfTimeframes,
			); err != nil {
				return errs.Wrap(err, "write run output")
			}
		}
		for _, link := range detail.Detectors {
			if _, err := fmt.Fprintf(out, "- detector %s (%d) quality=%s\n", link.Detector.DetectorName, link.Detector.DetectorID, link.RunQuality); err != nil {
				return errs.Wrap(err, "write run output")
			}
		}
		return nil
	}),
}

var runListCmd = &cobra.Command{
	Use:   "list",
	Short: "List runs",
	RunE: withApp(func(cmd *cobra.Command, _ []string, app *bootstrap.App) error {
		pageSize, _ := cmd.Flags().GetInt("page-size")
		pageNumber, _ := cmd.Flags().GetInt("page")
		order, _ := cmd.Flags().GetString("order")

		runs, total, err := app.Services.Runs.ListRuns(cmd.Context(), logbook.ListRunsInput{
			PageSize:       pageSize,
			PageNumber:     pageNumber,
			OrderDirection: order,
		})
		if err != nil {
			return errs.Wrap(err, "list runs")
		}
		return printRuns(cmd, runs, total)
	}),
}

func printRuns(cmd *cobra.Command, runs []ports.Run, total int64) error {
	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		if _, err := fmt.Fprintln(out, "no runs"); err != nil {
			return errs.Wrap(err, "write run output")
		}
		return nil
	}
	for _, run := range runs {
		if _, err := fmt.Fprintf(
			out,
			"%d\tstart=%s\tend=%s\ttype=%s\tflps=%d\tbytes=%d\n",
			run.RunNumber,
			formatTime(&run.TimeO2Start),
			formatTime(run.TimeO2End),
			orDash(run.RunType),
			run.NumberOfFlps,
			run.BytesReadOut,
		); err != nil {
			return errs.Wrap(err, "write run output")
		}
	}
	if total > 0 {
		if _, err := fmt.Fprintf(out, "total: %d\n", total); err != nil {
			return errs.Wrap(err, "write run output")
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.AddCommand(runCreateCmd, runEndCmd, runShowCmd, runListCmd)

	for _, command := range []*cobra.Command{runCreateCmd, runEndCmd, runShowCmd} {
		command.Flags().Int64("run-number", 0, "Run number")
		_ = command.MarkFlagRequired("run-number")
	}

	runCreateCmd.Flags().String("o2-start", "", "O2 start time, RFC3339 (default now)")
	runCreateCmd.Flags().String("trg-start", "", "Trigger start time, RFC3339 (default o2-start)")
	runCreateCmd.Flags().String("activity", "", "Activity id")
	runCreateCmd.Flags().String("type", "", "Run type")
	runCreateCmd.Flags().String("quality", "", "Run quality")
	runCreateCmd.Flags().Int64("detectors", 0, "Number of detectors")
	runCreateCmd.Flags().Int64("epns", 0, "Number of EPNs")

	runEndCmd.Flags().String("o2-end", "", "O2 end time, RFC3339 (default now)")
	runEndCmd.Flags().String("trg-end", "", "Trigger end time, RFC3339 (default o2-end)")
	runEndCmd.Flags().String("quality", "", "Run quality at end of run")

	runListCmd.Flags().Int("page-size", 25, "Page size")
	runListCmd.Flags().Int("page", 1, "Page number")
	runListCmd.Flags().String("order", "DESC", "Order by run number (ASC|DESC)")
}
