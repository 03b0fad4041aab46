package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"jiskefet/internal/bootstrap"
	"jiskefet/internal/errs"
	"jiskefet/internal/ports"
	"jiskefet/internal/usecase/logbook"
)

var flpCmd = &cobra.Command{
	Use:   "flp",
	Short: "Manage FLP readout reports",
}

var flpCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register an FLP for a run",
	RunE: withApp(func(cmd *cobra.Command, _ []string, app *bootstrap.App) error {
		name, _ := cmd.Flags().GetString("name")
		hostname, _ := cmd.Flags().GetString("hostname")
		runNumber, _ := cmd.Flags().GetInt64("run-number")

		role, err := app.Services.Flps.Create(cmd.Context(), logbook.CreateFlpInput{
			FlpName:   name,
			Hostname:  hostname,
			RunNumber: runNumber,
		})
		if err != nil {
			return errs.Wrap(err, "create flp")
		}
		return printFlp(cmd, role)
	}),
}

var flpPatchCmd = &cobra.Command{
	Use:   "patch",
	Short: "Report the cumulative counters of an FLP",
	RunE: withApp(func(cmd *cobra.Command, _ []string, app *bootstrap.App) error {
		name, _ := cmd.Flags().GetString("name")
		runNumber, _ := cmd.Flags().GetInt64("run-number")

		role, err := app.Services.Flps.Patch(cmd.Context(), name, runNumber, logbook.PatchFlpInput{
			BytesReadOut:          optionalInt64Flag(cmd, "bytes"),
			NumberOfSubtimeframes: optionalInt64Flag(cmd, "subtimeframes"),
			NumberOfTimeframes:    optionalInt64Flag(cmd, "timeframes"),
		})
		if err != nil {
			return errs.Wrap(err, "patch flp")
		}
		return printFlp(cmd, role)
	}),
}

var flpShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show one FLP of a run, or all of them without --name",
	RunE: withApp(func(cmd *cobra.Command, _ []string, app *bootstrap.App) error {
		name, _ := cmd.Flags().GetString("name")
		runNumber, _ := cmd.Flags().GetInt64("run-number")

		if name != "" {
			role, err := app.Services.Flps.FindOne(cmd.Context(), name, runNumber)
			if err != nil {
				return errs.Wrap(err, "show flp")
			}
			return printFlp(cmd, role)
		}

		roles, err := app.Services.Flps.ListByRun(cmd.Context(), runNumber)
		if err != nil {
			return errs.Wrap(err, "list flps")
		}
		if len(roles) == 0 {
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), "no flps"); err != nil {
				return errs.Wrap(err, "write flp output")
			}
		}
		for _, role := range roles {
			if err := printFlp(cmd, role); err != nil {
				return err
			}
		}
		return nil
	}),
}

func printFlp(cmd *cobra.Command, role ports.FlpRole) error {
	if _, err := fmt.Fprintf(
		cmd.OutOrStdout(),
		"%s\trun=%d\thost=%s\tbytes=%d\tstf=%d\ttf=%d\n",
		role.FlpName,
		role.RunNumber,
		orDash(role.FlpHostname),
		role.Counters.BytesReadOut,
		role.Counters.NumberOfSubtimeframes,
		role.Counters.NumberOfTimeframes,
	); err != nil {
		return errs.Wrap(err, "write flp output")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(flpCmd)
	flpCmd.AddCommand(flpCreateCmd, flpPatchCmd, flpShowCmd)

	for _, command := range []*cobra.Command{flpCreateCmd, flpPatchCmd, flpShowCmd} {
		command.Flags().Int64("run-number", 0, "Run number")
		command.Flags().String("name", "", "FLP name")
		_ = command.MarkFlagRequired("run-number")
	}
	_ = flpCreateCmd.MarkFlagRequired("name")
	_ = flpPatchCmd.MarkFlagRequired("name")

	flpCreateCmd.Flags().String("hostname", "", "FLP hostname")
	flpPatchCmd.Flags().Int64("bytes", 0, "Bytes read out so far")
	flpPatchCmd.Flags().Int64("subtimeframes", 0, "Subtimeframes so far")
	flpPatchCmd.Flags().Int64("timeframes", 0, "Timeframes so far")
}
