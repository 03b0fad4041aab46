package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"jiskefet/internal/bootstrap"
	"jiskefet/internal/errs"
)

var detectorCmd = &cobra.Command{
	Use:   "detector",
	Short: "Manage detectors and their participation in runs",
}

var detectorSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Register detectors from a TOML seed file",
	RunE: withApp(func(cmd *cobra.Command, _ []string, app *bootstrap.App) error {
		file, _ := cmd.Flags().GetString("file")
		created, err := app.SeedDetectors(cmd.Context(), file)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "detectors seeded: %d new\n", created); err != nil {
			return errs.Wrap(err, "write detector output")
		}
		return nil
	}),
}

var detectorListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered detectors",
	RunE: withApp(func(cmd *cobra.Command, _ []string, app *bootstrap.App) error {
		detectors, err := app.Services.Registry.List(cmd.Context())
		if err != nil {
			return errs.Wrap(err, "list detectors")
		}

		out := cmd.OutOrStdout()
		if len(detectors) == 0 {
			if _, err := fmt.Fprintln(out, "no detectors"); err != nil {
				return errs.Wrap(err, "write detector output")
			}
		}
		for _, detector := range detectors {
			if _, err := fmt.Fprintf(out, "%d\t%s\n", detector.DetectorID, detector.DetectorName); err != nil {
				return errs.Wrap(err, "write detector output")
			}
		}
		if _, err := fmt.Fprintf(out, "run qualities: %s\n", strings.Join(app.Services.Detectors.Qualities(), ",")); err != nil {
			return errs.Wrap(err, "write detector output")
		}
		return nil
	}),
}

var detectorLinkCmd = &cobra.Command{
	Use:   "link",
	Short: "Record a detector's quality for a run",
	RunE: withApp(func(cmd *cobra.Command, _ []string, app *bootstrap.App) error {
		runNumber, _ := cmd.Flags().GetInt64("run-number")
		detectorID, _ := cmd.Flags().GetInt64("detector-id")
		quality, _ := cmd.Flags().GetString("quality")

		link, err := app.Services.Detectors.Link(cmd.Context(), runNumber, detectorID, quality)
		if err != nil {
			return errs.Wrap(err, "link detector")
		}
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "linked detector %s to run %d quality=%s\n", link.Detector.DetectorName, link.RunNumber, link.RunQuality); err != nil {
			return errs.Wrap(err, "write detector output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(detectorCmd)
	detectorCmd.AddCommand(detectorSeedCmd, detectorListCmd, detectorLinkCmd)

	detectorSeedCmd.Flags().String("file", "", "Seed file (defaults to detectors.seed_file)")

	detectorLinkCmd.Flags().Int64("run-number", 0, "Run number")
	detectorLinkCmd.Flags().Int64("detector-id", 0, "Detector id")
	detectorLinkCmd.Flags().String("quality", "", "Run quality of the detector")
	_ = detectorLinkCmd.MarkFlagRequired("run-number")
	_ = detectorLinkCmd.MarkFlagRequired("detector-id")
	_ = detectorLinkCmd.MarkFlagRequired("quality")
}
