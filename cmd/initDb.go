package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"jiskefet/internal/bootstrap"
	"jiskefet/internal/bootstrap/logging"
	"jiskefet/internal/errs"
)

// initDbCmd represents the initDb command
var initDbCmd = &cobra.Command{
	Use:   "init-db",
	Short: "Initialize database schema and seed detectors",
	RunE: withApp(func(cmd *cobra.Command, _ []string, app *bootstrap.App) error {
		ctx := cmd.Context()
		logging.Info(ctx, "start init-db")

		if err := app.InitSchema(ctx); err != nil {
			logging.Error(ctx, "initialize schema failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "initialize schema")
		}
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "database schema initialized: %s\n", app.Config.Database.DSN); err != nil {
			return errs.Wrap(err, "write init-db output")
		}

		skipSeed, _ := cmd.Flags().GetBool("skip-seed")
		if skipSeed || app.Config.Detectors.SeedFile == "" {
			return nil
		}
		created, err := app.SeedDetectors(ctx, "")
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "detectors seeded: %d new\n", created); err != nil {
			return errs.Wrap(err, "write init-db output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(initDbCmd)
	initDbCmd.Flags().Bool("skip-seed", false, "Do not register detectors from detectors.seed_file")
}
