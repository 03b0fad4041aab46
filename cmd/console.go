package cmd

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"jiskefet/internal/bootstrap"
	"jiskefet/internal/errs"
	"jiskefet/internal/usecase/runconsole"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Terminal console commands",
}

var consoleRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Browse runs, their FLP totals and detectors",
	RunE: withApp(func(cmd *cobra.Command, _ []string, app *bootstrap.App) error {
		pageSize, _ := cmd.Flags().GetInt("page-size")
		refreshInterval, _ := cmd.Flags().GetDuration("refresh-interval")

		model := runconsole.NewRunModel(cmd.Context(), app.Services.Runs, runconsole.Options{
			PageSize:        pageSize,
			RefreshInterval: refreshInterval,
		})

		program := tea.NewProgram(model, tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return errs.Wrap(err, "run console")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(consoleCmd)
	consoleCmd.AddCommand(consoleRunsCmd)
	consoleRunsCmd.Flags().Int("page-size", 20, "Runs per page")
	consoleRunsCmd.Flags().Duration("refresh-interval", 5*time.Second, "Auto refresh interval")
}
