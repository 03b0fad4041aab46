package cmd

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"jiskefet/internal/errs"
)

// timeFlag reads an RFC3339 flag. An empty value yields fallback.
func timeFlag(cmd *cobra.Command, name string, fallback time.Time) (time.Time, error) {
	raw, _ := cmd.Flags().GetString(name)
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	value, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, errs.Validationf("--%s must be RFC3339: %v", name, err)
	}
	return value.UTC(), nil
}

// optionalInt64Flag returns nil unless the flag was set on the command line.
func optionalInt64Flag(cmd *cobra.Command, name string) *int64 {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	value, _ := cmd.Flags().GetInt64(name)
	return &value
}

func formatTime(value *time.Time) string {
	if value == nil {
		return "-"
	}
	return value.UTC().Format(time.RFC3339)
}

func orDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
