package logbook

import (
	"context"
	"errors"
	"strings"
	"time"

	domainlogbook "jiskefet/internal/domain/logbook"
	"jiskefet/internal/errs"
	"jiskefet/internal/ports"
)

const (
	msgLogNotCreated        = "Log is not properly created or saved in the database."
	msgAttachmentNotCreated = "Attachment is not correctly added."
)

var errUnitOfWorkRequired = errors.New("unit of work is required")

// Settings carries the configurable knobs of the logbook usecases.
type Settings struct {
	RunQualities []string
	CacheTTL     time.Duration
}

func (s Settings) qualities() domainlogbook.QualitySet {
	return domainlogbook.NewQualitySet(s.RunQualities)
}

func checkContext(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}
	return nil
}

func lastFlpReportKey(runNumber int64) string {
	return "last_flp_report:" + formatInt(runNumber)
}

func setCacheBestEffort(ctx context.Context, cache ports.Cache, key string, value string, ttl time.Duration) {
	if cache == nil {
		return
	}
	_ = cache.Set(ctx, key, value, ttl)
}

func getCacheBestEffort(ctx context.Context, cache ports.Cache, key string) string {
	if cache == nil {
		return ""
	}
	value, found, err := cache.Get(ctx, key)
	if err != nil || !found {
		return ""
	}
	return value
}

func requireText(value string, field string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", errs.Validationf("%s is required", field)
	}
	return trimmed, nil
}

func requireRunNumber(runNumber int64) error {
	if runNumber <= 0 {
		return errs.Validationf("run number must be positive, got %d", runNumber)
	}
	return nil
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
