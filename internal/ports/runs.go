package ports

import (
	"context"
	"time"

	"jiskefet/internal/domain/logbook"
)

type Run struct {
	RunNumber             int64
	TimeO2Start           time.Time
	TimeTrgStart          time.Time
	TimeO2End             *time.Time
	TimeTrgEnd            *time.Time
	ActivityID            string
	RunType               string
	RunQuality            string
	NumberOfDetectors     int64
	NumberOfEpns          int64
	NumberOfFlps          int64
	BytesReadOut          int64
	NumberOfTimeframes    int64
	NumberOfSubtimeframes int64
}

type RunEnd struct {
	TimeO2End  time.Time
	TimeTrgEnd time.Time
	RunQuality string
}

type RunFilter struct {
	Page           logbook.Page
	OrderDirection string
}

type RunRepository interface {
	CreateRun(ctx context.Context, run Run) (Run, error)
	GetRun(ctx context.Context, runNumber int64) (Run, error)
	// LockRun reads the run and holds a write lock on its row until the transaction ends.
	LockRun(ctx context.Context, runNumber int64) (Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]Run, int64, error)
	EndRun(ctx context.Context, runNumber int64, end RunEnd) error
	UpdateRunTotals(ctx context.Context, runNumber int64, totals logbook.RunTotals) error
}
