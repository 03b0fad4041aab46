package ports

import (
	"context"
	"time"

	"jiskefet/internal/domain/logbook"
)

type Log struct {
	LogID     uint64
	Title     string
	Body      string
	Subtype   string
	Origin    string
	Author    string
	CreatedAt time.Time
}

type LogFilter struct {
	Page           logbook.Page
	OrderBy        string
	OrderDirection string
	Subtype        string
	Origin         string
	Title          string
	RunNumber      int64
}

type LogRepository interface {
	CreateLog(ctx context.Context, log Log) (Log, error)
	GetLog(ctx context.Context, logID uint64) (Log, error)
	ListLogs(ctx context.Context, filter LogFilter) ([]Log, int64, error)
	// LinkLogRun is idempotent: an existing pair is left untouched.
	LinkLogRun(ctx context.Context, logID uint64, runNumber int64) error
	ListLogsByRun(ctx context.Context, runNumber int64) ([]Log, error)
	ListRunsByLog(ctx context.Context, logID uint64) ([]Run, error)
}
