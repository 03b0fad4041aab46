package ports

import (
	"context"
	"time"

	"jiskefet/internal/domain/logbook"
)

type FlpRole struct {
	FlpName     string
	RunNumber   int64
	FlpHostname string
	Counters    logbook.FlpCounters
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type FlpRoleRepository interface {
	CreateFlpRole(ctx context.Context, role FlpRole) (FlpRole, error)
	GetFlpRole(ctx context.Context, flpName string, runNumber int64) (FlpRole, error)
	ListFlpRolesByRun(ctx context.Context, runNumber int64) ([]FlpRole, error)
	UpdateFlpCounters(ctx context.Context, flpName string, runNumber int64, counters logbook.FlpCounters) error
	// SumFlpCounters aggregates the latest counters of every FLP of the run.
	SumFlpCounters(ctx context.Context, runNumber int64) (logbook.RunTotals, error)
}
