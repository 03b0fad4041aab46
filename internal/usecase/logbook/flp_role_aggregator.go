package logbook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"jiskefet/internal/bootstrap/logging"
	domainlogbook "jiskefet/internal/domain/logbook"
	"jiskefet/internal/ports"
)

// FlpRoleAggregator keeps one FlpRole per (flp name, run number) and keeps
// the run totals equal to the sum of the latest counters of its FLPs.
//
// Writers of one run are serialized twice: by an in-process lock per run and
// by the run row lock taken inside the transaction. Different runs proceed
// in parallel.
type FlpRoleAggregator struct {
	uow      ports.UnitOfWork
	runs     ports.RunRepository
	flps     ports.FlpRoleRepository
	cache    ports.Cache
	cacheTTL time.Duration
	locks    *runLocks
	now      func() time.Time
}

func NewFlpRoleAggregator(uow ports.UnitOfWork, runs ports.RunRepository, flps ports.FlpRoleRepository, cache ports.Cache, settings Settings) *FlpRoleAggregator {
	return &FlpRoleAggregator{
		uow:      uow,
		runs:     runs,
		flps:     flps,
		cache:    cache,
		cacheTTL: settings.CacheTTL,
		locks:    newRunLocks(),
		now:      nowUTC,
	}
}

type CreateFlpInput struct {
	FlpName   string
	Hostname  string
	RunNumber int64
}

// PatchFlpInput holds the cumulative values reported by an FLP. Nil fields
// keep their stored value.
type PatchFlpInput struct {
	BytesReadOut          *int64
	NumberOfSubtimeframes *int64
	NumberOfTimeframes    *int64
}

func (p PatchFlpInput) patch() domainlogbook.FlpPatch {
	return domainlogbook.FlpPatch{
		BytesReadOut:          p.BytesReadOut,
		NumberOfSubtimeframes: p.NumberOfSubtimeframes,
		NumberOfTimeframes:    p.NumberOfTimeframes,
	}
}

func (a *FlpRoleAggregator) ready() error {
	if a.runs == nil || a.flps == nil {
		return errors.New("run and flp role repositories are required")
	}
	if a.uow == nil {
		return errUnitOfWorkRequired
	}
	return nil
}

// recomputeTotals must run inside the transaction that holds the run lock.
func (a *FlpRoleAggregator) recomputeTotals(ctx context.Context, runNumber int64) (domainlogbook.RunTotals, error) {
	totals, err := a.flps.SumFlpCounters(ctx, runNumber)
	if err != nil {
		return domainlogbook.RunTotals{}, err
	}
	if err := a.runs.UpdateRunTotals(ctx, runNumber, totals); err != nil {
		return domainlogbook.RunTotals{}, err
	}
	return totals, nil
}

func flpLogCtx(ctx context.Context, flpName string, runNumber int64) context.Context {
	return logging.WithAttrs(
		ctx,
		slog.String("component", "usecase.flp"),
		slog.String("flp_name", flpName),
		slog.Int64("run_number", runNumber),
	)
}

func flpRoleNotFound(flpName string, runNumber int64) error {
	return fmt.Errorf("%w: flp_name=%q run_number=%d", domainlogbook.ErrFlpRoleNotFound, flpName, runNumber)
}
