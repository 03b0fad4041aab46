package logbook

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"jiskefet/internal/bootstrap/logging"
	domainlogbook "jiskefet/internal/domain/logbook"
	"jiskefet/internal/errs"
	"jiskefet/internal/ports"
)

// Patch stores the latest cumulative counters reported by an FLP and, in the
// same transaction, recomputes the run totals from every FLP of the run.
// A missing pair is not created.
func (a *FlpRoleAggregator) Patch(ctx context.Context, flpName string, runNumber int64, input PatchFlpInput) (ports.FlpRole, error) {
	if err := checkContext(ctx); err != nil {
		return ports.FlpRole{}, err
	}
	if err := a.ready(); err != nil {
		return ports.FlpRole{}, err
	}

	name, err := requireText(flpName, "flp name")
	if err != nil {
		return ports.FlpRole{}, err
	}
	if err := requireRunNumber(runNumber); err != nil {
		return ports.FlpRole{}, err
	}
	patch := input.patch()
	if err := patch.Validate(); err != nil {
		return ports.FlpRole{}, err
	}

	unlock := a.locks.Lock(runNumber)
	defer unlock()

	var (
		updated ports.FlpRole
		totals  domainlogbook.RunTotals
	)
	if err := a.uow.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := a.runs.LockRun(txCtx, runNumber); err != nil {
			if errors.Is(err, domainlogbook.ErrRunNotFound) {
				return flpRoleNotFound(name, runNumber)
			}
			return err
		}

		current, err := a.flps.GetFlpRole(txCtx, name, runNumber)
		if err != nil {
			return err
		}

		next, err := patch.Apply(current.Counters)
		if err != nil {
			return err
		}
		if err := a.flps.UpdateFlpCounters(txCtx, name, runNumber, next); err != nil {
			return err
		}

		totals, err = a.recomputeTotals(txCtx, runNumber)
		if err != nil {
			return errs.Wrap(err, "recompute run totals")
		}

		updated, err = a.flps.GetFlpRole(txCtx, name, runNumber)
		return err
	}); err != nil {
		return ports.FlpRole{}, err
	}

	reportedAt := a.now().UTC()
	setCacheBestEffort(ctx, a.cache, lastFlpReportKey(runNumber), name+"@"+reportedAt.Format(time.RFC3339), a.cacheTTL)

	logging.Info(
		flpLogCtx(ctx, name, runNumber),
		"flp role patched",
		slog.Int64("bytes_read_out", updated.Counters.BytesReadOut),
		slog.Int64("run_bytes_read_out", totals.BytesReadOut),
		slog.Int64("run_n_subtimeframes", totals.NumberOfSubtimeframes),
	)
	return updated, nil
}
