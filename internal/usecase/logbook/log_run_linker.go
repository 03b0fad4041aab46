package logbook

import (
	"context"
	"errors"
	"log/slog"

	"jiskefet/internal/bootstrap/logging"
	"jiskefet/internal/ports"
)

// LogRunLinker maintains the many-to-many link between logs and runs.
type LogRunLinker struct {
	uow  ports.UnitOfWork
	runs ports.RunRepository
	logs ports.LogRepository
}

func NewLogRunLinker(uow ports.UnitOfWork, runs ports.RunRepository, logs ports.LogRepository) *LogRunLinker {
	return &LogRunLinker{uow: uow, runs: runs, logs: logs}
}

func (l *LogRunLinker) ready() error {
	if l.runs == nil || l.logs == nil {
		return errors.New("run and log repositories are required")
	}
	return nil
}

// LinkRunToLog links a run to a log. Linking an existing pair again succeeds
// without a second row.
func (l *LogRunLinker) LinkRunToLog(ctx context.Context, logID uint64, runNumber int64) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	if err := l.ready(); err != nil {
		return err
	}
	if l.uow == nil {
		return errUnitOfWorkRequired
	}

	if err := l.uow.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := l.logs.GetLog(txCtx, logID); err != nil {
			return err
		}
		if _, err := l.runs.GetRun(txCtx, runNumber); err != nil {
			return err
		}
		return l.logs.LinkLogRun(txCtx, logID, runNumber)
	}); err != nil {
		return err
	}

	logging.Info(
		logging.WithAttrs(ctx, slog.String("component", "usecase.log")),
		"run linked to log",
		slog.Uint64("log_id", logID),
		slog.Int64("run_number", runNumber),
	)
	return nil
}

// FindLogsByRun lists the logs of an existing run ordered by log id.
func (l *LogRunLinker) FindLogsByRun(ctx context.Context, runNumber int64) ([]ports.Log, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	if err := l.ready(); err != nil {
		return nil, err
	}

	if _, err := l.runs.GetRun(ctx, runNumber); err != nil {
		return nil, err
	}
	return l.logs.ListLogsByRun(ctx, runNumber)
}

// FindRunsByLog lists the runs of an existing log ordered by run number.
func (l *LogRunLinker) FindRunsByLog(ctx context.Context, logID uint64) ([]ports.Run, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	if err := l.ready(); err != nil {
		return nil, err
	}

	if _, err := l.logs.GetLog(ctx, logID); err != nil {
		return nil, err
	}
	return l.logs.ListRunsByLog(ctx, logID)
}
