package logbook

import (
	"context"
	"errors"
	"log/slog"

	"jiskefet/internal/bootstrap/logging"
	domainlogbook "jiskefet/internal/domain/logbook"
	"jiskefet/internal/ports"
)

// DetectorLinker records which detectors took part in a run and at what quality.
type DetectorLinker struct {
	uow       ports.UnitOfWork
	runs      ports.RunRepository
	detectors ports.DetectorRepository
	qualities domainlogbook.QualitySet
}

func NewDetectorLinker(uow ports.UnitOfWork, runs ports.RunRepository, detectors ports.DetectorRepository, settings Settings) *DetectorLinker {
	return &DetectorLinker{
		uow:       uow,
		runs:      runs,
		detectors: detectors,
		qualities: settings.qualities(),
	}
}

// Link upserts the (run, detector) pair. Linking again overwrites the quality.
func (l *DetectorLinker) Link(ctx context.Context, runNumber int64, detectorID int64, quality string) (ports.DetectorInRun, error) {
	if err := checkContext(ctx); err != nil {
		return ports.DetectorInRun{}, err
	}
	if l.runs == nil || l.detectors == nil {
		return ports.DetectorInRun{}, errors.New("run and detector repositories are required")
	}
	if l.uow == nil {
		return ports.DetectorInRun{}, errUnitOfWorkRequired
	}

	normalized, err := l.qualities.Normalize(quality)
	if err != nil {
		return ports.DetectorInRun{}, err
	}

	var linked ports.DetectorInRun
	if err := l.uow.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := l.runs.GetRun(txCtx, runNumber); err != nil {
			return err
		}
		detector, err := l.detectors.GetDetector(txCtx, detectorID)
		if err != nil {
			return err
		}
		if err := l.detectors.UpsertDetectorInRun(txCtx, runNumber, detectorID, normalized); err != nil {
			return err
		}

		linked = ports.DetectorInRun{
			RunNumber:  runNumber,
			Detector:   detector,
			RunQuality: normalized,
		}
		return nil
	}); err != nil {
		return ports.DetectorInRun{}, err
	}

	logging.Info(
		logging.WithAttrs(ctx, slog.String("component", "usecase.detector")),
		"detector linked to run",
		slog.Int64("run_number", runNumber),
		slog.String("detector", linked.Detector.DetectorName),
		slog.String("run_quality", normalized),
	)
	return linked, nil
}

// FindByRun lists the detectors of a run ordered by detector id. A run
// without detectors yields an empty list.
func (l *DetectorLinker) FindByRun(ctx context.Context, runNumber int64) ([]ports.DetectorInRun, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	if l.detectors == nil {
		return nil, errors.New("detector repository is required")
	}

	return l.detectors.ListDetectorsInRun(ctx, runNumber)
}

// Qualities lists the accepted run quality values.
func (l *DetectorLinker) Qualities() []string {
	return l.qualities.Values()
}
