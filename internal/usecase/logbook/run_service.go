package logbook

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"jiskefet/internal/bootstrap/logging"
	domainlogbook "jiskefet/internal/domain/logbook"
	"jiskefet/internal/errs"
	"jiskefet/internal/ports"
)

// RunService owns the run aggregate. Derived totals are never written here;
// they belong to FlpRoleAggregator.
type RunService struct {
	uow       ports.UnitOfWork
	runs      ports.RunRepository
	flps      ports.FlpRoleRepository
	detectors ports.DetectorRepository
	cache     ports.Cache
}

func NewRunService(uow ports.UnitOfWork, runs ports.RunRepository, flps ports.FlpRoleRepository, detectors ports.DetectorRepository, cache ports.Cache) *RunService {
	return &RunService{
		uow:       uow,
		runs:      runs,
		flps:      flps,
		detectors: detectors,
		cache:     cache,
	}
}

type CreateRunInput struct {
	RunNumber         int64
	TimeO2Start       time.Time
	TimeTrgStart      time.Time
	ActivityID        string
	RunType           string
	RunQuality        string
	NumberOfDetectors int64
	NumberOfEpns      int64
}

type EndRunInput struct {
	TimeO2End  time.Time
	TimeTrgEnd time.Time
	RunQuality string
}

type ListRunsInput struct {
	PageSize       int
	PageNumber     int
	OrderDirection string
}

// RunDetail is a run with everything linked to it.
type RunDetail struct {
	Run           ports.Run
	FlpRoles      []ports.FlpRole
	Detectors     []ports.DetectorInRun
	LastFlpReport string
}

func (s *RunService) CreateRun(ctx context.Context, input CreateRunInput) (ports.Run, error) {
	if err := checkContext(ctx); err != nil {
		return ports.Run{}, err
	}
	if s.runs == nil {
		return ports.Run{}, errors.New("run repository is required")
	}
	if err := requireRunNumber(input.RunNumber); err != nil {
		return ports.Run{}, err
	}
	if input.TimeO2Start.IsZero() || input.TimeTrgStart.IsZero() {
		return ports.Run{}, errs.Validationf("run %d: start times are required", input.RunNumber)
	}
	if input.NumberOfDetectors < 0 || input.NumberOfEpns < 0 {
		return ports.Run{}, errs.Validationf("run %d: detector and epn counts must not be negative", input.RunNumber)
	}

	created, err := s.runs.CreateRun(ctx, ports.Run{
		RunNumber:         input.RunNumber,
		TimeO2Start:       input.TimeO2Start.UTC(),
		TimeTrgStart:      input.TimeTrgStart.UTC(),
		ActivityID:        strings.TrimSpace(input.ActivityID),
		RunType:           strings.TrimSpace(input.RunType),
		RunQuality:        strings.TrimSpace(input.RunQuality),
		NumberOfDetectors: input.NumberOfDetectors,
		NumberOfEpns:      input.NumberOfEpns,
	})
	if err != nil {
		return ports.Run{}, err
	}

	logging.Info(
		logging.WithAttrs(ctx, slog.String("component", "usecase.run")),
		"run created",
		slog.Int64("run_number", created.RunNumber),
		slog.String("run_type", created.RunType),
	)
	return created, nil
}

// EndRun stamps the end times once. A second call is a conflict.
func (s *RunService) EndRun(ctx context.Context, runNumber int64, input EndRunInput) (ports.Run, error) {
	if err := checkContext(ctx); err != nil {
		return ports.Run{}, err
	}
	if s.runs == nil {
		return ports.Run{}, errors.New("run repository is required")
	}
	if s.uow == nil {
		return ports.Run{}, errUnitOfWorkRequired
	}
	if err := requireRunNumber(runNumber); err != nil {
		return ports.Run{}, err
	}
	if input.TimeO2End.IsZero() {
		return ports.Run{}, errs.Validationf("run %d: end time is required", runNumber)
	}
	o2End := input.TimeO2End.UTC()
	trgEnd := input.TimeTrgEnd.UTC()
	if input.TimeTrgEnd.IsZero() {
		trgEnd = o2End
	}

	var ended ports.Run
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		current, err := s.runs.LockRun(txCtx, runNumber)
		if err != nil {
			return err
		}
		if current.TimeO2End != nil {
			return errs.Wrapf(domainlogbook.ErrRunEnded, "run %d", runNumber)
		}
		if o2End.Before(current.TimeO2Start) || trgEnd.Before(current.TimeTrgStart) {
			return errs.Validationf("run %d: end time precedes start time", runNumber)
		}

		if err := s.runs.EndRun(txCtx, runNumber, ports.RunEnd{
			TimeO2End:  o2End,
			TimeTrgEnd: trgEnd,
			RunQuality: strings.TrimSpace(input.RunQuality),
		}); err != nil {
			return err
		}

		ended, err = s.runs.GetRun(txCtx, runNumber)
		return err
	}); err != nil {
		return ports.Run{}, err
	}

	logging.Info(
		logging.WithAttrs(ctx, slog.String("component", "usecase.run")),
		"run ended",
		slog.Int64("run_number", runNumber),
		slog.Duration("duration", o2End.Sub(ended.TimeO2Start)),
	)
	return ended, nil
}

// FindRun returns the run with its FLPs, detectors and the last FLP report
// marker. The marker is best effort and empty when the cache has none.
func (s *RunService) FindRun(ctx context.Context, runNumber int64) (RunDetail, error) {
	if err := checkContext(ctx); err != nil {
		return RunDetail{}, err
	}
	if s.runs == nil || s.flps == nil || s.detectors == nil {
		return RunDetail{}, errors.New("run, flp role and detector repositories are required")
	}

	run, err := s.runs.GetRun(ctx, runNumber)
	if err != nil {
		return RunDetail{}, err
	}

	flps, err := s.flps.ListFlpRolesByRun(ctx, runNumber)
	if err != nil {
		return RunDetail{}, err
	}

	detectors, err := s.detectors.ListDetectorsInRun(ctx, runNumber)
	if err != nil {
		return RunDetail{}, err
	}

	return RunDetail{
		Run:           run,
		FlpRoles:      flps,
		Detectors:     detectors,
		LastFlpReport: getCacheBestEffort(ctx, s.cache, lastFlpReportKey(runNumber)),
	}, nil
}

// ListRuns pages through runs by run number, newest first unless asked otherwise.
func (s *RunService) ListRuns(ctx context.Context, input ListRunsInput) ([]ports.Run, int64, error) {
	if err := checkContext(ctx); err != nil {
		return nil, 0, err
	}
	if s.runs == nil {
		return nil, 0, errors.New("run repository is required")
	}

	return s.runs.ListRuns(ctx, ports.RunFilter{
		Page:           domainlogbook.NormalizePage(input.PageSize, input.PageNumber),
		OrderDirection: domainlogbook.NormalizeDirection(input.OrderDirection, "DESC"),
	})
}
