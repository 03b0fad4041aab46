package logbook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"jiskefet/internal/bootstrap/logging"
	domainlogbook "jiskefet/internal/domain/logbook"
	"jiskefet/internal/errs"
	"jiskefet/internal/ports"
)

// DetectorRegistry manages the static detector reference data.
type DetectorRegistry struct {
	uow       ports.UnitOfWork
	detectors ports.DetectorRepository
}

func NewDetectorRegistry(uow ports.UnitOfWork, detectors ports.DetectorRepository) *DetectorRegistry {
	return &DetectorRegistry{uow: uow, detectors: detectors}
}

// Register adds a detector. Registering identical data again is a no-op.
func (r *DetectorRegistry) Register(ctx context.Context, detector ports.Detector) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	if r.detectors == nil {
		return errors.New("detector repository is required")
	}

	_, err := r.register(ctx, detector)
	return err
}

// Seed registers every detector and reports how many were new.
func (r *DetectorRegistry) Seed(ctx context.Context, detectors []ports.Detector) (int, error) {
	if err := checkContext(ctx); err != nil {
		return 0, err
	}
	if r.detectors == nil {
		return 0, errors.New("detector repository is required")
	}
	if r.uow == nil {
		return 0, errUnitOfWorkRequired
	}

	created := 0
	if err := r.uow.WithTx(ctx, func(txCtx context.Context) error {
		for _, detector := range detectors {
			isNew, err := r.register(txCtx, detector)
			if err != nil {
				return err
			}
			if isNew {
				created++
			}
		}
		return nil
	}); err != nil {
		return 0, err
	}

	logging.Info(
		logging.WithAttrs(ctx, slog.String("component", "usecase.detector")),
		"detectors seeded",
		slog.Int("created", created),
		slog.Int("total", len(detectors)),
	)
	return created, nil
}

func (r *DetectorRegistry) List(ctx context.Context) ([]ports.Detector, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	if r.detectors == nil {
		return nil, errors.New("detector repository is required")
	}

	return r.detectors.ListDetectors(ctx)
}

func (r *DetectorRegistry) register(ctx context.Context, detector ports.Detector) (bool, error) {
	name := strings.TrimSpace(detector.DetectorName)
	if detector.DetectorID <= 0 {
		return false, errs.Validationf("detector id must be positive, got %d", detector.DetectorID)
	}
	if name == "" {
		return false, errs.Validationf("detector name is required")
	}

	existing, err := r.detectors.GetDetector(ctx, detector.DetectorID)
	switch {
	case err == nil:
		if existing.DetectorName == name {
			return false, nil
		}
		return false, fmt.Errorf("%w: detector_id=%d is %q", domainlogbook.ErrDetectorExists, detector.DetectorID, existing.DetectorName)
	case !errors.Is(err, domainlogbook.ErrDetectorNotFound):
		return false, err
	}

	byName, found, err := r.detectors.FindDetectorByName(ctx, name)
	if err != nil {
		return false, err
	}
	if found {
		return false, fmt.Errorf("%w: name %q has detector_id=%d", domainlogbook.ErrDetectorExists, name, byName.DetectorID)
	}

	if err := r.detectors.CreateDetector(ctx, ports.Detector{DetectorID: detector.DetectorID, DetectorName: name}); err != nil {
		return false, err
	}
	return true, nil
}
