package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"jiskefet/internal/domain/logbook"
	"jiskefet/internal/errs"
	"jiskefet/internal/infrastructure/persistence/sqlite/model"
	"jiskefet/internal/ports"
)

type RunRepository struct {
	store
}

var _ ports.RunRepository = (*RunRepository)(nil)

func NewRunRepository(db *gorm.DB) *RunRepository {
	return &RunRepository{store: store{db: db}}
}

func (r *RunRepository) CreateRun(ctx context.Context, run ports.Run) (ports.Run, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.Run{}, err
	}

	var existing int64
	if err := db.Model(&model.Run{}).Where("run_number = ?", run.RunNumber).Count(&existing).Error; err != nil {
		return ports.Run{}, errs.Persistence(err, "count run")
	}
	if existing > 0 {
		return ports.Run{}, fmt.Errorf("%w: run_number=%d", logbook.ErrRunExists, run.RunNumber)
	}

	row := toRunModel(run)
	if err := db.Omit(clause.Associations).Create(&row).Error; err != nil {
		if isDuplicateKey(err) {
			return ports.Run{}, fmt.Errorf("%w: run_number=%d", logbook.ErrRunExists, run.RunNumber)
		}
		return ports.Run{}, errs.Persistence(err, "insert run")
	}
	return mapRun(row), nil
}

func (r *RunRepository) GetRun(ctx context.Context, runNumber int64) (ports.Run, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.Run{}, err
	}
	return getRun(db, runNumber)
}

func (r *RunRepository) LockRun(ctx context.Context, runNumber int64) (ports.Run, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.Run{}, err
	}
	return getRun(forUpdate(db), runNumber)
}

func (r *RunRepository) ListRuns(ctx context.Context, filter ports.RunFilter) ([]ports.Run, int64, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, 0, err
	}

	query := db.Model(&model.Run{}).Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, errs.Persistence(err, "count runs")
	}

	direction := logbook.NormalizeDirection(filter.OrderDirection, "DESC")
	var rows []model.Run
	if err := query.
		Order("run_number " + direction).
		Limit(filter.Page.Size).
		Offset(filter.Page.Offset()).
		Find(&rows).Error; err != nil {
		return nil, 0, errs.Persistence(err, "query runs")
	}

	items := make([]ports.Run, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapRun(row))
	}
	return items, total, nil
}

func (r *RunRepository) EndRun(ctx context.Context, runNumber int64, end ports.RunEnd) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	updates := map[string]any{
		"time_o2_end":  end.TimeO2End,
		"time_trg_end": end.TimeTrgEnd,
	}
	if end.RunQuality != "" {
		updates["run_quality"] = end.RunQuality
	}

	result := db.Model(&model.Run{}).Where("run_number = ?", runNumber).Updates(updates)
	if result.Error != nil {
		return errs.Persistence(result.Error, "end run")
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: run_number=%d", logbook.ErrRunNotFound, runNumber)
	}
	return nil
}

func (r *RunRepository) UpdateRunTotals(ctx context.Context, runNumber int64, totals logbook.RunTotals) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	// Callers hold the run lock, so the row is known to exist. MySQL reports
	// zero affected rows for unchanged values; RowsAffected is not checked.
	if err := db.Model(&model.Run{}).
		Where("run_number = ?", runNumber).
		Updates(map[string]any{
			"n_flps":          totals.NumberOfFlps,
			"bytes_read_out":  totals.BytesReadOut,
			"n_timeframes":    totals.NumberOfTimeframes,
			"n_subtimeframes": totals.NumberOfSubtimeframes,
		}).Error; err != nil {
		return errs.Persistence(err, "update run totals")
	}
	return nil
}

func getRun(db *gorm.DB, runNumber int64) (ports.Run, error) {
	var row model.Run
	if err := db.Where("run_number = ?", runNumber).Take(&row).Error; err != nil {
		if isRecordNotFound(err) {
			return ports.Run{}, fmt.Errorf("%w: run_number=%d", logbook.ErrRunNotFound, runNumber)
		}
		return ports.Run{}, errs.Persistence(err, "query run")
	}
	return mapRun(row), nil
}

func toRunModel(run ports.Run) model.Run {
	return model.Run{
		RunNumber:             run.RunNumber,
		TimeO2Start:           run.TimeO2Start,
		TimeTrgStart:          run.TimeTrgStart,
		TimeO2End:             run.TimeO2End,
		TimeTrgEnd:            run.TimeTrgEnd,
		ActivityID:            run.ActivityID,
		RunType:               run.RunType,
		RunQuality:            run.RunQuality,
		NumberOfDetectors:     run.NumberOfDetectors,
		NumberOfEpns:          run.NumberOfEpns,
		NumberOfFlps:          run.NumberOfFlps,
		BytesReadOut:          run.BytesReadOut,
		NumberOfTimeframes:    run.NumberOfTimeframes,
		NumberOfSubtimeframes: run.NumberOfSubtimeframes,
	}
}

func mapRun(row model.Run) ports.Run {
	return ports.Run{
		RunNumber:             row.RunNumber,
		TimeO2Start:           row.TimeO2Start,
		TimeTrgStart:          row.TimeTrgStart,
		TimeO2End:             row.TimeO2End,
		TimeTrgEnd:            row.TimeTrgEnd,
		ActivityID:            row.ActivityID,
		RunType:               row.RunType,
		RunQuality:            row.RunQuality,
		NumberOfDetectors:     row.NumberOfDetectors,
		NumberOfEpns:          row.NumberOfEpns,
		NumberOfFlps:          row.NumberOfFlps,
		BytesReadOut:          row.BytesReadOut,
		NumberOfTimeframes:    row.NumberOfTimeframes,
		NumberOfSubtimeframes: row.NumberOfSubtimeframes,
	}
}
