package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"jiskefet/internal/domain/logbook"
	"jiskefet/internal/errs"
	"jiskefet/internal/infrastructure/persistence/sqlite/model"
	"jiskefet/internal/ports"
)

type FlpRoleRepository struct {
	store
}

var _ ports.FlpRoleRepository = (*FlpRoleRepository)(nil)

func NewFlpRoleRepository(db *gorm.DB) *FlpRoleRepository {
	return &FlpRoleRepository{store: store{db: db}}
}

func (r *FlpRoleRepository) CreateFlpRole(ctx context.Context, role ports.FlpRole) (ports.FlpRole, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.FlpRole{}, err
	}

	var existing int64
	if err := db.Model(&model.FlpRole{}).
		Where("flp_name = ? AND run_number = ?", role.FlpName, role.RunNumber).
		Count(&existing).Error; err != nil {
		return ports.FlpRole{}, errs.Persistence(err, "count flp role")
	}
	if existing > 0 {
		return ports.FlpRole{}, flpRoleExists(role.FlpName, role.RunNumber)
	}

	row := model.FlpRole{
		FlpName:               role.FlpName,
		RunNumber:             role.RunNumber,
		FlpHostname:           role.FlpHostname,
		BytesReadOut:          role.Counters.BytesReadOut,
		NumberOfSubtimeframes: role.Counters.NumberOfSubtimeframes,
		NumberOfTimeframes:    role.Counters.NumberOfTimeframes,
	}
	if err := db.Omit(clause.Associations).Create(&row).Error; err != nil {
		if isDuplicateKey(err) {
			return ports.FlpRole{}, flpRoleExists(role.FlpName, role.RunNumber)
		}
		return ports.FlpRole{}, errs.Persistence(err, "insert flp role")
	}
	return mapFlpRole(row), nil
}

func (r *FlpRoleRepository) GetFlpRole(ctx context.Context, flpName string, runNumber int64) (ports.FlpRole, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.FlpRole{}, err
	}

	var row model.FlpRole
	if err := db.Where("flp_name = ? AND run_number = ?", flpName, runNumber).Take(&row).Error; err != nil {
		if isRecordNotFound(err) {
			return ports.FlpRole{}, fmt.Errorf("%w: flp_name=%q run_number=%d", logbook.ErrFlpRoleNotFound, flpName, runNumber)
		}
		return ports.FlpRole{}, errs.Persistence(err, "query flp role")
	}
	return mapFlpRole(row), nil
}

func (r *FlpRoleRepository) ListFlpRolesByRun(ctx context.Context, runNumber int64) ([]ports.FlpRole, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.FlpRole
	if err := db.Where("run_number = ?", runNumber).Order("flp_name asc").Find(&rows).Error; err != nil {
		return nil, errs.Persistence(err, "query flp roles")
	}

	items := make([]ports.FlpRole, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapFlpRole(row))
	}
	return items, nil
}

func (r *FlpRoleRepository) UpdateFlpCounters(ctx context.Context, flpName string, runNumber int64, counters logbook.FlpCounters) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	if err := db.Model(&model.FlpRole{}).
		Where("flp_name = ? AND run_number = ?", flpName, runNumber).
		Updates(map[string]any{
			"bytes_read_out":  counters.BytesReadOut,
			"n_subtimeframes": counters.NumberOfSubtimeframes,
			"n_timeframes":    counters.NumberOfTimeframes,
			"updated_at":      time.Now().UTC(),
		}).Error; err != nil {
		return errs.Persistence(err, "update flp counters")
	}
	return nil
}

func (r *FlpRoleRepository) SumFlpCounters(ctx context.Context, runNumber int64) (logbook.RunTotals, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return logbook.RunTotals{}, err
	}

	var sum struct {
		Flps          int64 `gorm:"column:flps"`
		BytesReadOut  int64 `gorm:"column:bytes_read_out"`
		Subtimeframes int64 `gorm:"column:n_subtimeframes"`
		Timeframes    int64 `gorm:"column:n_timeframes"`
	}
	if err := db.Model(&model.FlpRole{}).
		Select(
			"COUNT(*) AS flps, "+
				"COALESCE(SUM(bytes_read_out), 0) AS bytes_read_out, "+
				"COALESCE(SUM(n_subtimeframes), 0) AS n_subtimeframes, "+
				"COALESCE(SUM(n_timeframes), 0) AS n_timeframes",
		).
		Where("run_number = ?", runNumber).
		Scan(&sum).Error; err != nil {
		return logbook.RunTotals{}, errs.Persistence(err, "sum flp counters")
	}

	return logbook.RunTotals{
		NumberOfFlps:          sum.Flps,
		BytesReadOut:          sum.BytesReadOut,
		NumberOfSubtimeframes: sum.Subtimeframes,
		NumberOfTimeframes:    sum.Timeframes,
	}, nil
}

func flpRoleExists(flpName string, runNumber int64) error {
	return fmt.Errorf("%w: flp_name=%q run_number=%d", logbook.ErrFlpRoleExists, flpName, runNumber)
}

func mapFlpRole(row model.FlpRole) ports.FlpRole {
	return ports.FlpRole{
		FlpName:     row.FlpName,
		RunNumber:   row.RunNumber,
		FlpHostname: row.FlpHostname,
		Counters: logbook.FlpCounters{
			BytesReadOut:          row.BytesReadOut,
			NumberOfSubtimeframes: row.NumberOfSubtimeframes,
			NumberOfTimeframes:    row.NumberOfTimeframes,
		},
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}
