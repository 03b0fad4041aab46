package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"jiskefet/internal/domain/logbook"
	"jiskefet/internal/errs"
	"jiskefet/internal/infrastructure/persistence/sqlite/model"
	"jiskefet/internal/ports"
)

var logOrderColumns = map[string]string{
	"":           "log_id",
	"log_id":     "log_id",
	"logid":      "log_id",
	"created_at": "created_at",
	"createdat":  "created_at",
	"title":      "title",
}

type LogRepository struct {
	store
}

var _ ports.LogRepository = (*LogRepository)(nil)

func NewLogRepository(db *gorm.DB) *LogRepository {
	return &LogRepository{store: store{db: db}}
}

func (r *LogRepository) CreateLog(ctx context.Context, log ports.Log) (ports.Log, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.Log{}, err
	}

	row := model.Log{
		Title:     log.Title,
		Body:      log.Body,
		Subtype:   log.Subtype,
		Origin:    log.Origin,
		Author:    log.Author,
		CreatedAt: log.CreatedAt,
	}
	if err := db.Omit(clause.Associations).Create(&row).Error; err != nil {
		return ports.Log{}, errs.Persistence(err, "insert log")
	}
	return mapLog(row), nil
}

func (r *LogRepository) GetLog(ctx context.Context, logID uint64) (ports.Log, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.Log{}, err
	}

	var row model.Log
	if err := db.Where("log_id = ?", logID).Take(&row).Error; err != nil {
		if isRecordNotFound(err) {
			return ports.Log{}, fmt.Errorf("%w: log_id=%d", logbook.ErrLogNotFound, logID)
		}
		return ports.Log{}, errs.Persistence(err, "query log")
	}
	return mapLog(row), nil
}

func (r *LogRepository) ListLogs(ctx context.Context, filter ports.LogFilter) ([]ports.Log, int64, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, 0, err
	}

	orderColumn, ok := logOrderColumns[strings.ToLower(strings.TrimSpace(filter.OrderBy))]
	if !ok {
		return nil, 0, errs.Validationf("unsupported log order %q", filter.OrderBy)
	}

	query := db.Model(&model.Log{})
	if filter.Subtype != "" {
		query = query.Where("subtype = ?", filter.Subtype)
	}
	if filter.Origin != "" {
		query = query.Where("origin = ?", filter.Origin)
	}
	if title := strings.TrimSpace(filter.Title); title != "" {
		query = query.Where("LOWER(title) LIKE ? ESCAPE '!'", "%"+escapeLike(strings.ToLower(title))+"%")
	}
	if filter.RunNumber > 0 {
		sub := db.Model(&model.LogRun{}).Select("log_id").Where("run_number = ?", filter.RunNumber)
		query = query.Where("log_id IN (?)", sub)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, errs.Persistence(err, "count logs")
	}

	direction := logbook.NormalizeDirection(filter.OrderDirection, "DESC")
	var rows []model.Log
	if err := query.
		Order(orderColumn + " " + direction).
		Order("log_id " + direction).
		Limit(filter.Page.Size).
		Offset(filter.Page.Offset()).
		Find(&rows).Error; err != nil {
		return nil, 0, errs.Persistence(err, "query logs")
	}

	items := make([]ports.Log, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapLog(row))
	}
	return items, total, nil
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// escapeLike makes a substring literal for LIKE ... ESCAPE '!'.
func escapeLike(value string) string {
	return likeEscaper.Replace(value)
}

func (r *LogRepository) LinkLogRun(ctx context.Context, logID uint64, runNumber int64) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	row := model.LogRun{LogID: logID, RunNumber: runNumber}
	if err := db.Omit(clause.Associations).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return errs.Persistence(err, "insert log run link")
	}
	return nil
}

func (r *LogRepository) ListLogsByRun(ctx context.Context, runNumber int64) ([]ports.Log, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.Log
	if err := db.Table("log AS l").
		Select("l.*").
		Joins("JOIN log_runs_run AS lr ON lr.log_id = l.log_id").
		Where("lr.run_number = ?", runNumber).
		Order("l.log_id asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Persistence(err, "query logs by run")
	}

	items := make([]ports.Log, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapLog(row))
	}
	return items, nil
}

func (r *LogRepository) ListRunsByLog(ctx context.Context, logID uint64) ([]ports.Run, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.Run
	if err := db.Table("run AS r").
		Select("r.*").
		Joins("JOIN log_runs_run AS lr ON lr.run_number = r.run_number").
		Where("lr.log_id = ?", logID).
		Order("r.run_number asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Persistence(err, "query runs by log")
	}

	items := make([]ports.Run, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapRun(row))
	}
	return items, nil
}

func mapLog(row model.Log) ports.Log {
	return ports.Log{
		LogID:     row.LogID,
		Title:     row.Title,
		Body:      row.Body,
		Subtype:   row.Subtype,
		Origin:    row.Origin,
		Author:    row.Author,
		CreatedAt: row.CreatedAt,
	}
}
