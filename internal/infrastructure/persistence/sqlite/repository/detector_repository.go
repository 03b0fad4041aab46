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

type DetectorRepository struct {
	store
}

var _ ports.DetectorRepository = (*DetectorRepository)(nil)

func NewDetectorRepository(db *gorm.DB) *DetectorRepository {
	return &DetectorRepository{store: store{db: db}}
}

func (r *DetectorRepository) CreateDetector(ctx context.Context, detector ports.Detector) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	var existing int64
	if err := db.Model(&model.Detector{}).
		Where("detector_id = ? OR detector_name = ?", detector.DetectorID, detector.DetectorName).
		Count(&existing).Error; err != nil {
		return errs.Persistence(err, "count detector")
	}
	if existing > 0 {
		return fmt.Errorf("%w: detector_id=%d name=%q", logbook.ErrDetectorExists, detector.DetectorID, detector.DetectorName)
	}

	row := model.Detector{
		DetectorID:   detector.DetectorID,
		DetectorName: detector.DetectorName,
	}
	if err := db.Omit(clause.Associations).Create(&row).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%w: detector_id=%d name=%q", logbook.ErrDetectorExists, detector.DetectorID, detector.DetectorName)
		}
		return errs.Persistence(err, "insert detector")
	}
	return nil
}

func (r *DetectorRepository) GetDetector(ctx context.Context, detectorID int64) (ports.Detector, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.Detector{}, err
	}

	var row model.Detector
	if err := db.Where("detector_id = ?", detectorID).Take(&row).Error; err != nil {
		if isRecordNotFound(err) {
			return ports.Detector{}, fmt.Errorf("%w: detector_id=%d", logbook.ErrDetectorNotFound, detectorID)
		}
		return ports.Detector{}, errs.Persistence(err, "query detector")
	}
	return ports.Detector{DetectorID: row.DetectorID, DetectorName: row.DetectorName}, nil
}

func (r *DetectorRepository) FindDetectorByName(ctx context.Context, name string) (ports.Detector, bool, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.Detector{}, false, err
	}

	var row model.Detector
	if err := db.Where("detector_name = ?", name).Take(&row).Error; err != nil {
		if isRecordNotFound(err) {
			return ports.Detector{}, false, nil
		}
		return ports.Detector{}, false, errs.Persistence(err, "query detector by name")
	}
	return ports.Detector{DetectorID: row.DetectorID, DetectorName: row.DetectorName}, true, nil
}

func (r *DetectorRepository) ListDetectors(ctx context.Context) ([]ports.Detector, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.Detector
	if err := db.Order("detector_id asc").Find(&rows).Error; err != nil {
		return nil, errs.Persistence(err, "query detectors")
	}

	items := make([]ports.Detector, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.Detector{DetectorID: row.DetectorID, DetectorName: row.DetectorName})
	}
	return items, nil
}

func (r *DetectorRepository) UpsertDetectorInRun(ctx context.Context, runNumber int64, detectorID int64, quality string) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	row := model.DetectorsInRun{
		RunNumber:  runNumber,
		DetectorID: detectorID,
		RunQuality: quality,
	}
	if err := db.Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "run_number"}, {Name: "detector_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"run_quality"}),
	}).Create(&row).Error; err != nil {
		return errs.Persistence(err, "upsert detector in run")
	}
	return nil
}

func (r *DetectorRepository) ListDetectorsInRun(ctx context.Context, runNumber int64) ([]ports.DetectorInRun, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		RunNumber    int64  `gorm:"column:run_number"`
		DetectorID   int64  `gorm:"column:detector_id"`
		DetectorName string `gorm:"column:detector_name"`
		RunQuality   string `gorm:"column:run_quality"`
	}
	if err := db.Table("detectors_in_run AS dir").
		Select("dir.run_number, dir.detector_id, d.detector_name, dir.run_quality").
		Joins("JOIN detector AS d ON d.detector_id = dir.detector_id").
		Where("dir.run_number = ?", runNumber).
		Order("dir.detector_id asc").
		Scan(&rows).Error; err != nil {
		return nil, errs.Persistence(err, "query detectors in run")
	}

	items := make([]ports.DetectorInRun, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.DetectorInRun{
			RunNumber: row.RunNumber,
			Detector: ports.Detector{
				DetectorID:   row.DetectorID,
				DetectorName: row.DetectorName,
			},
			RunQuality: row.RunQuality,
		})
	}
	return items, nil
}
