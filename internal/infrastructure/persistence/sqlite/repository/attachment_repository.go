package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"jiskefet/internal/errs"
	"jiskefet/internal/infrastructure/persistence/sqlite/model"
	"jiskefet/internal/ports"
)

type AttachmentRepository struct {
	store
}

var _ ports.AttachmentRepository = (*AttachmentRepository)(nil)

func NewAttachmentRepository(db *gorm.DB) *AttachmentRepository {
	return &AttachmentRepository{store: store{db: db}}
}

func (r *AttachmentRepository) CreateAttachment(ctx context.Context, attachment ports.Attachment) (ports.Attachment, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.Attachment{}, err
	}

	row := model.Attachment{
		LogID:     attachment.LogID,
		FileName:  attachment.FileName,
		FileMime:  attachment.FileMime,
		FileData:  attachment.FileData,
		FileSize:  int64(len(attachment.FileData)),
		CreatedAt: attachment.CreatedAt,
	}
	if err := db.Omit(clause.Associations).Create(&row).Error; err != nil {
		return ports.Attachment{}, errs.Persistence(err, "insert attachment")
	}
	return mapAttachment(row), nil
}

func (r *AttachmentRepository) ListAttachmentsByLog(ctx context.Context, logID uint64) ([]ports.Attachment, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.Attachment
	if err := db.Where("log_id = ?", logID).
		Order("created_at asc").
		Order("attachment_id asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Persistence(err, "query attachments")
	}

	items := make([]ports.Attachment, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapAttachment(row))
	}
	return items, nil
}

func (r *AttachmentRepository) CountAttachmentsByLog(ctx context.Context, logID uint64) (int64, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := db.Model(&model.Attachment{}).Where("log_id = ?", logID).Count(&count).Error; err != nil {
		return 0, errs.Persistence(err, "count attachments")
	}
	return count, nil
}

func mapAttachment(row model.Attachment) ports.Attachment {
	return ports.Attachment{
		AttachmentID: row.AttachmentID,
		LogID:        row.LogID,
		FileName:     row.FileName,
		FileMime:     row.FileMime,
		FileData:     row.FileData,
		FileSize:     row.FileSize,
		CreatedAt:    row.CreatedAt,
	}
}
