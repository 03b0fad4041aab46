package model

import "time"

type Attachment struct {
	AttachmentID uint64    `gorm:"column:attachment_id;primaryKey;autoIncrement"`
	LogID        uint64    `gorm:"column:log_id;not null;index"`
	FileName     string    `gorm:"column:file_name;type:varchar(255);not null"`
	FileMime     string    `gorm:"column:file_mime;type:varchar(255);not null"`
	FileData     []byte    `gorm:"column:file_data;not null"`
	FileSize     int64     `gorm:"column:file_size;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;not null"`
}

func (Attachment) TableName() string {
	return "attachment"
}
