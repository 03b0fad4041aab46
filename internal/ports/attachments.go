package ports

import (
	"context"
	"time"
)

type Attachment struct {
	AttachmentID uint64
	LogID        uint64
	FileName     string
	FileMime     string
	FileData     []byte
	FileSize     int64
	CreatedAt    time.Time
}

type AttachmentRepository interface {
	CreateAttachment(ctx context.Context, attachment Attachment) (Attachment, error)
	ListAttachmentsByLog(ctx context.Context, logID uint64) ([]Attachment, error)
	CountAttachmentsByLog(ctx context.Context, logID uint64) (int64, error)
}
