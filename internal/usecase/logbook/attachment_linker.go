package logbook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"jiskefet/internal/bootstrap/logging"
	domainlogbook "jiskefet/internal/domain/logbook"
	"jiskefet/internal/errs"
	"jiskefet/internal/ports"
)

type AttachmentStatus string

const (
	AttachmentOK             AttachmentStatus = "ok"
	AttachmentPartialFailure AttachmentStatus = "partial_failure"
	AttachmentFailed         AttachmentStatus = "failed"
)

// CreateAttachmentResult makes the outcome of an attachment upload explicit.
// Err is nil only for AttachmentOK.
type CreateAttachmentResult struct {
	Status            AttachmentStatus
	Attachment        ports.Attachment
	DiagnosticWritten bool
	Err               error
}

type CreateAttachmentInput struct {
	LogID    uint64
	FileName string
	FileMime string
	FileData []byte
}

type AttachmentLinker struct {
	uow         ports.UnitOfWork
	logs        ports.LogRepository
	attachments ports.AttachmentRepository
	sink        ports.DiagnosticSink
	now         func() time.Time
}

func NewAttachmentLinker(uow ports.UnitOfWork, logs ports.LogRepository, attachments ports.AttachmentRepository, sink ports.DiagnosticSink) *AttachmentLinker {
	return &AttachmentLinker{
		uow:         uow,
		logs:        logs,
		attachments: attachments,
		sink:        sink,
		now:         nowUTC,
	}
}

// Create stores a file on a log.
//
// Input problems, including a log id that does not resolve, yield
// AttachmentFailed with a validation error and no diagnostic. A store failure
// yields AttachmentPartialFailure: the transaction leaves nothing behind and a
// diagnostic note is recorded for operators.
func (l *AttachmentLinker) Create(ctx context.Context, input CreateAttachmentInput) CreateAttachmentResult {
	if err := checkContext(ctx); err != nil {
		return failedAttachment(err)
	}
	if l.logs == nil || l.attachments == nil {
		return failedAttachment(errors.New("log and attachment repositories are required"))
	}
	if l.uow == nil {
		return failedAttachment(errUnitOfWorkRequired)
	}

	fileName, err := requireText(input.FileName, "file name")
	if err != nil {
		return failedAttachment(err)
	}
	if len(input.FileData) == 0 {
		return failedAttachment(domainlogbook.ErrEmptyAttachment)
	}
	fileMime := strings.TrimSpace(input.FileMime)
	if fileMime == "" {
		fileMime = "application/octet-stream"
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "usecase.attachment"), slog.Uint64("log_id", input.LogID))

	if _, err := l.logs.GetLog(ctx, input.LogID); err != nil {
		if errors.Is(err, domainlogbook.ErrLogNotFound) {
			return failedAttachment(fmt.Errorf("%w: log_id=%d", domainlogbook.ErrUnknownLog, input.LogID))
		}
		return l.partialFailure(logCtx, err)
	}

	var created ports.Attachment
	if err := l.uow.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		created, err = l.attachments.CreateAttachment(txCtx, ports.Attachment{
			LogID:     input.LogID,
			FileName:  fileName,
			FileMime:  fileMime,
			FileData:  input.FileData,
			CreatedAt: l.now().UTC(),
		})
		return err
	}); err != nil {
		return l.partialFailure(logCtx, err)
	}

	logging.Info(logCtx, "attachment created", slog.Uint64("attachment_id", created.AttachmentID), slog.Int64("file_size", created.FileSize))
	return CreateAttachmentResult{Status: AttachmentOK, Attachment: created}
}

// FindByLog lists the attachments of a log in creation order with raw payloads.
func (l *AttachmentLinker) FindByLog(ctx context.Context, logID uint64) ([]ports.Attachment, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	if l.logs == nil || l.attachments == nil {
		return nil, errors.New("log and attachment repositories are required")
	}

	if _, err := l.logs.GetLog(ctx, logID); err != nil {
		return nil, err
	}
	return l.attachments.ListAttachmentsByLog(ctx, logID)
}

func (l *AttachmentLinker) partialFailure(ctx context.Context, err error) CreateAttachmentResult {
	logging.Error(ctx, "create attachment failed", slog.Any("err", errs.Loggable(err)))

	written := false
	if l.sink != nil {
		written = l.sink.Record(ctx, "error", msgAttachmentNotCreated)
	}
	return CreateAttachmentResult{
		Status:            AttachmentPartialFailure,
		DiagnosticWritten: written,
		Err:               errs.Persistence(err, "create attachment"),
	}
}

func failedAttachment(err error) CreateAttachmentResult {
	return CreateAttachmentResult{Status: AttachmentFailed, Err: err}
}
