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

type LogService struct {
	logs        ports.LogRepository
	attachments ports.AttachmentRepository
	sink        ports.DiagnosticSink
	now         func() time.Time
}

func NewLogService(logs ports.LogRepository, attachments ports.AttachmentRepository, sink ports.DiagnosticSink) *LogService {
	return &LogService{
		logs:        logs,
		attachments: attachments,
		sink:        sink,
		now:         nowUTC,
	}
}

type CreateLogInput struct {
	Title   string
	Body    string
	Subtype string
	Origin  string
	Author  string
}

type ListLogsInput struct {
	PageSize       int
	PageNumber     int
	OrderBy        string
	OrderDirection string
	Subtype        string
	Origin         string
	Title          string
	RunNumber      int64
}

type LogDetail struct {
	Log             ports.Log
	Runs            []ports.Run
	AttachmentCount int64
}

// Create stores a log entry. No run is linked implicitly. A store failure is
// also reported to the diagnostic sink.
func (s *LogService) Create(ctx context.Context, input CreateLogInput) (ports.Log, error) {
	if err := checkContext(ctx); err != nil {
		return ports.Log{}, err
	}
	if s.logs == nil {
		return ports.Log{}, errors.New("log repository is required")
	}

	title, err := requireText(input.Title, "log title")
	if err != nil {
		return ports.Log{}, err
	}
	body, err := requireText(input.Body, "log body")
	if err != nil {
		return ports.Log{}, err
	}
	subtype, err := domainlogbook.NormalizeSubtype(input.Subtype)
	if err != nil {
		return ports.Log{}, err
	}
	origin, err := domainlogbook.NormalizeOrigin(input.Origin)
	if err != nil {
		return ports.Log{}, err
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "usecase.log"))
	created, err := s.logs.CreateLog(ctx, ports.Log{
		Title:     title,
		Body:      body,
		Subtype:   subtype,
		Origin:    origin,
		Author:    strings.TrimSpace(input.Author),
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		logging.Error(logCtx, "create log failed", slog.Any("err", errs.Loggable(err)))
		if s.sink != nil {
			s.sink.Record(logCtx, "warn", msgLogNotCreated)
		}
		return ports.Log{}, err
	}

	logging.Info(logCtx, "log created", slog.Uint64("log_id", created.LogID), slog.String("subtype", subtype))
	return created, nil
}

// FindAll filters and pages log entries. Unknown subtype, origin or order
// fields are validation errors.
func (s *LogService) FindAll(ctx context.Context, input ListLogsInput) ([]ports.Log, int64, error) {
	if err := checkContext(ctx); err != nil {
		return nil, 0, err
	}
	if s.logs == nil {
		return nil, 0, errors.New("log repository is required")
	}

	filter := ports.LogFilter{
		Page:           domainlogbook.NormalizePage(input.PageSize, input.PageNumber),
		OrderBy:        input.OrderBy,
		OrderDirection: domainlogbook.NormalizeDirection(input.OrderDirection, "DESC"),
		Title:          input.Title,
		RunNumber:      input.RunNumber,
	}
	if strings.TrimSpace(input.Subtype) != "" {
		subtype, err := domainlogbook.NormalizeSubtype(input.Subtype)
		if err != nil {
			return nil, 0, err
		}
		filter.Subtype = subtype
	}
	if strings.TrimSpace(input.Origin) != "" {
		origin, err := domainlogbook.NormalizeOrigin(input.Origin)
		if err != nil {
			return nil, 0, err
		}
		filter.Origin = origin
	}

	return s.logs.ListLogs(ctx, filter)
}

func (s *LogService) FindByID(ctx context.Context, logID uint64) (LogDetail, error) {
	if err := checkContext(ctx); err != nil {
		return LogDetail{}, err
	}
	if s.logs == nil || s.attachments == nil {
		return LogDetail{}, errors.New("log and attachment repositories are required")
	}

	entry, err := s.logs.GetLog(ctx, logID)
	if err != nil {
		return LogDetail{}, err
	}
	runs, err := s.logs.ListRunsByLog(ctx, logID)
	if err != nil {
		return LogDetail{}, err
	}
	count, err := s.attachments.CountAttachmentsByLog(ctx, logID)
	if err != nil {
		return LogDetail{}, err
	}

	return LogDetail{Log: entry, Runs: runs, AttachmentCount: count}, nil
}
