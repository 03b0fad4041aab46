package diagnostics

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"jiskefet/internal/bootstrap/logging"
	"jiskefet/internal/errs"
	"jiskefet/internal/infrastructure/persistence/sqlite/model"
	"jiskefet/internal/ports"
)

const (
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

type record struct {
	level     string
	component string
	message   string
	createdAt time.Time
}

// InfoLogWriter queues diagnostic records and persists them to the info_log
// table from a single goroutine. Records are also mirrored to slog.
type InfoLogWriter struct {
	db    *gorm.DB
	queue chan record
	now   func() time.Time

	mu      sync.RWMutex
	started bool
	closed  bool
	done    chan struct{}
}

var _ ports.DiagnosticSink = (*InfoLogWriter)(nil)

func NewInfoLogWriter(db *gorm.DB, bufferSize int) *InfoLogWriter {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &InfoLogWriter{
		db:    db,
		queue: make(chan record, bufferSize),
		now:   time.Now,
		done:  make(chan struct{}),
	}
}

// Record enqueues a note without blocking. It returns false when the writer
// is closed or the queue is full.
func (w *InfoLogWriter) Record(ctx context.Context, level string, message string) bool {
	if ctx == nil {
		ctx = context.Background()
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return false
	}

	rec := record{
		level:     normalizeLevel(level),
		component: componentOf(ctx),
		message:   message,
		createdAt: w.now().UTC(),
	}

	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return false
	}

	select {
	case w.queue <- rec:
		return true
	default:
		logging.Warn(ctx, "diagnostic queue full, record dropped", slog.String("message", message))
		return false
	}
}

// Start launches the drain goroutine. Calling it twice is a no-op.
func (w *InfoLogWriter) Start(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return errors.New("diagnostics writer is closed")
	}
	if w.started {
		return nil
	}
	w.started = true

	logCtx := logging.WithAttrs(context.WithoutCancel(ctx), slog.String("component", "infrastructure.diagnostics"))
	go w.drain(logCtx)
	return nil
}

// Close stops accepting records and waits until queued ones are written or
// ctx is done.
func (w *InfoLogWriter) Close(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	started := w.started
	close(w.queue)
	w.mu.Unlock()

	if !started {
		return nil
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return errs.Wrap(ctx.Err(), "wait diagnostics drain")
	}
}

func (w *InfoLogWriter) drain(ctx context.Context) {
	defer close(w.done)

	for rec := range w.queue {
		w.write(ctx, rec)
	}
}

func (w *InfoLogWriter) write(ctx context.Context, rec record) {
	attrs := []slog.Attr{
		slog.String("diagnostic_level", rec.level),
		slog.String("source", rec.component),
	}
	switch rec.level {
	case LevelError:
		logging.Error(ctx, rec.message, attrs...)
	case LevelWarn:
		logging.Warn(ctx, rec.message, attrs...)
	default:
		logging.Info(ctx, rec.message, attrs...)
	}

	if w.db == nil {
		return
	}
	row := model.InfoLog{
		Level:     rec.level,
		Component: rec.component,
		Message:   rec.message,
		CreatedAt: rec.createdAt.Format(time.RFC3339Nano),
	}
	if err := w.db.WithContext(ctx).Create(&row).Error; err != nil {
		logging.Error(ctx, "persist diagnostic record failed", slog.Any("err", errs.Loggable(err)))
	}
}

func normalizeLevel(level string) string {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case LevelWarn, "warning":
		return LevelWarn
	case LevelError:
		return LevelError
	default:
		return LevelInfo
	}
}

func componentOf(ctx context.Context) string {
	for _, attr := range logging.Attrs(ctx) {
		if attr.Key == "component" {
			return attr.Value.String()
		}
	}
	return ""
}
