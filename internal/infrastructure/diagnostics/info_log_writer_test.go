package diagnostics

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"jiskefet/internal/bootstrap/logging"
	"jiskefet/internal/infrastructure/persistence/sqlite/model"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(gormsqlite.Open(filepath.Join(t.TempDir(), "diag.sqlite")), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	if err := db.AutoMigrate(&model.InfoLog{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

func TestInfoLogWriterPersistsRecords(t *testing.T) {
	db := setupDB(t)
	writer := NewInfoLogWriter(db, 8)
	ctx := context.Background()
	if err := writer.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	recordCtx := logging.WithAttrs(ctx, slog.String("component", "usecase.attachment"))
	if !writer.Record(recordCtx, "warning", "Attachment is not correctly added.") {
		t.Fatalf("Record() = false, want true")
	}
	if writer.Record(recordCtx, LevelInfo, "   ") {
		t.Fatalf("Record(blank) = true, want false")
	}

	closeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := writer.Close(closeCtx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	var rows []model.InfoLog
	if err := db.Find(&rows).Error; err != nil {
		t.Fatalf("query info_log: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("len(rows) = %d, want 1", len(rows))
	}
	if rows[0].Level != LevelWarn || rows[0].Component != "usecase.attachment" || rows[0].Message != "Attachment is not correctly added." {
		t.Fatalf("row = %+v", rows[0])
	}

	if writer.Record(ctx, LevelInfo, "after close") {
		t.Fatalf("Record() after Close = true, want false")
	}
}

func TestInfoLogWriterNeverBlocksWhenFull(t *testing.T) {
	writer := NewInfoLogWriter(nil, 1)
	ctx := context.Background()

	if !writer.Record(ctx, LevelInfo, "first") {
		t.Fatalf("Record(first) = false, want true")
	}

	done := make(chan bool, 1)
	go func() {
		done <- writer.Record(ctx, LevelInfo, "second")
	}()

	select {
	case accepted := <-done:
		if accepted {
			t.Fatalf("Record(second) = true on a full queue")
		}
	case <-time.After(time.Second):
		t.Fatalf("Record() blocked on a full queue")
	}

	if err := writer.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}
