package uow

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"jiskefet/internal/infrastructure/persistence/sqlite/model"
	"jiskefet/internal/ports"
)

func setupUnitOfWork(t *testing.T) (*UnitOfWork, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(gormsqlite.Open(filepath.Join(t.TempDir(), "uow.sqlite")), &gorm.Config{})
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
	if err := db.AutoMigrate(&model.KV{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return NewUnitOfWork(db), db
}

func TestWithTxRollsBackOnError(t *testing.T) {
	uow, db := setupUnitOfWork(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := uow.WithTx(ctx, func(txCtx context.Context) error {
		tx := ports.TxFromContext(txCtx).(*gorm.DB)
		if err := tx.Create(&model.KV{Key: "k", Value: "v", UpdatedAt: time.Now().UTC()}).Error; err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx() error = %v, want boom", err)
	}

	var count int64
	if err := db.Model(&model.KV{}).Count(&count).Error; err != nil {
		t.Fatalf("count kv: %v", err)
	}
	if count != 0 {
		t.Fatalf("kv rows = %d, want 0 after rollback", count)
	}
}

func TestWithTxJoinsOuterTransaction(t *testing.T) {
	uow, _ := setupUnitOfWork(t)
	ctx := context.Background()

	if err := uow.WithTx(ctx, func(outer context.Context) error {
		outerTx := ports.TxFromContext(outer)
		return uow.WithTx(outer, func(inner context.Context) error {
			if ports.TxFromContext(inner) != outerTx {
				t.Fatalf("inner tx differs from outer tx")
			}
			return nil
		})
	}); err != nil {
		t.Fatalf("WithTx() error = %v", err)
	}
}
