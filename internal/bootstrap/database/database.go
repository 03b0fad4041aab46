package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"jiskefet/internal/bootstrap/config"
	"jiskefet/internal/bootstrap/logging"
	"jiskefet/internal/errs"
)

func Open(ctx context.Context, cfg config.DatabaseConfig) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.database"))
	gormConfig := &gorm.Config{
		TranslateError: true,
		Logger:         newGormLogger(logCtx, cfg.SlowThreshold),
	}

	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch driver {
	case "sqlite", "sqlite3":
		if err := ensureSQLiteDirectory(logCtx, cfg.DSN); err != nil {
			return nil, errs.Wrap(err, "ensure sqlite directory")
		}

		db, err := gorm.Open(gormsqlite.Open(SQLiteDSN(cfg.DSN, cfg.BusyTimeout)), gormConfig)
		if err != nil {
			return nil, errs.Wrap(err, "open sqlite db")
		}
		// One writer at a time; concurrent callers queue on the pool.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, errs.Wrap(err, "get sql db")
		}
		sqlDB.SetMaxOpenConns(1)

		logging.Info(logCtx, "database opened", slog.String("driver", "sqlite"), slog.String("dsn", cfg.DSN))
		return db, nil
	case "postgres", "postgresql", "pgx":
		db, err := gorm.Open(postgres.Open(cfg.DSN), gormConfig)
		if err != nil {
			return nil, errs.Wrap(err, "open postgres db")
		}
		if err := applyPool(db, cfg); err != nil {
			return nil, err
		}
		logging.Info(logCtx, "database opened", slog.String("driver", "postgres"))
		return db, nil
	case "mysql", "mariadb":
		db, err := gorm.Open(mysql.Open(cfg.DSN), gormConfig)
		if err != nil {
			return nil, errs.Wrap(err, "open mysql db")
		}
		if err := applyPool(db, cfg); err != nil {
			return nil, err
		}
		logging.Info(logCtx, "database opened", slog.String("driver", "mysql"))
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// SQLiteDSN appends the busy_timeout and foreign_keys pragmas unless the DSN
// already sets them.
func SQLiteDSN(dsn string, busyTimeout time.Duration) string {
	out := strings.TrimSpace(dsn)
	pragmas := make([]string, 0, 2)
	if busyTimeout > 0 && !strings.Contains(out, "busy_timeout") {
		pragmas = append(pragmas, fmt.Sprintf("_pragma=busy_timeout(%d)", busyTimeout.Milliseconds()))
	}
	if !strings.Contains(out, "foreign_keys") {
		pragmas = append(pragmas, "_pragma=foreign_keys(1)")
	}
	if len(pragmas) == 0 {
		return out
	}

	sep := "?"
	if strings.Contains(out, "?") {
		sep = "&"
	}
	return out + sep + strings.Join(pragmas, "&")
}

func applyPool(db *gorm.DB, cfg config.DatabaseConfig) error {
	sqlDB, err := db.DB()
	if err != nil {
		return errs.Wrap(err, "get sql db")
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxOpenConns)
	}
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	return nil
}

func newGormLogger(ctx context.Context, slowThreshold time.Duration) logger.Interface {
	writer := slog.NewLogLogger(logging.Logger(ctx).Handler(), slog.LevelWarn)
	return logger.New(writer, logger.Config{
		SlowThreshold:             slowThreshold,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

func ensureSQLiteDirectory(ctx context.Context, dsn string) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	candidate := strings.TrimSpace(dsn)
	if candidate == "" || strings.Contains(candidate, ":memory:") {
		return nil
	}

	candidate = strings.TrimPrefix(candidate, "file:")
	if idx := strings.Index(candidate, "?"); idx >= 0 {
		candidate = candidate[:idx]
	}

	dir := filepath.Dir(candidate)
	if dir == "" || dir == "." {
		return nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.Wrapf(err, "create sqlite directory %q", dir)
	}

	logging.Info(ctx, "sqlite directory ensured", slog.String("dir", dir))
	return nil
}
