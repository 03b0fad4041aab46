package bootstrap

import (
	"context"
	"errors"
	"log/slog"

	"gorm.io/gorm"

	"jiskefet/internal/bootstrap/config"
	"jiskefet/internal/bootstrap/logging"
	"jiskefet/internal/errs"
	"jiskefet/internal/httpapi"
	"jiskefet/internal/infrastructure/persistence/schema"
	"jiskefet/internal/infrastructure/seed"
	"jiskefet/internal/ports"
)

type App struct {
	Config   config.Config
	DB       *gorm.DB
	Sink     ports.DiagnosticSink
	Services httpapi.Services
}

func (a *App) InitSchema(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.app"))
	logging.Info(logCtx, "start schema migration", slog.String("database_driver", a.Config.Database.Driver))

	version, err := schema.Migrate(ctx, a.DB)
	if err != nil {
		return errs.Wrap(err, "migrate schema")
	}

	logging.Info(logCtx, "schema migration completed", slog.Int("schema_version", version))
	return nil
}

// SeedDetectors registers the detectors listed in path, or in the configured
// seed file when path is empty. It returns how many were new.
func (a *App) SeedDetectors(ctx context.Context, path string) (int, error) {
	if path == "" {
		path = a.Config.Detectors.SeedFile
	}
	if path == "" {
		return 0, errors.New("detector seed file is not configured")
	}

	detectors, err := seed.LoadDetectors(path)
	if err != nil {
		return 0, err
	}
	created, err := a.Services.Registry.Seed(ctx, detectors)
	if err != nil {
		return 0, errs.Wrap(err, "seed detectors")
	}

	logging.Info(
		logging.WithAttrs(ctx, slog.String("component", "bootstrap.app")),
		"detectors seeded",
		slog.String("seed_file", path),
		slog.Int("listed", len(detectors)),
		slog.Int("created", created),
	)
	return created, nil
}

// Ping reports whether the database answers.
func (a *App) Ping(ctx context.Context) error {
	sqlDB, err := a.DB.DB()
	if err != nil {
		return errs.Wrap(err, "get sql db")
	}
	return sqlDB.PingContext(ctx)
}
