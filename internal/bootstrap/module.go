package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"jiskefet/internal/bootstrap/config"
	"jiskefet/internal/bootstrap/database"
	"jiskefet/internal/bootstrap/logging"
	"jiskefet/internal/errs"
	"jiskefet/internal/httpapi"
	cacheinfra "jiskefet/internal/infrastructure/cache"
	"jiskefet/internal/infrastructure/diagnostics"
	sqliterepo "jiskefet/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "jiskefet/internal/infrastructure/persistence/sqlite/uow"
	"jiskefet/internal/ports"
	"jiskefet/internal/usecase/logbook"
)

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideDatabase),
	fx.Provide(provideApp),
	fx.Provide(
		fx.Annotate(sqliterepo.NewRunRepository, fx.As(new(ports.RunRepository))),
		fx.Annotate(sqliterepo.NewFlpRoleRepository, fx.As(new(ports.FlpRoleRepository))),
		fx.Annotate(sqliterepo.NewDetectorRepository, fx.As(new(ports.DetectorRepository))),
		fx.Annotate(sqliterepo.NewLogRepository, fx.As(new(ports.LogRepository))),
		fx.Annotate(sqliterepo.NewAttachmentRepository, fx.As(new(ports.AttachmentRepository))),
		fx.Annotate(sqliterepo.NewSubSystemRepository, fx.As(new(ports.SubSystemRepository))),
	),
	fx.Provide(
		fx.Annotate(
			sqliteuow.NewUnitOfWork,
			fx.As(new(ports.UnitOfWork)),
		),
	),
	fx.Provide(provideCache),
	fx.Provide(provideDiagnostics),
	fx.Provide(provideSettings),
	fx.Provide(
		logbook.NewRunService,
		logbook.NewFlpRoleAggregator,
		logbook.NewDetectorLinker,
		logbook.NewDetectorRegistry,
		logbook.NewLogService,
		logbook.NewLogRunLinker,
		logbook.NewAttachmentLinker,
		logbook.NewTokenService,
	),
)

type configParams struct {
	fx.In

	Ctx        context.Context
	ConfigFile string `name:"configFile"`
}

func provideConfig(p configParams) (config.Config, error) {
	ctx := logging.WithAttrs(p.Ctx, slog.String("component", "bootstrap.fx"))
	cfg, err := config.Load(ctx, p.ConfigFile)
	if err != nil {
		return config.Config{}, err
	}
	logging.SetLevel(cfg.App.LogLevel)
	return cfg, nil
}

func provideDatabase(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	return db, nil
}

// provideCache picks the cache adapter named by cache.driver. A Redis that
// does not answer at start is logged; the cache is advisory.
func provideCache(lc fx.Lifecycle, ctx context.Context, cfg config.Config, db *gorm.DB) (ports.Cache, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	switch driver := strings.ToLower(strings.TrimSpace(cfg.Cache.Driver)); driver {
	case "", "sqlite", "database":
		return cacheinfra.NewKVCache(db), nil
	case "none":
		return cacheinfra.NopCache{}, nil
	case "redis":
		redisCache := cacheinfra.NewRedisCache(cacheinfra.RedisConfig{
			Address:  cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			Database: cfg.Cache.Redis.DB,
			Prefix:   cfg.Cache.Redis.Prefix,
		})
		lc.Append(fx.Hook{
			OnStart: func(startCtx context.Context) error {
				if err := redisCache.Ping(startCtx); err != nil {
					logging.Warn(logCtx, "redis cache is not reachable", slog.String("addr", cfg.Cache.Redis.Addr), slog.Any("err", errs.Loggable(err)))
				}
				return nil
			},
			OnStop: func(_ context.Context) error {
				return redisCache.Close()
			},
		})
		return redisCache, nil
	default:
		return nil, fmt.Errorf("unsupported cache driver %q", driver)
	}
}

func provideDiagnostics(lc fx.Lifecycle, ctx context.Context, cfg config.Config, db *gorm.DB) ports.DiagnosticSink {
	writer := diagnostics.NewInfoLogWriter(db, cfg.Diagnostics.BufferSize)
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			return writer.Start(ctx)
		},
		OnStop: func(stopCtx context.Context) error {
			return writer.Close(stopCtx)
		},
	})
	return writer
}

func provideSettings(cfg config.Config) logbook.Settings {
	return logbook.Settings{
		RunQualities: cfg.Logbook.RunQualities,
		CacheTTL:     cfg.Cache.TTL,
	}
}

type appParams struct {
	fx.In

	Config      config.Config
	DB          *gorm.DB
	Sink        ports.DiagnosticSink
	Runs        *logbook.RunService
	Flps        *logbook.FlpRoleAggregator
	Detectors   *logbook.DetectorLinker
	Registry    *logbook.DetectorRegistry
	Logs        *logbook.LogService
	LogRuns     *logbook.LogRunLinker
	Attachments *logbook.AttachmentLinker
	Tokens      *logbook.TokenService
}

func provideApp(p appParams) *App {
	return &App{
		Config: p.Config,
		DB:     p.DB,
		Sink:   p.Sink,
		Services: httpapi.Services{
			Runs:        p.Runs,
			Flps:        p.Flps,
			Detectors:   p.Detectors,
			Registry:    p.Registry,
			Logs:        p.Logs,
			LogRuns:     p.LogRuns,
			Attachments: p.Attachments,
			Tokens:      p.Tokens,
		},
	}
}
