package logbook

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"jiskefet/internal/infrastructure/persistence/sqlite/model"
	sqliterepo "jiskefet/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "jiskefet/internal/infrastructure/persistence/sqlite/uow"
	"jiskefet/internal/ports"
)

type testCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newTestCache() *testCache {
	return &testCache{data: make(map[string]string)}
}

func (c *testCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *testCache) Set(_ context.Context, key string, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *testCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

type testSink struct {
	mu       sync.Mutex
	accept   bool
	messages []string
}

func (s *testSink) Record(_ context.Context, _ string, message string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, message)
	return s.accept
}

type testEnv struct {
	db          *gorm.DB
	uow         ports.UnitOfWork
	runs        *sqliterepo.RunRepository
	flps        *sqliterepo.FlpRoleRepository
	detectors   *sqliterepo.DetectorRepository
	logs        *sqliterepo.LogRepository
	attachments *sqliterepo.AttachmentRepository
	subSystems  *sqliterepo.SubSystemRepository
	cache       *testCache
	sink        *testSink
}

func setupEnv(t *testing.T) testEnv {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "logbook.sqlite") + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{TranslateError: true})
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
	if err := db.AutoMigrate(model.All()...); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	return testEnv{
		db:          db,
		uow:         sqliteuow.NewUnitOfWork(db),
		runs:        sqliterepo.NewRunRepository(db),
		flps:        sqliterepo.NewFlpRoleRepository(db),
		detectors:   sqliterepo.NewDetectorRepository(db),
		logs:        sqliterepo.NewLogRepository(db),
		attachments: sqliterepo.NewAttachmentRepository(db),
		subSystems:  sqliterepo.NewSubSystemRepository(db),
		cache:       newTestCache(),
		sink:        &testSink{accept: true},
	}
}

func (e testEnv) runService() *RunService {
	return NewRunService(e.uow, e.runs, e.flps, e.detectors, e.cache)
}

func (e testEnv) aggregator() *FlpRoleAggregator {
	return NewFlpRoleAggregator(e.uow, e.runs, e.flps, e.cache, Settings{})
}

func mustCreateRun(t *testing.T, e testEnv, runNumber int64) ports.Run {
	t.Helper()

	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	run, err := e.runService().CreateRun(context.Background(), CreateRunInput{
		RunNumber:    runNumber,
		TimeO2Start:  start,
		TimeTrgStart: start,
		RunType:      "PHYSICS",
	})
	if err != nil {
		t.Fatalf("CreateRun(%d) error = %v", runNumber, err)
	}
	return run
}

func int64Ptr(v int64) *int64 { return &v }
