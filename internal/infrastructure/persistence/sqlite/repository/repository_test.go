package repository

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"jiskefet/internal/bootstrap/database"
	"jiskefet/internal/domain/logbook"
	"jiskefet/internal/errs"
	"jiskefet/internal/infrastructure/persistence/sqlite/model"
	"jiskefet/internal/ports"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := database.SQLiteDSN(filepath.Join(t.TempDir(), "logbook.sqlite"), time.Second)
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
	return db
}

func createTestRun(t *testing.T, repo *RunRepository, runNumber int64) ports.Run {
	t.Helper()

	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	run, err := repo.CreateRun(context.Background(), ports.Run{
		RunNumber:    runNumber,
		TimeO2Start:  start,
		TimeTrgStart: start,
		ActivityID:   "act-1",
		RunType:      "PHYSICS",
		RunQuality:   "test",
	})
	if err != nil {
		t.Fatalf("CreateRun() error = %v", err)
	}
	return run
}

func TestRunRepositoryCreateConflictKeepsOriginal(t *testing.T) {
	repo := NewRunRepository(setupDB(t))
	ctx := context.Background()
	createTestRun(t, repo, 42)

	_, err := repo.CreateRun(ctx, ports.Run{RunNumber: 42, RunType: "COSMICS"})
	if !errors.Is(err, logbook.ErrRunExists) {
		t.Fatalf("CreateRun() error = %v, want ErrRunExists", err)
	}
	if errs.KindOf(err) != errs.KindConflict {
		t.Fatalf("KindOf() = %q, want conflict", errs.KindOf(err))
	}

	got, err := repo.GetRun(ctx, 42)
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if got.RunType != "PHYSICS" {
		t.Fatalf("run type = %q, want PHYSICS", got.RunType)
	}
}

func TestRunRepositoryGetMissing(t *testing.T) {
	repo := NewRunRepository(setupDB(t))

	_, err := repo.GetRun(context.Background(), 7)
	if !errors.Is(err, logbook.ErrRunNotFound) {
		t.Fatalf("GetRun() error = %v, want ErrRunNotFound", err)
	}
	_, err = repo.LockRun(context.Background(), 7)
	if errs.KindOf(err) != errs.KindNotFound {
		t.Fatalf("LockRun() kind = %q, want not_found", errs.KindOf(err))
	}
}

func TestRunRepositoryEndAndList(t *testing.T) {
	repo := NewRunRepository(setupDB(t))
	ctx := context.Background()
	for _, n := range []int64{1, 2, 3} {
		createTestRun(t, repo, n)
	}

	end := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := repo.EndRun(ctx, 2, ports.RunEnd{TimeO2End: end, TimeTrgEnd: end, RunQuality: "good"}); err != nil {
		t.Fatalf("EndRun() error = %v", err)
	}
	if err := repo.EndRun(ctx, 99, ports.RunEnd{TimeO2End: end, TimeTrgEnd: end}); !errors.Is(err, logbook.ErrRunNotFound) {
		t.Fatalf("EndRun(missing) error = %v, want ErrRunNotFound", err)
	}

	got, err := repo.GetRun(ctx, 2)
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if got.TimeO2End == nil || !got.TimeO2End.Equal(end) {
		t.Fatalf("time_o2_end = %v, want %v", got.TimeO2End, end)
	}
	if got.RunQuality != "good" {
		t.Fatalf("run quality = %q, want good", got.RunQuality)
	}

	runs, total, err := repo.ListRuns(ctx, ports.RunFilter{Page: logbook.Page{Size: 2, Number: 1}})
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if total != 3 {
		t.Fatalf("total = %d, want 3", total)
	}
	if len(runs) != 2 || runs[0].RunNumber != 3 || runs[1].RunNumber != 2 {
		t.Fatalf("ListRuns() = %+v, want runs 3,2", runs)
	}

	runs, _, err = repo.ListRuns(ctx, ports.RunFilter{Page: logbook.Page{Size: 2, Number: 2}, OrderDirection: "asc"})
	if err != nil {
		t.Fatalf("ListRuns(page 2) error = %v", err)
	}
	if len(runs) != 1 || runs[0].RunNumber != 3 {
		t.Fatalf("ListRuns(page 2 asc) = %+v, want run 3", runs)
	}
}

func TestFlpRoleRepositorySumsCounters(t *testing.T) {
	db := setupDB(t)
	runs := NewRunRepository(db)
	repo := NewFlpRoleRepository(db)
	ctx := context.Background()
	createTestRun(t, runs, 42)

	for _, name := range []string{"flp-1", "flp-2"} {
		if _, err := repo.CreateFlpRole(ctx, ports.FlpRole{FlpName: name, RunNumber: 42, FlpHostname: name + ".cern.ch"}); err != nil {
			t.Fatalf("CreateFlpRole(%s) error = %v", name, err)
		}
	}
	if _, err := repo.CreateFlpRole(ctx, ports.FlpRole{FlpName: "flp-1", RunNumber: 42}); !errors.Is(err, logbook.ErrFlpRoleExists) {
		t.Fatalf("CreateFlpRole(duplicate) error = %v, want ErrFlpRoleExists", err)
	}

	if err := repo.UpdateFlpCounters(ctx, "flp-1", 42, logbook.FlpCounters{BytesReadOut: 1000, NumberOfSubtimeframes: 5}); err != nil {
		t.Fatalf("UpdateFlpCounters(flp-1) error = %v", err)
	}
	if err := repo.UpdateFlpCounters(ctx, "flp-2", 42, logbook.FlpCounters{BytesReadOut: 2000, NumberOfSubtimeframes: 7, NumberOfTimeframes: 1}); err != nil {
		t.Fatalf("UpdateFlpCounters(flp-2) error = %v", err)
	}

	totals, err := repo.SumFlpCounters(ctx, 42)
	if err != nil {
		t.Fatalf("SumFlpCounters() error = %v", err)
	}
	want := logbook.RunTotals{NumberOfFlps: 2, BytesReadOut: 3000, NumberOfSubtimeframes: 12, NumberOfTimeframes: 1}
	if totals != want {
		t.Fatalf("SumFlpCounters() = %+v, want %+v", totals, want)
	}

	empty, err := repo.SumFlpCounters(ctx, 43)
	if err != nil {
		t.Fatalf("SumFlpCounters(empty) error = %v", err)
	}
	if empty != (logbook.RunTotals{}) {
		t.Fatalf("SumFlpCounters(empty) = %+v, want zero", empty)
	}

	roles, err := repo.ListFlpRolesByRun(ctx, 42)
	if err != nil {
		t.Fatalf("ListFlpRolesByRun() error = %v", err)
	}
	if len(roles) != 2 || roles[0].FlpName != "flp-1" || roles[0].Counters.BytesReadOut != 1000 {
		t.Fatalf("ListFlpRolesByRun() = %+v", roles)
	}

	if _, err := repo.GetFlpRole(ctx, "flp-9", 42); !errors.Is(err, logbook.ErrFlpRoleNotFound) {
		t.Fatalf("GetFlpRole(missing) error = %v, want ErrFlpRoleNotFound", err)
	}
}

func TestDetectorRepositoryUpsertOverwritesQuality(t *testing.T) {
	db := setupDB(t)
	runs := NewRunRepository(db)
	repo := NewDetectorRepository(db)
	ctx := context.Background()
	createTestRun(t, runs, 42)

	if err := repo.CreateDetector(ctx, ports.Detector{DetectorID: 1, DetectorName: "TPC"}); err != nil {
		t.Fatalf("CreateDetector() error = %v", err)
	}
	if err := repo.CreateDetector(ctx, ports.Detector{DetectorID: 1, DetectorName: "ITS"}); !errors.Is(err, logbook.ErrDetectorExists) {
		t.Fatalf("CreateDetector(duplicate) error = %v, want ErrDetectorExists", err)
	}

	found, ok, err := repo.FindDetectorByName(ctx, "TPC")
	if err != nil || !ok || found.DetectorID != 1 {
		t.Fatalf("FindDetectorByName() = %+v, %v, %v", found, ok, err)
	}

	if err := repo.UpsertDetectorInRun(ctx, 42, 1, "test"); err != nil {
		t.Fatalf("UpsertDetectorInRun() error = %v", err)
	}
	if err := repo.UpsertDetectorInRun(ctx, 42, 1, "good"); err != nil {
		t.Fatalf("UpsertDetectorInRun(relink) error = %v", err)
	}

	linked, err := repo.ListDetectorsInRun(ctx, 42)
	if err != nil {
		t.Fatalf("ListDetectorsInRun() error = %v", err)
	}
	if len(linked) != 1 {
		t.Fatalf("len(linked) = %d, want 1", len(linked))
	}
	if linked[0].RunQuality != "good" || linked[0].Detector.DetectorName != "TPC" {
		t.Fatalf("linked[0] = %+v", linked[0])
	}
}

func TestLogRepositoryLinksAreIdempotent(t *testing.T) {
	db := setupDB(t)
	runs := NewRunRepository(db)
	repo := NewLogRepository(db)
	ctx := context.Background()
	createTestRun(t, runs, 42)
	createTestRun(t, runs, 43)

	created, err := repo.CreateLog(ctx, ports.Log{
		Title:     "Beam dump",
		Body:      "Lost beam at 10:02",
		Subtype:   logbook.SubtypeRun,
		Origin:    logbook.OriginHuman,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateLog() error = %v", err)
	}
	if created.LogID == 0 {
		t.Fatalf("CreateLog() log id = 0")
	}

	for i := 0; i < 2; i++ {
		if err := repo.LinkLogRun(ctx, created.LogID, 42); err != nil {
			t.Fatalf("LinkLogRun() attempt %d error = %v", i+1, err)
		}
	}
	if err := repo.LinkLogRun(ctx, created.LogID, 43); err != nil {
		t.Fatalf("LinkLogRun(43) error = %v", err)
	}

	logs, err := repo.ListLogsByRun(ctx, 42)
	if err != nil {
		t.Fatalf("ListLogsByRun() error = %v", err)
	}
	if len(logs) != 1 || logs[0].Title != "Beam dump" {
		t.Fatalf("ListLogsByRun() = %+v", logs)
	}

	linkedRuns, err := repo.ListRunsByLog(ctx, created.LogID)
	if err != nil {
		t.Fatalf("ListRunsByLog() error = %v", err)
	}
	if len(linkedRuns) != 2 || linkedRuns[0].RunNumber != 42 || linkedRuns[1].RunNumber != 43 {
		t.Fatalf("ListRunsByLog() = %+v", linkedRuns)
	}
}

func TestLogRepositoryLinkRequiresExistingRun(t *testing.T) {
	repo := NewLogRepository(setupDB(t))
	ctx := context.Background()

	created, err := repo.CreateLog(ctx, ports.Log{Title: "orphan", Subtype: logbook.SubtypeRun, Origin: logbook.OriginHuman, CreatedAt: time.Now().UTC()})
	if err != nil {
		t.Fatalf("CreateLog() error = %v", err)
	}
	if err := repo.LinkLogRun(ctx, created.LogID, 404); err == nil {
		t.Fatalf("LinkLogRun(missing run) error = nil, want foreign key violation")
	}

	linked, err := repo.ListRunsByLog(ctx, created.LogID)
	if err != nil {
		t.Fatalf("ListRunsByLog() error = %v", err)
	}
	if len(linked) != 0 {
		t.Fatalf("ListRunsByLog() = %+v, want none", linked)
	}
}

func TestLogRepositoryListFilters(t *testing.T) {
	db := setupDB(t)
	runs := NewRunRepository(db)
	repo := NewLogRepository(db)
	ctx := context.Background()
	createTestRun(t, runs, 42)

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	inputs := []ports.Log{
		{Title: "Shift start", Subtype: logbook.SubtypeAnnouncement, Origin: logbook.OriginHuman},
		{Title: "TPC trip", Subtype: logbook.SubtypeRun, Origin: logbook.OriginProcess},
		{Title: "TPC recovered", Subtype: logbook.SubtypeRun, Origin: logbook.OriginHuman},
		{Title: "Efficiency 50% of nominal", Subtype: logbook.SubtypeComment, Origin: logbook.OriginHuman},
		{Title: "Efficiency 500 of_nominal", Subtype: logbook.SubtypeComment, Origin: logbook.OriginHuman},
	}
	var ids []uint64
	for i, in := range inputs {
		in.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		created, err := repo.CreateLog(ctx, in)
		if err != nil {
			t.Fatalf("CreateLog(%q) error = %v", in.Title, err)
		}
		ids = append(ids, created.LogID)
	}
	if err := repo.LinkLogRun(ctx, ids[1], 42); err != nil {
		t.Fatalf("LinkLogRun() error = %v", err)
	}

	testCases := []struct {
		name      string
		filter    ports.LogFilter
		wantTotal int64
		wantFirst string
	}{
		{name: "all newest first", filter: ports.LogFilter{}, wantTotal: 5, wantFirst: "Efficiency 500 of_nominal"},
		{name: "by subtype", filter: ports.LogFilter{Subtype: logbook.SubtypeRun, OrderDirection: "ASC"}, wantTotal: 2, wantFirst: "TPC trip"},
		{name: "by origin", filter: ports.LogFilter{Origin: logbook.OriginProcess}, wantTotal: 1, wantFirst: "TPC trip"},
		{name: "by title", filter: ports.LogFilter{Title: "shift"}, wantTotal: 1, wantFirst: "Shift start"},
		{name: "title percent is literal", filter: ports.LogFilter{Title: "50%"}, wantTotal: 1, wantFirst: "Efficiency 50% of nominal"},
		{name: "title underscore is literal", filter: ports.LogFilter{Title: "of_nominal"}, wantTotal: 1, wantFirst: "Efficiency 500 of_nominal"},
		{name: "title bang is literal", filter: ports.LogFilter{Title: "!"}, wantTotal: 0},
		{name: "by run", filter: ports.LogFilter{RunNumber: 42}, wantTotal: 1, wantFirst: "TPC trip"},
		{name: "order by title", filter: ports.LogFilter{OrderBy: "title", OrderDirection: "asc"}, wantTotal: 5, wantFirst: "Efficiency 50% of nominal"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			filter := testCase.filter
			filter.Page = logbook.NormalizePage(0, 0)
			logs, total, err := repo.ListLogs(ctx, filter)
			if err != nil {
				t.Fatalf("ListLogs() error = %v", err)
			}
			if total != testCase.wantTotal {
				t.Fatalf("total = %d, want %d", total, testCase.wantTotal)
			}
			if testCase.wantTotal == 0 {
				if len(logs) != 0 {
					t.Fatalf("ListLogs() = %+v, want none", logs)
				}
				return
			}
			if len(logs) == 0 || logs[0].Title != testCase.wantFirst {
				t.Fatalf("first = %+v, want %q", logs, testCase.wantFirst)
			}
		})
	}

	_, _, err := repo.ListLogs(ctx, ports.LogFilter{OrderBy: "body", Page: logbook.NormalizePage(0, 0)})
	if errs.KindOf(err) != errs.KindValidation {
		t.Fatalf("ListLogs(order by body) kind = %q, want validation", errs.KindOf(err))
	}
}

func TestAttachmentRepositoryKeepsBytesAndOrder(t *testing.T) {
	db := setupDB(t)
	logs := NewLogRepository(db)
	repo := NewAttachmentRepository(db)
	ctx := context.Background()

	created, err := logs.CreateLog(ctx, ports.Log{Title: "with files", Subtype: logbook.SubtypeRun, Origin: logbook.OriginHuman, CreatedAt: time.Now().UTC()})
	if err != nil {
		t.Fatalf("CreateLog() error = %v", err)
	}

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	payloads := [][]byte{{0x00, 0x01, 0xff}, []byte("second")}
	for i, data := range payloads {
		if _, err := repo.CreateAttachment(ctx, ports.Attachment{
			LogID:     created.LogID,
			FileName:  "file.bin",
			FileMime:  "application/octet-stream",
			FileData:  data,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}); err != nil {
			t.Fatalf("CreateAttachment(%d) error = %v", i, err)
		}
	}

	items, err := repo.ListAttachmentsByLog(ctx, created.LogID)
	if err != nil {
		t.Fatalf("ListAttachmentsByLog() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}
	if !bytes.Equal(items[0].FileData, payloads[0]) || items[0].FileSize != 3 {
		t.Fatalf("items[0] = %+v", items[0])
	}
	if string(items[1].FileData) != "second" {
		t.Fatalf("items[1] data = %q", items[1].FileData)
	}

	count, err := repo.CountAttachmentsByLog(ctx, created.LogID)
	if err != nil || count != 2 {
		t.Fatalf("CountAttachmentsByLog() = %d, %v", count, err)
	}
}

func TestSubSystemRepositoryPermissions(t *testing.T) {
	repo := NewSubSystemRepository(setupDB(t))
	ctx := context.Background()

	user, err := repo.EnsureUser(ctx, "cern:1234", "Alice")
	if err != nil {
		t.Fatalf("EnsureUser() error = %v", err)
	}
	again, err := repo.EnsureUser(ctx, "cern:1234", "Renamed")
	if err != nil {
		t.Fatalf("EnsureUser(again) error = %v", err)
	}
	if again.UserID != user.UserID || again.Name != "Alice" {
		t.Fatalf("EnsureUser(again) = %+v, want %+v", again, user)
	}

	subSystem, err := repo.EnsureSubSystem(ctx, "TPC")
	if err != nil {
		t.Fatalf("EnsureSubSystem() error = %v", err)
	}

	created, err := repo.CreatePermission(ctx, ports.SubSystemPermission{
		UserID:           user.UserID,
		SubSystem:        subSystem,
		TokenHash:        "hash",
		TokenDescription: "shifter token",
		IsMember:         true,
		CreatedAt:        time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreatePermission() error = %v", err)
	}

	got, err := repo.GetPermission(ctx, created.PermissionID)
	if err != nil {
		t.Fatalf("GetPermission() error = %v", err)
	}
	if got.SubSystem.Name != "TPC" || got.TokenHash != "hash" || !got.IsMember {
		t.Fatalf("GetPermission() = %+v", got)
	}

	list, err := repo.ListPermissionsByUser(ctx, user.UserID)
	if err != nil {
		t.Fatalf("ListPermissionsByUser() error = %v", err)
	}
	if len(list) != 1 || list[0].TokenDescription != "shifter token" {
		t.Fatalf("ListPermissionsByUser() = %+v", list)
	}

	if _, err := repo.GetPermission(ctx, created.PermissionID+1); errs.KindOf(err) != errs.KindNotFound {
		t.Fatalf("GetPermission(missing) kind = %q, want not_found", errs.KindOf(err))
	}
	if _, err := repo.GetUser(ctx, 999); !errors.Is(err, logbook.ErrUserNotFound) {
		t.Fatalf("GetUser(missing) error = %v, want ErrUserNotFound", err)
	}
}
