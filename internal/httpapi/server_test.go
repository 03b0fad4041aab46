package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"jiskefet/internal/infrastructure/persistence/sqlite/model"
	sqliterepo "jiskefet/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "jiskefet/internal/infrastructure/persistence/sqlite/uow"
	"jiskefet/internal/usecase/logbook"
)

const testSecret = "test-secret"

type recordingSink struct {
	mu       sync.Mutex
	messages []string
}

func (s *recordingSink) Record(_ context.Context, _ string, message string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, message)
	return true
}

func (s *recordingSink) snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.messages...)
}

type testServer struct {
	handler http.Handler
	db      *gorm.DB
	sink    *recordingSink
	tokens  *logbook.TokenService
}

func setupServer(t *testing.T) testServer {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "api.sqlite") + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
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

	uow := sqliteuow.NewUnitOfWork(db)
	runs := sqliterepo.NewRunRepository(db)
	flps := sqliterepo.NewFlpRoleRepository(db)
	detectors := sqliterepo.NewDetectorRepository(db)
	logs := sqliterepo.NewLogRepository(db)
	attachments := sqliterepo.NewAttachmentRepository(db)
	sink := &recordingSink{}
	settings := logbook.Settings{RunQualities: []string{"test", "good", "bad"}}

	tokens := logbook.NewTokenService(uow, sqliterepo.NewSubSystemRepository(db))
	services := Services{
		Runs:        logbook.NewRunService(uow, runs, flps, detectors, nil),
		Flps:        logbook.NewFlpRoleAggregator(uow, runs, flps, nil, settings),
		Detectors:   logbook.NewDetectorLinker(uow, runs, detectors, settings),
		Registry:    logbook.NewDetectorRegistry(uow, detectors),
		Logs:        logbook.NewLogService(logs, attachments, sink),
		LogRuns:     logbook.NewLogRunLinker(uow, runs, logs),
		Attachments: logbook.NewAttachmentLinker(uow, logs, attachments, sink),
		Tokens:      tokens,
	}
	server, err := NewServer(services, sink, Options{JWTSecret: testSecret})
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	return testServer{handler: server.Handler(), db: db, sink: sink, tokens: tokens}
}

func bearer(t *testing.T, userID uint64) string {
	t.Helper()

	token, err := GenerateToken(userID, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	return token
}

type testResponse struct {
	Data   json.RawMessage `json:"data"`
	Meta   map[string]any  `json:"meta"`
	Errors []apiError      `json:"errors"`
}

func do(t *testing.T, handler http.Handler, method string, path string, body string, token string) (int, testResponse) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var out testResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("%s %s: decode body %q: %v", method, path, rec.Body.String(), err)
	}
	return rec.Code, out
}

func mustDo(t *testing.T, handler http.Handler, method string, path string, body string, token string, want int) testResponse {
	t.Helper()

	status, out := do(t, handler, method, path, body, token)
	if status != want {
		t.Fatalf("%s %s status = %d, want %d; errors=%+v", method, path, status, want, out.Errors)
	}
	return out
}

func TestHealthzAndAuth(t *testing.T) {
	env := setupServer(t)

	mustDo(t, env.handler, http.MethodGet, "/healthz", "", "", http.StatusOK)

	status, out := do(t, env.handler, http.MethodGet, "/runs", "", "")
	if status != http.StatusUnauthorized || len(out.Errors) != 1 || out.Errors[0].Status != "401" {
		t.Fatalf("GET /runs without token = %d %+v", status, out)
	}

	expired, err := GenerateToken(1, testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if status, _ := do(t, env.handler, http.MethodGet, "/runs", "", expired); status != http.StatusUnauthorized {
		t.Fatalf("GET /runs with expired token = %d", status)
	}

	forged, err := GenerateToken(1, "other-secret", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if status, _ := do(t, env.handler, http.MethodGet, "/runs", "", forged); status != http.StatusUnauthorized {
		t.Fatalf("GET /runs with forged token = %d", status)
	}
}

func TestRunTotalsOverHTTP(t *testing.T) {
	env := setupServer(t)
	token := bearer(t, 1)

	mustDo(t, env.handler, http.MethodPost, "/runs", `{"runNumber":42,"timeO2Start":"2026-03-01T10:00:00Z","timeTrgStart":"2026-03-01T10:00:01Z","runType":"PHYSICS"}`, token, http.StatusCreated)
	mustDo(t, env.handler, http.MethodPost, "/flp", `{"flpName":"flp-1","flpHostname":"host-a","runNumber":42}`, token, http.StatusCreated)
	mustDo(t, env.handler, http.MethodPatch, "/flp/flp-1/runs/42", `{"bytesReadOut":1000,"nSubtimeframes":5}`, token, http.StatusOK)
	mustDo(t, env.handler, http.MethodPost, "/flp", `{"flpName":"flp-2","flpHostname":"host-b","runNumber":42}`, token, http.StatusCreated)
	mustDo(t, env.handler, http.MethodPatch, "/flp/flp-2/runs/42", `{"bytesReadOut":2000,"nSubtimeframes":7}`, token, http.StatusOK)

	out := mustDo(t, env.handler, http.MethodGet, "/runs/42", "", token, http.StatusOK)
	var run runDetailResponse
	if err := json.Unmarshal(out.Data, &run); err != nil {
		t.Fatalf("decode run: %v", err)
	}
	if run.BytesReadOut != 3000 || run.NumberOfSubtimeframes != 12 || run.NumberOfFlps != 2 {
		t.Fatalf("run totals = bytes %d subtimeframes %d flps %d", run.BytesReadOut, run.NumberOfSubtimeframes, run.NumberOfFlps)
	}
	if len(run.FlpRoles) != 2 {
		t.Fatalf("flp roles = %+v", run.FlpRoles)
	}

	out = mustDo(t, env.handler, http.MethodGet, "/flp/flp-2/runs/42", "", token, http.StatusOK)
	var flp flpResponse
	if err := json.Unmarshal(out.Data, &flp); err != nil {
		t.Fatalf("decode flp: %v", err)
	}
	if flp.FlpHostname != "host-b" || flp.BytesReadOut != 2000 {
		t.Fatalf("flp = %+v", flp)
	}

	out = mustDo(t, env.handler, http.MethodGet, "/runs?pageSize=10", "", token, http.StatusOK)
	if out.Meta["total"] != float64(1) {
		t.Fatalf("meta = %+v", out.Meta)
	}
}

func TestErrorEnvelope(t *testing.T) {
	env := setupServer(t)
	token := bearer(t, 1)
	mustDo(t, env.handler, http.MethodPost, "/runs", `{"runNumber":7,"timeO2Start":"2026-03-01T10:00:00Z","timeTrgStart":"2026-03-01T10:00:00Z"}`, token, http.StatusCreated)
	mustDo(t, env.handler, http.MethodPost, "/flp", `{"flpName":"flp-1","flpHostname":"host-a","runNumber":7}`, token, http.StatusCreated)

	testCases := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		title  string
	}{
		{name: "missing run", method: http.MethodGet, path: "/runs/8", status: http.StatusNotFound, title: "not_found"},
		{name: "bad run number", method: http.MethodGet, path: "/runs/abc", status: http.StatusBadRequest, title: "validation"},
		{name: "duplicate flp", method: http.MethodPost, path: "/flp", body: `{"flpName":"flp-1","flpHostname":"other","runNumber":7}`, status: http.StatusConflict, title: "conflict"},
		{name: "patch missing flp", method: http.MethodPatch, path: "/flp/flp-9/runs/7", body: `{"bytesReadOut":1}`, status: http.StatusNotFound, title: "not_found"},
		{name: "negative counter", method: http.MethodPatch, path: "/flp/flp-1/runs/7", body: `{"bytesReadOut":-1}`, status: http.StatusBadRequest, title: "validation"},
		{name: "malformed body", method: http.MethodPost, path: "/logs", body: `{"title":`, status: http.StatusBadRequest, title: "validation"},
		{name: "invalid quality", method: http.MethodPut, path: "/runs/7/detectors/1", body: `{"runQuality":"excellent"}`, status: http.StatusBadRequest, title: "validation"},
		{name: "unknown route", method: http.MethodGet, path: "/nope", status: http.StatusNotFound, title: "not_found"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			status, out := do(t, env.handler, testCase.method, testCase.path, testCase.body, token)
			if status != testCase.status {
				t.Fatalf("status = %d, want %d; body=%+v", status, testCase.status, out)
			}
			if len(out.Errors) != 1 || out.Errors[0].Title != testCase.title || out.Data != nil {
				t.Fatalf("envelope = %+v, want title %q", out, testCase.title)
			}
		})
	}
	if got := env.sink.snapshot(); len(got) != 0 {
		t.Fatalf("client errors wrote diagnostics: %v", got)
	}
}

func TestDetectorLinkOverHTTP(t *testing.T) {
	env := setupServer(t)
	token := bearer(t, 1)
	mustDo(t, env.handler, http.MethodPost, "/runs", `{"runNumber":5,"timeO2Start":"2026-03-01T10:00:00Z","timeTrgStart":"2026-03-01T10:00:00Z"}`, token, http.StatusCreated)
	mustDo(t, env.handler, http.MethodPost, "/detectors", `{"detectorId":4,"detectorName":"TPC"}`, token, http.StatusCreated)

	mustDo(t, env.handler, http.MethodPut, "/runs/5/detectors/4", `{"runQuality":"test"}`, token, http.StatusOK)
	mustDo(t, env.handler, http.MethodPut, "/runs/5/detectors/4", `{"runQuality":"GOOD"}`, token, http.StatusOK)

	out := mustDo(t, env.handler, http.MethodGet, "/runs/5/detectors", "", token, http.StatusOK)
	var links []detectorInRunResponse
	if err := json.Unmarshal(out.Data, &links); err != nil {
		t.Fatalf("decode links: %v", err)
	}
	if len(links) != 1 || links[0].Quality != "good" || links[0].Detector.DetectorName != "TPC" {
		t.Fatalf("links = %+v", links)
	}
}

func TestLogsAndAttachmentsOverHTTP(t *testing.T) {
	env := setupServer(t)
	token := bearer(t, 1)
	mustDo(t, env.handler, http.MethodPost, "/runs", `{"runNumber":9,"timeO2Start":"2026-03-01T10:00:00Z","timeTrgStart":"2026-03-01T10:00:00Z"}`, token, http.StatusCreated)

	out := mustDo(t, env.handler, http.MethodPost, "/logs", `{"title":"beam dump","body":"lost beam at 10:42"}`, token, http.StatusCreated)
	var entry logResponse
	if err := json.Unmarshal(out.Data, &entry); err != nil {
		t.Fatalf("decode log: %v", err)
	}

	for i := 0; i < 2; i++ {
		mustDo(t, env.handler, http.MethodPatch, "/logs/"+formatID(entry.LogID)+"/runs", `{"runNumber":9}`, token, http.StatusOK)
	}
	out = mustDo(t, env.handler, http.MethodGet, "/logs/"+formatID(entry.LogID)+"/runs", "", token, http.StatusOK)
	var runs []runResponse
	if err := json.Unmarshal(out.Data, &runs); err != nil {
		t.Fatalf("decode runs: %v", err)
	}
	if len(runs) != 1 || runs[0].RunNumber != 9 {
		t.Fatalf("runs of log = %+v", runs)
	}

	body := `{"logId":` + formatID(entry.LogID) + `,"fileName":"note.txt","fileMime":"text/plain","fileData":"aGVsbG8="}`
	out = mustDo(t, env.handler, http.MethodPost, "/attachments", body, token, http.StatusCreated)
	var created attachmentResponse
	if err := json.Unmarshal(out.Data, &created); err != nil {
		t.Fatalf("decode attachment: %v", err)
	}
	if created.FileSize != 5 || created.FileData != "base64;aGVsbG8=" {
		t.Fatalf("attachment = %+v", created)
	}

	var stored model.Attachment
	if err := env.db.First(&stored, created.AttachmentID).Error; err != nil {
		t.Fatalf("load attachment: %v", err)
	}
	if string(stored.FileData) != "hello" {
		t.Fatalf("stored payload = %q, want raw bytes", stored.FileData)
	}

	out = mustDo(t, env.handler, http.MethodGet, "/attachments/"+formatID(entry.LogID)+"/logs", "", token, http.StatusOK)
	var listed []attachmentResponse
	if err := json.Unmarshal(out.Data, &listed); err != nil {
		t.Fatalf("decode attachments: %v", err)
	}
	if len(listed) != 1 || listed[0].FileData != "base64;aGVsbG8=" {
		t.Fatalf("attachments = %+v", listed)
	}

	status, failed := do(t, env.handler, http.MethodPost, "/attachments", `{"logId":999,"fileName":"x","fileData":"eA=="}`, token)
	if status != http.StatusBadRequest || failed.Meta["status"] != "failed" {
		t.Fatalf("attachment on unknown log = %d %+v", status, failed)
	}
}

func TestLogCreateStoreFailureRecordsOneDiagnostic(t *testing.T) {
	env := setupServer(t)
	token := bearer(t, 1)

	sqlDB, err := env.db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	if err := sqlDB.Close(); err != nil {
		t.Fatalf("close db: %v", err)
	}

	status, out := do(t, env.handler, http.MethodPost, "/logs", `{"title":"t","body":"b"}`, token)
	if status != http.StatusInternalServerError || out.Errors[0].Title != "persistence" {
		t.Fatalf("POST /logs on closed store = %d %+v", status, out)
	}
	got := env.sink.snapshot()
	if len(got) != 1 || got[0] != "Log is not properly created or saved in the database." {
		t.Fatalf("diagnostics = %v", got)
	}
}

func TestTokensOverHTTP(t *testing.T) {
	env := setupServer(t)
	ctx := context.Background()
	user, err := env.tokens.EnsureUser(ctx, "cern:7", "Shifter")
	if err != nil {
		t.Fatalf("EnsureUser() error = %v", err)
	}
	subSystem, err := env.tokens.EnsureSubSystem(ctx, "ECS")
	if err != nil {
		t.Fatalf("EnsureSubSystem() error = %v", err)
	}

	path := "/users/" + formatID(user.UserID) + "/tokens"
	body := `{"subSystemId":` + formatID(subSystem.SubSystemID) + `,"subSystemTokenDescription":"ecs bot"}`

	mustDo(t, env.handler, http.MethodPost, path, body, bearer(t, user.UserID+1), http.StatusForbidden)

	out := mustDo(t, env.handler, http.MethodPost, path, body, bearer(t, user.UserID), http.StatusCreated)
	var issued struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(out.Data, &issued); err != nil {
		t.Fatalf("decode token: %v", err)
	}
	if issued.Token == "" {
		t.Fatalf("issued token is empty")
	}

	out = mustDo(t, env.handler, http.MethodGet, path, "", "", http.StatusOK)
	if strings.Contains(string(out.Data), issued.Token) || strings.Contains(string(out.Data), "$2a$") {
		t.Fatalf("token listing leaks secrets: %s", out.Data)
	}
	var listed []permissionResponse
	if err := json.Unmarshal(out.Data, &listed); err != nil {
		t.Fatalf("decode tokens: %v", err)
	}
	if len(listed) != 1 || listed[0].SubSystemName != "ECS" || listed[0].Description != "ecs bot" {
		t.Fatalf("tokens = %+v", listed)
	}
}

func formatID(id uint64) string {
	return strconv.FormatUint(id, 10)
}
