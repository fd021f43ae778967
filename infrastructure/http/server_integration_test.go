package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"scanlog/frontend/query"
	"scanlog/frontend/scan"
	"scanlog/frontend/shared/notify"
	"scanlog/infrastructure/apiclient"
	"scanlog/infrastructure/audit"
	"scanlog/infrastructure/config"
	"scanlog/infrastructure/sqlite"
)

var fixedNow = time.Date(2026, 6, 1, 8, 15, 30, 0, time.UTC)

type integrationEnv struct {
	server *httptest.Server
	db     *sqlite.DB
}

func testConfig() config.Config {
	return config.Config{
		Server: config.ServerConfig{
			Addr:            "127.0.0.1:0",
			ShutdownTimeout: time.Second,
			RequestTimeout:  10 * time.Second,
			TimeZone:        "UTC",
		},
		API: config.APIConfig{
			BaseURL:       "http://scanlog-api:8080",
			PublicBaseURL: "https://scans.example.com/",
			Timeout:       5 * time.Second,
		},
		Scanner: config.ScannerConfig{
			Debounce:      2 * time.Second,
			FocusInterval: 100 * time.Millisecond,
		},
		CORS:    config.CORSConfig{AllowedOrigins: []string{"https://station.example.com"}},
		Logging: config.LoggingConfig{Level: "error", Format: "text"},
	}
}

func setupIntegrationServer(t *testing.T, cfg config.Config) *integrationEnv {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "server-integration.db")
	db, err := sqlite.OpenDB(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime caller unavailable")
	}
	migrationsDir := filepath.Join(filepath.Dir(file), "..", "sqlite", "migrations")
	if err := sqlite.ApplyMigrations(context.Background(), db, migrationsDir); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	s := NewServer(cfg, db, audit.NewService(), WithClock(func() time.Time { return fixedNow }))
	ts := httptest.NewServer(s.Handler())
	env := &integrationEnv{server: ts, db: db}
	t.Cleanup(func() {
		env.server.Close()
		_ = env.db.Close()
	})
	return env
}

func noRedirectClient() *http.Client {
	return &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(b)
}

type stationView struct {
	mu      sync.Mutex
	focused bool
	clears  int
}

func (v *stationView) Focused() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.focused
}

func (v *stationView) Focus() {
	v.mu.Lock()
	v.focused = true
	v.mu.Unlock()
}

func (v *stationView) ClearInput() {
	v.mu.Lock()
	v.clears++
	v.mu.Unlock()
}

func TestHealthRootAndPages(t *testing.T) {
	env := setupIntegrationServer(t, testConfig())
	client := noRedirectClient()

	resp, err := client.Get(env.server.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	if body := readBody(t, resp); resp.StatusCode != http.StatusOK || body != "ok" {
		t.Fatalf("health = %d %q", resp.StatusCode, body)
	}
	if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("missing secure headers")
	}

	resp, err = client.Get(env.server.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/scan" {
		t.Fatalf("root = %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}

	for _, path := range []string{"/scan", "/query", "/help"} {
		resp, err := client.Get(env.server.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		body := readBody(t, resp)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("GET %s = %d", path, resp.StatusCode)
		}
		if !strings.Contains(body, `<meta name="api-base" content="https://scans.example.com">`) {
			t.Fatalf("%s does not embed the public api base", path)
		}
		if strings.Contains(body, "scanlog-api") {
			t.Fatalf("%s leaked the internal api host", path)
		}
	}

	for _, asset := range []string{"/assets/app.css", "/assets/app.js", "/assets/scan.js", "/assets/query.js"} {
		resp, err := client.Get(env.server.URL + asset)
		if err != nil {
			t.Fatalf("GET %s: %v", asset, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("GET %s = %d", asset, resp.StatusCode)
		}
	}
}

func TestScanStation_DuplicateScenario(t *testing.T) {
	env := setupIntegrationServer(t, testConfig())
	api := apiclient.New(env.server.URL, apiclient.WithClientID("station-1"))
	view := &stationView{}
	rec := &notify.Recorder{}
	sub := scan.NewSubmitter(api, view, rec, scan.Options{Location: time.UTC, Now: func() time.Time { return fixedNow }})
	sub.Mount(context.Background())
	defer sub.Unmount()

	for i := 0; i < 2; i++ {
		sub.SetValue("ABC123")
		if err := sub.PressEnter(); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}

	all := rec.All()
	if len(all) != 2 {
		t.Fatalf("expected two notifications, got %+v", all)
	}
	if all[0].Level != notify.LevelSuccess || all[1].Level != notify.LevelWarning {
		t.Fatalf("unexpected levels %+v", all)
	}
	if !strings.Contains(all[1].Message, "already recorded at 2026-06-01 08:15:30") {
		t.Fatalf("duplicate message = %q", all[1].Message)
	}
	recent := sub.Recent()
	if len(recent) != 2 || !recent[0].IsDuplicate || recent[1].IsDuplicate {
		t.Fatalf("unexpected recent activity %+v", recent)
	}

	list, err := api.ListScans(context.Background(), apiclient.ScanQuery{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if list.Total != 1 || list.Scans[0].Barcode != "ABC123" {
		t.Fatalf("expected one stored record, got %+v", list)
	}

	var auditRows int
	if err := env.db.ReadSQL.QueryRow(`SELECT COUNT(*) FROM audit_logs WHERE client_id = 'station-1'`).Scan(&auditRows); err != nil {
		t.Fatalf("count audit rows: %v", err)
	}
	if auditRows != 1 {
		t.Fatalf("audit rows = %d, want 1", auditRows)
	}

	sub.SetValue("   ")
	if err := sub.PressEnter(); !errors.Is(err, scan.ErrInvalidBarcode) {
		t.Fatalf("blank submit err = %v", err)
	}
}

func TestQueryScreen_ListExportClear(t *testing.T) {
	env := setupIntegrationServer(t, testConfig())
	api := apiclient.New(env.server.URL)
	ctx := context.Background()

	for _, code := range []string{"PAL-001", "PAL-002", "BOX-001"} {
		if _, err := api.CreateScan(ctx, apiclient.CreateScanRequest{Barcode: code}); err != nil {
			t.Fatalf("create %s: %v", code, err)
		}
	}

	rec := &notify.Recorder{}
	dir := t.TempDir()
	p := query.NewPipeline(api, rec, query.FileSaver{Dir: dir}, query.Options{Location: time.UTC, Now: func() time.Time { return fixedNow }})

	barcode := "PAL"
	if err := p.SetFilter(ctx, query.FilterPatch{Barcode: &barcode}); err != nil {
		t.Fatalf("set filter: %v", err)
	}
	st := p.State()
	if st.Total != 2 || len(st.Scans) != 2 || st.Scans[0].Barcode != "PAL-002" {
		t.Fatalf("unexpected filtered state %+v", st)
	}

	path, err := p.Export(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if filepath.Base(path) != "barcode_scans_20260601_081530.xlsx" {
		t.Fatalf("export path = %q", path)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	book, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	rows, err := book.GetRows("Scans")
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("export should hold header plus two filtered rows, got %d", len(rows))
	}

	if err := p.ConfirmClear(ctx); !errors.Is(err, query.ErrClearNotRequested) {
		t.Fatalf("unconfirmed clear err = %v", err)
	}
	p.RequestClear()
	if err := p.ConfirmClear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if last, _ := rec.Last(); last.Message != "cleared 3 records" {
		t.Fatalf("clear message = %q", last.Message)
	}
	if st := p.State(); st.Total != 0 || len(st.Scans) != 0 || st.ConfirmingClear {
		t.Fatalf("unexpected state after clear %+v", st)
	}
}

func TestScanFilesAndErrors(t *testing.T) {
	env := setupIntegrationServer(t, testConfig())
	api := apiclient.New(env.server.URL)
	ctx := context.Background()

	created, err := api.CreateScan(ctx, apiclient.CreateScanRequest{Barcode: "LBL-42", Notes: "fragile"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	id := created.Scan.ID

	got, err := api.GetScan(ctx, id)
	if err != nil || got.Barcode != "LBL-42" {
		t.Fatalf("get = %+v, %v", got, err)
	}

	checks := map[string]string{
		"/barcode.png": "image/png",
		"/label.pdf":   "application/pdf",
	}
	for suffix, ctype := range checks {
		dl, err := api.Download(ctx, env.server.URL+"/api/scans/"+strconv.FormatInt(id, 10)+suffix)
		if err != nil {
			t.Fatalf("download %s: %v", suffix, err)
		}
		if !strings.HasPrefix(dl.ContentType, ctype) || len(dl.Body) == 0 {
			t.Fatalf("%s content type = %q", suffix, dl.ContentType)
		}
	}

	_, err = api.GetScan(ctx, id+100)
	var apiErr *apiclient.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
		t.Fatalf("missing scan err = %v", err)
	}

	resp, err := http.Get(env.server.URL + "/api/scans?start_date=2026-13-40")
	if err != nil {
		t.Fatalf("GET bad date: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("bad date status = %d", resp.StatusCode)
	}
}

func TestAPI_CORSPreflight(t *testing.T) {
	env := setupIntegrationServer(t, testConfig())

	req, _ := http.NewRequest(http.MethodOptions, env.server.URL+"/api/scans", nil)
	req.Header.Set("Origin", "https://station.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type, X-Client-ID")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("preflight: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "https://station.example.com" {
		t.Fatalf("allow origin = %q", got)
	}

	req.Header.Set("Origin", "https://evil.example.com")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("preflight: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("unexpected allow origin %q", got)
	}
}

func TestAPI_RateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 2}
	env := setupIntegrationServer(t, cfg)

	var last int
	for i := 0; i < 3; i++ {
		resp, err := http.Get(env.server.URL + "/api/scans")
		if err != nil {
			t.Fatalf("GET: %v", err)
		}
		resp.Body.Close()
		last = resp.StatusCode
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d, want 429", last)
	}

	resp, err := http.Get(env.server.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health should not be rate limited, got %d", resp.StatusCode)
	}
}

func TestExport_ValidationMessageReachesClient(t *testing.T) {
	env := setupIntegrationServer(t, testConfig())
	api := apiclient.New(env.server.URL)

	_, err := api.Download(context.Background(), env.server.URL+"/api/scans/export?start_date=2026-13-40")
	var apiErr *apiclient.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 APIError, got %v", err)
	}
	want := `invalid start_date "2026-13-40": expected YYYY-MM-DD`
	if got := apiclient.UserMessage(err, "export failed"); got != want {
		t.Fatalf("user message = %q, want %q", got, want)
	}
}
