package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"scanlog/infrastructure/apiclient"
	"scanlog/infrastructure/config"
	"scanlog/models"
)

type fakeBackend struct {
	mu      sync.Mutex
	scans   []models.Scan
	cleared int
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")

	switch r.Method {
	case http.MethodPost:
		var req apiclient.CreateScanRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		for _, s := range b.scans {
			if s.Barcode == req.Barcode {
				_ = json.NewEncoder(w).Encode(apiclient.CreateScanResponse{Scan: s, IsDuplicate: true, Message: "barcode " + s.Barcode + " already recorded"})
				return
			}
		}
		s := models.Scan{ID: int64(len(b.scans) + 1), Barcode: req.Barcode, ScannedAt: time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)}
		b.scans = append([]models.Scan{s}, b.scans...)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(apiclient.CreateScanResponse{Scan: s, Message: "scan recorded"})
	case http.MethodGet:
		_ = json.NewEncoder(w).Encode(apiclient.ListScansResponse{Scans: b.scans, Total: len(b.scans)})
	case http.MethodDelete:
		b.cleared++
		n := len(b.scans)
		b.scans = nil
		_ = json.NewEncoder(w).Encode(apiclient.ClearResponse{Message: "cleared " + strconv.Itoa(n) + " records"})
	}
}

func (b *fakeBackend) Scans() []models.Scan {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.Scan(nil), b.scans...)
}

func (b *fakeBackend) Cleared() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cleared
}

func newTestStation(t *testing.T, stdin string) (*station, *bytes.Buffer, *fakeBackend) {
	t.Helper()
	backend := &fakeBackend{}
	ts := httptest.NewServer(backend)
	t.Cleanup(ts.Close)

	out := &bytes.Buffer{}
	return &station{
		cfg: &config.Config{Scanner: config.ScannerConfig{
			Debounce:      20 * time.Millisecond,
			FocusInterval: 10 * time.Millisecond,
			ExportDir:     t.TempDir(),
		}},
		api: apiclient.New(ts.URL, apiclient.WithClientID("test-station")),
		in:  strings.NewReader(stdin),
		out: out,
		loc: time.UTC,
		now: func() time.Time { return time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC) },
	}, out, backend
}

func TestRunScan_EnterPerLine(t *testing.T) {
	st, out, backend := newTestStation(t, "ABC123\n\nABC123\nXYZ\n")

	if err := st.run(context.Background(), "scan", nil); err != nil {
		t.Fatalf("scan: %v", err)
	}
	got := out.String()
	for _, want := range []string{
		"[SUCCESS] scan recorded",
		"[ERROR] please enter a valid barcode",
		"[WARNING] barcode ABC123 already recorded",
		"duplicate",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("output missing %q:\n%s", want, got)
		}
	}
	if n := len(backend.Scans()); n != 2 {
		t.Fatalf("stored %d scans, want 2", n)
	}
}

func TestRunScan_AutoSubmitsLastValue(t *testing.T) {
	st, out, backend := newTestStation(t, "PARTIAL\nFULL-CODE\n")

	if err := st.run(context.Background(), "scan", []string{"-auto"}); err != nil {
		t.Fatalf("scan: %v", err)
	}
	scans := backend.Scans()
	if len(scans) != 1 || scans[0].Barcode != "FULL-CODE" {
		t.Fatalf("expected only the last value submitted, got %+v\n%s", scans, out.String())
	}
	// The notification and the recent table must both be written before run returns.
	got := out.String()
	if !strings.Contains(got, "[SUCCESS] scan recorded") || !strings.Contains(got, "BARCODE") {
		t.Fatalf("auto scan output incomplete:\n%s", got)
	}
	if strings.Index(got, "[SUCCESS]") > strings.Index(got, "BARCODE") {
		t.Fatalf("notification printed after the recent table:\n%s", got)
	}
}

func TestRunList_PrintsPage(t *testing.T) {
	st, out, backend := newTestStation(t, "")
	backend.scans = []models.Scan{{ID: 1, Barcode: "PAL-1", ScannedAt: time.Date(2026, 5, 30, 7, 0, 0, 0, time.UTC)}}

	if err := st.run(context.Background(), "list", []string{"-range", "week"}); err != nil {
		t.Fatalf("list: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "PAL-1") || !strings.Contains(got, "2026-05-30 07:00:00") || !strings.Contains(got, "page 1 of 1 (1 records)") {
		t.Fatalf("unexpected output:\n%s", got)
	}

	if err := st.run(context.Background(), "list", []string{"-page", "0"}); err == nil {
		t.Fatalf("expected error for page 0")
	}
}

func TestRunClear_RequiresYes(t *testing.T) {
	st, out, backend := newTestStation(t, "no\n")
	backend.scans = []models.Scan{{ID: 1, Barcode: "A"}}

	if err := st.run(context.Background(), "clear", nil); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if backend.Cleared() != 0 || !strings.Contains(out.String(), "cancelled") {
		t.Fatalf("clear ran without confirmation")
	}

	if err := st.run(context.Background(), "clear", []string{"-yes"}); err != nil {
		t.Fatalf("clear -yes: %v", err)
	}
	if backend.Cleared() != 1 || !strings.Contains(out.String(), "cleared 1 records") {
		t.Fatalf("clear -yes did not clear:\n%s", out.String())
	}
}

func TestFilterFlags_Patch(t *testing.T) {
	now := time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC)

	ff := filterFlags{preset: "week", to: "2026-06-08", barcode: "  PAL "}
	patch, err := ff.patch(now, time.UTC)
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	if *patch.Barcode != "PAL" {
		t.Fatalf("barcode = %q", *patch.Barcode)
	}
	if got := patch.StartDate.Format("2006-01-02"); got != "2026-06-03" {
		t.Fatalf("start = %s", got)
	}
	if got := patch.EndDate.Format("2006-01-02"); got != "2026-06-08" {
		t.Fatalf("end = %s", got)
	}

	if _, err := (&filterFlags{preset: "decade"}).patch(now, time.UTC); err == nil {
		t.Fatalf("expected error for unknown range")
	}
	if _, err := (&filterFlags{from: "06/01/2026"}).patch(now, time.UTC); err == nil {
		t.Fatalf("expected error for bad date")
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	st, _, _ := newTestStation(t, "")
	if err := st.run(context.Background(), "frobnicate", nil); err != errUsage {
		t.Fatalf("err = %v", err)
	}
}
