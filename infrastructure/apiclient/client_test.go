package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"scanlog/models"
)

func TestScanQueryValues_OmitsEmptyFields(t *testing.T) {
	v := ScanQuery{Barcode: "  "}.Values()
	if v.Has("barcode") || v.Has("start_date") || v.Has("end_date") || v.Has("skip") {
		t.Fatalf("expected no params, got %q", v.Encode())
	}

	start := time.Date(2026, 3, 1, 17, 45, 0, 0, time.FixedZone("X", 5*3600))
	v = ScanQuery{Barcode: "AB", StartDate: start, Page: &Page{Skip: 0, Limit: 10}}.Values()
	if got := v.Get("start_date"); got != "2026-03-01" {
		t.Fatalf("start_date = %q, want calendar date", got)
	}
	if v.Get("skip") != "0" || v.Get("limit") != "10" {
		t.Fatalf("unexpected paging params %q", v.Encode())
	}
	if v.Has("end_date") {
		t.Fatalf("end_date should be omitted")
	}
}

func TestListScans_SendsOnlyNonEmptyParams(t *testing.T) {
	var rawQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"scans":[{"id":1,"barcode":"X1","scanned_at":"2026-01-02T03:04:05Z"}],"total":1}`)
	}))
	defer srv.Close()

	c := New(srv.URL + "/")
	out, err := c.ListScans(context.Background(), ScanQuery{Barcode: "", Page: &Page{Skip: 10, Limit: 10}})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if rawQuery != "limit=10&skip=10" {
		t.Fatalf("query = %q", rawQuery)
	}
	if out.Total != 1 || len(out.Scans) != 1 || out.Scans[0].Barcode != "X1" {
		t.Fatalf("unexpected response %+v", out)
	}
}

func TestCreateScan_SendsBodyAndClientID(t *testing.T) {
	var got CreateScanRequest
	var clientID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/scans" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		clientID = r.Header.Get(models.ClientIDHeader)
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(CreateScanResponse{
			Scan:        models.Scan{ID: 7, Barcode: got.Barcode},
			IsDuplicate: true,
			Message:     "barcode ABC123 already recorded",
		})
	}))
	defer srv.Close()

	c := New(srv.URL, WithClientID("station-9"))
	out, err := c.CreateScan(context.Background(), CreateScanRequest{Barcode: "ABC123"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got.Barcode != "ABC123" || got.Notes != "" {
		t.Fatalf("unexpected body %+v", got)
	}
	if clientID != "station-9" {
		t.Fatalf("client id header = %q", clientID)
	}
	if !out.IsDuplicate || out.Scan.ID != 7 {
		t.Fatalf("unexpected response %+v", out)
	}
}

func TestNon2xx_JSONBodyBecomesInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"error":"barcode is required","message":"barcode is required","code":"VALIDATION_ERROR"}`)
	}))
	defer srv.Close()

	_, err := New(srv.URL).CreateScan(context.Background(), CreateScanRequest{Barcode: " "})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T %v", err, err)
	}
	if apiErr.Status != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", apiErr.Status)
	}
	if apiErr.Info["code"] != "VALIDATION_ERROR" || apiErr.Message() != "barcode is required" {
		t.Fatalf("unexpected info %+v", apiErr.Info)
	}
}

func TestNon2xx_NonJSONBodyFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "<html>upstream down</html>")
	}))
	defer srv.Close()

	_, err := New(srv.URL).ClearAll(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T %v", err, err)
	}
	if apiErr.Status != http.StatusBadGateway || apiErr.Message() != genericErrorMessage {
		t.Fatalf("unexpected error %+v", apiErr)
	}
}

func TestTransportErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "not json")
	}))
	_, err := New(srv.URL).ListScans(context.Background(), ScanQuery{})
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected *TransportError for bad body, got %T %v", err, err)
	}
	srv.Close()

	_, err = New(srv.URL).ListScans(context.Background(), ScanQuery{})
	if !errors.As(err, &te) || te.Op != "list scans" {
		t.Fatalf("expected *TransportError for closed server, got %T %v", err, err)
	}
}

func TestExportURL_DropsPagination(t *testing.T) {
	c := New("http://scans.test")
	got := c.ExportURL(ScanQuery{
		Barcode: "A B",
		EndDate: time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC),
		Page:    &Page{Skip: 20, Limit: 10},
	})
	if got != "http://scans.test/api/scans/export?barcode=A+B&end_date=2026-04-30" {
		t.Fatalf("ExportURL = %q", got)
	}
	if got := New("").ExportURL(ScanQuery{}); got != "/api/scans/export" {
		t.Fatalf("same-origin ExportURL = %q", got)
	}
}

func TestDownload_ReadsDispositionFilename(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("barcode") != "AB" {
			t.Errorf("barcode filter lost: %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Disposition", `attachment; filename="barcode_scans_20260102_030405.xlsx"`)
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = io.WriteString(w, "PK")
	}))
	defer srv.Close()

	c := New(srv.URL)
	d, err := c.Download(context.Background(), c.ExportURL(ScanQuery{Barcode: "AB"}))
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if d.Filename != "barcode_scans_20260102_030405.xlsx" || string(d.Body) != "PK" {
		t.Fatalf("unexpected download %+v", d)
	}
}

func TestFilenameFromDisposition(t *testing.T) {
	cases := map[string]string{
		"":                                 "",
		"attachment":                       "",
		`attachment; filename="a b.xlsx"`:  "a b.xlsx",
		"attachment; filename=plain.xlsx":  "plain.xlsx",
	}
	for in, want := range cases {
		if got := FilenameFromDisposition(in); got != want {
			t.Errorf("FilenameFromDisposition(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAPIErrorMessageFallbacks(t *testing.T) {
	e := &APIError{Status: http.StatusNotFound, Info: map[string]any{"detail": "scan not found"}}
	if e.Message() != "scan not found" {
		t.Fatalf("Message() = %q", e.Message())
	}
	e = &APIError{Status: http.StatusInternalServerError}
	if e.Message() != "Internal Server Error" {
		t.Fatalf("Message() = %q", e.Message())
	}
	if !strings.Contains(e.Error(), "500") {
		t.Fatalf("Error() = %q", e.Error())
	}
}

func TestUserMessage(t *testing.T) {
	fallback := "scan failed, please retry"
	if got := UserMessage(&APIError{Status: 422, Info: map[string]any{"message": "barcode is required"}}, fallback); got != "barcode is required" {
		t.Fatalf("UserMessage(api) = %q", got)
	}
	if got := UserMessage(&APIError{Status: 502, Info: map[string]any{"message": genericErrorMessage}}, fallback); got != fallback {
		t.Fatalf("UserMessage(non-json api) = %q", got)
	}
	if got := UserMessage(&TransportError{Op: "create scan", Err: errors.New("refused")}, fallback); got != fallback {
		t.Fatalf("UserMessage(transport) = %q", got)
	}
}
