package query

import (
	"context"
	"errors"
	"time"

	"scanlog/infrastructure/apiclient"
	"scanlog/models"
)

var (
	ErrInvalidPage       = errors.New("page must be 1 or greater")
	ErrExportInFlight    = errors.New("an export is already in progress")
	ErrClearNotRequested = errors.New("clearing records requires confirmation")
	ErrClearInFlight     = errors.New("records are already being cleared")
)

// ScanAPI is the backend surface the query pipeline needs.
// *apiclient.Client satisfies it.
type ScanAPI interface {
	ListScans(ctx context.Context, q apiclient.ScanQuery) (apiclient.ListScansResponse, error)
	ExportURL(q apiclient.ScanQuery) string
	Download(ctx context.Context, rawURL string) (apiclient.Download, error)
	ClearAll(ctx context.Context) (apiclient.ClearResponse, error)
}

// Saver stores a downloaded export and returns where it went.
type Saver interface {
	Save(filename string, body []byte) (string, error)
}

// Filter is the query state. Page is 1-based; zero dates are unbounded and
// both bounds are inclusive calendar dates.
type Filter struct {
	Barcode   string
	StartDate time.Time
	EndDate   time.Time
	Page      int
}

// FilterPatch changes the non-nil fields of a Filter.
type FilterPatch struct {
	Barcode   *string
	StartDate *time.Time
	EndDate   *time.Time
	Page      *int
}

// State is a snapshot of the pipeline for rendering.
type State struct {
	Filter          Filter
	Scans           []models.Scan
	Total           int
	TotalPages      int
	Window          []int
	Loading         bool
	Exporting       bool
	Clearing        bool
	ConfirmingClear bool
	LastError       string
}

const (
	msgLoadFailed   = "failed to load records, please retry"
	msgExportFailed = "export failed, please retry"
	msgClearFailed  = "failed to clear records, please retry"
)

func sameDay(a, b time.Time) bool {
	if a.IsZero() || b.IsZero() {
		return a.IsZero() == b.IsZero()
	}
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
