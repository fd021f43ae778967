package records

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"scanlog/infrastructure/dateutil"
	"scanlog/models"
)

const (
	defaultLimit     = 100
	maxLimit         = 1000
	maxBarcodeLength = 256
	maxNotesLength   = 1000
	maxClientIDLen   = 64

	// storedTimeLayout is how scanned_at is written: UTC, second precision.
	storedTimeLayout = "2006-01-02 15:04:05"
)

// CreateScanInput is the POST /api/scans body.
type CreateScanInput struct {
	Barcode string  `json:"barcode"`
	Notes   *string `json:"notes,omitempty"`
}

// CreateResult is the outcome of CreateScan.
type CreateResult struct {
	Scan        models.Scan `json:"scan"`
	IsDuplicate bool        `json:"is_duplicate"`
	Message     string      `json:"message"`
}

// ListResult is the GET /api/scans response.
type ListResult struct {
	Scans []models.Scan `json:"scans"`
	Total int           `json:"total"`
}

// ScanFilter narrows list and export queries. From and To are UTC bounds,
// From inclusive and To exclusive; zero means unbounded.
type ScanFilter struct {
	Barcode string
	From    time.Time
	To      time.Time
	Skip    int
	Limit   int

	// StartDate and EndDate echo the calendar dates that produced From/To.
	StartDate string
	EndDate   string
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// validationError is reported to callers as 422.
type validationError struct {
	msg string
}

func (e validationError) Error() string { return e.msg }

// normalizeInput trims and validates a create request.
func normalizeInput(in CreateScanInput) (CreateScanInput, error) {
	in.Barcode = strings.TrimSpace(in.Barcode)
	if in.Barcode == "" {
		return in, validationError{"barcode is required"}
	}
	if len(in.Barcode) > maxBarcodeLength {
		return in, validationError{fmt.Sprintf("barcode must be at most %d characters", maxBarcodeLength)}
	}
	if in.Notes != nil {
		notes := strings.TrimSpace(*in.Notes)
		if notes == "" {
			in.Notes = nil
		} else {
			if len(notes) > maxNotesLength {
				return in, validationError{fmt.Sprintf("notes must be at most %d characters", maxNotesLength)}
			}
			in.Notes = &notes
		}
	}
	return in, nil
}

// parseFilter reads barcode, start_date, end_date and, when paged is set,
// skip and limit. Calendar dates are interpreted in loc.
func parseFilter(r *http.Request, loc *time.Location, paged bool) (ScanFilter, error) {
	q := r.URL.Query()
	f := ScanFilter{
		Barcode:   strings.TrimSpace(q.Get("barcode")),
		StartDate: strings.TrimSpace(q.Get("start_date")),
		EndDate:   strings.TrimSpace(q.Get("end_date")),
		Limit:     defaultLimit,
	}

	start, err := dateutil.ParseDate(f.StartDate, loc)
	if err != nil {
		return f, validationError{fmt.Sprintf("invalid start_date %q: expected YYYY-MM-DD", f.StartDate)}
	}
	end, err := dateutil.ParseDate(f.EndDate, loc)
	if err != nil {
		return f, validationError{fmt.Sprintf("invalid end_date %q: expected YYYY-MM-DD", f.EndDate)}
	}
	if !start.IsZero() {
		f.From = start.UTC()
	}
	if !end.IsZero() {
		f.To = end.AddDate(0, 0, 1).UTC()
	}

	if !paged {
		f.Limit = 0
		return f, nil
	}
	if raw := strings.TrimSpace(q.Get("skip")); raw != "" {
		skip, err := strconv.Atoi(raw)
		if err != nil || skip < 0 {
			return f, validationError{"skip must be a non-negative integer"}
		}
		f.Skip = skip
	}
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return f, validationError{"limit must be a positive integer"}
		}
		f.Limit = min(limit, maxLimit)
	}
	return f, nil
}

func clientIDFromRequest(r *http.Request) string {
	id := strings.TrimSpace(r.Header.Get(models.ClientIDHeader))
	if len(id) > maxClientIDLen {
		id = id[:maxClientIDLen]
	}
	return id
}

func duplicateMessage(scan models.Scan, loc *time.Location) string {
	return fmt.Sprintf("barcode %s already recorded at %s", scan.Barcode, dateutil.FormatDateTime(scan.ScannedAt.In(loc)))
}

const createdMessage = "scan recorded"
