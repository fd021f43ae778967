package apiclient

import (
	"time"

	"scanlog/models"
)

type CreateScanRequest struct {
	Barcode string `json:"barcode"`
	Notes   string `json:"notes,omitempty"`
}

type CreateScanResponse struct {
	Scan        models.Scan `json:"scan"`
	IsDuplicate bool        `json:"is_duplicate"`
	Message     string      `json:"message"`
}

type ListScansResponse struct {
	Scans []models.Scan `json:"scans"`
	Total int           `json:"total"`
}

type ClearResponse struct {
	Message string `json:"message"`
}

// ScanQuery filters the record list. Zero dates and a blank barcode are
// not sent. Dates are serialized as calendar dates only.
type ScanQuery struct {
	Barcode   string
	StartDate time.Time
	EndDate   time.Time
	Page      *Page
}

// Page is the skip/limit window of a list request.
type Page struct {
	Skip  int
	Limit int
}

// Download is a fetched export file.
type Download struct {
	Filename    string
	ContentType string
	Body        []byte
}
