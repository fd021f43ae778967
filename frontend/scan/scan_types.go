package scan

import (
	"context"
	"errors"

	"scanlog/infrastructure/apiclient"
)

var (
	// ErrInvalidBarcode rejects a blank barcode before any request is made.
	ErrInvalidBarcode = errors.New("barcode is required")

	// ErrSubmissionInFlight is returned when a submission is already pending.
	ErrSubmissionInFlight = errors.New("a submission is already in flight")
)

// ScanCreator records scans. *apiclient.Client satisfies it.
type ScanCreator interface {
	CreateScan(ctx context.Context, req apiclient.CreateScanRequest) (apiclient.CreateScanResponse, error)
}

// View is the barcode input the pipeline drives. Methods may be called from
// timer goroutines and must be safe for concurrent use.
type View interface {
	Focused() bool
	Focus()
	ClearInput()
}

const (
	msgInvalidBarcode = "please enter a valid barcode"
	msgSubmitFailed   = "scan failed, please retry"
)
