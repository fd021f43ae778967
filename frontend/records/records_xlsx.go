package records

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"scanlog/infrastructure/dateutil"
	"scanlog/models"
)

const (
	exportSheet       = "Scans"
	exportContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var exportHeader = []any{"ID", "Barcode", "Scanned At", "Notes"}

// exportFilename names an export generated at now.
func exportFilename(now time.Time) string {
	return "barcode_scans_" + now.Format(dateutil.StampLayout) + ".xlsx"
}

// renderScansXLSX writes scans into a single-sheet workbook. Times are
// rendered in loc.
func renderScansXLSX(scans []models.Scan, loc *time.Location) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(exportSheet)
	if err != nil {
		return nil, fmt.Errorf("stream writer: %w", err)
	}
	if err := sw.SetColWidth(2, 2, 32); err != nil {
		return nil, err
	}
	if err := sw.SetColWidth(3, 3, 20); err != nil {
		return nil, err
	}
	if err := sw.SetColWidth(4, 4, 40); err != nil {
		return nil, err
	}

	boldID, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	header := make([]any, len(exportHeader))
	for i, h := range exportHeader {
		header[i] = excelize.Cell{StyleID: boldID, Value: h}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return nil, err
	}

	for i, s := range scans {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []any{s.ID, s.Barcode, dateutil.FormatDateTime(s.ScannedAt.In(loc)), s.NoteText()}
		if err := sw.SetRow(cell, row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return nil, fmt.Errorf("flush sheet: %w", err)
	}

	var out bytes.Buffer
	if err := f.Write(&out); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return out.Bytes(), nil
}
