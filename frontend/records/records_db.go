package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"scanlog/infrastructure/audit"
	"scanlog/infrastructure/sqlite"
	"scanlog/models"
)

const scanColumns = `id, barcode, scanned_at, notes`

// CreateScan stores a new scan unless the barcode is already recorded, in
// which case the existing row is returned with IsDuplicate set. The lookup
// and insert share one immediate write transaction.
func CreateScan(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, clientID string, in CreateScanInput, now time.Time) (CreateResult, error) {
	in, err := normalizeInput(in)
	if err != nil {
		return CreateResult{}, err
	}

	var result CreateResult
	err = db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		existing, found, err := findByBarcode(ctx, tx, in.Barcode)
		if err != nil {
			return err
		}
		if found {
			result = CreateResult{Scan: existing, IsDuplicate: true}
			return nil
		}

		scan := models.Scan{
			Barcode:   in.Barcode,
			ScannedAt: now.UTC().Truncate(time.Second),
			Notes:     in.Notes,
		}
		if err := tx.NewRaw(`
INSERT INTO scans (barcode, scanned_at, notes)
VALUES (?, ?, ?)
RETURNING id`, scan.Barcode, scan.ScannedAt.Format(storedTimeLayout), scan.Notes).Scan(ctx, &scan.ID); err != nil {
			return err
		}
		result = CreateResult{Scan: scan, Message: createdMessage}
		return auditSvc.ScanCreated(ctx, tx, clientID, scan)
	})
	if err != nil && sqlite.IsUniqueViolation(err) {
		existing, found, lookupErr := GetScanByBarcode(ctx, db, in.Barcode)
		if lookupErr != nil {
			return CreateResult{}, fmt.Errorf("reload duplicate scan: %w", lookupErr)
		}
		if !found {
			return CreateResult{}, fmt.Errorf("create scan: %w", err)
		}
		return CreateResult{Scan: existing, IsDuplicate: true}, nil
	}
	if err != nil {
		return CreateResult{}, fmt.Errorf("create scan: %w", err)
	}
	return result, nil
}

func findByBarcode(ctx context.Context, tx bun.Tx, barcode string) (models.Scan, bool, error) {
	var rows []models.Scan
	if err := tx.NewRaw(`SELECT `+scanColumns+` FROM scans WHERE barcode = ? LIMIT 1`, barcode).Scan(ctx, &rows); err != nil {
		return models.Scan{}, false, err
	}
	if len(rows) == 0 {
		return models.Scan{}, false, nil
	}
	return rows[0], true, nil
}

// GetScanByBarcode loads the scan holding barcode.
func GetScanByBarcode(ctx context.Context, db *sqlite.DB, barcode string) (models.Scan, bool, error) {
	var (
		scan  models.Scan
		found bool
	)
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		var err error
		scan, found, err = findByBarcode(ctx, tx, barcode)
		return err
	})
	return scan, found, err
}

// GetScan loads one scan by id. A missing row yields sql.ErrNoRows.
func GetScan(ctx context.Context, db *sqlite.DB, id int64) (models.Scan, error) {
	var rows []models.Scan
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw(`SELECT `+scanColumns+` FROM scans WHERE id = ?`, id).Scan(ctx, &rows)
	})
	if err != nil {
		return models.Scan{}, err
	}
	if len(rows) == 0 {
		return models.Scan{}, sql.ErrNoRows
	}
	return rows[0], nil
}

// ListScans returns one page of matching scans, newest first, and the total
// number of matches.
func ListScans(ctx context.Context, db *sqlite.DB, f ScanFilter) ([]models.Scan, int, error) {
	where, args := filterClause(f)
	scans := make([]models.Scan, 0)
	var total int

	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := tx.NewRaw(`SELECT COUNT(*) FROM scans`+where, args...).Scan(ctx, &total); err != nil {
			return err
		}
		if total == 0 || f.Skip >= total {
			return nil
		}
		pageArgs := append(append([]any{}, args...), f.Limit, f.Skip)
		return tx.NewRaw(`SELECT `+scanColumns+` FROM scans`+where+`
ORDER BY scanned_at DESC, id DESC
LIMIT ? OFFSET ?`, pageArgs...).Scan(ctx, &scans)
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list scans: %w", err)
	}
	return scans, total, nil
}

// ExportScans returns every matching scan, newest first.
func ExportScans(ctx context.Context, db *sqlite.DB, f ScanFilter) ([]models.Scan, error) {
	where, args := filterClause(f)
	scans := make([]models.Scan, 0)
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw(`SELECT `+scanColumns+` FROM scans`+where+`
ORDER BY scanned_at DESC, id DESC`, args...).Scan(ctx, &scans)
	})
	if err != nil {
		return nil, fmt.Errorf("export scans: %w", err)
	}
	return scans, nil
}

// ClearScans deletes every scan and reports how many were removed.
func ClearScans(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, clientID string) (int64, error) {
	var removed int64
	err := db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM scans`)
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		if err != nil {
			return err
		}
		return auditSvc.ScansCleared(ctx, tx, clientID, removed)
	})
	if err != nil {
		return 0, fmt.Errorf("clear scans: %w", err)
	}
	return removed, nil
}

// RecordExportRun stores one export_runs row describing an export.
func RecordExportRun(ctx context.Context, db *sqlite.DB, clientID string, f ScanFilter, rowCount int) error {
	filterJSON, err := json.Marshal(map[string]string{
		"barcode":    f.Barcode,
		"start_date": f.StartDate,
		"end_date":   f.EndDate,
	})
	if err != nil {
		return err
	}
	return db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(&models.ExportRun{
			ClientID:   clientID,
			FilterJSON: string(filterJSON),
			RowCount:   int64(rowCount),
		}).Exec(ctx)
		return err
	})
}

func filterClause(f ScanFilter) (string, []any) {
	conds := make([]string, 0, 3)
	args := make([]any, 0, 3)
	if f.Barcode != "" {
		conds = append(conds, `barcode LIKE ? ESCAPE '\'`)
		args = append(args, "%"+likeEscaper.Replace(f.Barcode)+"%")
	}
	if !f.From.IsZero() {
		conds = append(conds, `scanned_at >= ?`)
		args = append(args, f.From.UTC().Format(storedTimeLayout))
	}
	if !f.To.IsZero() {
		conds = append(conds, `scanned_at < ?`)
		args = append(args, f.To.UTC().Format(storedTimeLayout))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
