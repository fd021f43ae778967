package models

import (
	"time"

	"github.com/uptrace/bun"
)

// ClientIDHeader carries the scanning-station id on API requests.
const ClientIDHeader = "X-Client-ID"

// Scan is a stored barcode observation. Rows are never updated after insert.
type Scan struct {
	bun.BaseModel `bun:"table:scans,alias:sc"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	Barcode   string    `bun:"barcode,notnull,unique" json:"barcode"`
	ScannedAt time.Time `bun:"scanned_at,notnull" json:"scanned_at"`
	Notes     *string   `bun:"notes" json:"notes,omitempty"`
}

// NoteText returns the note or an empty string.
func (s Scan) NoteText() string {
	if s.Notes == nil {
		return ""
	}
	return *s.Notes
}

// AuditLog captures immutable change history for key operations.
type AuditLog struct {
	bun.BaseModel `bun:"table:audit_logs,alias:al"`

	ID         int64     `bun:"id,pk,autoincrement"`
	ClientID   string    `bun:"client_id,notnull"`
	Action     string    `bun:"action,notnull"`
	EntityType string    `bun:"entity_type,notnull"`
	EntityID   string    `bun:"entity_id,notnull"`
	BeforeJSON string    `bun:"before_json"`
	AfterJSON  string    `bun:"after_json"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// ExportRun records one spreadsheet export and the filter it used.
type ExportRun struct {
	bun.BaseModel `bun:"table:export_runs,alias:er"`

	ID         int64     `bun:"id,pk,autoincrement"`
	ClientID   string    `bun:"client_id,notnull"`
	FilterJSON string    `bun:"filter_json,notnull"`
	RowCount   int64     `bun:"row_count,notnull"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp"`
}
