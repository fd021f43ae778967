package records

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"scanlog/infrastructure/audit"
	"scanlog/infrastructure/logging"
	"scanlog/infrastructure/sqlite"
)

const maxBodyBytes = 64 << 10

// Clock returns the current time. Handlers take one so tests can pin it.
type Clock func() time.Time

func CreateScanCommandHandler(db *sqlite.DB, auditSvc *audit.Service, loc *time.Location, now Clock) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in CreateScanInput
		dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
		if err := dec.Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, "BAD_REQUEST", "request body must be a JSON object with a barcode")
			return
		}

		clientID := clientIDFromRequest(r)
		result, err := CreateScan(r.Context(), db, auditSvc, clientID, in, now())
		if err != nil {
			var vErr validationError
			if errors.As(err, &vErr) {
				writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", vErr.Error())
				return
			}
			logging.FromContext(r.Context()).Error("create scan failed", "barcode", in.Barcode, "err", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to record scan")
			return
		}

		status := http.StatusCreated
		if result.IsDuplicate {
			status = http.StatusOK
			result.Message = duplicateMessage(result.Scan, loc)
			logging.WithFields(r.Context(), "barcode", result.Scan.Barcode, "scan_id", result.Scan.ID, "client_id", clientID).
				Info("duplicate scan")
		}
		writeJSON(w, status, result)
	}
}

func ListScansQueryHandler(db *sqlite.DB, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := parseFilter(r, loc, true)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error())
			return
		}
		scans, total, err := ListScans(r.Context(), db, f)
		if err != nil {
			logging.FromContext(r.Context()).Error("list scans failed", "err", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to load scans")
			return
		}
		writeJSON(w, http.StatusOK, ListResult{Scans: scans, Total: total})
	}
}

func GetScanQueryHandler(db *sqlite.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseScanID(w, r)
		if !ok {
			return
		}
		scan, err := GetScan(r.Context(), db, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				writeError(w, http.StatusNotFound, "NOT_FOUND", "scan not found")
				return
			}
			logging.FromContext(r.Context()).Error("get scan failed", "scan_id", id, "err", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to load scan")
			return
		}
		writeJSON(w, http.StatusOK, scan)
	}
}

func ExportScansHandler(db *sqlite.DB, loc *time.Location, now Clock) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := parseFilter(r, loc, false)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error())
			return
		}
		scans, err := ExportScans(r.Context(), db, f)
		if err != nil {
			logging.FromContext(r.Context()).Error("export scans failed", "err", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to export scans")
			return
		}
		body, err := renderScansXLSX(scans, loc)
		if err != nil {
			logging.FromContext(r.Context()).Error("render export failed", "err", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to export scans")
			return
		}

		filename := exportFilename(now().In(loc))
		w.Header().Set("Content-Type", exportContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		_, _ = w.Write(body)

		clientID := clientIDFromRequest(r)
		if err := RecordExportRun(r.Context(), db, clientID, f, len(scans)); err != nil {
			logging.FromContext(r.Context()).Error("record export run failed", "filename", filename, "err", err)
		}
	}
}

func ClearScansCommandHandler(db *sqlite.DB, auditSvc *audit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID := clientIDFromRequest(r)
		removed, err := ClearScans(r.Context(), db, auditSvc, clientID)
		if err != nil {
			logging.FromContext(r.Context()).Error("clear scans failed", "err", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to clear scans")
			return
		}
		logging.WithFields(r.Context(), "removed", removed, "client_id", clientID).Warn("scan records cleared")
		writeJSON(w, http.StatusOK, map[string]string{"message": fmt.Sprintf("cleared %d records", removed)})
	}
}

func BarcodePNGHandler(db *sqlite.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseScanID(w, r)
		if !ok {
			return
		}
		scan, err := GetScan(r.Context(), db, id)
		if err != nil {
			writeLoadError(w, r, id, err)
			return
		}
		img, err := renderCode128PNG(scan.Barcode, 600, 160)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "UNENCODABLE", "barcode cannot be rendered as Code128")
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "public, max-age=86400")
		_, _ = w.Write(img)
	}
}

func LabelPDFHandler(db *sqlite.DB, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseScanID(w, r)
		if !ok {
			return
		}
		scan, err := GetScan(r.Context(), db, id)
		if err != nil {
			writeLoadError(w, r, id, err)
			return
		}
		pdf, err := renderScanLabelPDF(scan, loc)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "UNENCODABLE", "barcode cannot be rendered as Code128")
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", "scan-"+strconv.FormatInt(scan.ID, 10)+".pdf"))
		_, _ = w.Write(pdf)
	}
}

func parseScanID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid scan id")
		return 0, false
	}
	return id, true
}

func writeLoadError(w http.ResponseWriter, r *http.Request, id int64, err error) {
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "scan not found")
		return
	}
	logging.FromContext(r.Context()).Error("load scan failed", "scan_id", id, "err", err)
	writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to load scan")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, Message: msg, Code: code})
}
