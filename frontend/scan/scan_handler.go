package scan

import (
	"net/http"
	"time"

	"scanlog/infrastructure/logging"
)

func ScanPageQueryHandler(debounceDelay, focusInterval time.Duration) http.HandlerFunc {
	data := PageData{
		DebounceMS:      debounceDelay.Milliseconds(),
		FocusIntervalMS: focusInterval.Milliseconds(),
		RecentLimit:     RecentLimit,
	}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := ScanPage(data).Render(r.Context(), w); err != nil {
			logging.FromContext(r.Context()).Error("render scan page failed", "err", err)
			http.Error(w, "failed to render scan page", http.StatusInternalServerError)
			return
		}
	}
}
