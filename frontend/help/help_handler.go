package help

import (
	"net/http"
	"time"

	"scanlog/infrastructure/logging"
)

func HelpPageQueryHandler(debounceDelay time.Duration, timeZone string) http.HandlerFunc {
	data := PageData{
		Debounce: debounceDelay.String(),
		TimeZone: timeZone,
	}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := HelpPage(data).Render(r.Context(), w); err != nil {
			logging.FromContext(r.Context()).Error("render help page failed", "err", err)
			http.Error(w, "failed to render help page", http.StatusInternalServerError)
			return
		}
	}
}
