package query

import (
	"net/http"
	"time"

	"scanlog/infrastructure/dateutil"
	"scanlog/infrastructure/logging"
)

var presetLabels = []struct {
	name  string
	label string
}{
	{dateutil.PresetToday, "Today"},
	{dateutil.PresetYesterday, "Yesterday"},
	{dateutil.PresetLastWeek, "Last 7 days"},
	{dateutil.PresetLastMonth, "Last month"},
}

// Presets resolves the quick-pick ranges relative to now.
func Presets(now time.Time) []Preset {
	out := make([]Preset, 0, len(presetLabels))
	for _, p := range presetLabels {
		if r, ok := dateutil.RangeFor(p.name, now); ok {
			out = append(out, Preset{Label: p.label, Range: r})
		}
	}
	return out
}

func QueryPageQueryHandler(loc *time.Location, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := PageData{
			PageSize: PageSize,
			Presets:  Presets(now().In(loc)),
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := QueryPage(data).Render(r.Context(), w); err != nil {
			logging.FromContext(r.Context()).Error("render query page failed", "err", err)
			http.Error(w, "failed to render query page", http.StatusInternalServerError)
			return
		}
	}
}
