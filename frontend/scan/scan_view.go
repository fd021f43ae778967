package scan

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"scanlog/frontend/shared/html"
)

// PageData configures the browser scan screen.
type PageData struct {
	DebounceMS      int64
	FocusIntervalMS int64
	RecentLimit     int
}

func ScanPage(data PageData) templ.Component {
	return html.Layout("Scan", "/scan", scanBody(data), "/assets/app.js", "/assets/scan.js")
}

func scanBody(data PageData) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<section class="card" id="scan-screen"`+
			` data-debounce-ms="`+strconv.FormatInt(data.DebounceMS, 10)+`"`+
			` data-focus-interval-ms="`+strconv.FormatInt(data.FocusIntervalMS, 10)+`"`+
			` data-recent-limit="`+strconv.Itoa(data.RecentLimit)+`">`+
			`<h1>Scan barcodes</h1>`+
			`<label for="barcode" class="label">Barcode</label>`+
			`<input id="barcode" name="barcode" type="text" class="input" autocomplete="off" placeholder="Scan or type a barcode">`+
			`<p class="hint">Scans submit automatically, or press Enter to submit now.</p>`+
			`<label for="notes" class="label">Notes (optional)</label>`+
			`<textarea id="notes" name="notes" class="input" rows="2" placeholder="Notes"></textarea>`+
			`<div class="actions"><button id="submit" type="button" class="btn btn-primary" disabled>Submit</button></div>`+
			`</section>`+
			`<section class="card"><h2>Recent scans</h2>`+
			`<p id="recent-empty" class="muted">No scans yet</p>`+
			`<table id="recent" class="table" hidden><thead><tr><th>Barcode</th><th>Time</th><th>Status</th></tr></thead><tbody></tbody></table>`+
			`</section>`)
		return err
	})
}
