package help

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"scanlog/frontend/shared/html"
)

type PageData struct {
	Debounce string
	TimeZone string
}

func HelpPage(data PageData) templ.Component {
	return html.Layout("Help", "/help", helpBody(data))
}

func helpBody(data PageData) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<section class="card"><h1>Help</h1>`+
			`<h2>Scanning</h2><ul>`+
			`<li>The barcode field keeps focus, so a handheld scanner can be used without touching the screen.</li>`+
			`<li>A scan is submitted `+templ.EscapeString(data.Debounce)+` after the last keystroke, or immediately on Enter.</li>`+
			`<li>A barcode that was already recorded is not stored again. It shows as a duplicate with the time it was first scanned.</li>`+
			`<li>The ten most recent scans from this screen are listed below the input.</li>`+
			`</ul><h2>Querying</h2><ul>`+
			`<li>The barcode filter matches any part of the barcode.</li>`+
			`<li>Dates are calendar days in `+templ.EscapeString(data.TimeZone)+`. Both the start and end day are included.</li>`+
			`<li>Export downloads every record matching the filters as a spreadsheet, not only the current page.</li>`+
			`<li>Clear records deletes everything after a confirmation step.</li>`+
			`</ul></section>`)
		return err
	})
}
