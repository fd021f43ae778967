package query

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"scanlog/frontend/shared/html"
	"scanlog/infrastructure/dateutil"
)

// Preset is a quick-pick date range button.
type Preset struct {
	Label string
	Range dateutil.Range
}

type PageData struct {
	PageSize int
	Presets  []Preset
}

func QueryPage(data PageData) templ.Component {
	return html.Layout("Query", "/query", queryBody(data), "/assets/app.js", "/assets/query.js")
}

func queryBody(data PageData) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<section class="card" id="query-screen" data-page-size="`+strconv.Itoa(data.PageSize)+`">`+
			`<div class="header-row"><h1>Scan records</h1>`+
			`<button id="clear-open" type="button" class="btn btn-danger" disabled>Clear records</button></div>`+
			`<form id="filters" class="filters">`+
			`<label for="f-barcode" class="label">Barcode</label>`+
			`<input id="f-barcode" name="barcode" type="text" class="input" placeholder="Barcode contains">`+
			`<label for="f-start" class="label">From</label><input id="f-start" name="start_date" type="date" class="input">`+
			`<label for="f-end" class="label">To</label><input id="f-end" name="end_date" type="date" class="input">`+
			`<div class="presets">`); err != nil {
			return err
		}
		for _, p := range data.Presets {
			if _, err := io.WriteString(w, `<button type="button" class="btn btn-small preset"`+
				` data-start="`+templ.EscapeString(dateutil.FormatDate(p.Range.Start))+`"`+
				` data-end="`+templ.EscapeString(dateutil.FormatDate(p.Range.End))+`">`+
				templ.EscapeString(p.Label)+`</button>`); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</div>`+
			`<div class="actions"><button type="submit" class="btn btn-primary">Search</button>`+
			`<button id="export" type="button" class="btn">Export</button></div>`+
			`</form></section>`+
			`<section class="card"><p id="results-empty" class="muted" hidden>No records</p>`+
			`<table id="results" class="table"><thead><tr><th>ID</th><th>Barcode</th><th>Scanned at</th><th>Notes</th><th></th></tr></thead><tbody></tbody></table>`+
			`<nav id="pagination" class="pagination"></nav></section>`+
			`<dialog id="clear-confirm" class="modal"><p>Delete every scan record? This cannot be undone.</p>`+
			`<div class="actions"><button id="clear-cancel" type="button" class="btn">Cancel</button>`+
			`<button id="clear-confirm-btn" type="button" class="btn btn-danger">Clear all</button></div></dialog>`)
		return err
	})
}
