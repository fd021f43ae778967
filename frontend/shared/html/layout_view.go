package html

import (
	"context"
	"io"

	"github.com/a-h/templ"

	pagecontext "scanlog/frontend/shared/context"
	"scanlog/frontend/shared/nav"
)

// Layout wraps body in the shared page chrome: stylesheet, top navigation and
// the api-base meta tag read by the page scripts.
func Layout(title, activePath string, body templ.Component, scripts ...string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		browser, _ := pagecontext.GetBrowserFromContext(ctx)

		if _, err := io.WriteString(w, `<!doctype html><html lang="en"><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><title>`); err != nil {
			return err
		}
		if _, err := io.WriteString(w, templ.EscapeString(title)); err != nil {
			return err
		}
		if _, err := io.WriteString(w, `</title><meta name="api-base" content="`+templ.EscapeString(browser.APIBaseURL)+`"><link rel="stylesheet" href="/assets/app.css"></head><body><nav class="topnav"><span class="brand">scanlog</span>`); err != nil {
			return err
		}
		for _, link := range nav.BuildTopNav(activePath) {
			class := "nav-link"
			if link.Active {
				class += " active"
			}
			if _, err := io.WriteString(w, `<a class="`+class+`" href="`+templ.EscapeString(link.Href)+`">`+templ.EscapeString(link.Label)+`</a>`); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</nav><main class="container">`); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		if _, err := io.WriteString(w, `</main><div id="toasts" class="toasts" aria-live="polite"></div>`); err != nil {
			return err
		}
		for _, src := range scripts {
			if _, err := io.WriteString(w, `<script src="`+templ.EscapeString(src)+`" defer></script>`); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</body></html>`)
		return err
	})
}
