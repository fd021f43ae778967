package context

import (
	"context"
)

// Browser carries per-request settings rendered into pages for browser code.
type Browser struct {
	// APIBaseURL is the browser-reachable API origin. Empty means same origin.
	APIBaseURL string
	RequestID  string
}

type browserKey struct{}

func NewContextWithBrowser(ctx context.Context, b Browser) context.Context {
	return context.WithValue(ctx, browserKey{}, b)
}

func GetBrowserFromContext(ctx context.Context) (Browser, bool) {
	b, ok := ctx.Value(browserKey{}).(Browser)
	return b, ok
}
