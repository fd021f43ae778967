package http

import (
	"scanlog/frontend/help"
	"scanlog/frontend/query"
	"scanlog/frontend/records"
	"scanlog/frontend/scan"

	"github.com/go-chi/chi/v5"
)

// RegisterPageRoutes registers the browser pages.
func (s *Server) RegisterPageRoutes(r chi.Router) chi.Router {
	r.Get("/scan", scan.ScanPageQueryHandler(s.cfg.Scanner.Debounce, s.cfg.Scanner.FocusInterval))
	r.Get("/query", query.QueryPageQueryHandler(s.loc, s.now))
	r.Get("/help", help.HelpPageQueryHandler(s.cfg.Scanner.Debounce, s.loc.String()))
	return r
}

// RegisterScanAPIRoutes registers the JSON and file endpoints under /api.
func (s *Server) RegisterScanAPIRoutes(r chi.Router) chi.Router {
	r.Route("/scans", func(r chi.Router) {
		r.Post("/", records.CreateScanCommandHandler(s.DB, s.Audit, s.loc, s.now))
		r.Get("/", records.ListScansQueryHandler(s.DB, s.loc))
		r.Delete("/", records.ClearScansCommandHandler(s.DB, s.Audit))

		// export must be registered before the {id} routes.
		r.Get("/export", records.ExportScansHandler(s.DB, s.loc, s.now))

		r.Get("/{id}", records.GetScanQueryHandler(s.DB))
		r.Get("/{id}/barcode.png", records.BarcodePNGHandler(s.DB))
		r.Get("/{id}/label.pdf", records.LabelPDFHandler(s.DB, s.loc))
	})
	return r
}
