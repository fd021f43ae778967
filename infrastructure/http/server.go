package http

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"time"

	pagecontext "scanlog/frontend/shared/context"
	"scanlog/infrastructure/audit"
	"scanlog/infrastructure/config"
	"scanlog/infrastructure/logging"
	"scanlog/infrastructure/sqlite"
	"scanlog/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

//go:embed assets/*
var assets embed.FS

// Server bundles dependencies and route wiring.
type Server struct {
	Addr   string
	ln     net.Listener
	server *http.Server
	router *chi.Mux

	DB    *sqlite.DB
	Audit *audit.Service

	cfg config.Config
	loc *time.Location
	now func() time.Time
}

// Option customizes a Server.
type Option func(*Server)

// WithClock replaces time.Now for handlers that stamp records or name files.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// NewServer creates a new http server.
func NewServer(cfg config.Config, db *sqlite.DB, auditSvc *audit.Service, opts ...Option) *Server {
	s := &Server{
		Addr:   cfg.Server.Addr,
		router: chi.NewRouter(),
		DB:     db,
		Audit:  auditSvc,
		cfg:    cfg,
		loc:    cfg.Location(),
		now:    time.Now,
		server: &http.Server{
			MaxHeaderBytes:    1 << 20,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	// Secure headers first.
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			next.ServeHTTP(w, r)
		})
	})

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(logging.AccessLog)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	if cfg.Server.RequestTimeout > 0 {
		s.router.Use(middleware.Timeout(cfg.Server.RequestTimeout))
	}

	s.router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/scan", http.StatusSeeOther)
	})

	s.router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Serve assets from embedded FS.
	var assetsFS fs.FS = assets
	if sub, err := fs.Sub(assets, "assets"); err == nil {
		assetsFS = sub
	} else {
		slog.Error("assets subfs init failed; serving fallback fs", slog.Any("err", err))
	}
	s.router.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServer(http.FS(assetsFS))))

	s.router.Group(func(r chi.Router) {
		r.Use(s.BrowserContextMiddleware)
		s.RegisterPageRoutes(r)
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Use(s.corsHandler())
		if cfg.Rate.Enabled && cfg.Rate.RequestsPerMinute > 0 {
			r.Use(httprate.LimitByIP(cfg.Rate.RequestsPerMinute, time.Minute))
		}
		s.RegisterScanAPIRoutes(r)
	})

	s.server.Handler = s.router
	return s
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// BrowserContextMiddleware makes the browser-facing API base URL available
// to page templates.
func (s *Server) BrowserContextMiddleware(next http.Handler) http.Handler {
	base := s.cfg.BrowserAPIBaseURL()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := pagecontext.NewContextWithBrowser(r.Context(), pagecontext.Browser{
			APIBaseURL: base,
			RequestID:  middleware.GetReqID(r.Context()),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) corsHandler() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", models.ClientIDHeader},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	var err error
	if s.ln, err = net.Listen("tcp", s.Addr); err != nil {
		return err
	}
	go func() {
		if err := s.server.Serve(s.ln); err != nil && err != http.ErrServerClosed {
			slog.Error("http server stopped", slog.Any("err", err))
		}
	}()
	return nil
}

// ListenAddr is the bound address once started.
func (s *Server) ListenAddr() string {
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	if s.ln == nil {
		return fmt.Errorf("HTTP server has not been started or is already stopped")
	}
	timeout := s.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %v", err)
	}
	s.ln = nil
	return nil
}
