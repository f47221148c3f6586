// Package api exposes the tracking session over HTTP: catalog queries,
// filters, picking, selection details, observer placement and the frame
// stream.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/cheeseburger9309/AstraSim/internal/auth"
	"github.com/cheeseburger9309/AstraSim/internal/catalog"
	"github.com/cheeseburger9309/AstraSim/internal/health"
	"github.com/cheeseburger9309/AstraSim/internal/metrics"
	"github.com/cheeseburger9309/AstraSim/internal/observer"
	"github.com/cheeseburger9309/AstraSim/internal/stream"
	"github.com/cheeseburger9309/AstraSim/internal/tracker"
)

// Config holds the HTTP settings.
type Config struct {
	Addr       string
	TrustProxy bool
	Auth       auth.Config
	Stream     stream.Config
}

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	session    *tracker.Session
	store      *catalog.Store
	locator    observer.Locator
	trustProxy bool
	logger     *slog.Logger
}

// NewServer creates a configured HTTP server. locator may be nil, in which
// case observer lookups always yield the default location.
func NewServer(cfg Config, session *tracker.Session, store *catalog.Store, locator observer.Locator, logger *slog.Logger) *Server {
	s := &Server{
		session:    session,
		store:      store,
		locator:    locator,
		trustProxy: cfg.TrustProxy,
		logger:     logger,
	}

	cfg.Stream.TrustProxy = cfg.TrustProxy
	frames := stream.NewHandler(session, cfg.Stream, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /readyz", health.Readyz(func() bool { return store.Get() != nil }))
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("GET /api/v1/catalog", s.handleCatalog)
	mux.HandleFunc("GET /api/v1/filters", s.handleFilters)
	mux.HandleFunc("POST /api/v1/filters/{category}", s.handleToggleFilter)
	mux.HandleFunc("POST /api/v1/pick", s.handlePick)
	mux.HandleFunc("GET /api/v1/selection", s.handleDetails)
	mux.HandleFunc("PUT /api/v1/selection/{index}", s.handleSelect)
	mux.HandleFunc("POST /api/v1/selection/{index}", s.handleToggleSelect)
	mux.HandleFunc("DELETE /api/v1/selection", s.handleClearSelection)
	mux.HandleFunc("PUT /api/v1/observer", s.handleSetObserver)
	mux.HandleFunc("POST /api/v1/observer/locate", s.handleLocateObserver)
	mux.HandleFunc("GET /api/v1/stream/frames", frames.HandleFrames)

	handler := chain(mux,
		metrics.Middleware,
		requestLog(logger, cfg.TrustProxy),
		auth.Middleware(cfg.Auth),
	)

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	s.httpServer.RegisterOnShutdown(frames.Close)
	return s
}

// Handler returns the full middleware chain.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// HTTPServer returns the underlying *http.Server for shutdown.
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}
