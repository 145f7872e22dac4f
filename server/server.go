package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/eduscope-org/eduscope/dataset"
	"github.com/eduscope-org/eduscope/schema"
)

// ============================================================================
// SERVER — HTTP surface of the exploration engine
// ============================================================================
// The dataset is immutable, so every handler is read-only and safe to serve
// concurrently without locking.
// ============================================================================

// Server wires the dataset and schema to the HTTP API.
type Server struct {
	log    *slog.Logger
	data   *dataset.Dataset
	schema schema.Config
	router chi.Router
}

// New builds the server and its routes.
func New(log *slog.Logger, data *dataset.Dataset) *Server {
	s := &Server{
		log:    log,
		data:   data,
		schema: schema.Survey(),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/schema", s.handleSchema)
		r.Get("/options", s.handleOptions)
		r.Post("/query", s.handleQuery)
		r.Post("/kpis", s.handleKPIs)
		r.Post("/stats/summary", s.handleSummary)
		r.Post("/stats/histogram", s.handleHistogram)
		r.Post("/stats/box", s.handleBox)
		r.Post("/stats/matrix", s.handleMatrix)
		r.Post("/explorer", s.handleExplorer)
		r.Post("/export", s.handleExport)
	})
	r.Handle("/metrics", promhttp.Handler())

	s.router = r
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler { return s.router }

// logRequests emits one structured line per request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
