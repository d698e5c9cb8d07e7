// Package http serves the slider page, the map documents and their JSON
// counterparts, plus health, readiness, and metrics endpoints.
package http

import (
	"compress/flate"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/rainfall-heatmap/internal/adapter/leaflet"
	"github.com/couchcryptid/rainfall-heatmap/internal/domain"
	"github.com/couchcryptid/rainfall-heatmap/internal/observability"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

// MapService renders selections. It is implemented by pipeline.Pipeline.
type MapService interface {
	sharedobs.ReadinessChecker
	Render(ctx context.Context, sel domain.SelectionParameters) (domain.MapArtifact, error)
	Points(ctx context.Context, sel domain.SelectionParameters) (domain.WeeklyPointTable, error)
	Weeks(ctx context.Context, year int, threshold float64) ([]domain.WeekSummary, error)
}

// Server exposes the rainfall map over HTTP.
type Server struct {
	httpServer *http.Server
	svc        MapService
	view       *leaflet.Renderer
	logger     *slog.Logger
}

// NewServer creates an HTTP server. A nil limiter disables rate limiting of
// the rendering routes.
func NewServer(addr string, svc MapService, view *leaflet.Renderer, limiter *RateLimiter, logger *slog.Logger, metrics *observability.Metrics) *Server {
	router := chi.NewRouter()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		svc:    svc,
		view:   view,
		logger: logger,
	}

	router.Use(middleware.Recoverer)
	router.Use(cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}).Handler)
	router.Use(middleware.NewCompressor(flate.DefaultCompression, "text/html", "application/json").Handler)

	router.Get("/healthz", sharedobs.LivenessHandler())
	router.Get("/readyz", sharedobs.ReadinessHandler(svc))
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	router.Group(func(r chi.Router) {
		r.Use(requestLogger(logger))
		if limiter != nil {
			r.Use(limiter.Middleware(metrics))
		}
		r.Get("/", s.handleIndex)
		r.Get("/map", s.handleMap)
		r.Get("/api/points", s.handlePoints)
		r.Get("/api/weeks", s.handleWeeks)
	})

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sel, err := domain.ParseSelection(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	a, err := s.svc.Render(r.Context(), sel)
	if err != nil {
		s.renderFailed(w, err)
		return
	}

	// The map is inlined so one slider change costs one render.
	page := leaflet.Page{
		Selection: sel,
		Summary:   a.Summary,
		Message:   a.Message,
		Map:       &a,
	}
	if !a.Start.IsZero() {
		page.Week = &domain.WeekSummary{Week: sel.Week, Start: a.Start, End: a.End}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.view.WritePage(w, page); err != nil {
		s.logger.Error("write page failed", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	sel, err := domain.ParseSelection(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	a, err := s.svc.Render(r.Context(), sel)
	if err != nil {
		s.renderFailed(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.view.WriteMap(w, a); err != nil {
		s.logger.Error("write map failed", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (s *Server) renderFailed(w http.ResponseWriter, err error) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

type pointsResponse struct {
	Selection domain.SelectionParameters `json:"selection"`
	Start     time.Time                  `json:"start"`
	End       time.Time                  `json:"end"`
	Points    []domain.Point             `json:"points"`
	Summary   domain.Summary             `json:"summary"`
}

type weeksResponse struct {
	Year      int                  `json:"year"`
	Threshold float64              `json:"threshold"`
	Weeks     []domain.WeekSummary `json:"weeks"`
}

type errorResponse struct {
	Error     string `json:"error"`
	Available *int   `json:"available,omitempty"`
}

func (s *Server) handlePoints(w http.ResponseWriter, r *http.Request) {
	sel, err := domain.ParseSelection(r.URL.Query())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	table, err := s.svc.Points(r.Context(), sel)
	if err != nil && !errors.Is(err, domain.ErrEmptyResult) {
		s.writeError(w, err)
		return
	}

	points := table.Points
	if points == nil {
		points = []domain.Point{}
	}
	writeJSON(w, http.StatusOK, pointsResponse{
		Selection: sel,
		Start:     table.Start,
		End:       table.End,
		Points:    points,
		Summary:   domain.Summarize(points),
	})
}

func (s *Server) handleWeeks(w http.ResponseWriter, r *http.Request) {
	sel, err := domain.ParseSelection(r.URL.Query())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	weeks, err := s.svc.Weeks(r.Context(), sel.Year, sel.Threshold)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if weeks == nil {
		weeks = []domain.WeekSummary{}
	}
	writeJSON(w, http.StatusOK, weeksResponse{Year: sel.Year, Threshold: sel.Threshold, Weeks: weeks})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var (
		oor *domain.SelectionOutOfRangeError
		ve  *domain.ValidationError
	)
	switch {
	case errors.As(err, &oor):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error(), Available: &oor.Available})
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		s.logger.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"query", r.URL.RawQuery,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"took", time.Since(start),
			)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
