// Package httpadapter serves the operational endpoints of a maps run and the
// latest generated maps.
package httpadapter

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/climate-atlas/internal/adapter/render"
	"github.com/couchcryptid/climate-atlas/internal/domain"
)

// MapSource returns the most recently generated maps.
type MapSource interface {
	Latest() []domain.MapResult
}

// Server exposes health, readiness, metrics and map endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics,
// /maps and /maps/{id} routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, maps MapSource, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /maps", handleMaps(maps))
	mux.HandleFunc("GET /maps/{id}", handleMap(maps))

	return s
}

// mapSummary is one entry of the /maps listing.
type mapSummary struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Metric      string    `json:"metric"`
	GeneratedAt time.Time `json:"generated_at"`
}

func handleMaps(source MapSource) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		latest := source.Latest()
		out := make([]mapSummary, 0, len(latest))
		for _, m := range latest {
			out = append(out, mapSummary{ID: m.ID, Title: m.Title, Metric: m.Metric, GeneratedAt: m.GeneratedAt})
		}
		sharedobs.WriteJSON(w, http.StatusOK, out)
	}
}

func handleMap(source MapSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		for _, m := range source.Latest() {
			if m.ID == id {
				sharedobs.WriteJSON(w, http.StatusOK, render.NewMapDocument(m))
				return
			}
		}
		sharedobs.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "unknown map " + id})
	}
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
