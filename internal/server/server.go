// Package server exposes the aggregated data over HTTP: stats as JSON,
// neighborhoods as GeoJSON, and the choropleth as SVG.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/urbanlens/geoatlas/internal/geomio"
	"github.com/urbanlens/geoatlas/internal/model"
	"github.com/urbanlens/geoatlas/internal/render"
	"github.com/urbanlens/geoatlas/internal/store"
)

// Server serves the pipeline's outputs from the store.
type Server struct {
	store   store.Store
	render  render.Options
	limiter *rate.Limiter
	log     *zap.Logger
}

// New builds a Server. ratePerSec caps request throughput across all
// endpoints; zero disables limiting.
func New(st store.Store, renderOpts render.Options, ratePerSec float64) *Server {
	var limiter *rate.Limiter
	if ratePerSec > 0 {
		burst := int(ratePerSec)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(ratePerSec), burst)
	}
	return &Server{
		store:   st,
		render:  renderOpts,
		limiter: limiter,
		log:     zap.L().With(zap.String("component", "server")),
	}
}

// Handler assembles the chi router with CORS and rate limiting.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
	}))
	r.Use(s.rateLimit)

	r.Get("/health", s.handleHealth)
	r.Get("/api/stats", s.handleStats)
	r.Get("/api/neighborhoods.geojson", s.handleNeighborhoods)
	r.Get("/map.svg", s.handleMap)
	return r
}

// Run listens on the given port until the context is canceled.
func (s *Server) Run(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.log.Info("starting server", zap.Int("port", port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "server: listen")
	}
	return nil
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	counts, err := s.store.Counts(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, map[string]any{"status": "ok", "counts": counts})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	sts, err := s.store.ListStats(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if sts == nil {
		sts = []model.NeighborhoodStat{}
	}
	s.writeJSON(w, sts)
}

func (s *Server) handleNeighborhoods(w http.ResponseWriter, r *http.Request) {
	hoods, err := s.store.ListNeighborhoods(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	sts, err := s.store.ListStats(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	statByHood := make(map[string]model.NeighborhoodStat, len(sts))
	for _, st := range sts {
		statByHood[st.NeighborhoodID] = st
	}

	w.Header().Set("Content-Type", "application/geo+json")
	if err := json.NewEncoder(w).Encode(geomio.NeighborhoodsFeatureCollection(hoods, statByHood)); err != nil {
		s.log.Error("encode neighborhoods", zap.Error(err))
	}
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	hoods, err := s.store.ListNeighborhoods(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	sts, err := s.store.ListStats(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	svg, err := render.Choropleth(hoods, sts, s.render)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(svg)
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	s.log.Error("request failed", zap.Error(err))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
