// Package dashboard serves saved backtest analyses over a small JSON API.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/eddiefleurent/schrute_bucks/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// Server exposes the analysis store over HTTP.
type Server struct {
	router    *chi.Mux
	server    *http.Server
	storage   storage.Interface
	logger    *logrus.Logger
	port      int
	authToken string
}

// Config holds the server settings.
type Config struct {
	Port      int
	AuthToken string
}

// AnalysisSummary is the list view of one saved analysis.
type AnalysisSummary struct {
	Name           string    `json:"name"`
	CreatedAt      time.Time `json:"created_at"`
	Underlying     string    `json:"underlying"`
	Strategy       string    `json:"strategy"`
	Start          string    `json:"start"`
	End            string    `json:"end"`
	TotalReturnPct float64   `json:"total_return_pct"`
	TradesCount    int       `json:"trades_count"`
}

// NewServer creates a Server over the given analysis store.
func NewServer(cfg Config, store storage.Interface, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.New()
	}
	s := &Server{
		router:    chi.NewRouter(),
		storage:   store,
		logger:    logger,
		port:      cfg.Port,
		authToken: cfg.AuthToken,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))

	if s.authToken != "" {
		s.router.Use(s.authMiddleware)
	}

	s.router.Get("/health", s.handleHealth)
	s.router.Get("/api/analyses", s.handleListAnalyses)
	s.router.Get("/api/analyses/{name}", s.handleGetAnalysis)
	s.router.Get("/api/analyses/{name}/trades", s.handleGetTrades)
	s.router.Get("/api/analyses/{name}/equity", s.handleGetEquity)
	s.router.Delete("/api/analyses/{name}", s.handleDeleteAnalysis)
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		token := r.Header.Get("X-Auth-Token")
		if token == "" {
			token = r.URL.Query().Get("token")
		}

		if token != s.authToken {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Handler returns the router, primarily for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Start blocks serving HTTP until Shutdown or a listener error.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Infof("Starting dashboard server on port %d", s.port)
	return s.server.ListenAndServe()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
	})
}

func (s *Server) handleListAnalyses(w http.ResponseWriter, _ *http.Request) {
	analyses := s.storage.ListAnalyses()
	summaries := make([]AnalysisSummary, 0, len(analyses))
	for _, a := range analyses {
		summaries = append(summaries, AnalysisSummary{
			Name:           a.Name,
			CreatedAt:      a.CreatedAt,
			Underlying:     a.Underlying,
			Strategy:       string(a.Strategy),
			Start:          a.Start,
			End:            a.End,
			TotalReturnPct: a.Stats.TotalReturnPct,
			TradesCount:    a.Stats.TradesCount,
		})
	}
	s.writeJSON(w, summaries)
}

func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	a, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, a)
}

func (s *Server) handleGetTrades(w http.ResponseWriter, r *http.Request) {
	a, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, a.Trades)
}

func (s *Server) handleGetEquity(w http.ResponseWriter, r *http.Request) {
	a, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, a.Equity)
}

func (s *Server) handleDeleteAnalysis(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	err := s.storage.DeleteAnalysis(name)
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.WithError(err).Error("Failed to delete analysis")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (storage.Analysis, bool) {
	name := chi.URLParam(r, "name")
	a, err := s.storage.GetAnalysis(name)
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "Not Found", http.StatusNotFound)
		return storage.Analysis{}, false
	}
	if err != nil {
		s.logger.WithError(err).Error("Failed to load analysis")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return storage.Analysis{}, false
	}
	return a, true
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
}
