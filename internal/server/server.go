// Package server exposes the orchestrator over HTTP.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/thebtf/blink/internal/agent"
	"github.com/thebtf/blink/pkg/models"
)

// Service is the HTTP front of the orchestrator.
type Service struct {
	version     string
	coordinator *agent.Coordinator
	router      chi.Router
	startTime   time.Time
}

// NewService creates the Service and mounts its routes.
func NewService(coordinator *agent.Coordinator, version string) *Service {
	s := &Service{
		version:     version,
		coordinator: coordinator,
		router:      chi.NewRouter(),
		startTime:   time.Now(),
	}
	s.setupRoutes()
	return s
}

func (s *Service) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger)

	s.router.Get("/health", s.handleHealth)
	s.router.Post("/orchestrate", s.handleOrchestrate)
}

// ServeHTTP implements http.Handler.
func (s *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "blink-orchestrator",
		"version": s.version,
		"uptime":  time.Since(s.startTime).Round(time.Second).String(),
	})
}

func (s *Service) handleOrchestrate(w http.ResponseWriter, r *http.Request) {
	var req models.TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Channel == "" || req.UserID == "" || req.SessionID == "" || req.Text == "" {
		writeError(w, http.StatusBadRequest, "channel, user_id, session_id and text are required")
		return
	}

	resp, err := s.coordinator.HandleTurn(r.Context(), req)
	if err != nil {
		// Only cancellation reaches here; every other failure degrades
		// inside the coordinator.
		writeError(w, http.StatusInternalServerError, "turn aborted")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Warn().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	})
}
