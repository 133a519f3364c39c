// Package server exposes the latest scan report over HTTP. The report lives
// in memory and is replaced wholesale after every scan; there is no
// persistence behind these endpoints.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/alfarreca/marketscan/internal/exporter"
	"github.com/alfarreca/marketscan/internal/model"
)

// Trigger starts a scan. It returns scheduler.ErrScanRunning while one is in
// flight; any other error means the scan could not start.
type Trigger interface {
	RunNow() error
	Running() bool
}

// Server holds the latest report and serves it.
type Server struct {
	trigger Trigger
	log     zerolog.Logger
	httpSrv *http.Server

	mu     sync.RWMutex
	latest *model.ScanReport
}

// New builds a Server listening on addr.
func New(addr string, trigger Trigger, logger zerolog.Logger) *Server {
	s := &Server{
		trigger: trigger,
		log:     logger.With().Str("component", "server").Logger(),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/scan/latest", s.handleLatest)
		r.Get("/scan/latest.csv", s.handleLatestCSV)
		r.Post("/scan/run", s.handleRun)
	})

	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// SetReport replaces the served report. Wired as the scheduler's onReport
// callback.
func (s *Server) SetReport(report *model.ScanReport) {
	s.mu.Lock()
	s.latest = report
	s.mu.Unlock()
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.httpSrv.Handler }

// Start begins serving. Blocks until the listener closes.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.httpSrv.Addr).Msg("http server listening")
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Stop shuts the listener down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"scanning": s.trigger.Running(),
	})
}

func (s *Server) handleLatest(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	report := s.latest
	s.mu.RUnlock()

	if report == nil {
		s.writeError(w, http.StatusNotFound, "no scan has completed yet")
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleLatestCSV(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	report := s.latest
	s.mu.RUnlock()

	if report == nil {
		s.writeError(w, http.StatusNotFound, "no scan has completed yet")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="scan-%s.csv"`, report.ID))
	if err := exporter.Write(w, report.Rows); err != nil {
		s.log.Error().Err(err).Msg("stream csv")
	}
}

func (s *Server) handleRun(w http.ResponseWriter, _ *http.Request) {
	if s.trigger.Running() {
		s.writeError(w, http.StatusConflict, "scan already running")
		return
	}

	// Two racing POSTs may both reach here; the trigger itself enforces
	// single-flight, the loser just logs the in-flight error.
	go func() {
		if err := s.trigger.RunNow(); err != nil {
			s.log.Warn().Err(err).Msg("triggered scan did not complete")
		}
	}()
	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, code int, msg string) {
	s.writeJSON(w, code, map[string]string{"error": msg})
}
