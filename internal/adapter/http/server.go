// Package http exposes the service's HTTP surface: health and readiness
// probes, Prometheus metrics, and a small REST API for on-demand risk
// assessment and alert management.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/disaster-warning-service/internal/alert"
	"github.com/couchcryptid/disaster-warning-service/internal/domain"
	"github.com/couchcryptid/disaster-warning-service/internal/feature"
	"github.com/couchcryptid/disaster-warning-service/internal/risk"
	"github.com/couchcryptid/disaster-warning-service/internal/store"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// AlertService is the subset of alert operations the API exposes.
type AlertService interface {
	GenerateAlert(ctx context.Context, assessment domain.RiskAssessment, region domain.Region) alert.Dispatch
	ResolveAlert(ctx context.Context, alertID int64) error
	ActiveAlerts(ctx context.Context, limit int) ([]domain.Alert, error)
	AlertHistory(ctx context.Context, regionID string, limit int) ([]domain.Alert, error)
}

// Server exposes health, readiness, metrics, and API endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger

	regions   store.RegionStore
	engine    *risk.Engine
	predictor domain.Predictor
	alerts    AlertService
}

// NewServer creates the HTTP server and registers all routes. predictor may
// be nil; assessments then fall back to rule-based scoring.
func NewServer(
	addr string,
	ready ReadinessChecker,
	regions store.RegionStore,
	engine *risk.Engine,
	predictor domain.Predictor,
	alerts AlertService,
	logger *slog.Logger,
) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger:    logger,
		regions:   regions,
		engine:    engine,
		predictor: predictor,
		alerts:    alerts,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /v1/assess", s.handleAssess)
	mux.HandleFunc("GET /v1/alerts/active", s.handleActiveAlerts)
	mux.HandleFunc("GET /v1/alerts/history", s.handleAlertHistory)
	mux.HandleFunc("POST /v1/alerts/{id}/resolve", s.handleResolveAlert)
	mux.HandleFunc("GET /v1/regions", s.handleListRegions)
	mux.HandleFunc("POST /v1/regions", s.handleUpsertRegion)

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

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// assessResponse is the body returned by POST /v1/assess.
type assessResponse struct {
	Assessment domain.RiskAssessment `json:"assessment"`
	Alert      *assessAlert          `json:"alert,omitempty"`
}

type assessAlert struct {
	Status string        `json:"status"`
	Alert  *domain.Alert `json:"alert,omitempty"`
}

// handleAssess scores a single telemetry observation synchronously and
// dispatches an alert if the score warrants one.
func (s *Server) handleAssess(w http.ResponseWriter, r *http.Request) {
	var raw domain.RawTelemetry
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	rec, err := domain.NewTelemetryRecord(raw, nil)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	region := store.RegionOrFallback(r.Context(), s.regions, rec.RegionID)
	regions := map[string]domain.Region{rec.RegionID: region}
	vectors := feature.BuildBatch([]domain.TelemetryRecord{rec}, regions)

	assessment := s.engine.Assess(r.Context(), s.predictor, vectors[0], rec)

	resp := assessResponse{Assessment: assessment}
	if risk.ShouldTriggerAlert(assessment) {
		dispatch := s.alerts.GenerateAlert(r.Context(), assessment, region)
		resp.Alert = &assessAlert{Status: string(dispatch.Status), Alert: dispatch.Alert}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleActiveAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := s.alerts.ActiveAlerts(r.Context(), limitParam(r, 50))
	if err != nil {
		s.logger.Error("list active alerts failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list alerts")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"alerts": alerts, "count": len(alerts)})
}

func (s *Server) handleAlertHistory(w http.ResponseWriter, r *http.Request) {
	regionID := r.URL.Query().Get("region_id")
	alerts, err := s.alerts.AlertHistory(r.Context(), regionID, limitParam(r, 100))
	if err != nil {
		s.logger.Error("list alert history failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list alerts")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"alerts": alerts, "count": len(alerts)})
}

func (s *Server) handleResolveAlert(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "alert id must be an integer")
		return
	}

	if err := s.alerts.ResolveAlert(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrAlertNotFound) {
			writeError(w, http.StatusNotFound, "alert not found")
			return
		}
		s.logger.Error("resolve alert failed", "error", err, "alert_id", id)
		writeError(w, http.StatusInternalServerError, "failed to resolve alert")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "resolved"})
}

func (s *Server) handleListRegions(w http.ResponseWriter, r *http.Request) {
	regions, err := s.regions.List(r.Context())
	if err != nil {
		s.logger.Error("list regions failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list regions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"regions": regions, "count": len(regions)})
}

func (s *Server) handleUpsertRegion(w http.ResponseWriter, r *http.Request) {
	var region domain.Region
	if err := json.NewDecoder(r.Body).Decode(&region); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if region.ID == "" {
		writeError(w, http.StatusUnprocessableEntity, "region id is required")
		return
	}

	if err := s.regions.Upsert(r.Context(), region); err != nil {
		s.logger.Error("upsert region failed", "error", err, "region_id", region.ID)
		writeError(w, http.StatusInternalServerError, "failed to save region")
		return
	}
	writeJSON(w, http.StatusCreated, region)
}

func limitParam(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return fallback
	}
	return limit
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
