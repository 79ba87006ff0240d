// Package api exposes the preprocessing orchestrator's HTTP surface: the
// status/admin endpoints named for the batch orchestrator, plus a thin
// inbound transport for delivering a batch message without a real queue
// in front of it.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/getpup/preprocessing-orchestrator"
	"github.com/getpup/preprocessing-orchestrator/logging"
	"github.com/getpup/preprocessing-orchestrator/orchestrator"
)

// Server is the preprocessing orchestrator's HTTP API server.
type Server struct {
	orch           *orchestrator.Orchestrator
	logger         logging.Logger
	metricsEnabled bool
	adminAuth      func(http.Handler) http.Handler
}

// NewServer creates a new API server fronting orch.
func NewServer(orch *orchestrator.Orchestrator, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Server{orch: orch, logger: logger}
}

// EnableMetrics mounts the Prometheus /metrics endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetAdminAuth installs middleware guarding POST /admin/reset/{batch_id}.
// If never called, the admin route is unauthenticated.
func (s *Server) SetAdminAuth(mw func(http.Handler) http.Handler) { s.adminAuth = mw }

// Handler returns the chi router with every route mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(corsMiddleware)

	r.Get("/health", s.handleHealth)
	r.Post("/batch", s.handleStartBatch)
	r.Get("/status", s.handleMissingBatchID)
	r.Get("/status/", s.handleMissingBatchID)
	r.Get("/status/{batch_id}", s.handleGetStatus)
	r.Post("/callback/{batch_id}/{task_id}", s.handleCallback)

	r.Route("/admin", func(r chi.Router) {
		if s.adminAuth != nil {
			r.Use(s.adminAuth)
		}
		r.Post("/reset/{batch_id}", s.handleAdminReset)
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleStartBatch is the concrete inbound transport for a batch message:
// a queue consumer, or a test driver, hands the orchestrator a
// batch.QueueMessage over HTTP instead of through a real queue.
func (s *Server) handleStartBatch(w http.ResponseWriter, r *http.Request) {
	var msg batch.QueueMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	if err := s.orch.StartBatch(r.Context(), msg); err != nil {
		s.writeOrchestratorError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"batch_id": msg.BatchID, "status": "accepted"})
}

func (s *Server) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batch_id")

	view, err := s.orch.GetStatus(r.Context(), batchID)
	if err != nil {
		s.writeOrchestratorError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// handleMissingBatchID backs both "/status" and "/status/": chi's
// "/status/{batch_id}" pattern only matches a non-empty segment, so a
// request with no batch id never reaches handleGetStatus and needs its
// own route to produce the documented 400 instead of chi's default 404.
func (s *Server) handleMissingBatchID(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusBadRequest, "batch_id is required")
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batch_id")
	taskID := chi.URLParam(r, "task_id")

	var payload batch.CallbackPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "malformed callback payload")
		return
	}

	if err := s.orch.HandleCallback(r.Context(), batchID, taskID, payload); err != nil {
		s.writeOrchestratorError(w, err)
		return
	}

	// Dropped, late, and successfully-reconciled callbacks all respond 200:
	// the worker has nothing useful to retry either way.
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAdminReset(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batch_id")

	if err := s.orch.AdminReset(r.Context(), batchID); err != nil {
		s.writeOrchestratorError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"batch_id": batchID, "status": "reset"})
}

func (s *Server) writeOrchestratorError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, batch.ErrBatchNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, batch.ErrCallbackMalformed):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, batch.ErrInvariantViolation):
		s.logger.Error("internal invariant violation", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	default:
		s.logger.Error("unhandled orchestrator error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
		},
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
