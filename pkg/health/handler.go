package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/db"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/logger"
)

const (
	statusOK           = "ok"
	statusNotReady     = "not_ready"
	statusShuttingDown = "shutting_down"
)

type healthResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// Handler serves /healthz and /readyz. A nil session factory skips the
// database check; the sentinel and adapters have no database of their own.
type Handler struct {
	sessionFactory db.SessionFactory
}

func NewHandler(sessionFactory db.SessionFactory) *Handler {
	return &Handler{
		sessionFactory: sessionFactory,
	}
}

// LivenessHandler answers 200 while the process is serving.
func (h *Handler) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	writeHealth(w, http.StatusOK, healthResponse{Status: statusOK})
}

// ReadinessHandler answers 503 while the process is starting, shutting down,
// or one of its dependency checks fails.
func (h *Handler) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	state := GetReadinessState()

	switch {
	case state.IsShuttingDown():
		writeHealth(w, http.StatusServiceUnavailable,
			healthResponse{Status: statusShuttingDown, Reason: "Application is shutting down"})
		return
	case !state.IsReady():
		writeHealth(w, http.StatusServiceUnavailable,
			healthResponse{Status: statusNotReady, Reason: "Application is not ready"})
		return
	}

	if err := h.pingDatabase(r.Context()); err != nil {
		logger.WithError(r.Context(), err).Warn("Readiness database check failed")
		writeHealth(w, http.StatusServiceUnavailable, healthResponse{Status: statusNotReady, Reason: err.Error()})
		return
	}

	if name, err := state.RunChecks(r.Context()); err != nil {
		logger.With(r.Context(), "check", name).WithError(err).Warn("Readiness check failed")
		writeHealth(w, http.StatusServiceUnavailable,
			healthResponse{Status: statusNotReady, Reason: name + " check failed"})
		return
	}

	writeHealth(w, http.StatusOK, healthResponse{Status: statusOK})
}

func (h *Handler) pingDatabase(ctx context.Context) error {
	if h.sessionFactory == nil {
		return nil
	}
	sqlDB := h.sessionFactory.DirectDB()
	if sqlDB == nil {
		return errors.New("database connection not available")
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

func writeHealth(w http.ResponseWriter, code int, body healthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
