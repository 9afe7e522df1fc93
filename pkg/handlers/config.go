package handlers

import (
	"net/http"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/api"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/config"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/logger"
)

type configHandler struct {
	config interface{}
}

// NewConfigHandler serves cfg, a pointer to a loaded configuration struct.
func NewConfigHandler(cfg interface{}) *configHandler {
	return &configHandler{
		config: cfg,
	}
}

// Get sends the merged configuration with sensitive values redacted.
func (h configHandler) Get(w http.ResponseWriter, r *http.Request) {
	jsonConfig, err := config.RedactedJSON(h.config)
	if err != nil {
		logger.With(r.Context(), logger.HTTPPath(r.URL.Path), logger.HTTPMethod(r.Method)).
			WithError(err).Error("Failed to generate configuration JSON")
		api.SendPanic(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write([]byte(jsonConfig)); err != nil {
		logger.With(r.Context(), logger.HTTPPath(r.URL.Path), logger.HTTPMethod(r.Method)).
			WithError(err).Error("Failed to send configuration response body")
	}
}
