package server

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/api"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/config"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/db"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/health"
)

// NewHealthServer serves /healthz and /readyz. Readiness pings the database
// when sessionFactory is set.
func NewHealthServer(cfg *config.ListenerConfig, tls config.HTTPSConfig, sessionFactory db.SessionFactory) *HTTPServer {
	return NewHTTPServer("health", cfg.GetBindAddress(), HealthRouter(sessionFactory), httpsFor(cfg.EnableHTTPS, tls))
}

func HealthRouter(sessionFactory db.SessionFactory) *mux.Router {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(api.SendNotFound)

	healthHandler := health.NewHandler(sessionFactory)
	router.HandleFunc("/healthz", healthHandler.LivenessHandler).Methods(http.MethodGet)
	router.HandleFunc("/readyz", healthHandler.ReadinessHandler).Methods(http.MethodGet)
	return router
}

func httpsFor(enabled bool, tls config.HTTPSConfig) config.HTTPSConfig {
	tls.Enabled = enabled
	return tls
}
