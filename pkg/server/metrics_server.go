package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/api"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/config"
)

// NewMetricsServer serves the default Prometheus registry on /metrics
func NewMetricsServer(cfg *config.ListenerConfig, tls config.HTTPSConfig) *HTTPServer {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(api.SendNotFound)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return NewHTTPServer("metrics", cfg.GetBindAddress(), router, httpsFor(cfg.EnableHTTPS, tls))
}
