package server

import (
	"net/http"

	gorillahandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/openshift-hyperfleet/hyperfleet/cmd/hyperfleet-api/server/logging"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/api"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/crd"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/db"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/handlers"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/logger"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/middleware"
)

type ServicesInterface interface {
	GetService(name string) interface{}
}

// RouteRegistrationFunc adds a plugin's routes under /api/hyperfleet/v1
type RouteRegistrationFunc func(apiV1Router *mux.Router, services ServicesInterface, kinds *crd.Registry)

var routeRegistry = make(map[string]RouteRegistrationFunc)

func RegisterRoutes(name string, registrationFunc RouteRegistrationFunc) {
	routeRegistry[name] = registrationFunc
}

func LoadDiscoveredRoutes(apiV1Router *mux.Router, services ServicesInterface, kinds *crd.Registry) {
	for _, registrationFunc := range routeRegistry {
		registrationFunc(apiV1Router, services, kinds)
	}
}

func routes() *mux.Router {
	cfg := env().Config

	// mainRouter is top level "/"
	mainRouter := mux.NewRouter()
	mainRouter.NotFoundHandler = http.HandlerFunc(api.SendNotFound)

	// Request ID middleware sets a relatively unique id in the context of each request for debugging purposes
	mainRouter.Use(logger.RequestIDMiddleware)

	// OpenTelemetry middleware (conditionally enabled)
	// Extracts trace_id/span_id from traceparent header and adds to logger context
	if cfg.Logging.OTel.Enabled {
		mainRouter.Use(middleware.OTelMiddleware)
	}

	// Request logging middleware logs pertinent information about the request and response
	mainRouter.Use(logging.RequestLoggingMiddleware(middleware.NewMaskingMiddleware(cfg.Logging)))

	//  /api/hyperfleet
	metadataHandler := handlers.NewMetadataHandler(env().Kinds)
	apiRouter := mainRouter.PathPrefix("/api/hyperfleet").Subrouter()
	apiRouter.HandleFunc("", metadataHandler.Get).Methods(http.MethodGet)
	apiRouter.HandleFunc("/config", handlers.NewConfigHandler(cfg).Get).Methods(http.MethodGet)

	//  /api/hyperfleet/v1
	apiV1Router := apiRouter.PathPrefix("/v1").Subrouter()
	apiV1Router.HandleFunc("", metadataHandler.Get).Methods(http.MethodGet)

	registerApiMiddleware(apiV1Router)

	// Auto-discovered routes (no manual editing needed)
	LoadDiscoveredRoutes(apiV1Router, &env().Services, env().Kinds)

	return mainRouter
}

func registerApiMiddleware(router *mux.Router) {
	router.Use(MetricsMiddleware)

	router.Use(
		func(next http.Handler) http.Handler {
			return db.TransactionMiddleware(next, env().Database.SessionFactory)
		},
	)

	router.Use(gorillahandlers.CompressHandler)
}
