// Package resources registers the generic resource API: one set of CRUD
// routes per registered kind plus the kind-agnostic /resources routes used by
// the sentinel and the adapters.
package resources

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"github.com/openshift-hyperfleet/hyperfleet/cmd/hyperfleet-api/environments"
	"github.com/openshift-hyperfleet/hyperfleet/cmd/hyperfleet-api/environments/registry"
	"github.com/openshift-hyperfleet/hyperfleet/cmd/hyperfleet-api/server"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/api"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/crd"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/dao"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/handlers"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/logger"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/services"
)

const (
	resourcesServiceName  = "Resources"
	conditionsServiceName = "Conditions"
)

// ServiceLocator creates a ResourceService instance
type ServiceLocator func() services.ResourceService

// ConditionServiceLocator creates a ConditionService instance
type ConditionServiceLocator func() services.ConditionService

// NewConditionServiceLocator builds the status deriver once from the aggregator
// configuration; a locator is never created for an unknown rule or policy.
func NewConditionServiceLocator(env *environments.Env) ConditionServiceLocator {
	deriver, err := services.NewStatusDeriverFromConfig(env.Config.Aggregator)
	if err != nil {
		logger.WithError(nil, err).Error("Invalid aggregator configuration")
		os.Exit(1)
	}
	traceReports := env.Config.Aggregator.TraceReports

	return func() services.ConditionService {
		return services.NewConditionService(
			dao.NewResourceDao(&env.Database.SessionFactory),
			dao.NewAdapterConditionDao(&env.Database.SessionFactory),
			dao.NewConditionReportDao(&env.Database.SessionFactory),
			env.Kinds,
			deriver,
			traceReports,
		)
	}
}

func NewServiceLocator(env *environments.Env) ServiceLocator {
	conditions := NewConditionServiceLocator(env)
	return func() services.ResourceService {
		return services.NewResourceService(
			dao.NewResourceDao(&env.Database.SessionFactory),
			dao.NewAdapterConditionDao(&env.Database.SessionFactory),
			dao.NewConditionReportDao(&env.Database.SessionFactory),
			conditions(),
		)
	}
}

// Service retrieves the ResourceService from the services registry
func Service(s server.ServicesInterface) services.ResourceService {
	if s == nil {
		return nil
	}
	if obj, ok := s.GetService(resourcesServiceName).(ServiceLocator); ok {
		return obj()
	}
	return nil
}

// ConditionService retrieves the ConditionService from the services registry
func ConditionService(s server.ServicesInterface) services.ConditionService {
	if s == nil {
		return nil
	}
	if obj, ok := s.GetService(conditionsServiceName).(ConditionServiceLocator); ok {
		return obj()
	}
	return nil
}

func init() {
	registry.RegisterService(resourcesServiceName, func(env interface{}) interface{} {
		return NewServiceLocator(env.(*environments.Env))
	})
	registry.RegisterService(conditionsServiceName, func(env interface{}) interface{} {
		return NewConditionServiceLocator(env.(*environments.Env))
	})

	server.RegisterRoutes("resources", registerRoutes)
}

func registerRoutes(apiV1Router *mux.Router, svcs server.ServicesInterface, kinds *crd.Registry) {
	resourceService := Service(svcs)
	conditionService := ConditionService(svcs)
	if resourceService == nil || conditionService == nil || kinds == nil {
		return
	}

	registerStatusRoutes(apiV1Router, handlers.NewResourceStatusHandler(resourceService, conditionService, kinds))

	for _, def := range kinds.All() {
		ownerPlural := ""
		if def.IsOwned() {
			owner, ok := kinds.GetByKind(def.GetOwnerKind())
			if !ok {
				logger.With(nil, "kind", def.Kind, "owner_kind", def.GetOwnerKind()).
					Warn("Owner kind is not registered, skipping routes")
				continue
			}
			ownerPlural = owner.Plural
		}
		registerResourceRoutes(apiV1Router, def, ownerPlural, resourceService)
	}
}

func registerStatusRoutes(apiV1Router *mux.Router, handler *handlers.ResourceStatusHandler) {
	router := apiV1Router.PathPrefix("/resources").Subrouter()
	router.HandleFunc("", handler.List).Methods(http.MethodGet)
	router.HandleFunc("/{id}", handler.Get).Methods(http.MethodGet)
	router.HandleFunc("/{id}/status", handler.GetStatus).Methods(http.MethodGet)
	router.HandleFunc("/{id}/statuses", handler.CreateStatus).Methods(http.MethodPost)
	router.HandleFunc("/{id}/reports", handler.ListReports).Methods(http.MethodGet)
}

// registerResourceRoutes mounts the CRUD routes of one kind. Owned kinds are
// nested under their owner, e.g. /clusters/{cluster_id}/nodepools.
func registerResourceRoutes(
	apiV1Router *mux.Router,
	def *api.ResourceDefinition,
	ownerPlural string,
	resourceService services.ResourceService,
) {
	handler := handlers.NewResourceHandler(resourceService, handlers.NewResourceHandlerConfig(def, ownerPlural))

	pathPrefix := "/" + def.Plural
	if ownerPlural != "" {
		pathPrefix = "/" + ownerPlural + "/{" + def.GetOwnerPathParam() + "}/" + def.Plural
	}
	router := apiV1Router.PathPrefix(pathPrefix).Subrouter()

	router.HandleFunc("", handler.List).Methods(http.MethodGet)
	router.HandleFunc("", handler.Create).Methods(http.MethodPost)
	router.HandleFunc("/{id}", handler.Get).Methods(http.MethodGet)
	router.HandleFunc("/{id}", handler.Patch).Methods(http.MethodPatch)
	router.HandleFunc("/{id}", handler.Delete).Methods(http.MethodDelete)

	logger.With(nil, "kind", def.Kind, "path", pathPrefix).Info("Registered routes for resource type")
}
