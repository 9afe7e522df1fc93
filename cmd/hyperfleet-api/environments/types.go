package environments

import (
	"github.com/openshift-hyperfleet/hyperfleet/pkg/config"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/crd"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/db"
)

const (
	EnvironmentStringKey = "HYPERFLEET_ENV"
	EnvironmentDefault   = DevelopmentEnv

	DevelopmentEnv         = "development"
	UnitTestingEnv         = "unit_testing"
	IntegrationTestingEnv  = "integration_testing"
	EmbeddedDevelopmentEnv = "embedded_development"
	ProductionEnv          = "production"
)

// Env holds everything the API server needs at runtime
type Env struct {
	Name     string
	Config   *config.ServeConfig
	Database Database
	Services Services
	// Kinds are the resource definitions served by the API
	Kinds *crd.Registry
}

type Database struct {
	SessionFactory db.SessionFactory
}

// Services holds the service locators registered by plugins
type Services struct {
	serviceRegistry map[string]interface{}
}

// GetService returns the locator registered under name, or nil
func (s *Services) GetService(name string) interface{} {
	if s.serviceRegistry == nil {
		return nil
	}
	return s.serviceRegistry[name]
}

// SetService registers the locator for name
func (s *Services) SetService(name string, service interface{}) {
	if s.serviceRegistry == nil {
		s.serviceRegistry = make(map[string]interface{})
	}
	s.serviceRegistry[name] = service
}
