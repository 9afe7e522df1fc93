// Package registry lets plugins contribute service locators to the
// environment without the environment importing them.
package registry

import "sync"

// ServiceFactory builds a service locator from the environment
type ServiceFactory func(env interface{}) interface{}

// ServiceSetter receives the locators built by LoadDiscoveredServices
type ServiceSetter interface {
	SetService(name string, service interface{})
}

var (
	mu        sync.Mutex
	factories = make(map[string]ServiceFactory)
)

// RegisterService registers a service factory, usually from a plugin init()
func RegisterService(name string, factory ServiceFactory) {
	mu.Lock()
	defer mu.Unlock()
	factories[name] = factory
}

// LoadDiscoveredServices builds every registered locator and hands it to services
func LoadDiscoveredServices(services ServiceSetter, env interface{}) {
	mu.Lock()
	defer mu.Unlock()
	for name, factory := range factories {
		services.SetService(name, factory(env))
	}
}
