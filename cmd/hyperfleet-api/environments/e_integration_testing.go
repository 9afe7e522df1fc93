package environments

import (
	"os"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/config"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/db/db_session"
)

var _ EnvironmentImpl = &integrationTestingEnvImpl{}

// integrationTestingEnvImpl is configuration for integration tests using testcontainers
type integrationTestingEnvImpl struct {
	env *Env
}

func (e *integrationTestingEnvImpl) OverrideDatabase(c *Database) error {
	c.SessionFactory = db_session.NewTestcontainerFactory(e.env.Config.Database)
	return nil
}

func (e *integrationTestingEnvImpl) OverrideConfig(c *config.ServeConfig) error {
	// Support a one-off env to allow enabling db debug in testing
	if os.Getenv("DB_DEBUG") == "true" {
		c.Database.Debug = true
	}
	return nil
}

func (e *integrationTestingEnvImpl) OverrideServices(s *Services) error {
	return nil
}

func (e *integrationTestingEnvImpl) Flags() map[string]string {
	return map[string]string{
		"server-host":       "localhost",
		"server-port":       "8777",
		"metrics-port":      "8780",
		"health-check-port": "8783",
		"adapters-source":   config.AdapterSourceConfig,
		"cluster-adapters":  "validation,dns",
		"nodepool-adapters": "validation",
		"trace-reports":     "true",
	}
}
