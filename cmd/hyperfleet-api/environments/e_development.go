package environments

import (
	"github.com/openshift-hyperfleet/hyperfleet/pkg/config"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/db/db_session"
)

// devEnvImpl environment is intended for local use while developing features
type devEnvImpl struct {
	env *Env
}

var _ EnvironmentImpl = &devEnvImpl{}

func (e *devEnvImpl) OverrideDatabase(c *Database) error {
	c.SessionFactory = db_session.NewProdFactory(e.env.Config.Database)
	return nil
}

func (e *devEnvImpl) OverrideConfig(c *config.ServeConfig) error {
	return nil
}

func (e *devEnvImpl) OverrideServices(s *Services) error {
	return nil
}

func (e *devEnvImpl) Flags() map[string]string {
	return map[string]string{
		"log-format":      "text",
		"server-host":     "localhost",
		"db-sslmode":      "disable",
		"adapters-source": config.AdapterSourceConfig,
	}
}
