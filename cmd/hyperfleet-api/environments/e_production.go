package environments

import (
	"github.com/openshift-hyperfleet/hyperfleet/pkg/config"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/db/db_session"
)

// productionEnvImpl takes every setting from the config file, env vars and flags
type productionEnvImpl struct {
	env *Env
}

var _ EnvironmentImpl = &productionEnvImpl{}

func (e *productionEnvImpl) OverrideDatabase(c *Database) error {
	c.SessionFactory = db_session.NewProdFactory(e.env.Config.Database)
	return nil
}

func (e *productionEnvImpl) OverrideConfig(c *config.ServeConfig) error {
	return nil
}

func (e *productionEnvImpl) OverrideServices(s *Services) error {
	return nil
}

func (e *productionEnvImpl) Flags() map[string]string {
	return map[string]string{}
}
