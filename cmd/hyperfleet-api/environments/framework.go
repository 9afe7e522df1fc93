package environments

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/openshift-hyperfleet/hyperfleet/cmd/hyperfleet-api/environments/registry"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/config"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/crd"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/logger"
)

var (
	once         sync.Once
	environment  *Env
	environments map[string]EnvironmentImpl
)

func init() {
	once.Do(func() {
		environment = &Env{
			Config: config.NewServeConfig(),
			Name:   GetEnvironmentStrFromEnv(),
		}

		environments = map[string]EnvironmentImpl{
			DevelopmentEnv:         &devEnvImpl{environment},
			UnitTestingEnv:         &unitTestingEnvImpl{environment},
			IntegrationTestingEnv:  &integrationTestingEnvImpl{environment},
			EmbeddedDevelopmentEnv: &embeddedDevelopmentEnvImpl{environment},
			ProductionEnv:          &productionEnvImpl{environment},
		}
	})
}

// EnvironmentImpl defines the behaviors of one runtime environment: flag
// defaults plus override hooks for each component.
type EnvironmentImpl interface {
	Flags() map[string]string
	OverrideConfig(c *config.ServeConfig) error
	OverrideDatabase(d *Database) error
	OverrideServices(s *Services) error
}

func GetEnvironmentStrFromEnv() string {
	envStr, specified := os.LookupEnv(EnvironmentStringKey)
	if !specified || envStr == "" {
		envStr = EnvironmentDefault
	}
	return envStr
}

func Environment() *Env {
	return environment
}

// AddFlags defines the serve flags on flags and applies the environment's defaults
func (e *Env) AddFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	e.Config.ConfigureFlags(v, flags)
	impl, found := environments[e.Name]
	if !found {
		return errUnknownEnvironment(e.Name)
	}
	return setConfigDefaults(flags, impl.Flags())
}

// Initialize loads the environment's resources from a loaded configuration.
// Flag parsing and config loading happen before, in the command.
func (e *Env) Initialize(cfg *config.ServeConfig) error {
	ctx := context.Background()
	logger.With(ctx, "environment", e.Name).Info("Initializing environment")

	envImpl, found := environments[e.Name]
	if !found {
		return errUnknownEnvironment(e.Name)
	}

	e.Config = cfg
	if err := envImpl.OverrideConfig(e.Config); err != nil {
		logger.WithError(ctx, err).Error("Failed to configure ServeConfig")
		return err
	}

	// each env sets the database explicitly, factories hold a once-initialized pool
	if err := envImpl.OverrideDatabase(&e.Database); err != nil {
		logger.WithError(ctx, err).Error("Failed to configure Database")
		return err
	}

	if err := e.LoadKinds(ctx); err != nil {
		return err
	}

	e.LoadServices()
	if err := envImpl.OverrideServices(&e.Services); err != nil {
		logger.WithError(ctx, err).Error("Failed to configure Services")
		return err
	}

	return nil
}

// LoadKinds fills the kind registry from the configured adapter source
func (e *Env) LoadKinds(ctx context.Context) error {
	if err := crd.Load(ctx, e.Config.Adapters); err != nil {
		logger.WithError(ctx, err).With("source", e.Config.Adapters.Source).Error("Failed to load resource kinds")
		return err
	}
	e.Kinds = crd.DefaultRegistry()
	logger.With(ctx, "kind_count", e.Kinds.Count()).Info("Loaded resource kinds")
	return nil
}

func (e *Env) LoadServices() {
	registry.LoadDiscoveredServices(&e.Services, e)
}

func (e *Env) Teardown() {
	if e.Database.SessionFactory != nil {
		if err := e.Database.SessionFactory.Close(); err != nil {
			logger.WithError(context.Background(), err).Error("Error closing database session factory")
		}
	}
}

func setConfigDefaults(flags *pflag.FlagSet, defaults map[string]string) error {
	for name, value := range defaults {
		if err := flags.Set(name, value); err != nil {
			logger.WithError(context.Background(), err).With("flag", name).Error("Error setting flag")
			return err
		}
	}
	return nil
}

func errUnknownEnvironment(name string) error {
	return fmt.Errorf("unknown runtime environment %q, set %s to one of %s, %s, %s, %s, %s",
		name, EnvironmentStringKey,
		DevelopmentEnv, UnitTestingEnv, IntegrationTestingEnv, EmbeddedDevelopmentEnv, ProductionEnv)
}
