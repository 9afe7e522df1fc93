package test

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/openshift-hyperfleet/hyperfleet/cmd/hyperfleet-api/environments"
	"github.com/openshift-hyperfleet/hyperfleet/cmd/hyperfleet-api/server"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/client/hyperfleet"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/config"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/db"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/health"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/logger"
	pkgserver "github.com/openshift-hyperfleet/hyperfleet/pkg/server"
	"github.com/openshift-hyperfleet/hyperfleet/test/factories"
)

var (
	helper *Helper
	once   sync.Once
)

type Helper struct {
	Ctx               context.Context
	DBFactory         db.SessionFactory
	AppConfig         *config.ServeConfig
	APIServer         pkgserver.Server
	MetricsServer     pkgserver.Server
	HealthCheckServer pkgserver.Server
	T                 *testing.T
	teardowns         []func() error
	Factories         factories.Factories
}

func NewHelper(t *testing.T) *Helper {
	once.Do(func() {
		initTestLogger()
		ctx := context.Background()

		env := environments.Environment()
		if _, ok := os.LookupEnv(environments.EnvironmentStringKey); !ok {
			env.Name = environments.IntegrationTestingEnv
		}

		v := config.NewCommandConfig()
		flags := pflag.NewFlagSet("integration", pflag.ContinueOnError)
		if err := env.AddFlags(v, flags); err != nil {
			logger.WithError(ctx, err).Error("Unable to add environment flags")
			os.Exit(1)
		}
		if err := flags.Parse(nil); err != nil {
			logger.WithError(ctx, err).Error("Unable to parse environment flags")
			os.Exit(1)
		}
		cfg, err := config.LoadServeConfig(v, flags)
		if err != nil {
			logger.WithError(ctx, err).Error("Unable to load testing configuration")
			os.Exit(1)
		}

		if err := env.Initialize(cfg); err != nil {
			logger.WithError(ctx, err).Error("Unable to initialize testing environment")
			os.Exit(1)
		}

		helper = &Helper{
			Ctx:       ctx,
			AppConfig: env.Config,
			DBFactory: env.Database.SessionFactory,
		}
		helper.startServers()
		health.GetReadinessState().SetReady()
	})
	helper.T = t
	return helper
}

func (helper *Helper) Env() *environments.Env {
	return environments.Environment()
}

func (helper *Helper) teardownEnv() error {
	helper.Env().Teardown()
	return nil
}

func (helper *Helper) Teardown() {
	for _, f := range helper.teardowns {
		if err := f(); err != nil {
			helper.T.Errorf("error running teardown func: %s", err)
		}
	}
}

// serve binds s before returning, so requests issued afterwards never race
// the server start.
func serve(name string, s pkgserver.Server) func() error {
	ctx := context.Background()
	listener, err := s.Listen()
	if err != nil {
		logger.With(ctx, "server", name).WithError(err).Error("Unable to start test server")
		os.Exit(1)
	}
	go func() {
		logger.With(ctx, "server", name).Debug("Test server started")
		s.Serve(listener)
		logger.With(ctx, "server", name).Debug("Test server stopped")
	}()
	return func() error {
		if err := s.Stop(); err != nil {
			return fmt.Errorf("unable to stop %s server: %w", name, err)
		}
		return nil
	}
}

func (helper *Helper) startServers() {
	helper.APIServer = server.NewAPIServer()
	helper.MetricsServer = pkgserver.NewMetricsServer(helper.AppConfig.Metrics, helper.AppConfig.Server.HTTPS)
	helper.HealthCheckServer = pkgserver.NewHealthServer(
		helper.AppConfig.HealthCheck, helper.AppConfig.Server.HTTPS, helper.DBFactory,
	)
	helper.teardowns = []func() error{
		serve("api", helper.APIServer),
		serve("metrics", helper.MetricsServer),
		serve("health", helper.HealthCheckServer),
		helper.teardownEnv,
	}
}

// NewID returns an id in the format the API issues.
func (helper *Helper) NewID() string {
	return helper.Factories.NewID()
}

// NewUUID returns an id in a format the API never issues.
func (helper *Helper) NewUUID() string {
	return uuid.New().String()
}

func (helper *Helper) baseURL() string {
	protocol := "http"
	if helper.AppConfig.Server.HTTPS.Enabled {
		protocol = "https"
	}
	return fmt.Sprintf("%s://%s", protocol, helper.AppConfig.Server.GetBindAddress())
}

func (helper *Helper) RestURL(path string) string {
	return helper.baseURL() + hyperfleet.DefaultBasePath + path
}

func (helper *Helper) MetricsURL(path string) string {
	return fmt.Sprintf("http://%s%s", helper.AppConfig.Metrics.GetBindAddress(), path)
}

func (helper *Helper) HealthCheckURL(path string) string {
	return fmt.Sprintf("http://%s%s", helper.AppConfig.HealthCheck.GetBindAddress(), path)
}

// NewApiClient returns the client the sentinel and the adapters use.
func (helper *Helper) NewApiClient() *hyperfleet.Client {
	return hyperfleet.NewClient(helper.baseURL(), 10*time.Second).WithUserAgent("integration")
}

// Count returns the number of rows in table.
func (helper *Helper) Count(table string) int64 {
	var count int64
	if err := helper.DBFactory.New(context.Background()).Table(table).Count(&count).Error; err != nil {
		helper.T.Errorf("error getting count for table %s: %v", table, err)
	}
	return count
}

// initTestLogger logs text at warn, LOG_LEVEL can lower it.
func initTestLogger() {
	cfg := logger.ConfigFromEnv("hyperfleet-api-test", "test")
	cfg.Format = logger.FormatText
	cfg.Hostname = "test-host"
	if os.Getenv(logger.EnvLogLevel) == "" {
		cfg.Level = slog.LevelWarn
	}
	logger.InitGlobalLogger(cfg)
}
