package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/adapter"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/api"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/broker"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/client/hyperfleet"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/config"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/db"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/db/db_metrics"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/db/db_session"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/health"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/logger"
	pkgserver "github.com/openshift-hyperfleet/hyperfleet/pkg/server"
)

func main() {
	logger.InitGlobalLogger(logger.ConfigFromEnv("hyperfleet-adapter", api.Version))
	v := config.NewCommandConfig()
	rootCmd := &cobra.Command{
		Use:     "hyperfleet-adapter",
		Short:   "Run the actions of one adapter for the pulses addressed to it",
		Version: api.Version,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, v)
		},
		SilenceUsage: true,
	}
	config.NewAdapterConfig().ConfigureFlags(v, rootCmd.Flags())

	if err := rootCmd.Execute(); err != nil {
		logger.WithError(context.Background(), err).Error("Adapter failed")
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, v *viper.Viper) error {
	cfg, err := config.LoadAdapterConfig(v, cmd.Flags())
	if err != nil {
		return err
	}
	logger.InitGlobalLogger(cfg.Logging.LogConfig(cfg.App.Name, api.Version))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithAdapter(ctx, cfg.Adapter.Name)
	config.DisplayConfig(ctx, cfg)

	var sessionFactory db.SessionFactory
	if cfg.NeedsDatabase() {
		db_metrics.SetComponent("adapter")
		sessionFactory = db_session.NewProdFactory(cfg.Database)
		defer func() {
			if err := sessionFactory.Close(); err != nil {
				logger.WithError(ctx, err).Error("Failed to close database connection")
			}
		}()
	}

	store, err := adapter.NewTaskStore(cfg.Adapter.TaskStore, &sessionFactory)
	if err != nil {
		return err
	}

	kubeClient, err := adapter.NewKubernetesClient(cfg.Adapter.Job.Kubeconfig)
	if err != nil {
		return err
	}
	executor := adapter.NewJobExecutor(kubeClient, cfg.Adapter.Job)

	client := hyperfleet.NewClient(cfg.Adapter.APIURL, cfg.Adapter.RequestTimeout).WithUserAgent("adapter-" + cfg.Adapter.Name)
	reporter := adapter.NewReporter(client, cfg.Adapter.RequestTimeout*3)

	runtime := adapter.NewRuntime(
		cfg.Adapter.Name, store, executor, client, reporter, adapter.PolicyFromConfig(cfg.Adapter), nil,
	)

	pulses, err := broker.New(cfg.Broker, &sessionFactory)
	if err != nil {
		return err
	}
	defer func() {
		if err := pulses.Close(); err != nil {
			logger.WithError(ctx, err).Error("Failed to close broker")
		}
	}()

	noTLS := config.HTTPSConfig{}
	metricsServer := pkgserver.NewMetricsServer(cfg.Metrics, noTLS)
	healthServer := pkgserver.NewHealthServer(cfg.HealthCheck, noTLS, sessionFactory)
	go metricsServer.Start()
	go healthServer.Start()
	readiness := health.GetReadinessState()
	readiness.AddCheck("api", client.Ping)
	readiness.AddCheck("kubernetes", func(context.Context) error {
		_, err := kubeClient.Discovery().ServerVersion()
		return err
	})
	readiness.SetReady()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return pulses.Subscribe(gctx, cfg.Adapter.Name, cfg.Adapter.Concurrency, runtime.Handle)
	})
	logger.With(ctx, "concurrency", cfg.Adapter.Concurrency).Info("Adapter subscribed")
	err = g.Wait()

	readiness.SetShuttingDown()
	for _, srv := range []pkgserver.Server{metricsServer, healthServer} {
		if stopErr := srv.Stop(); stopErr != nil {
			logger.WithError(ctx, stopErr).Error("Failed to stop server")
		}
	}
	return err
}
