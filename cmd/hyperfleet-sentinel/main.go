package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/api"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/broker"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/client/hyperfleet"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/config"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/crd"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/db"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/db/db_metrics"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/db/db_session"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/health"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/logger"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/sentinel"
	pkgserver "github.com/openshift-hyperfleet/hyperfleet/pkg/server"
)

func main() {
	logger.InitGlobalLogger(logger.ConfigFromEnv("hyperfleet-sentinel", api.Version))
	v := config.NewCommandConfig()
	rootCmd := &cobra.Command{
		Use:     "hyperfleet-sentinel",
		Short:   "Publish pulses that make adapters re-check fleet resources",
		Version: api.Version,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, v)
		},
		SilenceUsage: true,
	}
	config.NewSentinelConfig().ConfigureFlags(v, rootCmd.Flags())

	if err := rootCmd.Execute(); err != nil {
		logger.WithError(context.Background(), err).Error("Sentinel failed")
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, v *viper.Viper) error {
	cfg, err := config.LoadSentinelConfig(v, cmd.Flags())
	if err != nil {
		return err
	}
	logger.InitGlobalLogger(cfg.Logging.LogConfig(cfg.App.Name, api.Version))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	config.DisplayConfig(ctx, cfg)

	if err := crd.Load(ctx, cfg.Adapters); err != nil {
		return err
	}

	var sessionFactory db.SessionFactory
	if cfg.Broker.Type == config.BrokerTypePostgres {
		db_metrics.SetComponent("sentinel")
		sessionFactory = db_session.NewProdFactory(cfg.Database)
		defer func() {
			if err := sessionFactory.Close(); err != nil {
				logger.WithError(ctx, err).Error("Failed to close database connection")
			}
		}()
	}

	pulses, err := broker.New(cfg.Broker, &sessionFactory)
	if err != nil {
		return err
	}
	defer func() {
		if err := pulses.Close(); err != nil {
			logger.WithError(ctx, err).Error("Failed to close broker")
		}
	}()

	client := hyperfleet.NewClient(cfg.Sentinel.APIURL, cfg.Sentinel.RequestTimeout).WithUserAgent("sentinel")
	s := sentinel.New(cfg.Sentinel, client, pulses, crd.DefaultRegistry(), nil)

	noTLS := config.HTTPSConfig{}
	metricsServer := pkgserver.NewMetricsServer(cfg.Metrics, noTLS)
	healthServer := pkgserver.NewHealthServer(cfg.HealthCheck, noTLS, sessionFactory)
	go metricsServer.Start()
	go healthServer.Start()
	health.GetReadinessState().AddCheck("api", client.Ping)
	health.GetReadinessState().SetReady()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.Run(gctx)
	})
	err = g.Wait()

	health.GetReadinessState().SetShuttingDown()
	for _, srv := range []pkgserver.Server{metricsServer, healthServer} {
		if stopErr := srv.Stop(); stopErr != nil {
			logger.WithError(ctx, stopErr).Error("Failed to stop server")
		}
	}
	return err
}
