package servecmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/openshift-hyperfleet/hyperfleet/cmd/hyperfleet-api/environments"
	"github.com/openshift-hyperfleet/hyperfleet/cmd/hyperfleet-api/server"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/api"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/config"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/health"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/logger"
	pkgserver "github.com/openshift-hyperfleet/hyperfleet/pkg/server"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/telemetry"
)

func NewServeCommand() *cobra.Command {
	v := config.NewCommandConfig()
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the hyperfleet API",
		Long:  "Serve the hyperfleet API together with its metrics and health endpoints.",
		Run: func(cmd *cobra.Command, _ []string) {
			runServe(cmd, v)
		},
	}

	if err := environments.Environment().AddFlags(v, cmd.PersistentFlags()); err != nil {
		logger.WithError(context.Background(), err).Error("Unable to add environment flags to serve command")
		os.Exit(1)
	}
	return cmd
}

func runServe(cmd *cobra.Command, v *viper.Viper) {
	ctx := context.Background()

	cfg, err := config.LoadServeConfig(v, cmd.PersistentFlags())
	if err != nil {
		logger.WithError(ctx, err).Error("Invalid configuration")
		os.Exit(1)
	}

	logger.InitGlobalLogger(cfg.Logging.LogConfig(cfg.App.Name, api.Version))
	config.DisplayConfig(ctx, cfg)

	var tp *sdktrace.TracerProvider
	if cfg.Logging.OTel.Enabled {
		tp, err = telemetry.InitTraceProvider(ctx, cfg.App.Name, api.Version, cfg.Logging.OTel)
		if err != nil {
			logger.WithError(ctx, err).Warn("Failed to initialize tracing, continuing without it")
		} else {
			logger.With(ctx, "exporter", cfg.Logging.OTel.Exporter, "sampling_rate", cfg.Logging.OTel.SamplingRate).
				Info("OpenTelemetry tracing enabled")
		}
	}

	env := environments.Environment()
	if err := env.Initialize(cfg); err != nil {
		logger.WithError(ctx, err).Error("Unable to initialize environment")
		os.Exit(1)
	}

	apiServer := server.NewAPIServer()
	metricsServer := pkgserver.NewMetricsServer(cfg.Metrics, cfg.Server.HTTPS)
	healthServer := pkgserver.NewHealthServer(cfg.HealthCheck, cfg.Server.HTTPS, env.Database.SessionFactory)

	go apiServer.Start()
	go metricsServer.Start()
	go healthServer.Start()

	<-apiServer.NotifyListening()
	health.GetReadinessState().SetReady()
	logger.Info(ctx, "Service is ready to accept traffic")

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()

	logger.Info(ctx, "Shutdown signal received, draining")
	health.GetReadinessState().SetShuttingDown()

	for _, s := range []pkgserver.Server{apiServer, metricsServer, healthServer} {
		if err := s.Stop(); err != nil {
			logger.WithError(ctx, err).Error("Failed to stop server")
		}
	}
	if err := telemetry.Shutdown(ctx, tp); err != nil {
		logger.WithError(ctx, err).Error("Failed to shut down trace provider")
	}
	env.Teardown()
	logger.Info(ctx, "Shutdown complete")
}
