package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/openshift-hyperfleet/hyperfleet/cmd/hyperfleet-api/migrate"
	"github.com/openshift-hyperfleet/hyperfleet/cmd/hyperfleet-api/servecmd"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/api"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/logger"

	// Registers the resource routes and services
	_ "github.com/openshift-hyperfleet/hyperfleet/plugins/resources"
)

func main() {
	logger.InitGlobalLogger(logger.ConfigFromEnv("hyperfleet-api", api.Version))
	ctx := context.Background()

	rootCmd := &cobra.Command{
		Use:     "hyperfleet-api",
		Long:    "hyperfleet-api stores fleet resources and aggregates the conditions reported by adapters",
		Version: api.Version,
	}

	rootCmd.AddCommand(migrate.NewMigrateCommand(), servecmd.NewServeCommand())

	if err := rootCmd.Execute(); err != nil {
		logger.WithError(ctx, err).Error("Error running command")
		os.Exit(1)
	}
}
