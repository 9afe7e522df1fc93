package migrate

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/api"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/config"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/db"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/db/db_session"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/logger"
)

const targetFlag = "to"

// NewMigrateCommand applies the schema migrations and exits.
func NewMigrateCommand() *cobra.Command {
	v := config.NewCommandConfig()
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema migrations",
		Long:  "Apply the database schema migrations, all of them or up to --to",
		Run: func(cmd *cobra.Command, _ []string) {
			if err := runMigrate(v, cmd); err != nil {
				os.Exit(1)
			}
		},
	}

	config.NewMigrateConfig().ConfigureFlags(v, cmd.PersistentFlags())
	cmd.Flags().String(targetFlag, "", "Stop after this migration ID")
	return cmd
}

func runMigrate(v *viper.Viper, cmd *cobra.Command) error {
	ctx := context.Background()
	cfg, err := config.LoadMigrateConfig(v, cmd.PersistentFlags())
	if err != nil {
		logger.WithError(ctx, err).Error("Invalid configuration")
		return err
	}
	logger.InitGlobalLogger(cfg.Logging.LogConfig("hyperfleet-migrate", api.Version))

	sessionFactory := db_session.NewProdFactory(cfg.Database)
	defer func() {
		if err := sessionFactory.Close(); err != nil {
			logger.WithError(ctx, err).Error("Failed to close database connection")
		}
	}()

	// MigrateTo logs its own outcome
	if target, _ := cmd.Flags().GetString(targetFlag); target != "" {
		return db.MigrateTo(sessionFactory, target)
	}
	if err := db.Migrate(sessionFactory.New(ctx)); err != nil {
		logger.WithError(ctx, err).Error("Migration failed")
		return err
	}
	logger.Info(ctx, "Schema is up to date")
	return nil
}
