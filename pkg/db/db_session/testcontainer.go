package db_session

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/config"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/db"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/db/migrations"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/logger"
)

const testcontainerImage = "postgres:16-alpine"

// Testcontainer runs a disposable PostgreSQL container, migrated on start.
type Testcontainer struct {
	config    *config.DatabaseConfig
	container *postgres.PostgresContainer
	connStr   string
	g2        *gorm.DB
	sqlDB     *sql.DB
}

var _ db.SessionFactory = &Testcontainer{}

func NewTestcontainerFactory(config *config.DatabaseConfig) *Testcontainer {
	conn := &Testcontainer{config: config}
	conn.Init(config)
	return conn
}

// Init exits the process on failure, there is no database to test against.
func (f *Testcontainer) Init(cfg *config.DatabaseConfig) {
	ctx := context.Background()
	if err := f.start(ctx, cfg); err != nil {
		logger.WithError(ctx, err).Error("Unable to prepare the testcontainer database")
		os.Exit(1)
	}
	logger.With(ctx, "image", testcontainerImage).Info("Testcontainer database ready")
}

func (f *Testcontainer) start(ctx context.Context, cfg *config.DatabaseConfig) error {
	container, err := postgres.Run(ctx, testcontainerImage,
		postgres.WithDatabase(cfg.Name),
		postgres.WithUsername(cfg.Username),
		postgres.WithPassword(cfg.Password),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("5432/tcp").WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		return fmt.Errorf("starting container: %w", err)
	}
	f.container = container

	if f.connStr, err = container.ConnectionString(ctx, "sslmode=disable"); err != nil {
		return fmt.Errorf("reading connection string: %w", err)
	}
	if f.sqlDB, err = sql.Open("postgres", f.connStr); err != nil {
		return fmt.Errorf("opening connection: %w", err)
	}
	if f.g2, err = openGorm(f.sqlDB, cfg); err != nil {
		return fmt.Errorf("opening gorm: %w", err)
	}
	if err := db.Migrate(f.g2); err != nil {
		return fmt.Errorf("migrating: %w", err)
	}
	return nil
}

func (f *Testcontainer) DirectDB() *sql.DB {
	return f.sqlDB
}

func (f *Testcontainer) New(ctx context.Context) *gorm.DB {
	conn := sessionFor(ctx, f.g2)
	if f.config.Debug {
		conn = conn.Debug()
	}
	return conn
}

func (f *Testcontainer) CheckConnection() error {
	_, err := f.sqlDB.Exec("SELECT 1")
	return err
}

func (f *Testcontainer) Close() error {
	ctx := context.Background()
	if f.sqlDB != nil {
		if err := f.sqlDB.Close(); err != nil {
			logger.WithError(ctx, err).Warn("Error closing testcontainer connection")
		}
	}
	if f.container == nil {
		return nil
	}
	if err := f.container.Terminate(ctx); err != nil {
		return fmt.Errorf("failed to terminate testcontainer: %w", err)
	}
	return nil
}

// ResetDB empties every application table, the schema is kept.
func (f *Testcontainer) ResetDB() {
	ctx := context.Background()
	stmt := "TRUNCATE TABLE " + strings.Join(migrations.Tables, ", ") + " CASCADE"
	if err := f.New(ctx).Exec(stmt).Error; err != nil {
		logger.WithError(ctx, err).Error("Error truncating tables")
	}
}

func (f *Testcontainer) NewListener(ctx context.Context, channel string, callback func(payload string)) {
	listen(ctx, f.connStr, channel, f.config, callback)
}
