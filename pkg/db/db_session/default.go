package db_session

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/config"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/db"
)

// Default is the session factory of a deployed process. It holds one pool
// for the life of the process.
type Default struct {
	config *config.DatabaseConfig
	g2     *gorm.DB
	// db is kept because gorm v2 has no Close
	db *sql.DB
}

var _ db.SessionFactory = &Default{}

func NewProdFactory(config *config.DatabaseConfig) *Default {
	conn := &Default{}
	conn.Init(config)
	return conn
}

// Init opens the pool once per process; later calls are no-ops.
func (f *Default) Init(cfg *config.DatabaseConfig) {
	once.Do(func() {
		useSSL := cfg.SSLMode != disable
		dbx, err := sql.Open(cfg.Dialect, cfg.ConnectionString(useSSL))
		if err != nil {
			useSSL = false
			dbx, err = sql.Open(cfg.Dialect, cfg.ConnectionString(useSSL))
		}
		if err == nil {
			f.g2, err = openGorm(dbx, cfg)
		}
		if err != nil {
			panic(fmt.Sprintf("failed to connect to %s database %s with connection string %s: %s",
				cfg.Dialect, cfg.Name, cfg.LogSafeConnectionString(useSSL), err))
		}
		f.config = cfg
		f.db = dbx
	})
}

func (f *Default) DirectDB() *sql.DB {
	return f.db
}

func (f *Default) NewListener(ctx context.Context, channel string, callback func(payload string)) {
	listen(ctx, f.config.ConnectionString(f.config.SSLMode != disable), channel, f.config, callback)
}

func (f *Default) New(ctx context.Context) *gorm.DB {
	return sessionFor(ctx, f.g2)
}

func (f *Default) CheckConnection() error {
	return f.g2.Exec("SELECT 1").Error
}

// Close releases the pool. Call it once, when the process exits.
func (f *Default) Close() error {
	return f.db.Close()
}

func (f *Default) ResetDB() {
	panic("ResetDB is only available on the testcontainer factory")
}
