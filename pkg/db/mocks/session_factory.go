package mocks

import (
	"context"
	"database/sql"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/config"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/db"
	dbContext "github.com/openshift-hyperfleet/hyperfleet/pkg/db/db_context"
)

// MockSessionFactory is a SessionFactory over go-sqlmock for asserting the
// SQL issued by DAOs.
type MockSessionFactory struct {
	Mock  sqlmock.Sqlmock
	sqlDB *sql.DB
	g2    *gorm.DB
}

var _ db.SessionFactory = &MockSessionFactory{}

func NewMockSessionFactory() (*MockSessionFactory, error) {
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		return nil, err
	}
	g2, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	return &MockSessionFactory{Mock: mock, sqlDB: sqlDB, g2: g2}, nil
}

func (f *MockSessionFactory) Init(*config.DatabaseConfig) {}

func (f *MockSessionFactory) DirectDB() *sql.DB {
	return f.sqlDB
}

func (f *MockSessionFactory) New(ctx context.Context) *gorm.DB {
	if tx, ok := dbContext.Transaction(ctx); ok {
		return tx.DB().WithContext(ctx)
	}
	return f.g2.Session(&gorm.Session{Context: ctx})
}

func (f *MockSessionFactory) CheckConnection() error {
	return f.sqlDB.Ping()
}

func (f *MockSessionFactory) Close() error {
	return f.sqlDB.Close()
}

func (f *MockSessionFactory) ResetDB() {}

func (f *MockSessionFactory) NewListener(ctx context.Context, _ string, _ func(string)) {
	<-ctx.Done()
}
