package config

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type DatabaseConfig struct {
	Dialect            string `mapstructure:"dialect" json:"dialect" validate:"required"`
	Host               string `mapstructure:"host" json:"host" validate:""`
	Port               int    `mapstructure:"port" json:"port" validate:"min=0,max=65535"`
	Name               string `mapstructure:"name" json:"name" validate:""`
	Username           string `mapstructure:"username" json:"username" validate:""`
	Password           string `mapstructure:"password" json:"password" validate:""`
	SSLMode            string `mapstructure:"sslmode" json:"sslmode" validate:"oneof=disable require verify-ca verify-full"`
	RootCertFile       string `mapstructure:"rootcert_file" json:"rootcert_file" validate:""`
	Debug              bool   `mapstructure:"debug" json:"debug"`
	MaxOpenConnections int    `mapstructure:"max_open_connections" json:"max_open_connections" validate:"min=1"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" json:"max_idle_connections" validate:"min=0"`

	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" json:"conn_max_lifetime"`

	// LISTEN/NOTIFY connection of the pulse queue; pq backs off between these bounds
	ListenerMinReconnect time.Duration `mapstructure:"listener_min_reconnect" json:"listener_min_reconnect" validate:"gt=0"`
	ListenerMaxReconnect time.Duration `mapstructure:"listener_max_reconnect" json:"listener_max_reconnect" validate:"gtefield=ListenerMinReconnect"`
}

func NewDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		Dialect:            "postgres",
		SSLMode:            "disable",
		MaxOpenConnections: 50,
		MaxIdleConnections: 10,
		ConnMaxLifetime:    30 * time.Minute,

		ListenerMinReconnect: 10 * time.Second,
		ListenerMaxReconnect: time.Minute,
	}
}

func (c *DatabaseConfig) defineAndBindFlags(v *viper.Viper, fs *pflag.FlagSet) {
	defineAndBindStringFlag(v, fs, "database.host", "db-host", "", c.Host, "Database host")
	defineAndBindIntFlag(v, fs, "database.port", "db-port", "", c.Port, "Database port")
	defineAndBindStringFlag(v, fs, "database.username", "db-username", "u", c.Username, "Database username")
	defineAndBindStringFlag(v, fs, "database.password", "db-password", "", c.Password, "Database password, HYPERFLEET_DATABASE_PASSWORD keeps it out of the process list")
	defineAndBindStringFlag(v, fs, "database.name", "db-name", "d", c.Name, "Database name")

	defineAndBindStringFlag(v, fs, "database.rootcert_file", "db-rootcert", "", c.RootCertFile, "Database root certificate file")
	defineAndBindStringFlag(v, fs, "database.sslmode", "db-sslmode", "", c.SSLMode, "Database SSL mode (disable | require | verify-ca | verify-full)")
	defineAndBindBoolFlag(v, fs, "database.debug", "db-debug", "", c.Debug, "Enable database debug mode")
	defineAndBindIntFlag(v, fs, "database.max_open_connections", "db-max-open-connections", "", c.MaxOpenConnections, "Maximum open DB connections")
	defineAndBindIntFlag(v, fs, "database.max_idle_connections", "db-max-idle-connections", "", c.MaxIdleConnections, "Maximum idle DB connections")
	defineAndBindDurationFlag(v, fs, "database.conn_max_lifetime", "db-conn-max-lifetime", "", c.ConnMaxLifetime, "Maximum lifetime of a DB connection (0 keeps connections forever)")
	defineAndBindDurationFlag(v, fs, "database.listener_min_reconnect", "db-listener-min-reconnect", "", c.ListenerMinReconnect,
		"Initial reconnect delay of the pulse queue listener")
	defineAndBindDurationFlag(v, fs, "database.listener_max_reconnect", "db-listener-max-reconnect", "", c.ListenerMaxReconnect,
		"Maximum reconnect delay of the pulse queue listener")
}

// ApplyPool sets the connection pool limits on db. The pulse queue claims and
// the condition CAS writes share this pool with the API handlers.
func (c *DatabaseConfig) ApplyPool(db *sql.DB) {
	db.SetMaxOpenConns(c.MaxOpenConnections)
	db.SetMaxIdleConns(c.MaxIdleConnections)
	db.SetConnMaxLifetime(c.ConnMaxLifetime)
}

// ConnectionString is the libpq keyword/value DSN of the configured database.
func (c *DatabaseConfig) ConnectionString(withSSL bool) string {
	return c.dsn(withSSL, false)
}

// LogSafeConnectionString is ConnectionString without the password and root certificate.
func (c *DatabaseConfig) LogSafeConnectionString(withSSL bool) string {
	return c.dsn(withSSL, true)
}

func (c *DatabaseConfig) dsn(withSSL, redact bool) string {
	password, rootCert := c.Password, c.RootCertFile
	if redact {
		password, rootCert = redacted, redacted
	}
	parts := []string{
		"host=" + c.Host,
		fmt.Sprintf("port=%d", c.Port),
		"user=" + c.Username,
		"password=" + quoteDSNValue(password),
		"dbname=" + c.Name,
	}
	if withSSL {
		parts = append(parts, "sslmode="+c.SSLMode, "sslrootcert="+quoteDSNValue(rootCert))
	} else {
		parts = append(parts, "sslmode=disable")
	}
	return strings.Join(parts, " ")
}

const redacted = "<REDACTED>"

var dsnEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

func quoteDSNValue(v string) string {
	return "'" + dsnEscaper.Replace(v) + "'"
}
