package config

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// AdapterConfig is the configuration of the adapter command
type AdapterConfig struct {
	App         *AppConfig            `mapstructure:"app" json:"app" validate:"required"`
	Metrics     *ListenerConfig       `mapstructure:"metrics" json:"metrics" validate:"required"`
	HealthCheck *ListenerConfig       `mapstructure:"health_check" json:"health_check" validate:"required"`
	Logging     *LoggingConfig        `mapstructure:"logging" json:"logging" validate:"required"`
	Adapter     *AdapterRuntimeConfig `mapstructure:"adapter" json:"adapter" validate:"required"`
	Broker      *BrokerConfig         `mapstructure:"broker" json:"broker" validate:"required"`
	Database    *DatabaseConfig       `mapstructure:"database" json:"database" validate:"required"`
}

func NewAdapterConfig() *AdapterConfig {
	return &AdapterConfig{
		App:         NewAppConfig("hyperfleet-adapter"),
		Metrics:     NewMetricsConfig(9190),
		HealthCheck: NewHealthCheckConfig(9193),
		Logging:     NewLoggingConfig(),
		Adapter:     NewAdapterRuntimeConfig(),
		Broker:      NewBrokerConfig(),
		Database:    NewDatabaseConfig(),
	}
}

func (c *AdapterConfig) ConfigureFlags(v *viper.Viper, flagset *pflag.FlagSet) {
	defineConfigFlag(flagset)
	c.App.defineAndBindFlags(v, flagset)
	c.Metrics.defineAndBindFlags(v, flagset)
	c.HealthCheck.defineAndBindFlags(v, flagset)
	c.Logging.defineAndBindFlags(v, flagset)
	c.Adapter.defineAndBindFlags(v, flagset)
	c.Broker.defineAndBindFlags(v, flagset)
	c.Database.defineAndBindFlags(v, flagset)
}

// NeedsDatabase reports whether the broker or task store is backed by Postgres
func (c *AdapterConfig) NeedsDatabase() bool {
	return c.Broker.Type == BrokerTypePostgres || c.Adapter.TaskStore == TaskStorePostgres
}

func LoadAdapterConfig(v *viper.Viper, flags *pflag.FlagSet) (*AdapterConfig, error) {
	cfg := NewAdapterConfig()
	if err := loadInto(v, flags, cfg); err != nil {
		return nil, err
	}
	if err := validateStruct(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
