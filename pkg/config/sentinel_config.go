package config

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// SentinelConfig is the configuration of the sentinel command
type SentinelConfig struct {
	App         *AppConfig        `mapstructure:"app" json:"app" validate:"required"`
	Metrics     *ListenerConfig   `mapstructure:"metrics" json:"metrics" validate:"required"`
	HealthCheck *ListenerConfig   `mapstructure:"health_check" json:"health_check" validate:"required"`
	Logging     *LoggingConfig    `mapstructure:"logging" json:"logging" validate:"required"`
	Adapters    *AdaptersConfig   `mapstructure:"adapters" json:"adapters" validate:"required"`
	Sentinel    *SentinelSettings `mapstructure:"sentinel" json:"sentinel" validate:"required"`
	Broker      *BrokerConfig     `mapstructure:"broker" json:"broker" validate:"required"`
	Database    *DatabaseConfig   `mapstructure:"database" json:"database" validate:"required"`
}

func NewSentinelConfig() *SentinelConfig {
	return &SentinelConfig{
		App:         NewAppConfig("hyperfleet-sentinel"),
		Metrics:     NewMetricsConfig(9090),
		HealthCheck: NewHealthCheckConfig(9093),
		Logging:     NewLoggingConfig(),
		Adapters:    NewAdaptersConfig(),
		Sentinel:    NewSentinelSettings(),
		Broker:      NewBrokerConfig(),
		Database:    NewDatabaseConfig(),
	}
}

func (c *SentinelConfig) ConfigureFlags(v *viper.Viper, flagset *pflag.FlagSet) {
	defineConfigFlag(flagset)
	c.App.defineAndBindFlags(v, flagset)
	c.Metrics.defineAndBindFlags(v, flagset)
	c.HealthCheck.defineAndBindFlags(v, flagset)
	c.Logging.defineAndBindFlags(v, flagset)
	c.Adapters.defineAndBindFlags(v, flagset)
	c.Sentinel.defineAndBindFlags(v, flagset)
	c.Broker.defineAndBindFlags(v, flagset)
	c.Database.defineAndBindFlags(v, flagset)
}

func LoadSentinelConfig(v *viper.Viper, flags *pflag.FlagSet) (*SentinelConfig, error) {
	cfg := NewSentinelConfig()
	if err := loadInto(v, flags, cfg); err != nil {
		return nil, err
	}
	if err := validateStruct(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
