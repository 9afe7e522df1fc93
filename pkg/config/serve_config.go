package config

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ServeConfig is the configuration of the API server command
type ServeConfig struct {
	App         *AppConfig        `mapstructure:"app" json:"app" validate:"required"`
	Server      *ServerConfig     `mapstructure:"server" json:"server" validate:"required"`
	Metrics     *ListenerConfig   `mapstructure:"metrics" json:"metrics" validate:"required"`
	HealthCheck *ListenerConfig   `mapstructure:"health_check" json:"health_check" validate:"required"`
	Database    *DatabaseConfig   `mapstructure:"database" json:"database" validate:"required"`
	Logging     *LoggingConfig    `mapstructure:"logging" json:"logging" validate:"required"`
	Adapters    *AdaptersConfig   `mapstructure:"adapters" json:"adapters" validate:"required"`
	Aggregator  *AggregatorConfig `mapstructure:"aggregator" json:"aggregator" validate:"required"`
}

func NewServeConfig() *ServeConfig {
	return &ServeConfig{
		App:         NewAppConfig("hyperfleet-api"),
		Server:      NewServerConfig(),
		Metrics:     NewMetricsConfig(8080),
		HealthCheck: NewHealthCheckConfig(8083),
		Database:    NewDatabaseConfig(),
		Logging:     NewLoggingConfig(),
		Adapters:    NewAdaptersConfig(),
		Aggregator:  NewAggregatorConfig(),
	}
}

// ConfigureFlags defines configuration flags and binds them to viper for precedence handling
func (c *ServeConfig) ConfigureFlags(v *viper.Viper, flagset *pflag.FlagSet) {
	defineConfigFlag(flagset)
	c.App.defineAndBindFlags(v, flagset)
	c.Server.defineAndBindFlags(v, flagset)
	c.Metrics.defineAndBindFlags(v, flagset)
	c.HealthCheck.defineAndBindFlags(v, flagset)
	c.Database.defineAndBindFlags(v, flagset)
	c.Logging.defineAndBindFlags(v, flagset)
	c.Adapters.defineAndBindFlags(v, flagset)
	c.Aggregator.defineAndBindFlags(v, flagset)
}

// LoadServeConfig loads the serve command configuration.
// The viper instance must have flags bound via ConfigureFlags.
func LoadServeConfig(v *viper.Viper, flags *pflag.FlagSet) (*ServeConfig, error) {
	cfg := NewServeConfig()
	if err := loadInto(v, flags, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *ServeConfig) Validate() error {
	return validateStruct(c)
}
