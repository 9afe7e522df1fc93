package config

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// MigrateConfig is the configuration of the migrate command
type MigrateConfig struct {
	Database *DatabaseConfig `mapstructure:"database" json:"database" validate:"required"`
	Logging  *LoggingConfig  `mapstructure:"logging" json:"logging" validate:"required"`
}

func NewMigrateConfig() *MigrateConfig {
	return &MigrateConfig{
		Database: NewDatabaseConfig(),
		Logging:  NewLoggingConfig(),
	}
}

func (c *MigrateConfig) ConfigureFlags(v *viper.Viper, flagset *pflag.FlagSet) {
	defineConfigFlag(flagset)
	c.Database.defineAndBindFlags(v, flagset)
	c.Logging.defineAndBindFlags(v, flagset)
}

func LoadMigrateConfig(v *viper.Viper, flags *pflag.FlagSet) (*MigrateConfig, error) {
	cfg := NewMigrateConfig()
	if err := loadInto(v, flags, cfg); err != nil {
		return nil, err
	}
	if err := validateStruct(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
