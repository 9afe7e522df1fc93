package config

import (
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	BrokerTypePostgres = "postgres"
	BrokerTypeMemory   = "memory"
)

// BrokerConfig selects the pulse transport between sentinel and adapters
type BrokerConfig struct {
	Type string `mapstructure:"type" json:"type" validate:"oneof=postgres memory"`
	// PollInterval bounds the wait between queue claims when no notification arrives
	PollInterval      time.Duration `mapstructure:"poll_interval" json:"poll_interval" validate:"gt=0"`
	VisibilityTimeout time.Duration `mapstructure:"visibility_timeout" json:"visibility_timeout" validate:"gt=0"`
	Channel           string        `mapstructure:"channel" json:"channel" validate:"required"`
	BatchSize         int           `mapstructure:"batch_size" json:"batch_size" validate:"min=1"`
	// MaxAttempts drops a pulse after that many failed deliveries, 0 retries forever
	MaxAttempts int `mapstructure:"max_attempts" json:"max_attempts" validate:"min=0"`
}

func NewBrokerConfig() *BrokerConfig {
	return &BrokerConfig{
		Type:              BrokerTypePostgres,
		PollInterval:      2 * time.Second,
		VisibilityTimeout: 30 * time.Second,
		Channel:           "hyperfleet_pulses",
		BatchSize:         10,
		MaxAttempts:       20,
	}
}

func (c *BrokerConfig) defineAndBindFlags(v *viper.Viper, fs *pflag.FlagSet) {
	defineAndBindStringFlag(v, fs, "broker.type", "broker-type", "", c.Type, "Pulse transport: postgres, memory")
	defineAndBindDurationFlag(v, fs, "broker.poll_interval", "broker-poll-interval", "", c.PollInterval, "Queue poll interval")
	defineAndBindDurationFlag(v, fs, "broker.visibility_timeout", "broker-visibility-timeout", "", c.VisibilityTimeout,
		"Time a claimed pulse stays hidden before redelivery")
	defineAndBindStringFlag(v, fs, "broker.channel", "broker-channel", "", c.Channel, "LISTEN/NOTIFY channel name")
	defineAndBindIntFlag(v, fs, "broker.batch_size", "broker-batch-size", "", c.BatchSize, "Pulses claimed per poll")
	defineAndBindIntFlag(v, fs, "broker.max_attempts", "broker-max-attempts", "", c.MaxAttempts,
		"Failed deliveries before a pulse is dropped, 0 for no limit")
}
