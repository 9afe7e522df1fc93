package config

import (
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// SentinelSettings controls the pulse generator
type SentinelSettings struct {
	APIURL         string        `mapstructure:"api_url" json:"api_url" validate:"required,url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" json:"request_timeout" validate:"gt=0"`
	// PollInterval is how often resources are listed to detect new generations
	PollInterval time.Duration `mapstructure:"poll_interval" json:"poll_interval" validate:"gt=0"`
	NotReadyTTL  time.Duration `mapstructure:"not_ready_ttl" json:"not_ready_ttl" validate:"gt=0"`
	ReadyTTL     time.Duration `mapstructure:"ready_ttl" json:"ready_ttl" validate:"gt=0"`
	Kinds        []string      `mapstructure:"kinds" json:"kinds" validate:"min=1"`
}

func NewSentinelSettings() *SentinelSettings {
	return &SentinelSettings{
		APIURL:         "http://localhost:8000",
		RequestTimeout: 10 * time.Second,
		PollInterval:   5 * time.Second,
		NotReadyTTL:    10 * time.Second,
		ReadyTTL:       30 * time.Minute,
		Kinds:          []string{"Cluster", "NodePool"},
	}
}

func (c *SentinelSettings) defineAndBindFlags(v *viper.Viper, fs *pflag.FlagSet) {
	defineAndBindStringFlag(v, fs, "sentinel.api_url", "api-url", "", c.APIURL, "HyperFleet API base URL")
	defineAndBindDurationFlag(v, fs, "sentinel.request_timeout", "api-request-timeout", "", c.RequestTimeout, "Timeout of a single API request")
	defineAndBindDurationFlag(v, fs, "sentinel.poll_interval", "poll-interval", "", c.PollInterval, "Interval between resource list polls")
	defineAndBindDurationFlag(v, fs, "sentinel.not_ready_ttl", "not-ready-ttl", "", c.NotReadyTTL, "Re-pulse interval for resources that are not Ready")
	defineAndBindDurationFlag(v, fs, "sentinel.ready_ttl", "ready-ttl", "", c.ReadyTTL, "Re-pulse interval for Ready resources")
	defineAndBindStringSliceFlag(v, fs, "sentinel.kinds", "kinds", c.Kinds, "Resource kinds to watch")
}
