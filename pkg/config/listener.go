package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ListenerConfig is a side listener next to the main server, metrics or health.
type ListenerConfig struct {
	Host        string `mapstructure:"host" json:"host"`
	Port        int    `mapstructure:"port" json:"port" validate:"min=1,max=65535"`
	EnableHTTPS bool   `mapstructure:"enable_https" json:"enable_https"`

	// host:port, wins over Host and Port when set
	BindAddress string `mapstructure:"bind_address" json:"bind_address,omitempty"`

	// viper section, flag prefix and help text label
	section, flagPrefix, label string
}

func NewMetricsConfig(port int) *ListenerConfig {
	return newListenerConfig("metrics", "metrics", "Metrics", port)
}

func NewHealthCheckConfig(port int) *ListenerConfig {
	return newListenerConfig("health_check", "health-check", "Health check", port)
}

func newListenerConfig(section, flagPrefix, label string, port int) *ListenerConfig {
	return &ListenerConfig{
		Host:       "localhost",
		Port:       port,
		section:    section,
		flagPrefix: flagPrefix,
		label:      label,
	}
}

func (c *ListenerConfig) defineAndBindFlags(v *viper.Viper, fs *pflag.FlagSet) {
	defineAndBindStringFlag(v, fs, c.section+".host", c.flagPrefix+"-host", "", c.Host, c.label+" server bind host")
	defineAndBindIntFlag(v, fs, c.section+".port", c.flagPrefix+"-port", "", c.Port, c.label+" server bind port")
	defineAndBindBoolFlag(v, fs, c.section+".enable_https", c.flagPrefix+"-https-enabled", "", c.EnableHTTPS,
		"Enable HTTPS for the "+strings.ToLower(c.label)+" server")
}

func (c *ListenerConfig) GetBindAddress() string {
	if c.BindAddress != "" {
		return c.BindAddress
	}
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
