package config

import (
	"net"
	"strconv"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ServerConfig is the main API listener.
type ServerConfig struct {
	Host string `mapstructure:"host" json:"host" validate:"required"`
	Port int    `mapstructure:"port" json:"port" validate:"required,min=1,max=65535"`
	// Hostname is the public name used in hrefs; empty means relative hrefs.
	Hostname string        `mapstructure:"hostname" json:"hostname"`
	Timeout  TimeoutConfig `mapstructure:"timeout" json:"timeout"`
	HTTPS    HTTPSConfig   `mapstructure:"https" json:"https"`
	CORS     CORSConfig    `mapstructure:"cors" json:"cors"`

	BindAddress string `mapstructure:"bind_address" json:"bind_address,omitempty"`
}

type TimeoutConfig struct {
	Read  time.Duration `mapstructure:"read" json:"read"`
	Write time.Duration `mapstructure:"write" json:"write"`
}

type CORSConfig struct {
	AllowedOrigins []string      `mapstructure:"allowed_origins" json:"allowed_origins"`
	MaxAge         time.Duration `mapstructure:"max_age" json:"max_age"`
}

// HTTPSConfig holds the certificate pair shared by every listener that enables TLS.
type HTTPSConfig struct {
	Enabled  bool   `mapstructure:"enabled" json:"enabled"`
	CertFile string `mapstructure:"cert_file" json:"cert_file"`
	KeyFile  string `mapstructure:"key_file" json:"key_file"`
}

func NewServerConfig() *ServerConfig {
	return &ServerConfig{
		Host:    "localhost",
		Port:    8000,
		Timeout: TimeoutConfig{Read: 5 * time.Second, Write: 30 * time.Second},
		CORS: CORSConfig{
			AllowedOrigins: []string{
				"https://console.redhat.com",
				"https://console.stage.redhat.com",
				"https://qa.console.redhat.com",
			},
			MaxAge: 10 * time.Minute,
		},
	}
}

func (s *ServerConfig) defineAndBindFlags(v *viper.Viper, fs *pflag.FlagSet) {
	defineAndBindStringFlag(v, fs, "server.host", "server-host", "", s.Host, "API listen host")
	defineAndBindIntFlag(v, fs, "server.port", "server-port", "p", s.Port, "API listen port")
	defineAndBindStringFlag(v, fs, "server.hostname", "server-hostname", "", s.Hostname, "Public hostname of the API")

	defineAndBindDurationFlag(v, fs, "server.timeout.read", "server-timeout-read", "", s.Timeout.Read, "Maximum time to read a request")
	defineAndBindDurationFlag(v, fs, "server.timeout.write", "server-timeout-write", "", s.Timeout.Write, "Maximum time to write a response")

	defineAndBindBoolFlag(v, fs, "server.https.enabled", "server-https-enabled", "", s.HTTPS.Enabled, "Serve HTTPS instead of HTTP")
	defineAndBindStringFlag(v, fs, "server.https.cert_file", "server-https-cert-file", "", s.HTTPS.CertFile, "TLS certificate file")
	defineAndBindStringFlag(v, fs, "server.https.key_file", "server-https-key-file", "", s.HTTPS.KeyFile, "TLS key file")

	defineAndBindStringSliceFlag(v, fs, "server.cors.allowed_origins", "server-cors-allowed-origins", s.CORS.AllowedOrigins, "Origins allowed to call the API from a browser")
	defineAndBindDurationFlag(v, fs, "server.cors.max_age", "server-cors-max-age", "", s.CORS.MaxAge, "How long browsers may cache a preflight response")
}

func (s *ServerConfig) GetBindAddress() string {
	if s.BindAddress != "" {
		return s.BindAddress
	}
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}
