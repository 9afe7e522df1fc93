package config

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/logger"
)

// LoggingConfig contains configuration for structured logging and tracing
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error)
	Level string `mapstructure:"level" json:"level" validate:"oneof=debug info warn warning error"`
	// Format is the output format (text, json, console)
	Format string `mapstructure:"format" json:"format" validate:"oneof=text json console"`
	// Output is the destination (stdout, stderr)
	Output  string        `mapstructure:"output" json:"output" validate:"oneof=stdout stderr"`
	OTel    OTelConfig    `mapstructure:"otel" json:"otel"`
	Masking MaskingConfig `mapstructure:"masking" json:"masking"`
}

// MaskingConfig lists the headers and body fields redacted from request logs.
// Both lists are comma separated.
type MaskingConfig struct {
	Enabled          bool   `mapstructure:"enabled" json:"enabled"`
	SensitiveHeaders string `mapstructure:"sensitive_headers" json:"sensitive_headers"`
	SensitiveFields  string `mapstructure:"sensitive_fields" json:"sensitive_fields"`
}

// OTelConfig controls OpenTelemetry tracing
type OTelConfig struct {
	Enabled      bool    `mapstructure:"enabled" json:"enabled"`
	SamplingRate float64 `mapstructure:"sampling_rate" json:"sampling_rate" validate:"min=0,max=1"`
	// Exporter is one of stdout, otlp-grpc, otlp-http
	Exporter string `mapstructure:"exporter" json:"exporter" validate:"oneof=stdout otlp-grpc otlp-http"`
	Endpoint string `mapstructure:"endpoint" json:"endpoint"`
}

func NewLoggingConfig() *LoggingConfig {
	return &LoggingConfig{
		Level:  "info",
		Format: "json",
		Output: "stdout",
		OTel: OTelConfig{
			Enabled:      false,
			SamplingRate: 1.0,
			Exporter:     "stdout",
		},
		Masking: MaskingConfig{
			Enabled:          true,
			SensitiveHeaders: "Authorization,X-API-Key,Cookie,Set-Cookie,Proxy-Authorization",
			SensitiveFields:  "password,secret,token,api_key,credential",
		},
	}
}

func (c *LoggingConfig) defineAndBindFlags(v *viper.Viper, fs *pflag.FlagSet) {
	defineAndBindStringFlag(v, fs, "logging.level", "log-level", "", c.Level, "Minimum log level: debug, info, warn, error")
	defineAndBindStringFlag(v, fs, "logging.format", "log-format", "", c.Format, "Log output format: text, json, console")
	defineAndBindStringFlag(v, fs, "logging.output", "log-output", "", c.Output, "Log output destination: stdout, stderr")
	defineAndBindBoolFlag(v, fs, "logging.otel.enabled", "otel-enabled", "", c.OTel.Enabled, "Enable OpenTelemetry tracing")
	defineAndBindFloat64Flag(v, fs, "logging.otel.sampling_rate", "otel-sampling-rate", c.OTel.SamplingRate, "Trace sampling rate between 0 and 1")
	defineAndBindStringFlag(v, fs, "logging.otel.exporter", "otel-exporter", "", c.OTel.Exporter, "Trace exporter: stdout, otlp-grpc, otlp-http")
	defineAndBindStringFlag(v, fs, "logging.otel.endpoint", "otel-endpoint", "", c.OTel.Endpoint, "OTLP collector endpoint")
	defineAndBindBoolFlag(v, fs, "logging.masking.enabled", "log-masking-enabled", "", c.Masking.Enabled, "Redact sensitive data from request logs")
	defineAndBindStringFlag(v, fs, "logging.masking.sensitive_headers", "log-masking-sensitive-headers", "", c.Masking.SensitiveHeaders,
		"Comma separated headers to redact")
	defineAndBindStringFlag(v, fs, "logging.masking.sensitive_fields", "log-masking-sensitive-fields", "", c.Masking.SensitiveFields,
		"Comma separated JSON body fields to redact")
}

// GetSensitiveHeadersList splits the configured sensitive headers
func (c *LoggingConfig) GetSensitiveHeadersList() []string {
	return splitList(c.Masking.SensitiveHeaders)
}

// GetSensitiveFieldsList splits the configured sensitive body fields
func (c *LoggingConfig) GetSensitiveFieldsList() []string {
	return splitList(c.Masking.SensitiveFields)
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// LogConfig builds the logger configuration for the named component.
// Values were validated on load, parse errors fall back to the logger defaults.
func (c *LoggingConfig) LogConfig(component, version string) *logger.LogConfig {
	level, err := logger.ParseLogLevel(c.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	format, err := logger.ParseLogFormat(c.Format)
	if err != nil {
		format = logger.FormatJSON
	}
	var output io.Writer = os.Stdout
	if out, err := logger.ParseLogOutput(c.Output); err == nil {
		output = out
	}
	return &logger.LogConfig{
		Level:     level,
		Format:    format,
		Output:    output,
		Component: component,
		Version:   version,
		Hostname:  logger.Hostname(),
	}
}
