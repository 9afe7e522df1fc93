package logger

import (
	"log/slog"
	"os"
)

// Environment variables read by ConfigFromEnv
const (
	EnvLogLevel  = "LOG_LEVEL"
	EnvLogFormat = "LOG_FORMAT"
	EnvLogOutput = "LOG_OUTPUT"
)

// ConfigFromEnv is the logger configuration a binary uses until its own
// configuration is loaded: info, JSON, stdout, unless LOG_LEVEL, LOG_FORMAT or
// LOG_OUTPUT say otherwise. Empty or unparsable values keep the default.
func ConfigFromEnv(component, version string) *LogConfig {
	cfg := &LogConfig{
		Level:     slog.LevelInfo,
		Format:    FormatJSON,
		Output:    os.Stdout,
		Component: component,
		Version:   version,
		Hostname:  Hostname(),
	}
	if value := os.Getenv(EnvLogLevel); value != "" {
		if level, err := ParseLogLevel(value); err == nil {
			cfg.Level = level
		}
	}
	if value := os.Getenv(EnvLogFormat); value != "" {
		if format, err := ParseLogFormat(value); err == nil {
			cfg.Format = format
		}
	}
	if value := os.Getenv(EnvLogOutput); value != "" {
		if out, err := ParseLogOutput(value); err == nil {
			cfg.Output = out
		}
	}
	return cfg
}

// Hostname is the host field of every record; "unknown" when the kernel will not say.
func Hostname() string {
	hostname, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return hostname
}
