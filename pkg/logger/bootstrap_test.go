package logger

import (
	"log/slog"
	"os"
	"testing"
)

func TestConfigFromEnv(t *testing.T) {
	tests := []struct {
		name   string
		env    map[string]string
		level  slog.Level
		format LogFormat
		output *os.File
	}{
		{"defaults", nil, slog.LevelInfo, FormatJSON, os.Stdout},
		{"overrides", map[string]string{EnvLogLevel: "debug", EnvLogFormat: "text", EnvLogOutput: "stderr"},
			slog.LevelDebug, FormatText, os.Stderr},
		{"unparsable values keep defaults", map[string]string{EnvLogLevel: "loud", EnvLogFormat: "yaml", EnvLogOutput: "/dev/null"},
			slog.LevelInfo, FormatJSON, os.Stdout},
		{"empty values keep defaults", map[string]string{EnvLogFormat: ""}, slog.LevelInfo, FormatJSON, os.Stdout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{EnvLogLevel, EnvLogFormat, EnvLogOutput} {
				t.Setenv(key, tt.env[key])
			}

			cfg := ConfigFromEnv("hyperfleet-sentinel", "v1")
			if cfg.Level != tt.level {
				t.Errorf("level = %v, expected %v", cfg.Level, tt.level)
			}
			if cfg.Format != tt.format {
				t.Errorf("format = %v, expected %v", cfg.Format, tt.format)
			}
			if cfg.Output != tt.output {
				t.Errorf("output = %v, expected %v", cfg.Output, tt.output)
			}
			if cfg.Component != "hyperfleet-sentinel" || cfg.Version != "v1" || cfg.Hostname == "" {
				t.Errorf("unexpected identity fields: %+v", cfg)
			}
		})
	}
}
