package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte(content), 0o644))
	return configFile
}

func TestRedactedJSON_RedactsSensitiveFields(t *testing.T) {
	cfg := NewServeConfig()
	cfg.Database.Password = "secret"
	cfg.Server.HTTPS.KeyFile = "/etc/tls/tls.key"
	cfg.Database.Username = "hyperfleet"

	out, err := RedactedJSON(cfg)
	require.NoError(t, err)

	var decoded map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "***", decoded["database"]["password"])
	assert.Equal(t, "hyperfleet", decoded["database"]["username"])
	assert.NotContains(t, out, "/etc/tls/tls.key")

	// live config is untouched
	assert.Equal(t, "secret", cfg.Database.Password)
}

func TestRedactedJSON_LeavesEmptySecretsEmpty(t *testing.T) {
	cfg := NewMigrateConfig()
	out, err := RedactedJSON(cfg)
	require.NoError(t, err)
	assert.NotContains(t, out, "***")
}

func TestIsSensitiveField(t *testing.T) {
	tests := []struct {
		name      string
		sensitive bool
	}{
		{"Password", true},
		{"ClientSecret", true},
		{"RootCertFile", true},
		{"KeyFile", true},
		{"Username", false},
		{"Namespace", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.sensitive, isSensitiveField(tt.name))
		})
	}
}

func TestToSnake(t *testing.T) {
	assert.Equal(t, "health_check", toSnake("HealthCheck"))
	assert.Equal(t, "availability_rule", toSnake("AvailabilityRule"))
	assert.Equal(t, "name", toSnake("Name"))
}

func TestGetConfigFilePath_FlagWinsOverEnv(t *testing.T) {
	t.Setenv(ConfigEnvVar, "/from/env.yaml")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	defineConfigFlag(flags)
	require.NoError(t, flags.Parse([]string{"--config=/from/flag.yaml"}))

	assert.Equal(t, "/from/flag.yaml", getConfigFilePath(flags, NewCommandConfig()))
}

func TestGetConfigFilePath_Env(t *testing.T) {
	t.Setenv(ConfigEnvVar, "/from/env.yaml")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	defineConfigFlag(flags)
	require.NoError(t, flags.Parse([]string{}))

	assert.Equal(t, "/from/env.yaml", getConfigFilePath(flags, NewCommandConfig()))
}

func TestLoad_MissingConfigFileIsNotAnError(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg := NewMigrateConfig()
	v := NewCommandConfig()
	cfg.ConfigureFlags(v, flags)
	require.NoError(t, flags.Parse([]string{"--config=" + filepath.Join(t.TempDir(), "missing.yaml")}))

	loaded, err := LoadMigrateConfig(v, flags)
	require.NoError(t, err)
	assert.Equal(t, "postgres", loaded.Database.Dialect)
}
