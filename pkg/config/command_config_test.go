package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelConfig_Defaults(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg := NewSentinelConfig()
	v := NewCommandConfig()
	cfg.ConfigureFlags(v, flags)
	require.NoError(t, flags.Parse([]string{}))

	loaded, err := LoadSentinelConfig(v, flags)
	require.NoError(t, err)

	assert.Equal(t, "hyperfleet-sentinel", loaded.App.Name)
	assert.Equal(t, 10*time.Second, loaded.Sentinel.NotReadyTTL)
	assert.Equal(t, 30*time.Minute, loaded.Sentinel.ReadyTTL)
	assert.Equal(t, []string{"Cluster", "NodePool"}, loaded.Sentinel.Kinds)
	assert.Equal(t, BrokerTypePostgres, loaded.Broker.Type)
	assert.Equal(t, 20, loaded.Broker.MaxAttempts)
}

func TestSentinelConfig_BrokerMaxAttempts(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg := NewSentinelConfig()
	v := NewCommandConfig()
	cfg.ConfigureFlags(v, flags)
	require.NoError(t, flags.Parse([]string{"--broker-max-attempts=0"}))

	loaded, err := LoadSentinelConfig(v, flags)
	require.NoError(t, err)
	assert.Equal(t, 0, loaded.Broker.MaxAttempts)

	flags = pflag.NewFlagSet("test", pflag.ContinueOnError)
	v = NewCommandConfig()
	NewSentinelConfig().ConfigureFlags(v, flags)
	require.NoError(t, flags.Parse([]string{"--broker-max-attempts=-1"}))

	_, err = LoadSentinelConfig(v, flags)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MaxAttempts")
}

func TestSentinelConfig_FileDurations(t *testing.T) {
	configFile := writeConfig(t, `
sentinel:
  api_url: http://hyperfleet-api:8000
  not_ready_ttl: 15s
  ready_ttl: 1h
  kinds: [Cluster]
broker:
  type: memory
`)
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg := NewSentinelConfig()
	v := NewCommandConfig()
	cfg.ConfigureFlags(v, flags)
	require.NoError(t, flags.Parse([]string{"--config=" + configFile}))

	loaded, err := LoadSentinelConfig(v, flags)
	require.NoError(t, err)

	assert.Equal(t, "http://hyperfleet-api:8000", loaded.Sentinel.APIURL)
	assert.Equal(t, 15*time.Second, loaded.Sentinel.NotReadyTTL)
	assert.Equal(t, time.Hour, loaded.Sentinel.ReadyTTL)
	assert.Equal(t, []string{"Cluster"}, loaded.Sentinel.Kinds)
	assert.Equal(t, BrokerTypeMemory, loaded.Broker.Type)
}

func TestSentinelConfig_RejectsEmptyKinds(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg := NewSentinelConfig()
	v := NewCommandConfig()
	cfg.ConfigureFlags(v, flags)
	require.NoError(t, flags.Parse([]string{"--kinds="}))

	_, err := LoadSentinelConfig(v, flags)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Config.Sentinel.Kinds")
}

func TestAdapterConfig_RequiresName(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg := NewAdapterConfig()
	v := NewCommandConfig()
	cfg.ConfigureFlags(v, flags)
	require.NoError(t, flags.Parse([]string{}))

	_, err := LoadAdapterConfig(v, flags)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Config.Adapter.Name")
	assert.Contains(t, err.Error(), "required")
	assert.Contains(t, err.Error(), "HYPERFLEET_ADAPTER_NAME")
}

func TestAdapterConfig_NameMustBeADNSLabel(t *testing.T) {
	t.Setenv("HYPERFLEET_ADAPTER_NAME", "DNS_adapter")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg := NewAdapterConfig()
	v := NewCommandConfig()
	cfg.ConfigureFlags(v, flags)
	require.NoError(t, flags.Parse([]string{}))

	_, err := LoadAdapterConfig(v, flags)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dns_rfc1035_label")
}

func TestAdapterConfig_Load(t *testing.T) {
	t.Setenv("HYPERFLEET_ADAPTER_NAME", "dns")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg := NewAdapterConfig()
	v := NewCommandConfig()
	cfg.ConfigureFlags(v, flags)
	require.NoError(t, flags.Parse([]string{"--task-store=memory", "--broker-type=memory", "--job-command=/bin/dns,apply"}))

	loaded, err := LoadAdapterConfig(v, flags)
	require.NoError(t, err)

	assert.Equal(t, "dns", loaded.Adapter.Name)
	assert.Equal(t, 5*time.Minute, loaded.Adapter.RecheckTTL)
	assert.Equal(t, 15*time.Minute, loaded.Adapter.StuckTimeout)
	assert.Equal(t, []string{"/bin/dns", "apply"}, loaded.Adapter.Job.Command)
	assert.False(t, loaded.NeedsDatabase())
}

func TestMigrateConfig_IgnoresOtherSections(t *testing.T) {
	configFile := writeConfig(t, serveYAML)

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg := NewMigrateConfig()
	v := NewCommandConfig()
	cfg.ConfigureFlags(v, flags)
	require.NoError(t, flags.Parse([]string{"--config=" + configFile}))

	loaded, err := LoadMigrateConfig(v, flags)
	require.NoError(t, err)
	assert.Equal(t, "localhost", loaded.Database.Host)
	assert.Equal(t, 5432, loaded.Database.Port)
}

func TestLoggingConfig_LogConfig(t *testing.T) {
	cfg := NewLoggingConfig()
	cfg.Level = "debug"
	cfg.Format = "console"

	lc := cfg.LogConfig("hyperfleet-adapter", "1.2.3")
	assert.Equal(t, "hyperfleet-adapter", lc.Component)
	assert.Equal(t, "1.2.3", lc.Version)
	assert.Equal(t, "console", string(lc.Format))
	assert.Equal(t, "DEBUG", lc.Level.String())
}

func TestListenerConfig_Flags(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg := NewSentinelConfig()
	v := NewCommandConfig()
	cfg.ConfigureFlags(v, flags)
	require.NoError(t, flags.Parse([]string{"--metrics-port=9300", "--health-check-host=0.0.0.0"}))

	loaded, err := LoadSentinelConfig(v, flags)
	require.NoError(t, err)

	assert.Equal(t, "localhost:9300", loaded.Metrics.GetBindAddress())
	assert.Equal(t, "0.0.0.0:9093", loaded.HealthCheck.GetBindAddress())
	assert.Equal(t, "Enable HTTPS for the health check server", flags.Lookup("health-check-https-enabled").Usage)

	loaded.Metrics.BindAddress = "127.0.0.1:0"
	assert.Equal(t, "127.0.0.1:0", loaded.Metrics.GetBindAddress())
}
