package config

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Sources of the required adapter lists
const (
	AdapterSourceConfig     = "config"
	AdapterSourceDirectory  = "directory"
	AdapterSourceKubernetes = "kubernetes"
)

// AdaptersConfig names the adapters that must report before a resource of a
// kind can become Available.
type AdaptersConfig struct {
	Cluster  []string `mapstructure:"cluster" json:"cluster"`
	NodePool []string `mapstructure:"nodepool" json:"nodepool"`
	// Source selects where kinds and their adapters are read from. "directory"
	// and "kubernetes" read ResourceDefinition CRDs, "config" uses the lists above.
	Source  string `mapstructure:"source" json:"source" validate:"oneof=config directory kubernetes"`
	CRDPath string `mapstructure:"crd_path" json:"crd_path" validate:"required_if=Source directory"`
}

func NewAdaptersConfig() *AdaptersConfig {
	return &AdaptersConfig{
		Cluster:  []string{},
		NodePool: []string{},
		Source:   AdapterSourceConfig,
	}
}

func (c *AdaptersConfig) defineAndBindFlags(v *viper.Viper, fs *pflag.FlagSet) {
	defineAndBindStringSliceFlag(v, fs, "adapters.cluster", "cluster-adapters", c.Cluster, "Adapters required for Cluster availability")
	defineAndBindStringSliceFlag(v, fs, "adapters.nodepool", "nodepool-adapters", c.NodePool, "Adapters required for NodePool availability")
	defineAndBindStringFlag(v, fs, "adapters.source", "adapters-source", "", c.Source, "Source of kinds and required adapters: config, directory, kubernetes")
	defineAndBindStringFlag(v, fs, "adapters.crd_path", "crd-path", "", c.CRDPath, "Directory of ResourceDefinition CRD manifests")
}

// Required returns the configured adapter lists keyed by kind
func (c *AdaptersConfig) Required() map[string][]string {
	return map[string][]string{
		"Cluster":  c.Cluster,
		"NodePool": c.NodePool,
	}
}
