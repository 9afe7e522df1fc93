package config

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	AvailabilityRuleGenerationAgreement = "generation-agreement"
	AvailabilityRuleCurrentGeneration   = "current-generation"

	PhasePolicyStrict                     = "strict"
	PhasePolicyProgressingOnNewGeneration = "progressing-on-new-generation"
)

// AggregatorConfig selects how adapter conditions are folded into resource status
type AggregatorConfig struct {
	AvailabilityRule string `mapstructure:"availability_rule" json:"availability_rule" validate:"oneof=generation-agreement current-generation"`
	PhasePolicy      string `mapstructure:"phase_policy" json:"phase_policy" validate:"oneof=strict progressing-on-new-generation"`
	// TraceReports records every report with its outcome in condition_reports
	TraceReports bool `mapstructure:"trace_reports" json:"trace_reports"`
}

func NewAggregatorConfig() *AggregatorConfig {
	return &AggregatorConfig{
		AvailabilityRule: AvailabilityRuleGenerationAgreement,
		PhasePolicy:      PhasePolicyStrict,
		TraceReports:     true,
	}
}

func (c *AggregatorConfig) defineAndBindFlags(v *viper.Viper, fs *pflag.FlagSet) {
	defineAndBindStringFlag(v, fs, "aggregator.availability_rule", "availability-rule", "", c.AvailabilityRule,
		"Availability rule: generation-agreement, current-generation")
	defineAndBindStringFlag(v, fs, "aggregator.phase_policy", "phase-policy", "", c.PhasePolicy,
		"Phase policy: strict, progressing-on-new-generation")
	defineAndBindBoolFlag(v, fs, "aggregator.trace_reports", "trace-reports", "", c.TraceReports, "Record every condition report in the trace log")
}
