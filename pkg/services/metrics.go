// This file contains the Prometheus metrics of the condition aggregator:
//
//	hyperfleet_api_condition_reports_total - Condition reports by adapter, type and outcome.
//	hyperfleet_api_status_derivations_total - Status derivations by resulting phase.

package services

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/api"
)

const metricsSubsystem = "hyperfleet_api"

const (
	labelComponent = "component"
	labelVersion   = "version"
	labelAdapter   = "adapter"
	labelType      = "type"
	labelOutcome   = "outcome"
	labelKind      = "kind"
	labelPhase     = "phase"
)

const metricsComponent = "api"

// ReportsMetric counts processed condition reports.
var ReportsMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: metricsSubsystem,
		Name:      "condition_reports_total",
		Help:      "Total number of condition reports processed, by outcome.",
	},
	[]string{labelAdapter, labelType, labelOutcome, labelComponent, labelVersion},
)

// DerivationsMetric counts status derivations that were written back to a resource.
var DerivationsMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: metricsSubsystem,
		Name:      "status_derivations_total",
		Help:      "Total number of resource status derivations, by resulting phase.",
	},
	[]string{labelKind, labelPhase, labelComponent, labelVersion},
)

func recordReport(adapter, conditionType string, outcome api.ReportOutcome) {
	ReportsMetric.With(prometheus.Labels{
		labelAdapter:   adapter,
		labelType:      conditionType,
		labelOutcome:   string(outcome),
		labelComponent: metricsComponent,
		labelVersion:   api.Version,
	}).Inc()
}

func recordDerivation(kind string, phase api.ResourcePhase) {
	DerivationsMetric.With(prometheus.Labels{
		labelKind:      kind,
		labelPhase:     string(phase),
		labelComponent: metricsComponent,
		labelVersion:   api.Version,
	}).Inc()
}

// ResetMetrics resets the aggregator metrics.
func ResetMetrics() {
	ReportsMetric.Reset()
	DerivationsMetric.Reset()
}

var registerOnce sync.Once

// RegisterMetrics registers the aggregator metrics with Prometheus.
func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(ReportsMetric)
		prometheus.MustRegister(DerivationsMetric)
	})
}

func init() {
	RegisterMetrics()
}
