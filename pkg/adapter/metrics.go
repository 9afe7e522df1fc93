// This file contains the Prometheus metrics of the adapter runtime:
//
//	hyperfleet_adapter_actions_total - Pulses handled, by what the runtime did with the action.
//	hyperfleet_adapter_reports_total - Reported conditions, by outcome returned by the API.

package adapter

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/api"
)

const metricsSubsystem = "hyperfleet_adapter"

const (
	labelAdapter   = "adapter"
	labelResult    = "result"
	labelOutcome   = "outcome"
	labelComponent = "component"
	labelVersion   = "version"
)

const metricsComponent = "adapter"

// Action results
const (
	actionDispatched     = "dispatched"
	actionRecreated      = "recreated"
	actionRetried        = "retried"
	actionReused         = "reused"
	actionObserved       = "observed"
	actionSkipped        = "skipped"
	actionTransientError = "transient_error"
	actionPermanentError = "permanent_error"
	actionReportRefused  = "report_refused"
)

var ActionsMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: metricsSubsystem,
		Name:      "actions_total",
		Help:      "Total number of handled pulses, by action result.",
	},
	[]string{labelAdapter, labelResult, labelComponent, labelVersion},
)

var ReportsMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: metricsSubsystem,
		Name:      "reports_total",
		Help:      "Total number of reported conditions, by outcome.",
	},
	[]string{labelAdapter, labelOutcome, labelComponent, labelVersion},
)

func recordAction(adapter, result string) {
	ActionsMetric.With(prometheus.Labels{
		labelAdapter:   adapter,
		labelResult:    result,
		labelComponent: metricsComponent,
		labelVersion:   api.Version,
	}).Inc()
}

func recordReportOutcome(adapter string, outcome api.ReportOutcome) {
	ReportsMetric.With(prometheus.Labels{
		labelAdapter:   adapter,
		labelOutcome:   string(outcome),
		labelComponent: metricsComponent,
		labelVersion:   api.Version,
	}).Inc()
}

func ResetMetrics() {
	ActionsMetric.Reset()
	ReportsMetric.Reset()
}

var registerOnce sync.Once

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(ActionsMetric)
		prometheus.MustRegister(ReportsMetric)
	})
}

func init() {
	RegisterMetrics()
}
