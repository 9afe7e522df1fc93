// This file contains the Prometheus metrics of the pulse generator:
//
//	hyperfleet_sentinel_pulses_emitted_total - Pulses published, by reason and adapter.
//	hyperfleet_sentinel_pulses_failed_total - Pulses whose publish failed, by reason and adapter.
//	hyperfleet_sentinel_tracked_resources - Resources with a live TTL timer, by kind.

package sentinel

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/api"
)

const metricsSubsystem = "hyperfleet_sentinel"

const (
	labelReason    = "reason"
	labelAdapter   = "adapter"
	labelKind      = "kind"
	labelComponent = "component"
	labelVersion   = "version"
)

const metricsComponent = "sentinel"

var PulsesEmittedMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: metricsSubsystem,
		Name:      "pulses_emitted_total",
		Help:      "Total number of pulses published to the broker.",
	},
	[]string{labelReason, labelAdapter, labelComponent, labelVersion},
)

var PulsesFailedMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: metricsSubsystem,
		Name:      "pulses_failed_total",
		Help:      "Total number of pulses that could not be published.",
	},
	[]string{labelReason, labelAdapter, labelComponent, labelVersion},
)

var TrackedResourcesMetric = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Subsystem: metricsSubsystem,
		Name:      "tracked_resources",
		Help:      "Number of resources the sentinel keeps a TTL timer for.",
	},
	[]string{labelKind, labelComponent, labelVersion},
)

func recordPulse(reason api.PulseReason, adapter string, err error) {
	labels := prometheus.Labels{
		labelReason:    string(reason),
		labelAdapter:   adapter,
		labelComponent: metricsComponent,
		labelVersion:   api.Version,
	}
	if err != nil {
		PulsesFailedMetric.With(labels).Inc()
		return
	}
	PulsesEmittedMetric.With(labels).Inc()
}

func setTracked(kind string, n int) {
	TrackedResourcesMetric.With(prometheus.Labels{
		labelKind:      kind,
		labelComponent: metricsComponent,
		labelVersion:   api.Version,
	}).Set(float64(n))
}

func ResetMetrics() {
	PulsesEmittedMetric.Reset()
	PulsesFailedMetric.Reset()
	TrackedResourcesMetric.Reset()
}

var registerOnce sync.Once

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(PulsesEmittedMetric)
		prometheus.MustRegister(PulsesFailedMetric)
		prometheus.MustRegister(TrackedResourcesMetric)
	})
}

func init() {
	RegisterMetrics()
}
