/*
Copyright (c) 2019 Red Hat, Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

  http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// This file contains a set of metrics that are used to collect information
// about the requests served by the API:
//
//	hyperfleet_api_requests_total - Number of API requests sent.
//	hyperfleet_api_request_duration_seconds - Request duration as a histogram.
//	hyperfleet_api_build_info - Constant gauge carrying the build labels.
//
// The path label is the route template with every variable replaced by a
// dash, so /clusters/123 is reported as /clusters/-. The caller label names
// the HyperFleet component that sent the request, see logger.CallerName.

package server

import (
	"net/http"
	"regexp"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/api"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/logger"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/middleware"
)

const metricsSubsystem = "hyperfleet_api"

const metricsComponent = "api"

const (
	metricsComponentLabel = "component"
	metricsVersionLabel   = "version"
	metricsMethodLabel    = "method"
	metricsPathLabel      = "path"
	metricsCodeLabel      = "code"
	metricsCallerLabel    = "caller"
)

// MetricsNames lists the request metrics defined by this file.
var MetricsNames = []string{
	"requests_total",
	"request_duration_seconds",
}

// MetricsLabels lists the labels of the request metrics.
var MetricsLabels = []string{
	metricsComponentLabel,
	metricsVersionLabel,
	metricsMethodLabel,
	metricsPathLabel,
	metricsCodeLabel,
	metricsCallerLabel,
}

var requestCountMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: metricsSubsystem,
		Name:      "requests_total",
		Help:      "Number of requests served.",
	},
	MetricsLabels,
)

var requestDurationMetric = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Subsystem: metricsSubsystem,
		Name:      "request_duration_seconds",
		Help:      "Request duration in seconds.",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	},
	MetricsLabels,
)

var buildInfoMetric = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Subsystem: metricsSubsystem,
		Name:      "build_info",
		Help:      "Build information of the running API, always 1.",
	},
	[]string{metricsComponentLabel, metricsVersionLabel, "commit", "go_version"},
)

var pathVarPattern = regexp.MustCompile(`\{[^}]+\}`)

// MetricsMiddleware records the count and duration of every request. It must
// be installed with Router.Use so the matched route is known.
func MetricsMiddleware(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := middleware.NewStatusRecorder(w)

		handler.ServeHTTP(recorder, r)

		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tmpl, err := route.GetPathTemplate(); err == nil {
				path = pathVarPattern.ReplaceAllString(tmpl, "-")
			}
		}
		labels := prometheus.Labels{
			metricsComponentLabel: metricsComponent,
			metricsVersionLabel:   api.Version,
			metricsMethodLabel:    r.Method,
			metricsPathLabel:      path,
			metricsCodeLabel:      strconv.Itoa(recorder.Status()),
			metricsCallerLabel:    logger.CallerName(r.UserAgent()),
		}
		requestCountMetric.With(labels).Inc()
		requestDurationMetric.With(labels).Observe(time.Since(start).Seconds())
	})
}

// ResetMetricCollectors clears the request metrics. Build info is kept.
func ResetMetricCollectors() {
	requestCountMetric.Reset()
	requestDurationMetric.Reset()
}

var registerMetricsOnce sync.Once

func init() {
	registerMetricsOnce.Do(func() {
		prometheus.MustRegister(requestCountMetric)
		prometheus.MustRegister(requestDurationMetric)
		prometheus.MustRegister(buildInfoMetric)
		buildInfoMetric.With(prometheus.Labels{
			metricsComponentLabel: metricsComponent,
			metricsVersionLabel:   api.Version,
			"commit":              api.Commit,
			"go_version":          runtime.Version(),
		}).Set(1)
	})
}
