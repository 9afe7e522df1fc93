package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	. "github.com/onsi/gomega"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/client/hyperfleet"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/logger"
)

func setupTestTracer(t *testing.T) (*trace.TracerProvider, *tracetest.InMemoryExporter) {
	exporter := tracetest.NewInMemoryExporter()
	tp := trace.NewTracerProvider(trace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return tp, exporter
}

// tracedRouter mirrors the API router: routes are matched before the
// middleware runs.
func tracedRouter(handler http.HandlerFunc, patterns ...string) *mux.Router {
	router := mux.NewRouter()
	for _, p := range patterns {
		router.HandleFunc(p, handler)
	}
	router.Use(OTelMiddleware)
	return router
}

func spanNames(exporter *tracetest.InMemoryExporter) []string {
	var names []string
	for _, s := range exporter.GetSpans() {
		names = append(names, s.Name)
	}
	return names
}

func TestOTelMiddleware_SpanNameUsesRouteTemplate(t *testing.T) {
	RegisterTestingT(t)
	_, exporter := setupTestTracer(t)

	router := tracedRouter(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) },
		"/api/hyperfleet/v1/clusters/{id}",
		"/api/hyperfleet/v1/clusters/{cluster_id}/nodepools/{id}",
		"/api/hyperfleet/v1/resources/{id}/statuses",
	)

	tests := []struct {
		method string
		path   string
		span   string
	}{
		{http.MethodGet, "/api/hyperfleet/v1/clusters/2c5q9nqs0ltq3k8ah3rv1e4d6g2b0f7m",
			"GET /api/hyperfleet/v1/clusters/{id}"},
		{http.MethodGet, "/api/hyperfleet/v1/clusters/c1/nodepools/np1",
			"GET /api/hyperfleet/v1/clusters/{cluster_id}/nodepools/{id}"},
		{http.MethodPost, "/api/hyperfleet/v1/resources/c1/statuses",
			"POST /api/hyperfleet/v1/resources/{id}/statuses"},
	}
	for _, tt := range tests {
		exporter.Reset()
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(tt.method, tt.path, nil))
		Expect(spanNames(exporter)).To(ContainElement(tt.span), tt.path)
	}
}

func TestOTelMiddleware_SpanNamesDoNotGrowWithIDs(t *testing.T) {
	RegisterTestingT(t)
	_, exporter := setupTestTracer(t)

	router := tracedRouter(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) },
		"/api/hyperfleet/v1/resources/{id}/status")

	names := map[string]bool{}
	for i := 0; i < 50; i++ {
		router.ServeHTTP(httptest.NewRecorder(),
			httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/hyperfleet/v1/resources/r%03d/status", i), nil))
	}
	for _, name := range spanNames(exporter) {
		names[name] = true
	}
	Expect(names).To(HaveLen(1))
	Expect(names).To(HaveKey("GET /api/hyperfleet/v1/resources/{id}/status"))
}

func TestOTelMiddleware_CopiesTraceIntoLoggerContext(t *testing.T) {
	RegisterTestingT(t)
	setupTestTracer(t)

	var traceID, spanID string
	router := tracedRouter(func(w http.ResponseWriter, r *http.Request) {
		traceID, _ = logger.GetTraceID(r.Context())
		spanID, _ = logger.GetSpanID(r.Context())
		w.WriteHeader(http.StatusOK)
	}, "/api/hyperfleet/v1/resources")

	tests := []struct {
		traceparent string
		wantTraceID string
	}{
		{"00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", "4bf92f3577b34da6a3ce929d0e0e4736"},
		{"", ""},
		{"not-a-traceparent", ""},
	}
	for _, tt := range tests {
		traceID, spanID = "", ""
		req := httptest.NewRequest(http.MethodGet, "/api/hyperfleet/v1/resources", nil)
		if tt.traceparent != "" {
			req.Header.Set("traceparent", tt.traceparent)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(traceID).To(HaveLen(32))
		Expect(spanID).To(HaveLen(16))
		if tt.wantTraceID != "" {
			Expect(traceID).To(Equal(tt.wantTraceID))
		}
	}
}

func TestOTelMiddleware_ClientPropagatesTrace(t *testing.T) {
	RegisterTestingT(t)
	tp, _ := setupTestTracer(t)

	var serverTraceID string
	router := tracedRouter(func(w http.ResponseWriter, r *http.Request) {
		serverTraceID, _ = logger.GetTraceID(r.Context())
		w.WriteHeader(http.StatusOK)
	}, hyperfleet.DefaultBasePath)
	server := httptest.NewServer(router)
	defer server.Close()

	ctx, span := tp.Tracer("sentinel").Start(context.Background(), "tick")
	defer span.End()

	Expect(hyperfleet.NewClient(server.URL, time.Second).Ping(ctx)).To(Succeed())
	Expect(serverTraceID).To(Equal(span.SpanContext().TraceID().String()))
}
