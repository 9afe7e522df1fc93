package middleware

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/logger"
)

// OTelMiddleware wraps HTTP handlers with OpenTelemetry instrumentation and
// copies the trace and span ids of the server span into the logger context.
// Span names use the matched route template, never the raw path.
func OTelMiddleware(handler http.Handler) http.Handler {
	enrichedHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		span := trace.SpanFromContext(ctx)

		if span.SpanContext().IsValid() {
			ctx = logger.WithTraceID(ctx, span.SpanContext().TraceID().String())
			ctx = logger.WithSpanID(ctx, span.SpanContext().SpanID().String())
		}

		handler.ServeHTTP(w, r.WithContext(ctx))
	})

	return otelhttp.NewHandler(enrichedHandler, "hyperfleet-api",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + routeTemplate(r)
		}),
	)
}

func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return "unmatched"
}
