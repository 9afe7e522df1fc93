package logger

import (
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// HTTP request logging helpers per HyperFleet Logging Specification.
// These functions create slog attributes for API-specific fields:
//   - method: HTTP method (GET, POST, etc.)
//   - path: Request path
//   - status_code: HTTP response status code
//   - duration_ms: Request duration in milliseconds
//   - user_agent: Client user agent string
//   - caller: HyperFleet component that sent the request, "external" otherwise

// HTTPMethod returns an slog attribute for the HTTP method
func HTTPMethod(method string) slog.Attr {
	return slog.String("method", method)
}

// HTTPPath returns an slog attribute for the request path
func HTTPPath(path string) slog.Attr {
	return slog.String("path", path)
}

// HTTPStatusCode returns an slog attribute for the response status code
func HTTPStatusCode(code int) slog.Attr {
	return slog.Int("status_code", code)
}

// HTTPDuration returns an slog attribute for request duration in milliseconds
func HTTPDuration(d time.Duration) slog.Attr {
	return slog.Int64("duration_ms", d.Milliseconds())
}

// HTTPUserAgent returns an slog attribute for the user agent
func HTTPUserAgent(ua string) slog.Attr {
	return slog.String("user_agent", ua)
}

// UserAgentPrefix starts the user agent of every HyperFleet component,
// e.g. hyperfleet-sentinel/v1.2.3 or hyperfleet-adapter-dns/v1.2.3.
const UserAgentPrefix = "hyperfleet-"

// maxCallerLength bounds caller names, they are used as metric labels
const maxCallerLength = 64

// CallerName returns the HyperFleet component named by ua, e.g. "sentinel"
// or "adapter-dns", and "external" for any other client.
func CallerName(ua string) string {
	if !strings.HasPrefix(ua, UserAgentPrefix) {
		return "external"
	}
	caller := strings.TrimPrefix(ua, UserAgentPrefix)
	if i := strings.IndexByte(caller, '/'); i >= 0 {
		caller = caller[:i]
	}
	if caller == "" || len(caller) > maxCallerLength {
		return "external"
	}
	for _, c := range caller {
		if !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '-') {
			return "external"
		}
	}
	return caller
}

// HTTPCaller returns an slog attribute naming the component behind ua
func HTTPCaller(ua string) slog.Attr {
	return slog.String("caller", CallerName(ua))
}

// HTTPRequestAttrs returns common HTTP request attributes for logging
func HTTPRequestAttrs(r *http.Request) []slog.Attr {
	return []slog.Attr{
		HTTPMethod(r.Method),
		HTTPPath(r.URL.Path),
		HTTPUserAgent(r.UserAgent()),
		HTTPCaller(r.UserAgent()),
	}
}

// HTTPResponseAttrs returns HTTP response attributes for logging
func HTTPResponseAttrs(statusCode int, duration time.Duration) []slog.Attr {
	return []slog.Attr{
		HTTPStatusCode(statusCode),
		HTTPDuration(duration),
	}
}
