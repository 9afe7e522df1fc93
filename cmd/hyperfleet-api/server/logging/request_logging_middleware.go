package logging

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/logger"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/middleware"
)

// maxLoggedBody caps the request body copied into debug logs
const maxLoggedBody = 64 * 1024

// RequestLoggingMiddleware logs each request when it arrives and when it
// completes. Headers go through masker; at debug level so does the body.
func RequestLoggingMiddleware(masker *middleware.MaskingMiddleware) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			request := []any{
				logger.HTTPMethod(r.Method),
				logger.HTTPPath(r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr),
				logger.HTTPCaller(r.UserAgent()),
			}

			received := logger.With(ctx, request...).
				With(logger.HTTPUserAgent(r.UserAgent()), slog.Any("headers", maskHeaders(masker, r.Header)))
			if masker != nil && logger.GetLogger(ctx).Enabled(ctx, slog.LevelDebug) {
				if body, ok := peekBody(r); ok {
					received = received.With(slog.String("body", string(masker.MaskBody(body))))
				}
			}
			received.Info("HTTP request received")

			recorder := middleware.NewStatusRecorder(w)
			start := time.Now()
			next.ServeHTTP(recorder, r)

			logger.With(ctx, request...).
				With(logger.HTTPStatusCode(recorder.Status()), logger.HTTPDuration(time.Since(start))).
				Info("HTTP request completed")
		})
	}
}

func maskHeaders(masker *middleware.MaskingMiddleware, headers http.Header) http.Header {
	if masker == nil {
		return headers
	}
	return masker.MaskHeaders(headers)
}

// peekBody reads a body of known, bounded length and puts it back for the handler.
func peekBody(r *http.Request) ([]byte, bool) {
	if r.Body == nil || r.ContentLength <= 0 || r.ContentLength > maxLoggedBody {
		return nil, false
	}
	body, err := io.ReadAll(r.Body)
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))
	return body, err == nil
}
