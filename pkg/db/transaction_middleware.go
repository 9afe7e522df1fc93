package db

import (
	"encoding/json"
	"net/http"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/errors"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/logger"
)

// TransactionMiddleware creates a new HTTP middleware that begins a database transaction
// and stores it in the request context.
func TransactionMiddleware(next http.Handler, connection SessionFactory) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, err := NewContext(r.Context(), connection)
		if err != nil {
			logger.WithError(r.Context(), err).Error("Could not create transaction")
			// use default error to avoid exposing internals to users
			serviceErr := errors.GeneralError("")
			traceID, _ := logger.GetTraceID(r.Context())
			writeProblemResponse(w, serviceErr.HttpCode, serviceErr.AsProblemDetails(r.URL.Path, traceID))
			return
		}

		*r = *r.WithContext(ctx)
		defer func() { _ = Resolve(r.Context()) }()

		next.ServeHTTP(w, r)
	})
}

func writeProblemResponse(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(code)

	if payload != nil {
		response, err := json.Marshal(payload)
		if err != nil {
			return
		}
		_, _ = w.Write(response)
	}
}
