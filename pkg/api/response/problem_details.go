package response

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/logger"
)

// RetryAfterSeconds is sent on 5xx responses other than 501 so adapters know
// when to re-send a report.
const RetryAfterSeconds = 1

const problemContentType = "application/problem+json"

// WriteProblemDetailsResponse writes payload as an RFC 9457 document with status code.
func WriteProblemDetailsResponse(w http.ResponseWriter, r *http.Request, code int, payload interface{}) {
	header := w.Header()
	header.Set("Content-Type", problemContentType)
	header.Set("Vary", "Authorization")
	if retryable(code) {
		header.Set("Retry-After", strconv.Itoa(RetryAfterSeconds))
	}
	w.WriteHeader(code)
	if payload == nil {
		return
	}

	log := logger.With(r.Context(),
		logger.HTTPPath(r.URL.Path), logger.HTTPMethod(r.Method), logger.HTTPStatusCode(code))
	body, err := json.Marshal(payload)
	if err != nil {
		log.WithError(err).Error("Failed to marshal problem details")
		return
	}
	if _, err := w.Write(body); err != nil {
		log.WithError(err).Error("Failed to write problem details")
	}
}

func retryable(code int) bool {
	return code >= http.StatusInternalServerError && code != http.StatusNotImplemented
}
