package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/logger"
)

func writeJSONResponse(w http.ResponseWriter, r *http.Request, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Vary", "Authorization")

	w.WriteHeader(code)

	if payload != nil {
		response, err := json.Marshal(payload)
		if err != nil {
			// Headers already sent, can't change status code
			logger.With(r.Context(), logger.HTTPPath(r.URL.Path), logger.HTTPStatusCode(code)).
				WithError(err).Error("Failed to marshal response payload")
			return
		}
		if _, err := w.Write(response); err != nil {
			logger.With(r.Context(), logger.HTTPPath(r.URL.Path), logger.HTTPStatusCode(code)).
				WithError(err).Error("Failed to write response body")
			return
		}
	}
}
