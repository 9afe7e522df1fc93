package api

import (
	"net/http"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/api/response"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/errors"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/logger"
)

// SendNotFound is the NotFoundHandler of every router we build.
func SendNotFound(w http.ResponseWriter, r *http.Request) {
	SendError(w, r, errors.NotFound("The requested resource '%s' doesn't exist", r.URL.Path))
}

// SendPanic answers 500 when the real response could not be produced.
func SendPanic(w http.ResponseWriter, r *http.Request) {
	SendError(w, r, errors.GeneralError("An unexpected error happened, please check the log of the service for details"))
}

// SendError writes err as problem details for the request path, carrying the request id.
func SendError(w http.ResponseWriter, r *http.Request, err *errors.ServiceError) {
	requestID, _ := logger.GetRequestID(r.Context())
	response.WriteProblemDetailsResponse(w, r, err.HttpCode, err.AsProblemDetails(r.URL.Path, requestID))
}
