package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/api/presenters"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/api/response"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/errors"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/logger"
)

// handlerConfig is what a route hands to the request pipeline:
//
//	MarshalInto receives the decoded request body, when the route has one.
//	Validate runs in order and stops at the first failure.
//	Action does the work and returns the payload to send.
//	ErrorHandler renders failures; handleError when unset.
type handlerConfig struct {
	MarshalInto  interface{}
	Validate     []validate
	Action       httpAction
	ErrorHandler errorHandlerFunc
}

type validate func() *errors.ServiceError
type errorHandlerFunc func(r *http.Request, w http.ResponseWriter, err *errors.ServiceError)
type httpAction func() (interface{}, *errors.ServiceError)

// handleError renders err as problem details. Client errors are expected
// traffic (stale ids, bad reports) and log at info.
func handleError(r *http.Request, w http.ResponseWriter, err *errors.ServiceError) {
	entry := logger.With(r.Context(),
		"code", err.RFC9457Code,
		"http_code", err.HttpCode,
		"reason", err.Reason)
	if err.HttpCode >= http.StatusInternalServerError {
		entry.Error("Server error response")
	} else {
		entry.Info("Client error response")
	}

	requestID, _ := logger.GetRequestID(r.Context())
	response.WriteProblemDetailsResponse(w, r, err.HttpCode, presenters.PresentError(err, r.URL.Path, requestID))
}

func (cfg *handlerConfig) onError() errorHandlerFunc {
	if cfg.ErrorHandler == nil {
		return handleError
	}
	return cfg.ErrorHandler
}

func (cfg *handlerConfig) decode(r *http.Request) *errors.ServiceError {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return errors.MalformedRequest("Unable to read request body: %s", err)
	}
	if err := json.Unmarshal(body, &cfg.MarshalInto); err != nil {
		return errors.MalformedRequest("Invalid request format: %s", err)
	}
	return nil
}

func (cfg *handlerConfig) validate() *errors.ServiceError {
	for _, v := range cfg.Validate {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

// run executes the action and writes its result with code.
func (cfg *handlerConfig) run(w http.ResponseWriter, r *http.Request, code int) {
	result, err := cfg.Action()
	if err != nil {
		cfg.onError()(r, w, err)
		return
	}
	writeJSONResponse(w, r, code, result)
}

// handle serves routes with a JSON body: decode, validate, act.
func handle(w http.ResponseWriter, r *http.Request, cfg *handlerConfig, httpStatus int) {
	if err := cfg.decode(r); err != nil {
		handleError(r, w, err)
		return
	}
	if err := cfg.validate(); err != nil {
		cfg.onError()(r, w, err)
		return
	}
	cfg.run(w, r, httpStatus)
}

func handleDelete(w http.ResponseWriter, r *http.Request, cfg *handlerConfig, httpStatus int) {
	if err := cfg.validate(); err != nil {
		cfg.onError()(r, w, err)
		return
	}
	cfg.run(w, r, httpStatus)
}

func handleGet(w http.ResponseWriter, r *http.Request, cfg *handlerConfig) {
	cfg.run(w, r, http.StatusOK)
}

func handleList(w http.ResponseWriter, r *http.Request, cfg *handlerConfig) {
	cfg.run(w, r, http.StatusOK)
}
