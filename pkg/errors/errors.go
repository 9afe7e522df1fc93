package errors

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// ErrorTypeBase is the URI prefix of every problem type returned by the API.
const ErrorTypeBase = "https://api.hyperfleet.io/errors/"

// Problem types (RFC 9457 "type" member)
const (
	ErrorTypeValidation = ErrorTypeBase + "validation-error"
	ErrorTypeNotFound   = ErrorTypeBase + "not-found"
	ErrorTypeConflict   = ErrorTypeBase + "conflict"
	ErrorTypeBadRequest = ErrorTypeBase + "bad-request"
	ErrorTypeInternal   = ErrorTypeBase + "internal-error"
	ErrorTypeNotAllowed = ErrorTypeBase + "method-not-allowed"
)

// Machine readable error codes, HYPERFLEET-<CATEGORY>-<NUMBER>
const (
	CodeValidationGeneric  = "HYPERFLEET-VAL-000"
	CodeValidationMultiple = "HYPERFLEET-VAL-001"
	CodeMalformedRequest   = "HYPERFLEET-VAL-002"
	CodeBadRequest         = "HYPERFLEET-VAL-003"
	CodeInvalidGeneration  = "HYPERFLEET-VAL-004"

	CodeNotFoundGeneric  = "HYPERFLEET-NTF-001"
	CodeNotFoundResource = "HYPERFLEET-NTF-002"

	CodeConflictGeneric = "HYPERFLEET-CNF-001"

	CodeNotImplemented = "HYPERFLEET-MTH-001"

	CodeInternalGeneral  = "HYPERFLEET-INT-001"
	CodeInternalDatabase = "HYPERFLEET-INT-002"
)

type ServiceErrors []ServiceError

// ValidationDetail represents a single field validation error
type ValidationDetail struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

func Find(code string) (bool, *ServiceError) {
	for _, err := range Errors() {
		if err.RFC9457Code == code {
			return true, &err
		}
	}
	return false, nil
}

func Errors() ServiceErrors {
	return ServiceErrors{
		{RFC9457Code: CodeValidationGeneric, Type: ErrorTypeValidation, Title: "Validation Failed",
			Reason: "General validation failure", HttpCode: http.StatusBadRequest},
		{RFC9457Code: CodeValidationMultiple, Type: ErrorTypeValidation, Title: "Validation Failed",
			Reason: "Multiple validation failures", HttpCode: http.StatusBadRequest},
		{RFC9457Code: CodeMalformedRequest, Type: ErrorTypeBadRequest, Title: "Malformed Request",
			Reason: "Unable to read request body", HttpCode: http.StatusBadRequest},
		{RFC9457Code: CodeBadRequest, Type: ErrorTypeBadRequest, Title: "Bad Request",
			Reason: "Bad request", HttpCode: http.StatusBadRequest},
		{RFC9457Code: CodeInvalidGeneration, Type: ErrorTypeValidation, Title: "Invalid Generation",
			Reason: "Observed generation is not valid for the resource", HttpCode: http.StatusBadRequest},
		{RFC9457Code: CodeNotFoundGeneric, Type: ErrorTypeNotFound, Title: "Resource Not Found",
			Reason: "Resource not found", HttpCode: http.StatusNotFound},
		{RFC9457Code: CodeNotFoundResource, Type: ErrorTypeNotFound, Title: "Resource Not Found",
			Reason: "Resource kind is not registered", HttpCode: http.StatusNotFound},
		{RFC9457Code: CodeConflictGeneric, Type: ErrorTypeConflict, Title: "Conflict",
			Reason: "An entity with the specified unique values already exists", HttpCode: http.StatusConflict},
		{RFC9457Code: CodeNotImplemented, Type: ErrorTypeNotAllowed, Title: "Method Not Allowed",
			Reason: "HTTP Method not implemented for this endpoint", HttpCode: http.StatusMethodNotAllowed},
		{RFC9457Code: CodeInternalGeneral, Type: ErrorTypeInternal, Title: "Internal Server Error",
			Reason: "Unspecified error", HttpCode: http.StatusInternalServerError},
		{RFC9457Code: CodeInternalDatabase, Type: ErrorTypeInternal, Title: "Internal Server Error",
			Reason: "Database error", HttpCode: http.StatusInternalServerError},
	}
}

type ServiceError struct {
	// RFC9457Code is the distinct machine readable code, e.g. HYPERFLEET-NTF-001
	RFC9457Code string
	// Type is the problem type URI
	Type string
	// Title is the short, human readable summary of the problem type
	Title string
	// Reason is the context-specific reason the error was generated
	Reason string
	// HttpCode is the status returned when the error is sent as an API response
	HttpCode int
	// Details contains field-level validation errors (optional)
	Details []ValidationDetail
}

// New Reason can be a string with format verbs, which will be replace by the specified values
func New(code string, reason string, values ...interface{}) *ServiceError {
	exists, err := Find(code)
	if !exists {
		slog.Error("Undefined error code used", "code", code)
		_, err = Find(CodeInternalGeneral)
	}

	if reason != "" {
		err.Reason = fmt.Sprintf(reason, values...)
	}

	return err
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %s", e.RFC9457Code, e.Reason)
}

func (e *ServiceError) AsError() error {
	return fmt.Errorf("%s", e.Error())
}

func (e *ServiceError) Is404() bool {
	return e.HttpCode == http.StatusNotFound
}

func (e *ServiceError) IsConflict() bool {
	return e.HttpCode == http.StatusConflict
}

// ProblemDetails is the RFC 9457 body rendered for a ServiceError.
type ProblemDetails struct {
	Type      string             `json:"type"`
	Title     string             `json:"title"`
	Status    int                `json:"status"`
	Detail    string             `json:"detail,omitempty"`
	Instance  string             `json:"instance,omitempty"`
	Code      string             `json:"code"`
	Timestamp time.Time          `json:"timestamp"`
	TraceID   string             `json:"trace_id,omitempty"`
	Errors    []ValidationDetail `json:"errors,omitempty"`
}

// AsProblemDetails renders the error for the given request path and trace id.
func (e *ServiceError) AsProblemDetails(instance, traceID string) ProblemDetails {
	return ProblemDetails{
		Type:      e.Type,
		Title:     e.Title,
		Status:    e.HttpCode,
		Detail:    e.Reason,
		Instance:  instance,
		Code:      e.RFC9457Code,
		Timestamp: time.Now().UTC(),
		TraceID:   traceID,
		Errors:    e.Details,
	}
}

func NotFound(reason string, values ...interface{}) *ServiceError {
	return New(CodeNotFoundGeneric, reason, values...)
}

func KindNotFound(kind string) *ServiceError {
	return New(CodeNotFoundResource, "Resource kind '%s' is not registered", kind)
}

func GeneralError(reason string, values ...interface{}) *ServiceError {
	return New(CodeInternalGeneral, reason, values...)
}

func DatabaseError(reason string, values ...interface{}) *ServiceError {
	return New(CodeInternalDatabase, reason, values...)
}

func NotImplemented(reason string, values ...interface{}) *ServiceError {
	return New(CodeNotImplemented, reason, values...)
}

func Conflict(reason string, values ...interface{}) *ServiceError {
	return New(CodeConflictGeneric, reason, values...)
}

func Validation(reason string, values ...interface{}) *ServiceError {
	return New(CodeValidationGeneric, reason, values...)
}

// ValidationWithDetails creates a validation error with field-level details
func ValidationWithDetails(reason string, details []ValidationDetail) *ServiceError {
	code := CodeValidationGeneric
	if len(details) > 1 {
		code = CodeValidationMultiple
	}
	err := New(code, "%s", reason)
	err.Details = details
	return err
}

func InvalidGeneration(reason string, values ...interface{}) *ServiceError {
	return New(CodeInvalidGeneration, reason, values...)
}

func MalformedRequest(reason string, values ...interface{}) *ServiceError {
	return New(CodeMalformedRequest, reason, values...)
}

func BadRequest(reason string, values ...interface{}) *ServiceError {
	return New(CodeBadRequest, reason, values...)
}
