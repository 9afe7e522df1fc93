package presenters

import (
	"github.com/openshift-hyperfleet/hyperfleet/pkg/errors"
)

func PresentError(err *errors.ServiceError, instance, traceID string) errors.ProblemDetails {
	return err.AsProblemDetails(instance, traceID)
}
