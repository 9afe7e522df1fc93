package adapter

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/api/presenters"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/client/hyperfleet"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/logger"
)

// StatusClient posts adapter reports to the API.
type StatusClient interface {
	ReportStatus(ctx context.Context, id string, report *presenters.AdapterStatusCreateRequest) (*presenters.AdapterStatusResult, error)
}

// Reporter delivers one adapter report, retrying server side failures with
// exponential backoff for up to maxElapsed. Client errors are returned at once.
type Reporter struct {
	client          StatusClient
	initialInterval time.Duration
	maxElapsed      time.Duration
}

func NewReporter(client StatusClient, maxElapsed time.Duration) *Reporter {
	return &Reporter{client: client, initialInterval: 500 * time.Millisecond, maxElapsed: maxElapsed}
}

func (r *Reporter) Report(
	ctx context.Context, resourceID string, report *presenters.AdapterStatusCreateRequest,
) (*presenters.AdapterStatusResult, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.initialInterval

	operation := func() (*presenters.AdapterStatusResult, error) {
		result, err := r.client.ReportStatus(ctx, resourceID, report)
		if err == nil {
			return result, nil
		}
		var apiErr *hyperfleet.APIError
		if errors.As(err, &apiErr) {
			if !apiErr.Retryable() {
				return nil, backoff.Permanent(err)
			}
			if apiErr.RetryAfter > 0 {
				logger.With(ctx, "retry_after_seconds", apiErr.RetryAfter).WithError(err).Debug("API asked to retry later")
				return nil, backoff.RetryAfter(apiErr.RetryAfter)
			}
		}
		return nil, err
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(b),
		backoff.WithMaxElapsedTime(r.maxElapsed),
		backoff.WithNotify(func(err error, next time.Duration) {
			logger.With(ctx, logger.FieldNextWake, next.String()).WithError(err).Warn("Reporting status failed, retrying")
		}),
	)
}
