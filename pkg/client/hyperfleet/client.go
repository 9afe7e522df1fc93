// Package hyperfleet is the HTTP client the sentinel and adapters use to talk to the API.
package hyperfleet

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"gopkg.in/resty.v1"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/api"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/api/presenters"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/errors"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/logger"
)

// DefaultBasePath is the path prefix of the HyperFleet API
const DefaultBasePath = "/api/hyperfleet/v1"

const listPageSize = 500

// APIError is a non 2xx answer of the API.
type APIError struct {
	StatusCode int
	Problem    *errors.ProblemDetails
	Body       string
	// RetryAfter is the Retry-After header in seconds, 0 when absent
	RetryAfter int
}

func (e *APIError) Error() string {
	if e.Problem != nil {
		return fmt.Sprintf("hyperfleet api returned %d: %s: %s", e.StatusCode, e.Problem.Code, e.Problem.Detail)
	}
	return fmt.Sprintf("hyperfleet api returned %d: %s", e.StatusCode, e.Body)
}

// Retryable is true for server side failures and throttling.
func (e *APIError) Retryable() bool {
	return e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests
}

// Client wraps a resty client bound to one API endpoint.
type Client struct {
	rest     *resty.Client
	basePath string
}

// NewClient returns a client for the API served at baseURL. Requests carry
// the trace context of the caller's context.
func NewClient(baseURL string, timeout time.Duration) *Client {
	rest := resty.New().
		SetTransport(otelhttp.NewTransport(http.DefaultTransport)).
		SetHostURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", logger.UserAgentPrefix+"client/"+api.Version)
	return &Client{rest: rest, basePath: DefaultBasePath}
}

// WithUserAgent names the calling component, e.g. "sentinel", in the API's
// request logs.
func (c *Client) WithUserAgent(component string) *Client {
	c.rest.SetHeader("User-Agent", logger.UserAgentPrefix+component+"/"+api.Version)
	return c
}

func (c *Client) path(format string, args ...interface{}) string {
	return c.basePath + fmt.Sprintf(format, args...)
}

// do runs the request and decodes an error body into an *APIError.
func (c *Client) do(req *resty.Request, method, url string) error {
	if reqID, ok := logger.GetRequestID(req.Context()); ok && reqID != "" {
		req.SetHeader(logger.ReqIDHeader, reqID)
	}
	resp, err := req.Execute(method, url)
	if err != nil {
		return err
	}
	if !resp.IsError() {
		return nil
	}
	apiErr := &APIError{StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	if seconds, err := strconv.Atoi(resp.Header().Get("Retry-After")); err == nil && seconds > 0 {
		apiErr.RetryAfter = seconds
	}
	var problem errors.ProblemDetails
	if json.Unmarshal(resp.Body(), &problem) == nil && problem.Code != "" {
		apiErr.Problem = &problem
	}
	return apiErr
}

// Ping fetches the API metadata document and fails when the API cannot serve it.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(c.rest.R().SetContext(ctx), resty.MethodGet, c.basePath)
}

// ListResources returns one page of resources of kind, including owned ones.
func (c *Client) ListResources(ctx context.Context, kind string, page, size int) (*presenters.ResourceList, error) {
	var list presenters.ResourceList
	req := c.rest.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"kind":     kind,
			"page":     strconv.Itoa(page),
			"pageSize": strconv.Itoa(size),
		}).
		SetResult(&list)
	if err := c.do(req, resty.MethodGet, c.path("/resources")); err != nil {
		return nil, err
	}
	return &list, nil
}

// ListAllResources pages through every resource of kind.
func (c *Client) ListAllResources(ctx context.Context, kind string) ([]presenters.Resource, error) {
	var all []presenters.Resource
	for page := 1; ; page++ {
		list, err := c.ListResources(ctx, kind, page, listPageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, list.Items...)
		if len(list.Items) == 0 || int64(len(all)) >= list.Total {
			return all, nil
		}
	}
}

func (c *Client) GetResource(ctx context.Context, id string) (*presenters.Resource, error) {
	var resource presenters.Resource
	req := c.rest.R().SetContext(ctx).SetResult(&resource)
	if err := c.do(req, resty.MethodGet, c.path("/resources/%s", id)); err != nil {
		return nil, err
	}
	return &resource, nil
}

// GetResourceStatus returns the derived status with every condition slot.
func (c *Client) GetResourceStatus(ctx context.Context, id string) (*presenters.ResourceStatus, error) {
	var status presenters.ResourceStatus
	req := c.rest.R().SetContext(ctx).SetResult(&status)
	if err := c.do(req, resty.MethodGet, c.path("/resources/%s/status", id)); err != nil {
		return nil, err
	}
	return &status, nil
}

// ReportStatus posts one adapter report. Stale conditions come back as
// Rejected results, not as errors.
func (c *Client) ReportStatus(
	ctx context.Context, id string, report *presenters.AdapterStatusCreateRequest,
) (*presenters.AdapterStatusResult, error) {
	var result presenters.AdapterStatusResult
	req := c.rest.R().SetContext(ctx).SetBody(report).SetResult(&result)
	if err := c.do(req, resty.MethodPost, c.path("/resources/%s/statuses", id)); err != nil {
		return nil, err
	}
	return &result, nil
}
