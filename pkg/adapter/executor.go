// Package adapter is the runtime of one adapter: it turns pulses into at most
// one live external action per resource generation and reports the outcome as
// Applied, Available and Health conditions.
package adapter

import (
	"context"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/api"
)

//go:generate mockgen-v0.6.0 -source=executor.go -package=adapter -destination=executor_mock.go

// ActionRequest is what an executor needs to run the action for one generation.
type ActionRequest struct {
	ResourceID   string
	ResourceKind string
	Adapter      string
	Generation   int32
	// Attempt distinguishes recreated actions of the same generation.
	Attempt int32
	Spec    map[string]interface{}
}

// TaskHandle is the executor's reference to a dispatched action.
type TaskHandle string

// Observation is the state of a dispatched action.
type Observation struct {
	State   api.TaskState
	Reason  string
	Message string
}

// Executor runs idempotent external actions. Execute must return the same
// handle for the same request, Poll reports NotStarted when the handle no
// longer exists.
type Executor interface {
	Execute(ctx context.Context, req *ActionRequest) (TaskHandle, error)
	Poll(ctx context.Context, handle TaskHandle) (*Observation, error)
	Delete(ctx context.Context, handle TaskHandle) error
}
