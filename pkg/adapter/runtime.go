package adapter

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/utils/clock"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/api"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/api/presenters"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/client/hyperfleet"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/config"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/logger"
)

// Condition reasons reported by the runtime
const (
	ReasonActionDispatched  = "ActionDispatched"
	ReasonActionPending     = "ActionPending"
	ReasonActionInProgress  = "ActionInProgress"
	ReasonActionSucceeded   = "ActionSucceeded"
	ReasonActionFailed      = "ActionFailed"
	ReasonActionLost        = "ActionLost"
	ReasonTransientFailure  = "TransientFailure"
	ReasonObservationFailed = "ObservationFailed"
	ReasonHealthy           = "Healthy"
	ReasonExecutorDegraded  = "ExecutorDegraded"
)

// ResourceReader fetches the resource spec an action runs against.
type ResourceReader interface {
	GetResource(ctx context.Context, id string) (*presenters.Resource, error)
}

// ReportSender delivers one adapter report.
type ReportSender interface {
	Report(ctx context.Context, resourceID string, report *presenters.AdapterStatusCreateRequest) (*presenters.AdapterStatusResult, error)
}

// Policy is the job cache policy of the runtime.
type Policy struct {
	// RecheckTTL is how long a finished task is re-reported from the store
	// without asking the executor again.
	RecheckTTL time.Duration
	// StuckTimeout is how long a task may stay in progress before its action
	// is deleted and recreated.
	StuckTimeout time.Duration
	// RetryFailedAfter is the delay before a failed task is dispatched again.
	// Zero never retries a failed generation.
	RetryFailedAfter time.Duration
	// ObserveTimeout bounds the wait for a new action to settle. Zero polls once.
	ObserveTimeout  time.Duration
	ObserveInterval time.Duration
}

func PolicyFromConfig(cfg *config.AdapterRuntimeConfig) Policy {
	return Policy{
		RecheckTTL:       cfg.RecheckTTL,
		StuckTimeout:     cfg.StuckTimeout,
		RetryFailedAfter: cfg.RetryFailedAfter,
		ObserveTimeout:   cfg.ObserveTimeout,
		ObserveInterval:  2 * time.Second,
	}
}

// Runtime handles the pulses of one adapter.
type Runtime struct {
	name      string
	store     TaskStore
	executor  Executor
	resources ResourceReader
	reporter  ReportSender
	policy    Policy
	clock     clock.PassiveClock

	flight singleflight.Group
}

func NewRuntime(
	name string,
	store TaskStore,
	executor Executor,
	resources ResourceReader,
	reporter ReportSender,
	policy Policy,
	clk clock.PassiveClock,
) *Runtime {
	if clk == nil {
		clk = clock.RealClock{}
	}
	if policy.ObserveInterval <= 0 {
		policy.ObserveInterval = 2 * time.Second
	}
	return &Runtime{
		name:      name,
		store:     store,
		executor:  executor,
		resources: resources,
		reporter:  reporter,
		policy:    policy,
		clock:     clk,
	}
}

// Handle processes one pulse. Concurrent pulses for the same resource
// generation share a single execution. A returned error asks the broker to
// redeliver the pulse.
func (r *Runtime) Handle(ctx context.Context, pulse *api.Pulse) error {
	if pulse.Adapter != r.name {
		logger.With(ctx, logger.FieldData, pulse.Adapter).Warn("Pulse addressed to another adapter, ignoring")
		return nil
	}
	ctx = logger.WithAdapter(ctx, r.name)
	ctx = logger.WithResourceType(ctx, pulse.ResourceKind)
	ctx = logger.WithResourceID(ctx, pulse.ResourceID)
	if pulse.ID != "" {
		ctx = logger.WithPulseID(ctx, pulse.ID)
		ctx = logger.SetRequestID(ctx, pulse.ID)
	}

	key := api.TaskKey{ResourceID: pulse.ResourceID, Adapter: r.name, Generation: pulse.Generation}
	_, err, shared := r.flight.Do(key.String(), func() (interface{}, error) {
		return nil, r.handle(ctx, pulse, key)
	})
	if shared {
		logger.With(ctx, logger.FieldGeneration, pulse.Generation).Debug("Pulse collapsed into a running execution")
	}
	return err
}

func (r *Runtime) handle(ctx context.Context, pulse *api.Pulse, key api.TaskKey) error {
	now := r.clock.Now()

	latest, err := r.store.Latest(ctx, key.ResourceID, r.name)
	switch {
	case err == nil && latest.Generation > key.Generation:
		logger.With(ctx, logger.FieldGeneration, key.Generation).Debug("Pulse for an older generation, ignoring")
		recordAction(r.name, actionSkipped)
		return nil
	case err == nil && latest.Generation < key.Generation:
		if _, err := r.store.SupersedeOlder(ctx, key.ResourceID, r.name, key.Generation, now); err != nil {
			return err
		}
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}

	// Replicas sharing the postgres store may both find a NotStarted task
	// and both dispatch. Action names derive from the task key and the executor
	// treats AlreadyExists as success, so the second dispatch adopts the first.
	task, _, err := r.store.CreateIfAbsent(ctx, &api.AdapterTask{
		ResourceID:   key.ResourceID,
		ResourceKind: pulse.ResourceKind,
		Adapter:      r.name,
		Generation:   key.Generation,
		State:        api.TaskNotStarted,
	})
	if err != nil {
		return err
	}

	switch task.State {
	case api.TaskSucceeded:
		return r.reuse(ctx, task, now)
	case api.TaskFailed:
		if r.policy.RetryFailedAfter > 0 && task.FinishedAt != nil && now.Sub(*task.FinishedAt) >= r.policy.RetryFailedAfter {
			return r.dispatch(ctx, task, task.Attempt+1, actionRetried)
		}
		return r.reuse(ctx, task, now)
	case api.TaskInProgress:
		if task.StartedAt != nil && now.Sub(*task.StartedAt) > r.policy.StuckTimeout {
			logger.With(ctx, logger.FieldExternalRef, task.ExternalRef, logger.FieldGeneration, task.Generation).
				Warn("Action stuck in progress, recreating")
			if err := r.executor.Delete(ctx, TaskHandle(task.ExternalRef)); err != nil {
				return r.reportTransient(ctx, task, ReasonTransientFailure, err)
			}
			return r.dispatch(ctx, task, task.Attempt+1, actionRecreated)
		}
		recordAction(r.name, actionObserved)
		return r.observeAndReport(ctx, task, 0)
	default:
		return r.dispatch(ctx, task, task.Attempt, actionDispatched)
	}
}

// reuse re-reports a finished task. Past the recheck TTL a succeeded action
// is observed again so a failure after the fact is not hidden.
func (r *Runtime) reuse(ctx context.Context, task *api.AdapterTask, now time.Time) error {
	recordAction(r.name, actionReused)
	fresh := task.LastReportedAt != nil && now.Sub(*task.LastReportedAt) < r.policy.RecheckTTL
	if !fresh && task.State == api.TaskSucceeded && task.ExternalRef != "" {
		obs, err := r.executor.Poll(ctx, TaskHandle(task.ExternalRef))
		switch {
		case err != nil:
			logger.WithError(ctx, err).Debug("Re-observing finished action failed, reporting cached result")
		case obs.State == api.TaskFailed:
			r.finish(task, obs, now)
			if _, err := r.store.Replace(ctx, task); err != nil {
				return err
			}
		}
	}
	return r.report(ctx, task, r.conditionsFor(task, nil))
}

func (r *Runtime) dispatch(ctx context.Context, task *api.AdapterTask, attempt int32, result string) error {
	resource, err := r.resources.GetResource(ctx, task.ResourceID)
	if err != nil {
		var apiErr *hyperfleet.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			logger.Info(ctx, "Resource no longer exists, dropping pulse")
			recordAction(r.name, actionSkipped)
			return nil
		}
		return err
	}
	if resource.Generation > task.Generation {
		// a pulse for the newer generation is on its way
		logger.With(ctx, logger.FieldGeneration, task.Generation, logger.FieldObservedGeneration, resource.Generation).
			Debug("Resource moved past the pulse generation, not dispatching")
		recordAction(r.name, actionSkipped)
		return nil
	}

	handle, err := r.executor.Execute(ctx, &ActionRequest{
		ResourceID:   task.ResourceID,
		ResourceKind: task.ResourceKind,
		Adapter:      r.name,
		Generation:   task.Generation,
		Attempt:      attempt,
		Spec:         resource.Spec,
	})
	now := r.clock.Now()
	if err != nil {
		var perm *PermanentError
		if errors.As(err, &perm) {
			recordAction(r.name, actionPermanentError)
			task.Attempt = attempt
			task.ExternalRef = ""
			r.finish(task, &Observation{State: api.TaskFailed, Reason: perm.Reason, Message: perm.Err.Error()}, now)
			if _, err := r.store.Replace(ctx, task); err != nil {
				return err
			}
			logger.With(ctx, logger.FieldReason, perm.Reason).WithError(err).Warn("Action rejected permanently")
			return r.report(ctx, task, r.conditionsFor(task, nil))
		}
		recordAction(r.name, actionTransientError)
		return r.reportTransient(ctx, task, ReasonTransientFailure, err)
	}

	recordAction(r.name, result)
	task.State = api.TaskInProgress
	task.ExternalRef = string(handle)
	task.Attempt = attempt
	task.StartedAt = &now
	task.FinishedAt = nil
	task.Reason = nil
	task.Message = nil
	if _, err := r.store.Replace(ctx, task); err != nil {
		return err
	}
	logger.With(ctx, logger.FieldExternalRef, task.ExternalRef, logger.FieldGeneration, task.Generation).Info("Action dispatched")

	if r.policy.ObserveTimeout > 0 {
		applied := r.conditionsFor(task, nil)[:1]
		if err := r.report(ctx, task, applied); err != nil {
			return err
		}
	}
	return r.observeAndReport(ctx, task, r.policy.ObserveTimeout)
}

func (r *Runtime) observeAndReport(ctx context.Context, task *api.AdapterTask, timeout time.Duration) error {
	obs, err := r.observe(ctx, TaskHandle(task.ExternalRef), timeout)
	if err != nil {
		return r.reportTransient(ctx, task, ReasonObservationFailed, err)
	}

	now := r.clock.Now()
	switch obs.State {
	case api.TaskSucceeded, api.TaskFailed:
		r.finish(task, obs, now)
		if _, err := r.store.Replace(ctx, task); err != nil {
			return err
		}
		logger.With(ctx, logger.FieldTaskState, task.State, logger.FieldReason, obs.Reason).Info("Action finished")
	case api.TaskNotStarted:
		// the external action vanished, the next pulse dispatches it again
		task.State = api.TaskNotStarted
		task.ExternalRef = ""
		task.StartedAt = nil
		if _, err := r.store.Replace(ctx, task); err != nil {
			return err
		}
		return r.report(ctx, task, r.conditionsFor(task, strPtr(ReasonActionLost)))
	}
	return r.report(ctx, task, r.conditionsFor(task, nil))
}

func (r *Runtime) observe(ctx context.Context, handle TaskHandle, timeout time.Duration) (*Observation, error) {
	if timeout <= 0 {
		return r.executor.Poll(ctx, handle)
	}
	var last *Observation
	err := wait.PollUntilContextTimeout(ctx, r.policy.ObserveInterval, timeout, true, func(ctx context.Context) (bool, error) {
		obs, err := r.executor.Poll(ctx, handle)
		if err != nil {
			return false, err
		}
		last = obs
		return obs.State != api.TaskInProgress, nil
	})
	if err != nil && !(wait.Interrupted(err) && last != nil) {
		return nil, err
	}
	return last, nil
}

func (r *Runtime) finish(task *api.AdapterTask, obs *Observation, now time.Time) {
	task.State = obs.State
	task.FinishedAt = &now
	task.Reason = nil
	task.Message = nil
	if obs.Reason != "" {
		task.Reason = strPtr(obs.Reason)
	}
	if obs.Message != "" {
		task.Message = strPtr(obs.Message)
	}
}

// reportTransient reports a failure expected to clear up by the next pulse.
// The pulse is acknowledged; TTL driven pulses retry.
func (r *Runtime) reportTransient(ctx context.Context, task *api.AdapterTask, reason string, cause error) error {
	logger.With(ctx, logger.FieldReason, reason).WithError(cause).Warn("Transient action failure")
	message := cause.Error()
	conditions := []api.ConditionInput{
		{Type: api.ConditionTypeApplied, Status: api.AdapterConditionTrue, Reason: strPtr(ReasonActionDispatched)},
		{Type: api.ConditionTypeAvailable, Status: api.AdapterConditionUnknown, Reason: strPtr(reason), Message: &message},
		{Type: api.ConditionTypeHealth, Status: api.AdapterConditionFalse, Reason: strPtr(ReasonExecutorDegraded), Message: &message},
	}
	return r.report(ctx, task, conditions)
}

// conditionsFor maps a task to Applied, Available and Health, in that order.
func (r *Runtime) conditionsFor(task *api.AdapterTask, unknownReason *string) []api.ConditionInput {
	applied := api.ConditionInput{Type: api.ConditionTypeApplied, Status: api.AdapterConditionTrue, Reason: strPtr(ReasonActionDispatched)}
	if task.ExternalRef != "" {
		applied.Message = strPtr(task.ExternalRef)
	}

	available := api.ConditionInput{Type: api.ConditionTypeAvailable}
	switch task.State {
	case api.TaskSucceeded:
		available.Status = api.AdapterConditionTrue
		available.Reason = strPtr(ReasonActionSucceeded)
	case api.TaskFailed:
		available.Status = api.AdapterConditionFalse
		available.Reason = task.Reason
		if available.Reason == nil {
			available.Reason = strPtr(ReasonActionFailed)
		}
		available.Message = task.Message
		if task.ExternalRef == "" {
			applied.Status = api.AdapterConditionFalse
			applied.Reason = available.Reason
		}
	case api.TaskInProgress:
		available.Status = api.AdapterConditionUnknown
		available.Reason = strPtr(ReasonActionInProgress)
	default:
		available.Status = api.AdapterConditionUnknown
		available.Reason = strPtr(ReasonActionPending)
	}
	if unknownReason != nil && available.Status == api.AdapterConditionUnknown {
		available.Reason = unknownReason
	}

	health := api.ConditionInput{Type: api.ConditionTypeHealth, Status: api.AdapterConditionTrue, Reason: strPtr(ReasonHealthy)}
	return []api.ConditionInput{applied, available, health}
}

func (r *Runtime) report(ctx context.Context, task *api.AdapterTask, conditions []api.ConditionInput) error {
	result, err := r.reporter.Report(ctx, task.ResourceID, &presenters.AdapterStatusCreateRequest{
		Adapter:            r.name,
		ObservedGeneration: task.Generation,
		Conditions:         conditions,
	})
	if err != nil {
		var apiErr *hyperfleet.APIError
		if errors.As(err, &apiErr) && !apiErr.Retryable() {
			return r.refused(ctx, task, apiErr)
		}
		return err
	}
	for _, res := range result.Results {
		recordReportOutcome(r.name, res.Outcome)
		if res.Outcome == api.ReportRejected {
			logger.With(ctx, logger.FieldConditionType, res.Type, logger.FieldGeneration, task.Generation).
				Info("Report rejected, a newer generation was already reported")
		}
	}

	if task.IsTerminal() {
		now := r.clock.Now()
		task.LastReportedAt = &now
		if _, err := r.store.Replace(ctx, task); err != nil {
			logger.WithError(ctx, err).Warn("Recording report time failed")
		}
	}
	return nil
}

// refused ends a pulse whose report the API will never accept; redelivering
// it cannot change the answer. A 404 means the resource is gone, so the task
// is retired as well.
func (r *Runtime) refused(ctx context.Context, task *api.AdapterTask, apiErr *hyperfleet.APIError) error {
	recordAction(r.name, actionReportRefused)
	entry := logger.With(ctx, logger.FieldGeneration, task.Generation, logger.HTTPStatusCode(apiErr.StatusCode)).WithError(apiErr)
	if apiErr.StatusCode != http.StatusNotFound {
		entry.Error("Report refused by the API, dropping pulse")
		return nil
	}
	entry.Info("Resource no longer exists, retiring task")
	if _, err := r.store.SupersedeOlder(ctx, task.ResourceID, r.name, task.Generation+1, r.clock.Now()); err != nil {
		logger.WithError(ctx, err).Warn("Retiring task failed")
	}
	return nil
}

func strPtr(s string) *string {
	return &s
}
