package adapter

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/api"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/api/presenters"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/client/hyperfleet"
)

type fakeResources struct {
	mu        sync.Mutex
	resources map[string]*presenters.Resource
}

func (f *fakeResources) GetResource(_ context.Context, id string) (*presenters.Resource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.resources[id]
	if !ok {
		return nil, &hyperfleet.APIError{StatusCode: http.StatusNotFound}
	}
	cp := *r
	return &cp, nil
}

func (f *fakeResources) setGeneration(id string, generation int32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resources[id] = &presenters.Resource{ID: id, Kind: "Cluster", Generation: generation, Spec: map[string]interface{}{"region": "eu"}}
}

type fakeReporter struct {
	mu      sync.Mutex
	reports []*presenters.AdapterStatusCreateRequest
	err     error
}

func (f *fakeReporter) Report(
	_ context.Context, _ string, report *presenters.AdapterStatusCreateRequest,
) (*presenters.AdapterStatusResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports = append(f.reports, report)
	if f.err != nil {
		return nil, f.err
	}
	result := &presenters.AdapterStatusResult{Adapter: report.Adapter, ObservedGeneration: report.ObservedGeneration}
	for _, c := range report.Conditions {
		result.Results = append(result.Results, presenters.ConditionResult{Type: c.Type, Outcome: api.ReportAccepted})
	}
	return result, nil
}

func (f *fakeReporter) last() *presenters.AdapterStatusCreateRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.reports) == 0 {
		return nil
	}
	return f.reports[len(f.reports)-1]
}

func (f *fakeReporter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reports)
}

func condition(report *presenters.AdapterStatusCreateRequest, conditionType string) api.ConditionInput {
	for _, c := range report.Conditions {
		if c.Type == conditionType {
			return c
		}
	}
	return api.ConditionInput{}
}

type runtimeFixture struct {
	clock     *clocktesting.FakeClock
	store     *MemoryTaskStore
	executor  *MockExecutor
	resources *fakeResources
	reporter  *fakeReporter
	runtime   *Runtime
}

func newRuntimeFixture(t *testing.T, policy Policy) *runtimeFixture {
	ctrl := gomock.NewController(t)
	f := &runtimeFixture{
		clock:     clocktesting.NewFakeClock(time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)),
		store:     NewMemoryTaskStore(),
		executor:  NewMockExecutor(ctrl),
		resources: &fakeResources{resources: map[string]*presenters.Resource{}},
		reporter:  &fakeReporter{},
	}
	f.resources.setGeneration("c1", 1)
	f.runtime = NewRuntime("dns", f.store, f.executor, f.resources, f.reporter, policy, f.clock)
	return f
}

func defaultPolicy() Policy {
	return Policy{
		RecheckTTL:       5 * time.Minute,
		StuckTimeout:     15 * time.Minute,
		RetryFailedAfter: time.Minute,
	}
}

func clusterPulse(generation int32) *api.Pulse {
	return &api.Pulse{
		ID:           "p1",
		ResourceID:   "c1",
		ResourceKind: "Cluster",
		Adapter:      "dns",
		Generation:   generation,
		Reason:       api.PulseReasonSpecChanged,
	}
}

func (f *runtimeFixture) task(generation int32) *api.AdapterTask {
	task, err := f.store.Get(context.Background(), api.TaskKey{ResourceID: "c1", Adapter: "dns", Generation: generation})
	Expect(err).NotTo(HaveOccurred())
	return task
}

func TestRuntime_DispatchReportsInProgress(t *testing.T) {
	RegisterTestingT(t)
	f := newRuntimeFixture(t, defaultPolicy())

	f.executor.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req *ActionRequest) (TaskHandle, error) {
			Expect(req.Generation).To(BeEquivalentTo(1))
			Expect(req.Attempt).To(BeEquivalentTo(0))
			Expect(req.Spec).To(HaveKeyWithValue("region", "eu"))
			return "job-1", nil
		})
	f.executor.EXPECT().Poll(gomock.Any(), TaskHandle("job-1")).Return(&Observation{State: api.TaskInProgress}, nil)

	Expect(f.runtime.Handle(context.Background(), clusterPulse(1))).To(Succeed())

	report := f.reporter.last()
	Expect(report.ObservedGeneration).To(BeEquivalentTo(1))
	Expect(condition(report, api.ConditionTypeApplied).Status).To(Equal(api.AdapterConditionTrue))
	Expect(condition(report, api.ConditionTypeAvailable).Status).To(Equal(api.AdapterConditionUnknown))
	Expect(*condition(report, api.ConditionTypeAvailable).Reason).To(Equal(ReasonActionInProgress))
	Expect(condition(report, api.ConditionTypeHealth).Status).To(Equal(api.AdapterConditionTrue))

	task := f.task(1)
	Expect(task.State).To(Equal(api.TaskInProgress))
	Expect(task.ExternalRef).To(Equal("job-1"))
	Expect(task.StartedAt).NotTo(BeNil())
}

func TestRuntime_SucceededTaskIsReused(t *testing.T) {
	RegisterTestingT(t)
	f := newRuntimeFixture(t, defaultPolicy())

	f.executor.EXPECT().Execute(gomock.Any(), gomock.Any()).Return(TaskHandle("job-1"), nil).Times(1)
	f.executor.EXPECT().Poll(gomock.Any(), TaskHandle("job-1")).Return(&Observation{State: api.TaskSucceeded}, nil).Times(1)

	Expect(f.runtime.Handle(context.Background(), clusterPulse(1))).To(Succeed())
	f.clock.Step(time.Minute)
	Expect(f.runtime.Handle(context.Background(), clusterPulse(1))).To(Succeed())

	Expect(f.reporter.count()).To(Equal(2))
	Expect(condition(f.reporter.last(), api.ConditionTypeAvailable).Status).To(Equal(api.AdapterConditionTrue))
	Expect(f.task(1).LastReportedAt).NotTo(BeNil())
}

func TestRuntime_ReportForDeletedResourceRetiresTask(t *testing.T) {
	RegisterTestingT(t)
	f := newRuntimeFixture(t, defaultPolicy())
	f.reporter.err = &hyperfleet.APIError{StatusCode: http.StatusNotFound}

	f.executor.EXPECT().Execute(gomock.Any(), gomock.Any()).Return(TaskHandle("job-1"), nil).Times(1)
	f.executor.EXPECT().Poll(gomock.Any(), TaskHandle("job-1")).Return(&Observation{State: api.TaskSucceeded}, nil).AnyTimes()

	// every redelivery is acknowledged instead of bouncing forever
	for i := 0; i < 3; i++ {
		Expect(f.runtime.Handle(context.Background(), clusterPulse(1))).To(Succeed())
		f.clock.Step(time.Minute)
	}

	Expect(f.reporter.count()).To(Equal(3))
	task := f.task(1)
	Expect(task.State).To(Equal(api.TaskSucceeded))
	Expect(task.SupersededAt).NotTo(BeNil())
}

func TestRuntime_ReportErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		expectErr bool
	}{
		{"rejected request is dropped", http.StatusBadRequest, false},
		{"conflict is dropped", http.StatusConflict, false},
		{"server error is redelivered", http.StatusServiceUnavailable, true},
		{"throttling is redelivered", http.StatusTooManyRequests, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			RegisterTestingT(t)
			f := newRuntimeFixture(t, defaultPolicy())
			f.reporter.err = &hyperfleet.APIError{StatusCode: tt.status}
			f.executor.EXPECT().Execute(gomock.Any(), gomock.Any()).Return(TaskHandle("job-1"), nil)
			f.executor.EXPECT().Poll(gomock.Any(), TaskHandle("job-1")).Return(&Observation{State: api.TaskSucceeded}, nil)

			err := f.runtime.Handle(context.Background(), clusterPulse(1))
			if tt.expectErr {
				Expect(err).To(HaveOccurred())
			} else {
				Expect(err).NotTo(HaveOccurred())
			}
			Expect(f.task(1).SupersededAt).To(BeNil())
		})
	}
}

func TestRuntime_ConcurrentPulsesDispatchOnce(t *testing.T) {
	RegisterTestingT(t)
	f := newRuntimeFixture(t, defaultPolicy())

	release := make(chan struct{})
	f.executor.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, *ActionRequest) (TaskHandle, error) {
			<-release
			return "job-1", nil
		}).Times(1)
	f.executor.EXPECT().Poll(gomock.Any(), gomock.Any()).Return(&Observation{State: api.TaskSucceeded}, nil).AnyTimes()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			Expect(f.runtime.Handle(context.Background(), clusterPulse(1))).To(Succeed())
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	Expect(f.task(1).State).To(Equal(api.TaskSucceeded))
}

func TestRuntime_TransientDispatchErrorIsRetriedOnNextPulse(t *testing.T) {
	RegisterTestingT(t)
	f := newRuntimeFixture(t, defaultPolicy())

	gomock.InOrder(
		f.executor.EXPECT().Execute(gomock.Any(), gomock.Any()).Return(TaskHandle(""), Transient(errors.New("apiserver unavailable"))),
		f.executor.EXPECT().Execute(gomock.Any(), gomock.Any()).Return(TaskHandle("job-1"), nil),
	)
	f.executor.EXPECT().Poll(gomock.Any(), TaskHandle("job-1")).Return(&Observation{State: api.TaskInProgress}, nil)

	Expect(f.runtime.Handle(context.Background(), clusterPulse(1))).To(Succeed())
	report := f.reporter.last()
	Expect(condition(report, api.ConditionTypeApplied).Status).To(Equal(api.AdapterConditionTrue))
	Expect(condition(report, api.ConditionTypeAvailable).Status).To(Equal(api.AdapterConditionUnknown))
	Expect(*condition(report, api.ConditionTypeAvailable).Reason).To(Equal(ReasonTransientFailure))
	Expect(condition(report, api.ConditionTypeHealth).Status).To(Equal(api.AdapterConditionFalse))
	Expect(f.task(1).State).To(Equal(api.TaskNotStarted))

	Expect(f.runtime.Handle(context.Background(), clusterPulse(1))).To(Succeed())
	Expect(f.task(1).State).To(Equal(api.TaskInProgress))
}

func TestRuntime_PermanentDispatchErrorReportsUnavailable(t *testing.T) {
	RegisterTestingT(t)
	f := newRuntimeFixture(t, defaultPolicy())

	f.executor.EXPECT().Execute(gomock.Any(), gomock.Any()).
		Return(TaskHandle(""), Permanent("InvalidSpec", errors.New("image not allowed"))).Times(1)

	Expect(f.runtime.Handle(context.Background(), clusterPulse(1))).To(Succeed())
	report := f.reporter.last()
	available := condition(report, api.ConditionTypeAvailable)
	Expect(available.Status).To(Equal(api.AdapterConditionFalse))
	Expect(*available.Reason).To(Equal("InvalidSpec"))
	Expect(*available.Message).To(Equal("image not allowed"))
	Expect(condition(report, api.ConditionTypeApplied).Status).To(Equal(api.AdapterConditionFalse))
	Expect(f.task(1).State).To(Equal(api.TaskFailed))

	// within RetryFailedAfter the failure is re-reported without dispatching
	f.clock.Step(30 * time.Second)
	Expect(f.runtime.Handle(context.Background(), clusterPulse(1))).To(Succeed())
	Expect(condition(f.reporter.last(), api.ConditionTypeAvailable).Status).To(Equal(api.AdapterConditionFalse))
}

func TestRuntime_FailedTaskRetriedAfterDelay(t *testing.T) {
	RegisterTestingT(t)
	f := newRuntimeFixture(t, defaultPolicy())

	f.executor.EXPECT().Execute(gomock.Any(), gomock.Any()).Return(TaskHandle("job-a0"), nil)
	f.executor.EXPECT().Poll(gomock.Any(), TaskHandle("job-a0")).
		Return(&Observation{State: api.TaskFailed, Reason: "BackoffLimitExceeded", Message: "pod failed"}, nil)
	Expect(f.runtime.Handle(context.Background(), clusterPulse(1))).To(Succeed())
	Expect(*condition(f.reporter.last(), api.ConditionTypeAvailable).Reason).To(Equal("BackoffLimitExceeded"))

	f.clock.Step(2 * time.Minute)
	f.executor.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req *ActionRequest) (TaskHandle, error) {
			Expect(req.Attempt).To(BeEquivalentTo(1))
			return "job-a1", nil
		})
	f.executor.EXPECT().Poll(gomock.Any(), TaskHandle("job-a1")).Return(&Observation{State: api.TaskSucceeded}, nil)
	Expect(f.runtime.Handle(context.Background(), clusterPulse(1))).To(Succeed())

	task := f.task(1)
	Expect(task.State).To(Equal(api.TaskSucceeded))
	Expect(task.Attempt).To(BeEquivalentTo(1))
	Expect(task.Reason).To(BeNil())
	Expect(condition(f.reporter.last(), api.ConditionTypeAvailable).Status).To(Equal(api.AdapterConditionTrue))
}

func TestRuntime_StuckTaskIsRecreated(t *testing.T) {
	RegisterTestingT(t)
	f := newRuntimeFixture(t, defaultPolicy())

	f.executor.EXPECT().Execute(gomock.Any(), gomock.Any()).Return(TaskHandle("job-a0"), nil)
	f.executor.EXPECT().Poll(gomock.Any(), TaskHandle("job-a0")).Return(&Observation{State: api.TaskInProgress}, nil).Times(2)
	Expect(f.runtime.Handle(context.Background(), clusterPulse(1))).To(Succeed())

	// still within the bound: only observed
	f.clock.Step(10 * time.Minute)
	Expect(f.runtime.Handle(context.Background(), clusterPulse(1))).To(Succeed())

	f.clock.Step(6 * time.Minute)
	gomock.InOrder(
		f.executor.EXPECT().Delete(gomock.Any(), TaskHandle("job-a0")).Return(nil),
		f.executor.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, req *ActionRequest) (TaskHandle, error) {
				Expect(req.Attempt).To(BeEquivalentTo(1))
				return "job-a1", nil
			}),
	)
	f.executor.EXPECT().Poll(gomock.Any(), TaskHandle("job-a1")).Return(&Observation{State: api.TaskInProgress}, nil)
	Expect(f.runtime.Handle(context.Background(), clusterPulse(1))).To(Succeed())

	task := f.task(1)
	Expect(task.ExternalRef).To(Equal("job-a1"))
	Expect(task.Attempt).To(BeEquivalentTo(1))
	Expect(*task.StartedAt).To(Equal(f.clock.Now()))
}

func TestRuntime_NewGenerationSupersedesOlderTask(t *testing.T) {
	RegisterTestingT(t)
	f := newRuntimeFixture(t, defaultPolicy())

	f.executor.EXPECT().Execute(gomock.Any(), gomock.Any()).Return(TaskHandle("job-g1"), nil)
	f.executor.EXPECT().Poll(gomock.Any(), TaskHandle("job-g1")).Return(&Observation{State: api.TaskInProgress}, nil)
	Expect(f.runtime.Handle(context.Background(), clusterPulse(1))).To(Succeed())

	f.resources.setGeneration("c1", 2)
	f.executor.EXPECT().Execute(gomock.Any(), gomock.Any()).Return(TaskHandle("job-g2"), nil)
	f.executor.EXPECT().Poll(gomock.Any(), TaskHandle("job-g2")).Return(&Observation{State: api.TaskInProgress}, nil)
	Expect(f.runtime.Handle(context.Background(), clusterPulse(2))).To(Succeed())

	Expect(f.task(1).SupersededAt).NotTo(BeNil())
	Expect(f.task(2).SupersededAt).To(BeNil())
	Expect(f.reporter.last().ObservedGeneration).To(BeEquivalentTo(2))

	// a late pulse for generation 1 does nothing
	reports := f.reporter.count()
	Expect(f.runtime.Handle(context.Background(), clusterPulse(1))).To(Succeed())
	Expect(f.reporter.count()).To(Equal(reports))
}

func TestRuntime_SkipsWhenResourceMovedOn(t *testing.T) {
	RegisterTestingT(t)
	f := newRuntimeFixture(t, defaultPolicy())
	f.resources.setGeneration("c1", 3)

	Expect(f.runtime.Handle(context.Background(), clusterPulse(2))).To(Succeed())
	Expect(f.reporter.count()).To(Equal(0))

	delete(f.resources.resources, "c1")
	Expect(f.runtime.Handle(context.Background(), clusterPulse(3))).To(Succeed())
	Expect(f.reporter.count()).To(Equal(0))
}

func TestRuntime_ObserveTimeoutWaitsForCompletion(t *testing.T) {
	RegisterTestingT(t)
	policy := defaultPolicy()
	policy.ObserveTimeout = 2 * time.Second
	policy.ObserveInterval = 5 * time.Millisecond
	f := newRuntimeFixture(t, policy)

	f.executor.EXPECT().Execute(gomock.Any(), gomock.Any()).Return(TaskHandle("job-1"), nil)
	gomock.InOrder(
		f.executor.EXPECT().Poll(gomock.Any(), TaskHandle("job-1")).Return(&Observation{State: api.TaskInProgress}, nil),
		f.executor.EXPECT().Poll(gomock.Any(), TaskHandle("job-1")).Return(&Observation{State: api.TaskSucceeded}, nil),
	)

	Expect(f.runtime.Handle(context.Background(), clusterPulse(1))).To(Succeed())

	Expect(f.reporter.count()).To(Equal(2))
	first := f.reporter.reports[0]
	Expect(first.Conditions).To(HaveLen(1))
	Expect(first.Conditions[0].Type).To(Equal(api.ConditionTypeApplied))
	Expect(condition(f.reporter.last(), api.ConditionTypeAvailable).Status).To(Equal(api.AdapterConditionTrue))
}

func TestRuntime_RecheckAfterTTLDetectsFailure(t *testing.T) {
	RegisterTestingT(t)
	f := newRuntimeFixture(t, defaultPolicy())

	f.executor.EXPECT().Execute(gomock.Any(), gomock.Any()).Return(TaskHandle("job-1"), nil)
	gomock.InOrder(
		f.executor.EXPECT().Poll(gomock.Any(), TaskHandle("job-1")).Return(&Observation{State: api.TaskSucceeded}, nil),
		f.executor.EXPECT().Poll(gomock.Any(), TaskHandle("job-1")).
			Return(&Observation{State: api.TaskFailed, Reason: "DeadlineExceeded"}, nil),
	)
	Expect(f.runtime.Handle(context.Background(), clusterPulse(1))).To(Succeed())

	f.clock.Step(6 * time.Minute)
	Expect(f.runtime.Handle(context.Background(), clusterPulse(1))).To(Succeed())

	Expect(f.task(1).State).To(Equal(api.TaskFailed))
	Expect(condition(f.reporter.last(), api.ConditionTypeAvailable).Status).To(Equal(api.AdapterConditionFalse))
}

func TestRuntime_IgnoresOtherAdapters(t *testing.T) {
	RegisterTestingT(t)
	f := newRuntimeFixture(t, defaultPolicy())

	p := clusterPulse(1)
	p.Adapter = "validation"
	Expect(f.runtime.Handle(context.Background(), p)).To(Succeed())
	Expect(f.reporter.count()).To(Equal(0))
}
