package adapter

import (
	"context"
	"errors"
	"testing"

	. "github.com/onsi/gomega"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/kubernetes/fake"
	k8stesting "k8s.io/client-go/testing"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/api"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/config"
)

func testJobConfig() config.JobConfig {
	return config.JobConfig{
		Namespace:               "hyperfleet-system",
		Image:                   "quay.io/hyperfleet/dns-action:latest",
		Command:                 []string{"/bin/action"},
		TTLSecondsAfterFinished: 600,
		BackoffLimit:            1,
	}
}

func testRequest() *ActionRequest {
	return &ActionRequest{
		ResourceID:   "2C8mYLMoqJRCm9gCkbqRjuVYD7z",
		ResourceKind: "Cluster",
		Adapter:      "dns",
		Generation:   3,
		Attempt:      0,
		Spec:         map[string]interface{}{"region": "us-east-1"},
	}
}

func TestJobName_Deterministic(t *testing.T) {
	RegisterTestingT(t)

	req := testRequest()
	name := JobName(req)
	Expect(name).To(Equal(JobName(testRequest())))
	Expect(name).To(MatchRegexp(`^dns-[0-9a-f]{12}-g3-a0$`))
	Expect(len(name)).To(BeNumerically("<=", 63))

	req.Attempt = 1
	Expect(JobName(req)).NotTo(Equal(name))
	Expect(JobName(req)).To(HaveSuffix("-g3-a1"))
}

func TestJobExecutor_ExecuteCreatesJob(t *testing.T) {
	RegisterTestingT(t)

	client := fake.NewSimpleClientset()
	executor := NewJobExecutor(client, testJobConfig())

	handle, err := executor.Execute(context.Background(), testRequest())
	Expect(err).NotTo(HaveOccurred())

	job, err := client.BatchV1().Jobs("hyperfleet-system").Get(context.Background(), string(handle), metav1.GetOptions{})
	Expect(err).NotTo(HaveOccurred())
	Expect(job.Labels).To(HaveKeyWithValue(LabelGeneration, "3"))
	Expect(job.Labels).To(HaveKeyWithValue(LabelAdapter, "dns"))
	Expect(*job.Spec.BackoffLimit).To(BeEquivalentTo(1))
	Expect(*job.Spec.TTLSecondsAfterFinished).To(BeEquivalentTo(600))

	container := job.Spec.Template.Spec.Containers[0]
	Expect(container.Image).To(Equal("quay.io/hyperfleet/dns-action:latest"))
	Expect(container.Env).To(ContainElement(corev1.EnvVar{Name: "HYPERFLEET_RESOURCE_SPEC", Value: `{"region":"us-east-1"}`}))
}

func TestJobExecutor_ExecuteIsIdempotent(t *testing.T) {
	RegisterTestingT(t)

	client := fake.NewSimpleClientset()
	executor := NewJobExecutor(client, testJobConfig())

	first, err := executor.Execute(context.Background(), testRequest())
	Expect(err).NotTo(HaveOccurred())
	second, err := executor.Execute(context.Background(), testRequest())
	Expect(err).NotTo(HaveOccurred())
	Expect(second).To(Equal(first))

	jobs, err := client.BatchV1().Jobs("hyperfleet-system").List(context.Background(), metav1.ListOptions{})
	Expect(err).NotTo(HaveOccurred())
	Expect(jobs.Items).To(HaveLen(1))
}

func TestJobExecutor_ExecuteClassifiesErrors(t *testing.T) {
	RegisterTestingT(t)

	client := fake.NewSimpleClientset()
	client.PrependReactor("create", "jobs", func(k8stesting.Action) (bool, runtime.Object, error) {
		return true, nil, apierrors.NewForbidden(schema.GroupResource{Group: "batch", Resource: "jobs"}, "j", errors.New("quota exceeded"))
	})
	_, err := NewJobExecutor(client, testJobConfig()).Execute(context.Background(), testRequest())
	Expect(IsPermanent(err)).To(BeTrue())

	client = fake.NewSimpleClientset()
	client.PrependReactor("create", "jobs", func(k8stesting.Action) (bool, runtime.Object, error) {
		return true, nil, apierrors.NewServiceUnavailable("etcd leader changed")
	})
	_, err = NewJobExecutor(client, testJobConfig()).Execute(context.Background(), testRequest())
	Expect(IsTransient(err)).To(BeTrue())
}

func TestJobExecutor_Poll(t *testing.T) {
	RegisterTestingT(t)

	client := fake.NewSimpleClientset()
	executor := NewJobExecutor(client, testJobConfig())
	ctx := context.Background()

	obs, err := executor.Poll(ctx, "missing")
	Expect(err).NotTo(HaveOccurred())
	Expect(obs.State).To(Equal(api.TaskNotStarted))

	handle, err := executor.Execute(ctx, testRequest())
	Expect(err).NotTo(HaveOccurred())

	obs, err = executor.Poll(ctx, handle)
	Expect(err).NotTo(HaveOccurred())
	Expect(obs.State).To(Equal(api.TaskInProgress))

	setJobCondition(client, string(handle), batchv1.JobFailed, "DeadlineExceeded", "job ran too long")
	obs, err = executor.Poll(ctx, handle)
	Expect(err).NotTo(HaveOccurred())
	Expect(obs.State).To(Equal(api.TaskFailed))
	Expect(obs.Reason).To(Equal("DeadlineExceeded"))
	Expect(obs.Message).To(Equal("job ran too long"))

	req := testRequest()
	req.Attempt = 1
	handle, err = executor.Execute(ctx, req)
	Expect(err).NotTo(HaveOccurred())
	setJobCondition(client, string(handle), batchv1.JobComplete, "", "")
	obs, err = executor.Poll(ctx, handle)
	Expect(err).NotTo(HaveOccurred())
	Expect(obs.State).To(Equal(api.TaskSucceeded))
}

func TestJobExecutor_Delete(t *testing.T) {
	RegisterTestingT(t)

	client := fake.NewSimpleClientset()
	executor := NewJobExecutor(client, testJobConfig())
	ctx := context.Background()

	handle, err := executor.Execute(ctx, testRequest())
	Expect(err).NotTo(HaveOccurred())
	Expect(executor.Delete(ctx, handle)).To(Succeed())
	Expect(executor.Delete(ctx, handle)).To(Succeed())

	_, err = client.BatchV1().Jobs("hyperfleet-system").Get(ctx, string(handle), metav1.GetOptions{})
	Expect(apierrors.IsNotFound(err)).To(BeTrue())
}

func setJobCondition(client *fake.Clientset, name string, conditionType batchv1.JobConditionType, reason, message string) {
	jobs := client.BatchV1().Jobs("hyperfleet-system")
	job, err := jobs.Get(context.Background(), name, metav1.GetOptions{})
	Expect(err).NotTo(HaveOccurred())
	job.Status.Conditions = append(job.Status.Conditions, batchv1.JobCondition{
		Type:    conditionType,
		Status:  corev1.ConditionTrue,
		Reason:  reason,
		Message: message,
	})
	_, err = jobs.UpdateStatus(context.Background(), job, metav1.UpdateOptions{})
	Expect(err).NotTo(HaveOccurred())
}
