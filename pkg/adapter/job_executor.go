package adapter

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/utils/ptr"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/api"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/config"
)

// Labels set on every action job
const (
	LabelManagedBy    = "app.kubernetes.io/managed-by"
	LabelResourceID   = "hyperfleet.io/resource-id"
	LabelResourceKind = "hyperfleet.io/resource-kind"
	LabelAdapter      = "hyperfleet.io/adapter"
	LabelGeneration   = "hyperfleet.io/generation"
	LabelAttempt      = "hyperfleet.io/attempt"
)

const managedBy = "hyperfleet-adapter"

var _ Executor = &JobExecutor{}

// JobExecutor runs each action as a batch/v1 Job. Job names are derived from
// (resource, adapter, generation, attempt), so creating an existing job
// returns the running one.
type JobExecutor struct {
	client kubernetes.Interface
	cfg    config.JobConfig
}

func NewJobExecutor(client kubernetes.Interface, cfg config.JobConfig) *JobExecutor {
	return &JobExecutor{client: client, cfg: cfg}
}

// NewKubernetesClient builds a clientset from kubeconfig, or from the in-cluster
// configuration when kubeconfig is empty.
func NewKubernetesClient(kubeconfig string) (kubernetes.Interface, error) {
	var restConfig *rest.Config
	var err error
	if kubeconfig == "" {
		restConfig, err = rest.InClusterConfig()
	} else {
		restConfig, err = clientcmd.BuildConfigFromFlags("", kubeconfig)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load kubernetes config: %w", err)
	}
	return kubernetes.NewForConfig(restConfig)
}

// JobName returns the DNS-1123 name of the job for req.
func JobName(req *ActionRequest) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s/%s/%s", req.ResourceKind, req.ResourceID, req.Adapter)))
	prefix := strings.ToLower(req.Adapter)
	if len(prefix) > 30 {
		prefix = prefix[:30]
	}
	prefix = strings.Trim(prefix, "-.")
	return fmt.Sprintf("%s-%s-g%d-a%d", prefix, hex.EncodeToString(sum[:])[:12], req.Generation, req.Attempt)
}

func (e *JobExecutor) Execute(ctx context.Context, req *ActionRequest) (TaskHandle, error) {
	spec, err := json.Marshal(req.Spec)
	if err != nil {
		return "", Permanent("InvalidSpec", err)
	}

	name := JobName(req)
	labels := map[string]string{
		LabelManagedBy:    managedBy,
		LabelResourceID:   req.ResourceID,
		LabelResourceKind: req.ResourceKind,
		LabelAdapter:      req.Adapter,
		LabelGeneration:   strconv.Itoa(int(req.Generation)),
		LabelAttempt:      strconv.Itoa(int(req.Attempt)),
	}

	job := &batchv1.Job{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: e.cfg.Namespace,
			Labels:    labels,
		},
		Spec: batchv1.JobSpec{
			BackoffLimit:            ptr.To(int32(e.cfg.BackoffLimit)),
			TTLSecondsAfterFinished: ptr.To(int32(e.cfg.TTLSecondsAfterFinished)),
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: labels},
				Spec: corev1.PodSpec{
					RestartPolicy: corev1.RestartPolicyNever,
					Containers: []corev1.Container{{
						Name:    "action",
						Image:   e.cfg.Image,
						Command: e.cfg.Command,
						Env: []corev1.EnvVar{
							{Name: "HYPERFLEET_RESOURCE_ID", Value: req.ResourceID},
							{Name: "HYPERFLEET_RESOURCE_KIND", Value: req.ResourceKind},
							{Name: "HYPERFLEET_ADAPTER", Value: req.Adapter},
							{Name: "HYPERFLEET_GENERATION", Value: strconv.Itoa(int(req.Generation))},
							{Name: "HYPERFLEET_RESOURCE_SPEC", Value: string(spec)},
						},
					}},
				},
			},
		},
	}

	_, err = e.client.BatchV1().Jobs(e.cfg.Namespace).Create(ctx, job, metav1.CreateOptions{})
	if err != nil && !apierrors.IsAlreadyExists(err) {
		return "", classifyKubeError("JobRejected", err)
	}
	return TaskHandle(name), nil
}

func (e *JobExecutor) Poll(ctx context.Context, handle TaskHandle) (*Observation, error) {
	job, err := e.client.BatchV1().Jobs(e.cfg.Namespace).Get(ctx, string(handle), metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		return &Observation{State: api.TaskNotStarted, Reason: "JobNotFound"}, nil
	}
	if err != nil {
		return nil, classifyKubeError("JobUnreadable", err)
	}

	for _, c := range job.Status.Conditions {
		if c.Status != corev1.ConditionTrue {
			continue
		}
		switch c.Type {
		case batchv1.JobComplete:
			return &Observation{State: api.TaskSucceeded, Reason: "JobComplete", Message: c.Message}, nil
		case batchv1.JobFailed:
			reason := c.Reason
			if reason == "" {
				reason = "JobFailed"
			}
			return &Observation{State: api.TaskFailed, Reason: reason, Message: c.Message}, nil
		}
	}
	return &Observation{State: api.TaskInProgress, Reason: "JobRunning"}, nil
}

func (e *JobExecutor) Delete(ctx context.Context, handle TaskHandle) error {
	err := e.client.BatchV1().Jobs(e.cfg.Namespace).Delete(ctx, string(handle), metav1.DeleteOptions{
		PropagationPolicy: ptr.To(metav1.DeletePropagationBackground),
	})
	if err != nil && !apierrors.IsNotFound(err) {
		return classifyKubeError("JobNotDeleted", err)
	}
	return nil
}
