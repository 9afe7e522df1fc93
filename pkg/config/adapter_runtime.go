package config

import (
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	TaskStoreMemory   = "memory"
	TaskStorePostgres = "postgres"
)

// AdapterRuntimeConfig controls one adapter process
type AdapterRuntimeConfig struct {
	Name           string        `mapstructure:"name" json:"name" validate:"required,dns_rfc1035_label"`
	APIURL         string        `mapstructure:"api_url" json:"api_url" validate:"required,url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" json:"request_timeout" validate:"gt=0"`
	// RecheckTTL is how long a finished task is re-reported without re-running
	RecheckTTL       time.Duration `mapstructure:"recheck_ttl" json:"recheck_ttl" validate:"gt=0"`
	StuckTimeout     time.Duration `mapstructure:"stuck_timeout" json:"stuck_timeout" validate:"gt=0"`
	RetryFailedAfter time.Duration `mapstructure:"retry_failed_after" json:"retry_failed_after" validate:"gte=0"`
	// ObserveTimeout bounds the wait for a dispatched action to settle, zero reports InProgress immediately
	ObserveTimeout time.Duration `mapstructure:"observe_timeout" json:"observe_timeout" validate:"gte=0"`
	Concurrency    int           `mapstructure:"concurrency" json:"concurrency" validate:"min=1"`
	TaskStore      string        `mapstructure:"task_store" json:"task_store" validate:"oneof=memory postgres"`
	Job            JobConfig     `mapstructure:"job" json:"job"`
}

// JobConfig describes the Kubernetes Job created for each task
type JobConfig struct {
	Kubeconfig              string   `mapstructure:"kubeconfig" json:"kubeconfig"`
	Namespace               string   `mapstructure:"namespace" json:"namespace" validate:"required"`
	Image                   string   `mapstructure:"image" json:"image" validate:"required"`
	Command                 []string `mapstructure:"command" json:"command"`
	TTLSecondsAfterFinished int      `mapstructure:"ttl_seconds_after_finished" json:"ttl_seconds_after_finished" validate:"min=0"`
	BackoffLimit            int      `mapstructure:"backoff_limit" json:"backoff_limit" validate:"min=0"`
}

func NewAdapterRuntimeConfig() *AdapterRuntimeConfig {
	return &AdapterRuntimeConfig{
		APIURL:           "http://localhost:8000",
		RequestTimeout:   10 * time.Second,
		RecheckTTL:       5 * time.Minute,
		StuckTimeout:     15 * time.Minute,
		RetryFailedAfter: time.Minute,
		ObserveTimeout:   0,
		Concurrency:      4,
		TaskStore:        TaskStorePostgres,
		Job: JobConfig{
			Namespace:               "hyperfleet-system",
			Image:                   "registry.access.redhat.com/ubi9/ubi-minimal:latest",
			Command:                 []string{},
			TTLSecondsAfterFinished: 3600,
			BackoffLimit:            0,
		},
	}
}

func (c *AdapterRuntimeConfig) defineAndBindFlags(v *viper.Viper, fs *pflag.FlagSet) {
	defineAndBindStringFlag(v, fs, "adapter.name", "adapter-name", "", c.Name, "Adapter name (REQUIRED)")
	defineAndBindStringFlag(v, fs, "adapter.api_url", "api-url", "", c.APIURL, "HyperFleet API base URL")
	defineAndBindDurationFlag(v, fs, "adapter.request_timeout", "api-request-timeout", "", c.RequestTimeout, "Timeout of a single API request")
	defineAndBindDurationFlag(v, fs, "adapter.recheck_ttl", "recheck-ttl", "", c.RecheckTTL, "Re-report finished tasks without re-running within this window")
	defineAndBindDurationFlag(v, fs, "adapter.stuck_timeout", "stuck-timeout", "", c.StuckTimeout, "Restart tasks in progress for longer than this")
	defineAndBindDurationFlag(v, fs, "adapter.retry_failed_after", "retry-failed-after", "", c.RetryFailedAfter, "Retry failed tasks after this delay")
	defineAndBindDurationFlag(v, fs, "adapter.observe_timeout", "observe-timeout", "", c.ObserveTimeout, "Wait this long for a new action to settle before reporting")
	defineAndBindIntFlag(v, fs, "adapter.concurrency", "concurrency", "", c.Concurrency, "Pulses handled concurrently")
	defineAndBindStringFlag(v, fs, "adapter.task_store", "task-store", "", c.TaskStore, "Task store: memory, postgres")

	defineAndBindStringFlag(v, fs, "adapter.job.kubeconfig", "kubeconfig", "", c.Job.Kubeconfig, "Path to kubeconfig, in-cluster config when empty")
	defineAndBindStringFlag(v, fs, "adapter.job.namespace", "job-namespace", "", c.Job.Namespace, "Namespace of action jobs")
	defineAndBindStringFlag(v, fs, "adapter.job.image", "job-image", "", c.Job.Image, "Container image of action jobs")
	defineAndBindStringSliceFlag(v, fs, "adapter.job.command", "job-command", c.Job.Command, "Container command of action jobs")
	defineAndBindIntFlag(v, fs, "adapter.job.ttl_seconds_after_finished", "job-ttl-seconds-after-finished", "", c.Job.TTLSecondsAfterFinished,
		"Seconds a finished job is kept")
	defineAndBindIntFlag(v, fs, "adapter.job.backoff_limit", "job-backoff-limit", "", c.Job.BackoffLimit, "Pod retries inside one job")
}
