package api

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// TaskState is the lifecycle of the external work dispatched for one generation.
type TaskState string

const (
	TaskNotStarted TaskState = "NotStarted"
	TaskInProgress TaskState = "InProgress"
	TaskSucceeded  TaskState = "Succeeded"
	TaskFailed     TaskState = "Failed"
)

// TaskKey identifies the active task of an adapter for a resource generation.
type TaskKey struct {
	ResourceID string
	Adapter    string
	Generation int32
}

func (k TaskKey) String() string {
	return fmt.Sprintf("%s/%s/%d", k.Adapter, k.ResourceID, k.Generation)
}

// AdapterTask is the adapter-local record of external work for (resource, generation).
type AdapterTask struct {
	Meta

	ResourceID   string `json:"resource_id" gorm:"size:255;not null;uniqueIndex:idx_adapter_tasks_key"`
	ResourceKind string `json:"resource_kind" gorm:"size:63;not null"`
	Adapter      string `json:"adapter" gorm:"size:255;not null;uniqueIndex:idx_adapter_tasks_key"`
	Generation   int32  `json:"generation" gorm:"not null;uniqueIndex:idx_adapter_tasks_key"`

	State       TaskState `json:"state" gorm:"size:20;not null"`
	ExternalRef string    `json:"external_ref" gorm:"size:255"`
	// Attempt counts dispatches for this key; recreation after a stuck task increments it.
	Attempt int32   `json:"attempt" gorm:"not null;default:0"`
	Reason  *string `json:"reason,omitempty"`
	Message *string `json:"message,omitempty"`

	StartedAt      *time.Time `json:"started_at,omitempty"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
	LastReportedAt *time.Time `json:"last_reported_at,omitempty"`
	SupersededAt   *time.Time `json:"superseded_at,omitempty"`
}

func (AdapterTask) TableName() string {
	return "adapter_tasks"
}

func (t *AdapterTask) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = NewID()
	}
	now := time.Now()
	t.CreatedTime = now
	t.UpdatedTime = now
	return nil
}

func (t *AdapterTask) BeforeUpdate(tx *gorm.DB) error {
	t.UpdatedTime = time.Now()
	return nil
}

// Key returns the task's store key.
func (t *AdapterTask) Key() TaskKey {
	return TaskKey{ResourceID: t.ResourceID, Adapter: t.Adapter, Generation: t.Generation}
}

// IsTerminal is true once the external work finished, successfully or not.
func (t *AdapterTask) IsTerminal() bool {
	return t.State == TaskSucceeded || t.State == TaskFailed
}
