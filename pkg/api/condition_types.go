package api

import (
	"time"

	"gorm.io/gorm"
)

// AdapterCondition is the authoritative slot for one (resource, adapter, condition type).
// It holds the most recently accepted decisive report for that key.
type AdapterCondition struct {
	Meta

	ResourceType string `json:"resource_type" gorm:"size:63;not null;index:idx_adapter_conditions_resource"`
	ResourceID   string `json:"resource_id" gorm:"size:255;not null;index:idx_adapter_conditions_resource;uniqueIndex:idx_adapter_conditions_slot"`
	Adapter      string `json:"adapter" gorm:"size:255;not null;uniqueIndex:idx_adapter_conditions_slot"`
	Type         string `json:"type" gorm:"size:63;not null;uniqueIndex:idx_adapter_conditions_slot"`

	Status             AdapterConditionStatus `json:"status" gorm:"size:10;not null"`
	ObservedGeneration int32                  `json:"observed_generation" gorm:"not null"`
	Reason             *string                `json:"reason,omitempty"`
	Message            *string                `json:"message,omitempty"`

	LastTransitionTime time.Time `json:"last_transition_time" gorm:"not null"`
	LastUpdatedTime    time.Time `json:"last_updated_time" gorm:"not null"`
}

func (AdapterCondition) TableName() string {
	return "adapter_conditions"
}

func (c *AdapterCondition) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = NewID()
	}
	now := time.Now()
	c.CreatedTime = now
	c.UpdatedTime = now
	return nil
}

type (
	AdapterConditionList []*AdapterCondition
	// AdapterConditionIndex is keyed by adapter name
	AdapterConditionIndex map[string]*AdapterCondition
)

// ByType indexes the slots of one condition type by adapter.
func (l AdapterConditionList) ByType(conditionType string) AdapterConditionIndex {
	index := AdapterConditionIndex{}
	for _, c := range l {
		if c.Type == conditionType {
			index[c.Adapter] = c
		}
	}
	return index
}

// ReportOutcome is the result of processing one condition report.
type ReportOutcome string

const (
	// ReportAccepted means the slot was overwritten.
	ReportAccepted ReportOutcome = "Accepted"
	// ReportDiscarded means the report was valid but Available=Unknown, so the slot was left as is.
	ReportDiscarded ReportOutcome = "Discarded"
	// ReportRejected means the report was older than the slot.
	ReportRejected ReportOutcome = "Rejected"
)

const RejectReasonStale = "Stale"

// ConditionInput is one condition carried by an adapter report.
type ConditionInput struct {
	Type    string                 `json:"type"`
	Status  AdapterConditionStatus `json:"status"`
	Reason  *string                `json:"reason,omitempty"`
	Message *string                `json:"message,omitempty"`
}

// AdapterReport is one adapter's batch of conditions for one observed generation.
type AdapterReport struct {
	Adapter            string
	ObservedGeneration int32
	Conditions         []ConditionInput
}

// ConditionReport is an append-only trace row; every report lands here whatever its outcome.
type ConditionReport struct {
	Meta

	ResourceType       string                 `json:"resource_type" gorm:"size:63;not null"`
	ResourceID         string                 `json:"resource_id" gorm:"size:255;not null;index"`
	Adapter            string                 `json:"adapter" gorm:"size:255;not null"`
	Type               string                 `json:"type" gorm:"size:63;not null"`
	Status             AdapterConditionStatus `json:"status" gorm:"size:10;not null"`
	ObservedGeneration int32                  `json:"observed_generation" gorm:"not null"`
	Reason             *string                `json:"reason,omitempty"`
	Message            *string                `json:"message,omitempty"`
	Outcome            ReportOutcome          `json:"outcome" gorm:"size:20;not null"`
	RejectReason       *string                `json:"reject_reason,omitempty" gorm:"size:63"`
}

func (ConditionReport) TableName() string {
	return "condition_reports"
}

func (r *ConditionReport) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = NewID()
	}
	if r.CreatedTime.IsZero() {
		r.CreatedTime = time.Now()
	}
	r.UpdatedTime = r.CreatedTime
	return nil
}

type ConditionReportList []*ConditionReport
