package api

import "time"

// ResourceConditionStatus is the status of a derived resource condition (True/False only)
type ResourceConditionStatus string

const (
	ConditionTrue  ResourceConditionStatus = "True"
	ConditionFalse ResourceConditionStatus = "False"
)

// AdapterConditionStatus is the status an adapter reports (includes Unknown)
type AdapterConditionStatus string

const (
	AdapterConditionTrue    AdapterConditionStatus = "True"
	AdapterConditionFalse   AdapterConditionStatus = "False"
	AdapterConditionUnknown AdapterConditionStatus = "Unknown"
)

// IsValid reports whether s is one of True, False or Unknown.
func (s AdapterConditionStatus) IsValid() bool {
	switch s {
	case AdapterConditionTrue, AdapterConditionFalse, AdapterConditionUnknown:
		return true
	}
	return false
}

// IsDecisive is true for True and False.
func (s AdapterConditionStatus) IsDecisive() bool {
	return s == AdapterConditionTrue || s == AdapterConditionFalse
}

// Condition type constants
const (
	ConditionTypeAvailable = "Available"
	ConditionTypeApplied   = "Applied"
	ConditionTypeHealth    = "Health"
	ConditionTypeReady     = "Ready"
)

// ResourcePhase is the presentation level summary of (Available, Ready).
type ResourcePhase string

const (
	PhaseNotReady    ResourcePhase = "NotReady"
	PhaseProgressing ResourcePhase = "Progressing"
	PhaseReady       ResourcePhase = "Ready"
)

// ResourceCondition is a derived resource-level condition (Available, Ready).
// JSON tags match database JSONB structure
type ResourceCondition struct {
	ObservedGeneration int32                   `json:"observed_generation"`
	CreatedTime        time.Time               `json:"created_time"`
	LastUpdatedTime    time.Time               `json:"last_updated_time"`
	Type               string                  `json:"type"`
	Status             ResourceConditionStatus `json:"status"`
	Reason             *string                 `json:"reason,omitempty"`
	Message            *string                 `json:"message,omitempty"`
	LastTransitionTime time.Time               `json:"last_transition_time"`
}

// AvailabilityAgreement records the last generation at which every required adapter
// had a decisive Available report, and each adapter's latest status at that generation.
// Adapters that moved past the agreed generation keep the status they last reported for it.
type AvailabilityAgreement struct {
	Generation int32                             `json:"generation"`
	Adapters   map[string]AdapterConditionStatus `json:"adapters"`
}

// Copy returns a deep copy of the agreement.
func (a AvailabilityAgreement) Copy() AvailabilityAgreement {
	out := AvailabilityAgreement{Generation: a.Generation, Adapters: make(map[string]AdapterConditionStatus, len(a.Adapters))}
	for k, v := range a.Adapters {
		out.Adapters[k] = v
	}
	return out
}

// ResourceStatus is the point in time answer to GetResourceStatus.
type ResourceStatus struct {
	ResourceID        string
	Kind              string
	Generation        int32
	Phase             ResourcePhase
	Available         bool
	Ready             bool
	RequiredAdapters  []string
	Agreement         AvailabilityAgreement
	Conditions        []ResourceCondition
	AdapterConditions AdapterConditionList
	LastUpdatedTime   *time.Time
}
