package presenters

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/api"
)

// Resource is the JSON representation of a resource.
type Resource struct {
	ID          string                 `json:"id"`
	Kind        string                 `json:"kind"`
	Href        string                 `json:"href"`
	Name        string                 `json:"name"`
	Spec        map[string]interface{} `json:"spec"`
	Labels      map[string]string      `json:"labels,omitempty"`
	Generation  int32                  `json:"generation"`
	OwnerID     *string                `json:"owner_id,omitempty"`
	OwnerKind   *string                `json:"owner_kind,omitempty"`
	Status      ResourceStatus         `json:"status"`
	CreatedTime time.Time              `json:"created_time"`
	UpdatedTime time.Time              `json:"updated_time"`
}

// ResourceStatus is the JSON representation of a resource's derived status.
type ResourceStatus struct {
	ResourceID       string                  `json:"resource_id,omitempty"`
	Kind             string                  `json:"kind,omitempty"`
	Generation       int32                   `json:"generation"`
	Phase            api.ResourcePhase       `json:"phase"`
	AgreedGeneration int32                   `json:"agreed_generation"`
	RequiredAdapters []string                `json:"required_adapters,omitempty"`
	LastUpdatedTime  *time.Time              `json:"last_updated_time,omitempty"`
	Conditions       []api.ResourceCondition `json:"conditions"`
	Adapters         []AdapterConditionView  `json:"adapters,omitempty"`
}

// AdapterConditionView is the JSON representation of one condition slot.
type AdapterConditionView struct {
	Adapter            string                     `json:"adapter"`
	Type               string                     `json:"type"`
	Status             api.AdapterConditionStatus `json:"status"`
	ObservedGeneration int32                      `json:"observed_generation"`
	Reason             *string                    `json:"reason,omitempty"`
	Message            *string                    `json:"message,omitempty"`
	LastTransitionTime time.Time                  `json:"last_transition_time"`
	LastUpdatedTime    time.Time                  `json:"last_updated_time"`
}

// ResourceList is a page of resources.
type ResourceList struct {
	Kind  string     `json:"kind"`
	Page  int        `json:"page"`
	Size  int        `json:"size"`
	Total int64      `json:"total"`
	Items []Resource `json:"items"`
}

// ConvertResource builds the database model from a create request.
func ConvertResource(req *api.ResourceCreateRequest, kind string) (*api.Resource, error) {
	specJSON, err := json.Marshal(req.Spec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource spec: %w", err)
	}

	labels := make(map[string]string)
	if req.Labels != nil {
		labels = *req.Labels
	}
	labelsJSON, err := json.Marshal(labels)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource labels: %w", err)
	}

	return &api.Resource{
		Kind:       kind,
		Name:       req.Name,
		Spec:       specJSON,
		Labels:     labelsJSON,
		Generation: 1,
	}, nil
}

// PresentResource converts the database model to its JSON representation.
func PresentResource(resource *api.Resource, plural string) (Resource, error) {
	var spec map[string]interface{}
	if len(resource.Spec) > 0 {
		if err := json.Unmarshal(resource.Spec, &spec); err != nil {
			return Resource{}, fmt.Errorf("failed to unmarshal resource spec: %w", err)
		}
	}

	var labels map[string]string
	if len(resource.Labels) > 0 {
		if err := json.Unmarshal(resource.Labels, &labels); err != nil {
			return Resource{}, fmt.Errorf("failed to unmarshal resource labels: %w", err)
		}
	}

	var conditions []api.ResourceCondition
	if len(resource.StatusConditions) > 0 {
		if err := json.Unmarshal(resource.StatusConditions, &conditions); err != nil {
			return Resource{}, fmt.Errorf("failed to unmarshal resource status conditions: %w", err)
		}
	}

	var agreement api.AvailabilityAgreement
	if len(resource.StatusAgreement) > 0 {
		if err := json.Unmarshal(resource.StatusAgreement, &agreement); err != nil {
			return Resource{}, fmt.Errorf("failed to unmarshal resource status agreement: %w", err)
		}
	}

	href := resource.Href
	if href == "" {
		href = "/api/hyperfleet/v1/" + plural + "/" + resource.ID
	}

	if conditions == nil {
		conditions = []api.ResourceCondition{}
	}

	return Resource{
		ID:         resource.ID,
		Kind:       resource.Kind,
		Href:       href,
		Name:       resource.Name,
		Spec:       spec,
		Labels:     labels,
		Generation: resource.Generation,
		OwnerID:    resource.OwnerID,
		OwnerKind:  resource.OwnerKind,
		Status: ResourceStatus{
			Generation:       resource.Generation,
			Phase:            resource.StatusPhase,
			AgreedGeneration: agreement.Generation,
			LastUpdatedTime:  PresentTimePtr(resource.StatusLastUpdatedTime),
			Conditions:       conditions,
		},
		CreatedTime: PresentTime(resource.CreatedTime),
		UpdatedTime: PresentTime(resource.UpdatedTime),
	}, nil
}

// PresentResourceStatus converts a point in time status into its JSON representation.
func PresentResourceStatus(status *api.ResourceStatus) ResourceStatus {
	conditions := status.Conditions
	if conditions == nil {
		conditions = []api.ResourceCondition{}
	}
	adapters := make([]AdapterConditionView, 0, len(status.AdapterConditions))
	for _, c := range status.AdapterConditions {
		adapters = append(adapters, PresentAdapterCondition(c))
	}
	return ResourceStatus{
		ResourceID:       status.ResourceID,
		Kind:             status.Kind,
		Generation:       status.Generation,
		Phase:            status.Phase,
		AgreedGeneration: status.Agreement.Generation,
		RequiredAdapters: status.RequiredAdapters,
		LastUpdatedTime:  PresentTimePtr(status.LastUpdatedTime),
		Conditions:       conditions,
		Adapters:         adapters,
	}
}

func PresentAdapterCondition(c *api.AdapterCondition) AdapterConditionView {
	return AdapterConditionView{
		Adapter:            c.Adapter,
		Type:               c.Type,
		Status:             c.Status,
		ObservedGeneration: c.ObservedGeneration,
		Reason:             c.Reason,
		Message:            c.Message,
		LastTransitionTime: PresentTime(c.LastTransitionTime),
		LastUpdatedTime:    PresentTime(c.LastUpdatedTime),
	}
}

// Condition returns the slot of the given adapter and type, if present.
func (s ResourceStatus) Condition(adapter, conditionType string) (AdapterConditionView, bool) {
	for _, c := range s.Adapters {
		if c.Adapter == adapter && c.Type == conditionType {
			return c, true
		}
	}
	return AdapterConditionView{}, false
}
