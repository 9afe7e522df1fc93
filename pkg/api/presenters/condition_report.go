package presenters

import (
	"time"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/api"
)

// AdapterStatusCreateRequest is the body an adapter posts to report its conditions
// for one observed generation.
type AdapterStatusCreateRequest struct {
	Adapter            string               `json:"adapter"`
	ObservedGeneration int32                `json:"observed_generation"`
	Conditions         []api.ConditionInput `json:"conditions"`
}

// ConditionResult is the outcome of one reported condition.
type ConditionResult struct {
	Type         string            `json:"type"`
	Outcome      api.ReportOutcome `json:"outcome"`
	RejectReason *string           `json:"reject_reason,omitempty"`
}

// AdapterStatusResult is the response to an AdapterStatusCreateRequest.
type AdapterStatusResult struct {
	Adapter            string            `json:"adapter"`
	ObservedGeneration int32             `json:"observed_generation"`
	Results            []ConditionResult `json:"results"`
	Status             *ResourceStatus   `json:"status,omitempty"`
}

// ConditionReport is the JSON representation of a trace log row.
type ConditionReport struct {
	ID                 string                     `json:"id"`
	Adapter            string                     `json:"adapter"`
	Type               string                     `json:"type"`
	Status             api.AdapterConditionStatus `json:"status"`
	ObservedGeneration int32                      `json:"observed_generation"`
	Reason             *string                    `json:"reason,omitempty"`
	Message            *string                    `json:"message,omitempty"`
	Outcome            api.ReportOutcome          `json:"outcome"`
	RejectReason       *string                    `json:"reject_reason,omitempty"`
	ReportedTime       time.Time                  `json:"reported_time"`
}

// ConditionReportList is a page of trace log rows, newest first.
type ConditionReportList struct {
	Kind  string            `json:"kind"`
	Page  int               `json:"page"`
	Size  int               `json:"size"`
	Total int64             `json:"total"`
	Items []ConditionReport `json:"items"`
}

func PresentConditionReport(r *api.ConditionReport) ConditionReport {
	return ConditionReport{
		ID:                 r.ID,
		Adapter:            r.Adapter,
		Type:               r.Type,
		Status:             r.Status,
		ObservedGeneration: r.ObservedGeneration,
		Reason:             r.Reason,
		Message:            r.Message,
		Outcome:            r.Outcome,
		RejectReason:       r.RejectReason,
		ReportedTime:       PresentTime(r.CreatedTime),
	}
}

// PresentReportResults maps the per-condition outcomes of one request.
func PresentReportResults(req *AdapterStatusCreateRequest, outcomes []api.ConditionReport) AdapterStatusResult {
	results := make([]ConditionResult, 0, len(outcomes))
	for _, o := range outcomes {
		results = append(results, ConditionResult{
			Type:         o.Type,
			Outcome:      o.Outcome,
			RejectReason: o.RejectReason,
		})
	}
	return AdapterStatusResult{
		Adapter:            req.Adapter,
		ObservedGeneration: req.ObservedGeneration,
		Results:            results,
	}
}

// ConvertAdapterReport maps the request body to the service input.
func ConvertAdapterReport(req *AdapterStatusCreateRequest) *api.AdapterReport {
	return &api.AdapterReport{
		Adapter:            req.Adapter,
		ObservedGeneration: req.ObservedGeneration,
		Conditions:         req.Conditions,
	}
}
