package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/api"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/api/presenters"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/errors"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/services"
)

// KindLookup resolves the definition of a registered kind.
type KindLookup interface {
	GetByKind(kind string) (*api.ResourceDefinition, bool)
}

// ResourceStatusHandler serves the kind-agnostic /resources routes used by
// the sentinel and the adapters.
type ResourceStatusHandler struct {
	resource  services.ResourceService
	condition services.ConditionService
	kinds     KindLookup
}

func NewResourceStatusHandler(
	resource services.ResourceService, condition services.ConditionService, kinds KindLookup,
) *ResourceStatusHandler {
	return &ResourceStatusHandler{
		resource:  resource,
		condition: condition,
		kinds:     kinds,
	}
}

// List returns every resource of the kind named by the kind query parameter,
// owned ones included.
func (h *ResourceStatusHandler) List(w http.ResponseWriter, r *http.Request) {
	cfg := &handlerConfig{
		Action: func() (interface{}, *errors.ServiceError) {
			listArgs := services.NewListArguments(r.URL.Query())
			if listArgs.Kind == "" {
				return nil, errors.Validation("kind is required")
			}
			if _, ok := h.kinds.GetByKind(listArgs.Kind); !ok {
				return nil, errors.KindNotFound(listArgs.Kind)
			}
			resources, total, svcErr := h.resource.ListAllOfKind(r.Context(), listArgs.Kind, listArgs)
			if svcErr != nil {
				return nil, svcErr
			}
			return presentResourceList(listArgs.Kind, listArgs, resources, total, h.plural)
		},
	}

	handleList(w, r, cfg)
}

// Get returns one resource of any kind.
func (h *ResourceStatusHandler) Get(w http.ResponseWriter, r *http.Request) {
	cfg := &handlerConfig{
		Action: func() (interface{}, *errors.ServiceError) {
			resource, svcErr := h.resource.Get(r.Context(), mux.Vars(r)["id"])
			if svcErr != nil {
				return nil, svcErr
			}
			presented, err := presenters.PresentResource(resource, h.plural(resource.Kind))
			if err != nil {
				return nil, errors.GeneralError("Unable to present %s: %s", resource.Kind, err)
			}
			return presented, nil
		},
	}

	handleGet(w, r, cfg)
}

// GetStatus returns the derived status together with every condition slot.
func (h *ResourceStatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	cfg := &handlerConfig{
		Action: func() (interface{}, *errors.ServiceError) {
			status, svcErr := h.condition.GetResourceStatus(r.Context(), mux.Vars(r)["id"])
			if svcErr != nil {
				return nil, svcErr
			}
			return presenters.PresentResourceStatus(status), nil
		},
	}

	handleGet(w, r, cfg)
}

// CreateStatus applies one adapter report. Stale conditions are answered with
// a Rejected outcome inside a 201, not with an error status.
func (h *ResourceStatusHandler) CreateStatus(w http.ResponseWriter, r *http.Request) {
	var req presenters.AdapterStatusCreateRequest
	cfg := &handlerConfig{
		&req,
		[]validate{
			validateNotEmpty(&req, "Adapter", "adapter"),
		},
		func() (interface{}, *errors.ServiceError) {
			outcomes, status, svcErr := h.condition.ReportConditions(
				r.Context(), mux.Vars(r)["id"], presenters.ConvertAdapterReport(&req),
			)
			if svcErr != nil {
				return nil, svcErr
			}
			result := presenters.PresentReportResults(&req, outcomes)
			if status != nil {
				presented := presenters.PresentResourceStatus(status)
				result.Status = &presented
			}
			return result, nil
		},
		handleError,
	}

	handle(w, r, cfg, http.StatusCreated)
}

// ListReports returns the trace log of a resource, newest first.
func (h *ResourceStatusHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	cfg := &handlerConfig{
		Action: func() (interface{}, *errors.ServiceError) {
			listArgs := services.NewListArguments(r.URL.Query())
			reports, total, svcErr := h.condition.ListReports(r.Context(), mux.Vars(r)["id"], listArgs)
			if svcErr != nil {
				return nil, svcErr
			}
			list := presenters.ConditionReportList{
				Kind:  "ConditionReportList",
				Page:  listArgs.Page,
				Size:  len(reports),
				Total: total,
				Items: make([]presenters.ConditionReport, 0, len(reports)),
			}
			for _, report := range reports {
				list.Items = append(list.Items, presenters.PresentConditionReport(report))
			}
			return list, nil
		},
	}

	handleList(w, r, cfg)
}

func (h *ResourceStatusHandler) plural(kind string) string {
	if def, ok := h.kinds.GetByKind(kind); ok {
		return def.Plural
	}
	return "resources"
}
