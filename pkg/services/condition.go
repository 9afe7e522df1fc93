package services

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/api"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/dao"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/errors"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/logger"
)

//go:generate mockgen-v0.6.0 -source=condition.go -package=services -destination=condition_mock.go

// AdapterRegistry resolves the adapters whose reports decide a kind's status.
type AdapterRegistry interface {
	RequiredAdapters(kind string) []string
}

// ConditionService merges adapter condition reports into resource status.
type ConditionService interface {
	// ReportConditions applies every condition of one adapter report and returns
	// one trace record per condition, in request order, plus the resulting status.
	ReportConditions(
		ctx context.Context, resourceID string, report *api.AdapterReport,
	) ([]api.ConditionReport, *api.ResourceStatus, *errors.ServiceError)

	// ReportCondition applies a single condition.
	ReportCondition(
		ctx context.Context, resourceID, adapter string, observedGeneration int32, condition api.ConditionInput,
	) (api.ReportOutcome, *errors.ServiceError)

	// GetResourceStatus derives the status from the current condition slots.
	GetResourceStatus(ctx context.Context, resourceID string) (*api.ResourceStatus, *errors.ServiceError)

	// RefreshStatus re-derives and stores the cached status of resource. The
	// caller must hold the resource row lock.
	RefreshStatus(ctx context.Context, resource *api.Resource) (*api.ResourceStatus, *errors.ServiceError)

	ListReports(ctx context.Context, resourceID string, args *ListArguments) (api.ConditionReportList, int64, *errors.ServiceError)
}

func NewConditionService(
	resourceDao dao.ResourceDao,
	conditionDao dao.AdapterConditionDao,
	reportDao dao.ConditionReportDao,
	registry AdapterRegistry,
	deriver *StatusDeriver,
	traceReports bool,
) ConditionService {
	return &sqlConditionService{
		resourceDao:  resourceDao,
		conditionDao: conditionDao,
		reportDao:    reportDao,
		registry:     registry,
		deriver:      deriver,
		traceReports: traceReports,
		now:          time.Now,
	}
}

var _ ConditionService = &sqlConditionService{}

type sqlConditionService struct {
	resourceDao  dao.ResourceDao
	conditionDao dao.AdapterConditionDao
	reportDao    dao.ConditionReportDao
	registry     AdapterRegistry
	deriver      *StatusDeriver
	traceReports bool
	now          func() time.Time
}

func (s *sqlConditionService) ReportConditions(
	ctx context.Context, resourceID string, report *api.AdapterReport,
) ([]api.ConditionReport, *api.ResourceStatus, *errors.ServiceError) {
	if svcErr := validateAdapterReport(report); svcErr != nil {
		return nil, nil, svcErr
	}

	resource, err := s.resourceDao.Get(ctx, resourceID)
	if err != nil {
		return nil, nil, handleGetError("Resource", "id", resourceID, err)
	}

	ctx = logger.WithResourceID(ctx, resource.ID)
	ctx = logger.WithResourceType(ctx, resource.Kind)
	ctx = logger.WithAdapter(ctx, report.Adapter)

	if report.ObservedGeneration < 1 || report.ObservedGeneration > resource.Generation {
		return nil, nil, errors.InvalidGeneration(
			"observed_generation %d is outside 1..%d", report.ObservedGeneration, resource.Generation)
	}

	now := s.now()
	results := make([]api.ConditionReport, 0, len(report.Conditions))
	accepted := false
	for _, input := range report.Conditions {
		trace, svcErr := s.apply(ctx, resource, report.Adapter, report.ObservedGeneration, input, now)
		if svcErr != nil {
			return nil, nil, svcErr
		}
		if trace.Outcome == api.ReportAccepted {
			accepted = true
		}
		results = append(results, *trace)
	}

	if !accepted {
		status, svcErr := s.GetResourceStatus(ctx, resourceID)
		return results, status, svcErr
	}

	locked, err := s.resourceDao.GetForUpdate(ctx, resourceID)
	if err != nil {
		return nil, nil, handleGetError("Resource", "id", resourceID, err)
	}
	status, svcErr := s.RefreshStatus(ctx, locked)
	if svcErr != nil {
		return nil, nil, svcErr
	}
	return results, status, nil
}

func (s *sqlConditionService) ReportCondition(
	ctx context.Context, resourceID, adapter string, observedGeneration int32, condition api.ConditionInput,
) (api.ReportOutcome, *errors.ServiceError) {
	results, _, svcErr := s.ReportConditions(ctx, resourceID, &api.AdapterReport{
		Adapter:            adapter,
		ObservedGeneration: observedGeneration,
		Conditions:         []api.ConditionInput{condition},
	})
	if svcErr != nil {
		return "", svcErr
	}
	return results[0].Outcome, nil
}

// apply runs one condition through the generation CAS and records its trace.
func (s *sqlConditionService) apply(
	ctx context.Context, resource *api.Resource, adapter string, generation int32, input api.ConditionInput, now time.Time,
) (*api.ConditionReport, *errors.ServiceError) {
	trace := &api.ConditionReport{
		ResourceType:       resource.Kind,
		ResourceID:         resource.ID,
		Adapter:            adapter,
		Type:               input.Type,
		Status:             input.Status,
		ObservedGeneration: generation,
		Reason:             input.Reason,
		Message:            input.Message,
	}
	trace.CreatedTime = now

	if input.Type == api.ConditionTypeAvailable && input.Status == api.AdapterConditionUnknown {
		// a discarded report must still lose to a newer slot
		slot, err := s.conditionDao.FindSlot(ctx, resource.ID, adapter, input.Type)
		switch {
		case err != nil && !stderrors.Is(err, gorm.ErrRecordNotFound):
			return nil, errors.DatabaseError("Unable to read condition slot: %s", err)
		case slot != nil && slot.ObservedGeneration > generation:
			trace.Outcome = api.ReportRejected
			trace.RejectReason = strPtr(api.RejectReasonStale)
		default:
			trace.Outcome = api.ReportDiscarded
		}
	} else {
		ok, err := s.conditionDao.Apply(ctx, &api.AdapterCondition{
			ResourceType:       resource.Kind,
			ResourceID:         resource.ID,
			Adapter:            adapter,
			Type:               input.Type,
			Status:             input.Status,
			ObservedGeneration: generation,
			Reason:             input.Reason,
			Message:            input.Message,
			LastUpdatedTime:    now,
		})
		if err != nil {
			return nil, errors.DatabaseError("Unable to apply condition %s: %s", input.Type, err)
		}
		if ok {
			trace.Outcome = api.ReportAccepted
		} else {
			trace.Outcome = api.ReportRejected
			trace.RejectReason = strPtr(api.RejectReasonStale)
		}
	}

	entry := logger.With(ctx,
		logger.FieldConditionType, input.Type,
		logger.FieldConditionStatus, string(input.Status),
		logger.FieldObservedGeneration, generation,
		logger.FieldOutcome, string(trace.Outcome))
	if trace.Outcome == api.ReportRejected {
		entry.Info("Rejected stale condition report")
	} else {
		entry.Debug("Processed condition report")
	}
	recordReport(adapter, input.Type, trace.Outcome)

	if s.traceReports {
		if _, err := s.reportDao.Create(ctx, trace); err != nil {
			return nil, errors.DatabaseError("Unable to record condition report: %s", err)
		}
	}
	return trace, nil
}

func (s *sqlConditionService) GetResourceStatus(ctx context.Context, resourceID string) (*api.ResourceStatus, *errors.ServiceError) {
	resource, err := s.resourceDao.Get(ctx, resourceID)
	if err != nil {
		return nil, handleGetError("Resource", "id", resourceID, err)
	}
	status, _, svcErr := s.derive(ctx, resource, cachedStatusTime(resource))
	return status, svcErr
}

func (s *sqlConditionService) RefreshStatus(ctx context.Context, resource *api.Resource) (*api.ResourceStatus, *errors.ServiceError) {
	now := s.now()
	status, derivation, svcErr := s.derive(ctx, resource, now)
	if svcErr != nil {
		return nil, svcErr
	}

	conditionsJSON, err := json.Marshal(derivation.Conditions)
	if err != nil {
		return nil, errors.GeneralError("Failed to marshal conditions: %s", err)
	}
	agreementJSON, err := json.Marshal(derivation.Agreement)
	if err != nil {
		return nil, errors.GeneralError("Failed to marshal availability agreement: %s", err)
	}

	if resource.StatusPhase != derivation.Phase || resource.StatusLastTransitionTime == nil {
		resource.StatusLastTransitionTime = &now
		if resource.StatusPhase != "" && resource.StatusPhase != derivation.Phase {
			logger.With(ctx,
				logger.FieldPhase, string(derivation.Phase),
				logger.FieldGeneration, resource.Generation).Info("Resource phase changed")
		}
	}
	resource.StatusPhase = derivation.Phase
	resource.StatusConditions = conditionsJSON
	resource.StatusAgreement = agreementJSON
	resource.StatusLastUpdatedTime = &now

	if err := s.resourceDao.UpdateStatus(ctx, resource); err != nil {
		return nil, handleUpdateError(resource.Kind, err)
	}
	recordDerivation(resource.Kind, derivation.Phase)
	return status, nil
}

func (s *sqlConditionService) derive(
	ctx context.Context, resource *api.Resource, now time.Time,
) (*api.ResourceStatus, *Derivation, *errors.ServiceError) {
	slots, err := s.conditionDao.FindByResource(ctx, resource.ID)
	if err != nil {
		return nil, nil, errors.DatabaseError("Unable to read condition slots: %s", err)
	}

	agreement, previous, err := cachedStatus(resource)
	if err != nil {
		return nil, nil, errors.GeneralError("Unable to decode cached status of %s: %s", resource.ID, err)
	}

	required := s.registry.RequiredAdapters(resource.Kind)
	derivation := s.deriver.Derive(StatusInput{
		Generation:         resource.Generation,
		Required:           required,
		Slots:              slots,
		Previous:           agreement,
		PreviousConditions: previous,
		Now:                now,
	})

	return &api.ResourceStatus{
		ResourceID:        resource.ID,
		Kind:              resource.Kind,
		Generation:        resource.Generation,
		Phase:             derivation.Phase,
		Available:         derivation.Available,
		Ready:             derivation.Ready,
		RequiredAdapters:  required,
		Agreement:         derivation.Agreement,
		Conditions:        derivation.Conditions,
		AdapterConditions: slots,
		LastUpdatedTime:   &now,
	}, derivation, nil
}

func (s *sqlConditionService) ListReports(
	ctx context.Context, resourceID string, args *ListArguments,
) (api.ConditionReportList, int64, *errors.ServiceError) {
	if _, err := s.resourceDao.Get(ctx, resourceID); err != nil {
		return nil, 0, handleGetError("Resource", "id", resourceID, err)
	}
	reports, total, err := s.reportDao.ListByResource(ctx, resourceID, args.Offset(), args.Limit())
	if err != nil {
		return nil, 0, errors.DatabaseError("Unable to list condition reports: %s", err)
	}
	return reports, total, nil
}

func validateAdapterReport(report *api.AdapterReport) *errors.ServiceError {
	var details []errors.ValidationDetail
	if report.Adapter == "" {
		details = append(details, errors.ValidationDetail{Field: "adapter", Error: "adapter is required"})
	}
	if len(report.Conditions) == 0 {
		details = append(details, errors.ValidationDetail{Field: "conditions", Error: "at least one condition is required"})
	}
	seen := map[string]bool{}
	for i, c := range report.Conditions {
		field := fmt.Sprintf("conditions[%d]", i)
		switch {
		case c.Type == "":
			details = append(details, errors.ValidationDetail{Field: field + ".type", Error: "type is required"})
		case seen[c.Type]:
			details = append(details, errors.ValidationDetail{Field: field + ".type", Error: "duplicate condition type " + c.Type})
		}
		seen[c.Type] = true
		if !c.Status.IsValid() {
			details = append(details, errors.ValidationDetail{
				Field: field + ".status",
				Error: fmt.Sprintf("status %q must be one of True, False, Unknown", c.Status),
			})
		}
	}
	if len(details) > 0 {
		return errors.ValidationWithDetails("Invalid adapter status report", details)
	}
	return nil
}

// cachedStatus decodes the agreement and conditions stored on the resource row.
func cachedStatus(resource *api.Resource) (api.AvailabilityAgreement, []api.ResourceCondition, error) {
	var agreement api.AvailabilityAgreement
	if len(resource.StatusAgreement) > 0 {
		if err := json.Unmarshal(resource.StatusAgreement, &agreement); err != nil {
			return agreement, nil, err
		}
	}
	var conditions []api.ResourceCondition
	if len(resource.StatusConditions) > 0 {
		if err := json.Unmarshal(resource.StatusConditions, &conditions); err != nil {
			return agreement, nil, err
		}
	}
	return agreement, conditions, nil
}

func cachedStatusTime(resource *api.Resource) time.Time {
	if resource.StatusLastUpdatedTime != nil {
		return *resource.StatusLastUpdatedTime
	}
	return resource.UpdatedTime
}
