package services

import (
	"context"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/api"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/dao"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/errors"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/logger"
)

//go:generate mockgen-v0.6.0 -source=resource.go -package=services -destination=resource_mock.go

// ResourceService defines the service interface for generic CRD-based resources.
type ResourceService interface {
	// Get retrieves a resource of any kind by ID.
	Get(ctx context.Context, id string) (*api.Resource, *errors.ServiceError)

	// GetByKind retrieves a resource by kind and ID.
	GetByKind(ctx context.Context, kind, id string) (*api.Resource, *errors.ServiceError)

	// GetByOwner retrieves an owned resource by owner ID and resource ID.
	GetByOwner(ctx context.Context, kind, ownerID, id string) (*api.Resource, *errors.ServiceError)

	// Create creates a new resource at generation 1 with its initial status.
	Create(ctx context.Context, resource *api.Resource) (*api.Resource, *errors.ServiceError)

	// Replace updates spec and labels. A changed spec bumps the generation and
	// re-derives the status, which drops Ready until adapters catch up.
	Replace(ctx context.Context, resource *api.Resource) (*api.Resource, *errors.ServiceError)

	// Delete soft-deletes a resource and drops its condition slots and trace log.
	Delete(ctx context.Context, kind, id string) *errors.ServiceError

	// ListByKind returns root resources of a given kind.
	ListByKind(ctx context.Context, kind string, args *ListArguments) (api.ResourceList, int64, *errors.ServiceError)

	// ListAllOfKind returns root and owned resources of a given kind.
	ListAllOfKind(ctx context.Context, kind string, args *ListArguments) (api.ResourceList, int64, *errors.ServiceError)

	// ListByOwner returns all resources of a given kind under an owner.
	ListByOwner(ctx context.Context, kind, ownerID string, args *ListArguments) (api.ResourceList, int64, *errors.ServiceError)
}

// NewResourceService creates a new ResourceService instance.
func NewResourceService(
	resourceDao dao.ResourceDao,
	conditionDao dao.AdapterConditionDao,
	reportDao dao.ConditionReportDao,
	conditionService ConditionService,
) ResourceService {
	return &sqlResourceService{
		resourceDao:      resourceDao,
		conditionDao:     conditionDao,
		reportDao:        reportDao,
		conditionService: conditionService,
	}
}

var _ ResourceService = &sqlResourceService{}

type sqlResourceService struct {
	resourceDao      dao.ResourceDao
	conditionDao     dao.AdapterConditionDao
	reportDao        dao.ConditionReportDao
	conditionService ConditionService
}

func (s *sqlResourceService) Get(ctx context.Context, id string) (*api.Resource, *errors.ServiceError) {
	if !api.ValidID(id) {
		return nil, errors.NotFound("Resource with id='%s' not found", id)
	}
	resource, err := s.resourceDao.Get(ctx, id)
	if err != nil {
		return nil, handleGetError("Resource", "id", id, err)
	}
	return resource, nil
}

func (s *sqlResourceService) GetByKind(ctx context.Context, kind, id string) (*api.Resource, *errors.ServiceError) {
	if !api.ValidID(id) {
		return nil, errors.NotFound("%s with id='%s' not found", kind, id)
	}
	resource, err := s.resourceDao.GetByKindAndID(ctx, kind, id)
	if err != nil {
		return nil, handleGetError(kind, "id", id, err)
	}
	return resource, nil
}

func (s *sqlResourceService) GetByOwner(ctx context.Context, kind, ownerID, id string) (*api.Resource, *errors.ServiceError) {
	if !api.ValidID(id) {
		return nil, errors.NotFound("%s with id='%s' not found", kind, id)
	}
	resource, err := s.resourceDao.GetByOwner(ctx, kind, ownerID, id)
	if err != nil {
		return nil, handleGetError(kind, "id", id, err)
	}
	return resource, nil
}

func (s *sqlResourceService) Create(ctx context.Context, resource *api.Resource) (*api.Resource, *errors.ServiceError) {
	resource.Generation = 1

	kind := resource.Kind
	resource, err := s.resourceDao.Create(ctx, resource)
	if err != nil {
		return nil, handleCreateError(kind, err)
	}

	ctx = logger.WithResourceID(ctx, resource.ID)
	ctx = logger.WithResourceType(ctx, resource.Kind)

	if _, svcErr := s.conditionService.RefreshStatus(ctx, resource); svcErr != nil {
		return nil, svcErr
	}
	logger.With(ctx, logger.FieldGeneration, resource.Generation).Info("Resource created")
	return resource, nil
}

func (s *sqlResourceService) Replace(ctx context.Context, resource *api.Resource) (*api.Resource, *errors.ServiceError) {
	kind := resource.Kind
	previousGeneration := resource.Generation
	updated, err := s.resourceDao.Replace(ctx, resource)
	if err != nil {
		return nil, handleUpdateError(kind, err)
	}

	if updated.Generation != previousGeneration {
		ctx = logger.WithResourceID(ctx, updated.ID)
		ctx = logger.WithResourceType(ctx, updated.Kind)
		logger.With(ctx, logger.FieldGeneration, updated.Generation).Info("Resource spec changed")
		if _, svcErr := s.conditionService.RefreshStatus(ctx, updated); svcErr != nil {
			return nil, svcErr
		}
	}
	return updated, nil
}

func (s *sqlResourceService) Delete(ctx context.Context, kind, id string) *errors.ServiceError {
	if _, err := s.resourceDao.GetByKindAndID(ctx, kind, id); err != nil {
		return handleGetError(kind, "id", id, err)
	}
	if err := s.resourceDao.Delete(ctx, id); err != nil {
		return handleDeleteError(kind, err)
	}
	if err := s.conditionDao.DeleteByResource(ctx, id); err != nil {
		return handleDeleteError("AdapterCondition", err)
	}
	if err := s.reportDao.DeleteByResource(ctx, id); err != nil {
		return handleDeleteError("ConditionReport", err)
	}

	ctx = logger.WithResourceID(ctx, id)
	ctx = logger.WithResourceType(ctx, kind)
	logger.Info(ctx, "Resource has been deleted")
	return nil
}

func (s *sqlResourceService) ListByKind(
	ctx context.Context, kind string, args *ListArguments,
) (api.ResourceList, int64, *errors.ServiceError) {
	resources, total, err := s.resourceDao.ListByKind(ctx, kind, args.Offset(), args.Limit())
	if err != nil {
		return nil, 0, errors.DatabaseError("Unable to list %s resources: %s", kind, err)
	}
	return resources, total, nil
}

func (s *sqlResourceService) ListAllOfKind(
	ctx context.Context, kind string, args *ListArguments,
) (api.ResourceList, int64, *errors.ServiceError) {
	resources, total, err := s.resourceDao.ListAllOfKind(ctx, kind, args.Offset(), args.Limit())
	if err != nil {
		return nil, 0, errors.DatabaseError("Unable to list %s resources: %s", kind, err)
	}
	return resources, total, nil
}

func (s *sqlResourceService) ListByOwner(
	ctx context.Context, kind, ownerID string, args *ListArguments,
) (api.ResourceList, int64, *errors.ServiceError) {
	resources, total, err := s.resourceDao.ListByOwner(ctx, kind, ownerID, args.Offset(), args.Limit())
	if err != nil {
		return nil, 0, errors.DatabaseError("Unable to list %s resources for owner %s: %s", kind, ownerID, err)
	}
	return resources, total, nil
}
