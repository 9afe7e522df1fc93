package mocks

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"gorm.io/gorm"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/api"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/dao"
)

var _ dao.ResourceDao = &resourceDaoMock{}

type resourceDaoMock struct {
	mu        sync.Mutex
	resources map[string]*api.Resource
}

func NewResourceDao() *resourceDaoMock {
	return &resourceDaoMock{resources: map[string]*api.Resource{}}
}

func (d *resourceDaoMock) Get(ctx context.Context, id string) (*api.Resource, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if r, ok := d.resources[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (d *resourceDaoMock) GetForUpdate(ctx context.Context, id string) (*api.Resource, error) {
	return d.Get(ctx, id)
}

func (d *resourceDaoMock) GetByKindAndID(ctx context.Context, kind, id string) (*api.Resource, error) {
	r, err := d.Get(ctx, id)
	if err != nil || r.Kind != kind {
		return nil, gorm.ErrRecordNotFound
	}
	return r, nil
}

func (d *resourceDaoMock) GetByOwner(ctx context.Context, kind, ownerID, id string) (*api.Resource, error) {
	r, err := d.GetByKindAndID(ctx, kind, id)
	if err != nil || r.OwnerID == nil || *r.OwnerID != ownerID {
		return nil, gorm.ErrRecordNotFound
	}
	return r, nil
}

func (d *resourceDaoMock) Create(ctx context.Context, resource *api.Resource) (*api.Resource, error) {
	if err := resource.BeforeCreate(nil); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, r := range d.resources {
		if r.Kind == resource.Kind && r.Name == resource.Name && sameOwner(r.OwnerID, resource.OwnerID) {
			return nil, gorm.ErrDuplicatedKey
		}
	}
	cp := *resource
	d.resources[resource.ID] = &cp
	return resource, nil
}

func (d *resourceDaoMock) Replace(ctx context.Context, resource *api.Resource) (*api.Resource, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	existing, ok := d.resources[resource.ID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if !bytes.Equal(existing.Spec, resource.Spec) {
		existing.Generation++
	}
	existing.Spec = resource.Spec
	existing.Labels = resource.Labels
	cp := *existing
	return &cp, nil
}

func (d *resourceDaoMock) UpdateStatus(ctx context.Context, resource *api.Resource) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	existing, ok := d.resources[resource.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	existing.StatusPhase = resource.StatusPhase
	existing.StatusConditions = resource.StatusConditions
	existing.StatusAgreement = resource.StatusAgreement
	existing.StatusLastUpdatedTime = resource.StatusLastUpdatedTime
	existing.StatusLastTransitionTime = resource.StatusLastTransitionTime
	return nil
}

func (d *resourceDaoMock) Delete(ctx context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.resources, id)
	return nil
}

func (d *resourceDaoMock) ListByKind(ctx context.Context, kind string, offset, limit int) (api.ResourceList, int64, error) {
	return d.list(func(r *api.Resource) bool { return r.Kind == kind && !r.IsOwned() }, offset, limit)
}

func (d *resourceDaoMock) ListAllOfKind(ctx context.Context, kind string, offset, limit int) (api.ResourceList, int64, error) {
	return d.list(func(r *api.Resource) bool { return r.Kind == kind }, offset, limit)
}

func (d *resourceDaoMock) ListByOwner(ctx context.Context, kind, ownerID string, offset, limit int) (api.ResourceList, int64, error) {
	return d.list(func(r *api.Resource) bool {
		return r.Kind == kind && r.OwnerID != nil && *r.OwnerID == ownerID
	}, offset, limit)
}

func (d *resourceDaoMock) list(match func(*api.Resource) bool, offset, limit int) (api.ResourceList, int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	all := api.ResourceList{}
	for _, r := range d.resources {
		if match(r) {
			cp := *r
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := int64(len(all))
	if offset >= len(all) {
		return api.ResourceList{}, total, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, total, nil
}

func sameOwner(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
