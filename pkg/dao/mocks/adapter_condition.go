package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/api"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/dao"
)

var _ dao.AdapterConditionDao = &adapterConditionDaoMock{}

type slotKey struct {
	resourceID, adapter, conditionType string
}

type adapterConditionDaoMock struct {
	mu    sync.Mutex
	slots map[slotKey]*api.AdapterCondition
}

func NewAdapterConditionDao() *adapterConditionDaoMock {
	return &adapterConditionDaoMock{slots: map[slotKey]*api.AdapterCondition{}}
}

func (d *adapterConditionDaoMock) FindByResource(ctx context.Context, resourceID string) (api.AdapterConditionList, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	list := api.AdapterConditionList{}
	for k, c := range d.slots {
		if k.resourceID == resourceID {
			cp := *c
			list = append(list, &cp)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Adapter != list[j].Adapter {
			return list[i].Adapter < list[j].Adapter
		}
		return list[i].Type < list[j].Type
	})
	return list, nil
}

func (d *adapterConditionDaoMock) FindSlot(ctx context.Context, resourceID, adapter, conditionType string) (*api.AdapterCondition, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if c, ok := d.slots[slotKey{resourceID, adapter, conditionType}]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (d *adapterConditionDaoMock) Apply(ctx context.Context, c *api.AdapterCondition) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if c.LastUpdatedTime.IsZero() {
		c.LastUpdatedTime = time.Now()
	}
	key := slotKey{c.ResourceID, c.Adapter, c.Type}
	existing, ok := d.slots[key]
	if !ok {
		cp := *c
		cp.LastTransitionTime = c.LastUpdatedTime
		if cp.ID == "" {
			cp.ID = api.NewID()
		}
		d.slots[key] = &cp
		return true, nil
	}
	if c.ObservedGeneration < existing.ObservedGeneration {
		return false, nil
	}
	if existing.Status != c.Status {
		existing.LastTransitionTime = c.LastUpdatedTime
	}
	existing.Status = c.Status
	existing.ObservedGeneration = c.ObservedGeneration
	existing.Reason = c.Reason
	existing.Message = c.Message
	existing.LastUpdatedTime = c.LastUpdatedTime
	return true, nil
}

func (d *adapterConditionDaoMock) DeleteByResource(ctx context.Context, resourceID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for k := range d.slots {
		if k.resourceID == resourceID {
			delete(d.slots, k)
		}
	}
	return nil
}
