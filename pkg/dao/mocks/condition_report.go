package mocks

import (
	"context"
	"sync"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/api"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/dao"
)

var _ dao.ConditionReportDao = &conditionReportDaoMock{}

type conditionReportDaoMock struct {
	mu      sync.Mutex
	reports api.ConditionReportList
}

func NewConditionReportDao() *conditionReportDaoMock {
	return &conditionReportDaoMock{}
}

func (d *conditionReportDaoMock) Create(ctx context.Context, report *api.ConditionReport) (*api.ConditionReport, error) {
	if err := report.BeforeCreate(nil); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	cp := *report
	d.reports = append(d.reports, &cp)
	return report, nil
}

func (d *conditionReportDaoMock) ListByResource(
	ctx context.Context, resourceID string, offset, limit int,
) (api.ConditionReportList, int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	matched := api.ConditionReportList{}
	// newest first
	for i := len(d.reports) - 1; i >= 0; i-- {
		if d.reports[i].ResourceID == resourceID {
			cp := *d.reports[i]
			matched = append(matched, &cp)
		}
	}
	total := int64(len(matched))
	if offset >= len(matched) {
		return api.ConditionReportList{}, total, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, total, nil
}

func (d *conditionReportDaoMock) DeleteByResource(ctx context.Context, resourceID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	kept := api.ConditionReportList{}
	for _, r := range d.reports {
		if r.ResourceID != resourceID {
			kept = append(kept, r)
		}
	}
	d.reports = kept
	return nil
}
