package dao

import (
	"context"

	"gorm.io/gorm"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/api"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/db"
)

// ConditionReportDao appends to and reads the report trace log.
type ConditionReportDao interface {
	Create(ctx context.Context, report *api.ConditionReport) (*api.ConditionReport, error)
	// ListByResource returns the reports of a resource newest first.
	ListByResource(ctx context.Context, resourceID string, offset, limit int) (api.ConditionReportList, int64, error)
	DeleteByResource(ctx context.Context, resourceID string) error
}

var _ ConditionReportDao = &sqlConditionReportDao{}

type sqlConditionReportDao struct {
	sessionFactory *db.SessionFactory
}

func NewConditionReportDao(sessionFactory *db.SessionFactory) ConditionReportDao {
	return &sqlConditionReportDao{sessionFactory: sessionFactory}
}

func (d *sqlConditionReportDao) Create(ctx context.Context, report *api.ConditionReport) (*api.ConditionReport, error) {
	g2 := (*d.sessionFactory).New(ctx)
	if err := g2.Create(report).Error; err != nil {
		db.MarkForRollback(ctx, err)
		return nil, err
	}
	return report, nil
}

func (d *sqlConditionReportDao) ListByResource(
	ctx context.Context, resourceID string, offset, limit int,
) (api.ConditionReportList, int64, error) {
	g2 := (*d.sessionFactory).New(ctx)
	reports := api.ConditionReportList{}
	var total int64

	query := g2.Where("resource_id = ?", resourceID)
	if err := query.Session(&gorm.Session{}).Model(&api.ConditionReport{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("created_time DESC, id DESC")
	if limit > 0 {
		query = query.Offset(offset).Limit(limit)
	}
	if err := query.Find(&reports).Error; err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

func (d *sqlConditionReportDao) DeleteByResource(ctx context.Context, resourceID string) error {
	g2 := (*d.sessionFactory).New(ctx)
	if err := g2.Unscoped().Where("resource_id = ?", resourceID).Delete(&api.ConditionReport{}).Error; err != nil {
		db.MarkForRollback(ctx, err)
		return err
	}
	return nil
}
