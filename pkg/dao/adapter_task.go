package dao

import (
	"context"
	"time"

	"gorm.io/gorm/clause"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/api"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/db"
)

// AdapterTaskDao persists the adapter's own record of work per
// (resource, adapter, generation).
type AdapterTaskDao interface {
	Get(ctx context.Context, key api.TaskKey) (*api.AdapterTask, error)
	// Latest returns the task with the highest generation for resource and adapter.
	Latest(ctx context.Context, resourceID, adapter string) (*api.AdapterTask, error)
	// CreateIfAbsent inserts task unless its key exists. It reports whether the
	// row was inserted and returns the stored task either way.
	CreateIfAbsent(ctx context.Context, task *api.AdapterTask) (*api.AdapterTask, bool, error)
	Replace(ctx context.Context, task *api.AdapterTask) (*api.AdapterTask, error)
	// SupersedeOlder stamps unfinished tasks of older generations as superseded.
	SupersedeOlder(ctx context.Context, resourceID, adapter string, generation int32, at time.Time) (int64, error)
}

var _ AdapterTaskDao = &sqlAdapterTaskDao{}

type sqlAdapterTaskDao struct {
	sessionFactory *db.SessionFactory
}

func NewAdapterTaskDao(sessionFactory *db.SessionFactory) AdapterTaskDao {
	return &sqlAdapterTaskDao{sessionFactory: sessionFactory}
}

func (d *sqlAdapterTaskDao) Get(ctx context.Context, key api.TaskKey) (*api.AdapterTask, error) {
	g2 := (*d.sessionFactory).New(ctx)
	var task api.AdapterTask
	query := g2.Where("resource_id = ? AND adapter = ? AND generation = ?", key.ResourceID, key.Adapter, key.Generation)
	if err := query.Take(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (d *sqlAdapterTaskDao) Latest(ctx context.Context, resourceID, adapter string) (*api.AdapterTask, error) {
	g2 := (*d.sessionFactory).New(ctx)
	var task api.AdapterTask
	query := g2.Where("resource_id = ? AND adapter = ?", resourceID, adapter).Order("generation DESC")
	if err := query.Take(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (d *sqlAdapterTaskDao) CreateIfAbsent(ctx context.Context, task *api.AdapterTask) (*api.AdapterTask, bool, error) {
	g2 := (*d.sessionFactory).New(ctx)
	result := g2.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "resource_id"}, {Name: "adapter"}, {Name: "generation"}},
		DoNothing: true,
	}).Create(task)
	if result.Error != nil {
		db.MarkForRollback(ctx, result.Error)
		return nil, false, result.Error
	}
	if result.RowsAffected == 1 {
		return task, true, nil
	}

	existing, err := d.Get(ctx, task.Key())
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (d *sqlAdapterTaskDao) Replace(ctx context.Context, task *api.AdapterTask) (*api.AdapterTask, error) {
	g2 := (*d.sessionFactory).New(ctx)
	if err := g2.Omit(clause.Associations).Save(task).Error; err != nil {
		db.MarkForRollback(ctx, err)
		return nil, err
	}
	return task, nil
}

func (d *sqlAdapterTaskDao) SupersedeOlder(
	ctx context.Context, resourceID, adapter string, generation int32, at time.Time,
) (int64, error) {
	g2 := (*d.sessionFactory).New(ctx)
	result := g2.Model(&api.AdapterTask{}).
		Where("resource_id = ? AND adapter = ? AND generation < ? AND superseded_at IS NULL", resourceID, adapter, generation).
		Updates(map[string]interface{}{"superseded_at": at, "updated_time": at})
	if result.Error != nil {
		db.MarkForRollback(ctx, result.Error)
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
