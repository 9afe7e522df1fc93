package dao

import (
	"bytes"
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/api"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/db"
)

// ResourceDao reads and writes the resources table. Lookups that miss
// return gorm.ErrRecordNotFound.
type ResourceDao interface {
	Get(ctx context.Context, id string) (*api.Resource, error)
	// GetForUpdate row-locks the resource until the transaction in ctx ends.
	GetForUpdate(ctx context.Context, id string) (*api.Resource, error)
	GetByKindAndID(ctx context.Context, kind, id string) (*api.Resource, error)
	GetByOwner(ctx context.Context, kind, ownerID, id string) (*api.Resource, error)

	Create(ctx context.Context, resource *api.Resource) (*api.Resource, error)
	// Replace writes spec and labels, bumping the generation only when the spec differs.
	Replace(ctx context.Context, resource *api.Resource) (*api.Resource, error)
	// UpdateStatus writes the aggregated status columns and nothing else.
	UpdateStatus(ctx context.Context, resource *api.Resource) error
	Delete(ctx context.Context, id string) error

	// ListByKind skips owned resources, ListAllOfKind does not.
	ListByKind(ctx context.Context, kind string, offset, limit int) (api.ResourceList, int64, error)
	ListAllOfKind(ctx context.Context, kind string, offset, limit int) (api.ResourceList, int64, error)
	ListByOwner(ctx context.Context, kind, ownerID string, offset, limit int) (api.ResourceList, int64, error)
}

var _ ResourceDao = &sqlResourceDao{}

type sqlResourceDao struct {
	sessionFactory *db.SessionFactory
}

func NewResourceDao(sessionFactory *db.SessionFactory) ResourceDao {
	return &sqlResourceDao{sessionFactory: sessionFactory}
}

func (d *sqlResourceDao) session(ctx context.Context) *gorm.DB {
	return (*d.sessionFactory).New(ctx)
}

func takeResource(g2 *gorm.DB, conds ...interface{}) (*api.Resource, error) {
	var resource api.Resource
	if err := g2.Take(&resource, conds...).Error; err != nil {
		return nil, err
	}
	return &resource, nil
}

// rollbackOn marks the transaction in ctx for rollback when err is set.
func rollbackOn(ctx context.Context, err error) error {
	if err != nil {
		db.MarkForRollback(ctx, err)
	}
	return err
}

func (d *sqlResourceDao) Get(ctx context.Context, id string) (*api.Resource, error) {
	return takeResource(d.session(ctx), "id = ?", id)
}

func (d *sqlResourceDao) GetForUpdate(ctx context.Context, id string) (*api.Resource, error) {
	return takeResource(d.session(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), "id = ?", id)
}

func (d *sqlResourceDao) GetByKindAndID(ctx context.Context, kind, id string) (*api.Resource, error) {
	return takeResource(d.session(ctx), "kind = ? AND id = ?", kind, id)
}

func (d *sqlResourceDao) GetByOwner(ctx context.Context, kind, ownerID, id string) (*api.Resource, error) {
	return takeResource(d.session(ctx), "kind = ? AND owner_id = ? AND id = ?", kind, ownerID, id)
}

func (d *sqlResourceDao) Create(ctx context.Context, resource *api.Resource) (*api.Resource, error) {
	if err := rollbackOn(ctx, d.session(ctx).Omit(clause.Associations).Create(resource).Error); err != nil {
		return nil, err
	}
	return resource, nil
}

func (d *sqlResourceDao) Replace(ctx context.Context, resource *api.Resource) (*api.Resource, error) {
	existing, err := d.GetForUpdate(ctx, resource.ID)
	if err != nil {
		return nil, rollbackOn(ctx, err)
	}

	if !bytes.Equal(existing.Spec, resource.Spec) {
		existing.Generation++
	}
	existing.Spec = resource.Spec
	existing.Labels = resource.Labels

	err = d.session(ctx).Model(existing).Select("spec", "labels", "generation", "updated_time").Updates(map[string]interface{}{
		"spec":         existing.Spec,
		"labels":       existing.Labels,
		"generation":   existing.Generation,
		"updated_time": time.Now(),
	}).Error
	if err != nil {
		return nil, rollbackOn(ctx, err)
	}
	return existing, nil
}

func (d *sqlResourceDao) UpdateStatus(ctx context.Context, resource *api.Resource) error {
	return rollbackOn(ctx, d.session(ctx).Model(&api.Resource{Meta: api.Meta{ID: resource.ID}}).
		Select("status_phase", "status_conditions", "status_agreement", "status_last_updated_time", "status_last_transition_time").
		Updates(map[string]interface{}{
			"status_phase":                resource.StatusPhase,
			"status_conditions":           resource.StatusConditions,
			"status_agreement":            resource.StatusAgreement,
			"status_last_updated_time":    resource.StatusLastUpdatedTime,
			"status_last_transition_time": resource.StatusLastTransitionTime,
		}).Error)
}

func (d *sqlResourceDao) Delete(ctx context.Context, id string) error {
	return rollbackOn(ctx, d.session(ctx).Omit(clause.Associations).Delete(&api.Resource{Meta: api.Meta{ID: id}}).Error)
}

func (d *sqlResourceDao) ListByKind(ctx context.Context, kind string, offset, limit int) (api.ResourceList, int64, error) {
	return listResources(d.session(ctx).Where("kind = ? AND owner_id IS NULL", kind), offset, limit)
}

func (d *sqlResourceDao) ListAllOfKind(ctx context.Context, kind string, offset, limit int) (api.ResourceList, int64, error) {
	return listResources(d.session(ctx).Where("kind = ?", kind), offset, limit)
}

func (d *sqlResourceDao) ListByOwner(ctx context.Context, kind, ownerID string, offset, limit int) (api.ResourceList, int64, error) {
	return listResources(d.session(ctx).Where("kind = ? AND owner_id = ?", kind, ownerID), offset, limit)
}

// listResources pages query oldest first; limit 0 returns everything.
func listResources(query *gorm.DB, offset, limit int) (api.ResourceList, int64, error) {
	var total int64
	if err := query.Session(&gorm.Session{}).Model(&api.Resource{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("created_time ASC, id ASC")
	if limit > 0 {
		query = query.Offset(offset).Limit(limit)
	}
	var resources api.ResourceList
	if err := query.Find(&resources).Error; err != nil {
		return nil, 0, err
	}
	return resources, total, nil
}
