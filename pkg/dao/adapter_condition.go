package dao

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/api"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/db"
)

// AdapterConditionDao stores the latest accepted condition per
// (resource, adapter, type) slot.
type AdapterConditionDao interface {
	FindByResource(ctx context.Context, resourceID string) (api.AdapterConditionList, error)
	FindSlot(ctx context.Context, resourceID, adapter, conditionType string) (*api.AdapterCondition, error)
	// Apply writes c into its slot if c.ObservedGeneration is not older than the
	// stored one. It returns false, without error, when the slot holds a newer generation.
	Apply(ctx context.Context, c *api.AdapterCondition) (bool, error)
	DeleteByResource(ctx context.Context, resourceID string) error
}

var _ AdapterConditionDao = &sqlAdapterConditionDao{}

type sqlAdapterConditionDao struct {
	sessionFactory *db.SessionFactory
}

func NewAdapterConditionDao(sessionFactory *db.SessionFactory) AdapterConditionDao {
	return &sqlAdapterConditionDao{sessionFactory: sessionFactory}
}

func (d *sqlAdapterConditionDao) FindByResource(ctx context.Context, resourceID string) (api.AdapterConditionList, error) {
	g2 := (*d.sessionFactory).New(ctx)
	conditions := api.AdapterConditionList{}
	if err := g2.Where("resource_id = ?", resourceID).Order("adapter, type").Find(&conditions).Error; err != nil {
		return nil, err
	}
	return conditions, nil
}

func (d *sqlAdapterConditionDao) FindSlot(ctx context.Context, resourceID, adapter, conditionType string) (*api.AdapterCondition, error) {
	g2 := (*d.sessionFactory).New(ctx)
	var condition api.AdapterCondition
	query := g2.Where("resource_id = ? AND adapter = ? AND type = ?", resourceID, adapter, conditionType)
	if err := query.Take(&condition).Error; err != nil {
		return nil, err
	}
	return &condition, nil
}

// Apply is a compare-and-swap on observed_generation: the update only matches
// rows whose generation is <= the reported one, an absent slot is inserted with
// ON CONFLICT DO NOTHING, and a lost insert race retries the update once.
func (d *sqlAdapterConditionDao) Apply(ctx context.Context, c *api.AdapterCondition) (bool, error) {
	now := time.Now()
	if c.LastUpdatedTime.IsZero() {
		c.LastUpdatedTime = now
	}

	updated, err := d.update(ctx, c)
	if err != nil || updated {
		return updated, err
	}

	g2 := (*d.sessionFactory).New(ctx)
	c.LastTransitionTime = c.LastUpdatedTime
	result := g2.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "resource_id"}, {Name: "adapter"}, {Name: "type"}},
		DoNothing: true,
	}).Create(c)
	if result.Error != nil {
		db.MarkForRollback(ctx, result.Error)
		return false, result.Error
	}
	if result.RowsAffected == 1 {
		return true, nil
	}

	return d.update(ctx, c)
}

func (d *sqlAdapterConditionDao) update(ctx context.Context, c *api.AdapterCondition) (bool, error) {
	g2 := (*d.sessionFactory).New(ctx)
	result := g2.Model(&api.AdapterCondition{}).
		Where("resource_id = ? AND adapter = ? AND type = ? AND observed_generation <= ?",
			c.ResourceID, c.Adapter, c.Type, c.ObservedGeneration).
		Updates(map[string]interface{}{
			"status":              c.Status,
			"observed_generation": c.ObservedGeneration,
			"reason":              c.Reason,
			"message":             c.Message,
			"resource_type":       c.ResourceType,
			"last_updated_time":   c.LastUpdatedTime,
			"updated_time":        c.LastUpdatedTime,
			// last_transition_time only moves when the status flips
			"last_transition_time": gorm.Expr(
				"CASE WHEN status <> ? THEN ? ELSE last_transition_time END", c.Status, c.LastUpdatedTime),
		})
	if result.Error != nil {
		db.MarkForRollback(ctx, result.Error)
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (d *sqlAdapterConditionDao) DeleteByResource(ctx context.Context, resourceID string) error {
	g2 := (*d.sessionFactory).New(ctx)
	if err := g2.Unscoped().Where("resource_id = ?", resourceID).Delete(&api.AdapterCondition{}).Error; err != nil {
		db.MarkForRollback(ctx, err)
		return err
	}
	return nil
}
