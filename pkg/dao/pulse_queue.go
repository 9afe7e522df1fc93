package dao

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/api"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/db"
)

const pulseQueueTable = "pulse_queue"

// PulseQueueDao is a visibility-timeout work queue of pulses per adapter.
type PulseQueueDao interface {
	Enqueue(ctx context.Context, pulse *api.QueuedPulse) error
	// Claim hides up to limit visible pulses of adapter until now+visibility and returns them.
	// Concurrent claimers never receive the same row.
	Claim(ctx context.Context, adapter string, limit int, now time.Time, visibility time.Duration) ([]*api.QueuedPulse, error)
	// Ack removes a delivered pulse.
	Ack(ctx context.Context, id string) error
	// Release makes a claimed pulse visible again at visibleAt.
	Release(ctx context.Context, id string, visibleAt time.Time) error
	// Notify signals listeners on channel.
	Notify(ctx context.Context, channel, payload string) error
}

var _ PulseQueueDao = &sqlPulseQueueDao{}

type sqlPulseQueueDao struct {
	sessionFactory *db.SessionFactory
}

func NewPulseQueueDao(sessionFactory *db.SessionFactory) PulseQueueDao {
	return &sqlPulseQueueDao{sessionFactory: sessionFactory}
}

func (d *sqlPulseQueueDao) Enqueue(ctx context.Context, pulse *api.QueuedPulse) error {
	g2 := (*d.sessionFactory).New(ctx)
	if err := g2.Create(pulse).Error; err != nil {
		db.MarkForRollback(ctx, err)
		return err
	}
	return nil
}

// claimQuery builds
//
//	UPDATE pulse_queue SET visible_at = ?, attempts = attempts + 1, updated_time = ?
//	WHERE id IN (SELECT id FROM pulse_queue WHERE ... ORDER BY visible_at LIMIT n FOR UPDATE SKIP LOCKED)
//	RETURNING *
//
// Placeholders stay in "?" form, gorm binds them for the dialect.
func claimQuery(adapter string, limit int, now time.Time, visibility time.Duration) (string, []interface{}, error) {
	ready, readyArgs, err := sq.Select("id").
		From(pulseQueueTable).
		Where(sq.Eq{"adapter": adapter, "deleted_at": nil}).
		Where(sq.LtOrEq{"visible_at": now}).
		OrderBy("visible_at ASC", "created_time ASC").
		Limit(uint64(limit)).
		Suffix("FOR UPDATE SKIP LOCKED").
		ToSql()
	if err != nil {
		return "", nil, err
	}

	return sq.Update(pulseQueueTable).
		Set("visible_at", now.Add(visibility)).
		Set("attempts", sq.Expr("attempts + 1")).
		Set("updated_time", now).
		Where("id IN ("+ready+")", readyArgs...).
		Suffix("RETURNING *").
		ToSql()
}

func (d *sqlPulseQueueDao) Claim(
	ctx context.Context, adapter string, limit int, now time.Time, visibility time.Duration,
) ([]*api.QueuedPulse, error) {
	query, args, err := claimQuery(adapter, limit, now, visibility)
	if err != nil {
		return nil, err
	}

	g2 := (*d.sessionFactory).New(ctx)
	claimed := []*api.QueuedPulse{}
	if err := g2.Raw(query, args...).Scan(&claimed).Error; err != nil {
		db.MarkForRollback(ctx, err)
		return nil, err
	}
	return claimed, nil
}

func (d *sqlPulseQueueDao) Ack(ctx context.Context, id string) error {
	g2 := (*d.sessionFactory).New(ctx)
	if err := g2.Unscoped().Where("id = ?", id).Delete(&api.QueuedPulse{}).Error; err != nil {
		db.MarkForRollback(ctx, err)
		return err
	}
	return nil
}

func (d *sqlPulseQueueDao) Release(ctx context.Context, id string, visibleAt time.Time) error {
	g2 := (*d.sessionFactory).New(ctx)
	err := g2.Model(&api.QueuedPulse{}).Where("id = ?", id).
		Updates(map[string]interface{}{"visible_at": visibleAt, "updated_time": time.Now()}).Error
	if err != nil {
		db.MarkForRollback(ctx, err)
		return err
	}
	return nil
}

func (d *sqlPulseQueueDao) Notify(ctx context.Context, channel, payload string) error {
	g2 := (*d.sessionFactory).New(ctx)
	return g2.Exec("SELECT pg_notify(?, ?)", channel, payload).Error
}
