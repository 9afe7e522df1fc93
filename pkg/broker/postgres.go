package broker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/sync/errgroup"
	"k8s.io/utils/clock"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/api"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/config"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/dao"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/db"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/logger"
)

var _ Broker = &PostgresBroker{}

// PostgresBroker queues pulses in the pulse_queue table. Subscribers claim
// batches with FOR UPDATE SKIP LOCKED; a claimed pulse that is neither acked
// nor released becomes visible again after the visibility timeout.
// NOTIFY on the broker channel wakes subscribers, polling covers lost notifications.
type PostgresBroker struct {
	cfg            *config.BrokerConfig
	sessionFactory *db.SessionFactory
	queue          dao.PulseQueueDao
	clock          clock.WithTicker
}

func NewPostgresBroker(cfg *config.BrokerConfig, sessionFactory *db.SessionFactory, queue dao.PulseQueueDao) *PostgresBroker {
	return &PostgresBroker{cfg: cfg, sessionFactory: sessionFactory, queue: queue, clock: clock.RealClock{}}
}

func (b *PostgresBroker) Publish(ctx context.Context, pulse *api.Pulse) error {
	payload, err := json.Marshal(pulse)
	if err != nil {
		return err
	}
	row := &api.QueuedPulse{
		Adapter:    pulse.Adapter,
		ResourceID: pulse.ResourceID,
		Payload:    payload,
		VisibleAt:  b.clock.Now(),
	}
	if err := b.queue.Enqueue(ctx, row); err != nil {
		return err
	}
	// the pulse is durable at this point, a lost wake-up only delays it by one poll
	if err := b.queue.Notify(ctx, b.cfg.Channel, pulse.Adapter); err != nil {
		logger.With(ctx, logger.FieldChannel, b.cfg.Channel).WithError(err).Debug("Notify failed")
	}
	return nil
}

func (b *PostgresBroker) Subscribe(ctx context.Context, adapter string, workers int, handler Handler) error {
	if workers < 1 {
		workers = 1
	}
	ctx = logger.WithAdapter(ctx, adapter)

	wake := make(chan struct{}, 1)
	signal := func() {
		select {
		case wake <- struct{}{}:
		default:
		}
	}
	if b.sessionFactory != nil {
		go (*b.sessionFactory).NewListener(ctx, b.cfg.Channel, func(payload string) {
			// an empty payload is a listener reconnect
			if payload == "" || payload == adapter {
				signal()
			}
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	retry := backoff.NewExponentialBackOff()
	retry.InitialInterval = b.cfg.PollInterval
	retry.MaxInterval = 10 * b.cfg.PollInterval

	ticker := b.clock.NewTicker(b.cfg.PollInterval)
	defer ticker.Stop()

	for {
		batch, err := b.queue.Claim(logger.QuietQueries(gctx), adapter, b.cfg.BatchSize, b.clock.Now(), b.cfg.VisibilityTimeout)
		if err != nil {
			if gctx.Err() != nil {
				return g.Wait()
			}
			delay := retry.NextBackOff()
			logger.With(ctx, logger.FieldNextWake, delay.String()).WithError(err).Warn("Claiming pulses failed")
			select {
			case <-gctx.Done():
				return g.Wait()
			case <-b.clock.After(delay):
			}
			continue
		}
		retry.Reset()

		for _, row := range batch {
			g.Go(func() error {
				b.deliver(gctx, row, handler)
				return nil
			})
		}
		if len(batch) == b.cfg.BatchSize {
			continue
		}

		select {
		case <-gctx.Done():
			return g.Wait()
		case <-wake:
		case <-ticker.C():
		}
	}
}

func (b *PostgresBroker) deliver(ctx context.Context, row *api.QueuedPulse, handler Handler) {
	ctx = logger.WithPulseID(logger.WithResourceID(ctx, row.ResourceID), row.ID)

	var pulse api.Pulse
	if err := json.Unmarshal(row.Payload, &pulse); err != nil {
		logger.WithError(ctx, err).Error("Dropping undecodable pulse")
		b.ack(ctx, row)
		return
	}
	if pulse.ID == "" {
		pulse.ID = row.ID
	}

	if err := handler(ctx, &pulse); err != nil {
		if b.cfg.MaxAttempts > 0 && int(row.Attempts) >= b.cfg.MaxAttempts {
			logger.With(ctx, logger.FieldCount, row.Attempts).WithError(err).Error("Pulse failed too many times, dropping")
			b.ack(ctx, row)
			return
		}
		visibleAt := b.clock.Now().Add(b.redeliveryDelay(row.Attempts))
		logger.With(ctx, logger.FieldCount, row.Attempts).WithError(err).Warn("Pulse handling failed, releasing")
		if relErr := b.queue.Release(context.WithoutCancel(ctx), row.ID, visibleAt); relErr != nil {
			logger.WithError(ctx, relErr).Warn("Releasing pulse failed, it returns after the visibility timeout")
		}
		return
	}
	b.ack(ctx, row)
}

func (b *PostgresBroker) ack(ctx context.Context, row *api.QueuedPulse) {
	if err := b.queue.Ack(context.WithoutCancel(ctx), row.ID); err != nil {
		logger.WithError(ctx, err).Warn("Acking pulse failed, it will be redelivered")
	}
}

// redeliveryDelay doubles with each attempt up to the visibility timeout.
func (b *PostgresBroker) redeliveryDelay(attempts int32) time.Duration {
	delay := b.cfg.PollInterval
	for i := int32(1); i < attempts && delay < b.cfg.VisibilityTimeout; i++ {
		delay *= 2
	}
	if delay > b.cfg.VisibilityTimeout {
		delay = b.cfg.VisibilityTimeout
	}
	return delay
}

func (b *PostgresBroker) Close() error {
	return nil
}
