package db_session

import (
	"context"
	"time"

	"github.com/lib/pq"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/config"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/logger"
)

const listenerPingInterval = 10 * time.Second

// listen delivers NOTIFY payloads received on channel until ctx is done.
// pq.Listener reconnects on its own, a reconnect is signalled with a nil
// notification and is forwarded as an empty payload so callers can resync.
func listen(ctx context.Context, connstr, channel string, cfg *config.DatabaseConfig, callback func(payload string)) {
	plog := func(ev pq.ListenerEventType, err error) {
		if err != nil {
			logger.WithError(ctx, err).Warn("PostgreSQL listener error")
		}
	}
	listener := pq.NewListener(connstr, cfg.ListenerMinReconnect, cfg.ListenerMaxReconnect, plog)
	defer func() {
		if err := listener.Close(); err != nil {
			logger.WithError(ctx, err).Debug("Closing listener failed")
		}
	}()

	if err := listener.Listen(channel); err != nil {
		logger.With(ctx, logger.FieldChannel, channel).WithError(err).Error("Could not listen on channel")
		return
	}

	logger.With(ctx, logger.FieldChannel, channel).Info("Listening for notifications")
	ticker := time.NewTicker(listenerPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-listener.Notify:
			if n == nil {
				callback("")
				continue
			}
			logger.With(ctx, logger.FieldChannel, n.Channel, logger.FieldData, n.Extra).Debug("Received notification")
			callback(n.Extra)
		case <-ticker.C:
			go func() {
				if err := listener.Ping(); err != nil {
					logger.WithError(ctx, err).Debug("Ping failed")
				}
			}()
		}
	}
}
