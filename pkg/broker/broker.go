// Package broker carries pulses from the sentinel to adapters. Delivery is at
// least once and unordered; consumers rely on the pulse generation, not on
// the transport, for correctness.
package broker

import (
	"context"
	"fmt"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/api"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/config"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/dao"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/db"
)

// Handler processes one delivered pulse. Returning an error leaves the pulse
// queued for redelivery.
type Handler func(ctx context.Context, pulse *api.Pulse) error

type Publisher interface {
	Publish(ctx context.Context, pulse *api.Pulse) error
}

type Subscriber interface {
	// Subscribe delivers the pulses addressed to adapter to handler, running up
	// to workers handlers at once. It blocks until ctx is done.
	Subscribe(ctx context.Context, adapter string, workers int, handler Handler) error
}

type Broker interface {
	Publisher
	Subscriber
	Close() error
}

// New builds the broker selected by cfg. sessionFactory may be nil for the memory broker.
func New(cfg *config.BrokerConfig, sessionFactory *db.SessionFactory) (Broker, error) {
	switch cfg.Type {
	case config.BrokerTypeMemory:
		return NewMemoryBroker(cfg), nil
	case config.BrokerTypePostgres:
		if sessionFactory == nil {
			return nil, fmt.Errorf("postgres broker requires a database session factory")
		}
		return NewPostgresBroker(cfg, sessionFactory, dao.NewPulseQueueDao(sessionFactory)), nil
	default:
		return nil, fmt.Errorf("unknown broker type %q", cfg.Type)
	}
}
