package broker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"k8s.io/utils/clock"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/api"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/config"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/logger"
)

const memoryQueueDepth = 4096

var _ Broker = &MemoryBroker{}

// MemoryBroker is an in-process broker for single binary setups and tests.
// A failed pulse is requeued after the visibility timeout.
type MemoryBroker struct {
	mu     sync.Mutex
	queues map[string]chan *api.Pulse
	closed bool

	redeliverAfter time.Duration
	clock          clock.WithDelayedExecution
}

func NewMemoryBroker(cfg *config.BrokerConfig) *MemoryBroker {
	return NewMemoryBrokerWithClock(cfg, clock.RealClock{})
}

func NewMemoryBrokerWithClock(cfg *config.BrokerConfig, c clock.WithDelayedExecution) *MemoryBroker {
	return &MemoryBroker{
		queues:         map[string]chan *api.Pulse{},
		redeliverAfter: cfg.VisibilityTimeout,
		clock:          c,
	}
}

func (b *MemoryBroker) queue(adapter string) (chan *api.Pulse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, fmt.Errorf("broker is closed")
	}
	q, ok := b.queues[adapter]
	if !ok {
		q = make(chan *api.Pulse, memoryQueueDepth)
		b.queues[adapter] = q
	}
	return q, nil
}

func (b *MemoryBroker) Publish(ctx context.Context, pulse *api.Pulse) error {
	q, err := b.queue(pulse.Adapter)
	if err != nil {
		return err
	}
	p := *pulse
	select {
	case q <- &p:
		return nil
	default:
		return fmt.Errorf("pulse queue of adapter %s is full", pulse.Adapter)
	}
}

func (b *MemoryBroker) Subscribe(ctx context.Context, adapter string, workers int, handler Handler) error {
	q, err := b.queue(adapter)
	if err != nil {
		return err
	}
	if workers < 1 {
		workers = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case pulse := <-q:
					if err := handler(ctx, pulse); err != nil {
						pctx := logger.WithResourceID(logger.WithAdapter(ctx, adapter), pulse.ResourceID)
						logger.WithError(pctx, err).Warn("Pulse handling failed, requeueing")
						b.redeliver(q, pulse)
					}
				}
			}
		})
	}
	return g.Wait()
}

func (b *MemoryBroker) redeliver(q chan *api.Pulse, pulse *api.Pulse) {
	b.clock.AfterFunc(b.redeliverAfter, func() {
		select {
		case q <- pulse:
		default:
		}
	})
}

func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}
