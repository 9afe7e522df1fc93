package broker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/gomega"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/api"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/config"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/dao"
)

// fakePulseQueue keeps the queue in memory with the claim semantics of the SQL DAO.
type fakePulseQueue struct {
	mu       sync.Mutex
	rows     map[string]*api.QueuedPulse
	order    []string
	acked    []string
	released map[string]time.Time
	notified []string
	claimErr error
}

var _ dao.PulseQueueDao = &fakePulseQueue{}

func newFakePulseQueue() *fakePulseQueue {
	return &fakePulseQueue{rows: map[string]*api.QueuedPulse{}, released: map[string]time.Time{}}
}

func (q *fakePulseQueue) Enqueue(_ context.Context, p *api.QueuedPulse) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if p.ID == "" {
		p.ID = api.NewID()
	}
	cp := *p
	q.rows[p.ID] = &cp
	q.order = append(q.order, p.ID)
	return nil
}

func (q *fakePulseQueue) Claim(_ context.Context, adapter string, limit int, now time.Time, visibility time.Duration) ([]*api.QueuedPulse, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.claimErr != nil {
		return nil, q.claimErr
	}
	var out []*api.QueuedPulse
	for _, id := range q.order {
		row, ok := q.rows[id]
		if !ok || row.Adapter != adapter || row.VisibleAt.After(now) {
			continue
		}
		row.VisibleAt = now.Add(visibility)
		row.Attempts++
		cp := *row
		out = append(out, &cp)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (q *fakePulseQueue) Ack(_ context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.rows, id)
	q.acked = append(q.acked, id)
	return nil
}

func (q *fakePulseQueue) Release(_ context.Context, id string, visibleAt time.Time) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if row, ok := q.rows[id]; ok {
		row.VisibleAt = visibleAt
	}
	q.released[id] = visibleAt
	return nil
}

func (q *fakePulseQueue) Notify(_ context.Context, _, payload string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.notified = append(q.notified, payload)
	return nil
}

func (q *fakePulseQueue) snapshot() (acked []string, released int, notified []string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string{}, q.acked...), len(q.released), append([]string{}, q.notified...)
}

func testPostgresConfig() *config.BrokerConfig {
	cfg := config.NewBrokerConfig()
	cfg.PollInterval = 10 * time.Millisecond
	cfg.VisibilityTimeout = time.Minute
	cfg.BatchSize = 1
	return cfg
}

func TestPostgresBroker_PublishEnqueuesAndNotifies(t *testing.T) {
	RegisterTestingT(t)

	queue := newFakePulseQueue()
	b := NewPostgresBroker(testPostgresConfig(), nil, queue)

	Expect(b.Publish(context.Background(), pulse("r1", "dns", 3))).To(Succeed())

	Expect(queue.rows).To(HaveLen(1))
	for _, row := range queue.rows {
		Expect(row.Adapter).To(Equal("dns"))
		Expect(row.ResourceID).To(Equal("r1"))
		Expect(string(row.Payload)).To(ContainSubstring(`"generation":3`))
	}
	_, _, notified := queue.snapshot()
	Expect(notified).To(Equal([]string{"dns"}))
}

func TestPostgresBroker_DeliversAndAcks(t *testing.T) {
	RegisterTestingT(t)

	queue := newFakePulseQueue()
	b := NewPostgresBroker(testPostgresConfig(), nil, queue)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	Expect(b.Publish(ctx, pulse("r1", "dns", 1))).To(Succeed())
	Expect(b.Publish(ctx, pulse("r2", "dns", 1))).To(Succeed())
	Expect(b.Publish(ctx, pulse("r3", "validation", 1))).To(Succeed())

	var mu sync.Mutex
	seen := map[string]int32{}
	go func() {
		_ = b.Subscribe(ctx, "dns", 2, func(_ context.Context, p *api.Pulse) error {
			mu.Lock()
			defer mu.Unlock()
			seen[p.ResourceID] = p.Generation
			return nil
		})
	}()

	Eventually(func() []string {
		acked, _, _ := queue.snapshot()
		return acked
	}).Should(HaveLen(2))
	mu.Lock()
	Expect(seen).To(Equal(map[string]int32{"r1": 1, "r2": 1}))
	mu.Unlock()
}

func TestPostgresBroker_ReleasesFailedPulse(t *testing.T) {
	RegisterTestingT(t)

	queue := newFakePulseQueue()
	b := NewPostgresBroker(testPostgresConfig(), nil, queue)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	Expect(b.Publish(ctx, pulse("r1", "dns", 1))).To(Succeed())
	go func() {
		_ = b.Subscribe(ctx, "dns", 1, func(context.Context, *api.Pulse) error {
			return errors.New("api unavailable")
		})
	}()

	Eventually(func() int {
		_, released, _ := queue.snapshot()
		return released
	}).Should(Equal(1))
	acked, _, _ := queue.snapshot()
	Expect(acked).To(BeEmpty())
}

func TestPostgresBroker_DropsPulseAfterMaxAttempts(t *testing.T) {
	RegisterTestingT(t)

	queue := newFakePulseQueue()
	Expect(queue.Enqueue(context.Background(), &api.QueuedPulse{
		Adapter: "dns", ResourceID: "r1", Payload: []byte(`{"resource_id":"r1","adapter":"dns","generation":1}`),
		VisibleAt: time.Now().Add(-time.Second), Attempts: 2,
	})).To(Succeed())

	cfg := testPostgresConfig()
	cfg.MaxAttempts = 3
	b := NewPostgresBroker(cfg, nil, queue)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = b.Subscribe(ctx, "dns", 1, func(context.Context, *api.Pulse) error {
			return errors.New("report refused")
		})
	}()

	Eventually(func() []string {
		acked, _, _ := queue.snapshot()
		return acked
	}).Should(HaveLen(1))
	_, released, _ := queue.snapshot()
	Expect(released).To(BeZero())
}

func TestPostgresBroker_DropsUndecodablePulse(t *testing.T) {
	RegisterTestingT(t)

	queue := newFakePulseQueue()
	Expect(queue.Enqueue(context.Background(), &api.QueuedPulse{
		Adapter: "dns", ResourceID: "r1", Payload: []byte("not json"), VisibleAt: time.Now().Add(-time.Second),
	})).To(Succeed())

	b := NewPostgresBroker(testPostgresConfig(), nil, queue)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handled := make(chan struct{}, 1)
	go func() {
		_ = b.Subscribe(ctx, "dns", 1, func(context.Context, *api.Pulse) error {
			handled <- struct{}{}
			return nil
		})
	}()

	Eventually(func() []string {
		acked, _, _ := queue.snapshot()
		return acked
	}).Should(HaveLen(1))
	Consistently(handled, 30*time.Millisecond).ShouldNot(Receive())
}

func TestRedeliveryDelay(t *testing.T) {
	RegisterTestingT(t)

	b := NewPostgresBroker(&config.BrokerConfig{PollInterval: time.Second, VisibilityTimeout: 5 * time.Second}, nil, newFakePulseQueue())
	Expect(b.redeliveryDelay(1)).To(Equal(time.Second))
	Expect(b.redeliveryDelay(2)).To(Equal(2 * time.Second))
	Expect(b.redeliveryDelay(3)).To(Equal(4 * time.Second))
	Expect(b.redeliveryDelay(10)).To(Equal(5 * time.Second))
}
