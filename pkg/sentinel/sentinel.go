// Package sentinel is the pulse generator. It watches resource generations
// and condition freshness and publishes one pulse per (resource, required
// adapter) when adapters must re-check a resource.
package sentinel

import (
	"context"
	"errors"
	"net/http"
	"time"

	"k8s.io/utils/clock"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/api"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/api/presenters"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/broker"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/client/hyperfleet"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/config"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/logger"
)

// ResourceClient is the part of the API the sentinel reads.
type ResourceClient interface {
	ListAllResources(ctx context.Context, kind string) ([]presenters.Resource, error)
	GetResourceStatus(ctx context.Context, id string) (*presenters.ResourceStatus, error)
}

// AdapterRegistry names the adapters required per kind. The API derives
// availability from the same registry.
type AdapterRegistry interface {
	RequiredAdapters(kind string) []string
}

type trackedResource struct {
	kind          string
	generation    int32
	phase         api.ResourcePhase
	statusUpdated time.Time
}

// Sentinel is driven by a single loop; none of its state is shared.
type Sentinel struct {
	cfg       *config.SentinelSettings
	client    ResourceClient
	publisher broker.Publisher
	registry  AdapterRegistry
	clock     clock.WithTicker

	resources map[string]*trackedResource
	timers    *schedule
}

func New(
	cfg *config.SentinelSettings, client ResourceClient, publisher broker.Publisher, registry AdapterRegistry, clk clock.WithTicker,
) *Sentinel {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Sentinel{
		cfg:       cfg,
		client:    client,
		publisher: publisher,
		registry:  registry,
		clock:     clk,
		resources: map[string]*trackedResource{},
		timers:    newSchedule(),
	}
}

// Run polls resources every poll interval and fires TTL timers as they come due,
// until ctx is done.
func (s *Sentinel) Run(ctx context.Context) error {
	logger.With(ctx, logger.FieldTTL, s.cfg.NotReadyTTL.String()).
		With("ready_ttl", s.cfg.ReadyTTL.String(), "kinds", s.cfg.Kinds).
		Info("Sentinel started")

	ticker := s.clock.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	s.poll(ctx)
	for {
		s.expire(ctx)

		var timer clock.Timer
		var wake <-chan time.Time
		if next, ok := s.timers.next(); ok {
			timer = s.clock.NewTimer(next.Sub(s.clock.Now()))
			wake = timer.C()
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info(ctx, "Sentinel stopped")
			return nil
		case <-ticker.C():
			s.poll(ctx)
		case <-wake:
		}
		if timer != nil {
			timer.Stop()
		}
	}
}

func (s *Sentinel) ttl(phase api.ResourcePhase) time.Duration {
	if phase == api.PhaseReady {
		return s.cfg.ReadyTTL
	}
	return s.cfg.NotReadyTTL
}

// poll lists every watched kind and reconciles the tracked set with it.
func (s *Sentinel) poll(ctx context.Context) {
	for _, kind := range s.cfg.Kinds {
		resources, err := s.client.ListAllResources(ctx, kind)
		if err != nil {
			logger.With(ctx, logger.FieldKind, kind).WithError(err).Warn("Listing resources failed")
			continue
		}

		seen := make(map[string]struct{}, len(resources))
		for i := range resources {
			seen[resources[i].ID] = struct{}{}
			s.observe(ctx, &resources[i])
		}

		count := 0
		for id, t := range s.resources {
			if t.kind != kind {
				continue
			}
			if _, ok := seen[id]; !ok {
				s.untrack(ctx, id, t)
				continue
			}
			count++
		}
		setTracked(kind, count)
	}
}

func (s *Sentinel) observe(ctx context.Context, r *presenters.Resource) {
	ctx = logger.WithResourceID(logger.WithResourceType(ctx, r.Kind), r.ID)
	now := s.clock.Now()
	phase := r.Status.Phase
	var statusUpdated time.Time
	if r.Status.LastUpdatedTime != nil {
		statusUpdated = *r.Status.LastUpdatedTime
	}

	t, ok := s.resources[r.ID]
	if !ok {
		s.resources[r.ID] = &trackedResource{
			kind: r.Kind, generation: r.Generation, phase: phase, statusUpdated: statusUpdated,
		}
		// adapters have caught up with a Ready resource, its TTL takes care of it
		if phase != api.PhaseReady {
			s.emitAll(ctx, api.PulseReasonSpecChanged, r.Kind, r.ID, r.Generation)
		}
		s.timers.set(r.ID, now.Add(s.ttl(phase)))
		return
	}

	switch {
	case r.Generation > t.generation:
		logger.With(ctx, logger.FieldGeneration, r.Generation).Info("Generation changed")
		t.generation = r.Generation
		t.phase = phase
		t.statusUpdated = statusUpdated
		s.emitAll(ctx, api.PulseReasonSpecChanged, r.Kind, r.ID, r.Generation)
		s.timers.set(r.ID, now.Add(s.ttl(phase)))
	case phase != t.phase || statusUpdated.After(t.statusUpdated):
		t.phase = phase
		t.statusUpdated = statusUpdated
		s.timers.set(r.ID, now.Add(s.ttl(phase)))
	}
}

// expire handles every timer at or past its deadline.
func (s *Sentinel) expire(ctx context.Context) {
	now := s.clock.Now()
	for _, id := range s.timers.due(now) {
		t, ok := s.resources[id]
		if !ok {
			continue
		}
		s.expireResource(ctx, id, t, now)
	}
}

func (s *Sentinel) expireResource(ctx context.Context, id string, t *trackedResource, now time.Time) {
	ctx = logger.WithResourceID(logger.WithResourceType(ctx, t.kind), id)

	status, err := s.client.GetResourceStatus(ctx, id)
	if err != nil {
		var apiErr *hyperfleet.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			s.untrack(ctx, id, t)
			return
		}
		logger.WithError(ctx, err).Warn("Reading resource status failed")
		s.timers.set(id, now.Add(s.cfg.NotReadyTTL))
		return
	}

	t.phase = status.Phase
	ttl := s.ttl(status.Phase)
	for _, adapter := range s.registry.RequiredAdapters(t.kind) {
		c, ok := status.Condition(adapter, api.ConditionTypeAvailable)
		if ok && now.Sub(c.LastUpdatedTime) < ttl {
			continue
		}
		s.publish(ctx, api.PulseReasonTTLExpired, t.kind, id, status.Generation, adapter)
	}
	// failed publishes are recovered by the next expiry
	s.timers.set(id, now.Add(ttl))
	logger.With(ctx, logger.FieldPhase, status.Phase, logger.FieldTTL, ttl.String()).Debug("TTL timer reset")
}

func (s *Sentinel) emitAll(ctx context.Context, reason api.PulseReason, kind, id string, generation int32) {
	adapters := s.registry.RequiredAdapters(kind)
	if len(adapters) == 0 {
		logger.Debug(ctx, "No required adapters, nothing to pulse")
		return
	}
	for _, adapter := range adapters {
		s.publish(ctx, reason, kind, id, generation, adapter)
	}
}

func (s *Sentinel) publish(ctx context.Context, reason api.PulseReason, kind, id string, generation int32, adapter string) {
	pulse := &api.Pulse{
		ID:           api.NewID(),
		ResourceID:   id,
		ResourceKind: kind,
		Adapter:      adapter,
		Generation:   generation,
		Reason:       reason,
		EmittedAt:    s.clock.Now().UTC(),
	}
	err := s.publisher.Publish(ctx, pulse)
	recordPulse(reason, adapter, err)

	entry := logger.With(logger.WithAdapter(ctx, adapter), logger.FieldReason, reason, logger.FieldGeneration, generation)
	if err != nil {
		entry.WithError(err).Warn("Publishing pulse failed")
		return
	}
	entry.Debug("Pulse published")
}

func (s *Sentinel) untrack(ctx context.Context, id string, t *trackedResource) {
	delete(s.resources, id)
	s.timers.remove(id)
	logger.With(logger.WithResourceID(ctx, id), logger.FieldKind, t.kind).Info("Resource no longer tracked")
}
