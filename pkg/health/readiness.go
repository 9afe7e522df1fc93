package health

import (
	"context"
	"sort"
	"sync"
)

// Check reports whether one dependency of the process can be used.
type Check func(ctx context.Context) error

// ReadinessState is the readiness of the process: ready once started, not
// ready while shutting down, and only while every registered dependency check
// passes. The API registers none beyond its database, the sentinel checks the
// API and the adapters check the API and their Kubernetes cluster.
type ReadinessState struct {
	mu           sync.RWMutex
	ready        bool
	shuttingDown bool
	checks       map[string]Check
}

var (
	globalState     *ReadinessState
	globalStateOnce sync.Once
)

// GetReadinessState returns the singleton ReadinessState instance
func GetReadinessState() *ReadinessState {
	globalStateOnce.Do(func() {
		globalState = &ReadinessState{checks: map[string]Check{}}
	})
	return globalState
}

func (r *ReadinessState) SetReady() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ready = true
	r.shuttingDown = false
}

// SetShuttingDown fails readiness so Kubernetes stops routing to this instance.
func (r *ReadinessState) SetShuttingDown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shuttingDown = true
}

func (r *ReadinessState) IsReady() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ready && !r.shuttingDown
}

func (r *ReadinessState) IsShuttingDown() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.shuttingDown
}

// AddCheck registers check under name, replacing a check of the same name.
func (r *ReadinessState) AddCheck(name string, check Check) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.checks == nil {
		r.checks = map[string]Check{}
	}
	r.checks[name] = check
}

// RemoveCheck drops the check registered under name.
func (r *ReadinessState) RemoveCheck(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.checks, name)
}

// RunChecks runs the registered checks in name order and returns the name and
// error of the first failing one.
func (r *ReadinessState) RunChecks(ctx context.Context) (string, error) {
	r.mu.RLock()
	names := make([]string, 0, len(r.checks))
	checks := make(map[string]Check, len(r.checks))
	for name, check := range r.checks {
		names = append(names, name)
		checks[name] = check
	}
	r.mu.RUnlock()

	sort.Strings(names)
	for _, name := range names {
		if err := checks[name](ctx); err != nil {
			return name, err
		}
	}
	return "", nil
}
