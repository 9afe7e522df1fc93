package adapter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/api"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/config"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/dao"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/db"
)

// TaskStore is the adapter's durable record of work per (resource, adapter,
// generation). Missing keys are reported as gorm.ErrRecordNotFound by every
// implementation.
type TaskStore interface {
	Get(ctx context.Context, key api.TaskKey) (*api.AdapterTask, error)
	Latest(ctx context.Context, resourceID, adapter string) (*api.AdapterTask, error)
	CreateIfAbsent(ctx context.Context, task *api.AdapterTask) (*api.AdapterTask, bool, error)
	Replace(ctx context.Context, task *api.AdapterTask) (*api.AdapterTask, error)
	SupersedeOlder(ctx context.Context, resourceID, adapter string, generation int32, at time.Time) (int64, error)
}

var _ TaskStore = dao.AdapterTaskDao(nil)

// NewTaskStore returns the store selected by the adapter configuration.
func NewTaskStore(kind string, sessionFactory *db.SessionFactory) (TaskStore, error) {
	switch kind {
	case config.TaskStoreMemory:
		return NewMemoryTaskStore(), nil
	case config.TaskStorePostgres:
		if sessionFactory == nil {
			return nil, fmt.Errorf("postgres task store requires a database session factory")
		}
		return dao.NewAdapterTaskDao(sessionFactory), nil
	default:
		return nil, fmt.Errorf("unknown task store %q", kind)
	}
}

var _ TaskStore = &MemoryTaskStore{}

// MemoryTaskStore keeps tasks for the life of the process.
type MemoryTaskStore struct {
	mu    sync.Mutex
	tasks map[api.TaskKey]*api.AdapterTask
}

func NewMemoryTaskStore() *MemoryTaskStore {
	return &MemoryTaskStore{tasks: map[api.TaskKey]*api.AdapterTask{}}
}

func (s *MemoryTaskStore) Get(_ context.Context, key api.TaskKey) (*api.AdapterTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tasks[key]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *MemoryTaskStore) Latest(_ context.Context, resourceID, adapter string) (*api.AdapterTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *api.AdapterTask
	for k, t := range s.tasks {
		if k.ResourceID == resourceID && k.Adapter == adapter && (latest == nil || t.Generation > latest.Generation) {
			latest = t
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *latest
	return &cp, nil
}

func (s *MemoryTaskStore) CreateIfAbsent(_ context.Context, task *api.AdapterTask) (*api.AdapterTask, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.tasks[task.Key()]; ok {
		cp := *existing
		return &cp, false, nil
	}
	if err := task.BeforeCreate(nil); err != nil {
		return nil, false, err
	}
	cp := *task
	s.tasks[task.Key()] = &cp
	return task, true, nil
}

func (s *MemoryTaskStore) Replace(_ context.Context, task *api.AdapterTask) (*api.AdapterTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[task.Key()]; !ok {
		return nil, gorm.ErrRecordNotFound
	}
	task.UpdatedTime = time.Now()
	cp := *task
	s.tasks[task.Key()] = &cp
	return task, nil
}

func (s *MemoryTaskStore) SupersedeOlder(_ context.Context, resourceID, adapter string, generation int32, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k, t := range s.tasks {
		if k.ResourceID == resourceID && k.Adapter == adapter && k.Generation < generation && t.SupersededAt == nil {
			ts := at
			t.SupersededAt = &ts
			n++
		}
	}
	return n, nil
}
