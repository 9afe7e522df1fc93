package sentinel

import (
	"container/heap"
	"time"
)

// timerRecord is the single TTL timer of one resource.
type timerRecord struct {
	resourceID string
	deadline   time.Time
	index      int
}

type timerHeap []*timerRecord

func (h timerHeap) Len() int           { return len(h) }
func (h timerHeap) Less(i, j int) bool { return h[i].deadline.Before(h[j].deadline) }
func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	r := x.(*timerRecord)
	r.index = len(*h)
	*h = append(*h, r)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	r := old[n-1]
	old[n-1] = nil
	r.index = -1
	*h = old[:n-1]
	return r
}

// schedule keeps at most one deadline per resource, ordered by deadline.
// It is not safe for concurrent use; the sentinel loop owns it.
type schedule struct {
	heap timerHeap
	byID map[string]*timerRecord
}

func newSchedule() *schedule {
	return &schedule{byID: map[string]*timerRecord{}}
}

// set creates or moves the timer of resourceID.
func (s *schedule) set(resourceID string, deadline time.Time) {
	if r, ok := s.byID[resourceID]; ok {
		r.deadline = deadline
		heap.Fix(&s.heap, r.index)
		return
	}
	r := &timerRecord{resourceID: resourceID, deadline: deadline}
	heap.Push(&s.heap, r)
	s.byID[resourceID] = r
}

func (s *schedule) remove(resourceID string) {
	r, ok := s.byID[resourceID]
	if !ok {
		return
	}
	heap.Remove(&s.heap, r.index)
	delete(s.byID, resourceID)
}

func (s *schedule) deadline(resourceID string) (time.Time, bool) {
	r, ok := s.byID[resourceID]
	if !ok {
		return time.Time{}, false
	}
	return r.deadline, true
}

// next returns the earliest deadline.
func (s *schedule) next() (time.Time, bool) {
	if len(s.heap) == 0 {
		return time.Time{}, false
	}
	return s.heap[0].deadline, true
}

// due removes and returns the resources whose deadline is at or before now, earliest first.
func (s *schedule) due(now time.Time) []string {
	var ids []string
	for len(s.heap) > 0 && !s.heap[0].deadline.After(now) {
		r := heap.Pop(&s.heap).(*timerRecord)
		delete(s.byID, r.resourceID)
		ids = append(ids, r.resourceID)
	}
	return ids
}

func (s *schedule) len() int {
	return len(s.heap)
}
