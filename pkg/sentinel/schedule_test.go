package sentinel

import (
	"testing"
	"time"

	. "github.com/onsi/gomega"
)

func TestSchedule_DueInDeadlineOrder(t *testing.T) {
	RegisterTestingT(t)

	base := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	s := newSchedule()
	s.set("c", base.Add(3*time.Second))
	s.set("a", base.Add(time.Second))
	s.set("b", base.Add(2*time.Second))
	s.set("d", base.Add(time.Hour))

	next, ok := s.next()
	Expect(ok).To(BeTrue())
	Expect(next).To(Equal(base.Add(time.Second)))

	Expect(s.due(base.Add(3 * time.Second))).To(Equal([]string{"a", "b", "c"}))
	Expect(s.len()).To(Equal(1))
	Expect(s.due(base.Add(time.Minute))).To(BeEmpty())
}

func TestSchedule_SetMovesExistingTimer(t *testing.T) {
	RegisterTestingT(t)

	base := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	s := newSchedule()
	s.set("a", base.Add(time.Second))
	s.set("b", base.Add(2*time.Second))
	s.set("a", base.Add(time.Minute))

	Expect(s.len()).To(Equal(2))
	Expect(s.due(base.Add(10 * time.Second))).To(Equal([]string{"b"}))

	deadline, ok := s.deadline("a")
	Expect(ok).To(BeTrue())
	Expect(deadline).To(Equal(base.Add(time.Minute)))
}

func TestSchedule_Remove(t *testing.T) {
	RegisterTestingT(t)

	base := time.Now()
	s := newSchedule()
	s.set("a", base)
	s.set("b", base.Add(time.Second))
	s.remove("a")
	s.remove("missing")

	next, _ := s.next()
	Expect(next).To(Equal(base.Add(time.Second)))
	_, ok := s.deadline("a")
	Expect(ok).To(BeFalse())
}
