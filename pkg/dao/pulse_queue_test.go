package dao

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	. "github.com/onsi/gomega"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/db"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/db/mocks"
)

func TestClaimQuery_SkipsLockedRows(t *testing.T) {
	RegisterTestingT(t)

	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	query, args, err := claimQuery("dns", 5, now, 30*time.Second)
	Expect(err).NotTo(HaveOccurred())

	Expect(query).To(HavePrefix("UPDATE pulse_queue SET visible_at = ?, attempts = attempts + 1, updated_time = ?"))
	Expect(query).To(ContainSubstring("WHERE id IN (SELECT id FROM pulse_queue WHERE adapter = ? AND deleted_at IS NULL AND visible_at <= ?"))
	Expect(query).To(ContainSubstring("LIMIT 5 FOR UPDATE SKIP LOCKED)"))
	Expect(query).To(HaveSuffix("RETURNING *"))
	Expect(strings.Count(query, "?")).To(Equal(len(args)))

	Expect(args).To(Equal([]interface{}{now.Add(30 * time.Second), now, "dns", now}))
}

func TestPulseQueueDao_Claim(t *testing.T) {
	RegisterTestingT(t)

	factory, err := mocks.NewMockSessionFactory()
	Expect(err).NotTo(HaveOccurred())
	var sessionFactory db.SessionFactory = factory
	queue := NewPulseQueueDao(&sessionFactory)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "adapter", "resource_id", "payload", "visible_at", "attempts"}).
		AddRow("p1", "dns", "r1", []byte(`{"generation":2}`), now.Add(time.Minute), 1)
	factory.Mock.ExpectQuery(regexp.QuoteMeta("UPDATE pulse_queue SET visible_at = $1")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "dns", sqlmock.AnyArg()).
		WillReturnRows(rows)

	claimed, err := queue.Claim(context.Background(), "dns", 10, now, time.Minute)
	Expect(err).NotTo(HaveOccurred())
	Expect(claimed).To(HaveLen(1))
	Expect(claimed[0].ID).To(Equal("p1"))
	Expect(claimed[0].ResourceID).To(Equal("r1"))
	Expect(claimed[0].Attempts).To(BeEquivalentTo(1))
	Expect(factory.Mock.ExpectationsWereMet()).To(Succeed())
}

func TestPulseQueueDao_Notify(t *testing.T) {
	RegisterTestingT(t)

	factory, err := mocks.NewMockSessionFactory()
	Expect(err).NotTo(HaveOccurred())
	var sessionFactory db.SessionFactory = factory
	queue := NewPulseQueueDao(&sessionFactory)

	factory.Mock.ExpectExec(regexp.QuoteMeta("SELECT pg_notify($1, $2)")).
		WithArgs("hyperfleet_pulses", "dns").
		WillReturnResult(sqlmock.NewResult(0, 1))

	Expect(queue.Notify(context.Background(), "hyperfleet_pulses", "dns")).To(Succeed())
	Expect(factory.Mock.ExpectationsWereMet()).To(Succeed())
}
