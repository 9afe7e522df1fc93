package dao

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	. "github.com/onsi/gomega"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/api"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/db"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/db/mocks"
)

func newConditionDao(t *testing.T) (AdapterConditionDao, sqlmock.Sqlmock) {
	factory, err := mocks.NewMockSessionFactory()
	Expect(err).NotTo(HaveOccurred())
	var sessionFactory db.SessionFactory = factory
	return NewAdapterConditionDao(&sessionFactory), factory.Mock
}

func availableCondition(gen int32, status api.AdapterConditionStatus) *api.AdapterCondition {
	return &api.AdapterCondition{
		ResourceType:       "Cluster",
		ResourceID:         "r1",
		Adapter:            "dns",
		Type:               api.ConditionTypeAvailable,
		Status:             status,
		ObservedGeneration: gen,
		LastUpdatedTime:    time.Now(),
	}
}

func TestAdapterConditionDao_Apply_UpdatesWhenGenerationNotOlder(t *testing.T) {
	RegisterTestingT(t)
	conditions, mock := newConditionDao(t)

	mock.ExpectExec(`UPDATE "adapter_conditions" SET .* WHERE .*observed_generation <= \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	accepted, err := conditions.Apply(context.Background(), availableCondition(3, api.AdapterConditionTrue))
	Expect(err).NotTo(HaveOccurred())
	Expect(accepted).To(BeTrue())
	Expect(mock.ExpectationsWereMet()).To(Succeed())
}

func TestAdapterConditionDao_Apply_PropagatesErrors(t *testing.T) {
	RegisterTestingT(t)
	conditions, mock := newConditionDao(t)

	mock.ExpectExec(`UPDATE "adapter_conditions"`).WillReturnError(errors.New("connection reset by peer"))

	accepted, err := conditions.Apply(context.Background(), availableCondition(1, api.AdapterConditionFalse))
	Expect(err).To(HaveOccurred())
	Expect(accepted).To(BeFalse())
}
