package presenters

import (
	"encoding/json"
	"testing"
	"time"

	. "github.com/onsi/gomega"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/api"
)

func TestConvertResource(t *testing.T) {
	RegisterTestingT(t)

	labels := map[string]string{"env": "test"}
	req := &api.ResourceCreateRequest{
		Name:   "cluster-a",
		Spec:   map[string]interface{}{"region": "us-east-1"},
		Labels: &labels,
	}

	resource, err := ConvertResource(req, "Cluster")
	Expect(err).To(BeNil())
	Expect(resource.Kind).To(Equal("Cluster"))
	Expect(resource.Generation).To(Equal(int32(1)))
	Expect(string(resource.Spec)).To(MatchJSON(`{"region":"us-east-1"}`))
	Expect(string(resource.Labels)).To(MatchJSON(`{"env":"test"}`))
}

func TestPresentResource_StatusAndHref(t *testing.T) {
	RegisterTestingT(t)

	now := time.Now()
	conditions, _ := json.Marshal([]api.ResourceCondition{
		{Type: api.ConditionTypeAvailable, Status: api.ConditionTrue, ObservedGeneration: 1},
		{Type: api.ConditionTypeReady, Status: api.ConditionFalse, ObservedGeneration: 2},
	})
	agreement, _ := json.Marshal(api.AvailabilityAgreement{Generation: 1})

	resource := &api.Resource{
		Meta:                  api.Meta{ID: "abc", CreatedTime: now, UpdatedTime: now},
		Kind:                  "Cluster",
		Name:                  "cluster-a",
		Spec:                  []byte(`{"region":"eu"}`),
		Generation:            2,
		StatusPhase:           api.PhaseProgressing,
		StatusConditions:      conditions,
		StatusAgreement:       agreement,
		StatusLastUpdatedTime: &now,
	}

	out, err := PresentResource(resource, "clusters")
	Expect(err).To(BeNil())
	Expect(out.Href).To(Equal("/api/hyperfleet/v1/clusters/abc"))
	Expect(out.Status.Phase).To(Equal(api.PhaseProgressing))
	Expect(out.Status.AgreedGeneration).To(Equal(int32(1)))
	Expect(out.Status.Generation).To(Equal(int32(2)))
	Expect(out.Status.Conditions).To(HaveLen(2))
	Expect(out.Status.LastUpdatedTime).ToNot(BeNil())
}

func TestPresentResource_BadSpec(t *testing.T) {
	RegisterTestingT(t)

	_, err := PresentResource(&api.Resource{Spec: []byte("{not json")}, "clusters")
	Expect(err).To(HaveOccurred())
}

func TestResourceStatus_Condition(t *testing.T) {
	RegisterTestingT(t)

	status := PresentResourceStatus(&api.ResourceStatus{
		ResourceID: "abc",
		AdapterConditions: api.AdapterConditionList{
			{Adapter: "dns", Type: api.ConditionTypeAvailable, Status: api.AdapterConditionTrue, ObservedGeneration: 3},
		},
	})
	Expect(status.Conditions).ToNot(BeNil())

	c, ok := status.Condition("dns", api.ConditionTypeAvailable)
	Expect(ok).To(BeTrue())
	Expect(c.ObservedGeneration).To(Equal(int32(3)))

	_, ok = status.Condition("dns", api.ConditionTypeHealth)
	Expect(ok).To(BeFalse())
}
