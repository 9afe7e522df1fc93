package api

import (
	"testing"

	. "github.com/onsi/gomega"
)

func TestAdapterConditionStatus_Validity(t *testing.T) {
	RegisterTestingT(t)

	Expect(AdapterConditionTrue.IsValid()).To(BeTrue())
	Expect(AdapterConditionUnknown.IsValid()).To(BeTrue())
	Expect(AdapterConditionStatus("Maybe").IsValid()).To(BeFalse())
	Expect(AdapterConditionStatus("true").IsValid()).To(BeFalse())

	Expect(AdapterConditionTrue.IsDecisive()).To(BeTrue())
	Expect(AdapterConditionFalse.IsDecisive()).To(BeTrue())
	Expect(AdapterConditionUnknown.IsDecisive()).To(BeFalse())
}

func TestAvailabilityAgreement_CopyIsDeep(t *testing.T) {
	RegisterTestingT(t)

	orig := AvailabilityAgreement{Generation: 2, Adapters: map[string]AdapterConditionStatus{"dns": AdapterConditionTrue}}
	cp := orig.Copy()
	cp.Adapters["dns"] = AdapterConditionFalse
	cp.Generation = 3

	Expect(orig.Adapters["dns"]).To(Equal(AdapterConditionTrue))
	Expect(orig.Generation).To(Equal(int32(2)))
}

func TestAdapterConditionList_ByType(t *testing.T) {
	RegisterTestingT(t)

	list := AdapterConditionList{
		{Adapter: "dns", Type: ConditionTypeAvailable},
		{Adapter: "dns", Type: ConditionTypeApplied},
		{Adapter: "validation", Type: ConditionTypeAvailable},
	}
	idx := list.ByType(ConditionTypeAvailable)
	Expect(idx).To(HaveLen(2))
	Expect(idx).To(HaveKey("dns"))
	Expect(idx).To(HaveKey("validation"))
}

func TestAdapterTask_IsTerminal(t *testing.T) {
	RegisterTestingT(t)

	for state, terminal := range map[TaskState]bool{
		TaskNotStarted: false,
		TaskInProgress: false,
		TaskSucceeded:  true,
		TaskFailed:     true,
	} {
		task := &AdapterTask{State: state}
		Expect(task.IsTerminal()).To(Equal(terminal), string(state))
	}

	key := TaskKey{ResourceID: "r1", Adapter: "dns", Generation: 3}
	Expect(key.String()).To(Equal("dns/r1/3"))
}
