package services

import (
	"testing"
	"time"

	. "github.com/onsi/gomega"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/api"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/config"
)

func TestMapAdapterToConditionType(t *testing.T) {
	tests := []struct {
		adapter  string
		expected string
	}{
		{"validator", "ValidatorSuccessful"},
		{"dns", "DnsSuccessful"},
		{"gcp-provisioner", "GcpProvisionerSuccessful"},
		{"unknown-adapter", "UnknownAdapterSuccessful"},
		{"multi-word-adapter", "MultiWordAdapterSuccessful"},
		{"single", "SingleSuccessful"},
	}

	for _, tt := range tests {
		result := MapAdapterToConditionType(tt.adapter)
		if result != tt.expected {
			t.Errorf("MapAdapterToConditionType(%q) = %q, want %q",
				tt.adapter, result, tt.expected)
		}
	}
}

// Test custom suffix mapping (for future use)
func TestMapAdapterToConditionType_CustomSuffix(t *testing.T) {
	// Temporarily add a custom mapping
	adapterConditionSuffixMap["test-adapter"] = "Ready"
	defer delete(adapterConditionSuffixMap, "test-adapter")

	result := MapAdapterToConditionType("test-adapter")
	expected := "TestAdapterReady"
	if result != expected {
		t.Errorf("MapAdapterToConditionType(%q) = %q, want %q",
			"test-adapter", result, expected)
	}
}

// Test that default behavior still works after custom suffix is removed
func TestMapAdapterToConditionType_DefaultAfterCustom(t *testing.T) {
	// Add and then remove custom mapping
	adapterConditionSuffixMap["dns"] = "Ready"
	delete(adapterConditionSuffixMap, "dns")

	result := MapAdapterToConditionType("dns")
	expected := "DnsSuccessful"
	if result != expected {
		t.Errorf("MapAdapterToConditionType(%q) = %q, want %q (should revert to default)",
			"dns", result, expected)
	}
}

func availableSlot(adapter string, gen int32, status api.AdapterConditionStatus) *api.AdapterCondition {
	return &api.AdapterCondition{
		Adapter:            adapter,
		Type:               api.ConditionTypeAvailable,
		Status:             status,
		ObservedGeneration: gen,
	}
}

func agreedAt(gen int32, adapters ...string) api.AvailabilityAgreement {
	a := api.AvailabilityAgreement{Generation: gen, Adapters: map[string]api.AdapterConditionStatus{}}
	for _, adapter := range adapters {
		a.Adapters[adapter] = api.AdapterConditionTrue
	}
	return a
}

func strictDeriver() *StatusDeriver {
	return NewStatusDeriver(generationAgreementRule{}, strictPhasePolicy{})
}

func TestDerive_AllAdaptersTrueAtSpecGeneration(t *testing.T) {
	RegisterTestingT(t)

	d := strictDeriver().Derive(StatusInput{
		Generation: 1,
		Required:   []string{"dns", "validation"},
		Slots: api.AdapterConditionList{
			availableSlot("dns", 1, api.AdapterConditionTrue),
			availableSlot("validation", 1, api.AdapterConditionTrue),
		},
		Now: time.Now(),
	})

	Expect(d.Available).To(BeTrue())
	Expect(d.Ready).To(BeTrue())
	Expect(d.Phase).To(Equal(api.PhaseReady))
	Expect(d.Agreement.Generation).To(BeEquivalentTo(1))
	Expect(d.Conditions[0].Type).To(Equal(api.ConditionTypeAvailable))
	Expect(d.Conditions[1].Type).To(Equal(api.ConditionTypeReady))
	Expect(d.Conditions[2].Type).To(Equal("DnsSuccessful"))
	Expect(d.Conditions[3].Type).To(Equal("ValidationSuccessful"))
}

func TestDerive_KeepsLastAgreedGenerationWhileAdaptersCatchUp(t *testing.T) {
	RegisterTestingT(t)

	d := strictDeriver().Derive(StatusInput{
		Generation: 2,
		Required:   []string{"dns", "validation"},
		Slots: api.AdapterConditionList{
			availableSlot("dns", 2, api.AdapterConditionTrue),
			availableSlot("validation", 1, api.AdapterConditionTrue),
		},
		Previous: agreedAt(1, "dns", "validation"),
		Now:      time.Now(),
	})

	Expect(d.Available).To(BeTrue())
	Expect(d.Ready).To(BeFalse())
	Expect(d.Phase).To(Equal(api.PhaseProgressing))
	Expect(d.Agreement.Generation).To(BeEquivalentTo(1))
	Expect(*d.Conditions[1].Reason).To(Equal("GenerationPending"))
}

func TestDerive_FalseAtAgreedGenerationDropsAvailability(t *testing.T) {
	RegisterTestingT(t)

	d := strictDeriver().Derive(StatusInput{
		Generation: 2,
		Required:   []string{"dns", "validation"},
		Slots: api.AdapterConditionList{
			availableSlot("dns", 2, api.AdapterConditionTrue),
			availableSlot("validation", 2, api.AdapterConditionFalse),
		},
		Previous: agreedAt(2, "dns", "validation"),
		Now:      time.Now(),
	})

	Expect(d.Available).To(BeFalse())
	Expect(d.Ready).To(BeFalse())
	Expect(d.Phase).To(Equal(api.PhaseNotReady))
	Expect(*d.Conditions[0].Message).To(ContainSubstring("validation"))
}

func TestDerive_FalseAtNewerGenerationKeepsAgreement(t *testing.T) {
	RegisterTestingT(t)

	d := strictDeriver().Derive(StatusInput{
		Generation: 3,
		Required:   []string{"dns", "validation"},
		Slots: api.AdapterConditionList{
			availableSlot("dns", 3, api.AdapterConditionFalse),
			availableSlot("validation", 2, api.AdapterConditionTrue),
		},
		Previous: agreedAt(2, "dns", "validation"),
		Now:      time.Now(),
	})

	Expect(d.Available).To(BeTrue())
	Expect(d.Agreement.Generation).To(BeEquivalentTo(2))
	Expect(d.Agreement.Adapters["dns"]).To(Equal(api.AdapterConditionTrue))
	Expect(d.Ready).To(BeFalse())
}

func TestDerive_AdaptersAtAgreedGenerationUpdateIt(t *testing.T) {
	RegisterTestingT(t)

	// validation flipped to False at the agreed generation while dns moved on
	d := strictDeriver().Derive(StatusInput{
		Generation: 3,
		Required:   []string{"dns", "validation"},
		Slots: api.AdapterConditionList{
			availableSlot("dns", 3, api.AdapterConditionTrue),
			availableSlot("validation", 2, api.AdapterConditionFalse),
		},
		Previous: agreedAt(2, "dns", "validation"),
		Now:      time.Now(),
	})

	Expect(d.Available).To(BeFalse())
	Expect(d.Agreement.Generation).To(BeEquivalentTo(2))
	Expect(d.Agreement.Adapters["validation"]).To(Equal(api.AdapterConditionFalse))
}

func TestDerive_MissingAdapterIsNotAvailable(t *testing.T) {
	RegisterTestingT(t)

	d := strictDeriver().Derive(StatusInput{
		Generation: 1,
		Required:   []string{"dns", "validation"},
		Slots:      api.AdapterConditionList{availableSlot("dns", 1, api.AdapterConditionTrue)},
		Now:        time.Now(),
	})

	Expect(d.Available).To(BeFalse())
	Expect(d.Phase).To(Equal(api.PhaseNotReady))
	Expect(*d.Conditions[0].Reason).To(Equal("AwaitingAdapters"))
}

func TestDerive_NoRequiredAdapters(t *testing.T) {
	RegisterTestingT(t)

	d := strictDeriver().Derive(StatusInput{
		Generation: 1,
		Slots:      api.AdapterConditionList{availableSlot("dns", 1, api.AdapterConditionTrue)},
		Now:        time.Now(),
	})

	Expect(d.Available).To(BeFalse())
	Expect(d.Ready).To(BeFalse())
	Expect(*d.Conditions[0].Reason).To(Equal("NoRequiredAdapters"))
}

func TestDerive_NonRequiredAdaptersDoNotGate(t *testing.T) {
	RegisterTestingT(t)

	d := strictDeriver().Derive(StatusInput{
		Generation: 1,
		Required:   []string{"dns"},
		Slots: api.AdapterConditionList{
			availableSlot("dns", 1, api.AdapterConditionTrue),
			availableSlot("experimental", 1, api.AdapterConditionFalse),
		},
		Now: time.Now(),
	})

	Expect(d.Available).To(BeTrue())
	Expect(d.Ready).To(BeTrue())
}

func TestDerive_ReadyImpliesAvailable(t *testing.T) {
	RegisterTestingT(t)

	statuses := []api.AdapterConditionStatus{api.AdapterConditionTrue, api.AdapterConditionFalse}
	for _, rule := range []AvailabilityRule{generationAgreementRule{}, currentGenerationRule{}} {
		deriver := NewStatusDeriver(rule, strictPhasePolicy{})
		for specGen := int32(1); specGen <= 3; specGen++ {
			for dnsGen := int32(1); dnsGen <= specGen; dnsGen++ {
				for valGen := int32(1); valGen <= specGen; valGen++ {
					for _, dnsStatus := range statuses {
						for _, valStatus := range statuses {
							d := deriver.Derive(StatusInput{
								Generation: specGen,
								Required:   []string{"dns", "validation"},
								Slots: api.AdapterConditionList{
									availableSlot("dns", dnsGen, dnsStatus),
									availableSlot("validation", valGen, valStatus),
								},
								Previous: agreedAt(1, "dns", "validation"),
								Now:      time.Now(),
							})
							if d.Ready {
								Expect(d.Available).To(BeTrue(), "rule %s", rule.Name())
							}
						}
					}
				}
			}
		}
	}
}

func TestDerive_PreservesTransitionTimeWhenStatusUnchanged(t *testing.T) {
	RegisterTestingT(t)

	earlier := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := earlier.Add(time.Hour)
	d := strictDeriver().Derive(StatusInput{
		Generation: 1,
		Required:   []string{"dns"},
		Slots:      api.AdapterConditionList{availableSlot("dns", 1, api.AdapterConditionTrue)},
		PreviousConditions: []api.ResourceCondition{
			{Type: api.ConditionTypeAvailable, Status: api.ConditionTrue, CreatedTime: earlier, LastTransitionTime: earlier},
			{Type: api.ConditionTypeReady, Status: api.ConditionFalse, CreatedTime: earlier, LastTransitionTime: earlier},
		},
		Now: now,
	})

	Expect(d.Conditions[0].LastTransitionTime).To(Equal(earlier))
	Expect(d.Conditions[0].LastUpdatedTime).To(Equal(now))
	Expect(d.Conditions[1].CreatedTime).To(Equal(earlier))
	Expect(d.Conditions[1].LastTransitionTime).To(Equal(now))
}

func TestCurrentGenerationRule_SpecChangeDropsAvailability(t *testing.T) {
	RegisterTestingT(t)

	d := NewStatusDeriver(currentGenerationRule{}, strictPhasePolicy{}).Derive(StatusInput{
		Generation: 2,
		Required:   []string{"dns", "validation"},
		Slots: api.AdapterConditionList{
			availableSlot("dns", 2, api.AdapterConditionTrue),
			availableSlot("validation", 1, api.AdapterConditionTrue),
		},
		Previous: agreedAt(1, "dns", "validation"),
		Now:      time.Now(),
	})

	Expect(d.Available).To(BeFalse())
	Expect(d.Phase).To(Equal(api.PhaseNotReady))
}

func TestPhasePolicy_ProgressingOnNewGeneration(t *testing.T) {
	RegisterTestingT(t)

	// Ready at 1, then NotReady at 1, then generation 2 rolls out
	previous := agreedAt(1, "dns", "validation")
	previous.Adapters["validation"] = api.AdapterConditionFalse
	in := StatusInput{
		Generation: 2,
		Required:   []string{"dns", "validation"},
		Slots: api.AdapterConditionList{
			availableSlot("dns", 2, api.AdapterConditionTrue),
			availableSlot("validation", 1, api.AdapterConditionFalse),
		},
		Previous: previous,
		Now:      time.Now(),
	}

	strict := strictDeriver().Derive(in)
	Expect(strict.Available).To(BeFalse())
	Expect(strict.Phase).To(Equal(api.PhaseNotReady))

	progressing := NewStatusDeriver(generationAgreementRule{}, progressingOnNewGenerationPolicy{}).Derive(in)
	Expect(progressing.Available).To(BeFalse())
	Expect(progressing.Phase).To(Equal(api.PhaseProgressing))

	// a False at the new generation keeps it NotReady
	in.Slots = api.AdapterConditionList{
		availableSlot("dns", 2, api.AdapterConditionFalse),
		availableSlot("validation", 1, api.AdapterConditionFalse),
	}
	Expect(NewStatusDeriver(generationAgreementRule{}, progressingOnNewGenerationPolicy{}).Derive(in).Phase).
		To(Equal(api.PhaseNotReady))
}

func TestNewStatusDeriverFromConfig(t *testing.T) {
	RegisterTestingT(t)

	d, err := NewStatusDeriverFromConfig(&config.AggregatorConfig{
		AvailabilityRule: config.AvailabilityRuleCurrentGeneration,
		PhasePolicy:      config.PhasePolicyProgressingOnNewGeneration,
	})
	Expect(err).NotTo(HaveOccurred())
	Expect(d.rule.Name()).To(Equal(config.AvailabilityRuleCurrentGeneration))
	Expect(d.policy.Name()).To(Equal(config.PhasePolicyProgressingOnNewGeneration))

	_, err = NewStatusDeriverFromConfig(&config.AggregatorConfig{AvailabilityRule: "cel"})
	Expect(err).To(MatchError(ContainSubstring("unknown availability rule")))
}
