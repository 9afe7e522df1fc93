package services

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/api"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/config"
)

// adapterConditionSuffixMap allows overriding the default suffix for specific adapters
// Currently empty - all adapters use "Successful" by default
var adapterConditionSuffixMap = map[string]string{}

// MapAdapterToConditionType converts an adapter name to the resource level condition
// type that mirrors its Available slot, by converting the adapter name to PascalCase
// and appending a suffix.
//
// Examples:
//   - "validator" → "ValidatorSuccessful"
//   - "dns" → "DnsSuccessful"
//   - "gcp-provisioner" → "GcpProvisionerSuccessful"
func MapAdapterToConditionType(adapterName string) string {
	suffix, exists := adapterConditionSuffixMap[adapterName]
	if !exists {
		suffix = "Successful"
	}

	parts := strings.Split(adapterName, "-")
	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			runes := []rune(part)
			runes[0] = unicode.ToUpper(runes[0])
			result.WriteString(string(runes))
		}
	}

	result.WriteString(suffix)
	return result.String()
}

// AvailabilityInput is the snapshot an AvailabilityRule decides on.
type AvailabilityInput struct {
	// Generation is the resource spec generation.
	Generation int32
	// Required lists the adapters whose reports decide availability.
	Required []string
	// Slots holds the Available slot of each adapter that reported one.
	Slots api.AdapterConditionIndex
	// Previous is the agreement cached on the resource before this derivation.
	Previous api.AvailabilityAgreement
}

// AvailabilityRule maps an Available snapshot to the new agreement and whether the
// resource is available. Implementations must be pure.
type AvailabilityRule interface {
	Name() string
	Evaluate(in AvailabilityInput) (api.AvailabilityAgreement, bool)
}

// PhasePolicy maps a derivation to its presentation phase.
type PhasePolicy interface {
	Name() string
	Phase(in AvailabilityInput, d *Derivation) api.ResourcePhase
}

// generationAgreementRule keeps the resource available at the last generation
// every required adapter agreed on. A newer generation is adopted only once all
// required adapters reported decisively at it.
type generationAgreementRule struct{}

func (generationAgreementRule) Name() string { return config.AvailabilityRuleGenerationAgreement }

func (generationAgreementRule) Evaluate(in AvailabilityInput) (api.AvailabilityAgreement, bool) {
	if len(in.Required) == 0 {
		return in.Previous.Copy(), false
	}

	var latest int32
	for _, adapter := range in.Required {
		if slot, ok := in.Slots[adapter]; ok && slot.ObservedGeneration > latest {
			latest = slot.ObservedGeneration
		}
	}

	caughtUp := latest > 0
	for _, adapter := range in.Required {
		slot, ok := in.Slots[adapter]
		if !ok || slot.ObservedGeneration != latest {
			caughtUp = false
			break
		}
	}

	var agreement api.AvailabilityAgreement
	if caughtUp {
		agreement = api.AvailabilityAgreement{
			Generation: latest,
			Adapters:   make(map[string]api.AdapterConditionStatus, len(in.Required)),
		}
		for _, adapter := range in.Required {
			agreement.Adapters[adapter] = in.Slots[adapter].Status
		}
	} else {
		// adapters still at the agreed generation keep it current, the ones
		// that moved on keep the status they last had for it
		agreement = in.Previous.Copy()
		for _, adapter := range in.Required {
			if slot, ok := in.Slots[adapter]; ok && agreement.Generation > 0 && slot.ObservedGeneration == agreement.Generation {
				agreement.Adapters[adapter] = slot.Status
			}
		}
	}

	return agreement, allTrue(in.Required, agreement)
}

// currentGenerationRule only counts reports for the current spec generation, a
// spec change drops availability until every adapter reported True again.
type currentGenerationRule struct{}

func (currentGenerationRule) Name() string { return config.AvailabilityRuleCurrentGeneration }

func (currentGenerationRule) Evaluate(in AvailabilityInput) (api.AvailabilityAgreement, bool) {
	agreement := api.AvailabilityAgreement{
		Generation: in.Generation,
		Adapters:   make(map[string]api.AdapterConditionStatus, len(in.Required)),
	}
	for _, adapter := range in.Required {
		if slot, ok := in.Slots[adapter]; ok && slot.ObservedGeneration == in.Generation {
			agreement.Adapters[adapter] = slot.Status
		}
	}
	if len(in.Required) == 0 {
		return agreement, false
	}
	return agreement, allTrue(in.Required, agreement)
}

func allTrue(required []string, agreement api.AvailabilityAgreement) bool {
	if agreement.Generation <= 0 || len(required) == 0 {
		return false
	}
	for _, adapter := range required {
		if agreement.Adapters[adapter] != api.AdapterConditionTrue {
			return false
		}
	}
	return true
}

type strictPhasePolicy struct{}

func (strictPhasePolicy) Name() string { return config.PhasePolicyStrict }

func (strictPhasePolicy) Phase(_ AvailabilityInput, d *Derivation) api.ResourcePhase {
	switch {
	case !d.Available:
		return api.PhaseNotReady
	case d.Ready:
		return api.PhaseReady
	default:
		return api.PhaseProgressing
	}
}

// progressingOnNewGenerationPolicy reads Progressing instead of NotReady while a
// generation newer than the agreed one is rolling out without any False report.
type progressingOnNewGenerationPolicy struct{}

func (progressingOnNewGenerationPolicy) Name() string {
	return config.PhasePolicyProgressingOnNewGeneration
}

func (progressingOnNewGenerationPolicy) Phase(in AvailabilityInput, d *Derivation) api.ResourcePhase {
	if d.Available {
		return strictPhasePolicy{}.Phase(in, d)
	}

	var newer, anyTrue bool
	for _, adapter := range in.Required {
		slot, ok := in.Slots[adapter]
		if !ok || slot.ObservedGeneration <= d.Agreement.Generation {
			continue
		}
		newer = true
		switch slot.Status {
		case api.AdapterConditionFalse:
			return api.PhaseNotReady
		case api.AdapterConditionTrue:
			anyTrue = true
		}
	}
	if newer && anyTrue {
		return api.PhaseProgressing
	}
	return api.PhaseNotReady
}

// NewAvailabilityRule returns the rule registered under name.
func NewAvailabilityRule(name string) (AvailabilityRule, error) {
	switch name {
	case config.AvailabilityRuleGenerationAgreement, "":
		return generationAgreementRule{}, nil
	case config.AvailabilityRuleCurrentGeneration:
		return currentGenerationRule{}, nil
	}
	return nil, fmt.Errorf("unknown availability rule %q", name)
}

// NewPhasePolicy returns the policy registered under name.
func NewPhasePolicy(name string) (PhasePolicy, error) {
	switch name {
	case config.PhasePolicyStrict, "":
		return strictPhasePolicy{}, nil
	case config.PhasePolicyProgressingOnNewGeneration:
		return progressingOnNewGenerationPolicy{}, nil
	}
	return nil, fmt.Errorf("unknown phase policy %q", name)
}

// StatusInput is everything a derivation reads.
type StatusInput struct {
	Generation int32
	Required   []string
	// Slots are all condition slots of the resource, any type.
	Slots              api.AdapterConditionList
	Previous           api.AvailabilityAgreement
	PreviousConditions []api.ResourceCondition
	Now                time.Time
}

// Derivation is the derived status of a resource.
type Derivation struct {
	Agreement  api.AvailabilityAgreement
	Available  bool
	Ready      bool
	Phase      api.ResourcePhase
	Conditions []api.ResourceCondition
}

// StatusDeriver derives Available, Ready and the phase from a snapshot of condition slots.
type StatusDeriver struct {
	rule   AvailabilityRule
	policy PhasePolicy
}

func NewStatusDeriver(rule AvailabilityRule, policy PhasePolicy) *StatusDeriver {
	return &StatusDeriver{rule: rule, policy: policy}
}

// NewStatusDeriverFromConfig builds the deriver selected by the aggregator settings.
func NewStatusDeriverFromConfig(cfg *config.AggregatorConfig) (*StatusDeriver, error) {
	rule, err := NewAvailabilityRule(cfg.AvailabilityRule)
	if err != nil {
		return nil, err
	}
	policy, err := NewPhasePolicy(cfg.PhasePolicy)
	if err != nil {
		return nil, err
	}
	return NewStatusDeriver(rule, policy), nil
}

// Derive is a pure function of its input.
func (d *StatusDeriver) Derive(in StatusInput) *Derivation {
	availableSlots := in.Slots.ByType(api.ConditionTypeAvailable)
	ai := AvailabilityInput{
		Generation: in.Generation,
		Required:   in.Required,
		Slots:      availableSlots,
		Previous:   in.Previous,
	}

	agreement, available := d.rule.Evaluate(ai)
	out := &Derivation{Agreement: agreement, Available: available}

	// Ready needs every required adapter caught up with the spec
	out.Ready = available && agreement.Generation == in.Generation
	for _, adapter := range in.Required {
		slot, ok := availableSlots[adapter]
		if !ok || slot.ObservedGeneration != in.Generation {
			out.Ready = false
			break
		}
	}
	out.Phase = d.policy.Phase(ai, out)

	previous := map[string]api.ResourceCondition{}
	for _, c := range in.PreviousConditions {
		previous[c.Type] = c
	}

	availableCond := resourceCondition(previous, api.ConditionTypeAvailable, available, agreement.Generation, in.Now)
	availableCond.Reason, availableCond.Message = availabilityReason(in.Required, agreement, available)
	readyCond := resourceCondition(previous, api.ConditionTypeReady, out.Ready, in.Generation, in.Now)
	readyCond.Reason, readyCond.Message = readinessReason(in, availableSlots, out)

	out.Conditions = []api.ResourceCondition{availableCond, readyCond}

	adapters := make([]string, 0, len(availableSlots))
	for adapter := range availableSlots {
		adapters = append(adapters, adapter)
	}
	sort.Strings(adapters)
	for _, adapter := range adapters {
		slot := availableSlots[adapter]
		c := api.ResourceCondition{
			Type:               MapAdapterToConditionType(adapter),
			Status:             api.ResourceConditionStatus(slot.Status),
			Reason:             slot.Reason,
			Message:            slot.Message,
			ObservedGeneration: slot.ObservedGeneration,
			CreatedTime:        slot.CreatedTime,
			LastUpdatedTime:    slot.LastUpdatedTime,
			LastTransitionTime: slot.LastTransitionTime,
		}
		out.Conditions = append(out.Conditions, c)
	}

	return out
}

func resourceCondition(
	previous map[string]api.ResourceCondition, conditionType string, value bool, generation int32, now time.Time,
) api.ResourceCondition {
	status := api.ConditionFalse
	if value {
		status = api.ConditionTrue
	}
	c := api.ResourceCondition{
		Type:               conditionType,
		Status:             status,
		ObservedGeneration: generation,
		CreatedTime:        now,
		LastUpdatedTime:    now,
		LastTransitionTime: now,
	}
	if prev, ok := previous[conditionType]; ok {
		c.CreatedTime = prev.CreatedTime
		if prev.Status == status {
			c.LastTransitionTime = prev.LastTransitionTime
		}
	}
	return c
}

func availabilityReason(required []string, agreement api.AvailabilityAgreement, available bool) (*string, *string) {
	switch {
	case len(required) == 0:
		return strPtr("NoRequiredAdapters"), strPtr("No adapters are required for this kind")
	case available:
		return strPtr("AllAdaptersAvailable"),
			strPtr(fmt.Sprintf("All required adapters are available at generation %d", agreement.Generation))
	case agreement.Generation == 0:
		return strPtr("AwaitingAdapters"), strPtr("Required adapters have not agreed on any generation yet")
	}
	var failing []string
	for _, adapter := range required {
		if agreement.Adapters[adapter] != api.AdapterConditionTrue {
			failing = append(failing, adapter)
		}
	}
	return strPtr("AdaptersNotAvailable"), strPtr(fmt.Sprintf(
		"Adapters not available at generation %d: %s", agreement.Generation, strings.Join(failing, ", ")))
}

func readinessReason(in StatusInput, slots api.AdapterConditionIndex, d *Derivation) (*string, *string) {
	if d.Ready {
		return strPtr("AllAdaptersReady"),
			strPtr(fmt.Sprintf("All required adapters are available at generation %d", in.Generation))
	}
	if !d.Available {
		return strPtr("NotAvailable"), strPtr("Resource is not available")
	}
	var behind []string
	for _, adapter := range in.Required {
		if slot, ok := slots[adapter]; !ok || slot.ObservedGeneration != in.Generation {
			behind = append(behind, adapter)
		}
	}
	return strPtr("GenerationPending"), strPtr(fmt.Sprintf(
		"Adapters not yet reconciled to generation %d: %s", in.Generation, strings.Join(behind, ", ")))
}

func strPtr(s string) *string {
	return &s
}
