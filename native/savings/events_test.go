package savings

import (
	"math/big"
	"testing"

	"ajochain/core/events"
	"ajochain/crypto"
)

func TestPlanCreatedEventAttributes(t *testing.T) {
	plan := &Plan{
		ID:                 7,
		Name:               "Esusu",
		Creator:            creator,
		TotalParticipants:  4,
		ContributionAmount: big.NewInt(5_000),
		Frequency:          FrequencyWeekly,
		DurationMonths:     2,
		AllowPartial:       true,
		Asset:              "NGN",
		CreatedAt:          42,
	}
	evt := NewPlanCreatedEvent(plan)
	if evt.Type != EventTypePlanCreated {
		t.Fatalf("unexpected type %s", evt.Type)
	}
	want := map[string]string{
		"planId":             "7",
		"creator":            crypto.FormatAccount(creator),
		"asset":              "NGN",
		"contributionAmount": "5000",
		"frequency":          "weekly",
		"allowPartial":       "true",
		"createdAt":          "42",
	}
	for key, value := range want {
		if got := evt.Attributes[key]; got != value {
			t.Fatalf("attribute %s: got %q want %q", key, got, value)
		}
	}
}

func TestEngineEventsCarryPayload(t *testing.T) {
	f := newFixture(t)
	f.createPlan(t, defaultParams())
	for _, emitted := range f.events.Drain() {
		payload := events.Payload(emitted)
		if payload == nil || payload.Type != emitted.EventType() {
			t.Fatalf("event %s lacks a matching payload", emitted.EventType())
		}
	}
}

func TestNilSafeEventBuilders(t *testing.T) {
	if evt := NewPayoutEvent(nil); evt.Type != EventTypePayout || len(evt.Attributes) != 0 {
		t.Fatalf("unexpected nil payout event %+v", evt)
	}
	if evt := NewContributionEvent(nil, "NGN"); len(evt.Attributes) != 0 {
		t.Fatalf("unexpected nil contribution event %+v", evt)
	}
	if evt := NewModulePauseEvent(true); evt.Type != EventTypeModulePaused {
		t.Fatalf("unexpected pause event type %s", evt.Type)
	}
}
