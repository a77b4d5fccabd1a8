package savings

import (
	"errors"
	"math/big"
	"strings"
	"testing"
)

func TestCreatePlanParticipantBounds(t *testing.T) {
	cases := []struct {
		total uint32
		ok    bool
	}{
		{1, false},
		{2, true},
		{100, true},
		{101, false},
	}
	for _, tc := range cases {
		f := newFixture(t)
		params := defaultParams()
		params.TotalParticipants = tc.total
		_, err := f.engine.CreatePlan(creator, params)
		if tc.ok && err != nil {
			t.Fatalf("total=%d: unexpected error %v", tc.total, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidPlanParameters) {
			t.Fatalf("total=%d: expected ErrInvalidPlanParameters, got %v", tc.total, err)
		}
	}
}

func TestCreatePlanRejectsInvalidParameters(t *testing.T) {
	mutations := map[string]func(*CreatePlanParams){
		"short name":        func(p *CreatePlanParams) { p.Name = "ab" },
		"long name":         func(p *CreatePlanParams) { p.Name = strings.Repeat("n", 51) },
		"long description":  func(p *CreatePlanParams) { p.Description = strings.Repeat("d", 501) },
		"small amount":      func(p *CreatePlanParams) { p.ContributionAmount = big.NewInt(99) },
		"nil amount":        func(p *CreatePlanParams) { p.ContributionAmount = nil },
		"zero duration":     func(p *CreatePlanParams) { p.DurationMonths = 0 },
		"long duration":     func(p *CreatePlanParams) { p.DurationMonths = 61 },
		"trust above range": func(p *CreatePlanParams) { p.TrustScoreRequired = 101 },
		"bad frequency":     func(p *CreatePlanParams) { p.Frequency = Frequency(9) },
		"missing asset":     func(p *CreatePlanParams) { p.Asset = " " },
		"unsupported asset": func(p *CreatePlanParams) { p.Asset = "DOGE" },
	}
	for name, mutate := range mutations {
		f := newFixture(t)
		params := defaultParams()
		mutate(&params)
		before := f.state.snapshot()
		if _, err := f.engine.CreatePlan(creator, params); !errors.Is(err, ErrInvalidPlanParameters) {
			t.Fatalf("%s: expected ErrInvalidPlanParameters, got %v", name, err)
		}
		f.expectUnchanged(t, before)
		if len(f.events.Drain()) != 0 {
			t.Fatalf("%s: failed creation emitted events", name)
		}
	}
}

func TestCreatePlanBoundaryValues(t *testing.T) {
	f := newFixture(t)
	params := defaultParams()
	params.Name = "abc"
	params.Description = ""
	params.ContributionAmount = big.NewInt(100)
	params.DurationMonths = 60
	params.TrustScoreRequired = 100
	if _, err := f.engine.CreatePlan(creator, params); err != nil {
		t.Fatalf("boundary values rejected: %v", err)
	}
}

func TestCreatePlanInitialState(t *testing.T) {
	f := newFixture(t)
	id := f.createPlan(t, defaultParams())
	if id != 1 {
		t.Fatalf("expected first plan id 1, got %d", id)
	}
	plan, ok, err := f.engine.Plan(id)
	if err != nil || !ok {
		t.Fatalf("plan lookup: ok=%v err=%v", ok, err)
	}
	if plan.CurrentCycle != 1 || !plan.IsActive || plan.PayoutIndex != 0 || plan.Completed {
		t.Fatalf("unexpected initial lifecycle: %+v", plan)
	}
	if plan.Asset != "NGN" {
		t.Fatalf("asset not normalised: %s", plan.Asset)
	}
	if plan.Creator != creator || plan.CreatedAt != 1_700_000_000 {
		t.Fatalf("unexpected creator metadata: %+v", plan)
	}
	if plan.Balance.Sign() != 0 {
		t.Fatalf("expected empty pool, got %s", plan.Balance)
	}
	participants, _ := f.engine.Participants(id)
	if len(participants) != 1 || participants[0] != creator {
		t.Fatalf("creator must be auto-enrolled, got %x", participants)
	}
	got := eventTypes(f.events.Drain())
	if len(got) != 2 || got[0] != EventTypePlanCreated || got[1] != EventTypeParticipantJoined {
		t.Fatalf("unexpected events %v", got)
	}
}

func TestPlanIDsAreMonotonic(t *testing.T) {
	f := newFixture(t)
	for want := uint64(1); want <= 3; want++ {
		if got := f.createPlan(t, defaultParams()); got != want {
			t.Fatalf("expected id %d, got %d", want, got)
		}
	}
	count, err := f.engine.PlanCount()
	if err != nil || count != 3 {
		t.Fatalf("expected count 3, got %d err=%v", count, err)
	}
	if _, ok, err := f.engine.Plan(4); err != nil || ok {
		t.Fatalf("unknown plan must be absent, ok=%v err=%v", ok, err)
	}
}

func TestPlanReturnsCopy(t *testing.T) {
	f := newFixture(t)
	id := f.createPlan(t, defaultParams())
	plan, _, _ := f.engine.Plan(id)
	plan.ContributionAmount.SetInt64(1)
	plan.IsActive = false
	again, _, _ := f.engine.Plan(id)
	if again.ContributionAmount.Cmp(big.NewInt(1_000_000)) != 0 || !again.IsActive {
		t.Fatalf("caller mutation leaked into stored plan: %+v", again)
	}
}

func TestTotalCycles(t *testing.T) {
	cases := []struct {
		freq   Frequency
		months uint32
		want   uint64
	}{
		{FrequencyDaily, 1, 30},
		{FrequencyWeekly, 2, 8},
		{FrequencyBiweekly, 3, 6},
		{FrequencyMonthly, 12, 12},
	}
	for _, tc := range cases {
		plan := &Plan{Frequency: tc.freq, DurationMonths: tc.months}
		if got := plan.TotalCycles(); got != tc.want {
			t.Fatalf("%s x %d: expected %d cycles, got %d", tc.freq, tc.months, tc.want, got)
		}
	}
}

func TestParseFrequency(t *testing.T) {
	for input, want := range map[string]Frequency{
		"daily":     FrequencyDaily,
		" Weekly ":  FrequencyWeekly,
		"bi-weekly": FrequencyBiweekly,
		"MONTHLY":   FrequencyMonthly,
	} {
		got, err := ParseFrequency(input)
		if err != nil || got != want {
			t.Fatalf("parse %q: got %v err=%v", input, got, err)
		}
	}
	if _, err := ParseFrequency("hourly"); err == nil {
		t.Fatalf("expected unknown frequency error")
	}
}
