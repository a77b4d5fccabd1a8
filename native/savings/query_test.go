package savings

import (
	"testing"
)

func TestPageFor(t *testing.T) {
	cases := []struct {
		name              string
		total, page, size uint64
		start, end        uint64
		empty             bool
	}{
		{name: "empty registry", total: 0, page: 1, size: 10, empty: true},
		{name: "first page", total: 25, page: 1, size: 10, start: 1, end: 10},
		{name: "middle page", total: 25, page: 2, size: 10, start: 11, end: 20},
		{name: "last partial page", total: 25, page: 3, size: 10, start: 21, end: 25},
		{name: "beyond data", total: 25, page: 4, size: 10, empty: true},
		{name: "exact fit", total: 20, page: 2, size: 10, start: 11, end: 20},
		{name: "page zero", total: 5, page: 0, size: 10, empty: true},
		{name: "size zero", total: 5, page: 1, size: 0, empty: true},
		{name: "huge page", total: 5, page: ^uint64(0), size: ^uint64(0), empty: true},
	}
	for _, tc := range cases {
		window := PageFor(tc.total, tc.page, tc.size)
		if window.TotalCount != tc.total {
			t.Fatalf("%s: total %d, got %d", tc.name, tc.total, window.TotalCount)
		}
		if window.Empty() != tc.empty {
			t.Fatalf("%s: empty=%v, got window %+v", tc.name, tc.empty, window)
		}
		if !tc.empty && (window.StartID != tc.start || window.EndID != tc.end) {
			t.Fatalf("%s: expected [%d,%d], got %+v", tc.name, tc.start, tc.end, window)
		}
	}
}

func TestPaginatedPlanIDsAndPlansPage(t *testing.T) {
	f := newFixture(t)
	window, err := f.engine.PaginatedPlanIDs(1, 10)
	if err != nil || !window.Empty() || window.TotalCount != 0 {
		t.Fatalf("expected empty window, got %+v err=%v", window, err)
	}
	for i := 0; i < 5; i++ {
		f.createPlan(t, defaultParams())
	}
	window, plans, err := f.engine.PlansPage(2, 2)
	if err != nil {
		t.Fatalf("plans page: %v", err)
	}
	if window.StartID != 3 || window.EndID != 4 || window.TotalCount != 5 {
		t.Fatalf("unexpected window %+v", window)
	}
	if len(plans) != 2 || plans[0].ID != 3 || plans[1].ID != 4 {
		t.Fatalf("unexpected plans %+v", plans)
	}
	window, plans, err = f.engine.PlansPage(4, 2)
	if err != nil || !window.Empty() || plans != nil {
		t.Fatalf("expected empty page, got %+v %v err=%v", window, plans, err)
	}
}

func TestPlansByCreatorAndParticipant(t *testing.T) {
	f := newFixture(t)
	first := f.createPlan(t, defaultParams())
	second := f.createPlan(t, defaultParams())
	other, err := f.engine.CreatePlan(wallet2, defaultParams())
	if err != nil {
		t.Fatalf("create other: %v", err)
	}
	f.admit(t, second, wallet1)
	if _, err := f.engine.RequestToJoin(other, wallet1); err != nil {
		t.Fatalf("request: %v", err)
	}

	byCreator, err := f.engine.PlansByCreator(creator)
	if err != nil || len(byCreator) != 2 || byCreator[0] != first || byCreator[1] != second {
		t.Fatalf("unexpected creator plans %v err=%v", byCreator, err)
	}
	byParticipant, err := f.engine.PlansByParticipant(wallet1)
	if err != nil || len(byParticipant) != 1 || byParticipant[0] != second {
		t.Fatalf("pending requests must not count as membership: %v err=%v", byParticipant, err)
	}
	byParticipant, _ = f.engine.PlansByParticipant(wallet2)
	if len(byParticipant) != 1 || byParticipant[0] != other {
		t.Fatalf("creator must be indexed as participant: %v", byParticipant)
	}
	if none, _ := f.engine.PlansByCreator(wallet3); len(none) != 0 {
		t.Fatalf("expected no plans for wallet3, got %v", none)
	}
}
