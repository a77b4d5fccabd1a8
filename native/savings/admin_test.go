package savings

import (
	"errors"
	"math/big"
	"testing"
)

func TestPausePlanOwnerOnly(t *testing.T) {
	f := newFixture(t)
	id := f.createPlan(t, defaultParams())
	before := f.state.snapshot()
	for _, caller := range [][20]byte{creator, wallet1} {
		if err := f.engine.PausePlan(caller, id); !errors.Is(err, ErrOwnerOnly) {
			t.Fatalf("expected ErrOwnerOnly, got %v", err)
		}
		if err := f.engine.ReactivatePlan(caller, id); !errors.Is(err, ErrOwnerOnly) {
			t.Fatalf("expected ErrOwnerOnly, got %v", err)
		}
	}
	f.expectUnchanged(t, before)

	if err := f.engine.PausePlan(owner, id); err != nil {
		t.Fatalf("pause: %v", err)
	}
	plan, _, _ := f.engine.Plan(id)
	if plan.IsActive {
		t.Fatalf("plan should be inactive")
	}
	if err := f.engine.ReactivatePlan(owner, id); err != nil {
		t.Fatalf("reactivate: %v", err)
	}
	plan, _, _ = f.engine.Plan(id)
	if !plan.IsActive {
		t.Fatalf("plan should be active")
	}
	if err := f.engine.PausePlan(owner, 99); !errors.Is(err, ErrPlanNotFound) {
		t.Fatalf("expected ErrPlanNotFound, got %v", err)
	}
}

func TestOwnerUnsetRejectsEveryone(t *testing.T) {
	f := newFixture(t)
	f.engine.SetDefaultConfig(PlatformConfig{})
	id := f.createPlan(t, defaultParams())
	if err := f.engine.PausePlan([20]byte{}, id); !errors.Is(err, ErrOwnerOnly) {
		t.Fatalf("zero owner must not authorise the zero account, got %v", err)
	}
}

func TestSetPlatformFeeBps(t *testing.T) {
	f := newFixture(t)
	if err := f.engine.SetPlatformFeeBps(owner, 1_001); !errors.Is(err, ErrInvalidPlanParameters) {
		t.Fatalf("expected ErrInvalidPlanParameters, got %v", err)
	}
	if err := f.engine.SetPlatformFeeBps(creator, 200); !errors.Is(err, ErrOwnerOnly) {
		t.Fatalf("expected ErrOwnerOnly, got %v", err)
	}
	if err := f.engine.SetPlatformFeeBps(owner, 200); err != nil {
		t.Fatalf("set fee: %v", err)
	}
	bps, err := f.engine.PlatformFeeBps()
	if err != nil || bps != 200 {
		t.Fatalf("expected fee 200, got %d err=%v", bps, err)
	}
	if err := f.engine.SetPlatformFeeBps(owner, 1_000); err != nil {
		t.Fatalf("max fee must be accepted: %v", err)
	}
	cfg, _ := f.engine.PlatformConfig()
	if cfg.Owner != owner || cfg.FeeCollector != collector {
		t.Fatalf("fee update must keep owner and collector: %+v", cfg)
	}
}

func TestSetFeeCollector(t *testing.T) {
	f := newFixture(t)
	next := testAccount(0xCC)
	if err := f.engine.SetFeeCollector(wallet1, next); !errors.Is(err, ErrOwnerOnly) {
		t.Fatalf("expected ErrOwnerOnly, got %v", err)
	}
	if err := f.engine.SetFeeCollector(owner, next); err != nil {
		t.Fatalf("set collector: %v", err)
	}
	cfg, _ := f.engine.PlatformConfig()
	if cfg.FeeCollector != next {
		t.Fatalf("collector not updated: %+v", cfg)
	}
}

func TestModulePauseBlocksMutations(t *testing.T) {
	f := newFixture(t)
	id := f.createPlan(t, partialParams())
	if err := f.engine.PauseModule(wallet1); !errors.Is(err, ErrOwnerOnly) {
		t.Fatalf("expected ErrOwnerOnly, got %v", err)
	}
	if err := f.engine.PauseModule(owner); err != nil {
		t.Fatalf("pause module: %v", err)
	}
	paused, _ := f.engine.ModulePaused()
	if !paused {
		t.Fatalf("module should report paused")
	}
	before := f.state.snapshot()
	calls := map[string]func() error{
		"create":  func() error { _, err := f.engine.CreatePlan(creator, defaultParams()); return err },
		"request": func() error { _, err := f.engine.RequestToJoin(id, wallet1); return err },
		"contribute": func() error {
			_, err := f.engine.Contribute(id, creator, big.NewInt(500))
			return err
		},
		"fee":   func() error { return f.engine.SetPlatformFeeBps(owner, 10) },
		"pause": func() error { return f.engine.PausePlan(owner, id) },
		"close": func() error { _, err := f.engine.CloseCycle(id, owner); return err },
	}
	for name, call := range calls {
		err := call()
		if !errors.Is(err, ErrModulePaused) {
			t.Fatalf("%s: expected ErrModulePaused, got %v", name, err)
		}
		if code, ok := Code(err); !ok || code != CodeModulePaused {
			t.Fatalf("%s: expected code 115, got %d", name, code)
		}
	}
	f.expectUnchanged(t, before)

	if _, err := f.engine.TrustScore(wallet1); err != nil {
		t.Fatalf("queries must keep working while paused: %v", err)
	}
	if err := f.engine.ResumeModule(owner); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if _, err := f.engine.Contribute(id, creator, big.NewInt(500)); err != nil {
		t.Fatalf("contribute after resume: %v", err)
	}
}

func TestTrustScoreDefaultAndCap(t *testing.T) {
	f := newFixture(t)
	stranger := testAccount(0x55)
	score, err := f.engine.TrustScore(stranger)
	if err != nil || score != 50 {
		t.Fatalf("expected default 50, got %d err=%v", score, err)
	}

	f.state.trust[wallet1] = 99
	for i := 0; i < 3; i++ {
		if _, err := f.engine.increaseTrust(wallet1); err != nil {
			t.Fatalf("increase: %v", err)
		}
	}
	if score, _ := f.engine.TrustScore(wallet1); score != MaxTrustScore {
		t.Fatalf("expected cap at 100, got %d", score)
	}
	updates := 0
	for _, evt := range f.events.Drain() {
		if evt.EventType() == EventTypeTrustUpdated {
			updates++
		}
	}
	if updates != 1 {
		t.Fatalf("expected a single trust update at the cap, got %d", updates)
	}
}
