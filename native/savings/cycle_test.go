package savings

import (
	"errors"
	"math/big"
	"testing"
)

func partialParams() CreatePlanParams {
	params := defaultParams()
	params.AllowPartial = true
	params.ContributionAmount = big.NewInt(1_000)
	return params
}

func TestContributeFullAmountNonPartial(t *testing.T) {
	f := newFixture(t)
	id := f.createPlan(t, defaultParams())
	f.admit(t, id, wallet1)

	receipt, err := f.engine.Contribute(id, wallet1, big.NewInt(1_000_000))
	if err != nil {
		t.Fatalf("contribute: %v", err)
	}
	if receipt.Contributed.Cmp(big.NewInt(1_000_000)) != 0 || receipt.TotalThisCycle.Cmp(big.NewInt(1_000_000)) != 0 || !receipt.IsComplete {
		t.Fatalf("unexpected receipt %+v", receipt)
	}
	if receipt.Payout != nil {
		t.Fatalf("cycle must stay open while creator has not paid")
	}
	status, err := f.engine.ParticipantCycleStatus(id, wallet1)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.RemainingThisCycle.Sign() != 0 || !status.FullyContributed {
		t.Fatalf("unexpected status %+v", status)
	}
	if bal := f.bank.balance(VaultAccount(id), "NGN"); bal.Cmp(big.NewInt(1_000_000)) != 0 {
		t.Fatalf("vault should hold the contribution, got %s", bal)
	}
	plan, _, _ := f.engine.Plan(id)
	if plan.Balance.Cmp(big.NewInt(1_000_000)) != 0 {
		t.Fatalf("plan pool not updated: %s", plan.Balance)
	}
}

func TestContributeNonPartialRejectsOtherAmounts(t *testing.T) {
	f := newFixture(t)
	id := f.createPlan(t, defaultParams())
	before := f.state.snapshot()
	for _, amount := range []int64{100, 999_999, 1_000_001, 2_000_000} {
		if _, err := f.engine.Contribute(id, creator, big.NewInt(amount)); !errors.Is(err, ErrPartialPaymentNotAllowed) {
			t.Fatalf("amount %d: expected ErrPartialPaymentNotAllowed, got %v", amount, err)
		}
	}
	f.expectUnchanged(t, before)
}

func TestContributeBelowMinimum(t *testing.T) {
	f := newFixture(t)
	id := f.createPlan(t, defaultParams())
	partial := f.createPlan(t, partialParams())
	before := f.state.snapshot()
	for _, planID := range []uint64{id, partial} {
		if _, err := f.engine.Contribute(planID, creator, big.NewInt(50)); !errors.Is(err, ErrContributionBelowMinimum) {
			t.Fatalf("plan %d: expected ErrContributionBelowMinimum, got %v", planID, err)
		}
		if _, err := f.engine.Contribute(planID, creator, nil); !errors.Is(err, ErrContributionBelowMinimum) {
			t.Fatalf("plan %d nil amount: expected ErrContributionBelowMinimum, got %v", planID, err)
		}
	}
	f.expectUnchanged(t, before)
}

func TestContributeGuards(t *testing.T) {
	f := newFixture(t)
	id := f.createPlan(t, defaultParams())
	if _, err := f.engine.Contribute(7, creator, big.NewInt(1_000_000)); !errors.Is(err, ErrPlanNotFound) {
		t.Fatalf("expected ErrPlanNotFound, got %v", err)
	}
	if _, err := f.engine.Contribute(id, wallet1, big.NewInt(1_000_000)); !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant, got %v", err)
	}
	f.admit(t, id, wallet1)
	if _, err := f.engine.Contribute(id, wallet1, big.NewInt(1_000_000)); err != nil {
		t.Fatalf("contribute: %v", err)
	}
	before := f.state.snapshot()
	if _, err := f.engine.Contribute(id, wallet1, big.NewInt(1_000_000)); !errors.Is(err, ErrAlreadyContributed) {
		t.Fatalf("second full payment: expected ErrAlreadyContributed, got %v", err)
	}
	f.expectUnchanged(t, before)
}

func TestPartialContributionsAccumulate(t *testing.T) {
	f := newFixture(t)
	id := f.createPlan(t, partialParams())
	f.admit(t, id, wallet1)

	first, err := f.engine.Contribute(id, wallet1, big.NewInt(400))
	if err != nil {
		t.Fatalf("first contribution: %v", err)
	}
	if first.IsComplete || first.TotalThisCycle.Cmp(big.NewInt(400)) != 0 {
		t.Fatalf("unexpected first receipt %+v", first)
	}
	if score, _ := f.engine.TrustScore(wallet1); score != DefaultTrustScore {
		t.Fatalf("partial payment must not change trust, got %d", score)
	}

	status, _ := f.engine.ParticipantCycleStatus(id, wallet1)
	again, _ := f.engine.ParticipantCycleStatus(id, wallet1)
	if status.RemainingThisCycle.Cmp(big.NewInt(600)) != 0 || status.FullyContributed {
		t.Fatalf("unexpected interim status %+v", status)
	}
	if status.ContributedThisCycle.Cmp(again.ContributedThisCycle) != 0 || status.RemainingThisCycle.Cmp(again.RemainingThisCycle) != 0 {
		t.Fatalf("status reads must be idempotent")
	}

	second, err := f.engine.Contribute(id, wallet1, big.NewInt(600))
	if err != nil {
		t.Fatalf("second contribution: %v", err)
	}
	if !second.IsComplete || second.TotalThisCycle.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("unexpected second receipt %+v", second)
	}
	if second.TrustScore != DefaultTrustScore+1 {
		t.Fatalf("expected trust %d, got %d", DefaultTrustScore+1, second.TrustScore)
	}
}

func TestPartialOverpaymentRejected(t *testing.T) {
	f := newFixture(t)
	id := f.createPlan(t, partialParams())
	f.admit(t, id, wallet1)
	if _, err := f.engine.Contribute(id, wallet1, big.NewInt(700)); err != nil {
		t.Fatalf("contribute: %v", err)
	}
	before := f.state.snapshot()
	if _, err := f.engine.Contribute(id, wallet1, big.NewInt(301)); !errors.Is(err, ErrContributionExceedsRemaining) {
		t.Fatalf("expected ErrContributionExceedsRemaining, got %v", err)
	}
	f.expectUnchanged(t, before)
	if _, err := f.engine.Contribute(id, wallet1, big.NewInt(300)); err != nil {
		t.Fatalf("exact remainder: %v", err)
	}
	if _, err := f.engine.Contribute(id, wallet1, big.NewInt(100)); !errors.Is(err, ErrAlreadyContributed) {
		t.Fatalf("complete without debt: expected ErrAlreadyContributed, got %v", err)
	}
}

func TestTransferFailureLeavesLedgerUntouched(t *testing.T) {
	f := newFixture(t)
	id := f.createPlan(t, partialParams())
	f.events.Reset()
	before := f.state.snapshot()
	f.bank.failNext = errors.New("bank offline")
	if _, err := f.engine.Contribute(id, creator, big.NewInt(500)); err == nil {
		t.Fatalf("expected transfer failure to surface")
	}
	f.expectUnchanged(t, before)
	if len(f.events.Drain()) != 0 {
		t.Fatalf("failed contribution emitted events")
	}

	poor := testAccount(0x77)
	f.admit(t, id, poor)
	before = f.state.snapshot()
	if _, err := f.engine.Contribute(id, poor, big.NewInt(500)); err == nil {
		t.Fatalf("expected insufficient balance failure")
	}
	f.expectUnchanged(t, before)
}

func TestContributePausedPlan(t *testing.T) {
	f := newFixture(t)
	id := f.createPlan(t, defaultParams())
	if err := f.engine.PausePlan(owner, id); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if _, err := f.engine.Contribute(id, creator, big.NewInt(1_000_000)); !errors.Is(err, ErrPlanInactive) {
		t.Fatalf("expected ErrPlanInactive, got %v", err)
	}
	if err := f.engine.ReactivatePlan(owner, id); err != nil {
		t.Fatalf("reactivate: %v", err)
	}
	if _, err := f.engine.Contribute(id, creator, big.NewInt(1_000_000)); err != nil {
		t.Fatalf("contribute after reactivation: %v", err)
	}
}

func TestCloseCycleChargesDebtOnPartialPlans(t *testing.T) {
	f := newFixture(t)
	id := f.createPlan(t, partialParams())
	f.admit(t, id, wallet1)
	if _, err := f.engine.Contribute(id, creator, big.NewInt(1_000)); err != nil {
		t.Fatalf("creator contribute: %v", err)
	}
	if _, err := f.engine.Contribute(id, wallet1, big.NewInt(400)); err != nil {
		t.Fatalf("wallet1 contribute: %v", err)
	}

	if _, err := f.engine.CloseCycle(id, creator); !errors.Is(err, ErrOwnerOnly) {
		t.Fatalf("non-owner close: expected ErrOwnerOnly, got %v", err)
	}
	payout, err := f.engine.CloseCycle(id, owner)
	if err != nil {
		t.Fatalf("close cycle: %v", err)
	}
	if payout.Recipient != creator || payout.Gross.Cmp(big.NewInt(1_400)) != 0 {
		t.Fatalf("unexpected payout %+v", payout)
	}

	status, err := f.engine.ParticipantCycleStatus(id, wallet1)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.Cycle != 2 || status.ContributedThisCycle.Sign() != 0 {
		t.Fatalf("contributions must reset on the new cycle: %+v", status)
	}
	if status.Debt.Cmp(big.NewInt(600)) != 0 {
		t.Fatalf("expected debt 600, got %s", status.Debt)
	}
	if !status.IsRecipientThisCycle {
		t.Fatalf("wallet1 should be next in rotation")
	}
	creatorStatus, _ := f.engine.ParticipantCycleStatus(id, creator)
	if creatorStatus.Debt.Sign() != 0 {
		t.Fatalf("complete participant must not accrue debt")
	}

	// Payment fills the new cycle first and the excess pays down debt.
	receipt, err := f.engine.Contribute(id, wallet1, big.NewInt(1_200))
	if err != nil {
		t.Fatalf("repay: %v", err)
	}
	if !receipt.IsComplete || receipt.DebtRepaid.Cmp(big.NewInt(200)) != 0 {
		t.Fatalf("unexpected repayment receipt %+v", receipt)
	}
	status, _ = f.engine.ParticipantCycleStatus(id, wallet1)
	if status.Debt.Cmp(big.NewInt(400)) != 0 {
		t.Fatalf("expected remaining debt 400, got %s", status.Debt)
	}
	if _, err := f.engine.Contribute(id, wallet1, big.NewInt(401)); !errors.Is(err, ErrContributionExceedsRemaining) {
		t.Fatalf("overpaying debt: expected ErrContributionExceedsRemaining, got %v", err)
	}
	if _, err := f.engine.Contribute(id, wallet1, big.NewInt(400)); err != nil {
		t.Fatalf("clear debt: %v", err)
	}
	status, _ = f.engine.ParticipantCycleStatus(id, wallet1)
	if status.Debt.Sign() != 0 {
		t.Fatalf("debt should be cleared, got %s", status.Debt)
	}
	if score, _ := f.engine.TrustScore(wallet1); score != DefaultTrustScore+1 {
		t.Fatalf("debt repayment must not add trust, got %d", score)
	}
}

func TestCloseCycleNonPartialRequiresFullCollection(t *testing.T) {
	f := newFixture(t)
	id := f.createPlan(t, defaultParams())
	f.admit(t, id, wallet1)
	if _, err := f.engine.Contribute(id, creator, big.NewInt(1_000_000)); err != nil {
		t.Fatalf("contribute: %v", err)
	}
	before := f.state.snapshot()
	if _, err := f.engine.CloseCycle(id, owner); !errors.Is(err, ErrCycleIncomplete) {
		t.Fatalf("expected ErrCycleIncomplete, got %v", err)
	}
	f.expectUnchanged(t, before)
}

func TestStatusForNonParticipant(t *testing.T) {
	f := newFixture(t)
	id := f.createPlan(t, defaultParams())
	if _, err := f.engine.ParticipantCycleStatus(id, wallet3); !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant, got %v", err)
	}
	if _, err := f.engine.ParticipantCycleStatus(9, creator); !errors.Is(err, ErrPlanNotFound) {
		t.Fatalf("expected ErrPlanNotFound, got %v", err)
	}
}

func TestPartialContributionCannotStrandRemainder(t *testing.T) {
	f := newFixture(t)
	params := partialParams()
	params.ContributionAmount = big.NewInt(150)
	id := f.createPlan(t, params)
	f.admit(t, id, wallet1)

	before := f.state.snapshot()
	if _, err := f.engine.Contribute(id, wallet1, big.NewInt(100)); !errors.Is(err, ErrContributionBelowMinimum) {
		t.Fatalf("leaving 50 owed: expected ErrContributionBelowMinimum, got %v", err)
	}
	f.expectUnchanged(t, before)

	receipt, err := f.engine.Contribute(id, wallet1, big.NewInt(150))
	if err != nil {
		t.Fatalf("full amount: %v", err)
	}
	if !receipt.IsComplete {
		t.Fatalf("participant should be complete: %+v", receipt)
	}
}

func TestDebtCannotShrinkBelowFloor(t *testing.T) {
	f := newFixture(t)
	id := f.createPlan(t, partialParams())
	f.admit(t, id, wallet1)
	if _, err := f.engine.Contribute(id, creator, big.NewInt(1_000)); err != nil {
		t.Fatalf("creator contribute: %v", err)
	}
	if _, err := f.engine.Contribute(id, wallet1, big.NewInt(400)); err != nil {
		t.Fatalf("wallet1 contribute: %v", err)
	}
	if _, err := f.engine.CloseCycle(id, owner); err != nil {
		t.Fatalf("close cycle: %v", err)
	}

	// 1000 for the new cycle plus 600 of debt is owed.
	before := f.state.snapshot()
	for _, amount := range []int64{1_550, 1_501} {
		if _, err := f.engine.Contribute(id, wallet1, big.NewInt(amount)); !errors.Is(err, ErrContributionBelowMinimum) {
			t.Fatalf("amount %d: expected ErrContributionBelowMinimum, got %v", amount, err)
		}
	}
	f.expectUnchanged(t, before)
	if _, err := f.engine.Contribute(id, wallet1, big.NewInt(1_500)); err != nil {
		t.Fatalf("leaving 100 owed: %v", err)
	}
	if _, err := f.engine.Contribute(id, wallet1, big.NewInt(100)); err != nil {
		t.Fatalf("clear remaining debt: %v", err)
	}
	status, _ := f.engine.ParticipantCycleStatus(id, wallet1)
	if status.Debt.Sign() != 0 || !status.FullyContributed {
		t.Fatalf("expected settled participant, got %+v", status)
	}
}

func TestCloseCycleRefusesEmptyPool(t *testing.T) {
	f := newFixture(t)
	id := f.createPlan(t, partialParams())
	f.admit(t, id, wallet1)
	before := f.state.snapshot()
	if _, err := f.engine.CloseCycle(id, owner); !errors.Is(err, ErrCycleIncomplete) {
		t.Fatalf("expected ErrCycleIncomplete, got %v", err)
	}
	f.expectUnchanged(t, before)

	if _, err := f.engine.Contribute(id, wallet1, big.NewInt(300)); err != nil {
		t.Fatalf("contribute: %v", err)
	}
	payout, err := f.engine.CloseCycle(id, owner)
	if err != nil {
		t.Fatalf("close cycle: %v", err)
	}
	if payout.Recipient != creator || payout.Gross.Cmp(big.NewInt(300)) != 0 {
		t.Fatalf("unexpected payout %+v", payout)
	}
}
