package savings

import (
	"fmt"
	"math/big"
)

// Contribute records a payment from caller towards the plan's active cycle and
// moves the funds into the plan vault. The amount fills the current cycle
// first; any remainder pays down carried debt. When the contribution leaves
// every participant complete, the cycle closes and the pool is paid out.
func (e *Engine) Contribute(planID uint64, caller [20]byte, amount *big.Int) (*ContributionReceipt, error) {
	if err := e.guard(); err != nil {
		return nil, err
	}
	plan, err := e.loadPlan(planID)
	if err != nil {
		return nil, err
	}
	if !plan.IsActive {
		return nil, ErrPlanInactive
	}
	participants, err := e.state.SavingsParticipants(planID)
	if err != nil {
		return nil, err
	}
	if !containsAddr(participants, caller) {
		return nil, ErrNotParticipant
	}
	if amount == nil || amount.Cmp(MinContribution) < 0 {
		return nil, ErrContributionBelowMinimum
	}
	entry, err := e.loadEntry(plan, caller)
	if err != nil {
		return nil, err
	}
	remaining := remainingFor(plan, entry)
	if !plan.AllowPartial {
		if amount.Cmp(plan.ContributionAmount) != 0 {
			return nil, ErrPartialPaymentNotAllowed
		}
		if remaining.Sign() == 0 {
			return nil, ErrAlreadyContributed
		}
	}
	owed := new(big.Int).Add(remaining, entry.Debt)
	if owed.Sign() == 0 {
		return nil, ErrAlreadyContributed
	}
	if amount.Cmp(owed) > 0 {
		return nil, ErrContributionExceedsRemaining
	}
	// What is left owed must stay payable under the floor.
	if left := new(big.Int).Sub(owed, amount); left.Sign() > 0 && left.Cmp(MinContribution) < 0 {
		return nil, fmt.Errorf("%w: payment would leave %s owed", ErrContributionBelowMinimum, left)
	}

	toCycle := new(big.Int).Set(amount)
	if toCycle.Cmp(remaining) > 0 {
		toCycle.Set(remaining)
	}
	toDebt := new(big.Int).Sub(amount, toCycle)
	wasComplete := remaining.Sign() == 0

	if err := requireTransfer(e.bank, caller, VaultAccount(planID), plan.Asset, amount); err != nil {
		return nil, err
	}
	entry.Contributed.Add(entry.Contributed, toCycle)
	entry.Debt.Sub(entry.Debt, toDebt)
	if err := e.state.SavingsEntryPut(entry); err != nil {
		return nil, err
	}
	plan.Balance = new(big.Int).Add(cloneBigInt(plan.Balance), amount)
	if err := e.state.SavingsPlanPut(plan); err != nil {
		return nil, err
	}

	complete := entry.Contributed.Cmp(plan.ContributionAmount) >= 0
	completedNow := complete && !wasComplete
	var score uint64
	if completedNow {
		score, err = e.increaseTrust(caller)
	} else {
		score, err = e.TrustScore(caller)
	}
	if err != nil {
		return nil, err
	}
	receipt := &ContributionReceipt{
		PlanID:         planID,
		Contributor:    caller,
		Cycle:          plan.CurrentCycle,
		Contributed:    new(big.Int).Set(amount),
		TotalThisCycle: new(big.Int).Set(entry.Contributed),
		IsComplete:     complete,
		DebtRepaid:     toDebt,
		TrustScore:     score,
	}
	e.emit(NewContributionEvent(receipt, plan.Asset))

	if completedNow {
		allComplete, err := e.allComplete(plan, participants)
		if err != nil {
			return nil, err
		}
		if allComplete {
			payout, err := e.closeCycle(plan, participants)
			if err != nil {
				return nil, err
			}
			receipt.Payout = payout
		}
	}
	return receipt, nil
}

// ParticipantCycleStatus projects addr's position in the plan's active cycle.
// It never mutates state.
func (e *Engine) ParticipantCycleStatus(planID uint64, addr [20]byte) (*CycleStatus, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	plan, err := e.loadPlan(planID)
	if err != nil {
		return nil, err
	}
	participants, err := e.state.SavingsParticipants(planID)
	if err != nil {
		return nil, err
	}
	if !containsAddr(participants, addr) {
		return nil, ErrNotParticipant
	}
	entry, err := e.loadEntry(plan, addr)
	if err != nil {
		return nil, err
	}
	remaining := remainingFor(plan, entry)
	recipient, ok := Recipient(plan, participants)
	return &CycleStatus{
		PlanID:               planID,
		Participant:          addr,
		Cycle:                plan.CurrentCycle,
		Required:             cloneBigInt(plan.ContributionAmount),
		ContributedThisCycle: cloneBigInt(entry.Contributed),
		RemainingThisCycle:   remaining,
		FullyContributed:     remaining.Sign() == 0,
		Debt:                 cloneBigInt(entry.Debt),
		IsRecipientThisCycle: ok && recipient == addr && !plan.Completed,
	}, nil
}

// CloseCycle forces the active cycle of a plan to close. Only the platform
// owner may trigger it. On plans that accept partial payments every short
// participant is charged the shortfall as debt; other plans must be fully
// collected. A cycle with an empty pool cannot be closed.
func (e *Engine) CloseCycle(planID uint64, caller [20]byte) (*Payout, error) {
	if err := e.guard(); err != nil {
		return nil, err
	}
	if err := e.requireOwner(caller); err != nil {
		return nil, err
	}
	plan, err := e.loadPlan(planID)
	if err != nil {
		return nil, err
	}
	if !plan.IsActive {
		return nil, ErrPlanInactive
	}
	if plan.Balance == nil || plan.Balance.Sign() == 0 {
		return nil, fmt.Errorf("%w: nothing collected this cycle", ErrCycleIncomplete)
	}
	participants, err := e.state.SavingsParticipants(planID)
	if err != nil {
		return nil, err
	}
	for _, addr := range participants {
		entry, err := e.loadEntry(plan, addr)
		if err != nil {
			return nil, err
		}
		shortfall := remainingFor(plan, entry)
		if shortfall.Sign() == 0 {
			continue
		}
		if !plan.AllowPartial {
			return nil, ErrCycleIncomplete
		}
		entry.Debt.Add(entry.Debt, shortfall)
		entry.Cycle = plan.CurrentCycle + 1
		entry.Contributed = big.NewInt(0)
		if err := e.state.SavingsEntryPut(entry); err != nil {
			return nil, err
		}
		e.emit(NewDebtChargedEvent(planID, addr, plan.CurrentCycle, shortfall, entry.Debt))
	}
	return e.closeCycle(plan, participants)
}

func (e *Engine) allComplete(plan *Plan, participants [][20]byte) (bool, error) {
	for _, addr := range participants {
		entry, err := e.loadEntry(plan, addr)
		if err != nil {
			return false, err
		}
		if remainingFor(plan, entry).Sign() > 0 {
			return false, nil
		}
	}
	return true, nil
}

func remainingFor(plan *Plan, entry *ParticipantEntry) *big.Int {
	remaining := new(big.Int).Sub(plan.ContributionAmount, entry.Contributed)
	if remaining.Sign() < 0 {
		return big.NewInt(0)
	}
	return remaining
}
