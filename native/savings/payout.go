package savings

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

// Recipient returns the participant due to receive the active cycle's pool.
// Payouts rotate strictly in enrolment order.
func Recipient(plan *Plan, participants [][20]byte) ([20]byte, bool) {
	if plan == nil || len(participants) == 0 {
		return [20]byte{}, false
	}
	return participants[plan.PayoutIndex%uint64(len(participants))], true
}

// SplitFee divides gross into the platform fee and the recipient's share.
func SplitFee(gross *big.Int, feeBps uint32) (fee *big.Int, net *big.Int, err error) {
	if gross == nil || gross.Sign() <= 0 {
		return big.NewInt(0), big.NewInt(0), nil
	}
	if feeBps > MaxPlatformFeeBps {
		return nil, nil, fmt.Errorf("%w: fee bps %d", ErrInvalidPlanParameters, feeBps)
	}
	amount, overflow := uint256.FromBig(gross)
	if overflow {
		return nil, nil, fmt.Errorf("savings: pool balance overflow")
	}
	scaled, overflow := new(uint256.Int).MulOverflow(amount, uint256.NewInt(uint64(feeBps)))
	if overflow {
		return nil, nil, fmt.Errorf("savings: fee computation overflow")
	}
	feeAmount := new(uint256.Int).Div(scaled, uint256.NewInt(bpsDenominator))
	netAmount := new(uint256.Int).Sub(amount, feeAmount)
	return feeAmount.ToBig(), netAmount.ToBig(), nil
}

// closeCycle pays out the pool of plan's active cycle and advances the
// rotation. The plan completes once its final cycle has closed.
func (e *Engine) closeCycle(plan *Plan, participants [][20]byte) (*Payout, error) {
	recipient, ok := Recipient(plan, participants)
	if !ok {
		return nil, ErrCycleIncomplete
	}
	cfg, err := e.platformConfig()
	if err != nil {
		return nil, err
	}
	gross := cloneBigInt(plan.Balance)
	fee, net, err := SplitFee(gross, cfg.FeeBps)
	if err != nil {
		return nil, err
	}
	if cfg.FeeCollector == ([20]byte{}) {
		fee = big.NewInt(0)
		net = new(big.Int).Set(gross)
	}
	vault := VaultAccount(plan.ID)
	if err := requireTransfer(e.bank, vault, cfg.FeeCollector, plan.Asset, fee); err != nil {
		return nil, err
	}
	if err := requireTransfer(e.bank, vault, recipient, plan.Asset, net); err != nil {
		return nil, err
	}

	closed := plan.CurrentCycle
	plan.Balance = big.NewInt(0)
	plan.PayoutIndex = (plan.PayoutIndex + 1) % uint64(len(participants))
	plan.CurrentCycle++
	if total := plan.TotalCycles(); total > 0 && plan.CurrentCycle > total {
		plan.Completed = true
		plan.IsActive = false
	}
	if err := e.state.SavingsPlanPut(plan); err != nil {
		return nil, err
	}
	payout := &Payout{
		PlanID:       plan.ID,
		Cycle:        closed,
		Recipient:    recipient,
		Asset:        plan.Asset,
		Gross:        gross,
		Fee:          fee,
		Net:          net,
		FeeCollector: cfg.FeeCollector,
		Completed:    plan.Completed,
	}
	e.emit(NewPayoutEvent(payout))
	e.emit(NewCycleClosedEvent(plan, closed))
	if plan.Completed {
		e.emit(NewPlanStatusEvent(EventTypePlanCompleted, plan))
	}
	return payout, nil
}
