package core

import (
	"math/big"

	"ajochain/native/savings"
)

// Plan returns the stored plan or savings.ErrPlanNotFound.
func (n *Node) Plan(id uint64) (*savings.Plan, error) {
	var plan *savings.Plan
	err := n.view(func(tx *txContext) error {
		found, ok, err := tx.savings.Plan(id)
		if err != nil {
			return err
		}
		if !ok {
			return savings.ErrPlanNotFound
		}
		plan = found
		return nil
	})
	return plan, err
}

func (n *Node) PlanCount() (uint64, error) {
	var count uint64
	err := n.view(func(tx *txContext) error {
		var err error
		count, err = tx.savings.PlanCount()
		return err
	})
	return count, err
}

func (n *Node) Participants(planID uint64) ([][20]byte, error) {
	var out [][20]byte
	err := n.view(func(tx *txContext) error {
		var err error
		out, err = tx.savings.Participants(planID)
		return err
	})
	return out, err
}

func (n *Node) JoinRequests(planID uint64) ([][20]byte, error) {
	var out [][20]byte
	err := n.view(func(tx *txContext) error {
		var err error
		out, err = tx.savings.JoinRequests(planID)
		return err
	})
	return out, err
}

func (n *Node) IsParticipant(planID uint64, addr [20]byte) (bool, error) {
	var ok bool
	err := n.view(func(tx *txContext) error {
		var err error
		ok, err = tx.savings.IsParticipant(planID, addr)
		return err
	})
	return ok, err
}

func (n *Node) ParticipantCycleStatus(planID uint64, addr [20]byte) (*savings.CycleStatus, error) {
	var status *savings.CycleStatus
	err := n.view(func(tx *txContext) error {
		var err error
		status, err = tx.savings.ParticipantCycleStatus(planID, addr)
		return err
	})
	return status, err
}

func (n *Node) TrustScore(addr [20]byte) (uint64, error) {
	var score uint64
	err := n.view(func(tx *txContext) error {
		var err error
		score, err = tx.savings.TrustScore(addr)
		return err
	})
	return score, err
}

func (n *Node) PlatformConfig() (*savings.PlatformConfig, error) {
	var cfg *savings.PlatformConfig
	err := n.view(func(tx *txContext) error {
		var err error
		cfg, err = tx.savings.PlatformConfig()
		return err
	})
	return cfg, err
}

func (n *Node) ModulePaused() (bool, error) {
	var paused bool
	err := n.view(func(tx *txContext) error {
		var err error
		paused, err = tx.savings.ModulePaused()
		return err
	})
	return paused, err
}

// PlansPage returns the plans whose ids fall inside the requested page.
func (n *Node) PlansPage(page, pageSize uint64) (savings.PageWindow, []*savings.Plan, error) {
	var (
		window savings.PageWindow
		plans  []*savings.Plan
	)
	err := n.view(func(tx *txContext) error {
		var err error
		window, plans, err = tx.savings.PlansPage(page, pageSize)
		return err
	})
	return window, plans, err
}

func (n *Node) PlansByCreator(addr [20]byte) ([]uint64, error) {
	var ids []uint64
	err := n.view(func(tx *txContext) error {
		var err error
		ids, err = tx.savings.PlansByCreator(addr)
		return err
	})
	return ids, err
}

func (n *Node) PlansByParticipant(addr [20]byte) ([]uint64, error) {
	var ids []uint64
	err := n.view(func(tx *txContext) error {
		var err error
		ids, err = tx.savings.PlansByParticipant(addr)
		return err
	})
	return ids, err
}

func (n *Node) Balance(addr [20]byte, asset string) (*big.Int, error) {
	var balance *big.Int
	err := n.view(func(tx *txContext) error {
		var err error
		balance, err = tx.ledger.Balance(addr, asset)
		return err
	})
	return balance, err
}

// VaultAccount returns the escrow account holding a plan's pooled funds.
func (n *Node) VaultAccount(planID uint64) [20]byte {
	return savings.VaultAccount(planID)
}
