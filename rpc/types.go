package rpc

import (
	"math/big"

	"ajochain/crypto"
	"ajochain/native/savings"
)

// PlanResult is the JSON view of a savings plan. Amounts are decimal strings.
type PlanResult struct {
	ID                 uint64 `json:"id"`
	Name               string `json:"name"`
	Description        string `json:"description"`
	Creator            string `json:"creator"`
	TotalParticipants  uint32 `json:"totalParticipants"`
	ContributionAmount string `json:"contributionAmount"`
	Frequency          string `json:"frequency"`
	DurationMonths     uint32 `json:"durationMonths"`
	TotalCycles        uint64 `json:"totalCycles"`
	TrustScoreRequired uint64 `json:"trustScoreRequired"`
	AllowPartial       bool   `json:"allowPartial"`
	Asset              string `json:"asset"`
	CurrentCycle       uint64 `json:"currentCycle"`
	IsActive           bool   `json:"isActive"`
	Completed          bool   `json:"completed"`
	PayoutIndex        uint64 `json:"payoutIndex"`
	Balance            string `json:"balance"`
	CreatedAt          int64  `json:"createdAt"`
	Vault              string `json:"vault"`
}

type JoinRequestResult struct {
	PlanID      uint64 `json:"planId"`
	Requester   string `json:"requester"`
	RequestedAt int64  `json:"requestedAt"`
}

type JoinResolutionResult struct {
	PlanID     uint64   `json:"planId"`
	Requester  string   `json:"requester"`
	Outcome    string   `json:"outcome"`
	Approvals  []string `json:"approvals"`
	Denials    []string `json:"denials"`
	ResolvedAt int64    `json:"resolvedAt"`
}

type PayoutResult struct {
	PlanID       uint64 `json:"planId"`
	Cycle        uint64 `json:"cycle"`
	Recipient    string `json:"recipient"`
	Asset        string `json:"asset"`
	Gross        string `json:"gross"`
	Fee          string `json:"fee"`
	Net          string `json:"net"`
	FeeCollector string `json:"feeCollector,omitempty"`
	Completed    bool   `json:"completed"`
}

type ContributionResult struct {
	PlanID         uint64        `json:"planId"`
	Contributor    string        `json:"contributor"`
	Cycle          uint64        `json:"cycle"`
	Contributed    string        `json:"contributed"`
	TotalThisCycle string        `json:"totalThisCycle"`
	IsComplete     bool          `json:"isComplete"`
	DebtRepaid     string        `json:"debtRepaid"`
	TrustScore     uint64        `json:"trustScore"`
	Payout         *PayoutResult `json:"payout,omitempty"`
}

type CycleStatusResult struct {
	PlanID               uint64 `json:"planId"`
	Participant          string `json:"participant"`
	Cycle                uint64 `json:"cycle"`
	Required             string `json:"required"`
	ContributedThisCycle string `json:"contributedThisCycle"`
	RemainingThisCycle   string `json:"remainingThisCycle"`
	FullyContributed     bool   `json:"fullyContributed"`
	Debt                 string `json:"debt"`
	IsRecipientThisCycle bool   `json:"isRecipientThisCycle"`
}

type PlatformConfigResult struct {
	Owner        string `json:"owner,omitempty"`
	FeeBps       uint32 `json:"feeBps"`
	FeeCollector string `json:"feeCollector,omitempty"`
	ModulePaused bool   `json:"modulePaused"`
}

type PlansPageResult struct {
	StartID    uint64       `json:"startId"`
	EndID      uint64       `json:"endId"`
	TotalCount uint64       `json:"totalCount"`
	Plans      []PlanResult `json:"plans"`
}

type BalanceResult struct {
	Address string `json:"address"`
	Asset   string `json:"asset"`
	Balance string `json:"balance"`
}

func amountString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func optionalAccount(addr [20]byte) string {
	if addr == ([20]byte{}) {
		return ""
	}
	return crypto.FormatAccount(addr)
}

func formatAccounts(list [][20]byte) []string {
	out := make([]string, 0, len(list))
	for _, addr := range list {
		out = append(out, crypto.FormatAccount(addr))
	}
	return out
}

func planResult(p *savings.Plan) PlanResult {
	return PlanResult{
		ID:                 p.ID,
		Name:               p.Name,
		Description:        p.Description,
		Creator:            crypto.FormatAccount(p.Creator),
		TotalParticipants:  p.TotalParticipants,
		ContributionAmount: amountString(p.ContributionAmount),
		Frequency:          p.Frequency.String(),
		DurationMonths:     p.DurationMonths,
		TotalCycles:        p.TotalCycles(),
		TrustScoreRequired: p.TrustScoreRequired,
		AllowPartial:       p.AllowPartial,
		Asset:              p.Asset,
		CurrentCycle:       p.CurrentCycle,
		IsActive:           p.IsActive,
		Completed:          p.Completed,
		PayoutIndex:        p.PayoutIndex,
		Balance:            amountString(p.Balance),
		CreatedAt:          p.CreatedAt,
		Vault:              crypto.AddressFromArray(crypto.VaultPrefix, savings.VaultAccount(p.ID)).String(),
	}
}

func payoutResult(p *savings.Payout) *PayoutResult {
	if p == nil {
		return nil
	}
	return &PayoutResult{
		PlanID:       p.PlanID,
		Cycle:        p.Cycle,
		Recipient:    crypto.FormatAccount(p.Recipient),
		Asset:        p.Asset,
		Gross:        amountString(p.Gross),
		Fee:          amountString(p.Fee),
		Net:          amountString(p.Net),
		FeeCollector: optionalAccount(p.FeeCollector),
		Completed:    p.Completed,
	}
}

func contributionResult(r *savings.ContributionReceipt) ContributionResult {
	return ContributionResult{
		PlanID:         r.PlanID,
		Contributor:    crypto.FormatAccount(r.Contributor),
		Cycle:          r.Cycle,
		Contributed:    amountString(r.Contributed),
		TotalThisCycle: amountString(r.TotalThisCycle),
		IsComplete:     r.IsComplete,
		DebtRepaid:     amountString(r.DebtRepaid),
		TrustScore:     r.TrustScore,
		Payout:         payoutResult(r.Payout),
	}
}

func resolutionResult(r *savings.JoinResolution) JoinResolutionResult {
	return JoinResolutionResult{
		PlanID:     r.PlanID,
		Requester:  crypto.FormatAccount(r.Requester),
		Outcome:    r.Outcome.String(),
		Approvals:  formatAccounts(r.Approvals),
		Denials:    formatAccounts(r.Denials),
		ResolvedAt: r.ResolvedAt,
	}
}

func cycleStatusResult(s *savings.CycleStatus) CycleStatusResult {
	return CycleStatusResult{
		PlanID:               s.PlanID,
		Participant:          crypto.FormatAccount(s.Participant),
		Cycle:                s.Cycle,
		Required:             amountString(s.Required),
		ContributedThisCycle: amountString(s.ContributedThisCycle),
		RemainingThisCycle:   amountString(s.RemainingThisCycle),
		FullyContributed:     s.FullyContributed,
		Debt:                 amountString(s.Debt),
		IsRecipientThisCycle: s.IsRecipientThisCycle,
	}
}
