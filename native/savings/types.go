package savings

import (
	"fmt"
	"math/big"
	"strings"
)

// Frequency is the advisory cadence label attached to a plan. Cycles advance
// when contributions are collected, never on a wall clock.
type Frequency uint8

const (
	FrequencyDaily Frequency = iota + 1
	FrequencyWeekly
	FrequencyBiweekly
	FrequencyMonthly
)

// Valid reports whether the frequency is one of the supported cadences.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly:
		return true
	default:
		return false
	}
}

// CyclesPerMonth returns how many collection rounds one month of the plan
// spans for the cadence.
func (f Frequency) CyclesPerMonth() uint64 {
	switch f {
	case FrequencyDaily:
		return 30
	case FrequencyWeekly:
		return 4
	case FrequencyBiweekly:
		return 2
	case FrequencyMonthly:
		return 1
	default:
		return 0
	}
}

func (f Frequency) String() string {
	switch f {
	case FrequencyDaily:
		return "daily"
	case FrequencyWeekly:
		return "weekly"
	case FrequencyBiweekly:
		return "biweekly"
	case FrequencyMonthly:
		return "monthly"
	default:
		return fmt.Sprintf("frequency(%d)", uint8(f))
	}
}

// ParseFrequency converts a textual cadence into its enum value.
func ParseFrequency(value string) (Frequency, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "daily":
		return FrequencyDaily, nil
	case "weekly":
		return FrequencyWeekly, nil
	case "biweekly", "bi-weekly":
		return FrequencyBiweekly, nil
	case "monthly":
		return FrequencyMonthly, nil
	default:
		return 0, fmt.Errorf("savings: unknown frequency %q", value)
	}
}

// Plan is the stored aggregate for a savings circle.
type Plan struct {
	ID                 uint64
	Name               string
	Description        string
	Creator            [20]byte
	TotalParticipants  uint32
	ContributionAmount *big.Int
	Frequency          Frequency
	DurationMonths     uint32
	TrustScoreRequired uint64
	AllowPartial       bool
	Asset              string
	CurrentCycle       uint64
	IsActive           bool
	PayoutIndex        uint64
	// Balance is the amount pooled in the plan vault for the active cycle.
	Balance   *big.Int
	CreatedAt int64
	Completed bool
}

// Clone returns a deep copy of the plan.
func (p *Plan) Clone() *Plan {
	if p == nil {
		return nil
	}
	clone := *p
	clone.ContributionAmount = cloneBigInt(p.ContributionAmount)
	clone.Balance = cloneBigInt(p.Balance)
	return &clone
}

// TotalCycles returns the number of collection rounds the plan runs before it
// completes.
func (p *Plan) TotalCycles() uint64 {
	if p == nil {
		return 0
	}
	return uint64(p.DurationMonths) * p.Frequency.CyclesPerMonth()
}

// CreatePlanParams carries the caller supplied plan definition.
type CreatePlanParams struct {
	Name               string
	Description        string
	TotalParticipants  uint32
	ContributionAmount *big.Int
	Frequency          Frequency
	DurationMonths     uint32
	TrustScoreRequired uint64
	AllowPartial       bool
	Asset              string
}

// JoinRequest is a pending admission request. Resolved requests are never
// stored.
type JoinRequest struct {
	PlanID      uint64
	Requester   [20]byte
	Approvals   [][20]byte
	Denials     [][20]byte
	RequestedAt int64
}

// Clone returns a deep copy of the request.
func (r *JoinRequest) Clone() *JoinRequest {
	if r == nil {
		return nil
	}
	clone := *r
	clone.Approvals = append([][20]byte(nil), r.Approvals...)
	clone.Denials = append([][20]byte(nil), r.Denials...)
	return &clone
}

// JoinOutcome identifies how a join request was resolved.
type JoinOutcome uint8

const (
	JoinApproved JoinOutcome = iota + 1
	JoinDenied
)

func (o JoinOutcome) String() string {
	switch o {
	case JoinApproved:
		return "approved"
	case JoinDenied:
		return "denied"
	default:
		return "unknown"
	}
}

// JoinResolution is returned once a pending request has been consumed.
type JoinResolution struct {
	PlanID     uint64
	Requester  [20]byte
	Outcome    JoinOutcome
	Approvals  [][20]byte
	Denials    [][20]byte
	ResolvedAt int64
}

// ParticipantEntry records a participant's standing in a plan. Contributed
// applies to Cycle only; a stale cycle reads as nothing contributed.
type ParticipantEntry struct {
	PlanID      uint64
	Participant [20]byte
	Cycle       uint64
	Contributed *big.Int
	Debt        *big.Int
}

// Clone returns a deep copy of the entry.
func (e *ParticipantEntry) Clone() *ParticipantEntry {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Contributed = cloneBigInt(e.Contributed)
	clone.Debt = cloneBigInt(e.Debt)
	return &clone
}

// CycleStatus is the read-only projection of a participant's position in the
// active cycle.
type CycleStatus struct {
	PlanID               uint64
	Participant          [20]byte
	Cycle                uint64
	Required             *big.Int
	ContributedThisCycle *big.Int
	RemainingThisCycle   *big.Int
	FullyContributed     bool
	Debt                 *big.Int
	IsRecipientThisCycle bool
}

// ContributionReceipt summarises an accepted contribution.
type ContributionReceipt struct {
	PlanID         uint64
	Contributor    [20]byte
	Cycle          uint64
	Contributed    *big.Int
	TotalThisCycle *big.Int
	IsComplete     bool
	DebtRepaid     *big.Int
	TrustScore     uint64
	// Payout is set when the contribution completed the cycle.
	Payout *Payout
}

// Payout describes the distribution of a closed cycle's pool.
type Payout struct {
	PlanID       uint64
	Cycle        uint64
	Recipient    [20]byte
	Asset        string
	Gross        *big.Int
	Fee          *big.Int
	Net          *big.Int
	FeeCollector [20]byte
	Completed    bool
}

// PlatformConfig is the singleton administrative configuration.
type PlatformConfig struct {
	Owner        [20]byte
	FeeBps       uint32
	FeeCollector [20]byte
}

// Clone returns a copy of the configuration.
func (c *PlatformConfig) Clone() *PlatformConfig {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// PageWindow is a contiguous range of plan identifiers. StartID > EndID means
// the page is empty.
type PageWindow struct {
	StartID    uint64
	EndID      uint64
	TotalCount uint64
}

// Empty reports whether the window contains no identifiers.
func (w PageWindow) Empty() bool { return w.StartID > w.EndID }

// NormalizeAsset returns the canonical upper-case form of an asset symbol.
func NormalizeAsset(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
