package savings

import (
	"math/big"
	"strconv"

	"ajochain/core/types"
	"ajochain/crypto"
)

const (
	EventTypePlanCreated       = "savings.plan.created"
	EventTypePlanPaused        = "savings.plan.paused"
	EventTypePlanReactivated   = "savings.plan.reactivated"
	EventTypePlanCompleted     = "savings.plan.completed"
	EventTypeJoinRequested     = "savings.join.requested"
	EventTypeJoinResolved      = "savings.join.resolved"
	EventTypeParticipantJoined = "savings.participant.joined"
	EventTypeContribution      = "savings.contribution"
	EventTypeDebtCharged       = "savings.debt.charged"
	EventTypeCycleClosed       = "savings.cycle.closed"
	EventTypePayout            = "savings.payout"
	EventTypeTrustUpdated      = "savings.trust.updated"
	EventTypeFeeUpdated        = "savings.fee.updated"
	EventTypeModulePaused      = "savings.module.paused"
	EventTypeModuleResumed     = "savings.module.resumed"
)

// NewPlanCreatedEvent returns the canonical payload for a newly created plan.
func NewPlanCreatedEvent(p *Plan) *types.Event {
	evt := newPlanEvent(EventTypePlanCreated, p)
	if p != nil {
		evt.Attributes["name"] = p.Name
		evt.Attributes["totalParticipants"] = strconv.FormatUint(uint64(p.TotalParticipants), 10)
		evt.Attributes["contributionAmount"] = cloneBigInt(p.ContributionAmount).String()
		evt.Attributes["frequency"] = p.Frequency.String()
		evt.Attributes["durationMonths"] = strconv.FormatUint(uint64(p.DurationMonths), 10)
		evt.Attributes["trustScoreRequired"] = strconv.FormatUint(p.TrustScoreRequired, 10)
		evt.Attributes["allowPartial"] = strconv.FormatBool(p.AllowPartial)
		evt.Attributes["createdAt"] = strconv.FormatInt(p.CreatedAt, 10)
	}
	return evt
}

// NewPlanStatusEvent returns the payload for pause, reactivation and
// completion transitions.
func NewPlanStatusEvent(eventType string, p *Plan) *types.Event {
	evt := newPlanEvent(eventType, p)
	if p != nil {
		evt.Attributes["active"] = strconv.FormatBool(p.IsActive)
		evt.Attributes["completed"] = strconv.FormatBool(p.Completed)
	}
	return evt
}

// NewJoinRequestedEvent returns the payload for a new pending request.
func NewJoinRequestedEvent(req *JoinRequest) *types.Event {
	attrs := make(map[string]string)
	if req != nil {
		attrs["planId"] = planIDString(req.PlanID)
		attrs["requester"] = crypto.FormatAccount(req.Requester)
		attrs["requestedAt"] = strconv.FormatInt(req.RequestedAt, 10)
	}
	return &types.Event{Type: EventTypeJoinRequested, Attributes: attrs}
}

// NewJoinResolvedEvent returns the payload emitted when a request is approved
// or denied.
func NewJoinResolvedEvent(res *JoinResolution, approver [20]byte) *types.Event {
	attrs := make(map[string]string)
	if res != nil {
		attrs["planId"] = planIDString(res.PlanID)
		attrs["requester"] = crypto.FormatAccount(res.Requester)
		attrs["outcome"] = res.Outcome.String()
		attrs["approver"] = crypto.FormatAccount(approver)
	}
	return &types.Event{Type: EventTypeJoinResolved, Attributes: attrs}
}

// NewParticipantJoinedEvent returns the payload for an enrolment.
func NewParticipantJoinedEvent(planID uint64, addr [20]byte) *types.Event {
	return &types.Event{Type: EventTypeParticipantJoined, Attributes: map[string]string{
		"planId":      planIDString(planID),
		"participant": crypto.FormatAccount(addr),
	}}
}

// NewContributionEvent returns the payload for an accepted contribution.
func NewContributionEvent(r *ContributionReceipt, asset string) *types.Event {
	attrs := make(map[string]string)
	if r != nil {
		attrs["planId"] = planIDString(r.PlanID)
		attrs["contributor"] = crypto.FormatAccount(r.Contributor)
		attrs["cycle"] = strconv.FormatUint(r.Cycle, 10)
		attrs["asset"] = asset
		attrs["amount"] = cloneBigInt(r.Contributed).String()
		attrs["totalThisCycle"] = cloneBigInt(r.TotalThisCycle).String()
		attrs["complete"] = strconv.FormatBool(r.IsComplete)
		if r.DebtRepaid != nil && r.DebtRepaid.Sign() > 0 {
			attrs["debtRepaid"] = r.DebtRepaid.String()
		}
	}
	return &types.Event{Type: EventTypeContribution, Attributes: attrs}
}

// NewDebtChargedEvent returns the payload emitted when a shortfall is carried
// into debt at cycle close.
func NewDebtChargedEvent(planID uint64, addr [20]byte, cycle uint64, shortfall, debt *big.Int) *types.Event {
	return &types.Event{Type: EventTypeDebtCharged, Attributes: map[string]string{
		"planId":      planIDString(planID),
		"participant": crypto.FormatAccount(addr),
		"cycle":       strconv.FormatUint(cycle, 10),
		"shortfall":   cloneBigInt(shortfall).String(),
		"debt":        cloneBigInt(debt).String(),
	}}
}

// NewCycleClosedEvent returns the payload emitted after the rotation advanced.
func NewCycleClosedEvent(p *Plan, closed uint64) *types.Event {
	evt := newPlanEvent(EventTypeCycleClosed, p)
	evt.Attributes["closedCycle"] = strconv.FormatUint(closed, 10)
	if p != nil {
		evt.Attributes["currentCycle"] = strconv.FormatUint(p.CurrentCycle, 10)
		evt.Attributes["payoutIndex"] = strconv.FormatUint(p.PayoutIndex, 10)
	}
	return evt
}

// NewPayoutEvent returns the payload describing a pool distribution.
func NewPayoutEvent(p *Payout) *types.Event {
	attrs := make(map[string]string)
	if p != nil {
		attrs["planId"] = planIDString(p.PlanID)
		attrs["cycle"] = strconv.FormatUint(p.Cycle, 10)
		attrs["recipient"] = crypto.FormatAccount(p.Recipient)
		attrs["asset"] = p.Asset
		attrs["gross"] = cloneBigInt(p.Gross).String()
		attrs["fee"] = cloneBigInt(p.Fee).String()
		attrs["net"] = cloneBigInt(p.Net).String()
	}
	return &types.Event{Type: EventTypePayout, Attributes: attrs}
}

// NewTrustUpdatedEvent returns the payload for a trust score change.
func NewTrustUpdatedEvent(addr [20]byte, previous, current uint64) *types.Event {
	return &types.Event{Type: EventTypeTrustUpdated, Attributes: map[string]string{
		"account":  crypto.FormatAccount(addr),
		"previous": strconv.FormatUint(previous, 10),
		"score":    strconv.FormatUint(current, 10),
	}}
}

// NewFeeUpdatedEvent returns the payload for a platform fee change.
func NewFeeUpdatedEvent(previous, current uint32) *types.Event {
	return &types.Event{Type: EventTypeFeeUpdated, Attributes: map[string]string{
		"previousBps": strconv.FormatUint(uint64(previous), 10),
		"feeBps":      strconv.FormatUint(uint64(current), 10),
	}}
}

// NewModulePauseEvent returns the payload for a module-wide pause toggle.
func NewModulePauseEvent(paused bool) *types.Event {
	eventType := EventTypeModuleResumed
	if paused {
		eventType = EventTypeModulePaused
	}
	return &types.Event{Type: eventType, Attributes: map[string]string{"module": ModuleName}}
}

func newPlanEvent(eventType string, p *Plan) *types.Event {
	attrs := make(map[string]string)
	if p != nil {
		attrs["planId"] = planIDString(p.ID)
		attrs["creator"] = crypto.FormatAccount(p.Creator)
		attrs["asset"] = p.Asset
	}
	return &types.Event{Type: eventType, Attributes: attrs}
}
