package savings

// RequestToJoin records a pending admission request for requester.
func (e *Engine) RequestToJoin(planID uint64, requester [20]byte) (*JoinRequest, error) {
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
	if containsAddr(participants, requester) {
		return nil, ErrAlreadyParticipant
	}
	if _, pending, err := e.state.SavingsJoinRequestGet(planID, requester); err != nil {
		return nil, err
	} else if pending {
		return nil, ErrAlreadyParticipant
	}
	score, err := e.TrustScore(requester)
	if err != nil {
		return nil, err
	}
	if score < plan.TrustScoreRequired {
		return nil, ErrInsufficientTrustScore
	}
	if uint64(len(participants)) >= uint64(plan.TotalParticipants) {
		return nil, ErrPlanFull
	}
	req := &JoinRequest{
		PlanID:      planID,
		Requester:   requester,
		RequestedAt: e.now(),
	}
	if err := e.state.SavingsJoinRequestPut(req); err != nil {
		return nil, err
	}
	e.emit(NewJoinRequestedEvent(req))
	return req.Clone(), nil
}

// ApproveJoinRequest admits requester into the plan. Only the plan creator may
// approve.
func (e *Engine) ApproveJoinRequest(planID uint64, approver, requester [20]byte) (*JoinResolution, error) {
	if err := e.guard(); err != nil {
		return nil, err
	}
	plan, req, err := e.pendingRequest(planID, approver, requester)
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
	if uint64(len(participants)) >= uint64(plan.TotalParticipants) {
		return nil, ErrPlanFull
	}
	if err := e.state.SavingsJoinRequestDelete(planID, requester); err != nil {
		return nil, err
	}
	if err := e.state.SavingsAddParticipant(planID, requester); err != nil {
		return nil, err
	}
	resolution := &JoinResolution{
		PlanID:     planID,
		Requester:  requester,
		Outcome:    JoinApproved,
		Approvals:  append(req.Approvals, approver),
		Denials:    req.Denials,
		ResolvedAt: e.now(),
	}
	e.emit(NewJoinResolvedEvent(resolution, approver))
	e.emit(NewParticipantJoinedEvent(planID, requester))
	return resolution, nil
}

// DenyJoinRequest discards requester's pending request. Only the plan creator
// may deny. Denial is allowed while the plan is paused.
func (e *Engine) DenyJoinRequest(planID uint64, approver, requester [20]byte) (*JoinResolution, error) {
	if err := e.guard(); err != nil {
		return nil, err
	}
	_, req, err := e.pendingRequest(planID, approver, requester)
	if err != nil {
		return nil, err
	}
	if err := e.state.SavingsJoinRequestDelete(planID, requester); err != nil {
		return nil, err
	}
	resolution := &JoinResolution{
		PlanID:     planID,
		Requester:  requester,
		Outcome:    JoinDenied,
		Approvals:  req.Approvals,
		Denials:    append(req.Denials, approver),
		ResolvedAt: e.now(),
	}
	e.emit(NewJoinResolvedEvent(resolution, approver))
	return resolution, nil
}

func (e *Engine) pendingRequest(planID uint64, approver, requester [20]byte) (*Plan, *JoinRequest, error) {
	plan, err := e.loadPlan(planID)
	if err != nil {
		return nil, nil, err
	}
	if approver != plan.Creator {
		return nil, nil, ErrNotAuthorized
	}
	req, ok, err := e.state.SavingsJoinRequestGet(planID, requester)
	if err != nil {
		return nil, nil, err
	}
	if !ok || req == nil {
		return nil, nil, ErrRequestNotFound
	}
	return plan, req.Clone(), nil
}

// IsParticipant reports whether addr is enrolled in the plan.
func (e *Engine) IsParticipant(planID uint64, addr [20]byte) (bool, error) {
	if err := e.ready(); err != nil {
		return false, err
	}
	return e.isParticipant(planID, addr)
}

// Participants returns the plan's participants in enrolment order.
func (e *Engine) Participants(planID uint64) ([][20]byte, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	participants, err := e.state.SavingsParticipants(planID)
	if err != nil {
		return nil, err
	}
	return append([][20]byte(nil), participants...), nil
}

// JoinRequests returns the requesters with a pending request on the plan.
func (e *Engine) JoinRequests(planID uint64) ([][20]byte, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	requests, err := e.state.SavingsJoinRequests(planID)
	if err != nil {
		return nil, err
	}
	return append([][20]byte(nil), requests...), nil
}
