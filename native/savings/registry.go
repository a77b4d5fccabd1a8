package savings

import (
	"fmt"
	"math/big"
)

// CreatePlan validates params, stores a new plan owned by creator and enrols
// the creator as its first participant.
func (e *Engine) CreatePlan(creator [20]byte, params CreatePlanParams) (uint64, error) {
	if err := e.guard(); err != nil {
		return 0, err
	}
	validated, err := ValidateCreateParams(params, e.assets)
	if err != nil {
		return 0, err
	}
	count, err := e.state.SavingsPlanCount()
	if err != nil {
		return 0, err
	}
	id := count + 1
	if id == 0 {
		return 0, fmt.Errorf("savings: plan id overflow")
	}
	plan := &Plan{
		ID:                 id,
		Name:               validated.Name,
		Description:        validated.Description,
		Creator:            creator,
		TotalParticipants:  validated.TotalParticipants,
		ContributionAmount: validated.ContributionAmount,
		Frequency:          validated.Frequency,
		DurationMonths:     validated.DurationMonths,
		TrustScoreRequired: validated.TrustScoreRequired,
		AllowPartial:       validated.AllowPartial,
		Asset:              validated.Asset,
		CurrentCycle:       1,
		IsActive:           true,
		PayoutIndex:        0,
		Balance:            big.NewInt(0),
		CreatedAt:          e.now(),
	}
	if err := e.state.SavingsPlanPut(plan); err != nil {
		return 0, err
	}
	if err := e.state.SavingsSetPlanCount(id); err != nil {
		return 0, err
	}
	if err := e.state.SavingsIndexCreator(creator, id); err != nil {
		return 0, err
	}
	if err := e.state.SavingsAddParticipant(id, creator); err != nil {
		return 0, err
	}
	e.emit(NewPlanCreatedEvent(plan))
	e.emit(NewParticipantJoinedEvent(id, creator))
	return id, nil
}

// Plan returns a copy of the stored plan.
func (e *Engine) Plan(id uint64) (*Plan, bool, error) {
	if err := e.ready(); err != nil {
		return nil, false, err
	}
	plan, ok, err := e.state.SavingsPlanGet(id)
	if err != nil || !ok {
		return nil, false, err
	}
	return plan.Clone(), true, nil
}

// PlanCount returns the number of plans ever created.
func (e *Engine) PlanCount() (uint64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	return e.state.SavingsPlanCount()
}
