package savings

// PaginatedPlanIDs returns the window of plan identifiers for a 1-based page.
// Pages beyond the registry, a zero page and a zero page size all produce an
// empty window rather than an error.
func (e *Engine) PaginatedPlanIDs(page, pageSize uint64) (PageWindow, error) {
	count, err := e.PlanCount()
	if err != nil {
		return PageWindow{}, err
	}
	return PageFor(count, page, pageSize), nil
}

// PageFor computes the identifier window of page over total sequential ids.
func PageFor(total, page, pageSize uint64) PageWindow {
	empty := PageWindow{StartID: 1, EndID: 0, TotalCount: total}
	if page == 0 || pageSize == 0 || total == 0 {
		return empty
	}
	if page-1 > (total-1)/pageSize {
		return PageWindow{StartID: total + 1, EndID: total, TotalCount: total}
	}
	start := (page-1)*pageSize + 1
	end := total
	if remaining := total - start; remaining >= pageSize {
		end = start + pageSize - 1
	}
	return PageWindow{StartID: start, EndID: end, TotalCount: total}
}

// PlansPage loads the plans inside the page window.
func (e *Engine) PlansPage(page, pageSize uint64) (PageWindow, []*Plan, error) {
	window, err := e.PaginatedPlanIDs(page, pageSize)
	if err != nil || window.Empty() {
		return window, nil, err
	}
	plans := make([]*Plan, 0, window.EndID-window.StartID+1)
	for id := window.StartID; id <= window.EndID; id++ {
		plan, ok, err := e.Plan(id)
		if err != nil {
			return window, nil, err
		}
		if ok {
			plans = append(plans, plan)
		}
	}
	return window, plans, nil
}

// PlansByCreator returns the ids of plans created by addr in creation order.
func (e *Engine) PlansByCreator(addr [20]byte) ([]uint64, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	return e.state.SavingsPlansByCreator(addr)
}

// PlansByParticipant returns the ids of plans addr is enrolled in, including
// the plans it created.
func (e *Engine) PlansByParticipant(addr [20]byte) ([]uint64, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	return e.state.SavingsPlansByParticipant(addr)
}
