package savings

import "fmt"

func (e *Engine) platformConfig() (*PlatformConfig, error) {
	cfg, ok, err := e.state.SavingsConfig()
	if err != nil {
		return nil, err
	}
	if !ok || cfg == nil {
		defaults := e.defaults
		return &defaults, nil
	}
	return cfg, nil
}

func (e *Engine) requireOwner(caller [20]byte) error {
	cfg, err := e.platformConfig()
	if err != nil {
		return err
	}
	if cfg.Owner == ([20]byte{}) || cfg.Owner != caller {
		return ErrOwnerOnly
	}
	return nil
}

// PlatformConfig returns the effective administrative configuration.
func (e *Engine) PlatformConfig() (*PlatformConfig, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	cfg, err := e.platformConfig()
	if err != nil {
		return nil, err
	}
	return cfg.Clone(), nil
}

// PlatformFeeBps returns the fee charged on payouts in basis points.
func (e *Engine) PlatformFeeBps() (uint32, error) {
	cfg, err := e.PlatformConfig()
	if err != nil {
		return 0, err
	}
	return cfg.FeeBps, nil
}

// SetPlatformFeeBps updates the payout fee. Only the owner may call it.
func (e *Engine) SetPlatformFeeBps(caller [20]byte, bps uint32) error {
	if err := e.guard(); err != nil {
		return err
	}
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if bps > MaxPlatformFeeBps {
		return fmt.Errorf("%w: fee must not exceed %d bps", ErrInvalidPlanParameters, MaxPlatformFeeBps)
	}
	cfg, err := e.platformConfig()
	if err != nil {
		return err
	}
	previous := cfg.FeeBps
	cfg.FeeBps = bps
	if err := e.state.SavingsConfigPut(cfg); err != nil {
		return err
	}
	e.emit(NewFeeUpdatedEvent(previous, bps))
	return nil
}

// SetFeeCollector changes the account credited with payout fees.
func (e *Engine) SetFeeCollector(caller, collector [20]byte) error {
	if err := e.guard(); err != nil {
		return err
	}
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	cfg, err := e.platformConfig()
	if err != nil {
		return err
	}
	cfg.FeeCollector = collector
	return e.state.SavingsConfigPut(cfg)
}

// PausePlan deactivates a plan. Only the owner may call it.
func (e *Engine) PausePlan(caller [20]byte, planID uint64) error {
	return e.setPlanActive(caller, planID, false)
}

// ReactivatePlan reverses PausePlan. Completed plans stay inactive.
func (e *Engine) ReactivatePlan(caller [20]byte, planID uint64) error {
	return e.setPlanActive(caller, planID, true)
}

func (e *Engine) setPlanActive(caller [20]byte, planID uint64, active bool) error {
	if err := e.guard(); err != nil {
		return err
	}
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	plan, err := e.loadPlan(planID)
	if err != nil {
		return err
	}
	if active && plan.Completed {
		return ErrPlanInactive
	}
	plan.IsActive = active
	if err := e.state.SavingsPlanPut(plan); err != nil {
		return err
	}
	eventType := EventTypePlanPaused
	if active {
		eventType = EventTypePlanReactivated
	}
	e.emit(NewPlanStatusEvent(eventType, plan))
	return nil
}

// PauseModule halts every mutating savings call until ResumeModule.
func (e *Engine) PauseModule(caller [20]byte) error {
	return e.setModulePaused(caller, true)
}

// ResumeModule lifts a module-wide pause.
func (e *Engine) ResumeModule(caller [20]byte) error {
	return e.setModulePaused(caller, false)
}

// ModulePaused reports whether the module-wide pause is engaged.
func (e *Engine) ModulePaused() (bool, error) {
	if err := e.ready(); err != nil {
		return false, err
	}
	return e.state.IsPaused(ModuleName), nil
}

func (e *Engine) setModulePaused(caller [20]byte, paused bool) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if err := e.state.SetModulePaused(ModuleName, paused); err != nil {
		return err
	}
	e.emit(NewModulePauseEvent(paused))
	return nil
}
