package savings

// TrustScore returns the global trust score of addr. Principals that were
// never scored report DefaultTrustScore.
func (e *Engine) TrustScore(addr [20]byte) (uint64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	score, ok, err := e.state.SavingsTrustGet(addr)
	if err != nil {
		return 0, err
	}
	if !ok {
		return DefaultTrustScore, nil
	}
	return clampTrust(score), nil
}

// increaseTrust adds TrustScoreStep to addr's score, saturating at
// MaxTrustScore, and returns the new value.
func (e *Engine) increaseTrust(addr [20]byte) (uint64, error) {
	current, err := e.TrustScore(addr)
	if err != nil {
		return 0, err
	}
	next := clampTrust(current + TrustScoreStep)
	if next == current {
		return current, nil
	}
	if err := e.state.SavingsTrustPut(addr, next); err != nil {
		return 0, err
	}
	e.emit(NewTrustUpdatedEvent(addr, current, next))
	return next, nil
}

func clampTrust(score uint64) uint64 {
	if score > MaxTrustScore {
		return MaxTrustScore
	}
	return score
}
