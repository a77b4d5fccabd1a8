package common

import (
	"errors"
	"fmt"
)

var ErrModulePaused = errors.New("module paused")

// PauseView exposes the module-wide pause switches kept in state.
type PauseView interface {
	IsPaused(module string) bool
}

// Guard fails with ErrModulePaused while module is paused. A nil view or an
// empty module name never blocks.
func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return fmt.Errorf("%w: %s", ErrModulePaused, module)
	}
	return nil
}
