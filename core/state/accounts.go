package state

import (
	"fmt"
	"math/big"
	"strings"
)

func balanceKey(addr [20]byte, asset string) []byte {
	symbol := strings.ToUpper(strings.TrimSpace(asset))
	buf := make([]byte, 0, len(balancePrefix)+len(symbol)+1+len(addr))
	buf = append(buf, balancePrefix...)
	buf = append(buf, symbol...)
	buf = append(buf, '/')
	buf = append(buf, addr[:]...)
	return buf
}

func (m *Manager) loadBigInt(key []byte) (*big.Int, error) {
	value := new(big.Int)
	ok, err := m.KVGet(key, value)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return value, nil
}

// Balance returns the amount of asset held by addr.
func (m *Manager) Balance(addr [20]byte, asset string) (*big.Int, error) {
	if strings.TrimSpace(asset) == "" {
		return nil, fmt.Errorf("state: asset required")
	}
	return m.loadBigInt(balanceKey(addr, asset))
}

// SetBalance overwrites the amount of asset held by addr. Zero balances are
// removed from state.
func (m *Manager) SetBalance(addr [20]byte, asset string, amount *big.Int) error {
	if strings.TrimSpace(asset) == "" {
		return fmt.Errorf("state: asset required")
	}
	if amount == nil || amount.Sign() == 0 {
		return m.KVDelete(balanceKey(addr, asset))
	}
	if amount.Sign() < 0 {
		return fmt.Errorf("state: negative balance")
	}
	return m.KVPut(balanceKey(addr, asset), new(big.Int).Set(amount))
}

// NextMintNonce increments and returns the faucet mint counter.
func (m *Manager) NextMintNonce() (uint64, error) {
	var current uint64
	if _, err := m.KVGet(mintNonceKey, &current); err != nil {
		return 0, err
	}
	current++
	if err := m.KVPut(mintNonceKey, current); err != nil {
		return 0, err
	}
	return current, nil
}

func modulePauseKey(module string) []byte {
	return append(append([]byte(nil), modulePausePrefix...), []byte("/"+module)...)
}

// IsPaused reports whether the named module has been paused. Read failures
// are treated as paused.
func (m *Manager) IsPaused(module string) bool {
	var paused bool
	ok, err := m.KVGet(modulePauseKey(module), &paused)
	if err != nil {
		return true
	}
	return ok && paused
}

// SetModulePaused toggles the pause switch of the named module.
func (m *Manager) SetModulePaused(module string, paused bool) error {
	if strings.TrimSpace(module) == "" {
		return fmt.Errorf("state: module required")
	}
	if !paused {
		return m.KVDelete(modulePauseKey(module))
	}
	return m.KVPut(modulePauseKey(module), true)
}
