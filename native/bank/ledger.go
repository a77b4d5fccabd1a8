package bank

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"ajochain/core/events"
)

var (
	ErrInvalidAmount       = errors.New("bank: amount must be positive")
	ErrInsufficientBalance = errors.New("bank: insufficient balance")
	ErrAssetRequired       = errors.New("bank: asset required")
)

type balanceState interface {
	Balance(addr [20]byte, asset string) (*big.Int, error)
	SetBalance(addr [20]byte, asset string, amount *big.Int) error
	NextMintNonce() (uint64, error)
}

// Ledger moves asset balances between accounts held in state.
type Ledger struct {
	state   balanceState
	emitter events.Emitter
}

// NewLedger returns a ledger backed by the provided state.
func NewLedger(state balanceState) *Ledger {
	return &Ledger{state: state, emitter: events.NoopEmitter{}}
}

// SetEmitter configures the event emitter used by the ledger.
func (l *Ledger) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		l.emitter = events.NoopEmitter{}
		return
	}
	l.emitter = emitter
}

func (l *Ledger) ready() error {
	if l == nil || l.state == nil {
		return fmt.Errorf("bank: state manager required")
	}
	return nil
}

// Balance returns the amount of asset held by addr.
func (l *Ledger) Balance(addr [20]byte, asset string) (*big.Int, error) {
	if err := l.ready(); err != nil {
		return nil, err
	}
	symbol, err := normalizeAsset(asset)
	if err != nil {
		return nil, err
	}
	return l.state.Balance(addr, symbol)
}

// Transfer debits from and credits to. Both balances are checked before either
// is written.
func (l *Ledger) Transfer(from, to [20]byte, asset string, amount *big.Int) error {
	if err := l.ready(); err != nil {
		return err
	}
	symbol, err := normalizeAsset(asset)
	if err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	fromBalance, err := l.state.Balance(from, symbol)
	if err != nil {
		return err
	}
	if fromBalance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: have %s, need %s %s", ErrInsufficientBalance, fromBalance, amount, symbol)
	}
	if from == to {
		return nil
	}
	toBalance, err := l.state.Balance(to, symbol)
	if err != nil {
		return err
	}
	if err := l.state.SetBalance(from, symbol, new(big.Int).Sub(fromBalance, amount)); err != nil {
		return err
	}
	if err := l.state.SetBalance(to, symbol, new(big.Int).Add(toBalance, amount)); err != nil {
		return err
	}
	l.emitter.Emit(events.Transfer{Asset: symbol, From: from, To: to, Amount: new(big.Int).Set(amount)})
	return nil
}

// Mint credits newly issued funds to an account. It backs the development
// faucet and has no counterpart debit.
func (l *Ledger) Mint(to [20]byte, asset string, amount *big.Int) (*big.Int, error) {
	if err := l.ready(); err != nil {
		return nil, err
	}
	symbol, err := normalizeAsset(asset)
	if err != nil {
		return nil, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	current, err := l.state.Balance(to, symbol)
	if err != nil {
		return nil, err
	}
	next := new(big.Int).Add(current, amount)
	if err := l.state.SetBalance(to, symbol, next); err != nil {
		return nil, err
	}
	nonce, err := l.state.NextMintNonce()
	if err != nil {
		return nil, err
	}
	l.emitter.Emit(events.Mint{Asset: symbol, To: to, Amount: new(big.Int).Set(amount), Balance: new(big.Int).Set(next), Nonce: nonce})
	return next, nil
}

func normalizeAsset(asset string) (string, error) {
	symbol := strings.ToUpper(strings.TrimSpace(asset))
	if symbol == "" {
		return "", ErrAssetRequired
	}
	return symbol, nil
}
