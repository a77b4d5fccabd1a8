package events

import (
	"math/big"

	"ajochain/core/types"
	"ajochain/crypto"
)

const (
	// TypeTransfer is emitted for balance movements between accounts.
	TypeTransfer = "bank.transfer"
	// TypeMint is emitted when a development faucet credits an account.
	TypeMint = "bank.mint"
)

type Transfer struct {
	Asset  string
	From   [20]byte
	To     [20]byte
	Amount *big.Int
	Memo   string
}

func (Transfer) EventType() string { return TypeTransfer }

func (e Transfer) Event() *types.Event {
	attrs := map[string]string{}
	if asset := normalizeAsset(e.Asset); asset != "" {
		attrs["asset"] = asset
	}
	attrs["from"] = crypto.FormatAccount(e.From)
	attrs["to"] = crypto.FormatAccount(e.To)
	attrs["amount"] = formatAmount(e.Amount)
	if e.Memo != "" {
		attrs["memo"] = e.Memo
	}
	return &types.Event{Type: TypeTransfer, Attributes: attrs}
}

type Mint struct {
	Asset   string
	To      [20]byte
	Amount  *big.Int
	Balance *big.Int
	Nonce   uint64
}

func (Mint) EventType() string { return TypeMint }

func (e Mint) Event() *types.Event {
	return &types.Event{
		Type: TypeMint,
		Attributes: map[string]string{
			"asset":   normalizeAsset(e.Asset),
			"to":      crypto.FormatAccount(e.To),
			"amount":  formatAmount(e.Amount),
			"balance": formatAmount(e.Balance),
			"nonce":   uintToString(e.Nonce),
		},
	}
}
