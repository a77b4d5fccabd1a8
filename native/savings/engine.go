package savings

import (
	"fmt"
	"math/big"
	"strconv"
	"time"

	"ajochain/core/events"
	"ajochain/core/types"
	"ajochain/crypto"
	"ajochain/native/common"
)

// ModuleName is the pause-guard key of the savings module.
const ModuleName = "savings"

type engineState interface {
	SavingsPlanGet(id uint64) (*Plan, bool, error)
	SavingsPlanPut(plan *Plan) error
	SavingsPlanCount() (uint64, error)
	SavingsSetPlanCount(count uint64) error
	SavingsParticipants(planID uint64) ([][20]byte, error)
	SavingsAddParticipant(planID uint64, addr [20]byte) error
	SavingsJoinRequestGet(planID uint64, requester [20]byte) (*JoinRequest, bool, error)
	SavingsJoinRequestPut(req *JoinRequest) error
	SavingsJoinRequestDelete(planID uint64, requester [20]byte) error
	SavingsJoinRequests(planID uint64) ([][20]byte, error)
	SavingsEntryGet(planID uint64, addr [20]byte) (*ParticipantEntry, bool, error)
	SavingsEntryPut(entry *ParticipantEntry) error
	SavingsTrustGet(addr [20]byte) (uint64, bool, error)
	SavingsTrustPut(addr [20]byte, score uint64) error
	SavingsConfig() (*PlatformConfig, bool, error)
	SavingsConfigPut(cfg *PlatformConfig) error
	SavingsIndexCreator(addr [20]byte, planID uint64) error
	SavingsPlansByCreator(addr [20]byte) ([]uint64, error)
	SavingsPlansByParticipant(addr [20]byte) ([]uint64, error)
	IsPaused(module string) bool
	SetModulePaused(module string, paused bool) error
}

// Bank moves value between accounts. Transfer must either apply completely or
// leave balances untouched.
type Bank interface {
	Transfer(from, to [20]byte, asset string, amount *big.Int) error
}

type savingsEvent struct {
	evt *types.Event
}

func (e savingsEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e savingsEvent) Event() *types.Event { return e.evt }

// Engine implements the savings-circle ledger on top of an external state
// backend and value-transfer primitive. It holds no state of its own between
// calls; callers provide the transaction boundary.
type Engine struct {
	state    engineState
	bank     Bank
	emitter  events.Emitter
	assets   map[string]struct{}
	defaults PlatformConfig
	nowFn    func() int64
}

// NewEngine creates a savings engine with a no-op emitter.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetBank configures the value-transfer primitive.
func (e *Engine) SetBank(bank Bank) { e.bank = bank }

// SetAssets restricts plan creation to the provided asset symbols.
func (e *Engine) SetAssets(symbols []string) {
	e.assets = make(map[string]struct{}, len(symbols))
	for _, symbol := range symbols {
		normalized := NormalizeAsset(symbol)
		if normalized != "" {
			e.assets[normalized] = struct{}{}
		}
	}
}

// SetDefaultConfig sets the platform configuration used until one has been
// persisted.
func (e *Engine) SetDefaultConfig(cfg PlatformConfig) { e.defaults = cfg }

// SetNowFunc overrides the time source used by the engine.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetEmitter configures the event emitter used by the engine. Passing nil resets
// the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(savingsEvent{evt: event})
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errNilState
	}
	return nil
}

// guard rejects mutations while the module is paused.
func (e *Engine) guard() error {
	if err := e.ready(); err != nil {
		return err
	}
	return common.Guard(e.state, ModuleName)
}

func (e *Engine) loadPlan(id uint64) (*Plan, error) {
	plan, ok, err := e.state.SavingsPlanGet(id)
	if err != nil {
		return nil, err
	}
	if !ok || plan == nil {
		return nil, ErrPlanNotFound
	}
	return plan, nil
}

func (e *Engine) loadEntry(plan *Plan, addr [20]byte) (*ParticipantEntry, error) {
	entry, ok, err := e.state.SavingsEntryGet(plan.ID, addr)
	if err != nil {
		return nil, err
	}
	if !ok || entry == nil {
		entry = &ParticipantEntry{PlanID: plan.ID, Participant: addr}
	}
	if entry.Contributed == nil {
		entry.Contributed = big.NewInt(0)
	}
	if entry.Debt == nil {
		entry.Debt = big.NewInt(0)
	}
	if entry.Cycle != plan.CurrentCycle {
		entry.Cycle = plan.CurrentCycle
		entry.Contributed = big.NewInt(0)
	}
	return entry, nil
}

func (e *Engine) isParticipant(planID uint64, addr [20]byte) (bool, error) {
	participants, err := e.state.SavingsParticipants(planID)
	if err != nil {
		return false, err
	}
	return containsAddr(participants, addr), nil
}

// VaultAccount returns the account that pools a plan's contributions.
func VaultAccount(planID uint64) [20]byte {
	return crypto.DeriveAccount("savings/vault/" + strconv.FormatUint(planID, 10))
}

func containsAddr(list [][20]byte, addr [20]byte) bool {
	for _, candidate := range list {
		if candidate == addr {
			return true
		}
	}
	return false
}

func planIDString(id uint64) string {
	return strconv.FormatUint(id, 10)
}

func requireTransfer(bank Bank, from, to [20]byte, asset string, amount *big.Int) error {
	if bank == nil {
		return errNilBank
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil
	}
	if err := bank.Transfer(from, to, asset, amount); err != nil {
		return fmt.Errorf("savings: transfer %s %s: %w", amount, asset, err)
	}
	return nil
}
