package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"ajochain/core/events"
	ledgerstate "ajochain/core/state"
	"ajochain/native/bank"
	"ajochain/native/savings"
	"ajochain/observability"
	telemetry "ajochain/observability/otel"
	"ajochain/storage"
)

// ErrAssetNotSupported is returned when a faucet mint names an unknown asset.
var ErrAssetNotSupported = errors.New("asset not supported")

// Options configures a Node.
type Options struct {
	Owner        [20]byte
	FeeCollector [20]byte
	FeeBps       uint32
	Assets       []string
	AllowMigrate bool
	Now          func() int64
	Logger       *slog.Logger
	// EventBuffer sizes each live subscriber channel.
	EventBuffer int
}

// Node is the transaction boundary around the savings ledger. Every mutating
// call runs against a fresh state overlay that is committed as one batch on
// success and dropped on failure; events are only published after commit.
type Node struct {
	db          storage.Database
	stateMu     sync.RWMutex
	assets      []string
	defaults    savings.PlatformConfig
	nowFn       func() int64
	logger      *slog.Logger
	broadcaster *events.Broadcaster
	sinkMu      sync.RWMutex
	sinks       []events.Emitter
}

func NewNode(db storage.Database, opts Options) (*Node, error) {
	if db == nil {
		return nil, fmt.Errorf("node: database required")
	}
	if opts.FeeBps > savings.MaxPlatformFeeBps {
		return nil, fmt.Errorf("node: fee %d bps exceeds %d", opts.FeeBps, savings.MaxPlatformFeeBps)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	assets := make([]string, 0, len(opts.Assets))
	for _, symbol := range opts.Assets {
		if normalized := savings.NormalizeAsset(symbol); normalized != "" {
			assets = append(assets, normalized)
		}
	}
	if len(assets) == 0 {
		return nil, fmt.Errorf("node: at least one asset required")
	}
	nowFn := opts.Now
	if nowFn == nil {
		nowFn = func() int64 { return time.Now().Unix() }
	}
	n := &Node{
		db:     db,
		assets: assets,
		defaults: savings.PlatformConfig{
			Owner:        opts.Owner,
			FeeBps:       opts.FeeBps,
			FeeCollector: opts.FeeCollector,
		},
		nowFn:       nowFn,
		logger:      logger.With("component", "node"),
		broadcaster: events.NewBroadcaster(opts.EventBuffer),
	}

	manager := ledgerstate.NewManager(db)
	if err := ledgerstate.EnsureStateVersion(manager, opts.AllowMigrate); err != nil {
		return nil, err
	}
	_, ok, err := manager.SavingsConfig()
	if err != nil {
		return nil, err
	}
	if !ok {
		cfg := n.defaults
		if err := manager.SavingsConfigPut(&cfg); err != nil {
			return nil, err
		}
		if err := manager.Commit(); err != nil {
			return nil, err
		}
		n.logger.Info("platform config initialised", "fee_bps", cfg.FeeBps)
	}
	observability.Ledger().SetModulePaused(manager.IsPaused(savings.ModuleName))
	return n, nil
}

// Events exposes the broadcaster fed with committed events.
func (n *Node) Events() *events.Broadcaster { return n.broadcaster }

// AddSink registers an additional emitter that receives every committed event.
func (n *Node) AddSink(sink events.Emitter) {
	if sink == nil {
		return
	}
	n.sinkMu.Lock()
	n.sinks = append(n.sinks, sink)
	n.sinkMu.Unlock()
}

// Assets lists the accepted asset symbols.
func (n *Node) Assets() []string {
	out := make([]string, len(n.assets))
	copy(out, n.assets)
	return out
}

func (n *Node) newSavingsEngine(manager *ledgerstate.Manager, ledger *bank.Ledger, emitter events.Emitter) *savings.Engine {
	engine := savings.NewEngine()
	engine.SetState(manager)
	engine.SetBank(ledger)
	engine.SetAssets(n.assets)
	engine.SetDefaultConfig(n.defaults)
	engine.SetNowFunc(n.nowFn)
	engine.SetEmitter(emitter)
	return engine
}

type txContext struct {
	manager *ledgerstate.Manager
	ledger  *bank.Ledger
	savings *savings.Engine
}

// apply runs fn against a private overlay and commits it only when fn succeeds.
func (n *Node) apply(ctx context.Context, operation string, fn func(tx *txContext) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	_, span := telemetry.Tracer().Start(ctx, "ledger."+operation)
	defer span.End()
	start := time.Now()

	n.stateMu.Lock()
	buffer := &events.Buffer{}
	manager := ledgerstate.NewManager(n.db)
	ledger := bank.NewLedger(manager)
	ledger.SetEmitter(buffer)
	tx := &txContext{manager: manager, ledger: ledger, savings: n.newSavingsEngine(manager, ledger, buffer)}

	err := fn(tx)
	if err == nil {
		err = manager.Commit()
	} else {
		manager.Discard()
	}
	n.stateMu.Unlock()

	duration := time.Since(start)
	observability.Ledger().ObserveOperation(operation, resultLabel(err), duration)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		n.logger.Info("ledger operation rejected", "operation", operation, "error", err.Error())
		return err
	}

	emitted := buffer.Drain()
	span.SetAttributes(attribute.String("operation", operation), attribute.Int("events", len(emitted)))
	n.publish(emitted)
	n.logger.Debug("ledger operation applied",
		"operation", operation,
		"events", len(emitted),
		"duration_ms", duration.Milliseconds())
	return nil
}

// view runs fn against a read-only snapshot.
func (n *Node) view(fn func(tx *txContext) error) error {
	n.stateMu.RLock()
	defer n.stateMu.RUnlock()
	manager := ledgerstate.NewManager(n.db)
	ledger := bank.NewLedger(manager)
	return fn(&txContext{manager: manager, ledger: ledger, savings: n.newSavingsEngine(manager, ledger, events.NoopEmitter{})})
}

func (n *Node) publish(emitted []events.Event) {
	n.sinkMu.RLock()
	sinks := make(events.Multi, 0, len(n.sinks)+1)
	sinks = append(sinks, n.broadcaster)
	sinks = append(sinks, n.sinks...)
	n.sinkMu.RUnlock()
	for _, evt := range emitted {
		sinks.Emit(evt)
		observability.Events().Record(events.Payload(evt))
	}
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	if code, ok := savings.Code(err); ok {
		return strconv.Itoa(int(code))
	}
	switch {
	case errors.Is(err, bank.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, ErrAssetNotSupported):
		return "asset_not_supported"
	default:
		return "error"
	}
}

func (n *Node) CreatePlan(ctx context.Context, creator [20]byte, params savings.CreatePlanParams) (uint64, error) {
	var id uint64
	err := n.apply(ctx, "create_plan", func(tx *txContext) error {
		var err error
		id, err = tx.savings.CreatePlan(creator, params)
		return err
	})
	return id, err
}

func (n *Node) RequestToJoin(ctx context.Context, planID uint64, requester [20]byte) (*savings.JoinRequest, error) {
	var req *savings.JoinRequest
	err := n.apply(ctx, "request_to_join", func(tx *txContext) error {
		var err error
		req, err = tx.savings.RequestToJoin(planID, requester)
		return err
	})
	return req, err
}

func (n *Node) ApproveJoinRequest(ctx context.Context, planID uint64, approver, requester [20]byte) (*savings.JoinResolution, error) {
	var res *savings.JoinResolution
	err := n.apply(ctx, "approve_join_request", func(tx *txContext) error {
		var err error
		res, err = tx.savings.ApproveJoinRequest(planID, approver, requester)
		return err
	})
	return res, err
}

func (n *Node) DenyJoinRequest(ctx context.Context, planID uint64, approver, requester [20]byte) (*savings.JoinResolution, error) {
	var res *savings.JoinResolution
	err := n.apply(ctx, "deny_join_request", func(tx *txContext) error {
		var err error
		res, err = tx.savings.DenyJoinRequest(planID, approver, requester)
		return err
	})
	return res, err
}

// Contribute moves funds into the plan vault. The returned receipt carries
// the payout when the contribution closed the cycle.
func (n *Node) Contribute(ctx context.Context, planID uint64, caller [20]byte, amount *big.Int) (*savings.ContributionReceipt, error) {
	var receipt *savings.ContributionReceipt
	err := n.apply(ctx, "contribute", func(tx *txContext) error {
		var err error
		receipt, err = tx.savings.Contribute(planID, caller, amount)
		return err
	})
	return receipt, err
}

func (n *Node) CloseCycle(ctx context.Context, planID uint64, caller [20]byte) (*savings.Payout, error) {
	var payout *savings.Payout
	err := n.apply(ctx, "close_cycle", func(tx *txContext) error {
		var err error
		payout, err = tx.savings.CloseCycle(planID, caller)
		return err
	})
	return payout, err
}

func (n *Node) PausePlan(ctx context.Context, caller [20]byte, planID uint64) error {
	return n.apply(ctx, "pause_plan", func(tx *txContext) error {
		return tx.savings.PausePlan(caller, planID)
	})
}

func (n *Node) ReactivatePlan(ctx context.Context, caller [20]byte, planID uint64) error {
	return n.apply(ctx, "reactivate_plan", func(tx *txContext) error {
		return tx.savings.ReactivatePlan(caller, planID)
	})
}

func (n *Node) SetPlatformFeeBps(ctx context.Context, caller [20]byte, bps uint32) error {
	return n.apply(ctx, "set_platform_fee", func(tx *txContext) error {
		return tx.savings.SetPlatformFeeBps(caller, bps)
	})
}

func (n *Node) SetFeeCollector(ctx context.Context, caller, collector [20]byte) error {
	return n.apply(ctx, "set_fee_collector", func(tx *txContext) error {
		return tx.savings.SetFeeCollector(caller, collector)
	})
}

func (n *Node) PauseModule(ctx context.Context, caller [20]byte) error {
	err := n.apply(ctx, "pause_module", func(tx *txContext) error {
		return tx.savings.PauseModule(caller)
	})
	if err == nil {
		observability.Ledger().SetModulePaused(true)
	}
	return err
}

func (n *Node) ResumeModule(ctx context.Context, caller [20]byte) error {
	err := n.apply(ctx, "resume_module", func(tx *txContext) error {
		return tx.savings.ResumeModule(caller)
	})
	if err == nil {
		observability.Ledger().SetModulePaused(false)
	}
	return err
}

// Mint credits funds from the development faucet. Only the platform owner
// may mint and only accepted assets can be minted.
func (n *Node) Mint(ctx context.Context, caller, to [20]byte, asset string, amount *big.Int) (*big.Int, error) {
	symbol := savings.NormalizeAsset(asset)
	if !n.supportsAsset(symbol) {
		return nil, fmt.Errorf("%w: %q", ErrAssetNotSupported, asset)
	}
	var balance *big.Int
	err := n.apply(ctx, "mint", func(tx *txContext) error {
		cfg, err := tx.savings.PlatformConfig()
		if err != nil {
			return err
		}
		if cfg.Owner == ([20]byte{}) || cfg.Owner != caller {
			return savings.ErrOwnerOnly
		}
		balance, err = tx.ledger.Mint(to, symbol, amount)
		return err
	})
	return balance, err
}

func (n *Node) supportsAsset(symbol string) bool {
	for _, candidate := range n.assets {
		if candidate == symbol {
			return true
		}
	}
	return false
}
