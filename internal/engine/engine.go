package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jimliudev/pegguard/internal/metrics"
	"github.com/jimliudev/pegguard/internal/model"
	"github.com/jimliudev/pegguard/internal/registry"
)

// Deviation thresholds for tiered fallback sizing, in basis points of
// the floor price.
const (
	smallDeviationBps  = 500  // < 5% below floor
	mediumDeviationBps = 1000 // < 10% below floor
)

// Order is a purchase request handed to the trade executor.
type Order struct {
	MarketID         string
	VaultID          string
	BalanceManagerID string
	Quantity         int64 // base units
	MaxCost          int64 // fixed-point cost ceiling
}

// Receipt is the result of a submitted purchase.
type Receipt struct {
	Cost        int64 // actual settled cost, fixed-point
	TxReference string
}

// TradeExecutor signs and submits a purchase transaction. This is the
// single point where real funds move; everything else in the engine is
// read-only.
type TradeExecutor interface {
	SubmitPurchase(ctx context.Context, order Order) (Receipt, error)
}

// TierTable holds the fallback purchase quantities, in base units, used
// when the triggering event carries no size.
type TierTable struct {
	Small  int64
	Medium int64
	Large  int64
}

// Config holds engine configuration.
type Config struct {
	// BalanceManagerID is the process-wide funding source, overridden
	// per market by the registration's BalanceManagerID.
	BalanceManagerID string

	// MinBuybackCost is the process-wide minimum-cost gate, overridden
	// per market. 0 means no minimum.
	MinBuybackCost int64

	Tiers TierTable

	// Dedup retention for the executed-event set.
	DedupMaxAge     time.Duration
	DedupMaxEntries int
}

// DefaultConfig returns sensible defaults for the non-policy fields.
// Tier sizes carry no defaults: they are explicit configuration.
func DefaultConfig() Config {
	return Config{
		DedupMaxAge:     time.Hour,
		DedupMaxEntries: 10000,
	}
}

// Engine evaluates trigger contexts and executes corrective purchases.
type Engine struct {
	cfg      Config
	registry registry.Registry
	executor TradeExecutor
	logger   *slog.Logger

	seen *seenSet

	// Per-market locks: the same market is never subject to two
	// concurrent buyback attempts, even if poll cycles overlap.
	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// New creates a buyback engine.
func New(cfg Config, reg registry.Registry, exec TradeExecutor, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DedupMaxAge == 0 {
		cfg.DedupMaxAge = DefaultConfig().DedupMaxAge
	}
	if cfg.DedupMaxEntries == 0 {
		cfg.DedupMaxEntries = DefaultConfig().DedupMaxEntries
	}
	return &Engine{
		cfg:      cfg,
		registry: reg,
		executor: exec,
		logger:   logger,
		seen:     newSeenSet(cfg.DedupMaxAge, cfg.DedupMaxEntries),
		locks:    make(map[string]*sync.Mutex),
	}
}

// Execute runs the gating and sizing policy for one armed trigger and,
// if every check passes, submits the purchase. The registry is only
// mutated after the executor reports success.
func (e *Engine) Execute(ctx context.Context, tc model.TriggerContext) Outcome {
	lock := e.marketLock(tc.MarketID)
	lock.Lock()
	defer lock.Unlock()

	outcome := e.execute(ctx, tc)

	metrics.BuybackOutcomes.WithLabelValues(string(outcome.Status)).Inc()

	switch outcome.Status {
	case StatusExecuted:
		metrics.BuybackCost.WithLabelValues(tc.MarketID).Add(float64(outcome.Cost))
		e.logger.Info("buyback executed",
			"market", tc.MarketID,
			"vault", tc.VaultID,
			"cost", model.FormatPrice(outcome.Cost),
			"tx", outcome.TxReference,
		)
	case StatusSkipped:
		e.logger.Info("buyback skipped",
			"market", tc.MarketID,
			"reason", string(outcome.Reason),
			"observed_price", model.FormatPrice(tc.ObservedPrice),
			"floor_price", model.FormatPrice(tc.FloorPrice),
		)
	case StatusFailed:
		e.logger.Error("buyback failed",
			"market", tc.MarketID,
			"error", outcome.Err,
		)
	}

	return outcome
}

func (e *Engine) execute(ctx context.Context, tc model.TriggerContext) Outcome {
	if tc.EventID != "" && e.seen.Seen(tc.EventID) {
		return Skipped(SkipDuplicate)
	}

	if tc.VaultID == "" {
		return Skipped(SkipNoVaultBound)
	}

	// Per-market values override process-wide defaults. The
	// registration may have vanished in a race with removal; then only
	// the defaults apply.
	reg, _ := e.registry.Get(tc.MarketID)

	funding := reg.BalanceManagerID
	if funding == "" {
		funding = e.cfg.BalanceManagerID
	}
	if funding == "" {
		return Skipped(SkipNoFundingSource)
	}

	quantity := tc.EventQuantity
	if quantity == 0 {
		// Absorb exactly the adverse order when its size is known;
		// otherwise size by how far the price fell.
		quantity = e.tierQuantity(tc.FloorPrice, tc.ObservedPrice)
	}
	if quantity <= 0 {
		// An unsized tier table must never turn into a zero-quantity
		// order, whatever the minimum-cost gate says.
		return Skipped(SkipNoQuantity)
	}

	cost := model.Cost(quantity, tc.ObservedPrice)

	gate := reg.MinBuybackCost
	if gate == 0 {
		gate = e.cfg.MinBuybackCost
	}
	if cost < gate {
		return Skipped(SkipBelowMinimum)
	}

	receipt, err := e.executor.SubmitPurchase(ctx, Order{
		MarketID:         tc.MarketID,
		VaultID:          tc.VaultID,
		BalanceManagerID: funding,
		Quantity:         quantity,
		MaxCost:          cost,
	})
	if err != nil {
		// Registry untouched: the market stays eligible to trigger
		// again on the next qualifying event.
		return Failed(err)
	}

	e.registry.RecordOutcome(tc.MarketID, receipt.Cost)
	if tc.EventID != "" {
		e.seen.Mark(tc.EventID)
	}

	return Executed(receipt.Cost, receipt.TxReference)
}

// tierQuantity picks a fallback purchase size from the relative price
// deviation (floor - observed) / floor.
func (e *Engine) tierQuantity(floor, observed int64) int64 {
	if floor <= 0 {
		return e.cfg.Tiers.Large
	}
	devBps := (floor - observed) * 10000 / floor
	switch {
	case devBps < smallDeviationBps:
		return e.cfg.Tiers.Small
	case devBps < mediumDeviationBps:
		return e.cfg.Tiers.Medium
	default:
		return e.cfg.Tiers.Large
	}
}

func (e *Engine) marketLock(marketID string) *sync.Mutex {
	e.locksMu.Lock()
	defer e.locksMu.Unlock()

	lock, ok := e.locks[marketID]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[marketID] = lock
	}
	return lock
}
