package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jimliudev/pegguard/internal/model"
)

// ErrInvalidConfig is returned for registration input that can never be
// accepted (empty market id, negative floor). It is never retried.
var ErrInvalidConfig = errors.New("invalid market configuration")

// Registration is the input to Register. Zero values mean "unset".
type Registration struct {
	MarketID          string
	VaultID           string // empty = monitor only
	BalanceManagerID  string
	SettlementAssetID string
	TradedAssetType   string
	FloorPrice        int64 // 0 = use model.DefaultFloorPrice
	MinBuybackCost    int64 // 0 = fall back to the engine default
	Owner             string
}

// Registry is the injectable market registry contract. The poller reads
// and updates prices through it; the engine records outcomes through it.
type Registry interface {
	// Register upserts a market. Re-registering an existing market
	// replaces its configuration and resets its counters.
	Register(reg Registration) (model.MarketRegistration, error)

	// Get returns a copy of the registration.
	Get(marketID string) (model.MarketRegistration, bool)

	// UpdateLastPrice overwrites the last observed trade price.
	// Unknown markets are a silent no-op, tolerating events that race
	// an administrative removal.
	UpdateLastPrice(marketID string, price int64)

	// ShouldTrigger reports whether price is below the configured
	// floor. Deliberately independent of vault presence: a
	// monitor-only market still detects, it just never executes.
	ShouldTrigger(marketID string, price int64) bool

	// RecordOutcome adds one settled buyback to the counters.
	// Unknown markets are a silent no-op.
	RecordOutcome(marketID string, cost int64)

	// ListMonitoredMarketIDs returns all tracked market ids, sorted
	// for deterministic iteration.
	ListMonitoredMarketIDs() []string

	// Export returns a copy of every registration for snapshotting.
	Export() []model.MarketRegistration

	// Restore replaces the registry contents with a snapshot.
	Restore(regs []model.MarketRegistration)
}

// memRegistry is the in-memory Registry implementation.
type memRegistry struct {
	mu      sync.RWMutex
	markets map[string]*model.MarketRegistration
}

// New creates an empty in-memory registry.
func New() Registry {
	return &memRegistry{
		markets: make(map[string]*model.MarketRegistration),
	}
}

func (r *memRegistry) Register(reg Registration) (model.MarketRegistration, error) {
	if reg.MarketID == "" {
		return model.MarketRegistration{}, fmt.Errorf("%w: market id is required", ErrInvalidConfig)
	}
	if reg.FloorPrice < 0 {
		return model.MarketRegistration{}, fmt.Errorf("%w: floor price must not be negative", ErrInvalidConfig)
	}
	if reg.MinBuybackCost < 0 {
		return model.MarketRegistration{}, fmt.Errorf("%w: min buyback cost must not be negative", ErrInvalidConfig)
	}

	floor := reg.FloorPrice
	if floor == 0 {
		floor = model.DefaultFloorPrice
	}

	m := model.MarketRegistration{
		MarketID:          reg.MarketID,
		VaultID:           reg.VaultID,
		BalanceManagerID:  reg.BalanceManagerID,
		SettlementAssetID: reg.SettlementAssetID,
		TradedAssetType:   reg.TradedAssetType,
		FloorPrice:        floor,
		MinBuybackCost:    reg.MinBuybackCost,
		Owner:             reg.Owner,
		RegisteredAt:      time.Now().UTC(),
	}

	r.mu.Lock()
	// Upsert: replacing an existing registration resets counters and
	// last price along with the configuration.
	r.markets[m.MarketID] = &m
	r.mu.Unlock()

	return m, nil
}

func (r *memRegistry) Get(marketID string) (model.MarketRegistration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.markets[marketID]
	if !ok {
		return model.MarketRegistration{}, false
	}
	return *m, true
}

func (r *memRegistry) UpdateLastPrice(marketID string, price int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.markets[marketID]; ok {
		m.LastTradePrice = price
	}
}

func (r *memRegistry) ShouldTrigger(marketID string, price int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.markets[marketID]
	if !ok {
		return false
	}
	return m.FloorPrice > 0 && price < m.FloorPrice
}

func (r *memRegistry) RecordOutcome(marketID string, cost int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.markets[marketID]; ok {
		m.BuybackCount++
		m.TotalBuybackCost += cost
	}
}

func (r *memRegistry) ListMonitoredMarketIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.markets))
	for id := range r.markets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *memRegistry) Export() []model.MarketRegistration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	regs := make([]model.MarketRegistration, 0, len(r.markets))
	for _, m := range r.markets {
		regs = append(regs, *m)
	}
	sort.Slice(regs, func(i, j int) bool { return regs[i].MarketID < regs[j].MarketID })
	return regs
}

func (r *memRegistry) Restore(regs []model.MarketRegistration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.markets = make(map[string]*model.MarketRegistration, len(regs))
	for _, reg := range regs {
		m := reg
		r.markets[m.MarketID] = &m
	}
}
