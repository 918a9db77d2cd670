package model

import (
	"fmt"
	"time"
)

// PriceScale is the fixed-point scale for prices and costs.
// 1_000_000 = 1.0 unit of the settlement asset.
const PriceScale int64 = 1_000_000

// DefaultFloorPrice is the sentinel floor applied when a registration
// does not specify one: 1.0 unit.
const DefaultFloorPrice = PriceScale

// FormatPrice renders a fixed-point price as a decimal string for logs.
func FormatPrice(p int64) string {
	whole := p / PriceScale
	frac := p % PriceScale
	if frac < 0 {
		frac = -frac
	}
	return fmt.Sprintf("%d.%06d", whole, frac)
}

// Cost returns the settlement-asset cost of buying quantity base units
// at the given fixed-point price. The result carries the same 6-decimal
// scale as the price.
func Cost(quantity, price int64) int64 {
	return quantity * price
}

// Side is the taker side of a trade fill.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// MarketRegistration is the registry's record for one tracked market.
// It is owned exclusively by the registry; all mutation goes through
// registry methods.
type MarketRegistration struct {
	MarketID string `json:"market_id"`

	// VaultID is the vault authorized to fund buybacks. Empty means
	// the market is monitored but never executed against.
	VaultID string `json:"vault_id,omitempty"`

	// BalanceManagerID overrides the process-wide funding source for
	// this market. Empty means use the default.
	BalanceManagerID string `json:"balance_manager_id,omitempty"`

	SettlementAssetID string `json:"settlement_asset_id,omitempty"`
	TradedAssetType   string `json:"traded_asset_type,omitempty"`

	// FloorPrice arms the trigger: a trade below this price starts a
	// buyback evaluation. Always > 0; DefaultFloorPrice when the
	// registration did not specify one.
	FloorPrice int64 `json:"floor_price"`

	// MinBuybackCost gates execution for this market. 0 means unset;
	// the engine then falls back to its process-wide default.
	MinBuybackCost int64 `json:"min_buyback_cost,omitempty"`

	Owner string `json:"owner,omitempty"`

	// LastTradePrice is the most recently observed fill price, 0 until
	// the first event arrives.
	LastTradePrice int64 `json:"last_trade_price"`

	// BuybackCount and TotalBuybackCost only ever increase, and only
	// after a purchase actually settled.
	BuybackCount     int64 `json:"buyback_count"`
	TotalBuybackCost int64 `json:"total_buyback_cost"`

	RegisteredAt time.Time `json:"registered_at"`
}

// BuybackEnabled reports whether the registration can fund an execution.
func (m *MarketRegistration) BuybackEnabled() bool {
	return m.VaultID != ""
}

// TradeEvent is one order fill observed on the tracked exchange.
// Events are produced by the data source and consumed once; duplicates
// may arrive under at-least-once redelivery and are keyed by EventID.
type TradeEvent struct {
	// EventID is "txDigest:eventSeq", unique per emitted event.
	EventID  string
	MarketID string
	Price    int64
	Side     Side

	// Quantity is the filled size in base units, 0 when the event did
	// not carry one.
	Quantity int64

	// SourceCursor is the opaque resumption token positioned at this
	// event.
	SourceCursor string
}

// TriggerContext carries one armed trigger from the poller to the
// buyback engine.
type TriggerContext struct {
	MarketID      string
	VaultID       string // empty = monitor only
	ObservedPrice int64
	FloorPrice    int64
	EventQuantity int64 // 0 = event carried no size
	EventID       string
}
