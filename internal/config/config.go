package config

import "time"

// Config is the root configuration for a peg guard instance.
type Config struct {
	Log      LogConfig      `yaml:"log"`
	Node     NodeConfig     `yaml:"node"`
	Poller   PollerConfig   `yaml:"poller"`
	Engine   EngineConfig   `yaml:"engine"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Markets  []MarketConfig `yaml:"markets"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// NodeConfig holds fullnode RPC settings.
type NodeConfig struct {
	RPCURL string `yaml:"rpc_url"`

	// EventType is the fully qualified Move event type of order fills
	// on the tracked exchange package.
	EventType string `yaml:"event_type"`

	Timeout      time.Duration `yaml:"timeout"`
	MaxRetries   int           `yaml:"max_retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
}

// PollerConfig holds event poller settings. Interval is required: the
// monitoring cadence is never defaulted.
type PollerConfig struct {
	Interval     time.Duration `yaml:"interval"`
	BatchLimit   int           `yaml:"batch_limit"`
	QueryTimeout time.Duration `yaml:"query_timeout"`
}

// EngineConfig holds buyback engine settings. Monetary values are
// fixed-point integers at 6-decimal scale.
type EngineConfig struct {
	// BalanceManager is the process-wide funding source, overridable
	// per market.
	BalanceManager string `yaml:"balance_manager"`

	// MinBuybackCost is the process-wide minimum-cost gate. 0 = none.
	MinBuybackCost int64 `yaml:"min_buyback_cost"`

	// DryRun keeps the daemon from submitting real transactions.
	DryRun bool `yaml:"dry_run"`

	Tiers TiersConfig `yaml:"tiers"`

	DedupMaxAge     time.Duration `yaml:"dedup_max_age"`
	DedupMaxEntries int           `yaml:"dedup_max_entries"`
}

// TiersConfig holds the fallback purchase quantities in base units,
// keyed by how far below the floor the price fell.
type TiersConfig struct {
	Small  int64 `yaml:"small"`  // deviation < 5%
	Medium int64 `yaml:"medium"` // deviation < 10%
	Large  int64 `yaml:"large"`  // deviation >= 10%
}

// SnapshotConfig holds restart-recovery settings.
type SnapshotConfig struct {
	// Backend is "file" or "postgres".
	Backend string `yaml:"backend"`

	// Path is the snapshot file location for the file backend.
	Path string `yaml:"path"`

	Postgres DBConfig `yaml:"postgres"`

	ExportInterval time.Duration `yaml:"export_interval"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}

// MarketConfig registers one market to defend. This is the
// configuration-file form of the registration surface.
type MarketConfig struct {
	MarketID string `yaml:"market_id"`

	// VaultID enables buyback execution; omitted = monitor only.
	VaultID string `yaml:"vault_id"`

	// BalanceManager overrides engine.balance_manager for this market.
	BalanceManager string `yaml:"balance_manager"`

	SettlementAsset string `yaml:"settlement_asset"`
	TradedAssetType string `yaml:"traded_asset_type"`

	// FloorPrice in fixed-point units; 0 = default 1.0.
	FloorPrice int64 `yaml:"floor_price"`

	// MinBuybackCost overrides engine.min_buyback_cost. 0 = unset.
	MinBuybackCost int64 `yaml:"min_buyback_cost"`

	Owner string `yaml:"owner"`
}
