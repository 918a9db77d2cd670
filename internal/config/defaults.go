package config

import "time"

// Default values for optional configuration fields. The poll interval
// deliberately has no default.
const (
	DefaultLogLevel        = "info"
	DefaultRPCURL          = "https://fullnode.mainnet.sui.io:443"
	DefaultEventType       = "0xdee9::clob_v2::OrderFilled"
	DefaultNodeTimeout     = 30 * time.Second
	DefaultMaxRetries      = 3
	DefaultRetryBackoff    = 1 * time.Second
	DefaultBatchLimit      = 100
	DefaultQueryTimeout    = 15 * time.Second
	DefaultDedupMaxAge     = 1 * time.Hour
	DefaultDedupMaxEntries = 10000
	DefaultSnapshotBackend = "file"
	DefaultSnapshotPath    = "pegguard-snapshot.json"
	DefaultExportInterval  = 1 * time.Minute
	DefaultDBPort          = 5432
	DefaultDBSSLMode       = "prefer"
	DefaultMaxConns        = 4
	DefaultMinConns        = 1
	DefaultMetricsPort     = 9090
	DefaultMetricsPath     = "/metrics"
)

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}

	// Node defaults
	if c.Node.RPCURL == "" {
		c.Node.RPCURL = DefaultRPCURL
	}
	if c.Node.EventType == "" {
		c.Node.EventType = DefaultEventType
	}
	if c.Node.Timeout == 0 {
		c.Node.Timeout = DefaultNodeTimeout
	}
	if c.Node.MaxRetries == 0 {
		c.Node.MaxRetries = DefaultMaxRetries
	}
	if c.Node.RetryBackoff == 0 {
		c.Node.RetryBackoff = DefaultRetryBackoff
	}

	// Poller defaults (Interval intentionally untouched)
	if c.Poller.BatchLimit == 0 {
		c.Poller.BatchLimit = DefaultBatchLimit
	}
	if c.Poller.QueryTimeout == 0 {
		c.Poller.QueryTimeout = DefaultQueryTimeout
	}

	// Engine defaults
	if c.Engine.DedupMaxAge == 0 {
		c.Engine.DedupMaxAge = DefaultDedupMaxAge
	}
	if c.Engine.DedupMaxEntries == 0 {
		c.Engine.DedupMaxEntries = DefaultDedupMaxEntries
	}

	// Snapshot defaults
	if c.Snapshot.Backend == "" {
		c.Snapshot.Backend = DefaultSnapshotBackend
	}
	if c.Snapshot.Path == "" {
		c.Snapshot.Path = DefaultSnapshotPath
	}
	if c.Snapshot.ExportInterval == 0 {
		c.Snapshot.ExportInterval = DefaultExportInterval
	}
	if c.Snapshot.Backend == "postgres" {
		applyDBDefaults(&c.Snapshot.Postgres)
	}

	// Metrics defaults
	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
