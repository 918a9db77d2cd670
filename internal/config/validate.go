package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn, or error, got %q", c.Log.Level)
	}

	if c.Node.RPCURL == "" {
		return errors.New("node.rpc_url is required")
	}
	if c.Node.EventType == "" {
		return errors.New("node.event_type is required")
	}

	if c.Poller.Interval <= 0 {
		return errors.New("poller.interval is required and must be > 0")
	}
	if c.Poller.BatchLimit < 1 {
		return errors.New("poller.batch_limit must be >= 1")
	}

	if c.Engine.MinBuybackCost < 0 {
		return errors.New("engine.min_buyback_cost must not be negative")
	}
	if c.Engine.Tiers.Small <= 0 || c.Engine.Tiers.Medium <= 0 || c.Engine.Tiers.Large <= 0 {
		return errors.New("engine.tiers.small, medium, and large are required and must be > 0")
	}

	switch c.Snapshot.Backend {
	case "file":
		if c.Snapshot.Path == "" {
			return errors.New("snapshot.path is required for the file backend")
		}
	case "postgres":
		if err := c.Snapshot.Postgres.validate("snapshot.postgres"); err != nil {
			return err
		}
	default:
		return fmt.Errorf("snapshot.backend must be file or postgres, got %q", c.Snapshot.Backend)
	}

	if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
		return fmt.Errorf("metrics.port must be between 1 and 65535, got %d", c.Metrics.Port)
	}

	for i, m := range c.Markets {
		if m.MarketID == "" {
			return fmt.Errorf("markets[%d].market_id is required", i)
		}
		if m.FloorPrice < 0 {
			return fmt.Errorf("markets[%d].floor_price must not be negative", i)
		}
		if m.MinBuybackCost < 0 {
			return fmt.Errorf("markets[%d].min_buyback_cost must not be negative", i)
		}
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	return nil
}
