package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pegguard.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const validConfig = `
poller:
  interval: 10s
engine:
  balance_manager: "0xbm"
  tiers:
    small: 10
    medium: 25
    large: 100
markets:
  - market_id: "0xpool1"
    vault_id: "0xvault1"
    floor_price: 1000000
`

func TestLoadAndValidate(t *testing.T) {
	path := writeConfig(t, validConfig)

	cfg, err := LoadAndValidate(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Poller.Interval != 10*time.Second {
		t.Errorf("interval = %v, want 10s", cfg.Poller.Interval)
	}

	// Defaults filled in around the explicit values.
	if cfg.Node.RPCURL != DefaultRPCURL {
		t.Errorf("rpc_url = %q, want default", cfg.Node.RPCURL)
	}
	if cfg.Poller.BatchLimit != DefaultBatchLimit {
		t.Errorf("batch_limit = %d, want default %d", cfg.Poller.BatchLimit, DefaultBatchLimit)
	}
	if cfg.Snapshot.Backend != "file" || cfg.Snapshot.Path != DefaultSnapshotPath {
		t.Errorf("snapshot defaults not applied: %+v", cfg.Snapshot)
	}
	if cfg.Metrics.Port != DefaultMetricsPort {
		t.Errorf("metrics port = %d, want default", cfg.Metrics.Port)
	}

	if len(cfg.Markets) != 1 || cfg.Markets[0].MarketID != "0xpool1" {
		t.Errorf("markets not parsed: %+v", cfg.Markets)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("PEGGUARD_TEST_BM", "0xenv-bm")

	path := writeConfig(t, strings.Replace(validConfig,
		`balance_manager: "0xbm"`,
		`balance_manager: "${PEGGUARD_TEST_BM}"`, 1))

	cfg, err := LoadAndValidate(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Engine.BalanceManager != "0xenv-bm" {
		t.Errorf("balance_manager = %q, want env-expanded value", cfg.Engine.BalanceManager)
	}
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			"missing interval",
			func(c *Config) { c.Poller.Interval = 0 },
			"poller.interval",
		},
		{
			"missing tiers",
			func(c *Config) { c.Engine.Tiers.Medium = 0 },
			"engine.tiers",
		},
		{
			"bad snapshot backend",
			func(c *Config) { c.Snapshot.Backend = "redis" },
			"snapshot.backend",
		},
		{
			"postgres backend without host",
			func(c *Config) { c.Snapshot.Backend = "postgres" },
			"snapshot.postgres.host",
		},
		{
			"market without id",
			func(c *Config) { c.Markets = append(c.Markets, MarketConfig{FloorPrice: 1}) },
			"markets[1].market_id",
		},
		{
			"negative floor",
			func(c *Config) { c.Markets[0].FloorPrice = -5 },
			"floor_price",
		},
		{
			"bad log level",
			func(c *Config) { c.Log.Level = "verbose" },
			"log.level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadWithDefaults(writeConfig(t, validConfig))
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			tt.mutate(cfg)

			err = cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}
