package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jimliudev/pegguard/internal/config"
	"github.com/jimliudev/pegguard/internal/database"
	"github.com/jimliudev/pegguard/internal/deepbook"
	"github.com/jimliudev/pegguard/internal/engine"
	"github.com/jimliudev/pegguard/internal/executor"
	"github.com/jimliudev/pegguard/internal/model"
	"github.com/jimliudev/pegguard/internal/poller"
	"github.com/jimliudev/pegguard/internal/registry"
	"github.com/jimliudev/pegguard/internal/snapshot"
	"github.com/jimliudev/pegguard/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/pegguard.yaml", "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.Log.Level),
	}))
	slog.SetDefault(logger)

	logger.Info("starting pegguard",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
		"rpc_url", cfg.Node.RPCURL,
		"dry_run", cfg.Engine.DryRun,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Snapshot store
	store, closeStore, err := buildSnapshotStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to set up snapshot store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	// Registry: restore persisted state, then apply configured markets
	reg := registry.New()

	snap, err := store.Load(ctx)
	if err != nil {
		logger.Error("failed to load snapshot", "error", err)
		os.Exit(1)
	}
	var cursor string
	if snap != nil {
		reg.Restore(snap.Registrations)
		cursor = snap.Cursor
		logger.Info("snapshot restored",
			"markets", len(snap.Registrations),
			"cursor", cursor,
			"exported_at", snap.ExportedAt,
		)
	}

	if err := registerMarkets(reg, cfg.Markets, logger); err != nil {
		logger.Error("failed to register markets", "error", err)
		os.Exit(1)
	}

	// Trade executor: the chain signer lives outside this repository,
	// so only dry-run execution ships here.
	if !cfg.Engine.DryRun {
		logger.Error("engine.dry_run=false requires an external signer, which this build does not carry")
		os.Exit(1)
	}
	exec := executor.NewDryRun(logger)

	eng := engine.New(engine.Config{
		BalanceManagerID: cfg.Engine.BalanceManager,
		MinBuybackCost:   cfg.Engine.MinBuybackCost,
		Tiers: engine.TierTable{
			Small:  cfg.Engine.Tiers.Small,
			Medium: cfg.Engine.Tiers.Medium,
			Large:  cfg.Engine.Tiers.Large,
		},
		DedupMaxAge:     cfg.Engine.DedupMaxAge,
		DedupMaxEntries: cfg.Engine.DedupMaxEntries,
	}, reg, exec, logger)

	// Event source
	source := deepbook.NewClient(
		cfg.Node.RPCURL,
		cfg.Node.EventType,
		deepbook.WithLogger(logger),
		deepbook.WithTimeout(cfg.Node.Timeout),
		deepbook.WithRetries(cfg.Node.MaxRetries, cfg.Node.RetryBackoff),
	)

	// Poller
	p := poller.New(poller.Config{
		Interval:     cfg.Poller.Interval,
		BatchLimit:   cfg.Poller.BatchLimit,
		QueryTimeout: cfg.Poller.QueryTimeout,
	}, source, reg, eng, logger)
	p.SetCursor(cursor)

	// Metrics and health server
	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, promhttp.Handler())
	mux.HandleFunc("/healthz", healthHandler(reg, p))

	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler: mux,
	}
	go func() {
		logger.Info("starting metrics server", "port", cfg.Metrics.Port, "path", cfg.Metrics.Path)
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	if err := p.Start(ctx); err != nil {
		logger.Error("failed to start poller", "error", err)
		os.Exit(1)
	}

	// Periodic snapshot export
	var exportWg sync.WaitGroup
	exportWg.Add(1)
	go func() {
		defer exportWg.Done()
		ticker := time.NewTicker(cfg.Snapshot.ExportInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				saveSnapshot(ctx, store, reg, p, logger)
			}
		}
	}()

	logger.Info("pegguard running",
		"markets", len(reg.ListMonitoredMarketIDs()),
		"interval", cfg.Poller.Interval,
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Let the in-flight tick finish before the final export.
	if err := p.Stop(shutdownCtx); err != nil {
		logger.Warn("poller stop timed out", "error", err)
	}
	exportWg.Wait()
	saveSnapshot(shutdownCtx, store, reg, p, logger)

	metricsServer.Shutdown(shutdownCtx)

	logger.Info("pegguard stopped")
}

// logLevel maps the config string to a slog level.
func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// buildSnapshotStore wires the configured snapshot backend. The
// returned closer releases the database pool for the postgres backend.
func buildSnapshotStore(ctx context.Context, cfg *config.Config) (snapshot.Store, func(), error) {
	switch cfg.Snapshot.Backend {
	case "postgres":
		pool, err := database.Connect(ctx, cfg.Snapshot.Postgres)
		if err != nil {
			return nil, nil, fmt.Errorf("connect snapshot database: %w", err)
		}
		store := snapshot.NewPostgresStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, pool.Close, nil
	default:
		return snapshot.NewFileStore(cfg.Snapshot.Path), func() {}, nil
	}
}

// registerMarkets applies the configured markets to the registry.
// A market whose restored registration already matches the configured
// values keeps its counters; any configuration change re-registers and
// resets them.
func registerMarkets(reg registry.Registry, markets []config.MarketConfig, logger *slog.Logger) error {
	for _, m := range markets {
		want := registry.Registration{
			MarketID:          m.MarketID,
			VaultID:           m.VaultID,
			BalanceManagerID:  m.BalanceManager,
			SettlementAssetID: m.SettlementAsset,
			TradedAssetType:   m.TradedAssetType,
			FloorPrice:        m.FloorPrice,
			MinBuybackCost:    m.MinBuybackCost,
			Owner:             m.Owner,
		}

		if existing, ok := reg.Get(m.MarketID); ok && sameConfig(existing, want) {
			logger.Debug("market unchanged, keeping restored state", "market", m.MarketID)
			continue
		}

		registered, err := reg.Register(want)
		if err != nil {
			return fmt.Errorf("register market %q: %w", m.MarketID, err)
		}
		logger.Info("market registered",
			"market", registered.MarketID,
			"vault", registered.VaultID,
			"floor_price", model.FormatPrice(registered.FloorPrice),
			"buyback_enabled", registered.BuybackEnabled(),
		)
	}
	return nil
}

// sameConfig reports whether a restored registration carries the same
// configuration as the requested one (counters and prices excluded).
func sameConfig(existing model.MarketRegistration, want registry.Registration) bool {
	floor := want.FloorPrice
	if floor == 0 {
		floor = model.DefaultFloorPrice
	}
	return existing.VaultID == want.VaultID &&
		existing.BalanceManagerID == want.BalanceManagerID &&
		existing.SettlementAssetID == want.SettlementAssetID &&
		existing.TradedAssetType == want.TradedAssetType &&
		existing.FloorPrice == floor &&
		existing.MinBuybackCost == want.MinBuybackCost &&
		existing.Owner == want.Owner
}

// saveSnapshot exports the registry and cursor through the store.
func saveSnapshot(ctx context.Context, store snapshot.Store, reg registry.Registry, p *poller.Poller, logger *slog.Logger) {
	snap := &snapshot.Snapshot{
		ExportedAt:    time.Now().UTC(),
		Cursor:        p.Cursor(),
		Registrations: reg.Export(),
	}
	if err := store.Save(ctx, snap); err != nil {
		logger.Warn("snapshot export failed", "error", err)
		return
	}
	logger.Debug("snapshot exported",
		"markets", len(snap.Registrations),
		"cursor", snap.Cursor,
	)
}

// healthHandler reports daemon liveness and basic state.
func healthHandler(reg registry.Registry, p *poller.Poller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		health := struct {
			Status  string `json:"status"`
			Markets int    `json:"markets"`
			Cursor  string `json:"cursor"`
		}{
			Status:  "healthy",
			Markets: len(reg.ListMonitoredMarketIDs()),
			Cursor:  p.Cursor(),
		}
		if health.Markets == 0 {
			health.Status = "degraded"
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(health)
	}
}
