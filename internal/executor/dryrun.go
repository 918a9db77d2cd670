// Package executor provides TradeExecutor implementations.
//
// The real signer, which turns a purchase into a submitted chain
// transaction, lives outside this repository. DryRun is the shipping
// default: it accepts every order, logs what would have been bought,
// and fabricates a receipt so the rest of the pipeline can be observed
// end to end.
package executor

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/jimliudev/pegguard/internal/engine"
	"github.com/jimliudev/pegguard/internal/model"
)

// DryRun is a TradeExecutor that submits nothing.
type DryRun struct {
	logger *slog.Logger
}

// NewDryRun creates a dry-run executor.
func NewDryRun(logger *slog.Logger) *DryRun {
	if logger == nil {
		logger = slog.Default()
	}
	return &DryRun{logger: logger}
}

// SubmitPurchase logs the order and returns a synthetic receipt at the
// cost ceiling.
func (d *DryRun) SubmitPurchase(ctx context.Context, order engine.Order) (engine.Receipt, error) {
	ref := "dryrun-" + uuid.New().String()

	d.logger.Info("dry-run purchase",
		"market", order.MarketID,
		"vault", order.VaultID,
		"balance_manager", order.BalanceManagerID,
		"quantity", order.Quantity,
		"max_cost", model.FormatPrice(order.MaxCost),
		"tx", ref,
	)

	return engine.Receipt{Cost: order.MaxCost, TxReference: ref}, nil
}
