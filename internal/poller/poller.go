package poller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jimliudev/pegguard/internal/engine"
	"github.com/jimliudev/pegguard/internal/metrics"
	"github.com/jimliudev/pegguard/internal/model"
	"github.com/jimliudev/pegguard/internal/registry"
)

// EventSource provides new trade events after a resumption cursor.
type EventSource interface {
	QueryTradeEvents(ctx context.Context, cursor string, limit int) ([]model.TradeEvent, string, error)
}

// BuybackEngine evaluates armed triggers.
type BuybackEngine interface {
	Execute(ctx context.Context, tc model.TriggerContext) engine.Outcome
}

// Config holds poller configuration. Interval carries no default: the
// monitoring cadence must be explicit configuration.
type Config struct {
	Interval     time.Duration // poll interval, required
	BatchLimit   int           // max events per query (default: 100)
	QueryTimeout time.Duration // per-query timeout (default: 15s)
}

// Poller periodically fetches trade events, feeds them through the
// registry, and hands armed triggers to the buyback engine.
type Poller struct {
	cfg      Config
	source   EventSource
	registry registry.Registry
	engine   BuybackEngine
	logger   *slog.Logger

	cursorMu sync.Mutex
	cursor   string

	// inFlight guards against overlapping cycles: a tick firing while
	// an executor call from the previous cycle is still pending must
	// not start a second cycle.
	inFlight atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Poller.
func New(cfg Config, source EventSource, reg registry.Registry, eng BuybackEngine, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BatchLimit == 0 {
		cfg.BatchLimit = 100
	}
	if cfg.QueryTimeout == 0 {
		cfg.QueryTimeout = 15 * time.Second
	}
	return &Poller{
		cfg:      cfg,
		source:   source,
		registry: reg,
		engine:   eng,
		logger:   logger,
	}
}

// SetCursor seeds the resumption cursor, typically from a restored
// snapshot, before Start.
func (p *Poller) SetCursor(cursor string) {
	p.cursorMu.Lock()
	p.cursor = cursor
	p.cursorMu.Unlock()
}

// Cursor returns the current resumption cursor.
func (p *Poller) Cursor() string {
	p.cursorMu.Lock()
	defer p.cursorMu.Unlock()
	return p.cursor
}

// Start begins the polling loop.
func (p *Poller) Start(ctx context.Context) error {
	if p.cfg.Interval <= 0 {
		return errors.New("poller interval must be configured")
	}

	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.run()

	p.logger.Info("event poller started",
		"interval", p.cfg.Interval,
		"batch_limit", p.cfg.BatchLimit,
		"cursor", p.Cursor(),
	)

	return nil
}

// Stop shuts the poller down, letting an in-flight cycle finish. The
// given context bounds the wait.
func (p *Poller) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("event poller stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TickNow runs a single poll cycle synchronously. Used by tests to
// drive the poller deterministically, and subject to the same overlap
// guard as timer ticks.
func (p *Poller) TickNow(ctx context.Context) {
	p.poll(ctx)
}

// run is the main polling loop.
func (p *Poller) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	// Poll immediately on start.
	p.poll(p.ctx)

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.poll(p.ctx)
		}
	}
}

// poll runs one cycle: fetch a batch, process it sequentially, then
// advance the cursor.
func (p *Poller) poll(ctx context.Context) {
	if !p.inFlight.CompareAndSwap(false, true) {
		metrics.SkippedTicks.Inc()
		p.logger.Warn("skipping tick, previous cycle still in flight")
		return
	}
	defer p.inFlight.Store(false)

	start := time.Now()

	ids := p.registry.ListMonitoredMarketIDs()
	metrics.MonitoredMarkets.Set(float64(len(ids)))
	if len(ids) == 0 {
		p.logger.Debug("no monitored markets, skipping poll")
		return
	}

	cursor := p.Cursor()

	queryCtx, cancel := context.WithTimeout(ctx, p.cfg.QueryTimeout)
	events, next, err := p.source.QueryTradeEvents(queryCtx, cursor, p.cfg.BatchLimit)
	cancel()
	if err != nil {
		// Transient: the next tick retries with the same cursor.
		metrics.PollCycles.WithLabelValues("error").Inc()
		p.logger.Warn("trade event query failed",
			"cursor", cursor,
			"error", err,
		)
		return
	}

	if len(events) == 0 {
		// A page can decode to nothing while still carrying events, all
		// malformed. Its cursor must move anyway or every later tick
		// re-fetches the same page and monitoring stalls.
		if next != cursor {
			p.SetCursor(next)
			p.logger.Warn("page yielded no decodable events, cursor advanced",
				"from", cursor,
				"to", next,
			)
		}
		metrics.PollCycles.WithLabelValues("empty").Inc()
		p.logger.Debug("no new trade events", "cursor", next)
		return
	}

	var triggered int
	for _, ev := range events {
		if p.handleEvent(ctx, ev) {
			triggered++
		}
	}

	// Advance only after the whole batch has been handed off, so a
	// restart mid-batch re-delivers rather than drops.
	p.SetCursor(next)

	metrics.PollCycles.WithLabelValues("ok").Inc()
	metrics.PollDuration.Observe(time.Since(start).Seconds())

	p.logger.Info("poll cycle complete",
		"events", len(events),
		"triggered", triggered,
		"cursor", next,
		"duration", time.Since(start),
	)
}

// handleEvent routes one event through the registry and, when the
// trigger fires, into the engine. It never lets a single event abort
// the batch. Returns true if the trigger fired.
func (p *Poller) handleEvent(ctx context.Context, ev model.TradeEvent) (triggered bool) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("event processing panicked",
				"event_id", ev.EventID,
				"market", ev.MarketID,
				"panic", r,
			)
		}
	}()

	metrics.EventsProcessed.Inc()

	p.registry.UpdateLastPrice(ev.MarketID, ev.Price)
	metrics.LastTradePrice.WithLabelValues(ev.MarketID).Set(float64(ev.Price))

	if !p.registry.ShouldTrigger(ev.MarketID, ev.Price) {
		return false
	}
	metrics.TriggersArmed.WithLabelValues(ev.MarketID).Inc()

	reg, ok := p.registry.Get(ev.MarketID)
	if !ok {
		// Raced an administrative removal.
		return false
	}

	p.logger.Info("price floor breached",
		"market", ev.MarketID,
		"price", model.FormatPrice(ev.Price),
		"floor", model.FormatPrice(reg.FloorPrice),
		"event_id", ev.EventID,
	)

	// Outcome logging lives in the engine; the poller only moves on.
	p.engine.Execute(ctx, model.TriggerContext{
		MarketID:      ev.MarketID,
		VaultID:       reg.VaultID,
		ObservedPrice: ev.Price,
		FloorPrice:    reg.FloorPrice,
		EventQuantity: ev.Quantity,
		EventID:       ev.EventID,
	})
	return true
}
