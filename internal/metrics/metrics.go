package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PollCycles counts completed poll cycles by result.
	PollCycles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pegguard_poll_cycles_total",
		Help: "Completed poll cycles",
	}, []string{"result"}) // "ok", "empty", "error"

	// SkippedTicks counts timer ticks skipped because a cycle was
	// still in flight.
	SkippedTicks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pegguard_skipped_ticks_total",
		Help: "Timer ticks skipped due to an in-flight poll cycle",
	})

	// PollDuration tracks poll cycle duration.
	PollDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pegguard_poll_duration_seconds",
		Help:    "Poll cycle duration in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// EventsProcessed counts trade events handed to the pipeline.
	EventsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pegguard_events_processed_total",
		Help: "Trade events processed",
	})

	// TriggersArmed counts events that crossed a floor price.
	TriggersArmed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pegguard_triggers_armed_total",
		Help: "Trigger evaluations that crossed the floor",
	}, []string{"market"})

	// BuybackOutcomes counts engine outcomes by status.
	BuybackOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pegguard_buyback_outcomes_total",
		Help: "Buyback engine outcomes",
	}, []string{"status"}) // "executed", "skipped", "failed"

	// BuybackCost accumulates settled buyback cost in fixed-point units.
	BuybackCost = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pegguard_buyback_cost_units_total",
		Help: "Cumulative buyback cost in fixed-point settlement units",
	}, []string{"market"})

	// LastTradePrice tracks the most recent observed price per market.
	LastTradePrice = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pegguard_last_trade_price_units",
		Help: "Last observed trade price in fixed-point units",
	}, []string{"market"})

	// MonitoredMarkets tracks the registry size.
	MonitoredMarkets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pegguard_monitored_markets",
		Help: "Number of markets in the registry",
	})
)
