// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - Poll cycle counts, durations, and skipped overlapping ticks
//   - Events processed and trigger evaluations
//   - Buyback outcomes partitioned by result
//   - Last observed trade price per market
package metrics
