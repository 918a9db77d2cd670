// Package engine implements the Buyback Engine component.
//
// The Buyback Engine:
//   - Receives armed trigger contexts from the event poller
//   - Gates execution on vault binding, funding source, and a layered
//     minimum-cost policy (per-market > process default > none)
//   - Sizes the purchase from the triggering event, falling back to a
//     tiered table keyed by price deviation
//   - Serializes execution per market and deduplicates redelivered
//     events before any funds move
//   - Reports every decision as a typed Outcome
package engine
