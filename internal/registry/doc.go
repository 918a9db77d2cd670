// Package registry implements the Market Registry component.
//
// The Market Registry:
//   - Holds one record per tracked market: owning vault, trigger
//     configuration, and running state (last price, buyback counters)
//   - Serializes concurrent access from the registration path and the
//     poll loop behind a single RWMutex
//   - Separates trigger detection (ShouldTrigger) from execution
//     capability (vault presence), so monitor-only markets still flag
//   - Exposes Export/Restore for the snapshot store
package registry
