// Package model defines shared data types used across the peg guard daemon.
//
// Conventions:
//   - Prices and costs: int64 fixed-point at 6-decimal scale
//     (1_000_000 = 1.0 unit of the settlement asset), matching the
//     on-chain representation.
//   - Quantities: int64 whole base units of the traded asset.
//   - IDs: strings carrying on-chain object identifiers; event IDs are
//     "txDigest:eventSeq" pairs.
package model
