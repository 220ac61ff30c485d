// Package stakefolio turns per-validator staking records into portfolio-level
// figures, flags anomalies in them and reconciles them against custodian
// statements.
//
// The package is a stateless engine: every function reads its inputs, never
// mutates them, and returns newly built values. Persistence, transport and
// presentation are left to the caller.
//
// The core functionalities include:
//   - Monetary arithmetic: [Gwei] is an exact integer amount; ratios are only
//     converted to floating point at the final division.
//   - State buckets: [AggregateByStateBucket] partitions balances by lifecycle
//     state without ever dropping value.
//   - Trailing yield: [TrailingAPY] annualizes rewards earned in a [Window].
//   - Rollups: [RollupByCustodian] and [NewPortfolioSummary] aggregate validators
//     into custodian allocations and a value-weighted portfolio summary.
//   - Exceptions: a [Detector] runs five threshold checks configured through a
//     [DetectionConfig].
//   - Reconciliation: a [Reconciler] compares internal totals with custodian
//     statements and classifies the variance.
//
// This package serves as the foundational logic for the `stakectl` command-line
// tool.
package stakefolio
