// Package dataprocessing implements the reconciliation core for Takas balance
// snapshots, AKD net transfer reports and Hacim volume reports.
//
// # Components
//
//	Normalize / NormalizeNet   locale-aware cell value conversion
//	ReadTable                  xlsx (excelize) and csv decoding into column-keyed tables
//	SnapshotDiffer             per-institution deltas between consecutive snapshots
//	TransferReconciler         period/AKD alignment and residual (Virman) derivation
//	VolumeAggregator           per-period volume totals and shares
//	SummarizeInstitutions      per-institution control check
//
// # Data Flow
//
//	Located Takas → SnapshotDiffer → TransferReconciler → SummarizeInstitutions
//	Located Hacim → VolumeAggregator
//
// Amounts are shopspring decimals, so a fully reported institution has a
// control of exactly zero.
//
// # Error Handling
//
// Unreadable files and missing columns abort with a *domain.ReconcileError
// naming the source. Dirty numeric cells never fail; they normalize to zero.
package dataprocessing
