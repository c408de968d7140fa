// Package models defines the core domain types for Splitsight.
//
// # Pipeline types
//
// Raw ledger data enters the system through the ingest package and is turned
// into explicit value types here:
//   - Expense: a shared purchase or settlement transfer, with per-user shares
//   - Group: a set of users who share expenses
//   - User: a ledger participant; exactly one is the analytics subject
//   - Record: an Expense after normalization (base currency, UTC timestamps,
//     settlement flag resolved)
//
// # Result types
//
// Each analyzer produces one insight type (SpendingInsight, BalanceInsight,
// CategoryInsight, GroupInsight, plus the advanced family). The Insights
// aggregate collects all of them into a single immutable snapshot that the
// HTTP layer serializes as-is, which is why these types carry JSON tags.
//
// # Design principles
//
//  1. Value types over maps: field access is compile-time checked, not
//     duck-typed.
//  2. No pointers between entities: relationships use plain identifiers.
//  3. Downstream code never mutates a Record; analyzers treat the normalized
//     slice as read-only input.
package models
