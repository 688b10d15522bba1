// Package models defines the core domain types for the splitwise ledger.
//
// # Models
//
//   - User: a registered account owning a friend book and its groups
//   - LedgerEntry: running signed balance plus reason log toward one
//     counterparty
//   - Group: named multi-party balance sheet anchored to its creator
//
// # Sign convention
//
// A positive LedgerEntry balance on A's entry for B means B owes A. Every
// operation that moves A's entry for B is expected to produce the
// mirror-signed move on B's entry for A; keeping that reciprocity is the
// job of the ledger service, not of these types.
//
// # Design principles
//
//  1. **No aliasing**: cross-user consistency is maintained procedurally
//     by the service layer, never by sharing entries between users
//  2. **Plain data**: types marshal directly to the persisted JSON record,
//     one record per user
//  3. **Float accumulation**: balances accumulate at float64 precision;
//     rounding happens in the service at the single half-split point
package models
