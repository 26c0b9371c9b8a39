// Package store provides a SQLite-backed cache of name resolutions.
//
// A resolution maps a (fragment, max_results) lookup to the account ids the
// user search returned for it, stamped with the time it was made. The cache
// lets repeated searches for "@anna" skip the network.
//
// # Invariants
//
//   - One row per (fragment, max_results); writes replace the previous row
//   - Account ids are stored as a JSON array in resolver order
//   - Timestamps are unix milliseconds (UTC); freshness is decided by the
//     caller's clock, never by SQLite
//   - Reads are ordered by fragment, then max_results (BINARY collation)
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
package store
