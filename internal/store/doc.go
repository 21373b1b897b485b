// Package store provides SQLite-backed persistence for resolved dictionaries.
//
// Two tables:
//   - dictionaries: the last present result per query name, stored as its
//     record payload so it re-parses exactly like a fresh answer
//   - resolutions: append-only audit log of every resolve outcome
//
// # Ordering
//
// Audit rows carry a seq INTEGER assigned by the store. Queries order by
// seq ASC, id ASC COLLATE BINARY, so listings are stable regardless of wall
// time.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//
// *Store implements resolver.Store.
package store
