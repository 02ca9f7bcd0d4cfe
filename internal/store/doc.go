// Package store provides SQLite-backed durable storage for encoded
// tree snapshots.
//
// Each snapshot row holds the full wire JSON of one tree envelope
// plus its content-addressed digest (domain-separated SHA-256 over
// the tree's canonical bytes). The UNIQUE index on digest makes Save
// idempotent by content: re-saving an identical tree returns the
// existing record.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
package store
