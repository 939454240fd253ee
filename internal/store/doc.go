// Package store provides SQLite-backed durable storage for mnemo traces.
//
// A trace is one recorded session: the dictionary fingerprint and activator
// it ran against, followed by every step the session processed with the
// intents, fired rules and state digest the engine produced.
//
// # Critical Patterns
//
// Append-only:
//   - Steps are inserted with ON CONFLICT(id) DO NOTHING, so recording the
//     same step twice is harmless
//   - UNIQUE(trace_id, seq) rejects a different step at a used position
//
// Logical time:
//   - All ordering uses seq INTEGER (logical clock), NEVER timestamps
//   - All step queries include ORDER BY seq ASC, id ASC COLLATE BINARY
//
// Canonical payloads:
//   - intents and rules are stored as canonical JSON produced by
//     ir.MarshalCanonical, so equal steps are byte-equal rows
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
