// Package ir provides the canonical vocabulary shared by every layer of mnemo:
// keys delivered to the engine, intents emitted by it, and the step records
// persisted for replay.
//
// This package contains type definitions and pure helpers only. All other
// internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - NO float types anywhere - digests must be stable across platforms
//   - All JSON tags use snake_case
//   - Logical clocks (seq) only on step records, never wall-clock ordering
package ir
