// Package engine implements the mnemo composition engine.
//
// The engine turns (composition state, key) into (next state, intents). It
// matches an activator-prefixed mnemonic such as `\lambda` against a trie,
// keeps a candidate window for ambiguous matches, and tells the host what to
// do: reject the key, redraw, move the candidate highlight, or commit text.
//
// ARCHITECTURE:
//
// Pure core:
// Transition is a pure function over immutable State values. It never logs,
// never fails and never mutates its input. The decision logic is an explicit
// ordered rule list (rules.go); the first rule whose guard matches wins, and
// Apply reports which rules fired so a trace can be audited rule by rule.
//
// Session:
// Session holds the single composition in flight, serializes calls, defers
// dictionary swaps until the composition ends, and optionally records every
// step through a Recorder.
//
// Engine loop:
// Engine is a single-writer event loop in front of a Session for hosts that
// receive work from several goroutines.
//
// CRITICAL PATTERNS:
//
// Bounded growth:
// The buffer never exceeds MaxBufferLength characters; a continuation past
// the bound commits instead. The undo stack never exceeds MaxHistoryDepth
// snapshots and snapshots never carry their own history.
//
// Logical clock:
// Recorded steps are numbered by Clock.Next(), never by wall-clock time, so
// Replay can check a trace step by step.
package engine
