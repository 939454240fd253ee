// Package harness provides conformance testing for the composition engine.
//
// The harness loads a dictionary, drives a recording Session through the
// keys a scenario lists, and checks the intents, the final state and the
// recorded trace against the scenario's expectations.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	dictionary:                 # inline, same shape as a dictionary file
//	  l:
//	    e: { ">>": ["≤", "<="] }
//	activator: "\\"             # optional, default backslash
//	steps:
//	  - keys: '\le'             # key-spec notation, see ir.ParseKeys
//	    expect:
//	      intents: [sync, sync, sync]
//	      marked_text: '\le'
//	  - select: 1
//	  - deactivate: true
//	assertions:
//	  - type: commit_text
//	    text: "≤"
//	  - type: final_state
//	    expect: { active: false, buffer: "" }
//
// A scenario may name a dictionary file (dictionary_file) instead of an
// inline dictionary. The path is resolved relative to the scenario file.
//
// # Assertion Types
//
// The following assertion types are supported:
//
//   - commit_text: All committed text, concatenated, equals text
//   - final_state: Subset match against the final state summary
//   - rules_fired: The recorded rules, in order, equal rules
//   - buffer_bound: The buffer never exceeded max characters
//   - stored_steps: The store holds exactly count steps for the trace
//   - replays: The stored trace replays without divergence
//
// # Deterministic Testing
//
// Every scenario runs with a fixed trace ID and an isolated in-memory
// SQLite store, and its trace is numbered by a deterministic logical clock,
// so golden files are byte-identical across runs.
package harness
