package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, src string) *Scenario {
	t.Helper()
	s, err := ParseScenario([]byte(src))
	require.NoError(t, err)
	require.NoError(t, validateScenario(s))
	return s
}

func TestRun_CheckedInScenariosPass(t *testing.T) {
	for _, path := range scenarioFiles(t) {
		t.Run(filepath.Base(path), func(t *testing.T) {
			s, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := Run(s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Empty(t, result.Errors)
		})
	}
}

func TestRun_TraceEvents(t *testing.T) {
	s := mustParse(t, `
name: trace_events
description: one event per key
dictionary:
  l:
    a:
      ">>": [λ]
steps:
  - keys: '\la'
assertions:
  - type: commit_text
    text: λ
`)

	result, err := Run(s)
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	require.Len(t, result.Trace, 3)
	assert.Equal(t, TraceEvent{Seq: 1, Op: "key", Key: `\`, Intents: []string{"sync"}, MarkedText: `\`, Active: true}, result.Trace[0])
	assert.Equal(t, TraceEvent{Seq: 2, Op: "key", Key: "l", Intents: []string{"sync"}, MarkedText: `\l`, Active: true}, result.Trace[1])
	assert.Equal(t, TraceEvent{Seq: 3, Op: "key", Key: "a", Intents: []string{"commit(λ)"}, MarkedText: "", Active: false}, result.Trace[2])
	assert.Equal(t, "λ", result.Committed)
	assert.Equal(t, 2, result.MaxBuffer)
}

func TestRun_PassThroughKeysAreObserved(t *testing.T) {
	s := mustParse(t, `
name: pass_through
description: keys typed while inactive never reach the engine
dictionary: {a: {">>": [α]}}
steps:
  - keys: hi
    expect:
      intents: []
      active: false
assertions:
  - type: stored_steps
    count: 0
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	require.Len(t, result.Trace, 2)
	assert.Empty(t, result.Trace[0].Intents)
	assert.NotNil(t, result.Trace[0].Intents)
}

func TestRun_StepExpectationMismatch(t *testing.T) {
	s := mustParse(t, `
name: mismatch
description: wrong expectations
dictionary: {l: {a: {">>": [λ]}}}
steps:
  - keys: '\l'
    expect:
      intents: [sync]
      marked_text: '\x'
      active: false
assertions:
  - type: replays
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 3)
	assert.Equal(t, "steps[0]: intents = [sync, sync], want [sync]", result.Errors[0])
	assert.Equal(t, `steps[0]: marked text = "\\l", want "\\x"`, result.Errors[1])
	assert.Equal(t, "steps[0]: active = true, want false", result.Errors[2])
}

func TestRun_AssertionFailures(t *testing.T) {
	s := mustParse(t, `
name: failing_assertions
description: every assertion disagrees with what happened
dictionary:
  l:
    e:
      ">>": ["≤", "<="]
steps:
  - keys: '\le'
assertions:
  - type: commit_text
    text: "≤"
  - type: final_state
    expect:
      buffer: '\l'
  - type: rules_fired
    rules: [activate, auto-commit]
  - type: buffer_bound
    max: 2
  - type: stored_steps
    count: 1
  - type: replays
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 5, "replays should still pass: %v", result.Errors)

	assert.Contains(t, result.Errors[0], "assertions[0]")
	assert.Contains(t, result.Errors[0], "commit_text")
	assert.Contains(t, result.Errors[1], `field "buffer"`)
	assert.Contains(t, result.Errors[2], "activate, continue, continue")
	assert.Contains(t, result.Errors[3], "buffer reached 3 characters")
	assert.Contains(t, result.Errors[4], "3 stored steps")
}

func TestRun_FinalStateMissingField(t *testing.T) {
	s := mustParse(t, `
name: missing_field
description: asks for a field the summary does not have
dictionary: {a: {">>": [α]}}
steps:
  - keys: '\a'
assertions:
  - type: final_state
    expect:
      cursor: 0
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], `field "cursor" to exist`)
}

func TestRun_FixedTraceID(t *testing.T) {
	s := mustParse(t, `
name: fixed_trace
description: steps are stored under the scenario's trace id
trace_id: trace-under-test
dictionary: {a: {">>": [α]}}
steps:
  - keys: '\a'
assertions:
  - type: stored_steps
    count: 2
  - type: replays
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_Deterministic(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "navigate_and_select.yaml"))
	require.NoError(t, err)

	first, err := Run(s)
	require.NoError(t, err)
	second, err := Run(s)
	require.NoError(t, err)

	assert.Equal(t, first.Trace, second.Trace)
	assert.Equal(t, first.State, second.State)
}

func TestRun_InvalidDictionary(t *testing.T) {
	s := mustParse(t, `
name: bad_dictionary
description: candidates must be a list
dictionary:
  a:
    ">>": 5
steps:
  - keys: '\a'
assertions:
  - type: replays
`)

	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load dictionary")
}

func TestAssertionError_Error(t *testing.T) {
	err := &AssertionError{
		Type:     AssertCommitText,
		Expected: `"λ"`,
		Actual:   `""`,
		Trace: []TraceEvent{
			{Seq: 1, Op: "key", Key: `\`, Intents: []string{"sync"}, MarkedText: `\`},
			{Seq: 2, Op: "select", Index: 3},
			{Seq: 3, Op: "deactivate"},
		},
	}

	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: commit_text")
	assert.Contains(t, msg, `Expected: "λ"`)
	assert.Contains(t, msg, "[1] \\ -> [sync]")
	assert.Contains(t, msg, "[2] select(3) -> []")
	assert.Contains(t, msg, "[3] deactivate -> []")
}
