package harness

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/roach88/mnemo/internal/engine"
	"github.com/roach88/mnemo/internal/ir"
	"github.com/roach88/mnemo/internal/store"
	"github.com/roach88/mnemo/internal/trie"
)

// AssertionContext provides what assertions need beyond the result.
type AssertionContext struct {
	Store     *store.Store
	Ctx       context.Context
	TraceID   string
	Root      *trie.Node
	Activator rune
	Final     engine.State
}

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s -> [%s] %q\n",
				ev.Seq, describeEvent(ev), strings.Join(ev.Intents, ", "), ev.MarkedText)
		}
	}

	return buf.String()
}

func describeEvent(ev TraceEvent) string {
	switch ev.Op {
	case string(ir.OpSelect):
		return fmt.Sprintf("select(%d)", ev.Index)
	case string(ir.OpDeactivate):
		return "deactivate"
	default:
		return ev.Key
	}
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(result, a, actx); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluateAssertion(result *Result, a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertCommitText:
		return assertCommitText(result, a)
	case AssertFinalState:
		return assertFinalState(result, a)
	case AssertBufferBound:
		return assertBufferBound(result, a)
	case AssertRulesFired:
		return assertRulesFired(actx, a)
	case AssertStoredSteps:
		return assertStoredSteps(actx, a)
	case AssertReplays:
		return assertReplays(actx)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertCommitText checks the concatenation of every committed text.
func assertCommitText(result *Result, a Assertion) error {
	if result.Committed == a.Text {
		return nil
	}
	return &AssertionError{
		Type:     AssertCommitText,
		Expected: fmt.Sprintf("%q", a.Text),
		Actual:   fmt.Sprintf("%q", result.Committed),
		Trace:    result.Trace,
	}
}

// assertFinalState checks the final state summary using subset semantics:
// only the fields named in Expect are compared. Keys are checked in sorted
// order so the first reported mismatch is deterministic.
func assertFinalState(result *Result, a Assertion) error {
	keys := make([]string, 0, len(a.Expect))
	for k := range a.Expect {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		expected := a.Expect[key]
		actual, exists := result.State[key]
		if !exists {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q to exist", key),
				Actual:   fmt.Sprintf("fields: %v", result.State.SortedKeys()),
			}
		}
		if !stateValuesEqual(expected, actual) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q = %v", key, expected),
				Actual:   fmt.Sprintf("field %q = %v", key, describeIR(actual)),
				Trace:    result.Trace,
			}
		}
	}
	return nil
}

// assertBufferBound checks the longest buffer seen during the run.
func assertBufferBound(result *Result, a Assertion) error {
	if result.MaxBuffer <= a.Max {
		return nil
	}
	return &AssertionError{
		Type:     AssertBufferBound,
		Expected: fmt.Sprintf("buffer at most %d characters", a.Max),
		Actual:   fmt.Sprintf("buffer reached %d characters", result.MaxBuffer),
	}
}

// assertRulesFired checks the rules recorded in the store, flattened across
// steps, against the expected sequence.
func assertRulesFired(actx *AssertionContext, a Assertion) error {
	steps, err := actx.Store.ReadSteps(actx.Ctx, actx.TraceID)
	if err != nil {
		return fmt.Errorf("read steps: %w", err)
	}
	var fired []string
	for _, st := range steps {
		fired = append(fired, st.Rules...)
	}
	if slices.Equal(fired, a.Rules) {
		return nil
	}
	return &AssertionError{
		Type:     AssertRulesFired,
		Expected: strings.Join(a.Rules, ", "),
		Actual:   strings.Join(fired, ", "),
	}
}

// assertStoredSteps checks how many steps the session recorded.
func assertStoredSteps(actx *AssertionContext, a Assertion) error {
	steps, err := actx.Store.ReadSteps(actx.Ctx, actx.TraceID)
	if err != nil {
		return fmt.Errorf("read steps: %w", err)
	}
	if len(steps) != a.Count {
		return &AssertionError{
			Type:     AssertStoredSteps,
			Expected: fmt.Sprintf("%d stored steps", a.Count),
			Actual:   fmt.Sprintf("%d stored steps", len(steps)),
		}
	}
	// Sequence numbers start at 1 and have no gaps.
	last, err := actx.Store.GetLastSeq(actx.Ctx, actx.TraceID)
	if err != nil {
		return err
	}
	if last != int64(len(steps)) {
		return &AssertionError{
			Type:     AssertStoredSteps,
			Expected: fmt.Sprintf("last seq %d", len(steps)),
			Actual:   fmt.Sprintf("last seq %d", last),
		}
	}
	return nil
}

// assertReplays replays the stored trace from scratch and compares the
// state it reaches with the live final state.
func assertReplays(actx *AssertionContext) error {
	steps, err := actx.Store.ReadSteps(actx.Ctx, actx.TraceID)
	if err != nil {
		return fmt.Errorf("read steps: %w", err)
	}
	replayed, err := engine.Replay(actx.Root, actx.Activator, steps)
	if err != nil {
		return &AssertionError{
			Type:     AssertReplays,
			Expected: "clean replay",
			Actual:   err.Error(),
		}
	}
	if replayed.Digest() != actx.Final.Digest() {
		return &AssertionError{
			Type:     AssertReplays,
			Expected: fmt.Sprintf("final state %s", actx.Final.Digest()),
			Actual:   fmt.Sprintf("replayed state %s", replayed.Digest()),
		}
	}
	return nil
}

// stateValuesEqual compares a YAML-decoded expectation with a summary value.
// YAML gives int for integers and []any for sequences.
func stateValuesEqual(expected any, actual ir.IRValue) bool {
	switch a := actual.(type) {
	case ir.IRString:
		e, ok := expected.(string)
		return ok && e == string(a)
	case ir.IRBool:
		e, ok := expected.(bool)
		return ok && e == bool(a)
	case ir.IRInt:
		switch e := expected.(type) {
		case int:
			return int64(e) == int64(a)
		case int64:
			return e == int64(a)
		}
		return false
	case ir.IRArray:
		e, ok := expected.([]any)
		if !ok || len(e) != len(a) {
			return false
		}
		for i := range a {
			if !stateValuesEqual(e[i], a[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// describeIR renders a summary value for error messages.
func describeIR(v ir.IRValue) string {
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
