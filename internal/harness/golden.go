package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/mnemo/internal/ir"
)

// TraceSnapshot captures the observable outcome of a scenario execution.
// All fields use canonical JSON serialization for deterministic comparison.
type TraceSnapshot struct {
	ScenarioName string
	Trace        []TraceEvent
	FinalState   ir.IRObject
}

// toCanonical converts a TraceSnapshot to an IRObject for canonical JSON
// serialization.
func (s *TraceSnapshot) toCanonical() ir.IRObject {
	trace := make(ir.IRArray, len(s.Trace))
	for i, ev := range s.Trace {
		obj := ir.IRObject{
			"seq":         ir.IRInt(ev.Seq),
			"op":          ir.IRString(ev.Op),
			"intents":     ir.Strings(ev.Intents),
			"marked_text": ir.IRString(ev.MarkedText),
			"active":      ir.IRBool(ev.Active),
		}
		switch ev.Op {
		case string(ir.OpKey):
			obj["key"] = ir.IRString(ev.Key)
		case string(ir.OpSelect):
			obj["index"] = ir.IRInt(ev.Index)
		}
		trace[i] = obj
	}

	return ir.IRObject{
		"scenario_name": ir.IRString(s.ScenarioName),
		"trace":         trace,
		"final_state":   s.FinalState,
	}
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if trace doesn't match golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the given result's trace against a golden file.
// This is useful when you've already run a scenario and want to compare
// the result against a golden file without re-running.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := GoldenBytes(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)

	return nil
}

// GoldenBytes renders a result as golden file content: canonical JSON of
// the scenario name, the trace and the final state, with no trailing
// newline.
func GoldenBytes(scenarioName string, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		Trace:        result.Trace,
		FinalState:   result.State,
	}
	return ir.MarshalCanonical(snapshot.toCanonical())
}
