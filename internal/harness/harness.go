package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/roach88/mnemo/internal/dictionary"
	"github.com/roach88/mnemo/internal/engine"
	"github.com/roach88/mnemo/internal/ir"
	"github.com/roach88/mnemo/internal/store"
	"github.com/roach88/mnemo/internal/testutil"
)

// Harness is the test execution engine.
// It drives one recording Session with a deterministic clock and trace ID.
type Harness struct {
	store   *store.Store
	session *engine.Session
	dict    *dictionary.Dictionary
	clock   *engine.Clock
	traceID string
	logger  *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Deterministic helpers ensure reproducible results.
//
// Execution flow:
// 1. Load the dictionary (inline or file)
// 2. Create fresh in-memory database and a recording session
// 3. Execute steps, checking each step's expectations
// 4. Evaluate assertions against the result and the stored trace
func Run(scenario *Scenario) (*Result, error) {
	dict, err := loadDictionary(scenario)
	if err != nil {
		return nil, fmt.Errorf("failed to load dictionary: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	traceGen := testutil.NewFixedTraceGenerator(scenario.TraceID)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests

	opts := []engine.SessionOption{
		engine.WithRecorder(st),
		engine.WithTraceIDGenerator(traceGen),
		engine.WithLogger(logger),
	}
	activator := engine.DefaultActivator
	if scenario.Activator != "" {
		activator, _ = utf8.DecodeRuneInString(scenario.Activator)
		opts = append(opts, engine.WithActivator(activator))
	}

	h := &Harness{
		store:   st,
		session: engine.NewSession(dict.Root, opts...),
		dict:    dict,
		clock:   engine.NewClock(),
		traceID: traceGen.Generate(),
		logger:  logger,
	}

	ctx := context.Background()
	result := NewResult()
	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i, step, result); err != nil {
			return nil, fmt.Errorf("failed to execute step %d: %w", i, err)
		}
	}

	final := h.session.CurrentState()
	result.State = final.Summary()

	actx := &AssertionContext{
		Store:     st,
		Ctx:       ctx,
		TraceID:   h.traceID,
		Root:      dict.Root,
		Activator: activator,
		Final:     final,
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

// loadDictionary builds the scenario's dictionary from the inline node or
// the dictionary file.
func loadDictionary(s *Scenario) (*dictionary.Dictionary, error) {
	if !s.hasInlineDictionary() {
		return dictionary.Load(s.DictionaryFile)
	}
	tree, err := dictionary.DecodeYAMLNode(&s.Dictionary)
	if err != nil {
		return nil, err
	}
	return dictionary.FromTree(tree, s.Name)
}

// executeStep performs one scenario step and checks its expectations.
// Key scripts are fed one key at a time, so the trace has one event per key.
func (h *Harness) executeStep(ctx context.Context, index int, step Step, result *Result) error {
	var produced []ir.Intent

	switch {
	case step.Keys != "":
		keys, err := ir.ParseKeys(step.Keys)
		if err != nil {
			return err
		}
		for n := 0; n < max(step.Repeat, 1); n++ {
			for _, k := range keys {
				intents := h.session.Step(ctx, k)
				produced = append(produced, intents...)
				h.observe(TraceEvent{Op: string(ir.OpKey), Key: ir.FormatKey(k)}, intents, result)
			}
		}

	case step.Select != nil:
		h.session.SelectCandidateByIndex(*step.Select)
		h.observe(TraceEvent{Op: string(ir.OpSelect), Index: *step.Select}, nil, result)

	case step.Deactivate:
		h.session.Deactivate()
		h.observe(TraceEvent{Op: string(ir.OpDeactivate)}, nil, result)
	}

	h.logger.Info("step completed",
		"step", index,
		"intents", ir.FormatIntents(produced),
	)

	if step.Expect != nil {
		h.checkExpect(index, step.Expect, produced, result)
	}
	return nil
}

// observe stamps an event with the next seq and the state it left behind.
func (h *Harness) observe(ev TraceEvent, intents []ir.Intent, result *Result) {
	s := h.session.CurrentState()
	ev.Seq = h.clock.Next()
	ev.Intents = renderIntents(intents)
	ev.MarkedText = s.MarkedText()
	ev.Active = s.Active()
	result.MaxBuffer = max(result.MaxBuffer, s.BufferLength())
	result.addEvent(ev, intents)
}

func (h *Harness) checkExpect(index int, exp *StepExpect, produced []ir.Intent, result *Result) {
	s := h.session.CurrentState()

	if exp.Intents != nil {
		got := renderIntents(produced)
		if !slices.Equal(got, exp.Intents) {
			result.AddError(fmt.Sprintf("steps[%d]: intents = [%s], want [%s]",
				index, strings.Join(got, ", "), strings.Join(exp.Intents, ", ")))
		}
	}
	if exp.MarkedText != nil && s.MarkedText() != *exp.MarkedText {
		result.AddError(fmt.Sprintf("steps[%d]: marked text = %q, want %q", index, s.MarkedText(), *exp.MarkedText))
	}
	if exp.Active != nil && s.Active() != *exp.Active {
		result.AddError(fmt.Sprintf("steps[%d]: active = %t, want %t", index, s.Active(), *exp.Active))
	}
}
