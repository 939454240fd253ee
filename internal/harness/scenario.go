package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/roach88/mnemo/internal/ir"
)

// Scenario defines a conformance test scenario.
// Scenarios type keys into a session over a dictionary and assert on the
// intents, the final state and the recorded trace.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Dictionary is an inline dictionary, same shape as a dictionary file.
	// Kept as a node so keys such as "=" or "~" keep their literal text.
	Dictionary yaml.Node `yaml:"dictionary,omitempty"`

	// DictionaryFile is a dictionary path, used when Dictionary is empty.
	// Relative paths are resolved against the scenario file's directory.
	DictionaryFile string `yaml:"dictionary_file,omitempty"`

	// Activator overrides the default activator. Exactly one character.
	Activator string `yaml:"activator,omitempty"`

	// TraceID is an optional fixed trace ID.
	// If empty, defaults to "test-trace-default".
	TraceID string `yaml:"trace_id,omitempty"`

	// Steps are the operations to perform, in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state and the recorded trace.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one scenario operation: a key script, a candidate selection or a
// forced deactivation. Exactly one of Keys, Select and Deactivate is set.
type Step struct {
	// Keys is a key script in key-spec notation, e.g. `\le<Down><CR>`.
	Keys string `yaml:"keys,omitempty"`

	// Repeat types Keys this many times. Zero means once.
	Repeat int `yaml:"repeat,omitempty"`

	// Select is an absolute candidate index to select.
	Select *int `yaml:"select,omitempty"`

	// Deactivate force-resets the composition.
	Deactivate bool `yaml:"deactivate,omitempty"`

	// Expect validates what the step produced.
	Expect *StepExpect `yaml:"expect,omitempty"`
}

// StepExpect specifies expected step behavior. Nil fields are not checked.
type StepExpect struct {
	// Intents is the exact intent list across all of the step's keys, in
	// compact form such as "sync" or "commit(λ)".
	Intents []string `yaml:"intents,omitempty"`

	// MarkedText is the expected composition text after the step.
	MarkedText *string `yaml:"marked_text,omitempty"`

	// Active is the expected activity after the step.
	Active *bool `yaml:"active,omitempty"`
}

// Assertion validates the outcome of the whole scenario.
type Assertion struct {
	// Type specifies the assertion type:
	// - "commit_text": Check the concatenated committed text
	// - "final_state": Subset match against the final state summary
	// - "rules_fired": Check the recorded rule names in order
	// - "buffer_bound": Check the buffer never exceeded Max characters
	// - "stored_steps": Check the store holds exactly Count steps
	// - "replays": Check the stored trace replays cleanly
	Type string `yaml:"type"`

	// Text is the expected committed text (used by commit_text).
	Text string `yaml:"text,omitempty"`

	// Expect contains expected summary fields (used by final_state).
	// Subset match - only specified fields are validated.
	Expect map[string]any `yaml:"expect,omitempty"`

	// Rules is the expected rule sequence (used by rules_fired).
	Rules []string `yaml:"rules,omitempty"`

	// Max is the buffer ceiling (used by buffer_bound).
	Max int `yaml:"max,omitempty"`

	// Count is the expected number of stored steps (used by stored_steps).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertCommitText  = "commit_text"
	AssertFinalState  = "final_state"
	AssertRulesFired  = "rules_fired"
	AssertBufferBound = "buffer_bound"
	AssertStoredSteps = "stored_steps"
	AssertReplays     = "replays"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving the dictionary path relative to the provided base path.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	// Resolve the dictionary path relative to base path BEFORE validation
	if f := scenario.DictionaryFile; f != "" && !filepath.IsAbs(f) && basePath != "" {
		scenario.DictionaryFile = filepath.Join(basePath, f)
	}

	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML without validating file references.
func ParseScenario(data []byte) (*Scenario, error) {
	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &scenario, nil
}

// hasInlineDictionary reports whether the scenario carries a dictionary.
func (s *Scenario) hasInlineDictionary() bool {
	return s.Dictionary.Kind != 0
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case s.hasInlineDictionary() && s.DictionaryFile != "":
		return fmt.Errorf("dictionary and dictionary_file are mutually exclusive")
	case !s.hasInlineDictionary() && s.DictionaryFile == "":
		return fmt.Errorf("dictionary or dictionary_file is required")
	case s.DictionaryFile != "":
		if _, err := os.Stat(s.DictionaryFile); os.IsNotExist(err) {
			return fmt.Errorf("dictionary file not found: %s", s.DictionaryFile)
		}
	}

	if s.Activator != "" && utf8.RuneCountInString(s.Activator) != 1 {
		return fmt.Errorf("activator must be exactly one character, got %q", s.Activator)
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateStep checks that exactly one operation is set and that the key
// script parses.
func validateStep(index int, st *Step) error {
	ops := 0
	if st.Keys != "" {
		ops++
	}
	if st.Select != nil {
		ops++
	}
	if st.Deactivate {
		ops++
	}
	if ops != 1 {
		return fmt.Errorf("steps[%d]: exactly one of keys, select, deactivate is required", index)
	}

	if st.Keys != "" {
		if _, err := ir.ParseKeys(st.Keys); err != nil {
			return fmt.Errorf("steps[%d]: %w", index, err)
		}
	}
	if st.Repeat < 0 {
		return fmt.Errorf("steps[%d]: repeat must be non-negative", index)
	}
	if st.Repeat > 0 && st.Keys == "" {
		return fmt.Errorf("steps[%d]: repeat requires keys", index)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertCommitText, AssertReplays:
	case AssertFinalState:
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	case AssertRulesFired:
		if len(a.Rules) == 0 {
			return fmt.Errorf("assertions[%d]: rules list is required for rules_fired", index)
		}
	case AssertBufferBound:
		if a.Max <= 0 {
			return fmt.Errorf("assertions[%d]: max must be positive for buffer_bound", index)
		}
	case AssertStoredSteps:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for stored_steps", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
