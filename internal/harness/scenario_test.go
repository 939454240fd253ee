package harness

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scenarioFiles returns every checked-in scenario.
func scenarioFiles(t *testing.T) []string {
	t.Helper()
	files, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, files)
	return files
}

func TestLoadScenario_CheckedInScenarios(t *testing.T) {
	for _, path := range scenarioFiles(t) {
		t.Run(filepath.Base(path), func(t *testing.T) {
			s, err := LoadScenario(path)
			require.NoError(t, err)
			assert.Equal(t, strings.TrimSuffix(filepath.Base(path), ".yaml"), s.Name,
				"scenario name should match its file name")
			assert.NotEmpty(t, s.Steps)
			assert.NotEmpty(t, s.Assertions)
		})
	}
}

func TestLoadScenario_ResolvesDictionaryFile(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "custom_activator.yaml"))
	require.NoError(t, err)

	assert.False(t, s.hasInlineDictionary())
	assert.Equal(t, filepath.Join("..", "dictionary", "testdata", "symbols.yaml"), s.DictionaryFile)
	_, err = os.Stat(s.DictionaryFile)
	assert.NoError(t, err, "resolved path should exist")
	assert.Equal(t, ";", s.Activator)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join("testdata", "scenarios", "does_not_exist.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_InlineDictionary(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: inline
description: inline dictionary
dictionary:
  "=":
    ">>": [≡]
steps:
  - keys: '\=='
assertions:
  - type: replays
`))
	require.NoError(t, err)
	assert.True(t, s.hasInlineDictionary())
	require.NoError(t, validateScenario(s))
}

func TestParseScenario_UnknownField(t *testing.T) {
	_, err := ParseScenario([]byte(`
name: typo
description: misspelled field
dictionary: {a: {">>": [α]}}
steps:
  - keys: '\a'
assertion:
  - type: replays
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestValidateScenario_Errors(t *testing.T) {
	const dict = "dictionary: {a: {\">>\": [α]}}\n"
	const steps = "steps:\n  - keys: '\\a'\n"
	const asserts = "assertions:\n  - type: replays\n"

	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing name",
			yaml:    "description: d\n" + dict + steps + asserts,
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			yaml:    "name: n\n" + dict + steps + asserts,
			wantErr: "description is required",
		},
		{
			name:    "no dictionary",
			yaml:    "name: n\ndescription: d\n" + steps + asserts,
			wantErr: "dictionary or dictionary_file is required",
		},
		{
			name:    "both dictionaries",
			yaml:    "name: n\ndescription: d\ndictionary_file: x.yaml\n" + dict + steps + asserts,
			wantErr: "mutually exclusive",
		},
		{
			name:    "missing dictionary file",
			yaml:    "name: n\ndescription: d\ndictionary_file: /nonexistent/dict.yaml\n" + steps + asserts,
			wantErr: "dictionary file not found",
		},
		{
			name:    "long activator",
			yaml:    "name: n\ndescription: d\nactivator: ab\n" + dict + steps + asserts,
			wantErr: "exactly one character",
		},
		{
			name:    "no steps",
			yaml:    "name: n\ndescription: d\n" + dict + asserts,
			wantErr: "steps list is required",
		},
		{
			name:    "no assertions",
			yaml:    "name: n\ndescription: d\n" + dict + steps,
			wantErr: "assertions list is required",
		},
		{
			name:    "two operations in one step",
			yaml:    "name: n\ndescription: d\n" + dict + "steps:\n  - keys: a\n    deactivate: true\n" + asserts,
			wantErr: "steps[0]: exactly one of keys, select, deactivate",
		},
		{
			name:    "empty step",
			yaml:    "name: n\ndescription: d\n" + dict + "steps:\n  - expect:\n      active: false\n" + asserts,
			wantErr: "steps[0]: exactly one of keys, select, deactivate",
		},
		{
			name:    "bad key script",
			yaml:    "name: n\ndescription: d\n" + dict + "steps:\n  - keys: <Nope>\n" + asserts,
			wantErr: "steps[0]",
		},
		{
			name:    "repeat without keys",
			yaml:    "name: n\ndescription: d\n" + dict + "steps:\n  - select: 1\n    repeat: 2\n" + asserts,
			wantErr: "repeat requires keys",
		},
		{
			name:    "negative repeat",
			yaml:    "name: n\ndescription: d\n" + dict + "steps:\n  - keys: a\n    repeat: -1\n" + asserts,
			wantErr: "repeat must be non-negative",
		},
		{
			name:    "assertion without type",
			yaml:    "name: n\ndescription: d\n" + dict + steps + "assertions:\n  - text: x\n",
			wantErr: "assertions[0]: type is required",
		},
		{
			name:    "unknown assertion type",
			yaml:    "name: n\ndescription: d\n" + dict + steps + "assertions:\n  - type: vibes\n",
			wantErr: `unknown assertion type "vibes"`,
		},
		{
			name:    "final_state without expect",
			yaml:    "name: n\ndescription: d\n" + dict + steps + "assertions:\n  - type: final_state\n",
			wantErr: "expect is required for final_state",
		},
		{
			name:    "rules_fired without rules",
			yaml:    "name: n\ndescription: d\n" + dict + steps + "assertions:\n  - type: rules_fired\n",
			wantErr: "rules list is required",
		},
		{
			name:    "buffer_bound without max",
			yaml:    "name: n\ndescription: d\n" + dict + steps + "assertions:\n  - type: buffer_bound\n",
			wantErr: "max must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ParseScenario([]byte(tt.yaml))
			require.NoError(t, err)

			err = validateScenario(s)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
