package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/mnemo/internal/ir"
)

// marshalIntents converts intents to canonical JSON TEXT for storage.
// A nil list is stored as "[]".
func marshalIntents(intents []ir.Intent) (string, error) {
	data, err := ir.MarshalCanonical(ir.IntentsToIR(intents))
	if err != nil {
		return "", fmt.Errorf("marshal intents: %w", err)
	}
	return string(data), nil
}

// marshalRules converts fired rule names to canonical JSON TEXT.
func marshalRules(rules []string) (string, error) {
	data, err := ir.MarshalCanonical(ir.Strings(rules))
	if err != nil {
		return "", fmt.Errorf("marshal rules: %w", err)
	}
	return string(data), nil
}

// unmarshalIntents parses canonical JSON TEXT to intents.
// Returns an empty (non-nil) slice for "[]".
func unmarshalIntents(data string) ([]ir.Intent, error) {
	intents := []ir.Intent{}
	if data == "" || data == "[]" {
		return intents, nil
	}
	if err := json.Unmarshal([]byte(data), &intents); err != nil {
		return nil, fmt.Errorf("unmarshal intents: %w", err)
	}
	return intents, nil
}

// unmarshalRules parses canonical JSON TEXT to rule names.
func unmarshalRules(data string) ([]string, error) {
	rules := []string{}
	if data == "" || data == "[]" {
		return rules, nil
	}
	if err := json.Unmarshal([]byte(data), &rules); err != nil {
		return nil, fmt.Errorf("unmarshal rules: %w", err)
	}
	return rules, nil
}
