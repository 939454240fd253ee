package testutil

import (
	"testing"

	"github.com/roach88/mnemo/internal/dictionary"
)

// MustDictionary parses a YAML dictionary or fails the test.
func MustDictionary(tb testing.TB, src string) *dictionary.Dictionary {
	tb.Helper()
	d, err := dictionary.Parse([]byte(src), dictionary.FormatYAML)
	if err != nil {
		tb.Fatalf("parse dictionary: %v", err)
	}
	return d
}
